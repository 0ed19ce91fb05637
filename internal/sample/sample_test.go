package sample

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestChunkRoundTrip(t *testing.T) {
	buf, err := WriteChunk(nil, 0x1234, TypeBytes, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}
	c, n, err := ReadChunk(buf)
	if err != nil {
		t.Fatalf("ReadChunk: %v", err)
	}
	if n != len(buf) {
		t.Errorf("consumed %d, want %d", n, len(buf))
	}
	if c.Tag != 0x1234 || c.Type != TypeBytes {
		t.Errorf("got tag=%#04x type=%c", c.Tag, c.Type)
	}
	if !bytes.Equal(c.Payload[:3], []byte{1, 2, 3}) {
		t.Errorf("payload = %v, want [1 2 3 ...]", c.Payload)
	}
}

func TestReadChunkTruncated(t *testing.T) {
	if _, _, err := ReadChunk([]byte{0, 1}); !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestReadChunkPayloadOverrun(t *testing.T) {
	buf := []byte{0x00, 0x01, 0x00, 0x00, 0x05, 'c'} // declares 20 bytes, has 0
	if _, _, err := ReadChunk(buf); !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		FormatVersion: 3,
		EncodedFormat: FormatYUV422,
		Width:         1920,
		Height:        1080,
		DisplayHeight: 1080,
		LevelCount:    3,
		ChannelCount:  3,
		KeyFrame:      true,
	}
	got, err := DecodeHeader(EncodeHeader(h))
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if !cmp.Equal(got, h) {
		t.Errorf("header round trip mismatch (-want +got):\n%s", cmp.Diff(h, got))
	}
}

func TestBandHeaderRoundTrip(t *testing.T) {
	bh := BandHeader{Q: 7, Width: 960, Height: 540, Scale: 2, PixelType: 1}
	got, err := DecodeBandHeader(EncodeBandHeader(bh))
	if err != nil {
		t.Fatalf("DecodeBandHeader: %v", err)
	}
	if !cmp.Equal(got, bh) {
		t.Errorf("band header round trip mismatch (-want +got):\n%s", cmp.Diff(bh, got))
	}
}

func TestWriterBigTagNesting(t *testing.T) {
	w := NewWriter()
	w.OpenBigTag(0x10)
	if err := w.Put(0x11, TypeU8, []byte{5}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	w.OpenBigTag(0x20)
	if err := w.Put(0x21, TypeU8, []byte{6}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := w.CloseBigTag(); err != nil {
		t.Fatalf("CloseBigTag inner: %v", err)
	}
	if err := w.CloseBigTag(); err != nil {
		t.Fatalf("CloseBigTag outer: %v", err)
	}

	outer, n, err := ReadChunk(w.Bytes())
	if err != nil {
		t.Fatalf("ReadChunk outer: %v", err)
	}
	if n != len(w.Bytes()) {
		t.Fatalf("outer chunk did not span whole buffer: %d of %d", n, len(w.Bytes()))
	}
	if outer.Tag != 0x10 || outer.Type != TypeBigTag {
		t.Fatalf("outer = %+v", outer)
	}

	var sawInner, sawNested bool
	err = Walk(outer.Payload, func(c Chunk) error {
		switch c.Tag {
		case 0x11:
			sawInner = true
		case 0x20:
			sawNested = true
			return Walk(c.Payload, func(inner Chunk) error {
				if inner.Tag != 0x21 || inner.Payload[0] != 6 {
					t.Errorf("nested chunk = %+v", inner)
				}
				return nil
			})
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if !sawInner || !sawNested {
		t.Fatalf("sawInner=%v sawNested=%v", sawInner, sawNested)
	}
}

func TestCloseBigTagWithoutOpen(t *testing.T) {
	w := NewWriter()
	if err := w.CloseBigTag(); !errors.Is(err, errNoOpenBigTag) {
		t.Errorf("expected errNoOpenBigTag, got %v", err)
	}
}

func buildSample(t *testing.T) *Sample {
	t.Helper()
	return &Sample{
		Header: Header{FormatVersion: 1, EncodedFormat: FormatYUV422, Width: 64, Height: 32, DisplayHeight: 32, LevelCount: 1, ChannelCount: 1, KeyFrame: true},
		Channels: []Channel{
			{
				Index: 0,
				Levels: []Level{
					{
						Bands: []Band{
							{Header: BandHeader{Q: 1, Width: 32, Height: 16, Scale: 0, PixelType: 0}, Payload: []byte{1, 2, 3, 4}},
							{Header: BandHeader{Q: 4, Width: 32, Height: 16, Scale: 2, PixelType: 0}, Payload: []byte{5, 6}},
						},
					},
				},
			},
		},
		Metadata: []Chunk{{Tag: 0x8001, Type: TypeString, Payload: []byte("hello")}},
	}
}

func TestSampleEncodeDecodeRoundTrip(t *testing.T) {
	s := buildSample(t)
	buf, err := Encode(s)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !cmp.Equal(got.Header, s.Header) {
		t.Errorf("header mismatch (-want +got):\n%s", cmp.Diff(s.Header, got.Header))
	}
	if len(got.Channels) != 1 || len(got.Channels[0].Levels) != 1 || len(got.Channels[0].Levels[0].Bands) != 2 {
		t.Fatalf("channel/level/band shape mismatch: %+v", got.Channels)
	}
	band0 := got.Channels[0].Levels[0].Bands[0]
	if !cmp.Equal(band0.Header, s.Channels[0].Levels[0].Bands[0].Header) {
		t.Errorf("band0 header mismatch (-want +got):\n%s", cmp.Diff(s.Channels[0].Levels[0].Bands[0].Header, band0.Header))
	}
	if !bytes.Equal(band0.Payload, []byte{1, 2, 3, 4}) {
		t.Errorf("band0 payload = %v", band0.Payload)
	}
	if len(got.Metadata) != 1 || string(got.Metadata[0].Payload) != "hello" {
		t.Errorf("metadata = %+v", got.Metadata)
	}
}

func TestDecodeRejectsUnknownStructuralTag(t *testing.T) {
	buf, _ := WriteChunk(nil, uint16(TagSampleHeader), TypeBytes, EncodeHeader(Header{}))
	buf, _ = WriteChunk(buf, 0x0042, TypeU8, []byte{0}) // unknown structural tag
	if _, err := Decode(buf); !errors.Is(err, ErrUnsupportedSample) {
		t.Errorf("expected ErrUnsupportedSample, got %v", err)
	}
}

func TestDecodeRejectsMissingHeader(t *testing.T) {
	buf, _ := WriteChunk(nil, uint16(TagSampleEnd), TypeU8, []byte{0})
	if _, err := Decode(buf); !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestDecodeIgnoresUnknownMetadataTag(t *testing.T) {
	buf, _ := WriteChunk(nil, uint16(TagSampleHeader), TypeBytes, EncodeHeader(Header{}))
	buf, _ = WriteChunk(buf, 0x9999, TypeBytes, []byte("whatever"))
	s, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(s.Metadata) != 1 {
		t.Errorf("expected metadata chunk forwarded, got %+v", s.Metadata)
	}
}
