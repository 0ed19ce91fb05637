package sample

import (
	"encoding/binary"
	"fmt"
)

// Band is one decoded wavelet subband: its header and the raw
// entropy-coded payload bytes (interpreted by internal/vlc, not this
// package).
type Band struct {
	Header  BandHeader
	Payload []byte
}

// Level is one wavelet transform level's bands, in Band order (LH/HL/HH
// for every level but a channel's last; LL, LH, HL, HH for the last,
// deepest level, the only one whose LL band is stored).
type Level struct {
	Bands []Band
}

// Channel is one color-plane's per-level record.
type Channel struct {
	Index  uint16
	Levels []Level
}

// Sample is a fully parsed sample: its header, per-channel wavelet data,
// and any forwarded metadata chunks (tag >= 0x8000), opaque to this
// package (spec.md §7, §8 hands these to the active-metadata layer).
type Sample struct {
	Header   Header
	Channels []Channel
	Metadata []Chunk
}

// Decode parses a complete sample bitstream.
func Decode(buf []byte) (*Sample, error) {
	s := &Sample{}
	sawHeader := false
	sawEnd := false

	err := Walk(buf, func(c Chunk) error {
		if sawEnd {
			return nil // trailing chunks after SAMPLE_END are ignored
		}
		switch StructuralTag(c.Tag) {
		case TagSampleHeader:
			h, err := DecodeHeader(c.Payload)
			if err != nil {
				return err
			}
			s.Header = h
			sawHeader = true
		case TagChannelIndex:
			ch, err := decodeChannel(c.Payload)
			if err != nil {
				return err
			}
			s.Channels = append(s.Channels, ch)
		case TagSampleEnd:
			sawEnd = true
		default:
			if IsMetadata(c.Tag) {
				s.Metadata = append(s.Metadata, c)
				return nil
			}
			return fmt.Errorf("sample: %w: tag %#04x", ErrUnsupportedSample, c.Tag)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !sawHeader {
		return nil, fmt.Errorf("sample: %w: missing sample header", ErrCorrupt)
	}
	return s, nil
}

// decodeChannel parses a TagChannelIndex big tag's payload: the channel's
// index (from a leading CHANNEL_SIZE-adjacent record) followed by one
// TagWaveletLevel big tag per transform level.
func decodeChannel(payload []byte) (Channel, error) {
	var ch Channel
	err := Walk(payload, func(c Chunk) error {
		switch StructuralTag(c.Tag) {
		case TagChannelSize:
			if len(c.Payload) < 2 {
				return fmt.Errorf("sample: %w: channel size payload too short", ErrCorrupt)
			}
			ch.Index = binary.BigEndian.Uint16(c.Payload[0:2])
		case TagWaveletLevel:
			lvl, err := decodeLevel(c.Payload)
			if err != nil {
				return err
			}
			ch.Levels = append(ch.Levels, lvl)
		default:
			if IsMetadata(c.Tag) {
				return nil
			}
			return fmt.Errorf("sample: %w: tag %#04x inside channel", ErrUnsupportedSample, c.Tag)
		}
		return nil
	})
	return ch, err
}

// decodeLevel parses a TagWaveletLevel big tag's payload: alternating
// TagBandHeader/TagBandPayload pairs, one per subband.
func decodeLevel(payload []byte) (Level, error) {
	var lvl Level
	var pending *BandHeader

	err := Walk(payload, func(c Chunk) error {
		switch StructuralTag(c.Tag) {
		case TagBandHeader:
			bh, err := DecodeBandHeader(c.Payload)
			if err != nil {
				return err
			}
			pending = &bh
		case TagBandPayload:
			if pending == nil {
				return fmt.Errorf("sample: %w: band payload with no preceding band header", ErrCorrupt)
			}
			lvl.Bands = append(lvl.Bands, Band{Header: *pending, Payload: c.Payload})
			pending = nil
		default:
			if IsMetadata(c.Tag) {
				return nil
			}
			return fmt.Errorf("sample: %w: tag %#04x inside wavelet level", ErrUnsupportedSample, c.Tag)
		}
		return nil
	})
	if err == nil && pending != nil {
		return Level{}, fmt.Errorf("sample: %w: band header with no following payload", ErrCorrupt)
	}
	return lvl, err
}

// Encode serializes a Sample back into its TLV wire form.
func Encode(s *Sample) ([]byte, error) {
	w := NewWriter()
	if err := w.Put(uint16(TagSampleHeader), TypeBytes, EncodeHeader(s.Header)); err != nil {
		return nil, err
	}
	for _, ch := range s.Channels {
		w.OpenBigTag(uint16(TagChannelIndex))
		var sizeBuf [2]byte
		binary.BigEndian.PutUint16(sizeBuf[:], ch.Index)
		if err := w.Put(uint16(TagChannelSize), TypeU16, sizeBuf[:]); err != nil {
			return nil, err
		}
		for _, lvl := range ch.Levels {
			w.OpenBigTag(uint16(TagWaveletLevel))
			for _, b := range lvl.Bands {
				if err := w.Put(uint16(TagBandHeader), TypeBytes, EncodeBandHeader(b.Header)); err != nil {
					return nil, err
				}
				if err := w.Put(uint16(TagBandPayload), TypeBytes, b.Payload); err != nil {
					return nil, err
				}
			}
			if err := w.CloseBigTag(); err != nil {
				return nil, err
			}
		}
		if err := w.CloseBigTag(); err != nil {
			return nil, err
		}
	}
	for _, m := range s.Metadata {
		if err := w.Put(m.Tag, m.Type, m.Payload); err != nil {
			return nil, err
		}
	}
	if err := w.Put(uint16(TagSampleEnd), TypeU8, []byte{0}); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
