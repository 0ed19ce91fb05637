package cineform

import (
	"errors"
	"testing"

	"github.com/cineform-go/cineform/internal/sample"
)

func TestNewSessionRejectsBadConfig(t *testing.T) {
	if _, err := NewSession(Config{Width: 0, Height: 4, LevelCount: 1}); err == nil {
		t.Error("expected error for zero width")
	} else if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := NewSession(Config{Width: 4, Height: 4, LevelCount: 5}); err == nil {
		t.Error("expected error for bad level count")
	}
}

func yuyvFrame(w, h int) []byte {
	buf := make([]byte, w*h*2)
	for i := range buf {
		buf[i] = byte((i*29 + 3) % 211)
	}
	return buf
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	const w, h = 8, 4
	sess, err := NewSession(Config{
		Width: w, Height: h,
		PixelFormat:   YUYV,
		LevelCount:    1,
		Quantizer:     1,
		Prescale:      ZeroPrescale(),
		RoundingBias:  BiasReversible,
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer sess.Close()

	src := yuyvFrame(w, h)
	wire, err := sess.Encode(src, true)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(wire) == 0 {
		t.Fatal("expected non-empty wire sample")
	}

	dst := make([]byte, PackedSize(YUYV, w, h))
	if err := sess.Decode(wire, dst); err != nil {
		t.Fatalf("Decode: %v", err)
	}
}

func TestEncodeRejectsEmptyBuffer(t *testing.T) {
	sess, err := NewSession(Config{
		Width: 4, Height: 4, PixelFormat: YUYV,
		LevelCount: 1, Quantizer: 1,
		Prescale: ZeroPrescale(), RoundingBias: BiasReversible,
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer sess.Close()

	if _, err := sess.Encode(nil, true); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestDecodeRejectsCorruptWire(t *testing.T) {
	sess, err := NewSession(Config{
		Width: 4, Height: 4, PixelFormat: YUYV,
		LevelCount: 1, Quantizer: 1,
		Prescale: ZeroPrescale(), RoundingBias: BiasReversible,
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer sess.Close()

	err = sess.Decode([]byte("not a sample"), make([]byte, PackedSize(YUYV, 4, 4)))
	if err == nil {
		t.Fatal("expected error decoding garbage")
	}
	if !errors.Is(err, ErrCorruptBitstream) {
		t.Errorf("expected ErrCorruptBitstream, got %v", err)
	}
}

func TestDecodeRejectsDimensionMismatch(t *testing.T) {
	const w, h = 8, 4
	sess, err := NewSession(Config{
		Width: w, Height: h, PixelFormat: YUYV,
		LevelCount: 1, Quantizer: 1,
		Prescale: ZeroPrescale(), RoundingBias: BiasReversible,
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer sess.Close()

	bad := &sample.Sample{Header: sample.Header{
		FormatVersion: 1,
		Width:         w * 2,
		Height:        h,
		DisplayHeight: h,
		LevelCount:    1,
		ChannelCount:  3,
	}}
	wire, err := sample.Encode(bad)
	if err != nil {
		t.Fatalf("sample.Encode: %v", err)
	}

	err = sess.Decode(wire, make([]byte, PackedSize(YUYV, w, h)))
	if err == nil {
		t.Fatal("expected dimension mismatch error")
	}
	if !errors.Is(err, ErrBadFrame) {
		t.Errorf("expected ErrBadFrame, got %v", err)
	}
}

func TestDecodeRejectsDifferenceFrameWithoutKeyframe(t *testing.T) {
	const w, h = 8, 4
	sess, err := NewSession(Config{
		Width: w, Height: h, PixelFormat: YUYV,
		LevelCount: 1, Quantizer: 1,
		Prescale: ZeroPrescale(), RoundingBias: BiasReversible,
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer sess.Close()

	// Encode a P frame (keyFrame=false) on a session that has never
	// decoded anything: the decoder must refuse it for lack of a
	// keyframe reference (spec.md §4.9, scenario 4).
	src := yuyvFrame(w, h)
	wire, err := sess.Encode(src, false)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	dst := make([]byte, PackedSize(YUYV, w, h))
	err = sess.Decode(wire, dst)
	if err == nil {
		t.Fatal("expected MissingReference error")
	}
	if !errors.Is(err, ErrMissingReference) {
		t.Errorf("expected ErrMissingReference, got %v", err)
	}
	for i, b := range dst {
		if b != 0 {
			t.Fatalf("byte %d = %d, want untouched 0", i, b)
		}
	}
}

func TestDecodeAcceptsDifferenceFrameAfterKeyframe(t *testing.T) {
	const w, h = 8, 4
	sess, err := NewSession(Config{
		Width: w, Height: h, PixelFormat: YUYV,
		LevelCount: 1, Quantizer: 1,
		Prescale: ZeroPrescale(), RoundingBias: BiasReversible,
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer sess.Close()

	src := yuyvFrame(w, h)
	keyWire, err := sess.Encode(src, true)
	if err != nil {
		t.Fatalf("Encode key: %v", err)
	}
	dst := make([]byte, PackedSize(YUYV, w, h))
	if err := sess.Decode(keyWire, dst); err != nil {
		t.Fatalf("Decode key: %v", err)
	}

	pWire, err := sess.Encode(src, false)
	if err != nil {
		t.Fatalf("Encode p-frame: %v", err)
	}
	if err := sess.Decode(pWire, dst); err != nil {
		t.Errorf("Decode p-frame after keyframe: %v", err)
	}
}

func TestMetadataWithoutDirReturnsDefaults(t *testing.T) {
	sess, err := NewSession(Config{
		Width: 4, Height: 4, PixelFormat: YUYV,
		LevelCount: 1, Quantizer: 1,
		Prescale: ZeroPrescale(), RoundingBias: BiasReversible,
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer sess.Close()

	d, err := sess.Metadata()
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if d.CPULimit != -1 {
		t.Errorf("expected identity-default CFHDDATA (CPULimit=-1, no limit), got %d", d.CPULimit)
	}
}

func bayerFrame(w, h int) []byte {
	buf := make([]byte, w*h*2)
	for i := 0; i < w*h; i++ {
		buf[i*2] = byte((i * 7) % 16)
		buf[i*2+1] = byte((i*11 + 3) % 256)
	}
	return buf
}

func TestEncodeDecodeRoundTripBayer(t *testing.T) {
	const w, h = 8, 4
	sess, err := NewSession(Config{
		Width: w, Height: h,
		PixelFormat:  BayerRG,
		LevelCount:   1,
		Quantizer:    1,
		Prescale:     ZeroPrescale(),
		RoundingBias: BiasReversible,
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer sess.Close()

	src := bayerFrame(w, h)
	wire, err := sess.Encode(src, true)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	dst := make([]byte, PackedSize(BayerRG, w, h))
	if err := sess.Decode(wire, dst); err != nil {
		t.Fatalf("Decode: %v", err)
	}
}

func TestPackedSize(t *testing.T) {
	cases := []struct {
		format PixelFormat
		w, h   int
		want   int
	}{
		{YUYV, 1920, 1080, 1920 * 1080 * 2},
		{RG24, 100, 50, 100 * 50 * 3},
		{RG32, 100, 50, 100 * 50 * 4},
		{NV12, 64, 64, 64*64 + 2*32*32},
		{BayerRG, 64, 64, 64 * 64 * 2},
	}
	for _, c := range cases {
		if got := PackedSize(c.format, c.w, c.h); got != c.want {
			t.Errorf("PackedSize(%v,%d,%d) = %d, want %d", c.format, c.w, c.h, got, c.want)
		}
	}
}
