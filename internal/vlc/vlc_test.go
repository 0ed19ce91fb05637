package vlc

import (
	"reflect"
	"testing"

	"github.com/cineform-go/cineform/internal/bitio"
)

func roundTrip(t *testing.T, cb *Codebook, coeffs []int32) []int32 {
	t.Helper()
	fsm, err := BuildFSM(cb)
	if err != nil {
		t.Fatalf("BuildFSM: %v", err)
	}

	buf := make([]byte, 4096)
	w := bitio.NewWriter(buf)
	peaks, err := EncodeBand(w, cb, coeffs)
	if err != nil {
		t.Fatalf("EncodeBand: %v", err)
	}
	if err := w.AlignToWord(); err != nil {
		t.Fatalf("AlignToWord: %v", err)
	}

	r := bitio.NewReader(w.Bytes())
	out := make([]int32, len(coeffs))
	if err := fsm.DecodeBand(r, out, peaks); err != nil {
		t.Fatalf("DecodeBand: %v", err)
	}
	return out
}

func TestRoundTripSmallValues(t *testing.T) {
	cb := &ProfileMedium
	coeffs := []int32{0, 0, 0, 1, -1, 2, 0, 0, 0, 0, 0, 3, -16, 16, 0}
	got := roundTrip(t, cb, coeffs)
	if !reflect.DeepEqual(got, coeffs) {
		t.Fatalf("got %v, want %v", got, coeffs)
	}
}

func TestRoundTripMediumValues(t *testing.T) {
	cb := &ProfileMedium
	coeffs := []int32{17, -17, 100, -272, 272, 0, 0, 18}
	got := roundTrip(t, cb, coeffs)
	if !reflect.DeepEqual(got, coeffs) {
		t.Fatalf("got %v, want %v", got, coeffs)
	}
}

func TestRoundTripLongZeroRuns(t *testing.T) {
	cb := &ProfileCoarse
	coeffs := make([]int32, 300)
	coeffs[0] = 5
	coeffs[299] = -5
	got := roundTrip(t, cb, coeffs)
	if !reflect.DeepEqual(got, coeffs) {
		t.Fatalf("long zero run round trip mismatch")
	}
}

func TestRoundTripEscapePeaks(t *testing.T) {
	cb := &ProfileCoarse // MaxMediumMagnitude = 8 + 64 = 72
	coeffs := []int32{0, 500, 0, -900, 1, 0}
	got := roundTrip(t, cb, coeffs)
	if !reflect.DeepEqual(got, coeffs) {
		t.Fatalf("got %v, want %v", got, coeffs)
	}
}

func TestRoundTripEmptyBand(t *testing.T) {
	cb := &ProfileFine
	got := roundTrip(t, cb, nil)
	if len(got) != 0 {
		t.Fatalf("got %v, want empty", got)
	}
}

func TestRoundTripAllProfiles(t *testing.T) {
	coeffs := []int32{0, 1, 0, 0, -3, 7, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 42, -42, 0}
	for _, cb := range []*Codebook{&ProfileFine, &ProfileMedium, &ProfileCoarse} {
		got := roundTrip(t, cb, coeffs)
		if !reflect.DeepEqual(got, coeffs) {
			t.Fatalf("profile %s: got %v, want %v", cb.Name, got, coeffs)
		}
	}
}

func TestCodebookForQuantizer(t *testing.T) {
	if CodebookForQuantizer(1) != &ProfileFine {
		t.Error("q=1 should select ProfileFine")
	}
	if CodebookForQuantizer(5) != &ProfileMedium {
		t.Error("q=5 should select ProfileMedium")
	}
	if CodebookForQuantizer(20) != &ProfileCoarse {
		t.Error("q=20 should select ProfileCoarse")
	}
}

func TestValidateCodebookRejectsZero(t *testing.T) {
	bad := Codebook{Name: "bad", RunSmallBits: 0, RunLargeBits: 6, SmallBits: 4, MediumBits: 8}
	if err := ValidateCodebook(&bad); err == nil {
		t.Error("expected error for zero-width field")
	}
}

func TestDecodeBandRejectsCorruptStream(t *testing.T) {
	fsm, err := BuildFSM(&ProfileMedium)
	if err != nil {
		t.Fatalf("BuildFSM: %v", err)
	}
	// All-ones nibbles never terminate in a valid small/medium value
	// without a plausible sign+magnitude match for every state; feed a
	// short garbage buffer and expect either a corrupt-bitstream error or
	// an end-of-stream error, never a silent success.
	garbage := []byte{0xFF, 0xFF}
	r := bitio.NewReader(garbage)
	out := make([]int32, 64)
	if err := fsm.DecodeBand(r, out, nil); err == nil {
		t.Error("expected error decoding garbage short of a valid band-end")
	}
}
