// Package vlc implements CineForm's variable-length run/magnitude codec:
// an immutable codebook of zero-run and magnitude codes, and a
// finite-state machine that decodes four bits (one nibble) per step by
// precomputing, for every (state, nibble) pair, which symbols that
// nibble yields and which state follows (spec.md §4.3).
//
// The codebook itself is authored fresh for this module — the real
// CineForm Huffman tables are generated offline by a tool and are not
// part of the retrieved source — but the *table shape* (values[2],
// pre_skip, post_skip, next_state) is taken verbatim from
// original_source/Codec/vlc.h's FSMENTRY_UNPACKED, and the state-table
// construction technique (build once from an immutable table, cache by
// key, flatten into parallel arrays for fast access) is grounded on
// internal/entropy/mqc.go's mqStates table and its init()-built flat
// mqQe/mqNMPS/mqNLPS arrays.
package vlc

import "fmt"

// Codebook parameterizes the bit widths of CineForm's fixed symbol chain:
//
//	0  + RunSmallBits bits                         zero run, 1..2^RunSmallBits
//	10 + RunLargeBits bits                         zero run, extended range
//	110 + SmallBits bits + sign                    nonzero magnitude, small
//	1110 + MediumBits bits + sign                  nonzero magnitude, medium
//	11110                                          band-end sentinel
//	11111                                          escape (peak-table reference)
//
// Coefficients whose companded magnitude exceeds MaxMediumMagnitude are
// recorded in the band's peaks table and encoded as an escape symbol
// (spec.md §4.5).
type Codebook struct {
	Name         string
	RunSmallBits int
	RunLargeBits int
	SmallBits    int
	MediumBits   int
}

// ValidateCodebook checks that a codebook's bit widths are sane: positive
// and small enough that no single field overflows the 16-bit value slots
// the FSM entries carry (spec.md §9's ported IsValidCodebook).
func ValidateCodebook(cb *Codebook) error {
	for name, n := range map[string]int{
		"RunSmallBits": cb.RunSmallBits,
		"RunLargeBits": cb.RunLargeBits,
		"SmallBits":    cb.SmallBits,
		"MediumBits":   cb.MediumBits,
	} {
		if n <= 0 || n > 14 {
			return fmt.Errorf("vlc: codebook %q: %s = %d out of range (1..14)", cb.Name, name, n)
		}
	}
	return nil
}

// MaxRunSmall is the largest run length the short run code can express.
func (cb *Codebook) MaxRunSmall() int32 { return int32(1) << cb.RunSmallBits }

// MaxRunLarge is the largest run length the extended run code can express.
func (cb *Codebook) MaxRunLarge() int32 {
	return cb.MaxRunSmall() + (int32(1) << cb.RunLargeBits)
}

// MaxSmallMagnitude is the largest magnitude the small value code can express.
func (cb *Codebook) MaxSmallMagnitude() int32 { return int32(1) << cb.SmallBits }

// MaxMediumMagnitude is the largest magnitude the medium value code can
// express; anything larger goes through the peaks table.
func (cb *Codebook) MaxMediumMagnitude() int32 {
	return cb.MaxSmallMagnitude() + (int32(1) << cb.MediumBits)
}

// Profiles tuned by expected coefficient magnitude, selected per
// quantization level (spec.md: "constructed once per quantization level").
var (
	ProfileFine = Codebook{
		Name: "fine", RunSmallBits: 4, RunLargeBits: 6, SmallBits: 5, MediumBits: 10,
	}
	ProfileMedium = Codebook{
		Name: "medium", RunSmallBits: 4, RunLargeBits: 6, SmallBits: 4, MediumBits: 8,
	}
	ProfileCoarse = Codebook{
		Name: "coarse", RunSmallBits: 4, RunLargeBits: 6, SmallBits: 3, MediumBits: 6,
	}
)

// CodebookForQuantizer selects a codebook profile based on the band's
// quantization divisor: small Q bands retain larger coefficient
// magnitudes and need a codebook with more headroom before falling back
// to the peaks table.
func CodebookForQuantizer(q int32) *Codebook {
	switch {
	case q <= 2:
		return &ProfileFine
	case q <= 8:
		return &ProfileMedium
	default:
		return &ProfileCoarse
	}
}
