package vlc

import (
	"fmt"

	"github.com/cineform-go/cineform/internal/bitio"
)

func putZeroRun(w *bitio.Writer, cb *Codebook, run int32) error {
	for run > 0 {
		switch {
		case run <= cb.MaxRunSmall():
			// Leading 0 bit distinguishes this code from every other
			// (all of which start with 1).
			if err := w.PutBits(uint32(run-1), uint(1+cb.RunSmallBits)); err != nil {
				return err
			}
			return nil
		case run <= cb.MaxRunLarge():
			val := run - cb.MaxRunSmall() - 1
			pattern := uint32(0b10)<<uint(cb.RunLargeBits) | uint32(val)
			if err := w.PutBits(pattern, uint(2+cb.RunLargeBits)); err != nil {
				return err
			}
			return nil
		default:
			// Greedy largest-first decomposition: emit the longest run code
			// repeatedly and continue with the remainder.
			chunk := cb.MaxRunLarge()
			val := chunk - cb.MaxRunSmall() - 1
			pattern := uint32(0b10)<<uint(cb.RunLargeBits) | uint32(val)
			if err := w.PutBits(pattern, uint(2+cb.RunLargeBits)); err != nil {
				return err
			}
			run -= chunk
		}
	}
	return nil
}

func putValue(w *bitio.Writer, cb *Codebook, mag int32, negative bool) error {
	var pattern uint32
	var nbits int
	switch {
	case mag <= cb.MaxSmallMagnitude():
		pattern = uint32(0b110)<<uint(cb.SmallBits) | uint32(mag-1)
		nbits = 3 + cb.SmallBits
	case mag <= cb.MaxMediumMagnitude():
		val := mag - cb.MaxSmallMagnitude() - 1
		pattern = uint32(0b1110)<<uint(cb.MediumBits) | uint32(val)
		nbits = 4 + cb.MediumBits
	default:
		return fmt.Errorf("vlc: magnitude %d exceeds codebook %q range (max %d); caller must route through the peaks table", mag, cb.Name, cb.MaxMediumMagnitude())
	}
	signBit := uint32(0)
	if negative {
		signBit = 1
	}
	return w.PutBits(pattern<<1|signBit, uint(nbits+1))
}

func putEscape(w *bitio.Writer) error {
	return w.PutBits(0b11111, 5)
}

func putBandEnd(w *bitio.Writer) error {
	return w.PutBits(0b11110, 5)
}

// EncodeBand writes coeffs (row-major, already quantized and companded) as
// a run/magnitude codeword stream followed by the band-end sentinel and the
// raw peak values for any coefficient whose companded magnitude exceeded
// cb.MaxMediumMagnitude. peaks must list those values in the order their
// coefficients appear in coeffs (spec.md §4.3, §4.5).
func EncodeBand(w *bitio.Writer, cb *Codebook, coeffs []int32) (peaks []int32, err error) {
	if len(coeffs) == 0 {
		return nil, nil
	}
	run := int32(0)
	for _, c := range coeffs {
		if c == 0 {
			run++
			continue
		}
		if run > 0 {
			if err := putZeroRun(w, cb, run); err != nil {
				return nil, err
			}
			run = 0
		}
		mag := c
		negative := mag < 0
		if negative {
			mag = -mag
		}
		if mag > cb.MaxMediumMagnitude() {
			if err := putEscape(w); err != nil {
				return nil, err
			}
			peaks = append(peaks, c)
			continue
		}
		if err := putValue(w, cb, mag, negative); err != nil {
			return nil, err
		}
	}
	if run > 0 {
		if err := putZeroRun(w, cb, run); err != nil {
			return nil, err
		}
	}
	if err := putBandEnd(w); err != nil {
		return nil, err
	}
	return peaks, nil
}
