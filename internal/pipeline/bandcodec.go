package pipeline

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/cineform-go/cineform/internal/bitio"
	"github.com/cineform-go/cineform/internal/sample"
	"github.com/cineform-go/cineform/internal/vlc"
)

// encodeBandPayload serializes one band's quantized, companded
// coefficients as a sample.Band payload: the word-aligned FSM codeword
// stream, prefixed with its length in words, followed by the peaks table
// (count-prefixed, each peak a raw big-endian int32) — spec.md §4.5's
// "peaks re-encoded as raw values appended at the end of the band", made
// concrete with an explicit length so the decoder can locate the
// boundary between codewords and peaks without scanning.
func encodeBandPayload(cb *vlc.Codebook, coeffs []int32) ([]byte, error) {
	// Worst case every coefficient is a value-medium codeword (at most
	// 4+cb.MediumBits+2 bits, comfortably under 4 bytes even for the
	// widest profile), plus the band-end sentinel; pad generously since
	// bitio.Writer has no fallback once this buffer is exhausted.
	w := bitio.NewWriter(make([]byte, 4*len(coeffs)+64))
	peaks, err := vlc.EncodeBand(w, cb, coeffs)
	if err != nil {
		return nil, errors.Wrap(err, "encode band")
	}
	if err := w.AlignToWord(); err != nil {
		return nil, errors.Wrap(err, "align band")
	}
	fsmBytes := w.Bytes()

	out := make([]byte, 0, 8+len(fsmBytes)+4*len(peaks))
	var u32 [4]byte
	binary.BigEndian.PutUint32(u32[:], uint32(len(fsmBytes)/4))
	out = append(out, u32[:]...)
	out = append(out, fsmBytes...)
	binary.BigEndian.PutUint32(u32[:], uint32(len(peaks)))
	out = append(out, u32[:]...)
	for _, p := range peaks {
		binary.BigEndian.PutUint32(u32[:], uint32(p))
		out = append(out, u32[:]...)
	}
	return out, nil
}

// decodeBandPayload is encodeBandPayload's inverse, producing count
// companded coefficients.
func decodeBandPayload(fsm *vlc.FSM, payload []byte, count int) ([]int32, error) {
	if len(payload) < 4 {
		return nil, errors.Wrap(sample.ErrCorrupt, "band payload: truncated word-count header")
	}
	words := binary.BigEndian.Uint32(payload[0:4])
	fsmEnd := 4 + int(words)*4
	if len(payload) < fsmEnd+4 {
		return nil, errors.Wrap(sample.ErrCorrupt, "band payload: truncated peak-count header")
	}
	peakCount := int(binary.BigEndian.Uint32(payload[fsmEnd : fsmEnd+4]))
	peaksOff := fsmEnd + 4
	if len(payload) < peaksOff+4*peakCount {
		return nil, errors.Wrap(sample.ErrCorrupt, "band payload: truncated peaks table")
	}
	peaks := make([]int32, peakCount)
	for i := range peaks {
		off := peaksOff + 4*i
		peaks[i] = int32(binary.BigEndian.Uint32(payload[off : off+4]))
	}

	r := bitio.NewReader(payload[4:fsmEnd])
	out := make([]int32, count)
	if err := fsm.DecodeBand(r, out, peaks); err != nil {
		return nil, errors.Wrap(err, "decode band")
	}
	return out, nil
}
