package vlc

import (
	"fmt"

	"github.com/cineform-go/cineform/internal/bitio"
)

// escapeMarker flags a decoded Values slot as "read the real coefficient
// from the band's peaks queue" rather than holding the coefficient itself.
const escapeMarker int16 = -32768

// invalidState marks an Entry reached via a bit pattern no valid codeword
// produces; DecodeBand treats it as a corrupt bitstream.
const invalidState uint16 = 0xFFFF

// Entry is one row of the precomputed nibble decode table, shaped after
// original_source/Codec/vlc.h's FSMENTRY_UNPACKED.
type Entry struct {
	Values    [2]int16
	NValues   uint8
	PreSkip   uint16
	PostSkip  uint16
	BandEnd   bool
	NextState uint16
}

// FSM is a flattened nibble-at-a-time decode table built once for a given
// codebook and cached by the frame pipeline's FSM cache
// (spec.md §4.3, §5).
type FSM struct {
	Codebook *Codebook
	Table    []Entry // len == numStates*16, indexed state*16+nibble
}

// trie node used only while building the FSM; discarded afterward.
type trieNode struct {
	children [2]*trieNode
	leaf     bool
	sym      symbol
	id       uint16
	assigned bool
}

type symbolKind uint8

const (
	symZeroRun symbolKind = iota
	symValue
	symBandEnd
	symEscape
)

type symbol struct {
	kind symbolKind
	run  int32
	mag  int32 // signed: magnitude with sign already folded in for symValue
}

func newTrieNode() *trieNode { return &trieNode{} }

func (n *trieNode) insert(bits uint32, nbits int, sym symbol) {
	cur := n
	for i := nbits - 1; i >= 0; i-- {
		bit := (bits >> uint(i)) & 1
		if cur.children[bit] == nil {
			cur.children[bit] = newTrieNode()
		}
		cur = cur.children[bit]
	}
	cur.leaf = true
	cur.sym = sym
}

// insertSigned inserts both sign variants of a value codeword: the
// codebook's prefix tree ends at the magnitude field, and a single literal
// sign bit follows before the symbol is complete.
func insertSigned(root *trieNode, bits uint32, nbits int, mag int32) {
	for _, sign := range [2]int32{1, -1} {
		signBit := uint32(0)
		if sign < 0 {
			signBit = 1
		}
		pattern := (bits << 1) | signBit
		root.insert(pattern, nbits+1, symbol{kind: symValue, mag: sign * mag})
	}
}

// buildTrie encodes the fixed symbol chain documented on Codebook:
//
//	0    + RunSmallBits bits                  zero run, short
//	10   + RunLargeBits bits                  zero run, extended
//	110  + SmallBits bits + sign              magnitude, small
//	1110 + MediumBits bits + sign             magnitude, medium
//	11110                                     band-end sentinel
//	11111                                     escape (peak reference)
func buildTrie(cb *Codebook) *trieNode {
	root := newTrieNode()

	for r := int32(0); r < cb.MaxRunSmall(); r++ {
		// Leading 0 bit distinguishes this branch from every other code,
		// which all start with 1; the raw run value never has one.
		root.insert(uint32(r), 1+cb.RunSmallBits, symbol{kind: symZeroRun, run: r + 1})
	}
	for r := int32(0); r < (int32(1) << cb.RunLargeBits); r++ {
		pattern := uint32(0b10)<<uint(cb.RunLargeBits) | uint32(r)
		root.insert(pattern, 2+cb.RunLargeBits, symbol{kind: symZeroRun, run: r + cb.MaxRunSmall() + 1})
	}
	for m := int32(0); m < cb.MaxSmallMagnitude(); m++ {
		pattern := uint32(0b110) << uint(cb.SmallBits)
		insertSigned(root, pattern|uint32(m), 3+cb.SmallBits, m+1)
	}
	for m := int32(0); m < (int32(1) << cb.MediumBits); m++ {
		pattern := uint32(0b1110) << uint(cb.MediumBits)
		insertSigned(root, pattern|uint32(m), 4+cb.MediumBits, m+cb.MaxSmallMagnitude()+1)
	}
	root.insert(0b11110, 5, symbol{kind: symBandEnd})
	root.insert(0b11111, 5, symbol{kind: symEscape})

	return root
}

// BuildFSM constructs the nibble decode table for cb. Each state is a trie
// node reachable as "where decoding was mid-codeword after some previous
// nibble"; state 0 is always the trie root (start of a fresh symbol).
func BuildFSM(cb *Codebook) (*FSM, error) {
	if err := ValidateCodebook(cb); err != nil {
		return nil, err
	}
	root := buildTrie(cb)
	root.id = 0
	root.assigned = true

	states := []*trieNode{root}
	var table []Entry

	for si := 0; si < len(states); si++ {
		node := states[si]
		for nibble := uint32(0); nibble < 16; nibble++ {
			entry, next := walkNibble(root, node, nibble)
			if next == nil {
				entry.NextState = invalidState
			} else {
				if !next.assigned {
					next.assigned = true
					next.id = uint16(len(states))
					states = append(states, next)
				}
				entry.NextState = next.id
			}
			table = append(table, entry)
		}
	}

	return &FSM{Codebook: cb, Table: table}, nil
}

// walkNibble consumes 4 bits starting at node, within a trie rooted at
// root. It returns the entry describing any symbol(s) completed and the
// trie node decoding should resume from on the next nibble (nil if the bit
// pattern is invalid for this codebook).
func walkNibble(root, node *trieNode, nibble uint32) (Entry, *trieNode) {
	var e Entry
	cur := node
	sawValue := false

	for i := 3; i >= 0; i-- {
		bit := (nibble >> uint(i)) & 1
		child := cur.children[bit]
		if child == nil {
			return e, nil
		}
		cur = child
		if cur.leaf {
			switch cur.sym.kind {
			case symZeroRun:
				if !sawValue {
					e.PreSkip += uint16(cur.sym.run)
				} else {
					e.PostSkip += uint16(cur.sym.run)
				}
			case symValue:
				if e.NValues < 2 {
					e.Values[e.NValues] = int16(cur.sym.mag)
					e.NValues++
				}
				sawValue = true
			case symEscape:
				if e.NValues < 2 {
					e.Values[e.NValues] = escapeMarker
					e.NValues++
				}
				sawValue = true
			case symBandEnd:
				e.BandEnd = true
			}
			cur = root
		}
	}
	return e, cur
}

// DecodeBand decodes exactly len(out) coefficients from r using fsm,
// consuming the trailing band-end codeword and any peak values referenced
// by escape symbols, writing peak magnitudes from peaks in the order their
// escapes were encountered.
func (fsm *FSM) DecodeBand(r *bitio.Reader, out []int32, peaks []int32) error {
	state := uint16(0)
	pos := 0
	peakIdx := 0

	emit := func(v int32) error {
		if pos >= len(out) {
			return fmt.Errorf("vlc: band overflow at coefficient %d (capacity %d)", pos, len(out))
		}
		out[pos] = v
		pos++
		return nil
	}

	if len(out) == 0 {
		return nil
	}

	for {
		if r.AtEnd() {
			return fmt.Errorf("vlc: %w: stream exhausted with %d/%d coefficients decoded", bitio.ErrEndOfStream, pos, len(out))
		}
		nibble := r.GetBits(4)
		e := fsm.Table[int(state)*16+int(nibble)]
		if e.NextState == invalidState {
			return fmt.Errorf("vlc: corrupt bitstream: invalid nibble %04b in state %d", nibble, state)
		}
		state = e.NextState

		for i := uint16(0); i < e.PreSkip; i++ {
			if err := emit(0); err != nil {
				return err
			}
		}
		for i := uint8(0); i < e.NValues; i++ {
			v := e.Values[i]
			if v == escapeMarker {
				if peakIdx >= len(peaks) {
					return fmt.Errorf("vlc: corrupt bitstream: escape symbol with no matching peak entry")
				}
				if err := emit(peaks[peakIdx]); err != nil {
					return err
				}
				peakIdx++
			} else {
				if err := emit(int32(v)); err != nil {
					return err
				}
			}
		}
		for i := uint16(0); i < e.PostSkip; i++ {
			if err := emit(0); err != nil {
				return err
			}
		}
		if e.BandEnd {
			if pos != len(out) {
				return fmt.Errorf("vlc: corrupt bitstream: band-end sentinel at coefficient %d/%d", pos, len(out))
			}
			break
		}
	}

	if peakIdx != len(peaks) {
		return fmt.Errorf("vlc: corrupt bitstream: %d peak entries supplied, %d escapes consumed", len(peaks), peakIdx)
	}
	return nil
}
