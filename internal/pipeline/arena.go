package pipeline

import (
	"github.com/cineform-go/cineform/internal/arena"
	"github.com/cineform-go/cineform/internal/cfhdlog"
)

// levelScratchFactor bounds one level's worth of band scratch: up to 4
// bands (LL/LH/HL/HH at the coarsest level) each needing a quantized and a
// companded int32 array no larger than the full plane, generously rounded
// up so the arena never has to fall back to the heap in practice.
const levelScratchFactor = 8

// channelScratchBytes is the per-channel arena budget: one level's worth of
// band scratch, since each level Push()es a child at the same parent mark
// and so reuses, rather than accumulates, the space the previous level
// used (see Arena.Push).
func channelScratchBytes(width, height int) int {
	return width * height * 4 * levelScratchFactor
}

// newChannelArenas carves channelCount disjoint, SIMD-aligned regions out
// of root, one per channel. Arena.Push models sequential nested scopes on
// one goroutine; the per-channel workers run concurrently, so their
// scratch space is partitioned up front instead, and each partition is
// used by exactly one goroutine for the life of the frame.
func newChannelArenas(root *arena.Arena, channelCount, perChannel int) []*arena.Arena {
	out := make([]*arena.Arena, channelCount)
	for i := range out {
		buf, err := root.AllocAligned(perChannel, arena.SIMDAlign)
		if err != nil {
			out[i] = nil
			continue
		}
		out[i] = arena.New(buf)
	}
	return out
}

// scratchInt32 allocates n int32s from ar, falling back to a heap
// allocation if ar is nil (no arena could be carved for this channel) or
// exhausted. The arena is a layout/latency optimization (spec.md §3's
// Arena sub-allocator), never a correctness requirement, so a miss here is
// logged at debug level rather than surfaced as an error.
func scratchInt32(ar *arena.Arena, n int, log cfhdlog.Logger) []int32 {
	if ar != nil {
		if s, err := ar.AllocInt32(n); err == nil {
			return s
		} else if log != nil {
			log.Debug("pipeline: channel arena exhausted, falling back to heap", "n", n, "err", err.Error())
		}
	}
	return make([]int32, n)
}
