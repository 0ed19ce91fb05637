// Package pipeline implements the frame encode/decode orchestrator (C9):
// unpacking a caller's pixel buffer, driving the wavelet transform,
// quantizer/compander, and VLC/FSM entropy coder per channel per level,
// and assembling/parsing the result as a sample.Sample. It is the glue
// between internal/colorconv, internal/wavelet, internal/quant,
// internal/vlc, and internal/sample.
//
// Grounded on the teacher's top-level encoder.go/decoder.go shape: a
// private session struct holding transient state, a public Config passed
// in once, and private per-stage helper methods wrapped with
// fmt.Errorf/pkg_errors "stage: %w" context at each step.
package pipeline

import (
	"runtime"

	"github.com/cineform-go/cineform/internal/cfhdlog"
	"github.com/cineform-go/cineform/internal/colorconv"
	"github.com/cineform-go/cineform/internal/metadata"
	"github.com/cineform-go/cineform/internal/wavelet"
)

// LUTPathResolver locates an external color-adjustment LUT file for a
// given clip GUID and eye (0 = mono, 1/2 = stereo), supplementing
// spec.md's metadata handling with the original SDK's LUT search-path
// concept (original_source/Codec/lutpath.c); the host application's own
// search-path policy is out of scope, only this narrow interface is.
type LUTPathResolver func(clipGUID [16]byte, eye int) (path string, ok bool)

// Allocator supplies scratch buffers to the pipeline, generalizing
// original_source/Codec/allocator.h's ALLOCATOR vtable
// (unaligned_malloc/unaligned_free) to a single Go-idiomatic method.
type Allocator interface {
	Alloc(size int) []byte
}

type defaultAllocator struct{}

func (defaultAllocator) Alloc(size int) []byte { return make([]byte, size) }

// Config configures a Session. Width/Height/PixelFormat describe the
// caller's packed buffer layout; the remaining fields tune the codec.
type Config struct {
	Width, Height int
	// DisplayHeight is the number of rows at the top of the frame that
	// are actually shown; rows [DisplayHeight, Height) are black-padding
	// filler the wavelet transform needs to stay ring-free but the
	// caller never sees (spec.md §3, §4.9). 0 (or a value >= Height)
	// means no padding: DisplayHeight == Height.
	DisplayHeight int
	PixelFormat   colorconv.Format
	Matrix        colorconv.Matrix
	Range         colorconv.Range

	// LevelCount is the number of cascaded wavelet decomposition levels
	// per channel (spec.md §4.4), 1-3.
	LevelCount int
	// BaseQuantizer is the level-0 highpass-band quantizer divisor;
	// deeper levels use progressively coarser divisors (see
	// (*Session).quantizerFor).
	BaseQuantizer int32
	Prescale      wavelet.Prescale
	RoundingBias  wavelet.RoundingBias

	// WorkerCount bounds the row/band work the session fans out across
	// its worker pool; 0 selects runtime.NumCPU(), further clamped by any
	// active CFHDDATA.CPULimit once Metadata is set (spec.md §8, §9).
	WorkerCount int

	Logger    cfhdlog.Logger
	Metadata  *metadata.Database
	LUTPath   LUTPathResolver
	Allocator Allocator
}

func (c Config) workerCount() int {
	n := c.WorkerCount
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if c.Metadata != nil {
		if eff, err := c.Metadata.Effective(0); err == nil && eff.CPULimit > 0 && int(eff.CPULimit) < n {
			n = int(eff.CPULimit)
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (c Config) logger() cfhdlog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return cfhdlog.NewNop()
}

// displayHeight returns the configured display height, defaulting to the
// full frame height when unset or out of range.
func (c Config) displayHeight() int {
	if c.DisplayHeight <= 0 || c.DisplayHeight > c.Height {
		return c.Height
	}
	return c.DisplayHeight
}

func (c Config) allocator() Allocator {
	if c.Allocator != nil {
		return c.Allocator
	}
	return defaultAllocator{}
}
