package cineform

import (
	"github.com/cineform-go/cineform/internal/cfhdlog"
	"github.com/cineform-go/cineform/internal/metadata"
	"github.com/cineform-go/cineform/internal/pipeline"
)

// LUTPathResolver locates an external color-adjustment LUT file for a
// clip GUID and eye (supplemented feature, SPEC_FULL.md §11).
type LUTPathResolver = pipeline.LUTPathResolver

// Allocator supplies scratch buffers to a Session.
type Allocator = pipeline.Allocator

// Config configures a Session. Width, Height, and PixelFormat describe
// the layout of the packed pixel buffers passed to Encode/Decode;
// everything else tunes the codec and its ambient stack.
type Config struct {
	Width, Height int
	// DisplayHeight is the number of rows actually shown; rows
	// [DisplayHeight, Height) are black-padding filler the wavelet needs
	// to stay ring-free but the caller never displays (spec.md §3,
	// §4.9). 0 (the default) means DisplayHeight == Height, i.e. no
	// padding.
	DisplayHeight int
	PixelFormat   PixelFormat
	Matrix        Matrix
	Range         Range

	// LevelCount is the number of cascaded wavelet decomposition levels
	// per channel (1-3, spec.md §4.4).
	LevelCount int
	// Quantizer is the level-0 highpass-band quantizer divisor; deeper
	// levels use progressively coarser divisors.
	Quantizer    int32
	Prescale     Prescale
	RoundingBias RoundingBias

	// WorkerCount bounds the session's worker pool; 0 selects
	// runtime.NumCPU(), further clamped by CFHDDATA.CPULimit once
	// MetadataDir is set and an active database contributes one.
	WorkerCount int

	// MetadataDir, if non-empty, is the directory external .colr/.col1/
	// .col2 active-metadata files are read from and (if WatchMetadata is
	// set) watched for changes (spec.md §4.8, §6).
	MetadataDir   string
	WatchMetadata bool

	LUTPath   LUTPathResolver
	Allocator Allocator

	// Log receives structured diagnostic output (FSM cache misses, scratch
	// arena fallbacks to the heap, metadata file-watch warnings); nil
	// discards it.
	Log cfhdlog.Logger
}

func (c Config) toPipelineConfig(db *metadata.Database) pipeline.Config {
	return pipeline.Config{
		Width:         c.Width,
		Height:        c.Height,
		DisplayHeight: c.DisplayHeight,
		PixelFormat:   c.PixelFormat,
		Matrix:        c.Matrix,
		Range:         c.Range,
		LevelCount:    c.LevelCount,
		BaseQuantizer: c.Quantizer,
		Prescale:      c.Prescale,
		RoundingBias:  c.RoundingBias,
		WorkerCount:   c.WorkerCount,
		Logger:        c.Log,
		Metadata:      db,
		LUTPath:       c.LUTPath,
		Allocator:     c.Allocator,
	}
}
