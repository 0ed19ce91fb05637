package cineform

import (
	"github.com/cineform-go/cineform/internal/colorconv"
	"github.com/cineform-go/cineform/internal/wavelet"
)

// PixelFormat names a packed pixel layout a Session can unpack on encode
// and pack on decode (spec.md §4.6, §6).
type PixelFormat = colorconv.Format

// Supported pixel formats. See internal/colorconv for the unpack/pack
// implementation of each; formats DESIGN.md lists as out of scope
// (RG48/RG64, b64a, 10-bit packed RGB, r4fl) are not constants here.
const (
	YUYV  = colorconv.YUYV
	UYVY  = colorconv.UYVY
	YU64  = colorconv.YU64
	YR16  = colorconv.YR16
	V210  = colorconv.V210
	NV12  = colorconv.NV12
	YV12  = colorconv.YV12
	RG24  = colorconv.RG24
	BGR24 = colorconv.BGR24
	RG32  = colorconv.RG32
	R408  = colorconv.R408
	V408  = colorconv.V408

	// BayerRG, BayerGR, BayerBG, BayerGB are the four Bayer mosaic
	// orientations (spec.md §4.6): RED_GRN, GRN_RED, BLU_GRN, GRN_BLU.
	BayerRG = colorconv.BayerRG
	BayerGR = colorconv.BayerGR
	BayerBG = colorconv.BayerBG
	BayerGB = colorconv.BayerGB
)

// Matrix is a fixed-point YUV<->RGB color matrix (spec.md §4.6).
type Matrix = colorconv.Matrix

// Range is the sample range a Matrix is applied under: full range
// (0-255) or studio/video-safe (16-235 luma, 16-240 chroma).
type Range = colorconv.Range

var (
	// CG601 is full-range (computer graphics) BT.601.
	CG601 = colorconv.CG601
	// VS601 is studio-range BT.601.
	VS601 = colorconv.VS601
	// CG709 is full-range BT.709.
	CG709 = colorconv.CG709
	// VS709 is studio-range BT.709.
	VS709 = colorconv.VS709

	// FullRange pairs with CG601/CG709.
	FullRange = colorconv.FullRange
	// StudioRange pairs with VS601/VS709.
	StudioRange = colorconv.StudioRange
)

// Prescale names the six prescale shift knobs applied during the wavelet
// transform (spec.md §4.4).
type Prescale = wavelet.Prescale

// RoundingBias selects the wavelet lowpass rounding constant.
type RoundingBias = wavelet.RoundingBias

const (
	// BiasReversible is the textbook divisor/2 rounding constant.
	BiasReversible = wavelet.BiasReversible
	// BiasNormal is CineForm's shipped +4 bias.
	BiasNormal = wavelet.BiasNormal
)

// DefaultPrescale returns CineForm's shipped prescale ladder.
func DefaultPrescale() Prescale { return wavelet.DefaultPrescale() }

// ZeroPrescale returns an all-zero prescale ladder, for lossless or
// algebraic round-trip use (spec.md §8's exact-invertibility property).
func ZeroPrescale() Prescale { return wavelet.ZeroPrescale() }
