// Package colorconv implements CineForm's fixed-point YUV<->RGB color
// matrices and the packed-pixel format unpackers/packers that sit between
// a caller's buffer and the planar int16 planes the wavelet/quantizer
// stages operate on (spec.md §4.6, §6).
//
// The matrix shape (forward/inverse transform plus integer level shift and
// clamp) is grounded on internal/mct/mct.go's ForwardICT/InverseICT and
// ForwardRCT/InverseRCT, generalized from JPEG2000's two matrices to
// CineForm's four named color spaces. Packed-pixel unpack/pack, which the
// teacher never needs (it only ever touches image.Image planes), is
// grounded on deepteams-webp's sharpyuv fixed-point conversion package.
package colorconv

// Matrix is a fixed-point 3x3 YUV<->RGB transform, shifted left by Shift
// bits so the coefficients are represented as integers (mirroring
// internal/mct/mct.go's integer-only ICT/RCT arithmetic).
type Matrix struct {
	Name  string
	Shift uint
	// Forward: Y,Cb,Cr = M * (R,G,B), each row scaled by 1<<Shift.
	Forward [3][3]int32
	// Inverse: R,G,B = M * (Y,Cb,Cr), each row scaled by 1<<Shift.
	Inverse [3][3]int32
}

// ClampInt32 saturates v to [lo,hi], mirroring internal/mct/mct.go's
// ClampInt32 helper.
func ClampInt32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

const shift14 = 14

func m14(f float64) int32 { return int32(f*float64(int32(1)<<shift14) + 0.5*sign(f)) }

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

// CG601 is computer-graphics-range (full-range, 0-255) BT.601.
var CG601 = buildMatrix("CG_601", 0.299, 0.114, 0.564, 0.713)

// VS601 is video-safe (studio, 16-235/16-240) BT.601. CineForm's "video
// safe" variants use the same chrominance coefficients as their CG
// counterparts and differ only in the level-shift range applied by
// ForwardTransform/InverseTransform (spec.md §4.6 "studio range"), so they
// share buildMatrix and the range is threaded through separately via the
// Range type below.
var VS601 = buildMatrix("VS_601", 0.299, 0.114, 0.564, 0.713)

// CG709 is computer-graphics-range BT.709.
var CG709 = buildMatrix("CG_709", 0.2126, 0.0722, 0.5389, 0.6350)

// VS709 is video-safe BT.709.
var VS709 = buildMatrix("VS_709", 0.2126, 0.0722, 0.5389, 0.6350)

// buildMatrix constructs a matrix from the standard's luma coefficients
// (kr, kb; kg = 1-kr-kb is implied) and the Cb/Cr scale factors
// 0.5/(1-kb) and 0.5/(1-kr).
func buildMatrix(name string, kr, kb, cbDiv, crDiv float64) Matrix {
	kg := 1 - kr - kb
	fwd := [3][3]int32{
		{m14(kr), m14(kg), m14(kb)},
		{m14(-kr * cbDiv), m14(-kg * cbDiv), m14(0.5)},
		{m14(0.5), m14(-kg * crDiv), m14(-kb * crDiv)},
	}
	inv := [3][3]int32{
		{m14(1), m14(0), m14(1 / crDiv)},
		{m14(1), m14(-kb / (kg * cbDiv)), m14(-kr / (kg * crDiv))},
		{m14(1), m14(1 / cbDiv), m14(0)},
	}
	return Matrix{Name: name, Shift: shift14, Forward: fwd, Inverse: inv}
}

// Range describes the input/output sample range a Matrix is applied
// under: full range (0-255) for CG matrices, studio/video-safe (16-235
// luma, 16-240 chroma) for VS matrices.
type Range struct {
	LumaLo, LumaHi   int32
	ChromaLo, ChromaHi int32
}

// FullRange is used with CG601/CG709.
var FullRange = Range{LumaLo: 0, LumaHi: 255, ChromaLo: 0, ChromaHi: 255}

// StudioRange is used with VS601/VS709.
var StudioRange = Range{LumaLo: 16, LumaHi: 235, ChromaLo: 16, ChromaHi: 240}

// ForwardTransform converts one RGB triple (each 0-255) to Y,Cb,Cr under m,
// clamped to rng.
func ForwardTransform(m Matrix, rng Range, r, g, b int32) (y, cb, cr int32) {
	half := int32(1) << (m.Shift - 1)
	y = (m.Forward[0][0]*r + m.Forward[0][1]*g + m.Forward[0][2]*b + half) >> m.Shift
	cb = (m.Forward[1][0]*r + m.Forward[1][1]*g + m.Forward[1][2]*b + half) >> m.Shift
	cr = (m.Forward[2][0]*r + m.Forward[2][1]*g + m.Forward[2][2]*b + half) >> m.Shift
	y = ClampInt32(y+rng.LumaLo, rng.LumaLo, rng.LumaHi)
	mid := (rng.ChromaLo + rng.ChromaHi + 1) / 2
	cb = ClampInt32(cb+mid, rng.ChromaLo, rng.ChromaHi)
	cr = ClampInt32(cr+mid, rng.ChromaLo, rng.ChromaHi)
	return y, cb, cr
}

// InverseTransform converts one Y,Cb,Cr triple back to R,G,B (0-255),
// clamped.
func InverseTransform(m Matrix, rng Range, y, cb, cr int32) (r, g, b int32) {
	y -= rng.LumaLo
	mid := (rng.ChromaLo + rng.ChromaHi + 1) / 2
	cb -= mid
	cr -= mid
	half := int32(1) << (m.Shift - 1)
	r = (m.Inverse[0][0]*y + m.Inverse[0][1]*cb + m.Inverse[0][2]*cr + half) >> m.Shift
	g = (m.Inverse[1][0]*y + m.Inverse[1][1]*cb + m.Inverse[1][2]*cr + half) >> m.Shift
	b = (m.Inverse[2][0]*y + m.Inverse[2][1]*cb + m.Inverse[2][2]*cr + half) >> m.Shift
	return ClampInt32(r, 0, 255), ClampInt32(g, 0, 255), ClampInt32(b, 0, 255)
}
