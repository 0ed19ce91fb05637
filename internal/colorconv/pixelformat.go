package colorconv

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat marks a Format value neither Unpack nor Pack
// implements.
var ErrUnsupportedFormat = errors.New("colorconv: unsupported format")

// Format names a subset of spec.md's §4.6 pixel format table. Every format
// here is fully implemented; formats left out (RG48/RG64, b64a, the 10-bit
// packed-RGB family, r4fl) are listed with a reason in DESIGN.md rather
// than stubbed.
type Format int

const (
	YUYV Format = iota
	UYVY
	YU64
	YR16
	V210
	NV12
	YV12
	RG24
	BGR24
	RG32
	R408
	V408
	// BayerRG, BayerGR, BayerBG, BayerGB are the four Bayer mosaic
	// orientations of spec.md §4.6 (RED_GRN, GRN_RED, BLU_GRN, GRN_BLU),
	// representing one BYR4-shaped variant of the format family: 16-bit
	// big-endian mosaic samples carrying 12-bit sensor values.
	BayerRG
	BayerGR
	BayerBG
	BayerGB
)

// IsBayer reports whether format is one of the four Bayer mosaic
// orientations.
func IsBayer(format Format) bool {
	switch format {
	case BayerRG, BayerGR, BayerBG, BayerGB:
		return true
	default:
		return false
	}
}

// Plane holds a decoded YUV plane, stored row-major at its own resolution
// (which may be subsampled relative to the luma plane).
type Plane struct {
	Width, Height int
	Data          []int16
}

// YUVImage is the planar intermediate representation every format
// unpacker produces and every packer consumes; Cb/Cr resolution encodes
// the format's chroma subsampling.
type YUVImage struct {
	Y, Cb, Cr Plane
	Alpha     *Plane // fourth plane: alpha for RG32, R408, V408; the ΔG plane for Bayer formats; nil otherwise
}

func newPlane(w, h int) Plane { return Plane{Width: w, Height: h, Data: make([]int16, w*h)} }

// Unpack decodes a packed buffer of the given format into planar form.
func Unpack(format Format, width, height int, buf []byte) (*YUVImage, error) {
	switch format {
	case YUYV:
		return unpackYUYV(width, height, buf, false)
	case UYVY:
		return unpackYUYV(width, height, buf, true)
	case YU64:
		return unpackYU64(width, height, buf)
	case YR16:
		return unpackYR16(width, height, buf)
	case V210:
		return unpackV210(width, height, buf)
	case NV12:
		return unpackNV12(width, height, buf)
	case YV12:
		return unpackYV12(width, height, buf)
	case RG24:
		return unpackRGB24(width, height, buf, false)
	case BGR24:
		return unpackRGB24(width, height, buf, true)
	case RG32:
		return unpackRGBA32(width, height, buf)
	case R408:
		return unpackYUVA8(width, height, buf, true)
	case V408:
		return unpackYUVA8(width, height, buf, false)
	case BayerRG, BayerGR, BayerBG, BayerGB:
		return unpackBayer(width, height, buf, format)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormat, format)
	}
}

// Pack re-encodes a planar image into the given packed format.
func Pack(format Format, img *YUVImage, buf []byte) error {
	switch format {
	case YUYV:
		return packYUYV(img, buf, false)
	case UYVY:
		return packYUYV(img, buf, true)
	case YU64:
		return packYU64(img, buf)
	case YR16:
		return packYR16(img, buf)
	case V210:
		return packV210(img, buf)
	case NV12:
		return packNV12(img, buf)
	case YV12:
		return packYV12(img, buf)
	case RG24:
		return packRGB24(img, buf, false)
	case BGR24:
		return packRGB24(img, buf, true)
	case RG32:
		return packRGBA32(img, buf)
	case R408:
		return packYUVA8(img, buf, true)
	case V408:
		return packYUVA8(img, buf, false)
	case BayerRG, BayerGR, BayerBG, BayerGB:
		return packBayer(img, buf, format)
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedFormat, format)
	}
}

func requireLen(buf []byte, n int, format string) error {
	if len(buf) < n {
		return fmt.Errorf("colorconv: %s buffer too short: have %d bytes, need %d", format, len(buf), n)
	}
	return nil
}

// --- YUYV / UYVY: interleaved 4:2:2, 8-bit, 2 pixels per 4 bytes ---

func unpackYUYV(w, h int, buf []byte, uyvy bool) (*YUVImage, error) {
	if err := requireLen(buf, w*h*2, "YUYV/UYVY"); err != nil {
		return nil, err
	}
	img := &YUVImage{Y: newPlane(w, h), Cb: newPlane(w/2, h), Cr: newPlane(w/2, h)}
	stride := w * 2
	for y := 0; y < h; y++ {
		row := buf[y*stride : (y+1)*stride]
		for x := 0; x < w; x += 2 {
			var y0, u, y1, v byte
			if uyvy {
				u, y0, v, y1 = row[x*2], row[x*2+1], row[x*2+2], row[x*2+3]
			} else {
				y0, u, y1, v = row[x*2], row[x*2+1], row[x*2+2], row[x*2+3]
			}
			img.Y.Data[y*w+x] = int16(y0)
			img.Y.Data[y*w+x+1] = int16(y1)
			img.Cb.Data[y*(w/2)+x/2] = int16(u)
			img.Cr.Data[y*(w/2)+x/2] = int16(v)
		}
	}
	return img, nil
}

func packYUYV(img *YUVImage, buf []byte, uyvy bool) error {
	w, h := img.Y.Width, img.Y.Height
	if err := requireLen(buf, w*h*2, "YUYV/UYVY"); err != nil {
		return err
	}
	stride := w * 2
	for y := 0; y < h; y++ {
		row := buf[y*stride : (y+1)*stride]
		for x := 0; x < w; x += 2 {
			y0 := byte(ClampInt32(int32(img.Y.Data[y*w+x]), 0, 255))
			y1 := byte(ClampInt32(int32(img.Y.Data[y*w+x+1]), 0, 255))
			u := byte(ClampInt32(int32(img.Cb.Data[y*(w/2)+x/2]), 0, 255))
			v := byte(ClampInt32(int32(img.Cr.Data[y*(w/2)+x/2]), 0, 255))
			if uyvy {
				row[x*2], row[x*2+1], row[x*2+2], row[x*2+3] = u, y0, v, y1
			} else {
				row[x*2], row[x*2+1], row[x*2+2], row[x*2+3] = y0, u, y1, v
			}
		}
	}
	return nil
}

// --- YU64: interleaved 16-bit 4:2:2 ---

func unpackYU64(w, h int, buf []byte) (*YUVImage, error) {
	if err := requireLen(buf, w*h*4, "YU64"); err != nil {
		return nil, err
	}
	img := &YUVImage{Y: newPlane(w, h), Cb: newPlane(w/2, h), Cr: newPlane(w/2, h)}
	stride := w * 4
	for y := 0; y < h; y++ {
		row := buf[y*stride : (y+1)*stride]
		for x := 0; x < w; x += 2 {
			o := x * 4
			img.Y.Data[y*w+x] = be16(row[o:])
			img.Cb.Data[y*(w/2)+x/2] = be16(row[o+2:])
			img.Y.Data[y*w+x+1] = be16(row[o+4:])
			img.Cr.Data[y*(w/2)+x/2] = be16(row[o+6:])
		}
	}
	return img, nil
}

func packYU64(img *YUVImage, buf []byte) error {
	w, h := img.Y.Width, img.Y.Height
	if err := requireLen(buf, w*h*4, "YU64"); err != nil {
		return err
	}
	stride := w * 4
	for y := 0; y < h; y++ {
		row := buf[y*stride : (y+1)*stride]
		for x := 0; x < w; x += 2 {
			o := x * 4
			putBE16(row[o:], img.Y.Data[y*w+x])
			putBE16(row[o+2:], img.Cb.Data[y*(w/2)+x/2])
			putBE16(row[o+4:], img.Y.Data[y*w+x+1])
			putBE16(row[o+6:], img.Cr.Data[y*(w/2)+x/2])
		}
	}
	return nil
}

// --- YR16: planar 16-bit 4:2:2 ---

func unpackYR16(w, h int, buf []byte) (*YUVImage, error) {
	cw := w / 2
	need := (w*h + 2*cw*h) * 2
	if err := requireLen(buf, need, "YR16"); err != nil {
		return nil, err
	}
	img := &YUVImage{Y: newPlane(w, h), Cb: newPlane(cw, h), Cr: newPlane(cw, h)}
	off := 0
	off = readPlane16(buf, off, img.Y.Data)
	off = readPlane16(buf, off, img.Cb.Data)
	readPlane16(buf, off, img.Cr.Data)
	return img, nil
}

func packYR16(img *YUVImage, buf []byte) error {
	need := (len(img.Y.Data) + len(img.Cb.Data) + len(img.Cr.Data)) * 2
	if err := requireLen(buf, need, "YR16"); err != nil {
		return err
	}
	off := 0
	off = writePlane16(buf, off, img.Y.Data)
	off = writePlane16(buf, off, img.Cb.Data)
	writePlane16(buf, off, img.Cr.Data)
	return nil
}

func readPlane16(buf []byte, off int, dst []int16) int {
	for i := range dst {
		dst[i] = be16(buf[off:])
		off += 2
	}
	return off
}

func writePlane16(buf []byte, off int, src []int16) int {
	for _, v := range src {
		putBE16(buf[off:], v)
		off += 2
	}
	return off
}

func be16(b []byte) int16 { return int16(uint16(b[0])<<8 | uint16(b[1])) }
func putBE16(b []byte, v int16) {
	b[0] = byte(uint16(v) >> 8)
	b[1] = byte(uint16(v))
}

// --- V210: 10-bit packed, 6 pixels per 4 little-endian 32-bit words ---
//
// Word 0: Cb0:10 Y0:10 Cr0:10 pad:2
// Word 1: Y1:10  Cb1:10 Y2:10 pad:2
// Word 2: Cr1:10 Y3:10 Cb2:10 pad:2
// Word 3: Y4:10  Cr2:10 Y5:10 pad:2
func unpackV210(w, h int, buf []byte) (*YUVImage, error) {
	if w%6 != 0 {
		return nil, fmt.Errorf("colorconv: V210 requires width a multiple of 6, got %d", w)
	}
	groups := w / 6
	stride := groups * 16 // 4 words * 4 bytes
	if err := requireLen(buf, stride*h, "V210"); err != nil {
		return nil, err
	}
	img := &YUVImage{Y: newPlane(w, h), Cb: newPlane(w/2, h), Cr: newPlane(w/2, h)}
	for y := 0; y < h; y++ {
		row := buf[y*stride : (y+1)*stride]
		for g := 0; g < groups; g++ {
			words := [4]uint32{
				le32(row[g*16:]), le32(row[g*16+4:]), le32(row[g*16+8:]), le32(row[g*16+12:]),
			}
			cb0 := int16(words[0] & 0x3FF)
			y0 := int16((words[0] >> 10) & 0x3FF)
			cr0 := int16((words[0] >> 20) & 0x3FF)
			y1 := int16(words[1] & 0x3FF)
			cb1 := int16((words[1] >> 10) & 0x3FF)
			y2 := int16((words[1] >> 20) & 0x3FF)
			cr1 := int16(words[2] & 0x3FF)
			y3 := int16((words[2] >> 10) & 0x3FF)
			cb2 := int16((words[2] >> 20) & 0x3FF)
			y4 := int16(words[3] & 0x3FF)
			cr2 := int16((words[3] >> 10) & 0x3FF)
			y5 := int16((words[3] >> 20) & 0x3FF)

			base := g * 6
			img.Y.Data[y*w+base] = y0
			img.Y.Data[y*w+base+1] = y1
			img.Y.Data[y*w+base+2] = y2
			img.Y.Data[y*w+base+3] = y3
			img.Y.Data[y*w+base+4] = y4
			img.Y.Data[y*w+base+5] = y5
			cbase := g * 3
			img.Cb.Data[y*(w/2)+cbase] = cb0
			img.Cb.Data[y*(w/2)+cbase+1] = cb1
			img.Cb.Data[y*(w/2)+cbase+2] = cb2
			img.Cr.Data[y*(w/2)+cbase] = cr0
			img.Cr.Data[y*(w/2)+cbase+1] = cr1
			img.Cr.Data[y*(w/2)+cbase+2] = cr2
		}
	}
	return img, nil
}

func packV210(img *YUVImage, buf []byte) error {
	w, h := img.Y.Width, img.Y.Height
	if w%6 != 0 {
		return fmt.Errorf("colorconv: V210 requires width a multiple of 6, got %d", w)
	}
	groups := w / 6
	stride := groups * 16
	if err := requireLen(buf, stride*h, "V210"); err != nil {
		return err
	}
	for y := 0; y < h; y++ {
		row := buf[y*stride : (y+1)*stride]
		for g := 0; g < groups; g++ {
			base := g * 6
			cbase := g * 3
			y0 := uint32(img.Y.Data[y*w+base]) & 0x3FF
			y1 := uint32(img.Y.Data[y*w+base+1]) & 0x3FF
			y2 := uint32(img.Y.Data[y*w+base+2]) & 0x3FF
			y3 := uint32(img.Y.Data[y*w+base+3]) & 0x3FF
			y4 := uint32(img.Y.Data[y*w+base+4]) & 0x3FF
			y5 := uint32(img.Y.Data[y*w+base+5]) & 0x3FF
			cb0 := uint32(img.Cb.Data[y*(w/2)+cbase]) & 0x3FF
			cb1 := uint32(img.Cb.Data[y*(w/2)+cbase+1]) & 0x3FF
			cb2 := uint32(img.Cb.Data[y*(w/2)+cbase+2]) & 0x3FF
			cr0 := uint32(img.Cr.Data[y*(w/2)+cbase]) & 0x3FF
			cr1 := uint32(img.Cr.Data[y*(w/2)+cbase+1]) & 0x3FF
			cr2 := uint32(img.Cr.Data[y*(w/2)+cbase+2]) & 0x3FF

			putLE32(row[g*16:], cb0|y0<<10|cr0<<20)
			putLE32(row[g*16+4:], y1|cb1<<10|y2<<20)
			putLE32(row[g*16+8:], cr1|y3<<10|cb2<<20)
			putLE32(row[g*16+12:], y4|cr2<<10|y5<<20)
		}
	}
	return nil
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// --- NV12 / YV12: planar/semi-planar 4:2:0, 8-bit ---

func unpackNV12(w, h int, buf []byte) (*YUVImage, error) {
	cw, ch := w/2, h/2
	if err := requireLen(buf, w*h+2*cw*ch, "NV12"); err != nil {
		return nil, err
	}
	img := &YUVImage{Y: newPlane(w, h), Cb: newPlane(cw, ch), Cr: newPlane(cw, ch)}
	for i := 0; i < w*h; i++ {
		img.Y.Data[i] = int16(buf[i])
	}
	o := w * h
	for i := 0; i < cw*ch; i++ {
		img.Cb.Data[i] = int16(buf[o+i*2])
		img.Cr.Data[i] = int16(buf[o+i*2+1])
	}
	return img, nil
}

func packNV12(img *YUVImage, buf []byte) error {
	w, h := img.Y.Width, img.Y.Height
	cw, ch := img.Cb.Width, img.Cb.Height
	if err := requireLen(buf, w*h+2*cw*ch, "NV12"); err != nil {
		return err
	}
	for i, v := range img.Y.Data {
		buf[i] = byte(ClampInt32(int32(v), 0, 255))
	}
	o := w * h
	for i := 0; i < cw*ch; i++ {
		buf[o+i*2] = byte(ClampInt32(int32(img.Cb.Data[i]), 0, 255))
		buf[o+i*2+1] = byte(ClampInt32(int32(img.Cr.Data[i]), 0, 255))
	}
	return nil
}

func unpackYV12(w, h int, buf []byte) (*YUVImage, error) {
	cw, ch := w/2, h/2
	if err := requireLen(buf, w*h+2*cw*ch, "YV12"); err != nil {
		return nil, err
	}
	img := &YUVImage{Y: newPlane(w, h), Cb: newPlane(cw, ch), Cr: newPlane(cw, ch)}
	off := 0
	off = readPlane8(buf, off, img.Y.Data)
	off = readPlane8(buf, off, img.Cr.Data) // Y, V, U order
	readPlane8(buf, off, img.Cb.Data)
	return img, nil
}

func packYV12(img *YUVImage, buf []byte) error {
	w, h := img.Y.Width, img.Y.Height
	cw, ch := img.Cb.Width, img.Cb.Height
	if err := requireLen(buf, w*h+2*cw*ch, "YV12"); err != nil {
		return err
	}
	off := 0
	off = writePlane8(buf, off, img.Y.Data)
	off = writePlane8(buf, off, img.Cr.Data)
	writePlane8(buf, off, img.Cb.Data)
	return nil
}

func readPlane8(buf []byte, off int, dst []int16) int {
	for i := range dst {
		dst[i] = int16(buf[off+i])
	}
	return off + len(dst)
}

func writePlane8(buf []byte, off int, src []int16) int {
	for i, v := range src {
		buf[off+i] = byte(ClampInt32(int32(v), 0, 255))
	}
	return off + len(src)
}

// --- RG24/BGR24, RG32/RGBA: packed 4:4:4 RGB(A), used via the color
// matrices above rather than the YUVImage plane shape; represented here as
// a 4:4:4 YUV image whose Cb/Cr planes are full resolution, with the
// actual RGB<->YUV matrix application left to the caller (spec.md's
// pipeline applies ForwardTransform/InverseTransform per pixel before or
// after these pack/unpack steps).

func unpackRGB24(w, h int, buf []byte, bgr bool) (*YUVImage, error) {
	if err := requireLen(buf, w*h*3, "RGB24"); err != nil {
		return nil, err
	}
	img := &YUVImage{Y: newPlane(w, h), Cb: newPlane(w, h), Cr: newPlane(w, h)}
	for i := 0; i < w*h; i++ {
		o := i * 3
		var r, g, b byte
		if bgr {
			b, g, r = buf[o], buf[o+1], buf[o+2]
		} else {
			r, g, b = buf[o], buf[o+1], buf[o+2]
		}
		img.Y.Data[i] = int16(r)
		img.Cb.Data[i] = int16(g)
		img.Cr.Data[i] = int16(b)
	}
	return img, nil
}

func packRGB24(img *YUVImage, buf []byte, bgr bool) error {
	w, h := img.Y.Width, img.Y.Height
	if err := requireLen(buf, w*h*3, "RGB24"); err != nil {
		return err
	}
	for i := 0; i < w*h; i++ {
		o := i * 3
		r := byte(ClampInt32(int32(img.Y.Data[i]), 0, 255))
		g := byte(ClampInt32(int32(img.Cb.Data[i]), 0, 255))
		b := byte(ClampInt32(int32(img.Cr.Data[i]), 0, 255))
		if bgr {
			buf[o], buf[o+1], buf[o+2] = b, g, r
		} else {
			buf[o], buf[o+1], buf[o+2] = r, g, b
		}
	}
	return nil
}

func unpackRGBA32(w, h int, buf []byte) (*YUVImage, error) {
	if err := requireLen(buf, w*h*4, "RGBA32"); err != nil {
		return nil, err
	}
	img := &YUVImage{Y: newPlane(w, h), Cb: newPlane(w, h), Cr: newPlane(w, h)}
	a := newPlane(w, h)
	img.Alpha = &a
	for i := 0; i < w*h; i++ {
		o := i * 4
		img.Y.Data[i] = int16(buf[o])
		img.Cb.Data[i] = int16(buf[o+1])
		img.Cr.Data[i] = int16(buf[o+2])
		img.Alpha.Data[i] = int16(buf[o+3])
	}
	return img, nil
}

func packRGBA32(img *YUVImage, buf []byte) error {
	w, h := img.Y.Width, img.Y.Height
	if err := requireLen(buf, w*h*4, "RGBA32"); err != nil {
		return err
	}
	for i := 0; i < w*h; i++ {
		o := i * 4
		buf[o] = byte(ClampInt32(int32(img.Y.Data[i]), 0, 255))
		buf[o+1] = byte(ClampInt32(int32(img.Cb.Data[i]), 0, 255))
		buf[o+2] = byte(ClampInt32(int32(img.Cr.Data[i]), 0, 255))
		if img.Alpha != nil {
			buf[o+3] = byte(ClampInt32(int32(img.Alpha.Data[i]), 0, 255))
		} else {
			buf[o+3] = 255
		}
	}
	return nil
}

// --- r408/v408: packed 8-bit YUVA 4:4:4 ---

func unpackYUVA8(w, h int, buf []byte, bigEndianOrder bool) (*YUVImage, error) {
	if err := requireLen(buf, w*h*4, "YUVA8"); err != nil {
		return nil, err
	}
	img := &YUVImage{Y: newPlane(w, h), Cb: newPlane(w, h), Cr: newPlane(w, h)}
	a := newPlane(w, h)
	img.Alpha = &a
	for i := 0; i < w*h; i++ {
		o := i * 4
		if bigEndianOrder { // r408: A Y Cb Cr
			img.Alpha.Data[i] = int16(buf[o])
			img.Y.Data[i] = int16(buf[o+1])
			img.Cb.Data[i] = int16(buf[o+2])
			img.Cr.Data[i] = int16(buf[o+3])
		} else { // v408: Cb Y Cr A
			img.Cb.Data[i] = int16(buf[o])
			img.Y.Data[i] = int16(buf[o+1])
			img.Cr.Data[i] = int16(buf[o+2])
			img.Alpha.Data[i] = int16(buf[o+3])
		}
	}
	return img, nil
}

// --- Bayer: four mosaic orientations, unpacked into the G-sum/R-G/B-G/ΔG
// quadrature of spec.md §4.6. Samples are 16-bit big-endian, carrying a
// 12-bit sensor value; bayerMid is the signed-offset bias (2^12) the
// quadrature formulas add so R-G/B-G/ΔG, which can go negative, stay
// representable as unsigned plane values. ---

const bayerMid = 1 << 12

// bayerTap names which mosaic sample a 2x2 block position holds.
type bayerTap int

const (
	tapR bayerTap = iota
	tapG1
	tapG2
	tapB
)

// bayerLayout gives the tap at each of the 2x2 block's four positions,
// in raster order: top-left, top-right, bottom-left, bottom-right.
func bayerLayout(format Format) [4]bayerTap {
	switch format {
	case BayerRG: // RGGB
		return [4]bayerTap{tapR, tapG1, tapG2, tapB}
	case BayerGR: // GRBG
		return [4]bayerTap{tapG1, tapR, tapB, tapG2}
	case BayerBG: // BGGR
		return [4]bayerTap{tapB, tapG1, tapG2, tapR}
	case BayerGB: // GBRG
		return [4]bayerTap{tapG1, tapB, tapR, tapG2}
	default:
		return [4]bayerTap{tapR, tapG1, tapG2, tapB}
	}
}

// unpackBayer converts a WxH Bayer mosaic into the internal G/R-G/B-G/ΔG
// quadrature (spec.md §4.6), stored at half resolution in each direction
// (one quadruple per 2x2 mosaic block). The quadrature is carried in
// YUVImage's Y/Cb/Cr/Alpha slots: G-sum, R-G, B-G, ΔG respectively.
func unpackBayer(w, h int, buf []byte, format Format) (*YUVImage, error) {
	if w%2 != 0 || h%2 != 0 {
		return nil, fmt.Errorf("colorconv: Bayer requires even width and height, got %dx%d", w, h)
	}
	if err := requireLen(buf, w*h*2, "Bayer"); err != nil {
		return nil, err
	}
	pw, ph := w/2, h/2
	img := &YUVImage{Y: newPlane(pw, ph), Cb: newPlane(pw, ph), Cr: newPlane(pw, ph)}
	dg := newPlane(pw, ph)
	img.Alpha = &dg
	layout := bayerLayout(format)
	stride := w * 2
	for by := 0; by < ph; by++ {
		row0 := buf[(2*by)*stride : (2*by+1)*stride]
		row1 := buf[(2*by+1)*stride : (2*by+2)*stride]
		for bx := 0; bx < pw; bx++ {
			samples := [4]int32{
				int32(be16(row0[bx*4:])),
				int32(be16(row0[bx*4+2:])),
				int32(be16(row1[bx*4:])),
				int32(be16(row1[bx*4+2:])),
			}
			var r, g1, g2, b int32
			for i, tap := range layout {
				switch tap {
				case tapR:
					r = samples[i]
				case tapG1:
					g1 = samples[i]
				case tapG2:
					g2 = samples[i]
				case tapB:
					b = samples[i]
				}
			}
			g := g1 + g2
			idx := by*pw + bx
			img.Y.Data[idx] = int16(g)
			img.Alpha.Data[idx] = int16(g1 - g2 + bayerMid)
			img.Cb.Data[idx] = int16(2*r - g + bayerMid)
			img.Cr.Data[idx] = int16(2*b - g + bayerMid)
		}
	}
	return img, nil
}

// packBayer is unpackBayer's inverse: it reconstructs mosaic samples from
// the G/R-G/B-G/ΔG quadrature and writes them back out in the mosaic
// orientation format names.
func packBayer(img *YUVImage, buf []byte, format Format) error {
	pw, ph := img.Y.Width, img.Y.Height
	w, h := pw*2, ph*2
	if err := requireLen(buf, w*h*2, "Bayer"); err != nil {
		return err
	}
	if img.Alpha == nil {
		return fmt.Errorf("colorconv: Bayer pack requires a ΔG plane")
	}
	layout := bayerLayout(format)
	stride := w * 2
	for by := 0; by < ph; by++ {
		row0 := buf[(2*by)*stride : (2*by+1)*stride]
		row1 := buf[(2*by+1)*stride : (2*by+2)*stride]
		for bx := 0; bx < pw; bx++ {
			idx := by*pw + bx
			g := int32(img.Y.Data[idx])
			d := int32(img.Alpha.Data[idx]) - bayerMid
			rg := int32(img.Cb.Data[idx]) - bayerMid
			bg := int32(img.Cr.Data[idx]) - bayerMid

			g1 := (g + d) / 2
			g2 := (g - d) / 2
			r := (rg + g) / 2
			b := (bg + g) / 2

			var samples [4]int32
			for i, tap := range layout {
				switch tap {
				case tapR:
					samples[i] = r
				case tapG1:
					samples[i] = g1
				case tapG2:
					samples[i] = g2
				case tapB:
					samples[i] = b
				}
			}
			putBE16(row0[bx*4:], int16(ClampInt32(samples[0], 0, 4095)))
			putBE16(row0[bx*4+2:], int16(ClampInt32(samples[1], 0, 4095)))
			putBE16(row1[bx*4:], int16(ClampInt32(samples[2], 0, 4095)))
			putBE16(row1[bx*4+2:], int16(ClampInt32(samples[3], 0, 4095)))
		}
	}
	return nil
}

func packYUVA8(img *YUVImage, buf []byte, bigEndianOrder bool) error {
	w, h := img.Y.Width, img.Y.Height
	if err := requireLen(buf, w*h*4, "YUVA8"); err != nil {
		return err
	}
	for i := 0; i < w*h; i++ {
		o := i * 4
		a := int16(255)
		if img.Alpha != nil {
			a = img.Alpha.Data[i]
		}
		y := byte(ClampInt32(int32(img.Y.Data[i]), 0, 255))
		cb := byte(ClampInt32(int32(img.Cb.Data[i]), 0, 255))
		cr := byte(ClampInt32(int32(img.Cr.Data[i]), 0, 255))
		av := byte(ClampInt32(int32(a), 0, 255))
		if bigEndianOrder {
			buf[o], buf[o+1], buf[o+2], buf[o+3] = av, y, cb, cr
		} else {
			buf[o], buf[o+1], buf[o+2], buf[o+3] = cb, y, cr, av
		}
	}
	return nil
}
