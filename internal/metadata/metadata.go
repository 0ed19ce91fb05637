// Package metadata implements the active-metadata database (spec.md §8,
// "CFHDDATA"): the layered, priority-resolved set of per-clip and
// per-frame tweaks (white balance, color matrix, gamma, framing, ...)
// that sit alongside the wavelet-coded sample data and are re-resolved
// on every UpdateCFHDDATA call.
//
// The wire format of each layer's buffer is the same flat TLV chunk
// stream internal/sample already parses, so this package reuses
// sample.Walk/sample.Chunk rather than re-implementing chunk framing -
// the same way internal/box.JP2Header treats a super-box as a sequence
// of typed sub-boxes it dispatches on Type.
package metadata

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cineform-go/cineform/internal/sample"
)

// Layer identifies one of the database's priority tiers (spec.md §8).
// Layers are listed here in ascending priority: a higher Layer value
// always wins over a lower one when both define the same field.
type Layer int

const (
	LayerBase Layer = iota
	LayerFrame
	LayerFrameEye1
	LayerFrameEye2
	LayerDatabase
	LayerDatabaseEye1
	LayerDatabaseEye2
	LayerOverride
	LayerOverrideEye1
	LayerOverrideEye2
	numLayers
)

// Tag identifies a recognized metadata field within a layer's TLV buffer.
// Values live in the metadata tag range (>= 0x8000) so they never collide
// with internal/sample's structural tags.
type Tag uint16

const (
	TagClipGUID            Tag = 0x8001
	TagEncodedFormat       Tag = 0x8002
	TagBayerFormat         Tag = 0x8003
	TagEncodeCurve         Tag = 0x8004
	TagDecodeCurve         Tag = 0x8005
	TagLookCRC             Tag = 0x8006
	TagWhiteBalance        Tag = 0x8007
	TagColorMatrix         Tag = 0x8008
	TagGammaTweaks         Tag = 0x8009
	TagProcessPathFlags    Tag = 0x800A
	TagUniqueFrameNumber   Tag = 0x800B
	TagTimecode            Tag = 0x800C
	TagFraming             Tag = 0x800D
	TagCPULimit            Tag = 0x800E
	TagCPUAffinity         Tag = 0x800F
	TagColorspaceOverride  Tag = 0x8010
)

// ProcessPathFlag is one bit of CFHDDATA.ProcessPathFlags, each enabling
// one optional processing stage the decoder otherwise skips.
type ProcessPathFlag uint32

const (
	ProcessColorMatrix ProcessPathFlag = 1 << iota
	ProcessWhiteBalance
	ProcessLookFile
	ProcessGammaTweaks
	ProcessFraming
)

// Framing holds the active-metadata framing/zoom parameters (spec.md §8).
type Framing struct {
	Zoom     float32
	OffsetX  float32
	OffsetY  float32
	Rotation float32
	Tilt     float32
	Keystone float32
}

// CFHDDATA is the fully resolved set of active-metadata fields for one
// channel of one frame: the merge of every layer's recognized fields,
// highest priority winning (spec.md §8).
type CFHDDATA struct {
	ClipGUID           [16]byte
	EncodedFormat      uint16
	BayerFormat        uint16
	EncodeCurve        uint16
	DecodeCurve        uint16
	LookCRC            uint32
	WhiteBalance       [4]float32
	ColorMatrix        [12]float32
	GammaTweaks        [3]float32
	ProcessPathFlags   ProcessPathFlag
	UniqueFrameNumber  uint32
	Timecode           string
	Framing            Framing
	CPULimit           int32
	CPUAffinity        uint64
	ColorspaceOverride int32
}

// Reset restores d to the built-in identity defaults: an identity color
// matrix (3x4, row-major, zero offsets), unity white balance, zero gamma
// tweaks, unit framing zoom with zero offsets/rotation, no process-path
// flags, and no CPU restriction. Called on the first sample of a clip and
// whenever the clip GUID changes (spec.md §8).
func (d *CFHDDATA) Reset() {
	*d = CFHDDATA{
		WhiteBalance: [4]float32{1, 1, 1, 1},
		ColorMatrix:  [12]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0},
		Framing:      Framing{Zoom: 1},
		CPULimit:     -1, // -1 means "no limit"
	}
}

// UpdateCFHDDATA parses one layer's TLV buffer and overwrites the
// corresponding fields of d. channelDelta selects which per-eye variant of
// a stereo pair this call's values belong to (0 = mono/shared, 1 = left/
// first eye, 2 = right/second eye); it is recorded by the caller when
// choosing which Layer's slot to store buffer under, not interpreted here.
//
// Unknown tags are ignored rather than rejected: spec.md §8 requires the
// database to tolerate metadata written by newer encoders.
func UpdateCFHDDATA(d *CFHDDATA, buffer []byte, channelDelta int) error {
	_ = channelDelta // selection happens at the Database layer-slot level
	return sample.Walk(buffer, func(c sample.Chunk) error {
		switch Tag(c.Tag) {
		case TagClipGUID:
			if len(c.Payload) >= 16 {
				copy(d.ClipGUID[:], c.Payload)
			}
		case TagEncodedFormat:
			if v, ok := u16(c.Payload); ok {
				d.EncodedFormat = v
			}
		case TagBayerFormat:
			if v, ok := u16(c.Payload); ok {
				d.BayerFormat = v
			}
		case TagEncodeCurve:
			if v, ok := u16(c.Payload); ok {
				d.EncodeCurve = v
			}
		case TagDecodeCurve:
			if v, ok := u16(c.Payload); ok {
				d.DecodeCurve = v
			}
		case TagLookCRC:
			if v, ok := u32(c.Payload); ok {
				d.LookCRC = v
			}
		case TagWhiteBalance:
			readF32Array(c.Payload, d.WhiteBalance[:])
		case TagColorMatrix:
			readF32Array(c.Payload, d.ColorMatrix[:])
		case TagGammaTweaks:
			readF32Array(c.Payload, d.GammaTweaks[:])
		case TagProcessPathFlags:
			if v, ok := u32(c.Payload); ok {
				d.ProcessPathFlags = ProcessPathFlag(v)
			}
		case TagUniqueFrameNumber:
			if v, ok := u32(c.Payload); ok {
				d.UniqueFrameNumber = v
			}
		case TagTimecode:
			d.Timecode = string(c.Payload)
		case TagFraming:
			readFraming(c.Payload, &d.Framing)
		case TagCPULimit:
			if v, ok := u32(c.Payload); ok {
				d.CPULimit = int32(v)
			}
		case TagCPUAffinity:
			if len(c.Payload) >= 8 {
				d.CPUAffinity = binary.BigEndian.Uint64(c.Payload[0:8])
			}
		case TagColorspaceOverride:
			if v, ok := u32(c.Payload); ok {
				d.ColorspaceOverride = int32(v)
			}
		}
		return nil
	})
}

func u16(p []byte) (uint16, bool) {
	if len(p) < 2 {
		return 0, false
	}
	return binary.BigEndian.Uint16(p[0:2]), true
}

func u32(p []byte) (uint32, bool) {
	if len(p) < 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(p[0:4]), true
}

func f32(p []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(p))
}

func readF32Array(p []byte, out []float32) {
	for i := range out {
		if (i+1)*4 > len(p) {
			return
		}
		out[i] = f32(p[i*4 : i*4+4])
	}
}

func readFraming(p []byte, f *Framing) {
	vals := [6]*float32{&f.Zoom, &f.OffsetX, &f.OffsetY, &f.Rotation, &f.Tilt, &f.Keystone}
	for i, dst := range vals {
		if (i+1)*4 > len(p) {
			return
		}
		*dst = f32(p[i*4 : i*4+4])
	}
}

// EncodeField appends one recognized tag/value as a TLV chunk, for
// writers building layer buffers (the encoder's own FRAME layer, or a
// cmd/ tool editing a .colr file). It mirrors the field encodings
// UpdateCFHDDATA decodes above.
func EncodeField(dst []byte, tag Tag, payload []byte) ([]byte, error) {
	typ := sample.TypeBytes
	switch tag {
	case TagEncodedFormat, TagBayerFormat, TagEncodeCurve, TagDecodeCurve:
		typ = sample.TypeU16
	case TagLookCRC, TagProcessPathFlags, TagUniqueFrameNumber, TagCPULimit, TagColorspaceOverride:
		typ = sample.TypeU32
	case TagWhiteBalance, TagColorMatrix, TagGammaTweaks, TagFraming:
		typ = sample.TypeF32Array
	case TagTimecode:
		typ = sample.TypeString
	case TagClipGUID:
		typ = sample.TypeGUID
	case TagCPUAffinity:
		typ = sample.TypeBytes
	}
	buf, err := sample.WriteChunk(dst, uint16(tag), typ, payload)
	if err != nil {
		return nil, fmt.Errorf("metadata: encode field %#04x: %w", tag, err)
	}
	return buf, nil
}
