package sample

import (
	"encoding/binary"
	"fmt"
)

// magic is the four-byte sample header tag, 'CFHD' (spec.md §7).
var magic = [4]byte{'C', 'F', 'H', 'D'}

// EncodedFormat names the pixel arrangement a sample was encoded from
// (spec.md §7's {YUV422, RGB444, RGBA4444, Bayer} set).
type EncodedFormat uint16

const (
	FormatYUV422 EncodedFormat = iota
	FormatRGB444
	FormatRGBA4444
	FormatBayer
)

// Header is the decoded TagSampleHeader payload: magic, format-version,
// encoded-format, dimensions, level/channel counts, and the key/difference
// flag.
type Header struct {
	FormatVersion  uint16
	EncodedFormat  EncodedFormat
	Width          uint16
	Height         uint16
	DisplayHeight  uint16
	LevelCount     uint8
	ChannelCount   uint8
	KeyFrame       bool
}

const headerPayloadSize = 16 // magic(4) + version(2) + format(2) + w(2) + h(2) + dh(2) + levels(1) + channels(1); key(1) + reserved(1) follow

// EncodeHeader serializes h as a TagSampleHeader chunk payload.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, headerPayloadSize)
	copy(buf[0:4], magic[:])
	binary.BigEndian.PutUint16(buf[4:6], h.FormatVersion)
	binary.BigEndian.PutUint16(buf[6:8], uint16(h.EncodedFormat))
	binary.BigEndian.PutUint16(buf[8:10], h.Width)
	binary.BigEndian.PutUint16(buf[10:12], h.Height)
	binary.BigEndian.PutUint16(buf[12:14], h.DisplayHeight)
	buf[14] = h.LevelCount
	buf[15] = h.ChannelCount
	var kf byte
	if h.KeyFrame {
		kf = 1
	}
	return append(buf, kf, 0) // key flag + one reserved byte
}

// DecodeHeader parses a TagSampleHeader chunk payload.
func DecodeHeader(payload []byte) (Header, error) {
	if len(payload) < headerPayloadSize+2 {
		return Header{}, fmt.Errorf("sample: %w: header payload too short (%d bytes)", ErrCorrupt, len(payload))
	}
	if string(payload[0:4]) != string(magic[:]) {
		return Header{}, fmt.Errorf("sample: %w: bad magic %q", ErrCorrupt, payload[0:4])
	}
	h := Header{
		FormatVersion: binary.BigEndian.Uint16(payload[4:6]),
		EncodedFormat: EncodedFormat(binary.BigEndian.Uint16(payload[6:8])),
		Width:         binary.BigEndian.Uint16(payload[8:10]),
		Height:        binary.BigEndian.Uint16(payload[10:12]),
		DisplayHeight: binary.BigEndian.Uint16(payload[12:14]),
		LevelCount:    payload[14],
		ChannelCount:  payload[15],
		KeyFrame:      payload[16] != 0,
	}
	return h, nil
}

// BandHeader is the decoded TagBandHeader payload (spec.md §7): the
// quantizer divisor, the band's dimensions, its cumulative prescale
// exponent, and which wavelet subband it holds.
type BandHeader struct {
	Q         int32
	Width     uint16
	Height    uint16
	Scale     int8
	PixelType uint8
}

const bandHeaderSize = 12

// EncodeBandHeader serializes bh as a TagBandHeader chunk payload.
func EncodeBandHeader(bh BandHeader) []byte {
	buf := make([]byte, bandHeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(bh.Q))
	binary.BigEndian.PutUint16(buf[4:6], bh.Width)
	binary.BigEndian.PutUint16(buf[6:8], bh.Height)
	buf[8] = byte(bh.Scale)
	buf[9] = bh.PixelType
	return buf
}

// DecodeBandHeader parses a TagBandHeader chunk payload.
func DecodeBandHeader(payload []byte) (BandHeader, error) {
	if len(payload) < bandHeaderSize {
		return BandHeader{}, fmt.Errorf("sample: %w: band header payload too short (%d bytes)", ErrCorrupt, len(payload))
	}
	return BandHeader{
		Q:         int32(binary.BigEndian.Uint32(payload[0:4])),
		Width:     binary.BigEndian.Uint16(payload[4:6]),
		Height:    binary.BigEndian.Uint16(payload[6:8]),
		Scale:     int8(payload[8]),
		PixelType: payload[9],
	}, nil
}
