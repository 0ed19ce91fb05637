package sample

import "errors"

// ErrCorrupt marks a structurally invalid TLV stream (truncated header,
// payload length past the end of the buffer).
var ErrCorrupt = errors.New("sample: corrupt bitstream")

// ErrUnsupportedSample marks an unknown structural tag (< 0x8000), which
// spec.md §7 requires terminate decoding rather than be skipped.
var ErrUnsupportedSample = errors.New("sample: unsupported structural tag")

// ErrMissingReference marks a difference-frame sample decoded without its
// key-frame reference already available (spec.md §9).
var ErrMissingReference = errors.New("sample: missing reference frame")
