package cineform

import "errors"

// Error kinds (spec.md §7). These are sentinels, not types: wrap one with
// fmt.Errorf's %w or errors.Wrap and test with errors.Is, never a type
// switch.
var (
	// ErrInvalidArgument marks a nil buffer, a zero-dimension frame, or an
	// unsupported pixel format passed to a public entry point.
	ErrInvalidArgument = errors.New("cineform: invalid argument")

	// ErrBadFrame marks a frame whose channel count or format does not
	// match the operation requested of it.
	ErrBadFrame = errors.New("cineform: bad frame")

	// ErrBadFormat marks a pixel layout unsupported by the called
	// unpacker/packer.
	ErrBadFormat = errors.New("cineform: unsupported pixel format")

	// ErrUnsupportedSample marks an unknown structural tag, a wrong magic,
	// or a format version newer than this module supports.
	ErrUnsupportedSample = errors.New("cineform: unsupported sample")

	// ErrCorruptBitstream marks an FSM next-state out of range, a band
	// coefficient count mismatch, or a payload shorter than its declared
	// length.
	ErrCorruptBitstream = errors.New("cineform: corrupt bitstream")

	// ErrMissingReference marks a difference frame decoded with no stored
	// keyframe to reference.
	ErrMissingReference = errors.New("cineform: missing reference frame")

	// ErrScratchExhausted marks the arena running out of space, signaling
	// session misprovisioning rather than a bad input.
	ErrScratchExhausted = errors.New("cineform: scratch arena exhausted")

	// ErrWriteOverflow marks a bitstream write exceeding its destination
	// buffer.
	ErrWriteOverflow = errors.New("cineform: bitstream write overflow")

	// ErrEndOfStream marks a bitstream read running past its source
	// buffer.
	ErrEndOfStream = errors.New("cineform: unexpected end of bitstream")
)
