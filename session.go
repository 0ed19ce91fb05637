package cineform

import (
	"errors"
	"fmt"

	"github.com/cineform-go/cineform/internal/arena"
	"github.com/cineform-go/cineform/internal/bitio"
	"github.com/cineform-go/cineform/internal/colorconv"
	"github.com/cineform-go/cineform/internal/metadata"
	"github.com/cineform-go/cineform/internal/pipeline"
	"github.com/cineform-go/cineform/internal/sample"
)

// Session drives repeated Encode/Decode calls against one fixed
// width/height/pixel-format configuration, owning a worker pool, an FSM
// cache, and (if MetadataDir is set) an active-metadata database shared
// across every call (spec.md §5: "created lazily on the first decode or
// encode call and destroyed at session shutdown").
type Session struct {
	cfg  Config
	pipe *pipeline.Session
	db   *metadata.Database
}

// NewSession validates cfg and constructs a Session.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("cineform: %w: width and height must be positive", ErrInvalidArgument)
	}
	if cfg.LevelCount < 1 || cfg.LevelCount > 3 {
		return nil, fmt.Errorf("cineform: %w: level count must be 1-3", ErrInvalidArgument)
	}

	var db *metadata.Database
	if cfg.MetadataDir != "" {
		db = metadata.NewDatabase(cfg.MetadataDir, cfg.Log)
		if cfg.WatchMetadata {
			db.Watch()
		}
	}

	pipe, err := pipeline.NewSession(cfg.toPipelineConfig(db))
	if err != nil {
		return nil, fmt.Errorf("cineform: %w: %v", ErrInvalidArgument, err)
	}
	return &Session{cfg: cfg, pipe: pipe, db: db}, nil
}

// Close releases the session's worker pool and metadata file watcher.
func (s *Session) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return err
		}
	}
	return s.pipe.Close()
}

// SetClipGUID records the active clip GUID, so Encode/Decode resolve the
// per-clip external .colr/.col1/.col2 layers named after it (spec.md
// §4.8). A no-op if MetadataDir was not configured.
func (s *Session) SetClipGUID(guid [16]byte) {
	if s.db != nil {
		s.db.SetClipGUID(guid)
	}
}

// Metadata returns the currently effective, priority-resolved CFHDDATA for
// the mono (non-stereo) channel, refreshing external layers first. With no
// MetadataDir configured this is just the built-in identity defaults.
func (s *Session) Metadata() (metadata.CFHDDATA, error) {
	if s.db == nil {
		var d metadata.CFHDDATA
		d.Reset()
		return d, nil
	}
	if err := s.db.RefreshExternal(); err != nil {
		return metadata.CFHDDATA{}, fmt.Errorf("cineform: metadata refresh: %w", err)
	}
	return s.db.Effective(0)
}

// Encode encodes one frame of packed pixel data, laid out per cfg's
// PixelFormat/Width/Height, as a key or difference frame, and returns its
// wire-encoded sample bytes (spec.md §6).
func (s *Session) Encode(pixels []byte, keyFrame bool) ([]byte, error) {
	if len(pixels) == 0 {
		return nil, fmt.Errorf("cineform: %w: empty pixel buffer", ErrInvalidArgument)
	}
	smp, err := s.pipe.EncodeFrame(pixels, keyFrame)
	if err != nil {
		return nil, translateErr(err)
	}
	out, err := sample.Encode(smp)
	if err != nil {
		return nil, translateErr(err)
	}
	return out, nil
}

// Decode parses wire-encoded sample bytes and packs the decoded frame into
// dst, which must be at least PackedSize(cfg.PixelFormat, cfg.Width,
// cfg.Height) bytes long. Any embedded per-frame metadata chunks are
// merged into the session's active database before the frame is decoded,
// so CFHDDATA tweaks travel with the sample (spec.md §4.8).
func (s *Session) Decode(wire []byte, dst []byte) error {
	smp, err := sample.Decode(wire)
	if err != nil {
		return translateErr(err)
	}
	if s.db != nil && len(smp.Metadata) > 0 {
		s.db.SetFrameLayer(0, frameMetadataBuffer(smp.Metadata))
	}
	if err := s.pipe.DecodeFrame(smp, dst); err != nil {
		return translateErr(err)
	}
	return nil
}

// frameMetadataBuffer re-serializes a sample's forwarded metadata chunks
// into the flat TLV buffer internal/metadata.UpdateCFHDDATA expects,
// mirroring how an encoder would have built the FRAME layer in the first
// place.
func frameMetadataBuffer(chunks []sample.Chunk) []byte {
	var buf []byte
	for _, c := range chunks {
		var err error
		buf, err = sample.WriteChunk(buf, c.Tag, c.Type, c.Payload)
		if err != nil {
			continue
		}
	}
	return buf
}

// translateErr maps a wrapped internal sentinel to its public §7 error
// kind, preserving the original error in the chain so callers can still
// inspect it if they import the internal package (tests only; callers
// outside the module cannot).
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, sample.ErrCorrupt):
		return fmt.Errorf("%w: %v", ErrCorruptBitstream, err)
	case errors.Is(err, sample.ErrUnsupportedSample):
		return fmt.Errorf("%w: %v", ErrUnsupportedSample, err)
	case errors.Is(err, sample.ErrMissingReference):
		return fmt.Errorf("%w: %v", ErrMissingReference, err)
	case errors.Is(err, colorconv.ErrUnsupportedFormat):
		return fmt.Errorf("%w: %v", ErrBadFormat, err)
	case errors.Is(err, arena.ErrScratchExhausted):
		return fmt.Errorf("%w: %v", ErrScratchExhausted, err)
	case errors.Is(err, bitio.ErrWriteOverflow):
		return fmt.Errorf("%w: %v", ErrWriteOverflow, err)
	case errors.Is(err, bitio.ErrEndOfStream):
		return fmt.Errorf("%w: %v", ErrEndOfStream, err)
	case errors.Is(err, pipeline.ErrBadFrame):
		return fmt.Errorf("%w: %v", ErrBadFrame, err)
	default:
		return err
	}
}

// PackedSize returns the number of bytes a packed buffer of the given
// format/width/height occupies, for callers sizing a Decode destination
// buffer.
func PackedSize(format PixelFormat, width, height int) int {
	switch format {
	case colorconv.YUYV, colorconv.UYVY:
		return width * height * 2
	case colorconv.YU64:
		return width * height * 4
	case colorconv.YR16:
		cw := width / 2
		return (width*height + 2*cw*height) * 2
	case colorconv.V210:
		return (width / 6) * 16 * height
	case colorconv.NV12, colorconv.YV12:
		cw, ch := width/2, height/2
		return width*height + 2*cw*ch
	case colorconv.RG24, colorconv.BGR24:
		return width * height * 3
	case colorconv.RG32, colorconv.R408, colorconv.V408:
		return width * height * 4
	case colorconv.BayerRG, colorconv.BayerGR, colorconv.BayerBG, colorconv.BayerGB:
		return width * height * 2
	default:
		return 0
	}
}
