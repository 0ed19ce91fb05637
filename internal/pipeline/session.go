package pipeline

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/cineform-go/cineform/internal/arena"
	"github.com/cineform-go/cineform/internal/cfhdlog"
	"github.com/cineform-go/cineform/internal/colorconv"
	"github.com/cineform-go/cineform/internal/metadata"
	"github.com/cineform-go/cineform/internal/quant"
	"github.com/cineform-go/cineform/internal/sample"
	"github.com/cineform-go/cineform/internal/vlc"
	"github.com/cineform-go/cineform/internal/wavelet"
)

// ErrBadFrame marks a sample whose dimensions or channel count do not
// match what the session was configured for, rather than a corrupt
// bitstream within an otherwise well-formed sample.
var ErrBadFrame = errors.New("pipeline: bad frame")

// Session holds the transient state of one encode/decode stream: its
// config, worker pool, FSM cache, and scratch arena. Mirrors the teacher's
// private encoder/decoder structs, generalized to serve both directions
// since CineForm's per-channel pipeline is symmetric stage-for-stage.
type Session struct {
	cfg      Config
	pool     *workerPool
	fsmCache *fsmCache
	metadata *metadata.Database
	log      cfhdlog.Logger

	scratch        *arena.Arena
	scratchMu      sync.Mutex
	channelScratch int

	// haveKeyframe records whether this session has successfully decoded
	// a key frame yet. Guarded by scratchMu, which DecodeFrame already
	// holds for the duration of a decode.
	haveKeyframe bool
}

// NewSession builds a Session from cfg, validating the handful of
// parameters that would otherwise fail deep inside a frame.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.New("pipeline: width and height must be positive")
	}
	if cfg.LevelCount < 1 || cfg.LevelCount > 3 {
		return nil, errors.New("pipeline: level count must be 1-3")
	}
	if cfg.BaseQuantizer < 1 {
		cfg.BaseQuantizer = 1
	}
	log := cfg.logger()

	channelCount := 3
	if cfg.PixelFormat == colorconv.R408 || cfg.PixelFormat == colorconv.V408 || colorconv.IsBayer(cfg.PixelFormat) {
		channelCount = 4
	}
	perChannel := channelScratchBytes(cfg.Width, cfg.Height)
	root := cfg.allocator().Alloc(perChannel * channelCount)

	s := &Session{
		cfg:            cfg,
		pool:           newWorkerPool(cfg.workerCount()),
		fsmCache:       newFSMCache(log),
		metadata:       cfg.Metadata,
		log:            log,
		scratch:        arena.New(root),
		channelScratch: perChannel,
	}
	return s, nil
}

// Close releases the session's worker pool and metadata file watch.
func (s *Session) Close() error {
	s.pool.Close()
	if s.metadata != nil {
		return s.metadata.Close()
	}
	return nil
}

func rgbEncoded(f colorconv.Format) bool {
	switch f {
	case colorconv.RG24, colorconv.BGR24, colorconv.RG32:
		return true
	default:
		return false
	}
}

// replicateBottomEdge overwrites p's rows from displayHeight (scaled into
// p's own resolution, since chroma/Bayer planes may be subsampled
// relative to fullHeight) through p.Height-1 with a copy of the last
// displayed row. This is spec.md §3/§4.9's "tile bottom padding" /
// "replicate the bottom edge" invariant: rows below display height are
// never shown, so the encoder overwrites them before the wavelet sees
// them (avoiding ringing against whatever garbage the caller's buffer
// held there) and the decoder overwrites them again on the way out
// (rather than surfacing that discarded, lossily-reconstructed data).
func replicateBottomEdge(p *colorconv.Plane, fullHeight, displayHeight int) {
	if p.Height == 0 || fullHeight == 0 || displayHeight >= fullHeight {
		return
	}
	planeDisplay := p.Height * displayHeight / fullHeight
	if planeDisplay < 1 {
		planeDisplay = 1
	}
	if planeDisplay >= p.Height {
		return
	}
	edge := p.Data[(planeDisplay-1)*p.Width : planeDisplay*p.Width]
	for y := planeDisplay; y < p.Height; y++ {
		copy(p.Data[y*p.Width:(y+1)*p.Width], edge)
	}
}

func (s *Session) encodedFormat() sample.EncodedFormat {
	switch {
	case s.cfg.PixelFormat == colorconv.RG24 || s.cfg.PixelFormat == colorconv.BGR24:
		return sample.FormatRGB444
	case s.cfg.PixelFormat == colorconv.RG32:
		return sample.FormatRGBA4444
	case colorconv.IsBayer(s.cfg.PixelFormat):
		return sample.FormatBayer
	default:
		return sample.FormatYUV422
	}
}

// toYUVInPlace converts img's R,G,B-labeled Y/Cb/Cr planes to true Y/Cb/Cr
// using cfg.Matrix, for the RGB-packed formats. No-op for formats
// colorconv already unpacks directly into Y/Cb/Cr.
func (s *Session) toYUVInPlace(img *colorconv.YUVImage) {
	if !rgbEncoded(s.cfg.PixelFormat) {
		return
	}
	for i := range img.Y.Data {
		y, cb, cr := colorconv.ForwardTransform(s.cfg.Matrix, s.cfg.Range,
			int32(img.Y.Data[i]), int32(img.Cb.Data[i]), int32(img.Cr.Data[i]))
		img.Y.Data[i] = int16(y)
		img.Cb.Data[i] = int16(cb)
		img.Cr.Data[i] = int16(cr)
	}
}

// toRGBInPlace is toYUVInPlace's inverse, applied after decode and before
// Pack for the RGB-packed formats.
func (s *Session) toRGBInPlace(img *colorconv.YUVImage) {
	if !rgbEncoded(s.cfg.PixelFormat) {
		return
	}
	for i := range img.Y.Data {
		r, g, b := colorconv.InverseTransform(s.cfg.Matrix, s.cfg.Range,
			int32(img.Y.Data[i]), int32(img.Cb.Data[i]), int32(img.Cr.Data[i]))
		img.Y.Data[i] = int16(r)
		img.Cb.Data[i] = int16(g)
		img.Cr.Data[i] = int16(b)
	}
}

// EncodeFrame unpacks buf (in the session's configured PixelFormat),
// wavelet-transforms, quantizes, compands, and entropy-codes each
// channel, and returns the assembled sample.
func (s *Session) EncodeFrame(buf []byte, keyFrame bool) (*sample.Sample, error) {
	img, err := colorconv.Unpack(s.cfg.PixelFormat, s.cfg.Width, s.cfg.Height, buf)
	if err != nil {
		return nil, errors.Wrap(err, "unpack")
	}
	s.toYUVInPlace(img)

	planes := []*colorconv.Plane{&img.Y, &img.Cb, &img.Cr}
	if img.Alpha != nil {
		planes = append(planes, img.Alpha)
	}
	displayHeight := s.cfg.displayHeight()
	for _, p := range planes {
		replicateBottomEdge(p, s.cfg.Height, displayHeight)
	}

	smp := &sample.Sample{Header: sample.Header{
		FormatVersion: 1,
		EncodedFormat: s.encodedFormat(),
		Width:         uint16(s.cfg.Width),
		Height:        uint16(s.cfg.Height),
		DisplayHeight: uint16(displayHeight),
		LevelCount:    uint8(s.cfg.LevelCount),
		ChannelCount:  uint8(len(planes)),
		KeyFrame:      keyFrame,
	}}

	s.scratchMu.Lock()
	defer s.scratchMu.Unlock()
	s.scratch.Reset()
	chArenas := newChannelArenas(s.scratch, len(planes), s.channelScratch)

	channels := make([]sample.Channel, len(planes))
	errs := make([]error, len(planes))
	var wg sync.WaitGroup
	for i, p := range planes {
		i, p := i, p
		s.pool.Submit(&wg, func() {
			ch, err := s.encodeChannel(uint16(i), p, chArenas[i])
			channels[i] = ch
			errs[i] = err
		})
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "encode channel %d", i)
		}
	}
	smp.Channels = channels
	return smp, nil
}

// quantizerFor returns the quantizer divisor for level li's band b: LL is
// always lossless (q=1, it only ever carries further decomposition or the
// final reconstructed low frequencies), other bands use a divisor that
// doubles each level deeper to match the halving signal energy of the
// subband it represents.
func (s *Session) quantizerFor(li int, b wavelet.Band) int32 {
	if b == wavelet.LL {
		return 1
	}
	q := s.cfg.BaseQuantizer << uint(li)
	const maxQ = 4095
	if q > maxQ {
		q = maxQ
	}
	return q
}

func (s *Session) prescaleFor(li int) (rowShift, colShift int) {
	if li == 0 {
		rowShift = s.cfg.Prescale.Frame
	} else {
		rowShift = s.cfg.Prescale.Spatial
	}
	colShift = s.cfg.Prescale.Spatial
	if li == s.cfg.LevelCount-1 {
		colShift += s.cfg.Prescale.Lowpass
	}
	return rowShift, colShift
}

func (s *Session) encodeChannel(idx uint16, p *colorconv.Plane, ch *arena.Arena) (sample.Channel, error) {
	data := make([]int32, len(p.Data))
	for i, v := range p.Data {
		data[i] = int32(v)
	}
	width, height := p.Width, p.Height

	levels := make([]sample.Level, s.cfg.LevelCount)
	for li := 0; li < s.cfg.LevelCount; li++ {
		rowShift, colShift := s.prescaleFor(li)
		lvl := wavelet.Forward2D(data, width, height, s.cfg.RoundingBias, rowShift, colShift)
		last := li == s.cfg.LevelCount-1

		bands := []wavelet.Band{wavelet.LH, wavelet.HL, wavelet.HH}
		if last {
			bands = []wavelet.Band{wavelet.LL, wavelet.LH, wavelet.HL, wavelet.HH}
		}

		// lvlArena Push()es a child at ch's current mark; every level
		// reuses the same bytes since ch's own offset never advances, so
		// this level's band scratch is automatically reclaimed the moment
		// the next level pushes (see Arena.Push). ch is nil if no scratch
		// region could be carved for this channel; scratchInt32 falls back
		// to the heap in that case.
		var lvlArena *arena.Arena
		if ch != nil {
			lvlArena = ch.Push()
		}

		var sl sample.Level
		for _, b := range bands {
			q := s.quantizerFor(li, b)
			cb := vlc.CodebookForQuantizer(q)

			coeffs := lvl.Bands[b]
			quantized := scratchInt32(lvlArena, len(coeffs), s.log)
			quant.Quantize(quantized, coeffs, q)
			companded := scratchInt32(lvlArena, len(quantized), s.log)
			for i, v := range quantized {
				// spec.md §4.3: the encoder applies the inverse curve
				// before codebook lookup.
				companded[i] = quant.Expand(v)
			}

			payload, err := encodeBandPayload(cb, companded)
			if err != nil {
				return sample.Channel{}, errors.Wrapf(err, "level %d band %s", li, b)
			}
			sl.Bands = append(sl.Bands, sample.Band{
				Header: sample.BandHeader{
					Q:         q,
					Width:     uint16(lvl.Width),
					Height:    uint16(lvl.Height),
					Scale:     int8(lvl.Scale[b]),
					PixelType: uint8(b),
				},
				Payload: payload,
			})
		}
		levels[li] = sl

		if !last {
			data = lvl.Bands[wavelet.LL]
			width, height = lvl.Width, lvl.Height
		}
	}

	return sample.Channel{Index: idx, Levels: levels}, nil
}

// DecodeFrame reconstructs every channel of smp and packs the result into
// buf (sized for the session's configured PixelFormat).
func (s *Session) DecodeFrame(smp *sample.Sample, buf []byte) error {
	if int(smp.Header.Width) != s.cfg.Width || int(smp.Header.Height) != s.cfg.Height {
		return errors.Wrapf(ErrBadFrame, "sample dimensions %dx%d do not match session config %dx%d",
			smp.Header.Width, smp.Header.Height, s.cfg.Width, s.cfg.Height)
	}

	s.scratchMu.Lock()
	defer s.scratchMu.Unlock()

	// spec.md §4.9: a difference (P) frame is only meaningful against the
	// most recent keyframe held by the session; a fresh session (or one
	// that has never seen a keyframe) has no such context to decode
	// against.
	if !smp.Header.KeyFrame && !s.haveKeyframe {
		return errors.Wrapf(sample.ErrMissingReference,
			"difference frame decoded with no keyframe context established")
	}

	s.scratch.Reset()
	chArenas := newChannelArenas(s.scratch, len(smp.Channels), s.channelScratch)

	planes := make([]colorconv.Plane, len(smp.Channels))
	errs := make([]error, len(smp.Channels))
	var wg sync.WaitGroup
	for i, ch := range smp.Channels {
		ch, ar := ch, chArenas[i]
		s.pool.Submit(&wg, func() {
			p, err := s.decodeChannel(smp.Header, ch, ar)
			if ch.Index < uint16(len(planes)) {
				planes[ch.Index] = p
				errs[ch.Index] = err
			}
		})
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			return errors.Wrapf(err, "decode channel %d", i)
		}
	}
	if len(planes) < 3 {
		return errors.Wrap(ErrBadFrame, "sample has fewer than 3 channels")
	}

	img := &colorconv.YUVImage{Y: planes[0], Cb: planes[1], Cr: planes[2]}
	if len(planes) > 3 {
		img.Alpha = &planes[3]
	}
	s.toRGBInPlace(img)

	// spec.md §4.9 step 5: rows [DisplayHeight, Height) are never shown,
	// so the decoder replicates the last displayed row into them rather
	// than surfacing whatever the wavelet/quantization path reconstructed
	// there.
	fullHeight := int(smp.Header.Height)
	displayHeight := int(smp.Header.DisplayHeight)
	for _, p := range []*colorconv.Plane{&img.Y, &img.Cb, &img.Cr} {
		replicateBottomEdge(p, fullHeight, displayHeight)
	}
	if img.Alpha != nil {
		replicateBottomEdge(img.Alpha, fullHeight, displayHeight)
	}

	if err := colorconv.Pack(s.cfg.PixelFormat, img, buf); err != nil {
		return errors.Wrap(err, "pack")
	}
	if smp.Header.KeyFrame {
		s.haveKeyframe = true
	}
	return nil
}

func (s *Session) decodeChannel(h sample.Header, ch sample.Channel, ar *arena.Arena) (colorconv.Plane, error) {
	planeDims := channelPlaneDims(h, int(ch.Index))
	full := levelDims(planeDims.W, planeDims.H, len(ch.Levels))

	var llData []int32
	for li := len(ch.Levels) - 1; li >= 0; li-- {
		lvl := ch.Levels[li]
		bandDims := full[li+1]

		// See encodeChannel's lvlArena: one Push per level, automatically
		// reclaimed by the next level's Push.
		var lvlArena *arena.Arena
		if ar != nil {
			lvlArena = ar.Push()
		}

		bandData := make(map[uint8][]int32, len(lvl.Bands))
		for _, band := range lvl.Bands {
			cb := vlc.CodebookForQuantizer(band.Header.Q)
			fsm, err := s.fsmCache.get(cb)
			if err != nil {
				return colorconv.Plane{}, errors.Wrapf(err, "level %d", li)
			}
			count := bandDims.W * bandDims.H
			companded, err := decodeBandPayload(fsm, band.Payload, count)
			if err != nil {
				return colorconv.Plane{}, errors.Wrapf(err, "level %d pixel-type %d", li, band.Header.PixelType)
			}
			coeffs := scratchInt32(lvlArena, len(companded), s.log)
			for i, v := range companded {
				// spec.md §4.3: the decoder applies the forward curve
				// unless COMPANDING_DONE — this codec always runs the
				// post-decode expansion explicitly.
				coeffs[i] = quant.Compand(v)
			}
			dequant := scratchInt32(lvlArena, len(coeffs), s.log)
			quant.Dequantize(dequant, coeffs, band.Header.Q)
			bandData[band.Header.PixelType] = dequant
		}

		wLvl := &wavelet.Level{Width: bandDims.W, Height: bandDims.H}
		if li == len(ch.Levels)-1 {
			wLvl.Bands[wavelet.LL] = bandData[uint8(wavelet.LL)]
		} else {
			wLvl.Bands[wavelet.LL] = llData
		}
		wLvl.Bands[wavelet.LH] = bandData[uint8(wavelet.LH)]
		wLvl.Bands[wavelet.HL] = bandData[uint8(wavelet.HL)]
		wLvl.Bands[wavelet.HH] = bandData[uint8(wavelet.HH)]

		parent := full[li]
		dst := make([]int32, parent.W*parent.H)
		rowShift, colShift := s.prescaleFor(li)
		wavelet.Inverse2D(wLvl, dst, parent.W, parent.H, s.cfg.RoundingBias, rowShift, colShift)
		llData = dst
	}

	out := make([]int16, len(llData))
	for i, v := range llData {
		out[i] = int16(v)
	}
	return colorconv.Plane{Width: planeDims.W, Height: planeDims.H, Data: out}, nil
}
