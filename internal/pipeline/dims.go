package pipeline

import "github.com/cineform-go/cineform/internal/sample"

// dims is a plane's width/height at one decomposition stage.
type dims struct{ W, H int }

// levelDims replays wavelet.Forward2D's halving rule ((n+1)/2 each stage)
// to compute a channel's width/height at every decomposition level without
// needing to store it redundantly in each BandHeader: dims[0] is the
// channel's full resolution, dims[i] is the per-band resolution produced
// by level i-1's transform (and the input resolution to level i's).
func levelDims(width, height, levelCount int) []dims {
	out := make([]dims, levelCount+1)
	out[0] = dims{width, height}
	for i := 0; i < levelCount; i++ {
		out[i+1] = dims{(out[i].W + 1) / 2, (out[i].H + 1) / 2}
	}
	return out
}

// channelPlaneDims returns channel index ci's full-resolution width/height
// given the sample header's encoded format, mirroring the chroma
// subsampling colorconv.Unpack applies for that format. RGB444/RGBA4444
// carry every channel at full resolution; YUV422 subsamples chroma
// horizontally by 2; Bayer's G-sum/R-G/B-G/ΔG quadrature is one quadruple
// per 2x2 mosaic block, so every channel is subsampled by 2 in both
// directions (colorconv.unpackBayer).
func channelPlaneDims(h sample.Header, ci int) dims {
	switch h.EncodedFormat {
	case sample.FormatYUV422:
		if ci == 1 || ci == 2 {
			return dims{(int(h.Width) + 1) / 2, int(h.Height)}
		}
	case sample.FormatBayer:
		return dims{int(h.Width) / 2, int(h.Height) / 2}
	}
	return dims{int(h.Width), int(h.Height)}
}
