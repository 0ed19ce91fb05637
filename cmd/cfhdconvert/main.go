// Command cfhdconvert decodes a CineForm sample and re-packs the result
// into a different packed pixel format.
//
// Usage:
//
//	cfhdconvert -in clip0001.cfhd -out frame.rgb \
//	    -width 1920 -height 1080 -from yuyv -to rg24
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cineform-go/cineform"
	"github.com/cineform-go/cineform/internal/colorconv"
)

var formatsByName = map[string]cineform.PixelFormat{
	"yuyv":  cineform.YUYV,
	"uyvy":  cineform.UYVY,
	"yu64":  cineform.YU64,
	"yr16":  cineform.YR16,
	"v210":  cineform.V210,
	"nv12":  cineform.NV12,
	"yv12":  cineform.YV12,
	"rg24":  cineform.RG24,
	"bgr24": cineform.BGR24,
	"rg32":  cineform.RG32,
	"r408":  cineform.R408,
	"v408":  cineform.V408,
}

func main() {
	inPath := flag.String("in", "", "path to a wire-encoded CineForm sample")
	outPath := flag.String("out", "", "path to write the re-packed pixel buffer")
	width := flag.Int("width", 0, "frame width in pixels")
	height := flag.Int("height", 0, "frame height in pixels")
	from := flag.String("from", "yuyv", "pixel format the sample was encoded from")
	to := flag.String("to", "rg24", "pixel format to re-pack into")
	flag.Parse()

	if *inPath == "" || *outPath == "" || *width <= 0 || *height <= 0 {
		fmt.Fprintln(os.Stderr, "cfhdconvert: -in, -out, -width, and -height are required")
		os.Exit(2)
	}

	if err := run(*inPath, *outPath, *from, *to, *width, *height); err != nil {
		fmt.Fprintln(os.Stderr, "cfhdconvert:", err)
		os.Exit(1)
	}
}

func run(inPath, outPath, fromName, toName string, width, height int) error {
	fromFormat, ok := formatsByName[fromName]
	if !ok {
		return fmt.Errorf("unknown -from format %q", fromName)
	}
	toFormat, ok := formatsByName[toName]
	if !ok {
		return fmt.Errorf("unknown -to format %q", toName)
	}

	wire, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inPath, err)
	}

	sess, err := cineform.NewSession(cineform.Config{
		Width: width, Height: height,
		PixelFormat:  fromFormat,
		Matrix:       cineform.CG709,
		Range:        cineform.FullRange,
		LevelCount:   1,
		Quantizer:    1,
		Prescale:     cineform.ZeroPrescale(),
		RoundingBias: cineform.BiasReversible,
	})
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	defer sess.Close()

	decoded := make([]byte, cineform.PackedSize(fromFormat, width, height))
	if err := sess.Decode(wire, decoded); err != nil {
		return fmt.Errorf("decoding sample: %w", err)
	}

	if toFormat == fromFormat {
		return os.WriteFile(outPath, decoded, 0644)
	}

	img, err := colorconv.Unpack(fromFormat, width, height, decoded)
	if err != nil {
		return fmt.Errorf("unpacking %s: %w", fromName, err)
	}
	out := make([]byte, cineform.PackedSize(toFormat, width, height))
	if err := colorconv.Pack(toFormat, img, out); err != nil {
		return fmt.Errorf("packing %s: %w", toName, err)
	}
	return os.WriteFile(outPath, out, 0644)
}
