// Command cfhdinfo dumps a CineForm sample's header and effective
// active-metadata as JSON, without decoding any wavelet coefficients.
//
// Usage:
//
//	cfhdinfo -in clip0001.cfhd [-metadata-dir ./metadata]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cineform-go/cineform/internal/metadata"
	"github.com/cineform-go/cineform/internal/sample"
)

func main() {
	inPath := flag.String("in", "", "path to a wire-encoded CineForm sample")
	metaDir := flag.String("metadata-dir", "", "optional directory of external .colr/.col1/.col2 files")
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "cfhdinfo: -in is required")
		os.Exit(2)
	}

	if err := run(*inPath, *metaDir); err != nil {
		fmt.Fprintln(os.Stderr, "cfhdinfo:", err)
		os.Exit(1)
	}
}

type report struct {
	Header       sample.Header      `json:"header"`
	ChannelCount int                `json:"channelCount"`
	Levels       []int              `json:"levelsPerChannel"`
	Metadata     *metadata.CFHDDATA `json:"metadata,omitempty"`
}

func run(inPath, metaDir string) error {
	buf, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inPath, err)
	}
	smp, err := sample.Decode(buf)
	if err != nil {
		return fmt.Errorf("decoding sample: %w", err)
	}

	rep := report{Header: smp.Header, ChannelCount: len(smp.Channels)}
	for _, ch := range smp.Channels {
		rep.Levels = append(rep.Levels, len(ch.Levels))
	}

	if metaDir != "" {
		db := metadata.NewDatabase(metaDir, nil)
		if len(smp.Metadata) > 0 {
			var layerBuf []byte
			for _, c := range smp.Metadata {
				layerBuf, err = sample.WriteChunk(layerBuf, c.Tag, c.Type, c.Payload)
				if err != nil {
					return fmt.Errorf("re-serializing frame metadata: %w", err)
				}
			}
			db.SetFrameLayer(0, layerBuf)
		}
		if err := db.RefreshExternal(); err != nil {
			return fmt.Errorf("refreshing external metadata: %w", err)
		}
		eff, err := db.Effective(0)
		if err != nil {
			return fmt.Errorf("resolving metadata: %w", err)
		}
		rep.Metadata = &eff
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
