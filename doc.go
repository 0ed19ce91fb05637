// Package cineform implements the CineForm HD wavelet video codec: an
// intra-frame, multi-level reversible wavelet transform over planar
// YUV/RGB video, entropy-coded with an adaptive finite-state VLC
// codebook, and wrapped in a flat TLV sample container carrying a
// layered, priority-resolved active-metadata database alongside the
// coded coefficients.
//
// Basic usage for encoding a frame:
//
//	sess, err := cineform.NewSession(cineform.Config{
//		Width: 1920, Height: 1080,
//		PixelFormat:  cineform.YUYV,
//		LevelCount:   3,
//		Quantizer:    8,
//		Prescale:     cineform.DefaultPrescale(),
//		RoundingBias: cineform.BiasNormal,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer sess.Close()
//	wire, err := sess.Encode(frameBytes, true)
//
// Basic usage for decoding:
//
//	dst := make([]byte, cineform.PackedSize(cineform.YUYV, 1920, 1080))
//	err := sess.Decode(wire, dst)
package cineform
