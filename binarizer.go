package labelworker

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

const (
	// binarizerTileGrid is the tile layout of the adaptive fallback.
	binarizerTileGrid = 8
	// darkIntensityCeiling marks what counts as dark mass before
	// thresholding, used to judge whether the global threshold wiped
	// out thin strokes.
	darkIntensityCeiling = 128
)

// Binarizer converts the canvas to pure black and white with a global
// Otsu threshold. When the global threshold destroys most of the dark
// mass, a sign of thin strokes on a busy background, it re-thresholds
// per tile and attaches an advisory instead of failing.
type Binarizer struct{}

func (Binarizer) Name() string { return StageBinarize }

func (Binarizer) Transform(canvas *RasterCanvas, opts ProcessingOptions) (*RasterCanvas, []Advisory, error) {
	if !opts.OptimizeBW {
		return canvas.Clone(), nil, nil
	}

	w, h := canvas.Width, canvas.Height
	gray := canvas.Pix
	if canvas.Mode == ModeRGB {
		gray = make([]uint8, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				gray[y*w+x] = canvas.grayAt(x, y)
			}
		}
	}

	var hist [256]int
	darkCount := 0
	for _, v := range gray {
		hist[v]++
		if v < darkIntensityCeiling {
			darkCount++
		}
	}

	threshold, ok := otsuThreshold(&hist, len(gray))
	if !ok {
		// single-intensity canvas, split at the midpoint
		threshold = 127
	}

	out := &RasterCanvas{Width: w, Height: h, DPI: canvas.DPI, Mode: ModeBitonal, Pix: make([]uint8, w*h)}
	blackCount := 0
	for i, v := range gray {
		if v <= threshold {
			out.Pix[i] = 0x00
			blackCount++
		} else {
			out.Pix[i] = 0xFF
		}
	}

	if darkCount == 0 || float64(blackCount) >= opts.MinBlackFraction*float64(darkCount) {
		return out, nil, nil
	}

	// global threshold rejected, re-threshold per tile
	blackCount = adaptiveThreshold(gray, out.Pix, w, h, threshold)

	message := fmt.Sprintf("global threshold %d kept too little of the dark content, re-thresholded per %dx%d tile",
		threshold, binarizerTileGrid, binarizerTileGrid)
	log.Warn().Str("component", "BINARIZER").
		Int("darkCount", darkCount).
		Int("blackCount", blackCount).
		Msg(message)
	binarizerFallbacks.Inc()

	return out, []Advisory{{Stage: StageBinarize, Message: message}}, nil
}

// adaptiveThreshold runs Otsu per tile, tiles with a degenerate histogram
// inherit the global threshold. Returns the black pixel count.
func adaptiveThreshold(gray, out []uint8, w, h int, globalThreshold uint8) int {
	tileW := (w + binarizerTileGrid - 1) / binarizerTileGrid
	tileH := (h + binarizerTileGrid - 1) / binarizerTileGrid
	blackCount := 0

	for ty := 0; ty < h; ty += tileH {
		for tx := 0; tx < w; tx += tileW {
			endY := ty + tileH
			if endY > h {
				endY = h
			}
			endX := tx + tileW
			if endX > w {
				endX = w
			}

			var hist [256]int
			for y := ty; y < endY; y++ {
				for x := tx; x < endX; x++ {
					hist[gray[y*w+x]]++
				}
			}

			threshold, ok := otsuThreshold(&hist, (endY-ty)*(endX-tx))
			if !ok {
				threshold = globalThreshold
			}

			for y := ty; y < endY; y++ {
				for x := tx; x < endX; x++ {
					if gray[y*w+x] <= threshold {
						out[y*w+x] = 0x00
						blackCount++
					} else {
						out[y*w+x] = 0xFF
					}
				}
			}
		}
	}
	return blackCount
}

// otsuThreshold maximizes inter-class variance over the histogram. The
// second return is false when the histogram has no split, meaning every
// pixel shares one intensity.
func otsuThreshold(hist *[256]int, total int) (uint8, bool) {
	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i * c)
	}

	var weightB, sumB, maxVariance float64
	var threshold uint8
	found := false

	for t := 0; t < 256; t++ {
		weightB += float64(hist[t])
		if weightB == 0 {
			continue
		}
		weightF := float64(total) - weightB
		if weightF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		meanB := sumB / weightB
		meanF := (sumAll - sumB) / weightF
		variance := weightB * weightF * (meanB - meanF) * (meanB - meanF)
		if variance > maxVariance {
			maxVariance = variance
			threshold = uint8(t)
			found = true
		}
	}

	return threshold, found
}
