package labelworker

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// The output page is a 4x6 inch thermal label, whatever the source size.
const (
	targetWidthInches  = 4.0
	targetHeightInches = 6.0
)

func targetPixelSize(dpi float64) (int, int) {
	return int(math.Round(targetWidthInches * dpi)), int(math.Round(targetHeightInches * dpi))
}

// CanvasFitter scales the cropped content uniformly onto a white target
// canvas of exactly round(4*dpi) x round(6*dpi) pixels, centered on both
// axes. Aspect ratio is never distorted.
type CanvasFitter struct{}

func (CanvasFitter) Name() string { return StageFit }

func (CanvasFitter) Transform(canvas *RasterCanvas, opts ProcessingOptions) (*RasterCanvas, []Advisory, error) {
	tw, th := targetPixelSize(opts.DPI)
	sw, sh := canvas.Width, canvas.Height

	scale := math.Min(float64(tw)/float64(sw), float64(th)/float64(sh))
	scaledW := int(math.Round(float64(sw) * scale))
	scaledH := int(math.Round(float64(sh) * scale))
	if scaledW < 1 {
		scaledW = 1
	}
	if scaledH < 1 {
		scaledH = 1
	}
	if scaledW > tw {
		scaledW = tw
	}
	if scaledH > th {
		scaledH = th
	}

	src := canvas
	// heavy reductions go through exact 2x2 box averaging first, the
	// kernel pass then only covers the last octave
	for src.Width >= 2*scaledW && src.Height >= 2*scaledH {
		src = halveCanvas(src)
	}

	resampled := scaledW != src.Width || scaledH != src.Height

	outMode := canvas.Mode
	if outMode == ModeBitonal && (resampled || src.Mode == ModeGrayscale) {
		outMode = ModeGrayscale
	}

	out := &RasterCanvas{
		Width:  tw,
		Height: th,
		DPI:    opts.DPI,
		Mode:   outMode,
		Pix:    make([]uint8, tw*th*outMode.Channels()),
	}
	out.Fill(0xFF)

	offsetX := (tw - scaledW) / 2
	offsetY := (th - scaledH) / 2

	if !resampled {
		pasteCanvas(out, src, offsetX, offsetY)
		return out, nil, nil
	}

	dstRect := image.Rect(offsetX, offsetY, offsetX+scaledW, offsetY+scaledH)
	if outMode == ModeRGB {
		dst := out.nrgbaImage()
		draw.CatmullRom.Scale(dst, dstRect, src.nrgbaImage(), image.Rect(0, 0, src.Width, src.Height), draw.Src, nil)
		packNRGBA(out, dst)
	} else {
		dst := &image.Gray{Pix: out.Pix, Stride: tw, Rect: image.Rect(0, 0, tw, th)}
		draw.CatmullRom.Scale(dst, dstRect, src.grayImage(), image.Rect(0, 0, src.Width, src.Height), draw.Src, nil)
	}

	return out, nil, nil
}

func pasteCanvas(dst, src *RasterCanvas, offsetX, offsetY int) {
	ch := dst.Mode.Channels()
	for y := 0; y < src.Height; y++ {
		dstOff := ((offsetY+y)*dst.Width + offsetX) * ch
		copy(dst.Pix[dstOff:dstOff+src.Width*ch], src.Pix[y*src.Width*ch:(y+1)*src.Width*ch])
	}
}

func packNRGBA(dst *RasterCanvas, img *image.NRGBA) {
	for i, j := 0, 0; i < len(dst.Pix); i, j = i+3, j+4 {
		dst.Pix[i] = img.Pix[j]
		dst.Pix[i+1] = img.Pix[j+1]
		dst.Pix[i+2] = img.Pix[j+2]
	}
}

// halveCanvas averages 2x2 blocks into one pixel. Odd trailing rows and
// columns reuse their nearest neighbor.
func halveCanvas(c *RasterCanvas) *RasterCanvas {
	ch := c.Mode.Channels()
	w2 := (c.Width + 1) / 2
	h2 := (c.Height + 1) / 2
	mode := c.Mode
	if mode == ModeBitonal {
		mode = ModeGrayscale
	}
	out := &RasterCanvas{Width: w2, Height: h2, DPI: c.DPI, Mode: mode, Pix: make([]uint8, w2*h2*ch)}
	for y := 0; y < h2; y++ {
		y0 := 2 * y
		y1 := y0 + 1
		if y1 >= c.Height {
			y1 = c.Height - 1
		}
		for x := 0; x < w2; x++ {
			x0 := 2 * x
			x1 := x0 + 1
			if x1 >= c.Width {
				x1 = c.Width - 1
			}
			for k := 0; k < ch; k++ {
				sum := int(c.Pix[(y0*c.Width+x0)*ch+k]) +
					int(c.Pix[(y0*c.Width+x1)*ch+k]) +
					int(c.Pix[(y1*c.Width+x0)*ch+k]) +
					int(c.Pix[(y1*c.Width+x1)*ch+k])
				out.Pix[(y*w2+x)*ch+k] = uint8((sum + 2) / 4)
			}
		}
	}
	return out
}
