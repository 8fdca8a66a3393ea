package labelworker

// Landscape canvases get rotated a quarter turn clockwise so the long
// edge runs vertically. Near-square canvases sit in a dead band and are
// left alone, their orientation is genuinely ambiguous and barcode
// readers do not care.
const (
	rotateRatioThreshold = 1.15
	nearSquareLowRatio   = 0.87
)

type OrientationNormalizer struct{}

func (OrientationNormalizer) Name() string { return StageOrientation }

func (OrientationNormalizer) Transform(canvas *RasterCanvas, opts ProcessingOptions) (*RasterCanvas, []Advisory, error) {
	if !opts.AutoRotate {
		return canvas.Clone(), nil, nil
	}
	ratio := float64(canvas.Width) / float64(canvas.Height)
	if ratio <= rotateRatioThreshold {
		return canvas.Clone(), nil, nil
	}
	return rotate90CW(canvas), nil, nil
}

// rotate90CW reindexes pixels exactly, no resampling. The source pixel at
// (x, y) lands at (srcHeight-1-y, x).
func rotate90CW(c *RasterCanvas) *RasterCanvas {
	ch := c.Mode.Channels()
	w, h := c.Height, c.Width
	out := &RasterCanvas{Width: w, Height: h, DPI: c.DPI, Mode: c.Mode, Pix: make([]uint8, w*h*ch)}
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			sx := dy
			sy := c.Height - 1 - dx
			si := (sy*c.Width + sx) * ch
			di := (dy*w + dx) * ch
			copy(out.Pix[di:di+ch], c.Pix[si:si+ch])
		}
	}
	return out
}
