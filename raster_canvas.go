package labelworker

import (
	"image"

	"github.com/pkg/errors"
)

type ColorMode int

const (
	ModeRGB = ColorMode(iota)
	ModeGrayscale
	ModeBitonal
)

func (m ColorMode) String() string {
	switch m {
	case ModeRGB:
		return "RGB"
	case ModeGrayscale:
		return "GRAYSCALE"
	case ModeBitonal:
		return "BITONAL"
	}
	return ""
}

// Channels is the number of bytes per pixel for the mode. Bitonal canvases
// store one byte per pixel holding 0 or 255.
func (m ColorMode) Channels() int {
	if m == ModeRGB {
		return 3
	}
	return 1
}

// RasterCanvas is the working surface every pipeline stage consumes and
// produces. Stages never alias an input buffer; each transform returns a
// freshly allocated canvas.
type RasterCanvas struct {
	Width  int
	Height int
	DPI    float64
	Mode   ColorMode
	Pix    []uint8
}

func NewRasterCanvas(width, height int, dpi float64, mode ColorMode) (*RasterCanvas, error) {
	canvas := &RasterCanvas{
		Width:  width,
		Height: height,
		DPI:    dpi,
		Mode:   mode,
		Pix:    make([]uint8, width*height*mode.Channels()),
	}
	if err := canvas.Validate(); err != nil {
		return nil, err
	}
	return canvas, nil
}

func (c *RasterCanvas) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Errorf("canvas dimensions must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.DPI <= 0 {
		return errors.Errorf("canvas dpi must be positive, got %v", c.DPI)
	}
	if want := c.Width * c.Height * c.Mode.Channels(); len(c.Pix) != want {
		return errors.Errorf("canvas buffer length %d does not match %dx%d %s (%d expected)",
			len(c.Pix), c.Width, c.Height, c.Mode, want)
	}
	return nil
}

func (c *RasterCanvas) Clone() *RasterCanvas {
	pix := make([]uint8, len(c.Pix))
	copy(pix, c.Pix)
	return &RasterCanvas{Width: c.Width, Height: c.Height, DPI: c.DPI, Mode: c.Mode, Pix: pix}
}

func (c *RasterCanvas) Fill(v uint8) {
	for i := range c.Pix {
		c.Pix[i] = v
	}
}

// ITU-R 601 integer luma
func luma(r, g, b uint8) uint8 {
	return uint8((299*int(r) + 587*int(g) + 114*int(b) + 500) / 1000)
}

func (c *RasterCanvas) grayAt(x, y int) uint8 {
	if c.Mode == ModeRGB {
		i := (y*c.Width + x) * 3
		return luma(c.Pix[i], c.Pix[i+1], c.Pix[i+2])
	}
	return c.Pix[y*c.Width+x]
}

// grayImage wraps single-channel canvases without copying; rgb canvases
// are reduced to luma into a new buffer.
func (c *RasterCanvas) grayImage() *image.Gray {
	rect := image.Rect(0, 0, c.Width, c.Height)
	if c.Mode != ModeRGB {
		return &image.Gray{Pix: c.Pix, Stride: c.Width, Rect: rect}
	}
	gray := image.NewGray(rect)
	for i, j := 0, 0; i < len(c.Pix); i, j = i+3, j+1 {
		gray.Pix[j] = luma(c.Pix[i], c.Pix[i+1], c.Pix[i+2])
	}
	return gray
}

func (c *RasterCanvas) nrgbaImage() *image.NRGBA {
	rect := image.Rect(0, 0, c.Width, c.Height)
	nrgba := image.NewNRGBA(rect)
	if c.Mode == ModeRGB {
		for i, j := 0, 0; i < len(c.Pix); i, j = i+3, j+4 {
			nrgba.Pix[j] = c.Pix[i]
			nrgba.Pix[j+1] = c.Pix[i+1]
			nrgba.Pix[j+2] = c.Pix[i+2]
			nrgba.Pix[j+3] = 0xFF
		}
		return nrgba
	}
	for j, v := range c.Pix {
		nrgba.Pix[j*4] = v
		nrgba.Pix[j*4+1] = v
		nrgba.Pix[j*4+2] = v
		nrgba.Pix[j*4+3] = 0xFF
	}
	return nrgba
}

func canvasFromGray(img *image.Gray, dpi float64, mode ColorMode) *RasterCanvas {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	canvas := &RasterCanvas{Width: w, Height: h, DPI: dpi, Mode: mode, Pix: make([]uint8, w*h)}
	for y := 0; y < h; y++ {
		srcRow := img.Pix[(y+bounds.Min.Y-img.Rect.Min.Y)*img.Stride+(bounds.Min.X-img.Rect.Min.X):]
		copy(canvas.Pix[y*w:(y+1)*w], srcRow[:w])
	}
	return canvas
}

func canvasFromNRGBA(img *image.NRGBA, dpi float64) *RasterCanvas {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	canvas := &RasterCanvas{Width: w, Height: h, DPI: dpi, Mode: ModeRGB, Pix: make([]uint8, w*h*3)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := y*img.Stride + x*4
			di := (y*w + x) * 3
			canvas.Pix[di] = img.Pix[si]
			canvas.Pix[di+1] = img.Pix[si+1]
			canvas.Pix[di+2] = img.Pix[si+2]
		}
	}
	return canvas
}

// BoundingBox is a half-open pixel rectangle within a canvas.
type BoundingBox struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

func (b BoundingBox) Dx() int { return b.Right - b.Left }
func (b BoundingBox) Dy() int { return b.Bottom - b.Top }

func (b BoundingBox) validateWithin(width, height int) error {
	if b.Left < 0 || b.Top < 0 || b.Left >= b.Right || b.Top >= b.Bottom ||
		b.Right > width || b.Bottom > height {
		return errors.Errorf("bounding box %+v out of range for %dx%d canvas", b, width, height)
	}
	return nil
}

// expand grows the box by margin pixels on every side, clamped to the canvas.
func (b BoundingBox) expand(margin, width, height int) BoundingBox {
	out := BoundingBox{
		Left:   b.Left - margin,
		Top:    b.Top - margin,
		Right:  b.Right + margin,
		Bottom: b.Bottom + margin,
	}
	if out.Left < 0 {
		out.Left = 0
	}
	if out.Top < 0 {
		out.Top = 0
	}
	if out.Right > width {
		out.Right = width
	}
	if out.Bottom > height {
		out.Bottom = height
	}
	return out
}

func (c *RasterCanvas) cropTo(box BoundingBox) *RasterCanvas {
	ch := c.Mode.Channels()
	w, h := box.Dx(), box.Dy()
	out := &RasterCanvas{Width: w, Height: h, DPI: c.DPI, Mode: c.Mode, Pix: make([]uint8, w*h*ch)}
	for y := 0; y < h; y++ {
		srcOff := ((box.Top+y)*c.Width + box.Left) * ch
		copy(out.Pix[y*w*ch:(y+1)*w*ch], c.Pix[srcOff:srcOff+w*ch])
	}
	return out
}
