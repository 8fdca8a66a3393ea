package labelworker

import (
	"math"

	"github.com/rs/zerolog/log"
)

// A row or column counts as background when even its darkest pixel sits
// at or above this intensity. Scanner bleed and slight paper tint stay
// below pure white, hence the small allowance.
const backgroundFloor = 250

type BoundaryCropper struct{}

func (BoundaryCropper) Name() string { return StageCrop }

func (BoundaryCropper) Transform(canvas *RasterCanvas, opts ProcessingOptions) (*RasterCanvas, []Advisory, error) {
	box, err := contentBoundingBox(canvas)
	if err != nil {
		return nil, nil, err
	}

	margin := int(math.Round(opts.CropMarginInches * canvas.DPI))
	box = box.expand(margin, canvas.Width, canvas.Height)
	if err := box.validateWithin(canvas.Width, canvas.Height); err != nil {
		return nil, nil, NewLabelError(NoLabelBoundaryFound, "detected label boundary is degenerate")
	}

	log.Debug().Str("component", "CROPPER").
		Int("left", box.Left).Int("top", box.Top).
		Int("right", box.Right).Int("bottom", box.Bottom).
		Int("margin", margin).
		Msg("label boundary detected")

	return canvas.cropTo(box), nil, nil
}

// contentBoundingBox scans minimum-intensity projections inward from all
// four edges. The resulting tight box brackets every non-background pixel.
func contentBoundingBox(canvas *RasterCanvas) (BoundingBox, error) {
	w, h := canvas.Width, canvas.Height
	rowMin := make([]uint8, h)
	colMin := make([]uint8, w)
	for i := range rowMin {
		rowMin[i] = 0xFF
	}
	for i := range colMin {
		colMin[i] = 0xFF
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := canvas.grayAt(x, y)
			if v < rowMin[y] {
				rowMin[y] = v
			}
			if v < colMin[x] {
				colMin[x] = v
			}
		}
	}

	top := -1
	for y := 0; y < h; y++ {
		if rowMin[y] < backgroundFloor {
			top = y
			break
		}
	}
	if top < 0 {
		return BoundingBox{}, NewLabelError(NoLabelBoundaryFound, "page appears blank, no label content found")
	}

	bottom := h
	for y := h - 1; y >= 0; y-- {
		if rowMin[y] < backgroundFloor {
			bottom = y + 1
			break
		}
	}

	left := 0
	for x := 0; x < w; x++ {
		if colMin[x] < backgroundFloor {
			left = x
			break
		}
	}

	right := w
	for x := w - 1; x >= 0; x-- {
		if colMin[x] < backgroundFloor {
			right = x + 1
			break
		}
	}

	return BoundingBox{Left: left, Top: top, Right: right, Bottom: bottom}, nil
}
