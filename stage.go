package labelworker

const (
	StageOrientation = "orientation-normalizer"
	StageCrop        = "boundary-cropper"
	StageFit         = "canvas-fitter"
	StageBinarize    = "binarizer"
)

// Stage is one link of the normalization chain. A stage reads its input
// canvas, returns a fresh one and may attach advisories to the final
// result. Stages hold no per-request state and are safe for concurrent
// use.
type Stage interface {
	Name() string
	Transform(canvas *RasterCanvas, opts ProcessingOptions) (*RasterCanvas, []Advisory, error)
}

// defaultStages is the canonical stage order. Stages that are switched
// off by options pass the canvas through instead of dropping out of the
// list, so the chain shape stays stable.
func defaultStages() []Stage {
	return []Stage{
		OrientationNormalizer{},
		BoundaryCropper{},
		CanvasFitter{},
		Binarizer{},
	}
}
