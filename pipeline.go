package labelworker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Pipeline runs a source document through load, the ordered transform
// stages and the final encode. A Pipeline is safe for concurrent use,
// every stage allocates a fresh canvas.
type Pipeline struct {
	Loader  *Loader
	Stages  []Stage
	Encoder Encoder
}

func NewPipeline(rasterizerKind string, saveFiles bool) *Pipeline {
	return &Pipeline{
		Loader: NewLoader(rasterizerKind, saveFiles),
		Stages: defaultStages(),
	}
}

// Process decodes the document and applies every stage in order,
// returning the finished canvas and the advisories the stages raised.
// The context is polled between stages so a deadline cuts the work off
// at the next stage boundary.
func (p *Pipeline) Process(ctx context.Context, doc *SourceDocument, opts ProcessingOptions) (*RasterCanvas, []Advisory, error) {
	canvas, err := p.Loader.Load(ctx, *doc, opts)
	if err != nil {
		return nil, nil, err
	}

	var advisories []Advisory
	for _, stage := range p.Stages {
		if err := ctx.Err(); err != nil {
			return nil, advisories, asLabelError(err)
		}

		start := time.Now()
		next, stageAdvisories, err := stage.Transform(canvas, opts)
		stageDuration.WithLabelValues(stage.Name()).Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, advisories, err
		}

		advisories = append(advisories, stageAdvisories...)
		log.Debug().Str("component", "PIPELINE").
			Str("stage", stage.Name()).
			Int("width", next.Width).
			Int("height", next.Height).
			Msg("Stage complete")
		canvas = next
	}

	return canvas, advisories, nil
}

// Format is the full request path, it processes the document and
// encodes the result. Errors never escape, they come back inside the
// LabelResult so batch slots and RPC replies stay uniform.
func (p *Pipeline) Format(ctx context.Context, doc *SourceDocument, opts ProcessingOptions, requestID string) LabelResult {
	if err := opts.validate(); err != nil {
		return errorLabelResult(requestID, NewLabelError(CorruptDocument, "invalid processing options: %v", err))
	}

	canvas, advisories, err := p.Process(ctx, doc, opts)
	if err != nil {
		result := errorLabelResult(requestID, err)
		result.Advisories = advisories
		return result
	}

	output, err := p.Encoder.Encode(canvas, opts)
	if err != nil {
		result := errorLabelResult(requestID, err)
		result.Advisories = advisories
		return result
	}

	result := newLabelResult(requestID)
	result.Status = StatusDone
	result.Output = output
	result.OutputFormat = opts.OutputFormat
	result.Width = canvas.Width
	result.Height = canvas.Height
	result.DPI = canvas.DPI
	result.Advisories = advisories
	return result
}

// Preview renders the label as it would print but skips binarization
// and always returns PNG, the quick visual check before committing a
// print run.
func (p *Pipeline) Preview(ctx context.Context, doc *SourceDocument, opts ProcessingOptions, requestID string) LabelResult {
	opts.OptimizeBW = false
	opts.OutputFormat = OutputPNG
	return p.Format(ctx, doc, opts, requestID)
}
