package labelworker

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchWorkers caps the worker pool when the caller does not
// pick a size, small hosts get GOMAXPROCS instead.
const DefaultBatchWorkers = 4

// BatchItem is one slot of a batch, the document plus the options and
// request id the result should carry.
type BatchItem struct {
	Doc       *SourceDocument
	Options   ProcessingOptions
	RequestID string
}

// BatchOrchestrator fans a list of documents over a bounded worker
// pool. One bad document never sinks the batch, each slot gets its own
// result and failures stay inside their slot.
type BatchOrchestrator struct {
	Pipeline  *Pipeline
	workers   int
	completed atomic.Int64
}

func NewBatchOrchestrator(pipeline *Pipeline, workers int) *BatchOrchestrator {
	if workers <= 0 {
		workers = DefaultBatchWorkers
		if n := runtime.GOMAXPROCS(0); n < workers {
			workers = n
		}
	}
	return &BatchOrchestrator{Pipeline: pipeline, workers: workers}
}

// Completed reports how many items this orchestrator has finished over
// its lifetime, canceled slots not included.
func (b *BatchOrchestrator) Completed() int64 {
	return b.completed.Load()
}

// ProcessBatch runs every item and returns results index-aligned with
// the input. Canceling the context stops items that have not started,
// their slots report ProcessingTimeout, items already running finish
// against their own deadline.
func (b *BatchOrchestrator) ProcessBatch(ctx context.Context, items []BatchItem) []LabelResult {
	start := time.Now()
	log.Info().Str("component", "BATCH").
		Int("items", len(items)).
		Int("workers", b.workers).
		Msg("Batch started")

	results := make([]LabelResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i := range items {
		i := i
		g.Go(func() error {
			if gctx.Err() != nil {
				results[i] = errorLabelResult(items[i].RequestID,
					NewLabelError(ProcessingTimeout, "batch canceled before item started"))
				batchItems.WithLabelValues("canceled").Inc()
				return nil
			}
			results[i] = b.processOne(gctx, items[i])
			b.completed.Add(1)
			batchItems.WithLabelValues(results[i].Status).Inc()
			return nil
		})
	}
	g.Wait()

	done := 0
	for i := range results {
		if results[i].Status == StatusDone {
			done++
		}
	}
	log.Info().Str("component", "BATCH").
		Int("items", len(items)).
		Int("done", done).
		Int("failed", len(items)-done).
		Dur("elapsed", time.Since(start)).
		Msg("Batch finished")

	return results
}

func (b *BatchOrchestrator) processOne(ctx context.Context, item BatchItem) (result LabelResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("component", "BATCH").
				Str("requestId", item.RequestID).
				Interface("panic", r).
				Msg("Recovered panic in batch item")
			result = errorLabelResult(item.RequestID, NewLabelError(CorruptDocument, "internal processing failure"))
		}
	}()

	itemCtx, cancel := context.WithTimeout(ctx, item.Options.itemTimeout())
	defer cancel()

	result = b.Pipeline.Format(itemCtx, item.Doc, item.Options, item.RequestID)

	// a deadline that fires inside an external tool can surface as a
	// decode failure, the slot still reports the timeout
	if result.Error != nil && itemCtx.Err() == context.DeadlineExceeded && result.Error.Kind != ProcessingTimeout {
		result.Error = &LabelError{Kind: ProcessingTimeout, Message: "item deadline exceeded"}
	}
	return result
}
