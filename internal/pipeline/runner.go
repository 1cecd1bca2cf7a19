package pipeline

import (
	"context"

	"github.com/twcfin/invoice-pipeline/internal/models"
	"go.uber.org/zap"
)

// BatchSummary aggregates the outcomes of one batch.
type BatchSummary struct {
	Processed int
	Succeeded int
	Ignored   int
	Failed    int
	Aborted   int
	Results   []JobResult
}

// Runner processes a batch of jobs sequentially. Jobs are independent: a
// failed job is captured in its result and the batch moves on.
type Runner struct {
	driver *Driver
	logger *zap.Logger
}

// NewRunner creates a Runner.
func NewRunner(driver *Driver, logger *zap.Logger) *Runner {
	return &Runner{
		driver: driver,
		logger: logger,
	}
}

// Run processes every job in order and returns the aggregated summary.
func (r *Runner) Run(ctx context.Context, jobs []models.ProcessingJob) BatchSummary {
	summary := BatchSummary{Results: make([]JobResult, 0, len(jobs))}

	for _, job := range jobs {
		if ctx.Err() != nil {
			r.logger.Warn("Batch interrupted",
				zap.Int("processed", summary.Processed),
				zap.Int("remaining", len(jobs)-summary.Processed))
			break
		}

		result := r.driver.Process(ctx, job)
		summary.Processed++
		summary.Results = append(summary.Results, result)

		switch {
		case result.Err != nil:
			summary.Aborted++
		case result.Status == models.LogStatusSuccess:
			summary.Succeeded++
		case result.Status == models.LogStatusIgnore:
			summary.Ignored++
		default:
			summary.Failed++
		}
	}

	r.logger.Info("Batch complete",
		zap.Int("processed", summary.Processed),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("ignored", summary.Ignored),
		zap.Int("failed", summary.Failed),
		zap.Int("aborted", summary.Aborted))

	return summary
}
