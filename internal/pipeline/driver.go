// Package pipeline sequences one invoice-processing job: validate, resolve
// the business day, extract, assign, save, and unconditionally log.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twcfin/invoice-pipeline/internal/assign"
	"github.com/twcfin/invoice-pipeline/internal/calendar"
	"github.com/twcfin/invoice-pipeline/internal/extract"
	"github.com/twcfin/invoice-pipeline/internal/ledger"
	"github.com/twcfin/invoice-pipeline/internal/mailbox"
	"github.com/twcfin/invoice-pipeline/internal/models"
	"github.com/twcfin/invoice-pipeline/internal/storage"
	"go.uber.org/zap"
)

// JobResult is the explicit outcome of one job, aggregated by the batch
// runner instead of being swallowed mid-batch.
type JobResult struct {
	Job         models.ProcessingJob
	BusinessDay time.Time
	Status      models.LogStatus
	ErrorReason string
	Confidence  string
	Invoice     *models.InvoiceRecord
	FinalState  State

	// Err carries store-level failures that aborted the job, including a
	// failed log append. Nil for jobs whose outcome is fully captured in
	// the log row.
	Err error
}

// Driver runs single jobs through the pipeline state machine.
type Driver struct {
	mail      *mailbox.Reader
	artifacts storage.ObjectStore
	extractor *extract.Extractor
	resolver  *assign.Resolver
	ledgers   *ledger.Store
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// NewDriver creates a Driver. artifacts is the store holding analysis
// results; loc is the business timezone.
func NewDriver(
	mail *mailbox.Reader,
	artifacts storage.ObjectStore,
	extractor *extract.Extractor,
	resolver *assign.Resolver,
	ledgers *ledger.Store,
	loc *time.Location,
	logger *zap.Logger,
) *Driver {
	return &Driver{
		mail:      mail,
		artifacts: artifacts,
		extractor: extractor,
		resolver:  resolver,
		ledgers:   ledgers,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

// Process runs one job to completion. It always attempts exactly one log
// append, whatever the outcome; only a store failure on that final append
// leaves the job without an audit row, and that failure is carried in
// JobResult.Err.
func (d *Driver) Process(ctx context.Context, job models.ProcessingJob) JobResult {
	machine := NewMachine()
	result := JobResult{Job: job, Status: models.LogStatusSuccess}

	d.logger.Info("Processing job",
		zap.String("job_id", job.JobID),
		zap.String("message_id", job.MessageID))

	receivedAt, err := d.mail.ReceivedAt(ctx, job.MessageID)
	if err != nil {
		// Without the email timestamp the job cannot be bucketed; file its
		// log row under the processing day instead of dropping it.
		receivedAt = d.now().In(d.loc)
		d.fail(machine, &result, fmt.Sprintf("email timestamp unavailable: %v", err))
	}
	result.BusinessDay = calendar.Resolve(receivedAt, d.loc)

	if machine.State() == StateStart {
		d.validate(ctx, machine, &result, receivedAt)
	}

	d.finish(ctx, machine, &result, receivedAt)
	return result
}

// validate checks the upstream job status, then walks the happy path:
// extract, assign, save.
func (d *Driver) validate(ctx context.Context, machine *Machine, result *JobResult, receivedAt time.Time) {
	if !result.Job.IsProcessable() {
		d.fail(machine, result, fmt.Sprintf("Textract Job status: %s", result.Job.JobStatus))
		return
	}
	d.mustFire(machine, TriggerValidate)

	rawResult, err := d.fetchResult(ctx, result.Job.ResultsKey)
	if err != nil {
		result.Err = err
		d.fail(machine, result, err.Error())
		return
	}

	inv, err := d.extractor.Extract(rawResult)
	if err != nil {
		if errors.Is(err, extract.ErrStatementDocument) {
			result.Status = models.LogStatusIgnore
			result.ErrorReason = err.Error()
			d.mustFire(machine, TriggerIgnore)
			return
		}
		d.fail(machine, result, err.Error())
		return
	}
	inv.ReceivedAt = receivedAt
	d.mustFire(machine, TriggerExtract)

	confidence := d.resolveAssignment(ctx, inv)
	d.mustFire(machine, TriggerAssign)

	if err := d.ledgers.AppendInvoice(ctx, result.BusinessDay, *inv); err != nil {
		result.Err = err
		d.fail(machine, result, fmt.Sprintf("failed to save invoice: %v", err))
		return
	}
	d.mustFire(machine, TriggerSave)

	result.Invoice = inv
	result.Confidence = confidence
}

// resolveAssignment degrades gracefully: an unavailable rule set or
// classification service yields an unassigned invoice row, not a failed job.
func (d *Driver) resolveAssignment(ctx context.Context, inv *models.InvoiceRecord) string {
	assignment, err := d.resolver.Assign(ctx, inv.VendorName, inv.InvoiceNumber)
	if err != nil {
		d.logger.Warn("Assignment unavailable, saving invoice unassigned",
			zap.String("vendor", inv.VendorName),
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.Error(err))
		return ""
	}
	inv.Accountant = assignment.Accountant
	return assignment.Confidence
}

// finish appends the unconditional log row.
func (d *Driver) finish(ctx context.Context, machine *Machine, result *JobResult, receivedAt time.Time) {
	rec := models.LogRecord{
		Timestamp:   receivedAt,
		MessageID:   result.Job.MessageID,
		Status:      result.Status,
		ErrorReason: result.ErrorReason,
		Confidence:  result.Confidence,
	}
	if result.Invoice != nil {
		rec.InvoiceNumber = result.Invoice.InvoiceNumber
	}

	if err := d.ledgers.AppendLog(ctx, result.BusinessDay, rec); err != nil {
		d.logger.Error("Log append failed, job outcome not recorded",
			zap.String("job_id", result.Job.JobID),
			zap.Error(err))
		result.Err = err
		result.FinalState = machine.State()
		return
	}
	d.mustFire(machine, TriggerLog)
	result.FinalState = machine.State()
}

func (d *Driver) fail(machine *Machine, result *JobResult, reason string) {
	result.Status = models.LogStatusError
	result.ErrorReason = reason
	d.mustFire(machine, TriggerFail)
}

func (d *Driver) fetchResult(ctx context.Context, resultsKey string) (*extract.Result, error) {
	content, err := d.artifacts.Get(ctx, resultsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis results %s: %w", resultsKey, err)
	}

	var result extract.Result
	if err := json.Unmarshal(content, &result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis results %s: %w", resultsKey, err)
	}
	return &result, nil
}

func (d *Driver) mustFire(machine *Machine, trigger Trigger) {
	if err := machine.Fire(trigger); err != nil {
		// The transition table is fixed at compile time; an invalid fire is
		// a programming error, not a runtime condition.
		d.logger.Error("Pipeline state machine misfire", zap.Error(err))
	}
}
