package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/twcfin/invoice-pipeline/internal/ledger"
	"github.com/twcfin/invoice-pipeline/internal/storage"
	"go.uber.org/zap"
)

// Reporter assembles and sends the daily processing report: the day's
// invoice and log ledgers as CSV attachments, plus a workbook rendition of
// the invoice ledger.
type Reporter struct {
	results    storage.ObjectStore
	mailer     Mailer
	sender     string
	recipients []string
	loc        *time.Location
	now        func() time.Time
	logger     *zap.Logger
}

func NewReporter(
	results storage.ObjectStore,
	mailer Mailer,
	sender string,
	recipients []string,
	loc *time.Location,
	logger *zap.Logger,
) *Reporter {
	return &Reporter{
		results:    results,
		mailer:     mailer,
		sender:     sender,
		recipients: recipients,
		loc:        loc,
		now:        time.Now,
		logger:     logger,
	}
}

// ErrNotWeekday is returned when the report is invoked on a weekend; nothing
// accrues to weekend buckets, so there is nothing to send.
var ErrNotWeekday = errors.New("report skipped: not a weekday")

// SendDaily sends the report for today's date in the business timezone.
// The report goes out even when the day has no ledgers, with an explicit
// "nothing processed" body, so recipients can tell a quiet day from a
// broken scheduler.
func (r *Reporter) SendDaily(ctx context.Context) error {
	return r.SendFor(ctx, r.now().In(r.loc))
}

// SendFor sends the report for an explicit day.
func (r *Reporter) SendFor(ctx context.Context, day time.Time) error {
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		r.logger.Info("Skipping daily report", zap.String("day", day.Format("2006-01-02")))
		return ErrNotWeekday
	}

	date := day.Format("2006-01-02")
	invoiceData, err := r.fetch(ctx, ledger.Key(day, ledger.KindInvoices))
	if err != nil {
		return err
	}
	logData, err := r.fetch(ctx, ledger.Key(day, ledger.KindLogs))
	if err != nil {
		return err
	}

	msg := Message{
		From:    r.sender,
		To:      r.recipients,
		Subject: fmt.Sprintf("Daily Invoice Processing Report - %s", date),
		Body:    reportBody(date, invoiceData != nil, logData != nil),
	}

	if invoiceData != nil {
		msg.Attachments = append(msg.Attachments, Attachment{
			Filename: ledger.Key(day, ledger.KindInvoices),
			Content:  invoiceData,
		})

		workbook, err := r.invoiceWorkbook(invoiceData)
		if err != nil {
			// CSV attachments already carry the data; ship without the sheet.
			r.logger.Warn("Failed to render invoice workbook", zap.Error(err))
		} else {
			msg.Attachments = append(msg.Attachments, Attachment{
				Filename: fmt.Sprintf("%s_invoices.xlsx", date),
				Content:  workbook,
			})
		}
	}
	if logData != nil {
		msg.Attachments = append(msg.Attachments, Attachment{
			Filename: ledger.Key(day, ledger.KindLogs),
			Content:  logData,
		})
	}

	if err := r.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send daily report: %w", err)
	}

	r.logger.Info("Daily report sent",
		zap.String("day", date),
		zap.Int("attachments", len(msg.Attachments)))
	return nil
}

// fetch returns nil (not an error) when the day's ledger was never created.
func (r *Reporter) fetch(ctx context.Context, key string) ([]byte, error) {
	content, err := r.results.Get(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", key, err)
	}
	return content, nil
}

func (r *Reporter) invoiceWorkbook(invoiceCSV []byte) ([]byte, error) {
	reader := csv.NewReader(bytes.NewReader(invoiceCSV))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse invoice ledger: %w", err)
	}
	return renderWorkbook(rows)
}

func reportBody(date string, hasInvoices, hasLogs bool) string {
	if !hasInvoices && !hasLogs {
		return fmt.Sprintf("No invoice processing reports are available for %s.", date)
	}
	var available []string
	if hasInvoices {
		available = append(available, "invoice report")
	}
	if hasLogs {
		available = append(available, "log report")
	}
	return fmt.Sprintf("Please find attached the available %s for %s.",
		strings.Join(available, " and "), date)
}
