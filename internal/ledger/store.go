package ledger

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"github.com/twcfin/invoice-pipeline/internal/locking"
	"github.com/twcfin/invoice-pipeline/internal/models"
	"github.com/twcfin/invoice-pipeline/internal/storage"
	"go.uber.org/zap"
)

// logWriteAttempts is how often a log append is retried before the failure
// escalates. A dropped log row would leave a job invisible in the audit
// trail, so the log path tries harder than the invoice path.
const logWriteAttempts = 3

// Store appends rows to day-keyed ledger files. Every append is a
// read-modify-write against the backing object store, serialized through the
// per-key locker so concurrent writers for the same day and kind cannot lose
// each other's rows.
type Store struct {
	objects    storage.ObjectStore
	locker     locking.Locker
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewStore creates a ledger Store on top of objects, serialized by locker.
func NewStore(objects storage.ObjectStore, locker locking.Locker, logger *zap.Logger) *Store {
	return &Store{
		objects:    objects,
		locker:     locker,
		retryDelay: 200 * time.Millisecond,
		logger:     logger,
	}
}

// AppendInvoice appends one invoice row to the business day's invoice ledger.
// The store never deduplicates; appending the same record twice yields two rows.
func (s *Store) AppendInvoice(ctx context.Context, day time.Time, rec models.InvoiceRecord) error {
	return s.append(ctx, day, KindInvoices, invoiceRow(rec))
}

// AppendLog appends one log row to the business day's log ledger, retrying
// transient store failures before giving up.
func (s *Store) AppendLog(ctx context.Context, day time.Time, rec models.LogRecord) error {
	var err error
	for attempt := 1; attempt <= logWriteAttempts; attempt++ {
		if err = s.append(ctx, day, KindLogs, logRow(rec)); err == nil {
			return nil
		}
		s.logger.Warn("Log append failed, retrying",
			zap.Int("attempt", attempt),
			zap.String("message_id", rec.MessageID),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return fmt.Errorf("log append aborted: %w", ctx.Err())
		case <-time.After(s.retryDelay):
		}
	}
	return fmt.Errorf("log append failed after %d attempts: %w", logWriteAttempts, err)
}

// Read returns all rows of the day's ledger including the header row.
func (s *Store) Read(ctx context.Context, day time.Time, kind Kind) ([][]string, error) {
	content, err := s.objects.Get(ctx, Key(day, kind))
	if err != nil {
		return nil, err
	}
	return decodeRows(content)
}

func (s *Store) append(ctx context.Context, day time.Time, kind Kind, row []string) error {
	key := Key(day, kind)

	release, err := s.locker.Lock(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to lock ledger %s: %w", key, err)
	}
	defer release()

	rows, err := s.loadOrSeed(ctx, key, kind)
	if err != nil {
		return err
	}

	rows = append(rows, row)

	content, err := encodeRows(rows)
	if err != nil {
		return fmt.Errorf("failed to encode ledger %s: %w", key, err)
	}

	if err := s.objects.Put(ctx, key, content); err != nil {
		return fmt.Errorf("failed to write ledger %s: %w", key, err)
	}

	s.logger.Debug("Ledger row appended",
		zap.String("key", key),
		zap.Int("rows", len(rows)-1))

	return nil
}

// loadOrSeed reads the existing ledger rows, seeding a fresh row collection
// with the kind's header when the file does not exist yet.
func (s *Store) loadOrSeed(ctx context.Context, key string, kind Kind) ([][]string, error) {
	content, err := s.objects.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Info("Ledger file does not exist yet, seeding header",
				zap.String("key", key))
			return [][]string{header(kind)}, nil
		}
		return nil, fmt.Errorf("failed to read ledger %s: %w", key, err)
	}

	rows, err := decodeRows(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ledger %s: %w", key, err)
	}
	return rows, nil
}

func encodeRows(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRows(content []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	return r.ReadAll()
}
