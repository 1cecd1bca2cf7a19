// Package ledger keeps the per-business-day, append-only CSV records of
// invoices and processing logs in a keyed object store.
package ledger

import (
	"time"

	"github.com/twcfin/invoice-pipeline/internal/models"
)

// Kind selects which ledger a row belongs to.
type Kind string

const (
	KindInvoices Kind = "invoices"
	KindLogs     Kind = "logs"
)

// Fixed header rows. They never change: a reader of last year's ledger must
// see the same columns as today's.
var (
	invoiceHeader = []string{"ReceiptDate", "ReceiptTime", "InvoiceNbr", "VendorName", "Amount", "AcctAssigned"}
	logHeader     = []string{"Timestamp", "MessageId", "InvoiceNbr", "Status", "ErrorReason", "LLMConfidence"}
)

// Key returns the object key of the ledger file for the given business day
// and kind, e.g. "2024-01-15_invoices.csv".
func Key(day time.Time, kind Kind) string {
	return day.Format("2006-01-02") + "_" + string(kind) + ".csv"
}

func header(kind Kind) []string {
	if kind == KindLogs {
		return logHeader
	}
	return invoiceHeader
}

func invoiceRow(rec models.InvoiceRecord) []string {
	return []string{
		rec.ReceivedAt.Format("2006-01-02"),
		rec.ReceivedAt.Format("15:04:05"),
		rec.InvoiceNumber,
		rec.VendorName,
		rec.Amount,
		rec.Accountant,
	}
}

func logRow(rec models.LogRecord) []string {
	return []string{
		rec.Timestamp.Format(time.RFC3339),
		rec.MessageID,
		rec.InvoiceNumber,
		string(rec.Status),
		rec.ErrorReason,
		rec.Confidence,
	}
}
