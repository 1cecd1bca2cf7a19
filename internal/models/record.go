package models

import "time"

// InvoiceRecord is one accepted invoice, immutable once appended to a ledger.
// Amount keeps the value exactly as detected by the analysis service; no
// currency normalization happens at this layer.
type InvoiceRecord struct {
	InvoiceNumber string
	VendorName    string
	Amount        string
	ReceivedAt    time.Time
	Accountant    string
}

// DefaultAmount is used when no total was discoverable in the document.
const DefaultAmount = "0.0"

// LogStatus classifies the outcome of one processing job.
type LogStatus string

const (
	LogStatusSuccess LogStatus = "Success"
	LogStatusError   LogStatus = "Error"
	LogStatusIgnore  LogStatus = "Ignore"
)

// LogRecord is the audit entry produced for every job, success or failure.
type LogRecord struct {
	Timestamp     time.Time
	MessageID     string
	InvoiceNumber string
	Status        LogStatus
	ErrorReason   string
	Confidence    string
}
