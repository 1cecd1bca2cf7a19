package extract

import "errors"

// ErrStatementDocument signals a deliberate skip: the document is an account
// statement, not an invoice. The pipeline logs it with status Ignore instead
// of Error.
var ErrStatementDocument = errors.New("Statement document detected")

// ExtractionError is a hard extraction failure; its reason string ends up in
// the log row verbatim.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return e.Reason
}

// Extraction failure reasons.
const (
	reasonQuoteEstimate   = "quote/estimate detected"
	reasonNoInvoiceNumber = "no invoice number found"
	reasonNoVendorName    = "no vendor name found"
)
