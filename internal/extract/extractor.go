// Package extract turns raw document-analysis results into invoice fields,
// applying validity checks and per-vendor override heuristics.
package extract

import (
	"strings"

	"github.com/twcfin/invoice-pipeline/internal/models"
	"go.uber.org/zap"
)

// statementTokens mark a document as an account statement rather than an
// invoice. Matched case-insensitively against every raw text block.
var statementTokens = []string{
	"statement",
	"statements",
	"statement as of",
	"statement of",
}

// Override lets a vendor rewrite the extracted fields from the raw text
// blocks seen so far. Returning true short-circuits the remaining documents.
type Override func(inv *models.InvoiceRecord, blocks []Block) (stop bool)

// Extractor parses analysis results into invoice records.
type Extractor struct {
	overrides map[string]Override
	logger    *zap.Logger
}

// NewExtractor creates an Extractor with the default vendor overrides
// installed.
func NewExtractor(logger *zap.Logger) *Extractor {
	e := &Extractor{
		overrides: make(map[string]Override),
		logger:    logger,
	}
	e.RegisterOverride("workquest", workquestOverride)
	return e
}

// RegisterOverride installs an override for the given vendor name. The name
// is normalized, so lookups are case-insensitive.
func (e *Extractor) RegisterOverride(vendor string, override Override) {
	e.overrides[normalizeVendor(vendor)] = override
}

// Extract walks the expense documents in order, accumulating invoice fields
// across them. It returns ErrStatementDocument when a statement token is
// found, an *ExtractionError on invalid fields, and otherwise a record with
// at least a non-empty invoice number and vendor name.
func (e *Extractor) Extract(result *Result) (*models.InvoiceRecord, error) {
	inv := &models.InvoiceRecord{Amount: models.DefaultAmount}

	var seen []Block
	for _, doc := range result.ExpenseDocuments {
		if containsStatementToken(doc.Blocks) {
			e.logger.Info("Statement document detected, ignoring job")
			return nil, ErrStatementDocument
		}
		seen = append(seen, doc.Blocks...)

		if err := e.applySummaryFields(inv, doc.SummaryFields); err != nil {
			return nil, err
		}

		if override, ok := e.overrides[normalizeVendor(inv.VendorName)]; ok {
			if override(inv, seen) {
				e.logger.Info("Vendor override short-circuited extraction",
					zap.String("vendor", inv.VendorName),
					zap.String("invoice_number", inv.InvoiceNumber))
				break
			}
		}
	}

	if inv.InvoiceNumber == "" {
		return nil, &ExtractionError{Reason: reasonNoInvoiceNumber}
	}
	if inv.VendorName == "" {
		return nil, &ExtractionError{Reason: reasonNoVendorName}
	}

	e.logger.Info("Invoice fields extracted",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("vendor", inv.VendorName),
		zap.String("amount", inv.Amount))

	return inv, nil
}

// applySummaryFields folds one document's summary fields into the record.
// Each field type is first-match-wins across the whole result.
func (e *Extractor) applySummaryFields(inv *models.InvoiceRecord, fields []SummaryField) error {
	for _, field := range fields {
		value := field.ValueDetection.Text

		switch field.Type.Text {
		case fieldInvoiceReceiptID:
			if isQuoteOrEstimate(field.LabelDetection.Text) {
				return &ExtractionError{Reason: reasonQuoteEstimate}
			}
			if inv.InvoiceNumber != "" {
				continue
			}
			if value == "" {
				return &ExtractionError{Reason: reasonNoInvoiceNumber}
			}
			inv.InvoiceNumber = value

		case fieldVendorName:
			if inv.VendorName != "" {
				continue
			}
			if value == "" {
				return &ExtractionError{Reason: reasonNoVendorName}
			}
			inv.VendorName = value

		case fieldTotal:
			if inv.Amount == models.DefaultAmount && value != "" {
				inv.Amount = value
			}
		}
	}
	return nil
}

// workquestOverride replaces the invoice number with the first raw block
// containing a TINV token. Workquest invoices carry their real number in the
// page text, not in the detected invoice-id field.
func workquestOverride(inv *models.InvoiceRecord, blocks []Block) bool {
	for _, block := range blocks {
		if strings.Contains(block.Text, "TINV") {
			inv.InvoiceNumber = block.Text
			return true
		}
	}
	return false
}

func containsStatementToken(blocks []Block) bool {
	for _, block := range blocks {
		text := strings.ToLower(block.Text)
		for _, token := range statementTokens {
			if strings.Contains(text, token) {
				return true
			}
		}
	}
	return false
}

func isQuoteOrEstimate(label string) bool {
	label = strings.ToLower(label)
	return strings.Contains(label, "quote") || strings.Contains(label, "estimate")
}

func normalizeVendor(vendor string) string {
	return strings.ToLower(strings.TrimSpace(vendor))
}
