package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twcfin/invoice-pipeline/internal/models"
	"go.uber.org/zap"
)

func summaryField(fieldType, label, value string) SummaryField {
	return SummaryField{
		Type:           DetectedText{Text: fieldType},
		LabelDetection: DetectedText{Text: label},
		ValueDetection: DetectedText{Text: value},
	}
}

func validDocument() ExpenseDocument {
	return ExpenseDocument{
		SummaryFields: []SummaryField{
			summaryField(fieldInvoiceReceiptID, "Invoice Number", "INV-1"),
			summaryField(fieldVendorName, "Vendor", "Acme"),
			summaryField(fieldTotal, "Total", "125.50"),
		},
	}
}

func TestExtract_ValidInvoice(t *testing.T) {
	e := NewExtractor(zap.NewNop())

	inv, err := e.Extract(&Result{ExpenseDocuments: []ExpenseDocument{validDocument()}})
	require.NoError(t, err)

	assert.Equal(t, "INV-1", inv.InvoiceNumber)
	assert.Equal(t, "Acme", inv.VendorName)
	assert.Equal(t, "125.50", inv.Amount)
}

func TestExtract_StatementDetected(t *testing.T) {
	e := NewExtractor(zap.NewNop())

	result := &Result{ExpenseDocuments: []ExpenseDocument{{
		SummaryFields: validDocument().SummaryFields,
		Blocks: []Block{
			{BlockType: "LINE", Text: "Account Statement as of 2024-01-01"},
		},
	}}}

	_, err := e.Extract(result)
	assert.ErrorIs(t, err, ErrStatementDocument)
}

func TestExtract_QuoteOrEstimateLabel(t *testing.T) {
	e := NewExtractor(zap.NewNop())

	for _, label := range []string{"Quote Number", "ESTIMATE #", "quote"} {
		t.Run(label, func(t *testing.T) {
			result := &Result{ExpenseDocuments: []ExpenseDocument{{
				SummaryFields: []SummaryField{
					summaryField(fieldInvoiceReceiptID, label, "Q-9"),
				},
			}}}

			_, err := e.Extract(result)
			var extractionErr *ExtractionError
			require.ErrorAs(t, err, &extractionErr)
			assert.Equal(t, "quote/estimate detected", extractionErr.Reason)
		})
	}
}

func TestExtract_EmptyInvoiceNumber(t *testing.T) {
	e := NewExtractor(zap.NewNop())

	result := &Result{ExpenseDocuments: []ExpenseDocument{{
		SummaryFields: []SummaryField{
			summaryField(fieldInvoiceReceiptID, "Invoice Number", ""),
		},
	}}}

	_, err := e.Extract(result)
	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, "no invoice number found", extractionErr.Reason)
}

func TestExtract_EmptyVendorName(t *testing.T) {
	e := NewExtractor(zap.NewNop())

	result := &Result{ExpenseDocuments: []ExpenseDocument{{
		SummaryFields: []SummaryField{
			summaryField(fieldInvoiceReceiptID, "Invoice Number", "INV-1"),
			summaryField(fieldVendorName, "Vendor", ""),
		},
	}}}

	_, err := e.Extract(result)
	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, "no vendor name found", extractionErr.Reason)
}

func TestExtract_MissingFieldsAcrossAllDocuments(t *testing.T) {
	e := NewExtractor(zap.NewNop())

	_, err := e.Extract(&Result{ExpenseDocuments: []ExpenseDocument{{}}})
	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, "no invoice number found", extractionErr.Reason)
}

func TestExtract_FirstMatchWins(t *testing.T) {
	e := NewExtractor(zap.NewNop())

	result := &Result{ExpenseDocuments: []ExpenseDocument{{
		SummaryFields: []SummaryField{
			summaryField(fieldInvoiceReceiptID, "Invoice Number", "INV-1"),
			summaryField(fieldInvoiceReceiptID, "Invoice Number", "INV-2"),
			summaryField(fieldVendorName, "Vendor", "Acme"),
			summaryField(fieldVendorName, "Vendor", "Other Corp"),
			summaryField(fieldTotal, "Total", "10.00"),
			summaryField(fieldTotal, "Total", "99.99"),
		},
	}}}

	inv, err := e.Extract(result)
	require.NoError(t, err)
	assert.Equal(t, "INV-1", inv.InvoiceNumber)
	assert.Equal(t, "Acme", inv.VendorName)
	assert.Equal(t, "10.00", inv.Amount)
}

func TestExtract_AccumulatesAcrossDocuments(t *testing.T) {
	e := NewExtractor(zap.NewNop())

	result := &Result{ExpenseDocuments: []ExpenseDocument{
		{SummaryFields: []SummaryField{
			summaryField(fieldInvoiceReceiptID, "Invoice Number", "INV-7"),
		}},
		{SummaryFields: []SummaryField{
			summaryField(fieldVendorName, "Vendor", "Acme"),
			summaryField(fieldTotal, "Total", "42.00"),
		}},
	}}

	inv, err := e.Extract(result)
	require.NoError(t, err)
	assert.Equal(t, "INV-7", inv.InvoiceNumber)
	assert.Equal(t, "Acme", inv.VendorName)
	assert.Equal(t, "42.00", inv.Amount)
}

func TestExtract_MissingTotalDefaultsAmount(t *testing.T) {
	e := NewExtractor(zap.NewNop())

	result := &Result{ExpenseDocuments: []ExpenseDocument{{
		SummaryFields: []SummaryField{
			summaryField(fieldInvoiceReceiptID, "Invoice Number", "INV-1"),
			summaryField(fieldVendorName, "Vendor", "Acme"),
		},
	}}}

	inv, err := e.Extract(result)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAmount, inv.Amount)
}

func TestExtract_WorkquestOverride(t *testing.T) {
	e := NewExtractor(zap.NewNop())

	result := &Result{ExpenseDocuments: []ExpenseDocument{
		{
			SummaryFields: []SummaryField{
				summaryField(fieldInvoiceReceiptID, "Invoice Number", "12345"),
				summaryField(fieldVendorName, "Vendor", "Workquest"),
			},
			Blocks: []Block{
				{BlockType: "LINE", Text: "Remit to Workquest"},
				{BlockType: "LINE", Text: "TINV-00123"},
			},
		},
		// Never reached: the override short-circuits remaining documents.
		{SummaryFields: []SummaryField{
			summaryField(fieldTotal, "Total", "500.00"),
		}},
	}}

	inv, err := e.Extract(result)
	require.NoError(t, err)
	assert.Equal(t, "TINV-00123", inv.InvoiceNumber)
	assert.Equal(t, "Workquest", inv.VendorName)
	assert.Equal(t, models.DefaultAmount, inv.Amount)
}

func TestExtract_WorkquestWithoutTINVKeepsDetectedNumber(t *testing.T) {
	e := NewExtractor(zap.NewNop())

	result := &Result{ExpenseDocuments: []ExpenseDocument{{
		SummaryFields: []SummaryField{
			summaryField(fieldInvoiceReceiptID, "Invoice Number", "12345"),
			summaryField(fieldVendorName, "Vendor", "WORKQUEST"),
		},
		Blocks: []Block{{BlockType: "LINE", Text: "no token here"}},
	}}}

	inv, err := e.Extract(result)
	require.NoError(t, err)
	assert.Equal(t, "12345", inv.InvoiceNumber)
}

func TestRegisterOverride_CustomVendor(t *testing.T) {
	e := NewExtractor(zap.NewNop())
	e.RegisterOverride("Acme", func(inv *models.InvoiceRecord, _ []Block) bool {
		inv.InvoiceNumber = "ACME-" + inv.InvoiceNumber
		return true
	})

	inv, err := e.Extract(&Result{ExpenseDocuments: []ExpenseDocument{validDocument()}})
	require.NoError(t, err)
	assert.Equal(t, "ACME-INV-1", inv.InvoiceNumber)
}
