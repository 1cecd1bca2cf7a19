package extract

// Result mirrors the JSON shape of an expense-analysis output: a list of
// expense documents, each with typed summary fields and raw text blocks.
type Result struct {
	ExpenseDocuments []ExpenseDocument `json:"ExpenseDocuments"`
}

// ExpenseDocument is one detected document inside an analysis result.
type ExpenseDocument struct {
	SummaryFields []SummaryField `json:"SummaryFields"`
	Blocks        []Block        `json:"Blocks"`
}

// SummaryField is one labeled field with a semantic type and detected value.
type SummaryField struct {
	Type           DetectedText `json:"Type"`
	LabelDetection DetectedText `json:"LabelDetection"`
	ValueDetection DetectedText `json:"ValueDetection"`
}

// DetectedText carries one piece of recognized text.
type DetectedText struct {
	Text string `json:"Text"`
}

// Block is one raw text block of the scanned page.
type Block struct {
	BlockType string `json:"BlockType"`
	Text      string `json:"Text"`
}

// Semantic field types the extractor understands.
const (
	fieldInvoiceReceiptID = "INVOICE_RECEIPT_ID"
	fieldVendorName       = "VENDOR_NAME"
	fieldTotal            = "TOTAL"
)
