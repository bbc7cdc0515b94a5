package models

// CurrencyUSD is the only foreign currency that gets its own report columns
const CurrencyUSD = "USD"

// AttachmentNotAvailable is written in place of an attachment reference
const AttachmentNotAvailable = "Not available"

// ReportRow is one line item flattened together with its parent record.
// Rows are immutable once built by the enricher.
type ReportRow struct {
	Type          RecordType
	RecordID      string
	Date          string
	Reference     string // reference, bill or invoice number
	Status        string
	Vendor        string
	LineItemID    string
	Description   string
	Category      string // account name
	CurrencyCode  string
	ExchangeRate  float64
	RawAmount     float64
	AmountINR     float64
	Notes         string
	AttachmentRef string
}

// IsUSD reports whether the USD specific columns apply to this row
func (r ReportRow) IsUSD() bool {
	return r.CurrencyCode == CurrencyUSD
}

// AmountUSD returns the raw amount for USD rows and false otherwise
func (r ReportRow) AmountUSD() (float64, bool) {
	if !r.IsUSD() {
		return 0, false
	}
	return r.RawAmount, true
}
