package models

// RecordType identifies one of the upstream collections a report row can come from
type RecordType string

const (
	RecordTypeExpense RecordType = "expenses"
	RecordTypeBill    RecordType = "bills"
	RecordTypeInvoice RecordType = "invoices"
)

// Collection returns the list endpoint name, e.g. "expenses"
func (t RecordType) Collection() string {
	return string(t)
}

// Singular returns the JSON envelope key of the detail endpoint, e.g. "expense"
func (t RecordType) Singular() string {
	switch t {
	case RecordTypeExpense:
		return "expense"
	case RecordTypeBill:
		return "bill"
	case RecordTypeInvoice:
		return "invoice"
	}
	return string(t)
}

// Label returns the human readable record type used in the report
func (t RecordType) Label() string {
	switch t {
	case RecordTypeExpense:
		return "Expense"
	case RecordTypeBill:
		return "Bill"
	case RecordTypeInvoice:
		return "Invoice"
	}
	return string(t)
}

// IsValid returns true for the three supported collections
func (t RecordType) IsValid() bool {
	switch t {
	case RecordTypeExpense, RecordTypeBill, RecordTypeInvoice:
		return true
	}
	return false
}
