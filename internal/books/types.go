package books

import (
	"strings"

	"github.com/garyjia/books-report/internal/models"
)

// PageContext is the pagination block of every list response
type PageContext struct {
	Page        int  `json:"page"`
	PerPage     int  `json:"per_page"`
	HasMorePage bool `json:"has_more_page"`
}

// CustomField is a label/value pair attached to a project
type CustomField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Project is the cost center a report is built for
type Project struct {
	ProjectID    string        `json:"project_id"`
	ProjectName  string        `json:"project_name"`
	Description  string        `json:"description"`
	CustomerName string        `json:"customer_name"`
	StartDate    string        `json:"start_date"`
	EndDate      string        `json:"end_date"`
	CustomFields []CustomField `json:"custom_fields"`
}

// CustomField returns the value of the custom field with the given label,
// compared case-insensitively
func (p *Project) CustomField(label string) string {
	for _, f := range p.CustomFields {
		if strings.EqualFold(f.Label, label) {
			return f.Value
		}
	}
	return ""
}

// Contact is a vendor or customer. Bills reference vendors by contact id.
type Contact struct {
	ContactID   string `json:"contact_id"`
	ContactName string `json:"contact_name"`
	CompanyName string `json:"company_name"`
}

// LineItem is one entry of a record's line_items array. Expenses carry the
// value in amount, bills and invoices in item_total.
type LineItem struct {
	LineItemID  string  `json:"line_item_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	AccountName string  `json:"account_name"`
	Amount      float64 `json:"amount"`
	ItemTotal   float64 `json:"item_total"`
	ProjectID   string  `json:"project_id"`
}

// RawAmount returns the line value in the record's own currency
func (li LineItem) RawAmount(t models.RecordType) float64 {
	if t == models.RecordTypeExpense {
		return li.Amount
	}
	return li.ItemTotal
}

// Label returns the item description, preferring the item name for invoices
func (li LineItem) Label(t models.RecordType) string {
	if t == models.RecordTypeInvoice && li.Name != "" {
		return li.Name
	}
	return li.Description
}

// rawRecord is the union of the expense, bill and invoice JSON shapes
type rawRecord struct {
	ExpenseID       string     `json:"expense_id"`
	BillID          string     `json:"bill_id"`
	InvoiceID       string     `json:"invoice_id"`
	BillNumber      string     `json:"bill_number"`
	InvoiceNumber   string     `json:"invoice_number"`
	ReferenceNumber string     `json:"reference_number"`
	Date            string     `json:"date"`
	Status          string     `json:"status"`
	CurrencyCode    string     `json:"currency_code"`
	ExchangeRate    float64    `json:"exchange_rate"`
	HasAttachment   bool       `json:"has_attachment"`
	ProjectID       string     `json:"project_id"`
	VendorID        string     `json:"vendor_id"`
	VendorName      string     `json:"vendor_name"`
	Total           float64    `json:"total"`
	LineItems       []LineItem `json:"line_items"`
}

// Record is an expense, bill or invoice normalised to one shape
type Record struct {
	Type          models.RecordType
	ID            string
	Number        string // reference number for expenses, bill/invoice number otherwise
	Date          string
	Status        string
	CurrencyCode  string
	ExchangeRate  float64
	HasAttachment bool
	ProjectID     string
	VendorID      string
	VendorName    string
	Total         float64
	LineItems     []LineItem
}

func (r rawRecord) normalize(t models.RecordType) Record {
	rec := Record{
		Type:          t,
		Date:          r.Date,
		Status:        r.Status,
		CurrencyCode:  r.CurrencyCode,
		ExchangeRate:  r.ExchangeRate,
		HasAttachment: r.HasAttachment,
		ProjectID:     r.ProjectID,
		VendorID:      r.VendorID,
		VendorName:    r.VendorName,
		Total:         r.Total,
		LineItems:     r.LineItems,
	}

	switch t {
	case models.RecordTypeExpense:
		rec.ID = r.ExpenseID
		rec.Number = r.ReferenceNumber
	case models.RecordTypeBill:
		rec.ID = r.BillID
		rec.Number = r.BillNumber
	case models.RecordTypeInvoice:
		rec.ID = r.InvoiceID
		rec.Number = r.InvoiceNumber
	}
	if rec.Number == "" {
		rec.Number = r.ReferenceNumber
	}

	return rec
}
