package analytics

import "time"

// Stats is the dashboard overview card set.
type Stats struct {
	TotalSpend                float64 `json:"totalSpend"`
	TotalSpendChange          float64 `json:"totalSpendChange"`
	TotalInvoices             int     `json:"totalInvoices"`
	TotalInvoicesChange       float64 `json:"totalInvoicesChange"`
	DocumentsUploaded         int     `json:"documentsUploaded"`
	DocumentsUploadedChange   float64 `json:"documentsUploadedChange"`
	AverageInvoiceValue       float64 `json:"averageInvoiceValue"`
	AverageInvoiceValueChange float64 `json:"averageInvoiceValueChange"`
}

type MonthlyTrend struct {
	Month        string  `json:"month"`
	InvoiceCount int     `json:"invoiceCount"`
	TotalSpend   float64 `json:"totalSpend"`
}

type VendorSpend struct {
	VendorName string  `json:"vendorName"`
	TotalSpend float64 `json:"totalSpend"`
}

type CategorySpend struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

type OutflowBucket struct {
	Range  string  `json:"range"`
	Amount float64 `json:"amount"`
}

// InvoiceRow is one entry of the invoice listing.
type InvoiceRow struct {
	ID           string     `json:"id"`
	InvoiceID    *string    `json:"invoiceId"`
	InvoiceDate  *time.Time `json:"invoiceDate"`
	VendorName   string     `json:"vendorName"`
	InvoiceTotal float64    `json:"invoiceTotal"`
	Status       string     `json:"status"`
	DocumentID   string     `json:"documentId"`
}

type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type InvoicePage struct {
	Invoices   []InvoiceRow `json:"invoices"`
	Pagination Pagination   `json:"pagination"`
}
