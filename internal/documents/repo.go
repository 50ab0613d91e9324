package documents

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Writer persists the entities produced by ingestion.
type Writer interface {
	// Reset deletes every row, children before parents.
	Reset(ctx context.Context) error
	CreateOrganization(ctx context.Context, org Organization) error
	CreateDepartment(ctx context.Context, dept Department) error
	CreateUser(ctx context.Context, user User) error
	CreateDocument(ctx context.Context, doc Document) error
	CreateInvoice(ctx context.Context, inv Invoice) error
	CreateVendor(ctx context.Context, vendor Vendor) error
	CreateCustomer(ctx context.Context, customer Customer) error
	CreatePayment(ctx context.Context, payment Payment) error
	CreateLineItem(ctx context.Context, item LineItem) error
}

// Reader exposes the read-only projections the dashboard aggregates over.
type Reader interface {
	CountInvoices(ctx context.Context) (int, error)
	CountDocuments(ctx context.Context) (int, error)
	// DatedInvoiceTotals returns invoices with a non-null date in [from, to),
	// oldest first. A zero bound leaves that side open.
	DatedInvoiceTotals(ctx context.Context, from, to time.Time) ([]DatedAmount, error)
	// VendorInvoiceTotals returns one row per vendor with its document's invoice total.
	VendorInvoiceTotals(ctx context.Context) ([]VendorAmount, error)
	LineItemTotals(ctx context.Context) ([]CategoryAmount, error)
	// PaymentDueTotals returns payments with a non-null due date and their document's invoice total.
	PaymentDueTotals(ctx context.Context) ([]DueAmount, error)
	ListInvoices(ctx context.Context, q InvoiceQuery) ([]InvoiceListing, error)
	CountListedInvoices(ctx context.Context, q InvoiceQuery) (int, error)
}

// Repo combines read and write access.
type Repo interface {
	Writer
	Reader
}

type DatedAmount struct {
	Date  time.Time
	Total decimal.NullDecimal
}

type VendorAmount struct {
	VendorName   *string
	InvoiceTotal decimal.NullDecimal
}

type CategoryAmount struct {
	Category   *string
	TotalPrice decimal.NullDecimal
}

type DueAmount struct {
	DueDate      time.Time
	InvoiceTotal decimal.NullDecimal
}

// InvoiceListing is an invoice joined with its document status and vendor name.
type InvoiceListing struct {
	ID           string
	InvoiceID    *string
	InvoiceDate  *time.Time
	InvoiceTotal decimal.NullDecimal
	VendorName   *string
	Status       string
	DocumentID   string
}

// SortField names a sortable invoice column.
type SortField string

const (
	SortInvoiceDate  SortField = "invoiceDate"
	SortInvoiceID    SortField = "invoiceId"
	SortInvoiceTotal SortField = "invoiceTotal"
	SortSubTotal     SortField = "subTotal"
	SortTotalTax     SortField = "totalTax"
	SortDeliveryDate SortField = "deliveryDate"
)

var sortColumns = map[SortField]string{
	SortInvoiceDate:  "i.invoice_date",
	SortInvoiceID:    "i.invoice_id",
	SortInvoiceTotal: "i.invoice_total",
	SortSubTotal:     "i.sub_total",
	SortTotalTax:     "i.total_tax",
	SortDeliveryDate: "i.delivery_date",
}

// Valid reports whether the field can be sorted on.
func (f SortField) Valid() bool {
	_, ok := sortColumns[f]
	return ok
}

// InvoiceQuery filters, sorts and pages the invoice listing.
// Limit 0 means no limit. Null sort keys are ordered last in both directions.
type InvoiceQuery struct {
	Search string
	Status string
	SortBy SortField
	Desc   bool
	Limit  int
	Offset int
}
