package documents

import (
	"time"

	"github.com/shopspring/decimal"
)

// Line item categories. The set is closed; Operations is the fallback.
const (
	CategoryMarketing  = "Marketing"
	CategoryFacilities = "Facilities"
	CategoryOperations = "Operations"
)

// Defaults applied to invoices when the extraction carries no value.
const (
	DefaultCurrencySymbol = "EUR"
	DefaultDocumentType   = "Invoice"
)

// Organization is the root of tenant scoping.
type Organization struct {
	ID   string
	Name string
}

// Department belongs to exactly one organization.
type Department struct {
	ID             string
	Name           string
	OrganizationID string
}

// User uploads documents or is assigned to them.
type User struct {
	ID             string
	Email          string
	Name           string
	OrganizationID string
}

// Document represents one uploaded and processed file.
type Document struct {
	ID                 string
	Name               string
	FilePath           string
	FileSize           int64
	FileType           string
	Status             string
	OrganizationID     string
	DepartmentID       string
	UploadedByID       string
	AssignedToID       *string
	AssignedAt         *time.Time
	IsValidatedByHuman bool
	ProcessedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	AnalyticsID        *string
}

// Invoice holds the invoice header and summary of a document.
type Invoice struct {
	ID             string
	DocumentID     string
	InvoiceID      *string
	InvoiceDate    *time.Time
	DeliveryDate   *time.Time
	SubTotal       decimal.NullDecimal
	TotalTax       decimal.NullDecimal
	InvoiceTotal   decimal.NullDecimal
	CurrencySymbol string
	DocumentType   string
}

type Vendor struct {
	ID                string
	DocumentID        string
	VendorName        *string
	VendorPartyNumber *string
	VendorAddress     *string
	VendorTaxID       *string
}

type Customer struct {
	ID              string
	DocumentID      string
	CustomerName    *string
	CustomerAddress *string
}

// Payment holds due date, bank and discount terms of a document.
type Payment struct {
	ID                 string
	DocumentID         string
	DueDate            *time.Time
	PaymentTerms       *string
	BankAccountNumber  *string
	BIC                *string
	AccountName        *string
	NetDays            *int
	DiscountPercentage decimal.NullDecimal
	DiscountDays       *int
	DiscountDueDate    *time.Time
	DiscountedTotal    decimal.NullDecimal
}

type LineItem struct {
	ID          string
	DocumentID  string
	SrNo        *int
	Description string
	Quantity    decimal.NullDecimal
	UnitPrice   decimal.NullDecimal
	TotalPrice  decimal.NullDecimal
	Category    string
}
