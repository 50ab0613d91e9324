package records

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRecord marks a record missing a required top-level field.
var ErrInvalidRecord = errors.New("invalid record")

// ErrNullLineItem marks a null entry in the extracted line item list.
var ErrNullLineItem = errors.New("null line item")

// Record is one exported document with its optional extraction payload.
type Record struct {
	ID                 string         `json:"_id" validate:"required"`
	Name               string         `json:"name"`
	FilePath           string         `json:"filePath"`
	FileSize           *Long          `json:"fileSize" validate:"required"`
	FileType           string         `json:"fileType"`
	Status             string         `json:"status"`
	OrganizationID     string         `json:"organizationId" validate:"required"`
	DepartmentID       string         `json:"departmentId" validate:"required"`
	CreatedAt          *Date          `json:"createdAt" validate:"required"`
	UpdatedAt          *Date          `json:"updatedAt" validate:"required"`
	IsValidatedByHuman bool           `json:"isValidatedByHuman"`
	UploadedByID       string         `json:"uploadedById" validate:"required"`
	AssignedToID       string         `json:"assignedToId"`
	AssignedAt         *Date          `json:"assignedAt"`
	ProcessedAt        *Date          `json:"processedAt"`
	AnalyticsID        string         `json:"analyticsId"`
	ExtractedData      *ExtractedData `json:"extractedData"`
}

// ExtractedData is the output of the upstream document-understanding step.
type ExtractedData struct {
	LLMData *LLMData `json:"llmData"`
}

type LLMData struct {
	Invoice   *Section[InvoiceFields]   `json:"invoice"`
	Summary   *Section[SummaryFields]   `json:"summary"`
	Vendor    *Section[VendorFields]    `json:"vendor"`
	Customer  *Section[CustomerFields]  `json:"customer"`
	Payment   *Section[PaymentFields]   `json:"payment"`
	LineItems *Section[LineItemsFields] `json:"lineItems"`
}

type InvoiceFields struct {
	InvoiceID    *Leaf `json:"invoiceId"`
	InvoiceDate  *Leaf `json:"invoiceDate"`
	DeliveryDate *Leaf `json:"deliveryDate"`
}

type SummaryFields struct {
	SubTotal       *Leaf `json:"subTotal"`
	TotalTax       *Leaf `json:"totalTax"`
	InvoiceTotal   *Leaf `json:"invoiceTotal"`
	CurrencySymbol *Leaf `json:"currencySymbol"`
	DocumentType   *Leaf `json:"documentType"`
}

type VendorFields struct {
	VendorName        *Leaf `json:"vendorName"`
	VendorPartyNumber *Leaf `json:"vendorPartyNumber"`
	VendorAddress     *Leaf `json:"vendorAddress"`
	VendorTaxID       *Leaf `json:"vendorTaxId"`
}

type CustomerFields struct {
	CustomerName    *Leaf `json:"customerName"`
	CustomerAddress *Leaf `json:"customerAddress"`
}

type PaymentFields struct {
	DueDate            *Leaf `json:"dueDate"`
	PaymentTerms       *Leaf `json:"paymentTerms"`
	BankAccountNumber  *Leaf `json:"bankAccountNumber"`
	BIC                *Leaf `json:"BIC"`
	AccountName        *Leaf `json:"accountName"`
	NetDays            *Leaf `json:"netDays"`
	DiscountPercentage *Leaf `json:"discountPercentage"`
	DiscountDays       *Leaf `json:"discountDays"`
	DiscountDueDate    *Leaf `json:"discountDueDate"`
	DiscountedTotal    *Leaf `json:"discountedTotal"`
}

type LineItemsFields struct {
	Items *Section[[]*LineItemFields] `json:"items"`
}

type LineItemFields struct {
	SrNo        *Leaf `json:"srNo"`
	Description *Leaf `json:"description"`
	Quantity    *Leaf `json:"quantity"`
	UnitPrice   *Leaf `json:"unitPrice"`
	TotalPrice  *Leaf `json:"totalPrice"`
}

// Ref carries the identifiers of a record. It decodes leniently so parent
// sets can be collected before any record is fully decoded.
type Ref struct {
	ID             string `json:"_id"`
	OrganizationID string `json:"organizationId"`
	DepartmentID   string `json:"departmentId"`
	UploadedByID   string `json:"uploadedById"`
	AssignedToID   string `json:"assignedToId"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode parses and validates one raw record.
func Decode(raw json.RawMessage) (Record, error) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	if err := validate.Struct(rec); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return rec, nil
}

// DecodeRef extracts identifiers, ignoring the rest of the record.
func DecodeRef(raw json.RawMessage) (Ref, error) {
	var ref Ref
	if err := json.Unmarshal(raw, &ref); err != nil {
		return Ref{}, err
	}
	return ref, nil
}
