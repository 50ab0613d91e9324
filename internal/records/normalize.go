package records

import (
	"fmt"

	"invoice-dashboard/internal/documents"
)

// Normalized is the relational projection of one record. Nil sections were
// absent from the extraction payload. Child rows carry DocumentID but no ID;
// the caller assigns row identifiers.
type Normalized struct {
	Document  documents.Document
	Invoice   *documents.Invoice
	Vendor    *documents.Vendor
	Customer  *documents.Customer
	Payment   *documents.Payment
	LineItems []documents.LineItem
}

// Normalize maps a decoded record onto the fixed schema. Missing optional
// data never fails; malformed values do.
func Normalize(rec Record) (Normalized, error) {
	doc, err := normalizeDocument(rec)
	if err != nil {
		return Normalized{}, err
	}
	out := Normalized{Document: doc}

	if rec.ExtractedData == nil || rec.ExtractedData.LLMData == nil {
		return out, nil
	}
	llm := rec.ExtractedData.LLMData

	if llm.Invoice != nil {
		inv, err := normalizeInvoice(doc.ID, llm.Invoice.fields(), llm.Summary.fields())
		if err != nil {
			return Normalized{}, fmt.Errorf("invoice: %w", err)
		}
		out.Invoice = &inv
	}
	if llm.Vendor != nil {
		vendor, err := normalizeVendor(doc.ID, llm.Vendor.fields())
		if err != nil {
			return Normalized{}, fmt.Errorf("vendor: %w", err)
		}
		out.Vendor = &vendor
	}
	if llm.Customer != nil {
		customer, err := normalizeCustomer(doc.ID, llm.Customer.fields())
		if err != nil {
			return Normalized{}, fmt.Errorf("customer: %w", err)
		}
		out.Customer = &customer
	}
	if llm.Payment != nil {
		payment, err := normalizePayment(doc.ID, llm.Payment.fields())
		if err != nil {
			return Normalized{}, fmt.Errorf("payment: %w", err)
		}
		out.Payment = &payment
	}
	if llm.LineItems != nil {
		items := llm.LineItems.fields().Items.fields()
		for i, item := range items {
			if item == nil {
				return Normalized{}, fmt.Errorf("lineItems[%d]: %w", i, ErrNullLineItem)
			}
			li, err := normalizeLineItem(doc.ID, *item)
			if err != nil {
				return Normalized{}, fmt.Errorf("lineItems[%d]: %w", i, err)
			}
			out.LineItems = append(out.LineItems, li)
		}
	}
	return out, nil
}

func normalizeDocument(rec Record) (documents.Document, error) {
	if rec.FileSize == nil || rec.CreatedAt == nil || rec.UpdatedAt == nil {
		return documents.Document{}, fmt.Errorf("%w: missing size or timestamps", ErrInvalidRecord)
	}
	size, err := rec.FileSize.Int64()
	if err != nil {
		return documents.Document{}, fmt.Errorf("fileSize: %w", err)
	}
	createdAt, err := rec.CreatedAt.Time()
	if err != nil {
		return documents.Document{}, fmt.Errorf("createdAt: %w", err)
	}
	updatedAt, err := rec.UpdatedAt.Time()
	if err != nil {
		return documents.Document{}, fmt.Errorf("updatedAt: %w", err)
	}
	assignedAt, err := optionalTime(rec.AssignedAt)
	if err != nil {
		return documents.Document{}, fmt.Errorf("assignedAt: %w", err)
	}
	processedAt, err := optionalTime(rec.ProcessedAt)
	if err != nil {
		return documents.Document{}, fmt.Errorf("processedAt: %w", err)
	}

	return documents.Document{
		ID:                 rec.ID,
		Name:               rec.Name,
		FilePath:           rec.FilePath,
		FileSize:           size,
		FileType:           rec.FileType,
		Status:             rec.Status,
		OrganizationID:     rec.OrganizationID,
		DepartmentID:       rec.DepartmentID,
		UploadedByID:       rec.UploadedByID,
		AssignedToID:       nonEmpty(rec.AssignedToID),
		AssignedAt:         assignedAt,
		IsValidatedByHuman: rec.IsValidatedByHuman,
		ProcessedAt:        processedAt,
		CreatedAt:          createdAt,
		UpdatedAt:          updatedAt,
		AnalyticsID:        nonEmpty(rec.AnalyticsID),
	}, nil
}

func normalizeInvoice(documentID string, f InvoiceFields, s SummaryFields) (documents.Invoice, error) {
	inv := documents.Invoice{
		DocumentID:     documentID,
		CurrencySymbol: documents.DefaultCurrencySymbol,
		DocumentType:   documents.DefaultDocumentType,
	}
	var err error
	if inv.InvoiceID, err = f.InvoiceID.Text(); err != nil {
		return inv, fmt.Errorf("invoiceId: %w", err)
	}
	if inv.InvoiceDate, err = f.InvoiceDate.Time(); err != nil {
		return inv, fmt.Errorf("invoiceDate: %w", err)
	}
	if inv.DeliveryDate, err = f.DeliveryDate.Time(); err != nil {
		return inv, fmt.Errorf("deliveryDate: %w", err)
	}
	if inv.SubTotal, err = s.SubTotal.Decimal(); err != nil {
		return inv, fmt.Errorf("subTotal: %w", err)
	}
	if inv.TotalTax, err = s.TotalTax.Decimal(); err != nil {
		return inv, fmt.Errorf("totalTax: %w", err)
	}
	if inv.InvoiceTotal, err = s.InvoiceTotal.Decimal(); err != nil {
		return inv, fmt.Errorf("invoiceTotal: %w", err)
	}
	currency, err := s.CurrencySymbol.Text()
	if err != nil {
		return inv, fmt.Errorf("currencySymbol: %w", err)
	}
	if currency != nil {
		inv.CurrencySymbol = *currency
	}
	docType, err := s.DocumentType.Text()
	if err != nil {
		return inv, fmt.Errorf("documentType: %w", err)
	}
	if docType != nil {
		inv.DocumentType = *docType
	}
	return inv, nil
}

func normalizeVendor(documentID string, f VendorFields) (documents.Vendor, error) {
	v := documents.Vendor{DocumentID: documentID}
	var err error
	if v.VendorName, err = f.VendorName.Text(); err != nil {
		return v, fmt.Errorf("vendorName: %w", err)
	}
	if v.VendorPartyNumber, err = f.VendorPartyNumber.Text(); err != nil {
		return v, fmt.Errorf("vendorPartyNumber: %w", err)
	}
	if v.VendorAddress, err = f.VendorAddress.Text(); err != nil {
		return v, fmt.Errorf("vendorAddress: %w", err)
	}
	if v.VendorTaxID, err = f.VendorTaxID.Text(); err != nil {
		return v, fmt.Errorf("vendorTaxId: %w", err)
	}
	return v, nil
}

func normalizeCustomer(documentID string, f CustomerFields) (documents.Customer, error) {
	c := documents.Customer{DocumentID: documentID}
	var err error
	if c.CustomerName, err = f.CustomerName.Text(); err != nil {
		return c, fmt.Errorf("customerName: %w", err)
	}
	if c.CustomerAddress, err = f.CustomerAddress.Text(); err != nil {
		return c, fmt.Errorf("customerAddress: %w", err)
	}
	return c, nil
}

func normalizePayment(documentID string, f PaymentFields) (documents.Payment, error) {
	p := documents.Payment{DocumentID: documentID}
	var err error
	if p.DueDate, err = f.DueDate.Time(); err != nil {
		return p, fmt.Errorf("dueDate: %w", err)
	}
	if p.PaymentTerms, err = f.PaymentTerms.Text(); err != nil {
		return p, fmt.Errorf("paymentTerms: %w", err)
	}
	if p.BankAccountNumber, err = f.BankAccountNumber.Text(); err != nil {
		return p, fmt.Errorf("bankAccountNumber: %w", err)
	}
	if p.BIC, err = f.BIC.Text(); err != nil {
		return p, fmt.Errorf("BIC: %w", err)
	}
	if p.AccountName, err = f.AccountName.Text(); err != nil {
		return p, fmt.Errorf("accountName: %w", err)
	}
	if p.NetDays, err = f.NetDays.Int(); err != nil {
		return p, fmt.Errorf("netDays: %w", err)
	}
	if p.DiscountPercentage, err = f.DiscountPercentage.Decimal(); err != nil {
		return p, fmt.Errorf("discountPercentage: %w", err)
	}
	if p.DiscountDays, err = f.DiscountDays.Int(); err != nil {
		return p, fmt.Errorf("discountDays: %w", err)
	}
	if p.DiscountDueDate, err = f.DiscountDueDate.Time(); err != nil {
		return p, fmt.Errorf("discountDueDate: %w", err)
	}
	if p.DiscountedTotal, err = f.DiscountedTotal.Decimal(); err != nil {
		return p, fmt.Errorf("discountedTotal: %w", err)
	}
	return p, nil
}

func normalizeLineItem(documentID string, f LineItemFields) (documents.LineItem, error) {
	li := documents.LineItem{DocumentID: documentID}
	description, err := f.Description.Text()
	if err != nil {
		return li, fmt.Errorf("description: %w", err)
	}
	if description != nil {
		li.Description = *description
	}
	li.Category = Categorize(li.Description)
	if li.SrNo, err = f.SrNo.Int(); err != nil {
		return li, fmt.Errorf("srNo: %w", err)
	}
	if li.Quantity, err = f.Quantity.Decimal(); err != nil {
		return li, fmt.Errorf("quantity: %w", err)
	}
	if li.UnitPrice, err = f.UnitPrice.Decimal(); err != nil {
		return li, fmt.Errorf("unitPrice: %w", err)
	}
	if li.TotalPrice, err = f.TotalPrice.Decimal(); err != nil {
		return li, fmt.Errorf("totalPrice: %w", err)
	}
	return li, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
