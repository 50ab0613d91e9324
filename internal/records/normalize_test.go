package records

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-dashboard/internal/documents"
)

const baseRecord = `{
  "_id": "doc-1",
  "name": "invoice.pdf",
  "filePath": "/uploads/invoice.pdf",
  "fileSize": {"$numberLong": "20480"},
  "fileType": "application/pdf",
  "status": "processed",
  "organizationId": "org-1",
  "departmentId": "dept-1",
  "createdAt": {"$date": "2024-01-10T09:00:00.000Z"},
  "updatedAt": {"$date": "2024-01-11T09:00:00.000Z"},
  "isValidatedByHuman": true,
  "uploadedById": "user-1"%s
}`

func decodeWith(t *testing.T, extra string) Record {
	t.Helper()
	raw := json.RawMessage([]byte(fmt.Sprintf(baseRecord, extra)))
	rec, err := Decode(raw)
	require.NoError(t, err)
	return rec
}

func TestNormalizeWithoutExtractedData(t *testing.T) {
	rec := decodeWith(t, "")
	out, err := Normalize(rec)
	require.NoError(t, err)

	assert.Equal(t, "doc-1", out.Document.ID)
	assert.Equal(t, int64(20480), out.Document.FileSize)
	assert.Equal(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), out.Document.CreatedAt)
	assert.True(t, out.Document.IsValidatedByHuman)
	assert.Nil(t, out.Document.AssignedToID)
	assert.Nil(t, out.Document.AssignedAt)
	assert.Nil(t, out.Document.ProcessedAt)
	assert.Nil(t, out.Invoice)
	assert.Nil(t, out.Vendor)
	assert.Nil(t, out.Customer)
	assert.Nil(t, out.Payment)
	assert.Empty(t, out.LineItems)
}

func TestNormalizeEmptyInvoiceSectionUsesDefaults(t *testing.T) {
	rec := decodeWith(t, `, "extractedData": {"llmData": {"invoice": {"value": {}}}}`)
	out, err := Normalize(rec)
	require.NoError(t, err)

	require.NotNil(t, out.Invoice)
	assert.Equal(t, "doc-1", out.Invoice.DocumentID)
	assert.Nil(t, out.Invoice.InvoiceID)
	assert.Nil(t, out.Invoice.InvoiceDate)
	assert.Nil(t, out.Invoice.DeliveryDate)
	assert.False(t, out.Invoice.SubTotal.Valid)
	assert.False(t, out.Invoice.TotalTax.Valid)
	assert.False(t, out.Invoice.InvoiceTotal.Valid)
	assert.Equal(t, "EUR", out.Invoice.CurrencySymbol)
	assert.Equal(t, "Invoice", out.Invoice.DocumentType)
	assert.Nil(t, out.Vendor)
}

func TestNormalizeWrapperWithoutValueIsPresent(t *testing.T) {
	rec := decodeWith(t, `, "extractedData": {"llmData": {"vendor": {}, "payment": null}}`)
	out, err := Normalize(rec)
	require.NoError(t, err)

	require.NotNil(t, out.Vendor)
	assert.Nil(t, out.Vendor.VendorName)
	assert.Nil(t, out.Payment)
}

func TestNormalizeFullPayload(t *testing.T) {
	rec := decodeWith(t, `,
  "assignedToId": "user-2",
  "assignedAt": {"$date": "2024-01-12T00:00:00Z"},
  "processedAt": {"$date": "2024-01-12T01:00:00Z"},
  "analyticsId": "an-1",
  "extractedData": {"llmData": {
    "invoice": {"value": {
      "invoiceId": {"value": "INV-100"},
      "invoiceDate": {"value": "2024-01-15"},
      "deliveryDate": {"value": "2024-01-20"}
    }},
    "summary": {"value": {
      "subTotal": {"value": -100},
      "totalTax": {"value": -19},
      "invoiceTotal": {"value": -119},
      "currencySymbol": {"value": "USD"}
    }},
    "vendor": {"value": {"vendorName": {"value": "Acme GmbH"}, "vendorTaxId": {"value": "DE123"}}},
    "customer": {"value": {"customerName": {"value": "Flowbit"}}},
    "payment": {"value": {
      "dueDate": {"value": "2024-02-15"},
      "BIC": {"value": "DEUTDEFF"},
      "netDays": {"value": 30},
      "discountPercentage": {"value": 2.5}
    }},
    "lineItems": {"value": {"items": {"value": [
      {"srNo": {"value": 1}, "description": {"value": "Advertising banner"}, "quantity": {"value": 2}, "unitPrice": {"value": 10}, "totalPrice": {"value": 20}},
      {"srNo": {"value": 2}, "totalPrice": {"value": -5.5}}
    ]}}}
  }}`)

	out, err := Normalize(rec)
	require.NoError(t, err)

	require.NotNil(t, out.Document.AssignedToID)
	assert.Equal(t, "user-2", *out.Document.AssignedToID)
	require.NotNil(t, out.Document.AnalyticsID)
	require.NotNil(t, out.Document.ProcessedAt)

	require.NotNil(t, out.Invoice)
	assert.Equal(t, "INV-100", *out.Invoice.InvoiceID)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), *out.Invoice.InvoiceDate)
	assert.Equal(t, "-119", out.Invoice.InvoiceTotal.Decimal.String())
	assert.Equal(t, "USD", out.Invoice.CurrencySymbol)
	assert.Equal(t, "Invoice", out.Invoice.DocumentType)

	require.NotNil(t, out.Vendor)
	assert.Equal(t, "Acme GmbH", *out.Vendor.VendorName)
	assert.Nil(t, out.Vendor.VendorAddress)

	require.NotNil(t, out.Customer)
	assert.Equal(t, "Flowbit", *out.Customer.CustomerName)

	require.NotNil(t, out.Payment)
	assert.Equal(t, "DEUTDEFF", *out.Payment.BIC)
	assert.Equal(t, 30, *out.Payment.NetDays)
	assert.Equal(t, "2.5", out.Payment.DiscountPercentage.Decimal.String())
	assert.Nil(t, out.Payment.DiscountDays)

	require.Len(t, out.LineItems, 2)
	assert.Equal(t, documents.CategoryMarketing, out.LineItems[0].Category)
	assert.Equal(t, 1, *out.LineItems[0].SrNo)
	assert.Equal(t, "", out.LineItems[1].Description)
	assert.Equal(t, documents.CategoryOperations, out.LineItems[1].Category)
	assert.Equal(t, "-5.5", out.LineItems[1].TotalPrice.Decimal.String())
}

func TestNormalizeEmptyItemsListYieldsNoLineItems(t *testing.T) {
	rec := decodeWith(t, `, "extractedData": {"llmData": {"lineItems": {"value": {"items": {"value": []}}}}}`)
	out, err := Normalize(rec)
	require.NoError(t, err)
	assert.Empty(t, out.LineItems)
}

func TestNormalizeRejectsMalformedValues(t *testing.T) {
	cases := map[string]string{
		"bad file size":    `, "fileSize": {"$numberLong": "abc"}`,
		"bad date leaf":    `, "extractedData": {"llmData": {"invoice": {"value": {"invoiceDate": {"value": "soon"}}}}}`,
		"bad payment leaf": `, "extractedData": {"llmData": {"summary": {"value": {}}, "invoice": {"value": {}}, "payment": {"value": {"discountedTotal": {"value": {"x": 1}}}}}}`,
	}
	for name, extra := range cases {
		t.Run(name, func(t *testing.T) {
			raw := json.RawMessage([]byte(fmt.Sprintf(baseRecord, extra)))
			rec, err := Decode(raw)
			require.NoError(t, err)
			_, err = Normalize(rec)
			assert.Error(t, err)
		})
	}
}

func TestNormalizeRejectsNullLineItem(t *testing.T) {
	rec := decodeWith(t, `, "extractedData": {"llmData": {"lineItems": {"value": {"items": {"value": [
    {"description": {"value": "Office rent"}, "totalPrice": {"value": 80}},
    null
  ]}}}}}`)
	_, err := Normalize(rec)
	assert.ErrorIs(t, err, ErrNullLineItem)
	assert.Contains(t, err.Error(), "lineItems[1]")
}

func TestNormalizeBareScalarLeafIsUnset(t *testing.T) {
	rec := decodeWith(t, `, "extractedData": {"llmData": {
    "vendor": {"value": {"vendorName": "Acme", "vendorTaxId": {"value": "DE123"}}},
    "invoice": {"value": {"invoiceId": 42, "invoiceDate": ["2024-01-01"]}}
  }}`)
	out, err := Normalize(rec)
	require.NoError(t, err)

	require.NotNil(t, out.Vendor)
	assert.Nil(t, out.Vendor.VendorName)
	require.NotNil(t, out.Vendor.VendorTaxID)
	assert.Equal(t, "DE123", *out.Vendor.VendorTaxID)

	require.NotNil(t, out.Invoice)
	assert.Nil(t, out.Invoice.InvoiceID)
	assert.Nil(t, out.Invoice.InvoiceDate)
}

func TestDecodeRejectsMissingRequiredFields(t *testing.T) {
	_, err := Decode(json.RawMessage(`{"_id": "doc-1", "organizationId": "org-1"}`))
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = Decode(json.RawMessage(`{"_id": "doc-1", "extractedData": 5}`))
	assert.Error(t, err)
}
