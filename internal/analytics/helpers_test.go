package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"invoice-dashboard/internal/documents"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	t    *testing.T
	repo *documents.MemoryRepo
	n    int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repo := documents.NewMemoryRepo()
	require.NoError(t, repo.CreateOrganization(ctx, documents.Organization{ID: "org-1", Name: "Organization org-1"}))
	require.NoError(t, repo.CreateDepartment(ctx, documents.Department{ID: "dept-1", Name: "Department dept-1", OrganizationID: "org-1"}))
	require.NoError(t, repo.CreateUser(ctx, documents.User{ID: "user-1", Email: "user_user-1@example.com", Name: "User user-1", OrganizationID: "org-1"}))
	return &fixture{t: t, repo: repo}
}

func (f *fixture) service() *Service {
	svc := NewService(f.repo)
	svc.Now = func() time.Time { return fixedNow }
	return svc
}

// doc adds a document and returns its id.
func (f *fixture) doc(status string) string {
	f.t.Helper()
	f.n++
	id := fmt.Sprintf("doc-%03d", f.n)
	require.NoError(f.t, f.repo.CreateDocument(context.Background(), documents.Document{
		ID:             id,
		Name:           id + ".pdf",
		Status:         status,
		OrganizationID: "org-1",
		DepartmentID:   "dept-1",
		UploadedByID:   "user-1",
		CreatedAt:      fixedNow,
		UpdatedAt:      fixedNow,
	}))
	return id
}

func (f *fixture) invoice(docID, invoiceID string, date *time.Time, total string) {
	f.t.Helper()
	inv := documents.Invoice{
		ID:             "inv-" + docID,
		DocumentID:     docID,
		InvoiceDate:    date,
		CurrencySymbol: documents.DefaultCurrencySymbol,
		DocumentType:   documents.DefaultDocumentType,
	}
	if invoiceID != "" {
		inv.InvoiceID = &invoiceID
	}
	if total != "" {
		inv.InvoiceTotal = decimal.NewNullDecimal(decimal.RequireFromString(total))
	}
	require.NoError(f.t, f.repo.CreateInvoice(context.Background(), inv))
}

func (f *fixture) vendor(docID string, name *string) {
	f.t.Helper()
	require.NoError(f.t, f.repo.CreateVendor(context.Background(), documents.Vendor{ID: "ven-" + docID, DocumentID: docID, VendorName: name}))
}

func (f *fixture) payment(docID string, due time.Time) {
	f.t.Helper()
	require.NoError(f.t, f.repo.CreatePayment(context.Background(), documents.Payment{ID: "pay-" + docID, DocumentID: docID, DueDate: &due}))
}

func (f *fixture) lineItem(docID, category, total string) {
	f.t.Helper()
	f.n++
	require.NoError(f.t, f.repo.CreateLineItem(context.Background(), documents.LineItem{
		ID:         fmt.Sprintf("li-%03d", f.n),
		DocumentID: docID,
		Category:   category,
		TotalPrice: decimal.NewNullDecimal(decimal.RequireFromString(total)),
	}))
}

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func str(s string) *string { return &s }
