package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-dashboard/internal/documents"
	"invoice-dashboard/internal/shared/telemetry"
)

// spyRepo records parent rows on top of the in-memory store.
type spyRepo struct {
	*documents.MemoryRepo
	orgs     []documents.Organization
	depts    []documents.Department
	users    []documents.User
	resetErr error
	// invoiceErr fails CreateInvoice for the keyed document ids.
	invoiceErr map[string]error
}

func newSpyRepo() *spyRepo {
	return &spyRepo{MemoryRepo: documents.NewMemoryRepo()}
}

func (s *spyRepo) Reset(ctx context.Context) error {
	if s.resetErr != nil {
		return s.resetErr
	}
	s.orgs, s.depts, s.users = nil, nil, nil
	return s.MemoryRepo.Reset(ctx)
}

func (s *spyRepo) CreateOrganization(ctx context.Context, org documents.Organization) error {
	s.orgs = append(s.orgs, org)
	return s.MemoryRepo.CreateOrganization(ctx, org)
}

func (s *spyRepo) CreateDepartment(ctx context.Context, dept documents.Department) error {
	s.depts = append(s.depts, dept)
	return s.MemoryRepo.CreateDepartment(ctx, dept)
}

func (s *spyRepo) CreateUser(ctx context.Context, user documents.User) error {
	s.users = append(s.users, user)
	return s.MemoryRepo.CreateUser(ctx, user)
}

func (s *spyRepo) CreateInvoice(ctx context.Context, inv documents.Invoice) error {
	if err, ok := s.invoiceErr[inv.DocumentID]; ok {
		return err
	}
	return s.MemoryRepo.CreateInvoice(ctx, inv)
}

func record(id, org, dept, uploader, extra string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
  "_id": %q,
  "name": "%s.pdf",
  "filePath": "/uploads/%s.pdf",
  "fileSize": {"$numberLong": "1024"},
  "fileType": "application/pdf",
  "status": "processed",
  "organizationId": %q,
  "departmentId": %q,
  "createdAt": {"$date": "2024-03-01T00:00:00Z"},
  "updatedAt": {"$date": "2024-03-01T00:00:00Z"},
  "isValidatedByHuman": false,
  "uploadedById": %q%s
}`, id, id, id, org, dept, uploader, extra))
}

const invoicePayload = `, "extractedData": {"llmData": {
  "invoice": {"value": {"invoiceId": {"value": "INV-%d"}, "invoiceDate": {"value": "2024-03-05"}}},
  "summary": {"value": {"invoiceTotal": {"value": 100}}},
  "vendor": {"value": {"vendorName": {"value": "Acme"}}},
  "payment": {"value": {"dueDate": {"value": "2024-04-05"}}},
  "lineItems": {"value": {"items": {"value": [
    {"description": {"value": "Office rent"}, "totalPrice": {"value": 80}},
    {"description": {"value": "Advertising banner"}, "totalPrice": {"value": 20}}
  ]}}}
}}`

func quiet(t *testing.T) *strings.Builder {
	t.Helper()
	var buf strings.Builder
	t.Cleanup(telemetry.SetOutput(&buf))
	return &buf
}

func TestRunLoadsRecordsAndParents(t *testing.T) {
	quiet(t)
	repo := newSpyRepo()
	raws := []json.RawMessage{
		record("doc-aaaaaaaaaa", "org-1111111111", "dept-1", "user-1", fmt.Sprintf(invoicePayload, 1)),
		record("doc-b", "org-2", "dept-2", "user-2", `, "assignedToId": "user-3"`),
		record("doc-c", "org-1111111111", "dept-1", "user-1", ""),
	}

	res, err := NewDriver(repo, Options{}).Run(context.Background(), raws)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 3, res.Processed)
	assert.Empty(t, res.Failures)
	assert.Equal(t, 2, res.Organizations)
	assert.Equal(t, 2, res.Departments)
	assert.Equal(t, 3, res.Users)

	require.Len(t, repo.orgs, 2)
	assert.Equal(t, "Organization org-1111", repo.orgs[0].Name)
	for _, d := range repo.depts {
		assert.Equal(t, "org-1111111111", d.OrganizationID)
	}
	require.Len(t, repo.users, 3)
	assert.Equal(t, "user_user-1@example.com", repo.users[0].Email)
	assert.Equal(t, "User user-3", repo.users[2].Name)
	for _, u := range repo.users {
		assert.Equal(t, "org-1111111111", u.OrganizationID)
	}

	ctx := context.Background()
	docs, err := repo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, docs)
	invoices, err := repo.CountInvoices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, invoices)
	items, err := repo.LineItemTotals(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, documents.CategoryFacilities, *items[0].Category)
	assert.Equal(t, documents.CategoryMarketing, *items[1].Category)
}

func TestRunObservedTenancy(t *testing.T) {
	quiet(t)
	repo := newSpyRepo()
	raws := []json.RawMessage{
		record("doc-a", "org-1", "dept-1", "user-1", ""),
		record("doc-b", "org-2", "dept-2", "user-2", ""),
	}

	_, err := NewDriver(repo, Options{ObservedTenancy: true}).Run(context.Background(), raws)
	require.NoError(t, err)

	require.Len(t, repo.depts, 2)
	assert.Equal(t, "org-2", repo.depts[1].OrganizationID)
	require.Len(t, repo.users, 2)
	assert.Equal(t, "org-2", repo.users[1].OrganizationID)
}

func TestRunSkipsMalformedRecord(t *testing.T) {
	logs := quiet(t)
	repo := newSpyRepo()
	raws := []json.RawMessage{
		record("doc-a", "org-1", "dept-1", "user-1", ""),
		json.RawMessage(strings.Replace(string(record("doc-bad", "org-1", "dept-1", "user-1", "")), `"1024"`, `"lots"`, 1)),
		record("doc-c", "org-1", "dept-1", "user-1", fmt.Sprintf(invoicePayload, 3)),
	}

	res, err := NewDriver(repo, Options{}).Run(context.Background(), raws)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Processed)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "doc-bad", res.Failures[0].RecordID)
	assert.Equal(t, 1, res.Failures[0].Index)
	assert.Contains(t, logs.String(), "ingest.record_failed")
	assert.Contains(t, logs.String(), "doc-bad")
}

func TestRunSkipsDuplicateDocument(t *testing.T) {
	quiet(t)
	repo := newSpyRepo()
	raws := []json.RawMessage{
		record("doc-a", "org-1", "dept-1", "user-1", ""),
		record("doc-a", "org-1", "dept-1", "user-1", ""),
	}

	res, err := NewDriver(repo, Options{}).Run(context.Background(), raws)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	require.Len(t, res.Failures, 1)
	assert.ErrorIs(t, res.Failures[0].Err, documents.ErrConstraint)
}

func TestRunKeepsDocumentWhenChildInsertFails(t *testing.T) {
	logs := quiet(t)
	repo := newSpyRepo()
	diskFull := errors.New("disk full")
	repo.invoiceErr = map[string]error{"doc-b": diskFull}
	raws := []json.RawMessage{
		record("doc-a", "org-1", "dept-1", "user-1", fmt.Sprintf(invoicePayload, 1)),
		record("doc-b", "org-1", "dept-1", "user-1", fmt.Sprintf(invoicePayload, 2)),
		record("doc-c", "org-1", "dept-1", "user-1", fmt.Sprintf(invoicePayload, 3)),
	}

	res, err := NewDriver(repo, Options{}).Run(context.Background(), raws)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Processed)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "doc-b", res.Failures[0].RecordID)
	assert.ErrorIs(t, res.Failures[0].Err, diskFull)
	assert.Contains(t, logs.String(), "create invoice")

	ctx := context.Background()
	docs, err := repo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, docs)
	invoices, err := repo.CountInvoices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, invoices)

	listed, err := repo.ListInvoices(ctx, documents.InvoiceQuery{SortBy: documents.SortInvoiceID})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "doc-c", listed[1].DocumentID)
}

func TestRunIsRepeatable(t *testing.T) {
	quiet(t)
	repo := newSpyRepo()
	raws := []json.RawMessage{
		record("doc-a", "org-1", "dept-1", "user-1", fmt.Sprintf(invoicePayload, 1)),
		record("doc-b", "org-1", "dept-1", "user-1", fmt.Sprintf(invoicePayload, 2)),
	}
	driver := NewDriver(repo, Options{})

	for i := 0; i < 2; i++ {
		res, err := driver.Run(context.Background(), raws)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Processed)
	}
	n, err := repo.CountInvoices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, repo.orgs, 1)
}

func TestRunAbortsWhenResetFails(t *testing.T) {
	quiet(t)
	repo := newSpyRepo()
	repo.resetErr = errors.New("connection refused")

	_, err := NewDriver(repo, Options{}).Run(context.Background(), []json.RawMessage{record("doc-a", "org-1", "dept-1", "user-1", "")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reset")
}

func TestRunLogsProgress(t *testing.T) {
	logs := quiet(t)
	repo := newSpyRepo()
	var raws []json.RawMessage
	for i := 0; i < 4; i++ {
		raws = append(raws, record(fmt.Sprintf("doc-%d", i), "org-1", "dept-1", "user-1", ""))
	}

	_, err := NewDriver(repo, Options{ProgressEvery: 2}).Run(context.Background(), raws)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(logs.String(), "ingest.progress"))
	assert.Contains(t, logs.String(), "ingest.complete")
}

func TestReadSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"_id": "a"}, {"_id": 5}, "junk"]`), 0o600))

	raws, err := ReadSource(path)
	require.NoError(t, err)
	assert.Len(t, raws, 3)

	require.NoError(t, os.WriteFile(path, []byte(`{"_id": "a"}`), 0o600))
	_, err = ReadSource(path)
	assert.Error(t, err)

	_, err = ReadSource(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
