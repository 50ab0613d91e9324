package documents

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemoryRepo is an in-memory implementation of Repo. It enforces the same
// parent and one-to-one constraints as the Postgres schema.
type MemoryRepo struct {
	mu        sync.RWMutex
	orgs      map[string]Organization
	depts     map[string]Department
	users     map[string]User
	docs      map[string]Document
	docOrder  []string
	invoices  map[string]Invoice // documentID -> invoice
	invOrder  []string
	vendors   map[string]Vendor // documentID -> vendor
	vendOrder []string
	customers map[string]Customer
	payments  map[string]Payment
	payOrder  []string
	lineItems []LineItem
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	r := &MemoryRepo{}
	r.clear()
	return r
}

func (r *MemoryRepo) clear() {
	r.orgs = make(map[string]Organization)
	r.depts = make(map[string]Department)
	r.users = make(map[string]User)
	r.docs = make(map[string]Document)
	r.docOrder = nil
	r.invoices = make(map[string]Invoice)
	r.invOrder = nil
	r.vendors = make(map[string]Vendor)
	r.vendOrder = nil
	r.customers = make(map[string]Customer)
	r.payments = make(map[string]Payment)
	r.payOrder = nil
	r.lineItems = nil
}

func (r *MemoryRepo) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clear()
	return nil
}

func (r *MemoryRepo) CreateOrganization(ctx context.Context, org Organization) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orgs[org.ID]; ok {
		return fmt.Errorf("organization %s exists: %w", org.ID, ErrConstraint)
	}
	r.orgs[org.ID] = org
	return nil
}

func (r *MemoryRepo) CreateDepartment(ctx context.Context, dept Department) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.depts[dept.ID]; ok {
		return fmt.Errorf("department %s exists: %w", dept.ID, ErrConstraint)
	}
	if _, ok := r.orgs[dept.OrganizationID]; !ok {
		return fmt.Errorf("department %s: unknown organization %s: %w", dept.ID, dept.OrganizationID, ErrConstraint)
	}
	r.depts[dept.ID] = dept
	return nil
}

func (r *MemoryRepo) CreateUser(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return fmt.Errorf("user %s exists: %w", user.ID, ErrConstraint)
	}
	if _, ok := r.orgs[user.OrganizationID]; !ok {
		return fmt.Errorf("user %s: unknown organization %s: %w", user.ID, user.OrganizationID, ErrConstraint)
	}
	r.users[user.ID] = user
	return nil
}

func (r *MemoryRepo) CreateDocument(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; ok {
		return fmt.Errorf("document %s exists: %w", doc.ID, ErrConstraint)
	}
	if _, ok := r.orgs[doc.OrganizationID]; !ok {
		return fmt.Errorf("document %s: unknown organization %s: %w", doc.ID, doc.OrganizationID, ErrConstraint)
	}
	if _, ok := r.depts[doc.DepartmentID]; !ok {
		return fmt.Errorf("document %s: unknown department %s: %w", doc.ID, doc.DepartmentID, ErrConstraint)
	}
	if _, ok := r.users[doc.UploadedByID]; !ok {
		return fmt.Errorf("document %s: unknown uploader %s: %w", doc.ID, doc.UploadedByID, ErrConstraint)
	}
	if doc.AssignedToID != nil {
		if _, ok := r.users[*doc.AssignedToID]; !ok {
			return fmt.Errorf("document %s: unknown assignee %s: %w", doc.ID, *doc.AssignedToID, ErrConstraint)
		}
	}
	r.docs[doc.ID] = doc
	r.docOrder = append(r.docOrder, doc.ID)
	return nil
}

// childOf checks the one-to-one parent rule shared by invoice, vendor, customer and payment.
func (r *MemoryRepo) childOf(kind, documentID string, taken bool) error {
	if _, ok := r.docs[documentID]; !ok {
		return fmt.Errorf("%s: unknown document %s: %w", kind, documentID, ErrConstraint)
	}
	if taken {
		return fmt.Errorf("%s for document %s exists: %w", kind, documentID, ErrConstraint)
	}
	return nil
}

func (r *MemoryRepo) CreateInvoice(ctx context.Context, inv Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, taken := r.invoices[inv.DocumentID]
	if err := r.childOf("invoice", inv.DocumentID, taken); err != nil {
		return err
	}
	r.invoices[inv.DocumentID] = inv
	r.invOrder = append(r.invOrder, inv.DocumentID)
	return nil
}

func (r *MemoryRepo) CreateVendor(ctx context.Context, vendor Vendor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, taken := r.vendors[vendor.DocumentID]
	if err := r.childOf("vendor", vendor.DocumentID, taken); err != nil {
		return err
	}
	r.vendors[vendor.DocumentID] = vendor
	r.vendOrder = append(r.vendOrder, vendor.DocumentID)
	return nil
}

func (r *MemoryRepo) CreateCustomer(ctx context.Context, customer Customer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, taken := r.customers[customer.DocumentID]
	if err := r.childOf("customer", customer.DocumentID, taken); err != nil {
		return err
	}
	r.customers[customer.DocumentID] = customer
	return nil
}

func (r *MemoryRepo) CreatePayment(ctx context.Context, payment Payment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, taken := r.payments[payment.DocumentID]
	if err := r.childOf("payment", payment.DocumentID, taken); err != nil {
		return err
	}
	r.payments[payment.DocumentID] = payment
	r.payOrder = append(r.payOrder, payment.DocumentID)
	return nil
}

func (r *MemoryRepo) CreateLineItem(ctx context.Context, item LineItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.childOf("line item", item.DocumentID, false); err != nil {
		return err
	}
	r.lineItems = append(r.lineItems, item)
	return nil
}

func (r *MemoryRepo) CountInvoices(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.invoices), nil
}

func (r *MemoryRepo) CountDocuments(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs), nil
}

func (r *MemoryRepo) DatedInvoiceTotals(ctx context.Context, from, to time.Time) ([]DatedAmount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DatedAmount, 0, len(r.invoices))
	for _, docID := range r.invOrder {
		inv := r.invoices[docID]
		if inv.InvoiceDate == nil {
			continue
		}
		if !from.IsZero() && inv.InvoiceDate.Before(from) {
			continue
		}
		if !to.IsZero() && !inv.InvoiceDate.Before(to) {
			continue
		}
		out = append(out, DatedAmount{Date: *inv.InvoiceDate, Total: inv.InvoiceTotal})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (r *MemoryRepo) VendorInvoiceTotals(ctx context.Context) ([]VendorAmount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]VendorAmount, 0, len(r.vendors))
	for _, docID := range r.vendOrder {
		row := VendorAmount{VendorName: r.vendors[docID].VendorName}
		if inv, ok := r.invoices[docID]; ok {
			row.InvoiceTotal = inv.InvoiceTotal
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *MemoryRepo) LineItemTotals(ctx context.Context) ([]CategoryAmount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]CategoryAmount, 0, len(r.lineItems))
	for _, item := range r.lineItems {
		row := CategoryAmount{TotalPrice: item.TotalPrice}
		if item.Category != "" {
			category := item.Category
			row.Category = &category
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *MemoryRepo) PaymentDueTotals(ctx context.Context) ([]DueAmount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DueAmount, 0, len(r.payments))
	for _, docID := range r.payOrder {
		payment := r.payments[docID]
		if payment.DueDate == nil {
			continue
		}
		row := DueAmount{DueDate: *payment.DueDate}
		if inv, ok := r.invoices[docID]; ok {
			row.InvoiceTotal = inv.InvoiceTotal
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *MemoryRepo) ListInvoices(ctx context.Context, q InvoiceQuery) ([]InvoiceListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := r.matchInvoices(q)

	sortBy := q.SortBy
	if !sortBy.Valid() {
		sortBy = SortInvoiceDate
	}
	sort.SliceStable(matched, func(i, j int) bool {
		c := compareInvoices(matched[i], matched[j], sortBy)
		if c == 0 {
			return matched[i].ID < matched[j].ID
		}
		// Nulls stay last regardless of direction.
		if c == nullsLast || c == -nullsLast {
			return c < 0
		}
		if q.Desc {
			return c > 0
		}
		return c < 0
	})

	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []InvoiceListing{}, nil
	}
	end := len(matched)
	if q.Limit > 0 && offset+q.Limit < end {
		end = offset + q.Limit
	}

	out := make([]InvoiceListing, 0, end-offset)
	for _, inv := range matched[offset:end] {
		row := InvoiceListing{
			ID:           inv.ID,
			InvoiceID:    inv.InvoiceID,
			InvoiceDate:  inv.InvoiceDate,
			InvoiceTotal: inv.InvoiceTotal,
			DocumentID:   inv.DocumentID,
			Status:       r.docs[inv.DocumentID].Status,
		}
		if v, ok := r.vendors[inv.DocumentID]; ok {
			row.VendorName = v.VendorName
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *MemoryRepo) CountListedInvoices(ctx context.Context, q InvoiceQuery) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matchInvoices(q)), nil
}

// matchInvoices applies the search and status filters. Callers hold the read lock.
func (r *MemoryRepo) matchInvoices(q InvoiceQuery) []Invoice {
	search := strings.ToLower(q.Search)
	out := make([]Invoice, 0, len(r.invoices))
	for _, docID := range r.invOrder {
		inv := r.invoices[docID]
		if q.Status != "" && r.docs[docID].Status != q.Status {
			continue
		}
		if search != "" {
			hit := inv.InvoiceID != nil && strings.Contains(strings.ToLower(*inv.InvoiceID), search)
			if v, ok := r.vendors[docID]; !hit && ok && v.VendorName != nil {
				hit = strings.Contains(strings.ToLower(*v.VendorName), search)
			}
			if !hit {
				continue
			}
		}
		out = append(out, inv)
	}
	return out
}

// nullsLast marks a comparison decided by one side being null.
const nullsLast = 2

func compareInvoices(a, b Invoice, field SortField) int {
	switch field {
	case SortInvoiceID:
		return compareNullable(a.InvoiceID, b.InvoiceID, strings.Compare)
	case SortInvoiceTotal:
		return compareDecimal(a.InvoiceTotal, b.InvoiceTotal)
	case SortSubTotal:
		return compareDecimal(a.SubTotal, b.SubTotal)
	case SortTotalTax:
		return compareDecimal(a.TotalTax, b.TotalTax)
	case SortDeliveryDate:
		return compareNullable(a.DeliveryDate, b.DeliveryDate, time.Time.Compare)
	default:
		return compareNullable(a.InvoiceDate, b.InvoiceDate, time.Time.Compare)
	}
}

func compareNullable[T any](a, b *T, cmp func(T, T) int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return nullsLast
	case b == nil:
		return -nullsLast
	}
	return cmp(*a, *b)
}

func compareDecimal(a, b decimal.NullDecimal) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return nullsLast
	case !b.Valid:
		return -nullsLast
	}
	return a.Decimal.Cmp(b.Decimal)
}

var _ Repo = (*MemoryRepo)(nil)
