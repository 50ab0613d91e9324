package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"invoice-dashboard/internal/documents"
)

const (
	topVendorLimit = 10

	unknownVendor        = "Unknown Vendor"
	unknownListingVendor = "Unknown"

	// Placeholder growth figures shown on the overview cards.
	totalSpendChange   = 8.2
	averageValueChange = 12.5

	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 500
)

// Prior-period baselines for the synthetic change figures.
var (
	invoiceBaselineRatio  = decimal.RequireFromString("0.94")
	documentBaselineRatio = decimal.RequireFromString("0.86")
)

// Outflow range labels in response order.
const (
	RangeWeek      = "0-7 days"
	RangeMonth     = "8-30 days"
	RangeTwoMonths = "31-60 days"
	RangeLater     = "60+ days"
)

var outflowRanges = []string{RangeWeek, RangeMonth, RangeTwoMonths, RangeLater}

// Service folds persisted invoices into dashboard aggregates.
type Service struct {
	Repo documents.Reader
	Now  func() time.Time
}

// NewService constructs a Service on the wall clock.
func NewService(repo documents.Reader) *Service {
	return &Service{Repo: repo, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Stats computes the overview cards. Spend covers invoices dated in the
// current calendar year; the average divides it by every invoice.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	invoices, err := s.Repo.CountInvoices(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count invoices: %w", err)
	}
	docs, err := s.Repo.CountDocuments(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count documents: %w", err)
	}

	now := s.now()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	rows, err := s.Repo.DatedInvoiceTotals(ctx, yearStart, yearStart.AddDate(1, 0, 0))
	if err != nil {
		return Stats{}, fmt.Errorf("year to date totals: %w", err)
	}
	spend := decimal.Zero
	for _, row := range rows {
		spend = spend.Add(magnitude(row.Total))
	}

	average := decimal.Zero
	if invoices > 0 {
		average = spend.Div(decimal.NewFromInt(int64(invoices)))
	}

	return Stats{
		TotalSpend:                money(spend),
		TotalSpendChange:          totalSpendChange,
		TotalInvoices:             invoices,
		TotalInvoicesChange:       changeFrom(invoices, invoiceBaselineRatio),
		DocumentsUploaded:         docs,
		DocumentsUploadedChange:   changeFrom(docs, documentBaselineRatio),
		AverageInvoiceValue:       money(average),
		AverageInvoiceValueChange: averageValueChange,
	}, nil
}

// changeFrom is the percentage change of current over floor(current*ratio),
// or 0 when that baseline is 0.
func changeFrom(current int, ratio decimal.Decimal) float64 {
	cur := decimal.NewFromInt(int64(current))
	baseline := cur.Mul(ratio).Floor()
	if baseline.IsZero() {
		return 0
	}
	return money(cur.Sub(baseline).Div(baseline).Mul(decimal.NewFromInt(100)))
}

// InvoiceTrends groups dated invoices by calendar month (UTC), oldest first.
func (s *Service) InvoiceTrends(ctx context.Context) ([]MonthlyTrend, error) {
	rows, err := s.Repo.DatedInvoiceTotals(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("dated totals: %w", err)
	}

	type bucket struct {
		count int
		total decimal.Decimal
	}
	months := make(map[string]*bucket)
	var keys []string
	for _, row := range rows {
		key := row.Date.UTC().Format("2006-01")
		b, ok := months[key]
		if !ok {
			b = &bucket{}
			months[key] = b
			keys = append(keys, key)
		}
		b.count++
		b.total = b.total.Add(magnitude(row.Total))
	}
	sort.Strings(keys)

	out := make([]MonthlyTrend, 0, len(keys))
	for _, key := range keys {
		b := months[key]
		out = append(out, MonthlyTrend{Month: key, InvoiceCount: b.count, TotalSpend: money(b.total)})
	}
	return out, nil
}

// TopVendors ranks vendor names by summed invoice magnitude. Unnamed vendors
// share one bucket; ties keep first-seen order.
func (s *Service) TopVendors(ctx context.Context) ([]VendorSpend, error) {
	rows, err := s.Repo.VendorInvoiceTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("vendor totals: %w", err)
	}

	totals := make(map[string]decimal.Decimal)
	var names []string
	for _, row := range rows {
		name := unknownVendor
		if row.VendorName != nil && *row.VendorName != "" {
			name = *row.VendorName
		}
		if _, ok := totals[name]; !ok {
			names = append(names, name)
		}
		totals[name] = totals[name].Add(magnitude(row.InvoiceTotal))
	}

	out := make([]VendorSpend, 0, len(names))
	for _, name := range names {
		out = append(out, VendorSpend{VendorName: name, TotalSpend: money(totals[name])})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalSpend > out[j].TotalSpend
	})
	if len(out) > topVendorLimit {
		out = out[:topVendorLimit]
	}
	return out, nil
}

// CategorySpend sums line item magnitudes per category in first-seen order.
func (s *Service) CategorySpend(ctx context.Context) ([]CategorySpend, error) {
	rows, err := s.Repo.LineItemTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("line item totals: %w", err)
	}

	totals := make(map[string]decimal.Decimal)
	var categories []string
	for _, row := range rows {
		category := documents.CategoryOperations
		if row.Category != nil && *row.Category != "" {
			category = *row.Category
		}
		if _, ok := totals[category]; !ok {
			categories = append(categories, category)
		}
		totals[category] = totals[category].Add(magnitude(row.TotalPrice))
	}

	out := make([]CategorySpend, 0, len(categories))
	for _, category := range categories {
		out = append(out, CategorySpend{Category: category, Total: money(totals[category])})
	}
	return out, nil
}

// CashOutflow buckets upcoming payments by days until due. The result always
// has the four ranges in fixed order.
func (s *Service) CashOutflow(ctx context.Context) ([]OutflowBucket, error) {
	rows, err := s.Repo.PaymentDueTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("payment due totals: %w", err)
	}

	now := s.now()
	sums := make(map[string]decimal.Decimal, len(outflowRanges))
	for _, row := range rows {
		label := outflowRange(daysUntil(now, row.DueDate))
		sums[label] = sums[label].Add(magnitude(row.InvoiceTotal))
	}

	out := make([]OutflowBucket, 0, len(outflowRanges))
	for _, label := range outflowRanges {
		out = append(out, OutflowBucket{Range: label, Amount: money(sums[label])})
	}
	return out, nil
}

// daysUntil is the ceiling of the whole days from now to due; negative when overdue.
func daysUntil(now, due time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

// outflowRange maps a day count to its range. Overdue counts land in the
// nearest range alongside payments due this week.
func outflowRange(days int) string {
	switch {
	case days <= 7:
		return RangeWeek
	case days <= 30:
		return RangeMonth
	case days <= 60:
		return RangeTwoMonths
	default:
		return RangeLater
	}
}

// ListQuery holds the invoice listing parameters. Zero values select the defaults.
type ListQuery struct {
	Search string
	Status string
	SortBy documents.SortField
	Asc    bool
	Page   int
	Limit  int
}

func (q ListQuery) normalized() (ListQuery, error) {
	if q.SortBy == "" {
		q.SortBy = documents.SortInvoiceDate
	}
	if !q.SortBy.Valid() {
		return q, fmt.Errorf("sort field %q: %w", q.SortBy, ErrInvalidQuery)
	}
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q, nil
}

// offset is the row offset of the page, false when it does not fit in an int.
func (q ListQuery) offset() (int, bool) {
	if q.Page-1 > math.MaxInt/q.Limit {
		return 0, false
	}
	return (q.Page - 1) * q.Limit, true
}

func (q ListQuery) repoQuery() documents.InvoiceQuery {
	offset, _ := q.offset()
	return documents.InvoiceQuery{
		Search: q.Search,
		Status: q.Status,
		SortBy: q.SortBy,
		Desc:   !q.Asc,
		Limit:  q.Limit,
		Offset: offset,
	}
}

// ListInvoices returns one page of filtered, sorted invoices with the total match count.
func (s *Service) ListInvoices(ctx context.Context, q ListQuery) (InvoicePage, error) {
	q, err := q.normalized()
	if err != nil {
		return InvoicePage{}, err
	}
	rq := q.repoQuery()

	var rows []documents.InvoiceListing
	if _, ok := q.offset(); ok {
		rows, err = s.Repo.ListInvoices(ctx, rq)
		if err != nil {
			return InvoicePage{}, fmt.Errorf("list invoices: %w", err)
		}
	}
	total, err := s.Repo.CountListedInvoices(ctx, rq)
	if err != nil {
		return InvoicePage{}, fmt.Errorf("count invoices: %w", err)
	}

	out := make([]InvoiceRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, toInvoiceRow(row))
	}
	return InvoicePage{
		Invoices: out,
		Pagination: Pagination{
			Total:      total,
			Page:       q.Page,
			Limit:      q.Limit,
			TotalPages: (total + q.Limit - 1) / q.Limit,
		},
	}, nil
}

func toInvoiceRow(row documents.InvoiceListing) InvoiceRow {
	vendor := unknownListingVendor
	if row.VendorName != nil && *row.VendorName != "" {
		vendor = *row.VendorName
	}
	return InvoiceRow{
		ID:           row.ID,
		InvoiceID:    row.InvoiceID,
		InvoiceDate:  row.InvoiceDate,
		VendorName:   vendor,
		InvoiceTotal: money(magnitude(row.InvoiceTotal)),
		Status:       row.Status,
		DocumentID:   row.DocumentID,
	}
}

// magnitude is the absolute value of an optional amount; unset counts as zero.
func magnitude(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal.Abs()
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
