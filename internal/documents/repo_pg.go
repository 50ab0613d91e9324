package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// resetOrder lists tables children first.
var resetOrder = []string{
	"line_items",
	"payments",
	"customers",
	"vendors",
	"invoices",
	"documents",
	"users",
	"departments",
	"organizations",
}

// Reset deletes all rows in dependency order.
func (r *PGRepo) Reset(ctx context.Context) error {
	for _, table := range resetOrder {
		if _, err := r.DB.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}

func (r *PGRepo) CreateOrganization(ctx context.Context, org Organization) error {
	const query = `
INSERT INTO organizations (id, name, created_at)
VALUES ($1, $2, now())`
	_, err := r.DB.ExecContext(ctx, query, org.ID, org.Name)
	return mapPGError(err)
}

func (r *PGRepo) CreateDepartment(ctx context.Context, dept Department) error {
	const query = `
INSERT INTO departments (id, name, organization_id, created_at)
VALUES ($1, $2, $3, now())`
	_, err := r.DB.ExecContext(ctx, query, dept.ID, dept.Name, dept.OrganizationID)
	return mapPGError(err)
}

func (r *PGRepo) CreateUser(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, email, name, organization_id, created_at)
VALUES ($1, $2, $3, $4, now())`
	_, err := r.DB.ExecContext(ctx, query, user.ID, user.Email, user.Name, user.OrganizationID)
	return mapPGError(err)
}

func (r *PGRepo) CreateDocument(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    name,
    file_path,
    file_size,
    file_type,
    status,
    organization_id,
    department_id,
    uploaded_by_id,
    assigned_to_id,
    assigned_at,
    is_validated_by_human,
    processed_at,
    created_at,
    updated_at,
    analytics_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.Name,
		doc.FilePath,
		doc.FileSize,
		doc.FileType,
		doc.Status,
		doc.OrganizationID,
		doc.DepartmentID,
		doc.UploadedByID,
		nullableString(doc.AssignedToID),
		nullableTime(doc.AssignedAt),
		doc.IsValidatedByHuman,
		nullableTime(doc.ProcessedAt),
		doc.CreatedAt,
		doc.UpdatedAt,
		nullableString(doc.AnalyticsID),
	)
	return mapPGError(err)
}

func (r *PGRepo) CreateInvoice(ctx context.Context, inv Invoice) error {
	const query = `
INSERT INTO invoices (
    id,
    document_id,
    invoice_id,
    invoice_date,
    delivery_date,
    sub_total,
    total_tax,
    invoice_total,
    currency_symbol,
    document_type
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.DB.ExecContext(
		ctx,
		query,
		inv.ID,
		inv.DocumentID,
		nullableString(inv.InvoiceID),
		nullableTime(inv.InvoiceDate),
		nullableTime(inv.DeliveryDate),
		inv.SubTotal,
		inv.TotalTax,
		inv.InvoiceTotal,
		inv.CurrencySymbol,
		inv.DocumentType,
	)
	return mapPGError(err)
}

func (r *PGRepo) CreateVendor(ctx context.Context, vendor Vendor) error {
	const query = `
INSERT INTO vendors (id, document_id, vendor_name, vendor_party_number, vendor_address, vendor_tax_id)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.DB.ExecContext(ctx, query,
		vendor.ID,
		vendor.DocumentID,
		nullableString(vendor.VendorName),
		nullableString(vendor.VendorPartyNumber),
		nullableString(vendor.VendorAddress),
		nullableString(vendor.VendorTaxID),
	)
	return mapPGError(err)
}

func (r *PGRepo) CreateCustomer(ctx context.Context, customer Customer) error {
	const query = `
INSERT INTO customers (id, document_id, customer_name, customer_address)
VALUES ($1, $2, $3, $4)`
	_, err := r.DB.ExecContext(ctx, query,
		customer.ID,
		customer.DocumentID,
		nullableString(customer.CustomerName),
		nullableString(customer.CustomerAddress),
	)
	return mapPGError(err)
}

func (r *PGRepo) CreatePayment(ctx context.Context, payment Payment) error {
	const query = `
INSERT INTO payments (
    id,
    document_id,
    due_date,
    payment_terms,
    bank_account_number,
    bic,
    account_name,
    net_days,
    discount_percentage,
    discount_days,
    discount_due_date,
    discounted_total
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.DB.ExecContext(ctx, query,
		payment.ID,
		payment.DocumentID,
		nullableTime(payment.DueDate),
		nullableString(payment.PaymentTerms),
		nullableString(payment.BankAccountNumber),
		nullableString(payment.BIC),
		nullableString(payment.AccountName),
		nullableInt(payment.NetDays),
		payment.DiscountPercentage,
		nullableInt(payment.DiscountDays),
		nullableTime(payment.DiscountDueDate),
		payment.DiscountedTotal,
	)
	return mapPGError(err)
}

func (r *PGRepo) CreateLineItem(ctx context.Context, item LineItem) error {
	const query = `
INSERT INTO line_items (id, document_id, sr_no, description, quantity, unit_price, total_price, category)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.DB.ExecContext(ctx, query,
		item.ID,
		item.DocumentID,
		nullableInt(item.SrNo),
		item.Description,
		item.Quantity,
		item.UnitPrice,
		item.TotalPrice,
		item.Category,
	)
	return mapPGError(err)
}

func (r *PGRepo) CountInvoices(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices`).Scan(&n)
	return n, err
}

func (r *PGRepo) CountDocuments(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

func (r *PGRepo) DatedInvoiceTotals(ctx context.Context, from, to time.Time) ([]DatedAmount, error) {
	b := psql.Select("invoice_date", "invoice_total").
		From("invoices").
		Where(sq.NotEq{"invoice_date": nil}).
		OrderBy("invoice_date ASC")
	if !from.IsZero() {
		b = b.Where(sq.GtOrEq{"invoice_date": from})
	}
	if !to.IsZero() {
		b = b.Where(sq.Lt{"invoice_date": to})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DatedAmount
	for rows.Next() {
		var row DatedAmount
		if err := rows.Scan(&row.Date, &row.Total); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *PGRepo) VendorInvoiceTotals(ctx context.Context) ([]VendorAmount, error) {
	const query = `
SELECT v.vendor_name, i.invoice_total
FROM vendors v
LEFT JOIN invoices i ON i.document_id = v.document_id`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VendorAmount
	for rows.Next() {
		var row VendorAmount
		var name sql.NullString
		if err := rows.Scan(&name, &row.InvoiceTotal); err != nil {
			return nil, err
		}
		row.VendorName = stringPtr(name)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *PGRepo) LineItemTotals(ctx context.Context) ([]CategoryAmount, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT category, total_price FROM line_items`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryAmount
	for rows.Next() {
		var row CategoryAmount
		var category sql.NullString
		if err := rows.Scan(&category, &row.TotalPrice); err != nil {
			return nil, err
		}
		row.Category = stringPtr(category)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *PGRepo) PaymentDueTotals(ctx context.Context) ([]DueAmount, error) {
	const query = `
SELECT p.due_date, i.invoice_total
FROM payments p
LEFT JOIN invoices i ON i.document_id = p.document_id
WHERE p.due_date IS NOT NULL`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DueAmount
	for rows.Next() {
		var row DueAmount
		if err := rows.Scan(&row.DueDate, &row.InvoiceTotal); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListInvoices returns one page of invoices joined with document status and vendor name.
func (r *PGRepo) ListInvoices(ctx context.Context, q InvoiceQuery) ([]InvoiceListing, error) {
	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = sortColumns[SortInvoiceDate]
	}
	direction := "ASC"
	if q.Desc {
		direction = "DESC"
	}

	b := filterInvoices(psql.Select(
		"i.id",
		"i.invoice_id",
		"i.invoice_date",
		"i.invoice_total",
		"v.vendor_name",
		"d.status",
		"i.document_id",
	), q).OrderBy(column+" "+direction+" NULLS LAST", "i.id ASC")
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}
	if q.Offset > 0 {
		b = b.Offset(uint64(q.Offset))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []InvoiceListing{}
	for rows.Next() {
		var row InvoiceListing
		var invoiceID sql.NullString
		var invoiceDate sql.NullTime
		var vendorName sql.NullString
		if err := rows.Scan(
			&row.ID,
			&invoiceID,
			&invoiceDate,
			&row.InvoiceTotal,
			&vendorName,
			&row.Status,
			&row.DocumentID,
		); err != nil {
			return nil, err
		}
		row.InvoiceID = stringPtr(invoiceID)
		row.VendorName = stringPtr(vendorName)
		if invoiceDate.Valid {
			row.InvoiceDate = &invoiceDate.Time
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *PGRepo) CountListedInvoices(ctx context.Context, q InvoiceQuery) (int, error) {
	query, args, err := filterInvoices(psql.Select("COUNT(*)"), q).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	err = r.DB.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

func filterInvoices(b sq.SelectBuilder, q InvoiceQuery) sq.SelectBuilder {
	b = b.From("invoices i").
		Join("documents d ON d.id = i.document_id").
		LeftJoin("vendors v ON v.document_id = i.document_id")
	if q.Search != "" {
		pattern := "%" + escapeLike(q.Search) + "%"
		b = b.Where(sq.Or{
			sq.ILike{"i.invoice_id": pattern},
			sq.ILike{"v.vendor_name": pattern},
		})
	}
	if q.Status != "" {
		b = b.Where(sq.Eq{"d.status": q.Status})
	}
	return b
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// mapPGError tags integrity violations with ErrConstraint.
func mapPGError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%s: %w", pgErr.Message, ErrConstraint)
	}
	return err
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

var _ Repo = (*PGRepo)(nil)
