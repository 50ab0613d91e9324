package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"invoice-dashboard/internal/documents"
	"invoice-dashboard/internal/records"
	"invoice-dashboard/internal/shared/telemetry"
)

const defaultProgressEvery = 10

// Options tunes a run.
type Options struct {
	// ProgressEvery logs a progress line after every N processed records.
	ProgressEvery int
	// ObservedTenancy assigns each department and user to the organization of
	// the first record that references it. When false every department and
	// user is placed under the first organization seen.
	ObservedTenancy bool
}

// Driver performs a destructive full reload of the document tables.
type Driver struct {
	Repo  documents.Writer
	Opts  Options
	NewID func() string
}

// NewDriver constructs a Driver with uuid row identifiers.
func NewDriver(repo documents.Writer, opts Options) *Driver {
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = defaultProgressEvery
	}
	return &Driver{Repo: repo, Opts: opts, NewID: uuid.NewString}
}

// Failure describes one skipped record.
type Failure struct {
	Index    int
	RecordID string
	Err      error
}

// Result summarizes a run.
type Result struct {
	Total         int
	Processed     int
	Organizations int
	Departments   int
	Users         int
	Failures      []Failure
}

// Run resets the store, creates parent entities and then loads every record
// in input order. Per-record failures are logged and skipped; an error is
// returned only when the run itself cannot continue.
func (d *Driver) Run(ctx context.Context, raws []json.RawMessage) (Result, error) {
	res := Result{Total: len(raws)}
	telemetry.Info("ingest.start", map[string]any{"records": len(raws)})

	if err := d.Repo.Reset(ctx); err != nil {
		return res, fmt.Errorf("reset: %w", err)
	}

	t := collectTenancy(raws)
	if err := d.createParents(ctx, t, &res); err != nil {
		return res, err
	}

	for i, raw := range raws {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := d.loadRecord(ctx, raw); err != nil {
			f := Failure{Index: i, RecordID: recordID(raw), Err: err}
			res.Failures = append(res.Failures, f)
			telemetry.Error("ingest.record_failed", map[string]any{
				"index":     i,
				"record_id": f.RecordID,
				"error":     err.Error(),
			})
			continue
		}
		res.Processed++
		if res.Processed%d.progressEvery() == 0 {
			telemetry.Info("ingest.progress", map[string]any{
				"processed": res.Processed,
				"total":     res.Total,
			})
		}
	}

	telemetry.Info("ingest.complete", map[string]any{
		"processed": res.Processed,
		"failed":    len(res.Failures),
		"total":     res.Total,
	})
	return res, nil
}

func (d *Driver) createParents(ctx context.Context, t tenancy, res *Result) error {
	for _, orgID := range t.orgs.items {
		org := documents.Organization{ID: orgID, Name: "Organization " + shortID(orgID)}
		if err := d.Repo.CreateOrganization(ctx, org); err != nil {
			return fmt.Errorf("create organization %s: %w", orgID, err)
		}
		res.Organizations++
	}
	telemetry.Info("ingest.organizations", map[string]any{"count": res.Organizations})

	for _, deptID := range t.depts.items {
		dept := documents.Department{
			ID:             deptID,
			Name:           "Department " + shortID(deptID),
			OrganizationID: d.ownerOf(t, t.deptOrg[deptID]),
		}
		if err := d.Repo.CreateDepartment(ctx, dept); err != nil {
			return fmt.Errorf("create department %s: %w", deptID, err)
		}
		res.Departments++
	}
	telemetry.Info("ingest.departments", map[string]any{"count": res.Departments})

	for _, userID := range t.users.items {
		user := documents.User{
			ID:             userID,
			Email:          "user_" + shortID(userID) + "@example.com",
			Name:           "User " + shortID(userID),
			OrganizationID: d.ownerOf(t, t.userOrg[userID]),
		}
		if err := d.Repo.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("create user %s: %w", userID, err)
		}
		res.Users++
	}
	telemetry.Info("ingest.users", map[string]any{"count": res.Users})
	return nil
}

func (d *Driver) ownerOf(t tenancy, observed string) string {
	if d.Opts.ObservedTenancy && observed != "" {
		return observed
	}
	return t.firstOrg()
}

// loadRecord persists one record. Sub-entities are written only after the
// document row succeeds; a later failure leaves the earlier rows in place.
func (d *Driver) loadRecord(ctx context.Context, raw json.RawMessage) error {
	rec, err := records.Decode(raw)
	if err != nil {
		return err
	}
	n, err := records.Normalize(rec)
	if err != nil {
		return err
	}

	if err := d.Repo.CreateDocument(ctx, n.Document); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	if n.Invoice != nil {
		inv := *n.Invoice
		inv.ID = d.NewID()
		if err := d.Repo.CreateInvoice(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
	}
	if n.Vendor != nil {
		vendor := *n.Vendor
		vendor.ID = d.NewID()
		if err := d.Repo.CreateVendor(ctx, vendor); err != nil {
			return fmt.Errorf("create vendor: %w", err)
		}
	}
	if n.Customer != nil {
		customer := *n.Customer
		customer.ID = d.NewID()
		if err := d.Repo.CreateCustomer(ctx, customer); err != nil {
			return fmt.Errorf("create customer: %w", err)
		}
	}
	if n.Payment != nil {
		payment := *n.Payment
		payment.ID = d.NewID()
		if err := d.Repo.CreatePayment(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
	}
	for _, item := range n.LineItems {
		item.ID = d.NewID()
		if err := d.Repo.CreateLineItem(ctx, item); err != nil {
			return fmt.Errorf("create line item: %w", err)
		}
	}
	return nil
}

func (d *Driver) progressEvery() int {
	if d.Opts.ProgressEvery <= 0 {
		return defaultProgressEvery
	}
	return d.Opts.ProgressEvery
}

func recordID(raw json.RawMessage) string {
	ref, err := records.DecodeRef(raw)
	if err != nil {
		return ""
	}
	return ref.ID
}

// shortID is the placeholder display suffix for generated parent rows.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
