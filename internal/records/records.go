package records

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rasmith-dev/propadmin/internal/apiclient"
	"github.com/rasmith-dev/propadmin/internal/core/domain"
)

// Records groups every accessor over one client.
type Records struct {
	Auth       *Auth
	Apartments *Apartments
	Flats      *Flats
	Tenants    *Tenants
	Payments   *Payments
	Complaints *Complaints
	Documents  *Documents
	Users      *Users
}

func New(doer Doer, v Validator) *Records {
	return &Records{
		Auth:       &Auth{doer: doer},
		Apartments: &Apartments{newResource[domain.Apartment, domain.ApartmentInput](doer, v, "/apartments")},
		Flats:      &Flats{newResource[domain.Flat, domain.FlatInput](doer, v, "/flats")},
		Tenants:    &Tenants{newResource[domain.Tenant, domain.TenantInput](doer, v, "/tenants")},
		Payments:   &Payments{newResource[domain.Payment, domain.PaymentInput](doer, v, "/payments")},
		Complaints: &Complaints{newResource[domain.Complaint, domain.ComplaintInput](doer, v, "/complaints")},
		Documents:  newDocuments(doer, v),
		Users:      &Users{doer: doer},
	}
}

type Apartments struct {
	Resource[domain.Apartment, domain.ApartmentInput]
}

type Flats struct {
	Resource[domain.Flat, domain.FlatInput]
}

type Tenants struct {
	Resource[domain.Tenant, domain.TenantInput]
}

func (t *Tenants) ByFlat(ctx context.Context, flatID int64) ([]domain.Tenant, error) {
	if err := checkID(flatID); err != nil {
		return nil, err
	}
	return t.list(ctx, "/flat"+idPath(flatID), nil)
}

func (t *Tenants) Active(ctx context.Context) ([]domain.Tenant, error) {
	return t.list(ctx, "/active", nil)
}

// Expiring lists tenants whose lease ends within days. The API defaults to 30.
func (t *Tenants) Expiring(ctx context.Context, days int) ([]domain.Tenant, error) {
	var q url.Values
	if days > 0 {
		q = url.Values{"daysThreshold": {strconv.Itoa(days)}}
	}
	return t.list(ctx, "/expiring", q)
}

type Payments struct {
	Resource[domain.Payment, domain.PaymentInput]
}

// MarkPaid moves a payment to COMPLETED and stamps its payment date.
func (p *Payments) MarkPaid(ctx context.Context, id int64) (*domain.Payment, error) {
	return p.act(ctx, id, "mark-paid", nil)
}

func (p *Payments) UpdateStatus(ctx context.Context, id int64, status domain.PaymentStatus) (*domain.Payment, error) {
	return p.act(ctx, id, "status", url.Values{"status": {string(status)}})
}

func (p *Payments) ByTenant(ctx context.Context, tenantID int64) ([]domain.Payment, error) {
	if err := checkID(tenantID); err != nil {
		return nil, err
	}
	return p.list(ctx, "/tenant"+idPath(tenantID), nil)
}

func (p *Payments) ByStatus(ctx context.Context, status domain.PaymentStatus) ([]domain.Payment, error) {
	return p.list(ctx, "/status/"+url.PathEscape(string(status)), nil)
}

func (p *Payments) Overdue(ctx context.Context) ([]domain.Payment, error) {
	return p.list(ctx, "/overdue", nil)
}

func (p *Payments) Pending(ctx context.Context) ([]domain.Payment, error) {
	return p.list(ctx, "/pending", nil)
}

type Complaints struct {
	Resource[domain.Complaint, domain.ComplaintInput]
}

// UpdateStatus changes a complaint's status; resolution is optional.
func (c *Complaints) UpdateStatus(ctx context.Context, id int64, status domain.ComplaintStatus, resolution string) (*domain.Complaint, error) {
	q := url.Values{"status": {string(status)}}
	if resolution != "" {
		q.Set("resolution", resolution)
	}
	return c.act(ctx, id, "status", q)
}

func (c *Complaints) ByTenant(ctx context.Context, tenantID int64) ([]domain.Complaint, error) {
	if err := checkID(tenantID); err != nil {
		return nil, err
	}
	return c.list(ctx, "/tenant"+idPath(tenantID), nil)
}

func (c *Complaints) Open(ctx context.Context) ([]domain.Complaint, error) {
	return c.list(ctx, "/open", nil)
}

func (c *Complaints) Urgent(ctx context.Context) ([]domain.Complaint, error) {
	return c.list(ctx, "/urgent", nil)
}

type Users struct {
	doer Doer
}

// List returns user accounts, optionally filtered by role.
func (u *Users) List(ctx context.Context, role domain.Role) ([]domain.UserSummary, error) {
	var q url.Values
	if role != "" {
		q = url.Values{"role": {string(role)}}
	}
	out := []domain.UserSummary{}
	if err := u.doer.DoJSON(ctx, apiclient.Request{Method: http.MethodGet, Path: "/users", Query: q}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
