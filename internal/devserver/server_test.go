package devserver

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasmith-dev/propadmin/internal/core/domain"
)

type fixture struct {
	t   *testing.T
	srv *Server
	now time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	srv, err := New(Config{
		JWTSecret:     "test-secret",
		TokenTTL:      time.Hour,
		AdminEmail:    "admin@test.local",
		AdminPassword: "admin123",
	}, zerolog.Nop(), WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return &fixture{t: t, srv: srv, now: now}
}

func (f *fixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) signIn(email, password string) string {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/api/auth/signin", "", domain.Credential{Email: email, Password: password})
	require.Equal(f.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp domain.AuthResponse
	require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func (f *fixture) create(token, path string, body any, out any) {
	f.t.Helper()
	rec := f.do(http.MethodPost, path, token, body)
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), out))
}

func (f *fixture) date(days int) string {
	return f.now.AddDate(0, 0, days).Format(dateLayout)
}

func TestSignIn(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/auth/signin", "", domain.Credential{Email: "admin@test.local", Password: "admin123"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp domain.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Bearer", resp.Type)
	assert.Equal(t, "ROLE_OWNER", resp.Role)

	rec = f.do(http.MethodPost, "/api/auth/signin", "", domain.Credential{Email: "admin@test.local", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	in := domain.SignUp{Username: "tina", Email: "tina@test.local", Password: "secret1"}

	rec := f.do(http.MethodPost, "/api/auth/register", "", in)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp domain.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ROLE_TENANT", resp.Role)

	rec = f.do(http.MethodPost, "/api/auth/register", "", in)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/auth/register", "", domain.SignUp{Username: "x", Email: "bad", Password: "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateAndRevoke(t *testing.T) {
	f := newFixture(t)
	token := f.signIn("admin@test.local", "admin123")

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/auth/validate", "", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/auth/validate", token, nil).Code)

	f.srv.RevokeSessions()
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/auth/validate", token, nil).Code)
}

func TestApartments_RequireStaff(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPost, "/api/auth/register", "", domain.SignUp{Username: "tina", Email: "tina@test.local", Password: "secret1"})
	tenantToken := f.signIn("tina@test.local", "secret1")
	ownerToken := f.signIn("admin@test.local", "admin123")

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/apartments", tenantToken, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/apartments", ownerToken, nil).Code)
}

func TestDeleteFlat_WithTenantConflicts(t *testing.T) {
	f := newFixture(t)
	token := f.signIn("admin@test.local", "admin123")

	var flat domain.Flat
	f.create(token, "/api/flats", domain.FlatInput{
		FlatNumber: "A-101", Floor: 1, Area: 55, Rent: 900,
		Type: domain.FlatOneBHK, Status: domain.FlatVacant,
	}, &flat)

	var tenant domain.Tenant
	f.create(token, "/api/tenants", domain.TenantInput{
		UserID: 1, FlatID: flat.ID, LeaseStart: f.date(-30), LeaseEnd: f.date(10), Phone: "555-0100",
	}, &tenant)
	assert.Equal(t, "A-101", tenant.Flat.FlatNumber)
	assert.Equal(t, "admin@test.local", tenant.User.Email)

	rec := f.do(http.MethodDelete, "/api/flats/1", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodGet, "/api/flats", token, nil)
	var flats []domain.Flat
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flats))
	assert.Len(t, flats, 1)

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/api/tenants/1", token, nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/api/flats/1", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/flats/1", token, nil).Code)
}

func TestTenants_ExpiringAndActive(t *testing.T) {
	f := newFixture(t)
	token := f.signIn("admin@test.local", "admin123")
	f.do(http.MethodPost, "/api/auth/register", "", domain.SignUp{Username: "tina", Email: "tina@test.local", Password: "secret1"})

	var flat domain.Flat
	f.create(token, "/api/flats", domain.FlatInput{
		FlatNumber: "B-2", Area: 40, Type: domain.FlatOneBHK, Status: domain.FlatOccupied,
	}, &flat)
	var soon, later domain.Tenant
	f.create(token, "/api/tenants", domain.TenantInput{
		UserID: 1, FlatID: flat.ID, LeaseStart: f.date(-100), LeaseEnd: f.date(5), Phone: "1",
	}, &soon)
	f.create(token, "/api/tenants", domain.TenantInput{
		UserID: 2, FlatID: flat.ID, LeaseStart: f.date(-100), LeaseEnd: f.date(60), Phone: "2",
	}, &later)

	var got []domain.Tenant
	rec := f.do(http.MethodGet, "/api/tenants/expiring?daysThreshold=10", token, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, soon.ID, got[0].ID)

	rec = f.do(http.MethodGet, "/api/tenants/active", token, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)

	// A user holds one tenancy at most.
	rec = f.do(http.MethodPost, "/api/tenants", token, domain.TenantInput{
		UserID: 2, FlatID: flat.ID, LeaseStart: f.date(0), LeaseEnd: f.date(30), Phone: "3",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPayments_MarkPaidAndOverdue(t *testing.T) {
	f := newFixture(t)
	token := f.signIn("admin@test.local", "admin123")

	var flat domain.Flat
	f.create(token, "/api/flats", domain.FlatInput{
		FlatNumber: "C-3", Area: 70, Type: domain.FlatTwoBHK, Status: domain.FlatOccupied,
	}, &flat)
	var tenant domain.Tenant
	f.create(token, "/api/tenants", domain.TenantInput{
		UserID: 1, FlatID: flat.ID, LeaseStart: f.date(-10), LeaseEnd: f.date(300), Phone: "1",
	}, &tenant)

	var late, future domain.Payment
	f.create(token, "/api/payments", domain.PaymentInput{
		TenantID: tenant.ID, FlatID: flat.ID, Amount: 900, Type: domain.PaymentRent, DueDate: f.date(-3) + "T00:00:00",
	}, &late)
	f.create(token, "/api/payments", domain.PaymentInput{
		TenantID: tenant.ID, FlatID: flat.ID, Amount: 900, Type: domain.PaymentRent, DueDate: f.date(27) + "T00:00:00",
	}, &future)
	assert.Equal(t, domain.PaymentPending, late.Status)

	var overdue []domain.Payment
	rec := f.do(http.MethodGet, "/api/payments/overdue", token, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &overdue))
	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].ID)

	rec = f.do(http.MethodPut, "/api/payments/1/mark-paid", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var paid domain.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &paid))
	assert.Equal(t, domain.PaymentCompleted, paid.Status)
	assert.NotEmpty(t, paid.TransactionID)
	assert.Equal(t, f.now.Format(dateTimeLayout), paid.PaymentDate)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPut, "/api/payments/2/status?status=LOST", token, nil).Code)
}

func TestComplaints_Status(t *testing.T) {
	f := newFixture(t)
	token := f.signIn("admin@test.local", "admin123")

	var flat domain.Flat
	f.create(token, "/api/flats", domain.FlatInput{
		FlatNumber: "D-4", Area: 30, Type: domain.FlatOneBHK, Status: domain.FlatOccupied,
	}, &flat)
	var tenant domain.Tenant
	f.create(token, "/api/tenants", domain.TenantInput{
		UserID: 1, FlatID: flat.ID, LeaseStart: f.date(-10), LeaseEnd: f.date(300), Phone: "1",
	}, &tenant)
	var cm domain.Complaint
	f.create(token, "/api/complaints", domain.ComplaintInput{
		TenantID: tenant.ID, FlatID: flat.ID, Title: "Leak", Description: "Kitchen tap", Priority: domain.PriorityUrgent,
	}, &cm)
	assert.Equal(t, domain.ComplaintOpen, cm.Status)

	rec := f.do(http.MethodPut, "/api/complaints/1/status?status=RESOLVED&resolution=replaced+washer", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cm))
	assert.Equal(t, domain.ComplaintResolved, cm.Status)
	assert.Equal(t, "replaced washer", cm.Resolution)
	assert.NotEmpty(t, cm.ResolvedAt)

	var open []domain.Complaint
	rec = f.do(http.MethodGet, "/api/complaints/open", token, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &open))
	assert.Empty(t, open)
}

func TestDocuments_UploadDownload(t *testing.T) {
	f := newFixture(t)
	token := f.signIn("admin@test.local", "admin123")

	var flat domain.Flat
	f.create(token, "/api/flats", domain.FlatInput{
		FlatNumber: "E-5", Area: 30, Type: domain.FlatOneBHK, Status: domain.FlatOccupied,
	}, &flat)
	var tenant domain.Tenant
	f.create(token, "/api/tenants", domain.TenantInput{
		UserID: 1, FlatID: flat.ID, LeaseStart: f.date(-10), LeaseEnd: f.date(300), Phone: "1",
	}, &tenant)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("title", "Lease"))
	require.NoError(t, w.WriteField("type", "LEASE_AGREEMENT"))
	require.NoError(t, w.WriteField("tenantId", "1"))
	part, err := w.CreateFormFile("file", "lease.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var doc domain.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "lease.pdf", doc.FileName)
	assert.EqualValues(t, 8, doc.FileSize)

	rec = f.do(http.MethodGet, "/api/documents/1/download", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.4", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename=lease.pdf`)

	// The document now references the flat's tenant.
	assert.Equal(t, http.StatusConflict, f.do(http.MethodDelete, "/api/tenants/1", token, nil).Code)
}
