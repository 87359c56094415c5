package devserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rasmith-dev/propadmin/internal/core/domain"
)

// Apartments

func (s *Server) listApartments(c echo.Context) error {
	return listRows(s, c, s.store.apartments, nil)
}

func (s *Server) getApartment(c echo.Context) error {
	return getRow(s, c, s.store.apartments, "apartment")
}

func (s *Server) createApartment(c echo.Context) error {
	return createRow(s, c, s.store.apartments, func(id int64, in domain.ApartmentInput) (domain.Apartment, error) {
		return apartmentFrom(id, in), nil
	})
}

func (s *Server) updateApartment(c echo.Context) error {
	return updateRow(s, c, s.store.apartments, "apartment", func(old domain.Apartment, in domain.ApartmentInput) (domain.Apartment, error) {
		return apartmentFrom(old.ID, in), nil
	})
}

func (s *Server) deleteApartment(c echo.Context) error {
	return deleteRow(s, c, s.store.apartments, "apartment", nil)
}

func apartmentFrom(id int64, in domain.ApartmentInput) domain.Apartment {
	status := in.Status
	if status == "" {
		status = domain.ApartmentActive
	}
	return domain.Apartment{
		ID:          id,
		Name:        in.Name,
		Address:     in.Address,
		TotalFloors: in.TotalFloors,
		TotalFlats:  in.TotalFlats,
		ManagerID:   in.ManagerID,
		OwnerID:     in.OwnerID,
		Status:      status,
	}
}

// Flats

func (s *Server) listFlats(c echo.Context) error {
	return listRows(s, c, s.store.flats, nil)
}

func (s *Server) getFlat(c echo.Context) error {
	return getRow(s, c, s.store.flats, "flat")
}

func (s *Server) createFlat(c echo.Context) error {
	return createRow(s, c, s.store.flats, func(id int64, in domain.FlatInput) (domain.Flat, error) {
		return flatFrom(id, in), nil
	})
}

func (s *Server) updateFlat(c echo.Context) error {
	return updateRow(s, c, s.store.flats, "flat", func(old domain.Flat, in domain.FlatInput) (domain.Flat, error) {
		return flatFrom(old.ID, in), nil
	})
}

// deleteFlat refuses while tenants, payments, complaints or documents
// still point at the flat.
func (s *Server) deleteFlat(c echo.Context) error {
	return deleteRow(s, c, s.store.flats, "flat", func(id int64) bool {
		st := s.store
		return st.tenants.any(func(t tenantRow) bool { return t.FlatID == id }) ||
			st.payments.any(func(p domain.Payment) bool { return p.FlatID == id }) ||
			st.complaints.any(func(cm domain.Complaint) bool { return cm.FlatID == id }) ||
			st.documents.any(func(d documentRow) bool { return d.doc.FlatID == id })
	})
}

func flatFrom(id int64, in domain.FlatInput) domain.Flat {
	return domain.Flat{
		ID:         id,
		FlatNumber: in.FlatNumber,
		Floor:      in.Floor,
		Area:       in.Area,
		Rent:       in.Rent,
		Type:       in.Type,
		Status:     in.Status,
	}
}

// Tenants

func (s *Server) listTenants(c echo.Context) error {
	return c.JSON(http.StatusOK, s.tenantViews(nil))
}

func (s *Server) tenantsByFlat(c echo.Context) error {
	flatID, err := pathID(c, "flatId")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.tenantViews(func(t tenantRow) bool { return t.FlatID == flatID }))
}

// activeTenants lists leases that end after today.
func (s *Server) activeTenants(c echo.Context) error {
	today := s.today()
	return c.JSON(http.StatusOK, s.tenantViews(func(t tenantRow) bool {
		end, ok := parseDate(t.LeaseEnd)
		return ok && end.After(today)
	}))
}

// expiringTenants lists leases ending within daysThreshold days (default 30).
func (s *Server) expiringTenants(c echo.Context) error {
	days := 30
	if raw := c.QueryParam("daysThreshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return badRequest("invalid daysThreshold")
		}
		days = n
	}
	today := s.today()
	limit := today.AddDate(0, 0, days)
	return c.JSON(http.StatusOK, s.tenantViews(func(t tenantRow) bool {
		end, ok := parseDate(t.LeaseEnd)
		return ok && !end.Before(today) && !end.After(limit)
	}))
}

func (s *Server) getTenant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	row, ok := s.store.tenants.get(id)
	if !ok {
		return notFound("tenant", id)
	}
	return c.JSON(http.StatusOK, s.tenantView(row))
}

func (s *Server) createTenant(c echo.Context) error {
	var in domain.TenantInput
	if err := bindValid(c, &in); err != nil {
		return err
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if err := s.checkTenant(0, in); err != nil {
		return err
	}
	row := s.store.tenants.insert(func(id int64) tenantRow { return tenantFrom(id, in) })
	return c.JSON(http.StatusCreated, s.tenantView(row))
}

func (s *Server) updateTenant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in domain.TenantInput
	if err := bindValid(c, &in); err != nil {
		return err
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, ok := s.store.tenants.get(id); !ok {
		return notFound("tenant", id)
	}
	if err := s.checkTenant(id, in); err != nil {
		return err
	}
	row := tenantFrom(id, in)
	s.store.tenants.put(id, row)
	return c.JSON(http.StatusOK, s.tenantView(row))
}

func (s *Server) deleteTenant(c echo.Context) error {
	return deleteRow(s, c, s.store.tenants, "tenant", func(id int64) bool {
		st := s.store
		return st.payments.any(func(p domain.Payment) bool { return p.TenantID == id }) ||
			st.complaints.any(func(cm domain.Complaint) bool { return cm.TenantID == id }) ||
			st.documents.any(func(d documentRow) bool { return d.doc.TenantID == id })
	})
}

// checkTenant enforces that user and flat exist and that a user holds at
// most one tenancy. self is the tenancy being updated, 0 on create.
func (s *Server) checkTenant(self int64, in domain.TenantInput) error {
	if _, ok := s.store.users.get(in.UserID); !ok {
		return badRequest("user not found")
	}
	if _, ok := s.store.flats.get(in.FlatID); !ok {
		return badRequest("flat not found")
	}
	if s.store.tenants.any(func(t tenantRow) bool { return t.UserID == in.UserID && t.ID != self }) {
		return badRequest("User already assigned to a tenant")
	}
	start, _ := parseDate(in.LeaseStart)
	end, _ := parseDate(in.LeaseEnd)
	if end.Before(start) {
		return badRequest("leaseEnd must not be before leaseStart")
	}
	return nil
}

func (s *Server) tenantViews(keep func(tenantRow) bool) []domain.Tenant {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	rows := s.store.tenants.filter(keep)
	out := make([]domain.Tenant, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.tenantView(row))
	}
	return out
}

// tenantView joins user and flat; callers hold the store lock.
func (s *Server) tenantView(row tenantRow) domain.Tenant {
	t := domain.Tenant{
		ID:         row.ID,
		User:       domain.TenantUser{ID: row.UserID},
		Flat:       domain.TenantFlat{ID: row.FlatID},
		LeaseStart: row.LeaseStart,
		LeaseEnd:   row.LeaseEnd,
		Phone:      row.Phone,
	}
	if u, ok := s.store.users.get(row.UserID); ok {
		t.User.Username, t.User.Email = u.Username, u.Email
	}
	if f, ok := s.store.flats.get(row.FlatID); ok {
		t.Flat.FlatNumber = f.FlatNumber
	}
	return t
}

func tenantFrom(id int64, in domain.TenantInput) tenantRow {
	return tenantRow{
		ID:         id,
		UserID:     in.UserID,
		FlatID:     in.FlatID,
		LeaseStart: in.LeaseStart,
		LeaseEnd:   in.LeaseEnd,
		Phone:      in.Phone,
	}
}

// Payments

func (s *Server) listPayments(c echo.Context) error {
	return listRows(s, c, s.store.payments, nil)
}

func (s *Server) pendingPayments(c echo.Context) error {
	return listRows(s, c, s.store.payments, func(p domain.Payment) bool { return p.Status == domain.PaymentPending })
}

// overduePayments lists pending payments whose due date has passed.
func (s *Server) overduePayments(c echo.Context) error {
	now := s.now()
	return listRows(s, c, s.store.payments, func(p domain.Payment) bool {
		due, ok := parseDate(p.DueDate)
		return p.Status == domain.PaymentPending && ok && due.Before(now)
	})
}

func (s *Server) paymentsByStatus(c echo.Context) error {
	status := domain.PaymentStatus(strings.ToUpper(c.Param("status")))
	if !validPaymentStatus(status) {
		return badRequest("invalid status")
	}
	return listRows(s, c, s.store.payments, func(p domain.Payment) bool { return p.Status == status })
}

func (s *Server) paymentsByTenant(c echo.Context) error {
	tenantID, err := pathID(c, "tenantId")
	if err != nil {
		return err
	}
	return listRows(s, c, s.store.payments, func(p domain.Payment) bool { return p.TenantID == tenantID })
}

func (s *Server) getPayment(c echo.Context) error {
	return getRow(s, c, s.store.payments, "payment")
}

func (s *Server) createPayment(c echo.Context) error {
	return createRow(s, c, s.store.payments, func(id int64, in domain.PaymentInput) (domain.Payment, error) {
		if err := s.checkRefs(in.TenantID, in.FlatID); err != nil {
			return domain.Payment{}, err
		}
		return s.paymentFrom(domain.Payment{ID: id}, in), nil
	})
}

func (s *Server) updatePayment(c echo.Context) error {
	return updateRow(s, c, s.store.payments, "payment", func(old domain.Payment, in domain.PaymentInput) (domain.Payment, error) {
		if err := s.checkRefs(in.TenantID, in.FlatID); err != nil {
			return domain.Payment{}, err
		}
		return s.paymentFrom(old, in), nil
	})
}

func (s *Server) setPaymentStatus(c echo.Context) error {
	status := domain.PaymentStatus(strings.ToUpper(c.QueryParam("status")))
	if !validPaymentStatus(status) {
		return badRequest("invalid status")
	}
	return modifyRow(s, c, s.store.payments, "payment", func(p domain.Payment) (domain.Payment, error) {
		p.Status = status
		if status == domain.PaymentCompleted {
			p.PaymentDate = s.timestamp()
		}
		return p, nil
	})
}

// markPaid completes the payment and stamps a transaction id.
func (s *Server) markPaid(c echo.Context) error {
	return modifyRow(s, c, s.store.payments, "payment", func(p domain.Payment) (domain.Payment, error) {
		p.Status = domain.PaymentCompleted
		p.PaymentDate = s.timestamp()
		if p.TransactionID == "" {
			p.TransactionID = uuid.NewString()
		}
		return p, nil
	})
}

func (s *Server) deletePayment(c echo.Context) error {
	return deleteRow(s, c, s.store.payments, "payment", nil)
}

func (s *Server) paymentFrom(p domain.Payment, in domain.PaymentInput) domain.Payment {
	p.TenantID, p.FlatID = in.TenantID, in.FlatID
	p.Amount, p.Type = in.Amount, in.Type
	p.DueDate, p.Description = in.DueDate, in.Description
	switch {
	case in.Status != "":
		p.Status = in.Status
	case p.Status == "":
		p.Status = domain.PaymentPending
	}
	if p.Status == domain.PaymentCompleted && p.PaymentDate == "" {
		p.PaymentDate = s.timestamp()
	}
	return p
}

func validPaymentStatus(s domain.PaymentStatus) bool {
	switch s {
	case domain.PaymentPending, domain.PaymentCompleted, domain.PaymentOverdue,
		domain.PaymentFailed, domain.PaymentRefunded, domain.PaymentCancelled:
		return true
	}
	return false
}

// Complaints

func (s *Server) listComplaints(c echo.Context) error {
	return listRows(s, c, s.store.complaints, nil)
}

func (s *Server) openComplaints(c echo.Context) error {
	return listRows(s, c, s.store.complaints, func(cm domain.Complaint) bool { return cm.Status == domain.ComplaintOpen })
}

func (s *Server) urgentComplaints(c echo.Context) error {
	return listRows(s, c, s.store.complaints, func(cm domain.Complaint) bool { return cm.Priority == domain.PriorityUrgent })
}

func (s *Server) complaintsByTenant(c echo.Context) error {
	tenantID, err := pathID(c, "tenantId")
	if err != nil {
		return err
	}
	return listRows(s, c, s.store.complaints, func(cm domain.Complaint) bool { return cm.TenantID == tenantID })
}

func (s *Server) getComplaint(c echo.Context) error {
	return getRow(s, c, s.store.complaints, "complaint")
}

func (s *Server) createComplaint(c echo.Context) error {
	return createRow(s, c, s.store.complaints, func(id int64, in domain.ComplaintInput) (domain.Complaint, error) {
		if err := s.checkRefs(in.TenantID, in.FlatID); err != nil {
			return domain.Complaint{}, err
		}
		cm := domain.Complaint{
			ID:        id,
			Status:    domain.ComplaintOpen,
			Priority:  domain.PriorityMedium,
			CreatedAt: s.timestamp(),
		}
		return s.complaintFrom(cm, in), nil
	})
}

func (s *Server) updateComplaint(c echo.Context) error {
	return updateRow(s, c, s.store.complaints, "complaint", func(old domain.Complaint, in domain.ComplaintInput) (domain.Complaint, error) {
		if err := s.checkRefs(in.TenantID, in.FlatID); err != nil {
			return domain.Complaint{}, err
		}
		return s.complaintFrom(old, in), nil
	})
}

// setComplaintStatus records the resolution when the status is RESOLVED.
func (s *Server) setComplaintStatus(c echo.Context) error {
	status := domain.ComplaintStatus(strings.ToUpper(c.QueryParam("status")))
	switch status {
	case domain.ComplaintOpen, domain.ComplaintInProgress, domain.ComplaintResolved, domain.ComplaintClosed:
	default:
		return badRequest("invalid status")
	}
	resolution := c.QueryParam("resolution")
	return modifyRow(s, c, s.store.complaints, "complaint", func(cm domain.Complaint) (domain.Complaint, error) {
		return s.withStatus(cm, status, resolution), nil
	})
}

func (s *Server) deleteComplaint(c echo.Context) error {
	return deleteRow(s, c, s.store.complaints, "complaint", nil)
}

func (s *Server) complaintFrom(cm domain.Complaint, in domain.ComplaintInput) domain.Complaint {
	cm.TenantID, cm.FlatID = in.TenantID, in.FlatID
	cm.Title, cm.Description = in.Title, in.Description
	if in.Priority != "" {
		cm.Priority = in.Priority
	}
	if in.Status != "" && in.Status != cm.Status {
		cm = s.withStatus(cm, in.Status, cm.Resolution)
	}
	return cm
}

func (s *Server) withStatus(cm domain.Complaint, status domain.ComplaintStatus, resolution string) domain.Complaint {
	cm.Status = status
	switch status {
	case domain.ComplaintResolved:
		cm.Resolution = resolution
		cm.ResolvedAt = s.timestamp()
	case domain.ComplaintClosed:
		if cm.ResolvedAt == "" {
			cm.ResolvedAt = s.timestamp()
		}
	default:
		cm.ResolvedAt = ""
	}
	return cm
}

// checkRefs requires the tenant and flat a record points at to exist.
// Callers hold the store lock.
func (s *Server) checkRefs(tenantID, flatID int64) error {
	if _, ok := s.store.tenants.get(tenantID); !ok {
		return badRequest("tenant not found")
	}
	if _, ok := s.store.flats.get(flatID); !ok {
		return badRequest("flat not found")
	}
	return nil
}

// parseDate reads the date part of an ISO date or date-time.
func parseDate(s string) (time.Time, bool) {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	return t, err == nil
}
