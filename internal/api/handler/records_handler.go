package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/rasmith-dev/propadmin/internal/core/domain"
	"github.com/rasmith-dev/propadmin/internal/records"
)

// RecordsHandler serves the views that go beyond plain CRUD: filtered
// lists, state transitions and user lookup.
type RecordsHandler struct {
	rec *records.Records
}

func NewRecordsHandler(rec *records.Records) *RecordsHandler {
	return &RecordsHandler{rec: rec}
}

// Tenants

func (h *RecordsHandler) TenantsByFlat(c echo.Context) error {
	flatID, err := pathID(c, "flatId")
	if err != nil {
		return err
	}
	out, err := h.rec.Tenants.ByFlat(c.Request().Context(), flatID)
	return reply(c, out, err)
}

func (h *RecordsHandler) ActiveTenants(c echo.Context) error {
	out, err := h.rec.Tenants.Active(c.Request().Context())
	return reply(c, out, err)
}

// ExpiringTenants accepts ?days=N; the API default applies when absent.
func (h *RecordsHandler) ExpiringTenants(c echo.Context) error {
	days := 0
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid days")
		}
		days = n
	}
	out, err := h.rec.Tenants.Expiring(c.Request().Context(), days)
	return reply(c, out, err)
}

// Payments

func (h *RecordsHandler) MarkPaid(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	out, err := h.rec.Payments.MarkPaid(c.Request().Context(), id)
	return reply(c, out, err)
}

func (h *RecordsHandler) PaymentStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	status := domain.PaymentStatus(c.QueryParam("status"))
	if status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "status is required")
	}
	out, err := h.rec.Payments.UpdateStatus(c.Request().Context(), id, status)
	return reply(c, out, err)
}

func (h *RecordsHandler) PaymentsByTenant(c echo.Context) error {
	tenantID, err := pathID(c, "tenantId")
	if err != nil {
		return err
	}
	out, err := h.rec.Payments.ByTenant(c.Request().Context(), tenantID)
	return reply(c, out, err)
}

func (h *RecordsHandler) PaymentsByStatus(c echo.Context) error {
	out, err := h.rec.Payments.ByStatus(c.Request().Context(), domain.PaymentStatus(c.Param("status")))
	return reply(c, out, err)
}

func (h *RecordsHandler) OverduePayments(c echo.Context) error {
	out, err := h.rec.Payments.Overdue(c.Request().Context())
	return reply(c, out, err)
}

func (h *RecordsHandler) PendingPayments(c echo.Context) error {
	out, err := h.rec.Payments.Pending(c.Request().Context())
	return reply(c, out, err)
}

// Complaints

func (h *RecordsHandler) ComplaintStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	status := domain.ComplaintStatus(c.QueryParam("status"))
	if status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "status is required")
	}
	out, err := h.rec.Complaints.UpdateStatus(c.Request().Context(), id, status, c.QueryParam("resolution"))
	return reply(c, out, err)
}

func (h *RecordsHandler) ComplaintsByTenant(c echo.Context) error {
	tenantID, err := pathID(c, "tenantId")
	if err != nil {
		return err
	}
	out, err := h.rec.Complaints.ByTenant(c.Request().Context(), tenantID)
	return reply(c, out, err)
}

func (h *RecordsHandler) OpenComplaints(c echo.Context) error {
	out, err := h.rec.Complaints.Open(c.Request().Context())
	return reply(c, out, err)
}

func (h *RecordsHandler) UrgentComplaints(c echo.Context) error {
	out, err := h.rec.Complaints.Urgent(c.Request().Context())
	return reply(c, out, err)
}

// Users

func (h *RecordsHandler) Users(c echo.Context) error {
	role := domain.Role("")
	if raw := c.QueryParam("role"); raw != "" {
		r, err := domain.ParseRole(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid role %q", raw))
		}
		role = r
	}
	out, err := h.rec.Users.List(c.Request().Context(), role)
	return reply(c, out, err)
}

// reply writes out as JSON unless err is set; errors go to the central
// error handler.
func reply(c echo.Context, out any, err error) error {
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}
