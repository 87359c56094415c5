package handler

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/rasmith-dev/propadmin/internal/core/domain"
	"github.com/rasmith-dev/propadmin/internal/records"
)

// DocumentsHandler relays multipart uploads to the API and streams
// downloads back.
type DocumentsHandler struct {
	docs *records.Documents
}

func NewDocumentsHandler(docs *records.Documents) *DocumentsHandler {
	return &DocumentsHandler{docs: docs}
}

func (h *DocumentsHandler) Mount(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Upload)
	g.GET("/tenant/:tenantId", h.ByTenant)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PUT("/:id/verify", h.Verify)
	g.GET("/:id/download", h.Download)
	g.DELETE("/:id", h.Delete)
}

func (h *DocumentsHandler) List(c echo.Context) error {
	out, err := h.docs.List(c.Request().Context())
	return reply(c, out, err)
}

func (h *DocumentsHandler) ByTenant(c echo.Context) error {
	tenantID, err := pathID(c, "tenantId")
	if err != nil {
		return err
	}
	out, err := h.docs.ByTenant(c.Request().Context(), tenantID)
	return reply(c, out, err)
}

func (h *DocumentsHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	out, err := h.docs.Get(c.Request().Context(), id)
	return reply(c, out, err)
}

func (h *DocumentsHandler) Upload(c echo.Context) error {
	in, err := documentInput(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	out, err := h.docs.Upload(c.Request().Context(), in, records.FileUpload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Content:     f,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

// Update replaces the form fields; the file part is optional.
func (h *DocumentsHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	in, err := documentInput(c)
	if err != nil {
		return err
	}

	var file *records.FileUpload
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return fmt.Errorf("open upload: %w", err)
		}
		defer f.Close()
		file = &records.FileUpload{Name: fh.Filename, ContentType: fh.Header.Get(echo.HeaderContentType), Content: f}
	}

	out, err := h.docs.Update(c.Request().Context(), id, in, file)
	return reply(c, out, err)
}

func (h *DocumentsHandler) Verify(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	verifiedBy, err := queryID(c, "verifiedBy")
	if err != nil {
		return err
	}
	out, err := h.docs.Verify(c.Request().Context(), id, verifiedBy)
	return reply(c, out, err)
}

func (h *DocumentsHandler) Download(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	blob, err := h.docs.Download(c.Request().Context(), id)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": blob.FileName}))
	return c.Blob(http.StatusOK, blob.ContentType, blob.Data)
}

func (h *DocumentsHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.docs.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func documentInput(c echo.Context) (domain.DocumentInput, error) {
	in := domain.DocumentInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Type:        domain.DocumentType(c.FormValue("type")),
	}
	tenantID, err := strconv.ParseInt(c.FormValue("tenantId"), 10, 64)
	if err != nil {
		return in, echo.NewHTTPError(http.StatusBadRequest, "invalid tenantId")
	}
	in.TenantID = tenantID
	if raw := c.FormValue("flatId"); raw != "" {
		flatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return in, echo.NewHTTPError(http.StatusBadRequest, "invalid flatId")
		}
		in.FlatID = flatID
	}
	return in, nil
}
