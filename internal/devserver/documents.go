package devserver

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/rasmith-dev/propadmin/internal/core/domain"
)

const maxUpload = 10 << 20

func (s *Server) listDocuments(c echo.Context) error {
	return c.JSON(http.StatusOK, s.documents(nil))
}

func (s *Server) documentsByTenant(c echo.Context) error {
	tenantID, err := pathID(c, "tenantId")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.documents(func(d documentRow) bool { return d.doc.TenantID == tenantID }))
}

func (s *Server) getDocument(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	s.store.mu.RLock()
	row, ok := s.store.documents.get(id)
	s.store.mu.RUnlock()
	if !ok {
		return notFound("document", id)
	}
	return c.JSON(http.StatusOK, row.doc)
}

func (s *Server) uploadDocument(c echo.Context) error {
	in, err := documentForm(c)
	if err != nil {
		return err
	}
	name, ctype, data, err := formFile(c)
	if err != nil {
		return err
	}
	if data == nil {
		return badRequest("file is required")
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if err := s.checkDocumentRefs(in); err != nil {
		return err
	}
	row := s.store.documents.insert(func(id int64) documentRow {
		doc := documentFrom(domain.Document{ID: id, UploadedAt: s.timestamp()}, in)
		return withFile(documentRow{doc: doc}, name, ctype, data)
	})
	return c.JSON(http.StatusCreated, row.doc)
}

// updateDocument replaces the fields and, when a file part is present,
// the content.
func (s *Server) updateDocument(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	in, err := documentForm(c)
	if err != nil {
		return err
	}
	name, ctype, data, err := formFile(c)
	if err != nil {
		return err
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	row, ok := s.store.documents.get(id)
	if !ok {
		return notFound("document", id)
	}
	if err := s.checkDocumentRefs(in); err != nil {
		return err
	}
	row.doc = documentFrom(row.doc, in)
	if data != nil {
		row = withFile(row, name, ctype, data)
		row.doc.Verified = false
	}
	s.store.documents.put(id, row)
	return c.JSON(http.StatusOK, row.doc)
}

func (s *Server) verifyDocument(c echo.Context) error {
	verifiedBy, err := strconv.ParseInt(c.QueryParam("verifiedBy"), 10, 64)
	if err != nil || verifiedBy <= 0 {
		return badRequest("invalid verifiedBy")
	}
	return modifyRow(s, c, s.store.documents, "document", func(row documentRow) (documentRow, error) {
		if _, ok := s.store.users.get(verifiedBy); !ok {
			return row, badRequest("user not found")
		}
		row.doc.Verified = true
		return row, nil
	})
}

func (s *Server) downloadDocument(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	s.store.mu.RLock()
	row, ok := s.store.documents.get(id)
	s.store.mu.RUnlock()
	if !ok {
		return notFound("document", id)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": row.doc.FileName}))
	return c.Blob(http.StatusOK, row.doc.FileType, row.data)
}

func (s *Server) deleteDocument(c echo.Context) error {
	return deleteRow(s, c, s.store.documents, "document", nil)
}

func (s *Server) documents(keep func(documentRow) bool) []domain.Document {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	rows := s.store.documents.filter(keep)
	out := make([]domain.Document, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.doc)
	}
	return out
}

func (s *Server) checkDocumentRefs(in domain.DocumentInput) error {
	if _, ok := s.store.tenants.get(in.TenantID); !ok {
		return badRequest("tenant not found")
	}
	if in.FlatID > 0 {
		if _, ok := s.store.flats.get(in.FlatID); !ok {
			return badRequest("flat not found")
		}
	}
	return nil
}

func documentForm(c echo.Context) (domain.DocumentInput, error) {
	in := domain.DocumentInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Type:        domain.DocumentType(c.FormValue("type")),
	}
	var err error
	if in.TenantID, err = strconv.ParseInt(c.FormValue("tenantId"), 10, 64); err != nil {
		return in, badRequest("invalid tenantId")
	}
	if raw := c.FormValue("flatId"); raw != "" {
		if in.FlatID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return in, badRequest("invalid flatId")
		}
	}
	if err := c.Validate(&in); err != nil {
		return in, badRequest(err.Error())
	}
	return in, nil
}

// formFile reads the optional "file" part; data is nil when absent.
func formFile(c echo.Context) (name, contentType string, data []byte, err error) {
	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", "", nil, nil
		}
		return "", "", nil, badRequest("invalid multipart form")
	}
	if fh.Size > maxUpload {
		return "", "", nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}
	f, err := fh.Open()
	if err != nil {
		return "", "", nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err = io.ReadAll(f)
	if err != nil {
		return "", "", nil, fmt.Errorf("read upload: %w", err)
	}
	contentType = fh.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return fh.Filename, contentType, data, nil
}

func documentFrom(doc domain.Document, in domain.DocumentInput) domain.Document {
	doc.Title, doc.Description, doc.Type = in.Title, in.Description, in.Type
	doc.TenantID, doc.FlatID = in.TenantID, in.FlatID
	return doc
}

func withFile(row documentRow, name, contentType string, data []byte) documentRow {
	row.data = data
	row.doc.FileName = name
	row.doc.FileType = contentType
	row.doc.FileSize = int64(len(data))
	row.doc.FileURL = "/api/documents/" + strconv.FormatInt(row.doc.ID, 10) + "/download"
	return row
}
