package records

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/rasmith-dev/propadmin/internal/apiclient"
	"github.com/rasmith-dev/propadmin/internal/core/domain"
)

// FileUpload is the file part of a document form.
type FileUpload struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// Documents manages tenant documents. Create and update are multipart forms;
// Download returns the raw bytes.
type Documents struct {
	doer Doer
	base Resource[domain.Document, domain.DocumentInput]
}

func newDocuments(doer Doer, v Validator) *Documents {
	return &Documents{
		doer: doer,
		base: newResource[domain.Document, domain.DocumentInput](doer, v, "/documents"),
	}
}

func (d *Documents) List(ctx context.Context) ([]domain.Document, error) {
	return d.base.List(ctx)
}

func (d *Documents) Get(ctx context.Context, id int64) (*domain.Document, error) {
	return d.base.Get(ctx, id)
}

func (d *Documents) Delete(ctx context.Context, id int64) error {
	return d.base.Delete(ctx, id)
}

func (d *Documents) ByTenant(ctx context.Context, tenantID int64) ([]domain.Document, error) {
	if err := checkID(tenantID); err != nil {
		return nil, err
	}
	return d.base.list(ctx, "/tenant"+idPath(tenantID), nil)
}

// Upload creates a document from file and the form fields in in.
func (d *Documents) Upload(ctx context.Context, in domain.DocumentInput, file FileUpload) (*domain.Document, error) {
	if file.Content == nil || file.Name == "" {
		return nil, fmt.Errorf("%w: file is required", domain.ErrInvalidInput)
	}
	return d.send(ctx, http.MethodPost, "/documents", in, &file)
}

// Update replaces the document's fields; file may be nil to keep the
// current content.
func (d *Documents) Update(ctx context.Context, id int64, in domain.DocumentInput, file *FileUpload) (*domain.Document, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return d.send(ctx, http.MethodPut, "/documents"+idPath(id), in, file)
}

// Verify marks the document as checked by the user verifiedBy.
func (d *Documents) Verify(ctx context.Context, id, verifiedBy int64) (*domain.Document, error) {
	if err := checkID(verifiedBy); err != nil {
		return nil, err
	}
	return d.base.act(ctx, id, "verify", url.Values{"verifiedBy": {strconv.FormatInt(verifiedBy, 10)}})
}

// Download fetches the stored file.
func (d *Documents) Download(ctx context.Context, id int64) (*domain.Blob, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	resp, err := d.doer.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/documents" + idPath(id) + "/download"})
	if err != nil {
		return nil, err
	}
	blob := &domain.Blob{
		ContentType: resp.Header.Get("Content-Type"),
		Data:        resp.Body,
	}
	if blob.ContentType == "" {
		blob.ContentType = "application/octet-stream"
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		blob.FileName = params["filename"]
	}
	if blob.FileName == "" {
		blob.FileName = fmt.Sprintf("document-%d", id)
	}
	return blob, nil
}

func (d *Documents) send(ctx context.Context, method, path string, in domain.DocumentInput, file *FileUpload) (*domain.Document, error) {
	if err := d.base.check(in); err != nil {
		return nil, err
	}
	body, contentType, err := documentForm(in, file)
	if err != nil {
		return nil, err
	}
	var out domain.Document
	req := apiclient.Request{Method: method, Path: path, RawBody: body, ContentType: contentType}
	if err := d.doer.DoJSON(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func documentForm(in domain.DocumentInput, file *FileUpload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"title", in.Title},
		{"description", in.Description},
		{"type", string(in.Type)},
		{"tenantId", strconv.FormatInt(in.TenantID, 10)},
	}
	if in.FlatID > 0 {
		fields = append(fields, [2]string{"flatId", strconv.FormatInt(in.FlatID, 10)})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("document form: %w", err)
		}
	}

	if file != nil && file.Content != nil {
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{"name": "file", "filename": file.Name}))
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("document form: %w", err)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, "", fmt.Errorf("document form: copy file: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("document form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
