// Package records exposes typed accessors for the API's resources. Inputs
// are validated before dispatch; failures from the client propagate
// unchanged except that a 409 on delete also matches domain.ErrHasDependents.
package records

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rasmith-dev/propadmin/internal/apiclient"
	"github.com/rasmith-dev/propadmin/internal/core/domain"
)

// Doer is the part of apiclient.Client the accessors need.
type Doer interface {
	Do(ctx context.Context, req apiclient.Request) (*apiclient.Response, error)
	DoJSON(ctx context.Context, req apiclient.Request, out any) error
}

// Validator checks input structs; *validation.Validator satisfies it.
type Validator interface {
	Validate(i any) error
}

// Resource is the CRUD envelope shared by every record type. T is the record
// the API returns, In the shape sent on create and update.
type Resource[T any, In any] struct {
	doer     Doer
	validate Validator
	path     string
}

func newResource[T any, In any](doer Doer, v Validator, path string) Resource[T, In] {
	return Resource[T, In]{doer: doer, validate: v, path: path}
}

func (r Resource[T, In]) List(ctx context.Context) ([]T, error) {
	return r.list(ctx, "", nil)
}

func (r Resource[T, In]) Get(ctx context.Context, id int64) (*T, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var out T
	if err := r.doer.DoJSON(ctx, apiclient.Request{Method: http.MethodGet, Path: r.item(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r Resource[T, In]) Create(ctx context.Context, in In) (*T, error) {
	if err := r.check(in); err != nil {
		return nil, err
	}
	var out T
	if err := r.doer.DoJSON(ctx, apiclient.Request{Method: http.MethodPost, Path: r.path, Body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r Resource[T, In]) Update(ctx context.Context, id int64, in In) (*T, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	if err := r.check(in); err != nil {
		return nil, err
	}
	var out T
	if err := r.doer.DoJSON(ctx, apiclient.Request{Method: http.MethodPut, Path: r.item(id), Body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the record. A 409 answer means other records still
// reference it; the error then matches both apiclient.ErrConflict and
// domain.ErrHasDependents.
func (r Resource[T, In]) Delete(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	_, err := r.doer.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: r.item(id)})
	if errors.Is(err, apiclient.ErrConflict) {
		return fmt.Errorf("%w: %w", domain.ErrHasDependents, err)
	}
	return err
}

func (r Resource[T, In]) list(ctx context.Context, sub string, q url.Values) ([]T, error) {
	out := []T{}
	req := apiclient.Request{Method: http.MethodGet, Path: r.path + sub, Query: q}
	if err := r.doer.DoJSON(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// act sends a body-less state transition such as mark-paid.
func (r Resource[T, In]) act(ctx context.Context, id int64, action string, q url.Values) (*T, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var out T
	req := apiclient.Request{Method: http.MethodPut, Path: r.item(id) + "/" + action, Query: q}
	if err := r.doer.DoJSON(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r Resource[T, In]) item(id int64) string {
	return r.path + "/" + strconv.FormatInt(id, 10)
}

func (r Resource[T, In]) check(in any) error {
	if r.validate == nil {
		return nil
	}
	if err := r.validate.Validate(in); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func checkID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: id must be positive, got %d", domain.ErrInvalidInput, id)
	}
	return nil
}

func idPath(id int64) string {
	return "/" + strconv.FormatInt(id, 10)
}
