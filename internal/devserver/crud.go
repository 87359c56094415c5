package devserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Generic handlers over one table. build and keep run under the store
// lock, so they may consult other tables.

func listRows[T any](s *Server, c echo.Context, t *table[T], keep func(T) bool) error {
	s.store.mu.RLock()
	out := t.filter(keep)
	s.store.mu.RUnlock()
	return c.JSON(http.StatusOK, out)
}

func getRow[T any](s *Server, c echo.Context, t *table[T], kind string) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	s.store.mu.RLock()
	row, ok := t.get(id)
	s.store.mu.RUnlock()
	if !ok {
		return notFound(kind, id)
	}
	return c.JSON(http.StatusOK, row)
}

func createRow[T any, In any](s *Server, c echo.Context, t *table[T], build func(id int64, in In) (T, error)) error {
	var in In
	if err := bindValid(c, &in); err != nil {
		return err
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	row, err := build(t.next+1, in)
	if err != nil {
		return err
	}
	t.insert(func(int64) T { return row })
	return c.JSON(http.StatusCreated, row)
}

func updateRow[T any, In any](s *Server, c echo.Context, t *table[T], kind string, build func(old T, in In) (T, error)) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in In
	if err := bindValid(c, &in); err != nil {
		return err
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	old, ok := t.get(id)
	if !ok {
		return notFound(kind, id)
	}
	row, err := build(old, in)
	if err != nil {
		return err
	}
	t.put(id, row)
	return c.JSON(http.StatusOK, row)
}

// modifyRow applies a body-less state change such as mark-paid.
func modifyRow[T any](s *Server, c echo.Context, t *table[T], kind string, change func(row T) (T, error)) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	row, ok := t.get(id)
	if !ok {
		return notFound(kind, id)
	}
	row, err = change(row)
	if err != nil {
		return err
	}
	t.put(id, row)
	return c.JSON(http.StatusOK, row)
}

// deleteRow answers 409 when referenced reports other rows pointing at id.
func deleteRow[T any](s *Server, c echo.Context, t *table[T], kind string, referenced func(id int64) bool) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, ok := t.get(id); !ok {
		return notFound(kind, id)
	}
	if referenced != nil && referenced(id) {
		return echo.NewHTTPError(http.StatusConflict, kind+" has dependent records")
	}
	t.remove(id)
	return c.NoContent(http.StatusNoContent)
}

func bindValid(c echo.Context, in any) error {
	if err := c.Bind(in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func notFound(kind string, id int64) error {
	return echo.NewHTTPError(http.StatusNotFound, kind+" not found with id: "+strconv.FormatInt(id, 10))
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}
