package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasmith-dev/propadmin/internal/infrastructure/storage"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *storage.Memory) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	st := storage.NewMemory()
	c, err := New(srv.URL+"/api", st)
	require.NoError(t, err)
	return c, st
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8080", "/api", "://x"} {
		_, err := New(u, storage.NewMemory())
		assert.Error(t, err, u)
	}
}

func TestDo_AttachesStoredToken(t *testing.T) {
	var gotAuth, gotPath, gotReqID string
	c, st := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.RequestURI()
		gotReqID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusOK)
	})
	st.Seed("tok-1", `{"email":"a@b.com","role":"OWNER"}`)

	_, err := c.Do(context.Background(), Request{
		Method: http.MethodGet,
		Path:   "/tenants/expiring",
		Query:  map[string][]string{"daysThreshold": {"10"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "/api/tenants/expiring?daysThreshold=10", gotPath)
	assert.NotEmpty(t, gotReqID)
}

func TestDo_NoTokenWhenPairIncomplete(t *testing.T) {
	var gotAuth string
	c, st := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	})
	st.Seed("tok-1", "")

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/flats"})
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestDo_AnonymousSkipsToken(t *testing.T) {
	var gotAuth, gotType string
	var gotBody []byte
	c, st := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"new"}`))
	})
	st.Seed("old", `{"email":"a@b.com","role":"OWNER"}`)

	var out struct{ Token string }
	err := c.DoJSON(context.Background(), Request{
		Method:    http.MethodPost,
		Path:      "/auth/signin",
		Body:      map[string]string{"email": "a@b.com"},
		Anonymous: true,
	}, &out)
	require.NoError(t, err)

	assert.Empty(t, gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.JSONEq(t, `{"email":"a@b.com"}`, string(gotBody))
	assert.Equal(t, "new", out.Token)
}

func TestDo_UnauthorizedClearsSessionOnce(t *testing.T) {
	c, st := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	st.Seed("tok-1", `{"email":"a@b.com","role":"OWNER"}`)

	var calls atomic.Int32
	c.OnUnauthorized(UnauthorizedFunc(func(context.Context) { calls.Add(1) }))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/flats"})
			assert.ErrorIs(t, err, ErrUnauthorized)
		}()
	}
	wg.Wait()

	s, _ := st.Load(context.Background())
	assert.True(t, s.Empty())
	assert.EqualValues(t, 1, calls.Load())
}

func TestDo_UnauthorizedKeepsReplacedToken(t *testing.T) {
	var st *storage.Memory
	c, st := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// A newer login lands while the old request is in flight.
		st.Seed("tok-2", `{"email":"a@b.com","role":"OWNER"}`)
		w.WriteHeader(http.StatusUnauthorized)
	})
	st.Seed("tok-1", `{"email":"a@b.com","role":"OWNER"}`)

	var calls atomic.Int32
	c.OnUnauthorized(UnauthorizedFunc(func(context.Context) { calls.Add(1) }))

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/flats"})
	require.ErrorIs(t, err, ErrUnauthorized)

	s, _ := st.Load(context.Background())
	assert.Equal(t, "tok-2", s.Token)
	assert.Zero(t, calls.Load())
}

func TestDo_UnauthorizedHoldsTeardownLock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	st := storage.NewMemory()
	st.Seed("tok-1", `{"email":"a@b.com","role":"OWNER"}`)
	var writes sync.Mutex
	c, err := New(srv.URL, st, WithTeardownLock(&writes))
	require.NoError(t, err)

	var heldDuringHandler bool
	c.OnUnauthorized(UnauthorizedFunc(func(context.Context) {
		if writes.TryLock() {
			writes.Unlock()
			return
		}
		heldDuringHandler = true
	}))

	_, err = c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/flats"})
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, heldDuringHandler)
	assert.True(t, writes.TryLock(), "lock released after teardown")
}

func TestDo_AnonymousUnauthorizedLeavesSession(t *testing.T) {
	c, st := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
	})
	st.Seed("tok-1", `{"email":"a@b.com","role":"OWNER"}`)
	c.OnUnauthorized(UnauthorizedFunc(func(context.Context) { t.Error("handler must not fire") }))

	_, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/auth/signin", Anonymous: true})
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "invalid credentials")

	s, _ := st.Load(context.Background())
	assert.Equal(t, "tok-1", s.Token)
}

func TestDo_StatusErrors(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   error
		msg    string
	}{
		{http.StatusBadRequest, `{"message":"rent must be positive"}`, ErrBadRequest, "rent must be positive"},
		{http.StatusForbidden, ``, ErrForbidden, ""},
		{http.StatusNotFound, `flat not found`, ErrNotFound, "flat not found"},
		{http.StatusConflict, `{"error":"flat has tenants"}`, ErrConflict, "flat has tenants"},
		{http.StatusBadGateway, `<html>bad gateway</html>`, ErrServer, ""},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := c.Do(context.Background(), Request{Method: http.MethodDelete, Path: "/flats/1"})
			require.ErrorIs(t, err, tc.want)
			assert.Equal(t, tc.status, StatusCode(err))

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.msg, apiErr.Message)
		})
	}
}

func TestDo_LongErrorMessageKeepsRunes(t *testing.T) {
	// One ASCII byte first so the limit falls inside a two-byte rune.
	body := "a" + strings.Repeat("é", 150)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(body))
	})

	_, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/flats"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, utf8.ValidString(apiErr.Message))
	assert.LessOrEqual(t, len(apiErr.Message), maxMessageLen)
	assert.True(t, strings.HasPrefix(body, apiErr.Message))
	assert.Len(t, apiErr.Message, maxMessageLen-1)
}

func TestDo_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(base, storage.NewMemory())
	require.NoError(t, err)

	_, err = c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/flats"})
	require.ErrorIs(t, err, ErrTransport)
	assert.Zero(t, StatusCode(err))
}

func TestDoJSON_InvalidBody(t *testing.T) {
	for name, body := range map[string]string{"empty": "", "garbage": "not json"} {
		t.Run(name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			var out map[string]any
			err := c.DoJSON(context.Background(), Request{Method: http.MethodGet, Path: "/flats/1"}, &out)
			require.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestDo_RawBody(t *testing.T) {
	var gotType, gotBody string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	})

	_, err := c.Do(context.Background(), Request{
		Method:      http.MethodPost,
		Path:        "/documents",
		RawBody:     strings.NewReader("raw"),
		ContentType: "text/plain",
		Body:        map[string]string{"ignored": "yes"},
	})
	require.NoError(t, err)
	assert.Equal(t, "text/plain", gotType)
	assert.Equal(t, "raw", gotBody)
}

func TestPing(t *testing.T) {
	c, st := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("ping must not carry the token")
		}
		w.WriteHeader(http.StatusUnauthorized)
	})
	st.Seed("tok-1", `{"email":"a@b.com","role":"OWNER"}`)

	require.NoError(t, c.Ping(context.Background()))
	s, _ := st.Load(context.Background())
	assert.Equal(t, "tok-1", s.Token)
}
