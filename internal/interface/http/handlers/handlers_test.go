package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCompositeHealthChecker(t *testing.T) {
	checker := NewCompositeHealthChecker("v1")

	status := checker.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, "No health checks registered", status.Message)

	checker.AddCheck("database", func(context.Context) error { return nil })
	checker.AddCheck("redis", func(context.Context) error { return errors.New("connection refused") })
	checker.AddCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	checker.SetTimeout(20 * time.Millisecond)

	status = checker.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.Equal(t, "Some checks failed: redis, slow", status.Message)
	assert.True(t, status.Checks["database"].Healthy)
	assert.Equal(t, "connection refused", status.Checks["redis"].Message)
	assert.Equal(t, "v1", status.Version)
}

func TestAPIKeyAuth(t *testing.T) {
	_, err := NewAPIKeyAuth("X-API-Key", []string{"not-a-hash"})
	assert.Error(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("key-1"), bcrypt.MinCost)
	require.NoError(t, err)
	auth, err := NewAPIKeyAuth("X-API-Key", []string{string(hash)})
	require.NoError(t, err)

	assert.True(t, auth.IsValid("key-1"))
	assert.False(t, auth.IsValid("key-2"))
	assert.False(t, auth.IsValid(""))

	h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_api_key")

	req.Header.Set("X-API-Key", "key-1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHashKey(t *testing.T) {
	_, err := HashKey("  ")
	assert.Error(t, err)

	hash, err := HashKey("key-1")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("key-1")))
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	h := RequestSizeLimitMiddleware(4)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ok")))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) MiddlewareFunc {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := ChainHandler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("a"), mw("b"), SecurityHeadersMiddleware)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "handler"}, order)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
