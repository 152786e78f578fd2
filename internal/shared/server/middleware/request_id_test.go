package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func requestIDRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/api/v1/interviews/:id", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c))
	})
	return r
}

func TestRequestIDPropagatesCallerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/interviews/s1", nil)
	req.Header.Set("X-Request-Id", "web-7f3a.2")
	w := httptest.NewRecorder()
	requestIDRouter().ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-Id"); got != "web-7f3a.2" {
		t.Fatalf("expected caller id echoed, got %q", got)
	}
	if w.Body.String() != "web-7f3a.2" {
		t.Fatalf("expected id in context, got %q", w.Body.String())
	}
}

func TestRequestIDReplacesUnsafeHeader(t *testing.T) {
	for _, bad := range []string{"", "a b", "id\r\nX-Evil: 1", strings.Repeat("x", 65)} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/interviews/s1", nil)
		if bad != "" {
			req.Header["X-Request-Id"] = []string{bad}
		}
		w := httptest.NewRecorder()
		requestIDRouter().ServeHTTP(w, req)

		got := w.Header().Get("X-Request-Id")
		if _, err := uuid.Parse(got); err != nil {
			t.Fatalf("header %q: expected minted uuid, got %q", bad, got)
		}
	}
}

func TestRequestIDFromContextNil(t *testing.T) {
	if got := RequestIDFromContext(nil); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}
