package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tally-backend/internal/platform/ctxutil"
)

func TestRequestContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen *ctxutil.Request
	r := gin.New()
	r.Use(RequestContext())
	r.GET("/api/count", func(c *gin.Context) {
		seen = ctxutil.GetRequest(c.Request.Context())
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"generated", "", false},
		{"caller supplied", "connector-retry-42", true},
		{"oversized", strings.Repeat("x", 200), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/count", nil)
			if tt.header != "" {
				req.Header.Set(headerRequestID, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if seen == nil || seen.ID == "" {
				t.Fatalf("request id not attached")
			}
			if got := w.Header().Get(headerRequestID); got != seen.ID {
				t.Fatalf("response header: want=%q got=%q", seen.ID, got)
			}
			if tt.keep != (seen.ID == tt.header) {
				t.Fatalf("id=%q header=%q keep=%v", seen.ID, tt.header, tt.keep)
			}
		})
	}
}
