package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/tally-backend/internal/platform/ctxutil"
	"github.com/yungbote/tally-backend/internal/platform/logger"
)

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const secret = "s3cret"
	am := NewAuthMiddleware(logger.Nop(), secret)

	var seen *ctxutil.Principal
	r := gin.New()
	r.GET("/admin", am.RequireRole(RoleAdmin), func(c *gin.Context) {
		seen = ctxutil.GetPrincipal(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	mustSign := func(subject, role string, ttl time.Duration) string {
		tok, err := SignToken(secret, subject, role, ttl)
		if err != nil {
			t.Fatalf("SignToken: %v", err)
		}
		return tok
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, TokenClaims{
		Role:             RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "mallory"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign expired: %v", err)
	}
	foreign, err := SignToken("other-secret", "ops", RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"admin", "Bearer " + mustSign("ops", RoleAdmin, time.Hour), http.StatusNoContent},
		{"lowercase scheme", "bearer " + mustSign("ops", RoleAdmin, 0), http.StatusNoContent},
		{"connector", "Bearer " + mustSign("bridge", RoleConnector, time.Hour), http.StatusForbidden},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"alg none", "Bearer " + unsigned, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized},
		{"no subject", "Bearer " + mustSign("", RoleAdmin, time.Hour), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status: want=%d got=%d", tt.want, rec.Code)
			}
		})
	}

	if seen == nil || seen.Subject != "ops" || seen.Role != RoleAdmin {
		t.Fatalf("principal: got=%+v", seen)
	}
}
