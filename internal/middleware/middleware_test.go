package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backoffice/internal/auth"
	"backoffice/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "mw-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, role domain.Role) string {
	t.Helper()
	tok, err := auth.SignSession(secret, auth.Session{AgentID: "agent-1", Role: role}, time.Hour)
	require.NoError(t, err)
	return tok
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(zerolog.Nop()))
	all := append([]gin.HandlerFunc{SessionRequired(secret)}, handlers...)
	all = append(all, func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/home/:department", all...)
	return r
}

func do(r http.Handler, path, tok string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionRequired(t *testing.T) {
	r := newEngine()
	assert.Equal(t, http.StatusUnauthorized, do(r, "/home/support", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/home/support", "junk").Code)

	w := do(r, "/home/support", token(t, domain.RoleSupport))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequireSection(t *testing.T) {
	r := newEngine(RequireSection(domain.SectionFinance))
	assert.Equal(t, http.StatusOK, do(r, "/home/x", token(t, domain.RoleFinance)).Code)
	assert.Equal(t, http.StatusOK, do(r, "/home/x", token(t, domain.RoleAdmin)).Code)

	w := do(r, "/home/x", token(t, domain.RoleSupport))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"access denied"}`, w.Body.String())

	assert.Equal(t, http.StatusForbidden, do(r, "/home/x", token(t, "")).Code)
}

func TestRequireAnySection(t *testing.T) {
	r := newEngine(RequireAnySection())
	for _, role := range domain.Roles {
		assert.Equal(t, http.StatusOK, do(r, "/home/x", token(t, role)).Code, role)
	}
	assert.Equal(t, http.StatusForbidden, do(r, "/home/x", token(t, "")).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/home/x", token(t, domain.Role("nobody"))).Code)
}

func TestRequireSectionParam(t *testing.T) {
	r := newEngine(RequireSectionParam("department"))
	assert.Equal(t, http.StatusOK, do(r, "/home/operation", token(t, domain.RoleOperation)).Code)
	assert.Equal(t, http.StatusOK, do(r, "/home/support", token(t, domain.RoleOperation)).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/home/finance", token(t, domain.RoleOperation)).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/home/marketing", token(t, domain.RoleAdmin)).Code)
}

func TestRequireRole(t *testing.T) {
	r := newEngine(RequireRole(domain.RoleAdmin))
	assert.Equal(t, http.StatusOK, do(r, "/home/x", token(t, domain.RoleAdmin)).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/home/x", token(t, domain.RoleExecutive)).Code)
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := NewInMemoryRateLimiter(ctx, 2, time.Minute)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("5.6.7.8"))

	now = now.Add(time.Minute + time.Second)
	assert.True(t, l.Allow("1.2.3.4"))

	now = now.Add(2 * time.Minute)
	l.sweep()
	assert.Empty(t, l.requests)
}
