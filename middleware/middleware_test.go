package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "mentormuni-test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func adminRouter() *gin.Engine {
	r := gin.New()
	g := r.Group("/admin")
	g.Use(AuthMiddleware(testKey, testIssuer, zap.NewNop()), RoleCheckMiddleware([]string{"admin"}))
	g.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserEmail))
	})
	return r
}

func doGet(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthAcceptsValidAdminToken(t *testing.T) {
	token, err := IssueToken(testKey, testIssuer, "ops@mentormuni.com", []string{"admin"}, time.Hour)
	require.NoError(t, err)

	w := doGet(adminRouter(), "/admin/ping", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ops@mentormuni.com", w.Body.String())
}

func TestAuthRejections(t *testing.T) {
	wrongIssuer, err := IssueToken(testKey, "someone-else", "a@b.co", []string{"admin"}, time.Hour)
	require.NoError(t, err)
	wrongKey, err := IssueToken("other-key", testIssuer, "a@b.co", []string{"admin"}, time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(testKey, testIssuer, "a@b.co", []string{"admin"}, -time.Minute)
	require.NoError(t, err)
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Roles:            []string{"admin"},
		RegisteredClaims: jwt.RegisteredClaims{Issuer: testIssuer},
	}).SignedString([]byte(testKey))
	require.NoError(t, err)

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"garbage":        "Bearer not-a-jwt",
		"wrong issuer":   "Bearer " + wrongIssuer,
		"wrong key":      "Bearer " + wrongKey,
		"expired":        "Bearer " + expired,
		"no expiry":      "Bearer " + noExp,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			w := doGet(adminRouter(), "/admin/ping", header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRoleCheckForbidsNonAdmin(t *testing.T) {
	token, err := IssueToken(testKey, testIssuer, "viewer@x.io", []string{"viewer"}, time.Hour)
	require.NoError(t, err)

	w := doGet(adminRouter(), "/admin/ping", "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestIssueTokenRequiresKey(t *testing.T) {
	_, err := IssueToken("", testIssuer, "a@b.co", nil, time.Hour)
	assert.Error(t, err)
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	l := NewRateLimiter("plan", 20)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 20; i++ {
		ok, remaining, _ := l.Allow("1.2.3.4")
		require.True(t, ok, "request %d", i+1)
		assert.Equal(t, 19-i, remaining)
	}
	ok, _, wait := l.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.InDelta(t, 3*time.Second, wait, float64(50*time.Millisecond))

	ok, _, _ = l.Allow("5.6.7.8")
	assert.True(t, ok, "other clients are independent")

	now = now.Add(3 * time.Second)
	ok, _, _ = l.Allow("1.2.3.4")
	assert.True(t, ok, "token refills after one interval")
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	l := NewRateLimiter("evaluate", 60)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")
	assert.Equal(t, 2, l.Len())

	now = now.Add(11 * time.Minute)
	l.Allow("c")
	assert.Equal(t, 1, l.Len())
}

func TestRateLimiterMiddlewareHeaders(t *testing.T) {
	l := NewRateLimiter("plan", 1)
	r := gin.New()
	r.GET("/x", l.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doGet(r, "/x", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = doGet(r, "/x", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRequestIDAndLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), Logger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doGet(r, "/ok", "")
	id := w.Header().Get(HeaderRequestID)
	assert.Len(t, id, 36)

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "abc-123", logs.All()[1].ContextMap()["request_id"])
	assert.Equal(t, int64(200), logs.All()[1].ContextMap()["status"])
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://mentormuni.com"}))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://mentormuni.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://mentormuni.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
