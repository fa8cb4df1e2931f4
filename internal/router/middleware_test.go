package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/agrimart/ordercore/internal/authz"
	"github.com/agrimart/ordercore/internal/config"
	"github.com/agrimart/ordercore/internal/constants"
	"github.com/agrimart/ordercore/internal/http/handlers/shared"
	"github.com/agrimart/ordercore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestCORSPolicyAllowOrigin(t *testing.T) {
	cases := []struct {
		name   string
		cfg    config.CORSConfig
		origin string
		want   string
	}{
		{name: "default wildcard", cfg: config.CORSConfig{}, origin: "https://example.com", want: "*"},
		{name: "wildcard with credentials echoes", cfg: config.CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true}, origin: "https://example.com", want: "https://example.com"},
		{name: "allow list match", cfg: config.CORSConfig{AllowedOrigins: []string{"https://a.example.com", "https://b.example.com"}}, origin: "https://a.example.com", want: "https://a.example.com"},
		{name: "allow list case insensitive", cfg: config.CORSConfig{AllowedOrigins: []string{"https://A.example.com"}}, origin: "https://a.example.com", want: "https://a.example.com"},
		{name: "unmatched", cfg: config.CORSConfig{AllowedOrigins: []string{"https://a.example.com"}}, origin: "https://x.example.com", want: ""},
		{name: "no origin header", cfg: config.CORSConfig{AllowedOrigins: []string{"https://a.example.com"}}, origin: "", want: ""},
	}
	for _, tc := range cases {
		if got := newCORSPolicy(tc.cfg).allowOrigin(tc.origin); got != tc.want {
			t.Fatalf("%s: want %q got %q", tc.name, tc.want, got)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(CORSMiddleware(config.CORSConfig{AllowedOrigins: []string{"https://shop.example.com"}, MaxAge: 600}))
	r.POST("/orders", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/orders", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight want 204 got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example.com" {
		t.Fatalf("unexpected allow origin %q", got)
	}
	if got := w.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Fatalf("unexpected max age %q", got)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "X-Payment-Signature") {
		t.Fatalf("default headers should allow the webhook signature header")
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		failed bool
	}{
		{header: "", failed: true},
		{header: "Bearer", failed: true},
		{header: "Bearer   ", failed: true},
		{header: "Basic abc", failed: true},
		{header: "Bearer abc.def", token: "abc.def"},
	}
	for _, tc := range cases {
		token, reason := bearerToken(tc.header)
		if (reason != "") != tc.failed || token != tc.token {
			t.Fatalf("bearerToken(%q) = %q, %q", tc.header, token, reason)
		}
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if generated == "" {
		t.Fatalf("generated request id should not be empty")
	}
	if resp := strings.TrimSpace(generated); resp == "" {
		t.Fatalf("generated request id should not be blank")
	}

	w3 := httptest.NewRecorder()
	req3 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req3.Header.Set(requestIDHeader, "bad id "+strings.Repeat("x", maxRequestIDLen))
	r.ServeHTTP(w3, req3)
	if got := w3.Header().Get(requestIDHeader); strings.Contains(got, " ") || len(got) > maxRequestIDLen {
		t.Fatalf("malformed request id should be replaced, got %q", got)
	}
}

const testSecret = "router-test-secret"

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("http status want 200 got %d", w.Code)
	}
	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp
}

func signToken(t *testing.T, principal service.Principal) string {
	t.Helper()
	token, err := service.SignPrincipalToken(testSecret, principal, time.Hour)
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	return token
}

func TestPrincipalAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(PrincipalAuthMiddleware(testSecret))
	r.GET("/orders", func(c *gin.Context) {
		principal, ok := shared.GetPrincipal(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"status_code": 0, "msg": principal.Role})
	})

	cases := []struct {
		name   string
		header string
		code   int
	}{
		{name: "missing", header: "", code: 401},
		{name: "not bearer", header: "Token abc", code: 401},
		{name: "garbage", header: "Bearer abc", code: 401},
		{name: "valid", header: "Bearer " + signToken(t, service.Principal{ID: 3, Role: constants.RoleVendor}), code: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/orders", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			resp := decodeEnvelope(t, w)
			if resp.StatusCode != tc.code {
				t.Fatalf("status_code want %d got %d", tc.code, resp.StatusCode)
			}
			if tc.code == 0 && resp.Msg != constants.RoleVendor {
				t.Fatalf("principal role not propagated, got %q", resp.Msg)
			}
		})
	}
}

func TestPrincipalAuthMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(PrincipalAuthMiddleware(""))
	r.GET("/orders", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	r.ServeHTTP(w, req)

	if resp := decodeEnvelope(t, w); resp.StatusCode != 401 {
		t.Fatalf("status_code want 401 got %d", resp.StatusCode)
	}
}

func TestRBACMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	authzService, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap roles failed: %v", err)
	}

	r := gin.New()
	api := r.Group("/api/v1", PrincipalAuthMiddleware(testSecret), RBACMiddleware(authzService))
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status_code": 0}) }
	api.POST("/orders/:id/accept", ok)
	api.GET("/admin/orders", ok)

	cases := []struct {
		name   string
		role   string
		method string
		path   string
		code   int
	}{
		{name: "vendor accepts", role: constants.RoleVendor, method: http.MethodPost, path: "/api/v1/orders/12/accept", code: 0},
		{name: "user cannot accept", role: constants.RoleUser, method: http.MethodPost, path: "/api/v1/orders/12/accept", code: 403},
		{name: "admin lists", role: constants.RoleAdmin, method: http.MethodGet, path: "/api/v1/admin/orders", code: 0},
		{name: "seller not admin", role: constants.RoleSeller, method: http.MethodGet, path: "/api/v1/admin/orders", code: 403},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tc.method, tc.path, nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, service.Principal{ID: 1, Role: tc.role}))
			r.ServeHTTP(w, req)
			if resp := decodeEnvelope(t, w); resp.StatusCode != tc.code {
				t.Fatalf("status_code want %d got %d", tc.code, resp.StatusCode)
			}
		})
	}
}
