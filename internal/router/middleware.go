package router

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/agrimart/ordercore/internal/authz"
	"github.com/agrimart/ordercore/internal/config"
	"github.com/agrimart/ordercore/internal/http/handlers/shared"
	"github.com/agrimart/ordercore/internal/http/response"
	"github.com/agrimart/ordercore/internal/logger"
	"github.com/agrimart/ordercore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
	maxRequestIDLen = 128
)

var (
	defaultCORSMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	defaultCORSHeaders = []string{
		"Content-Type",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		requestIDHeader,
		"X-Payment-Signature",
	}
)

// corsPolicy is CORSConfig resolved once at startup
type corsPolicy struct {
	anyOrigin   bool
	origins     map[string]struct{}
	credentials bool
	methods     string
	headers     string
	maxAge      string
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	policy := corsPolicy{
		origins:     make(map[string]struct{}, len(cfg.AllowedOrigins)),
		credentials: cfg.AllowCredentials,
		methods:     strings.Join(orDefault(cfg.AllowedMethods, defaultCORSMethods), ", "),
		headers:     strings.Join(orDefault(cfg.AllowedHeaders, defaultCORSHeaders), ", "),
	}
	if cfg.MaxAge > 0 {
		policy.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	for _, origin := range orDefault(cfg.AllowedOrigins, []string{"*"}) {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			policy.anyOrigin = true
			continue
		}
		if origin != "" {
			policy.origins[strings.ToLower(origin)] = struct{}{}
		}
	}
	return policy
}

// allowOrigin returns the Access-Control-Allow-Origin value, empty when the origin is refused.
// With credentials a wildcard echoes the caller origin since browsers reject "*" there.
func (p corsPolicy) allowOrigin(origin string) string {
	if p.anyOrigin {
		if p.credentials && origin != "" {
			return origin
		}
		return "*"
	}
	if origin == "" {
		return ""
	}
	if _, ok := p.origins[strings.ToLower(origin)]; ok {
		return origin
	}
	return ""
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}

// CORSMiddleware answers preflight requests and sets CORS headers
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)
	return func(c *gin.Context) {
		header := c.Writer.Header()
		if allowed := policy.allowOrigin(c.GetHeader("Origin")); allowed != "" {
			header.Set("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				header.Add("Vary", "Origin")
			}
		}
		if policy.credentials {
			header.Set("Access-Control-Allow-Credentials", "true")
		}
		header.Set("Access-Control-Allow-Methods", policy.methods)
		header.Set("Access-Control-Allow-Headers", policy.headers)
		if policy.maxAge != "" {
			header.Set("Access-Control-Max-Age", policy.maxAge)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestIDMiddleware keeps a caller supplied X-Request-ID when it is sane and mints a uuid otherwise
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if !validRequestID(requestID) {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, r := range id {
		if r < 0x21 || r > 0x7e {
			return false
		}
	}
	return true
}

// LoggerMiddleware writes one line per request; 5xx and handler errors log at error level
func LoggerMiddleware(base *zap.Logger) gin.HandlerFunc {
	if base == nil {
		base = zap.L()
	}
	sugar := base.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []interface{}{
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if principal, ok := c.Get(shared.PrincipalContextKey); ok {
			if p, ok := principal.(service.Principal); ok {
				fields = append(fields, "principal_id", p.ID, "principal_role", p.Role)
			}
		}
		switch {
		case len(c.Errors) > 0:
			sugar.Errorw("request", append(fields, "errors", c.Errors.String())...)
		case c.Writer.Status() >= http.StatusInternalServerError:
			sugar.Errorw("request", fields...)
		default:
			sugar.Infow("request", fields...)
		}
	}
}

func getRequestID(c *gin.Context) string {
	if requestID, ok := c.Get(requestIDKey); ok {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

// PrincipalAuthMiddleware verifies the bearer token issued by the identity service
func PrincipalAuthMiddleware(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" {
			logger.Errorw("principal_auth_secret_missing")
			abortWith(c, response.CodeUnauthorized, "auth not configured")
			return
		}
		token, reason := bearerToken(c.GetHeader("Authorization"))
		if reason != "" {
			abortWith(c, response.CodeUnauthorized, reason)
			return
		}
		principal, err := service.ParsePrincipalToken(secretKey, token)
		if err != nil {
			logger.Debugw("principal_token_rejected", "request_id", getRequestID(c), "error", err)
			abortWith(c, response.CodeUnauthorized, "invalid token")
			return
		}
		c.Set(shared.PrincipalContextKey, principal)
		c.Next()
	}
}

// bearerToken returns the token or a client facing reason it is missing
func bearerToken(header string) (string, string) {
	if strings.TrimSpace(header) == "" {
		return "", "missing authorization header"
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" || strings.TrimSpace(token) == "" {
		return "", "invalid authorization header"
	}
	return strings.TrimSpace(token), ""
}

// RBACMiddleware checks the principal role against the matched route template
func RBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("rbac_service_unavailable")
			abortWith(c, response.CodeUnauthorized, "unauthorized")
			return
		}
		principal, ok := shared.GetPrincipal(c)
		if !ok {
			c.Abort()
			return
		}

		route := strings.TrimSpace(c.FullPath())
		if route == "" {
			route = c.Request.URL.Path
		}
		log := logger.SW(
			"request_id", getRequestID(c),
			"principal_id", principal.ID,
			"role", principal.Role,
			"method", c.Request.Method,
			"route", authz.NormalizeObject(route),
		)

		allowed, err := authzService.EnforceRole(principal.Role, route, c.Request.Method)
		switch {
		case errors.Is(err, authz.ErrUnknownRole):
			log.Warnw("rbac_unknown_role")
			abortWith(c, response.CodeForbidden, "forbidden")
		case err != nil:
			log.Errorw("rbac_enforce_failed", "error", err)
			abortWith(c, response.CodeUnauthorized, "unauthorized")
		case !allowed:
			log.Warnw("rbac_permission_denied")
			abortWith(c, response.CodeForbidden, "forbidden")
		default:
			c.Next()
		}
	}
}

func abortWith(c *gin.Context, code int, msg string) {
	response.Error(c, code, msg)
	c.Abort()
}
