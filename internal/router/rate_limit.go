package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/agrimart/ordercore/internal/cache"
	"github.com/agrimart/ordercore/internal/config"
	"github.com/agrimart/ordercore/internal/http/handlers/shared"
	"github.com/agrimart/ordercore/internal/http/response"
	"github.com/agrimart/ordercore/internal/logger"
	"github.com/agrimart/ordercore/internal/service"

	"github.com/gin-gonic/gin"
)

// maxKeyBodyBytes bounds how much of a body is buffered to build a key
const maxKeyBodyBytes = 64 << 10

// RateLimitKeyFunc builds the counter key for a request
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule is a fixed window: at most MaxRequests per key every WindowSeconds
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
}

// NewRateLimitRule converts a config rule
func NewRateLimitRule(prefix string, cfg config.RateLimitRuleConfig) RateLimitRule {
	return RateLimitRule{Prefix: prefix, WindowSeconds: cfg.WindowSeconds, MaxRequests: cfg.MaxRequests}
}

func (r RateLimitRule) active() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

func (r RateLimitRule) window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

func (r RateLimitRule) counterKey(key string) string {
	if r.Prefix == "" {
		return "rate:" + key
	}
	return "rate:" + r.Prefix + ":" + key
}

// RateLimitMiddleware counts requests in redis. Without redis, or when redis errors,
// requests pass: payment callbacks must not be dropped because the limiter is down.
func RateLimitMiddleware(rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = KeyByIP
	}
	return func(c *gin.Context) {
		if !rule.active() || !cache.Enabled() {
			c.Next()
			return
		}
		key := strings.TrimSpace(keyFunc(c))
		if key == "" {
			key = c.ClientIP()
		}
		counterKey := rule.counterKey(key)

		count, ttl, err := cache.IncrWindow(c.Request.Context(), counterKey, rule.window())
		if err != nil {
			logger.Warnw("rate_limit_unavailable", "key", counterKey, "error", err)
			c.Next()
			return
		}
		remaining := int64(rule.MaxRequests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if count <= int64(rule.MaxRequests) {
			c.Next()
			return
		}

		wait := ttl
		if wait < 1 {
			wait = int64(rule.WindowSeconds)
		}
		c.Header("Retry-After", strconv.FormatInt(wait, 10))
		logger.Infow("rate_limit_exceeded", "rule", rule.Prefix, "key", key, "count", count)
		response.Error(c, response.CodeTooManyRequests, fmt.Sprintf("too many requests, retry in %ds", wait))
		c.Abort()
	}
}

// KeyByIP uses the client IP
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByPrincipal uses the authenticated caller, falling back to the IP
func KeyByPrincipal(c *gin.Context) string {
	if value, ok := c.Get(shared.PrincipalContextKey); ok {
		if principal, ok := value.(service.Principal); ok && principal.ID != 0 {
			return principal.Role + ":" + strconv.FormatUint(uint64(principal.ID), 10)
		}
	}
	return c.ClientIP()
}

// KeyByIPAndJSONField combines a lower-cased JSON body field with the client IP
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(peekJSONString(c, field))
		if value == "" {
			return c.ClientIP()
		}
		return value + "|" + c.ClientIP()
	}
}

// peekJSONString reads a top level string field and puts the body back for the handler
func peekJSONString(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxKeyBodyBytes))
	rest := c.Request.Body
	c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), rest))
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	var value string
	if err := json.Unmarshal(payload[field], &value); err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}
