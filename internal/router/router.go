package router

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/agrimart/ordercore/internal/authz"
	"github.com/agrimart/ordercore/internal/config"
	adminhandlers "github.com/agrimart/ordercore/internal/http/handlers/admin"
	publichandlers "github.com/agrimart/ordercore/internal/http/handlers/public"
	"github.com/agrimart/ordercore/internal/http/response"
	"github.com/agrimart/ordercore/internal/logger"
	"github.com/agrimart/ordercore/internal/metrics"
	"github.com/agrimart/ordercore/internal/models"
	"github.com/agrimart/ordercore/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter builds the HTTP engine
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	webhookRule := NewRateLimitRule("webhook", cfg.RateLimit.Webhook)
	orderCreateRule := NewRateLimitRule("order_create", cfg.RateLimit.OrderCreate)

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	if cfg.Metrics.Enabled {
		metrics.Register()
		r.Use(metrics.GinMiddleware())
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(metrics.Handler()))
	}

	apiV1 := r.Group("/api/v1")
	{
		// Gateway callbacks are authenticated by signature, not by principal
		apiV1.POST("/webhooks/payments",
			RateLimitMiddleware(webhookRule, KeyByIPAndJSONField("order_number")),
			publicHandler.PaymentWebhook,
		)

		authorized := apiV1.Group("")
		authorized.Use(PrincipalAuthMiddleware(cfg.JWT.SecretKey), RBACMiddleware(c.AuthzService))
		{
			authorized.GET("/products", publicHandler.ListProducts)

			// Orders; the service scopes reads by role
			authorized.POST("/orders", RateLimitMiddleware(orderCreateRule, KeyByPrincipal), publicHandler.CreateOrder)
			authorized.GET("/orders", publicHandler.ListOrders)
			authorized.GET("/orders/:id", publicHandler.GetOrder)
			authorized.GET("/orders/lookup/:number", publicHandler.GetOrderByNumber)
			authorized.POST("/orders/:id/cancel", publicHandler.CancelOrder)

			// Vendor fulfillment
			authorized.POST("/orders/:id/accept", publicHandler.AcceptOrder)
			authorized.POST("/orders/:id/reject", publicHandler.RejectOrder)
			authorized.POST("/orders/:id/partial-accept", publicHandler.PartialAcceptOrder)
			authorized.POST("/orders/:id/acceptance/confirm", publicHandler.ConfirmAcceptance)
			authorized.POST("/orders/:id/acceptance/cancel", publicHandler.CancelAcceptance)
			authorized.PATCH("/orders/:id/status", publicHandler.UpdateOrderStatus)
			authorized.POST("/orders/:id/status/confirm", publicHandler.ConfirmStatusUpdate)
			authorized.POST("/orders/:id/status/revert", publicHandler.RevertStatusUpdate)

			// Vendor credit
			authorized.POST("/credit/purchases", publicHandler.RequestCreditPurchase)
			authorized.GET("/credit/purchases", publicHandler.ListMyCreditPurchases)
			authorized.GET("/credit/purchases/:id", publicHandler.GetCreditPurchase)
			authorized.GET("/credit/purchases/:id/quote", publicHandler.QuoteRepayment)
			authorized.POST("/credit/purchases/:id/repayments", publicHandler.RepayCreditPurchase)

			// Seller wallet
			authorized.GET("/wallet", publicHandler.GetMyWallet)
			authorized.GET("/wallet/transactions", publicHandler.GetMyWalletTransactions)
			authorized.GET("/commissions", publicHandler.ListMyCommissions)
			authorized.POST("/withdrawals", publicHandler.RequestWithdrawal)
			authorized.GET("/withdrawals", publicHandler.ListMyWithdrawals)

			admin := authorized.Group("/admin")
			{
				admin.GET("/orders", adminHandler.ListOrders)
				admin.GET("/orders/:id", adminHandler.GetOrder)
				admin.PATCH("/orders/:id/status", adminHandler.UpdateOrderStatus)
				admin.POST("/orders/:id/cancel", adminHandler.CancelOrder)
				admin.GET("/orders/:id/payment-events", adminHandler.ListPaymentEvents)
				admin.POST("/orders/:id/payment-failure/resolve", adminHandler.ResolvePaymentFailure)
				admin.POST("/orders/:id/commission/settle", adminHandler.SettleOrderCommission)
				admin.POST("/payments/settled", adminHandler.RecordPaymentSettled)
				admin.POST("/payments/failed", adminHandler.RecordPaymentFailed)

				admin.GET("/escalations", adminHandler.ListEscalations)
				admin.POST("/escalations/:id/revert", adminHandler.RevertEscalation)
				admin.POST("/escalations/:id/reassign", adminHandler.ReassignEscalation)
				admin.POST("/escalations/:id/resolve", adminHandler.ResolveEscalation)

				admin.GET("/products", adminHandler.ListProducts)
				admin.POST("/products", adminHandler.CreateProduct)
				admin.PUT("/products/:id", adminHandler.UpdateProduct)
				admin.GET("/vendors", adminHandler.ListVendors)
				admin.POST("/vendors", adminHandler.CreateVendor)
				admin.GET("/vendors/:id", adminHandler.GetVendor)
				admin.PUT("/vendors/:id/status", adminHandler.SetVendorStatus)
				admin.GET("/sellers", adminHandler.ListSellers)
				admin.POST("/sellers", adminHandler.CreateSeller)

				admin.GET("/commissions", adminHandler.ListCommissions)
				admin.GET("/commissions/:id", adminHandler.GetCommission)
				admin.GET("/withdrawals", adminHandler.ListWithdrawals)
				admin.POST("/withdrawals/:id/approve", adminHandler.ApproveWithdrawal)
				admin.POST("/withdrawals/:id/reject", adminHandler.RejectWithdrawal)

				admin.GET("/credit/purchases", adminHandler.ListCreditPurchases)
				admin.GET("/credit/purchases/:id", adminHandler.GetCreditPurchase)
				admin.POST("/credit/purchases/:id/approve", adminHandler.ApproveCreditPurchase)
				admin.POST("/credit/purchases/:id/reject", adminHandler.RejectCreditPurchase)
				admin.POST("/credit/purchases/:id/repayments", adminHandler.RecordRepayment)

				admin.POST("/grace/sweep", adminHandler.SweepGrace)

				admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
				admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				admin.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				admin.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				admin.POST("/authz/reload", adminHandler.ReloadAuthzPolicy)
				admin.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildPermissionCatalog(r))
				})
			}
		}
	}

	r.GET("/health", healthHandler)

	return r
}

type permissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildPermissionCatalog lists every grantable route so admins can edit role policies
func buildPermissionCatalog(engine *gin.Engine) []permissionCatalogItem {
	if engine == nil {
		return []permissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]permissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/") {
			continue
		}
		if strings.HasPrefix(item.Path, "/api/v1/webhooks/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, permissionCatalogItem{
			Module:     derivePermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func derivePermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 || segments[0] != "admin" {
		return segments[0]
	}
	return "admin." + segments[1]
}

// healthHandler reports database reachability for load balancer probes
func healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := models.Ping(ctx); err != nil {
		logger.Warnw("health_database_unreachable", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
}
