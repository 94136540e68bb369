package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/Skotchmaster/coffee_shop/pkg/db"
	"github.com/Skotchmaster/coffee_shop/pkg/httperr"
	"github.com/Skotchmaster/coffee_shop/pkg/logging"
	"github.com/Skotchmaster/coffee_shop/pkg/middleware/auth"
	"github.com/Skotchmaster/coffee_shop/pkg/middleware/csrf"
)

const (
	apiPrefix   = "/api/v1"
	webhookPath = apiPrefix + "/payments/webhook"
)

// ProtectedPrefixes are the paths the Auth Gate requires a token for.
var ProtectedPrefixes = []string{
	apiPrefix + "/account",
	apiPrefix + "/orders",
	apiPrefix + "/subscriptions",
	apiPrefix + "/cart",
	apiPrefix + "/payments/verify",
	apiPrefix + "/admin",
}

type Deps struct {
	Auth          *AuthHTTP
	Account       *AccountHTTP
	Catalog       *CatalogHTTP
	Order         *OrderHTTP
	Subscription  *SubscriptionHTTP
	Payment       *PaymentHTTP
	Cart          *CartHTTP
	JWTSecret     []byte
	DB            *gorm.DB
	Gatherer      prometheus.Gatherer
	AuthRateLimit int
	CSRF          *csrf.Config
}

func Register(e *echo.Echo, d *Deps) {
	e.Validator = NewValidator()
	e.HTTPErrorHandler = httperr.Handler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.DB != nil {
			if err := db.Ping(c.Request().Context(), d.DB); err != nil {
				logging.FromContext(c.Request().Context()).Error("readiness_error", "status", 503, "error", err)
				return httperr.New(http.StatusServiceUnavailable, httperr.CodeInternal, "database unavailable")
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	e.Use(auth.NewGate(d.JWTSecret, ProtectedPrefixes...).Middleware)
	if d.CSRF != nil {
		cfg := *d.CSRF
		cfg.SkipPaths = append(cfg.SkipPaths, webhookPath, apiPrefix+"/auth/", "/health/", "/metrics")
		e.Use(csrf.Middleware(cfg))
	}

	api := e.Group(apiPrefix)

	authGroup := api.Group("/auth")
	if d.AuthRateLimit > 0 {
		authGroup.Use(authRateLimiter(d.AuthRateLimit))
	}
	authGroup.POST("/register", d.Auth.Register)
	authGroup.POST("/login", d.Auth.Login)
	authGroup.POST("/logout", d.Auth.LogOut)

	api.GET("/account", d.Account.Get)
	api.PUT("/account", d.Account.Update)

	api.GET("/products", d.Catalog.ListProducts)
	api.GET("/products/search", d.Catalog.SearchProducts)
	api.GET("/products/:id", d.Catalog.GetProduct)
	api.GET("/equipment", d.Catalog.ListEquipment)
	api.GET("/equipment/:id", d.Catalog.GetEquipment)
	api.GET("/stores", d.Catalog.ListStores)
	api.GET("/events", d.Catalog.ListEvents)

	api.POST("/orders", d.Order.Create)
	api.GET("/orders", d.Order.List)
	api.GET("/orders/:id", d.Order.Get)
	api.PATCH("/orders/:id/status", d.Order.UpdateStatus)
	api.POST("/orders/:id/cancel", d.Order.Cancel)
	api.POST("/orders/:id/payment", d.Order.Pay)

	api.POST("/subscriptions", d.Subscription.Create)
	api.GET("/subscriptions", d.Subscription.List)
	api.GET("/subscriptions/:id", d.Subscription.Get)
	api.PATCH("/subscriptions/:id/status", d.Subscription.UpdateStatus)
	api.POST("/subscriptions/:id/payment", d.Subscription.Pay)

	api.POST("/payments/verify", d.Payment.Verify)
	api.POST("/payments/webhook", d.Payment.Webhook)

	api.GET("/cart", d.Cart.Get)
	api.POST("/cart", d.Cart.Add)
	api.DELETE("/cart/:id", d.Cart.DeleteOne)
	api.DELETE("/cart", d.Cart.Clear)
	api.POST("/cart/checkout", d.Cart.Checkout)

	admin := api.Group("/admin", auth.RequireAdmin)
	admin.POST("/products", d.Catalog.CreateProduct)
	admin.PATCH("/products/:id", d.Catalog.PatchProduct)
	admin.DELETE("/products/:id", d.Catalog.DeleteProduct)
	admin.POST("/equipment", d.Catalog.CreateEquipment)
	admin.POST("/stores", d.Catalog.CreateStore)
	admin.POST("/events", d.Catalog.CreateEvent)
}

// authRateLimiter allows perSecond requests per client IP with an equal
// burst.
func authRateLimiter(perSecond int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     perSecond,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return httperr.New(http.StatusForbidden, httperr.CodeForbidden, "cannot identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			logging.FromContext(c.Request().Context()).Warn("rate_limited", "status", 429, "client_ip", identifier)
			return httperr.New(http.StatusTooManyRequests, httperr.CodeRateLimited, "too many requests")
		},
	})
}
