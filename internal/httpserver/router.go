package httpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"storefront-auth/internal/domain"
	"storefront-auth/internal/metrics"
	"storefront-auth/internal/service/order"
	"storefront-auth/internal/service/session"
)

type cartService interface {
	View(rec domain.SessionRecord) domain.SessionRecord
	AddProduct(ctx context.Context, rec domain.SessionRecord, productID int64) (domain.SessionRecord, error)
	RemoveProduct(rec domain.SessionRecord, productID int64) (domain.SessionRecord, error)
	UpdateQuantity(rec domain.SessionRecord, productID int64, quantity int) (domain.SessionRecord, error)
}

type customerService interface {
	Login(ctx context.Context, rec domain.SessionRecord, name, password string) (domain.SessionRecord, error)
	Logout() domain.SessionRecord
	IsLoggedIn(rec domain.SessionRecord) (domain.SessionRecord, bool)
}

type orderService interface {
	Place(ctx context.Context, rec domain.SessionRecord, details domain.CheckoutDetails) (order.Result, error)
	SaveDraft(rec domain.SessionRecord, details domain.CheckoutDetails) (domain.SessionRecord, error)
}

// Deps are the services behind the routes.
type Deps struct {
	Guard       *session.Guard
	CartSvc     cartService
	CustomerSvc customerService
	OrderSvc    orderService
}

// Options tune cookie and edge behaviour.
type Options struct {
	CookieSecure       bool
	CORSAllowedOrigins []string
	LoginRate          rate.Limit
	LoginBurst         int
	// TrustedProxies may set X-Forwarded-For. Empty means the peer address is
	// always the client address.
	TrustedProxies []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, ready ReadinessCheck, deps Deps, opts Options) (*gin.Engine, *loginLimiter, error) {
	if deps.Guard == nil || deps.CartSvc == nil || deps.CustomerSvc == nil || deps.OrderSvc == nil {
		return nil, nil, errors.New("httpserver: missing dependencies")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, nil, fmt.Errorf("httpserver: trusted proxies: %w", err)
	}
	router.Use(requestID(), accessLog(logger), gin.Recovery(), instrument())
	if len(opts.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", requestIDHeader},
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: true,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(ready))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	h := &handlers{deps: deps, cookieSecure: opts.CookieSecure, logger: logger}
	limiter := newLoginLimiter(opts.LoginRate, opts.LoginBurst, logger)

	api := router.Group("/", readSession(deps.Guard))
	cart := api.Group("/cart")
	cart.GET("", h.viewCart)
	cart.POST("/add", h.addToCart)
	cart.POST("/remove", h.removeFromCart)
	cart.PUT("/update", h.updateCart)

	ua := api.Group("/useractions")
	ua.POST("/login", limiter.middleware(), h.login)
	ua.POST("/logout", h.logout)
	ua.GET("/isloggedin", h.isLoggedIn)
	ua.PUT("/checkout", h.saveCheckout)
	ua.POST("/placeorder", h.placeOrder)

	return router, limiter, nil
}
