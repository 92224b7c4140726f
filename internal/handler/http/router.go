package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

const serviceName = "storefront"

// Services bundles the application services behind the HTTP API.
type Services struct {
	Products ProductService
	Carts    CartRegistry
	Checkout CheckoutService
	Seller   SellerService
	Sessions session.Provider
	Issuer   SessionIssuer
	Logout   LogoutBackend
}

// CartRegistry serves cart views and drops them on logout.
type CartRegistry interface {
	CartService
	CartEvicter
}

// RouterConfig holds the transport settings of the router.
type RouterConfig struct {
	CORS         middleware.CORSConfig
	RateLimiter  *middleware.RateLimiter
	Cookie       CookieConfig
	CatalogTTL   time.Duration
	PprofCIDRs   []string
	MetricsCIDRs []string
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	svc Services,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	middleware.RegisterMetrics(r, cfg.MetricsCIDRs, logger)

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	productHandler := NewProductHandler(svc.Products, logger)
	cartHandler := NewCartHandler(svc.Carts, logger)
	checkoutHandler := NewCheckoutHandler(svc.Checkout, logger)
	sessionHandler := NewSessionHandler(svc.Logout, svc.Carts, cfg.Cookie, logger)
	sellerHandler := NewSellerHandler(svc.Seller, svc.Issuer, cfg.Cookie, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Authenticate(session.Validator(svc.Sessions), logger))
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware)
		}

		r.Route("/products", func(r chi.Router) {
			r.Use(middleware.CacheControl(cfg.CatalogTTL))
			r.Get("/", productHandler.ListProducts)
			r.Get("/{id}", productHandler.GetProduct)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.NoStore)

			r.Get("/cart", cartHandler.GetCart)
			r.Post("/cart/items", productHandler.AddToCart)
			r.Put("/cart/items/{productId}", cartHandler.UpdateItemQuantity)
			r.Delete("/cart/items/{productId}", cartHandler.RemoveItem)

			r.Post("/checkout", checkoutHandler.Checkout)

			r.Get("/session", sessionHandler.GetSession)
			r.Post("/session/logout", sessionHandler.Logout)
		})

		r.Route("/seller", func(r chi.Router) {
			r.Use(middleware.NoStore)

			// Any signed-in buyer may register; the rest needs the seller role.
			r.With(middleware.RequireAuth).Post("/register", sellerHandler.Register)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleSeller))

				r.Get("/dashboard", sellerHandler.Dashboard)
				r.Get("/products", sellerHandler.ListProducts)
				r.Post("/products", sellerHandler.CreateProduct)
				r.Get("/products/{id}", sellerHandler.GetProduct)
				r.Put("/products/{id}", sellerHandler.UpdateProduct)
				r.Delete("/products/{id}", sellerHandler.DeleteProduct)
				r.Get("/orders", sellerHandler.ListOrders)
				r.Post("/orders/{id}/complete", sellerHandler.CompleteOrder)
			})
		})
	})

	return r
}
