package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

type productReader interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*catalog.ProductSnapshot, error)
	ListProducts(ctx context.Context, params pagination.Params) (*pagination.Page[catalog.ProductSnapshot], error)
}

// Params wires the HTTP surface. Redis and Metrics are optional.
type Params struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      controllers.Pinger
	Redis   *redis.Client
	Metrics prometheus.Gatherer
	Catalog productReader
	Cart    cart.Service
	Orders  orders.Service
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.CORSAllowedOrigins),
	)

	cartPolicy := middleware.NewRateLimitPolicy("cart", cfg.RateLimit.Window, cfg.RateLimit.CartLimit)
	checkoutPolicy := middleware.NewRateLimitPolicy("checkout", cfg.RateLimit.Window, cfg.RateLimit.CheckoutLimit)

	deps := map[string]controllers.Pinger{"db": p.DB, "redis": nil}
	if p.Redis != nil {
		deps["redis"] = p.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})
	if p.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(p.Catalog, logg))
		r.Get("/{productID}", controllers.ProductDetail(p.Catalog, logg))
	})

	idempotent := idempotency(p.Redis, logg)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.RoleShopper))

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Use(rateLimit(cartPolicy, p.Redis, logg))
			r.Get("/", controllers.CartFetch(p.Cart, logg))
			r.Delete("/", controllers.CartClear(p.Cart, logg))
			r.With(idempotent).Post("/lines", controllers.CartAddLine(p.Cart, logg))
			r.Post("/lines/{lineID}/increase", controllers.CartIncreaseLine(p.Cart, logg))
			r.Post("/lines/{lineID}/decrease", controllers.CartDecreaseLine(p.Cart, logg))
			r.Delete("/lines/{lineID}", controllers.CartRemoveLine(p.Cart, logg))
		})

		r.Route("/api/v1/orders", func(r chi.Router) {
			r.With(rateLimit(checkoutPolicy, p.Redis, logg), idempotent).Post("/", controllers.OrderCreate(p.Orders, logg))
			r.Get("/", controllers.OrderList(p.Orders, logg))
			r.Get("/{orderID}", controllers.OrderDetail(p.Orders, logg))
		})
	})

	r.Route("/api/admin/v1/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
		r.Get("/", controllers.AdminOrderList(p.Orders, logg))
		r.Get("/{orderID}", controllers.AdminOrderDetail(p.Orders, logg))
		r.With(idempotent).Patch("/{orderID}/status", controllers.AdminOrderUpdateStatus(p.Orders, logg))
		r.Delete("/{orderID}", controllers.AdminOrderDelete(p.Orders, logg))
	})

	return r
}

// Idempotency and rate limiting are attached per route so chi has resolved
// the full pattern by the time they run. Without redis both are no-ops.
func idempotency(client *redis.Client, logg *logger.Logger) func(http.Handler) http.Handler {
	if client == nil {
		return passthrough
	}
	return middleware.Idempotency(client, logg)
}

func rateLimit(policy middleware.RateLimitPolicy, client *redis.Client, logg *logger.Logger) func(http.Handler) http.Handler {
	if client == nil {
		return passthrough
	}
	return middleware.RateLimit(policy, client, logg)
}

func passthrough(next http.Handler) http.Handler {
	return next
}
