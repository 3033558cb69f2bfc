package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/ksred/klear-indexer/internal/auth"
	"github.com/ksred/klear-indexer/internal/dispatcher"
	"github.com/ksred/klear-indexer/internal/markets"
	"github.com/ksred/klear-indexer/internal/orders"
	"github.com/ksred/klear-indexer/internal/publisher"
	"github.com/ksred/klear-indexer/pkg/middleware"
)

// Services holds everything the HTTP surface calls into
type Services struct {
	Auth        *auth.Service
	Orders      *orders.Service
	Markets     *markets.Service
	Processor   *dispatcher.Processor
	Hub         *publisher.Hub
	RateLimiter *middleware.RateLimiter
}

// NewRouter configures all API endpoints and their handlers:
//   - Auth routes: public, exchange API credentials for a token
//   - Order and market routes: public reads
//   - Internal routes: block ingestion and market admin, require an ingest token
//   - /ws: subaccount notification stream
//   - /metrics: prometheus scrape endpoint
func NewRouter(s Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	authHandlers := auth.NewGinHandlers(s.Auth)
	orderHandlers := orders.NewGinHandlers(s.Orders)
	marketHandlers := markets.NewGinHandlers(s.Markets)
	blockHandlers := dispatcher.NewGinHandlers(s.Processor)

	v1 := router.Group("/api/v1")
	{
		// Public routes are limited per client IP
		public := v1.Group("")
		if s.RateLimiter != nil {
			public.Use(s.RateLimiter.Middleware())
		}
		public.POST("/auth/token", authHandlers.GenerateTokenHandler())
		public.GET("/orders/:order_id", orderHandlers.GetOrderHandler())
		public.GET("/subaccounts/:address/:number/orders", orderHandlers.ListSubaccountOrdersHandler())
		public.GET("/markets", marketHandlers.ListMarketsHandler())

		// Internal routes are limited per authenticated client
		internal := v1.Group("/internal")
		internal.Use(middleware.InternalAuth(s.Auth, auth.PermissionIngest))
		if s.RateLimiter != nil {
			internal.Use(s.RateLimiter.Middleware())
		}
		{
			internal.POST("/blocks", blockHandlers.ProcessBlockHandler())
			internal.PUT("/markets", marketHandlers.UpsertMarketHandler())
		}
	}

	if s.Hub != nil {
		router.GET("/ws", gin.WrapF(s.Hub.ServeWS))
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// WithCORS wraps h so browsers from allowedOrigins may call the read API and
// open the websocket. An empty list leaves h unchanged.
func WithCORS(h http.Handler, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		return h
	}
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(h)
}
