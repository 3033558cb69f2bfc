package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ksred/klear-indexer/internal/api"
	"github.com/ksred/klear-indexer/internal/auth"
	"github.com/ksred/klear-indexer/internal/config"
	"github.com/ksred/klear-indexer/internal/database"
	"github.com/ksred/klear-indexer/internal/dispatcher"
	"github.com/ksred/klear-indexer/internal/handlers"
	"github.com/ksred/klear-indexer/internal/markets"
	"github.com/ksred/klear-indexer/internal/orders"
	"github.com/ksred/klear-indexer/internal/publisher"
	"github.com/ksred/klear-indexer/pkg/middleware"
)

func newServeCommand(conf *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the indexer API and block processor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(conf)
		},
	}
	cmd.Flags().String("port", "8080", "HTTP listen port")
	cmd.Flags().Bool("use_stateful_order_handler_sql_function", true,
		"apply placements through the atomic database procedure instead of the orchestrated upsert")
	return cmd
}

// serve wires the services and runs the HTTP server until SIGINT or SIGTERM
func serve(conf *config.Config) error {
	db, err := database.NewDatabase(conf)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The cache must be populated before the first event is applied
	marketCache := markets.NewCache()
	refresher := markets.NewRefresher(markets.NewDatabase(db), marketCache, conf.MarketRefreshInterval)
	if err := refresher.Update(ctx); err != nil {
		return fmt.Errorf("failed to load perpetual markets: %w", err)
	}
	go refresher.Start(ctx)

	orderService := orders.NewService(db)
	mutator := handlers.NewPlacementMutator(
		conf.UseStatefulOrderHandlerSQLFunction,
		orderService.GetDB(),
		marketCache,
		orderService.GetDB(),
		handlers.PrometheusMetrics(conf.MetricsNamespace),
	)
	zlog.Info().
		Bool("use_stateful_order_handler_sql_function", conf.UseStatefulOrderHandlerSQLFunction).
		Msg("placement strategy selected")

	hub := publisher.NewHub()
	processor := dispatcher.NewProcessor(handlers.NewDefaultRegistry(mutator), hub, conf.DispatchWorkers)

	authService := auth.NewService(conf.JWTSecret)
	authService.RegisterAPICredentials(auth.TestAPIKey, auth.TestAPISecret)

	rateLimiter := middleware.NewRateLimiter()
	go rateLimiter.Cleanup(ctx)

	if conf.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Services{
		Auth:        authService,
		Orders:      orderService,
		Markets:     markets.NewService(db, refresher),
		Processor:   processor,
		Hub:         hub,
		RateLimiter: rateLimiter,
	})

	srv := &http.Server{
		Addr:    ":" + conf.Port,
		Handler: api.WithCORS(router, conf.CORSAllowedOrigins),
	}

	go func() {
		zlog.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give in-flight blocks 5 seconds to finish
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	zlog.Info().Msg("Server exiting")
	return nil
}
