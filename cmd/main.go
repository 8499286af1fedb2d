/**
 * @description
 * This is the main entry point for the cartera-service. It is responsible for
 * initializing all components of the service, including configuration, the
 * remote carteras API client, the summary cache, the RabbitMQ producer, the
 * daily close scheduler, and the HTTP server. It wires everything together and
 * starts the service.
 *
 * @dependencies
 * - log/slog, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/redis/go-redis/v9: Optional shared summary cache.
 * - internal/api, internal/app, internal/config: Internal packages for the service.
 * - pkg/carteraclient: Client for the remote carteras API.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/gestioncarteras/cartera-service/internal/api"
	"github.com/gestioncarteras/cartera-service/internal/app"
	"github.com/gestioncarteras/cartera-service/internal/config"
	"github.com/gestioncarteras/cartera-service/pkg/carteraclient"
	rmrabbit "github.com/gestioncarteras/cartera-service/pkg/rabbitmq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}
	if strings.TrimSpace(cfg.InternalAPIKey) == "" {
		logger.Error("internal api key must be configured", "env", "INTERNAL_API_KEY")
		os.Exit(1)
	}
	if cfg.CarteraAPIBaseURL == "" {
		logger.Error("carteras api base url must be configured", "env", "CARTERA_API_BASE_URL")
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	logger.Info("starting cartera-service", "port", cfg.ServerPort, "timezone", cfg.Timezone)

	// Initialize the client for the remote carteras API.
	carteraClient := carteraclient.NewClient(
		cfg.CarteraAPIBaseURL,
		cfg.CarteraAPIKey,
		time.Duration(cfg.FetchTimeoutSeconds)*time.Second,
	)

	// Pick the summary cache: Redis when configured and reachable, otherwise
	// a process-local cache.
	cacheTTL := time.Duration(cfg.SummaryCacheTTLMinutes) * time.Minute
	var summaryCache app.SummaryCache = app.NewMemorySummaryCache(cacheTTL)
	if cfg.RedisURL != "" {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			logger.Warn("redis url parse failed; using in-memory summary cache", "error", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			pingErr := redisClient.Ping(pingCtx).Err()
			cancelPing()
			if pingErr != nil {
				logger.Warn("redis ping failed; using in-memory summary cache", "error", pingErr)
				redisClient.Close()
			} else {
				defer redisClient.Close()
				summaryCache = app.NewRedisSummaryCache(redisClient, logger, cfg.RedisCachePrefix, cacheTTL)
				logger.Info("redis summary cache connected")
			}
		}
	}

	// Initialize the RabbitMQ producer to publish daily close events. The
	// service only publishes, so a missing broker degrades to no events.
	var publisher app.ClosePublisher
	if strings.TrimSpace(cfg.RabbitMQURL) == "" {
		logger.Warn("rabbitmq url missing; daily close events disabled", "env", "RABBITMQ_URL")
	} else {
		rabbitProducer, prodErr := rmrabbit.NewEventProducer(cfg.RabbitMQURL, cfg.DailyCloseRoutingKey)
		if prodErr != nil {
			logger.Warn("rabbitmq producer unavailable; using fallback", "error", prodErr)
			publisher = &rmrabbit.EventProducerFallback{}
		} else {
			defer rabbitProducer.Close()
			publisher = rabbitProducer
			logger.Info("rabbitmq producer connected")
		}
	}

	// Initialize the core application service with its dependencies.
	carteraService := app.NewService(carteraClient, summaryCache, publisher, logger, loc, cfg.FetchWorkers)

	// Start the daily close scheduler when a roster is configured.
	if employees := cfg.DailyCloseEmployees(); len(employees) > 0 {
		scheduler := app.NewScheduler(carteraService, logger, cfg.DailyCloseSchedule, employees)
		scheduler.Start()
		defer func() {
			stopCtx := scheduler.Stop()
			<-stopCtx.Done()
		}()
	} else {
		logger.Info("no daily close roster configured; scheduler disabled", "env", "DAILY_CLOSE_EMPLOYEES")
	}

	// Initialize the API handlers.
	carteraHandlers := api.NewCarteraHandlers(carteraService)

	// Set up the HTTP router and define the API routes.
	router := chi.NewRouter()
	router.Mount("/", api.CarteraRoutes(carteraHandlers, cfg.InternalAPIKey))

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	logger.Info("server listening", "addr", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutdown started")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}

	logger.Info("shutdown complete")
}
