package cmd

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/buidl-renaissance/art-night-detroit-sub000/config"
	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/handlers"
	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/ledger"
	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/notification"
	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/services"
	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/store"
	_ "github.com/buidl-renaissance/art-night-detroit-sub000/migrations"
	"github.com/buidl-renaissance/art-night-detroit-sub000/monitoring"
	"github.com/buidl-renaissance/art-night-detroit-sub000/security"
	"github.com/buidl-renaissance/art-night-detroit-sub000/utils"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"
	"github.com/redis/go-redis/v9"
)

type components struct {
	ledger      *ledger.DBLedger
	allocations *services.AllocationService
	draws       *services.DrawService
	stats       *services.StatsService
}

func Start() error {
	app := pocketbase.New()
	logger := slog.Default()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Initialize Redis. The ledger does not depend on it, so the app still
	// starts without rate limiting or the outbox when Redis is down.
	redisClient, err := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("redis unavailable, continuing without it", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Notification sinks
	notifier := notification.NewMulti(cfg.BreakerSettings(), logger)

	if cfg.PubNubEnabled() {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		notifier.Add("pubnub", notification.NewPubNubNotifier(pubnub.NewPubNub(pnConfig), logger))
	}

	if cfg.TelegramBotToken != "" {
		tg, err := notification.NewTelegramNotifier(cfg.TelegramBotToken, logger)
		if err != nil {
			logger.Warn("telegram notifier disabled", "error", err)
		} else {
			notifier.Add("telegram", tg)
		}
	}

	if redisClient != nil {
		notifier.Add("outbox", notification.NewRedisOutbox(redisClient, cfg.OutboxKey))
	}

	// Initialize services
	l := ledger.New(store.NewApp(app))
	c := &components{
		ledger:      l,
		allocations: services.NewAllocationService(l, logger),
		draws: services.NewDrawService(l, notifier, logger,
			services.WithNotifyTimeout(cfg.NotifyTimeout)),
		stats: services.NewStatsService(l, logger),
	}

	// Initialize handlers
	raffleHandler := handlers.NewRaffleHandler(c.allocations, c.stats, logger)
	adminHandler := handlers.NewAdminHandler(c.draws, c.ledger, logger)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	app.RootCmd.AddCommand(newRaffleCommand(app, c))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		if cfg.EnableMetrics {
			go monitoring.NewMonitor(l, cfg.MetricsInterval, logger).Run(ctx)
			go serveMetrics(cfg.MetricsPort, logger)
		}

		// Participant endpoints
		raffles := e.Router.Group("/api/v1/raffles")
		raffles.Bind(apis.RequireAuth())
		raffles.GET("/{raffleId}/stats", raffleHandler.GetStats)
		raffles.GET("/{raffleId}/me", raffleHandler.GetMyTickets)

		allocate := raffles.POST("/{raffleId}/allocations", raffleHandler.Allocate)
		if redisClient != nil {
			limiter := security.NewRateLimiter(redisClient, cfg.RateLimitRequests, cfg.RateLimitWindow, logger)
			allocate.BindFunc(limiter.AntiBotMiddleware())
			allocate.BindFunc(limiter.AllocationRateLimit())
		}

		raffles.GET("/{raffleId}/artists/{artistId}/tickets", adminHandler.GetArtistTickets).
			Bind(apis.RequireSuperuserAuth())

		// Admin endpoints
		admin := e.Router.Group("/api/v1/admin/raffles")
		admin.Bind(apis.RequireSuperuserAuth())
		admin.POST("/{raffleId}/artists/{artistId}/draw", adminHandler.DrawWinner)
		admin.POST("/{raffleId}/draw-all", adminHandler.DrawAll)
		admin.GET("/{raffleId}/draws", adminHandler.ListDraws)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			return healthCheck(e, app, redisClient)
		})

		logger.Info("server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

func healthCheck(e *core.RequestEvent, app core.App, redisClient *redis.Client) error {
	resp := map[string]string{"status": "healthy", "database": "ok", "redis": "disabled"}
	code := http.StatusOK

	if _, err := app.DB().NewQuery("SELECT 1").Execute(); err != nil {
		resp["status"], resp["database"] = "unhealthy", err.Error()
		code = http.StatusServiceUnavailable
	}

	if redisClient != nil {
		resp["redis"] = "ok"
		if err := utils.RedisHealthCheck(e.Request.Context(), redisClient); err != nil {
			// Redis only backs rate limiting and the outbox.
			resp["status"], resp["redis"] = "degraded", err.Error()
		}
	}

	return e.JSON(code, resp)
}

func serveMetrics(port string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info("metrics server listening", "port", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server stopped", "error", err)
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("shutdown signal received, cleaning up")
	cancel()
}
