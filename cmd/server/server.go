package server

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/hud203/leadengine/cmd"
	"github.com/hud203/leadengine/internal/api"
	"github.com/hud203/leadengine/internal/attribution"
	"github.com/hud203/leadengine/internal/config"
	"github.com/hud203/leadengine/internal/crm"
	"github.com/hud203/leadengine/internal/dispatch"
	"github.com/hud203/leadengine/internal/models"
	"github.com/hud203/leadengine/internal/monitor"
	"github.com/hud203/leadengine/internal/repository"
	"github.com/hud203/leadengine/internal/services"
)

// RunServerCmd is the cobra command that launches the HTTP API and the
// background processes (dispatch workers, endpoint monitor).
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Launches the lead capture API and the background processes.",
	Long: `This command initializes the event store, wires the attribution
stores and analytics sinks, starts the asynchronous dispatch workers and the
partner endpoint monitor, then launches the HTTP server.`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		log := zerolog.New(os.Stdout).With().Timestamp().Logger()

		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load configuration")
		}

		// Event store
		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open database")
		}
		if err := db.AutoMigrate(&models.EventRecord{}); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
		eventRepo := repository.NewEventRepository(db)

		// Attribution stores: redis when configured, in-process otherwise
		var stores attribution.Stores
		if cfg.Redis.Addr != "" {
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			sessionTTL := time.Duration(cfg.Redis.SessionTTLMinutes) * time.Minute
			stores = attribution.NewRedisStores(client, sessionTTL)
			log.Info().Str("addr", cfg.Redis.Addr).Msg("attribution stores backed by redis")
		} else {
			stores = attribution.NewMemoryStores()
			log.Warn().Msg("no redis configured, attribution state is in process memory")
		}

		// Event dispatcher and sinks. Sink constructors return nil when the
		// integration is not configured; an unconfigured sink is simply
		// never registered.
		dispatcher := dispatch.New(cfg.Analytics.BufferSize, cfg.Analytics.WorkerCount, cfg.Analytics.Debug, log)
		dispatcher.Register(dispatch.NewStoreSink(eventRepo))
		if ga := dispatch.NewGASink(cfg.Sinks.GA.MeasurementID, cfg.Sinks.GA.APISecret, cfg.Sinks.GA.Endpoint); ga != nil {
			dispatcher.Register(ga)
		}
		if pixel := dispatch.NewPixelSink(cfg.Sinks.Pixel.PixelID, cfg.Sinks.Pixel.AccessToken, cfg.Sinks.Pixel.Endpoint); pixel != nil {
			dispatcher.Register(pixel)
		}
		if webhook := dispatch.NewWebhookSink(cfg.Sinks.Webhook.URL); webhook != nil {
			dispatcher.Register(webhook)
		}
		if cfg.Sinks.AMQP.URL != "" {
			amqpSink, err := dispatch.NewAMQPSink(cfg.Sinks.AMQP.URL, cfg.Sinks.AMQP.Exchange)
			if err != nil {
				log.Error().Err(err).Msg("AMQP sink unavailable, continuing without it")
			} else {
				defer amqpSink.Close()
				dispatcher.Register(amqpSink)
			}
		}
		dispatcher.Start()
		log.Info().Strs("sinks", dispatcher.Sinks()).Msg("event dispatcher ready")

		// CRM forwarding; nil client means capture succeeds without forwarding
		crmClient := crm.NewClient(cfg.CRM.WebhookURL, cfg.CRM.APIKey)
		if crmClient == nil {
			log.Warn().Msg("no CRM webhook configured, leads will not be forwarded")
		}

		leadService := services.NewLeadService(crmClient, dispatcher, log)

		// Partner endpoint monitor covers the CRM webhook and HTTP sinks
		var targets []monitor.Target
		if crmClient != nil {
			targets = append(targets, monitor.Target{Name: "crm-webhook", URL: crmClient.WebhookURL()})
		}
		if cfg.Sinks.Webhook.URL != "" {
			targets = append(targets, monitor.Target{Name: "custom-analytics", URL: cfg.Sinks.Webhook.URL})
		}
		if len(targets) > 0 {
			interval := time.Duration(cfg.Monitor.IntervalMinutes) * time.Minute
			go monitor.NewEndpointMonitor(targets, interval, log).Start()
		}

		// HTTP layer
		router := gin.Default()
		api.SetupRoutes(router, api.Deps{
			Leads:        leadService,
			Dispatcher:   dispatcher,
			Stores:       stores,
			Events:       eventRepo,
			DownloadsDir: cfg.Server.DownloadsDir,
			Log:          log,
		})

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: router,
		}

		go func() {
			log.Info().Str("addr", srv.Addr).Msg("starting server")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("server failed")
			}
		}()

		// Graceful shutdown on SIGINT/SIGTERM: stop intake, drain the
		// dispatch channel, then exit
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("shutdown signal received")

		dispatcher.Close()
		log.Info().Msg("dispatch workers drained, server stopped")
	},
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
