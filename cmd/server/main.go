package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mentorhub/internal/database/boltstore"
	"mentorhub/internal/database/sqlitestore"
	"mentorhub/internal/handlers"
	"mentorhub/internal/metrics"
	"mentorhub/internal/moderation"
	"mentorhub/internal/routing"
	"mentorhub/internal/tracing"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	zerolog.SetGlobalLevel(parseLevel(os.Getenv("LOG_LEVEL")))

	// Use pretty console logging in development, JSON in production
	if os.Getenv("LOG_FORMAT") == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	log.Info().Msg("Starting MentorHub moderation service")

	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTelEnabled {
		tp, err := tracing.Init(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize tracing")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Failed to flush traces")
			}
		}()
		log.Info().Msg("OpenTelemetry tracing enabled")
	}

	db, err := sqlitestore.Open(cfg.DBPath, sqlitestore.Options{
		Tracing:       cfg.OTelEnabled,
		SlowThreshold: cfg.SlowQuery,
	})
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("Failed to open database")
	}
	defer db.Close()

	spoolStore, err := boltstore.Open(boltstore.Options{Path: cfg.SpoolPath})
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.SpoolPath).Msg("Failed to open audit spool")
	}
	defer spoolStore.Close()
	spool := spoolStore.AuditSpool()

	roles, err := moderation.NewService(cfg.ModeratorsConfig)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ModeratorsConfig).Msg("Failed to load moderator roles")
	}
	if roles.IsEnabled() {
		log.Info().
			Int("moderators", len(roles.ListModerators())).
			Str("path", cfg.ModeratorsConfig).
			Msg("Moderator roles loaded")
	}

	engine := moderation.NewEngine(db,
		moderation.AnyOf(moderation.StoreAuthorizer{Users: db}, roles),
		moderation.WithAuditSpool(spool),
	)

	metrics.StartCollector(ctx, metrics.StatsSource{
		PendingReports: func() int {
			n, err := db.CountReports(ctx, time.Time{}, moderation.ReportStatusPending)
			if err != nil {
				log.Warn().Err(err).Msg("metrics: failed to count pending reports")
				return -1
			}
			return int(n)
		},
		ActiveBans: func() int {
			n, err := db.CountActiveBans(ctx, "", "")
			if err != nil {
				log.Warn().Err(err).Msg("metrics: failed to count active bans")
				return -1
			}
			return int(n)
		},
		SpooledAuditEntries: spool.Len,
	}, cfg.MetricsInterval)

	handler := routing.SetupRouter(routing.Config{
		Handlers: handlers.NewHandler(engine),
		Logger:   log.Logger,
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("address", srv.Addr).
			Str("url", "http://localhost:"+cfg.Port).
			Str("database", cfg.DBPath).
			Str("spool", cfg.SpoolPath).
			Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		reloadOnHangup(gctx, roles)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
	}
}

// reloadOnHangup re-reads the moderator role file on SIGHUP until ctx ends.
func reloadOnHangup(ctx context.Context, roles *moderation.Service) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := roles.Reload(); err != nil {
				log.Error().Err(err).Msg("moderation: failed to reload moderator roles")
				continue
			}
			log.Info().Int("moderators", len(roles.ListModerators())).Msg("moderation: moderator roles reloaded")
		}
	}
}
