package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"

	activitieshandler "github.com/tourbase-hq/reservations/domains/activities/be/handler"
	activitiesrepo "github.com/tourbase-hq/reservations/domains/activities/be/repo"
	activitiesservice "github.com/tourbase-hq/reservations/domains/activities/be/service"
	authhandler "github.com/tourbase-hq/reservations/domains/auth/be/handler"
	authrepo "github.com/tourbase-hq/reservations/domains/auth/be/repo"
	authservice "github.com/tourbase-hq/reservations/domains/auth/be/service"
	companieshandler "github.com/tourbase-hq/reservations/domains/companies/be/handler"
	companiesrepo "github.com/tourbase-hq/reservations/domains/companies/be/repo"
	companiesservice "github.com/tourbase-hq/reservations/domains/companies/be/service"
	invitationshandler "github.com/tourbase-hq/reservations/domains/invitations/be/handler"
	invitationsrepo "github.com/tourbase-hq/reservations/domains/invitations/be/repo"
	invitationsservice "github.com/tourbase-hq/reservations/domains/invitations/be/service"
	usershandler "github.com/tourbase-hq/reservations/domains/users/be/handler"
	usersrepo "github.com/tourbase-hq/reservations/domains/users/be/repo"
	usersservice "github.com/tourbase-hq/reservations/domains/users/be/service"
	platformauth "github.com/tourbase-hq/reservations/platform/go/auth"
	platformlogging "github.com/tourbase-hq/reservations/platform/go/logging"
	"github.com/tourbase-hq/reservations/platform/go/notify"
	"github.com/tourbase-hq/reservations/platform/go/persistence"
	"github.com/tourbase-hq/reservations/platform/go/storage"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL     string        `env:"DATABASE_URL,required"`
	TokenSecret     string        `env:"TOKEN_SECRET,required"`
	TokenTTL        time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	StorageBackend  string        `env:"STORAGE_BACKEND" envDefault:"local"`            // gcs | local
	StorageBucket   string        `env:"STORAGE_BUCKET"`                                // required when STORAGE_BACKEND=gcs
	StorageLocalDir string        `env:"STORAGE_LOCAL_DIR" envDefault:"./.data/storage"` // used when STORAGE_BACKEND=local
	Notifier        string        `env:"NOTIFIER" envDefault:"log"` // smtp | log
	SMTPHost        string        `env:"SMTP_HOST"`
	SMTPPort        int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername    string        `env:"SMTP_USERNAME"`
	SMTPPassword    string        `env:"SMTP_PASSWORD"`
	SMTPFrom        string        `env:"SMTP_FROM"`
}

func main() {
	ctx := context.Background()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	companyStore, err := persistence.NewCompanyStore(ctx, pool)
	if err != nil {
		logger.Fatal("init company store", zap.Error(err))
	}
	userStore, err := persistence.NewUserStore(ctx, pool)
	if err != nil {
		logger.Fatal("init user store", zap.Error(err))
	}
	invitationStore, err := persistence.NewInvitationStore(ctx, pool)
	if err != nil {
		logger.Fatal("init invitation store", zap.Error(err))
	}
	activityStore, err := persistence.NewActivityStore(ctx, pool)
	if err != nil {
		logger.Fatal("init activity store", zap.Error(err))
	}

	tokens, err := platformauth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		logger.Fatal("init token issuer", zap.Error(err))
	}

	var blobs storage.BlobStore
	switch cfg.StorageBackend {
	case "gcs":
		if cfg.StorageBucket == "" {
			logger.Fatal("storage bucket required when STORAGE_BACKEND=gcs")
		}
		gcsClient, err := gcs.NewClient(ctx)
		if err != nil {
			logger.Fatal("init gcs client", zap.Error(err))
		}
		defer gcsClient.Close()

		gcsStore, err := storage.NewGCSStore(gcsClient, cfg.StorageBucket)
		if err != nil {
			logger.Fatal("init gcs storage", zap.Error(err))
		}
		if err := gcsStore.Check(ctx); err != nil {
			logger.Fatal("verify gcs bucket access", zap.Error(err))
		}
		blobs = gcsStore
	case "local":
		if strings.TrimSpace(cfg.StorageLocalDir) == "" {
			logger.Fatal("storage local dir required when STORAGE_BACKEND=local")
		}
		localStore, err := storage.NewLocalStore(cfg.StorageLocalDir)
		if err != nil {
			logger.Fatal("init local storage", zap.Error(err))
		}
		blobs = localStore
	default:
		logger.Fatal("invalid STORAGE_BACKEND (use gcs or local)", zap.String("backend", cfg.StorageBackend))
	}

	var notifier notify.Notifier
	switch cfg.Notifier {
	case "smtp":
		notifier, err = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		if err != nil {
			logger.Fatal("init smtp notifier", zap.Error(err))
		}
	case "log":
		notifier = notify.NewLogNotifier(logger)
	default:
		logger.Fatal("invalid NOTIFIER (use smtp or log)", zap.String("notifier", cfg.Notifier))
	}

	companiesService := companiesservice.New(companiesrepo.NewPostgresRepository(companyStore))
	invitationsService := invitationsservice.New(
		invitationsrepo.NewPostgresRepository(invitationStore, companyStore),
		notifier,
		logger,
	)
	usersService := usersservice.New(usersrepo.NewPostgresRepository(userStore))
	activitiesService := activitiesservice.New(
		activitiesrepo.NewPostgresRepository(activityStore, userStore),
		blobs,
	)
	authService := authservice.New(authrepo.NewPostgresRepository(userStore, invitationStore), tokens)

	router := newRouter(routerDeps{
		logger:         logger,
		verify:         tokens.Verifier(),
		requestTimeout: cfg.RequestTimeout,
		auth:           authhandler.New(authService, logger),
		companies:      companieshandler.New(companiesService, logger),
		invitations:    invitationshandler.New(invitationsService, logger),
		users:          usershandler.New(usersService, logger),
		activities:     activitieshandler.New(activitiesService, logger),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
