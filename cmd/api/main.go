package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"geckohub/internal/adapters/auth/jwt"
	"geckohub/internal/adapters/blob/local"
	"geckohub/internal/adapters/blob/s3"
	pg "geckohub/internal/adapters/storage/postgres"
	"geckohub/internal/config"
	"geckohub/internal/platform/logger"
	"geckohub/internal/ports/blob"
	"geckohub/internal/router"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// @title GeckoHub API
// @version 1.0
// @description Registro de geckos: animales, eventos, linaje y preferencias.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	envFile := flag.String("env", "", "ruta al archivo .env (por defecto .env)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		// Sin config todavía no hay logger configurado.
		logger.Must(logger.New(logger.Options{})).Error("config error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
	})
	if err != nil {
		logger.Must(logger.New(logger.Options{})).Error("logger error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	if zl, ok := log.(*logger.ZapLogger); ok {
		defer func() { _ = zl.Sync() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	opts := router.Options{
		Log:            log,
		DevMode:        cfg.Auth.DevMode,
		IsAdminEmail:   cfg.Auth.IsAdminEmail,
		MaxUploadBytes: cfg.Blob.MaxUploadMB << 20,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
	}

	// Storage: Postgres si hay DSN, si no in-memory (modo dev).
	if cfg.Postgres.DSN != "" {
		db, err := openPostgres(ctx, cfg.Postgres, log)
		if err != nil {
			return err
		}
		defer db.Close()

		opts.Repos = router.Repos{
			Animals:  pg.NewAnimalsRepo(db),
			Events:   pg.NewEventsRepo(db),
			Users:    pg.NewUsersRepo(db),
			Settings: pg.NewSettingsRepo(db),
		}
	} else {
		log.Warn("GECKOHUB_POSTGRES_DSN not set, using in-memory storage", nil)
	}

	store, mediaDir, err := openBlobStore(ctx, cfg.Blob)
	if err != nil {
		return err
	}
	opts.Blob = store
	opts.MediaDir = mediaDir

	secret := cfg.Auth.Secret
	if secret == "" {
		// Solo posible en modo dev (Validate lo exige fuera de dev): los
		// tokens emitidos no sobreviven a un reinicio.
		secret = uuid.NewString()
		log.Warn("GECKOHUB_AUTH_SECRET not set, using an ephemeral signing secret", nil)
	}
	tokens, err := jwt.NewManager(jwt.Options{
		Secret:     secret,
		Issuer:     cfg.Auth.Issuer,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	})
	if err != nil {
		return err
	}
	opts.AuthVerifier = tokens
	opts.Tokens = tokens

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router.NewRouter(opts),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": cfg.HTTP.Addr, "dev_mode": cfg.Auth.DevMode})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openPostgres(ctx context.Context, c config.PostgresConfig, log logger.Logger) (*sqlx.DB, error) {
	db, err := pg.Open(ctx, pg.Options{
		DSN:              c.DSN,
		MaxOpenConns:     c.MaxOpenConns,
		StatementTimeout: c.StatementTimeout,
	})
	if err != nil {
		return nil, err
	}
	if c.Migrate {
		if err := pg.RunMigrations(ctx, db, log); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	log.Info("postgres connected", nil)
	return db, nil
}

// openBlobStore devuelve el store y, para el driver local, el directorio a servir en /media.
func openBlobStore(ctx context.Context, c config.BlobConfig) (blob.Store, string, error) {
	switch c.Driver {
	case "s3":
		s, err := s3.New(ctx, s3.Config{
			Endpoint:  c.S3Endpoint,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Bucket:    c.S3Bucket,
			UseSSL:    c.S3UseSSL,
			PublicURL: c.S3PublicURL,
		})
		if err != nil {
			return nil, "", err
		}
		return s, "", nil
	default:
		s, err := local.New(c.LocalDir, c.PublicURL)
		if err != nil {
			return nil, "", err
		}
		return s, s.Dir(), nil
	}
}
