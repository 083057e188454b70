package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"sjmc-records/internal/adapters/auth/jwtauth"
	rediscache "sjmc-records/internal/adapters/cache/redis"
	"sjmc-records/internal/adapters/events/kafka"
	mem "sjmc-records/internal/adapters/storage/memory"
	pg "sjmc-records/internal/adapters/storage/postgres"
	"sjmc-records/internal/domain/accounts"
	"sjmc-records/internal/domain/files"
	"sjmc-records/internal/middleware"
	"sjmc-records/internal/platform/cache"
	"sjmc-records/internal/platform/config"
	"sjmc-records/internal/platform/logger"
	"sjmc-records/internal/ports/auth"
	"sjmc-records/internal/router"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, log, err := opts.load()
	if err != nil {
		return err
	}

	// closers se ejecutan en orden inverso al salir
	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	db, err := openDB(cfg, log)
	if err != nil {
		return err
	}
	if db != nil {
		closers = append(closers, func() { _ = db.Close() })
	}

	var (
		filesRepo files.Repository
		usersRepo accounts.Repository
	)
	if db != nil {
		filesRepo = pg.NewFilesRepo(db, cfg.Database.QueryTimeout)
		usersRepo = pg.NewUsersRepo(db)
	} else {
		filesRepo = mem.NewFilesRepo()
		usersRepo = mem.NewUsersRepo()
	}

	var (
		verifier auth.AuthVerifier
		issuer   auth.TokenIssuer
	)
	if cfg.Auth.JWTSecret != "" {
		tokens, err := jwtauth.New(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}
		verifier, issuer = tokens, tokens
	} else {
		log.Warn("auth.jwt_secret not set: dev mode, X-Debug-User-ID accepted and /api/login disabled", nil)
	}

	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPasswordHash != "" {
		if err := accounts.NewService(usersRepo, issuer).EnsureUser(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPasswordHash); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		log.Info("admin credential ensured", map[string]any{"email": accounts.NormalizeEmail(cfg.Auth.AdminEmail)})
	}

	metrics := middleware.NewMetrics(cfg.App)

	var store cache.Store
	if cfg.Cache.Enabled {
		s, closeStore := buildCacheStore(ctx, cfg, log)
		store = s
		closers = append(closers, closeStore)
	}

	var notifier files.Notifier
	if len(cfg.Kafka.Brokers) > 0 {
		pub := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		notifier = pub
		closers = append(closers, func() { _ = pub.Close() })
		log.Info("kafka change feed enabled", map[string]any{"topic": cfg.Kafka.Topic})
	}

	handler := router.NewRouter(router.Options{
		App:            cfg.App,
		Logger:         log,
		AuthVerifier:   verifier,
		TokenIssuer:    issuer,
		FilesRepo:      filesRepo,
		UsersRepo:      usersRepo,
		CacheStore:     store,
		CacheTTL:       cfg.Cache.TTL,
		Notifier:       notifier,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        metrics,
	})

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", map[string]any{"addr": srv.Addr, "env": cfg.Env, "postgres": db != nil})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", nil)

		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}

func openDB(cfg *config.Config, log logger.Logger) (*sql.DB, error) {
	if cfg.Database.DSN == "" {
		if cfg.IsProduction() {
			return nil, errors.New("database.dsn is required in production")
		}
		log.Warn("database.dsn not set: using in-memory repositories", nil)
		return nil, nil
	}

	db, err := pg.Open(cfg.Database.DSN, pg.Options{
		MaxOpenConns:   cfg.Database.MaxOpenConns,
		MaxIdleConns:   cfg.Database.MaxIdleConns,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// buildCacheStore usa Redis si está configurado y responde; si no, el cache
// en memoria con su janitor.
func buildCacheStore(ctx context.Context, cfg *config.Config, log logger.Logger) (cache.Store, func()) {
	if cfg.Cache.RedisAddr != "" {
		client := rediscache.NewClient(rediscache.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		store := rediscache.NewStore(client, cfg.App+":cache:", log)
		err := store.Ping(ctx)
		if err == nil {
			log.Info("response cache: redis", map[string]any{"addr": cfg.Cache.RedisAddr})
			return store, func() { _ = store.Close() }
		}
		log.Warn("redis unreachable, falling back to in-memory cache", map[string]any{"err": err})
		_ = client.Close()
	}

	c := cache.New[[]byte](cfg.Cache.TTL)
	c.StartJanitor(cfg.Cache.SweepInterval)
	log.Info("response cache: memory", map[string]any{"ttl": cfg.Cache.TTL.String(), "sweep": cfg.Cache.SweepInterval.String()})
	return cache.NewMemoryStore(c), c.Close
}
