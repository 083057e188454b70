package router

import (
	"context"
	"net/http"
	"time"

	_ "sjmc-records/docs"

	mem "sjmc-records/internal/adapters/storage/memory"
	"sjmc-records/internal/domain/accounts"
	"sjmc-records/internal/domain/files"
	"sjmc-records/internal/middleware"
	"sjmc-records/internal/platform/cache"
	"sjmc-records/internal/platform/logger"
	"sjmc-records/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	App    string
	Logger logger.Logger

	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev: X-Debug-User-ID)
	TokenIssuer  auth.TokenIssuer  // nil => /api/login responde 500

	// Repos; nil => in-memory.
	FilesRepo files.Repository
	UsersRepo accounts.Repository

	// Cache de respuestas GET; nil => sin cache.
	CacheStore cache.Store
	CacheTTL   time.Duration

	// Notifier extra para cada mutación (p.ej. Kafka). La invalidación de
	// cache se agrega sola.
	Notifier files.Notifier

	AllowedOrigins []string
	Metrics        *middleware.Metrics
}

func NewRouter(opts Options) http.Handler {
	startedAt := time.Now()

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	if opts.App == "" {
		opts.App = "sjmc-records"
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = middleware.NewMetrics(opts.App)
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(log))
	r.Use(chimw.Recoverer)
	r.Use(metrics.Instrument)
	r.Use(middleware.CORS(opts.AllowedOrigins))

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", healthHandler(startedAt))
	r.Handle("/metrics", metrics.Handler())
	r.Get("/api-docs/*", httpSwagger.Handler(httpSwagger.URL("/api-docs/doc.json")))

	filesRepo, usersRepo := opts.FilesRepo, opts.UsersRepo
	if filesRepo == nil {
		filesRepo = mem.NewFilesRepo()
	}
	if usersRepo == nil {
		usersRepo = mem.NewUsersRepo()
	}

	notifiers := files.Notifiers{}
	var cacheMW func(http.Handler) http.Handler
	if opts.CacheStore != nil {
		// invalidador y middleware comparten la generación
		store := cache.NewGuardedStore(opts.CacheStore)
		notifiers = append(notifiers, cacheInvalidator(store))
		cacheMW = middleware.ResponseCache(store, opts.CacheTTL, metrics)
	}
	if opts.Notifier != nil {
		notifiers = append(notifiers, opts.Notifier)
	}

	// Services por módulo
	filesSvc := files.NewService(filesRepo, notifiers)
	accountsSvc := accounts.NewService(usersRepo, opts.TokenIssuer)

	// Rutas por módulo
	r.Route("/api", func(api chi.Router) {
		accounts.RegisterRoutes(api, accountsSvc, accounts.RouteOptions{
			Logger:      log.With(map[string]any{"module": "accounts"}),
			RequireAuth: middleware.RequireAuth,
		})
		files.RegisterRoutes(api, filesSvc, files.RouteOptions{
			Logger:      log.With(map[string]any{"module": "files"}),
			RequireAuth: middleware.RequireAuth,
			Cache:       cacheMW,
		})
	})

	return r
}

// cacheInvalidator borra las respuestas cacheadas de la categoría tocada y
// las stats. Corre aunque el request ya se haya cancelado.
func cacheInvalidator(store cache.Store) files.Notifier {
	return files.NotifierFunc(func(ctx context.Context, ch files.Change) {
		ctx = context.WithoutCancel(ctx)
		store.InvalidateMatching(ctx, "/api/"+string(ch.Category))
		store.InvalidateMatching(ctx, "/api/stats")
	})
}
