package router

import (
	"net/http"
	"strings"

	_ "geckohub/docs"
	mem "geckohub/internal/adapters/storage/memory"
	"geckohub/internal/domain/animals"
	"geckohub/internal/domain/events"
	"geckohub/internal/domain/settings"
	"geckohub/internal/domain/users"
	"geckohub/internal/middleware"
	"geckohub/internal/platform/logger"
	"geckohub/internal/ports/auth"
	"geckohub/internal/ports/blob"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Repos agrupa los repositorios por módulo. Los que vengan nil se
// resuelven con el store in-memory.
type Repos struct {
	Animals  animals.Repository
	Events   events.Repository
	Users    users.Repository
	Settings settings.Repository
}

type Options struct {
	Log   logger.Logger
	Repos Repos

	AuthVerifier auth.AuthVerifier // puede ser nil (solo modo dev)
	Tokens       auth.TokenIssuer  // nil => sin /auth
	DevMode      bool              // habilita X-Debug-User-ID / X-Debug-Admin
	IsAdminEmail func(email string) bool

	Blob           blob.Store // nil => uploads deshabilitados
	MediaDir       string     // si viene, se sirve en /media
	MaxUploadBytes int64

	CORSOrigins []string

	// Registry: nil => uno nuevo por router (tests en paralelo sin colisiones).
	Registry *prometheus.Registry
}

func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logger.NewNop()
	}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	metrics := middleware.NewMetrics(reg)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(log))
	r.Use(metrics.Handler)

	r.Use(middleware.AuthContext(opts.AuthVerifier, opts.DevMode))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	if opts.MediaDir != "" {
		fs := http.StripPrefix("/media/", http.FileServer(http.Dir(opts.MediaDir)))
		r.Get("/media/*", fs.ServeHTTP)
	}

	repos := withMemoryDefaults(opts.Repos)

	// Services por módulo
	animalsSvc := animals.NewService(repos.Animals, log)
	eventsSvc := events.NewService(repos.Events, animalsSvc, log)
	settingsSvc := settings.NewService(repos.Settings, log)

	// Rutas por módulo
	animals.RegisterRoutes(r, animalsSvc, animals.Deps{
		Log:            log,
		Blob:           opts.Blob,
		MaxUploadBytes: opts.MaxUploadBytes,
		History:        events.HistoryResponder(eventsSvc),
	})
	events.RegisterRoutes(r, eventsSvc, events.Deps{
		Log:            log,
		Blob:           opts.Blob,
		MaxUploadBytes: opts.MaxUploadBytes,
	})
	settings.RegisterRoutes(r, settingsSvc, log)

	if opts.Tokens != nil {
		usersSvc := users.NewService(repos.Users, opts.Tokens, opts.IsAdminEmail, log)
		users.RegisterRoutes(r, usersSvc, log)
	} else {
		log.Warn("token issuer not configured, /auth routes disabled", nil)
	}

	return withCORS(r, opts.CORSOrigins)
}

func withMemoryDefaults(in Repos) Repos {
	if in.Animals != nil && in.Events != nil && in.Users != nil && in.Settings != nil {
		return in
	}
	store := mem.NewStore()
	if in.Animals == nil {
		in.Animals = store.Animals()
	}
	if in.Events == nil {
		in.Events = store.Events()
	}
	if in.Users == nil {
		in.Users = store.Users()
	}
	if in.Settings == nil {
		in.Settings = store.Settings()
	}
	return in
}

func withCORS(h http.Handler, origins []string) http.Handler {
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 {
		return h
	}
	return cors.New(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Debug-User-ID", "X-Debug-Admin"},
		AllowCredentials: true,
	}).Handler(h)
}
