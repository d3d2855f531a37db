package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/ridedash/internal/auth"
	"example.com/ridedash/internal/logging"
)

// RouterConfig holds router-level middleware settings.
type RouterConfig struct {
	AllowedOrigins []string
}

// Routes builds the full router: middleware, dashboard views, session endpoints and metrics.
func (h *Handler) Routes(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(logging.Middleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", logging.RequestIDHeader},
		ExposedHeaders:   []string{logging.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", healthz)
	r.Handle("/metrics", promhttp.Handler())

	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes wires endpoints to r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	perUser := map[string]http.HandlerFunc{
		"/get_labels":      h.labels,
		"/get_heart_rate":  h.heartRate,
		"/get_charts":      h.charts,
		"/get_user_rollup": h.rollup,
		"/course_data":     h.courses,
	}
	for path, fn := range perUser {
		r.Get(path, fn)
		r.Get(path+"/{userID}", fn)
	}
	r.Get("/music_by_time/{rideTime}", h.musicByTime)

	r.Post("/peloton_login", h.pelotonLogin)
	r.Get("/login", h.loginPage)
	r.Post("/login", h.formLogin)
	r.Get("/logout", h.logout)

	mw := auth.NewMiddleware(h.auth)
	mw.OnReject = func(w http.ResponseWriter, _ *http.Request, err error) {
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	}
	r.Group(func(r chi.Router) {
		r.Use(mw.Wrap)
		r.Get("/ping", h.ping)
		r.Get("/pull_user_data", h.pullUserData)
		r.Post("/pull_user_data", h.pullUserData)
	})
}
