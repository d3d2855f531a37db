// Package api exposes the dashboard's HTTP handlers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"example.com/ridedash/internal/auth"
	"example.com/ridedash/internal/domain"
	"example.com/ridedash/internal/events"
	"example.com/ridedash/internal/ingest"
	"example.com/ridedash/internal/logging"
	"example.com/ridedash/internal/observability"
	"example.com/ridedash/internal/peloton"
)

// UserIDCookie carries the fitness user id to the front end.
const UserIDCookie = "USER_ID"

// Authenticator exchanges credentials for an upstream session.
type Authenticator interface {
	Login(ctx context.Context, creds peloton.Credentials) (peloton.Session, error)
}

// Options configures a Handler.
type Options struct {
	Auth         auth.Config
	DashboardURL string
	Now          func() time.Time
}

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service   *domain.Service
	login     Authenticator
	publisher ingest.Publisher
	auth      auth.Config
	dashboard string
	now       func() time.Time
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, login Authenticator, publisher ingest.Publisher, opts Options) *Handler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		service:   service,
		login:     login,
		publisher: publisher,
		auth:      opts.Auth,
		dashboard: opts.DashboardURL,
		now:       now,
	}
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) labels(w http.ResponseWriter, r *http.Request) {
	labels, err := h.service.DateLabels(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, labels)
}

func (h *Handler) heartRate(w http.ResponseWriter, r *http.Request) {
	rates, err := h.service.HeartRates(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rates)
}

func (h *Handler) charts(w http.ResponseWriter, r *http.Request) {
	ds, err := h.service.Charts(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (h *Handler) rollup(w http.ResponseWriter, r *http.Request) {
	rollup, err := h.service.Rollup(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rollup)
}

func (h *Handler) courses(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.Courses(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *Handler) musicByTime(w http.ResponseWriter, r *http.Request) {
	songs, err := h.service.Playlist(r.Context(), chi.URLParam(r, "rideTime"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

// LoginRequest is the body accepted by POST /peloton_login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"passwd"`
}

// LoginCookies mirrors the upstream session cookie the front end forwards.
type LoginCookies struct {
	PelotonSessionID string `json:"peloton_session_id"`
}

// LoginResponse is returned by POST /peloton_login.
type LoginResponse struct {
	UserID  string       `json:"user_id"`
	Cookies LoginCookies `json:"cookies"`
	Token   string       `json:"token"`
}

func (h *Handler) pelotonLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and passwd are required")
		return
	}

	session, token, ok := h.startSession(w, r, peloton.Credentials{Email: req.Email, Password: req.Password})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{
		UserID:  session.UserID,
		Cookies: LoginCookies{PelotonSessionID: session.SessionID},
		Token:   token,
	})
}

const loginForm = `<h3>Peloton Login</h3>
<p>Please enter your credentials to pull the analytic data. No credentials will be stored and
will simply be passed through to the provider for authorization</p>
<form action="" method="post">
	<p><input type=text name=username>
	<p><input type=password name=password>
	<p><input type=submit value=Login>
</form>
`

// loginPage serves the browser login form.
func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(loginForm))
}

// formLogin handles the form post and sends the browser back to the dashboard.
func (h *Handler) formLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse form")
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	if _, _, ok := h.startSession(w, r, peloton.Credentials{Email: username, Password: password}); !ok {
		return
	}
	http.Redirect(w, r, h.dashboard, http.StatusFound)
}

// startSession logs in upstream and sets the session and user id cookies.
// On failure it writes the error response and reports false.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, creds peloton.Credentials) (peloton.Session, string, bool) {
	session, err := h.login.Login(r.Context(), creds)
	observability.RecordLogin(err)
	if err != nil {
		if errors.Is(err, peloton.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "credentials rejected")
			return peloton.Session{}, "", false
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("peloton login failed")
		writeError(w, http.StatusBadGateway, "upstream_unavailable", "fitness service unavailable")
		return peloton.Session{}, "", false
	}

	token, expires, err := auth.Issue(h.auth, session.UserID, session.SessionID, h.now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return peloton.Session{}, "", false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{Name: UserIDCookie, Value: session.UserID, Path: "/"})

	logging.Ctx(r.Context()).Info().Str("user_id", session.UserID).Msg("peloton login")
	return session, token, true
}

func (h *Handler) pullUserData(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session token")
		return
	}

	req := events.RideSyncRequested{
		RequestID:        uuid.NewString(),
		UserID:           claims.Subject,
		PelotonSessionID: claims.PelotonSession,
		RequestedAt:      h.now().UTC(),
	}
	if err := h.publisher.PublishSyncRequest(r.Context(), req); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("user_id", claims.Subject).Msg("sync request failed")
		writeError(w, http.StatusServiceUnavailable, "sync_unavailable", "unable to queue data pull")
		return
	}

	http.SetCookie(w, &http.Cookie{Name: UserIDCookie, Value: claims.Subject, Path: "/"})
	http.Redirect(w, r, h.dashboard, http.StatusFound)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, "pong!")
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.ErrorKind(err)
	status := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).Str("kind", kind).Msg("view failed")
	}
	writeError(w, status, kind, err.Error())
}

func statusForKind(kind string) int {
	switch kind {
	case "no_data", "not_found":
		return http.StatusNotFound
	case "store_unavailable":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

// writeJSON encodes payload before committing status.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{"type": "server_error", "detail": err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
