// Package handler exposes the fintrack use cases over HTTP/JSON.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/auth"
	"github.com/mmynk/fintrack/internal/middleware"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/service"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

const (
	MsgUserCreated = "User created successfully"
	MsgLoggedOut   = "Logged out successfully"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CookieConfig controls the session cookie set on login.
type CookieConfig struct {
	Secure bool
	TTL    time.Duration
}

type Handler struct {
	auth         *service.AuthService
	transactions *service.TransactionService
	analytics    *service.AnalyticsService
	store        Pinger
	cookie       CookieConfig
	logger       *slog.Logger
}

func NewHandler(
	authSvc *service.AuthService,
	txSvc *service.TransactionService,
	analyticsSvc *service.AnalyticsService,
	store Pinger,
	cookie CookieConfig,
	logger *slog.Logger,
) *Handler {
	if cookie.TTL <= 0 {
		cookie.TTL = auth.DefaultTokenTTL
	}
	return &Handler{
		auth:         authSvc,
		transactions: txSvc,
		analytics:    analyticsSvc,
		store:        store,
		cookie:       cookie,
		logger:       logger,
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type loginUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

type loginResponse struct {
	User loginUser `json:"user"`
}

type accountUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type meResponse struct {
	User accountUser `json:"user"`
}

// Register handles user registration.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if !h.decode(w, r, &in) {
		return
	}

	if _, err := h.auth.Register(r.Context(), in); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: MsgUserCreated})
}

// Me returns the caller's account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Me(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: accountUser{ID: user.ID, Email: user.Email, Name: user.Name}})
}

// Login handles user authentication. The token is set as an HttpOnly cookie
// and also returned in the body for header-based clients.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if !h.decode(w, r, &in) {
		return
	}

	result, err := h.auth.Login(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, loginResponse{User: loginUser{
		ID:    result.User.ID,
		Email: result.User.Email,
		Name:  result.User.Name,
		Token: result.Token,
	}})
}

// Logout clears the session cookie. Tokens are stateless, so one that was
// copied elsewhere stays valid until it expires.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, messageResponse{Message: MsgLoggedOut})
}

// ListTransactions returns the caller's transactions, newest first.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.transactions.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

// CreateTransaction records a transaction for the caller. Any userId in the
// body is ignored.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in service.AddTransactionInput
	if !h.decode(w, r, &in) {
		return
	}

	tx, err := h.transactions.Add(r.Context(), middleware.GetUserID(r.Context()), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// Analytics returns category and daily totals over the trailing window.
// An optional ?from=YYYY-MM-DD moves the window start.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.ParseInLocation(models.DateLayout, from, time.UTC)
		if err != nil {
			h.writeError(w, r, apperr.New(apperr.CodeInvalidArgument, "from must be a date in YYYY-MM-DD format"))
			return
		}
		since = t
	}

	result, err := h.analytics.Summary(r.Context(), middleware.GetUserID(r.Context()), since)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Health reports whether the store is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Error("Health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a JSON body into v. On failure it writes a 400 and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		msg := "invalid request body"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "request body too large"
		} else if strings.Contains(err.Error(), "decimal") {
			msg = "amount must be a number"
		}
		h.writeError(w, r, apperr.Wrap(apperr.CodeInvalidArgument, msg, err))
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(apperr.CodeOf(err))
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: apperr.MessageOf(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
