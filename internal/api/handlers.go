package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gogs85/real-time-trading-dashboard/internal/auth"
	"github.com/gogs85/real-time-trading-dashboard/internal/cache"
	"github.com/gogs85/real-time-trading-dashboard/internal/market"
	"github.com/gogs85/real-time-trading-dashboard/pkg/models"
)

const (
	defaultHistoryPoints = 50
	defaultRecentLimit   = 20
)

// Handler is the request/response surface over the ticker store, the
// simulator's series generator and the TTL cache.
type Handler struct {
	store    *market.Store
	sim      *market.Simulator
	cache    *cache.Cache[models.HistoricalData]
	auth     *auth.Service
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewHandler(
	store *market.Store,
	sim *market.Simulator,
	histCache *cache.Cache[models.HistoricalData],
	authSvc *auth.Service,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		store:    store,
		sim:      sim,
		cache:    histCache,
		auth:     authSvc,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Routes builds the HTTP handler with the full middleware chain.
func (h *Handler) Routes(corsOrigin string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.HandleFunc("GET /api/auth/verify", h.verify)
	mux.HandleFunc("GET /api/tickers", h.listTickers)
	mux.HandleFunc("GET /api/tickers/{symbol}", h.getTicker)
	mux.HandleFunc("GET /api/tickers/{symbol}/history", h.history)
	mux.HandleFunc("GET /api/tickers/{symbol}/recent", h.recent)
	mux.HandleFunc("/", h.notFound)

	var handler http.Handler = mux
	handler = h.accessLog(handler)
	handler = h.optionalAuth(handler)
	handler = corsMiddleware(corsOrigin, handler)
	handler = h.recoverPanic(handler)
	return handler
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Username and password required")
		return
	}

	token, user, err := h.auth.Login(req.Username, req.Password)
	switch err {
	case nil:
	case auth.ErrMissingCredentials:
		writeError(w, http.StatusBadRequest, "Username and password required")
		return
	case auth.ErrInvalidCredentials:
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	default:
		h.logger.Error("Login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	token := auth.BearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "No token provided")
		return
	}

	claims, err := h.auth.Verify(token)
	if err != nil {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{
			"error": "Invalid token",
			"valid": false,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid": true,
		"user":  claims,
	})
}

func (h *Handler) listTickers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tickers": h.store.All(),
	})
}

func (h *Handler) getTicker(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))

	ticker, ok := h.store.Get(symbol)
	if !ok {
		writeError(w, http.StatusNotFound, "Ticker not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ticker": ticker})
}

type historyResponse struct {
	models.HistoricalData
	Cached bool `json:"cached"`
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	points := queryInt(r, "points", defaultHistoryPoints)
	cacheKey := fmt.Sprintf("history:%s:%d", symbol, points)

	// Check cache first
	if cached, ok := h.cache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, historyResponse{HistoricalData: cached, Cached: true})
		return
	}

	data, ok := h.sim.Generate(symbol, points)
	if !ok {
		writeError(w, http.StatusNotFound, "Ticker not found")
		return
	}

	h.cache.Set(cacheKey, data, h.cacheTTL)
	writeJSON(w, http.StatusOK, historyResponse{HistoricalData: data, Cached: false})
}

func (h *Handler) recent(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	limit := queryInt(r, "limit", defaultRecentLimit)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"data":   h.store.RecentHistory(symbol, limit),
	})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Route not found")
}

// queryInt parses a positive integer query parameter, falling back to the
// default when absent, malformed or non-positive.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
