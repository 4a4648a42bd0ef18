package gateway

import (
	"net/http"

	"github.com/gobwas/ws"
	"go.uber.org/zap"

	"github.com/gogs85/real-time-trading-dashboard/internal/auth"
	"github.com/gogs85/real-time-trading-dashboard/internal/hub"
)

// TokenVerifier gates connection admission.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// Handler authenticates the websocket handshake and hands accepted
// connections to the hub. A missing token is rejected before any
// verification attempt; an invalid or expired one after. The two cases
// stay distinguishable by status and body.
func Handler(h *hub.Hub, verifier TokenVerifier, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.Closed() {
			http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
			return
		}

		token := auth.TokenFromRequest(r)
		if token == "" {
			http.Error(w, "Missing token", http.StatusUnauthorized)
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusForbidden)
			return
		}

		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			logger.Warn("Websocket upgrade failed", zap.Error(err))
			return
		}

		logger.Debug("Websocket handshake accepted", zap.String("user", claims.Username))

		client := NewClient(conn, h, logger, claims)
		if err := h.Register(client); err != nil {
			conn.Close()
			return
		}
		client.Start()
	}
}
