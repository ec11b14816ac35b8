package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Handler serves the websocket upgrade endpoint and connection stats.
type Handler struct {
	cm  *ConnectionManager
	log zerolog.Logger
}

func NewHandler(cm *ConnectionManager, log zerolog.Logger) *Handler {
	return &Handler{cm: cm, log: log.With().Str("component", "gateway-http").Logger()}
}

// HandleEvents upgrades the request to a websocket. An optional topic query
// parameter narrows the event stream, e.g. topic=draft.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous"
	}
	topic := r.URL.Query().Get("topic")

	if err := h.cm.UpgradeConnection(w, r, userID, topic); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("websocket upgrade failed")
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
	}
}

// HandleStats reports live connection counts.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"connections": h.cm.ConnectionCount(),
	})
}

// Mux returns the gateway's HTTP handler with CORS applied.
func (h *Handler) Mux(allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/events", h.HandleEvents)
	mux.HandleFunc("/ws/stats", h.HandleStats)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	})
	return c.Handler(mux)
}
