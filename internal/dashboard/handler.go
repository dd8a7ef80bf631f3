package dashboard

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
)

// Prefix is where the feed is mounted on the API server.
const Prefix = "/_linkguard"

// Handler returns the feed routes, relative to Prefix.
func Handler(hub *Hub) http.Handler {
	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"clients": hub.Clients(),
			"events":  hub.Events().Len(),
			"routes": []string{
				Prefix + "/ws",
				Prefix + "/api/stats",
				Prefix + "/api/events",
				Prefix + "/api/ruleset",
			},
		})
	})

	// WebSocket endpoint
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // Allow connections from any origin
		})
		if err != nil {
			return
		}
		defer conn.CloseNow()

		// Keep the connection open by reading (and discarding) client messages.
		ctx := conn.CloseRead(r.Context())

		hub.Register(ctx, conn)
		defer hub.Unregister(conn)
		<-ctx.Done()
	})

	r.Get("/api/stats", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, hub.StatsSnapshot())
	})

	// ?limit=N returns the newest N events, newest first.
	r.Get("/api/events", func(w http.ResponseWriter, r *http.Request) {
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			writeJSON(w, hub.Events().Recent(n))
			return
		}
		writeJSON(w, hub.Events().All())
	})

	r.Get("/api/ruleset", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, hub.Ruleset())
	})

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// Run starts the periodic stats broadcast in background.
func Run(ctx context.Context, hub *Hub) {
	go hub.StartStatsBroadcast(ctx, 5*time.Second)
}
