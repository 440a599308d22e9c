package handlers

import "net/http"

// RegisterRoutes mounts the JSON API on mux
func RegisterRoutes(mux *http.ServeMux, mw *Middleware, queue *QueueHandler, battles *BattleHandler, progression *ProgressionHandler, push *PushHandler) {
	player := func(h http.HandlerFunc) http.HandlerFunc {
		return mw.RequirePlayer(mw.RateLimit(h))
	}

	// Matchmaking
	mux.HandleFunc("POST /api/queue/{mode}/join", player(queue.Join))
	mux.HandleFunc("POST /api/queue/{mode}/cancel", player(queue.Cancel))
	mux.HandleFunc("GET /api/queue/{mode}/match", player(queue.Poll))

	// Battle rooms
	mux.HandleFunc("GET /api/rooms/{id}", player(battles.GetRoom))
	mux.HandleFunc("POST /api/rooms/{id}/answers", player(battles.SubmitAnswer))
	mux.HandleFunc("POST /api/rooms/{id}/timeout", player(battles.Timeout))
	// Abandon arrives from unloading pages and is never throttled
	mux.HandleFunc("POST /api/rooms/{id}/abandon", mw.RequirePlayer(battles.Abandon))
	mux.HandleFunc("GET /api/history", player(battles.History))

	// Notifications
	mux.HandleFunc("GET /api/ws", mw.RequirePlayer(push.Subscribe))

	// Progression
	mux.HandleFunc("GET /api/stats", player(progression.Stats))
	mux.HandleFunc("POST /api/activities", player(progression.ApplyActivity))
	mux.HandleFunc("GET /api/leaderboard", mw.RateLimit(progression.Leaderboard))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
