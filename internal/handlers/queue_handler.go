package handlers

import (
	"log"
	"net/http"

	"wordwarrior/internal/models"
	"wordwarrior/internal/service"
)

// QueueHandler handles matchmaking HTTP requests
type QueueHandler struct {
	matchmaking *service.MatchmakingService
	progression *service.ProgressionService
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(matchmaking *service.MatchmakingService, progression *service.ProgressionService) *QueueHandler {
	return &QueueHandler{
		matchmaking: matchmaking,
		progression: progression,
	}
}

// Join enters the caller into the mode's queue or pairs them with the oldest waiter
func (h *QueueHandler) Join(w http.ResponseWriter, r *http.Request) {
	player := GetPlayerFromContext(r.Context())
	if player == nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "", nil)
		return
	}

	// A failed name update should not keep the player out of the queue
	if err := h.progression.RegisterPlayer(r.Context(), player.ID, player.Name); err != nil {
		log.Printf("Error registering player %s: %v", player.ID, err)
	}

	result, err := h.matchmaking.Join(r.Context(), player.ID, models.Mode(r.PathValue("mode")))
	if err != nil {
		respondWithServiceError(w, "Error joining queue", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Cancel withdraws the caller's queue entry. When pairing already won the
// race the match is returned and the player should enter the room.
func (h *QueueHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	player := GetPlayerFromContext(r.Context())
	if player == nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "", nil)
		return
	}

	match, err := h.matchmaking.Cancel(r.Context(), player.ID, models.Mode(r.PathValue("mode")))
	if err != nil {
		respondWithServiceError(w, "Error cancelling queue entry", err)
		return
	}
	if match == nil {
		respondJSON(w, http.StatusOK, service.JoinResult{Status: service.StatusCancelled})
		return
	}
	respondJSON(w, http.StatusOK, service.JoinResult{Status: service.StatusMatched, RoomID: match.RoomID, Role: match.Role})
}

// Poll reports the caller's active room in the mode, or 204 while still waiting
func (h *QueueHandler) Poll(w http.ResponseWriter, r *http.Request) {
	player := GetPlayerFromContext(r.Context())
	if player == nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "", nil)
		return
	}

	match, err := h.matchmaking.PollMatch(r.Context(), player.ID, models.Mode(r.PathValue("mode")))
	if err != nil {
		respondWithServiceError(w, "Error polling match", err)
		return
	}
	if match == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, match)
}
