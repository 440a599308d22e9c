package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"wordwarrior/internal/battle"
	"wordwarrior/internal/service"
)

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, map[string]string{"error": userMsg})
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// respondWithServiceError maps service and battle errors onto HTTP statuses
func respondWithServiceError(w http.ResponseWriter, logMsg string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidMode):
		respondWithError(w, http.StatusBadRequest, "Invalid mode", "", nil)
	case errors.Is(err, service.ErrRoomNotFound):
		respondWithError(w, http.StatusNotFound, "Room not found", "", nil)
	case errors.Is(err, battle.ErrNotParticipant):
		respondWithError(w, http.StatusForbidden, "Not a participant in this room", "", nil)
	case errors.Is(err, battle.ErrInvalidState):
		respondWithError(w, http.StatusConflict, "Room does not accept this event", logMsg, err)
	case errors.Is(err, service.ErrMatchmakingUnavailable):
		respondWithError(w, http.StatusServiceUnavailable, service.ErrMatchmakingUnavailable.Error(), logMsg, err)
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error", logMsg, err)
	}
}

// decodeJSON reads a JSON request body; an empty body leaves v untouched
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
