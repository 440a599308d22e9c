package handlers

import (
	"net/http"
	"strconv"
	"time"

	"wordwarrior/internal/battle"
	"wordwarrior/internal/service"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// BattleHandler handles battle room HTTP requests
type BattleHandler struct {
	battles *service.BattleService
}

// NewBattleHandler creates a new battle handler
func NewBattleHandler(battles *service.BattleService) *BattleHandler {
	return &BattleHandler{battles: battles}
}

type answerRequest struct {
	QuestionIndex   *int  `json:"question_index"`
	IsCorrect       bool  `json:"is_correct"`
	TimeRemainingMs int64 `json:"time_remaining_ms"`
}

type timeoutRequest struct {
	QuestionIndex *int `json:"question_index"`
}

// GetRoom returns the room as seen by the caller
func (h *BattleHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	player := GetPlayerFromContext(r.Context())
	if player == nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "", nil)
		return
	}

	view, err := h.battles.GetRoomView(r.Context(), r.PathValue("id"), player.ID)
	if err != nil {
		respondWithServiceError(w, "Error loading room", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// SubmitAnswer records the caller's answer to the current question
func (h *BattleHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	player := GetPlayerFromContext(r.Context())
	if player == nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "", nil)
		return
	}

	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil || req.QuestionIndex == nil {
		respondWithError(w, http.StatusBadRequest, "Invalid answer", "", nil)
		return
	}

	result, err := h.battles.SubmitAnswer(r.Context(), r.PathValue("id"), battle.Submission{
		PlayerID:      player.ID,
		QuestionIndex: *req.QuestionIndex,
		IsCorrect:     req.IsCorrect,
		TimeRemaining: time.Duration(req.TimeRemainingMs) * time.Millisecond,
	})
	if err != nil {
		respondWithServiceError(w, "Error submitting answer", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Timeout forfeits an unanswered round once its deadline has passed
func (h *BattleHandler) Timeout(w http.ResponseWriter, r *http.Request) {
	player := GetPlayerFromContext(r.Context())
	if player == nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "", nil)
		return
	}

	var req timeoutRequest
	if err := decodeJSON(w, r, &req); err != nil || req.QuestionIndex == nil {
		respondWithError(w, http.StatusBadRequest, "Invalid timeout request", "", nil)
		return
	}

	result, err := h.battles.ExpireRound(r.Context(), r.PathValue("id"), player.ID, *req.QuestionIndex)
	if err != nil {
		respondWithServiceError(w, "Error expiring round", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Abandon resigns the caller. Pages send it with sendBeacon while unloading,
// so the body is ignored.
func (h *BattleHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	player := GetPlayerFromContext(r.Context())
	if player == nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "", nil)
		return
	}

	result, err := h.battles.Abandon(r.Context(), r.PathValue("id"), player.ID)
	if err != nil {
		respondWithServiceError(w, "Error abandoning room", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// History lists the caller's finished battles
func (h *BattleHandler) History(w http.ResponseWriter, r *http.Request) {
	player := GetPlayerFromContext(r.Context())
	if player == nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "", nil)
		return
	}

	history, err := h.battles.History(r.Context(), player.ID, parseLimit(r, defaultHistoryLimit, maxHistoryLimit))
	if err != nil {
		respondWithServiceError(w, "Error loading history", err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// parseLimit reads the limit query parameter, falling back to def and capping at maxLimit
func parseLimit(r *http.Request, def, maxLimit int) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
