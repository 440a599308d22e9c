package handlers

import (
	"net/http"

	"wordwarrior/internal/progression"
	"wordwarrior/internal/service"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// Activity types accepted by ApplyActivity
const (
	activityBattleResult = "battle_result"
	activityVocabMastery = "vocab_mastery"
	activityWritingScore = "writing_score"
	activityReading      = "reading_answer"
)

// ProgressionHandler handles stats and activity HTTP requests
type ProgressionHandler struct {
	progression *service.ProgressionService
}

// NewProgressionHandler creates a new progression handler
func NewProgressionHandler(progression *service.ProgressionService) *ProgressionHandler {
	return &ProgressionHandler{progression: progression}
}

type activityRequest struct {
	Type       string `json:"type"`
	Result     string `json:"result,omitempty"`
	Words      int    `json:"words,omitempty"`
	Score      int    `json:"score,omitempty"`
	Correct    bool   `json:"correct,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// outcome converts the request into a progression outcome.
// Ranked battle results are only produced by the server when a room finishes,
// so reported battle results always count as unranked practice.
func (req activityRequest) outcome() (progression.Outcome, bool) {
	switch req.Type {
	case activityBattleResult:
		result := progression.Result(req.Result)
		if result != progression.Win && result != progression.Loss && result != progression.Draw {
			return nil, false
		}
		return progression.BattleResult{Result: result, Ranked: false}, true
	case activityVocabMastery:
		if req.Words < 0 {
			return nil, false
		}
		return progression.VocabMastery{Words: req.Words}, true
	case activityWritingScore:
		if req.Score < 0 || req.Score > 100 {
			return nil, false
		}
		return progression.WritingScore{Score: req.Score}, true
	case activityReading:
		difficulty := progression.Difficulty(req.Difficulty)
		if difficulty != progression.Easy && difficulty != progression.Medium && difficulty != progression.Hard {
			return nil, false
		}
		return progression.ReadingAnswer{Correct: req.Correct, Difficulty: difficulty}, true
	}
	return nil, false
}

// Stats returns the caller's progression stats
func (h *ProgressionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	player := GetPlayerFromContext(r.Context())
	if player == nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "", nil)
		return
	}

	stats, err := h.progression.GetStats(r.Context(), player.ID)
	if err != nil {
		respondWithServiceError(w, "Error loading stats", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// ApplyActivity applies a completed practice activity to the caller's stats
func (h *ProgressionHandler) ApplyActivity(w http.ResponseWriter, r *http.Request) {
	player := GetPlayerFromContext(r.Context())
	if player == nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "", nil)
		return
	}

	var req activityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid activity", "", nil)
		return
	}
	outcome, ok := req.outcome()
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid activity", "", nil)
		return
	}

	stats, err := h.progression.ApplyActivityOutcome(r.Context(), player.ID, outcome)
	if err != nil {
		respondWithServiceError(w, "Error applying activity", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Leaderboard returns the top ranked players
func (h *ProgressionHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.progression.Leaderboard(r.Context(), parseLimit(r, defaultLeaderboardLimit, maxLeaderboardLimit))
	if err != nil {
		respondWithServiceError(w, "Error loading leaderboard", err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
