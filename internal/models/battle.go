package models

import "time"

// Mode selects the battle ruleset and matchmaking pool
type Mode string

const (
	ModeClassic  Mode = "classic"
	ModeBlitz    Mode = "blitz"
	ModeTactics  Mode = "tactics"
	ModePractice Mode = "practice"
)

// Modes lists every supported mode
var Modes = []Mode{ModeClassic, ModeBlitz, ModeTactics, ModePractice}

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	switch m {
	case ModeClassic, ModeBlitz, ModeTactics, ModePractice:
		return true
	}
	return false
}

// RoomStatus is the lifecycle state of a battle room
type RoomStatus string

const (
	RoomActive   RoomStatus = "active"
	RoomFinished RoomStatus = "finished"
)

// Outcome records which side won a finished room
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomePlayer1 Outcome = "player1"
	OutcomePlayer2 Outcome = "player2"
	OutcomeDraw    Outcome = "draw"
)

// EndReason records how a room reached the finished state
type EndReason string

const (
	EndNone      EndReason = ""
	EndDefeat    EndReason = "defeat"    // a player's HP reached zero
	EndExhausted EndReason = "exhausted" // every question was played
	EndResigned  EndReason = "resigned"  // a player abandoned while alive
)

// Role identifies a participant's seat in a room
type Role string

const (
	RolePlayer1 Role = "player1"
	RolePlayer2 Role = "player2"
)

// MaxRoomHP is the starting and maximum health of each side of a room
const MaxRoomHP = 100

// Question is one multiple-choice prompt in a battle
type Question struct {
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// BattleRoom is the authoritative record of one match
type BattleRoom struct {
	ID                   string     `json:"id"`
	Mode                 Mode       `json:"mode"`
	Player1ID            string     `json:"player1_id"`
	Player2ID            string     `json:"player2_id"`
	Player1HP            int        `json:"player1_hp"`
	Player2HP            int        `json:"player2_hp"`
	CurrentQuestionIndex int        `json:"current_question_index"`
	Questions            []Question `json:"questions"`
	Status               RoomStatus `json:"status"`
	WinnerID             *string    `json:"winner_id"`
	Outcome              Outcome    `json:"outcome"`
	EndReason            EndReason  `json:"end_reason"`
	ResignedBy           *string    `json:"resigned_by,omitempty"`
	Version              int64      `json:"version"`
	RoundStartedAt       time.Time  `json:"round_started_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// NewBattleRoom creates an active room with full health on both sides
func NewBattleRoom(id string, mode Mode, player1ID, player2ID string, questions []Question, now time.Time) *BattleRoom {
	return &BattleRoom{
		ID:             id,
		Mode:           mode,
		Player1ID:      player1ID,
		Player2ID:      player2ID,
		Player1HP:      MaxRoomHP,
		Player2HP:      MaxRoomHP,
		Questions:      questions,
		Status:         RoomActive,
		Outcome:        OutcomeNone,
		EndReason:      EndNone,
		Version:        1,
		RoundStartedAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// RoleOf returns the seat playerID occupies, or false if not a participant
func (r *BattleRoom) RoleOf(playerID string) (Role, bool) {
	switch playerID {
	case r.Player1ID:
		return RolePlayer1, true
	case r.Player2ID:
		return RolePlayer2, true
	}
	return "", false
}

// OpponentOf returns the other participant's id
func (r *BattleRoom) OpponentOf(playerID string) string {
	if playerID == r.Player1ID {
		return r.Player2ID
	}
	return r.Player1ID
}

// HPOf returns the health of the given participant
func (r *BattleRoom) HPOf(playerID string) int {
	if playerID == r.Player1ID {
		return r.Player1HP
	}
	return r.Player2HP
}

// IsActive reports whether the room still accepts answers
func (r *BattleRoom) IsActive() bool {
	return r.Status == RoomActive
}

// Resigned reports whether playerID ended the match by abandoning it
func (r *BattleRoom) Resigned(playerID string) bool {
	return r.EndReason == EndResigned && r.ResignedBy != nil && *r.ResignedBy == playerID
}

// Clone returns a deep copy safe to mutate
func (r *BattleRoom) Clone() *BattleRoom {
	c := *r
	c.Questions = append([]Question(nil), r.Questions...)
	if r.WinnerID != nil {
		w := *r.WinnerID
		c.WinnerID = &w
	}
	if r.ResignedBy != nil {
		rb := *r.ResignedBy
		c.ResignedBy = &rb
	}
	return &c
}

// BattleAnswer is one accepted answer for one round
type BattleAnswer struct {
	RoomID          string    `json:"room_id"`
	QuestionIndex   int       `json:"question_index"`
	PlayerID        string    `json:"player_id"`
	IsCorrect       bool      `json:"is_correct"`
	TimeRemainingMs int       `json:"time_remaining_ms"`
	Damage          int       `json:"damage"`
	Critical        bool      `json:"critical"`
	Forfeit         bool      `json:"forfeit"`
	CreatedAt       time.Time `json:"created_at"`
}

// QueueEntry is a player waiting to be paired in a mode
type QueueEntry struct {
	ID       string    `json:"id"`
	PlayerID string    `json:"player_id"`
	Mode     Mode      `json:"mode"`
	JoinedAt time.Time `json:"joined_at"`
}

// Player is the minimal profile the battle core knows about
type Player struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// BattleHistoryEntry summarizes a finished room from one player's point of view
type BattleHistoryEntry struct {
	RoomID     string    `json:"room_id"`
	Mode       Mode      `json:"mode"`
	OpponentID string    `json:"opponent_id"`
	MyHP       int       `json:"my_hp"`
	OpponentHP int       `json:"opponent_hp"`
	Result     string    `json:"result"` // win, loss, draw, resigned
	EndReason  EndReason `json:"end_reason"`
	FinishedAt time.Time `json:"finished_at"`
}
