package service

import "errors"

var (
	// ErrInvalidMode is returned for a mode outside models.Modes
	ErrInvalidMode = errors.New("invalid mode")

	// ErrMatchmakingUnavailable is a retryable queue failure; no entry was created
	ErrMatchmakingUnavailable = errors.New("matchmaking error")

	// ErrRoomNotFound is returned for unknown room ids
	ErrRoomNotFound = errors.New("room not found")
)
