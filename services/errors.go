package services

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomClosed         = errors.New("room is closed")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrUnknownMessage     = errors.New("unknown message")
	ErrInvalidPayload     = errors.New("invalid payload")
	ErrPayloadType        = errors.New("unexpected payload type")
	ErrGameInProgress     = errors.New("game already in progress")
	ErrNoPrompts          = errors.New("no prompts available")
	ErrInvalidPrompt      = errors.New("invalid prompt")
)
