package game

import "errors"

// Error taxonomy of the engine. Rule violations are *rules.Violation values
// and carry their own stable reason code; everything else maps onto one of
// these sentinels. Dependency failures (stats store, event publisher) are
// logged and swallowed, never surfaced.
var (
	ErrNotFound     = errors.New("room or session not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)
