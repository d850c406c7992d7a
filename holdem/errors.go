package holdem

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalCheck      = errors.New("cannot check facing a bet")
	ErrIllegalCall       = errors.New("nothing to call")
	ErrIllegalRaise      = errors.New("illegal raise")
	ErrInsufficientChips = errors.New("insufficient chips")
	ErrNotPlayersTurn    = errors.New("not player's turn")
	ErrPlayerFolded      = errors.New("player has folded")
	ErrUnknownPlayer     = errors.New("unknown player")
	ErrHandOver          = errors.New("hand already over")
	ErrHandNotOver       = errors.New("hand not over")
	ErrInvalidHandSize   = errors.New("hand must have 5 to 7 cards")
	ErrDuplicateCard     = errors.New("duplicate card")
)

// ActionError is returned by Session.Act for every rejected action.
// errors.Is matches the wrapped sentinel.
type ActionError struct {
	PlayerID string
	Action   Action
	Err      error
	Detail   string
}

func (e *ActionError) Error() string {
	msg := fmt.Sprintf("%s by %q: %v", e.Action, e.PlayerID, e.Err)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *ActionError) Unwrap() error { return e.Err }

type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid state: " + string(e) }

func ErrInvalidState(msg string) error { return InvalidStateError(msg) }
