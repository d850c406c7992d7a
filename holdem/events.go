package holdem

import "holdem-engine/card"

// Event is a state change emitted by a Session. Audience returns the id of
// the only player allowed to see the event, or "" when it is public.
type Event interface {
	EventName() string
	Audience() string
}

type HandStarted struct {
	DealerID string
	Players  []string
}

// HoleCardsDealt is private to PlayerID.
type HoleCardsDealt struct {
	PlayerID string
	Cards    card.CardList
}

type BlindPosted struct {
	PlayerID string
	Amount   int64
	Pot      int64
}

type ActionApplied struct {
	PlayerID   string
	Action     Action
	Chips      int64 // stack after the action
	Pot        int64
	CurrentBet int64
}

type StreetAdvanced struct {
	Street Street
	Dealt  card.CardList
	Board  card.CardList
}

type TurnChanged struct {
	PlayerID   string
	CallAmount int64
}

type HandEnded struct {
	Result ShowdownResult
}

func (HandStarted) EventName() string    { return "hand_started" }
func (HoleCardsDealt) EventName() string { return "hole_cards" }
func (BlindPosted) EventName() string    { return "blind_posted" }
func (ActionApplied) EventName() string  { return "action_applied" }
func (StreetAdvanced) EventName() string { return "street_advanced" }
func (TurnChanged) EventName() string    { return "turn_changed" }
func (HandEnded) EventName() string      { return "hand_ended" }

func (HandStarted) Audience() string      { return "" }
func (e HoleCardsDealt) Audience() string { return e.PlayerID }
func (BlindPosted) Audience() string      { return "" }
func (ActionApplied) Audience() string    { return "" }
func (StreetAdvanced) Audience() string   { return "" }
func (TurnChanged) Audience() string      { return "" }
func (HandEnded) Audience() string        { return "" }
