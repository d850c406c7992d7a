package npc

import (
	"holdem-engine/card"
	"holdem-engine/holdem"
)

// GameView is a read-only projection of the hand visible to the NPC.
type GameView struct {
	PlayerID    string
	Street      holdem.Street
	HoleCards   card.CardList
	Community   card.CardList
	Pot         int64
	CurrentBet  int64
	MyBet       int64
	MyStack     int64
	Legal       holdem.LegalActions
	ActiveCount int
}

// BrainDecider is the core interface all NPC types implement.
type BrainDecider interface {
	// Decide is called when it's the NPC's turn. The returned action must be
	// one of view.Legal.
	Decide(view GameView) holdem.Action
	// Name returns a human-readable identifier for debugging.
	Name() string
}

// ViewFor builds the view playerID is entitled to. It fails when it is not
// that player's turn.
func ViewFor(s *holdem.Session, playerID string) (GameView, error) {
	legal, err := s.LegalActions(playerID)
	if err != nil {
		return GameView{}, err
	}
	st := s.PublicState(playerID)
	v := GameView{
		PlayerID:   playerID,
		Street:     st.Street,
		Community:  st.CommunityCards,
		Pot:        st.Pot,
		CurrentBet: st.CurrentBet,
		Legal:      legal,
	}
	for _, p := range st.Players {
		if !p.Folded {
			v.ActiveCount++
		}
		if p.ID == playerID {
			v.HoleCards = p.HoleCards
			v.MyBet = p.Bet
			v.MyStack = p.Chips
		}
	}
	return v, nil
}
