package holdem

import (
	"slices"

	"holdem-engine/card"
)

// Visibility tags data that only some viewers may see.
type Visibility string

const (
	VisibilityPrivate Visibility = "private" // 仅本人可见
	VisibilityPublic  Visibility = "public"  // 摊牌后公开
	VisibilityHidden  Visibility = "hidden"  // 对当前观察者不可见
)

type PlayerView struct {
	ID         string
	Seat       int
	Chips      int64
	Bet        int64
	Folded     bool
	AllIn      bool
	LastAction ActionKind

	Contributed int64 // 本手牌累计投入，含本街

	HoleCards      card.CardList
	HoleVisibility Visibility
}

// PublicState is a copy of the table as one viewer is allowed to see it.
type PublicState struct {
	ViewerID       string
	Street         Street
	CommunityCards card.CardList
	Pot            int64
	CurrentBet     int64
	ActivePlayerID string
	DealerID       string
	Players        []PlayerView
}

// PublicState hides every hole card except the viewer's own, and the
// non-folded hands once the hand reached showdown.
func (s *Session) PublicState(viewerID string) PublicState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(viewerID, false)
}

// Snapshot is the unfiltered state for trusted callers (logging, replay).
func (s *Session) Snapshot() PublicState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view("", true)
}

func (s *Session) view(viewerID string, all bool) PublicState {
	r := &s.round
	st := PublicState{
		ViewerID:       viewerID,
		Street:         r.street,
		CommunityCards: s.community.Clone(),
		Pot:            r.pot,
		CurrentBet:     r.currentBet,
		DealerID:       r.players[s.dealer].id,
		Players:        make([]PlayerView, len(r.players)),
	}
	if r.active != NoPlayer {
		st.ActivePlayerID = r.players[r.active].id
	}
	shown := r.street == StreetShowdown
	for i, p := range r.players {
		pv := PlayerView{
			ID:             p.id,
			Seat:           p.seat,
			Chips:          p.chips,
			Bet:            p.bet,
			Folded:         p.folded,
			AllIn:          p.allIn,
			LastAction:     p.lastAction,
			Contributed:    p.contributed,
			HoleVisibility: VisibilityHidden,
		}
		switch {
		case shown && !p.folded:
			pv.HoleCards = p.holeCards.Clone()
			pv.HoleVisibility = VisibilityPublic
		case all || p.id == viewerID:
			pv.HoleCards = p.holeCards.Clone()
			pv.HoleVisibility = VisibilityPrivate
		}
		st.Players[i] = pv
	}
	return st
}

// LegalActions 当前可执行的动作
type LegalActions struct {
	Kinds      []ActionKind
	CallAmount int64 // chips a CALL moves
	MinRaiseTo int64 // 0 when RAISE is not allowed
	MaxRaiseTo int64
}

func (l LegalActions) Allows(k ActionKind) bool {
	return slices.Contains(l.Kinds, k)
}

// LegalActions lists what playerID may do right now. It fails with the same
// precondition errors as Act.
func (s *Session) LegalActions(playerID string) (LegalActions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := &s.round
	if r.street.Ended() {
		return LegalActions{}, ErrHandOver
	}
	idx := s.indexOf(playerID)
	switch {
	case idx < 0:
		return LegalActions{}, ErrUnknownPlayer
	case r.players[idx].folded:
		return LegalActions{}, ErrPlayerFolded
	case idx != r.active:
		return LegalActions{}, ErrNotPlayersTurn
	}

	p := r.players[idx]
	out := LegalActions{Kinds: []ActionKind{ActionFold}}
	if p.bet == r.currentBet {
		out.Kinds = append(out.Kinds, ActionCheck)
	} else if need := r.currentBet - p.bet; p.chips >= need {
		out.Kinds = append(out.Kinds, ActionCall)
		out.CallAmount = need
	}
	if top := p.chips + p.bet; !r.raiseClosed() && top > r.currentBet {
		out.Kinds = append(out.Kinds, ActionRaise)
		out.MinRaiseTo = r.currentBet + 1
		out.MaxRaiseTo = top
	}
	return out, nil
}
