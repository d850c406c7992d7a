package holdem

import (
	"fmt"
	"log"
	"slices"
	"sync"

	"holdem-engine/card"
)

// LoggedAction is one accepted action, in application order.
type LoggedAction struct {
	Street   Street
	PlayerID string
	Action   Action
}

// HandLog holds everything needed to re-run a hand: the seats, the config,
// the full deck order at the start of the hand and every accepted action.
type HandLog struct {
	Config  Config
	Seats   []Seat
	Deck    card.CardList
	Actions []LoggedAction
}

// Session runs exactly one hand. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	cfg       Config
	seats     []Seat
	deck      *card.Deck
	startDeck card.CardList
	community card.CardList
	dealer    int

	round  bettingRound
	result *ShowdownResult

	events  []Event
	actions []LoggedAction
}

// NewSession validates cfg and seats, shuffles (or takes cfg.Deck), deals the
// hole cards, posts blinds and leaves the hand on PREFLOP.
func NewSession(cfg Config, seats []Seat) (*Session, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	n := len(seats)
	if n < cfg.MinPlayers || n > cfg.MaxPlayers {
		return nil, fmt.Errorf("need %d..%d players, got %d", cfg.MinPlayers, cfg.MaxPlayers, n)
	}
	seen := make(map[string]bool, n)
	for _, st := range seats {
		if st.ID == "" {
			return nil, fmt.Errorf("empty player id")
		}
		if seen[st.ID] {
			return nil, fmt.Errorf("duplicate player id %q", st.ID)
		}
		seen[st.ID] = true
		if st.Chips <= 0 {
			return nil, fmt.Errorf("player %q has no chips", st.ID)
		}
		if st.Chips < cfg.BigBlind {
			return nil, fmt.Errorf("player %q: %w for big blind %d", st.ID, ErrInsufficientChips, cfg.BigBlind)
		}
	}
	dealer := cfg.Dealer
	if dealer == -1 {
		dealer = n - 1
	}
	if dealer >= n {
		return nil, fmt.Errorf("dealer seat %d out of range", dealer)
	}

	var deck *card.Deck
	if len(cfg.Deck) > 0 {
		if need := 2*n + 5; len(cfg.Deck) < need {
			return nil, fmt.Errorf("deck override has %d cards, need %d", len(cfg.Deck), need)
		}
		d, err := card.NewOrderedDeck(cfg.Deck)
		if err != nil {
			return nil, err
		}
		deck = d
	} else {
		deck = card.NewShuffledDeck(card.NewRand(cfg.Seed))
	}

	s := &Session{
		cfg:       cfg,
		seats:     slices.Clone(seats),
		deck:      deck,
		startDeck: deck.Cards(),
		dealer:    dealer,
	}
	s.round.players = make([]*Player, n)
	for i, st := range seats {
		s.round.players[i] = newPlayer(i, st)
	}
	if err := s.initHand(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) initHand() error {
	r := &s.round
	n := len(r.players)
	ids := make([]string, n)
	for i, p := range r.players {
		ids[i] = p.id
	}
	s.emit(HandStarted{DealerID: r.players[s.dealer].id, Players: ids})

	// 从庄家左手边开始逐张发牌，每人两张
	for round := 0; round < 2; round++ {
		for k := 1; k <= n; k++ {
			p := r.players[(s.dealer+k)%n]
			c, err := s.deck.DealOne()
			if err != nil {
				return s.deckFailure(err)
			}
			p.holeCards.Add(c)
		}
	}
	for _, p := range r.players {
		s.emit(HoleCardsDealt{PlayerID: p.id, Cards: p.holeCards.Clone()})
	}

	r.street = StreetPreflop
	from := s.dealer
	if s.cfg.BigBlind > 0 {
		sb, bb := (s.dealer+1)%n, (s.dealer+2)%n
		if n == 2 {
			sb, bb = s.dealer, (s.dealer+1)%n
		}
		if s.cfg.SmallBlind > 0 {
			amt := r.post(sb, s.cfg.SmallBlind)
			s.emit(BlindPosted{PlayerID: r.players[sb].id, Amount: amt, Pot: r.pot})
		}
		amt := r.post(bb, s.cfg.BigBlind)
		s.emit(BlindPosted{PlayerID: r.players[bb].id, Amount: amt, Pot: r.pot})
		from = bb
	}
	r.active = NextActivePlayer(r.players, from)
	if r.streetClosed() {
		return s.closeStreet()
	}
	s.emitTurn()
	return nil
}

// Act applies one player action. Rejected actions leave the session unchanged
// and return an *ActionError.
func (s *Session) Act(playerID string, a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := &s.round
	if r.street.Ended() {
		return &ActionError{PlayerID: playerID, Action: a, Err: ErrHandOver}
	}
	idx := s.indexOf(playerID)
	if idx < 0 {
		return &ActionError{PlayerID: playerID, Action: a, Err: ErrUnknownPlayer}
	}
	if r.players[idx].folded {
		return &ActionError{PlayerID: playerID, Action: a, Err: ErrPlayerFolded}
	}
	if idx != r.active {
		return &ActionError{PlayerID: playerID, Action: a, Err: ErrNotPlayersTurn}
	}
	street := r.street
	if err := r.apply(idx, a); err != nil {
		return err
	}

	p := r.players[idx]
	s.actions = append(s.actions, LoggedAction{Street: street, PlayerID: playerID, Action: a})
	s.emit(ActionApplied{PlayerID: playerID, Action: a, Chips: p.chips, Pot: r.pot, CurrentBet: r.currentBet})
	return s.advance()
}

// advance moves the turn, closes the street or ends the hand after an action.
func (s *Session) advance() error {
	r := &s.round
	if r.liveCount() == 1 {
		s.finishByFold()
		return nil
	}
	if r.streetClosed() {
		return s.closeStreet()
	}
	r.active = NextActivePlayer(r.players, r.active)
	s.emitTurn()
	return nil
}

// closeStreet deals the next street. While nobody is left to bet it keeps
// dealing until the river and then settles.
func (s *Session) closeStreet() error {
	r := &s.round
	for {
		if r.street == StreetRiver {
			return s.resolveShowdown()
		}
		next := r.street + 1
		dealt, err := s.deck.DealMany(next.dealCount())
		if err != nil {
			return s.deckFailure(err)
		}
		s.community.Add(dealt...)
		r.resetStreet()
		r.street = next
		r.active = NextActivePlayer(r.players, s.dealer)
		s.emit(StreetAdvanced{Street: next, Dealt: dealt, Board: s.community.Clone()})
		if !r.streetClosed() {
			s.emitTurn()
			return nil
		}
	}
}

func (s *Session) deckFailure(err error) error {
	log.Printf("[Holdem] deck exhausted on %s with %d seats: %v", s.round.street, len(s.round.players), err)
	return ErrInvalidState(err.Error())
}

func (s *Session) emitTurn() {
	r := &s.round
	if r.active == NoPlayer {
		return
	}
	p := r.players[r.active]
	s.emit(TurnChanged{PlayerID: p.id, CallAmount: r.currentBet - p.bet})
}

func (s *Session) emit(e Event) {
	s.events = append(s.events, e)
}

func (s *Session) indexOf(playerID string) int {
	for i, p := range s.round.players {
		if p.id == playerID {
			return i
		}
	}
	return -1
}

// DrainEvents returns and clears the queued events.
func (s *Session) DrainEvents() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.events
	s.events = nil
	return out
}

func (s *Session) Street() Street {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round.street
}

// Ended reports whether the hand has been settled.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result != nil
}

// ActivePlayerID returns "" when nobody is to act.
func (s *Session) ActivePlayerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.round.active == NoPlayer {
		return ""
	}
	return s.round.players[s.round.active].id
}

// ShowdownResult returns ErrHandNotOver until the hand is settled.
func (s *Session) ShowdownResult() (ShowdownResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return ShowdownResult{}, ErrHandNotOver
	}
	return s.result.clone(), nil
}

// Log returns the replay input for this hand so far.
func (s *Session) Log() HandLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.cfg
	cfg.Deck = nil
	cfg.Dealer = s.dealer
	return HandLog{
		Config:  cfg,
		Seats:   slices.Clone(s.seats),
		Deck:    s.startDeck.Clone(),
		Actions: slices.Clone(s.actions),
	}
}
