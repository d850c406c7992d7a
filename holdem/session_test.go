package holdem

import (
	"errors"
	"testing"

	"holdem-engine/card"
)

// stackDeck builds a deck that deals holes[i] to seat i when the dealer sits
// in the last seat, followed by board and then the rest of the deck.
func stackDeck(t *testing.T, holes []string, board string) []card.Card {
	t.Helper()
	n := len(holes)
	deck := make(card.CardList, 2*n)
	used := map[card.Card]bool{}
	for i, h := range holes {
		cs := card.MustParseList(h)
		if len(cs) != 2 {
			t.Fatalf("hole %q must have 2 cards", h)
		}
		deck[i], deck[n+i] = cs[0], cs[1]
		used[cs[0]], used[cs[1]] = true, true
	}
	for _, c := range card.MustParseList(board) {
		deck = append(deck, c)
		used[c] = true
	}
	for _, c := range card.FullDeck() {
		if !used[c] {
			deck = append(deck, c)
		}
	}
	return deck
}

func seats(chips ...int64) []Seat {
	ids := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I"}
	out := make([]Seat, len(chips))
	for i, c := range chips {
		out[i] = Seat{ID: ids[i], Chips: c}
	}
	return out
}

func newTestSession(t *testing.T, cfg Config, st []Seat) *Session {
	t.Helper()
	s, err := NewSession(cfg, st)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func mustAct(t *testing.T, s *Session, id string, a Action) {
	t.Helper()
	if err := s.Act(id, a); err != nil {
		t.Fatalf("Act(%s, %s): %v", id, a, err)
	}
}

// checkDown checks (or calls when facing a bet) until the hand ends.
func checkDown(t *testing.T, s *Session) {
	t.Helper()
	for i := 0; !s.Ended(); i++ {
		if i > 100 {
			t.Fatalf("hand did not finish")
		}
		id := s.ActivePlayerID()
		legal, err := s.LegalActions(id)
		if err != nil {
			t.Fatalf("LegalActions(%s): %v", id, err)
		}
		a := Check()
		if !legal.Allows(ActionCheck) {
			a = Call()
		}
		mustAct(t, s, id, a)
	}
}

func totalChips(st PublicState) int64 {
	sum := st.Pot
	for _, p := range st.Players {
		sum += p.Chips
	}
	return sum
}

func TestRaiseCallAdvancesToFlop(t *testing.T) {
	s := newTestSession(t, DefaultConfig(), seats(100, 100))
	if got := s.Street(); got != StreetPreflop {
		t.Fatalf("street=%s want PREFLOP", got)
	}
	if got := s.ActivePlayerID(); got != "A" {
		t.Fatalf("first to act=%s want A", got)
	}

	mustAct(t, s, "A", RaiseTo(10))
	st := s.Snapshot()
	if st.Pot != 10 || st.CurrentBet != 10 || st.Players[0].Chips != 90 || st.ActivePlayerID != "B" {
		t.Fatalf("after raise: pot=%d bet=%d chips=%d active=%s", st.Pot, st.CurrentBet, st.Players[0].Chips, st.ActivePlayerID)
	}

	mustAct(t, s, "B", Call())
	st = s.Snapshot()
	if st.Street != StreetFlop {
		t.Fatalf("street=%s want FLOP", st.Street)
	}
	if st.Pot != 20 || st.CurrentBet != 0 {
		t.Fatalf("pot=%d currentBet=%d want 20/0", st.Pot, st.CurrentBet)
	}
	for _, p := range st.Players {
		if p.Bet != 0 || p.Chips != 90 {
			t.Fatalf("player %s bet=%d chips=%d", p.ID, p.Bet, p.Chips)
		}
	}
	if len(st.CommunityCards) != 3 {
		t.Fatalf("community=%d want 3", len(st.CommunityCards))
	}
	if st.ActivePlayerID != "A" {
		t.Fatalf("flop first to act=%s want A", st.ActivePlayerID)
	}
}

func TestCheckFacingBetIsRejected(t *testing.T) {
	s := newTestSession(t, DefaultConfig(), seats(100, 100))
	mustAct(t, s, "A", RaiseTo(10))
	before := s.Snapshot()

	err := s.Act("B", Check())
	if !errors.Is(err, ErrIllegalCheck) {
		t.Fatalf("err=%v want ErrIllegalCheck", err)
	}
	var ae *ActionError
	if !errors.As(err, &ae) || ae.PlayerID != "B" || ae.Action.Kind != ActionCheck {
		t.Fatalf("err=%#v want *ActionError for B CHECK", err)
	}
	after := s.Snapshot()
	if after.Pot != before.Pot || after.ActivePlayerID != "B" || after.Players[1].Chips != 100 {
		t.Fatalf("state changed after rejected action")
	}
}

func TestCallWithoutChipsIsRejected(t *testing.T) {
	s := newTestSession(t, DefaultConfig(), seats(100, 20))
	mustAct(t, s, "A", RaiseTo(50))
	before := s.Snapshot()
	if err := s.Act("B", Call()); !errors.Is(err, ErrInsufficientChips) {
		t.Fatalf("err=%v want ErrInsufficientChips", err)
	}
	if err := s.Act("B", RaiseTo(60)); !errors.Is(err, ErrInsufficientChips) {
		t.Fatalf("raise err=%v want ErrInsufficientChips", err)
	}
	if err := s.Act("B", RaiseTo(50)); !errors.Is(err, ErrIllegalRaise) {
		t.Fatalf("raise to current bet err=%v want ErrIllegalRaise", err)
	}
	after := s.Snapshot()
	if after.Pot != before.Pot || after.CurrentBet != before.CurrentBet || after.ActivePlayerID != "B" {
		t.Fatalf("pot=%d bet=%d active=%s after rejected actions, want pot=%d bet=%d active=B",
			after.Pot, after.CurrentBet, after.ActivePlayerID, before.Pot, before.CurrentBet)
	}
	for i, p := range after.Players {
		if p.Chips != before.Players[i].Chips || p.Bet != before.Players[i].Bet || p.Folded {
			t.Fatalf("%s changed by rejected actions: %+v -> %+v", p.ID, before.Players[i], p)
		}
	}
	mustAct(t, s, "B", Fold())
}

func TestCallWithNothingToCall(t *testing.T) {
	s := newTestSession(t, DefaultConfig(), seats(100, 100))
	if err := s.Act("A", Call()); !errors.Is(err, ErrIllegalCall) {
		t.Fatalf("err=%v want ErrIllegalCall", err)
	}
}

func TestPreconditionOrder(t *testing.T) {
	s := newTestSession(t, DefaultConfig(), seats(100, 100, 100))
	if err := s.Act("Z", Fold()); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("unknown: err=%v", err)
	}
	if err := s.Act("B", Check()); !errors.Is(err, ErrNotPlayersTurn) {
		t.Fatalf("out of turn: err=%v", err)
	}
	mustAct(t, s, "A", Fold())
	if err := s.Act("A", Check()); !errors.Is(err, ErrPlayerFolded) {
		t.Fatalf("folded: err=%v", err)
	}
	mustAct(t, s, "B", Fold())
	if err := s.Act("C", Check()); !errors.Is(err, ErrHandOver) {
		t.Fatalf("after hand: err=%v", err)
	}
	if err := s.Act("Z", Check()); !errors.Is(err, ErrHandOver) {
		t.Fatalf("hand over is checked first: err=%v", err)
	}
}

func TestFoldToLastPlayerWins(t *testing.T) {
	s := newTestSession(t, DefaultConfig(), seats(100, 100, 100))
	mustAct(t, s, "A", RaiseTo(10))
	mustAct(t, s, "B", Call())
	if _, err := s.ShowdownResult(); !errors.Is(err, ErrHandNotOver) {
		t.Fatalf("ShowdownResult before end: err=%v", err)
	}
	mustAct(t, s, "C", Fold())
	// flop: A bets, B folds
	mustAct(t, s, "A", RaiseTo(5))
	mustAct(t, s, "B", Fold())

	if got := s.Street(); got != StreetHandOver {
		t.Fatalf("street=%s want HAND_OVER", got)
	}
	res, err := s.ShowdownResult()
	if err != nil {
		t.Fatalf("ShowdownResult: %v", err)
	}
	if !res.ByFold || len(res.Winners) != 1 || res.Winners[0] != "A" || res.Payouts["A"] != 25 {
		t.Fatalf("result=%+v", res)
	}
	if len(res.RevealedHands) != 0 {
		t.Fatalf("fold win must not reveal hands: %+v", res.RevealedHands)
	}
	st := s.Snapshot()
	if st.Players[0].Chips != 110 || st.Players[1].Chips != 90 || st.Players[2].Chips != 100 {
		t.Fatalf("chips=%d/%d/%d", st.Players[0].Chips, st.Players[1].Chips, st.Players[2].Chips)
	}
}

func TestShowdownBestHandWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Deck = stackDeck(t, []string{"Ah Kh", "Qc Qd"}, "Qh Jh 2c 9s Th")
	s := newTestSession(t, cfg, seats(100, 100))
	mustAct(t, s, "A", RaiseTo(20))
	mustAct(t, s, "B", Call())
	checkDown(t, s)

	res, err := s.ShowdownResult()
	if err != nil {
		t.Fatalf("ShowdownResult: %v", err)
	}
	if res.ByFold || len(res.Winners) != 1 || res.Winners[0] != "A" {
		t.Fatalf("winners=%v byFold=%v", res.Winners, res.ByFold)
	}
	if res.RevealedHands["A"].Category != StraightFlush || res.RevealedHands["B"].Category != ThreeOfAKind {
		t.Fatalf("hands=%v", res.RevealedHands)
	}
	if res.Payouts["A"] != 40 || res.WonAmount != 40 {
		t.Fatalf("payout=%d won=%d", res.Payouts["A"], res.WonAmount)
	}
	if got := s.Street(); got != StreetShowdown {
		t.Fatalf("street=%s want SHOWDOWN", got)
	}
}

func TestSplitPotOddChipGoesLeftOfDealer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SmallBlind, cfg.BigBlind = 1, 2
	cfg.Deck = stackDeck(t, []string{"2c 3d", "4c 5d", "6c 7d"}, "As Ks Qs Js Ts")
	s := newTestSession(t, cfg, seats(100, 100, 100))

	// dealer C, small blind A, big blind B, C first to act
	if got := s.ActivePlayerID(); got != "C" {
		t.Fatalf("first to act=%s want C", got)
	}
	mustAct(t, s, "C", Call())
	mustAct(t, s, "A", Fold())
	mustAct(t, s, "B", Check())
	checkDown(t, s)

	res, err := s.ShowdownResult()
	if err != nil {
		t.Fatalf("ShowdownResult: %v", err)
	}
	if len(res.Winners) != 2 || res.Pot != 5 || res.WonAmount != 2 {
		t.Fatalf("result=%+v", res)
	}
	if res.Payouts["B"] != 3 || res.Payouts["C"] != 2 {
		t.Fatalf("payouts=%v want B:3 C:2", res.Payouts)
	}
	st := s.Snapshot()
	if totalChips(st)-st.Pot != 300 {
		t.Fatalf("chips not conserved: %+v", st.Players)
	}
}

func TestHoleCardsDealtOneAtATimeFromLeftOfDealer(t *testing.T) {
	deck := card.FullDeck()
	cfg := DefaultConfig()
	cfg.Dealer = 0
	cfg.Deck = deck
	s := newTestSession(t, cfg, seats(100, 100, 100))
	st := s.Snapshot()

	// deal order B, C, A, B, C, A
	want := map[string]card.CardList{
		"B": {deck[0], deck[3]},
		"C": {deck[1], deck[4]},
		"A": {deck[2], deck[5]},
	}
	for _, p := range st.Players {
		w := want[p.ID]
		if len(p.HoleCards) != 2 || p.HoleCards[0] != w[0] || p.HoleCards[1] != w[1] {
			t.Fatalf("%s hole=%s want %s", p.ID, p.HoleCards, w)
		}
	}
	if st.ActivePlayerID != "B" {
		t.Fatalf("first to act=%s want B", st.ActivePlayerID)
	}
}

func TestHeadsUpBlindsAndBigBlindOption(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SmallBlind, cfg.BigBlind = 5, 10
	s := newTestSession(t, cfg, seats(100, 100))

	// B is the dealer and posts the small blind
	st := s.Snapshot()
	if st.DealerID != "B" || st.Players[1].Bet != 5 || st.Players[0].Bet != 10 || st.Pot != 15 {
		t.Fatalf("blinds: dealer=%s bets=%d/%d pot=%d", st.DealerID, st.Players[0].Bet, st.Players[1].Bet, st.Pot)
	}
	if st.ActivePlayerID != "B" {
		t.Fatalf("preflop first to act=%s want B", st.ActivePlayerID)
	}
	mustAct(t, s, "B", Call())

	if got := s.Street(); got != StreetPreflop {
		t.Fatalf("big blind should keep its option, street=%s", got)
	}
	legal, err := s.LegalActions("A")
	if err != nil {
		t.Fatalf("LegalActions: %v", err)
	}
	if !legal.Allows(ActionCheck) || !legal.Allows(ActionRaise) || legal.MinRaiseTo != 11 || legal.MaxRaiseTo != 100 {
		t.Fatalf("legal=%+v", legal)
	}
	mustAct(t, s, "A", Check())
	if got := s.Street(); got != StreetFlop {
		t.Fatalf("street=%s want FLOP", got)
	}
	if got := s.ActivePlayerID(); got != "A" {
		t.Fatalf("postflop first to act=%s want A", got)
	}
}

func TestAllInClosesRaisingAndRunsOut(t *testing.T) {
	s := newTestSession(t, DefaultConfig(), seats(30, 100))
	mustAct(t, s, "A", RaiseTo(30))
	st := s.Snapshot()
	if !st.Players[0].AllIn || st.Players[0].Chips != 0 {
		t.Fatalf("A should be all-in: %+v", st.Players[0])
	}
	if err := s.Act("B", RaiseTo(60)); !errors.Is(err, ErrIllegalRaise) {
		t.Fatalf("re-raise against all-in: err=%v want ErrIllegalRaise", err)
	}
	legal, err := s.LegalActions("B")
	if err != nil {
		t.Fatalf("LegalActions: %v", err)
	}
	if legal.Allows(ActionRaise) || !legal.Allows(ActionCall) || legal.CallAmount != 30 {
		t.Fatalf("legal=%+v", legal)
	}
	mustAct(t, s, "B", Call())

	if !s.Ended() {
		t.Fatalf("hand should run out to showdown")
	}
	st = s.Snapshot()
	if st.Street != StreetShowdown || len(st.CommunityCards) != 5 {
		t.Fatalf("street=%s board=%s", st.Street, st.CommunityCards)
	}
	if totalChips(st)-st.Pot != 130 {
		t.Fatalf("chips not conserved")
	}
}

func TestAllInByCallStopsTurnOrder(t *testing.T) {
	s := newTestSession(t, DefaultConfig(), seats(100, 40, 100))
	mustAct(t, s, "A", RaiseTo(40))
	mustAct(t, s, "B", Call())
	mustAct(t, s, "C", Call())
	// flop: B is all-in and skipped, nobody may raise
	st := s.Snapshot()
	if st.Street != StreetFlop || !st.Players[1].AllIn {
		t.Fatalf("street=%s B=%+v", st.Street, st.Players[1])
	}
	mustAct(t, s, "A", Check())
	if got := s.ActivePlayerID(); got != "C" {
		t.Fatalf("active=%s want C", got)
	}
	if err := s.Act("C", RaiseTo(10)); !errors.Is(err, ErrIllegalRaise) {
		t.Fatalf("err=%v want ErrIllegalRaise", err)
	}
	checkDown(t, s)
	res, err := s.ShowdownResult()
	if err != nil {
		t.Fatalf("ShowdownResult: %v", err)
	}
	if len(res.RevealedHands) != 3 {
		t.Fatalf("revealed=%d want 3", len(res.RevealedHands))
	}
}

func TestPublicStateHidesOtherHoleCards(t *testing.T) {
	s := newTestSession(t, DefaultConfig(), seats(100, 100, 100))
	st := s.PublicState("B")
	for _, p := range st.Players {
		switch p.ID {
		case "B":
			if p.HoleVisibility != VisibilityPrivate || len(p.HoleCards) != 2 {
				t.Fatalf("viewer cards: %+v", p)
			}
		default:
			if p.HoleVisibility != VisibilityHidden || p.HoleCards != nil {
				t.Fatalf("%s leaked: %+v", p.ID, p)
			}
		}
	}

	mustAct(t, s, "A", Fold())
	checkDown(t, s)
	st = s.PublicState("")
	for _, p := range st.Players {
		if p.ID == "A" {
			if p.HoleCards != nil {
				t.Fatalf("folded hand revealed at showdown")
			}
			continue
		}
		if p.HoleVisibility != VisibilityPublic || len(p.HoleCards) != 2 {
			t.Fatalf("%s not revealed at showdown: %+v", p.ID, p)
		}
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := newTestSession(t, DefaultConfig(), seats(100, 100))
	st := s.Snapshot()
	st.Players[0].Chips = 0
	st.Players[0].HoleCards[0] = card.CardInvalid
	again := s.Snapshot()
	if again.Players[0].Chips != 100 || again.Players[0].HoleCards[0] == card.CardInvalid {
		t.Fatalf("snapshot shares state with the session")
	}
}

func TestEventsForRaiseCall(t *testing.T) {
	s := newTestSession(t, DefaultConfig(), seats(100, 100))
	evs := s.DrainEvents()
	if len(evs) != 4 {
		t.Fatalf("start events=%d want 4", len(evs))
	}
	if _, ok := evs[0].(HandStarted); !ok {
		t.Fatalf("first event=%T", evs[0])
	}
	if hc, ok := evs[1].(HoleCardsDealt); !ok || hc.Audience() != "A" {
		t.Fatalf("second event=%#v", evs[1])
	}
	mustAct(t, s, "A", RaiseTo(10))
	mustAct(t, s, "B", Call())
	evs = s.DrainEvents()
	var names []string
	for _, e := range evs {
		names = append(names, e.EventName())
	}
	want := []string{"action_applied", "turn_changed", "action_applied", "street_advanced", "turn_changed"}
	if len(names) != len(want) {
		t.Fatalf("events=%v want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("events=%v want %v", names, want)
		}
	}
	if sa := evs[3].(StreetAdvanced); sa.Street != StreetFlop || len(sa.Dealt) != 3 {
		t.Fatalf("street event=%+v", sa)
	}
	if len(s.DrainEvents()) != 0 {
		t.Fatalf("queue not cleared")
	}
}

func TestNewSessionValidation(t *testing.T) {
	cases := []struct {
		name  string
		cfg   Config
		seats []Seat
	}{
		{"one player", DefaultConfig(), seats(100)},
		{"duplicate id", DefaultConfig(), []Seat{{ID: "A", Chips: 1}, {ID: "A", Chips: 1}}},
		{"empty id", DefaultConfig(), []Seat{{ID: "", Chips: 1}, {ID: "B", Chips: 1}}},
		{"no chips", DefaultConfig(), seats(0, 100)},
		{"below big blind", Config{SmallBlind: 5, BigBlind: 10, Dealer: -1}, seats(5, 100)},
		{"bad blinds", Config{SmallBlind: 10, BigBlind: 5}, seats(100, 100)},
		{"dealer out of range", Config{Dealer: 2}, seats(100, 100)},
		{"short deck", Config{Deck: card.MustParseList("As Ks Qs")}, seats(100, 100)},
	}
	for _, tc := range cases {
		if _, err := NewSession(tc.cfg, tc.seats); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}

	ten := make([]Seat, 10)
	for i := range ten {
		ten[i] = Seat{ID: string(rune('a' + i)), Chips: 10}
	}
	if _, err := NewSession(DefaultConfig(), ten); err == nil {
		t.Fatalf("ten players: expected error")
	}
}

func TestLogCapturesDeckAndActions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 99
	s := newTestSession(t, cfg, seats(100, 100))
	mustAct(t, s, "A", RaiseTo(10))
	mustAct(t, s, "B", Fold())

	l := s.Log()
	if len(l.Deck) != card.DeckSize || len(l.Actions) != 2 || l.Config.Dealer != 1 {
		t.Fatalf("log=%+v", l)
	}
	if l.Actions[0].PlayerID != "A" || l.Actions[0].Action != RaiseTo(10) {
		t.Fatalf("first action=%+v", l.Actions[0])
	}
	st := s.Snapshot()
	if st.Players[0].HoleCards[0] != l.Deck[0] || st.Players[1].HoleCards[0] != l.Deck[1] {
		t.Fatalf("log deck does not match dealt cards")
	}
}
