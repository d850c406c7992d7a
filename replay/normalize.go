package replay

import (
	"fmt"
	"strings"

	"holdem-engine/card"
	"holdem-engine/holdem"
)

type normalizedAction struct {
	street holdem.Street
	player string
	action holdem.Action
}

type normalizedSpec struct {
	cfg     holdem.Config
	seats   []holdem.Seat
	actions []normalizedAction
}

func normalizeSpec(spec HandSpec) (normalizedSpec, error) {
	var out normalizedSpec

	if spec.Table.SB < 0 || spec.Table.BB < 0 || spec.Table.SB > spec.Table.BB {
		return out, &ReplayError{StepIndex: -1, Reason: "invalid_blinds", Message: "invalid blinds configuration"}
	}
	n := len(spec.Seats)
	if n < holdem.MinSeats || n > holdem.MaxSeats {
		return out, &ReplayError{StepIndex: -1, Reason: "invalid_seats",
			Message: fmt.Sprintf("need %d..%d seats, got %d", holdem.MinSeats, holdem.MaxSeats, n)}
	}
	if spec.Dealer < 0 || spec.Dealer >= n {
		return out, &ReplayError{StepIndex: -1, Reason: "invalid_dealer", Message: "dealer out of range"}
	}

	seen := make(map[string]bool, n)
	holes := make([][]card.Card, n)
	for i, seat := range spec.Seats {
		id := strings.TrimSpace(seat.ID)
		if id == "" {
			return out, &ReplayError{StepIndex: -1, Reason: "invalid_seat", Message: fmt.Sprintf("seat %d has no id", i)}
		}
		if seen[id] {
			return out, &ReplayError{StepIndex: -1, Reason: "duplicate_seat", Message: fmt.Sprintf("duplicate id %q", id)}
		}
		seen[id] = true
		if seat.Stack <= 0 {
			return out, &ReplayError{StepIndex: -1, Reason: "invalid_stack", Message: fmt.Sprintf("seat %d stack must be > 0", i)}
		}
		hole, err := parseHoleCards(seat.Hole)
		if err != nil {
			return out, &ReplayError{StepIndex: -1, Reason: "invalid_hole_cards", Message: err.Error()}
		}
		holes[i] = hole
		out.seats = append(out.seats, holdem.Seat{ID: id, Chips: seat.Stack})
	}

	board, err := parseBoard(spec.Board)
	if err != nil {
		return out, err
	}
	constraints, err := buildSlotConstraints(holes, spec.Dealer, board)
	if err != nil {
		return out, err
	}
	deck, err := parseOrBuildDeck(spec.Deck, constraints, seedFromSpec(spec.RNG))
	if err != nil {
		return out, err
	}

	out.cfg = holdem.DefaultConfig()
	out.cfg.SmallBlind = spec.Table.SB
	out.cfg.BigBlind = spec.Table.BB
	out.cfg.Dealer = spec.Dealer
	out.cfg.Deck = deck

	out.actions = make([]normalizedAction, 0, len(spec.Actions))
	for i, a := range spec.Actions {
		street, err := parseStreetName(a.Street)
		if err != nil {
			return out, &ReplayError{StepIndex: i, Reason: "invalid_street", Message: err.Error()}
		}
		kind, err := holdem.ParseActionKind(a.Type)
		if err != nil {
			return out, &ReplayError{StepIndex: i, Reason: "invalid_action", Message: err.Error()}
		}
		if !seen[a.Player] {
			return out, &ReplayError{StepIndex: i, Reason: "invalid_action_player", Message: fmt.Sprintf("player %q not seated", a.Player)}
		}
		act := holdem.Action{Kind: kind}
		if kind == holdem.ActionRaise {
			act.Amount = a.AmountTo
		}
		out.actions = append(out.actions, normalizedAction{street: street, player: a.Player, action: act})
	}
	return out, nil
}

func parseStreetName(s string) (holdem.Street, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for st, n := range holdem.StreetDictionary {
		if n == name {
			return st, nil
		}
	}
	return holdem.StreetWaiting, fmt.Errorf("unknown street %q", s)
}

func parseOrBuildDeck(deck []string, constraints map[int]card.Card, seed int64) ([]card.Card, error) {
	if len(deck) > 0 {
		if len(deck) != card.DeckSize {
			return nil, &ReplayError{
				StepIndex: -1,
				Reason:    "invalid_deck",
				Message:   fmt.Sprintf("deck must contain %d cards", card.DeckSize),
			}
		}
		out := make([]card.Card, len(deck))
		seen := make(map[card.Card]struct{}, len(deck))
		for i, s := range deck {
			c, err := parseCard(s)
			if err != nil {
				return nil, &ReplayError{StepIndex: -1, Reason: "invalid_deck_card", Message: fmt.Sprintf("deck[%d]: %v", i, err)}
			}
			if _, ok := seen[c]; ok {
				return nil, &ReplayError{StepIndex: -1, Reason: "invalid_deck", Message: fmt.Sprintf("duplicate card in deck[%d]", i)}
			}
			seen[c] = struct{}{}
			out[i] = c
		}
		for idx, expected := range constraints {
			if out[idx] != expected {
				return nil, &ReplayError{
					StepIndex: -1,
					Reason:    "deck_constraint_mismatch",
					Message:   fmt.Sprintf("deck[%d] does not match constrained card %s", idx, expected),
				}
			}
		}
		return out, nil
	}

	used := make(map[card.Card]struct{}, len(constraints))
	for _, c := range constraints {
		used[c] = struct{}{}
	}

	remaining := make([]card.Card, 0, card.DeckSize-len(constraints))
	for _, c := range card.FullDeck() {
		if _, ok := used[c]; ok {
			continue
		}
		remaining = append(remaining, c)
	}
	if seed != 0 {
		r := card.NewRand(seed)
		r.Shuffle(len(remaining), func(i, j int) {
			remaining[i], remaining[j] = remaining[j], remaining[i]
		})
	}

	out := make([]card.Card, card.DeckSize)
	ri := 0
	for i := range out {
		if constrained, ok := constraints[i]; ok {
			out[i] = constrained
			continue
		}
		out[i] = remaining[ri]
		ri++
	}
	return out, nil
}

func parseHoleCards(hole []string) ([]card.Card, error) {
	if len(hole) == 0 {
		return nil, nil
	}
	if len(hole) != 2 {
		return nil, fmt.Errorf("hole cards must contain exactly 2 cards")
	}
	out := make([]card.Card, 2)
	for i := range hole {
		c, err := parseCard(hole[i])
		if err != nil {
			return nil, fmt.Errorf("hole[%d]: %w", i, err)
		}
		out[i] = c
	}
	if out[0] == out[1] {
		return nil, fmt.Errorf("hole cards cannot duplicate")
	}
	return out, nil
}

// parseBoard returns five slots; unset slots are nil.
func parseBoard(board *BoardSpec) ([]*card.Card, error) {
	out := make([]*card.Card, 5)
	if board == nil {
		return out, nil
	}
	if len(board.Flop) != 0 && len(board.Flop) != 3 {
		return nil, &ReplayError{StepIndex: -1, Reason: "invalid_board", Message: "flop must be either empty or 3 cards"}
	}
	set := func(i int, s, name string) error {
		c, err := parseCard(s)
		if err != nil {
			return &ReplayError{StepIndex: -1, Reason: "invalid_board_card", Message: fmt.Sprintf("%s: %v", name, err)}
		}
		out[i] = &c
		return nil
	}
	for i, s := range board.Flop {
		if err := set(i, s, fmt.Sprintf("flop[%d]", i)); err != nil {
			return nil, err
		}
	}
	if board.Turn != nil {
		if err := set(3, *board.Turn, "turn"); err != nil {
			return nil, err
		}
	}
	if board.River != nil {
		if err := set(4, *board.River, "river"); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// buildSlotConstraints maps deck positions to fixed cards. Hole cards go out
// one at a time starting left of the dealer, then the five board cards.
func buildSlotConstraints(holes [][]card.Card, dealer int, board []*card.Card) (map[int]card.Card, error) {
	n := len(holes)
	constraints := make(map[int]card.Card, n*2+5)
	used := make(map[card.Card]struct{}, n*2+5)

	for seat, hole := range holes {
		if len(hole) == 0 {
			continue
		}
		pos := (seat - dealer - 1 + n) % n
		for round := 0; round < 2; round++ {
			if err := assignConstraint(constraints, used, round*n+pos, hole[round]); err != nil {
				return nil, err
			}
		}
	}
	for i, cc := range board {
		if cc == nil {
			continue
		}
		if err := assignConstraint(constraints, used, 2*n+i, *cc); err != nil {
			return nil, err
		}
	}
	return constraints, nil
}

func assignConstraint(constraints map[int]card.Card, used map[card.Card]struct{}, slot int, c card.Card) error {
	if _, ok := used[c]; ok {
		return &ReplayError{
			StepIndex: -1,
			Reason:    "duplicate_cards",
			Message:   fmt.Sprintf("card %s appears multiple times in constraints", c),
		}
	}
	constraints[slot] = c
	used[c] = struct{}{}
	return nil
}

func seedFromSpec(rng *RNGSpec) int64 {
	if rng == nil {
		return 0
	}
	return rng.Seed
}

func parseCard(s string) (card.Card, error) {
	return card.Parse(strings.TrimSpace(s))
}
