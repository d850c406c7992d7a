package holdem

import (
	"slices"

	"holdem-engine/card"
)

// ShowdownResult 结算结果
type ShowdownResult struct {
	Winners []string
	// WonAmount is each winner's even share before odd chips are handed out.
	WonAmount     int64
	Pot           int64
	Payouts       map[string]int64
	RevealedHands map[string]EvaluatedHand
	Board         card.CardList
	ByFold        bool
}

func (r ShowdownResult) clone() ShowdownResult {
	out := r
	out.Winners = slices.Clone(r.Winners)
	out.Board = r.Board.Clone()
	out.Payouts = make(map[string]int64, len(r.Payouts))
	for k, v := range r.Payouts {
		out.Payouts[k] = v
	}
	out.RevealedHands = make(map[string]EvaluatedHand, len(r.RevealedHands))
	for k, v := range r.RevealedHands {
		v.Kickers = slices.Clone(v.Kickers)
		out.RevealedHands[k] = v
	}
	return out
}

// splitPot divides pot evenly between winners (player indices, any order).
// Odd chips go one each to winners in seat order starting left of dealer.
func splitPot(pot int64, winners []int, dealer, seats int) (share int64, payouts map[int]int64) {
	payouts = make(map[int]int64, len(winners))
	if len(winners) == 0 {
		return 0, payouts
	}
	share = pot / int64(len(winners))
	rem := pot % int64(len(winners))

	ordered := slices.Clone(winners)
	dist := func(i int) int { return (i - dealer - 1 + seats) % seats }
	slices.SortFunc(ordered, func(a, b int) int { return dist(a) - dist(b) })
	for _, w := range ordered {
		payouts[w] = share
		if rem > 0 {
			payouts[w]++
			rem--
		}
	}
	return share, payouts
}

// finishByFold awards the pot to the last live player without evaluation.
func (s *Session) finishByFold() {
	r := &s.round
	winner := -1
	for i, p := range r.players {
		if !p.folded {
			winner = i
			break
		}
	}
	w := r.players[winner]
	w.chips += r.pot
	s.endHand(ShowdownResult{
		Winners:       []string{w.id},
		WonAmount:     r.pot,
		Pot:           r.pot,
		Payouts:       map[string]int64{w.id: r.pot},
		RevealedHands: map[string]EvaluatedHand{},
		Board:         s.community.Clone(),
		ByFold:        true,
	}, StreetHandOver)
}

// resolveShowdown evaluates every live hand, ranks them and pays out.
func (s *Session) resolveShowdown() error {
	r := &s.round
	var (
		idx   []int
		hands []EvaluatedHand
	)
	revealed := make(map[string]EvaluatedHand)
	for i, p := range r.players {
		if p.folded {
			continue
		}
		all := append(p.holeCards.Clone(), s.community...)
		h, err := Evaluate(all)
		if err != nil {
			return ErrInvalidState("evaluate " + p.id + ": " + err.Error())
		}
		idx = append(idx, i)
		hands = append(hands, h)
		revealed[p.id] = h
	}

	var winners []int
	for _, best := range RankHands(hands) {
		winners = append(winners, idx[best])
	}
	share, byIdx := splitPot(r.pot, winners, s.dealer, len(r.players))

	res := ShowdownResult{
		WonAmount:     share,
		Pot:           r.pot,
		Payouts:       make(map[string]int64, len(byIdx)),
		RevealedHands: revealed,
		Board:         s.community.Clone(),
	}
	for _, w := range winners {
		p := r.players[w]
		p.chips += byIdx[w]
		res.Winners = append(res.Winners, p.id)
		res.Payouts[p.id] = byIdx[w]
	}
	s.endHand(res, StreetShowdown)
	return nil
}

func (s *Session) endHand(res ShowdownResult, street Street) {
	s.round.street = street
	s.round.active = NoPlayer
	s.result = &res
	s.emit(HandEnded{Result: res.clone()})
}
