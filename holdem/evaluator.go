package holdem

import (
	"fmt"
	"sort"

	"holdem-engine/card"
)

// EvaluatedHand is the best five-card hand found in a 5..7 card set.
// Cards holds those five cards, most significant first; Kickers repeats the
// ranks of the cards that only serve as tie-breakers.
type EvaluatedHand struct {
	Category HandCategory
	Cards    [5]card.Card
	Kickers  []card.Rank
}

func (h EvaluatedHand) String() string {
	return fmt.Sprintf("%s [%s]", h.Category, card.CardList(h.Cards[:]))
}

// rankGroup 同点数牌组
type rankGroup struct {
	rank  card.Rank
	cards card.CardList
}

// Evaluate returns the best five-card hand among cards.
func Evaluate(cards []card.Card) (EvaluatedHand, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return EvaluatedHand{}, fmt.Errorf("%d cards: %w", len(cards), ErrInvalidHandSize)
	}
	seen := make(map[card.Card]bool, len(cards))
	for _, c := range cards {
		if !c.Valid() {
			return EvaluatedHand{}, fmt.Errorf("invalid card 0x%02x", byte(c))
		}
		if seen[c] {
			return EvaluatedHand{}, fmt.Errorf("%s: %w", c, ErrDuplicateCard)
		}
		seen[c] = true
	}

	sorted := card.CardList(cards).Clone()
	sorted.SortByRankDesc()

	var flushCards card.CardList
	for _, s := range card.Suits {
		var suited card.CardList
		for _, c := range sorted {
			if c.Suit() == s {
				suited = append(suited, c)
			}
		}
		if len(suited) >= 5 {
			flushCards = suited
			break
		}
	}

	if flushCards != nil {
		if sf, ok := findStraight(flushCards); ok {
			return EvaluatedHand{Category: StraightFlush, Cards: sf}, nil
		}
	}

	groups := groupByRank(sorted)

	if len(groups[0].cards) == 4 {
		return withKickers(FourOfAKind, groups[0].cards, sorted, 1), nil
	}

	if len(groups[0].cards) == 3 && len(groups) > 1 && len(groups[1].cards) >= 2 {
		var h EvaluatedHand
		h.Category = FullHouse
		copy(h.Cards[:3], groups[0].cards)
		copy(h.Cards[3:], groups[1].cards[:2])
		return h, nil
	}

	if flushCards != nil {
		var h EvaluatedHand
		h.Category = Flush
		copy(h.Cards[:], flushCards[:5])
		return h, nil
	}

	if st, ok := findStraight(sorted); ok {
		return EvaluatedHand{Category: Straight, Cards: st}, nil
	}

	if len(groups[0].cards) == 3 {
		return withKickers(ThreeOfAKind, groups[0].cards, sorted, 2), nil
	}

	if len(groups[0].cards) == 2 && len(groups[1].cards) == 2 {
		made := append(groups[0].cards.Clone(), groups[1].cards...)
		return withKickers(TwoPair, made, sorted, 1), nil
	}

	if len(groups[0].cards) == 2 {
		return withKickers(OnePair, groups[0].cards, sorted, 3), nil
	}

	var h EvaluatedHand
	h.Category = HighCard
	copy(h.Cards[:], sorted[:5])
	return h, nil
}

// withKickers fills the hand with made followed by the n highest cards of
// sorted that are not part of made.
func withKickers(cat HandCategory, made, sorted card.CardList, n int) EvaluatedHand {
	h := EvaluatedHand{Category: cat, Kickers: make([]card.Rank, 0, n)}
	copy(h.Cards[:], made)
	i := len(made)
	for _, c := range sorted {
		if len(h.Kickers) == n {
			break
		}
		if made.Contains(c) {
			continue
		}
		h.Cards[i] = c
		h.Kickers = append(h.Kickers, c.Rank())
		i++
	}
	return h
}

// groupByRank buckets sorted cards by rank, largest group first, then by rank.
func groupByRank(sorted card.CardList) []rankGroup {
	var groups []rankGroup
	for _, c := range sorted {
		if n := len(groups); n > 0 && groups[n-1].rank == c.Rank() {
			groups[n-1].cards = append(groups[n-1].cards, c)
			continue
		}
		groups = append(groups, rankGroup{rank: c.Rank(), cards: card.CardList{c}})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i].cards) != len(groups[j].cards) {
			return len(groups[i].cards) > len(groups[j].cards)
		}
		return groups[i].rank > groups[j].rank
	})
	return groups
}

// findStraight looks for the highest five consecutive ranks in cards, which
// must be sorted by rank descending. A-2-3-4-5 is returned as 5,4,3,2,A.
func findStraight(sorted card.CardList) ([5]card.Card, bool) {
	var out [5]card.Card
	byRank := make(map[card.Rank]card.Card, len(sorted))
	for _, c := range sorted {
		if _, ok := byRank[c.Rank()]; !ok {
			byRank[c.Rank()] = c
		}
		if c.IsAce() {
			if _, ok := byRank[card.AceLow]; !ok {
				byRank[card.AceLow] = c
			}
		}
	}
	for top := card.Ace; top >= card.Five; top-- {
		ok := true
		for i := 0; i < 5; i++ {
			c, found := byRank[top-card.Rank(i)]
			if !found {
				ok = false
				break
			}
			out[i] = c
		}
		if ok {
			return out, true
		}
	}
	return out, false
}
