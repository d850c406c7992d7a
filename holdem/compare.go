package holdem

// Compare orders two evaluated hands: 1 if a wins, -1 if b wins, 0 on a tie.
// Category decides first, then the five cards by rank, then the kickers.
func Compare(a, b EvaluatedHand) int {
	if a.Category != b.Category {
		return sign(int(a.Category) - int(b.Category))
	}
	for i := range a.Cards {
		ra, rb := a.Cards[i].Rank(), b.Cards[i].Rank()
		if ra != rb {
			return sign(int(ra) - int(rb))
		}
	}
	for i := 0; i < len(a.Kickers) && i < len(b.Kickers); i++ {
		if a.Kickers[i] != b.Kickers[i] {
			return sign(int(a.Kickers[i]) - int(b.Kickers[i]))
		}
	}
	return 0
}

// RankHands returns the indices of every hand tied for best, in input order.
func RankHands(hands []EvaluatedHand) []int {
	if len(hands) == 0 {
		return nil
	}
	best := []int{0}
	for i := 1; i < len(hands); i++ {
		switch Compare(hands[i], hands[best[0]]) {
		case 1:
			best = best[:0]
			best = append(best, i)
		case 0:
			best = append(best, i)
		}
	}
	return best
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
