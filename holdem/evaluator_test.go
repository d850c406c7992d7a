package holdem

import (
	"errors"
	"testing"

	"github.com/paulhankin/poker"

	"holdem-engine/card"
)

func mustEval(t *testing.T, s string) EvaluatedHand {
	t.Helper()
	h, err := Evaluate(card.MustParseList(s))
	if err != nil {
		t.Fatalf("Evaluate(%q): %v", s, err)
	}
	return h
}

func TestEvaluate_Categories(t *testing.T) {
	cases := []struct {
		in      string
		cat     HandCategory
		cards   string
		kickers []card.Rank
	}{
		{"As Ks Qs Js Ts 2d 3c", StraightFlush, "As Ks Qs Js Ts", nil},
		{"5h 4h 3h 2h Ah Kd Kc", StraightFlush, "5h 4h 3h 2h Ah", nil},
		{"9c 9d 9h 9s Ad 2c 3c", FourOfAKind, "9s 9h 9c 9d Ad", []card.Rank{card.Ace}},
		{"Kh Kd Kc 7s 7h 7d 2c", FullHouse, "Kh Kc Kd 7s 7h", nil},
		{"Kh Kd 7c 7s 2h 2d 7h", FullHouse, "7s 7h 7c Kh Kd", nil},
		{"Ah Jh 8h 4h 2h Ks Qd", Flush, "Ah Jh 8h 4h 2h", nil},
		{"Ah Kh Qh Jh 9h Ts 2c", Flush, "Ah Kh Qh Jh 9h", nil},
		{"6d 5c 4h 3s 2d Ac Kh", Straight, "6d 5c 4h 3s 2d", nil},
		{"5d 4c 3h 2s Ac Kh Qd", Straight, "5d 4c 3h 2s Ac", nil},
		{"Td 9c 8h 7s 6d 6c 6h", Straight, "Td 9c 8h 7s 6h", nil},
		{"7s 7h 7d Ks 2c 3d 9h", ThreeOfAKind, "7s 7h 7d Ks 9h", []card.Rank{card.King, card.Nine}},
		{"Js Jh 4c 4d As 9h 9c", TwoPair, "Js Jh 9h 9c As", []card.Rank{card.Ace}},
		{"Js Jh 4c 4d 2s 9h 9c", TwoPair, "Js Jh 9h 9c 4c", []card.Rank{card.Four}},
		{"Qs Qd 8h 5c 3d 2s 7h", OnePair, "Qs Qd 8h 7h 5c", []card.Rank{card.Eight, card.Seven, card.Five}},
		{"As Jd 9c 7h 5s 3d 2c", HighCard, "As Jd 9c 7h 5s", nil},
		{"2s 3s 4s 5s 7d", HighCard, "7d 5s 4s 3s 2s", nil},
		{"Ts Th 3c 3d 9s 2c", TwoPair, "Ts Th 3c 3d 9s", []card.Rank{card.Nine}},
	}
	for _, tc := range cases {
		h := mustEval(t, tc.in)
		if h.Category != tc.cat {
			t.Fatalf("%q: category=%s want %s", tc.in, h.Category, tc.cat)
		}
		if got := card.CardList(h.Cards[:]).Codes(); got != tc.cards {
			t.Fatalf("%q: cards=%q want %q", tc.in, got, tc.cards)
		}
		if len(h.Kickers) != len(tc.kickers) {
			t.Fatalf("%q: kickers=%v want %v", tc.in, h.Kickers, tc.kickers)
		}
		for i := range tc.kickers {
			if h.Kickers[i] != tc.kickers[i] {
				t.Fatalf("%q: kickers=%v want %v", tc.in, h.Kickers, tc.kickers)
			}
		}
	}
}

func TestEvaluate_InvalidInput(t *testing.T) {
	if _, err := Evaluate(card.MustParseList("As Ks Qs Js")); !errors.Is(err, ErrInvalidHandSize) {
		t.Fatalf("4 cards: err=%v", err)
	}
	if _, err := Evaluate(card.MustParseList("As Ks Qs Js Ts 9s 8s 7s")); !errors.Is(err, ErrInvalidHandSize) {
		t.Fatalf("8 cards: err=%v", err)
	}
	if _, err := Evaluate(card.MustParseList("As Ks Qs Js As")); !errors.Is(err, ErrDuplicateCard) {
		t.Fatalf("duplicate: err=%v", err)
	}
}

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		// wheel is the lowest straight
		{"5d 4c 3h 2s Ac", "6d 5c 4h 3s 2d", -1},
		{"As Ad Kc 9h 3d", "Ah Ac Qc Jh Td", 1},
		{"Js Jh 9h 9c As", "Jd Jc 9s 9d Ks", 1},
		{"Ah Jh 8h 4h 2h", "As Js 8s 4s 3s", -1},
		{"Ah Kh Qd Jc 9s", "As Ks Qh Jd 9c", 0},
		{"2s 2h 2d 3c 3d", "As Ks Qs Js 9s", 1},
		{"Ks Kh Kd 4c 2d", "Qs Qh Qd Ac Kd", 1},
	}
	for _, tc := range cases {
		a, b := mustEval(t, tc.a), mustEval(t, tc.b)
		if got := Compare(a, b); got != tc.want {
			t.Fatalf("Compare(%q,%q)=%d want %d", tc.a, tc.b, got, tc.want)
		}
		if got := Compare(b, a); got != -tc.want {
			t.Fatalf("Compare(%q,%q)=%d want %d", tc.b, tc.a, got, -tc.want)
		}
	}
}

func TestRankHands_ReturnsAllTied(t *testing.T) {
	hands := []EvaluatedHand{
		mustEval(t, "Ah Kh Qd Jc 9s"),
		mustEval(t, "As Ks Qh Jd 9c"),
		mustEval(t, "As Ks Qh Jd 8c"),
		mustEval(t, "Ad Kd Qc Js 9h"),
	}
	got := RankHands(hands)
	if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 3 {
		t.Fatalf("RankHands=%v want [0 1 3]", got)
	}
	if RankHands(nil) != nil {
		t.Fatalf("RankHands(nil) should be nil")
	}
}

func toOracle(t *testing.T, c card.Card) poker.Card {
	t.Helper()
	var s poker.Suit
	switch c.Suit() {
	case card.Club:
		s = poker.Club
	case card.Diamond:
		s = poker.Diamond
	case card.Heart:
		s = poker.Heart
	default:
		s = poker.Spade
	}
	r := poker.Rank(c.Rank())
	if c.IsAce() {
		r = poker.Rank(1)
	}
	pc, err := poker.MakeCard(s, r)
	if err != nil {
		t.Fatalf("MakeCard(%s): %v", c, err)
	}
	return pc
}

// Ordering of random 7-card hands must agree with an independent evaluator.
func TestEvaluate_AgreesWithOracle(t *testing.T) {
	rng := card.NewRand(7)
	for i := 0; i < 3000; i++ {
		d := card.NewShuffledDeck(rng)
		cards, _ := d.DealMany(14)
		a, b := cards[:7], cards[7:]

		var oa, ob [7]poker.Card
		for j := 0; j < 7; j++ {
			oa[j] = toOracle(t, a[j])
			ob[j] = toOracle(t, b[j])
		}
		want := sign(int(poker.Eval7(&oa)) - int(poker.Eval7(&ob)))

		ha, err := Evaluate(a)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		hb, err := Evaluate(b)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if got := Compare(ha, hb); got != want {
			t.Fatalf("%s (%s) vs %s (%s): Compare=%d oracle=%d", a, ha, b, hb, got, want)
		}
	}
}
