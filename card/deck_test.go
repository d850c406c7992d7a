package card

import (
	"errors"
	"testing"
)

func TestFullDeck_Has52DistinctCards(t *testing.T) {
	deck := FullDeck()
	if len(deck) != DeckSize {
		t.Fatalf("expected %d cards, got %d", DeckSize, len(deck))
	}
	seen := make(map[Card]bool)
	for _, c := range deck {
		if !c.Valid() {
			t.Fatalf("invalid card %v", c)
		}
		if seen[c] {
			t.Fatalf("duplicate card %v", c)
		}
		seen[c] = true
	}
}

func TestNewShuffledDeck_IsPermutation(t *testing.T) {
	rng := NewRand(7)
	for i := 0; i < 200; i++ {
		d := NewShuffledDeck(rng)
		if d.Remaining() != DeckSize {
			t.Fatalf("shuffle %d: expected 52 cards, got %d", i, d.Remaining())
		}
		seen := make(map[Card]bool, DeckSize)
		for _, c := range d.Cards() {
			if seen[c] {
				t.Fatalf("shuffle %d: duplicate card %v", i, c)
			}
			seen[c] = true
		}
		for _, c := range FullDeck() {
			if !seen[c] {
				t.Fatalf("shuffle %d: missing card %v", i, c)
			}
		}
	}
}

func TestNewShuffledDeck_SeedIsReproducible(t *testing.T) {
	a := NewShuffledDeck(NewRand(42)).Cards()
	b := NewShuffledDeck(NewRand(42)).Cards()
	if a.Codes() != b.Codes() {
		t.Fatalf("same seed produced different decks")
	}
	c := NewShuffledDeck(NewRand(43)).Cards()
	if a.Codes() == c.Codes() {
		t.Fatalf("different seeds produced identical decks")
	}
}

// Each card should land in each position roughly equally often.
func TestNewShuffledDeck_PositionDistribution(t *testing.T) {
	const perCell = 200
	const rounds = DeckSize * perCell

	rng := NewRand(99)
	var counts [DeckSize]int
	for i := 0; i < rounds; i++ {
		cards := NewShuffledDeck(rng).Cards()
		for pos, c := range cards {
			if c == CardSpadeA {
				counts[pos]++
				break
			}
		}
	}
	chi := 0.0
	for pos, n := range counts {
		if n < perCell/2 || n > perCell*3/2 {
			t.Fatalf("position %d hit %d times, expected about %d", pos, n, perCell)
		}
		d := float64(n - perCell)
		chi += d * d / perCell
	}
	// 51 degrees of freedom; p=0.001 critical value is about 87.
	if chi > 87 {
		t.Fatalf("chi-square %.1f too large for a uniform shuffle", chi)
	}
}

func TestDealOne_FromFrontUntilEmpty(t *testing.T) {
	d, err := NewOrderedDeck([]Card{CardSpadeA, CardHeartK})
	if err != nil {
		t.Fatalf("NewOrderedDeck err: %v", err)
	}
	c, err := d.DealOne()
	if err != nil || c != CardSpadeA {
		t.Fatalf("first deal = %v, %v", c, err)
	}
	c, err = d.DealOne()
	if err != nil || c != CardHeartK {
		t.Fatalf("second deal = %v, %v", c, err)
	}
	if _, err := d.DealOne(); !errors.Is(err, ErrEmptyDeck) {
		t.Fatalf("expected ErrEmptyDeck, got %v", err)
	}
}

func TestDealMany_AllOrNothing(t *testing.T) {
	d, err := NewOrderedDeck(MustParseList("As Ks Qs"))
	if err != nil {
		t.Fatalf("NewOrderedDeck err: %v", err)
	}
	if _, err := d.DealMany(4); !errors.Is(err, ErrEmptyDeck) {
		t.Fatalf("expected ErrEmptyDeck, got %v", err)
	}
	if d.Remaining() != 3 {
		t.Fatalf("failed deal must not remove cards, remaining=%d", d.Remaining())
	}
	got, err := d.DealMany(2)
	if err != nil {
		t.Fatalf("DealMany err: %v", err)
	}
	if got.Codes() != "As Ks" || d.Remaining() != 1 {
		t.Fatalf("unexpected deal %q remaining=%d", got.Codes(), d.Remaining())
	}
}

func TestNewOrderedDeck_RejectsDuplicates(t *testing.T) {
	if _, err := NewOrderedDeck([]Card{CardSpadeA, CardSpadeA}); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if _, err := NewOrderedDeck([]Card{CardInvalid}); err == nil {
		t.Fatalf("expected invalid card error")
	}
}
