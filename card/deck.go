package card

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
)

var ErrEmptyDeck = errors.New("empty deck")

// DeckSize is the number of cards in a standard deck.
const DeckSize = 52

// FullDeck returns the 52 canonical cards, suit-major, 2 to A.
func FullDeck() CardList {
	out := make(CardList, 0, DeckSize)
	for _, s := range Suits {
		for r := Two; r <= Ace; r++ {
			out = append(out, New(s, r))
		}
	}
	return out
}

// NewRand returns a ChaCha8 source. Seed 0 draws the key from crypto/rand;
// any other seed gives a reproducible stream.
func NewRand(seed int64) *rand.Rand {
	var key [32]byte
	if seed == 0 {
		if _, err := crand.Read(key[:]); err != nil {
			panic(fmt.Sprintf("card: crypto/rand unavailable: %v", err))
		}
	} else {
		binary.LittleEndian.PutUint64(key[:8], uint64(seed))
	}
	return rand.New(rand.NewChaCha8(key))
}

// Deck is an ordered stock of cards. Cards leave from the front.
type Deck struct {
	cards CardList
}

// NewShuffledDeck shuffles a fresh 52-card deck with rng (Fisher-Yates).
func NewShuffledDeck(rng *rand.Rand) *Deck {
	cards := FullDeck()
	rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	return &Deck{cards: cards}
}

// NewOrderedDeck keeps the caller's order. Cards must be valid and distinct;
// fewer than 52 is allowed.
func NewOrderedDeck(cards []Card) (*Deck, error) {
	seen := make(map[Card]bool, len(cards))
	for _, c := range cards {
		if !c.Valid() {
			return nil, fmt.Errorf("invalid card 0x%02x in deck", byte(c))
		}
		if seen[c] {
			return nil, fmt.Errorf("duplicate card %s in deck", c)
		}
		seen[c] = true
	}
	return &Deck{cards: CardList(cards).Clone()}, nil
}

// Remaining 剩余牌数
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Cards returns a copy of the undealt cards in deal order.
func (d *Deck) Cards() CardList {
	return d.cards.Clone()
}

func (d *Deck) DealOne() (Card, error) {
	if len(d.cards) == 0 {
		return CardInvalid, ErrEmptyDeck
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c, nil
}

// DealMany removes n cards. Nothing is removed when fewer than n remain.
func (d *Deck) DealMany(n int) (CardList, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative deal count %d", n)
	}
	if n > len(d.cards) {
		return nil, fmt.Errorf("deal %d of %d: %w", n, len(d.cards), ErrEmptyDeck)
	}
	out := make(CardList, n)
	copy(out, d.cards[:n])
	d.cards = d.cards[n:]
	return out, nil
}
