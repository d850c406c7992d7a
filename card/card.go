package card

import (
	"fmt"
	"strings"
)

// Card 牌枚举
//
// 编码规则:
// - 高4位: 花色 (0:Spade, 1:Heart, 2:Club, 3:Diamond)
// - 低4位: 点数 (2..9, 10:T, 11:J, 12:Q, 13:K, 14:A)
type Card byte

// Rank is the face value of a card. Ace is high (14); the wheel straight is
// the only place where it plays as 1.
type Rank byte

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// AceLow is the value an Ace takes in the A-2-3-4-5 straight.
const AceLow Rank = 1

func (r Rank) String() string {
	switch r {
	case Ten:
		return "T"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace, AceLow:
		return "A"
	}
	if r >= Two && r <= Nine {
		return fmt.Sprintf("%d", r)
	}
	return "?"
}

// New builds a card from suit and rank.
func New(s Suit, r Rank) Card {
	return Card(byte(s)<<4 | byte(r))
}

// Rank 获取牌面值 2-14 (A=14)
func (c Card) Rank() Rank {
	return Rank(c & 0x0F)
}

// Suit 花色
func (c Card) Suit() Suit {
	return Suit(c >> 4)
}

func (c Card) IsAce() bool {
	return c.Rank() == Ace
}

// Valid reports whether c encodes one of the 52 standard cards.
func (c Card) Valid() bool {
	r := c.Rank()
	return c.Suit() <= Diamond && r >= Two && r <= Ace
}

func (c Card) String() string {
	if !c.Valid() {
		return "Invalid"
	}
	return c.Rank().String() + c.Suit().String()
}

// Code returns the ASCII shorthand ("As", "Td") accepted by Parse.
func (c Card) Code() string {
	if !c.Valid() {
		return "??"
	}
	return c.Rank().String() + string(c.Suit().Letter())
}

// Parse converts a string such as "As", "Td", "10h" or "Q♦" into a Card.
func Parse(s string) (Card, error) {
	if len(s) < 2 {
		return CardInvalid, fmt.Errorf("invalid card string: %q", s)
	}

	var suit Suit
	var rankStr string
	switch {
	case strings.HasSuffix(s, "♠"):
		suit, rankStr = Spade, strings.TrimSuffix(s, "♠")
	case strings.HasSuffix(s, "♥"):
		suit, rankStr = Heart, strings.TrimSuffix(s, "♥")
	case strings.HasSuffix(s, "♣"):
		suit, rankStr = Club, strings.TrimSuffix(s, "♣")
	case strings.HasSuffix(s, "♦"):
		suit, rankStr = Diamond, strings.TrimSuffix(s, "♦")
	default:
		rankStr = s[:len(s)-1]
		switch s[len(s)-1] {
		case 's', 'S':
			suit = Spade
		case 'h', 'H':
			suit = Heart
		case 'c', 'C':
			suit = Club
		case 'd', 'D':
			suit = Diamond
		default:
			return CardInvalid, fmt.Errorf("invalid suit in %q", s)
		}
	}

	var rank Rank
	switch strings.ToUpper(rankStr) {
	case "A":
		rank = Ace
	case "K":
		rank = King
	case "Q":
		rank = Queen
	case "J":
		rank = Jack
	case "T", "10":
		rank = Ten
	case "2", "3", "4", "5", "6", "7", "8", "9":
		rank = Rank(rankStr[0] - '0')
	default:
		return CardInvalid, fmt.Errorf("invalid rank in %q", s)
	}
	return New(suit, rank), nil
}

// ParseList parses whitespace separated cards: "As Kd 10h".
func ParseList(s string) (CardList, error) {
	fields := strings.Fields(s)
	out := make(CardList, 0, len(fields))
	for _, f := range fields {
		c, err := Parse(f)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// MustParseList is ParseList for fixtures; it panics on bad input.
func MustParseList(s string) CardList {
	cards, err := ParseList(s)
	if err != nil {
		panic(err)
	}
	return cards
}
