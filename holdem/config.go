package holdem

import (
	"fmt"

	"holdem-engine/card"
)

type Config struct {
	// Table
	MaxPlayers int // 0 => MaxSeats
	MinPlayers int // 0 => MinSeats

	// Blinds. Both zero disables blind posting.
	SmallBlind int64
	BigBlind   int64

	// Dealer is the seat index of the button. -1 => last seat.
	Dealer int

	// RNG seed (0 => crypto/rand)
	Seed int64

	// Deck, when set, replaces the shuffle: cards are dealt from the front
	// in this exact order.
	Deck []card.Card
}

// DefaultConfig 默认配置：无盲注，庄家为最后一个座位
func DefaultConfig() Config {
	return Config{MaxPlayers: MaxSeats, MinPlayers: MinSeats, Dealer: -1}
}

func (c Config) withDefaults() Config {
	if c.MaxPlayers == 0 {
		c.MaxPlayers = MaxSeats
	}
	if c.MinPlayers == 0 {
		c.MinPlayers = MinSeats
	}
	return c
}

func (c Config) validate() error {
	if c.MaxPlayers < MinSeats || c.MaxPlayers > MaxSeats {
		return fmt.Errorf("MaxPlayers must be in [%d,%d]", MinSeats, MaxSeats)
	}
	if c.MinPlayers < MinSeats {
		return fmt.Errorf("MinPlayers must be >= %d", MinSeats)
	}
	if c.MinPlayers > c.MaxPlayers {
		return fmt.Errorf("MinPlayers must be <= MaxPlayers")
	}
	if c.SmallBlind < 0 || c.BigBlind < 0 || c.SmallBlind > c.BigBlind {
		return fmt.Errorf("invalid blinds: sb=%d bb=%d", c.SmallBlind, c.BigBlind)
	}
	if c.SmallBlind > 0 && c.BigBlind == 0 {
		return fmt.Errorf("small blind without big blind")
	}
	if c.Dealer < -1 {
		return fmt.Errorf("invalid dealer seat %d", c.Dealer)
	}
	return nil
}
