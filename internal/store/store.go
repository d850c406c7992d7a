// Package store persists player chip stacks and finished hands outside the
// engine. Tables load stacks before a hand and save them afterwards.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidID     = errors.New("invalid id")
	ErrNegativeChips = errors.New("chips must be >= 0")
	ErrAccountExists = errors.New("account already exists")
)

type Player struct {
	ID        string    `json:"id"`
	Chips     int64     `json:"chips"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HandRecord is one finished hand. Tape holds the JSON replay tape.
type HandRecord struct {
	HandID   string           `json:"hand_id"`
	TableID  string           `json:"table_id"`
	PlayedAt time.Time        `json:"played_at"`
	Players  []string         `json:"players"`
	Winners  []string         `json:"winners"`
	Pot      int64            `json:"pot"`
	Payouts  map[string]int64 `json:"payouts"`
	Tape     []byte           `json:"tape,omitempty"`
}

// Account is the login of one player id. PasswordHash is a bcrypt hash.
type Account struct {
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}

type PlayerStore interface {
	LoadPlayer(ctx context.Context, id string) (Player, error)
	SavePlayer(ctx context.Context, p Player) error
}

type HandHistory interface {
	AppendHand(ctx context.Context, h HandRecord) error
	GetHand(ctx context.Context, handID string) (HandRecord, error)
	// ListHands returns the newest hands playerID took part in.
	ListHands(ctx context.Context, playerID string, limit int) ([]HandRecord, error)
}

type AccountStore interface {
	LoadAccount(ctx context.Context, username string) (Account, error)
	// CreateAccount fails with ErrAccountExists when the username is taken.
	CreateAccount(ctx context.Context, a Account) error
}

type Store interface {
	PlayerStore
	HandHistory
	AccountStore
	Close() error
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxListLimit {
		return defaultListLimit
	}
	return limit
}
