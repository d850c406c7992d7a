// Package lobby hands out session handles and routes calls to the table
// actor behind each one.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"holdem-engine/holdem"
	"holdem-engine/internal/table"

	"github.com/google/uuid"
)

// Handle identifies a running session (one table playing consecutive hands).
type Handle string

var (
	ErrUnknownSession = errors.New("unknown session")
	// ErrNotSeated means the caller holds no human seat at the session.
	ErrNotSeated = errors.New("player not seated at session")
)

// BroadcastFunc delivers an encoded envelope to one player of one session.
type BroadcastFunc func(h Handle, playerID string, data []byte)

// Lobby manages all tables and player assignments
type Lobby struct {
	mu     sync.RWMutex
	tables map[Handle]*table.Table

	defaultConfig table.Config
	deps          table.Deps
	broadcast     BroadcastFunc
}

// New creates a lobby. deps.Broadcast is ignored; use SetBroadcast.
func New(defaultConfig table.Config, deps table.Deps) *Lobby {
	deps.Broadcast = nil
	return &Lobby{
		tables:        make(map[Handle]*table.Table),
		defaultConfig: defaultConfig,
		deps:          deps,
	}
}

// SetBroadcast installs the transport for sessions created afterwards.
func (l *Lobby) SetBroadcast(fn BroadcastFunc) {
	l.mu.Lock()
	l.broadcast = fn
	l.mu.Unlock()
}

func (l *Lobby) DefaultConfig() table.Config {
	return l.defaultConfig
}

// CreateSession seats players and deals the first hand. Zero fields of cfg
// take the lobby defaults.
func (l *Lobby) CreateSession(ctx context.Context, cfg table.Config, seats []table.SeatRequest) (Handle, error) {
	cfg = l.merge(cfg)
	h := Handle(uuid.NewString())

	l.mu.RLock()
	deps := l.deps
	if fn := l.broadcast; fn != nil {
		deps.Broadcast = func(playerID string, data []byte) { fn(h, playerID, data) }
	}
	l.mu.RUnlock()

	t, err := table.New(ctx, string(h), cfg, seats, deps)
	if err != nil {
		return "", err
	}
	if err := t.StartHand(ctx); err != nil {
		t.Stop()
		return "", fmt.Errorf("start first hand: %w", err)
	}

	l.mu.Lock()
	l.tables[h] = t
	l.mu.Unlock()

	log.Printf("[Lobby] Created session %s with %d seats", h, len(seats))
	return h, nil
}

func (l *Lobby) merge(cfg table.Config) table.Config {
	d := l.defaultConfig
	if cfg.MaxPlayers == 0 {
		cfg.MaxPlayers = d.MaxPlayers
	}
	if cfg.SmallBlind == 0 && cfg.BigBlind == 0 {
		cfg.SmallBlind, cfg.BigBlind = d.SmallBlind, d.BigBlind
	}
	if cfg.DefaultChips == 0 {
		cfg.DefaultChips = d.DefaultChips
	}
	if cfg.ActionTimeout == 0 {
		cfg.ActionTimeout = d.ActionTimeout
	}
	if cfg.HandDelay == 0 {
		cfg.HandDelay = d.HandDelay
	}
	if cfg.NPCThinkDelay == 0 {
		cfg.NPCThinkDelay = d.NPCThinkDelay
	}
	if cfg.Seed == 0 {
		cfg.Seed = d.Seed
	}
	return cfg
}

// Table returns the actor behind h.
func (l *Lobby) Table(h Handle) (*table.Table, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t := l.tables[h]
	if t == nil || t.IsClosed() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, h)
	}
	return t, nil
}

// HumanSeat returns playerID's seat at h. Bot seats are never returned, so a
// login that shares a bot's id cannot act for it.
func (l *Lobby) HumanSeat(h Handle, playerID string) (table.SeatInfo, error) {
	t, err := l.Table(h)
	if err != nil {
		return table.SeatInfo{}, err
	}
	st, ok := t.Seat(playerID)
	if !ok || st.NPC {
		return table.SeatInfo{}, fmt.Errorf("%w: %s", ErrNotSeated, playerID)
	}
	return st, nil
}

func (l *Lobby) SubmitAction(ctx context.Context, h Handle, playerID string, a holdem.Action) error {
	t, err := l.Table(h)
	if err != nil {
		return err
	}
	return t.Act(ctx, playerID, a)
}

func (l *Lobby) PublicState(h Handle, viewerID string) (holdem.PublicState, error) {
	t, err := l.Table(h)
	if err != nil {
		return holdem.PublicState{}, err
	}
	return t.PublicState(viewerID)
}

func (l *Lobby) ShowdownResult(h Handle) (holdem.ShowdownResult, error) {
	t, err := l.Table(h)
	if err != nil {
		return holdem.ShowdownResult{}, err
	}
	return t.ShowdownResult()
}

func (l *Lobby) LegalActions(h Handle, playerID string) (holdem.LegalActions, error) {
	t, err := l.Table(h)
	if err != nil {
		return holdem.LegalActions{}, err
	}
	return t.LegalActions(playerID)
}

// NextHand deals the following hand once the current one is over.
func (l *Lobby) NextHand(ctx context.Context, h Handle) error {
	t, err := l.Table(h)
	if err != nil {
		return err
	}
	return t.StartHand(ctx)
}

// Close stops the session and forgets the handle.
func (l *Lobby) Close(h Handle) error {
	l.mu.Lock()
	t := l.tables[h]
	delete(l.tables, h)
	l.mu.Unlock()
	if t == nil {
		return fmt.Errorf("%w: %s", ErrUnknownSession, h)
	}
	t.Stop()
	log.Printf("[Lobby] Closed session %s", h)
	return nil
}

// Sessions returns all live handles, sorted.
func (l *Lobby) Sessions() []Handle {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Handle, 0, len(l.tables))
	for h, t := range l.tables {
		if !t.IsClosed() {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Shutdown stops every table.
func (l *Lobby) Shutdown() {
	l.mu.Lock()
	tables := l.tables
	l.tables = make(map[Handle]*table.Table)
	l.mu.Unlock()
	for _, t := range tables {
		t.Stop()
	}
}
