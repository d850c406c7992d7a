package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps everything in process; used for tests and STORE_MODE=memory.
type MemoryStore struct {
	mu       sync.RWMutex
	players  map[string]Player
	accounts map[string]Account
	hands    []HandRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		players:  make(map[string]Player),
		accounts: make(map[string]Account),
	}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) LoadPlayer(_ context.Context, id string) (Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[id]
	if !ok {
		return Player{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) SavePlayer(_ context.Context, p Player) error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrInvalidID
	}
	if p.Chips < 0 {
		return ErrNegativeChips
	}
	p.UpdatedAt = time.Now().UTC()
	m.mu.Lock()
	m.players[p.ID] = p
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) AppendHand(_ context.Context, h HandRecord) error {
	if strings.TrimSpace(h.HandID) == "" {
		return ErrInvalidID
	}
	if h.PlayedAt.IsZero() {
		h.PlayedAt = time.Now().UTC()
	}
	h = cloneHand(h)
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.hands {
		if m.hands[i].HandID == h.HandID {
			m.hands[i] = h
			return nil
		}
	}
	m.hands = append(m.hands, h)
	return nil
}

func (m *MemoryStore) GetHand(_ context.Context, handID string) (HandRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, h := range m.hands {
		if h.HandID == handID {
			return cloneHand(h), nil
		}
	}
	return HandRecord{}, ErrNotFound
}

func (m *MemoryStore) ListHands(_ context.Context, playerID string, limit int) ([]HandRecord, error) {
	limit = clampLimit(limit)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]HandRecord, 0, limit)
	for i := len(m.hands) - 1; i >= 0 && len(out) < limit; i-- {
		if slices.Contains(m.hands[i].Players, playerID) {
			out = append(out, cloneHand(m.hands[i]))
		}
	}
	slices.SortStableFunc(out, func(a, b HandRecord) int { return b.PlayedAt.Compare(a.PlayedAt) })
	return out, nil
}

func (m *MemoryStore) LoadAccount(_ context.Context, username string) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[username]
	if !ok {
		return Account{}, ErrNotFound
	}
	a.PasswordHash = slices.Clone(a.PasswordHash)
	return a, nil
}

func (m *MemoryStore) CreateAccount(_ context.Context, a Account) error {
	if strings.TrimSpace(a.Username) == "" {
		return ErrInvalidID
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.PasswordHash = slices.Clone(a.PasswordHash)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.accounts[a.Username]; exists {
		return ErrAccountExists
	}
	m.accounts[a.Username] = a
	return nil
}

func cloneHand(h HandRecord) HandRecord {
	h.Players = slices.Clone(h.Players)
	h.Winners = slices.Clone(h.Winners)
	h.Tape = slices.Clone(h.Tape)
	if h.Payouts != nil {
		p := make(map[string]int64, len(h.Payouts))
		for k, v := range h.Payouts {
			p[k] = v
		}
		h.Payouts = p
	}
	return h
}
