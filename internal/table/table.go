package table

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"holdem-engine/holdem"
	"holdem-engine/holdem/npc"
	"holdem-engine/internal/codec"
	"holdem-engine/internal/store"
	"holdem-engine/replay"

	"github.com/google/uuid"
)

// Table runs consecutive hands for a fixed set of seats with an actor model.
// Every state change goes through the events channel and is applied by run.
type Table struct {
	ID     string
	Config Config

	mu       sync.RWMutex
	seats    []*seat
	session  *holdem.Session
	handID   string
	round    int
	button   int // index into seats, -1 before the first hand
	closed   bool
	stopOnce sync.Once

	// Event channel for actor pattern
	events chan Event
	done   chan struct{}

	serverSeq atomic.Uint64

	actionPlayer   string
	actionDeadline time.Time
	nextHandAt     time.Time

	store     Store
	broadcast func(playerID string, data []byte)
	npc       *npc.Manager

	handEndHooks []HandEndHook
}

// Config contains table settings.
type Config struct {
	MaxPlayers int
	SmallBlind int64
	BigBlind   int64
	// DefaultChips seeds players the store has never seen.
	DefaultChips int64
	// ActionTimeout folds (or checks) for a player who does not act in time.
	// Zero disables the clock.
	ActionTimeout time.Duration
	// HandDelay starts the next hand automatically once this long has passed
	// after the previous one ended. Zero means hands start only on StartHand.
	HandDelay time.Duration
	// NPCThinkDelay overrides the persona think time when > 0.
	NPCThinkDelay time.Duration
	// Seed makes every hand's shuffle reproducible (seed+round). 0 => random.
	Seed int64
}

func DefaultConfig() Config {
	return Config{
		MaxPlayers:    holdem.MaxSeats,
		SmallBlind:    5,
		BigBlind:      10,
		DefaultChips:  1000,
		ActionTimeout: 30 * time.Second,
	}
}

// SeatRequest asks for a seat. Chips == 0 loads the stack from the store.
// A non-empty Persona seats a rule bot.
type SeatRequest struct {
	ID      string `json:"id"`
	Chips   int64  `json:"chips,omitempty"`
	Persona string `json:"persona,omitempty"`
}

// SeatInfo is a read-only copy of a seat.
type SeatInfo struct {
	ID    string `json:"id"`
	Chips int64  `json:"chips"`
	NPC   bool   `json:"npc"`
}

// Store is the persistence a table needs around each hand.
type Store interface {
	store.PlayerStore
	store.HandHistory
}

// Deps are a table's collaborators; all of them are optional.
type Deps struct {
	Store     Store
	Broadcast func(playerID string, data []byte)
	NPC       *npc.Manager
}

type seat struct {
	id    string
	chips int64
	npc   bool
}

// Event types for the actor message queue
type EventType int

const (
	EventAction EventType = iota
	EventStartHand
	EventClose
)

// Event represents a message to the table actor
type Event struct {
	Type      EventType
	PlayerID  string
	Action    holdem.Action
	Timestamp time.Time
	Response  chan error
}

// HandEndInfo is emitted when a hand settlement is finalized.
type HandEndInfo struct {
	TableID string
	HandID  string
	Round   int
	Result  holdem.ShowdownResult
	Stacks  map[string]int64
}

// HandEndHook is a post-settlement callback.
type HandEndHook func(info HandEndInfo)

var (
	ErrTableClosed       = errors.New("table closed")
	ErrNoHand            = errors.New("no hand in progress")
	ErrHandInProgress    = errors.New("hand in progress")
	ErrNotEnoughPlayers  = errors.New("not enough players with chips")
	ErrInvalidSeatConfig = errors.New("invalid seat configuration")
)

const storeTimeout = 3 * time.Second

// New seats players and starts the actor. Stacks omitted in seats are loaded
// from deps.Store (DefaultChips for unknown players).
func New(ctx context.Context, id string, cfg Config, seats []SeatRequest, deps Deps) (*Table, error) {
	if cfg.MaxPlayers == 0 {
		cfg.MaxPlayers = holdem.MaxSeats
	}
	if len(seats) < holdem.MinSeats || len(seats) > cfg.MaxPlayers {
		return nil, fmt.Errorf("%w: need %d..%d seats, got %d", ErrInvalidSeatConfig, holdem.MinSeats, cfg.MaxPlayers, len(seats))
	}
	t := &Table{
		ID:        id,
		Config:    cfg,
		button:    -1,
		events:    make(chan Event, 256),
		done:      make(chan struct{}),
		store:     deps.Store,
		broadcast: deps.Broadcast,
		npc:       deps.NPC,
	}

	seen := make(map[string]bool, len(seats))
	for _, req := range seats {
		req.ID = strings.TrimSpace(req.ID)
		if req.ID == "" || seen[req.ID] {
			return nil, fmt.Errorf("%w: empty or duplicate id %q", ErrInvalidSeatConfig, req.ID)
		}
		seen[req.ID] = true
		if req.Chips < 0 {
			return nil, fmt.Errorf("%w: %s has negative chips", ErrInvalidSeatConfig, req.ID)
		}
		chips := req.Chips
		if chips == 0 {
			loaded, err := t.loadChips(ctx, req.ID)
			if err != nil {
				return nil, err
			}
			chips = loaded
		}
		st := &seat{id: req.ID, chips: chips}
		if req.Persona != "" {
			if t.npc == nil {
				return nil, fmt.Errorf("%w: %s wants persona %q but no NPC manager", ErrInvalidSeatConfig, req.ID, req.Persona)
			}
			if _, err := t.npc.Spawn(req.ID, req.Persona); err != nil {
				return nil, err
			}
			st.npc = true
		}
		t.seats = append(t.seats, st)
	}

	go t.run()

	log.Printf("[Table %s] Created (seats=%d, blinds=%d/%d)", id, len(t.seats), cfg.SmallBlind, cfg.BigBlind)
	return t, nil
}

func (t *Table) loadChips(ctx context.Context, playerID string) (int64, error) {
	if t.store == nil {
		return t.Config.DefaultChips, nil
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	p, err := t.store.LoadPlayer(ctx, playerID)
	if errors.Is(err, store.ErrNotFound) {
		return t.Config.DefaultChips, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", playerID, err)
	}
	return p.Chips, nil
}

// run is the main actor loop
func (t *Table) run() {
	ticker := time.NewTicker(t.tickInterval())
	defer ticker.Stop()

	for {
		select {
		case event := <-t.events:
			err := t.handleEvent(event)
			if event.Response != nil {
				event.Response <- err
			}
		case <-ticker.C:
			t.tick()
		case <-t.done:
			log.Printf("[Table %s] Actor stopped", t.ID)
			return
		}
	}
}

func (t *Table) tickInterval() time.Duration {
	d := 500 * time.Millisecond
	for _, v := range []time.Duration{t.Config.ActionTimeout / 4, t.Config.HandDelay / 4} {
		if v > 0 && v < d {
			d = v
		}
	}
	return max(d, 5*time.Millisecond)
}

func (t *Table) handleEvent(e Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed && e.Type != EventClose {
		return ErrTableClosed
	}

	switch e.Type {
	case EventAction:
		return t.handleAction(e.PlayerID, e.Action)
	case EventStartHand:
		return t.handleStartHand()
	case EventClose:
		t.stopLocked()
		return nil
	default:
		return fmt.Errorf("unknown event type: %d", e.Type)
	}
}

func (t *Table) handleStartHand() error {
	if t.session != nil && !t.session.Ended() {
		return ErrHandInProgress
	}
	t.nextHandAt = time.Time{}
	t.clearActionTimeoutLocked()

	eligible := make([]int, 0, len(t.seats))
	for i, st := range t.seats {
		if st.chips > 0 && st.chips >= t.Config.BigBlind {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) < holdem.MinSeats {
		return ErrNotEnoughPlayers
	}

	// 庄家按钮顺时针移到下一个有筹码的座位；第一手落在最后一个座位
	dealer := len(eligible) - 1
	if t.button >= 0 {
		dealer = 0
		for k, idx := range eligible {
			if idx > t.button {
				dealer = k
				break
			}
		}
	}

	cfg := holdem.DefaultConfig()
	cfg.SmallBlind = t.Config.SmallBlind
	cfg.BigBlind = t.Config.BigBlind
	cfg.Dealer = dealer
	if t.Config.Seed != 0 {
		cfg.Seed = t.Config.Seed + int64(t.round)
	}
	hseats := make([]holdem.Seat, len(eligible))
	for k, idx := range eligible {
		hseats[k] = holdem.Seat{ID: t.seats[idx].id, Chips: t.seats[idx].chips}
	}

	s, err := holdem.NewSession(cfg, hseats)
	if err != nil {
		log.Printf("[Table %s] StartHand failed: %v", t.ID, err)
		return err
	}
	t.session = s
	t.button = eligible[dealer]
	t.round++
	t.handID = uuid.NewString()
	log.Printf("[Table %s] Hand %d (%s) started. Dealer: %s, Action: %s",
		t.ID, t.round, t.handID, t.seats[t.button].id, s.ActivePlayerID())

	t.afterChangeLocked()
	return nil
}

func (t *Table) handleAction(playerID string, a holdem.Action) error {
	if t.session == nil {
		return ErrNoHand
	}
	if err := t.session.Act(playerID, a); err != nil {
		return err
	}
	if t.actionPlayer == playerID {
		t.clearActionTimeoutLocked()
	}
	log.Printf("[Table %s] Player %s action: %s", t.ID, playerID, a)
	t.afterChangeLocked()
	return nil
}

// afterChangeLocked flushes session events and moves the hand forward: prompt
// the next player or settle.
func (t *Table) afterChangeLocked() {
	for _, ev := range t.session.DrainEvents() {
		t.broadcastEvent(ev)
	}
	if t.session.Ended() {
		t.handleHandEnd()
		return
	}
	active := t.session.ActivePlayerID()
	if active == "" {
		return
	}
	if t.isNPC(active) {
		t.scheduleNPCAction(active)
		return
	}
	t.setActionTimeoutLocked(active, time.Now())
}

func (t *Table) handleHandEnd() {
	t.clearActionTimeoutLocked()
	res, err := t.session.ShowdownResult()
	if err != nil {
		log.Printf("[Table %s] hand end without result: %v", t.ID, err)
		return
	}
	log.Printf("[Table %s] Hand %d ended. Winners: %v pot=%d", t.ID, t.round, res.Winners, res.Pot)

	stacks := make(map[string]int64, len(t.seats))
	for _, p := range t.session.Snapshot().Players {
		stacks[p.ID] = p.Chips
	}
	for _, st := range t.seats {
		if chips, ok := stacks[st.id]; ok {
			st.chips = chips
		}
	}

	t.persistHand(res, stacks)
	t.dispatchHandEndHooks(HandEndInfo{
		TableID: t.ID,
		HandID:  t.handID,
		Round:   t.round,
		Result:  res,
		Stacks:  stacks,
	})

	if t.Config.HandDelay > 0 {
		t.nextHandAt = time.Now().Add(t.Config.HandDelay)
	}
}

func (t *Table) persistHand(res holdem.ShowdownResult, stacks map[string]int64) {
	if t.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	for _, st := range t.seats {
		if _, played := stacks[st.id]; !played || st.npc {
			continue
		}
		if err := t.store.SavePlayer(ctx, store.Player{ID: st.id, Chips: st.chips}); err != nil {
			log.Printf("[Table %s] save player %s failed: %v", t.ID, st.id, err)
		}
	}

	var tape []byte
	if rt, err := replay.Replay(t.session.Log()); err != nil {
		log.Printf("[Table %s] replay of hand %s failed: %v", t.ID, t.handID, err)
	} else if tape, err = json.Marshal(rt); err != nil {
		log.Printf("[Table %s] encode tape of hand %s failed: %v", t.ID, t.handID, err)
	}

	players := make([]string, 0, len(stacks))
	for _, st := range t.seats {
		if _, ok := stacks[st.id]; ok {
			players = append(players, st.id)
		}
	}
	rec := store.HandRecord{
		HandID:   t.handID,
		TableID:  t.ID,
		PlayedAt: time.Now().UTC(),
		Players:  players,
		Winners:  res.Winners,
		Pot:      res.Pot,
		Payouts:  res.Payouts,
		Tape:     tape,
	}
	if err := t.store.AppendHand(ctx, rec); err != nil {
		log.Printf("[Table %s] append hand %s failed: %v", t.ID, t.handID, err)
	}
}

func (t *Table) dispatchHandEndHooks(info HandEndInfo) {
	if len(t.handEndHooks) == 0 {
		return
	}
	hooks := append([]HandEndHook(nil), t.handEndHooks...)
	for _, hook := range hooks {
		go func(cb HandEndHook) {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[Table %s] hand end hook panic: %v", t.ID, r)
				}
			}()
			cb(info)
		}(hook)
	}
}

func (t *Table) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	now := time.Now()
	if err := t.handleTimeout(now); err != nil {
		log.Printf("[Table %s] timeout handler failed: %v", t.ID, err)
	}
	if !t.nextHandAt.IsZero() && !now.Before(t.nextHandAt) {
		if err := t.handleStartHand(); err != nil {
			t.nextHandAt = time.Time{}
			log.Printf("[Table %s] delayed hand start failed: %v", t.ID, err)
		}
	}
}

func (t *Table) handleTimeout(now time.Time) error {
	if t.actionPlayer == "" || t.actionDeadline.IsZero() || now.Before(t.actionDeadline) {
		return nil
	}
	playerID := t.actionPlayer
	t.clearActionTimeoutLocked()

	if t.session == nil || t.session.ActivePlayerID() != playerID {
		return nil
	}
	legal, err := t.session.LegalActions(playerID)
	if err != nil {
		return err
	}
	auto := holdem.Fold()
	if legal.Allows(holdem.ActionCheck) {
		auto = holdem.Check()
	}
	log.Printf("[Table %s] Action timeout player=%s -> auto %s", t.ID, playerID, auto)
	return t.handleAction(playerID, auto)
}

// SubmitEvent sends an event to the actor and waits for it to be applied.
func (t *Table) SubmitEvent(ctx context.Context, e Event) error {
	e.Timestamp = time.Now()
	if e.Response == nil {
		e.Response = make(chan error, 1)
	}

	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()
	if closed {
		return ErrTableClosed
	}

	select {
	case t.events <- e:
	case <-t.done:
		return ErrTableClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-e.Response:
		return err
	case <-t.done:
		return ErrTableClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Act submits a player action.
func (t *Table) Act(ctx context.Context, playerID string, a holdem.Action) error {
	return t.SubmitEvent(ctx, Event{Type: EventAction, PlayerID: playerID, Action: a})
}

// StartHand deals the next hand, moving the button.
func (t *Table) StartHand(ctx context.Context) error {
	return t.SubmitEvent(ctx, Event{Type: EventStartHand})
}

// Stop shuts down the table actor
func (t *Table) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Table) stopLocked() {
	t.closed = true
	t.nextHandAt = time.Time{}
	t.clearActionTimeoutLocked()
	t.stopOnce.Do(func() {
		close(t.done)
		if t.npc != nil {
			for _, st := range t.seats {
				if st.npc {
					t.npc.Despawn(st.id)
				}
			}
		}
	})
}

func (t *Table) setActionTimeoutLocked(playerID string, now time.Time) {
	if t.Config.ActionTimeout <= 0 {
		return
	}
	t.actionPlayer = playerID
	t.actionDeadline = now.Add(t.Config.ActionTimeout)
}

func (t *Table) clearActionTimeoutLocked() {
	t.actionPlayer = ""
	t.actionDeadline = time.Time{}
}

func (t *Table) IsClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// PublicState returns the current hand as viewerID may see it.
func (t *Table) PublicState(viewerID string) (holdem.PublicState, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.session == nil {
		return holdem.PublicState{}, ErrNoHand
	}
	return t.session.PublicState(viewerID), nil
}

// ShowdownResult of the current hand; holdem.ErrHandNotOver while it runs.
func (t *Table) ShowdownResult() (holdem.ShowdownResult, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.session == nil {
		return holdem.ShowdownResult{}, ErrNoHand
	}
	return t.session.ShowdownResult()
}

// LegalActions for playerID in the current hand.
func (t *Table) LegalActions(playerID string) (holdem.LegalActions, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.session == nil {
		return holdem.LegalActions{}, ErrNoHand
	}
	return t.session.LegalActions(playerID)
}

// HandID of the current (or last) hand.
func (t *Table) HandID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.handID
}

func (t *Table) Seats() []SeatInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]SeatInfo, len(t.seats))
	for i, st := range t.seats {
		out[i] = SeatInfo{ID: st.id, Chips: st.chips, NPC: st.npc}
	}
	return out
}

// Seat returns playerID's seat, if they hold one.
func (t *Table) Seat(playerID string) (SeatInfo, bool) {
	for _, st := range t.Seats() {
		if st.ID == playerID {
			return st, true
		}
	}
	return SeatInfo{}, false
}

// AddHandEndHook registers a post-settlement callback.
func (t *Table) AddHandEndHook(hook HandEndHook) {
	if hook == nil {
		return
	}
	t.mu.Lock()
	t.handEndHooks = append(t.handEndHooks, hook)
	t.mu.Unlock()
}

// --- NPC support ---

// isNPC checks whether playerID is a bot seat (caller must hold t.mu).
func (t *Table) isNPC(playerID string) bool {
	for _, st := range t.seats {
		if st.id == playerID {
			return st.npc
		}
	}
	return false
}

// scheduleNPCAction runs the bot in a goroutine after its think delay and
// feeds the decision back through the actor queue.
func (t *Table) scheduleNPCAction(playerID string) {
	if t.npc == nil {
		return
	}
	delay := t.Config.NPCThinkDelay
	if delay <= 0 {
		delay = t.npc.GetThinkDelay(playerID)
	}
	s := t.session

	go func() {
		select {
		case <-time.After(delay):
		case <-t.done:
			return
		}
		a, err := t.npc.Decide(s, playerID)
		if err != nil {
			log.Printf("[Table %s] NPC %s decide failed: %v", t.ID, playerID, err)
			return
		}
		if err := t.Act(context.Background(), playerID, a); err != nil && !errors.Is(err, ErrTableClosed) {
			log.Printf("[Table %s] NPC %s action %s rejected: %v", t.ID, playerID, a, err)
		}
	}()
}

// --- Broadcast helpers ---

// NextSeq hands out the table's server_seq. Every frame about this table,
// events and transport snapshots alike, draws from the same counter.
func (t *Table) NextSeq() uint64 {
	return t.serverSeq.Add(1)
}

// broadcastEvent sends public events to every human seat and private ones
// only to their audience.
func (t *Table) broadcastEvent(ev holdem.Event) {
	if t.broadcast == nil {
		return
	}
	data, err := codec.EncodeEvent(t.ID, t.NextSeq(), ev)
	if err != nil {
		log.Printf("[Table %s] encode %s failed: %v", t.ID, ev.EventName(), err)
		return
	}
	if aud := ev.Audience(); aud != "" {
		if !t.isNPC(aud) {
			t.broadcast(aud, data)
		}
		return
	}
	for _, st := range t.seats {
		if !st.npc {
			t.broadcast(st.id, data)
		}
	}
}
