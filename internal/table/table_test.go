package table

import (
	"context"
	"sync"
	"testing"
	"time"

	"holdem-engine/holdem"
	"holdem-engine/holdem/npc"
	"holdem-engine/internal/codec"
	"holdem-engine/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inbox struct {
	mu   sync.Mutex
	msgs map[string][]codec.ServerMessage
}

func (in *inbox) deliver(playerID string, data []byte) {
	msg, err := codec.DecodeServer(data)
	if err != nil {
		panic(err)
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.msgs[playerID] = append(in.msgs[playerID], msg)
}

func (in *inbox) of(playerID string) []codec.ServerMessage {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]codec.ServerMessage(nil), in.msgs[playerID]...)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ActionTimeout = 0
	cfg.Seed = 11
	return cfg
}

func newTestTable(t *testing.T, cfg Config, seats []SeatRequest, deps Deps) *Table {
	t.Helper()
	tbl, err := New(context.Background(), "t1", cfg, seats, deps)
	require.NoError(t, err)
	t.Cleanup(tbl.Stop)
	return tbl
}

func threeSeats() []SeatRequest {
	return []SeatRequest{{ID: "a", Chips: 1000}, {ID: "b", Chips: 1000}, {ID: "c", Chips: 1000}}
}

func TestFoldOutSavesStacksAndHistory(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	tbl := newTestTable(t, testConfig(), threeSeats(), Deps{Store: st})
	require.NoError(t, tbl.StartHand(ctx))

	// 庄家 c，小盲 a，大盲 b
	state, err := tbl.PublicState("")
	require.NoError(t, err)
	assert.Equal(t, "c", state.DealerID)
	assert.Equal(t, "c", state.ActivePlayerID)

	require.NoError(t, tbl.Act(ctx, "c", holdem.Fold()))
	require.NoError(t, tbl.Act(ctx, "a", holdem.Fold()))

	res, err := tbl.ShowdownResult()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, res.Winners)
	assert.True(t, res.ByFold)

	want := map[string]int64{"a": 995, "b": 1005, "c": 1000}
	for id, chips := range want {
		p, err := st.LoadPlayer(ctx, id)
		require.NoError(t, err, id)
		assert.Equal(t, chips, p.Chips, id)
	}

	hands, err := st.ListHands(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, hands, 1)
	assert.Equal(t, tbl.HandID(), hands[0].HandID)
	assert.Equal(t, []string{"a", "b", "c"}, hands[0].Players)
	assert.Contains(t, string(hands[0].Tape), `"tape_version":1`)
}

func TestStacksLoadedFromStore(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.SavePlayer(ctx, store.Player{ID: "a", Chips: 500}))

	cfg := testConfig()
	cfg.DefaultChips = 750
	tbl := newTestTable(t, cfg, []SeatRequest{{ID: "a"}, {ID: "b"}, {ID: "c", Chips: 42}}, Deps{Store: st})

	got := map[string]int64{}
	for _, s := range tbl.Seats() {
		got[s.ID] = s.Chips
	}
	assert.Equal(t, map[string]int64{"a": 500, "b": 750, "c": 42}, got)
}

func TestButtonMovesEachHand(t *testing.T) {
	ctx := context.Background()
	tbl := newTestTable(t, testConfig(), threeSeats(), Deps{})

	dealers := []string{}
	for hand := 0; hand < 4; hand++ {
		require.NoError(t, tbl.StartHand(ctx))
		state, err := tbl.PublicState("")
		require.NoError(t, err)
		dealers = append(dealers, state.DealerID)
		for {
			if _, err := tbl.ShowdownResult(); err == nil {
				break
			}
			state, err := tbl.PublicState("")
			require.NoError(t, err)
			require.NoError(t, tbl.Act(ctx, state.ActivePlayerID, holdem.Fold()))
		}
	}
	assert.Equal(t, []string{"c", "a", "b", "c"}, dealers)
}

func TestActionTimeoutFolds(t *testing.T) {
	cfg := testConfig()
	cfg.ActionTimeout = 20 * time.Millisecond
	tbl := newTestTable(t, cfg, threeSeats(), Deps{})
	require.NoError(t, tbl.StartHand(context.Background()))

	require.Eventually(t, func() bool {
		_, err := tbl.ShowdownResult()
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)

	res, err := tbl.ShowdownResult()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, res.Winners)
}

func TestTimeoutChecksWhenFree(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.ActionTimeout = 20 * time.Millisecond
	tbl := newTestTable(t, cfg, threeSeats(), Deps{})
	require.NoError(t, tbl.StartHand(ctx))
	require.NoError(t, tbl.Act(ctx, "c", holdem.Call()))
	require.NoError(t, tbl.Act(ctx, "a", holdem.Call()))

	// b has the option and times out into a check, which deals the flop.
	require.Eventually(t, func() bool {
		state, err := tbl.PublicState("")
		return err == nil && state.Street >= holdem.StreetFlop
	}, 2*time.Second, 5*time.Millisecond)

	state, err := tbl.PublicState("")
	require.NoError(t, err)
	for _, p := range state.Players {
		assert.False(t, p.Folded, p.ID)
	}
}

func TestHoleCardsOnlyReachOwner(t *testing.T) {
	in := &inbox{msgs: map[string][]codec.ServerMessage{}}
	tbl := newTestTable(t, testConfig(), threeSeats(), Deps{Broadcast: in.deliver})
	require.NoError(t, tbl.StartHand(context.Background()))

	for _, id := range []string{"a", "b", "c"} {
		holes := 0
		var lastSeq uint64
		for _, m := range in.of(id) {
			assert.Greater(t, m.Seq, lastSeq)
			lastSeq = m.Seq
			if m.Type == "hole_cards" {
				holes++
				assert.Equal(t, id, m.Payload["player_id"])
			}
		}
		assert.Equal(t, 1, holes, id)
	}

	// 传输层的帧从同一计数器取号，总是排在已广播事件之后
	var maxSeq uint64
	for _, id := range []string{"a", "b", "c"} {
		for _, m := range in.of(id) {
			maxSeq = max(maxSeq, m.Seq)
		}
	}
	next := tbl.NextSeq()
	assert.Greater(t, next, maxSeq)
	assert.Equal(t, next+1, tbl.NextSeq())

	seat, ok := tbl.Seat("b")
	require.True(t, ok)
	assert.Equal(t, "b", seat.ID)
	_, ok = tbl.Seat("zed")
	assert.False(t, ok)
}

func TestNPCTableFinishesHands(t *testing.T) {
	mgr := npc.NewManager(npc.DefaultRegistry(), 5)
	cfg := testConfig()
	cfg.NPCThinkDelay = time.Millisecond
	tbl := newTestTable(t, cfg, []SeatRequest{
		{ID: "bot1", Chips: 300, Persona: "rock"},
		{ID: "bot2", Chips: 300, Persona: "maniac"},
		{ID: "bot3", Chips: 300, Persona: "station"},
	}, Deps{NPC: mgr})

	ended := make(chan HandEndInfo, 1)
	tbl.AddHandEndHook(func(info HandEndInfo) { ended <- info })
	require.NoError(t, tbl.StartHand(context.Background()))

	select {
	case info := <-ended:
		var total int64
		for _, v := range info.Stacks {
			total += v
		}
		assert.Equal(t, int64(900), total)
		assert.Equal(t, 1, info.Round)
	case <-time.After(5 * time.Second):
		t.Fatalf("bots did not finish the hand")
	}

	tbl.Stop()
	assert.False(t, mgr.IsNPC("bot1"))
}

func TestHandDelayStartsNextHand(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.HandDelay = 20 * time.Millisecond
	tbl := newTestTable(t, cfg, threeSeats(), Deps{})
	require.NoError(t, tbl.StartHand(ctx))
	first := tbl.HandID()
	require.NoError(t, tbl.Act(ctx, "c", holdem.Fold()))
	require.NoError(t, tbl.Act(ctx, "a", holdem.Fold()))

	require.Eventually(t, func() bool { return tbl.HandID() != first }, 2*time.Second, 5*time.Millisecond)
}

func TestTableErrors(t *testing.T) {
	ctx := context.Background()
	tbl := newTestTable(t, testConfig(), threeSeats(), Deps{})

	assert.ErrorIs(t, tbl.Act(ctx, "a", holdem.Fold()), ErrNoHand)
	_, err := tbl.PublicState("a")
	assert.ErrorIs(t, err, ErrNoHand)

	require.NoError(t, tbl.StartHand(ctx))
	assert.ErrorIs(t, tbl.StartHand(ctx), ErrHandInProgress)
	assert.ErrorIs(t, tbl.Act(ctx, "a", holdem.Fold()), holdem.ErrNotPlayersTurn)
	_, err = tbl.ShowdownResult()
	assert.ErrorIs(t, err, holdem.ErrHandNotOver)

	tbl.Stop()
	assert.ErrorIs(t, tbl.Act(ctx, "c", holdem.Fold()), ErrTableClosed)
	assert.True(t, tbl.IsClosed())
}

func TestSeatValidation(t *testing.T) {
	ctx := context.Background()
	_, err := New(ctx, "x", testConfig(), []SeatRequest{{ID: "a", Chips: 10}}, Deps{})
	assert.ErrorIs(t, err, ErrInvalidSeatConfig)
	_, err = New(ctx, "x", testConfig(), []SeatRequest{{ID: "a", Chips: 10}, {ID: "a", Chips: 10}}, Deps{})
	assert.ErrorIs(t, err, ErrInvalidSeatConfig)
	_, err = New(ctx, "x", testConfig(), []SeatRequest{{ID: "a", Chips: 10}, {ID: "b", Chips: 10, Persona: "rock"}}, Deps{})
	assert.ErrorIs(t, err, ErrInvalidSeatConfig)

	tbl := newTestTable(t, testConfig(), []SeatRequest{{ID: "a", Chips: 1000}, {ID: "b", Chips: 5}}, Deps{})
	assert.ErrorIs(t, tbl.StartHand(ctx), ErrNotEnoughPlayers)
}
