// Package codec maps engine events and views onto protobuf envelopes.
//
// Envelopes are google.protobuf.Struct messages so both sides can decode them
// without generated code. Binary frames use the proto wire format, text
// frames use protojson.
package codec

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"holdem-engine/card"
	"holdem-engine/holdem"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Message types that are not engine events.
const (
	TypeState  = "state"
	TypeError  = "error"
	TypeResult = "result"
)

// Client request types.
const (
	ClientJoin   = "join"
	ClientAction = "action"
	ClientState  = "state"
)

var ErrMalformed = errors.New("malformed envelope")

// ServerMessage is a decoded server envelope.
type ServerMessage struct {
	TableID    string
	Seq        uint64
	ServerTsMs int64
	Type       string
	Payload    map[string]any
}

// ClientMessage is a request from a connected player.
type ClientMessage struct {
	Type     string
	TableID  string
	PlayerID string
	Action   holdem.Action
}

// EncodeEvent wraps a session event.
func EncodeEvent(tableID string, seq uint64, ev holdem.Event) ([]byte, error) {
	return encodeServer(tableID, seq, ev.EventName(), EventPayload(ev))
}

func EncodeState(tableID string, seq uint64, st holdem.PublicState) ([]byte, error) {
	return encodeServer(tableID, seq, TypeState, StatePayload(st))
}

func EncodeError(tableID string, seq uint64, code int, msg string) ([]byte, error) {
	return encodeServer(tableID, seq, TypeError, map[string]any{"code": code, "message": msg})
}

func encodeServer(tableID string, seq uint64, typ string, payload map[string]any) ([]byte, error) {
	env, err := structpb.NewStruct(map[string]any{
		"table_id":     tableID,
		"server_seq":   seq,
		"server_ts_ms": time.Now().UnixMilli(),
		"type":         typ,
		"payload":      payload,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", typ, err)
	}
	return proto.Marshal(env)
}

// DecodeServer accepts the proto wire format.
func DecodeServer(data []byte) (ServerMessage, error) {
	var env structpb.Struct
	if err := proto.Unmarshal(data, &env); err != nil {
		return ServerMessage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	m := env.AsMap()
	out := ServerMessage{
		TableID:    asString(m["table_id"]),
		Seq:        uint64(asInt(m["server_seq"])),
		ServerTsMs: asInt(m["server_ts_ms"]),
		Type:       asString(m["type"]),
	}
	if p, ok := m["payload"].(map[string]any); ok {
		out.Payload = p
	}
	if out.Type == "" {
		return ServerMessage{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return out, nil
}

func EncodeClient(m ClientMessage) ([]byte, error) {
	fields := map[string]any{
		"type":      m.Type,
		"table_id":  m.TableID,
		"player_id": m.PlayerID,
	}
	if m.Type == ClientAction {
		fields["action"] = m.Action.Kind.String()
		fields["amount"] = m.Action.Amount
	}
	env, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(env)
}

// DecodeClient parses a binary client envelope.
func DecodeClient(data []byte) (ClientMessage, error) {
	var env structpb.Struct
	if err := proto.Unmarshal(data, &env); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return clientFromStruct(&env)
}

// DecodeClientJSON parses a protojson client envelope, e.g.
// {"type":"action","player_id":"p1","action":"raise","amount":40}.
func DecodeClientJSON(data []byte) (ClientMessage, error) {
	var env structpb.Struct
	if err := protojson.Unmarshal(data, &env); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return clientFromStruct(&env)
}

func clientFromStruct(env *structpb.Struct) (ClientMessage, error) {
	m := env.AsMap()
	out := ClientMessage{
		Type:     strings.ToLower(asString(m["type"])),
		TableID:  asString(m["table_id"]),
		PlayerID: asString(m["player_id"]),
	}
	switch out.Type {
	case ClientJoin, ClientState:
	case ClientAction:
		kind, err := holdem.ParseActionKind(asString(m["action"]))
		if err != nil {
			return ClientMessage{}, err
		}
		out.Action = holdem.Action{Kind: kind}
		if kind == holdem.ActionRaise {
			out.Action.Amount = asInt(m["amount"])
		}
	default:
		return ClientMessage{}, fmt.Errorf("%w: unknown type %q", ErrMalformed, out.Type)
	}
	if out.PlayerID == "" {
		return ClientMessage{}, fmt.Errorf("%w: missing player_id", ErrMalformed)
	}
	return out, nil
}

// ToJSON re-renders a binary server envelope as protojson for text clients.
func ToJSON(data []byte) ([]byte, error) {
	var env structpb.Struct
	if err := proto.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return protojson.Marshal(&env)
}

// EventPayload flattens an event into structpb-compatible values.
func EventPayload(ev holdem.Event) map[string]any {
	switch e := ev.(type) {
	case holdem.HandStarted:
		return map[string]any{"dealer_id": e.DealerID, "players": strs(e.Players)}
	case holdem.HoleCardsDealt:
		return map[string]any{"player_id": e.PlayerID, "cards": cards(e.Cards)}
	case holdem.BlindPosted:
		return map[string]any{"player_id": e.PlayerID, "amount": e.Amount, "pot": e.Pot}
	case holdem.ActionApplied:
		return map[string]any{
			"player_id":   e.PlayerID,
			"action":      e.Action.Kind.String(),
			"amount":      e.Action.Amount,
			"chips":       e.Chips,
			"pot":         e.Pot,
			"current_bet": e.CurrentBet,
		}
	case holdem.StreetAdvanced:
		return map[string]any{"street": e.Street.String(), "dealt": cards(e.Dealt), "board": cards(e.Board)}
	case holdem.TurnChanged:
		return map[string]any{"player_id": e.PlayerID, "call_amount": e.CallAmount}
	case holdem.HandEnded:
		return ResultPayload(e.Result)
	default:
		return map[string]any{}
	}
}

func StatePayload(st holdem.PublicState) map[string]any {
	players := make([]any, len(st.Players))
	for i, p := range st.Players {
		pv := map[string]any{
			"id":          p.ID,
			"seat":        p.Seat,
			"chips":       p.Chips,
			"bet":         p.Bet,
			"folded":      p.Folded,
			"all_in":      p.AllIn,
			"last_action": p.LastAction.String(),
			"contributed": p.Contributed,
			"visibility":  string(p.HoleVisibility),
		}
		if p.HoleVisibility != holdem.VisibilityHidden {
			pv["hole_cards"] = cards(p.HoleCards)
		}
		players[i] = pv
	}
	return map[string]any{
		"viewer_id":        st.ViewerID,
		"street":           st.Street.String(),
		"community_cards":  cards(st.CommunityCards),
		"pot":              st.Pot,
		"current_bet":      st.CurrentBet,
		"active_player_id": st.ActivePlayerID,
		"dealer_id":        st.DealerID,
		"players":          players,
	}
}

func ResultPayload(res holdem.ShowdownResult) map[string]any {
	payouts := make(map[string]any, len(res.Payouts))
	for id, v := range res.Payouts {
		payouts[id] = v
	}
	hands := make(map[string]any, len(res.RevealedHands))
	ids := make([]string, 0, len(res.RevealedHands))
	for id := range res.RevealedHands {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		h := res.RevealedHands[id]
		hands[id] = map[string]any{
			"category": h.Category.String(),
			"cards":    cards(h.Cards[:]),
		}
	}
	return map[string]any{
		"winners":    strs(res.Winners),
		"won_amount": res.WonAmount,
		"pot":        res.Pot,
		"payouts":    payouts,
		"hands":      hands,
		"board":      cards(res.Board),
		"by_fold":    res.ByFold,
	}
}

func strs(v []string) []any {
	out := make([]any, len(v))
	for i, s := range v {
		out[i] = s
	}
	return out
}

func cards(cs []card.Card) []any {
	out := make([]any, len(cs))
	for i, c := range cs {
		out[i] = c.Code()
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// structpb numbers decode as float64.
func asInt(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}
