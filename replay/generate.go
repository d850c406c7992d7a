package replay

import (
	"fmt"

	"holdem-engine/card"
	"holdem-engine/holdem"
)

const tapeVersion = 1

// GenerateReplayTape plays spec through a fresh session and records every
// event. Any action the engine would not accept at that point aborts with a
// *ReplayError naming the step.
func GenerateReplayTape(spec HandSpec) (*ReplayTape, error) {
	ns, err := normalizeSpec(spec)
	if err != nil {
		return nil, err
	}

	s, err := holdem.NewSession(ns.cfg, ns.seats)
	if err != nil {
		return nil, &ReplayError{StepIndex: -1, Reason: "engine_init_failed", Message: err.Error()}
	}

	b := &tapeBuilder{}
	b.addEvents(s.DrainEvents())

	for stepIdx, action := range ns.actions {
		if s.Ended() {
			return nil, &ReplayError{
				StepIndex: stepIdx,
				Reason:    "no_action_expected",
				Message:   "hand is already complete; no further actions are allowed",
			}
		}
		street := s.Street()
		active := s.ActivePlayerID()
		if street != action.street {
			return nil, &ReplayError{
				StepIndex: stepIdx,
				Reason:    "street_mismatch",
				Message:   fmt.Sprintf("expected street %s, got %s", street, action.street),
				Expected:  &ExpectedState{Player: active, Street: street.String()},
			}
		}
		if active != action.player {
			return nil, &ReplayError{
				StepIndex: stepIdx,
				Reason:    "out_of_turn",
				Message:   fmt.Sprintf("expected %s to act, got %s", active, action.player),
				Expected:  expectedStateFor(s, active),
			}
		}
		if err := s.Act(action.player, action.action); err != nil {
			return nil, &ReplayError{
				StepIndex: stepIdx,
				Reason:    "illegal_action",
				Message:   err.Error(),
				Expected:  expectedStateFor(s, active),
			}
		}
		b.addEvents(s.DrainEvents())
	}

	tape := &ReplayTape{TapeVersion: tapeVersion, Events: b.events}
	if res, err := s.ShowdownResult(); err == nil {
		tape.Result = toHandResult(res, s.Snapshot())
	}
	return tape, nil
}

// FromLog turns a recorded session log into a spec that replays it exactly.
func FromLog(l holdem.HandLog) HandSpec {
	spec := HandSpec{
		Table:   TableSpec{SB: l.Config.SmallBlind, BB: l.Config.BigBlind},
		Dealer:  l.Config.Dealer,
		Deck:    codes(l.Deck),
		Actions: make([]ActionSpec, 0, len(l.Actions)),
	}
	for _, st := range l.Seats {
		spec.Seats = append(spec.Seats, SeatSpec{ID: st.ID, Stack: st.Chips})
	}
	for _, a := range l.Actions {
		spec.Actions = append(spec.Actions, ActionSpec{
			Street:   a.Street.String(),
			Player:   a.PlayerID,
			Type:     a.Action.Kind.String(),
			AmountTo: a.Action.Amount,
		})
	}
	return spec
}

// Replay re-runs a session log.
func Replay(l holdem.HandLog) (*ReplayTape, error) {
	return GenerateReplayTape(FromLog(l))
}

func expectedStateFor(s *holdem.Session, playerID string) *ExpectedState {
	out := &ExpectedState{Player: playerID, Street: s.Street().String()}
	legal, err := s.LegalActions(playerID)
	if err != nil {
		return out
	}
	for _, k := range legal.Kinds {
		out.LegalActions = append(out.LegalActions, k.String())
	}
	out.CallAmount = legal.CallAmount
	out.MinRaiseTo = legal.MinRaiseTo
	return out
}

type tapeBuilder struct {
	seq    uint64
	events []ReplayEvent
}

func (b *tapeBuilder) addEvents(evs []holdem.Event) {
	for _, e := range evs {
		b.seq++
		re := ReplayEvent{Type: e.EventName(), Seq: b.seq, Audience: e.Audience()}
		switch ev := e.(type) {
		case holdem.HandStarted:
			re.Player = ev.DealerID
		case holdem.HoleCardsDealt:
			re.Player = ev.PlayerID
			re.Cards = codes(ev.Cards)
		case holdem.BlindPosted:
			re.Player, re.Amount, re.Pot = ev.PlayerID, ev.Amount, ev.Pot
		case holdem.ActionApplied:
			re.Player, re.Action, re.Amount, re.Pot = ev.PlayerID, ev.Action.Kind.String(), ev.Action.Amount, ev.Pot
		case holdem.StreetAdvanced:
			re.Street = ev.Street.String()
			re.Cards = codes(ev.Dealt)
		case holdem.TurnChanged:
			re.Player, re.Amount = ev.PlayerID, ev.CallAmount
		case holdem.HandEnded:
			re.Pot = ev.Result.Pot
			re.Cards = codes(ev.Result.Board)
		}
		b.events = append(b.events, re)
	}
}

func toHandResult(res holdem.ShowdownResult, snap holdem.PublicState) *HandResult {
	out := &HandResult{
		Winners:     res.Winners,
		Payouts:     res.Payouts,
		Board:       codes(res.Board),
		ByFold:      res.ByFold,
		FinalStacks: make(map[string]int64, len(snap.Players)),
	}
	if len(res.RevealedHands) > 0 {
		out.Hands = make(map[string]string, len(res.RevealedHands))
		for id, h := range res.RevealedHands {
			out.Hands[id] = h.Category.String()
		}
	}
	for _, p := range snap.Players {
		out.FinalStacks[p.ID] = p.Chips
	}
	return out
}

func codes(cards []card.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Code()
	}
	return out
}
