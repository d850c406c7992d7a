package main

import (
	"fmt"
	"log/slog"

	"holdem-engine/holdem"
	"holdem-engine/holdem/npc"
)

type simOptions struct {
	Hands      int
	Players    int
	Chips      int64
	SmallBlind int64
	BigBlind   int64
	Seed       int64

	Log *slog.Logger // nil 时不输出
}

type handSummary struct {
	Number int
	Dealer string
	Board  string
	Result holdem.ShowdownResult
}

type botSeat struct {
	id      string
	persona string
	chips   int64
}

// simulate plays up to opts.Hands hands between rule bots. Busted bots leave
// the table; the run stops early once one bot holds every chip.
func simulate(opts simOptions, onHand func(handSummary)) ([]botSeat, error) {
	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	reg := npc.DefaultRegistry()
	personas := reg.All()
	mgr := npc.NewManager(reg, opts.Seed)

	bots := make([]botSeat, opts.Players)
	for i := range bots {
		p := personas[i%len(personas)]
		bots[i] = botSeat{id: fmt.Sprintf("%s_%d", p.ID, i+1), persona: p.Name, chips: opts.Chips}
		if _, err := mgr.Spawn(bots[i].id, p.ID); err != nil {
			return nil, err
		}
	}

	button := len(bots) - 1
	for hand := 1; hand <= opts.Hands; hand++ {
		var live []int
		for i, b := range bots {
			if b.chips >= opts.BigBlind && b.chips > 0 {
				live = append(live, i)
			}
		}
		if len(live) < holdem.MinSeats {
			log.Info("table closed early", "hand", hand, "remaining", len(live))
			break
		}

		dealer := 0
		for k, idx := range live {
			if idx >= button {
				dealer = k
				break
			}
		}
		seats := make([]holdem.Seat, len(live))
		for k, idx := range live {
			seats[k] = holdem.Seat{ID: bots[idx].id, Chips: bots[idx].chips}
		}
		cfg := holdem.DefaultConfig()
		cfg.SmallBlind, cfg.BigBlind = opts.SmallBlind, opts.BigBlind
		cfg.Dealer = dealer
		if opts.Seed != 0 {
			cfg.Seed = opts.Seed + int64(hand)
		}
		s, err := holdem.NewSession(cfg, seats)
		if err != nil {
			return nil, fmt.Errorf("hand %d: %w", hand, err)
		}
		for !s.Ended() {
			acted, err := mgr.Step(s)
			if err != nil {
				return nil, fmt.Errorf("hand %d: %w", hand, err)
			}
			if !acted {
				return nil, fmt.Errorf("hand %d: %s is not a bot", hand, s.ActivePlayerID())
			}
		}
		s.DrainEvents()

		snap := s.Snapshot()
		for _, p := range snap.Players {
			for i := range bots {
				if bots[i].id == p.ID {
					if p.Chips < opts.BigBlind && bots[i].chips >= opts.BigBlind {
						log.Info("bot busted", "bot", p.ID, "hand", hand, "chips", p.Chips)
					}
					bots[i].chips = p.Chips
				}
			}
		}
		res, err := s.ShowdownResult()
		if err != nil {
			return nil, err
		}
		log.Debug("hand settled", "hand", hand, "dealer", snap.DealerID, "pot", res.Pot, "winners", res.Winners)
		if onHand != nil {
			onHand(handSummary{Number: hand, Dealer: snap.DealerID, Board: snap.CommunityCards.String(), Result: res})
		}
		button = (live[dealer] + 1) % len(bots)
	}
	return bots, nil
}
