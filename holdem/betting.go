package holdem

import "fmt"

// bettingRound 下注状态：底池、本街最高注、当前行动玩家
type bettingRound struct {
	players    []*Player
	pot        int64
	currentBet int64
	active     int
	street     Street
}

// validate checks a against the round without mutating anything and returns
// the chips the action moves from the player's stack.
func (r *bettingRound) validate(p *Player, a Action) (int64, error) {
	switch a.Kind {
	case ActionFold:
		return 0, nil
	case ActionCheck:
		if r.currentBet != p.bet {
			return 0, &ActionError{PlayerID: p.id, Action: a, Err: ErrIllegalCheck,
				Detail: fmt.Sprintf("to call %d", r.currentBet-p.bet)}
		}
		return 0, nil
	case ActionCall:
		if r.currentBet <= p.bet {
			return 0, &ActionError{PlayerID: p.id, Action: a, Err: ErrIllegalCall}
		}
		required := r.currentBet - p.bet
		if p.chips < required {
			return 0, &ActionError{PlayerID: p.id, Action: a, Err: ErrInsufficientChips,
				Detail: fmt.Sprintf("need %d, have %d", required, p.chips)}
		}
		return required, nil
	case ActionRaise:
		if a.Amount <= r.currentBet {
			return 0, &ActionError{PlayerID: p.id, Action: a, Err: ErrIllegalRaise,
				Detail: fmt.Sprintf("must exceed %d", r.currentBet)}
		}
		if r.raiseClosed() {
			return 0, &ActionError{PlayerID: p.id, Action: a, Err: ErrIllegalRaise,
				Detail: "a player is all-in"}
		}
		required := a.Amount - p.bet
		if p.chips < required {
			return 0, &ActionError{PlayerID: p.id, Action: a, Err: ErrInsufficientChips,
				Detail: fmt.Sprintf("need %d, have %d", required, p.chips)}
		}
		return required, nil
	default:
		return 0, &ActionError{PlayerID: p.id, Action: a, Err: fmt.Errorf("unknown action kind %d", a.Kind)}
	}
}

// apply validates and then executes a for the player at idx.
func (r *bettingRound) apply(idx int, a Action) error {
	p := r.players[idx]
	required, err := r.validate(p, a)
	if err != nil {
		return err
	}
	switch a.Kind {
	case ActionFold:
		p.folded = true
	case ActionCall:
		p.placeBet(required)
		r.pot += required
	case ActionRaise:
		p.placeBet(required)
		r.pot += required
		r.currentBet = a.Amount
		for _, other := range r.players {
			if other != p {
				other.acted = false
			}
		}
	}
	p.acted = true
	p.lastAction = a.Kind
	return nil
}

// post takes a forced bet (blind) without marking the player as acted.
func (r *bettingRound) post(idx int, amount int64) int64 {
	p := r.players[idx]
	if amount > p.chips {
		amount = p.chips
	}
	p.placeBet(amount)
	r.pot += amount
	if p.bet > r.currentBet {
		r.currentBet = p.bet
	}
	return amount
}

// raiseClosed 有玩家全下后不再允许加注，保证不产生边池
func (r *bettingRound) raiseClosed() bool {
	for _, p := range r.players {
		if !p.folded && p.allIn {
			return true
		}
	}
	return false
}

func (r *bettingRound) liveCount() int {
	n := 0
	for _, p := range r.players {
		if !p.folded {
			n++
		}
	}
	return n
}

// streetClosed reports whether betting on the current street is finished.
func (r *bettingRound) streetClosed() bool {
	var actors []*Player
	for _, p := range r.players {
		if p.canAct() {
			actors = append(actors, p)
		}
	}
	if len(actors) == 0 {
		return true
	}
	if len(actors) == 1 && r.liveCount() > 1 {
		return actors[0].bet >= r.currentBet
	}
	for _, p := range actors {
		if !p.acted || p.bet != r.currentBet {
			return false
		}
	}
	return true
}

func (r *bettingRound) resetStreet() {
	for _, p := range r.players {
		p.resetStreet()
	}
	r.currentBet = 0
}
