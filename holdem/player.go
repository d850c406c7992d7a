package holdem

import "holdem-engine/card"

// Seat is the input for one player joining a hand.
type Seat struct {
	ID    string
	Chips int64
}

// Player 一手牌中的玩家状态，只由 Session 修改
type Player struct {
	id   string
	seat int

	chips       int64
	bet         int64 // 本街已下注
	contributed int64 // 本手牌累计投入

	folded bool
	allIn  bool
	acted  bool // 自上次加注后是否已行动

	lastAction ActionKind
	holeCards  card.CardList
}

func newPlayer(seat int, s Seat) *Player {
	return &Player{id: s.ID, seat: seat, chips: s.Chips}
}

// canAct 未弃牌且未全下
func (p *Player) canAct() bool {
	return !p.folded && !p.allIn
}

// placeBet moves amount from the stack into the street bet. The caller has
// checked the stack covers it.
func (p *Player) placeBet(amount int64) {
	p.chips -= amount
	p.bet += amount
	p.contributed += amount
	if p.chips == 0 {
		p.allIn = true
	}
}

func (p *Player) resetStreet() {
	p.bet = 0
	p.acted = false
}
