package holdem

import (
	"fmt"
	"strings"
)

const (
	// MinSeats 一手牌最少玩家数
	MinSeats = 2
	// MaxSeats 一手牌最多玩家数
	MaxSeats = 9

	// NoPlayer is returned by NextActivePlayer when nobody can act.
	NoPlayer = -1
)

// Street 游戏阶段
type Street byte

const (
	StreetWaiting  Street = 0
	StreetPreflop  Street = 1
	StreetFlop     Street = 2
	StreetTurn     Street = 3
	StreetRiver    Street = 4
	StreetShowdown Street = 5
	StreetHandOver Street = 6
)

var StreetDictionary = map[Street]string{
	StreetWaiting:  "WAITING",
	StreetPreflop:  "PREFLOP",
	StreetFlop:     "FLOP",
	StreetTurn:     "TURN",
	StreetRiver:    "RIVER",
	StreetShowdown: "SHOWDOWN",
	StreetHandOver: "HAND_OVER",
}

func (s Street) String() string {
	if name, ok := StreetDictionary[s]; ok {
		return name
	}
	return fmt.Sprintf("Street(%d)", byte(s))
}

// Ended reports whether no further actions are accepted on this street.
func (s Street) Ended() bool {
	return s == StreetShowdown || s == StreetHandOver
}

// dealCount 进入该阶段时需要发的公共牌数量
func (s Street) dealCount() int {
	switch s {
	case StreetFlop:
		return 3
	case StreetTurn, StreetRiver:
		return 1
	default:
		return 0
	}
}

// ActionKind 动作类型：1-FOLD 2-CHECK 3-CALL 4-RAISE
type ActionKind byte

const (
	ActionNone  ActionKind = 0
	ActionFold  ActionKind = 1
	ActionCheck ActionKind = 2
	ActionCall  ActionKind = 3
	ActionRaise ActionKind = 4
)

var ActionKindDictionary = map[ActionKind]string{
	ActionNone:  "NONE",
	ActionFold:  "FOLD",
	ActionCheck: "CHECK",
	ActionCall:  "CALL",
	ActionRaise: "RAISE",
}

func (k ActionKind) String() string {
	if name, ok := ActionKindDictionary[k]; ok {
		return name
	}
	return fmt.Sprintf("ActionKind(%d)", byte(k))
}

// ParseActionKind accepts the wire names ("fold", "CHECK", ...). Case is ignored.
func ParseActionKind(s string) (ActionKind, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for kind, n := range ActionKindDictionary {
		if kind != ActionNone && n == name {
			return kind, nil
		}
	}
	return ActionNone, fmt.Errorf("unknown action %q", s)
}

// Action is one player decision. Amount is only meaningful for ActionRaise,
// where it is the absolute bet the player raises to on this street.
type Action struct {
	Kind   ActionKind
	Amount int64
}

func Fold() Action  { return Action{Kind: ActionFold} }
func Check() Action { return Action{Kind: ActionCheck} }
func Call() Action  { return Action{Kind: ActionCall} }

// RaiseTo raises the street bet to amount.
func RaiseTo(amount int64) Action { return Action{Kind: ActionRaise, Amount: amount} }

func (a Action) String() string {
	if a.Kind == ActionRaise {
		return fmt.Sprintf("RAISE %d", a.Amount)
	}
	return a.Kind.String()
}

// HandCategory 牌型
type HandCategory byte

const (
	HighCard      HandCategory = iota + 1 // 高牌
	OnePair                               // 一对
	TwoPair                               // 两对
	ThreeOfAKind                          // 三条
	Straight                              // 顺子
	Flush                                 // 同花
	FullHouse                             // 葫芦
	FourOfAKind                           // 四条
	StraightFlush                         // 同花顺（皇家同花顺是其中最大的一种）
)

var HandCategoryDictionary = map[HandCategory]string{
	HighCard:      "HIGH_CARD",
	OnePair:       "PAIR",
	TwoPair:       "TWO_PAIR",
	ThreeOfAKind:  "THREE_OF_A_KIND",
	Straight:      "STRAIGHT",
	Flush:         "FLUSH",
	FullHouse:     "FULL_HOUSE",
	FourOfAKind:   "FOUR_OF_A_KIND",
	StraightFlush: "STRAIGHT_FLUSH",
}

func (c HandCategory) String() string {
	if name, ok := HandCategoryDictionary[c]; ok {
		return name
	}
	return fmt.Sprintf("HandCategory(%d)", byte(c))
}
