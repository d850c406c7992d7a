package replay

// HandSpec describes one hand to re-run: table, seats, optional card
// constraints or a full deck, and the actions in order.
type HandSpec struct {
	Table   TableSpec    `json:"table"`
	Dealer  int          `json:"dealer"`
	Seats   []SeatSpec   `json:"seats"`
	Board   *BoardSpec   `json:"board,omitempty"`
	Deck    []string     `json:"deck,omitempty"`
	Actions []ActionSpec `json:"actions"`
	RNG     *RNGSpec     `json:"rng,omitempty"`
}

type TableSpec struct {
	SB int64 `json:"sb"`
	BB int64 `json:"bb"`
}

type SeatSpec struct {
	ID    string   `json:"id"`
	Stack int64    `json:"stack"`
	Hole  []string `json:"hole,omitempty"`
}

type BoardSpec struct {
	Flop  []string `json:"flop,omitempty"`
	Turn  *string  `json:"turn,omitempty"`
	River *string  `json:"river,omitempty"`
}

type ActionSpec struct {
	Street   string `json:"street"`
	Player   string `json:"player"`
	Type     string `json:"type"`
	AmountTo int64  `json:"amount_to,omitempty"`
}

// RNGSpec shuffles the unconstrained cards; seed 0 keeps them in deck order.
type RNGSpec struct {
	Seed int64 `json:"seed"`
}

type ReplayTape struct {
	TapeVersion int           `json:"tape_version"`
	Events      []ReplayEvent `json:"events"`
	Result      *HandResult   `json:"result,omitempty"`
}

// ReplayEvent is a flattened, JSON friendly form of one holdem.Event.
type ReplayEvent struct {
	Type     string   `json:"type"`
	Seq      uint64   `json:"seq"`
	Player   string   `json:"player,omitempty"`
	Street   string   `json:"street,omitempty"`
	Action   string   `json:"action,omitempty"`
	Amount   int64    `json:"amount,omitempty"`
	Pot      int64    `json:"pot,omitempty"`
	Cards    []string `json:"cards,omitempty"`
	Audience string   `json:"audience,omitempty"`
}

type HandResult struct {
	Winners     []string          `json:"winners"`
	Payouts     map[string]int64  `json:"payouts"`
	Hands       map[string]string `json:"hands,omitempty"`
	Board       []string          `json:"board"`
	ByFold      bool              `json:"by_fold"`
	FinalStacks map[string]int64  `json:"final_stacks"`
}
