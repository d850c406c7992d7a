package npc

import (
	"math/rand/v2"

	"holdem-engine/card"
	"holdem-engine/holdem"
)

// RuleBrain makes decisions based on a PersonalityProfile with tunable parameters.
type RuleBrain struct {
	Persona *NPCPersona
	rng     *rand.Rand
}

// NewRuleBrain creates a RuleBrain from a persona definition.
func NewRuleBrain(persona *NPCPersona, seed int64) *RuleBrain {
	return &RuleBrain{
		Persona: persona,
		rng:     card.NewRand(seed),
	}
}

func (b *RuleBrain) Name() string { return b.Persona.Name }

// Decide implements BrainDecider. It never returns an action outside
// view.Legal.
func (b *RuleBrain) Decide(view GameView) holdem.Action {
	p := b.Persona.Brain

	// Add randomness noise to parameters for this decision
	aggression := clamp01(p.Aggression + (b.rng.Float64()-0.5)*p.Randomness*0.4)
	tightness := clamp01(p.Tightness + (b.rng.Float64()-0.5)*p.Randomness*0.3)

	legal := view.Legal
	canCheck := legal.Allows(holdem.ActionCheck)
	canCall := legal.Allows(holdem.ActionCall)
	canRaise := legal.Allows(holdem.ActionRaise)

	strength := b.estimateHandStrength(view)

	// Preflop: tight players give up on marginal hands
	if view.Street == holdem.StreetPreflop && strength < tightness*0.6 {
		if canCheck {
			return holdem.Check()
		}
		return holdem.Fold()
	}

	if canRaise {
		strong := strength > 1.0-aggression*0.5
		if strong && b.rng.Float64() < aggression {
			return holdem.RaiseTo(b.calcRaiseTo(view, aggression))
		}
		if !strong && b.rng.Float64() < p.Bluffing*0.3 {
			return holdem.RaiseTo(b.calcRaiseTo(view, 0.4))
		}
	}

	if canCheck {
		return holdem.Check()
	}
	if canCall {
		call := float64(legal.CallAmount)
		potOdds := call / (float64(view.Pot) + call)
		if strength >= potOdds+tightness*0.2 || b.rng.Float64() < (1.0-tightness)*0.3 {
			return holdem.Call()
		}
	}
	return holdem.Fold()
}

// estimateHandStrength returns a 0.0–1.0 heuristic. Preflop it scores the
// hole cards; later streets use the made hand category.
func (b *RuleBrain) estimateHandStrength(view GameView) float64 {
	if len(view.HoleCards) < 2 {
		return 0.3
	}
	if len(view.Community) >= 3 {
		all := append(view.HoleCards.Clone(), view.Community...)
		if h, err := holdem.Evaluate(all); err == nil {
			strength := 0.15 + float64(h.Category-holdem.HighCard)/8*0.85
			strength += float64(h.Cards[0].Rank()) / 14 * 0.1
			return clamp01(strength)
		}
	}

	c0 := view.HoleCards[0]
	c1 := view.HoleCards[1]
	rank0 := int(c0.Rank())
	rank1 := int(c1.Rank())

	// Normalize ranks: Ace=14 is strongest
	strength := (float64(rank0) + float64(rank1)) / 28.0

	// Pair bonus
	if rank0 == rank1 {
		strength += 0.25
	}
	// Suited bonus
	if c0.Suit() == c1.Suit() {
		strength += 0.05
	}
	// Connected bonus
	gap := rank0 - rank1
	if gap < 0 {
		gap = -gap
	}
	if gap <= 2 {
		strength += 0.05
	}
	return clamp01(strength)
}

// calcRaiseTo sizes a raise between a third of the pot and the full pot on
// top of the current bet, clamped to the legal range.
func (b *RuleBrain) calcRaiseTo(view GameView, aggression float64) int64 {
	fraction := 0.33 + aggression*0.67
	target := view.CurrentBet + int64(float64(view.Pot)*fraction)
	if target < view.Legal.MinRaiseTo {
		target = view.Legal.MinRaiseTo
	}
	if target > view.Legal.MaxRaiseTo {
		target = view.Legal.MaxRaiseTo
	}
	return target
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
