package npc

// PersonalityProfile defines the tunable parameters for a RuleBrain.
type PersonalityProfile struct {
	Aggression float64 `json:"aggression"` // 0.0–1.0: tendency to bet/raise vs check/call
	Tightness  float64 `json:"tightness"`  // 0.0–1.0: hand range width (1.0 = only premiums)
	Bluffing   float64 `json:"bluffing"`   // 0.0–1.0: bluff frequency
	Randomness float64 `json:"randomness"` // 0.0–1.0: decision noise
}

// NPCPersona defines a named NPC character.
type NPCPersona struct {
	ID    string             `json:"id"`
	Name  string             `json:"name"`
	Brain PersonalityProfile `json:"brain"`
}

// 内置角色
var builtinPersonas = []*NPCPersona{
	{ID: "rock", Name: "Rock", Brain: PersonalityProfile{Aggression: 0.2, Tightness: 0.8, Bluffing: 0.05, Randomness: 0.1}},
	{ID: "station", Name: "Station", Brain: PersonalityProfile{Aggression: 0.1, Tightness: 0.1, Bluffing: 0.05, Randomness: 0.2}},
	{ID: "tag", Name: "TAG", Brain: PersonalityProfile{Aggression: 0.6, Tightness: 0.6, Bluffing: 0.2, Randomness: 0.2}},
	{ID: "maniac", Name: "Maniac", Brain: PersonalityProfile{Aggression: 0.9, Tightness: 0.1, Bluffing: 0.6, Randomness: 0.4}},
}
