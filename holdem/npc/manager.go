package npc

import (
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"holdem-engine/card"
	"holdem-engine/holdem"
)

// NPCInstance represents an active NPC seated at a table.
type NPCInstance struct {
	PlayerID   string
	Persona    *NPCPersona
	Brain      BrainDecider
	ThinkDelay time.Duration
}

// Manager manages NPC lifecycle and decision-making at tables.
type Manager struct {
	registry  *PersonaRegistry
	instances map[string]*NPCInstance // keyed by PlayerID
	mu        sync.RWMutex
	rng       *rand.Rand
}

// NewManager creates an NPC manager with the given persona registry.
// seed 0 draws from crypto/rand.
func NewManager(registry *PersonaRegistry, seed int64) *Manager {
	return &Manager{
		registry:  registry,
		instances: make(map[string]*NPCInstance),
		rng:       card.NewRand(seed),
	}
}

// Spawn registers playerID as an NPC driven by the persona personaID.
func (m *Manager) Spawn(playerID, personaID string) (*NPCInstance, error) {
	persona := m.registry.Get(personaID)
	if persona == nil {
		return nil, fmt.Errorf("spawn NPC %s: unknown persona %q", playerID, personaID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.instances[playerID]; ok {
		return nil, fmt.Errorf("spawn NPC %s: already seated", playerID)
	}
	seed := m.rng.Int64()
	if seed == 0 {
		seed = 1
	}
	// Think delay: 1–3 seconds base, plus random jitter.
	baseMs := 1000 + int(persona.Brain.Randomness*2000)
	jitterMs := m.rng.IntN(1000)

	inst := &NPCInstance{
		PlayerID:   playerID,
		Persona:    persona,
		Brain:      NewRuleBrain(persona, seed),
		ThinkDelay: time.Duration(baseMs+jitterMs) * time.Millisecond,
	}
	m.instances[playerID] = inst
	log.Printf("[NPC] Spawned %s as %s", persona.Name, playerID)
	return inst, nil
}

// Despawn removes an NPC from tracking.
func (m *Manager) Despawn(playerID string) {
	m.mu.Lock()
	inst := m.instances[playerID]
	delete(m.instances, playerID)
	m.mu.Unlock()

	if inst != nil {
		log.Printf("[NPC] Despawned %s (%s)", inst.Persona.Name, playerID)
	}
}

// GetInstance returns the NPC instance for a given playerID, or nil.
func (m *Manager) GetInstance(playerID string) *NPCInstance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.instances[playerID]
}

// IsNPC checks if a playerID belongs to an NPC.
func (m *Manager) IsNPC(playerID string) bool {
	return m.GetInstance(playerID) != nil
}

// GetThinkDelay returns the simulated thinking delay for an NPC.
func (m *Manager) GetThinkDelay(playerID string) time.Duration {
	inst := m.GetInstance(playerID)
	if inst == nil {
		return time.Second
	}
	return inst.ThinkDelay
}

// Decide asks the NPC seated as playerID for its action in s.
func (m *Manager) Decide(s *holdem.Session, playerID string) (holdem.Action, error) {
	inst := m.GetInstance(playerID)
	if inst == nil {
		return holdem.Action{}, fmt.Errorf("player %s is not an NPC", playerID)
	}
	view, err := ViewFor(s, playerID)
	if err != nil {
		return holdem.Action{}, err
	}
	return inst.Brain.Decide(view), nil
}

// Step plays the active player's turn if that player is an NPC. It reports
// whether an action was applied.
func (m *Manager) Step(s *holdem.Session) (bool, error) {
	id := s.ActivePlayerID()
	if id == "" || !m.IsNPC(id) {
		return false, nil
	}
	a, err := m.Decide(s, id)
	if err != nil {
		return false, err
	}
	if err := s.Act(id, a); err != nil {
		return false, fmt.Errorf("NPC %s: %w", id, err)
	}
	return true, nil
}
