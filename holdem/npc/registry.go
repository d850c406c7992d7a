package npc

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// PersonaRegistry holds all NPC persona definitions.
type PersonaRegistry struct {
	mu       sync.RWMutex
	personas map[string]*NPCPersona
}

// NewRegistry creates an empty registry.
func NewRegistry() *PersonaRegistry {
	return &PersonaRegistry{
		personas: make(map[string]*NPCPersona),
	}
}

// DefaultRegistry is preloaded with the built-in personas.
func DefaultRegistry() *PersonaRegistry {
	r := NewRegistry()
	for _, p := range builtinPersonas {
		cp := *p
		r.personas[p.ID] = &cp
	}
	return r
}

// LoadFromFile loads NPC personas from a JSON file.
func (r *PersonaRegistry) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read personas file: %w", err)
	}
	return r.LoadFromJSON(data)
}

// LoadFromJSON loads NPC personas from raw JSON bytes. Entries without an id
// are skipped; later entries replace earlier ones with the same id.
func (r *PersonaRegistry) LoadFromJSON(data []byte) error {
	var list []*NPCPersona
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("parse personas JSON: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range list {
		if p == nil || p.ID == "" {
			continue
		}
		r.personas[p.ID] = p
	}
	return nil
}

// Get returns a persona by ID.
func (r *PersonaRegistry) Get(id string) *NPCPersona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.personas[id]
}

// All returns every persona sorted by id.
func (r *PersonaRegistry) All() []*NPCPersona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*NPCPersona, 0, len(r.personas))
	for _, p := range r.personas {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the total number of registered personas.
func (r *PersonaRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.personas)
}
