package store

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/rkhanna/amulwatch/pkg/types"
)

// Memory implements Store in process memory. Used by dry runs, where
// state must not be persisted, and by engine tests.
type Memory struct {
	state *domain.State

	// Saves counts Save calls, letting tests assert persistence
	// happened (or, for aborted runs, did not).
	Saves int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// NewMemoryFrom creates an in-memory store seeded with a deep copy of st.
func NewMemoryFrom(st *domain.State) *Memory {
	return &Memory{state: cloneState(st)}
}

// Load implements Store.Load.
func (m *Memory) Load(_ context.Context) (*domain.State, error) {
	if m.state == nil {
		return domain.NewState(), nil
	}
	return cloneState(m.state), nil
}

// Save implements Store.Save.
func (m *Memory) Save(_ context.Context, st *domain.State) error {
	m.state = cloneState(st)
	m.Saves++
	return nil
}

func cloneState(st *domain.State) *domain.State {
	data, err := json.Marshal(st)
	if err != nil {
		panic(fmt.Sprintf("state not serializable: %v", err))
	}
	out := domain.NewState()
	if err := json.Unmarshal(data, out); err != nil {
		panic(fmt.Sprintf("state not round-trippable: %v", err))
	}
	return out
}
