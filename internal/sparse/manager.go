package sparse

import "fmt"

// Manager holds the ordered collection of models produced by one mapping
// run. Indexes are stable: models are only ever appended, never reordered or
// removed individually. The manager is not safe for concurrent use; mapping
// engines and their observers run on a single goroutine at a time.
type Manager struct {
	models []*Reconstruction
}

// NewManager returns an empty collection.
func NewManager() *Manager {
	return &Manager{}
}

// Size returns the number of models in the collection.
func (m *Manager) Size() int {
	return len(m.models)
}

// Get returns the model at the given index.
func (m *Manager) Get(idx int) (*Reconstruction, error) {
	if idx < 0 || idx >= len(m.models) {
		return nil, fmt.Errorf("model index %d out of range [0, %d)", idx, len(m.models))
	}
	return m.models[idx], nil
}

// Add appends an empty model and returns it.
func (m *Manager) Add() *Reconstruction {
	rec := NewReconstruction()
	m.models = append(m.models, rec)
	return rec
}

// Append adds an existing model and returns its index.
func (m *Manager) Append(rec *Reconstruction) int {
	m.models = append(m.models, rec)
	return len(m.models) - 1
}

// Clear removes all models.
func (m *Manager) Clear() {
	m.models = nil
}

// ReadSeed loads the model stored in dir and appends it, returning its
// index. It is used to resume mapping from an existing reconstruction.
func (m *Manager) ReadSeed(dir string) (int, error) {
	rec, err := Read(dir)
	if err != nil {
		return 0, err
	}
	return m.Append(rec), nil
}
