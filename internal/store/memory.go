package store

import (
	"context"
	"sync"
)

// Memory is an in-memory RecordStore. Used by tests and by `serve --dev`
// when no remote store is configured.
type Memory struct {
	mu       sync.RWMutex
	trips    map[string]map[string]Document // principal -> id -> doc
	expenses map[string]map[string]Document
}

// NewMemory creates an empty in-memory record store.
func NewMemory() *Memory {
	return &Memory{
		trips:    make(map[string]map[string]Document),
		expenses: make(map[string]map[string]Document),
	}
}

// FetchTrips returns all trip documents owned by the principal.
func (m *Memory) FetchTrips(_ context.Context, principal string) ([]Document, error) {
	return m.fetch(m.trips, principal), nil
}

// FetchExpenses returns all expense documents owned by the principal.
func (m *Memory) FetchExpenses(_ context.Context, principal string) ([]Document, error) {
	return m.fetch(m.expenses, principal), nil
}

// PutTrip creates or replaces one trip document.
func (m *Memory) PutTrip(_ context.Context, principal, id string, doc Document) error {
	m.put(m.trips, principal, id, doc)
	return nil
}

// PutExpense creates or replaces one expense document.
func (m *Memory) PutExpense(_ context.Context, principal, id string, doc Document) error {
	m.put(m.expenses, principal, id, doc)
	return nil
}

// DeleteTrip removes one trip document.
func (m *Memory) DeleteTrip(_ context.Context, principal, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trips[principal], id)
	return nil
}

// DeleteExpense removes one expense document.
func (m *Memory) DeleteExpense(_ context.Context, principal, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.expenses[principal], id)
	return nil
}

func (m *Memory) fetch(coll map[string]map[string]Document, principal string) []Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := make([]Document, 0, len(coll[principal]))
	for _, doc := range coll[principal] {
		docs = append(docs, doc)
	}
	return docs
}

func (m *Memory) put(coll map[string]map[string]Document, principal, id string, doc Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if coll[principal] == nil {
		coll[principal] = make(map[string]Document)
	}
	if doc == nil {
		doc = Document{}
	}
	if doc.ID() == "" {
		doc["id"] = id
	}
	coll[principal][id] = doc
}
