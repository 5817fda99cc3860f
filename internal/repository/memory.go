package repository

import (
	"context"
	"sync"

	"github.com/lestrix/serverless-todo/internal/apperr"
	"github.com/lestrix/serverless-todo/internal/models"
)

// Memory is the default backend: a mutex-guarded map. Each operation is a
// single critical section, so read-modify-write updates cannot interleave.
type Memory struct {
	mu    sync.RWMutex
	todos map[string]models.Todo
}

// NewMemory returns an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{todos: make(map[string]models.Todo)}
}

func (m *Memory) GetAll(ctx context.Context) ([]models.Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Todo, 0, len(m.todos))
	for _, t := range m.todos {
		out = append(out, t)
	}
	return out, nil
}

func (m *Memory) GetByID(ctx context.Context, id string) (models.Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.todos[id]
	if !ok {
		return models.Todo{}, apperr.NotFound(entity, id)
	}
	return t, nil
}

func (m *Memory) Create(ctx context.Context, in models.CreateInput) (models.Todo, error) {
	if err := in.Validate(); err != nil {
		return models.Todo{}, err
	}
	t := models.NewTodo(in)
	m.mu.Lock()
	m.todos[t.ID] = t
	m.mu.Unlock()
	return t, nil
}

func (m *Memory) Update(ctx context.Context, id string, in models.UpdateInput) (models.Todo, error) {
	if err := in.Validate(); err != nil {
		return models.Todo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.todos[id]
	if !ok {
		return models.Todo{}, apperr.NotFound(entity, id)
	}
	t = models.ApplyUpdate(t, in)
	m.todos[id] = t
	return t, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.todos[id]; !ok {
		return apperr.NotFound(entity, id)
	}
	delete(m.todos, id)
	return nil
}
