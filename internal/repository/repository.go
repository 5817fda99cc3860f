// Package repository stores todos behind a single interface with
// interchangeable backends: an in-memory map, Redis, Postgres and DynamoDB.
package repository

import (
	"context"
	"fmt"

	"github.com/lestrix/serverless-todo/internal/config"
	"github.com/lestrix/serverless-todo/internal/models"
)

const entity = "Todo"

// TodoRepository is the storage contract shared by every backend.
//
// GetByID, Update and Delete return *apperr.NotFoundError when no todo is
// stored under the given id. Backend failures surface as *apperr.StorageError.
type TodoRepository interface {
	// GetAll returns every stored todo. The slice is never nil.
	GetAll(ctx context.Context) ([]models.Todo, error)
	// GetByID returns the todo stored under id.
	GetByID(ctx context.Context, id string) (models.Todo, error)
	// Create validates in, assigns the id and creation time, stores the
	// todo and returns it.
	Create(ctx context.Context, in models.CreateInput) (models.Todo, error)
	// Update merges the non-nil fields of in onto the stored todo and
	// returns the merged result.
	Update(ctx context.Context, id string, in models.UpdateInput) (models.Todo, error)
	// Delete removes the todo stored under id.
	Delete(ctx context.Context, id string) error
}

// New constructs the backend selected by cfg.Backend.
func New(ctx context.Context, cfg *config.Config) (TodoRepository, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemory(), nil
	case config.BackendRedis:
		return NewRedis(ctx, cfg)
	case config.BackendPostgres:
		return NewPostgres(ctx, cfg)
	case config.BackendDynamo:
		return NewDynamo(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported TODO_BACKEND %q", cfg.Backend)
	}
}
