package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/lestrix/serverless-todo/internal/apperr"
	"github.com/lestrix/serverless-todo/internal/config"
	"github.com/lestrix/serverless-todo/internal/models"
	"github.com/lestrix/serverless-todo/pkg/logger"
)

const todosSchema = `
CREATE TABLE IF NOT EXISTS todos (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	completed  BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
)`

// Postgres persists todos in a todos table via database/sql and lib/pq.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a pool against cfg.DatabaseURL and ensures the schema
// exists.
func NewPostgres(ctx context.Context, cfg *config.Config) (*Postgres, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBPoolSize)
	db.SetMaxIdleConns(cfg.DBPoolSize / 2)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, todosSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info(ctx, "Postgres repository initialized", "max_open", cfg.DBPoolSize)
	return &Postgres{db: db}, nil
}

func (p *Postgres) GetAll(ctx context.Context) ([]models.Todo, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, title, completed, created_at FROM todos ORDER BY created_at`)
	if err != nil {
		return nil, apperr.Storage("select todos", err)
	}
	defer rows.Close()
	todos := make([]models.Todo, 0)
	for rows.Next() {
		var t models.Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Completed, &t.CreatedAt); err != nil {
			return nil, apperr.Storage("scan todo", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("select todos", err)
	}
	return todos, nil
}

func (p *Postgres) GetByID(ctx context.Context, id string) (models.Todo, error) {
	var t models.Todo
	err := p.db.QueryRowContext(ctx,
		`SELECT id, title, completed, created_at FROM todos WHERE id = $1`, id).
		Scan(&t.ID, &t.Title, &t.Completed, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Todo{}, apperr.NotFound(entity, id)
	}
	if err != nil {
		return models.Todo{}, apperr.Storage("select todo", err)
	}
	return t, nil
}

func (p *Postgres) Create(ctx context.Context, in models.CreateInput) (models.Todo, error) {
	if err := in.Validate(); err != nil {
		return models.Todo{}, err
	}
	t := models.NewTodo(in)
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO todos (id, title, completed, created_at) VALUES ($1, $2, $3, $4)`,
		t.ID, t.Title, t.Completed, t.CreatedAt)
	if err != nil {
		return models.Todo{}, apperr.Storage("insert todo", err)
	}
	return t, nil
}

func (p *Postgres) Update(ctx context.Context, id string, in models.UpdateInput) (models.Todo, error) {
	if err := in.Validate(); err != nil {
		return models.Todo{}, err
	}
	var t models.Todo
	err := p.db.QueryRowContext(ctx,
		`UPDATE todos SET title = COALESCE($2, title), completed = COALESCE($3, completed)
		 WHERE id = $1
		 RETURNING id, title, completed, created_at`,
		id, in.Title, in.Completed).
		Scan(&t.ID, &t.Title, &t.Completed, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Todo{}, apperr.NotFound(entity, id)
	}
	if err != nil {
		return models.Todo{}, apperr.Storage("update todo", err)
	}
	return t, nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return apperr.Storage("delete todo", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound(entity, id)
	}
	return nil
}
