package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lestrix/serverless-todo/internal/apperr"
	"github.com/lestrix/serverless-todo/internal/config"
	"github.com/lestrix/serverless-todo/internal/models"
	"github.com/lestrix/serverless-todo/pkg/logger"
)

// todoIDsKey is the set of every stored id, backing GetAll.
const todoIDsKey = "todo:ids"

func todoKey(id string) string {
	return fmt.Sprintf("todo:%s", id)
}

// Redis stores each todo as a JSON value under todo:<id>. Keys never expire;
// Redis is a primary store here, not a cache.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to cfg.RedisURL and verifies the connection.
func NewRedis(ctx context.Context, cfg *config.Config) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	opts.PoolSize = cfg.RedisPoolSize
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info(ctx, "Redis repository initialized", "pool_size", cfg.RedisPoolSize)
	return &Redis{client: client}, nil
}

func (r *Redis) GetAll(ctx context.Context) ([]models.Todo, error) {
	ids, err := r.client.SMembers(ctx, todoIDsKey).Result()
	if err != nil {
		return nil, apperr.Storage("redis smembers", err)
	}
	todos := make([]models.Todo, 0, len(ids))
	if len(ids) == 0 {
		return todos, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = todoKey(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, apperr.Storage("redis mget", err)
	}
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			// Id set member whose value key is gone. Skip it.
			continue
		}
		var t models.Todo
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			return nil, apperr.Storage("decode todo", err)
		}
		todos = append(todos, t)
	}
	return todos, nil
}

func (r *Redis) GetByID(ctx context.Context, id string) (models.Todo, error) {
	b, err := r.client.Get(ctx, todoKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Todo{}, apperr.NotFound(entity, id)
	}
	if err != nil {
		return models.Todo{}, apperr.Storage("redis get", err)
	}
	var t models.Todo
	if err := json.Unmarshal(b, &t); err != nil {
		return models.Todo{}, apperr.Storage("decode todo", err)
	}
	return t, nil
}

func (r *Redis) Create(ctx context.Context, in models.CreateInput) (models.Todo, error) {
	if err := in.Validate(); err != nil {
		return models.Todo{}, err
	}
	t := models.NewTodo(in)
	b, err := json.Marshal(t)
	if err != nil {
		return models.Todo{}, apperr.Storage("encode todo", err)
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, todoKey(t.ID), b, 0)
	pipe.SAdd(ctx, todoIDsKey, t.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return models.Todo{}, apperr.Storage("redis set", err)
	}
	return t, nil
}

func (r *Redis) Update(ctx context.Context, id string, in models.UpdateInput) (models.Todo, error) {
	if err := in.Validate(); err != nil {
		return models.Todo{}, err
	}
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return models.Todo{}, err
	}
	t = models.ApplyUpdate(t, in)
	b, err := json.Marshal(t)
	if err != nil {
		return models.Todo{}, apperr.Storage("encode todo", err)
	}
	// SET XX writes only while the key still exists, so a todo deleted
	// between the read and the write stays deleted.
	ok, err := r.client.SetXX(ctx, todoKey(id), b, 0).Result()
	if err != nil {
		return models.Todo{}, apperr.Storage("redis set", err)
	}
	if !ok {
		return models.Todo{}, apperr.NotFound(entity, id)
	}
	return t, nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, todoKey(id))
	pipe.SRem(ctx, todoIDsKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperr.Storage("redis del", err)
	}
	if del.Val() == 0 {
		return apperr.NotFound(entity, id)
	}
	return nil
}
