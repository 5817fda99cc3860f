package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lestrix/serverless-todo/internal/apperr"
	"github.com/lestrix/serverless-todo/internal/models"
	"github.com/lestrix/serverless-todo/internal/repository"
	"github.com/lestrix/serverless-todo/pkg/logger"
)

// Todos serves the /todos routes against a repository backend.
type Todos struct {
	repo repository.TodoRepository
}

// NewTodos returns handlers bound to repo.
func NewTodos(repo repository.TodoRepository) *Todos {
	return &Todos{repo: repo}
}

// Health reports liveness. It never touches the repository, so a broken
// backend cannot fail the probe.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// List returns every stored todo.
func (t *Todos) List(c *gin.Context) {
	todos, err := t.repo.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, todos)
}

// Get returns the todo under :id.
func (t *Todos) Get(c *gin.Context) {
	todo, err := t.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

// Create stores a new todo from the request body and returns it with 201.
func (t *Todos) Create(c *gin.Context) {
	ctx := c.Request.Context()
	raw, err := c.GetRawData()
	if err != nil {
		respondError(c, apperr.InvalidInput("Invalid request body"))
		return
	}
	in, err := models.DecodeCreateInput(raw)
	if err != nil {
		respondError(c, err)
		return
	}
	todo, err := t.repo.Create(ctx, in)
	if err != nil {
		respondError(c, err)
		return
	}
	logger.Info(ctx, "Todo created", "id", todo.ID)
	c.JSON(http.StatusCreated, todo)
}

// Update merges the request body onto the todo under :id.
func (t *Todos) Update(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	raw, err := c.GetRawData()
	if err != nil {
		respondError(c, apperr.InvalidInput("Invalid request body"))
		return
	}
	in, err := models.DecodeUpdateInput(raw)
	if err != nil {
		respondError(c, err)
		return
	}
	todo, err := t.repo.Update(ctx, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	logger.Info(ctx, "Todo updated", "id", id)
	c.JSON(http.StatusOK, todo)
}

// Delete removes the todo under :id and responds 204 with no body.
func (t *Todos) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if err := t.repo.Delete(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	logger.Info(ctx, "Todo deleted", "id", id)
	c.Status(http.StatusNoContent)
}

// respondError is the single point translating the error taxonomy into HTTP
// responses. Anything unrecognized becomes an opaque 500 so internals never
// reach clients as raw traces.
func respondError(c *gin.Context, err error) {
	var nf *apperr.NotFoundError
	if errors.As(err, &nf) {
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
		return
	}
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		body := gin.H{"error": ve.Message}
		if len(ve.Issues) > 0 {
			body["details"] = ve.Issues
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}
	logger.Error(c.Request.Context(), "Request failed", "error", err,
		"method", c.Request.Method, "path", c.Request.URL.Path)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "details": err.Error()})
}
