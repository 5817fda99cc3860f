package routes

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lestrix/serverless-todo/internal/controller"
	"github.com/lestrix/serverless-todo/internal/middleware"
	"github.com/lestrix/serverless-todo/internal/repository"
	"github.com/lestrix/serverless-todo/pkg/logger"
)

// Router builds the gin engine: CORS on every response, JSON-only panic
// recovery, the /todos routes and a route-listing 404 fallback.
func Router(repo repository.TodoRepository) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.CORS())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error(c.Request.Context(), "Handler panicked", "panic", recovered,
			"method", c.Request.Method, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"details": fmt.Sprint(recovered),
		})
	}))

	todos := controller.NewTodos(repo)

	router.GET("/health", controller.Health)
	router.GET("/todos", todos.List)
	router.POST("/todos", todos.Create)
	router.GET("/todos/:id", todos.Get)
	router.PATCH("/todos/:id", todos.Update)
	router.DELETE("/todos/:id", todos.Delete)

	router.NoRoute(notFound(router))
	return router
}

// notFound answers unmatched requests with the registered route table, so a
// wrong path or method is easy to correct from the response alone.
func notFound(router *gin.Engine) gin.HandlerFunc {
	registered := router.Routes()
	routes := make([]string, 0, len(registered))
	for _, r := range registered {
		routes = append(routes, r.Method+" "+r.Path)
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found", "routes": routes})
	}
}
