package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS header values served on every response, preflight or not.
const (
	allowOrigin  = "*"
	allowMethods = "GET,POST,PATCH,DELETE,OPTIONS"
	allowHeaders = "Content-Type"
)

// CORS sets the access-control headers on every response and answers
// preflight requests with 204 before routing happens.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", allowOrigin)
		h.Set("Access-Control-Allow-Methods", allowMethods)
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
