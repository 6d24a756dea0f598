package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// requireJSON rejects bodies that are not declared as application/json.
func requireJSON(c *gin.Context) {
	ct := c.GetHeader("Content-Type")
	if ct == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing Content-Type header"})
		return
	}
	if !strings.Contains(strings.ToLower(ct), gin.MIMEJSON) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Content-Type must be application/json"})
		return
	}
	c.Next()
}

// requestLog records every API call so it shows up in the log buffer.
func (h *Handler) requestLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	if h.log == nil || c.FullPath() == "/metrics" {
		return
	}
	h.log.Infow("http_request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
