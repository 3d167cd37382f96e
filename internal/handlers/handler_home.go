package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// healthCheck godoc
// @Summary Show the status of server.
// @Description get the status of server.
// @Tags root
// @Accept */*
// @Produce plain
// @Success 200 {string} string "OK"
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// actorID identifies who performed a request for audit stamping. There is no
// user management; callers identify themselves with the X-Actor-ID header and
// anonymous requests are recorded as "system".
func actorID(c *gin.Context) string {
	if actor := c.GetHeader("X-Actor-ID"); actor != "" {
		return actor
	}
	return "system"
}
