package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports process liveness and a database round trip. The database
// check runs SELECT 1 through the pool; an unreachable database turns the
// whole check into a 500.
func (h *Handlers) Health(c *gin.Context) {
	latency, err := h.Ping(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, Envelope{
			Success:         false,
			ResponseCode:    Code(http.StatusInternalServerError, ModuleSystem, SpecificError),
			ResponseMessage: "Service unhealthy",
			Data: gin.H{
				"ok":  false,
				"env": h.Env,
				"db":  gin.H{"ok": false, "error": err.Error()},
			},
		})
		return
	}
	c.JSON(http.StatusOK, Envelope{
		Success:         true,
		ResponseCode:    Code(http.StatusOK, ModuleSystem, SpecificSuccess),
		ResponseMessage: "Service healthy",
		Data: gin.H{
			"ok":  true,
			"env": h.Env,
			"db":  gin.H{"ok": true, "latency_ms": latency.Milliseconds()},
		},
	})
}
