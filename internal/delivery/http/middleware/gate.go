package middleware

import (
	"net/http"

	"food-expose-backend/internal/delivery/http/response"
	"food-expose-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

// RequireGate rejects requests addressed to a screen stack that is not
// currently mounted. The 409 body carries the gate snapshot so the client can
// navigate to the right stack.
func RequireGate(gate domain.GateController, state domain.GateState) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := gate.Snapshot()
		if snap.State != state {
			response.Error(c, http.StatusConflict, "Screen is not available in the current state", gin.H{
				"gate":     snap.State,
				"required": state,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
