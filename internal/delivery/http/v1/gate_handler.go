package v1

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"food-expose-backend/internal/delivery/http/response"
	"food-expose-backend/internal/domain"
	"food-expose-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

const maxGateWait = 60 * time.Second

type GateHandler struct {
	gate domain.GateController
}

func NewGateHandler(r *gin.RouterGroup, gate domain.GateController) {
	handler := &GateHandler{gate: gate}
	r.GET("/gate", handler.Get)
}

// Get godoc
// @Summary      Current screen stack
// @Description  Returns which stack is mounted. With wait=true the call blocks until the gate leaves loading.
// @Tags         gate
// @Produce      json
// @Param        wait     query     bool  false  "Block until settled"
// @Param        timeout  query     int   false  "Wait bound in seconds (default 30, max 60)"
// @Success      200      {object}  response.Response{data=domain.GateSnapshot}
// @Failure      504      {object}  response.Response
// @Router       /gate [get]
func (h *GateHandler) Get(c *gin.Context) {
	if c.Query("wait") != "true" {
		response.Success(c, http.StatusOK, "Gate state", h.gate.Snapshot())
		return
	}

	timeout := 30 * time.Second
	if raw := c.Query("timeout"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			c.Error(apperror.BadRequest("timeout must be a positive number of seconds"))
			return
		}
		timeout = time.Duration(secs) * time.Second
	}
	if timeout > maxGateWait {
		timeout = maxGateWait
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	snap, err := h.gate.AwaitSettled(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			response.Error(c, http.StatusGatewayTimeout, "Gate did not settle in time", snap)
			return
		}
		c.Error(apperror.New(http.StatusServiceUnavailable, "Gate unavailable", err))
		return
	}

	response.Success(c, http.StatusOK, "Gate state", snap)
}
