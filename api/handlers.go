package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Mahendra2603/Robot-Simulator-Project/domain"
	"github.com/Mahendra2603/Robot-Simulator-Project/relay"
)

type CommandIngress interface {
	MoveRelative(req relay.MoveRelativeRequest) (domain.Command, error)
	MoveAbsolute(req relay.PointRequest) (domain.Command, error)
	SetGoal(req relay.PointRequest) (domain.Command, error)
	Stop() (domain.Command, error)
}

type PeerCounter interface {
	Stats() (peers int)
}

type handlers struct {
	ingress   CommandIngress
	peers     PeerCounter
	startedAt time.Time
}

func (h *handlers) moveRelative(c *gin.Context) {
	var req relay.MoveRelativeRequest
	if !bindLoose(c, &req) {
		return
	}
	cmd, err := h.ingress.MoveRelative(req)
	respond(c, "move relative command sent", cmd, err)
}

func (h *handlers) moveAbsolute(c *gin.Context) {
	var req relay.PointRequest
	if !bindLoose(c, &req) {
		return
	}
	cmd, err := h.ingress.MoveAbsolute(req)
	respond(c, "ok", cmd, err)
}

func (h *handlers) setGoal(c *gin.Context) {
	var req relay.PointRequest
	if !bindLoose(c, &req) {
		return
	}
	cmd, err := h.ingress.SetGoal(req)
	respond(c, "ok", cmd, err)
}

func (h *handlers) stop(c *gin.Context) {
	cmd, err := h.ingress.Stop()
	respond(c, "ok", cmd, err)
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"peers":  h.peers.Stats(),
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// bindLoose accepts an empty body and ignores unknown fields. Anything that
// is not a JSON object of the right field types is rejected.
func bindLoose(c *gin.Context, dst any) bool {
	body, err := c.GetRawData()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable request body"})
		return false
	}
	if len(body) == 0 {
		return true
	}
	if err := json.Unmarshal(body, dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

func respond(c *gin.Context, status string, cmd domain.Command, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": status, "command": cmd})
	case errors.Is(err, relay.ErrNoPeers), errors.Is(err, relay.ErrMissingField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
