package poller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pushrelay/internal/logger"
	"pushrelay/internal/store"
	"pushrelay/pkg/errors"
	"pushrelay/pkg/logging"
)

// Runner is implemented by Service.
type Runner interface {
	Run(ctx context.Context) RunResult
}

type Handler struct {
	service Runner
	store   store.Repository
	logger  logger.Logger
}

func NewHandler(service Runner, repo store.Repository, log logger.Logger) *Handler {
	return &Handler{
		service: service,
		store:   repo,
		logger:  log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		// GET is for schedulers that can only fire plain fetches.
		v1.POST("/poll", h.Poll)
		v1.GET("/poll", h.Poll)

		v1.GET("/cursors/:user", h.GetCursor)
	}
}

// Poll triggers one polling run. The contract with the scheduler is a count,
// never an error status: a run where every user failed still answers 200
// with {"sent": 0}.
func (h *Handler) Poll(c *gin.Context) {
	runID := uuid.NewString()
	ctx := logging.WithRunID(c.Request.Context(), runID)

	result := h.service.Run(ctx)

	c.JSON(http.StatusOK, gin.H{
		"sent": result.Sent,
	})
}

// GetCursor exposes a user's persisted cursor for operational inspection.
func (h *Handler) GetCursor(c *gin.Context) {
	user := c.Param("user")

	cursor, err := h.store.GetCursor(c.Request.Context(), user)
	if err != nil {
		h.handleError(c, errors.ErrInternal.WithCause(err))
		return
	}

	if cursor == "" {
		h.handleError(c, errors.ErrNotFound.WithDetail("user", user))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"cursor": cursor,
	})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)

	status := errors.ToHTTPStatus(err)
	response := errors.ToErrorResponse(err)

	c.JSON(status, response)
}
