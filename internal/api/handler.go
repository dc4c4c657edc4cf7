package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zhejian/link-shortener/internal/model"
	"github.com/zhejian/link-shortener/internal/service"
)

// Handler holds HTTP handlers and dependencies.
// It receives interfaces rather than concrete implementations so the
// session service and the cache can be mocked in unit tests.
type Handler struct {
	sessions service.SessionServiceInterface
	cache    CacheInterface // nil when the clipboard lives in memory
	logger   *slog.Logger
}

// CacheInterface defines the cache operations needed by the handler.
type CacheInterface interface {
	Ping(ctx context.Context) error
}

// NewHandler creates a new handler instance with the provided dependencies.
// cache may be nil, the health check then reports it as disabled.
func NewHandler(sessions service.SessionServiceInterface, cache CacheInterface, logger *slog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		cache:    cache,
		logger:   logger,
	}
}

// SetupRouter returns a bare engine with recovery and all routes registered
func (h *Handler) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers all route definitions on the given Gin engine.
// The caller adds middleware before calling this method so it runs first.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.healthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/sessions", h.createSession)
		v1.GET("/sessions/:id", h.getSession)
		v1.DELETE("/sessions/:id", h.deleteSession)
		v1.PUT("/sessions/:id/input", h.setInput)
		v1.POST("/sessions/:id/submit", h.submit)
		v1.POST("/sessions/:id/copy", h.copyResult)
		v1.POST("/sessions/:id/history/:index/copy", h.copyHistoryEntry)
		v1.GET("/sessions/:id/clipboard", h.clipboard)
	}
}

// healthCheck handles GET /health
// Response codes:
//   - 200 OK: service and cache (when used) are healthy
//   - 503 Service Unavailable: the cache is down
func (h *Handler) healthCheck(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	deps := gin.H{"cache": "disabled"}

	if h.cache != nil {
		deps["cache"] = "up"
		if err := h.cache.Ping(c.Request.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
			deps["cache"] = "down"
		}
	}

	c.JSON(code, gin.H{"status": status, "dependencies": deps})
}

// createSession handles POST /api/v1/sessions
func (h *Handler) createSession(c *gin.Context) {
	state, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		h.handleError(c, err, "creating session")
		return
	}
	c.JSON(http.StatusCreated, state)
}

// getSession handles GET /api/v1/sessions/:id
func (h *Handler) getSession(c *gin.Context) {
	state, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err, "fetching session")
		return
	}
	c.JSON(http.StatusOK, state)
}

// deleteSession handles DELETE /api/v1/sessions/:id
func (h *Handler) deleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err, "deleting session")
		return
	}
	c.Status(http.StatusNoContent)
}

// setInput handles PUT /api/v1/sessions/:id/input
func (h *Handler) setInput(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.SetInputRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid request body",
			slog.String("error", err.Error()),
			slog.String("path", c.Request.URL.Path))
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := h.sessions.SetInput(ctx, c.Param("id"), req.Input)
	if err != nil {
		h.handleError(c, err, "setting input")
		return
	}
	c.JSON(http.StatusOK, state)
}

// submit handles POST /api/v1/sessions/:id/submit
// The body is optional; when it carries an input it replaces the current one.
// Response codes:
//   - 202 Accepted: a generation cycle was started
//   - 200 OK: the submission was refused, state is unchanged
func (h *Handler) submit(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.SubmitRequest

	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.WarnContext(ctx, "invalid request body",
				slog.String("error", err.Error()),
				slog.String("path", c.Request.URL.Path))
			h.errorResponse(c, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	resp, err := h.sessions.Submit(ctx, c.Param("id"), req.Input)
	if err != nil {
		h.handleError(c, err, "submitting input")
		return
	}

	code := http.StatusOK
	if resp.Accepted {
		code = http.StatusAccepted
	}
	c.JSON(code, resp)
}

// copyResult handles POST /api/v1/sessions/:id/copy
func (h *Handler) copyResult(c *gin.Context) {
	state, err := h.sessions.Copy(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err, "copying result")
		return
	}
	c.JSON(http.StatusOK, state)
}

// copyHistoryEntry handles POST /api/v1/sessions/:id/history/:index/copy
func (h *Handler) copyHistoryEntry(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "History index must be an integer")
		return
	}

	state, err := h.sessions.CopyHistoryEntry(c.Request.Context(), c.Param("id"), index)
	if err != nil {
		h.handleError(c, err, "copying history entry")
		return
	}
	c.JSON(http.StatusOK, state)
}

// clipboard handles GET /api/v1/sessions/:id/clipboard
func (h *Handler) clipboard(c *gin.Context) {
	resp, err := h.sessions.Clipboard(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err, "reading clipboard")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleError maps service errors to HTTP status codes
func (h *Handler) handleError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		h.errorResponse(c, http.StatusNotFound, "Session not found")
	case errors.Is(err, service.ErrSessionClosed):
		h.errorResponse(c, http.StatusGone, "Session closed")
	case errors.Is(err, service.ErrEntryNotFound):
		h.errorResponse(c, http.StatusNotFound, "History entry not found")
	case errors.Is(err, service.ErrNoResult):
		h.errorResponse(c, http.StatusConflict, "Nothing to copy yet")
	case errors.Is(err, service.ErrClipboardFailure):
		h.errorResponse(c, http.StatusServiceUnavailable, "Could not copy to clipboard")
	default:
		h.logger.ErrorContext(c.Request.Context(), "unexpected error "+action,
			slog.String("error", err.Error()),
			slog.String("session_id", c.Param("id")))
		h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}

// errorResponse sends a standardized JSON error response.
func (h *Handler) errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, model.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}
