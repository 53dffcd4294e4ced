// Package api exposes the simulator over JSON routes for the dashboard.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/BerylCAtieno/market-sim-agent/internal/history"
	"github.com/BerylCAtieno/market-sim-agent/internal/models"
	"github.com/BerylCAtieno/market-sim-agent/internal/simulation"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Simulator is the orchestration surface the routes call into.
type Simulator interface {
	ReactToScenario(ctx context.Context, agents []models.Agent, biz models.Business, scenarioType, scenarioDescription string) (*models.ReactionResult, error)
	GenerateInsights(ctx context.Context, agents []models.Agent, biz models.Business) (*models.Insight, error)
	Chat(ctx context.Context, agent models.Agent, biz models.Business, message string, history []models.ChatMessage) (string, error)
}

// RunLog records completed reaction runs.
type RunLog interface {
	Record(ctx context.Context, businessID, scenarioType, description string, result models.ReactionResult) (history.Run, error)
	List(ctx context.Context, limit int) ([]history.Run, error)
}

type ReactRequest struct {
	Agents              []models.Agent  `json:"agents" binding:"required,min=1,dive"`
	Business            models.Business `json:"business"`
	ScenarioType        string          `json:"scenarioType" binding:"required"`
	ScenarioDescription string          `json:"scenarioDescription" binding:"required"`
}

type ReactResponse struct {
	models.ReactionResult
	RunID string `json:"runId,omitempty"`
}

type InsightRequest struct {
	Agents   []models.Agent  `json:"agents" binding:"required,min=1,dive"`
	Business models.Business `json:"business"`
}

type ChatRequest struct {
	Agent    models.Agent         `json:"agent"`
	Business models.Business      `json:"business"`
	Message  string               `json:"message" binding:"required"`
	History  []models.ChatMessage `json:"history" binding:"dive"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

type Handler struct {
	sim    Simulator
	runs   RunLog
	logger *zap.Logger
}

// NewHandler builds the route handlers. runs may be nil, which disables the
// run log and its listing route.
func NewHandler(sim Simulator, runs RunLog, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{sim: sim, runs: runs, logger: logger}
}

// Register mounts the dashboard routes.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)

	agents := r.Group("/api/agents")
	agents.POST("/react", h.React)
	agents.POST("/insights", h.Insights)
	agents.POST("/chat", h.Chat)

	r.GET("/api/simulations", h.ListSimulations)
}

func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// React runs one scenario across the given personas.
func (h *Handler) React(c *gin.Context) {
	var req ReactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.sim.ReactToScenario(c.Request.Context(), req.Agents, req.Business, req.ScenarioType, req.ScenarioDescription)
	if err != nil {
		h.fail(c, err, "Failed to simulate reactions")
		return
	}

	resp := ReactResponse{ReactionResult: *result}
	if h.runs != nil {
		run, err := h.runs.Record(c.Request.Context(), req.Business.ID, req.ScenarioType, req.ScenarioDescription, *result)
		if err != nil {
			h.logger.Warn("Failed to record simulation run", zap.Error(err))
		} else {
			resp.RunID = run.RunID
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Insights(c *gin.Context) {
	var req InsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	insight, err := h.sim.GenerateInsights(c.Request.Context(), req.Agents, req.Business)
	if err != nil {
		h.fail(c, err, "Failed to generate insights")
		return
	}
	c.JSON(http.StatusOK, insight)
}

func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	reply, err := h.sim.Chat(c.Request.Context(), req.Agent, req.Business, req.Message, req.History)
	if err != nil {
		h.fail(c, err, "Failed to get agent response")
		return
	}
	c.JSON(http.StatusOK, ChatResponse{Response: reply})
}

// ListSimulations returns recent runs, newest first.
func (h *Handler) ListSimulations(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Simulation history is not enabled"})
		return
	}

	limit := history.DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	runs, err := h.runs.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list simulation runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list simulations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"simulations": runs})
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// fail maps orchestration errors to a status. Upstream detail stays in the log.
func (h *Handler) fail(c *gin.Context, err error, message string) {
	_ = c.Error(err)

	var rl *simulation.RateLimitedError
	switch {
	case errors.As(err, &rl):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":      rl.Error(),
			"retryAfter": rl.RetryAfterSeconds,
		})
	case errors.Is(err, simulation.ErrNoPersonas),
		errors.Is(err, simulation.ErrTooManyPersonas),
		errors.Is(err, simulation.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error(message, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
