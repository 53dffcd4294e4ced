package a2a

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/BerylCAtieno/market-sim-agent/internal/agent"
	"github.com/BerylCAtieno/market-sim-agent/internal/models"
	"github.com/BerylCAtieno/market-sim-agent/internal/simulation"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reactor runs a scenario across personas.
type Reactor interface {
	ReactToScenario(ctx context.Context, agents []models.Agent, biz models.Business, scenarioType, scenarioDescription string) (*models.ReactionResult, error)
}

// SimulationRequest is carried in a data part of the incoming message.
type SimulationRequest struct {
	Agents              []models.Agent  `json:"agents" binding:"required,min=1,dive"`
	Business            models.Business `json:"business"`
	ScenarioType        string          `json:"scenarioType" binding:"required"`
	ScenarioDescription string          `json:"scenarioDescription" binding:"required"`
}

// maxListedReactions bounds the per-persona lines in the summary artifact.
const maxListedReactions = 10

type A2AHandler struct {
	sim    Reactor
	logger *zap.Logger
}

func NewA2AHandler(sim Reactor, logger *zap.Logger) *A2AHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &A2AHandler{
		sim:    sim,
		logger: logger,
	}
}

// HandleSimulator processes A2A messages
func (h *A2AHandler) HandleSimulator(c *gin.Context) {
	var rpcReq JSONRPCRequest
	if err := c.ShouldBindJSON(&rpcReq); err != nil {
		h.logger.Warn("Failed to decode JSON-RPC request", zap.Error(err))
		h.sendErrorResponse(c, "", "Invalid request format", CodeParseError)
		return
	}

	h.logger.Debug("JSON-RPC request",
		zap.String("id", rpcReq.ID),
		zap.String("method", rpcReq.Method))

	if rpcReq.JSONRPC != "2.0" {
		h.sendErrorResponse(c, rpcReq.ID, "Invalid JSON-RPC version", CodeInvalidRequest)
		return
	}

	switch rpcReq.Method {
	case "agent/task", "message/send":
		h.handleTask(c, rpcReq)
	default:
		h.sendErrorResponse(c, rpcReq.ID, fmt.Sprintf("Method not found: %s", rpcReq.Method), CodeMethodNotFound)
	}
}

func (h *A2AHandler) handleTask(c *gin.Context, rpcReq JSONRPCRequest) {
	var msgParams MessageParams
	if err := json.Unmarshal(rpcReq.Params, &msgParams); err != nil {
		h.logger.Warn("Invalid message params", zap.Error(err))
		h.sendErrorResponse(c, rpcReq.ID, "Invalid parameters", CodeInvalidParams)
		return
	}

	req, err := extractSimulationRequest(msgParams.Message)
	if err != nil {
		h.logger.Info("Incomplete simulation request", zap.Error(err))
		result := h.createErrorTaskResult(rpcReq.ID, StateInputRequired,
			fmt.Sprintf("Please send a data part with agents, business and scenarioType, and describe the scenario. (%v)", err))
		h.sendSuccessResponse(c, rpcReq.ID, result)
		return
	}

	reaction, err := h.sim.ReactToScenario(c.Request.Context(), req.Agents, req.Business, req.ScenarioType, req.ScenarioDescription)
	if err != nil {
		h.logger.Warn("Simulation failed", zap.String("task_id", rpcReq.ID), zap.Error(err))
		msg := "Failed to simulate reactions"
		var rl *simulation.RateLimitedError
		if errors.As(err, &rl) {
			msg = rl.Error()
		}
		h.sendSuccessResponse(c, rpcReq.ID, h.createErrorTaskResult(rpcReq.ID, StateFailed, msg))
		return
	}

	result, err := h.createSuccessTaskResult(rpcReq.ID, req, reaction)
	if err != nil {
		h.logger.Error("Failed to build task result", zap.Error(err))
		h.sendErrorResponse(c, rpcReq.ID, "Internal error", CodeInternalError)
		return
	}
	h.sendSuccessResponse(c, rpcReq.ID, result)
}

// ServeAgentCard serves the agent card using Gin
func (h *A2AHandler) ServeAgentCard(c *gin.Context) {
	c.Data(http.StatusOK, "application/json", agent.Card())
}

// extractSimulationRequest reads the request from the last data part. Text
// parts fill in the scenario description when the data part has none.
func extractSimulationRequest(msg A2AMessage) (SimulationRequest, error) {
	var (
		req     SimulationRequest
		texts   []string
		hasData bool
	)
	for _, part := range msg.Parts {
		switch part.Kind {
		case "text":
			if t := cleanText(part.Text); t != "" {
				texts = append(texts, t)
			}
		case "data":
			if len(part.Data) == 0 {
				continue
			}
			var candidate SimulationRequest
			if err := json.Unmarshal(part.Data, &candidate); err != nil {
				continue
			}
			req, hasData = candidate, true
		}
	}
	if !hasData {
		return SimulationRequest{}, errors.New("no simulation data part")
	}
	if req.ScenarioDescription == "" {
		req.ScenarioDescription = strings.Join(texts, " ")
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		return SimulationRequest{}, err
	}
	return req, nil
}

func cleanText(text string) string {
	t := strings.TrimSpace(text)
	t = strings.ReplaceAll(t, "<p>", "")
	t = strings.ReplaceAll(t, "</p>", "")
	return strings.TrimSpace(t)
}

func (h *A2AHandler) createSuccessTaskResult(taskID string, req SimulationRequest, result *models.ReactionResult) (TaskResult, error) {
	responseText := formatReactionSummary(req, result)
	data, err := DataPart(result)
	if err != nil {
		return TaskResult{}, err
	}

	return TaskResult{
		ID:   taskID,
		Kind: "task",
		Status: TaskStatus{
			State:     StateCompleted,
			Timestamp: Timestamp(),
			Message: &A2AMessage{
				Kind:      "message",
				Role:      RoleAgent,
				MessageID: uuid.New().String(),
				TaskID:    taskID,
				Parts: []MessagePart{
					TextPart(responseText),
				},
			},
		},
		Artifacts: []Artifact{
			{
				ArtifactID: uuid.New().String(),
				Name:       "Scenario Reaction Summary",
				Parts: []MessagePart{
					TextPart(responseText),
				},
			},
			{
				ArtifactID: uuid.New().String(),
				Name:       "Scenario Reactions",
				Parts:      []MessagePart{data},
			},
		},
	}, nil
}

func (h *A2AHandler) createErrorTaskResult(taskID, state, errorMsg string) TaskResult {
	return TaskResult{
		ID:   taskID,
		Kind: "task",
		Status: TaskStatus{
			State:     state,
			Timestamp: Timestamp(),
			Message: &A2AMessage{
				Kind:      "message",
				Role:      RoleAgent,
				MessageID: uuid.New().String(),
				Parts: []MessagePart{
					TextPart(errorMsg),
				},
			},
		},
	}
}

func formatReactionSummary(req SimulationRequest, result *models.ReactionResult) string {
	s := result.Summary

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("# Scenario: %s\n\n", req.ScenarioType))
	if req.Business.Name != "" {
		builder.WriteString(fmt.Sprintf("**Business:** %s\n\n", req.Business.Name))
	}
	builder.WriteString(fmt.Sprintf("> %s\n\n", req.ScenarioDescription))

	builder.WriteString("**Summary:**\n")
	builder.WriteString(fmt.Sprintf("- Customers: %d\n", s.TotalAgents))
	builder.WriteString(fmt.Sprintf("- Average sentiment: %.2f\n", s.AverageSentiment))
	builder.WriteString(fmt.Sprintf("- Sentiment shift: %+.2f\n", s.SentimentDelta))
	builder.WriteString(fmt.Sprintf("- Positive / Neutral / Negative: %d / %d / %d\n", s.PositiveCount, s.NeutralCount, s.NegativeCount))

	if len(result.Reactions) > 0 {
		builder.WriteString("\n**Reactions:**\n")
		for i, r := range result.Reactions {
			if i == maxListedReactions {
				builder.WriteString(fmt.Sprintf("- ...and %d more\n", len(result.Reactions)-i))
				break
			}
			builder.WriteString(fmt.Sprintf("- %s (%s, %+.2f): %s\n", r.AgentName, r.EmotionalTone, r.SentimentDelta, strings.TrimSpace(r.Feedback)))
		}
	}

	return builder.String()
}

func (h *A2AHandler) sendSuccessResponse(c *gin.Context, id string, result interface{}) {
	c.JSON(http.StatusOK, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

func (h *A2AHandler) sendErrorResponse(c *gin.Context, id string, message string, code int) {
	h.logger.Info("JSON-RPC error", zap.Int("code", code), zap.String("message", message))

	// JSON-RPC errors are sent with 200 OK
	c.JSON(http.StatusOK, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
		},
	})
}
