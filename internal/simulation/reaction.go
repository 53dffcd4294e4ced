package simulation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BerylCAtieno/market-sim-agent/internal/gateway"
	"github.com/BerylCAtieno/market-sim-agent/internal/models"
	"github.com/BerylCAtieno/market-sim-agent/internal/prompt"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	fallbackFeedback  = "I need more time to think about this change."
	fallbackReasoning = "Unable to form a strong opinion yet."
)

// Contract ranges the model is asked to respect. Values outside are clamped.
const (
	maxSentimentDelta   = 0.5
	maxLikelihoodChange = 30
	maxSpendingChange   = 20
)

// ReactToScenario asks every persona how it feels about the scenario.
//
// The result has exactly one reaction per persona, in input order. Units that
// fail for any reason except exhausted rate limiting get a fallback reaction.
// The first unit to exhaust its rate-limit retries cancels the batch and the
// call fails with *RateLimitedError.
func (s *Simulator) ReactToScenario(ctx context.Context, agents []models.Agent, biz models.Business, scenarioType, scenarioDescription string) (*models.ReactionResult, error) {
	if len(agents) == 0 {
		return nil, ErrNoPersonas
	}
	if s.cfg.MaxPersonas > 0 && len(agents) > s.cfg.MaxPersonas {
		return nil, fmt.Errorf("%w: got %d, limit %d", ErrTooManyPersonas, len(agents), s.cfg.MaxPersonas)
	}

	businessContext := prompt.BusinessContext(biz)
	reactions := make([]models.ScenarioReaction, len(agents))

	g, gctx := errgroup.WithContext(ctx)
	for i, agent := range agents {
		g.Go(func() error {
			r, err := s.react(gctx, agent, businessContext, scenarioType, scenarioDescription)
			if err != nil {
				return err
			}
			reactions[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("Scenario aborted", zap.String("scenario_type", scenarioType), zap.Error(err))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := Summarize(reactions)
	s.logger.Info("Scenario simulated",
		zap.String("scenario_type", scenarioType),
		zap.Int("agents", summary.TotalAgents),
		zap.Int("undecided", countUndecided(reactions)),
		zap.Int("positive", summary.PositiveCount),
		zap.Int("negative", summary.NegativeCount),
		zap.Float64("avg_sentiment", summary.AverageSentiment))

	return &models.ReactionResult{Reactions: reactions, Summary: summary}, nil
}

// react returns an error only for exhausted rate limiting.
func (s *Simulator) react(ctx context.Context, agent models.Agent, businessContext, scenarioType, scenarioDescription string) (models.ScenarioReaction, error) {
	text, err := s.queue.Generate(ctx, prompt.Reaction(agent, businessContext, scenarioType, scenarioDescription))
	if err != nil {
		var rl *gateway.RateLimitError
		if errors.As(err, &rl) {
			return models.ScenarioReaction{}, &RateLimitedError{RetryAfterSeconds: rl.RetryAfterSeconds(), Err: err}
		}
		s.logger.Warn("Reaction failed, using fallback", zap.String("agent_id", agent.ID), zap.Error(err))
		return fallbackReaction(agent), nil
	}

	payload, err := parseReaction(text)
	if err != nil {
		s.logger.Warn("Unparseable reaction, using fallback", zap.String("agent_id", agent.ID), zap.Error(err))
		return fallbackReaction(agent), nil
	}
	return buildReaction(agent, payload), nil
}

func buildReaction(agent models.Agent, p reactionPayload) models.ScenarioReaction {
	r := identity(agent)
	r.Feedback = p.Feedback
	r.Sentiment = clamp(*p.Sentiment, -1, 1)
	r.SentimentDelta = clamp(*p.SentimentDelta, -maxSentimentDelta, maxSentimentDelta)
	r.EmotionalTone = models.EmotionalTone(p.EmotionalTone)
	r.Reasoning = p.Reasoning
	r.LikelihoodChange = clamp(*p.LikelihoodChange, -maxLikelihoodChange, maxLikelihoodChange)
	r.SpendingChange = clamp(*p.SpendingChange, -maxSpendingChange, maxSpendingChange)
	r.Tags = modelTags(p.Tags)
	return r
}

// modelTags drops the undecided marker so that only fallbacks carry it.
func modelTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if strings.EqualFold(strings.TrimSpace(tag), models.TagUndecided) {
			continue
		}
		out = append(out, tag)
	}
	return out
}

func fallbackReaction(agent models.Agent) models.ScenarioReaction {
	r := identity(agent)
	r.Feedback = fallbackFeedback
	r.Sentiment = clamp(agent.CurrentSentiment, -1, 1)
	r.EmotionalTone = models.ToneNeutral
	r.Reasoning = fallbackReasoning
	r.Tags = []string{models.TagUndecided}
	return r
}

func identity(agent models.Agent) models.ScenarioReaction {
	return models.ScenarioReaction{
		AgentID:      agent.ID,
		AgentName:    agent.Name,
		AgentAvatar:  agent.Avatar,
		AgentPersona: agent.PersonaLabel,
	}
}

func countUndecided(reactions []models.ScenarioReaction) int {
	n := 0
	for _, r := range reactions {
		if r.Undecided() {
			n++
		}
	}
	return n
}
