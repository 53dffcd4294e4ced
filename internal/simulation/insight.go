package simulation

import (
	"context"
	"fmt"

	"github.com/BerylCAtieno/market-sim-agent/internal/models"
	"github.com/BerylCAtieno/market-sim-agent/internal/prompt"
	"go.uber.org/zap"
)

// GenerateInsights issues one aggregate analysis call. Any failure, including
// an unparseable answer, is returned to the caller.
func (s *Simulator) GenerateInsights(ctx context.Context, agents []models.Agent, biz models.Business) (*models.Insight, error) {
	if len(agents) == 0 {
		return nil, ErrNoPersonas
	}

	p := prompt.Insight(agents, biz)
	text, err := direct(ctx, s, func(ctx context.Context) (string, error) {
		return s.model.Generate(ctx, p)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate insights: %w", err)
	}

	insight, err := ParseInsight(text)
	if err != nil {
		s.logger.Warn("Unparseable insight response", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Insights generated",
		zap.Int("agents", len(agents)),
		zap.Int("segments", len(insight.SegmentInsights)))
	return insight, nil
}
