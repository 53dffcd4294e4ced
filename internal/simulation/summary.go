package simulation

import "github.com/BerylCAtieno/market-sim-agent/internal/models"

// DeadZone keeps negligible sentiment deltas out of the positive/negative counts.
// Both bounds are exclusive: a delta of exactly ±DeadZone counts as neutral.
const DeadZone = 0.05

// Summarize aggregates a complete reaction list.
func Summarize(reactions []models.ScenarioReaction) models.ReactionSummary {
	summary := models.ReactionSummary{TotalAgents: len(reactions)}
	if len(reactions) == 0 {
		return summary
	}

	var sentimentSum, deltaSum float64
	for _, r := range reactions {
		sentimentSum += r.Sentiment
		deltaSum += r.SentimentDelta
		switch {
		case r.SentimentDelta > DeadZone:
			summary.PositiveCount++
		case r.SentimentDelta < -DeadZone:
			summary.NegativeCount++
		}
	}
	n := float64(len(reactions))
	summary.AverageSentiment = clamp(sentimentSum/n, -1, 1)
	summary.SentimentDelta = deltaSum / n
	summary.NeutralCount = len(reactions) - summary.PositiveCount - summary.NegativeCount
	return summary
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
