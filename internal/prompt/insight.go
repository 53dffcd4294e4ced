package prompt

import (
	"fmt"
	"strings"

	"github.com/BerylCAtieno/market-sim-agent/internal/models"
)

// AgentSummaryLine is the one-line digest of a persona used in aggregate prompts.
func AgentSummaryLine(a models.Agent) string {
	return fmt.Sprintf("- %s (%s, Age %d, Income %s, Sentiment: %.2f, Visit Likelihood: %v%%, Avg Spend: $%v)",
		a.Name, a.PersonaLabel, a.Age, dollars(a.AnnualIncome), a.CurrentSentiment, a.LikelihoodToVisit, a.SpendingPrediction)
}

func Insight(agents []models.Agent, biz models.Business) string {
	lines := make([]string, len(agents))
	for i, a := range agents {
		lines[i] = AgentSummaryLine(a)
	}

	return fmt.Sprintf(`You are a senior marketing analytics AI. Analyze the following customer personas for this business and provide strategic insights.

%s

CUSTOMER PERSONAS:
%s

Provide your analysis as ONLY valid JSON (no markdown, no code fences) in this exact format:
{
  "summary": "A 2-3 sentence executive summary of the customer base analysis",
  "keyDrivers": ["driver1", "driver2", "driver3"],
  "risks": ["risk1", "risk2", "risk3"],
  "opportunities": ["opportunity1", "opportunity2", "opportunity3"],
  "recommendedActions": ["action1", "action2", "action3"],
  "segmentInsights": [
    {
      "segment": "Segment name",
      "size": <number of agents in this segment>,
      "avgSentiment": <number>,
      "insight": "One sentence about this segment"
    }
  ],
  "revenueAtRisk": <estimated monthly revenue at risk from negative/churning customers as number>,
  "growthPotential": <estimated monthly revenue growth potential from converting prospects as number>
}`, BusinessContext(biz), strings.Join(lines, "\n"))
}
