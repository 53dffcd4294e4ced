package prompt

import (
	"fmt"

	"github.com/BerylCAtieno/market-sim-agent/internal/models"
)

// Reaction is the full per-persona prompt: persona, business, scenario and the
// JSON-only answer schema. businessContext is rendered once per batch.
func Reaction(agent models.Agent, businessContext, scenarioType, scenarioDescription string) string {
	return fmt.Sprintf(`%s

%s

SCENARIO: The business is making the following change: %q (Type: %s)

Based on your persona, preferences, income, and relationship with this business, provide your reaction to this change.

You MUST respond with ONLY valid JSON in this exact format (no markdown, no code fences):
{
  "feedback": "Your honest 1-2 sentence reaction as this persona",
  "sentiment": <number between -1 and 1 representing your new overall feeling>,
  "sentimentDelta": <number between -0.5 and 0.5 representing change from your current sentiment of %v>,
  "emotionalTone": "<one of: excited, positive, neutral, concerned, negative, angry>",
  "reasoning": "Brief 1-sentence explanation of why you feel this way based on your preferences",
  "likelihoodChange": <number between -30 and 30 representing percentage change in visit likelihood>,
  "spendingChange": <number between -20 and 20 representing dollar change in avg spending>,
  "tags": ["tag1", "tag2"]
}

Tags should be relevant keywords like "price-sensitive", "quality-focused", "loyal-customer", "at-risk", "growth-opportunity", etc.`,
		Persona(agent), businessContext, scenarioDescription, scenarioType, agent.CurrentSentiment)
}
