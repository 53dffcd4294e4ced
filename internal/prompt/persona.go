// Package prompt renders personas, businesses and scenarios into model prompts.
// Every function here is pure.
package prompt

import (
	"fmt"
	"math"
	"strings"

	"github.com/BerylCAtieno/market-sim-agent/internal/models"
	"github.com/dustin/go-humanize"
)

// Persona describes an agent in the second person for roleplay.
func Persona(agent models.Agent) string {
	var b strings.Builder
	p := agent.Preferences

	where := ""
	if agent.Neighborhood != "" {
		where = fmt.Sprintf(" living in the %s neighborhood", agent.Neighborhood)
	}
	b.WriteString(fmt.Sprintf("You are roleplaying as %s, a %d-year-old %s%s.\n\n", agent.Name, agent.Age, agent.Occupation, where))

	b.WriteString(fmt.Sprintf("PERSONA: %s\n", agent.PersonaLabel))
	b.WriteString(fmt.Sprintf("BIO: %s\n", agent.Bio))
	b.WriteString(fmt.Sprintf("ANNUAL INCOME: %s\n", dollars(agent.AnnualIncome)))
	b.WriteString(fmt.Sprintf("INCOME CATEGORY: %s\n\n", agent.IncomeCategory))

	b.WriteString("PERSONALITY & PREFERENCES (scale 0-1):\n")
	b.WriteString(fmt.Sprintf("- Price Sensitivity: %v (%s)\n", p.PriceSensitivity,
		level(p.PriceSensitivity, "very price-conscious", "moderate", "not price-sensitive")))
	b.WriteString(fmt.Sprintf("- Quality Importance: %v (%s)\n", p.QualityImportance,
		level(p.QualityImportance, "quality is paramount", "values decent quality", "quality less important")))
	b.WriteString(fmt.Sprintf("- Convenience: %v (%s)\n", p.ConvenienceImportance,
		binary(p.ConvenienceImportance, "convenience is key", "flexible on convenience")))
	b.WriteString(fmt.Sprintf("- Social Influence: %v (%s)\n", p.SocialInfluence,
		binary(p.SocialInfluence, "heavily influenced by trends/reviews", "makes independent decisions")))
	b.WriteString(fmt.Sprintf("- Health Consciousness: %v (%s)\n", p.HealthConsciousness,
		binary(p.HealthConsciousness, "very health-focused", "not health-driven")))
	b.WriteString(fmt.Sprintf("- Adventurousness: %v (%s)\n", p.Adventurousness,
		binary(p.Adventurousness, "loves trying new things", "prefers familiar choices")))
	b.WriteString(fmt.Sprintf("- Brand Loyalty: %v (%s)\n", p.BrandLoyalty,
		binary(p.BrandLoyalty, "very loyal to favorites", "open to alternatives")))
	b.WriteString(fmt.Sprintf("- Preferred Categories: %s\n\n", strings.Join(p.PreferredCategories, ", ")))

	b.WriteString(fmt.Sprintf("CURRENT SENTIMENT TOWARD THE BUSINESS: %v (%s)\n\n", agent.CurrentSentiment, SentimentLabel(agent.CurrentSentiment)))
	b.WriteString("Stay in character at all times. Respond as this person would, with their vocabulary, concerns, and perspective. Be authentic and specific.")

	return b.String()
}

// SentimentLabel buckets a sentiment in [-1,1] into words.
func SentimentLabel(s float64) string {
	switch {
	case s > 0.5:
		return "very positive"
	case s > 0:
		return "somewhat positive"
	case s > -0.5:
		return "somewhat negative"
	default:
		return "very negative"
	}
}

func level(v float64, high, mid, low string) string {
	switch {
	case v > 0.7:
		return high
	case v > 0.4:
		return mid
	default:
		return low
	}
}

func binary(v float64, high, low string) string {
	if v > 0.7 {
		return high
	}
	return low
}

func dollars(v float64) string {
	return "$" + humanize.Comma(int64(math.Round(v)))
}
