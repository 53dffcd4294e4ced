package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/BerylCAtieno/market-sim-agent/internal/models"
	"github.com/stretchr/testify/assert"
)

func sampleAgent() models.Agent {
	return models.Agent{
		ID:             "agent-001",
		Name:           "Maya Chen",
		Age:            24,
		PersonaLabel:   "Budget Student",
		Occupation:     "Graduate Student",
		Bio:            "Studies at UT, loves cheap eats.",
		IncomeCategory: models.IncomeLow,
		AnnualIncome:   18500,
		Neighborhood:   "West Campus",
		Preferences: models.AgentPreferences{
			PriceSensitivity:      0.9,
			QualityImportance:     0.5,
			ConvenienceImportance: 0.8,
			SocialInfluence:       0.3,
			HealthConsciousness:   0.2,
			Adventurousness:       0.75,
			BrandLoyalty:          0.1,
			PreferredCategories:   []string{"Coffee", "Tacos"},
		},
		CurrentSentiment:   0.35,
		SpendingPrediction: 12,
		LikelihoodToVisit:  60,
	}
}

func sampleBusiness(products int) models.Business {
	biz := models.Business{
		ID:                 "biz-001",
		Name:               "The Craft Kitchen",
		Type:               "restaurant",
		Tagline:            "From Local Farms to Your Table",
		Description:        "Farm-to-table restaurant.",
		Address:            "412 Congress Ave, Austin, TX 78701",
		PriceRange:         models.PriceModerate,
		Rating:             4.6,
		EstablishedYear:    2019,
		MonthlyRevenue:     85000,
		AvgCustomersPerDay: 120,
	}
	for i := 0; i < products; i++ {
		biz.Products = append(biz.Products, models.Product{
			Name:        fmt.Sprintf("Dish %d", i),
			Price:       float64(10 + i),
			Description: "tasty",
			IsPopular:   i == 0,
			IsNew:       i == 1,
		})
	}
	return biz
}

func TestPersona(t *testing.T) {
	out := Persona(sampleAgent())

	assert.Contains(t, out, "You are roleplaying as Maya Chen, a 24-year-old Graduate Student living in the West Campus neighborhood.")
	assert.Contains(t, out, "ANNUAL INCOME: $18,500")
	assert.Contains(t, out, "INCOME CATEGORY: low")
	assert.Contains(t, out, "- Price Sensitivity: 0.9 (very price-conscious)")
	assert.Contains(t, out, "- Quality Importance: 0.5 (values decent quality)")
	assert.Contains(t, out, "- Convenience: 0.8 (convenience is key)")
	assert.Contains(t, out, "- Social Influence: 0.3 (makes independent decisions)")
	assert.Contains(t, out, "- Adventurousness: 0.75 (loves trying new things)")
	assert.Contains(t, out, "- Preferred Categories: Coffee, Tacos")
	assert.Contains(t, out, "CURRENT SENTIMENT TOWARD THE BUSINESS: 0.35 (somewhat positive)")
}

func TestPersona_NoNeighborhood(t *testing.T) {
	a := sampleAgent()
	a.Neighborhood = ""
	assert.Contains(t, Persona(a), "a 24-year-old Graduate Student.\n")
}

func TestPersona_OutOfRangeValuesAreLiteral(t *testing.T) {
	a := sampleAgent()
	a.CurrentSentiment = 1.7
	a.Preferences.PriceSensitivity = 3
	out := Persona(a)
	assert.Contains(t, out, "CURRENT SENTIMENT TOWARD THE BUSINESS: 1.7")
	assert.Contains(t, out, "- Price Sensitivity: 3 (")
}

func TestSentimentLabel(t *testing.T) {
	assert.Equal(t, "very positive", SentimentLabel(0.51))
	assert.Equal(t, "somewhat positive", SentimentLabel(0.5))
	assert.Equal(t, "somewhat negative", SentimentLabel(0))
	assert.Equal(t, "very negative", SentimentLabel(-0.5))
}

func TestBusinessContext(t *testing.T) {
	out := BusinessContext(sampleBusiness(10))

	assert.True(t, strings.HasPrefix(out, "BUSINESS CONTEXT:\nName: The Craft Kitchen\n"))
	assert.Contains(t, out, `Tagline: "From Local Farms to Your Table"`)
	assert.Contains(t, out, "Monthly Revenue: $85,000")
	assert.Contains(t, out, "  - Dish 0 ($10) - tasty [POPULAR]")
	assert.Contains(t, out, "  - Dish 1 ($11) - tasty [NEW]")
	assert.Contains(t, out, "Dish 7")
	assert.NotContains(t, out, "Dish 8")
}

func TestBusinessContext_OptionalFields(t *testing.T) {
	biz := sampleBusiness(0)
	biz.MonthlyRevenue = 0
	biz.EstablishedYear = 0
	out := BusinessContext(biz)
	assert.NotContains(t, out, "Monthly Revenue")
	assert.NotContains(t, out, "Established")
}

func TestReaction(t *testing.T) {
	a := sampleAgent()
	ctx := BusinessContext(sampleBusiness(2))
	out := Reaction(a, ctx, "price_change", `Raise "latte" prices by 15%`)

	assert.True(t, strings.HasPrefix(out, Persona(a)))
	assert.Contains(t, out, ctx)
	assert.Contains(t, out, `SCENARIO: The business is making the following change: "Raise \"latte\" prices by 15%" (Type: price_change)`)
	assert.Contains(t, out, "change from your current sentiment of 0.35")
	for _, key := range []string{"feedback", "sentiment", "sentimentDelta", "emotionalTone", "reasoning", "likelihoodChange", "spendingChange", "tags"} {
		assert.Contains(t, out, `"`+key+`"`)
	}
}

func TestInsight(t *testing.T) {
	a := sampleAgent()
	b := sampleAgent()
	b.Name = "Raj Patel"
	out := Insight([]models.Agent{a, b}, sampleBusiness(1))

	assert.Contains(t, out, "- Maya Chen (Budget Student, Age 24, Income $18,500, Sentiment: 0.35, Visit Likelihood: 60%, Avg Spend: $12)")
	assert.Contains(t, out, "- Raj Patel (")
	assert.Contains(t, out, `"segmentInsights"`)
	assert.Contains(t, out, `"revenueAtRisk"`)
}

func TestChatSystem(t *testing.T) {
	a := sampleAgent()
	out := ChatSystem(a, sampleBusiness(1))
	assert.Contains(t, out, "INSTRUCTIONS:")
	assert.Contains(t, out, "BUSINESS CONTEXT:")
	assert.Equal(t, "I understand. I'm Maya Chen, and I'm ready to share my thoughts as a customer. What would you like to know?", ChatGreeting(a))
}
