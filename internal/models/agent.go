package models

type IncomeCategory string

const (
	IncomeLow         IncomeCategory = "low"
	IncomeLowerMiddle IncomeCategory = "lower_middle"
	IncomeMiddle      IncomeCategory = "middle"
	IncomeUpperMiddle IncomeCategory = "upper_middle"
	IncomeHigh        IncomeCategory = "high"
)

type GeoLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AgentPreferences scores are in [0,1].
type AgentPreferences struct {
	PriceSensitivity      float64  `json:"priceSensitivity"`
	QualityImportance     float64  `json:"qualityImportance"`
	ConvenienceImportance float64  `json:"convenienceImportance"`
	SocialInfluence       float64  `json:"socialInfluence"`
	HealthConsciousness   float64  `json:"healthConsciousness"`
	Adventurousness       float64  `json:"adventurousness"`
	BrandLoyalty          float64  `json:"brandLoyalty"`
	PreferredCategories   []string `json:"preferredCategories"`
}

// Agent is a synthetic customer persona. Bounded fields are taken as given;
// they only seed prompt text.
type Agent struct {
	ID                   string           `json:"id" binding:"required"`
	Name                 string           `json:"name" binding:"required"`
	Avatar               string           `json:"avatar"`
	Age                  int              `json:"age"`
	Persona              string           `json:"persona,omitempty"`
	PersonaLabel         string           `json:"personaLabel"`
	Occupation           string           `json:"occupation"`
	Bio                  string           `json:"bio"`
	IncomeCategory       IncomeCategory   `json:"incomeCategory"`
	AnnualIncome         float64          `json:"annualIncome"`
	Location             *GeoLocation     `json:"location,omitempty"`
	Neighborhood         string           `json:"neighborhood,omitempty"`
	DistanceToBusinessKm float64          `json:"distanceToBusinessKm,omitempty"`
	Preferences          AgentPreferences `json:"preferences"`
	CurrentSentiment     float64          `json:"currentSentiment"`
	SpendingPrediction   float64          `json:"spendingPrediction"`
	LikelihoodToVisit    float64          `json:"likelihoodToVisit"`
	VisitFrequency       string           `json:"visitFrequency,omitempty"`
}
