package models

type SegmentInsight struct {
	Segment      string  `json:"segment" validate:"required"`
	Size         int     `json:"size" validate:"gte=0"`
	AvgSentiment float64 `json:"avgSentiment"`
	Insight      string  `json:"insight" validate:"required"`
}

type Insight struct {
	Summary            string           `json:"summary" validate:"required"`
	KeyDrivers         []string         `json:"keyDrivers" validate:"required"`
	Risks              []string         `json:"risks" validate:"required"`
	Opportunities      []string         `json:"opportunities" validate:"required"`
	RecommendedActions []string         `json:"recommendedActions" validate:"required"`
	SegmentInsights    []SegmentInsight `json:"segmentInsights" validate:"required,dive"`
	RevenueAtRisk      float64          `json:"revenueAtRisk"`
	GrowthPotential    float64          `json:"growthPotential"`
}
