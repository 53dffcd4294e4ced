package models

type EmotionalTone string

const (
	ToneExcited   EmotionalTone = "excited"
	TonePositive  EmotionalTone = "positive"
	ToneNeutral   EmotionalTone = "neutral"
	ToneConcerned EmotionalTone = "concerned"
	ToneNegative  EmotionalTone = "negative"
	ToneAngry     EmotionalTone = "angry"
)

// TagUndecided marks a reaction that was substituted because the model call failed.
const TagUndecided = "undecided"

type ScenarioReaction struct {
	AgentID          string        `json:"agentId"`
	AgentName        string        `json:"agentName"`
	AgentAvatar      string        `json:"agentAvatar"`
	AgentPersona     string        `json:"agentPersona"`
	Feedback         string        `json:"feedback"`
	Sentiment        float64       `json:"sentiment"`
	SentimentDelta   float64       `json:"sentimentDelta"`
	EmotionalTone    EmotionalTone `json:"emotionalTone"`
	Reasoning        string        `json:"reasoning"`
	LikelihoodChange float64       `json:"likelihoodChange"`
	SpendingChange   float64       `json:"spendingChange"`
	Tags             []string      `json:"tags"`
}

// Undecided reports whether the reaction is a fallback rather than a model answer.
func (r ScenarioReaction) Undecided() bool {
	return len(r.Tags) == 1 && r.Tags[0] == TagUndecided
}

type ReactionSummary struct {
	AverageSentiment float64 `json:"averageSentiment"`
	SentimentDelta   float64 `json:"sentimentDelta"`
	PositiveCount    int     `json:"positiveCount"`
	NegativeCount    int     `json:"negativeCount"`
	NeutralCount     int     `json:"neutralCount"`
	TotalAgents      int     `json:"totalAgents"`
}

type ReactionResult struct {
	Reactions []ScenarioReaction `json:"reactions"`
	Summary   ReactionSummary    `json:"summary"`
}
