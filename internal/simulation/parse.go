package simulation

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/BerylCAtieno/market-sim-agent/internal/models"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// StripFences removes a Markdown code fence (```json or ```) wrapped around a
// model answer. Text without a fence is returned trimmed.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = s[3:]
		if i := strings.IndexByte(s, '\n'); i >= 0 && isFenceInfo(s[:i]) {
			s = s[i+1:]
		} else if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
			s = s[4:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isFenceInfo(line string) bool {
	for _, r := range strings.TrimSpace(line) {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// reactionPayload is the schema the model must answer with. Numbers are
// pointers so a missing field is told apart from zero.
type reactionPayload struct {
	Feedback         string   `json:"feedback" validate:"required"`
	Sentiment        *float64 `json:"sentiment" validate:"required"`
	SentimentDelta   *float64 `json:"sentimentDelta" validate:"required"`
	EmotionalTone    string   `json:"emotionalTone" validate:"required,oneof=excited positive neutral concerned negative angry"`
	Reasoning        string   `json:"reasoning" validate:"required"`
	LikelihoodChange *float64 `json:"likelihoodChange" validate:"required"`
	SpendingChange   *float64 `json:"spendingChange" validate:"required"`
	Tags             []string `json:"tags" validate:"required"`
}

func parseReaction(text string) (reactionPayload, error) {
	var p reactionPayload
	if err := decode(text, &p); err != nil {
		return reactionPayload{}, err
	}
	p.EmotionalTone = strings.ToLower(strings.TrimSpace(p.EmotionalTone))
	if err := validate.Struct(p); err != nil {
		return reactionPayload{}, &ParseError{Stage: "schema", Err: err}
	}
	return p, nil
}

// ParseInsight decodes and validates an insight answer. There is no fallback.
func ParseInsight(text string) (*models.Insight, error) {
	var insight models.Insight
	if err := decode(text, &insight); err != nil {
		return nil, err
	}
	if err := validate.Struct(insight); err != nil {
		return nil, &ParseError{Stage: "schema", Err: err}
	}
	return &insight, nil
}

func decode(text string, v any) error {
	cleaned := StripFences(text)
	if cleaned == "" {
		return &ParseError{Stage: "json", Err: errors.New("empty response")}
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return &ParseError{Stage: "json", Err: err}
	}
	return nil
}
