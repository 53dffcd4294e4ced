package simulation

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BerylCAtieno/market-sim-agent/internal/gateway"
	"github.com/BerylCAtieno/market-sim-agent/internal/models"
	"github.com/BerylCAtieno/market-sim-agent/internal/retry"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// opencensus starts a stats worker at init via the Gemini SDK.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type reply func(ctx context.Context) (string, error)

func text(s string) reply {
	return func(context.Context) (string, error) { return s, nil }
}

func fail(err error) reply {
	return func(context.Context) (string, error) { return "", err }
}

func delayed(d time.Duration, r reply) reply {
	return func(ctx context.Context) (string, error) {
		select {
		case <-time.After(d):
			return r(ctx)
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// fakeModel answers reaction prompts per persona name and records every call.
type fakeModel struct {
	mu       sync.Mutex
	byAgent  map[string]reply
	generate reply
	chat     func(system, greeting string, history []models.ChatMessage, message string) (string, error)
	prompts  []string
}

func (f *fakeModel) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	r := f.generate
	if name, ok := agentName(prompt); ok && f.byAgent != nil {
		if byName, ok := f.byAgent[name]; ok {
			r = byName
		}
	}
	f.mu.Unlock()
	if r == nil {
		return "", &gateway.ModelError{Op: "generate", Message: "no script"}
	}
	return r(ctx)
}

func (f *fakeModel) Chat(_ context.Context, system, greeting string, history []models.ChatMessage, message string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, system)
	f.mu.Unlock()
	return f.chat(system, greeting, history, message)
}

func (f *fakeModel) Close() error { return nil }

func (f *fakeModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func agentName(prompt string) (string, bool) {
	_, rest, ok := strings.Cut(prompt, "You are roleplaying as ")
	if !ok {
		return "", false
	}
	name, _, ok := strings.Cut(rest, ",")
	return name, ok
}

func agent(id, name string, sentiment float64) models.Agent {
	return models.Agent{
		ID:               id,
		Name:             name,
		Avatar:           "/avatars/" + id + ".png",
		Age:              30,
		PersonaLabel:     "Persona " + name,
		Occupation:       "Engineer",
		IncomeCategory:   models.IncomeMiddle,
		AnnualIncome:     60000,
		CurrentSentiment: sentiment,
		Preferences: models.AgentPreferences{
			PriceSensitivity:    0.5,
			PreferredCategories: []string{"Coffee"},
		},
	}
}

func business() models.Business {
	return models.Business{
		ID:         "biz-001",
		Name:       "Bean There",
		Type:       "cafe",
		PriceRange: models.PriceModerate,
		Rating:     4.4,
		Products:   []models.Product{{Name: "Latte", Price: 5, Description: "Espresso and milk"}},
	}
}

func testConfig() Config {
	return Config{
		MaxPersonas: DefaultMaxPersonas,
		CallTimeout: time.Second,
		Retry:       retry.Policy{MaxRetries: 3, BaseDelay: time.Millisecond},
	}
}

const validReaction = `{
  "feedback": "Love it",
  "sentiment": 0.6,
  "sentimentDelta": 0.2,
  "emotionalTone": "excited",
  "reasoning": "Quality matters to me",
  "likelihoodChange": 10,
  "spendingChange": 4,
  "tags": ["quality-focused"]
}`
