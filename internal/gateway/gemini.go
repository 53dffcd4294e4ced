package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/BerylCAtieno/market-sim-agent/internal/models"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float32
	TopP            float32
	MaxOutputTokens int32
	Classifier      Classifier
}

func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:          apiKey,
		Model:           "gemini-2.5-flash",
		Temperature:     0.7,
		TopP:            0.95,
		MaxOutputTokens: 2048,
	}
}

// GeminiClient talks to Gemini through github.com/google/generative-ai-go.
type GeminiClient struct {
	client     *genai.Client
	model      *genai.GenerativeModel
	classifier Classifier
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.SetTopP(cfg.TopP)
	model.SetMaxOutputTokens(cfg.MaxOutputTokens)

	classifier := cfg.Classifier
	if classifier == nil {
		classifier = HeuristicClassifier{}
	}

	return &GeminiClient{
		client:     client,
		model:      model,
		classifier: classifier,
	}, nil
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", Classify(g.classifier, "generate", err)
	}
	return candidateText("generate", resp)
}

func (g *GeminiClient) Chat(ctx context.Context, systemPrompt, greeting string, history []models.ChatMessage, message string) (string, error) {
	cs := g.model.StartChat()
	cs.History = []*genai.Content{
		{Role: "user", Parts: []genai.Part{genai.Text(systemPrompt)}},
		{Role: "model", Parts: []genai.Part{genai.Text(greeting)}},
	}
	for _, msg := range history {
		cs.History = append(cs.History, &genai.Content{
			Role:  chatRole(msg.Role),
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", Classify(g.classifier, "chat", err)
	}
	return candidateText("chat", resp)
}

func candidateText(op string, resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &ModelError{Op: op, Message: errNoContent.Error(), Err: errNoContent}
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", &ModelError{Op: op, Message: errNoContent.Error(), Err: errNoContent}
	}
	return b.String(), nil
}

// chatRole maps dashboard roles onto the model's user/model turns.
func chatRole(role string) string {
	if role == models.ChatRoleAgent {
		return "model"
	}
	return "user"
}
