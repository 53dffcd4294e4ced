package gateway

import (
	"context"
	"fmt"

	"github.com/BerylCAtieno/market-sim-agent/internal/models"
	"google.golang.org/genai"
)

// GenAIClient talks to Gemini through the google.golang.org/genai SDK.
type GenAIClient struct {
	client     *genai.Client
	model      string
	config     *genai.GenerateContentConfig
	classifier Classifier
}

func NewGenAIClient(ctx context.Context, cfg GeminiConfig) (*GenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	classifier := cfg.Classifier
	if classifier == nil {
		classifier = HeuristicClassifier{}
	}

	return &GenAIClient{
		client: client,
		model:  cfg.Model,
		config: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(cfg.Temperature),
			TopP:            genai.Ptr(cfg.TopP),
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
		classifier: classifier,
	}, nil
}

// Close is a no-op; the SDK client holds no closable resources.
func (c *GenAIClient) Close() error { return nil }

func (c *GenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, "generate", genai.Text(prompt))
}

func (c *GenAIClient) Chat(ctx context.Context, systemPrompt, greeting string, history []models.ChatMessage, message string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(systemPrompt, genai.RoleUser),
		genai.NewContentFromText(greeting, genai.RoleModel),
	}
	for _, msg := range history {
		role := genai.Role(genai.RoleUser)
		if msg.Role == models.ChatRoleAgent {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))
	return c.generate(ctx, "chat", contents)
}

func (c *GenAIClient) generate(ctx context.Context, op string, contents []*genai.Content) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, c.config)
	if err != nil {
		return "", Classify(c.classifier, op, err)
	}
	text := resp.Text()
	if text == "" {
		return "", &ModelError{Op: op, Message: errNoContent.Error(), Err: errNoContent}
	}
	return text, nil
}
