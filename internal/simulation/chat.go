package simulation

import (
	"context"
	"fmt"
	"strings"

	"github.com/BerylCAtieno/market-sim-agent/internal/models"
	"github.com/BerylCAtieno/market-sim-agent/internal/prompt"
)

// Chat answers message in character as agent, given prior turns.
func (s *Simulator) Chat(ctx context.Context, agent models.Agent, biz models.Business, message string, history []models.ChatMessage) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	system := prompt.ChatSystem(agent, biz)
	greeting := prompt.ChatGreeting(agent)
	reply, err := direct(ctx, s, func(ctx context.Context) (string, error) {
		return s.model.Chat(ctx, system, greeting, history, message)
	})
	if err != nil {
		return "", fmt.Errorf("failed to get agent response: %w", err)
	}
	return strings.TrimSpace(reply), nil
}
