package prompt

import (
	"fmt"

	"github.com/BerylCAtieno/market-sim-agent/internal/models"
)

func ChatSystem(agent models.Agent, biz models.Business) string {
	return fmt.Sprintf(`%s

%s

INSTRUCTIONS:
- You are having a conversation with a business analyst or owner.
- Answer questions from your perspective as a customer persona.
- Be specific about your preferences, concerns, and what would make you visit or avoid this business.
- Keep responses concise (2-4 sentences per reply) but insightful.
- Reference specific menu items, prices, or business details when relevant.
- Show your personality through your language style and opinions.`, Persona(agent), BusinessContext(biz))
}

// ChatGreeting is the model turn that accepts the persona before history starts.
func ChatGreeting(agent models.Agent) string {
	return fmt.Sprintf("I understand. I'm %s, and I'm ready to share my thoughts as a customer. What would you like to know?", agent.Name)
}
