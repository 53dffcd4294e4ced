package models

const (
	ChatRoleUser  = "user"
	ChatRoleAgent = "agent"
)

type ChatMessage struct {
	Role      string `json:"role" binding:"required,oneof=user agent"`
	Content   string `json:"content" binding:"required"`
	Timestamp string `json:"timestamp,omitempty"`
}
