package domain

// Role identifies the author of a ChatMessage.
type Role string

const (
	RoleBot    Role = "bot"
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)

// ChatMessage is an entry in the displayed conversation.
type ChatMessage struct {
	ID       string `json:"id"`
	Role     Role   `json:"role"`
	Content  string `json:"content"`
	StepID   string `json:"step_id"`
	Editable bool   `json:"editable,omitempty"`
}

// IndexOfMessage returns the position of the message with the given id, or -1.
func IndexOfMessage(history []ChatMessage, id string) int {
	for i, m := range history {
		if m.ID == id {
			return i
		}
	}
	return -1
}
