package domain

// Exchange is a single user/assistant turn in a conversation.
type Exchange struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// Session is a bounded, keyed conversation history giving the generation
// step short-term memory of prior turns.
type Session struct {
	ID      string     `json:"id"`
	History []Exchange `json:"history"`
}

// Urgency levels assigned to incoming chat messages.
const (
	UrgencyUrgent   = "urgent"
	UrgencyModerate = "moderate"
	UrgencyRoutine  = "routine"
)
