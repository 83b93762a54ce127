package domain

import (
	"strings"
	"time"
)

// GenerationRequest is a validated inbound affirmation request.
type GenerationRequest struct {
	Message string `json:"message"`
}

// CompletionRequest represents a unified upstream LLM request.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // user, assistant, system
	Content string `json:"content"`
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// MergedPrompt flattens the conversation into one prompt text for providers
// without a role concept.
func (r *CompletionRequest) MergedPrompt() string {
	var system, user []string
	for _, msg := range r.Messages {
		if msg.Role == RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		user = append(user, msg.Content)
	}

	if len(system) == 0 {
		return strings.Join(user, "\n\n")
	}

	return strings.Join(system, "\n\n") + "\n\nThe person shares: " + strings.Join(user, "\n\n")
}

// StreamChunk is one normalized element of a relay stream. Exactly one of
// Payload, Done or Error is meaningful per chunk.
type StreamChunk struct {
	// Delta is the text fragment carried by Payload, if any.
	Delta string
	// Payload is the client-schema JSON body written after "data: ".
	Payload []byte
	// Done marks the terminator: no further chunks follow.
	Done bool
	// Error reports a mid-stream failure; the stream ends without a terminator.
	Error error
}

// HealthStatus is the body of the health endpoint.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ISO8601Millis matches the timestamp layout browsers produce with toISOString.
const ISO8601Millis = "2006-01-02T15:04:05.000Z07:00"

// NewHealthStatus reports a healthy process at the given instant.
func NewHealthStatus(now time.Time) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: now.UTC().Format(ISO8601Millis),
	}
}
