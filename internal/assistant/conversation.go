package assistant

import "sync"

// Role identifies the sender of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single entry in the chat history.
type Turn struct {
	Role    Role
	Content string

	// Failed marks an assistant turn that reports an error instead of an
	// answer.
	Failed bool
}

// Conversation maintains an ordered chat history, trimming the oldest
// entries once the limit is reached. The first turn is always kept.
type Conversation struct {
	mu       sync.Mutex
	turns    []Turn
	maxTurns int
}

// NewConversation creates a history holding at most maxTurns entries
// (200 when maxTurns <= 0).
func NewConversation(maxTurns int) *Conversation {
	if maxTurns <= 0 {
		maxTurns = 200
	}
	return &Conversation{
		turns:    make([]Turn, 0, 16),
		maxTurns: maxTurns,
	}
}

// Append adds a turn to the end of the history.
func (c *Conversation) Append(t Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = append(c.turns, t)

	if len(c.turns) > c.maxTurns {
		trimmed := make([]Turn, 0, c.maxTurns)
		trimmed = append(trimmed, c.turns[0])
		excess := len(c.turns) - c.maxTurns
		trimmed = append(trimmed, c.turns[1+excess:]...)
		c.turns = trimmed
	}
}

// Turns returns a copy of the history.
func (c *Conversation) Turns() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]Turn, len(c.turns))
	copy(result, c.turns)
	return result
}

// Reset clears the history.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = c.turns[:0]
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.turns)
}
