package llm

import "strings"

// Role identifies the author of a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single role-tagged message of an exchange.
type Turn struct {
	Role    Role
	Content string
}

// Exchange is an ordered sequence of turns. It carries no wire format;
// each backend renders it in its own representation.
type Exchange struct {
	Turns []Turn
}

// NewExchange starts an exchange with a system preamble and a user turn.
func NewExchange(system, user string) *Exchange {
	e := &Exchange{}
	if system != "" {
		e.Append(RoleSystem, system)
	}
	e.Append(RoleUser, user)
	return e
}

// Append adds a turn and returns the exchange for chaining.
func (e *Exchange) Append(role Role, content string) *Exchange {
	e.Turns = append(e.Turns, Turn{Role: role, Content: content})
	return e
}

// Clone returns a copy that can be extended without touching e.
func (e *Exchange) Clone() *Exchange {
	turns := make([]Turn, len(e.Turns))
	copy(turns, e.Turns)
	return &Exchange{Turns: turns}
}

// Turn boundary sentinels of the local completion server's chat template.
const (
	SentinelSystem    = "<|system|>"
	SentinelUser      = "<|user|>"
	SentinelAssistant = "<|assistant|>"
	SentinelEOS       = "</s>"
)

// Sentinels returns the stop sequences that end a local generation at a
// turn boundary.
func Sentinels() []string {
	return []string{SentinelUser, SentinelSystem, SentinelAssistant, SentinelEOS}
}

// RenderDelimited renders the exchange as a single delimited text block and
// leaves an open assistant turn at the end for the model to complete.
func (e *Exchange) RenderDelimited() string {
	var b strings.Builder
	for _, t := range e.Turns {
		b.WriteString(sentinelFor(t.Role))
		b.WriteString("\n")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	b.WriteString(SentinelAssistant)
	b.WriteString("\n")
	return b.String()
}

func sentinelFor(role Role) string {
	switch role {
	case RoleSystem:
		return SentinelSystem
	case RoleAssistant:
		return SentinelAssistant
	default:
		return SentinelUser
	}
}
