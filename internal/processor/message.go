// ABOUTME: Role enum and Message value produced by parsing a chat document
// ABOUTME: Messages are transient - built fresh on every parse, never mutated in place

package processor

// Role identifies the speaker of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one role-tagged entry in the parsed conversation.
// Extra carries fields extracted from the marker line itself, such as an
// alias name.
type Message struct {
	Role    Role
	Content string
	Extra   map[string]string
}
