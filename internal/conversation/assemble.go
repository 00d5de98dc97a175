package conversation

import (
	"modelstudio/internal/providers"
	"modelstudio/internal/storage"
)

// Assemble builds the provider input for a turn: the profile's system prompt followed
// by the stored history exactly as persisted. History must already be oldest first.
func Assemble(systemPrompt string, history []storage.Message) []providers.Message {
	out := make([]providers.Message, 0, len(history)+1)
	out = append(out, providers.Message{Role: providers.RoleSystem, Content: systemPrompt})
	for _, m := range history {
		out = append(out, providers.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
