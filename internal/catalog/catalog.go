// Package catalog holds the curated list of base models offered per provider. It is
// advisory: profiles may name models that are not listed here.
package catalog

var models = map[string][]string{
	"openai":    {"gpt-4o-mini", "gpt-4o", "gpt-3.5-turbo"},
	"anthropic": {"claude-2", "claude-instant-1"},
}

// Models returns a copy of the curated models for provider and whether the provider is
// in the catalog at all.
func Models(provider string) ([]string, bool) {
	list, ok := models[provider]
	if !ok {
		return []string{}, false
	}
	out := make([]string, len(list))
	copy(out, list)
	return out, true
}
