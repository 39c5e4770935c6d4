// Package agentctx maps the client-reported UI state to the context keys
// and injected context that scope a single turn.
package agentctx

import "github.com/cadencehq/cadence-agent/internal/domain"

// Context keys. Tool visibility and injected context are resolved per key.
const (
	KeyGlobal     = "global"
	KeyCalendar   = "calendar"
	KeyPostEditor = "postEditor"
	KeyBrandVoice = "brandVoice"
)

// ResolveContextKeys maps a snapshot to an ordered, deduplicated list of
// context keys. The global key is always first. Pure function of its
// input.
func ResolveContextKeys(snap *domain.ContextSnapshot) []string {
	keys := []string{KeyGlobal}
	if snap == nil {
		return keys
	}

	seen := map[string]bool{KeyGlobal: true}
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	if snap.Page == "calendar" || snap.Component == "calendar" {
		add(KeyCalendar)
	}
	if snap.Component == "postEditor" || snap.PostID != "" {
		add(KeyPostEditor)
	}
	if snap.Page == "brandVoice" || snap.Component == "brandVoice" {
		add(KeyBrandVoice)
	}

	return keys
}
