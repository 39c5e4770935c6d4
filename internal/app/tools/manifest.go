package tools

import (
	"context"

	"github.com/cadencehq/cadence-agent/internal/app/agentctx"
	"github.com/cadencehq/cadence-agent/internal/domain"
	"github.com/cadencehq/cadence-agent/internal/observability"
)

// Tool identifiers.
const (
	ToolListPosts       = "list_posts"
	ToolGetPost         = "get_post"
	ToolGetCurrentPost  = "get_current_post"
	ToolGetBrandRules   = "get_brand_rules"
	ToolListMedia       = "list_media"
	ToolGenerateCaption = "generate_caption"
	ToolGradeCaption    = "grade_caption"

	ToolNavigateToCalendar = "navigate_to_calendar"
	ToolCreatePost         = "create_post"
	ToolOpenPost           = "open_post"
	ToolApplyCaption       = "apply_caption_to_open_post"
)

// manifest maps context keys to the tools visible when that key is
// active. Tool visibility for a turn is the union over active keys.
var manifest = map[string][]string{
	agentctx.KeyGlobal: {
		ToolListPosts,
		ToolGetBrandRules,
		ToolGenerateCaption,
		ToolGradeCaption,
		ToolNavigateToCalendar,
		ToolCreatePost,
	},
	agentctx.KeyCalendar: {
		ToolListPosts,
		ToolListMedia,
		ToolCreatePost,
		ToolOpenPost,
	},
	agentctx.KeyPostEditor: {
		ToolGetCurrentPost,
		ToolGetPost,
		ToolGenerateCaption,
		ToolGradeCaption,
		ToolApplyCaption,
	},
	agentctx.KeyBrandVoice: {
		ToolGetBrandRules,
		ToolGradeCaption,
	},
}

// Resolve instantiates the tool set for a turn: the union of the manifest
// entries for the active context keys, deduplicated by identifier.
// Unknown identifiers are logged and skipped; a missing tool must never
// abort the conversation. When the snapshot names an open post, the
// current-post tool is appended regardless of manifest membership so the
// model can always introspect the post the user is looking at.
func (r *Registry) Resolve(ctx context.Context, keys []string, snap *domain.ContextSnapshot, deps Deps) []*Tool {
	log := observability.LoggerFromContext(ctx)

	seen := make(map[string]bool)
	var resolved []*Tool
	add := func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		t, ok := r.Build(name, deps)
		if !ok {
			log.Warn("manifest references unknown tool, skipping", "tool", name)
			return
		}
		resolved = append(resolved, t)
	}

	for _, key := range keys {
		for _, name := range manifest[key] {
			add(name)
		}
	}

	if snap != nil && snap.PostID != "" {
		add(ToolGetCurrentPost)
	}

	return resolved
}
