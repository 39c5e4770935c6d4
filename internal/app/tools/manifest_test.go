package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memstore "github.com/cadencehq/cadence-agent/internal/adapters/storage/memory"
	"github.com/cadencehq/cadence-agent/internal/app/agentctx"
	"github.com/cadencehq/cadence-agent/internal/domain"
)

func testDeps() Deps {
	return Deps{Repo: memstore.NewContentRepo()}
}

func names(resolved []*Tool) []string {
	out := make([]string, len(resolved))
	for i, t := range resolved {
		out[i] = t.Name
	}
	return out
}

func TestResolveGlobalOnly(t *testing.T) {
	r := NewRegistry()
	resolved := r.Resolve(context.Background(), []string{agentctx.KeyGlobal}, nil, testDeps())

	assert.ElementsMatch(t, []string{
		ToolListPosts,
		ToolGetBrandRules,
		ToolGenerateCaption,
		ToolGradeCaption,
		ToolNavigateToCalendar,
		ToolCreatePost,
	}, names(resolved))
}

func TestResolveUnionDeduplicates(t *testing.T) {
	r := NewRegistry()
	resolved := r.Resolve(context.Background(), []string{agentctx.KeyGlobal, agentctx.KeyCalendar}, nil, testDeps())

	seen := map[string]int{}
	for _, name := range names(resolved) {
		seen[name]++
	}
	for name, count := range seen {
		assert.Equal(t, 1, count, "tool %s resolved more than once", name)
	}
	assert.Contains(t, seen, ToolListMedia)
	assert.Contains(t, seen, ToolOpenPost)
}

func TestResolveSkipsUnknownManifestEntry(t *testing.T) {
	orig := manifest[agentctx.KeyGlobal]
	manifest[agentctx.KeyGlobal] = append(append([]string{}, orig...), "search_stock_photos")
	defer func() { manifest[agentctx.KeyGlobal] = orig }()

	r := NewRegistry()
	resolved := r.Resolve(context.Background(), []string{agentctx.KeyGlobal}, nil, testDeps())

	assert.NotContains(t, names(resolved), "search_stock_photos")
	assert.Len(t, resolved, len(orig))
}

func TestResolveAppendsCurrentPostToolForOpenPost(t *testing.T) {
	r := NewRegistry()
	snap := &domain.ContextSnapshot{Page: "calendar", PostID: "post-1"}

	resolved := r.Resolve(context.Background(), []string{agentctx.KeyGlobal}, snap, testDeps())
	assert.Contains(t, names(resolved), ToolGetCurrentPost)

	// Already-present entries are not duplicated.
	resolved = r.Resolve(context.Background(), []string{agentctx.KeyGlobal, agentctx.KeyPostEditor}, snap, testDeps())
	count := 0
	for _, name := range names(resolved) {
		if name == ToolGetCurrentPost {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestClientToolsAreReturnDirect(t *testing.T) {
	r := NewRegistry()
	deps := testDeps()

	for _, name := range []string{ToolNavigateToCalendar, ToolCreatePost, ToolOpenPost, ToolApplyCaption} {
		tool, ok := r.Build(name, deps)
		require.True(t, ok, name)
		assert.True(t, tool.ReturnDirect, "%s must be client-deferred", name)
	}
	for _, name := range []string{ToolListPosts, ToolGetPost, ToolGetBrandRules, ToolGenerateCaption} {
		tool, ok := r.Build(name, deps)
		require.True(t, ok, name)
		assert.False(t, tool.ReturnDirect, "%s must run server-side", name)
	}
}

func TestBuildUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Build("does_not_exist", testDeps())
	assert.False(t, ok)
}
