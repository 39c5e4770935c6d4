package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/cadence-agent/internal/domain"
)

func TestThreadStoreAppendAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewThreadStore()

	require.NoError(t, s.AppendMessages(ctx, "thread-1",
		&domain.Message{ID: "m1", ThreadID: "thread-1", Role: domain.RoleUser, Content: "hi"},
		&domain.Message{ID: "m2", ThreadID: "thread-1", Role: domain.RoleAssistant, Content: "hello"},
	))
	require.NoError(t, s.AppendMessages(ctx, "thread-1",
		&domain.Message{ID: "m3", ThreadID: "thread-1", Role: domain.RoleUser, Content: "more"},
	))

	msgs, err := s.GetMessages(ctx, "thread-1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, domain.MessageID("m1"), msgs[0].ID)
	assert.Equal(t, domain.MessageID("m3"), msgs[2].ID)
}

func TestThreadStoreUnknownThreadIsEmpty(t *testing.T) {
	msgs, err := NewThreadStore().GetMessages(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestThreadStoreReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewThreadStore()
	require.NoError(t, s.AppendMessages(ctx, "thread-1",
		&domain.Message{ID: "m1", Role: domain.RoleUser},
	))

	msgs, err := s.GetMessages(ctx, "thread-1")
	require.NoError(t, err)
	msgs[0] = nil

	again, err := s.GetMessages(ctx, "thread-1")
	require.NoError(t, err)
	require.NotNil(t, again[0])
}

func TestContentRepoAuthorization(t *testing.T) {
	ctx := context.Background()
	repo := NewContentRepo()
	repo.Grant("user-1", "cal-1")
	repo.AddPost(&domain.Post{ID: "post-1", CalendarID: "cal-1"})

	_, err := repo.GetPosts(ctx, "user-2", "cal-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = repo.GetPosts(ctx, "user-1", "cal-2")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	posts, err := repo.GetPosts(ctx, "user-1", "cal-1")
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestContentRepoGetPostScopedToCalendar(t *testing.T) {
	ctx := context.Background()
	repo := NewContentRepo()
	repo.Grant("user-1", "cal-1")
	repo.Grant("user-1", "cal-2")
	repo.AddPost(&domain.Post{ID: "post-1", CalendarID: "cal-2"})

	// The post exists but belongs to another calendar.
	_, err := repo.GetPost(ctx, "user-1", "cal-1", "post-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p, err := repo.GetPost(ctx, "user-1", "cal-2", "post-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PostID("post-1"), p.ID)
}

func TestContentRepoGetNote(t *testing.T) {
	ctx := context.Background()
	repo := NewContentRepo()
	repo.Grant("user-1", "cal-1")
	repo.AddNote(&domain.Note{ID: "note-1", CalendarID: "cal-1", Title: "Ideas"})

	n, err := repo.GetNote(ctx, "user-1", "cal-1", "note-1")
	require.NoError(t, err)
	assert.Equal(t, "Ideas", n.Title)

	_, err = repo.GetNote(ctx, "user-1", "cal-1", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
