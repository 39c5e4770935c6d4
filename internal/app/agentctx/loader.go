package agentctx

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cadencehq/cadence-agent/internal/app/retrieval"
	"github.com/cadencehq/cadence-agent/internal/domain"
	"github.com/cadencehq/cadence-agent/internal/observability"
)

// Loader fetches the entities a snapshot references and renders them into
// the context block appended to the system prompt. Every fetch failure is
// caught and logged; a failed fetch degrades that one block to absence
// rather than failing the turn.
type Loader struct {
	repo     domain.ContentRepository
	searcher *retrieval.Searcher
	now      func() time.Time
}

// NewLoader creates a loader. searcher may be nil, which disables the
// relevance-search block.
func NewLoader(repo domain.ContentRepository, searcher *retrieval.Searcher) *Loader {
	return &Loader{
		repo:     repo,
		searcher: searcher,
		now:      time.Now,
	}
}

// LoadInput is everything the loader needs for one turn.
type LoadInput struct {
	UserID     domain.UserID
	CalendarID domain.CalendarID
	Snapshot   *domain.ContextSnapshot
	History    []*domain.Message
	Latest     string
}

// BuildContextBlock renders the full injected context for one turn.
func (l *Loader) BuildContextBlock(ctx context.Context, in LoadInput) string {
	log := observability.LoggerFromContext(ctx).With(
		"user_id", in.UserID,
		"calendar_id", in.CalendarID,
	)

	var b strings.Builder

	if in.Snapshot != nil && in.Snapshot.PostID != "" {
		l.appendOpenPost(ctx, &b, in, log)
	}
	if in.Snapshot != nil && in.Snapshot.NoteID != "" {
		l.appendOpenNote(ctx, &b, in, log)
	}

	l.appendBrandRules(ctx, &b, in, log)
	l.appendDates(&b)
	l.appendRelevantContent(ctx, &b, in, log)

	return b.String()
}

func (l *Loader) appendOpenPost(ctx context.Context, b *strings.Builder, in LoadInput, log *slog.Logger) {
	post, err := l.repo.GetPost(ctx, in.UserID, in.CalendarID, in.Snapshot.PostID)
	if err != nil {
		log.Warn("open post fetch failed", "post_id", in.Snapshot.PostID, "error", err)
		return
	}

	b.WriteString("## Currently open post\n")
	fmt.Fprintf(b, "- id: %s\n", post.ID)
	fmt.Fprintf(b, "- caption: %q\n", post.Caption)
	fmt.Fprintf(b, "- platform: %s\n", post.Platform)
	fmt.Fprintf(b, "- status: %s\n", post.Status)
	fmt.Fprintf(b, "- scheduled for: %s\n", post.ScheduledAt.Format("2006-01-02"))
	fmt.Fprintf(b, "- images attached: %d\n", post.ImageCount)
	fmt.Fprintf(b, "When a tool requires a post id for this post, pass exactly %q.\n\n", string(post.ID))
}

func (l *Loader) appendOpenNote(ctx context.Context, b *strings.Builder, in LoadInput, log *slog.Logger) {
	note, err := l.repo.GetNote(ctx, in.UserID, in.CalendarID, in.Snapshot.NoteID)
	if err != nil {
		log.Warn("open note fetch failed", "note_id", in.Snapshot.NoteID, "error", err)
		return
	}

	b.WriteString("## Currently open note\n")
	fmt.Fprintf(b, "- id: %s\n", note.ID)
	fmt.Fprintf(b, "- title: %s\n", note.Title)
	if text := note.PlainText(); text != "" {
		fmt.Fprintf(b, "- content:\n%s\n", text)
	}
	b.WriteString("\n")
}

func (l *Loader) appendBrandRules(ctx context.Context, b *strings.Builder, in LoadInput, log *slog.Logger) {
	rules, err := l.repo.GetBrandRules(ctx, in.UserID, in.CalendarID)
	if err != nil {
		log.Warn("brand rules fetch failed", "error", err)
		return
	}

	b.WriteString("## Brand voice rules\n")
	var enabled int
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		enabled++
		fmt.Fprintf(b, "- %s: %s\n", r.Title, r.Description)
	}
	if enabled == 0 {
		b.WriteString("No active brand voice rules for this calendar.\n")
	}
	b.WriteString("\n")
}

// appendDates pins down relative date terms so date arithmetic is
// deterministic rather than left to the model's guess.
func (l *Loader) appendDates(b *strings.Builder) {
	now := l.now()
	b.WriteString("## Dates\n")
	fmt.Fprintf(b, "- current date: %s (%s)\n", now.Format("2006-01-02"), now.Weekday())
	fmt.Fprintf(b, "- \"today\" means %s\n", now.Format("2006-01-02"))
	fmt.Fprintf(b, "- \"tomorrow\" means %s\n", now.AddDate(0, 0, 1).Format("2006-01-02"))
	b.WriteString("\n")
}

func (l *Loader) appendRelevantContent(ctx context.Context, b *strings.Builder, in LoadInput, log *slog.Logger) {
	if l.searcher == nil || in.Latest == "" {
		return
	}

	hits, err := l.searcher.Search(ctx, in.CalendarID, in.History, in.Latest)
	if err != nil {
		log.Warn("relevance search failed", "error", err)
		return
	}
	if len(hits) == 0 {
		return
	}

	b.WriteString("## Possibly relevant content\n")
	for _, h := range hits {
		fmt.Fprintf(b, "- [%s %s] %s\n", h.Type, h.ID, h.Text)
	}
	b.WriteString("\n")
}
