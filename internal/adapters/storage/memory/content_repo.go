package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/cadencehq/cadence-agent/internal/domain"
)

// ContentRepo is an in-memory domain.ContentRepository. The real product
// backs this port with its CRUD service; this implementation exists for
// development and tests. Authorization is modeled explicitly: every read
// checks the (user, calendar) grant and fails with ErrForbidden without
// one, matching the production contract.
type ContentRepo struct {
	mu     sync.RWMutex
	grants map[domain.UserID]map[domain.CalendarID]bool
	posts  map[domain.PostID]*domain.Post
	notes  map[domain.NoteID]*domain.Note
	rules  map[domain.CalendarID][]*domain.BrandRule
	media  map[domain.CalendarID][]*domain.MediaItem
}

func NewContentRepo() *ContentRepo {
	return &ContentRepo{
		grants: make(map[domain.UserID]map[domain.CalendarID]bool),
		posts:  make(map[domain.PostID]*domain.Post),
		notes:  make(map[domain.NoteID]*domain.Note),
		rules:  make(map[domain.CalendarID][]*domain.BrandRule),
		media:  make(map[domain.CalendarID][]*domain.MediaItem),
	}
}

// Grant authorizes a user for a calendar.
func (r *ContentRepo) Grant(userID domain.UserID, calendarID domain.CalendarID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.grants[userID] == nil {
		r.grants[userID] = make(map[domain.CalendarID]bool)
	}
	r.grants[userID][calendarID] = true
}

func (r *ContentRepo) AddPost(p *domain.Post)                               { r.mu.Lock(); r.posts[p.ID] = p; r.mu.Unlock() }
func (r *ContentRepo) AddNote(n *domain.Note)                               { r.mu.Lock(); r.notes[n.ID] = n; r.mu.Unlock() }
func (r *ContentRepo) AddRule(c domain.CalendarID, b *domain.BrandRule)     { r.mu.Lock(); r.rules[c] = append(r.rules[c], b); r.mu.Unlock() }
func (r *ContentRepo) AddMedia(c domain.CalendarID, m *domain.MediaItem)    { r.mu.Lock(); r.media[c] = append(r.media[c], m); r.mu.Unlock() }

func (r *ContentRepo) authorize(userID domain.UserID, calendarID domain.CalendarID) error {
	if !r.grants[userID][calendarID] {
		return fmt.Errorf("user %s on calendar %s: %w", userID, calendarID, domain.ErrForbidden)
	}
	return nil
}

func (r *ContentRepo) GetBrandRules(ctx context.Context, userID domain.UserID, calendarID domain.CalendarID) ([]*domain.BrandRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.authorize(userID, calendarID); err != nil {
		return nil, err
	}
	out := make([]*domain.BrandRule, len(r.rules[calendarID]))
	copy(out, r.rules[calendarID])
	return out, nil
}

func (r *ContentRepo) GetPosts(ctx context.Context, userID domain.UserID, calendarID domain.CalendarID) ([]*domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.authorize(userID, calendarID); err != nil {
		return nil, err
	}
	var out []*domain.Post
	for _, p := range r.posts {
		if p.CalendarID == calendarID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *ContentRepo) GetPost(ctx context.Context, userID domain.UserID, calendarID domain.CalendarID, id domain.PostID) (*domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.authorize(userID, calendarID); err != nil {
		return nil, err
	}
	p, ok := r.posts[id]
	if !ok || p.CalendarID != calendarID {
		return nil, fmt.Errorf("post %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func (r *ContentRepo) GetNote(ctx context.Context, userID domain.UserID, calendarID domain.CalendarID, id domain.NoteID) (*domain.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.authorize(userID, calendarID); err != nil {
		return nil, err
	}
	n, ok := r.notes[id]
	if !ok || n.CalendarID != calendarID {
		return nil, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}
	return n, nil
}

func (r *ContentRepo) GetMediaByCalendar(ctx context.Context, userID domain.UserID, calendarID domain.CalendarID) ([]*domain.MediaItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.authorize(userID, calendarID); err != nil {
		return nil, err
	}
	out := make([]*domain.MediaItem, len(r.media[calendarID]))
	copy(out, r.media[calendarID])
	return out, nil
}
