package domain

import "time"

// Post is a scheduled piece of content on a calendar.
type Post struct {
	ID          PostID     `json:"id"`
	CalendarID  CalendarID `json:"calendar_id"`
	Caption     string     `json:"caption"`
	Platform    string     `json:"platform"`
	Status      string     `json:"status"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	ImageCount  int        `json:"image_count"`
}

// Note is a free-form planning note. Content is the rich-content
// representation (block structure serialized as JSON); PlainText extracts
// the readable text for prompt injection.
type Note struct {
	ID         NoteID     `json:"id"`
	CalendarID CalendarID `json:"calendar_id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
}

// MediaItem is an uploaded asset in the calendar's media library.
type MediaItem struct {
	ID         MediaID    `json:"id"`
	CalendarID CalendarID `json:"calendar_id"`
	FileName   string     `json:"file_name"`
	Kind       string     `json:"kind"`
}

// BrandRule is one entry of the calendar's brand-voice policy. Rules are
// owned by the calendar and read-only from the agent's perspective.
type BrandRule struct {
	ID          RuleID `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

// RuleScore grades a caption against a single brand rule.
type RuleScore struct {
	RuleID   RuleID `json:"rule_id"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// BrandScore is the full grade of a caption against the enabled rules.
type BrandScore struct {
	Overall     int         `json:"overall"`
	PerRule     []RuleScore `json:"per_rule"`
	Suggestions []string    `json:"suggestions"`
}

// GeneratedCaption is the output of the reflect-refine generator.
type GeneratedCaption struct {
	Caption string     `json:"caption"`
	Score   BrandScore `json:"score"`
	Refined bool       `json:"refined"`
}
