package domain

import "time"

type ThreadID string
type UserID string
type CalendarID string
type MessageID string
type PostID string
type NoteID string
type MediaID string
type RuleID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// DocType identifies the kind of document held by the relevance index.
type DocType string

const (
	DocTypePost DocType = "post"
	DocTypeNote DocType = "note"
)

type Timestamp = time.Time
