package domain

import (
	"encoding/json"
	"strings"
)

// noteBlock is the subset of the editor's block structure the agent cares
// about. Nested children are flattened depth-first.
type noteBlock struct {
	Type     string      `json:"type"`
	Text     string      `json:"text"`
	Children []noteBlock `json:"children,omitempty"`
}

// PlainText extracts readable text from the note's rich-content
// representation. Content that is not valid block JSON is returned as-is,
// so plain-text notes keep working.
func (n *Note) PlainText() string {
	var blocks []noteBlock
	if err := json.Unmarshal([]byte(n.Content), &blocks); err != nil {
		return strings.TrimSpace(n.Content)
	}

	var parts []string
	var walk func(bs []noteBlock)
	walk = func(bs []noteBlock) {
		for _, b := range bs {
			if t := strings.TrimSpace(b.Text); t != "" {
				parts = append(parts, t)
			}
			walk(b.Children)
		}
	}
	walk(blocks)

	return strings.Join(parts, "\n")
}
