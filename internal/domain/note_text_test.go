package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainTextFlattensBlocks(t *testing.T) {
	n := &Note{Content: `[
		{"type":"heading","text":"July campaign","children":[]},
		{"type":"paragraph","children":[
			{"text":"Run a giveaway."},
			{"text":"Partner with two creators."}
		]}
	]`}

	assert.Equal(t, "July campaign\nRun a giveaway.\nPartner with two creators.", n.PlainText())
}

func TestPlainTextFallsBackToRawContent(t *testing.T) {
	n := &Note{Content: "  just a plain note  "}
	assert.Equal(t, "just a plain note", n.PlainText())
}

func TestPlainTextEmptyBlocks(t *testing.T) {
	n := &Note{Content: `[{"type":"paragraph","text":"  ","children":[]}]`}
	assert.Equal(t, "", n.PlainText())
}
