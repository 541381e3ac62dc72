package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewType_String(t *testing.T) {
	tests := []struct {
		view ViewType
		want string
	}{
		{ViewMenu, "menu"},
		{ViewSearch, "search"},
		{ViewDocuments, "documents"},
		{ViewContent, "content"},
		{ViewEntities, "entities"},
		{ViewHelp, "help"},
		{ViewType(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.view.String())
	}
}

func TestSearchMode_String(t *testing.T) {
	assert.Equal(t, "similarity", ModeSimilarity.String())
	assert.Equal(t, "keyword", ModeKeyword.String())
}
