package chat

import (
	"testing"

	"dinediscover/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscript_AppendAndRead(t *testing.T) {
	tr := NewTranscript()
	assert.True(t, tr.IsEmpty())

	_, ok := tr.LastRole()
	assert.False(t, ok)

	first := tr.Append(models.NewChatEntry(models.RoleUser, "sushi near Seattle"))
	second := tr.Append(models.NewChatEntry(models.RoleAssistant, "- A (b)"))

	assert.Equal(t, 1, first.Seq)
	assert.Equal(t, 2, second.Seq)
	assert.Equal(t, 2, tr.Len())
	assert.False(t, tr.IsEmpty())

	role, ok := tr.LastRole()
	require.True(t, ok)
	assert.Equal(t, models.RoleAssistant, role)

	entries := tr.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "sushi near Seattle", entries[0].Content)
	assert.Equal(t, models.RoleUser, entries[0].Role)
}

func TestTranscript_EntriesIsSnapshot(t *testing.T) {
	tr := NewTranscript()
	tr.Append(models.NewChatEntry(models.RoleUser, "one"))

	snapshot := tr.Entries()
	snapshot[0].Content = "mutated"
	tr.Append(models.NewChatEntry(models.RoleAssistant, "two"))

	assert.Len(t, snapshot, 1)
	assert.Equal(t, "one", tr.Entries()[0].Content)
}

func TestNewChatEntry_DistinctOrderedIDs(t *testing.T) {
	ids := make([]string, 0, 100)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		e := models.NewChatEntry(models.RoleUser, "same instant")
		assert.False(t, seen[e.ID], "duplicate id %s", e.ID)
		seen[e.ID] = true
		ids = append(ids, e.ID)
	}

	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i])
	}
}
