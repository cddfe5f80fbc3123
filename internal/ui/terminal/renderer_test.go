package terminal

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinediscover/internal/chat"
	"dinediscover/internal/models"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func entry(role models.Role, content string) models.ChatEntry {
	return models.NewChatEntry(role, content)
}

func TestRenderer_WelcomeOnce(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	require.NoError(t, r.Render(chat.View{Empty: true}))
	require.NoError(t, r.Render(chat.View{Empty: true}))

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(WelcomeTitle)))
	assert.Contains(t, buf.String(), "Foursquare Places API")
}

func TestRenderer_IncrementalItemsAndThinking(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	user := entry(models.RoleUser, "thai in portland")
	pending := chat.BuildView([]models.ChatEntry{user}, true, nil)
	require.True(t, pending.Thinking)

	require.NoError(t, r.Render(pending))
	require.NoError(t, r.Render(pending))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(ThinkingText)), "thinking shown once per pending entry")
	assert.NotContains(t, buf.String(), "thai in portland", "user lines are echoed by the prompt")

	answer := entry(models.RoleAssistant, "- Pok Pok (3226 SE Division St)\n- Nong's (Address N/A)")
	done := chat.BuildView([]models.ChatEntry{user, answer}, false, nil)
	buf.Reset()
	require.NoError(t, r.Render(done))

	assert.Equal(t, " 1. Pok Pok\n    (3226 SE Division St)\n 2. Nong's\n    (Address N/A)\n\n", buf.String())

	buf.Reset()
	require.NoError(t, r.Render(done))
	assert.Empty(t, buf.String())
}

func TestRenderer_PlainAssistantText(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	v := chat.BuildView([]models.ChatEntry{
		entry(models.RoleUser, "anything open?"),
		entry(models.RoleAssistant, chat.NoResultsText),
	}, false, nil)
	require.NoError(t, r.Render(v))

	assert.Equal(t, "Assistant: "+chat.NoResultsText+"\n\n", buf.String())
	assert.NotContains(t, buf.String(), ThinkingText)
}

func TestCards_OmitsMissingAddress(t *testing.T) {
	out := Cards([]models.RestaurantRecord{{Name: "Lardo"}})
	assert.Equal(t, " 1. Lardo\n\n", out)
}

func TestNotifier(t *testing.T) {
	var buf bytes.Buffer
	NewNotifier(&buf).Notify("HTTP error! status: 502")
	assert.Equal(t, "! HTTP error! status: 502\n\n", buf.String())
}
