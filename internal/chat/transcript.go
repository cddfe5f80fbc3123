package chat

import "dinediscover/internal/models"

// Transcript is the append-only conversation history.
// It is owned by a single Controller and is not safe for concurrent writers.
type Transcript struct {
	entries []models.ChatEntry
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds entry at the end and stamps its Seq.
func (t *Transcript) Append(entry models.ChatEntry) models.ChatEntry {
	entry.Seq = len(t.entries) + 1
	t.entries = append(t.entries, entry)
	return entry
}

// Entries returns a copy; later appends do not show up in it.
func (t *Transcript) Entries() []models.ChatEntry {
	out := make([]models.ChatEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Transcript) IsEmpty() bool {
	return len(t.entries) == 0
}

func (t *Transcript) Len() int {
	return len(t.entries)
}

// LastRole returns the role of the newest entry, or false when empty.
func (t *Transcript) LastRole() (models.Role, bool) {
	if len(t.entries) == 0 {
		return "", false
	}
	return t.entries[len(t.entries)-1].Role, true
}
