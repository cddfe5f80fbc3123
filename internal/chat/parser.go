package chat

import (
	"strings"

	"dinediscover/internal/models"
)

// NoResultsText is the assistant reply for an empty result set.
const NoResultsText = "No results found."

const (
	bulletPrefix     = "- "
	addressSeparator = " ("
)

// ResultParser recovers restaurant records from an entry's text.
type ResultParser interface {
	Parse(content string, role models.Role) []models.RestaurantRecord
}

// LineParser reads one "- Name (Address)" record per line.
type LineParser struct{}

func (LineParser) Parse(content string, role models.Role) []models.RestaurantRecord {
	return ParseRecords(content, role)
}

// ParseRecords returns nil for non-assistant roles, blank content and the no-results reply.
// The name is everything before the first " (" and the address keeps its "(" prefix.
func ParseRecords(content string, role models.Role) []models.RestaurantRecord {
	if role != models.RoleAssistant {
		return nil
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" || trimmed == NoResultsText {
		return nil
	}

	var records []models.RestaurantRecord
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimRight(line, "\r")
		line = strings.TrimPrefix(line, bulletPrefix)
		if strings.TrimSpace(line) == "" {
			continue
		}

		name, rest, found := strings.Cut(line, addressSeparator)
		if strings.TrimSpace(name) == "" {
			continue
		}

		record := models.RestaurantRecord{Name: name}
		if found {
			record.Address = "(" + rest
		}
		records = append(records, record)
	}
	return records
}

// IsRestaurantResult reports whether an entry renders as a result list.
func IsRestaurantResult(p ResultParser, entry models.ChatEntry) bool {
	return len(p.Parse(entry.Content, entry.Role)) > 0
}

// FormatRecords writes records back as bullet lines that parse to the same records.
func FormatRecords(records []models.RestaurantRecord) string {
	lines := make([]string, 0, len(records))
	for _, r := range records {
		line := bulletPrefix + r.Name
		if r.Address != "" {
			line += " " + r.Address
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
