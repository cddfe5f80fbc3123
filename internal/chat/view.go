package chat

import "dinediscover/internal/models"

// ViewItem is one transcript entry as the render surface sees it.
type ViewItem struct {
	Entry              models.ChatEntry
	Restaurants        []models.RestaurantRecord
	IsRestaurantResult bool
}

// View is everything a render surface needs to draw the conversation.
type View struct {
	Empty    bool
	Items    []ViewItem
	Thinking bool
}

// Renderer draws a View. Implementations must not mutate the transcript.
type Renderer interface {
	Render(v View) error
}

// BuildView derives the render view. Thinking is set only while a query is
// outstanding for the newest user entry.
func BuildView(entries []models.ChatEntry, submitting bool, parser ResultParser) View {
	if parser == nil {
		parser = LineParser{}
	}

	v := View{
		Empty: len(entries) == 0,
		Items: make([]ViewItem, 0, len(entries)),
	}
	for _, e := range entries {
		records := parser.Parse(e.Content, e.Role)
		v.Items = append(v.Items, ViewItem{
			Entry:              e,
			Restaurants:        records,
			IsRestaurantResult: len(records) > 0,
		})
	}

	if submitting && len(entries) > 0 {
		v.Thinking = entries[len(entries)-1].Role == models.RoleUser
	}
	return v
}
