// Package terminal draws the chat view on a line-oriented terminal.
package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"dinediscover/internal/chat"
	"dinediscover/internal/models"
)

const (
	WelcomeTitle = "Welcome to the DineDiscover!"
	WelcomeHint  = `Enter a natural language query describing the restaurant you're looking for (e.g., "cheap sushi near downtown LA open now"). ` +
		"The system uses an LLM to understand your request, queries the Foursquare Places API, and displays the results."
	ThinkingText = "Thinking..."
	ExitHint     = "Type 'exit' or press Ctrl+C to quit."

	UserPrompt = "You: "
)

var (
	userStyle      = color.New(color.FgGreen, color.Bold)
	assistantStyle = color.New(color.FgCyan, color.Bold)
	nameStyle      = color.New(color.Bold)
	addressStyle   = color.New(color.Faint)
	thinkingStyle  = color.New(color.Faint, color.Italic)
	noticeStyle    = color.New(color.FgRed, color.Bold)
)

// Renderer prints a View incrementally. A terminal cannot redraw, so
// entries already printed are skipped on later calls.
type Renderer struct {
	mu sync.Mutex
	w  io.Writer

	printed      int
	welcomed     bool
	thinkingSeen int // entry count the thinking line was shown for
}

var _ chat.Renderer = (*Renderer)(nil)

func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w, thinkingSeen: -1}
}

func (r *Renderer) Render(v chat.View) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v.Empty {
		if r.welcomed {
			return nil
		}
		r.welcomed = true
		return r.welcome()
	}

	for _, item := range v.Items[min(r.printed, len(v.Items)):] {
		if err := r.item(item); err != nil {
			return err
		}
	}
	r.printed = max(r.printed, len(v.Items))

	if v.Thinking && r.thinkingSeen != len(v.Items) {
		r.thinkingSeen = len(v.Items)
		if _, err := thinkingStyle.Fprintln(r.w, ThinkingText); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) welcome() error {
	var b strings.Builder
	b.WriteString(assistantStyle.Sprint(WelcomeTitle))
	b.WriteString("\n")
	b.WriteString(WelcomeHint)
	b.WriteString("\n")
	b.WriteString(addressStyle.Sprint(ExitHint))
	b.WriteString("\n\n")
	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *Renderer) item(item chat.ViewItem) error {
	switch {
	case item.Entry.Role == models.RoleUser:
		// the prompt already echoed the user's line
		return nil
	case item.IsRestaurantResult:
		_, err := io.WriteString(r.w, Cards(item.Restaurants))
		return err
	default:
		_, err := fmt.Fprintf(r.w, "%s%s\n\n", assistantStyle.Sprint("Assistant: "), item.Entry.Content)
		return err
	}
}

// Cards lays restaurants out as numbered two-line cards. The address line is
// omitted when the record has none.
func Cards(records []models.RestaurantRecord) string {
	var b strings.Builder
	for i, rec := range records {
		fmt.Fprintf(&b, "%2d. %s\n", i+1, nameStyle.Sprint(rec.Name))
		if rec.Address != "" {
			fmt.Fprintf(&b, "    %s\n", addressStyle.Sprint(rec.Address))
		}
	}
	b.WriteString("\n")
	return b.String()
}

// Prompt prints the input prompt.
func (r *Renderer) Prompt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	userStyle.Fprint(r.w, UserPrompt)
}

// Notifier prints transient notifications on their own line.
type Notifier struct {
	mu sync.Mutex
	w  io.Writer
}

var _ chat.Notifier = (*Notifier)(nil)

func NewNotifier(w io.Writer) *Notifier {
	return &Notifier{w: w}
}

func (n *Notifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	noticeStyle.Fprintf(n.w, "! %s\n\n", message)
}
