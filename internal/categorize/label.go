package categorize

import (
	"fmt"
	"strings"

	"github.com/nhle/neuralmail/internal/model"
	"github.com/nhle/neuralmail/internal/sanitize"
)

// ParseLabel extracts a category from free-form model output. Matching is
// case-insensitive; when several labels appear, the one occurring earliest
// in the text wins. Text naming no label resolves to Inbox.
func ParseLabel(text string) model.Category {
	lower := strings.ToLower(text)

	best := model.CategoryInbox
	bestAt := -1
	for _, c := range model.Categories {
		at := strings.Index(lower, strings.ToLower(string(c)))
		if at < 0 {
			continue
		}
		if bestAt < 0 || at < bestAt {
			best, bestAt = c, at
		}
	}
	return best
}

func labelPrompt(m model.Message, bodyChars int) string {
	names := make([]string, 0, len(model.Categories))
	for _, c := range model.Categories {
		names = append(names, string(c))
	}

	return fmt.Sprintf(
		"Categorize this email into exactly one of these categories: %s.\n"+
			"Respond with only the category name.\n\n"+
			"Subject: %s\nBody: %s",
		strings.Join(names, ", "),
		sanitize.Text(m.Subject),
		sanitize.Truncate(sanitize.Text(m.Body), bodyChars),
	)
}
