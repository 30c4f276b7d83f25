package model

import "strings"

// Category is the organizational label attached to a stored message.
type Category string

// The closed set of labels a message may carry.
const (
	CategoryInbox      Category = "Inbox"
	CategoryWork       Category = "Work"
	CategoryFinance    Category = "Finance"
	CategorySocial     Category = "Social"
	CategoryPromotions Category = "Promotions"
)

// Categories lists every valid label in display order.
var Categories = []Category{
	CategoryInbox,
	CategoryWork,
	CategoryFinance,
	CategorySocial,
	CategoryPromotions,
}

// Valid reports whether c is one of the five known labels.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory resolves s to a known label, ignoring case and surrounding
// whitespace. Anything unrecognized resolves to CategoryInbox.
func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	for _, known := range Categories {
		if strings.EqualFold(s, string(known)) {
			return known
		}
	}
	return CategoryInbox
}

// Message is a stored mail item.
type Message struct {
	// ID is unique within the store. Zero means "let the store assign one".
	ID int64 `json:"id"`

	// Subject is the message subject line.
	Subject string `json:"subject"`

	// Sender is the display form of the From address.
	Sender string `json:"sender"`

	// DateLabel is a display-ready date string; it is never parsed.
	DateLabel string `json:"date_label"`

	// Body is the plain-text message body.
	Body string `json:"body"`

	// HasAttachment reports whether the original message carried attachments.
	HasAttachment bool `json:"has_attachment"`

	// Category is the current organizational label.
	Category Category `json:"category"`
}

// NeedsCategory reports whether the message still carries the default label
// and is therefore eligible for automatic categorization.
func (m Message) NeedsCategory() bool {
	return m.Category == CategoryInbox || m.Category == ""
}
