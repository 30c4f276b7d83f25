package assistant

import (
	"fmt"
	"strings"

	"github.com/nhle/neuralmail/internal/model"
	"github.com/nhle/neuralmail/internal/sanitize"
)

// Every field interpolated below comes from a stored message or from user
// input and is passed through sanitize.Text first.

func summarizePrompt(m model.Message) string {
	return "Summarize this email concisely:\n\n" + messageBlock(m)
}

func replyPrompt(m model.Message) string {
	return "Draft a short, polite reply to the following email. " +
		"Write only the reply body, with no subject line.\n\n" + messageBlock(m)
}

func chatPrompt(msgs []model.Message, question string) string {
	var sb strings.Builder
	sb.WriteString("You are an AI assistant helping with an email inbox. ")
	sb.WriteString("Using the following emails context, answer the user's question.\n\n")
	sb.WriteString("Context:\n")
	for i, m := range msgs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(messageBlock(m))
	}
	fmt.Fprintf(&sb, "\n\nQuestion: %s", sanitize.Text(question))
	return sb.String()
}

func messageBlock(m model.Message) string {
	return fmt.Sprintf("From: %s\nSubject: %s\nBody: %s\n",
		sanitize.Text(m.Sender),
		sanitize.Text(m.Subject),
		sanitize.Text(m.Body),
	)
}
