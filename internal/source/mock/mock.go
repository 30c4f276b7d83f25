// Package mock provides a deterministic offline mail source used for demo
// accounts and development.
package mock

import (
	"context"

	"github.com/nhle/neuralmail/internal/model"
	"github.com/nhle/neuralmail/internal/source"
)

var fixtures = []model.Message{
	{
		Subject:   "Q3 budget review moved to Thursday",
		Sender:    "Dana Whitfield <dana@northwind.example>",
		DateLabel: "Oct 15, 2026 09:12",
		Body: "Hi all,\n\nThe Q3 budget review is moving to Thursday at 2pm. " +
			"Please have your department forecasts in the shared folder by Wednesday EOD.\n\nThanks,\nDana",
	},
	{
		Subject:       "Your statement is ready",
		Sender:        "Harbor Bank <statements@harborbank.example>",
		DateLabel:     "Oct 15, 2026 07:40",
		Body:          "Your September statement for account ending 4821 is now available. Minimum payment due Nov 3.",
		HasAttachment: true,
	},
	{
		Subject:   "Dinner Saturday?",
		Sender:    "Sam Ortiz <sam.ortiz@mailbox.example>",
		DateLabel: "Oct 14, 2026 21:05",
		Body:      "Hey! A few of us are getting dinner Saturday around 7. Want to join? Thinking the new ramen place.",
	},
	{
		Subject:   "48 hours only: 40% off everything",
		Sender:    "Trailhead Outfitters <deals@trailhead.example>",
		DateLabel: "Oct 14, 2026 16:00",
		Body:      "Our biggest sale of the season is here. Use code FALL40 at checkout. Ends Friday at midnight.",
	},
	{
		Subject:   "PR #482: fix retry backoff in sync worker",
		Sender:    "ci-bot <ci@forge.example>",
		DateLabel: "Oct 14, 2026 14:22",
		Body:      "Build passed. 2 approvals required before merge. Reviewers: @lee, @park.",
	},
	{
		Subject:       "Invoice INV-2291 from Cloudline",
		Sender:        "Cloudline Billing <billing@cloudline.example>",
		DateLabel:     "Oct 13, 2026 11:30",
		Body:          "Invoice INV-2291 for $1,240.00 is due Oct 27. A PDF copy is attached.",
		HasAttachment: true,
	},
	{
		Subject:   "Maya tagged you in a photo",
		Sender:    "Friendscape <notify@friendscape.example>",
		DateLabel: "Oct 13, 2026 10:02",
		Body:      "Maya Chen tagged you in a photo from the lake trip. See what your friends are saying.",
	},
	{
		Subject:   "1:1 agenda",
		Sender:    "Priya Natarajan <priya@northwind.example>",
		DateLabel: "Oct 12, 2026 17:48",
		Body:      "For tomorrow: hiring plan, on-call rotation changes, and your conference talk proposal.",
	},
	{
		Subject:   "Flash sale on headphones",
		Sender:    "SoundHub <offers@soundhub.example>",
		DateLabel: "Oct 12, 2026 08:15",
		Body:      "Noise-cancelling headphones from $79. Free shipping on orders over $50 this weekend.",
	},
	{
		Subject:   "Re: apartment lease renewal",
		Sender:    "Elm Street Properties <leasing@elmst.example>",
		DateLabel: "Oct 11, 2026 13:27",
		Body:      "We have attached the renewal terms. Rent increases 3% starting Dec 1. Please sign by Nov 15.",
	},
	{
		Subject:   "Welcome to the book club",
		Sender:    "Jordan Reyes <jordan@mailbox.example>",
		DateLabel: "Oct 10, 2026 19:33",
		Body:      "Glad you're joining! This month we're reading The Left Hand of Darkness. Meeting on the 28th.",
	},
	{
		Subject:   "Incident postmortem draft",
		Sender:    "Lee Kim <lee@northwind.example>",
		DateLabel: "Oct 10, 2026 15:10",
		Body:      "Draft postmortem for Tuesday's outage is up for review. Root cause was an expired TLS cert on the gateway.",
	},
}

// Source serves a fixed inbox. Every Fetch returns the same messages with
// the same ids.
type Source struct{}

var _ source.Source = Source{}

// New returns the mock source.
func New() Source { return Source{} }

// Name identifies the source.
func (Source) Name() string { return "mock" }

// Fetch returns up to limit fixture messages, newest first.
func (Source) Fetch(ctx context.Context, limit int) ([]model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := len(fixtures)
	if limit > 0 && limit < n {
		n = limit
	}

	msgs := make([]model.Message, n)
	copy(msgs, fixtures[:n])
	return source.AssignIDs(msgs), nil
}
