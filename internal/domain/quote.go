// Package domain contains core business entities and rules.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Defaults applied when a quote is created without the optional fields.
const (
	DefaultAuthor   = "Unknown"
	DefaultCategory = "General"

	// ServerCategory is assigned to every quote pulled from the remote source.
	ServerCategory = "Server"

	// AllCategories is the filter value that matches every quote.
	AllCategories = "all"
)

// Quote is a single quotation. It is a value: a quote is always replaced
// whole, never patched field by field.
type Quote struct {
	Text     string `json:"text"`
	Author   string `json:"author"`
	Category string `json:"category"`
}

// NewQuote trims every field, applies defaults for author and category,
// and rejects empty text with ErrEmptyText.
func NewQuote(text, author, category string) (Quote, error) {
	q := Quote{
		Text:     strings.TrimSpace(text),
		Author:   strings.TrimSpace(author),
		Category: strings.TrimSpace(category),
	}

	if q.Text == "" {
		return Quote{}, ErrEmptyText
	}

	if q.Author == "" {
		q.Author = DefaultAuthor
	}

	if q.Category == "" {
		q.Category = DefaultCategory
	}

	return q, nil
}

// Key returns the identity of the quote within a collection.
func (q Quote) Key() string {
	return NormalizeKey(q.Text)
}

// Valid reports whether the quote can be stored as is.
func (q Quote) Valid() bool {
	return strings.TrimSpace(q.Text) != "" && strings.TrimSpace(q.Category) != ""
}

// NormalizeKey folds quote text into its identity key: surrounding
// whitespace removed, lower-cased. Author and category do not participate.
func NormalizeKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// IsAllCategories reports whether a filter value selects every quote.
func IsAllCategories(filter string) bool {
	f := strings.TrimSpace(filter)
	return f == "" || f == AllCategories
}

// SeedQuotes returns the collection installed when durable state is empty.
func SeedQuotes() []Quote {
	return []Quote{
		{Text: "The best way to predict the future is to invent it.", Author: "Alan Kay", Category: "Inspiration"},
		{Text: "Life is what happens when you're busy making other plans.", Author: "John Lennon", Category: "Life"},
		{Text: "Make it hot by striking.", Author: DefaultAuthor, Category: "Motivation"},
	}
}

// ImportResult summarizes one import batch.
type ImportResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`

	// AddedQuotes holds the accepted quotes in batch order.
	AddedQuotes []Quote `json:"-"`
}

// Message is the user-facing summary of the import.
func (r ImportResult) Message() string {
	return fmt.Sprintf("Imported %d new quote(s). Skipped %d. Total now: %d.", r.Added, r.Skipped, r.Total)
}

// MergeResult summarizes one merge of remote quotes into the collection.
type MergeResult struct {
	Updated  int `json:"updated"`
	Inserted int `json:"inserted"`
}

// Changed reports whether the merge touched the collection.
func (r MergeResult) Changed() bool {
	return r.Updated+r.Inserted > 0
}

// Message is the user-facing summary of the merge.
func (r MergeResult) Message() string {
	if !r.Changed() {
		return "Quotes synced with server! No changes."
	}

	return fmt.Sprintf("Quotes synced with server! %d updated from server, %d new.", r.Updated, r.Inserted)
}

// MessageQuoteAdded confirms a successful add.
const MessageQuoteAdded = "New quote added successfully!"

// ExportFilename names a snapshot taken at t:
// quotes-YYYY-MM-DD-hh-mm-ss.json in UTC.
func ExportFilename(t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-", "T", "-").Replace(stamp)

	return "quotes-" + stamp[:19] + ".json"
}
