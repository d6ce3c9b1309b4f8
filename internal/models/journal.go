// Package models defines the plaintext domain entities of the journaling
// core. These types only ever live in memory; the repositories in
// internal/entries translate them to and from their encrypted wire shape
// before anything reaches the document store.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/ArnarValur/therpy-journal-sub000/internal/common"
)

// SentimentMin and SentimentMax bound the user-defined sentiment ratings.
const (
	SentimentMin = 0
	SentimentMax = 10
)

// JournalEntry is a single dated journal record owned by exactly one user.
//
// ID, UserID and CreatedAt are write-once: after the first persist only the
// content fields, UpdatedAt and IsDraft change.
type JournalEntry struct {
	ID         string
	Title      string
	Content    string // rich-text markup
	Tags       []string
	Sentiments map[string]int // label -> rating in [0,10]
	CreatedAt  time.Time
	UpdatedAt  time.Time
	UserID     string
	IsDraft    bool
}

// IsEmpty reports whether the entry has neither title nor content. Empty
// entries are never autosaved.
func (e JournalEntry) IsEmpty() bool {
	return strings.TrimSpace(e.Title) == "" && strings.TrimSpace(e.Content) == ""
}

// ValidateForSubmit checks the preconditions for an explicit (non-autosave)
// save. It is called before any encryption or store round-trip.
func (e JournalEntry) ValidateForSubmit() error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", common.ErrValidation)
	}
	for label, rating := range e.Sentiments {
		if rating < SentimentMin || rating > SentimentMax {
			return fmt.Errorf("%w: sentiment %q rating %d out of range", common.ErrValidation, label, rating)
		}
	}
	return nil
}
