package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/ArnarValur/therpy-journal-sub000/internal/common"
)

// Granularity describes the precision of the period a life-story entry is
// about. It decides which of the optional date fields are meaningful.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
	GranularityRange Granularity = "range"
	GranularityEra   Granularity = "era"
)

// Valid reports whether g is one of the known granularities.
func (g Granularity) Valid() bool {
	switch g {
	case GranularityDay, GranularityMonth, GranularityYear, GranularityRange, GranularityEra:
		return true
	}
	return false
}

// Location is an optional place a life-story entry is about. Each field is
// independently encrypted at rest.
type Location struct {
	Country string
	City    string
	Details string
}

// CustomField is one user-defined name/value pair attached to a life-story
// entry. Order is preserved; both sides are encrypted at rest.
type CustomField struct {
	Name  string
	Value string
}

// LifeStoryEntry is a record about a point or period of the user's life,
// distinct from the authoring time kept in CreatedAt/UpdatedAt.
type LifeStoryEntry struct {
	ID               string
	Title            string
	Content          string
	EventTimestamp   time.Time
	EventGranularity Granularity
	EventEndDate     *time.Time // only meaningful when EventGranularity == GranularityRange
	EventLabel       string     // only meaningful when EventGranularity == GranularityEra
	Location         *Location
	CustomFields     []CustomField
	CreatedAt        time.Time
	UpdatedAt        time.Time
	UserID           string
	IsDraft          bool
}

// IsEmpty reports whether the entry has neither title nor content.
func (e LifeStoryEntry) IsEmpty() bool {
	return strings.TrimSpace(e.Title) == "" && strings.TrimSpace(e.Content) == ""
}

// ValidateForSubmit checks the explicit-save preconditions, including the
// consistency rules between granularity and its dependent fields.
func (e LifeStoryEntry) ValidateForSubmit() error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", common.ErrValidation)
	}
	if !e.EventGranularity.Valid() {
		return fmt.Errorf("%w: unknown granularity %q", common.ErrValidation, e.EventGranularity)
	}
	if e.EventGranularity == GranularityRange && e.EventEndDate == nil {
		return fmt.Errorf("%w: range granularity requires an end date", common.ErrValidation)
	}
	if e.EventGranularity != GranularityRange && e.EventEndDate != nil {
		return fmt.Errorf("%w: end date only applies to range granularity", common.ErrValidation)
	}
	if e.EventGranularity == GranularityEra && strings.TrimSpace(e.EventLabel) == "" {
		return fmt.Errorf("%w: era granularity requires a label", common.ErrValidation)
	}
	return nil
}
