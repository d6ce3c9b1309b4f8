package entries

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ArnarValur/therpy-journal-sub000/internal/models"
)

// JournalPatch is a partial update for a journal entry. Only non-nil
// fields are re-encrypted and written; id, userId and createdAt are not
// representable here and therefore never writable.
type JournalPatch struct {
	Title      *string
	Content    *string
	Tags       *[]string
	Sentiments *map[string]int
	IsDraft    *bool
}

// FullJournalPatch returns a patch carrying every writable field of e.
// Used by explicit saves, which persist the whole form snapshot.
func FullJournalPatch(e models.JournalEntry) JournalPatch {
	tags := e.Tags
	sentiments := e.Sentiments
	return JournalPatch{
		Title:      &e.Title,
		Content:    &e.Content,
		Tags:       &tags,
		Sentiments: &sentiments,
		IsDraft:    &e.IsDraft,
	}
}

func (c *codec) journalPatch(ctx context.Context, p JournalPatch) ([]byte, error) {
	fields := map[string]any{}

	if p.Title != nil {
		ct, err := c.crypto.Encrypt(ctx, *p.Title)
		if err != nil {
			return nil, err
		}
		fields["title"] = ct
	}
	if p.Content != nil {
		ct, err := c.crypto.Encrypt(ctx, *p.Content)
		if err != nil {
			return nil, err
		}
		fields["content"] = ct
	}
	if p.Tags != nil {
		tags := make([]string, len(*p.Tags))
		for i, tag := range *p.Tags {
			ct, err := c.crypto.Encrypt(ctx, tag)
			if err != nil {
				return nil, err
			}
			tags[i] = ct
		}
		fields["tags"] = tags
	}
	if p.Sentiments != nil {
		blob, err := c.sealSentiments(ctx, *p.Sentiments)
		if err != nil {
			return nil, err
		}
		fields["sentiments"] = blob
	}
	if p.IsDraft != nil {
		fields["isDraft"] = *p.IsDraft
	}

	return json.Marshal(fields)
}

// LifeStoryPatch is a partial update for a life-story entry. The Clear
// flags remove optional fields that no longer apply (e.g. the end date
// after the granularity moved away from "range").
type LifeStoryPatch struct {
	Title            *string
	Content          *string
	EventTimestamp   *time.Time
	EventGranularity *models.Granularity
	EventEndDate     *time.Time
	ClearEndDate     bool
	EventLabel       *string
	ClearLabel       bool
	Location         *models.Location
	ClearLocation    bool
	CustomFields     *[]models.CustomField
	IsDraft          *bool
}

// FullLifeStoryPatch returns a patch carrying every writable field of e,
// clearing the optional fields the entry no longer has.
func FullLifeStoryPatch(e models.LifeStoryEntry) LifeStoryPatch {
	customFields := e.CustomFields
	p := LifeStoryPatch{
		Title:            &e.Title,
		Content:          &e.Content,
		EventTimestamp:   &e.EventTimestamp,
		EventGranularity: &e.EventGranularity,
		CustomFields:     &customFields,
		IsDraft:          &e.IsDraft,
	}
	if e.EventEndDate != nil {
		p.EventEndDate = e.EventEndDate
	} else {
		p.ClearEndDate = true
	}
	if e.EventLabel != "" {
		p.EventLabel = &e.EventLabel
	} else {
		p.ClearLabel = true
	}
	if e.Location != nil {
		p.Location = e.Location
	} else {
		p.ClearLocation = true
	}
	return p
}

func (c *codec) lifeStoryPatch(ctx context.Context, p LifeStoryPatch) ([]byte, error) {
	fields := map[string]any{}

	if p.Title != nil {
		ct, err := c.crypto.Encrypt(ctx, *p.Title)
		if err != nil {
			return nil, err
		}
		fields["title"] = ct
	}
	if p.Content != nil {
		ct, err := c.crypto.Encrypt(ctx, *p.Content)
		if err != nil {
			return nil, err
		}
		fields["content"] = ct
	}
	if p.EventTimestamp != nil {
		fields["eventTimestamp"] = *p.EventTimestamp
	}
	if p.EventGranularity != nil {
		ct, err := c.crypto.Encrypt(ctx, string(*p.EventGranularity))
		if err != nil {
			return nil, err
		}
		fields["eventGranularity"] = ct
	}
	switch {
	case p.ClearEndDate:
		fields["eventEndDate"] = nil
	case p.EventEndDate != nil:
		fields["eventEndDate"] = *p.EventEndDate
	}
	switch {
	case p.ClearLabel:
		fields["eventLabel"] = nil
	case p.EventLabel != nil:
		ct, err := c.crypto.Encrypt(ctx, *p.EventLabel)
		if err != nil {
			return nil, err
		}
		fields["eventLabel"] = ct
	}
	switch {
	case p.ClearLocation:
		fields["location"] = nil
	case p.Location != nil:
		loc, err := c.sealLocation(ctx, p.Location)
		if err != nil {
			return nil, err
		}
		fields["location"] = loc
	}
	if p.CustomFields != nil {
		docs := make([]customFieldDoc, len(*p.CustomFields))
		for i, f := range *p.CustomFields {
			name, err := c.crypto.Encrypt(ctx, f.Name)
			if err != nil {
				return nil, err
			}
			value, err := c.crypto.Encrypt(ctx, f.Value)
			if err != nil {
				return nil, err
			}
			docs[i] = customFieldDoc{FieldName: name, Value: value}
		}
		fields["customFields"] = docs
	}
	if p.IsDraft != nil {
		fields["isDraft"] = *p.IsDraft
	}

	return json.Marshal(fields)
}
