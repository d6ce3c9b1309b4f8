package entries

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ArnarValur/therpy-journal-sub000/internal/cryptox"
	"github.com/ArnarValur/therpy-journal-sub000/internal/logging"
	"github.com/ArnarValur/therpy-journal-sub000/internal/models"
	"github.com/ArnarValur/therpy-journal-sub000/internal/store"
)

// Document kinds as stored under each user's namespace.
const (
	KindJournal   = "journal"
	KindLifeStory = "lifestory"
)

type sentimentBlob struct {
	Data string `json:"data"`
}

type journalDoc struct {
	Title      string         `json:"title,omitempty"`
	Content    string         `json:"content,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	Sentiments *sentimentBlob `json:"sentiments,omitempty"`
	IsDraft    bool           `json:"isDraft"`
}

type locationDoc struct {
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
	Details string `json:"details,omitempty"`
}

type customFieldDoc struct {
	FieldName string `json:"fieldName"`
	Value     string `json:"value"`
}

type lifeStoryDoc struct {
	Title            string           `json:"title,omitempty"`
	Content          string           `json:"content,omitempty"`
	EventTimestamp   *time.Time       `json:"eventTimestamp,omitempty"`
	EventGranularity string           `json:"eventGranularity,omitempty"`
	EventEndDate     *time.Time       `json:"eventEndDate,omitempty"`
	EventLabel       string           `json:"eventLabel,omitempty"`
	Location         *locationDoc     `json:"location,omitempty"`
	CustomFields     []customFieldDoc `json:"customFields,omitempty"`
	IsDraft          bool             `json:"isDraft"`
}

// codec seals and opens entity fields. The strict path propagates the
// first decryption failure; the lenient path (listings) degrades the
// failing field to its zero value and logs.
type codec struct {
	crypto *cryptox.Service
	log    logging.Logger
}

func (c *codec) encodeJournal(ctx context.Context, e models.JournalEntry) ([]byte, error) {
	doc := journalDoc{IsDraft: e.IsDraft}

	var err error
	if doc.Title, err = c.crypto.Encrypt(ctx, e.Title); err != nil {
		return nil, err
	}
	if doc.Content, err = c.crypto.Encrypt(ctx, e.Content); err != nil {
		return nil, err
	}
	if e.Tags != nil {
		doc.Tags = make([]string, len(e.Tags))
		for i, tag := range e.Tags {
			if doc.Tags[i], err = c.crypto.Encrypt(ctx, tag); err != nil {
				return nil, err
			}
		}
	}
	if e.Sentiments != nil {
		blob, err := c.sealSentiments(ctx, e.Sentiments)
		if err != nil {
			return nil, err
		}
		doc.Sentiments = blob
	}

	return json.Marshal(doc)
}

func (c *codec) sealSentiments(ctx context.Context, sentiments map[string]int) (*sentimentBlob, error) {
	raw, err := json.Marshal(sentiments)
	if err != nil {
		return nil, err
	}
	data, err := c.crypto.Encrypt(ctx, string(raw))
	if err != nil {
		return nil, err
	}
	return &sentimentBlob{Data: data}, nil
}

// decodeJournal reconstructs the plaintext entry from a stored document.
// With lenient=false the first failing field aborts the decode; with
// lenient=true failing fields degrade to zero values.
func (c *codec) decodeJournal(ctx context.Context, doc *store.Document, lenient bool) (models.JournalEntry, error) {
	var wire journalDoc
	if err := json.Unmarshal(doc.Payload, &wire); err != nil {
		return models.JournalEntry{}, fmt.Errorf("malformed journal document %s: %w", doc.ID, err)
	}

	e := models.JournalEntry{
		ID:        doc.ID,
		UserID:    doc.UserID,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
		IsDraft:   wire.IsDraft,
	}

	var err error
	if e.Title, err = c.openField(ctx, doc.ID, "title", wire.Title, lenient); err != nil {
		return models.JournalEntry{}, err
	}
	if e.Content, err = c.openField(ctx, doc.ID, "content", wire.Content, lenient); err != nil {
		return models.JournalEntry{}, err
	}
	if wire.Tags != nil {
		e.Tags = make([]string, len(wire.Tags))
		for i, ct := range wire.Tags {
			if e.Tags[i], err = c.openField(ctx, doc.ID, "tag", ct, lenient); err != nil {
				return models.JournalEntry{}, err
			}
		}
	}
	if wire.Sentiments != nil {
		sentiments, sErr := c.openSentiments(ctx, wire.Sentiments)
		if sErr != nil {
			if !lenient {
				return models.JournalEntry{}, sErr
			}
			c.log.Warn(ctx, "sentiment blob failed to decrypt, degrading to empty map",
				"entry_id", doc.ID, "error", sErr)
			sentiments = map[string]int{}
		}
		e.Sentiments = sentiments
	}

	return e, nil
}

func (c *codec) openSentiments(ctx context.Context, blob *sentimentBlob) (map[string]int, error) {
	raw, err := c.crypto.Decrypt(ctx, blob.Data)
	if err != nil {
		return nil, err
	}
	var sentiments map[string]int
	if err := json.Unmarshal([]byte(raw), &sentiments); err != nil {
		return nil, err
	}
	return sentiments, nil
}

func (c *codec) encodeLifeStory(ctx context.Context, e models.LifeStoryEntry) ([]byte, error) {
	doc := lifeStoryDoc{IsDraft: e.IsDraft}

	var err error
	if doc.Title, err = c.crypto.Encrypt(ctx, e.Title); err != nil {
		return nil, err
	}
	if doc.Content, err = c.crypto.Encrypt(ctx, e.Content); err != nil {
		return nil, err
	}
	if !e.EventTimestamp.IsZero() {
		ts := e.EventTimestamp
		doc.EventTimestamp = &ts
	}
	if e.EventGranularity != "" {
		if doc.EventGranularity, err = c.crypto.Encrypt(ctx, string(e.EventGranularity)); err != nil {
			return nil, err
		}
	}
	if e.EventEndDate != nil {
		end := *e.EventEndDate
		doc.EventEndDate = &end
	}
	if e.EventLabel != "" {
		if doc.EventLabel, err = c.crypto.Encrypt(ctx, e.EventLabel); err != nil {
			return nil, err
		}
	}
	if e.Location != nil {
		loc, lErr := c.sealLocation(ctx, e.Location)
		if lErr != nil {
			return nil, lErr
		}
		doc.Location = loc
	}
	if e.CustomFields != nil {
		doc.CustomFields = make([]customFieldDoc, len(e.CustomFields))
		for i, f := range e.CustomFields {
			name, nErr := c.crypto.Encrypt(ctx, f.Name)
			if nErr != nil {
				return nil, nErr
			}
			value, vErr := c.crypto.Encrypt(ctx, f.Value)
			if vErr != nil {
				return nil, vErr
			}
			doc.CustomFields[i] = customFieldDoc{FieldName: name, Value: value}
		}
	}

	return json.Marshal(doc)
}

func (c *codec) sealLocation(ctx context.Context, loc *models.Location) (*locationDoc, error) {
	var out locationDoc
	var err error
	if loc.Country != "" {
		if out.Country, err = c.crypto.Encrypt(ctx, loc.Country); err != nil {
			return nil, err
		}
	}
	if loc.City != "" {
		if out.City, err = c.crypto.Encrypt(ctx, loc.City); err != nil {
			return nil, err
		}
	}
	if loc.Details != "" {
		if out.Details, err = c.crypto.Encrypt(ctx, loc.Details); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

func (c *codec) decodeLifeStory(ctx context.Context, doc *store.Document, lenient bool) (models.LifeStoryEntry, error) {
	var wire lifeStoryDoc
	if err := json.Unmarshal(doc.Payload, &wire); err != nil {
		return models.LifeStoryEntry{}, fmt.Errorf("malformed life-story document %s: %w", doc.ID, err)
	}

	e := models.LifeStoryEntry{
		ID:        doc.ID,
		UserID:    doc.UserID,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
		IsDraft:   wire.IsDraft,
	}

	var err error
	if e.Title, err = c.openField(ctx, doc.ID, "title", wire.Title, lenient); err != nil {
		return models.LifeStoryEntry{}, err
	}
	if e.Content, err = c.openField(ctx, doc.ID, "content", wire.Content, lenient); err != nil {
		return models.LifeStoryEntry{}, err
	}
	if wire.EventTimestamp != nil {
		e.EventTimestamp = *wire.EventTimestamp
	}
	if wire.EventGranularity != "" {
		g, gErr := c.openField(ctx, doc.ID, "eventGranularity", wire.EventGranularity, lenient)
		if gErr != nil {
			return models.LifeStoryEntry{}, gErr
		}
		e.EventGranularity = models.Granularity(g)
	}
	if wire.EventEndDate != nil {
		end := *wire.EventEndDate
		e.EventEndDate = &end
	}
	if e.EventLabel, err = c.openField(ctx, doc.ID, "eventLabel", wire.EventLabel, lenient); err != nil {
		return models.LifeStoryEntry{}, err
	}
	if wire.Location != nil {
		loc := &models.Location{}
		if loc.Country, err = c.openField(ctx, doc.ID, "location.country", wire.Location.Country, lenient); err != nil {
			return models.LifeStoryEntry{}, err
		}
		if loc.City, err = c.openField(ctx, doc.ID, "location.city", wire.Location.City, lenient); err != nil {
			return models.LifeStoryEntry{}, err
		}
		if loc.Details, err = c.openField(ctx, doc.ID, "location.details", wire.Location.Details, lenient); err != nil {
			return models.LifeStoryEntry{}, err
		}
		e.Location = loc
	}
	if wire.CustomFields != nil {
		e.CustomFields = make([]models.CustomField, len(wire.CustomFields))
		for i, f := range wire.CustomFields {
			name, nErr := c.openField(ctx, doc.ID, "customField.name", f.FieldName, lenient)
			if nErr != nil {
				return models.LifeStoryEntry{}, nErr
			}
			value, vErr := c.openField(ctx, doc.ID, "customField.value", f.Value, lenient)
			if vErr != nil {
				return models.LifeStoryEntry{}, vErr
			}
			e.CustomFields[i] = models.CustomField{Name: name, Value: value}
		}
	}

	return e, nil
}

// openField decrypts one ciphertext leaf. An absent field (empty string in
// the wire document) is returned as-is without touching the cipher. In
// lenient mode a failing field degrades to "" with a warning instead of
// failing the whole decode.
func (c *codec) openField(ctx context.Context, docID, field, ciphertext string, lenient bool) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	plaintext, err := c.crypto.Decrypt(ctx, ciphertext)
	if err != nil {
		if !lenient {
			return "", fmt.Errorf("entry %s field %s: %w", docID, field, err)
		}
		c.log.Warn(ctx, "field failed to decrypt, degrading to empty value",
			"entry_id", docID, "field", field, "error", err)
		return "", nil
	}
	return plaintext, nil
}
