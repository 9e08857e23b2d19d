// Package remind implements the reminder window engine: collecting candidate
// notes from the document store, deciding which fall inside a day-offset
// window, and driving enrichment, composition and idempotent dispatch.
package remind

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"notebot/extract"
	"notebot/window"
)

// Note is the candidate data needed from the document store.
type Note struct {
	Content    string
	Author     string
	IngestedAt time.Time
}

// NoteSource retrieves candidate notes via similarity search. The source is
// approximate and recall-oriented; over-fetching is the correctness strategy.
type NoteSource interface {
	Query(ctx context.Context, text string, limit int) ([]Note, error)
}

// Weather is the optional conditions data attached to a reminder.
type Weather struct {
	Location     string
	Venue        string
	Temperature  float64
	Humidity     int
	PrecipChance int
	Description  string
}

// Enricher adds best-effort weather to a reminder. A nil result means the
// message is composed without a weather section.
type Enricher interface {
	Enrich(ctx context.Context, content string, daysUntil int) *Weather
}

// CardSender pushes composed messages to the card-capable gateway.
type CardSender interface {
	PushCard(ctx context.Context, to, altText string, contents any) error
}

// Mirror sends the plain-text rendering to a secondary cardless channel.
type Mirror interface {
	Send(text string) error
}

// ClaimStore is the durable at-most-once ledger. TryClaim must return true
// exactly once per triple, atomically with respect to concurrent callers.
type ClaimStore interface {
	TryClaim(noteID string, window int, runDate string) (bool, error)
	Release(noteID string, window int, runDate string) error
}

// Reminder is one note that falls inside the requested window. It is a
// computation result rebuilt every run, never persisted.
type Reminder struct {
	NoteID    string
	Date      time.Time
	DaysUntil int
	Kind      extract.Kind
	Content   string
	Author    string
}

// Collector produces the deduplicated, ordered reminder list for an offset.
type Collector struct {
	source NoteSource
	tag    string
	limit  int
	now    func() time.Time
}

// NewCollector creates a Collector querying for notes carrying the given
// structural tag, fetching up to limit candidates per run.
func NewCollector(source NoteSource, tag string, limit int) *Collector {
	return &Collector{
		source: source,
		tag:    tag,
		limit:  limit,
		now:    time.Now,
	}
}

// SetNow overrides the clock (for testing).
func (c *Collector) SetNow(now func() time.Time) { c.now = now }

// Collect returns every distinct note whose extracted dates place it exactly
// offsetDays from today, sorted by days-until then note identity. An empty
// list is a normal outcome, not an error.
func (c *Collector) Collect(ctx context.Context, offsetDays int) ([]Reminder, error) {
	notes, err := c.source.Query(ctx, c.tag, c.limit)
	if err != nil {
		return nil, fmt.Errorf("querying note store: %w", err)
	}

	now := c.now()
	seen := make(map[string]bool)
	var out []Reminder

	for _, n := range notes {
		if !strings.Contains(n.Content, c.tag) {
			continue
		}

		dates := extract.Dates(n.Content, now)
		if len(dates) == 0 {
			continue
		}

		matched, ok := window.Eval(now, offsetDays, dates)
		if !ok {
			continue
		}

		id := extract.NoteID(n.Content)
		if seen[id] {
			continue
		}
		seen[id] = true

		out = append(out, Reminder{
			NoteID:    id,
			Date:      matched,
			DaysUntil: offsetDays,
			Kind:      extract.Classify(n.Content),
			Content:   n.Content,
			Author:    n.Author,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DaysUntil != out[j].DaysUntil {
			return out[i].DaysUntil < out[j].DaysUntil
		}
		return out[i].NoteID < out[j].NoteID
	})

	return out, nil
}
