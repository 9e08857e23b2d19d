package weather

import (
	"context"
	"log/slog"
	"time"
)

// Enricher adds a best-effort weather snapshot to a reminder. Every failure
// (no venue found, cleanup yields nothing, lookup error or timeout) returns
// nil so the reminder proceeds without weather.
type Enricher struct {
	svc     Service
	timeout time.Duration
}

// NewEnricher creates an Enricher with a per-lookup timeout.
func NewEnricher(svc Service, timeout time.Duration) *Enricher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Enricher{svc: svc, timeout: timeout}
}

// Enrich extracts a venue from note content and looks up its weather
// daysUntil days ahead. Returns nil when no snapshot could be produced.
func (e *Enricher) Enrich(ctx context.Context, content string, daysUntil int) *Snapshot {
	venue := ExtractVenue(content)
	if venue == "" {
		slog.Debug("no venue found in note, skipping weather")
		return nil
	}

	region := Region(venue)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	snap, err := e.svc.Lookup(ctx, region, venue, daysUntil)
	if err != nil {
		slog.Warn("weather lookup failed, composing without weather", "venue", venue, "region", region, "error", err)
		return nil
	}

	return snap
}
