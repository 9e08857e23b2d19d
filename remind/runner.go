package remind

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"notebot/compose"
	"notebot/extract"
	"notebot/weather"
)

// Runner orchestrates one scheduler tick for one window offset:
// collect → enrich → compose → claim → send.
type Runner struct {
	collector *Collector
	enricher  Enricher
	sender    CardSender
	mirror    Mirror // optional
	claims    ClaimStore
	targets   []string
	now       func() time.Time
}

// NewRunner creates a Runner. mirror may be nil when no secondary channel is
// configured.
func NewRunner(collector *Collector, enricher Enricher, sender CardSender, mirror Mirror, claims ClaimStore, targets []string) *Runner {
	return &Runner{
		collector: collector,
		enricher:  enricher,
		sender:    sender,
		mirror:    mirror,
		claims:    claims,
		targets:   targets,
		now:       time.Now,
	}
}

// SetNow overrides the clock (for testing).
func (r *Runner) SetNow(now func() time.Time) {
	r.now = now
	r.collector.SetNow(now)
}

// Run executes the pipeline for one offset. Only a store failure aborts the
// run; every per-reminder failure degrades to skipping that reminder. A
// reminder whose send fails has its claim released so the next tick inside
// the same window retries it.
func (r *Runner) Run(ctx context.Context, offsetDays int) error {
	slog.Info("reminder run starting", "offset", offsetDays)

	reminders, err := r.collector.Collect(ctx, offsetDays)
	if err != nil {
		return fmt.Errorf("collecting reminders for offset %d: %w", offsetDays, err)
	}
	if len(reminders) == 0 {
		slog.Info("no reminders in window", "offset", offsetDays)
		return nil
	}
	slog.Info("collected reminders", "offset", offsetDays, "count", len(reminders))

	runDate := r.now().Format("2006-01-02")
	sent := 0

	for _, rem := range reminders {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		wx := r.enricher.Enrich(ctx, rem.Content, rem.DaysUntil)

		msg := compose.Compose(compose.Input{
			Date:          rem.Date,
			DaysUntil:     rem.DaysUntil,
			InputDeadline: rem.Kind == extract.InputDeadline,
			Content:       rem.Content,
			Venue:         weather.ExtractVenue(rem.Content),
			Author:        rem.Author,
		}, wx.toCompose())

		claimed, err := r.claims.TryClaim(rem.NoteID, offsetDays, runDate)
		if err != nil {
			slog.Error("claim check failed, skipping reminder", "note_id", rem.NoteID, "error", err)
			continue
		}
		if !claimed {
			slog.Info("reminder already dispatched, skipping", "note_id", rem.NoteID, "offset", offsetDays, "run_date", runDate)
			continue
		}

		delivered := 0
		for _, target := range r.targets {
			if err := r.sender.PushCard(ctx, target, msg.AltText, msg.Card); err != nil {
				slog.Error("failed to send reminder card", "note_id", rem.NoteID, "target", target, "error", err)
				continue
			}
			delivered++
		}

		if delivered == 0 {
			if err := r.claims.Release(rem.NoteID, offsetDays, runDate); err != nil {
				slog.Error("failed to release claim after failed send", "note_id", rem.NoteID, "error", err)
			}
			slog.Warn("reminder send failed, will retry next tick", "note_id", rem.NoteID, "offset", offsetDays)
			continue
		}

		if r.mirror != nil {
			if err := r.mirror.Send(msg.PlainText); err != nil {
				slog.Warn("mirror send failed", "note_id", rem.NoteID, "error", err)
			}
		}

		sent++
	}

	slog.Info("reminder run complete", "offset", offsetDays, "sent", sent, "skipped", len(reminders)-sent)
	return nil
}

func (w *Weather) toCompose() *compose.Weather {
	if w == nil {
		return nil
	}
	return &compose.Weather{
		Location:     w.Location,
		Venue:        w.Venue,
		Temperature:  w.Temperature,
		Humidity:     w.Humidity,
		PrecipChance: w.PrecipChance,
		Description:  w.Description,
	}
}
