package scheduler

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler manages cron-based reminder runs: one job per notification time
// per window offset.
type Scheduler struct {
	cron     *cron.Cron
	mu       sync.Mutex
	entries  []cron.EntryID
	location *time.Location
}

// New creates a Scheduler in the given timezone.
func New(timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", timezone, err)
	}

	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:     c,
		location: loc,
	}, nil
}

// Schedule registers the daily runs: at each time (HH:MM format), task is
// invoked once per window offset. Any previous schedule is replaced.
func (s *Scheduler) Schedule(times []string, offsets []int, task func(offset int)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.entries {
		s.cron.Remove(id)
	}
	s.entries = s.entries[:0]

	for _, t := range times {
		hour, minute, err := parseTime(t)
		if err != nil {
			return err
		}

		expr := fmt.Sprintf("%d %d * * *", minute, hour)
		for _, offset := range offsets {
			off := offset
			id, err := s.cron.AddFunc(expr, func() { task(off) })
			if err != nil {
				return fmt.Errorf("adding cron entry: %w", err)
			}
			s.entries = append(s.entries, id)
		}
		slog.Info("reminder runs scheduled", "time", t, "cron", expr, "offsets", offsets, "timezone", s.location.String())
	}

	return nil
}

// EntryCount returns the number of registered cron entries.
func (s *Scheduler) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Start begins the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// parseTime extracts hour and minute from HH:MM format.
func parseTime(t string) (int, int, error) {
	if len(t) != 5 || t[2] != ':' {
		return 0, 0, fmt.Errorf("invalid time format %q: must be HH:MM", t)
	}

	hour := (int(t[0]-'0') * 10) + int(t[1]-'0')
	minute := (int(t[3]-'0') * 10) + int(t[4]-'0')

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time %q: hour 0-23, minute 0-59", t)
	}

	return hour, minute, nil
}
