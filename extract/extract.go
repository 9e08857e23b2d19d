// Package extract turns free-form note text into calendar dates and a
// deadline classification. Notes are pasted announcements with no structure;
// everything here is best-effort pattern matching, never validation.
package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind classifies what a note's date means for notification copy.
type Kind int

const (
	// EventDate means the note's date is when the event happens.
	EventDate Kind = iota
	// InputDeadline means the note's date is a submission deadline.
	InputDeadline
)

func (k Kind) String() string {
	if k == InputDeadline {
		return "input_deadline"
	}
	return "event_date"
}

// Pattern identifies which recognized date format produced a Date.
// Lower values are more specific and win ties on overlapping text spans.
type Pattern int

const (
	PatternYearSlashWeekday Pattern = iota // 2025/10/27(月)
	PatternYearSlash                       // 2025/10/27
	PatternMonthDayKanji                   // 10月27日
	PatternMonthSlash                      // 10/27
)

func (p Pattern) String() string {
	switch p {
	case PatternYearSlashWeekday:
		return "yyyy/m/d(w)"
	case PatternYearSlash:
		return "yyyy/m/d"
	case PatternMonthDayKanji:
		return "m月d日"
	case PatternMonthSlash:
		return "m/d"
	}
	return "unknown"
}

// Date is a calendar date extracted from note text, with format provenance.
type Date struct {
	Year       int
	Month      int
	Day        int
	Pattern    Pattern
	SourceText string
}

// Time returns the date at midnight in the given location.
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, loc)
}

type patternDef struct {
	pattern Pattern
	re      *regexp.Regexp
	hasYear bool
}

// Strict priority order: a later pattern is only consulted for text spans
// where no earlier pattern produced a usable date.
var datePatterns = []patternDef{
	{PatternYearSlashWeekday, regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})\([月火水木金土日]\)`), true},
	{PatternYearSlash, regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})`), true},
	{PatternMonthDayKanji, regexp.MustCompile(`(\d{1,2})月(\d{1,2})日`), false},
	{PatternMonthSlash, regexp.MustCompile(`(\d{1,2})/(\d{1,2})`), false},
}

var deadlineMarker = regexp.MustCompile(`入力期限\s*[：:]`)

// Classify reports whether a note carries an explicit input-deadline marker.
// Absence of a marker yields EventDate.
func Classify(text string) Kind {
	if deadlineMarker.MatchString(text) {
		return InputDeadline
	}
	return EventDate
}

// Dates extracts all calendar dates from text, most-specific pattern first.
// Year-less formats resolve against today: a month/day strictly before today
// rolls forward to next year, on the assumption that ambiguous dates refer to
// the next occurrence, never the past. Calendrically invalid matches are
// dropped silently. Duplicate resolved dates are collapsed to the first
// (highest-priority) occurrence.
func Dates(text string, today time.Time) []Date {
	var (
		out     []Date
		claimed []span
		seen    = make(map[string]bool)
	)

	for _, pd := range datePatterns {
		for _, idx := range pd.re.FindAllStringSubmatchIndex(text, -1) {
			s := span{idx[0], idx[1]}
			if s.overlapsAny(claimed) {
				continue
			}

			d, ok := resolve(text, idx, pd, today)
			if !ok {
				continue
			}

			claimed = append(claimed, s)

			key := d.key()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, d)
		}
	}

	return out
}

type span struct{ start, end int }

func (s span) overlapsAny(spans []span) bool {
	for _, o := range spans {
		if s.start < o.end && o.start < s.end {
			return true
		}
	}
	return false
}

func (d Date) key() string {
	return strconv.Itoa(d.Year) + "-" + strconv.Itoa(d.Month) + "-" + strconv.Itoa(d.Day)
}

// resolve parses the numeric groups of a match and applies year rollover and
// calendar validation. ok is false when the matched text is not a real date.
func resolve(text string, idx []int, pd patternDef, today time.Time) (Date, bool) {
	group := func(n int) int {
		v, _ := strconv.Atoi(text[idx[2*n]:idx[2*n+1]])
		return v
	}

	var year, month, day int
	if pd.hasYear {
		year, month, day = group(1), group(2), group(3)
	} else {
		month, day = group(1), group(2)
		year = today.Year()
		if month < int(today.Month()) || (month == int(today.Month()) && day < today.Day()) {
			year++
		}
	}

	if !validDate(year, month, day) {
		return Date{}, false
	}

	return Date{
		Year:       year,
		Month:      month,
		Day:        day,
		Pattern:    pd.pattern,
		SourceText: text[idx[0]:idx[1]],
	}, true
}

// validDate rejects syntactically matched but calendrically invalid dates,
// e.g. day 31 in a 30-day month.
func validDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return int(t.Month()) == month && t.Day() == day
}

// NoteID returns a stable identity hash for a note, keyed on whitespace-
// normalized content so the same announcement retrieved twice from an
// approximate search maps to one identity.
func NoteID(content string) string {
	normalized := strings.Join(strings.Fields(content), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:16]
}
