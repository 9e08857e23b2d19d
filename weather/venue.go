package weather

import (
	"regexp"
	"strings"
)

var venueLabelRe = regexp.MustCompile(`(?i)(?:会場|場所|開催地|集合場所|venue|place)\s*[：:]\s*(.+)`)

// Known venue keywords used when no explicit label line exists, and their
// regions for the weather query.
var venueRegions = []struct {
	keyword string
	region  string
}{
	{"代々木公園", "東京都"},
	{"東京ドーム", "東京都"},
	{"新宿", "東京都"},
	{"渋谷", "東京都"},
	{"池袋", "東京都"},
	{"品川", "東京都"},
	{"横浜", "神奈川県"},
	{"川崎", "神奈川県"},
	{"千葉", "千葉県"},
	{"船橋", "千葉県"},
	{"さいたま", "埼玉県"},
	{"川口", "埼玉県"},
	{"大阪", "大阪府"},
	{"名古屋", "愛知県"},
	{"福岡", "福岡県"},
	{"札幌", "北海道"},
}

var prefecturePrefixRe = regexp.MustCompile(`^(東京都|北海道|大阪府|京都府|[^\s、。]{2,3}県)\s*`)

// ExtractVenue pulls a best-effort venue name out of note text. Lines with an
// explicit venue label win; otherwise the first known place-name keyword is
// used. Returns "" when nothing venue-like is found.
func ExtractVenue(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if m := venueLabelRe.FindStringSubmatch(line); m != nil {
			if v := CleanVenue(m[1]); v != "" {
				return v
			}
		}
	}

	for _, vr := range venueRegions {
		if strings.Contains(content, vr.keyword) {
			return vr.keyword
		}
	}

	return ""
}

var (
	venueCutRe      = regexp.MustCompile(`[、。，,].*$`)
	venueParenRe    = regexp.MustCompile(`[（）()【】\[\]「」].*$`)
	venueParticleRe = regexp.MustCompile(`(にて開催|で開催|において|にて|で|開催|実施)$`)
	venueTimeRe     = regexp.MustCompile(`\d{1,2}[:：]\d{2}`)
	venueDigitsRe   = regexp.MustCompile(`(^|\s)\d+(\s|$)`)
)

// CleanVenue strips non-place tokens from a raw venue string so it is usable
// as a weather-lookup key: prefecture prefixes, trailing clauses after
// punctuation, parentheticals, time-of-day tokens, stray counters and
// trailing particles.
func CleanVenue(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}

	v = prefecturePrefixRe.ReplaceAllString(v, "")
	v = venueCutRe.ReplaceAllString(v, "")
	v = venueParenRe.ReplaceAllString(v, "")
	v = venueTimeRe.ReplaceAllString(v, "")
	v = venueDigitsRe.ReplaceAllString(v, " ")
	v = strings.TrimSpace(v)
	v = venueParticleRe.ReplaceAllString(v, "")

	return strings.Join(strings.Fields(v), " ")
}

// Region maps a venue name to the prefecture used for the weather query.
// Unknown venues default to 東京都, matching where the group operates.
func Region(venue string) string {
	for _, vr := range venueRegions {
		if strings.Contains(venue, vr.keyword) {
			return vr.region
		}
	}
	return "東京都"
}
