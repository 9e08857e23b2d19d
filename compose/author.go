package compose

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// PosterFallback is the generic attribution used when no author name can be
// found in the note body or its store metadata.
const PosterFallback = "投稿者"

var authorLabelRe = regexp.MustCompile(`(?:連絡先|担当|投稿者|主催|問い合わせ)\s*[：:]\s*([^\s\n、。，（）()【】]+)`)

var authorBracketsRe = regexp.MustCompile(`[（）()【】\[\]「」『』]`)

// ExtractAuthor pattern-matches a contact/organizer/poster name out of note
// text. Returns "" when no plausible name is found; callers decide the
// fallback chain.
func ExtractAuthor(content string) string {
	m := authorLabelRe.FindStringSubmatch(content)
	if m == nil {
		return ""
	}

	name := cleanAuthorName(m[1])
	if !plausibleName(name) {
		return ""
	}
	return name
}

func cleanAuthorName(raw string) string {
	name := authorBracketsRe.ReplaceAllString(raw, "")
	return strings.TrimSpace(name)
}

// plausibleName rejects matches that are clearly not a person: URLs, phone
// numbers, mail addresses, bare digits, and strings too short or long to be
// a name.
func plausibleName(name string) bool {
	if name == "" {
		return false
	}

	n := utf8.RuneCountInString(name)
	if n < 2 || n > 10 {
		return false
	}

	lower := strings.ToLower(name)
	for _, bad := range []string{"http://", "https://", "@", "tel", "調整さん", "chouseisan"} {
		if strings.Contains(lower, bad) {
			return false
		}
	}

	digits := 0
	for _, r := range name {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits < n
}
