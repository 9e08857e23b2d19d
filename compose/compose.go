// Package compose renders a reminder into a plain-text message and a
// structured card. Composition never fails: missing fields are rendered as
// explicit placeholders so the card layout is always structurally valid.
package compose

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// VenueFallback is rendered when no venue could be extracted from a note.
const VenueFallback = "未定"

const excerptLimit = 300

// Input is everything the composer needs about one reminder.
type Input struct {
	Date          time.Time
	DaysUntil     int
	InputDeadline bool
	Content       string
	Venue         string
	Author        string // store metadata author, used when the body has no contact label
}

// Weather is an optional conditions section. Nil means no weather section is
// rendered at all.
type Weather struct {
	Location     string
	Venue        string
	Temperature  float64
	Humidity     int
	PrecipChance int
	Description  string
}

// Message is the composed output: a plain-text rendering for platforms
// without rich cards, and the canonical card form.
type Message struct {
	PlainText string
	AltText   string
	Card      Card
}

// urgencyTier maps a window offset to the card's visual tier.
type urgencyTier struct {
	prefix string
	color  string
}

func tierFor(daysUntil int) urgencyTier {
	switch {
	case daysUntil <= 0:
		return urgencyTier{"🚨 【緊急】", "#FF0000"}
	case daysUntil == 1:
		return urgencyTier{"⏰ 【重要】", "#FF8C00"}
	default:
		return urgencyTier{"📅", "#4169E1"}
	}
}

var jpWeekdays = [7]string{"日", "月", "火", "水", "木", "金", "土"}

func formatDate(d time.Time) string {
	return fmt.Sprintf("%d年%02d月%02d日(%s)", d.Year(), int(d.Month()), d.Day(), jpWeekdays[d.Weekday()])
}

// Compose builds the message for a reminder. wx may be nil, in which case no
// weather section appears in either rendering.
func Compose(in Input, wx *Weather) Message {
	tier := tierFor(in.DaysUntil)
	title := headerTitle(in.InputDeadline, in.DaysUntil)
	date := formatDate(in.Date)

	venue := in.Venue
	if venue == "" {
		venue = VenueFallback
	}

	author := ExtractAuthor(in.Content)
	if author == "" {
		author = strings.TrimSpace(in.Author)
	}
	if author == "" {
		author = PosterFallback
	}

	excerpt := Excerpt(in.Content)

	return Message{
		PlainText: plainText(tier, title, date, venue, excerpt, author, wx),
		AltText:   fmt.Sprintf("%s %s", title, date),
		Card:      card(tier, title, date, venue, excerpt, author, wx),
	}
}

func headerTitle(inputDeadline bool, daysUntil int) string {
	if inputDeadline {
		switch daysUntil {
		case 0:
			return "入力期限のご案内（本日期限）"
		case 1:
			return "入力期限のご案内（明日期限）"
		default:
			return fmt.Sprintf("入力期限のご案内（%d日後期限）", daysUntil)
		}
	}
	switch daysUntil {
	case 0:
		return "イベント開催のご案内（本日開催）"
	case 1:
		return "イベント開催のご案内（明日開催）"
	case 2:
		return "イベント開催のご案内（明後日開催）"
	default:
		return fmt.Sprintf("イベント開催のご案内（%d日後開催）", daysUntil)
	}
}

func plainText(tier urgencyTier, title, date, venue, excerpt, author string, wx *Weather) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n\n", tier.prefix, title)
	fmt.Fprintf(&sb, "📅 日時: %s\n", date)
	fmt.Fprintf(&sb, "📍 会場: %s\n\n", venue)
	sb.WriteString(excerpt)
	sb.WriteString("\n")

	if wx != nil {
		sb.WriteString("\n🌤️ 当日の天気\n")
		for _, line := range weatherLines(wx) {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		if alert := weatherAlert(wx); alert != "" {
			fmt.Fprintf(&sb, "⚠️ %s\n", alert)
		}
	}

	fmt.Fprintf(&sb, "\n投稿者: %s", author)
	return sb.String()
}

func card(tier urgencyTier, title, date, venue, excerpt, author string, wx *Weather) Card {
	header := vbox(
		Text{Type: "text", Text: tier.prefix + " " + title, Weight: "bold", Size: "md", Color: "#FFFFFF", Wrap: true},
	)
	header.BackgroundColor = tier.color
	header.PaddingAll = "15px"

	bodyContents := []any{
		Text{Type: "text", Text: "📅 " + date, Weight: "bold", Size: "lg", Color: tier.color, Wrap: true},
		Text{Type: "text", Text: "📍 " + venue, Size: "sm", Color: "#666666", Wrap: true, Margin: "sm"},
		separator(),
		text(excerpt),
	}

	if wx != nil {
		bodyContents = append(bodyContents, separator(),
			Text{Type: "text", Text: "🌤️ 天気情報", Size: "sm", Color: "#666666", Weight: "bold", Margin: "md"})
		for _, line := range weatherLines(wx) {
			bodyContents = append(bodyContents, Text{Type: "text", Text: line, Size: "sm", Wrap: true, Margin: "xs"})
		}
		if alert := weatherAlert(wx); alert != "" {
			bodyContents = append(bodyContents, Text{Type: "text", Text: "⚠️ " + alert, Size: "sm", Color: "#FF6B6B", Wrap: true, Margin: "sm"})
		}
	}

	body := vbox(bodyContents...)
	body.PaddingAll = "15px"
	body.Spacing = "sm"

	footer := vbox(
		Text{Type: "text", Text: "投稿者: " + author, Size: "xs", Color: "#999999"},
	)
	footer.PaddingAll = "10px"

	return Card{
		Type:   "bubble",
		Header: header,
		Body:   body,
		Footer: footer,
	}
}

func weatherLines(wx *Weather) []string {
	desc := wx.Description
	if desc == "" {
		desc = "不明"
	}
	place := wx.Venue
	if place == "" {
		place = wx.Location
	}
	return []string{
		fmt.Sprintf("☁️ %s（%s）", desc, place),
		fmt.Sprintf("🌡️ 気温 %.1f°C / 💧 湿度 %d%%", wx.Temperature, wx.Humidity),
		fmt.Sprintf("☔ 降水確率 %d%%", wx.PrecipChance),
	}
}

// weatherAlert derives a short advisory from snapshot thresholds. Empty when
// conditions warrant no warning.
func weatherAlert(wx *Weather) string {
	var alerts []string

	switch {
	case wx.PrecipChance >= 70:
		alerts = append(alerts, "雨の可能性が高いです。傘を忘れずに。")
	case wx.PrecipChance >= 40:
		alerts = append(alerts, "雨が降る可能性があります。折りたたみ傘があると安心です。")
	}

	switch {
	case wx.Temperature >= 30:
		alerts = append(alerts, "暑くなります。熱中症対策と水分補給を。")
	case wx.Temperature <= 5:
		alerts = append(alerts, "冷え込みます。防寒対策を。")
	}

	if wx.Humidity >= 85 {
		alerts = append(alerts, "湿度が高く蒸し暑く感じられます。")
	}

	return strings.Join(alerts, " ")
}

var excerptDropRe = regexp.MustCompile(`(?i)(調整さん|chouseisan|https?://|↑)`)

// Excerpt cleans note content for card display: scheduling-service
// boilerplate and raw URLs are dropped, and the result is capped. An empty
// result renders as an explicit placeholder rather than an empty section.
func Excerpt(content string) string {
	var kept []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || excerptDropRe.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}

	out := strings.Join(kept, "\n")
	if out == "" {
		return "詳細不明"
	}

	runes := []rune(out)
	if len(runes) > excerptLimit {
		out = string(runes[:excerptLimit]) + "…"
	}
	return out
}
