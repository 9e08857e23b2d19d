package compose

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func eventInput() Input {
	return Input{
		Date:      time.Date(2025, 10, 27, 0, 0, 0, 0, time.UTC),
		DaysUntil: 1,
		Content:   "[ノート] 2025/10/27(月) 15:00 練習会\n場所：代々木公園\n持ち物：飲み物",
		Venue:     "代々木公園",
		Author:    "田中",
	}
}

func TestCompose(t *testing.T) {
	t.Run("event message", func(t *testing.T) {
		msg := Compose(eventInput(), nil)

		if !strings.Contains(msg.PlainText, "イベント開催のご案内（明日開催）") {
			t.Errorf("plain text missing tomorrow title:\n%s", msg.PlainText)
		}
		if !strings.Contains(msg.PlainText, "2025年10月27日(月)") {
			t.Errorf("plain text missing formatted date:\n%s", msg.PlainText)
		}
		if !strings.Contains(msg.PlainText, "代々木公園") {
			t.Errorf("plain text missing venue:\n%s", msg.PlainText)
		}
		if !strings.Contains(msg.PlainText, "投稿者: 田中") {
			t.Errorf("plain text missing author:\n%s", msg.PlainText)
		}
		if !strings.Contains(msg.AltText, "2025年10月27日(月)") {
			t.Errorf("alt text = %q", msg.AltText)
		}
		if msg.Card.Type != "bubble" {
			t.Errorf("card type = %q, want bubble", msg.Card.Type)
		}
	})

	t.Run("deadline message", func(t *testing.T) {
		in := eventInput()
		in.InputDeadline = true
		in.Content = "[ノート] 入力期限：2025/10/27(月) 出欠入力をお願いします"

		msg := Compose(in, nil)
		if !strings.Contains(msg.PlainText, "入力期限のご案内（明日期限）") {
			t.Errorf("plain text missing deadline title:\n%s", msg.PlainText)
		}
	})

	t.Run("urgency tiers", func(t *testing.T) {
		tests := []struct {
			daysUntil  int
			wantPrefix string
			wantColor  string
		}{
			{0, "🚨", "#FF0000"},
			{1, "⏰", "#FF8C00"},
			{2, "📅", "#4169E1"},
		}

		for _, tt := range tests {
			in := eventInput()
			in.DaysUntil = tt.daysUntil
			msg := Compose(in, nil)

			if !strings.Contains(msg.PlainText, tt.wantPrefix) {
				t.Errorf("daysUntil=%d: plain text missing prefix %q", tt.daysUntil, tt.wantPrefix)
			}
			if msg.Card.Header.BackgroundColor != tt.wantColor {
				t.Errorf("daysUntil=%d: header color = %q, want %q", tt.daysUntil, msg.Card.Header.BackgroundColor, tt.wantColor)
			}
		}
	})

	t.Run("missing venue renders placeholder", func(t *testing.T) {
		in := eventInput()
		in.Venue = ""
		msg := Compose(in, nil)
		if !strings.Contains(msg.PlainText, "会場: 未定") {
			t.Errorf("plain text missing venue placeholder:\n%s", msg.PlainText)
		}
	})

	t.Run("author fallback chain", func(t *testing.T) {
		t.Run("body label wins over metadata", func(t *testing.T) {
			in := eventInput()
			in.Content = "練習会のお知らせ\n連絡先：佐藤"
			in.Author = "田中"
			msg := Compose(in, nil)
			if !strings.Contains(msg.PlainText, "投稿者: 佐藤") {
				t.Errorf("want body-extracted author:\n%s", msg.PlainText)
			}
		})

		t.Run("metadata when body has no label", func(t *testing.T) {
			in := eventInput()
			in.Content = "練習会のお知らせ"
			in.Author = "田中"
			msg := Compose(in, nil)
			if !strings.Contains(msg.PlainText, "投稿者: 田中") {
				t.Errorf("want metadata author:\n%s", msg.PlainText)
			}
		})

		t.Run("generic placeholder when both missing", func(t *testing.T) {
			in := eventInput()
			in.Content = "練習会のお知らせ"
			in.Author = ""
			msg := Compose(in, nil)
			if !strings.Contains(msg.PlainText, "投稿者: 投稿者") {
				t.Errorf("want generic placeholder:\n%s", msg.PlainText)
			}
		})
	})

	t.Run("weather section only when present", func(t *testing.T) {
		in := eventInput()

		without := Compose(in, nil)
		if strings.Contains(without.PlainText, "当日の天気") {
			t.Errorf("weather section rendered without weather:\n%s", without.PlainText)
		}

		with := Compose(in, &Weather{
			Location:     "東京都",
			Venue:        "代々木公園",
			Temperature:  21.3,
			Humidity:     60,
			PrecipChance: 20,
			Description:  "晴れ",
		})
		if !strings.Contains(with.PlainText, "当日の天気") {
			t.Errorf("weather section missing:\n%s", with.PlainText)
		}
		if !strings.Contains(with.PlainText, "晴れ") || !strings.Contains(with.PlainText, "21.3") {
			t.Errorf("weather values missing:\n%s", with.PlainText)
		}
	})

	t.Run("weather advisories", func(t *testing.T) {
		tests := []struct {
			name string
			wx   Weather
			want string
		}{
			{"high rain chance", Weather{PrecipChance: 80, Temperature: 20}, "傘を忘れずに"},
			{"moderate rain chance", Weather{PrecipChance: 50, Temperature: 20}, "折りたたみ傘"},
			{"heat", Weather{Temperature: 32}, "熱中症"},
			{"cold", Weather{Temperature: 2}, "防寒"},
			{"humidity", Weather{Temperature: 20, Humidity: 90}, "蒸し暑く"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				msg := Compose(eventInput(), &tt.wx)
				if !strings.Contains(msg.PlainText, tt.want) {
					t.Errorf("advisory %q missing:\n%s", tt.want, msg.PlainText)
				}
			})
		}

		t.Run("mild conditions no advisory", func(t *testing.T) {
			msg := Compose(eventInput(), &Weather{Temperature: 20, Humidity: 50, PrecipChance: 10})
			if strings.Contains(msg.PlainText, "⚠️") {
				t.Errorf("unexpected advisory:\n%s", msg.PlainText)
			}
		})
	})

	t.Run("card serializes as bare bubble", func(t *testing.T) {
		msg := Compose(eventInput(), nil)

		raw, err := json.Marshal(msg.Card)
		if err != nil {
			t.Fatalf("marshaling card: %v", err)
		}

		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			t.Fatalf("unmarshaling card: %v", err)
		}
		if probe.Type != "bubble" {
			t.Errorf("top-level type = %q, want bubble (envelope is the gateway's job)", probe.Type)
		}
		if strings.Contains(string(raw), `"altText"`) {
			t.Error("card must not carry its own altText")
		}
	})

	t.Run("never panics on empty input", func(t *testing.T) {
		msg := Compose(Input{Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}, nil)
		if msg.PlainText == "" {
			t.Error("empty input should still produce a message")
		}
		if !strings.Contains(msg.PlainText, "詳細不明") {
			t.Errorf("empty content should render the excerpt placeholder:\n%s", msg.PlainText)
		}
	})
}

func TestExcerpt(t *testing.T) {
	t.Run("drops scheduling service lines and urls", func(t *testing.T) {
		content := "練習会のお知らせ\n調整さんで出欠入力してください\nhttps://chouseisan.com/s?h=abc\n↑こちらから\n持ち物：飲み物"
		got := Excerpt(content)

		if strings.Contains(got, "調整さん") || strings.Contains(got, "https://") || strings.Contains(got, "↑") {
			t.Errorf("boilerplate survived:\n%s", got)
		}
		if !strings.Contains(got, "練習会のお知らせ") || !strings.Contains(got, "持ち物：飲み物") {
			t.Errorf("real content dropped:\n%s", got)
		}
	})

	t.Run("empty result renders placeholder", func(t *testing.T) {
		if got := Excerpt("https://example.com\n調整さん"); got != "詳細不明" {
			t.Errorf("Excerpt = %q, want placeholder", got)
		}
	})

	t.Run("caps length", func(t *testing.T) {
		long := strings.Repeat("あ", 500)
		got := Excerpt(long)
		runes := []rune(got)
		if len(runes) != excerptLimit+1 { // cap plus ellipsis
			t.Errorf("len = %d runes, want %d", len(runes), excerptLimit+1)
		}
		if !strings.HasSuffix(got, "…") {
			t.Errorf("capped excerpt missing ellipsis: %q", got[len(got)-9:])
		}
	})
}

func TestExtractAuthor(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"contact label", "練習会\n連絡先：佐藤", "佐藤"},
		{"organizer label", "主催：山田太郎", "山田太郎"},
		{"poster label ascii colon", "投稿者: 鈴木", "鈴木"},
		{"annotation after name ignored", "担当：佐藤（リーダー）", "佐藤"},
		{"no label", "練習会のお知らせです", ""},
		{"url rejected", "連絡先：https://example.com", ""},
		{"mention rejected", "連絡先：@tanaka_bot", ""},
		{"bare digits rejected", "連絡先：09012345678", ""},
		{"single char rejected", "担当：あ", ""},
		{"too long rejected", "主催：" + strings.Repeat("あ", 11), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractAuthor(tt.content); got != tt.want {
				t.Errorf("ExtractAuthor(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}
