// Package line is a minimal client for the LINE Messaging API push endpoint:
// text messages and flex cards to a configured set of recipients.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
)

const DefaultBaseURL = "https://api.line.me"

// The platform rejects text messages beyond this length.
const maxTextLen = 5000

const truncationNotice = "...\n（メッセージが長いため省略されました）"

// Client pushes messages to LINE recipients.
type Client struct {
	token   string
	client  *http.Client
	baseURL string
}

// NewClient creates a LINE push client.
func NewClient(token string, client *http.Client) *Client {
	return NewClientWithBaseURL(token, client, DefaultBaseURL)
}

// NewClientWithBaseURL creates a client with a custom base URL (for testing).
func NewClientWithBaseURL(token string, client *http.Client, baseURL string) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		token:   token,
		client:  client,
		baseURL: baseURL,
	}
}

type pushRequest struct {
	To       string `json:"to"`
	Messages []any  `json:"messages"`
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type flexMessage struct {
	Type     string `json:"type"`
	AltText  string `json:"altText"`
	Contents any    `json:"contents"`
}

// PushText sends a plain-text message, truncating it to the platform limit.
func (c *Client) PushText(ctx context.Context, to, text string) error {
	if err := validTarget(to); err != nil {
		return err
	}

	if utf8.RuneCountInString(text) > maxTextLen {
		runes := []rune(text)
		text = string(runes[:maxTextLen-utf8.RuneCountInString(truncationNotice)]) + truncationNotice
	}

	return c.push(ctx, pushRequest{
		To:       to,
		Messages: []any{textMessage{Type: "text", Text: text}},
	})
}

// PushCard sends a flex card. contents must be a bare bubble: the flex
// envelope with its "type" discriminator is applied here exactly once, and a
// pre-wrapped envelope is rejected because double nesting breaks the
// platform's schema validation.
func (c *Client) PushCard(ctx context.Context, to, altText string, contents any) error {
	if err := validTarget(to); err != nil {
		return err
	}

	if isFlexEnvelope(contents) {
		return fmt.Errorf("line: card contents already wrapped in a flex envelope")
	}

	return c.push(ctx, pushRequest{
		To:       to,
		Messages: []any{flexMessage{Type: "flex", AltText: altText, Contents: contents}},
	})
}

// isFlexEnvelope detects contents whose top-level type discriminator is
// already "flex".
func isFlexEnvelope(contents any) bool {
	raw, err := json.Marshal(contents)
	if err != nil {
		return false
	}
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return probe.Type == "flex"
}

func validTarget(to string) error {
	if len(to) < 10 {
		return fmt.Errorf("line: invalid target id %q", to)
	}
	return nil
}

func (c *Client) push(ctx context.Context, pr pushRequest) error {
	body, err := json.Marshal(pr)
	if err != nil {
		return fmt.Errorf("line: encoding push request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/bot/message/push", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("line: creating push request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("line: push to %s: %w", pr.To, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("line: push to %s returned status %d: %s", pr.To, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	return nil
}
