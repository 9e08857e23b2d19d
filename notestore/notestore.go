// Package notestore is a read-only client for the external semantic document
// store that holds chat notes. The store answers free-text similarity queries
// and is approximate and recall-oriented: callers over-fetch and filter
// rather than expecting exact enumeration.
package notestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Note is one unit of free-text content returned by the store. Notes are
// immutable; the bot only ever reads them.
type Note struct {
	Content    string
	Author     string
	IngestedAt time.Time
}

// Client queries the document store for candidate notes.
type Client interface {
	Query(ctx context.Context, text string, limit int) ([]Note, error)
}

type httpClient struct {
	client  *http.Client
	baseURL string
}

// NewClient creates a store client for the given base URL.
func NewClient(client *http.Client, baseURL string) Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpClient{
		client:  client,
		baseURL: baseURL,
	}
}

type queryRequest struct {
	QueryTexts []string `json:"query_texts"`
	NResults   int      `json:"n_results"`
	Include    []string `json:"include"`
}

type queryResponse struct {
	Documents [][]string        `json:"documents"`
	Metadatas [][]queryMetadata `json:"metadatas"`
}

type queryMetadata struct {
	Author     string `json:"author"`
	IngestedAt int64  `json:"ingested_at"`
}

// Query runs a similarity search and returns up to limit notes. The result
// set may contain near-duplicates and unrelated documents; downstream
// filtering is the caller's responsibility.
func (c *httpClient) Query(ctx context.Context, text string, limit int) ([]Note, error) {
	body, err := json.Marshal(queryRequest{
		QueryTexts: []string{text},
		NResults:   limit,
		Include:    []string{"documents", "metadatas"},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding store query: %w", err)
	}

	url := fmt.Sprintf("%s/query", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating store query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying document store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("document store returned status %d", resp.StatusCode)
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("decoding store query response: %w", err)
	}

	if len(qr.Documents) == 0 {
		return nil, nil
	}

	docs := qr.Documents[0]
	var metas []queryMetadata
	if len(qr.Metadatas) > 0 {
		metas = qr.Metadatas[0]
	}

	notes := make([]Note, 0, len(docs))
	for i, doc := range docs {
		n := Note{Content: doc}
		if i < len(metas) {
			n.Author = metas[i].Author
			if metas[i].IngestedAt > 0 {
				n.IngestedAt = time.Unix(metas[i].IngestedAt, 0)
			}
		}
		notes = append(notes, n)
	}

	return notes, nil
}
