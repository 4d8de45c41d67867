package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"parking-service/internal/config"
)

const maxRetries = 3

// SourceRecord is one record of the upstream feed, keyed by its push id.
// Fields is nil when the upstream entry was not an object.
type SourceRecord struct {
	Key    string
	Fields map[string]interface{}
}

// SourceClient reads the plate-scan node of the upstream realtime database
// over its REST interface.
type SourceClient struct {
	baseURL    string
	node       string
	authToken  string
	httpClient *http.Client
	backoff    time.Duration
}

func NewSourceClient(cfg *config.Config) *SourceClient {
	return &SourceClient{
		baseURL:   strings.TrimRight(cfg.Source.URL, "/"),
		node:      strings.Trim(cfg.Source.Node, "/"),
		authToken: cfg.Source.AuthToken,
		httpClient: &http.Client{
			Timeout: cfg.Source.Timeout,
		},
		backoff: 500 * time.Millisecond,
	}
}

func (c *SourceClient) Configured() bool {
	return c != nil && c.baseURL != ""
}

// FetchRecords downloads the whole node. Records come back in key order,
// which for push ids is arrival order.
func (c *SourceClient) FetchRecords(ctx context.Context) ([]SourceRecord, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("source URL is not configured")
	}

	u, err := url.Parse(fmt.Sprintf("%s/%s.json", c.baseURL, c.node))
	if err != nil {
		return nil, fmt.Errorf("invalid source URL: %w", err)
	}
	if c.authToken != "" {
		q := u.Query()
		q.Set("auth", c.authToken)
		u.RawQuery = q.Encode()
	}

	body, err := c.get(ctx, u.String())
	if err != nil {
		return nil, err
	}

	return DecodeRecords(body)
}

// get retries network failures with a linear backoff. HTTP error statuses
// are not retried.
func (c *SourceClient) get(ctx context.Context, target string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("source returned status %d: %s", resp.StatusCode, string(body))
		}
		return body, nil
	}
	return nil, fmt.Errorf("failed to execute request after %d attempts: %w", maxRetries, lastErr)
}

// DecodeRecords parses either a JSON array of records or an object keyed by
// push id. Keyed records are returned in key order. An entry that is not a
// JSON object is kept in place with nil Fields so the caller can count it.
func DecodeRecords(body []byte) ([]SourceRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return []SourceRecord{}, nil
	}

	switch trimmed[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("failed to parse records: %w", err)
		}
		records := make([]SourceRecord, 0, len(list))
		for _, raw := range list {
			records = append(records, SourceRecord{Fields: decodeFields(raw)})
		}
		return records, nil
	case '{':
		var keyed map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &keyed); err != nil {
			return nil, fmt.Errorf("failed to parse records: %w", err)
		}
		keys := make([]string, 0, len(keyed))
		for k := range keyed {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		records := make([]SourceRecord, 0, len(keys))
		for _, k := range keys {
			records = append(records, SourceRecord{Key: k, Fields: decodeFields(keyed[k])})
		}
		return records, nil
	default:
		return nil, fmt.Errorf("expected a JSON array or object")
	}
}

// decodeFields returns nil unless raw is a JSON object.
func decodeFields(raw json.RawMessage) map[string]interface{} {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var fields map[string]interface{}
	if err := decoder.Decode(&fields); err != nil {
		return nil
	}
	return fields
}
