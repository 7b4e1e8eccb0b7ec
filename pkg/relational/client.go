package relational

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Client is a thin REST client over the relational store's per-view
// projection API, in the same Client/ClientOption/NewClient shape as this
// module's other external-service clients.
type Client struct {
	baseURL string
	apiKey  string
	baseID  string

	httpClient *http.Client
	logger     *log.Logger
	maxRetries uint64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger overrides the default component-prefixed logger.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a relational-store client.
func NewClient(baseURL, apiKey, baseID string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" || apiKey == "" {
		return nil, fmt.Errorf("relational: base URL and API key are required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		baseID:     baseID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log.New(log.Writer(), "[Relational] ", log.LstdFlags),
		maxRetries: 5,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// record is the raw shape of one row as returned by the view API: a field
// map whose values may carry the store's "VERDADERO"/"FALSO" boolean
// sentinels instead of real JSON booleans.
type record struct {
	ID     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

type listResponse struct {
	Records []record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

// listView fetches every record of a view, following the offset-based
// pagination cursor the store returns, retrying transient HTTP failures with
// exponential backoff.
func (c *Client) listView(ctx context.Context, view string, filterFormula string) ([]record, error) {
	var all []record
	offset := ""

	for {
		q := url.Values{}
		q.Set("view", view)
		if filterFormula != "" {
			q.Set("filterByFormula", filterFormula)
		}
		if offset != "" {
			q.Set("offset", offset)
		}

		reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, c.baseID, q.Encode())

		var page listResponse
		op := func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("relational: failed to build request: %w", err))
			}
			req.Header.Set("Authorization", "Bearer "+c.apiKey)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("relational: request failed: %w", err)
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("relational: failed to read response: %w", err)
			}

			if resp.StatusCode >= 500 {
				return fmt.Errorf("relational: view %s returned status %d: %s", view, resp.StatusCode, string(data))
			}
			if resp.StatusCode != http.StatusOK {
				return backoff.Permanent(fmt.Errorf("relational: view %s returned status %d: %s", view, resp.StatusCode, string(data)))
			}

			return json.Unmarshal(data, &page)
		}

		boff := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries)
		if err := backoff.Retry(op, backoff.WithContext(boff, ctx)); err != nil {
			return nil, err
		}

		all = append(all, page.Records...)
		if page.Offset == "" {
			break
		}
		offset = page.Offset
	}

	c.logger.Printf("fetched %d records from view %s", len(all), view)
	return all, nil
}

// patchFields updates the given fields on a single record by ID.
func (c *Client) patchFields(ctx context.Context, recordID string, fields map[string]interface{}) error {
	body, err := json.Marshal(map[string]interface{}{"fields": fields})
	if err != nil {
		return fmt.Errorf("relational: failed to marshal update: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s/%s", c.baseURL, c.baseID, recordID)

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPatch, reqURL, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("relational: failed to build patch request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("relational: patch request failed: %w", err)
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)

		if resp.StatusCode >= 500 {
			return fmt.Errorf("relational: patch %s returned status %d: %s", recordID, resp.StatusCode, string(data))
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("relational: patch %s returned status %d: %s", recordID, resp.StatusCode, string(data)))
		}
		return nil
	}

	boff := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries)
	return backoff.Retry(op, backoff.WithContext(boff, ctx))
}

// boolField translates the store's VERDADERO/FALSO string sentinels (and
// real JSON booleans) into a Go bool. This single adapter is the only place
// the sentinel/boolean conflation is handled, per SPEC_FULL.md's design
// notes (section 9).
func boolField(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "VERDADERO") || strings.EqualFold(t, "true")
	default:
		return false
	}
}

func stringField(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func float64Field(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	default:
		return 0
	}
}

func intField(v interface{}) int {
	return int(float64Field(v))
}

func uint64Field(v interface{}) uint64 {
	return uint64(float64Field(v))
}
