// Package tribu is the fleet-tracking API client (spec.md's "Tribu"): a
// bearer-token login followed by form-encoded POSTs that return JSON with a
// "body" field, per SPEC_FULL.md section 6. Built in the Client/ClientOption
// shape used by the rest of this module's external-service clients.
package tribu

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Client is a fleet API client scoped to one username/password pair.
type Client struct {
	baseURL  string
	username string
	password string

	httpClient *http.Client
	logger     *log.Logger

	mu    sync.Mutex
	token string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger overrides the default component-prefixed logger.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient overrides the default http.Client (e.g. for test doubles).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a fleet API client. It does not log in eagerly; the
// first call needing a token triggers it.
func NewClient(baseURL, username, password string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" || username == "" || password == "" {
		return nil, fmt.Errorf("tribu: base URL, username, and password are all required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log.New(log.Writer(), "[Tribu] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type loginResponse struct {
	Body struct {
		Token string `json:"token"`
	} `json:"body"`
}

// login exchanges the configured credentials for a bearer token.
func (c *Client) login(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("tribu: failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("tribu: login request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("tribu: failed to read login response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tribu: login returned status %d: %s", resp.StatusCode, string(data))
	}

	var parsed loginResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("tribu: failed to parse login response: %w", err)
	}
	if parsed.Body.Token == "" {
		return "", fmt.Errorf("tribu: login response did not include a token")
	}
	return parsed.Body.Token, nil
}

func (c *Client) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}
	token, err := c.login(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	return token, nil
}

// Route is one raw row as returned by the fleet API's data endpoint, before
// any transform-stage normalization.
type Route struct {
	GPSID             string `json:"k_dispositivo"`
	TimestampStart    string `json:"o_fecha_inicial"`
	TimestampEnd      string `json:"o_fecha_final"`
	MeasuredDistance  float64 `json:"f_distancia"`
	ExternalRouteKey  string `json:"id_ruta"`
}

type dataResponse struct {
	Body struct {
		Routes []Route `json:"routes"`
	} `json:"body"`
}

// FetchRoutes retrieves the raw routes for [startDate, endDate] (inclusive,
// "YYYY-MM-DD") for the given source family.
func (c *Client) FetchRoutes(ctx context.Context, source, startDate, endDate string) ([]Route, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("source", source)
	form.Set("start_date", startDate)
	form.Set("end_date", endDate)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/routes", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("tribu: failed to build routes request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tribu: routes request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Token expired; log in once more and retry.
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		if token, err = c.getToken(ctx); err != nil {
			return nil, err
		}
		retry, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/routes", strings.NewReader(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("tribu: failed to build routes request: %w", err)
		}
		retry.Header = req.Header.Clone()
		retry.Header.Set("Authorization", "Bearer "+token)
		if resp, err = c.httpClient.Do(retry); err != nil {
			return nil, fmt.Errorf("tribu: routes request failed: %w", err)
		}
		defer resp.Body.Close()
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tribu: failed to read routes response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tribu: routes endpoint returned status %d: %s", resp.StatusCode, string(data))
	}

	var parsed dataResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("tribu: failed to parse routes response: %w", err)
	}

	c.logger.Printf("fetched %d raw routes for source=%s [%s, %s]", len(parsed.Body.Routes), source, startDate, endDate)
	return parsed.Body.Routes, nil
}
