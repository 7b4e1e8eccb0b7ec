package objectstore

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// GetYAML reads and unmarshals a YAML object into v.
func (c *Client) GetYAML(ctx context.Context, key string, v interface{}) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("objectstore: failed to parse YAML at %s: %w", key, err)
	}
	return nil
}

// PutYAML marshals v as YAML and writes it atomically.
func (c *Client) PutYAML(ctx context.Context, key string, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("objectstore: failed to marshal YAML for %s: %w", key, err)
	}
	return c.PutAtomic(ctx, key, data)
}

// GetJSON reads and unmarshals a JSON object into v. If the object does not
// exist, v is left untouched and no error is returned, matching the spec's
// "a missing object is equivalent to an empty mapping" rule for checkpoints.
func (c *Client) GetJSON(ctx context.Context, key string, v interface{}) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			return nil
		}
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("objectstore: failed to parse JSON at %s: %w", key, err)
	}
	return nil
}

// PutJSON marshals v as JSON and writes it atomically.
func (c *Client) PutJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("objectstore: failed to marshal JSON for %s: %w", key, err)
	}
	return c.PutAtomic(ctx, key, data)
}

// GetCSV reads a CSV object into header + rows. If the object does not
// exist, both return values are empty with no error.
func (c *Client) GetCSV(ctx context.Context, key string) (header []string, rows [][]string, err error) {
	data, err := c.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	r := csv.NewReader(strings.NewReader(string(data)))
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("objectstore: failed to parse CSV at %s: %w", key, err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

// PutCSV writes header + rows as a CSV object, atomically.
func (c *Client) PutCSV(ctx context.Context, key string, header []string, rows [][]string) error {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if header != nil {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("objectstore: failed to encode CSV header for %s: %w", key, err)
		}
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("objectstore: failed to encode CSV row for %s: %w", key, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("objectstore: csv writer error for %s: %w", key, err)
	}
	return c.PutAtomic(ctx, key, []byte(sb.String()))
}
