package publisher

import (
	"context"
	"fmt"
	"sync"

	"github.com/certen/independant-validator/pkg/objectstore"
)

// entry is one route's published-transaction metadata, per spec.md section
// 3's "Published-set (route checkpoint)" shape.
type entry struct {
	Nonce    uint64 `json:"nonce"`
	GasPrice string `json:"gasPrice"`
	TxHash   string `json:"txHash"`
}

// CheckpointSink is the Sink implementation routes use: an object-store-
// backed map of routeID -> transaction metadata for one {env, date}
// partition, read at publisher start and rewritten atomically at the end.
type CheckpointSink struct {
	store *objectstore.Client
	key   string

	mu      sync.Mutex
	entries map[string]entry
}

// NewCheckpointSink loads the existing checkpoint for {env, date}, treating
// a missing object as an empty mapping per spec.md section 3.
func NewCheckpointSink(ctx context.Context, store *objectstore.Client, env, date string) (*CheckpointSink, error) {
	key := objectstore.PublishedRoutesKey(env, date)
	entries := make(map[string]entry)
	if err := store.GetJSON(ctx, key, &entries); err != nil {
		return nil, fmt.Errorf("publisher: failed to load route checkpoint %s: %w", key, err)
	}
	return &CheckpointSink{store: store, key: key, entries: entries}, nil
}

func (s *CheckpointSink) IsPublished(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

func (s *CheckpointSink) MarkPublished(key, txHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{TxHash: txHash}
	return nil
}

// Flush persists the checkpoint back to the object store. Called both on
// clean completion and on early exit (budget exhaustion, fatal abort) so no
// partial progress is lost between invocations. Uses a background context
// deliberately: a budget-exhausted abort may already be past its deadline,
// and the flush must still go through.
func (s *CheckpointSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.PutJSON(context.Background(), s.key, s.entries); err != nil {
		return fmt.Errorf("publisher: failed to flush route checkpoint %s: %w", s.key, err)
	}
	return nil
}
