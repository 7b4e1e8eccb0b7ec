package publisher

import (
	"context"
	"fmt"
	"sync"
)

// FlagMarker is the subset of relational.CreditRepository/PaymentRepository
// both satisfy: mark one record's per-environment published flag.
type FlagMarker interface {
	MarkPublished(ctx context.Context, recordID, publishedFlagField string) error
}

// RelationalSink is the Sink implementation credits and payments use. The
// relational store's view query already filters out published records
// (spec.md section 6: "filter by the appropriate PublishedToCelo{Env}
// flag"), so IsPublished only needs to catch records marked published
// earlier in the *same* batch — a record never appears twice in one
// ListPendingForEnv result, but a crash-free in-batch re-check costs nothing.
type RelationalSink struct {
	ctx                context.Context
	marker             FlagMarker
	publishedFlagField string
	recordIDByKey      map[string]string

	mu   sync.Mutex
	seen map[string]bool
}

// NewRelationalSink builds a sink over credit or payment records, given a
// map from the publisher's Record.Key (decimal credit/payment ID) to the
// relational store's internal record ID.
func NewRelationalSink(ctx context.Context, marker FlagMarker, publishedFlagField string, recordIDByKey map[string]string) *RelationalSink {
	return &RelationalSink{
		ctx:                ctx,
		marker:             marker,
		publishedFlagField: publishedFlagField,
		recordIDByKey:      recordIDByKey,
		seen:               make(map[string]bool),
	}
}

func (s *RelationalSink) IsPublished(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[key]
}

func (s *RelationalSink) MarkPublished(key, txHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[key] {
		return nil
	}
	recordID, ok := s.recordIDByKey[key]
	if !ok {
		return fmt.Errorf("publisher: no relational record ID for key %s", key)
	}
	if err := s.marker.MarkPublished(s.ctx, recordID, s.publishedFlagField); err != nil {
		return fmt.Errorf("publisher: failed to mark %s published: %w", key, err)
	}
	s.seen[key] = true
	return nil
}

// Flush is a no-op: each MarkPublished call already committed to the
// relational store, which has no separate checkpoint to persist.
func (s *RelationalSink) Flush() error { return nil }
