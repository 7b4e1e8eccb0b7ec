package publisher

import (
	"context"
	"testing"
)

type fakeMarker struct {
	calls int
}

func (f *fakeMarker) MarkPublished(ctx context.Context, recordID, publishedFlagField string) error {
	f.calls++
	return nil
}

func TestRelationalSinkMarksPublishedOnceIdempotently(t *testing.T) {
	marker := &fakeMarker{}
	sink := NewRelationalSink(context.Background(), marker, "PublishedToCeloStaging", map[string]string{"42": "rec42"})

	if sink.IsPublished("42") {
		t.Fatal("expected record not yet published")
	}
	if err := sink.MarkPublished("42", "0xhash"); err != nil {
		t.Fatal(err)
	}
	if !sink.IsPublished("42") {
		t.Fatal("expected record published after MarkPublished")
	}
	// A second call, as would happen if a caller retried within the same
	// batch, must not issue a second relational-store write.
	if err := sink.MarkPublished("42", "0xhash"); err != nil {
		t.Fatal(err)
	}
	if marker.calls != 1 {
		t.Errorf("expected exactly 1 relational write, got %d", marker.calls)
	}
}

func TestRelationalSinkUnknownKeyErrors(t *testing.T) {
	marker := &fakeMarker{}
	sink := NewRelationalSink(context.Background(), marker, "PublishedToCeloStaging", map[string]string{})

	if err := sink.MarkPublished("missing", "0xhash"); err == nil {
		t.Fatal("expected error for unmapped record key")
	}
}
