package metrics

import (
	"errors"
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func TestObserveStageRecordsErrorOnFailure(t *testing.T) {
	r := New()
	_, err := ObserveStage(r, "transform", func() (int, error) { return 0, errors.New("boom") })
	if err == nil {
		t.Fatal("expected error to propagate")
	}

	metric := &dto.Metric{}
	if err := r.StageErrors.WithLabelValues("transform").Write(metric); err != nil {
		t.Fatalf("failed to read counter: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("expected 1 stage error recorded, got %v", metric.Counter.GetValue())
	}
}

func TestObserveStageSuccessDoesNotIncrementErrors(t *testing.T) {
	r := New()
	n, err := ObserveStage(r, "extract", func() (int, error) { return 5, nil })
	if err != nil || n != 5 {
		t.Fatalf("expected (5, nil), got (%d, %v)", n, err)
	}

	metric := &dto.Metric{}
	if err := r.StageErrors.WithLabelValues("extract").Write(metric); err != nil {
		t.Fatalf("failed to read counter: %v", err)
	}
	if metric.Counter.GetValue() != 0 {
		t.Errorf("expected 0 stage errors, got %v", metric.Counter.GetValue())
	}
}
