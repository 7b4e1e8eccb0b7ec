package transform

import (
	"context"
	"testing"
)

type fakeCounter struct {
	value uint64
}

func (f *fakeCounter) Next(ctx context.Context, name string) (uint64, error) {
	f.value++
	return f.value, nil
}

func TestIssuerMonotonic(t *testing.T) {
	c := &fakeCounter{value: 99999}
	issuer := NewIssuer(c, "RouteID", nil)

	id1, err := issuer.Issue(context.Background(), RawRoute{ExternalRouteKey: "a"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	id2, err := issuer.Issue(context.Background(), RawRoute{ExternalRouteKey: "b"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if id2 <= id1 {
		t.Errorf("expected id2 (%d) > id1 (%d)", id2, id1)
	}
}

func TestIssuerReusesHistoryForSameExternalKey(t *testing.T) {
	c := &fakeCounter{value: 99999}
	issuer := NewIssuer(c, "RouteID", nil)

	first, err := issuer.Issue(context.Background(), RawRoute{ExternalRouteKey: "dup"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	second, err := issuer.Issue(context.Background(), RawRoute{ExternalRouteKey: "dup"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("expected re-run with same external key to reuse issued ID: %d != %d", first, second)
	}
	if c.value != 100000 {
		t.Errorf("expected counter to be incremented only once, called value=%d", c.value)
	}
}

func TestApplyPrefixConcatenatesDecimalDigit(t *testing.T) {
	id := applyPrefix(100001, 2)
	if id != 2100001 {
		t.Errorf("expected prefixed ID 2100001, got %d", id)
	}
}

func TestApplyPrefixZeroIsNoOp(t *testing.T) {
	id := applyPrefix(100001, 0)
	if id != 100001 {
		t.Errorf("expected unprefixed ID 100001, got %d", id)
	}
}
