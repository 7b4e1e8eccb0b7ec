package transform

import (
	"errors"
	"testing"

	"github.com/certen/independant-validator/pkg/errs"
)

func TestResolveAddressesUsesMapThenFallback(t *testing.T) {
	routes := []RawRoute{{GPSID: "mapped"}, {GPSID: "unmapped"}}
	addrMap := AddressMap{"mapped": "0xAAA"}

	resolved, addresses, err := ResolveAddresses(routes, addrMap, KnownUnassignedDevices{}, "0xFALLBACK")
	if err != nil {
		t.Fatal(err)
	}
	if len(resolved) != 2 {
		t.Fatalf("expected both rows resolved, got %d", len(resolved))
	}
	if addresses["mapped"] != "0xAAA" {
		t.Errorf("expected mapped address preserved")
	}
	if addresses["unmapped"] != "0xFALLBACK" {
		t.Errorf("expected fallback address applied")
	}
}

func TestResolveAddressesDropsKnownUnassigned(t *testing.T) {
	routes := []RawRoute{{GPSID: "bench-unit"}}
	known := KnownUnassignedDevices{Devices: []string{"bench-unit"}}

	resolved, _, err := ResolveAddresses(routes, AddressMap{}, known, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(resolved) != 0 {
		t.Errorf("expected known-unassigned device dropped, got %d rows", len(resolved))
	}
}

func TestResolveAddressesFailsOnGenuinelyUnresolved(t *testing.T) {
	routes := []RawRoute{{GPSID: "mystery-device"}}

	_, _, err := ResolveAddresses(routes, AddressMap{}, KnownUnassignedDevices{}, "")
	if err == nil {
		t.Fatal("expected an integrity error")
	}
	var integrityErr *errs.IntegrityError
	if !errors.As(err, &integrityErr) {
		t.Fatalf("expected *errs.IntegrityError, got %T", err)
	}
	if len(integrityErr.Items) != 1 || integrityErr.Items[0] != "mystery-device" {
		t.Errorf("expected unresolved device named in error, got %+v", integrityErr.Items)
	}
}
