package transform

import "github.com/certen/independant-validator/pkg/errs"

// ResolveAddresses looks up each route's GPS ID in addrMap, falling back to
// fallbackAddress for unmapped rows, then separates the residual unresolved
// set into known-unassigned (dropped as test devices) and genuinely
// unresolved (an integrity violation that fails the whole partition), per
// spec.md section 4.1's "address resolution" step.
func ResolveAddresses(routes []RawRoute, addrMap AddressMap, known KnownUnassignedDevices, fallbackAddress string) (resolved []RawRoute, addresses map[string]string, err error) {
	knownSet := known.set()
	addresses = make(map[string]string, len(routes))
	var unresolved []string

	resolved = make([]RawRoute, 0, len(routes))
	for _, r := range routes {
		addr, ok := addrMap[r.GPSID]
		if !ok && fallbackAddress != "" {
			addr, ok = fallbackAddress, true
		}
		if ok {
			addresses[r.GPSID] = addr
			resolved = append(resolved, r)
			continue
		}
		if knownSet[r.GPSID] {
			// Test device with no assigned address: drop silently.
			continue
		}
		unresolved = append(unresolved, r.GPSID)
	}

	if len(unresolved) > 0 {
		return nil, nil, &errs.IntegrityError{
			Reason: "unresolved devices with no address and not in known-unassigned list",
			Items:  dedupe(unresolved),
		}
	}

	return resolved, addresses, nil
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}
