package dns

import (
	"context"
	"net"
	"slices"
)

// MockResolver is a Resolver used for testing.
// Set MX records in the MX field, which maps FQDNs (with trailing dot)
// to records.
type MockResolver struct {
	MX map[string][]*net.MX

	// Fail contains domains whose lookups return a temporary error
	// (SERVFAIL). FQDN format with trailing dot.
	Fail []string

	// Timeout contains domains whose lookups return ErrTimeout.
	// FQDN format with trailing dot.
	Timeout []string
}

var _ Resolver = MockResolver{}

// ensureFQDN ensures the name ends with a dot.
func ensureFQDN(name string) string {
	if len(name) == 0 || name[len(name)-1] != '.' {
		return name + "."
	}
	return name
}

// LookupMX returns the configured MX records for the given domain.
func (r MockResolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name = ensureFQDN(name)

	if slices.Contains(r.Fail, name) {
		return nil, ErrServFail
	}
	if slices.Contains(r.Timeout, name) {
		return nil, ErrTimeout
	}

	records := r.MX[name]
	if len(records) == 0 {
		return nil, ErrNotFound
	}

	// Copy so callers can sort without mutating the fixture.
	out := make([]*net.MX, len(records))
	copy(out, records)
	return out, nil
}
