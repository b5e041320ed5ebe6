// Package dns provides MX resolution for outbound mail delivery.
//
// The Resolver interface abstracts the lookup so tests can substitute
// MockResolver. The production implementation, MXResolver, queries the
// system nameservers directly via github.com/miekg/dns.
package dns

import (
	"context"
	"errors"
	"net"
)

// Resolver performs DNS MX lookups.
type Resolver interface {
	// LookupMX retrieves the MX records for domain. The returned records
	// are in server order; callers sort by preference.
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
}

// DNS lookup errors.
var (
	// ErrNotFound indicates the name does not exist (NXDOMAIN) or has no
	// records of the requested type.
	ErrNotFound = errors.New("dns: name not found")

	// ErrTimeout indicates the query deadline was exceeded.
	ErrTimeout = errors.New("dns: query timed out")

	// ErrServFail indicates the nameserver returned SERVFAIL or was
	// otherwise unable to answer.
	ErrServFail = errors.New("dns: server failure")

	// ErrRefused indicates the nameserver refused the query.
	ErrRefused = errors.New("dns: query refused")
)

// IsNotFound reports whether err indicates a nonexistent name.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTimeout reports whether err indicates a lookup timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// IsTemporary reports whether err indicates a failure that may succeed
// on retry.
func IsTemporary(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrServFail) ||
		errors.Is(err, context.DeadlineExceeded)
}
