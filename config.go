package courier

import (
	"crypto/tls"
	"io"
	"log/slog"
	"time"

	"github.com/synqronlabs/courier/dkim"
	"github.com/synqronlabs/courier/dns"
)

// Config contains configuration options for a Mailer.
// The zero value of each field selects the documented default.
type Config struct {
	// Port is the SMTP port used for every mail exchange.
	// Default: 25
	Port int

	// ConnectTimeout is the TCP connect deadline.
	// Default: 30 seconds
	ConnectTimeout time.Duration

	// ReadTimeout is the per-response deadline within a session.
	// Default: 60 seconds
	ReadTimeout time.Duration

	// MXLookupTimeout is the deadline for a single domain's MX lookup.
	// Default: 10 seconds
	MXLookupTimeout time.Duration

	// DKIM enables signing when set. The private key is parsed when the
	// Mailer is created.
	DKIM *dkim.Config

	// TLSConfig overrides the TLS client configuration used after
	// STARTTLS. The server name is always set to the MX hostname.
	// If nil, platform certificate verification applies.
	TLSConfig *tls.Config

	// Resolver performs MX lookups. Default: dns.NewResolver on the
	// system nameservers. Tests substitute dns.MockResolver.
	Resolver dns.Resolver

	// Logger is the sink for diagnostic events. Default: none.
	Logger *slog.Logger

	// Rand is the randomness source for Message-IDs and MIME boundaries.
	// Default: crypto/rand. Tests may substitute a deterministic source.
	Rand io.Reader
}

// DefaultConfig returns a Config with the documented defaults filled in.
func DefaultConfig() *Config {
	return &Config{
		Port:            25,
		ConnectTimeout:  30 * time.Second,
		ReadTimeout:     60 * time.Second,
		MXLookupTimeout: 10 * time.Second,
	}
}

// port returns the configured SMTP port, defaulting to 25.
func (c *Config) port() int {
	if c.Port == 0 {
		return 25
	}
	return c.Port
}

func (c *Config) connectTimeout() time.Duration {
	if c.ConnectTimeout == 0 {
		return 30 * time.Second
	}
	return c.ConnectTimeout
}

func (c *Config) readTimeout() time.Duration {
	if c.ReadTimeout == 0 {
		return 60 * time.Second
	}
	return c.ReadTimeout
}

func (c *Config) mxLookupTimeout() time.Duration {
	if c.MXLookupTimeout == 0 {
		return 10 * time.Second
	}
	return c.MXLookupTimeout
}

func (c *Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}
