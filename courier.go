// Package courier delivers outbound mail directly to the recipients'
// mail exchanges over SMTP, without an intermediate relay.
//
// Given an Envelope, a Mailer builds the RFC 5322 MIME message, signs it
// with DKIM when configured, resolves the destination MX hosts, and runs
// one SMTP session per recipient group with mandatory STARTTLS:
//
//	mailer, err := courier.New(&courier.Config{
//	    DKIM: &dkim.Config{
//	        Domain:     "example.com",
//	        Selector:   "mail",
//	        PrivateKey: pemKey,
//	    },
//	})
//	receipt, err := mailer.Send(ctx, &courier.Envelope{
//	    From:    "news@example.com",
//	    To:      []string{"alice@example.org"},
//	    Subject: "Hello",
//	    Text:    "Hello from courier.",
//	})
//
// Delivery is fail-fast: recipient groups are attempted sequentially and
// the first failing group aborts the send. Retry and queueing policy
// belong to the caller; the DeliveryReceipt records what was accepted
// before a failure.
package courier

import (
	"context"
	"crypto/rand"
	"io"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/synqronlabs/courier/dkim"
	"github.com/synqronlabs/courier/dns"
)

// Mailer sends envelopes directly to their recipients' mail exchanges.
// A Mailer is safe for concurrent use; sessions share no mutable state.
type Mailer struct {
	config   *Config
	signer   *dkim.Signer
	resolver dns.Resolver
}

// New creates a Mailer. The DKIM private key, when configured, is parsed
// here so key problems surface before any delivery is attempted.
func New(config *Config) (*Mailer, error) {
	if config == nil {
		config = DefaultConfig()
	}

	m := &Mailer{config: config, resolver: config.Resolver}
	if m.resolver == nil {
		m.resolver = dns.NewResolver(dns.ResolverConfig{})
	}

	if config.DKIM != nil {
		signer, err := dkim.NewSigner(*config.DKIM)
		if err != nil {
			return nil, err
		}
		m.signer = signer
	}
	return m, nil
}

// Send delivers the envelope to every recipient group. Groups are
// attempted sequentially in first-appearance order of their domains; the
// first failure aborts the send and the remaining groups are not
// attempted. When a group fails, the returned receipt lists the groups
// accepted before it; validation and MX grouping failures return a nil
// receipt.
func (m *Mailer) Send(ctx context.Context, env *Envelope) (*DeliveryReceipt, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}

	id := ulid.MustNew(ulid.Timestamp(timeNow()), m.random()).String()
	log := m.config.logger().With(slog.String("delivery", id))

	groups, err := groupRecipients(ctx, env, m.resolver, m.config.mxLookupTimeout())
	if err != nil {
		log.Error("mx grouping failed", slog.Any("error", err))
		return nil, err
	}

	receipt := &DeliveryReceipt{
		ID:     id,
		From:   env.From,
		SentAt: timeNow(),
	}

	for _, group := range groups {
		message, err := buildMessage(env, m.random())
		if err != nil {
			return receipt, err
		}

		if m.signer != nil {
			header, err := m.signer.Sign(message)
			if err != nil {
				return receipt, err
			}
			message = append([]byte(header), message...)
		}

		sess := newSession(m.config, group.Host, log)
		reply, err := sess.deliver(ctx, env.From, group.Recipients, message)
		if err != nil {
			log.Error("delivery failed",
				slog.String("mx", group.Host),
				slog.String("domain", group.Domain),
				slog.Any("error", err))
			return receipt, err
		}

		receipt.Groups = append(receipt.Groups, GroupResult{
			Host:       group.Host,
			Domain:     group.Domain,
			Recipients: group.Recipients,
			Reply:      reply,
		})
		log.Info("group delivered",
			slog.String("mx", group.Host),
			slog.Int("recipients", len(group.Recipients)))
	}

	return receipt, nil
}

// random returns the configured randomness source, defaulting to the
// platform CSPRNG.
func (m *Mailer) random() io.Reader {
	if m.config.Rand != nil {
		return m.config.Rand
	}
	return rand.Reader
}
