package courier

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/synqronlabs/courier/dns"
)

// RecipientGroup pairs a mail exchange host with the recipients delivered
// through it. All three recipient kinds are merged by destination domain.
type RecipientGroup struct {
	// Host is the highest-priority MX host for the group's domain.
	Host string

	// Domain is the recipient domain the group was formed from.
	Domain string

	// Recipients lists every envelope recipient for this domain, in
	// to, cc, bcc order.
	Recipients []string
}

// groupRecipients merges the envelope's recipient lists, groups them by
// the domain after "@", and resolves each domain's best MX host. Groups
// come back in first-appearance order of their domains. Lookups for
// distinct domains run concurrently, each under its own timeout.
func groupRecipients(ctx context.Context, env *Envelope, resolver dns.Resolver, timeout time.Duration) ([]RecipientGroup, error) {
	var domains []string
	byDomain := make(map[string][]string)

	for _, addr := range env.recipients() {
		domain, err := addressDomain(addr)
		if err != nil {
			return nil, err
		}
		domain = strings.ToLower(domain)
		if _, ok := byDomain[domain]; !ok {
			domains = append(domains, domain)
		}
		byDomain[domain] = append(byDomain[domain], addr)
	}

	groups := make([]RecipientGroup, len(domains))
	errs := make([]error, len(domains))

	var wg sync.WaitGroup
	for i, domain := range domains {
		wg.Add(1)
		go func(i int, domain string) {
			defer wg.Done()
			host, err := resolveMX(ctx, resolver, domain, timeout)
			if err != nil {
				errs[i] = &MXResolutionError{Domain: domain, Err: err}
				return
			}
			groups[i] = RecipientGroup{
				Host:       host,
				Domain:     domain,
				Recipients: byDomain[domain],
			}
		}(i, domain)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// resolveMX looks up the MX records for domain and returns the host with
// the lowest preference value. Ties keep server order.
func resolveMX(ctx context.Context, resolver dns.Resolver, domain string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	records, err := resolver.LookupMX(ctx, domain)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", dns.ErrNotFound
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Pref < records[j].Pref
	})

	return strings.TrimSuffix(records[0].Host, "."), nil
}
