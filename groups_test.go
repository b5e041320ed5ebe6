package courier

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/synqronlabs/courier/dns"
)

func TestGroupRecipients(t *testing.T) {
	resolver := dns.MockResolver{
		MX: map[string][]*net.MX{
			"ex1.com.": {
				{Host: "backup.ex1.com.", Pref: 20},
				{Host: "mx.ex1.com.", Pref: 10},
			},
			"ex2.com.": {
				{Host: "mx.ex2.com.", Pref: 5},
			},
		},
	}

	env := &Envelope{
		From: "sender@origin.test",
		To:   []string{"a@ex1.com"},
		Cc:   []string{"b@ex1.com"},
		Bcc:  []string{"c@ex2.com"},
	}

	groups, err := groupRecipients(context.Background(), env, resolver, time.Second)
	if err != nil {
		t.Fatalf("groupRecipients: %v", err)
	}

	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}

	first := groups[0]
	if first.Host != "mx.ex1.com" || first.Domain != "ex1.com" {
		t.Errorf("first group = %q/%q, want mx.ex1.com/ex1.com", first.Host, first.Domain)
	}
	if len(first.Recipients) != 2 || first.Recipients[0] != "a@ex1.com" || first.Recipients[1] != "b@ex1.com" {
		t.Errorf("first group recipients = %v", first.Recipients)
	}

	second := groups[1]
	if second.Host != "mx.ex2.com" || len(second.Recipients) != 1 || second.Recipients[0] != "c@ex2.com" {
		t.Errorf("second group = %+v", second)
	}
}

func TestGroupRecipientsPicksLowestPreference(t *testing.T) {
	resolver := dns.MockResolver{
		MX: map[string][]*net.MX{
			"ex.test.": {
				{Host: "c.ex.test.", Pref: 30},
				{Host: "a.ex.test.", Pref: 1},
				{Host: "b.ex.test.", Pref: 10},
			},
		},
	}

	env := &Envelope{From: "s@o.test", To: []string{"r@ex.test"}}
	groups, err := groupRecipients(context.Background(), env, resolver, time.Second)
	if err != nil {
		t.Fatalf("groupRecipients: %v", err)
	}
	if groups[0].Host != "a.ex.test" {
		t.Errorf("host = %q, want a.ex.test", groups[0].Host)
	}
}

func TestGroupRecipientsDeduplicates(t *testing.T) {
	resolver := dns.MockResolver{
		MX: map[string][]*net.MX{
			"ex.test.": {{Host: "mx.ex.test.", Pref: 10}},
		},
	}

	env := &Envelope{
		From: "s@o.test",
		To:   []string{"r@ex.test"},
		Cc:   []string{"r@ex.test"},
		Bcc:  []string{"r@ex.test"},
	}

	groups, err := groupRecipients(context.Background(), env, resolver, time.Second)
	if err != nil {
		t.Fatalf("groupRecipients: %v", err)
	}
	if len(groups[0].Recipients) != 1 {
		t.Errorf("recipients = %v, want single entry", groups[0].Recipients)
	}
}

func TestGroupRecipientsResolutionFailures(t *testing.T) {
	tests := []struct {
		name     string
		resolver dns.MockResolver
		wantErr  error
	}{
		{
			name:     "no mx records",
			resolver: dns.MockResolver{},
			wantErr:  dns.ErrNotFound,
		},
		{
			name:     "server failure",
			resolver: dns.MockResolver{Fail: []string{"ex.test."}},
			wantErr:  dns.ErrServFail,
		},
		{
			name:     "lookup timeout",
			resolver: dns.MockResolver{Timeout: []string{"ex.test."}},
			wantErr:  dns.ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &Envelope{From: "s@o.test", To: []string{"r@ex.test"}}
			_, err := groupRecipients(context.Background(), env, tt.resolver, time.Second)

			var mxErr *MXResolutionError
			if !errors.As(err, &mxErr) {
				t.Fatalf("expected MXResolutionError, got %v", err)
			}
			if mxErr.Domain != "ex.test" {
				t.Errorf("Domain = %q, want ex.test", mxErr.Domain)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("cause = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
