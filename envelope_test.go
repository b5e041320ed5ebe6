package courier

import (
	"errors"
	"testing"
)

func TestEnvelopeValidate(t *testing.T) {
	valid := func() *Envelope {
		return &Envelope{
			From: "alice@example.com",
			To:   []string{"bob@example.org"},
		}
	}

	t.Run("valid", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("missing sender", func(t *testing.T) {
		env := valid()
		env.From = ""
		if err := env.Validate(); !errors.Is(err, ErrNoSender) {
			t.Errorf("Validate() = %v, want ErrNoSender", err)
		}
	})

	t.Run("no recipients", func(t *testing.T) {
		env := valid()
		env.To = nil
		if err := env.Validate(); !errors.Is(err, ErrNoRecipients) {
			t.Errorf("Validate() = %v, want ErrNoRecipients", err)
		}
	})

	t.Run("malformed recipient", func(t *testing.T) {
		env := valid()
		env.Bcc = []string{"not-an-address"}
		if err := env.Validate(); err == nil {
			t.Error("Validate() = nil, want error")
		}
	})

	t.Run("attachment without handle", func(t *testing.T) {
		env := valid()
		env.Attachments = []Attachment{{Filename: "x.bin"}}
		if err := env.Validate(); err == nil {
			t.Error("Validate() = nil, want error")
		}
	})
}

func TestRecipientsOrder(t *testing.T) {
	env := &Envelope{
		From: "s@o.test",
		To:   []string{"a@x.test", "b@x.test"},
		Cc:   []string{"c@y.test", "a@x.test"},
		Bcc:  []string{"d@z.test"},
	}

	got := env.recipients()
	want := []string{"a@x.test", "b@x.test", "c@y.test", "d@z.test"}
	if len(got) != len(want) {
		t.Fatalf("recipients() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("recipients()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestAddressDomain(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"alice@example.com", "example.com", false},
		{"a@b@c.com", "c.com", false},
		{"no-at-sign", "", true},
		{"@domain.only", "", true},
		{"local@", "", true},
	}

	for _, tt := range tests {
		got, err := addressDomain(tt.in)
		if tt.wantErr != (err != nil) {
			t.Errorf("addressDomain(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("addressDomain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
