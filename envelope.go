package courier

import (
	"errors"
	"fmt"
	"strings"
)

// Envelope errors.
var (
	ErrNoSender     = errors.New("courier: sender address required")
	ErrNoRecipients = errors.New("courier: at least one recipient required")
)

// Envelope describes one outbound message: the sender, the recipient
// lists, the subject, the bodies and any attachments. Recipients in Bcc
// receive the message but are never named in its headers.
type Envelope struct {
	From string

	To  []string
	Cc  []string
	Bcc []string

	Subject string

	// Text is the plain-text body. HTML, when non-empty, is offered as
	// an alternative part alongside it.
	Text string
	HTML string

	Attachments []Attachment
}

// Attachment is a file attached to a message. Content is a handle
// producing the attachment bytes; it is invoked once per built message so
// the same Envelope can be delivered to multiple recipient groups.
type Attachment struct {
	Filename    string
	ContentType string
	Content     func() ([]byte, error)
}

// Validate checks the envelope before delivery: the sender and every
// recipient must be a parseable mailbox and at least one recipient must
// be present.
func (e *Envelope) Validate() error {
	if e.From == "" {
		return ErrNoSender
	}
	if _, err := addressDomain(e.From); err != nil {
		return err
	}
	if len(e.To)+len(e.Cc)+len(e.Bcc) == 0 {
		return ErrNoRecipients
	}
	for _, list := range [][]string{e.To, e.Cc, e.Bcc} {
		for _, addr := range list {
			if _, err := addressDomain(addr); err != nil {
				return err
			}
		}
	}
	for _, a := range e.Attachments {
		if a.Filename == "" || a.Content == nil {
			return fmt.Errorf("courier: attachment needs a filename and content handle")
		}
	}
	return nil
}

// recipients returns all recipient addresses in to, cc, bcc order with
// exact duplicates removed (first occurrence wins).
func (e *Envelope) recipients() []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range [][]string{e.To, e.Cc, e.Bcc} {
		for _, addr := range list {
			if seen[addr] {
				continue
			}
			seen[addr] = true
			out = append(out, addr)
		}
	}
	return out
}

// addressDomain extracts the domain part of a mailbox address.
func addressDomain(address string) (string, error) {
	at := strings.LastIndex(address, "@")
	if at <= 0 || at == len(address)-1 {
		return "", fmt.Errorf("courier: malformed address %q", address)
	}
	return address[at+1:], nil
}
