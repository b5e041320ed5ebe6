package dkim

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

// Signer produces DKIM-Signature headers for outbound messages.
// A Signer is immutable and safe for concurrent use.
type Signer struct {
	domain   string
	selector string
	key      *rsa.PrivateKey

	// Headers is the colon-separated list of header fields offered for
	// signing. Empty means DefaultSignedHeaders.
	Headers string
}

// NewSigner parses the configured private key and returns a Signer.
func NewSigner(config Config) (*Signer, error) {
	key, err := parsePrivateKey(config.PrivateKey)
	if err != nil {
		return nil, err
	}
	return &Signer{
		domain:   config.Domain,
		selector: config.Selector,
		key:      key,
	}, nil
}

// parsePrivateKey decodes a PEM RSA private key in PKCS#1 or PKCS#8 form.
func parsePrivateKey(pemData string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidPrivateKey)
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key (%T)", ErrInvalidPrivateKey, parsed)
	}
	return key, nil
}

// Sign signs the complete RFC 5322 message (headers, blank line, body)
// and returns the folded DKIM-Signature header including its trailing
// CRLF, ready to be prepended to the message.
func (s *Signer) Sign(message []byte) (string, error) {
	headers, body := splitMessage(message)

	bodyHash := sha256.Sum256(relaxedBody(body))
	bh := base64.StdEncoding.EncodeToString(bodyHash[:])

	fieldList := s.Headers
	if fieldList == "" {
		fieldList = DefaultSignedHeaders
	}
	canonical, kept := relaxedHeaders(headers, fieldList)

	domain, err := signingDomain(s.domain)
	if err != nil {
		return "", err
	}

	tags := fmt.Sprintf("v=1; a=rsa-sha256; c=relaxed/relaxed; d=%s; q=dns/txt; s=%s; bh=%s; h=%s",
		domain, s.selector, bh, kept)

	// The header with an empty b= value is both signed and emitted. Relaxed
	// canonicalization unfolds it, so the fold positions do not change the
	// signed bytes.
	unsigned := foldLine("DKIM-Signature: "+tags+";", defaultFoldWidth) + "\r\n b="

	name, value := relaxedHeaderLine(unsigned)
	signed := canonical + name + ":" + value

	digest := sha256.Sum256([]byte(signed))
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSignFailed, err)
	}

	encoded := base64.StdEncoding.EncodeToString(sig)
	header := strings.TrimRight(unsigned+foldSignature(encoded), " \t")
	return header + "\r\n", nil
}

// signingDomain converts an internationalized signing domain to A-label
// (Punycode) form; ASCII domains pass through unchanged.
func signingDomain(domain string) (string, error) {
	ascii := true
	for i := 0; i < len(domain); i++ {
		if domain[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return domain, nil
	}
	converted, err := idna.ToASCII(domain)
	if err != nil {
		return "", fmt.Errorf("%w: domain %q: %v", ErrSignFailed, domain, err)
	}
	return converted, nil
}

// splitMessage splits a message at the first blank line into its header
// block (including the final CRLF) and body.
func splitMessage(message []byte) (headers string, body []byte) {
	if idx := bytes.Index(message, []byte("\r\n\r\n")); idx != -1 {
		return string(message[:idx+2]), message[idx+4:]
	}
	if idx := bytes.Index(message, []byte("\n\n")); idx != -1 {
		return string(message[:idx+1]), message[idx+2:]
	}
	return string(message), nil
}

// foldSignature folds the base64 signature value for the b= tag. The b=
// line already carries 3 visible octets (" b="), so the first segment is
// 73 octets and continuations carry at most 75, keeping every line within
// 76 octets. Each fold is CRLF SPACE.
func foldSignature(encoded string) string {
	var b strings.Builder
	n := 73
	for len(encoded) > 0 {
		if n > len(encoded) {
			n = len(encoded)
		}
		b.WriteString(encoded[:n])
		encoded = encoded[n:]
		if len(encoded) > 0 {
			b.WriteString("\r\n ")
		}
		n = 75
	}
	return b.String()
}
