// Package dkim implements DKIM message signing (RFC 6376) with
// relaxed/relaxed canonicalization and rsa-sha256 signatures.
//
// The signer takes a complete RFC 5322 message and produces a folded
// DKIM-Signature header ready to be prepended to the message:
//
//	signer, err := dkim.NewSigner(dkim.Config{
//	    Domain:     "example.com",
//	    Selector:   "mail",
//	    PrivateKey: pemKey,
//	})
//	header, err := signer.Sign(message)
//
// Verifiers locate the public key in a DNS TXT record at
// <selector>._domainkey.<domain> of the form
// "v=DKIM1; k=rsa; p=<base64 public key>".
package dkim

// Config holds the signing identity.
type Config struct {
	// Domain is the signing domain (d= tag). Internationalized domains
	// are converted to A-label form before signing.
	Domain string

	// Selector locates the public key TXT record (s= tag).
	Selector string

	// PrivateKey is an RSA private key in PEM form, either PKCS#1
	// ("RSA PRIVATE KEY") or PKCS#8 ("PRIVATE KEY").
	PrivateKey string
}

// DefaultSignedHeaders is the default colon-separated list of header
// fields offered for signing. Fields absent from the message are dropped
// from the h= tag. Message-ID, Date, Return-Path and Bounces-To are
// deliberately omitted: downstream MTAs commonly rewrite them.
const DefaultSignedHeaders = "From:Sender:Reply-To:Subject:To:Cc:MIME-Version:" +
	"Content-Type:Content-Transfer-Encoding:Content-ID:Content-Description:" +
	"Resent-Date:Resent-From:Resent-Sender:Resent-To:Resent-Cc:Resent-Message-ID:" +
	"In-Reply-To:References:List-Id:List-Help:List-Unsubscribe:List-Subscribe:" +
	"List-Post:List-Owner:List-Archive"
