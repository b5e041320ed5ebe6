package dkim

import "errors"

// Signing errors.
var (
	// ErrInvalidPrivateKey indicates the PEM private key could not be
	// parsed or is not an RSA key.
	ErrInvalidPrivateKey = errors.New("dkim: invalid private key")

	// ErrMalformedMessage indicates the message could not be split into
	// a header block and body.
	ErrMalformedMessage = errors.New("dkim: malformed message")

	// ErrSignFailed indicates the RSA signing operation failed.
	ErrSignFailed = errors.New("dkim: signing failed")
)
