package courier

import (
	"fmt"
)

// MXResolutionError indicates MX records for a recipient domain could not
// be obtained: a DNS error, an empty MX set, or a lookup timeout.
type MXResolutionError struct {
	Domain string
	Err    error
}

func (e *MXResolutionError) Error() string {
	return fmt.Sprintf("mx resolution failed for %s: %v", e.Domain, e.Err)
}

func (e *MXResolutionError) Unwrap() error { return e.Err }

// ConnectError indicates the TCP connection to a mail exchange could not
// be established within the connect timeout.
type ConnectError struct {
	Host string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to %s failed: %v", e.Host, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// TLSRequiredError indicates the remote server did not advertise the
// STARTTLS capability. Delivery is aborted before any message data is
// transmitted.
type TLSRequiredError struct {
	Host string
}

func (e *TLSRequiredError) Error() string {
	return fmt.Sprintf("%s does not advertise STARTTLS", e.Host)
}

// TLSHandshakeError indicates the TLS negotiation after STARTTLS failed.
type TLSHandshakeError struct {
	Host string
	Err  error
}

func (e *TLSHandshakeError) Error() string {
	return fmt.Sprintf("tls handshake with %s failed: %v", e.Host, e.Err)
}

func (e *TLSHandshakeError) Unwrap() error { return e.Err }

// TimeoutError indicates a read deadline expired during an active SMTP
// session. The session's socket is destroyed.
type TimeoutError struct {
	Host string
	Err  error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("smtp session with %s timed out: %v", e.Host, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// PermanentError indicates the server replied with a permanent failure
// code (>= 500). Retrying will not succeed.
type PermanentError struct {
	Host string
	Code int
	Line string
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s replied %d: %s", e.Host, e.Code, e.Line)
}

// TransientError indicates the server replied with a transient failure
// code (4xx). A later attempt may succeed; retry policy is the caller's.
type TransientError struct {
	Host string
	Code int
	Line string
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s replied %d (transient): %s", e.Host, e.Code, e.Line)
}

// AttachmentError indicates an attachment's bytes could not be produced.
type AttachmentError struct {
	Filename string
	Err      error
}

func (e *AttachmentError) Error() string {
	return fmt.Sprintf("attachment %q unavailable: %v", e.Filename, e.Err)
}

func (e *AttachmentError) Unwrap() error { return e.Err }
