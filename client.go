package courier

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"
)

// SessionState is the position of an SMTP session in its lifecycle.
// A session exists for one delivery to one mail exchange and is never
// reused.
type SessionState int

const (
	StateConnected SessionState = iota
	StateGreetedPlain
	StateAwaitingTLS
	StateTLSConnected
	StateGreetedTLS
	StateSendingEnvelope
	StateSendingData
	StateClosing
	StateClosed
)

var stateNames = map[SessionState]string{
	StateConnected:       "CONNECTED",
	StateGreetedPlain:    "GREETED_PLAIN",
	StateAwaitingTLS:     "AWAITING_TLS",
	StateTLSConnected:    "TLS_CONNECTED",
	StateGreetedTLS:      "GREETED_TLS",
	StateSendingEnvelope: "SENDING_ENVELOPE",
	StateSendingData:     "SENDING_DATA",
	StateClosing:         "CLOSING",
	StateClosed:          "CLOSED",
}

func (s SessionState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

// response is a parsed SMTP server reply, possibly multi-line.
type response struct {
	code  int
	lines []string
}

// contains reports whether any reply line contains the given token, used
// for EHLO capability detection.
func (r *response) contains(token string) bool {
	for _, line := range r.lines {
		if strings.Contains(strings.ToUpper(line), token) {
			return true
		}
	}
	return false
}

func (r *response) text() string {
	return strings.Join(r.lines, " ")
}

// session drives one SMTP conversation with one mail exchange.
type session struct {
	config *Config
	host   string
	log    *slog.Logger

	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	state  SessionState
}

func newSession(config *Config, host string, log *slog.Logger) *session {
	return &session{
		config: config,
		host:   host,
		state:  StateClosed,
		log:    log.With(slog.String("mx", host)),
	}
}

// deliver runs the full conversation: connect, EHLO, STARTTLS, EHLO,
// MAIL FROM, RCPT TO for every recipient, DATA, payload, terminator,
// QUIT. It returns the server's DATA acknowledgement line. The socket is
// destroyed on every exit path.
func (s *session) deliver(ctx context.Context, from string, recipients []string, message []byte) (string, error) {
	dialer := &net.Dialer{Timeout: s.config.connectTimeout()}
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.config.port()))

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", &ConnectError{Host: s.host, Err: err}
	}
	s.conn = conn
	s.reader = bufio.NewReader(conn)
	s.writer = bufio.NewWriter(conn)
	s.setState(StateConnected)
	defer s.destroy()

	if _, err := s.expect(220); err != nil {
		return "", err
	}

	if err := s.writeCommand("EHLO %s", s.host); err != nil {
		return "", err
	}
	greeting, err := s.expect(250)
	if err != nil {
		return "", err
	}
	s.setState(StateGreetedPlain)

	if !greeting.contains("STARTTLS") {
		s.quit()
		return "", &TLSRequiredError{Host: s.host}
	}

	if err := s.writeCommand("STARTTLS"); err != nil {
		return "", err
	}
	s.setState(StateAwaitingTLS)
	if _, err := s.expect(220); err != nil {
		return "", err
	}

	if err := s.upgradeTLS(ctx); err != nil {
		return "", err
	}
	s.setState(StateTLSConnected)

	if err := s.writeCommand("EHLO %s", s.host); err != nil {
		return "", err
	}
	if _, err := s.expect(250); err != nil {
		return "", err
	}
	s.setState(StateGreetedTLS)

	s.setState(StateSendingEnvelope)
	if err := s.writeCommand("MAIL FROM:<%s>", from); err != nil {
		return "", err
	}
	if _, err := s.expect(250); err != nil {
		return "", err
	}
	for _, rcpt := range recipients {
		if err := s.writeCommand("RCPT TO:<%s>", rcpt); err != nil {
			return "", err
		}
		if _, err := s.expect(250); err != nil {
			return "", err
		}
	}

	if err := s.writeCommand("DATA"); err != nil {
		return "", err
	}
	if _, err := s.expect(354); err != nil {
		return "", err
	}
	s.setState(StateSendingData)

	if err := s.writeData(message); err != nil {
		return "", err
	}
	ack, err := s.expect(250)
	if err != nil {
		return "", err
	}
	s.log.Debug("message accepted", slog.String("reply", ack.text()))

	s.quit()
	return ack.text(), nil
}

// upgradeTLS performs the STARTTLS handshake with SNI set to the MX
// hostname and swaps the session's transport to the TLS connection.
func (s *session) upgradeTLS(ctx context.Context) error {
	tlsConfig := s.config.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{}
	}
	tlsConfig = tlsConfig.Clone()
	tlsConfig.ServerName = s.host

	tlsConn := tls.Client(s.conn, tlsConfig)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return &TLSHandshakeError{Host: s.host, Err: err}
	}

	s.conn = tlsConn
	s.reader = bufio.NewReader(tlsConn)
	s.writer = bufio.NewWriter(tlsConn)
	return nil
}

// writeData writes the dot-stuffed message payload followed by the
// five-octet end-of-data sequence.
func (s *session) writeData(message []byte) error {
	stuffed := dotStuff(message)

	if _, err := s.writer.Write(stuffed); err != nil {
		return fmt.Errorf("courier: writing data to %s: %w", s.host, err)
	}
	if !bytes.HasSuffix(stuffed, []byte("\r\n")) {
		if _, err := s.writer.WriteString("\r\n"); err != nil {
			return fmt.Errorf("courier: writing data to %s: %w", s.host, err)
		}
	}
	if _, err := s.writer.WriteString(".\r\n"); err != nil {
		return fmt.Errorf("courier: writing data to %s: %w", s.host, err)
	}
	return s.writer.Flush()
}

// writeCommand sends one command line.
func (s *session) writeCommand(format string, args ...any) error {
	cmd := fmt.Sprintf(format, args...)
	s.log.Debug("smtp send", slog.String("cmd", cmd))

	if _, err := s.writer.WriteString(cmd + "\r\n"); err != nil {
		return fmt.Errorf("courier: writing to %s: %w", s.host, err)
	}
	return s.writer.Flush()
}

// expect reads the next reply and requires the given status code. Replies
// with other codes are classified as permanent (>= 500), transient (4xx)
// or out-of-sequence failures.
func (s *session) expect(code int) (*response, error) {
	resp, err := s.readResponse()
	if err != nil {
		return nil, err
	}
	if resp.code == code {
		return resp, nil
	}
	return nil, s.responseError(resp)
}

func (s *session) responseError(resp *response) error {
	switch {
	case resp.code >= 500:
		return &PermanentError{Host: s.host, Code: resp.code, Line: resp.text()}
	case resp.code >= 400:
		return &TransientError{Host: s.host, Code: resp.code, Line: resp.text()}
	default:
		// A success code at the wrong point in the conversation means
		// the session is out of sync; retrying will not help.
		return &PermanentError{Host: s.host, Code: resp.code, Line: resp.text()}
	}
}

// readResponse reads one complete SMTP reply, buffering "250-" style
// continuation lines until the terminating "xxx " line arrives. A single
// TCP segment is not assumed to carry the whole reply.
func (s *session) readResponse() (*response, error) {
	if t := s.config.readTimeout(); t > 0 {
		s.conn.SetReadDeadline(time.Now().Add(t))
	}

	var lines []string
	code := 0

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
				return nil, &TimeoutError{Host: s.host, Err: err}
			}
			return nil, fmt.Errorf("courier: reading reply from %s: %w", s.host, err)
		}
		line = strings.TrimRight(line, "\r\n")

		if len(line) < 3 {
			return nil, fmt.Errorf("courier: malformed reply from %s: %q", s.host, line)
		}
		lineCode, err := strconv.Atoi(line[:3])
		if err != nil {
			return nil, fmt.Errorf("courier: malformed reply from %s: %q", s.host, line)
		}
		if code == 0 {
			code = lineCode
		} else if lineCode != code {
			return nil, fmt.Errorf("courier: inconsistent reply codes from %s", s.host)
		}

		if len(line) > 4 {
			lines = append(lines, line[4:])
		} else {
			lines = append(lines, "")
		}

		// A space after the code terminates the reply; a dash continues it.
		if len(line) == 3 || line[3] == ' ' {
			break
		}
	}

	s.log.Debug("smtp reply", slog.Int("code", code))
	return &response{code: code, lines: lines}, nil
}

// quit ends the conversation politely. Failures are ignored; the socket
// is destroyed by the caller either way.
func (s *session) quit() {
	if s.conn == nil {
		return
	}
	s.setState(StateClosing)
	if err := s.writeCommand("QUIT"); err == nil {
		s.readResponse()
	}
}

// destroy releases the socket unconditionally.
func (s *session) destroy() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.setState(StateClosed)
}

func (s *session) setState(next SessionState) {
	s.log.Debug("session state", slog.String("from", s.state.String()), slog.String("to", next.String()))
	s.state = next
}

// dotStuff doubles the leading period of every payload line so the
// CRLF.CRLF terminator stays unambiguous (RFC 5321 Section 4.5.2).
func dotStuff(data []byte) []byte {
	count := 0
	atLineStart := true
	for _, b := range data {
		if atLineStart && b == '.' {
			count++
		}
		atLineStart = b == '\n'
	}

	if count == 0 {
		return data
	}

	result := make([]byte, 0, len(data)+count)
	atLineStart = true
	for _, b := range data {
		if atLineStart && b == '.' {
			result = append(result, '.')
		}
		result = append(result, b)
		atLineStart = b == '\n'
	}
	return result
}
