package courier

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"mime/quotedprintable"
	"strings"
	"time"
)

// timeNow is replaced in tests for deterministic Message-IDs.
var timeNow = time.Now

// base64LineWidth is the wrap column for base64-encoded attachment bodies.
const base64LineWidth = 76

// buildMessage assembles the RFC 5322 / MIME document for the envelope.
// Bcc recipients are intentionally absent from the rendered headers; they
// are only ever named in RCPT TO. Every line terminator is CRLF.
func buildMessage(env *Envelope, rnd io.Reader) ([]byte, error) {
	domain, err := addressDomain(env.From)
	if err != nil {
		return nil, err
	}

	id, err := randomHex(rnd, 16)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	writeHeader(&b, "Message-ID", fmt.Sprintf("<%s.%d@%s>", id, timeNow().UnixMilli(), domain))
	writeHeader(&b, "Date", timeNow().Format(time.RFC1123Z))
	writeHeader(&b, "From", env.From)
	writeHeader(&b, "To", strings.Join(env.To, ", "))
	if len(env.Cc) > 0 {
		writeHeader(&b, "Cc", strings.Join(env.Cc, ", "))
	}
	writeHeader(&b, "Subject", encodeHeaderWord(env.Subject))
	writeHeader(&b, "MIME-Version", "1.0")

	switch {
	case len(env.Attachments) > 0:
		mixed, err := randomBoundary(rnd, "mixed")
		if err != nil {
			return nil, err
		}
		writeHeader(&b, "Content-Type", fmt.Sprintf("multipart/mixed; boundary=%q", mixed))
		b.WriteString("\r\n")

		b.WriteString("--" + mixed + "\r\n")
		if env.HTML != "" {
			if err := writeAlternative(&b, env, rnd); err != nil {
				return nil, err
			}
		} else {
			writeTextPart(&b, "text/plain", env.Text)
		}

		for _, a := range env.Attachments {
			b.WriteString("--" + mixed + "\r\n")
			if err := writeAttachment(&b, a); err != nil {
				return nil, err
			}
		}
		b.WriteString("--" + mixed + "--\r\n")

	case env.HTML != "":
		if err := writeAlternative(&b, env, rnd); err != nil {
			return nil, err
		}

	default:
		name, encoded := encodeText(env.Text)
		writeHeader(&b, "Content-Type", "text/plain; charset=utf-8")
		writeHeader(&b, "Content-Transfer-Encoding", name)
		b.WriteString("\r\n")
		b.WriteString(encoded)
	}

	return []byte(b.String()), nil
}

// writeAlternative emits a multipart/alternative container holding the
// plain text part and the HTML part. When called from inside a
// multipart/mixed message the container's own headers double as the part
// headers of the enclosing boundary.
func writeAlternative(b *strings.Builder, env *Envelope, rnd io.Reader) error {
	alt, err := randomBoundary(rnd, "alt")
	if err != nil {
		return err
	}
	writeHeader(b, "Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", alt))
	b.WriteString("\r\n")

	b.WriteString("--" + alt + "\r\n")
	writeTextPart(b, "text/plain", env.Text)
	b.WriteString("--" + alt + "\r\n")
	writeTextPart(b, "text/html", env.HTML)
	b.WriteString("--" + alt + "--\r\n")
	return nil
}

// writeTextPart emits a text/plain or text/html body part.
func writeTextPart(b *strings.Builder, contentType, body string) {
	name, encoded := encodeText(body)
	writeHeader(b, "Content-Type", contentType+"; charset=utf-8")
	writeHeader(b, "Content-Transfer-Encoding", name)
	b.WriteString("\r\n")
	b.WriteString(encoded)
	if !strings.HasSuffix(encoded, "\r\n") {
		b.WriteString("\r\n")
	}
}

// writeAttachment emits one attachment part: base64 body, attachment
// disposition, original filename.
func writeAttachment(b *strings.Builder, a Attachment) error {
	data, err := a.Content()
	if err != nil {
		return &AttachmentError{Filename: a.Filename, Err: err}
	}

	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	writeHeader(b, "Content-Type", fmt.Sprintf("%s; name=%q", contentType, a.Filename))
	writeHeader(b, "Content-Transfer-Encoding", "base64")
	writeHeader(b, "Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Filename))
	b.WriteString("\r\n")

	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > base64LineWidth {
		b.WriteString(encoded[:base64LineWidth])
		b.WriteString("\r\n")
		encoded = encoded[base64LineWidth:]
	}
	if len(encoded) > 0 {
		b.WriteString(encoded)
		b.WriteString("\r\n")
	}
	return nil
}

// encodeText picks the transfer encoding for a text body: 7bit for plain
// ASCII, quoted-printable otherwise. The returned body uses CRLF line
// endings.
func encodeText(body string) (encoding, encoded string) {
	normalized := normalizeCRLF(body)
	if !containsNonASCII(normalized) {
		return "7bit", normalized
	}

	var buf bytes.Buffer
	w := quotedprintable.NewWriter(&buf)
	w.Write([]byte(normalized))
	w.Close()
	return "quoted-printable", buf.String()
}

// encodeHeaderWord RFC 2047-encodes a header value when it contains
// non-ASCII octets.
func encodeHeaderWord(s string) string {
	if !containsNonASCII(s) {
		return s
	}
	return mime.BEncoding.Encode("utf-8", s)
}

// writeHeader emits one header line with CRLF termination.
func writeHeader(b *strings.Builder, name, value string) {
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\r\n")
}

// normalizeCRLF rewrites any mix of CR, LF and CRLF line endings to CRLF.
func normalizeCRLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}

// containsNonASCII reports whether s contains any octet above 127.
func containsNonASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return true
		}
	}
	return false
}

// randomBoundary generates a fresh MIME boundary: a prefix plus 16 random
// bytes in hex. Distinct prefixes keep the mixed and alternative
// boundaries from colliding.
func randomBoundary(rnd io.Reader, prefix string) (string, error) {
	hexPart, err := randomHex(rnd, 16)
	if err != nil {
		return "", err
	}
	return prefix + "-" + hexPart, nil
}

// randomHex reads n random bytes and returns them hex-encoded.
func randomHex(rnd io.Reader, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rnd, buf); err != nil {
		return "", fmt.Errorf("courier: randomness unavailable: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
