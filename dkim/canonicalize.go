package dkim

import (
	"strings"
)

// relaxedBody canonicalizes a message body per RFC 6376 Section 3.4.4.
// Line endings (CR, LF, CRLF) are normalized, trailing whitespace is
// stripped from each line, other whitespace runs (leading ones included)
// collapse to a single space, and trailing empty lines collapse to one
// terminating CRLF.
// An empty or whitespace-only body canonicalizes to a single CRLF.
func relaxedBody(body []byte) []byte {
	s := strings.ReplaceAll(string(body), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = compactWSP(line)
		// A leading whitespace run is reduced to one space, not removed.
		if lines[i] != "" && (line[0] == ' ' || line[0] == '\t') {
			lines[i] = " " + lines[i]
		}
	}

	// Ignore trailing empty lines.
	end := len(lines)
	for end > 0 && lines[end-1] == "" {
		end--
	}

	var b strings.Builder
	for _, line := range lines[:end] {
		b.WriteString(line)
		b.WriteString("\r\n")
	}
	if b.Len() == 0 {
		return []byte("\r\n")
	}
	return []byte(b.String())
}

// relaxedHeaders selects and canonicalizes the requested header fields
// per RFC 6376 Section 3.4.2.
//
// raw is the header block of the message (everything before the first
// blank line). fieldList is a colon-separated, case-insensitive list of
// field names. For each requested name the first occurrence from the top
// of the block is selected; names with no matching header are dropped.
//
// The returned block contains the selected headers in requested order,
// each as "<lowercased-name>:<value>" followed by CRLF. kept is the
// colon-separated list of names that were found, suitable for the h= tag.
func relaxedHeaders(raw string, fieldList string) (block string, kept string) {
	logical := unfoldHeaderLines(raw)

	// First occurrence from the top wins (RFC 5322 ordering semantics).
	values := make(map[string]string)
	for _, line := range logical {
		name, value := relaxedHeaderLine(line)
		if name == "" {
			continue
		}
		if _, seen := values[name]; !seen {
			values[name] = value
		}
	}

	var b strings.Builder
	var names []string
	for _, requested := range strings.Split(fieldList, ":") {
		name := strings.ToLower(strings.TrimSpace(requested))
		if name == "" {
			continue
		}
		value, ok := values[name]
		if !ok {
			continue
		}
		names = append(names, name)
		b.WriteString(name)
		b.WriteString(":")
		b.WriteString(value)
		b.WriteString("\r\n")
	}

	return b.String(), strings.Join(names, ":")
}

// relaxedHeaderLine canonicalizes a single logical header line: the name
// (before the first colon) is lowercased and trimmed, the value is
// unfolded and has all whitespace runs collapsed to single spaces and is
// trimmed. A line with no colon yields an empty name.
func relaxedHeaderLine(line string) (name, value string) {
	idx := strings.Index(line, ":")
	if idx == -1 {
		return "", ""
	}
	name = strings.ToLower(strings.TrimSpace(line[:idx]))

	// Unfold: a CRLF (or bare LF) before WSP is deleted, keeping the WSP.
	value = line[idx+1:]
	value = strings.ReplaceAll(value, "\r\n ", " ")
	value = strings.ReplaceAll(value, "\r\n\t", "\t")
	value = strings.ReplaceAll(value, "\n ", " ")
	value = strings.ReplaceAll(value, "\n\t", "\t")
	value = compactWSP(value)
	return name, value
}

// unfoldHeaderLines splits a raw header block into logical lines,
// appending folded continuation lines (those beginning with WSP) to
// their predecessor.
func unfoldHeaderLines(raw string) []string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var logical []string
	for _, line := range strings.Split(s, "\n") {
		if line == "" {
			continue
		}
		if (line[0] == ' ' || line[0] == '\t') && len(logical) > 0 {
			logical[len(logical)-1] += " " + line
			continue
		}
		logical = append(logical, line)
	}
	return logical
}

// compactWSP collapses runs of space and tab to a single space and trims
// leading and trailing whitespace.
func compactWSP(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevWS := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' {
			if !prevWS {
				b.WriteByte(' ')
				prevWS = true
			}
		} else {
			b.WriteByte(c)
			prevWS = false
		}
	}
	return strings.TrimSpace(b.String())
}
