package dkim

import "strings"

// defaultFoldWidth is the maximum visible octets per header line
// (RFC 5322 Section 2.2.3 recommends 78; DKIM signatures conventionally
// fold at 76).
const defaultFoldWidth = 76

// foldLine folds s to lines of at most limit visible octets by inserting
// CRLF SPACE at whitespace boundaries where possible, otherwise at the
// column limit. Existing CRLF in the input are preserved as line breaks
// and reset the column count. No line exceeds limit: a word with no
// whitespace in the window is broken at the limit.
func foldLine(s string, limit int) string {
	if limit <= 0 {
		limit = defaultFoldWidth
	}

	var b strings.Builder
	for i, seg := range strings.Split(s, "\r\n") {
		if i > 0 {
			b.WriteString("\r\n")
		}
		col := 0
		for {
			room := limit - col
			if len(seg) <= room {
				b.WriteString(seg)
				break
			}
			brk := strings.LastIndexByte(seg[:room], ' ')
			if brk <= 0 {
				// No usable whitespace in the window; hard break.
				b.WriteString(seg[:room])
				seg = seg[room:]
			} else {
				b.WriteString(seg[:brk])
				seg = seg[brk+1:]
			}
			// The continuation line starts with a single space.
			b.WriteString("\r\n ")
			col = 1
		}
	}
	return b.String()
}
