package dkim

import (
	"strings"
	"testing"
)

func TestFoldLine(t *testing.T) {
	t.Run("short line unchanged", func(t *testing.T) {
		in := "v=1; a=rsa-sha256"
		if got := foldLine(in, 76); got != in {
			t.Errorf("foldLine(%q) = %q, want unchanged", in, got)
		}
	})

	t.Run("folds at whitespace boundary", func(t *testing.T) {
		in := strings.Repeat("word ", 30) // 150 octets
		got := foldLine(in, 76)

		for _, line := range strings.Split(got, "\r\n") {
			if len(line) > 76 {
				t.Errorf("line %q exceeds 76 octets (%d)", line, len(line))
			}
		}
		lines := strings.Split(got, "\r\n")
		if len(lines) < 2 {
			t.Fatalf("expected folding, got %q", got)
		}
		for _, cont := range lines[1:] {
			if !strings.HasPrefix(cont, " ") {
				t.Errorf("continuation %q does not start with a space", cont)
			}
		}
	})

	t.Run("hard break when no whitespace", func(t *testing.T) {
		in := strings.Repeat("x", 200)
		got := foldLine(in, 76)

		lines := strings.Split(got, "\r\n")
		if len(lines[0]) != 76 {
			t.Errorf("first line length = %d, want 76", len(lines[0]))
		}
		if unfolded := strings.ReplaceAll(got, "\r\n ", ""); unfolded != in {
			t.Errorf("folding lost content: %q", unfolded)
		}
	})

	t.Run("existing CRLF preserved", func(t *testing.T) {
		in := "first\r\nsecond"
		if got := foldLine(in, 76); got != in {
			t.Errorf("foldLine(%q) = %q, want unchanged", in, got)
		}
	})

	t.Run("existing CRLF resets the column", func(t *testing.T) {
		in := strings.Repeat("a", 70) + "\r\n" + strings.Repeat("b", 70)
		if got := foldLine(in, 76); got != in {
			t.Errorf("foldLine(%q) = %q, want unchanged", in, got)
		}
	})
}
