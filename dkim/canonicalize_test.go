package dkim

import (
	"testing"
)

func TestRelaxedBody(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "trailing whitespace and empty lines",
			in:   "Hello  world  \r\n\r\n\r\n",
			want: "Hello world\r\n",
		},
		{
			name: "internal whitespace runs",
			in:   "a \t b\r\nc\r\n",
			want: "a b\r\nc\r\n",
		},
		{
			name: "bare LF endings",
			in:   "Hello  world  \n\n\n",
			want: "Hello world\r\n",
		},
		{
			name: "bare CR endings",
			in:   "Hello  world  \r\r\r",
			want: "Hello world\r\n",
		},
		{
			name: "no trailing newline",
			in:   "Hello world",
			want: "Hello world\r\n",
		},
		{
			name: "empty body",
			in:   "",
			want: "\r\n",
		},
		{
			name: "whitespace-only body",
			in:   "   \r\n\t\r\n",
			want: "\r\n",
		},
		{
			name: "interior empty lines preserved",
			in:   "a\r\n\r\nb\r\n",
			want: "a\r\n\r\nb\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(relaxedBody([]byte(tt.in)))
			if got != tt.want {
				t.Errorf("relaxedBody(%q) = %q, want %q", tt.in, got, tt.want)
			}

			// Canonicalization must be idempotent.
			again := string(relaxedBody([]byte(got)))
			if again != got {
				t.Errorf("relaxedBody not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestRelaxedBodyEquivalentInputs(t *testing.T) {
	// Inputs differing only in line endings, trailing whitespace and
	// trailing empty lines canonicalize identically.
	variants := []string{
		"Hello world\r\nsecond line\r\n",
		"Hello world\nsecond line\n",
		"Hello  world \r\nsecond  line\t\r\n\r\n\r\n",
		"Hello world\rsecond line\r\r",
		"Hello\tworld\nsecond line",
	}

	want := string(relaxedBody([]byte(variants[0])))
	for _, v := range variants[1:] {
		if got := string(relaxedBody([]byte(v))); got != want {
			t.Errorf("relaxedBody(%q) = %q, want %q", v, got, want)
		}
	}
}

func TestRelaxedHeaders(t *testing.T) {
	t.Run("folded header and selection order", func(t *testing.T) {
		raw := "From: a@x\r\nSubject: Hi\r\n there\r\n"
		block, kept := relaxedHeaders(raw, "from:subject")

		if kept != "from:subject" {
			t.Errorf("kept = %q, want %q", kept, "from:subject")
		}
		want := "from:a@x\r\nsubject:Hi there\r\n"
		if block != want {
			t.Errorf("block = %q, want %q", block, want)
		}
	})

	t.Run("requested order wins over message order", func(t *testing.T) {
		raw := "To: b@y\r\nFrom: a@x\r\n"
		block, kept := relaxedHeaders(raw, "from:to")

		if kept != "from:to" {
			t.Errorf("kept = %q, want %q", kept, "from:to")
		}
		want := "from:a@x\r\nto:b@y\r\n"
		if block != want {
			t.Errorf("block = %q, want %q", block, want)
		}
	})

	t.Run("first occurrence from the top is signed", func(t *testing.T) {
		raw := "Subject: first\r\nSubject: second\r\n"
		block, _ := relaxedHeaders(raw, "subject")

		want := "subject:first\r\n"
		if block != want {
			t.Errorf("block = %q, want %q", block, want)
		}
	})

	t.Run("missing names are dropped", func(t *testing.T) {
		raw := "From: a@x\r\n"
		_, kept := relaxedHeaders(raw, "from:reply-to:subject")

		if kept != "from" {
			t.Errorf("kept = %q, want %q", kept, "from")
		}
	})

	t.Run("empty value is kept", func(t *testing.T) {
		raw := "From: a@x\r\nSubject:\r\n"
		block, kept := relaxedHeaders(raw, "from:subject")

		if kept != "from:subject" {
			t.Errorf("kept = %q, want %q", kept, "from:subject")
		}
		want := "from:a@x\r\nsubject:\r\n"
		if block != want {
			t.Errorf("block = %q, want %q", block, want)
		}
	})

	t.Run("case-insensitive matching", func(t *testing.T) {
		raw := "FROM: a@x\r\nsubJECT: Hi\r\n"
		_, kept := relaxedHeaders(raw, "From:Subject")

		if kept != "from:subject" {
			t.Errorf("kept = %q, want %q", kept, "from:subject")
		}
	})
}

func TestRelaxedHeaderLine(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantName  string
		wantValue string
	}{
		{"basic", "Subject: Hello", "subject", "Hello"},
		{"whitespace collapse", "Subject:\t Hello \t world ", "subject", "Hello world"},
		{"name trimmed and lowered", " From : a@x", "from", "a@x"},
		{"folded value", "Subject: Hi\r\n there", "subject", "Hi there"},
		{"no colon", "not a header", "", ""},
		{"empty value", "X-Empty:", "x-empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, value := relaxedHeaderLine(tt.in)
			if name != tt.wantName || value != tt.wantValue {
				t.Errorf("relaxedHeaderLine(%q) = (%q, %q), want (%q, %q)",
					tt.in, name, value, tt.wantName, tt.wantValue)
			}
		})
	}
}
