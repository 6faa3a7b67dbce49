package sanitizer

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  Иван Петров  ",
			want:  "Иван Петров",
		},
		{
			name:  "multiple spaces between words",
			input: "Иван    Петров",
			want:  "Иван Петров",
		},
		{
			name:  "tabs and newlines",
			input: "Иван\t\nПетров",
			want:  "Иван Петров",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "control characters dropped",
			input: "Ив\x00ан",
			want:  "Иван",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeName_Truncates(t *testing.T) {
	long := strings.Repeat("я", MaxNameLength+20)

	got := NormalizeName(long)
	if n := utf8.RuneCountInString(got); n != MaxNameLength {
		t.Errorf("rune count = %d, want %d", n, MaxNameLength)
	}
}

func TestNormalizeComment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "keeps line breaks",
			input: "у окна\r\nдетский стул",
			want:  "у окна\nдетский стул",
		},
		{
			name:  "drops blank lines",
			input: "\n\n  торт  \n\n",
			want:  "торт",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeComment(tt.input); got != tt.want {
				t.Errorf("NormalizeComment(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
