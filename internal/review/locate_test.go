package review

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "The Cat", "the cat"},
		{"strips punctuation", "Hello, World!", "hello world"},
		{"keeps underscores and digits", "snake_case 42", "snake_case 42"},
		{"trims", "  padded\t", "padded"},
		{"drops non-ascii letters", "Café au lait", "caf au lait"},
		{"keeps inner whitespace", "a\n\nb", "a\n\nb"},
		{"only punctuation", "?!...", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	t.Parallel()
	in := "It's the (final) countdown!"
	if Normalize(in) != Normalize(in) {
		t.Error("Expected Normalize to return the same output for the same input")
	}
	if Normalize(Normalize(in)) != Normalize(in) {
		t.Error("Expected Normalize to be idempotent")
	}
}

func TestLocate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		haystack  string
		phrase    string
		want      Location
		wantFound bool
	}{
		{
			name:      "exact",
			haystack:  "The cat sat. The cat sat again.",
			phrase:    "cat sat",
			want:      Location{Start: 4, End: 11},
			wantFound: true,
		},
		{
			name:      "case and punctuation insensitive",
			haystack:  "Hello, World!",
			phrase:    "WORLD!",
			want:      Location{Start: 6, End: 11},
			wantFound: true,
		},
		{
			name:      "offsets are into the normalized text",
			haystack:  "Well... the essay, it argues",
			phrase:    "it argues",
			want:      Location{Start: 15, End: 24},
			wantFound: true,
		},
		{
			name:      "first occurrence",
			haystack:  "one two one two",
			phrase:    "two",
			want:      Location{Start: 4, End: 7},
			wantFound: true,
		},
		{
			name:      "non-ascii whitespace counts as one character",
			haystack:  "x a\u00a0b",
			phrase:    "a\u00a0b",
			want:      Location{Start: 2, End: 5},
			wantFound: true,
		},
		{
			name:      "not found",
			haystack:  "The cat sat.",
			phrase:    "dog",
			wantFound: false,
		},
		{
			name:      "empty phrase",
			haystack:  "The cat sat.",
			phrase:    "",
			wantFound: false,
		},
		{
			name:      "phrase normalizes to empty",
			haystack:  "The cat sat.",
			phrase:    "...",
			wantFound: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, found := Locate(tt.haystack, tt.phrase)
			if found != tt.wantFound {
				t.Fatalf("Locate(%q, %q) found = %v, want %v", tt.haystack, tt.phrase, found, tt.wantFound)
			}
			if found && got != tt.want {
				t.Errorf("Locate(%q, %q) = %+v, want %+v", tt.haystack, tt.phrase, got, tt.want)
			}
		})
	}
}

func TestLocate_SliceMatchesNormalizedPhrase(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text   string
		phrase string
	}{
		{"The Industrial Revolution, which began in Britain, changed labor.", "which began in Britain"},
		{"Photosynthesis (in plants) converts light.", "in plants) converts"},
		{"\u00a0Leading space then WORDS here", "words HERE"},
		{"Über cool: the café's menu", "the caf's"},
		{"Line one.\nLine two.", "one\nline"},
	}
	for _, c := range cases {
		loc, ok := Locate(c.text, c.phrase)
		if !ok {
			t.Errorf("Locate(%q, %q) not found", c.text, c.phrase)
			continue
		}
		if got, want := loc.slice(Normalize(c.text)), Normalize(c.phrase); got != want {
			t.Errorf("slice of %q at %+v = %q, want %q", c.text, loc, got, want)
		}
		if loc.width() != len([]rune(Normalize(c.phrase))) {
			t.Errorf("Expected location length %d, got %d", len([]rune(Normalize(c.phrase))), loc.width())
		}
	}
}

func (l Location) width() int {
	return l.End - l.Start
}

// slice returns the part of normalized that l covers
func (l Location) slice(normalized string) string {
	runes := []rune(normalized)
	if l.Start < 0 || l.End > len(runes) || l.Start > l.End {
		return ""
	}
	return string(runes[l.Start:l.End])
}

func TestLocation_SliceOutOfRange(t *testing.T) {
	t.Parallel()
	if got := (Location{Start: 3, End: 10}).slice("abc"); got != "" {
		t.Errorf("Expected empty slice for out-of-range location, got %q", got)
	}
}
