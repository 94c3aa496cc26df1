package tracking

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/benvon/rewrite/internal/models"
)

func TestDiff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		old  string
		new  string
		want Change
	}{
		{
			name: "replacement",
			old:  "alpha beta gamma",
			new:  "alpha delta gamma",
			want: Change{Start: 6, End: 11, Added: []string{"delta"}, Deleted: []string{"beta"}},
		},
		{
			name: "append",
			old:  "One",
			new:  "One more",
			want: Change{Start: 3, End: 8, Added: []string{" more"}},
		},
		{
			name: "deletion",
			old:  "keep this drop",
			new:  "keep this",
			want: Change{Start: 9, End: 9, Deleted: []string{" drop"}},
		},
		{
			name: "from empty",
			old:  "",
			new:  "Fresh essay",
			want: Change{Start: 0, End: 11, Added: []string{"Fresh essay"}},
		},
		{
			name: "character offsets",
			old:  "café noir",
			new:  "café crème",
			want: Change{Start: 5, End: 10, Added: []string{"crème"}, Deleted: []string{"noir"}},
		},
		{
			name: "unchanged covers the whole text",
			old:  "same text",
			new:  "same text",
			want: Change{Start: 0, End: 9},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Diff(tt.old, tt.new)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Diff(%q, %q) mismatch (-want +got):\n%s", tt.old, tt.new, diff)
			}
		})
	}
}

func TestDiff_InsertedWordIsReported(t *testing.T) {
	t.Parallel()

	got := Diff("The cat sat.", "The brave cat sat.")
	if len(got.Added) != 1 || strings.TrimSpace(got.Added[0]) != "brave" {
		t.Errorf("Expected 'brave' to be added, got %q", got.Added)
	}
	if len(got.Deleted) != 0 {
		t.Errorf("Expected nothing deleted, got %q", got.Deleted)
	}
	if got.End-got.Start != len(" brave") {
		t.Errorf("Expected a 6 character change, got %d..%d", got.Start, got.End)
	}
}

func TestDiff_AdjacentTokensFormOneRun(t *testing.T) {
	t.Parallel()

	got := Diff("The cat sat.", "The big red cat sat.")
	if len(got.Added) != 1 || strings.TrimSpace(got.Added[0]) != "big red" {
		t.Errorf("Expected one added run 'big red', got %q", got.Added)
	}
	if got.End-got.Start != len("big red ") {
		t.Errorf("Expected an 8 character change, got %d..%d", got.Start, got.End)
	}

	removed := Diff("keep this drop", "keep this")
	if want := "Added: ; Deleted:  drop"; removed.Content() != want {
		t.Errorf("Expected content %q, got %q", want, removed.Content())
	}

	two := Diff("one two three four", "one 2 three 4")
	if diff := cmp.Diff([]string{"2", "4"}, two.Added); diff != "" {
		t.Errorf("Added mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"two", "four"}, two.Deleted); diff != "" {
		t.Errorf("Deleted mismatch (-want +got):\n%s", diff)
	}
}

func TestChange_Content(t *testing.T) {
	t.Parallel()

	c := Change{Added: []string{"delta", "epsilon"}, Deleted: []string{"beta"}}
	if got, want := c.Content(), "Added: delta epsilon; Deleted: beta"; got != want {
		t.Errorf("Content() = %q, want %q", got, want)
	}
	if got, want := (Change{}).Content(), "Added: ; Deleted: "; got != want {
		t.Errorf("Content() = %q, want %q", got, want)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", NewEssayThreshold+1)
	tests := []struct {
		name string
		old  string
		new  string
		want models.ChangeType
	}{
		{"small edit", "abc", "abcd", models.ChangeTypeUserEdit},
		{"exactly at threshold", "", strings.Repeat("x", NewEssayThreshold), models.ChangeTypeUserEdit},
		{"large insert", "", long, models.ChangeTypeNewEssay},
		{"large removal", long, "", models.ChangeTypeNewEssay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tt.old, tt.new); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTokenize_RoundTrips(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "a", "Hello, world!\n\nIt's  fine.", "naïve — café"} {
		if got := strings.Join(tokenize(s), ""); got != s {
			t.Errorf("tokenize(%q) joined = %q", s, got)
		}
	}
	if got := decode(encode([]string{"a\nb", " ", `"q"`})); got != "a\nb \"q\"" {
		t.Errorf("decode(encode()) = %q", got)
	}
}
