package models

import "testing"

func TestCategory_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"simplify", true},
		{"exemplify", true},
		{"factcheck", true},
		{"assert", true},
		{"clarify", true},
		{"Clarify", false},
		{"assertive", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			c, ok := ParseCategory(tt.input)
			if ok != tt.want {
				t.Errorf("ParseCategory(%q) valid = %v, want %v", tt.input, ok, tt.want)
			}
			if string(c) != tt.input {
				t.Errorf("Expected category %q, got %q", tt.input, c)
			}
		})
	}
}

func TestAllCategories_ReturnsCopy(t *testing.T) {
	t.Parallel()

	all := AllCategories()
	if len(all) != 5 {
		t.Fatalf("Expected 5 categories, got %d", len(all))
	}
	all[0] = "mutated"
	if AllCategories()[0] != CategorySimplify {
		t.Error("Expected AllCategories to return an independent copy")
	}
}

func TestEdit_Located(t *testing.T) {
	t.Parallel()

	if !(&Edit{StartIndex: 0, EndIndex: 3}).Located() {
		t.Error("Expected edit with range to be located")
	}
	if (&Edit{StartIndex: NotLocated, EndIndex: NotLocated}).Located() {
		t.Error("Expected sentinel edit to be unlocated")
	}
}
