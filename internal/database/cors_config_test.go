package database

import (
	"context"
	"testing"

	"github.com/benvon/rewrite/internal/models"
)

func TestAllowedOriginsSlice(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"single", "https://a.example.com", []string{"https://a.example.com"}},
		{"comma", "https://a.com, https://b.com", []string{"https://a.com", "https://b.com"}},
		{"dedup", "x, x, y", []string{"x", "y"}},
		{"trim", "  a  ,  b  ", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := AllowedOriginsSlice(tt.raw)
			if len(got) != len(tt.want) {
				t.Errorf("AllowedOriginsSlice(%q) length = %d, want %d", tt.raw, len(got), len(tt.want))
				return
			}
			seen := make(map[string]bool)
			for _, s := range got {
				seen[s] = true
			}
			for _, w := range tt.want {
				if !seen[w] {
					t.Errorf("AllowedOriginsSlice(%q) missing %q", tt.raw, w)
				}
			}
		})
	}
}

func TestCorsConfigRepository_GetSetDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewCorsConfigRepository(newTestDB(t))

	c, err := repo.Get(ctx)
	if err != nil || c != nil {
		t.Fatalf("Expected no config initially, got %+v, %v", c, err)
	}

	if err := repo.Set(ctx, &models.CorsConfig{AllowedOrigins: " https://a.com,https://b.com ", AllowCredentials: true, MaxAge: 600}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := repo.Set(ctx, &models.CorsConfig{AllowedOrigins: "https://c.com", MaxAge: 60}); err != nil {
		t.Fatalf("second Set returned error: %v", err)
	}

	c, err = repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if c.AllowedOrigins != "https://c.com" || c.AllowCredentials || c.MaxAge != 60 {
		t.Errorf("Unexpected config after upsert: %+v", c)
	}

	if err := repo.Set(ctx, &models.CorsConfig{}); err == nil {
		t.Error("Expected error for empty origins")
	}

	if err := repo.Delete(ctx); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if c, _ := repo.Get(ctx); c != nil {
		t.Errorf("Expected no config after delete, got %+v", c)
	}
}

func TestRatelimitConfigRepository_GetSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewRatelimitConfigRepository(newTestDB(t))

	if err := repo.Set(ctx, &models.RatelimitConfig{Rate: "  "}); err == nil {
		t.Error("Expected error for empty rate")
	}
	if err := repo.Set(ctx, &models.RatelimitConfig{Rate: "20-M"}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	c, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if c == nil || c.Rate != "20-M" {
		t.Errorf("Expected rate 20-M, got %+v", c)
	}
}
