package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func useTempDB(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(t.TempDir(), "configure.db"))
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCorsCmd(t *testing.T) {
	useTempDB(t)

	out, err := run(t, NewCorsCmd(), "list")
	if err != nil {
		t.Fatalf("cors list failed: %v", err)
	}
	if !strings.Contains(out, "No CORS configuration stored") {
		t.Errorf("Expected empty configuration message, got %q", out)
	}

	if _, err := run(t, NewCorsCmd(), "set", "--origins", " https://a.example , https://b.example ", "--max-age", "60"); err != nil {
		t.Fatalf("cors set failed: %v", err)
	}
	out, err = run(t, NewCorsCmd(), "list")
	if err != nil {
		t.Fatalf("cors list failed: %v", err)
	}
	for _, want := range []string{"Origin: https://a.example", "Origin: https://b.example", "Max-Age: 60"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output, got %q", want, out)
		}
	}

	if _, err := run(t, NewCorsCmd(), "clear"); err != nil {
		t.Fatalf("cors clear failed: %v", err)
	}
	out, _ = run(t, NewCorsCmd(), "list")
	if !strings.Contains(out, "No CORS configuration stored") {
		t.Errorf("Expected configuration cleared, got %q", out)
	}
}

func TestCorsCmd_SetRequiresOrigins(t *testing.T) {
	useTempDB(t)

	if _, err := run(t, NewCorsCmd(), "set", "--origins", " , "); err == nil {
		t.Error("Expected error for empty origins")
	}
}

func TestRatelimitCmd(t *testing.T) {
	useTempDB(t)

	if _, err := run(t, NewRatelimitCmd(), "set", "--rate", "lots"); err == nil {
		t.Error("Expected error for malformed rate")
	}
	if _, err := run(t, NewRatelimitCmd(), "set", "--rate", "100-M"); err != nil {
		t.Fatalf("ratelimit set failed: %v", err)
	}

	out, err := run(t, NewListCmd())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "Rate limit: 100-M") {
		t.Errorf("Expected stored rate in output, got %q", out)
	}
	if !strings.Contains(out, "Database: sqlite") {
		t.Errorf("Expected dialect in output, got %q", out)
	}
}

func TestEditsCmd(t *testing.T) {
	useTempDB(t)

	if _, err := run(t, NewEditsCmd(), "list", "not-a-uuid"); err == nil {
		t.Error("Expected error for invalid session id")
	}

	id := uuid.New().String()
	out, err := run(t, NewEditsCmd(), "list", id)
	if err != nil {
		t.Fatalf("edits list failed: %v", err)
	}
	if !strings.Contains(out, "No edits stored") {
		t.Errorf("Expected no edits, got %q", out)
	}

	out, err = run(t, NewEditsCmd(), "clear", id)
	if err != nil {
		t.Fatalf("edits clear failed: %v", err)
	}
	if !strings.Contains(out, "Removed 0 edits and 0 tracked changes") {
		t.Errorf("Expected clear summary, got %q", out)
	}
}

func TestMigrateCmd(t *testing.T) {
	useTempDB(t)

	for range 2 {
		out, err := run(t, NewMigrateCmd())
		if err != nil {
			t.Fatalf("migrate failed: %v", err)
		}
		if !strings.Contains(out, "Schema is up to date (sqlite)") {
			t.Errorf("Expected migrate summary, got %q", out)
		}
	}
}

func TestSessionCmd(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	if _, err := run(t, NewSessionCmd()); err == nil {
		t.Error("Expected error without SESSION_SECRET")
	}

	t.Setenv("SESSION_SECRET", strings.Repeat("s", 32))
	out, err := run(t, NewSessionCmd())
	if err != nil {
		t.Fatalf("session failed: %v", err)
	}
	if !strings.Contains(out, "Authorization: Bearer ") {
		t.Errorf("Expected bearer token in output, got %q", out)
	}
}
