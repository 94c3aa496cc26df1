package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewIssuer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		secret  string
		ttl     time.Duration
		wantErr bool
	}{
		{"valid", testSecret, time.Hour, false},
		{"short secret", "short", time.Hour, true},
		{"zero ttl", testSecret, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewIssuer(tt.secret, "rewrite", tt.ttl)
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestIssuer_IssueAndVerify(t *testing.T) {
	t.Parallel()

	issuer, err := NewIssuer(testSecret, "rewrite", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}

	sess, err := issuer.Issue()
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := uuid.Parse(sess.ID); err != nil {
		t.Errorf("Expected session ID to be a UUID, got %q", sess.ID)
	}
	if strings.Count(sess.Token, ".") != 2 {
		t.Errorf("Expected compact JWS token, got %q", sess.Token)
	}
	if _, err := time.Parse(time.RFC3339, sess.ExpiresAt); err != nil {
		t.Errorf("Expected RFC3339 expiry, got %q", sess.ExpiresAt)
	}

	id, err := issuer.Verify(sess.Token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if id.String() != sess.ID {
		t.Errorf("Expected session ID %s, got %s", sess.ID, id)
	}

	second, err := issuer.Issue()
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if second.ID == sess.ID {
		t.Error("Expected distinct session IDs")
	}
}

func TestIssuer_VerifyRejects(t *testing.T) {
	t.Parallel()

	issuer, err := NewIssuer(testSecret, "rewrite", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}
	sess, err := issuer.Issue()
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	otherKey, _ := NewIssuer(strings.Repeat("x", MinSecretLength), "rewrite", time.Hour)
	otherIssuer, _ := NewIssuer(testSecret, "someone-else", time.Hour)

	expired, _ := NewIssuer(testSecret, "rewrite", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	tests := []struct {
		name   string
		issuer *Issuer
		token  string
	}{
		{"garbage", issuer, "not-a-token"},
		{"tampered", issuer, sess.Token + "x"},
		{"wrong key", otherKey, sess.Token},
		{"wrong issuer", otherIssuer, sess.Token},
		{"expired", expired, sess.Token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tt.issuer.Verify(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
