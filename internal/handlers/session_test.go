package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/benvon/rewrite/internal/models"
)

type fakeIssuer struct {
	session *models.Session
	err     error
}

func (f fakeIssuer) Issue() (*models.Session, error) {
	return f.session, f.err
}

func TestSessionHandler_CreateSession(t *testing.T) {
	t.Parallel()

	want := &models.Session{ID: uuid.NewString(), Token: "signed", ExpiresAt: "2026-01-02T00:00:00Z"}

	w := httptest.NewRecorder()
	NewSessionHandler(fakeIssuer{session: want}, nil).CreateSession(w, newTestRequest("POST", "/session", nil, uuid.Nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Code)
	}
	var got models.Session
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got != *want {
		t.Errorf("Expected %+v, got %+v", *want, got)
	}

	w = httptest.NewRecorder()
	NewSessionHandler(fakeIssuer{err: errors.New("no entropy")}, nil).CreateSession(w, newTestRequest("POST", "/session", nil, uuid.Nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}
