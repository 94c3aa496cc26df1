package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/benvon/rewrite/internal/middleware"
	"github.com/benvon/rewrite/internal/models"
	"github.com/benvon/rewrite/internal/services/session"
)

// newTestRouter mirrors the server's route groups with real session tokens
func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()

	issuer, err := session.NewIssuer(strings.Repeat("k", session.MinSecretLength), "http://localhost:3001", time.Hour)
	if err != nil {
		t.Fatalf("Failed to create issuer: %v", err)
	}

	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	NewSessionHandler(issuer, nil).RegisterRoutes(r)

	essays := r.NewRoute().Subrouter()
	essays.Use(middleware.Session(issuer, false, nil))
	NewEssayHandler(&fakeEvaluator{results: sampleResults()}, nil, nil).RegisterRoutes(essays)

	edits := r.NewRoute().Subrouter()
	edits.Use(middleware.Session(issuer, true, nil))
	newEditFixture().handler.RegisterRoutes(edits)
	return r
}

func TestRouter_SessionFlow(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newTestRouter(t))
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/session", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /session failed: %v", err)
	}
	var s models.Session
	err = json.NewDecoder(resp.Body).Decode(&s)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatalf("Failed to decode session: %v", err)
	}
	if resp.StatusCode != http.StatusCreated || s.Token == "" {
		t.Fatalf("Expected 201 with a token, got %d %+v", resp.StatusCode, s)
	}

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		token      string
		wantStatus int
	}{
		{"edits need a session", "GET", "/get-edits", "", "", http.StatusUnauthorized},
		{"edits reject a bad token", "GET", "/get-edits", "", "not-a-token", http.StatusUnauthorized},
		{"edits with a session", "GET", "/get-edits", "", s.Token, http.StatusOK},
		{"evaluate without a session", "POST", "/evaluate", `{"essay":"The cat sat."}`, "", http.StatusOK},
		{"stored evaluate with a session", "POST", "/evaluate?store=true", `{"essay":"The cat sat."}`, s.Token, http.StatusOK},
		{"stored evaluate without a session", "POST", "/evaluate?store=true", `{"essay":"The cat sat."}`, "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("Failed to build request: %v", err)
			}
			req.Header.Set("Content-Type", "application/json")
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if resp.Header.Get("X-Request-ID") == "" {
				t.Error("Expected X-Request-ID on the response")
			}
		})
	}
}
