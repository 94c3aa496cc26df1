package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"

	"github.com/benvon/rewrite/internal/request"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		method        string
		path          string
		handlerStatus int
	}{
		{"GET request", "GET", "/get-edits", http.StatusOK},
		{"POST request", "POST", "/evaluate", http.StatusAccepted},
		{"404 request", "GET", "/notfound", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.InfoLevel)
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
			})

			mw := RequestID(Logging(zap.New(core))(handler))

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			mw.ServeHTTP(w, req)

			if w.Code != tt.handlerStatus {
				t.Errorf("Expected status %d, got %d", tt.handlerStatus, w.Code)
			}
			entries := logs.FilterMessage("http_request").All()
			if len(entries) != 1 {
				t.Fatalf("Expected 1 http_request log, got %d", len(entries))
			}
			fields := entries[0].ContextMap()
			if fields["status_code"] != int64(tt.handlerStatus) {
				t.Errorf("Expected logged status %d, got %v", tt.handlerStatus, fields["status_code"])
			}
			if fields["path"] != tt.path {
				t.Errorf("Expected logged path %s, got %v", tt.path, fields["path"])
			}
			if fields["request_id"] == "" || fields["request_id"] != w.Header().Get(request.RequestIDHeader) {
				t.Errorf("Expected logged request_id to match response header, got %v", fields["request_id"])
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated when missing", "", false},
		{"reused when valid", "abc-123_x.y", true},
		{"replaced when unsafe", "bad id\nwith newline", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = request.RequestIDFromContext(r.Context())
			}))
			req := httptest.NewRequest("GET", "/", nil)
			if tt.incoming != "" {
				req.Header.Set(request.RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if seen == "" {
				t.Fatal("Expected request ID in context")
			}
			if got := w.Header().Get(request.RequestIDHeader); got != seen {
				t.Errorf("Expected response header %q, got %q", seen, got)
			}
			if tt.keep && seen != tt.incoming {
				t.Errorf("Expected incoming ID %q to be kept, got %q", tt.incoming, seen)
			}
			if !tt.keep && seen == tt.incoming {
				t.Errorf("Expected incoming ID %q to be replaced", tt.incoming)
			}
		})
	}
}

func TestAudit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		event  string
	}{
		{http.StatusOK, ""},
		{http.StatusUnauthorized, "security_event"},
		{http.StatusTooManyRequests, "rate_limit_violation"},
		{http.StatusConflict, "concurrent_evaluation_rejected"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.WarnLevel)
			handler := Audit(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			req := httptest.NewRequest("POST", "/evaluate", nil)
			req.Header.Set("X-Forwarded-For", "1.2.3.4")
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if tt.event == "" {
				if logs.Len() != 0 {
					t.Errorf("Expected no audit log, got %d", logs.Len())
				}
				return
			}
			entries := logs.FilterMessage(tt.event).All()
			if len(entries) != 1 {
				t.Fatalf("Expected 1 %s log, got %d", tt.event, logs.Len())
			}
			if entries[0].ContextMap()["ip"] != "1.2.3.4" {
				t.Errorf("Expected ip 1.2.3.4, got %v", entries[0].ContextMap()["ip"])
			}
		})
	}
}
