package internal

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAPIError(t *testing.T) {
	cause := errors.New("connection refused")
	tests := []struct {
		name string
		err  *APIError
		want []string
	}{
		{
			name: "transport failure",
			err:  &APIError{Method: "GET", Path: "/sessions", Err: cause},
			want: []string{"api error", "GET /sessions", "connection refused"},
		},
		{
			name: "envelope code",
			err:  &APIError{Method: "POST", Path: "/categories", Status: 200, Code: 409, Msg: "duplicate"},
			want: []string{"code 409", "duplicate"},
		},
		{
			name: "http status",
			err:  &APIError{Method: "DELETE", Path: "/sessions/3", Status: 502},
			want: []string{"status 502"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.want {
				if !strings.Contains(msg, want) {
					t.Errorf("Error() = %q, should contain %q", msg, want)
				}
			}
		})
	}

	wrapped := fmt.Errorf("load: %w", &APIError{Method: "GET", Path: "/x", Err: cause})
	if !errors.Is(wrapped, cause) {
		t.Error("APIError.Unwrap() should return original error")
	}
}

func TestTransportError(t *testing.T) {
	err := &TransportError{Op: "status", Status: 503}
	if !strings.Contains(err.Error(), "status 503") {
		t.Errorf("Error() = %q", err.Error())
	}

	cause := errors.New("reset by peer")
	err = &TransportError{Op: "read", Err: cause}
	if !strings.Contains(err.Error(), "stream read failed") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("TransportError.Unwrap() should return original error")
	}
	if IsTimeout(err) {
		t.Error("a transport error is not a timeout")
	}
}

func TestServerError(t *testing.T) {
	if msg := (&ServerError{}).Error(); msg != "server reported an error" {
		t.Errorf("Error() = %q", msg)
	}
	if msg := (&ServerError{Message: "quota"}).Error(); !strings.Contains(msg, "quota") {
		t.Errorf("Error() = %q", msg)
	}
}

func TestCacheError(t *testing.T) {
	cause := errors.New("disk full")
	err := &CacheError{Path: "/tmp/c.db", Op: "write", Err: cause}
	msg := err.Error()
	if !strings.Contains(msg, "cache error") || !strings.Contains(msg, "/tmp/c.db") {
		t.Errorf("Error() = %q", msg)
	}
	if !errors.Is(err, cause) {
		t.Error("CacheError.Unwrap() should return original error")
	}
}

func TestConfigError(t *testing.T) {
	cause := errors.New("bad duration")
	err := &ConfigError{Source: "env", Field: "BRANCH_CHAT_IDLE_TIMEOUT", Err: cause}
	if !strings.Contains(err.Error(), "BRANCH_CHAT_IDLE_TIMEOUT") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("ConfigError.Unwrap() should return original error")
	}
}

func TestExportError(t *testing.T) {
	cause := errors.New("write failed")
	err := &ExportError{Format: "jsonl", Path: "/tmp/out.jsonl", Err: cause}

	msg := err.Error()
	if !strings.Contains(msg, "export error") || !strings.Contains(msg, "jsonl") {
		t.Errorf("Error() = %q", msg)
	}
	if !errors.Is(err, cause) {
		t.Error("ExportError.Unwrap() should return original error")
	}
}

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(ErrIdleTimeout) {
		t.Error("IsTimeout(ErrIdleTimeout) = false")
	}
	if !IsTimeout(fmt.Errorf("ask: %w", ErrIdleTimeout)) {
		t.Error("IsTimeout should see through wrapping")
	}
	if IsTimeout(ErrStreamInFlight) {
		t.Error("IsTimeout(ErrStreamInFlight) = true")
	}
	if IsTimeout(nil) {
		t.Error("IsTimeout(nil) = true")
	}
}
