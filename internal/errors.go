package internal

import (
	"errors"
	"fmt"
)

// ErrIdleTimeout is reported when a stream stays silent longer than the idle threshold
var ErrIdleTimeout = errors.New("stream idle timeout: no data received")

// ErrStreamInFlight is returned when a second stream is started for the same view
var ErrStreamInFlight = errors.New("a stream is already in flight for this session")

// APIError represents a failed request/response exchange with the server
type APIError struct {
	Method string
	Path   string
	Status int    // HTTP status, 0 if the request never completed
	Code   int    // envelope code, 0 if the envelope was not decoded
	Msg    string // envelope message
	Err    error
}

func (e *APIError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("api error: %s %s: %v", e.Method, e.Path, e.Err)
	case e.Code != 0:
		return fmt.Sprintf("api error: %s %s: code %d: %s", e.Method, e.Path, e.Code, e.Msg)
	default:
		return fmt.Sprintf("api error: %s %s: status %d", e.Method, e.Path, e.Status)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// TransportError represents a failure opening or reading a stream
type TransportError struct {
	Op     string // "request", "connect", "status", "body", "read"
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("stream %s failed: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("stream %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServerError is an error event delivered inside the stream
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return "server reported an error"
	}
	return fmt.Sprintf("server reported an error: %s", e.Message)
}

// CacheError represents errors accessing the local snapshot cache
type CacheError struct {
	Path string
	Op   string // "open", "migrate", "read", "write"
	Err  error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// ConfigError represents an invalid configuration value
type ConfigError struct {
	Source string // file path, "env" or "flags"
	Field  string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error [%s] %s: %v", e.Source, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is an idle timeout
func IsTimeout(err error) bool {
	return errors.Is(err, ErrIdleTimeout)
}
