// Package stream consumes the chat endpoint's server-sent event stream.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/iksnae/branch-chat/internal"
)

// State is the lifecycle position of a stream
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateCompleted
	StateTimedOut
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateTimedOut:
		return "timed-out"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateTimedOut || s == StateErrored
}

// Handlers receive the stream's output. Exactly one of OnComplete and
// OnError is called, after zero or more OnChunk calls. All three run on
// the same goroutine.
type Handlers struct {
	OnChunk    func(content string)
	OnComplete func(ids internal.CompletionIDs)
	OnError    func(err error)
}

// HTTPClient is the subset of *http.Client the engine needs
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Engine starts chat streams against one endpoint
type Engine struct {
	client      HTTPClient
	endpoint    string
	idleTimeout time.Duration
	readSize    int
}

// Option configures an Engine
type Option func(*Engine)

// WithHTTPClient replaces the HTTP client. It must not impose a total
// request timeout or long answers will be cut.
func WithHTTPClient(client HTTPClient) Option {
	return func(e *Engine) {
		e.client = client
	}
}

// WithIdleTimeout sets how long the stream may stay silent
func WithIdleTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.idleTimeout = d
		}
	}
}

// NewEngine creates an engine posting to endpoint
func NewEngine(endpoint string, opts ...Option) *Engine {
	e := &Engine{
		client:      &http.Client{},
		endpoint:    endpoint,
		idleTimeout: internal.DefaultIdleTimeout,
		readSize:    4096,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IdleTimeout returns the configured idle threshold
func (e *Engine) IdleTimeout() time.Duration {
	return e.idleTimeout
}

// Handle tracks one running stream
type Handle struct {
	id     uuid.UUID
	state  atomic.Int32
	done   chan struct{}
	cancel context.CancelFunc

	// written by the loop goroutine before done is closed
	ids internal.CompletionIDs
	err error
}

// ID returns the stream's unique id
func (h *Handle) ID() uuid.UUID {
	return h.id
}

// State returns the current state
func (h *Handle) State() State {
	return State(h.state.Load())
}

// Done is closed once the final callback has returned
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the stream ends and returns its outcome
func (h *Handle) Wait() (internal.CompletionIDs, error) {
	<-h.done
	return h.ids, h.err
}

// Cancel aborts the stream; OnError receives context.Canceled unless it already ended
func (h *Handle) Cancel() {
	h.cancel()
}

func (h *Handle) setState(s State) {
	h.state.Store(int32(s))
}

// Start posts payload as JSON and consumes the event stream in the
// background. It never blocks on the network.
func (e *Engine) Start(ctx context.Context, payload interface{}, handlers Handlers) *Handle {
	runCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		id:     uuid.New(),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	h.setState(StateIdle)

	go e.run(runCtx, h, payload, handlers)
	return h
}

type readKind int

const (
	readConnected readKind = iota
	readData
	readEOF
	readFailed
)

type readResult struct {
	kind readKind
	data []byte
	err  error
}

// run is the single goroutine that owns the buffer and calls the handlers
func (e *Engine) run(ctx context.Context, h *Handle, payload interface{}, handlers Handlers) {
	defer close(h.done)
	defer h.cancel()

	logPrefix := "stream " + h.id.String()[:8]

	finish := func(state State, ids internal.CompletionIDs, err error) {
		h.ids = ids
		h.err = err
		h.setState(state)
		if err != nil {
			internal.LogDebug("%s: %s: %v", logPrefix, state, err)
			if handlers.OnError != nil {
				handlers.OnError(err)
			}
			return
		}
		internal.LogDebug("%s: completed (dialog %d, conversation %d)", logPrefix, ids.DialogID, ids.ConversationID)
		if handlers.OnComplete != nil {
			handlers.OnComplete(ids)
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		finish(StateErrored, internal.CompletionIDs{}, &internal.TransportError{Op: "request", Err: err})
		return
	}

	h.setState(StateConnecting)
	timer := time.NewTimer(e.idleTimeout)
	defer timer.Stop()

	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	reads := make(chan readResult)
	go e.read(readCtx, body, reads)

	var buf lineBuffer
	// handle reports whether the line ended the stream
	handle := func(line string) bool {
		ev := ParseLine(line)
		switch ev.Kind {
		case EventChunk:
			if handlers.OnChunk != nil {
				handlers.OnChunk(ev.Content)
			}
		case EventDone:
			finish(StateCompleted, ev.IDs, nil)
			return true
		case EventError:
			finish(StateErrored, internal.CompletionIDs{}, &internal.ServerError{Message: ev.Content})
			return true
		}
		return false
	}

	for {
		select {
		case <-ctx.Done():
			finish(StateErrored, internal.CompletionIDs{}, ctx.Err())
			return

		case <-timer.C:
			finish(StateTimedOut, internal.CompletionIDs{}, internal.ErrIdleTimeout)
			return

		case r := <-reads:
			switch r.kind {
			case readConnected:
				h.setState(StateStreaming)

			case readData:
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(e.idleTimeout)
				for _, line := range buf.Feed(r.data) {
					if handle(line) {
						return
					}
				}

			case readEOF:
				if rest, ok := buf.Flush(); ok {
					if handle(rest) {
						return
					}
				}
				internal.LogDebug("%s: ended without a completion line", logPrefix)
				finish(StateCompleted, internal.SentinelIDs(), nil)
				return

			case readFailed:
				finish(StateErrored, internal.CompletionIDs{}, r.err)
				return
			}
		}
	}
}

// read performs the request and forwards the body in pieces until EOF,
// failure or ctx cancellation
func (e *Engine) read(ctx context.Context, body []byte, out chan<- readResult) {
	send := func(r readResult) bool {
		select {
		case out <- r:
			return true
		case <-ctx.Done():
			return false
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		send(readResult{kind: readFailed, err: &internal.TransportError{Op: "request", Err: err}})
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		send(readResult{kind: readFailed, err: &internal.TransportError{Op: "connect", Err: err}})
		return
	}
	if resp.Body == nil {
		send(readResult{kind: readFailed, err: &internal.TransportError{Op: "body", Err: errors.New("response has no body")}})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		send(readResult{kind: readFailed, err: &internal.TransportError{Op: "status", Status: resp.StatusCode}})
		return
	}
	if !send(readResult{kind: readConnected}) {
		return
	}

	chunk := make([]byte, e.readSize)
	for {
		n, err := resp.Body.Read(chunk)
		if n > 0 {
			data := make([]byte, n)
			copy(data, chunk[:n])
			if !send(readResult{kind: readData, data: data}) {
				return
			}
		}
		if errors.Is(err, io.EOF) {
			send(readResult{kind: readEOF})
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			send(readResult{kind: readFailed, err: &internal.TransportError{Op: "read", Err: err}})
			return
		}
	}
}
