package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Teton-ai/smith-sub002/internal/metrics"
	"github.com/Teton-ai/smith-sub002/internal/platform/correlation"
)

// notAuthenticatedMessage is the fixed error surfaced when a call is rejected
// before it starts because no session is authenticated.
const notAuthenticatedMessage = "User is not authenticated"

// CallState is the loading/error snapshot the presentation layer observes.
// Loading is derived from the number of in-flight calls; Error holds the
// message of the last settled failure, or "" after a success.
type CallState struct {
	Loading bool
	Error   string
}

// Coordinator turns each API invocation into an observable loading/error
// lifecycle. Results are returned per invocation; the shared CallState tracks
// in-flight calls with a counter rather than a single overwritten flag, so
// concurrent calls cannot race it back to idle early. Failures are absorbed
// into the state and never returned to the caller as errors.
// Safe for concurrent use.
type Coordinator struct {
	client   *Client
	tokens   TokenSource
	inFlight atomic.Int64

	mu        sync.Mutex
	lastError string
}

// NewCoordinator creates a coordinator around the given client. tokens must be
// the same source the client authenticates with.
func NewCoordinator(client *Client, tokens TokenSource) *Coordinator {
	return &Coordinator{client: client, tokens: tokens}
}

// Call performs one API invocation. The returned payload is the raw success
// body, or nil when the call failed; failure detail is observable through
// State only. A rejected (unauthenticated) call sets the error state without
// ever entering the loading state.
func (c *Coordinator) Call(ctx context.Context, method, path string, body any) json.RawMessage {
	payload, _ := c.call(ctx, method, path, body)
	return payload
}

func (c *Coordinator) call(ctx context.Context, method, path string, body any) (json.RawMessage, bool) {
	if !c.tokens.IsAuthenticated() {
		c.settle(notAuthenticatedMessage)
		return nil, false
	}

	ctx = correlation.WithID(ctx, correlation.NewID())

	c.inFlight.Add(1)
	metrics.APICallsInFlight.Inc()
	defer func() {
		c.inFlight.Add(-1)
		metrics.APICallsInFlight.Dec()
	}()

	payload, err := c.client.Send(ctx, Request{Method: method, Path: path, Body: body})
	if err != nil {
		slog.ErrorContext(ctx, "API call failed", "method", method, "path", path, "error", err)
		c.settle(userMessage(err))
		return nil, false
	}

	c.settle("")
	return payload, true
}

// CallJSON performs Call and decodes the payload into out. It reports whether
// the call succeeded; a decode failure counts as a failed call.
func (c *Coordinator) CallJSON(ctx context.Context, method, path string, body, out any) bool {
	payload, ok := c.call(ctx, method, path, body)
	if !ok {
		return false
	}
	if out == nil || len(payload) == 0 {
		return true
	}
	if err := json.Unmarshal(payload, out); err != nil {
		c.settle("failed to decode response body")
		return false
	}
	return true
}

// State returns the current loading/error snapshot.
func (c *Coordinator) State() CallState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CallState{
		Loading: c.inFlight.Load() > 0,
		Error:   c.lastError,
	}
}

func (c *Coordinator) settle(errMessage string) {
	c.mu.Lock()
	c.lastError = errMessage
	c.mu.Unlock()
}

// userMessage maps a classified error to the message shown to the user.
// API errors surface the service's own message verbatim.
func userMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
