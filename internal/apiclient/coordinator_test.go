package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCoordinator(t *testing.T, tokens *fakeTokens, handler http.HandlerFunc) *Coordinator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(tokens, originConfig(srv.URL))
	return NewCoordinator(client, tokens)
}

func TestCall_NotAuthenticated(t *testing.T) {
	var requests atomic.Int32
	tokens := &fakeTokens{authenticated: false}
	coord := newCoordinator(t, tokens, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	})

	payload := coord.Call(context.Background(), "GET", "/devices", nil)

	assert.Nil(t, payload)
	state := coord.State()
	assert.False(t, state.Loading, "a rejected call never enters loading")
	assert.Equal(t, "User is not authenticated", state.Error)
	assert.Equal(t, int32(0), requests.Load())
}

func TestCall_Success(t *testing.T) {
	tokens := &fakeTokens{authenticated: true, token: "T"}
	coord := newCoordinator(t, tokens, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer T", r.Header.Get("Authorization"))
		fmt.Fprint(w, `[{"id":1}]`)
	})

	payload := coord.Call(context.Background(), "GET", "/devices", nil)

	assert.JSONEq(t, `[{"id":1}]`, string(payload))
	state := coord.State()
	assert.False(t, state.Loading)
	assert.Empty(t, state.Error)
}

func TestCall_LoadingWhilePending(t *testing.T) {
	release := make(chan struct{})
	tokens := &fakeTokens{authenticated: true, token: "T"}
	coord := newCoordinator(t, tokens, func(w http.ResponseWriter, r *http.Request) {
		<-release
		fmt.Fprint(w, `{}`)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		coord.Call(context.Background(), "GET", "/devices", nil)
	}()

	require.Eventually(t, func() bool {
		return coord.State().Loading
	}, time.Second, 5*time.Millisecond, "loading must be observable while the call is pending")

	close(release)
	<-done

	assert.False(t, coord.State().Loading)
}

func TestCall_APIFailureAbsorbedIntoState(t *testing.T) {
	tokens := &fakeTokens{authenticated: true, token: "T"}
	coord := newCoordinator(t, tokens, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"not found"}`)
	})

	payload := coord.Call(context.Background(), "GET", "/devices/unknown", nil)

	assert.Nil(t, payload)
	state := coord.State()
	assert.False(t, state.Loading)
	assert.Equal(t, "not found", state.Error)
}

func TestCall_SuccessClearsPreviousError(t *testing.T) {
	var requests atomic.Int32
	tokens := &fakeTokens{authenticated: true, token: "T"}
	coord := newCoordinator(t, tokens, func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{}`)
	})

	coord.Call(context.Background(), "GET", "/devices", nil)
	assert.NotEmpty(t, coord.State().Error)

	coord.Call(context.Background(), "GET", "/devices", nil)
	assert.Empty(t, coord.State().Error)
}

func TestCall_ConcurrentCallsShareLoadingState(t *testing.T) {
	const calls = 4

	release := make(chan struct{})
	tokens := &fakeTokens{authenticated: true, token: "T"}
	coord := newCoordinator(t, tokens, func(w http.ResponseWriter, r *http.Request) {
		<-release
		fmt.Fprint(w, `{}`)
	})

	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			coord.Call(context.Background(), "GET", "/devices", nil)
		}()
	}

	require.Eventually(t, func() bool {
		return coord.State().Loading
	}, time.Second, 5*time.Millisecond)

	close(release)
	wg.Wait()

	// Loading only drops once the last call settles.
	state := coord.State()
	assert.False(t, state.Loading)
	assert.Empty(t, state.Error)
}

func TestCallJSON_Success(t *testing.T) {
	tokens := &fakeTokens{authenticated: true, token: "T"}
	coord := newCoordinator(t, tokens, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"serial_number":"TS-042"}`)
	})

	var out struct {
		SerialNumber string `json:"serial_number"`
	}
	ok := coord.CallJSON(context.Background(), "GET", "/devices/TS-042", nil, &out)

	assert.True(t, ok)
	assert.Equal(t, "TS-042", out.SerialNumber)
}

func TestCallJSON_EmptySuccessBody(t *testing.T) {
	tokens := &fakeTokens{authenticated: true, token: "T"}
	coord := newCoordinator(t, tokens, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	ok := coord.CallJSON(context.Background(), "DELETE", "/devices/TS-042", nil, nil)
	assert.True(t, ok)
	assert.Empty(t, coord.State().Error)
}

func TestCallJSON_DecodeFailure(t *testing.T) {
	tokens := &fakeTokens{authenticated: true, token: "T"}
	coord := newCoordinator(t, tokens, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": "not-a-number"}`)
	})

	var out struct {
		ID int `json:"id"`
	}
	ok := coord.CallJSON(context.Background(), "GET", "/devices/1", nil, &out)

	assert.False(t, ok)
	assert.Equal(t, "failed to decode response body", coord.State().Error)
}

func TestCall_TokenFailure(t *testing.T) {
	var requests atomic.Int32
	tokens := &fakeTokens{authenticated: true, err: fmt.Errorf("issuer unavailable")}
	coord := newCoordinator(t, tokens, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	})

	payload := coord.Call(context.Background(), "GET", "/devices", nil)

	assert.Nil(t, payload)
	assert.Equal(t, "failed to acquire access token", coord.State().Error)
	assert.Equal(t, int32(0), requests.Load())
}
