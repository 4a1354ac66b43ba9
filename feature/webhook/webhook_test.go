package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"tablesync/core/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEmitter_RunFinished(t *testing.T) {
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "hunter2", r.Header.Get("x-sync-secret"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	em := NewEmitter(Config{URL: srv.URL, Secret: "hunter2", TimeoutSeconds: 2}, zap.NewNop())

	res := &engine.RunResult{RunID: "abc12345", Unit: "ccp", Mode: engine.ModeTwoWay}
	res.Summary.Updates = 3
	require.NoError(t, em.RunFinished(context.Background(), res))

	assert.Equal(t, "run_finished", got.EventType)
	assert.Equal(t, "ccp", got.Payload["unit"])
	assert.Equal(t, float64(3), got.Payload["updates"])
}

func TestEmitter_RetriesThenSwallows(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	em := NewEmitter(Config{URL: srv.URL, TimeoutSeconds: 2, Retries: 2}, zap.NewNop())

	err := em.Emit(context.Background(), Event{EventType: "run_finished"})
	assert.NoError(t, err, "non-strict failures are swallowed")
	assert.Equal(t, int32(3), calls.Load(), "first try plus two retries")
}

func TestEmitter_StrictPropagatesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	em := NewEmitter(Config{URL: srv.URL, TimeoutSeconds: 2, Strict: true}, zap.NewNop())

	err := em.Emit(context.Background(), Event{EventType: "run_aborted"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run_aborted")
}

func TestEmitter_DisabledWithoutURL(t *testing.T) {
	em := NewEmitter(Config{}, zap.NewNop())
	assert.False(t, em.Enabled())
	assert.NoError(t, em.Emit(context.Background(), Event{EventType: "run_finished"}))
}
