package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, opts ...Option) *Gateway {
	t.Helper()
	g, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return g
}

func TestDoUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PlugClient/1.0 (GO)", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"status":"ok","data":{"id":7}}`))
	}))
	defer srv.Close()

	g := newTestGateway(t)
	data, err := g.Do(context.Background(), http.MethodGet, srv.URL, nil, false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7}`, string(data))
}

func TestDoExtractsSingleElementArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","data":[{"id":7}]}`))
	}))
	defer srv.Close()

	g := newTestGateway(t)
	data, err := g.Do(context.Background(), http.MethodGet, srv.URL, nil, true)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7}`, string(data))

	// without extract the array stays intact
	data, err = g.Do(context.Background(), http.MethodGet, srv.URL, nil, false)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":7}]`, string(data))
}

func TestDoRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"status":"ok","data":{"ok":true}}`))
	}))
	defer srv.Close()

	g := newTestGateway(t, WithBackoff(10*time.Millisecond))
	data, err := g.Do(context.Background(), http.MethodGet, srv.URL, nil, false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))
	assert.Equal(t, int32(3), hits.Load())
}

func TestDoGivesUpAfterRetryBudget(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := newTestGateway(t, WithBackoff(10*time.Millisecond))
	_, err := g.Do(context.Background(), http.MethodGet, srv.URL, nil, false)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, http.StatusBadGateway, gerr.Code)
	assert.Equal(t, int32(3), hits.Load(), "one initial try plus two retries")
}

func TestDoClientErrorsAreNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"status":"error","data":["room slug required"]}`))
	}))
	defer srv.Close()

	g := newTestGateway(t)
	_, err := g.Do(context.Background(), http.MethodGet, srv.URL, nil, false)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.True(t, gerr.IsClientError())
	assert.Equal(t, "room slug required", gerr.Message)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDoFlushBypassesRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := newTestGateway(t, WithBackoff(10*time.Millisecond))
	_, err := g.DoFlush(context.Background(), http.MethodPost, srv.URL, nil, false)
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load(), "flush requests fire exactly once")
}

func TestConcurrencyCeiling(t *testing.T) {
	var inFlight, peak atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		inFlight.Add(-1)
		w.Write([]byte(`{"status":"ok","data":{}}`))
	}))
	defer srv.Close()

	g := newTestGateway(t, WithConcurrency(2))
	done := make(chan error, 5)
	for i := 0; i < 5; i++ {
		go func() {
			_, err := g.Do(context.Background(), http.MethodGet, srv.URL, nil, false)
			done <- err
		}()
	}
	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	close(release)
	for i := 0; i < 5; i++ {
		assert.NoError(t, <-done)
	}
}

func TestFlushQueueDiscardsBacklog(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`{"status":"ok","data":{}}`))
	}))
	defer srv.Close()
	defer close(release)

	g := newTestGateway(t, WithConcurrency(1))
	first := make(chan error, 1)
	go func() {
		_, err := g.Do(context.Background(), http.MethodGet, srv.URL, nil, false)
		first <- err
	}()
	time.Sleep(50 * time.Millisecond)

	queued := make(chan error, 1)
	go func() {
		_, err := g.Do(context.Background(), http.MethodGet, srv.URL, nil, false)
		queued <- err
	}()
	time.Sleep(50 * time.Millisecond)

	g.FlushQueue()
	assert.ErrorIs(t, <-queued, ErrDiscarded, "queued request is discarded")

	release <- struct{}{}
	assert.NoError(t, <-first, "in-flight request runs to completion")
}

func TestGetRawReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>_csrf="abc"</html>`))
	}))
	defer srv.Close()

	g := newTestGateway(t)
	body, err := g.GetRaw(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, body, `_csrf="abc"`)
}

func TestDoEncodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "coolroom", body["slug"])
		w.Write([]byte(`{"status":"ok","data":{}}`))
	}))
	defer srv.Close()

	g := newTestGateway(t)
	_, err := g.Do(context.Background(), http.MethodPost, srv.URL, map[string]string{"slug": "coolroom"}, false)
	require.NoError(t, err)
}
