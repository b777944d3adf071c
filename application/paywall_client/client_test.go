package paywall_client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paywall-bench/core/payload"
	"paywall-bench/core/paywall"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func newTestClient(url string, probe Timeouts) *HTTPClient {
	return New(Config{
		URL:   url,
		Wall:  Timeouts{Response: time.Second, Deadline: 2 * time.Second},
		Probe: probe,
	}, trace.NewNoopTracerProvider().Tracer("test"))
}

func TestOpenPostsForm(t *testing.T) {
	var got http.Header
	var form map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte("<trade/>"))
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL, Timeouts{}).Open(context.Background(), payload.Payload{
		"STAMP": "123",
		"MAC":   "ABC",
		"MSG":   "a b&c",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "<trade/>", string(resp.Body))
	assert.Greater(t, resp.ElapsedSeconds, 0.0)
	assert.Equal(t, "application/x-www-form-urlencoded", got.Get("Content-Type"))
	assert.Equal(t, []string{"123"}, form["STAMP"])
	assert.Equal(t, []string{"a b&c"}, form["MSG"])
}

func TestOpenReportsStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL, Timeouts{}).Open(context.Background(), payload.Payload{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
}

func TestOpenTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestClient(url, Timeouts{}).Open(context.Background(), payload.Payload{})
	assert.Error(t, err)
}

func TestProbeRecordsStatusAndElapsed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "0001", r.PostForm.Get("VERSION"))
		time.Sleep(20 * time.Millisecond)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	option := paywall.BankOption{Provider: "nordea", URL: server.URL, Fields: map[string]string{"VERSION": "0001"}}
	result, err := newTestClient("", Timeouts{Response: time.Second, Deadline: 2 * time.Second}).Probe(context.Background(), option)
	require.NoError(t, err)

	assert.Equal(t, "nordea", result.Provider)
	assert.Equal(t, http.StatusNotFound, result.Status)
	assert.GreaterOrEqual(t, result.ElapsedSeconds, 0.02)
	assert.Empty(t, result.Error)
}

func TestProbeResponseTimeoutIsRequestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	option := paywall.BankOption{Provider: "slow", URL: server.URL}
	result, err := newTestClient("", Timeouts{Response: 50 * time.Millisecond}).Probe(context.Background(), option)
	require.NoError(t, err)

	assert.Equal(t, paywall.StatusTimeout, result.Status)
	assert.Equal(t, "slow", result.Provider)
	assert.Less(t, result.ElapsedSeconds, 1.0)
}

func TestProbeDeadlineCoversBody(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	option := paywall.BankOption{Provider: "trickle", URL: server.URL}
	result, err := newTestClient("", Timeouts{Response: time.Second, Deadline: 80 * time.Millisecond}).Probe(context.Background(), option)
	require.NoError(t, err)
	assert.Equal(t, paywall.StatusTimeout, result.Status)
}

func TestProbeConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	option := paywall.BankOption{Provider: "gone", URL: url}
	result, err := newTestClient("", Timeouts{Response: time.Second}).Probe(context.Background(), option)
	assert.Error(t, err)
	assert.Equal(t, "gone", result.Provider)
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, isTimeout(context.DeadlineExceeded))
	assert.False(t, isTimeout(context.Canceled))
	assert.False(t, isTimeout(nil))
}
