package httpapi

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

type echo struct {
	Text string `json:"text"`
}

func newTestClient(url string, opts ...Option) *Client {
	opts = append([]Option{WithRetries(2, time.Millisecond)}, opts...)
	return New("test", url, time.Second, opts...)
}

func TestClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/echo", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var in echo
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(echo{Text: in.Text + "!"})
	}))
	defer server.Close()

	c := newTestClient(server.URL+"/", WithHeader("Authorization", "Bearer k"))
	var out echo
	require.NoError(t, c.Post(context.Background(), "/v1/echo", echo{Text: "hi"}, &out))
	assert.Equal(t, "hi!", out.Text)
	assert.Equal(t, server.URL, c.BaseURL())
}

func TestClient_Post_RetriesTemporaryFailures(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if calls.Add(1) < 3 {
					w.WriteHeader(status)
					return
				}
				_, _ = w.Write([]byte(`{"text":"ok"}`))
			}))
			defer server.Close()

			var out echo
			require.NoError(t, newTestClient(server.URL).Post(context.Background(), "/", echo{}, &out))
			assert.Equal(t, "ok", out.Text)
			assert.Equal(t, int32(3), calls.Load())
		})
	}
}

func TestClient_Post_GivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	err := newTestClient(server.URL).Post(context.Background(), "/", echo{}, nil)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.EqualError(t, err, "test: API returned status 502: upstream down")
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Post_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	err := newTestClient(server.URL).Post(context.Background(), "/", echo{}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401: bad key")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Post_RetriesDisabled(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New("test", server.URL, time.Second, WithRetries(-1, 0))
	require.Error(t, c.Post(context.Background(), "/", echo{}, nil))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Post_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	var out echo
	err := newTestClient(server.URL).Post(context.Background(), "/", echo{}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test: decode response")
}

func TestClient_Post_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestClient(server.URL).Post(ctx, "/", echo{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Get(t *testing.T) {
	status := http.StatusOK
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.WriteHeader(status)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	assert.NoError(t, c.Get(context.Background(), "/models", nil))

	status = http.StatusServiceUnavailable
	assert.Error(t, c.Get(context.Background(), "/models", nil))
	assert.Equal(t, int32(2), calls.Load(), "GET is never retried")
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		status    int
		temporary bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusNotFound, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusServiceUnavailable, true},
	}
	for _, tt := range tests {
		err := &StatusError{Provider: "p", StatusCode: tt.status}
		assert.Equal(t, tt.temporary, err.Temporary(), "status %d", tt.status)
	}

	assert.Equal(t, "p: API returned status 500", (&StatusError{Provider: "p", StatusCode: 500}).Error())
}

func TestErrorMessage(t *testing.T) {
	long := make([]byte, maxMessageLen+50)
	for i := range long {
		long[i] = 'x'
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{"nested", `{"error":{"message":"invalid api key","type":"auth"}}`, "invalid api key"},
		{"flat", `{"error":"model \"x\" not found"}`, `model "x" not found`},
		{"plain", "  Bad Gateway \n", "Bad Gateway"},
		{"empty", "", ""},
		{"long", string(long), string(long[:maxMessageLen]) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage([]byte(tt.body)))
		})
	}
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, retryAfter("3"))
	assert.Zero(t, retryAfter(""))
	assert.Zero(t, retryAfter("0"))
	assert.Zero(t, retryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
}

func TestHintedBackOff(t *testing.T) {
	c := New("test", "http://x", time.Second, WithRetries(0, 50*time.Millisecond))
	assert.Equal(t, DefaultMaxRetries, c.maxRetries)
	assert.Equal(t, 50*time.Millisecond, c.backoff)

	b := &hintedBackOff{ExponentialBackOff: newExponential(c.backoff)}
	b.hint = time.Minute
	assert.Equal(t, maxBackoff, b.NextBackOff(), "hint is capped")
	assert.Less(t, b.NextBackOff(), time.Second, "hint applies once")
}
