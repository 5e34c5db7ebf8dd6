package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/churbro/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		UserAgent:         "churbro-test/1.0",
		Timeout:           2 * time.Second,
		RequestsPerSecond: 1000,
		Burst:             10,
		MaxRetries:        3,
		RetryBackoff:      time.Millisecond,
	}
}

func TestClient_FetchPage(t *testing.T) {
	t.Run("returns body and sends user agent", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "churbro-test/1.0", r.Header.Get("User-Agent"))
			assert.Equal(t, "2", r.URL.Query().Get("pg"))
			w.Write([]byte("<html><body>ok</body></html>"))
		}))
		defer server.Close()

		body, err := NewClient(testConfig(), nil).FetchPage(context.Background(), server.URL+"/?pg=2")
		require.NoError(t, err)
		assert.Contains(t, string(body), "ok")
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte("third time lucky"))
		}))
		defer server.Close()

		body, err := NewClient(testConfig(), nil).FetchPage(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "third time lucky", string(body))
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("does not retry not found", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := NewClient(testConfig(), nil).FetchPage(context.Background(), server.URL)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrFetchFailed))
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := NewClient(testConfig(), nil).FetchPage(context.Background(), server.URL)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrFetchFailed)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("honours cancelled context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("never read"))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewClient(testConfig(), nil).FetchPage(ctx, server.URL)
		assert.Error(t, err)
	})
}
