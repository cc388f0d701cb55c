package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func TestGetJSON_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		w.Write([]byte(`{"name":"s1mple"}`))
	}))
	defer srv.Close()

	c := New("test", WithHeader("Authorization", "Bearer k"))
	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, 0, &out))
	assert.Equal(t, "s1mple", out.Name)
}

func TestGetJSON_NotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	var out map[string]any
	err := New("test").GetJSON(context.Background(), srv.URL, 0, &out)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetJSON_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New("test", WithRetry(3, time.Millisecond))
	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, 0, &out))
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetJSON_NoRetryOnClientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`forbidden`))
	}))
	defer srv.Close()

	var out map[string]any
	err := New("test", WithRetry(3, time.Millisecond)).GetJSON(context.Background(), srv.URL, 0, &out)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetJSON_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	var out map[string]any
	err := New("test", WithRetry(2, time.Millisecond)).GetJSON(context.Background(), srv.URL, 0, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGetJSON_Cache(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"n":1}`))
	}))
	defer srv.Close()

	cache := newMemCache()
	c := New("test", WithCache(cache))
	var out struct {
		N int `json:"n"`
	}

	require.NoError(t, c.GetJSON(context.Background(), srv.URL+"?key=secret", time.Minute, &out))
	require.NoError(t, c.GetJSON(context.Background(), srv.URL+"?key=secret", time.Minute, &out))
	assert.Equal(t, 1, out.N)
	assert.Equal(t, int32(1), calls.Load())

	for k := range cache.data {
		assert.NotContains(t, k, "secret")
	}

	// zero ttl bypasses the cache
	require.NoError(t, c.GetJSON(context.Background(), srv.URL+"?key=secret", 0, &out))
	assert.Equal(t, int32(2), calls.Load())
}

func TestPostForm(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "check_authentication", r.PostForm.Get("openid.mode"))
		w.Write([]byte("ns:http://specs.openid.net/auth/2.0\nis_valid:true\n"))
	}))
	defer srv.Close()

	body, err := New("test").PostForm(context.Background(), srv.URL, "openid.mode=check_authentication")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "is_valid:true"))
}

func TestGetJSON_ContextCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out map[string]any
	err := New("test", WithRetry(3, time.Second)).GetJSON(ctx, srv.URL, 0, &out)
	require.Error(t, err)
}
