package sources

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvetl/internal/etl"
)

func newTestClient(t *testing.T, opts Options) (*Client, *[]time.Duration) {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	c, err := NewClient(opts, log)
	require.NoError(t, err)

	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

// ─────────────────────────────────────────────────────────────
// Requests
// ─────────────────────────────────────────────────────────────

func TestFetchPage_GETSendsQueryAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "2", r.URL.Query().Get("pagina"))
		assert.Equal(t, "450", r.URL.Query().Get("registros_por_pagina"))
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("a_partir_data_cad"))
		assert.Equal(t, "ops@example.com", r.Header.Get("email"))
		assert.Equal(t, "secret", r.Header.Get("token"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		_, _ = io.WriteString(w, `{"pagina": 2, "total_de_paginas": 5, "dados": [{"idreserva": 10, "valor": 1234.50}]}`)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, Options{
		URL: srv.URL, Method: http.MethodGet,
		Email: "ops@example.com", Token: "secret",
		PageSize: 450, Retries: 3, Timeout: 5 * time.Second,
		SinceParam: "a_partir_data_cad",
	})

	p, err := c.FetchPage(context.Background(), etl.PageRequest{Page: 2, Since: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, 5, p.TotalPages)
	assert.Equal(t, 2, p.CurrentPage)
	require.Len(t, p.Records, 1)
	assert.Equal(t, json.Number("10"), p.Records[0]["idreserva"])
	assert.Equal(t, json.Number("1234.50"), p.Records[0]["valor"])
}

func TestFetchPage_GETOmitsEmptySince(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("a_partir_data_cad"))
		_, _ = io.WriteString(w, `{"dados": []}`)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, Options{URL: srv.URL, PageSize: 10, Retries: 1, SinceParam: "a_partir_data_cad"})
	p, err := c.FetchPage(context.Background(), etl.PageRequest{Page: 1})
	require.NoError(t, err)
	assert.Empty(t, p.Records)
	assert.Zero(t, p.TotalPages)
}

func TestFetchPage_POSTSendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.URL.RawQuery)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{
			"pagina":               float64(1),
			"registros_por_pagina": float64(450),
			"a_partir_data_cad":    "2024-06-01",
		}, body)

		_, _ = io.WriteString(w, `{"total_pages": 4, "dados": []}`)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, Options{
		URL: srv.URL, Method: http.MethodPost, PageSize: 450, Retries: 1,
		SinceParam: "a_partir_data_cad",
	})

	p, err := c.FetchPage(context.Background(), etl.PageRequest{Page: 1, Since: "2024-06-01"})
	require.NoError(t, err)
	assert.Equal(t, 4, p.TotalPages)
}

// ─────────────────────────────────────────────────────────────
// Retries
// ─────────────────────────────────────────────────────────────

func TestFetchPage_RetriesWithLinearBackoff(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"total_de_paginas": 1, "dados": [{"idtarefa": 1}]}`)
	}))
	defer srv.Close()

	c, slept := newTestClient(t, Options{URL: srv.URL, Retries: 3, Backoff: 2 * time.Second})

	p, err := c.FetchPage(context.Background(), etl.PageRequest{Page: 1})
	require.NoError(t, err)
	assert.Len(t, p.Records, 1)
	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *slept)
}

func TestFetchPage_ExhaustedIsUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, slept := newTestClient(t, Options{URL: srv.URL, Retries: 3, Backoff: time.Second})

	_, err := c.FetchPage(context.Background(), etl.PageRequest{Page: 7})
	require.Error(t, err)
	assert.True(t, errors.Is(err, etl.ErrPageUnavailable))
	assert.Contains(t, err.Error(), "page 7")
	assert.Contains(t, err.Error(), "http 500")
	assert.EqualValues(t, 3, calls.Load())
	assert.Len(t, *slept, 2)
}

func TestFetchPage_BadBodiesAreRetried(t *testing.T) {
	for _, body := range []string{`not json`, `null`, `[1, 2]`, ``} {
		t.Run(body, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				_, _ = io.WriteString(w, body)
			}))
			defer srv.Close()

			c, _ := newTestClient(t, Options{URL: srv.URL, Retries: 2})
			_, err := c.FetchPage(context.Background(), etl.PageRequest{Page: 1})
			assert.True(t, errors.Is(err, etl.ErrPageUnavailable))
			assert.EqualValues(t, 2, calls.Load())
		})
	}
}

func TestFetchPage_StopsWhenContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	log, _ := logtest.NewNullLogger()
	c, err := NewClient(Options{URL: srv.URL, Retries: 5, Backoff: time.Hour}, log)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepContext(ctx, d)
	}

	_, err = c.FetchPage(ctx, etl.PageRequest{Page: 1})
	assert.True(t, errors.Is(err, etl.ErrPageUnavailable))
	assert.Contains(t, err.Error(), context.Canceled.Error())
}

// ─────────────────────────────────────────────────────────────
// Decoding and transport
// ─────────────────────────────────────────────────────────────

func TestDecodePage(t *testing.T) {
	p, err := decodePage(strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.Empty(t, p.Records)
	assert.Zero(t, p.TotalPages)

	p, err = decodePage(strings.NewReader(`{"total_de_paginas": "3", "total_pages": 9, "dados": [1, {"a": "b"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 3, p.TotalPages)
	require.Len(t, p.Records, 1)
	assert.Equal(t, "b", p.Records[0]["a"])

	p, err = decodePage(strings.NewReader(`{"total_de_paginas": 0, "total_pages": 2}`))
	require.NoError(t, err)
	assert.Equal(t, 2, p.TotalPages)
}

func TestNewClient_Proxy(t *testing.T) {
	log, _ := logtest.NewNullLogger()

	t.Setenv("HTTP_PROXY", "http://env-proxy:3128")
	c, err := NewClient(Options{URL: "http://api.example.com"}, log)
	require.NoError(t, err)
	assert.Nil(t, c.http.Transport.(*http.Transport).Proxy)

	c, err = NewClient(Options{
		URL:          "http://api.example.com",
		ProxyEnabled: true,
		ProxyHTTP:    "http://proxy:3128",
		ProxyHTTPS:   "http://secure-proxy:3129",
	}, log)
	require.NoError(t, err)
	proxy := c.http.Transport.(*http.Transport).Proxy
	require.NotNil(t, proxy)

	req := httptest.NewRequest(http.MethodGet, "https://api.example.com/x", nil)
	u, err := proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "secure-proxy:3129", u.Host)

	req = httptest.NewRequest(http.MethodGet, "http://api.example.com/x", nil)
	u, err = proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "proxy:3128", u.Host)
}

func TestNewClient_Defaults(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	c, err := NewClient(Options{URL: "http://api.example.com"}, log)
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, c.opts.Method)
	assert.Equal(t, 1, c.opts.Retries)
}
