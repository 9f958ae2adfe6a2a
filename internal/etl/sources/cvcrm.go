package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"cvetl/internal/etl"
)

// ── CVCRM Source ────────────────────────────────────────────
// Fetches one page of a CVDW resource (reservas, precadastros, visitas)
// per call. Transport failures are retried locally with a linearly
// growing delay; once attempts run out the page is reported as
// unavailable and the caller decides what to do.

// Request parameter names understood by the API.
const (
	ParamPage     = "pagina"
	ParamPageSize = "registros_por_pagina"
)

// Options configures a Client.
type Options struct {
	URL        string
	Method     string // "GET" (query string) or "POST" (JSON body)
	Email      string
	Token      string
	PageSize   int
	Timeout    time.Duration // per attempt
	Retries    int           // total attempts per page
	Backoff    time.Duration // delay before retry n is Backoff*n
	SinceParam string

	ProxyEnabled bool
	ProxyHTTP    string
	ProxyHTTPS   string
}

// Client is a paginated fetcher for one API resource.
type Client struct {
	opts  Options
	http  *http.Client
	log   logrus.FieldLogger
	sleep func(ctx context.Context, d time.Duration) error
}

var _ etl.Fetcher = (*Client)(nil)

// NewClient builds a Client. When the proxy is disabled the proxy
// environment variables are ignored, not inherited.
func NewClient(opts Options, log logrus.FieldLogger) (*Client, error) {
	if opts.Method == "" {
		opts.Method = http.MethodGet
	}
	if opts.Retries < 1 {
		opts.Retries = 1
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	if opts.ProxyEnabled {
		proxy, err := proxyFunc(opts.ProxyHTTP, opts.ProxyHTTPS)
		if err != nil {
			return nil, err
		}
		transport.Proxy = proxy
	}

	return &Client{
		opts:  opts,
		http:  &http.Client{Timeout: opts.Timeout, Transport: transport},
		log:   log,
		sleep: sleepContext,
	}, nil
}

func proxyFunc(httpProxy, httpsProxy string) (func(*http.Request) (*url.URL, error), error) {
	parse := func(raw string) (*url.URL, error) {
		if raw == "" {
			return nil, nil
		}
		u, err := url.Parse(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "parse proxy %q", raw)
		}
		return u, nil
	}
	hp, err := parse(httpProxy)
	if err != nil {
		return nil, err
	}
	hsp, err := parse(httpsProxy)
	if err != nil {
		return nil, err
	}
	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" {
			return hsp, nil
		}
		return hp, nil
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FetchPage fetches one page, retrying transport failures.
func (c *Client) FetchPage(ctx context.Context, req etl.PageRequest) (*etl.Page, error) {
	var lastErr error
	for attempt := 1; attempt <= c.opts.Retries; attempt++ {
		page, err := c.fetchOnce(ctx, req)
		if err == nil {
			return page, nil
		}
		lastErr = err
		c.log.WithError(err).Warnf("API call failed (attempt %d/%d) page=%d", attempt, c.opts.Retries, req.Page)

		if attempt == c.opts.Retries {
			break
		}
		if err := c.sleep(ctx, c.opts.Backoff*time.Duration(attempt)); err != nil {
			lastErr = err
			break
		}
	}
	return nil, errors.Wrapf(etl.ErrPageUnavailable, "page %d: %v", req.Page, lastErr)
}

// params builds the request parameters shared by GET and POST.
func (c *Client) params(req etl.PageRequest) map[string]any {
	p := map[string]any{
		ParamPage:     req.Page,
		ParamPageSize: c.opts.PageSize,
	}
	if req.Since != "" && c.opts.SinceParam != "" {
		p[c.opts.SinceParam] = req.Since
	}
	return p
}

func (c *Client) newRequest(ctx context.Context, req etl.PageRequest) (*http.Request, error) {
	params := c.params(req)

	var (
		httpReq *http.Request
		err     error
	)
	if c.opts.Method == http.MethodPost {
		body, mErr := json.Marshal(params)
		if mErr != nil {
			return nil, errors.Wrap(mErr, "encode body")
		}
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, bytes.NewReader(body))
		if err != nil {
			return nil, errors.Wrap(err, "create request")
		}
		httpReq.Header.Set("Content-Type", "application/json")
	} else {
		u, pErr := url.Parse(c.opts.URL)
		if pErr != nil {
			return nil, errors.Wrap(pErr, "parse url")
		}
		q := u.Query()
		for k, v := range params {
			switch tv := v.(type) {
			case int:
				q.Set(k, strconv.Itoa(tv))
			case string:
				q.Set(k, tv)
			}
		}
		u.RawQuery = q.Encode()
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, errors.Wrap(err, "create request")
		}
	}

	httpReq.Header.Set("email", c.opts.Email)
	httpReq.Header.Set("token", c.opts.Token)
	httpReq.Header.Set("Accept", "application/json")
	return httpReq, nil
}

func (c *Client) fetchOnce(ctx context.Context, req etl.PageRequest) (*etl.Page, error) {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "http request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, errors.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	return decodePage(resp.Body)
}

// decodePage reads {"dados": [...], "total_de_paginas"|"total_pages": n}.
func decodePage(r io.Reader) (*etl.Page, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "parse json")
	}
	if raw == nil {
		return nil, errors.New("parse json: empty response")
	}

	list, _ := raw["dados"].([]any)
	page := &etl.Page{Records: make([]etl.RawRecord, 0, len(list))}
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			page.Records = append(page.Records, etl.RawRecord(m))
		}
	}

	for _, field := range []string{"total_de_paginas", "total_pages"} {
		if n := etl.ParseInt(raw[field]); n.Valid && n.V > 0 {
			page.TotalPages = int(n.V)
			break
		}
	}
	if n := etl.ParseInt(raw[ParamPage]); n.Valid {
		page.CurrentPage = int(n.V)
	}
	return page, nil
}
