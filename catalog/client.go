package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/joshuapare/arctree/internal/logger"
	"github.com/joshuapare/arctree/internal/metrics"
	"github.com/joshuapare/arctree/pkg/types"
)

const (
	// maxBodyBytes guards against runaway responses.
	maxBodyBytes = 32 << 20

	defaultUserAgent = "arctree/0.1"
)

// ClientOptions configures an HTTP catalog client.
type ClientOptions struct {
	// BaseURL is the catalog API root, e.g. https://archives.example.org/api.
	BaseURL string

	// Timeout bounds each request. Zero selects types.DefaultRequestTimeout.
	Timeout time.Duration

	// RateLimit is the sustained requests per second. Zero disables limiting.
	RateLimit float64

	// Burst is the limiter burst size. Values below 1 are treated as 1.
	Burst int

	// UserAgent is sent on every request.
	UserAgent string

	// HTTPClient overrides the transport (tests).
	HTTPClient *http.Client
}

// Client talks to the catalog over HTTP. It is safe for concurrent use.
type Client struct {
	base      *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	timeout   time.Duration
	group     singleflight.Group
}

var _ Catalog = (*Client)(nil)

// NewClient validates opts and builds a client.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("catalog: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("catalog: parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("catalog: unsupported scheme %q", base.Scheme)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = types.DefaultRequestTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	return &Client{base: base, http: hc, limiter: limiter, userAgent: ua, timeout: timeout}, nil
}

// Root implements Catalog.
func (c *Client) Root(ctx context.Context, resourceID, repositoryID string) (*RootResponse, error) {
	if resourceID == "" {
		return nil, types.NewError(types.ErrKindState, "root: resource id is required", nil)
	}
	var out RootResponse
	if err := c.get(ctx, "root", treePath(repositoryID, resourceID, "root"), nil, &out); err != nil {
		return nil, err
	}
	if out.Root.URI == "" {
		err := types.NewError(types.ErrKindMalformed, "root: response has no root uri", nil)
		return nil, err
	}
	return &out, nil
}

// Children implements Catalog.
func (c *Client) Children(ctx context.Context, resourceID, repositoryID, parentURI string, offset int) (*ChildrenResponse, error) {
	if offset < 0 {
		return nil, types.NewError(types.ErrKindState, fmt.Sprintf("children: negative offset %d", offset), nil)
	}
	q := url.Values{}
	q.Set("parent_uri", parentURI)
	q.Set("offset", strconv.Itoa(offset))

	var out ChildrenResponse
	if err := c.get(ctx, "children", treePath(repositoryID, resourceID, "children"), q, &out); err != nil {
		return nil, err
	}
	// Some catalogs omit the echo fields; the request is authoritative.
	out.ParentURI = parentURI
	out.Offset = offset
	return &out, nil
}

// Search implements Catalog.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("q", req.Query)
	page := req.Page
	if page < 1 {
		page = 1
	}
	q.Set("page", strconv.Itoa(page))
	if req.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(req.PageSize))
	}
	if req.Field != "" {
		q.Set("field", req.Field)
	}
	for _, l := range req.Options.Levels {
		q.Add("level[]", l)
	}
	for _, a := range req.Options.AncestorURIs {
		q.Add("ancestor_uri[]", a)
	}
	for _, f := range req.Options.FilterTerms {
		q.Add("filter_term[]", f)
	}

	p := "/search"
	if req.RepositoryID != "" {
		p = "/repositories/" + url.PathEscape(req.RepositoryID) + "/search"
	}
	if req.Scope == ScopeCollection {
		if req.ResourceID == "" {
			return nil, types.NewError(types.ErrKindState, "search: collection scope without resource", nil)
		}
		q.Set("resource_id", req.ResourceID)
	}

	var out SearchResponse
	if err := c.get(ctx, "search", p, q, &out); err != nil {
		return nil, err
	}
	for i, h := range out.Hits {
		if h.URI == "" {
			return nil, types.NewError(types.ErrKindMalformed, fmt.Sprintf("search: hit %d has no uri", i), nil)
		}
	}
	if out.Page == 0 {
		out.Page = page
	}
	if out.PageSize == 0 {
		out.PageSize = req.PageSize
	}
	return &out, nil
}

// ResolvePath implements Catalog.
func (c *Client) ResolvePath(ctx context.Context, resourceID, repositoryID string, nodeURIs []string) (*PathResponse, error) {
	body, err := json.Marshal(struct {
		NodeURIs []string `json:"node_uris"`
	}{nodeURIs})
	if err != nil {
		return nil, err
	}

	var out PathResponse
	if err := c.post(ctx, "resolve", treePath(repositoryID, resourceID, "resolve"), body, &out); err != nil {
		return nil, err
	}
	for uri, steps := range out.Paths {
		for i, s := range steps {
			if s.NodeURI == "" {
				return nil, types.NewError(types.ErrKindMalformed, fmt.Sprintf("resolve: step %d of %s has no node uri", i, uri), nil)
			}
		}
	}
	return &out, nil
}

func treePath(repositoryID, resourceID, leaf string) string {
	p := "/resources/" + url.PathEscape(resourceID) + "/tree/" + leaf
	if repositoryID != "" {
		p = "/repositories/" + url.PathEscape(repositoryID) + p
	}
	return p
}

// get issues a GET. Identical concurrent GETs share one round trip. The
// shared request is detached from the first caller's context, so one caller
// giving up does not fail the others; each caller stops waiting when its own
// ctx is done.
func (c *Client) get(ctx context.Context, op, path string, q url.Values, out any) error {
	u := c.resolve(path, q)
	key := u.String()

	ch := c.group.DoChan(key, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		req, err := http.NewRequestWithContext(rctx, http.MethodGet, key, nil)
		if err != nil {
			return nil, err
		}
		return c.do(op, req)
	})

	select {
	case <-ctx.Done():
		return types.NewError(types.ErrKindNetwork, op+": request abandoned", ctx.Err())
	case res := <-ch:
		if res.Shared {
			metrics.SharedRequest(op)
		}
		if res.Err != nil {
			return res.Err
		}
		return c.decode(op, res.Val.([]byte), out)
	}
}

func (c *Client) post(ctx context.Context, op, path string, body []byte, out any) error {
	u := c.resolve(path, nil)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	data, err := c.do(op, req)
	if err != nil {
		return err
	}
	return c.decode(op, data, out)
}

func (c *Client) resolve(path string, q url.Values) *url.URL {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return &u
}

// do runs a request and returns the body decoded to UTF-8.
func (c *Client) do(op string, req *http.Request) (body []byte, err error) {
	start := time.Now()
	reqID := uuid.NewString()
	defer func() {
		metrics.ObserveRequest(op, err, time.Since(start))
		if err != nil {
			logger.Debug("catalog request failed", "op", op, "request_id", reqID, "url", req.URL.String(), "error", err)
		}
	}()

	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, types.NewError(types.ErrKindNetwork, op+": rate limiter", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", reqID)

	logger.Debug("catalog request", "op", op, "request_id", reqID, "method", req.Method, "url", req.URL.String())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, types.NewError(types.ErrKindNetwork, op+": request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, types.NewError(types.ErrKindNetwork, op+": read body", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, types.NewError(types.ErrKindNotFound, fmt.Sprintf("%s: %s", op, req.URL.Path), nil)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, types.NewError(types.ErrKindNetwork, fmt.Sprintf("%s: unexpected status %s", op, resp.Status), nil)
	}

	utf8Body, err := toUTF8(resp.Header.Get("Content-Type"), raw)
	if err != nil {
		return nil, types.NewError(types.ErrKindMalformed, op+": decode charset", err)
	}
	return utf8Body, nil
}

func (c *Client) decode(op string, data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return types.NewError(types.ErrKindMalformed, op+": decode response", err)
	}
	return nil
}
