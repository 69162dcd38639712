package fetch

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/eventloop"
	"github.com/wippyai/wbg-runtime/jsvalue"
	"github.com/wippyai/wbg-runtime/promise"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the transport client. The default has no timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBaseURL sets the URL relative requests resolve against.
func WithBaseURL(base *url.URL) Option {
	return func(c *Client) { c.base = base }
}

// WithUserAgent sets the User-Agent sent when the request has none.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithFileRoot serves file: URLs from dir instead of the filesystem root.
func WithFileRoot(dir string) Option {
	return func(c *Client) { c.fileRoot = dir }
}

// WithLogger sets the client logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// Client performs fetches for one guest.
type Client struct {
	http      *http.Client
	base      *url.URL
	userAgent string
	fileRoot  string
	log       *zap.Logger
}

// NewClient creates a client.
func NewClient(opts ...Option) *Client {
	c := &Client{http: &http.Client{}, userAgent: "wbg-runtime"}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = Logger()
	}
	return c
}

// Resolve parses raw relative to the base URL.
func (c *Client) Resolve(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, jsvalue.NewTypeError("Failed to parse URL from " + raw)
	}
	if c.base != nil {
		u = c.base.ResolveReference(u)
	}
	if !u.IsAbs() {
		return nil, jsvalue.NewTypeError("Failed to parse URL from " + raw)
	}
	return u, nil
}

// Request builds the request fetch(input, init) would send. input is a URL
// string or a Request; init overrides the Request's members.
func (c *Client) Request(input, init any) (*Request, error) {
	ri, err := InitFrom(init)
	if err != nil {
		return nil, err
	}
	switch in := input.(type) {
	case *Request:
		if jsvalue.IsNullish(init) {
			return in, nil
		}
		if ri.Method == "" {
			ri.Method = in.Method
		}
		if ri.Headers == nil {
			ri.Headers = in.Headers
		}
		if ri.Body == nil && in.body != nil {
			ri.Body = jsvalue.Uint8ArrayOf(in.body)
		}
		if ri.Signal == nil {
			ri.Signal = in.Signal
		}
		return NewRequest(in.URL, ri)
	case string:
		return NewRequest(in, ri)
	}
	return NewRequest(jsvalue.ToString(input), ri)
}

// Fetch starts a request and returns a promise for its Response. It must be
// called on the loop. The request runs on its own goroutine; aborting the
// request's signal cancels it. Network failures reject with TypeError.
func (c *Client) Fetch(ctx context.Context, loop *eventloop.Loop, input, init any) *promise.Promise {
	req, err := c.Request(input, init)
	if err != nil {
		return promise.RejectedWith(loop, promise.Reason(err))
	}
	return c.Do(ctx, loop, req)
}

// Do sends req.
func (c *Client) Do(ctx context.Context, loop *eventloop.Loop, req *Request) *promise.Promise {
	u, err := c.Resolve(req.URL)
	if err != nil {
		return promise.RejectedWith(loop, err)
	}
	if req.Signal.Aborted() {
		return promise.RejectedWith(loop, req.Signal.Reason())
	}

	var send func(ctx context.Context) (*Response, error)
	switch u.Scheme {
	case "http", "https":
		send = func(ctx context.Context) (*Response, error) { return c.sendHTTP(ctx, loop, req, u) }
	case "file":
		send = func(ctx context.Context) (*Response, error) { return c.sendFile(ctx, loop, req, u) }
	default:
		return promise.RejectedWith(loop, jsvalue.NewTypeError("Failed to fetch: unsupported scheme "+u.Scheme))
	}

	p, res := promise.WithResolvers(loop)
	reqCtx, cancel := context.WithCancel(ctx)
	stop := req.Signal.OnAbort(cancel)
	release := loop.Hold()
	c.log.Debug("fetch", zap.String("method", req.Method), zap.String("url", u.String()))

	go func() {
		resp, err := send(reqCtx)
		loop.Post(func() {
			defer release()
			if err != nil {
				stop()
				cancel()
				if req.Signal.Aborted() {
					res.Reject(req.Signal.Reason())
					return
				}
				c.log.Debug("fetch failed", zap.String("url", u.String()), zap.Error(err))
				res.Reject(networkError(err))
				return
			}
			if resp.body != nil {
				resp.body = &doneCloser{ReadCloser: resp.body, done: func() { stop(); cancel() }}
			} else {
				stop()
				cancel()
			}
			res.Resolve(resp)
		})
	}()
	return p
}

func (c *Client) sendHTTP(ctx context.Context, loop *eventloop.Loop, req *Request, u *url.URL) (*Response, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	hr, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, err
	}
	hr.Header = req.Headers.HTTP()
	if hr.Header.Get("User-Agent") == "" && c.userAgent != "" {
		hr.Header.Set("User-Agent", c.userAgent)
	}
	hresp, err := c.http.Do(hr)
	if err != nil {
		return nil, err
	}
	resp := NewResponse(ctx, loop, hresp.StatusCode, HeadersFromHTTP(hresp.Header), hresp.Body)
	resp.StatusText = http.StatusText(hresp.StatusCode)
	resp.URL = u.String()
	if hresp.Request != nil && hresp.Request.URL != nil {
		resp.URL = hresp.Request.URL.String()
		resp.Redirected = resp.URL != u.String()
	}
	resp.Type = "cors"
	if c.base == nil || sameOrigin(c.base, u) {
		resp.Type = "basic"
	}
	if req.Method == http.MethodHead {
		_ = hresp.Body.Close()
		resp.body = nil
	}
	return resp, nil
}

func (c *Client) sendFile(ctx context.Context, loop *eventloop.Loop, req *Request, u *url.URL) (*Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return nil, jsvalue.NewTypeError("Failed to fetch: file URLs support GET only")
	}
	path := filepath.FromSlash(u.Path)
	if c.fileRoot != "" {
		path = filepath.Join(c.fileRoot, filepath.Clean("/"+u.Path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	headers := NewHeaders()
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		_ = headers.Set("content-type", ct)
	}
	resp := NewResponse(ctx, loop, http.StatusOK, headers, f)
	resp.StatusText = "OK"
	resp.URL = u.String()
	resp.Type = "basic"
	if req.Method == http.MethodHead {
		_ = f.Close()
		resp.body = nil
	}
	return resp, nil
}

func sameOrigin(a, b *url.URL) bool {
	return a.Scheme == b.Scheme && a.Host == b.Host
}

type doneCloser struct {
	io.ReadCloser
	done func()
}

func (d *doneCloser) Close() error {
	err := d.ReadCloser.Close()
	d.done()
	return err
}
