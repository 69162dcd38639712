package fetch

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/wippyai/wbg-runtime/eventloop"
	"github.com/wippyai/wbg-runtime/jsvalue"
	"github.com/wippyai/wbg-runtime/promise"
	"github.com/wippyai/wbg-runtime/stream"
)

// Response is the result of a fetch. The body can be consumed once, either
// as a stream or through arrayBuffer()/text().
type Response struct {
	Status     int
	StatusText string
	URL        string
	Type       string
	Redirected bool
	Headers    *Headers

	ctx    context.Context
	loop   *eventloop.Loop
	body   io.ReadCloser
	stream *stream.ReadableStream
	used   bool
}

// NewResponse creates a response. body may be nil.
func NewResponse(ctx context.Context, loop *eventloop.Loop, status int, headers *Headers, body io.ReadCloser) *Response {
	if headers == nil {
		headers = NewHeaders()
	}
	return &Response{
		Status:  status,
		Type:    "default",
		Headers: headers,
		ctx:     ctx,
		loop:    loop,
		body:    body,
	}
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// BodyUsed reports whether the body was consumed.
func (r *Response) BodyUsed() bool { return r.used || (r.stream != nil && r.stream.Locked()) }

// Body returns the body stream, or nil for an empty body.
func (r *Response) Body() *stream.ReadableStream {
	if r.body == nil {
		return nil
	}
	if r.stream == nil {
		r.stream = stream.FromReader(r.ctx, r.loop, r.body, 0)
	}
	return r.stream
}

// ArrayBuffer reads the whole body.
func (r *Response) ArrayBuffer() *promise.Promise {
	return r.consume(func(b []byte) any { return &jsvalue.ArrayBuffer{Data: b} })
}

// Text reads the whole body as UTF-8, replacing invalid sequences.
func (r *Response) Text() *promise.Promise {
	return r.consume(func(b []byte) any { return strings.ToValidUTF8(string(b), "�") })
}

func (r *Response) consume(convert func([]byte) any) *promise.Promise {
	if r.BodyUsed() || r.stream != nil {
		return promise.RejectedWith(r.loop, jsvalue.NewTypeError("Failed to execute on 'Response': body stream already read"))
	}
	r.used = true
	if r.body == nil {
		return promise.Resolved(r.loop, convert(nil))
	}
	p, res := promise.WithResolvers(r.loop)
	body := r.body
	release := r.loop.Hold()
	go func() {
		data, err := io.ReadAll(body)
		_ = body.Close()
		r.loop.Post(func() {
			defer release()
			if err != nil {
				res.Reject(networkError(err))
				return
			}
			res.Resolve(convert(data))
		})
	}()
	return p
}

func networkError(err error) any {
	if errors.Is(err, context.Canceled) {
		return jsvalue.NewError(jsvalue.AbortError, "The user aborted a request.")
	}
	e := jsvalue.NewTypeError("Failed to fetch")
	e.Cause = err
	return e
}

// ClassName implements jsvalue.ClassNamer.
func (r *Response) ClassName() string { return "Response" }

// GetProperty implements jsvalue.PropertyGetter.
func (r *Response) GetProperty(name string) (any, bool) {
	switch name {
	case "status":
		return float64(r.Status), true
	case "statusText":
		return r.StatusText, true
	case "ok":
		return r.OK(), true
	case "url":
		return r.URL, true
	case "type":
		return r.Type, true
	case "redirected":
		return r.Redirected, true
	case "headers":
		return r.Headers, true
	case "bodyUsed":
		return r.BodyUsed(), true
	case "body":
		if s := r.Body(); s != nil {
			return s, true
		}
		return jsvalue.Null{}, true
	case "arrayBuffer":
		return jsvalue.NewFunc("arrayBuffer", func(context.Context, any, []any) (any, error) {
			return r.ArrayBuffer(), nil
		}), true
	case "text":
		return jsvalue.NewFunc("text", func(context.Context, any, []any) (any, error) {
			return r.Text(), nil
		}), true
	}
	return nil, false
}
