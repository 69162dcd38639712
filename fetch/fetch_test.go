package fetch

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wbg-runtime/eventloop"
	"github.com/wippyai/wbg-runtime/jsvalue"
	"github.com/wippyai/wbg-runtime/promise"
)

// settle runs start on a fresh loop and returns the fulfilled value or the
// rejection reason.
func settle(t *testing.T, start func(loop *eventloop.Loop) *promise.Promise) (value, reason any) {
	t.Helper()
	loop := eventloop.New()
	loop.Post(func() {
		start(loop).Then(func(v any) (any, error) {
			value = v
			return nil, nil
		}, func(r any) (any, error) {
			reason = r
			return nil, nil
		})
	})
	require.NoError(t, loop.Run(context.Background()))
	return value, reason
}

func TestHeaders(t *testing.T) {
	h := NewHeaders()
	require.NoError(t, h.Append("Accept", "text/plain"))
	require.NoError(t, h.Append("accept", "application/json"))
	v, ok := h.Get("ACCEPT")
	assert.True(t, ok)
	assert.Equal(t, "text/plain, application/json", v)

	require.NoError(t, h.Set("Accept", "*/*"))
	v, _ = h.Get("accept")
	assert.Equal(t, "*/*", v)

	require.NoError(t, h.Delete("accept"))
	assert.False(t, h.Has("accept"))

	err := h.Append("bad name", "x")
	assert.Equal(t, "TypeError", err.(*jsvalue.Error).Name)

	get, _ := jsvalue.Get(h, "get")
	missing, err := jsvalue.Call(context.Background(), get, h, "x-missing")
	require.NoError(t, err)
	assert.Equal(t, jsvalue.Null{}, missing)
}

func TestNewRequest_Init(t *testing.T) {
	headers := NewHeaders()
	require.NoError(t, headers.Set("X-Token", "abc"))
	init := jsvalue.ObjectOf(
		"method", "post",
		"mode", "cors",
		"credentials", "include",
		"headers", headers,
		"body", "hello",
	)
	ri, err := InitFrom(init)
	require.NoError(t, err)
	req, err := NewRequest("/api/scores", ri)
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "include", req.Credentials)
	assert.Equal(t, []byte("hello"), req.Body())
	ct, _ := req.Headers.Get("content-type")
	assert.Equal(t, "text/plain;charset=UTF-8", ct)

	_, err = NewRequest("/x", &RequestInit{Body: "data"})
	assert.Error(t, err, "GET with body")
	_, err = NewRequest("/x", &RequestInit{Method: "TRACE"})
	assert.Error(t, err)
}

func TestFormDataAndBlob(t *testing.T) {
	blob, err := NewBlob(jsvalue.NewArray(jsvalue.Uint8ArrayOf([]byte("PNG")), "!"), jsvalue.ObjectOf("type", "Image/PNG"))
	require.NoError(t, err)
	assert.Equal(t, 4, blob.Size())
	assert.Equal(t, "image/png", blob.Type)

	form := NewFormData()
	form.Append("level", "tutorial", "")
	form.Append("file", blob, "shot.png")
	body, ct, err := form.Encode()
	require.NoError(t, err)

	_, params, err := mime.ParseMediaType(ct)
	require.NoError(t, err)
	mr := multipart.NewReader(strings.NewReader(string(body)), params["boundary"])
	part, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "level", part.FormName())
	part, err = mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "shot.png", part.FileName())
	data, _ := io.ReadAll(part)
	assert.Equal(t, "PNG!", string(data))
}

func TestClient_FetchText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc", r.Header.Get("X-Token"))
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, "level data")
	}))
	defer srv.Close()
	base, _ := url.Parse(srv.URL)
	client := NewClient(WithBaseURL(base))

	var resp *Response
	text, reason := settle(t, func(loop *eventloop.Loop) *promise.Promise {
		init := jsvalue.ObjectOf("headers", jsvalue.ObjectOf("X-Token", "abc"))
		return client.Fetch(context.Background(), loop, "/levels/1", init).Then(func(v any) (any, error) {
			resp = v.(*Response)
			return resp.Text(), nil
		}, nil)
	})
	require.Nil(t, reason)
	assert.Equal(t, "level data", text)
	assert.Equal(t, 201, resp.Status)
	assert.True(t, resp.OK())
	assert.Equal(t, "basic", resp.Type)
	assert.Equal(t, srv.URL+"/levels/1", resp.URL)
	assert.True(t, resp.BodyUsed())

	_, reason = settle(t, func(loop *eventloop.Loop) *promise.Promise { return resp.ArrayBuffer() })
	assert.Equal(t, "TypeError", reason.(*jsvalue.Error).Name, "body is single use")
}

func TestClient_FetchBodyStream(t *testing.T) {
	payload := strings.Repeat("x", 3*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, payload)
	}))
	defer srv.Close()
	client := NewClient()

	var got []byte
	_, reason := settle(t, func(loop *eventloop.Loop) *promise.Promise {
		return client.Fetch(context.Background(), loop, srv.URL, nil).Then(func(v any) (any, error) {
			reader, err := v.(*Response).Body().GetReader()
			if err != nil {
				return nil, err
			}
			var pump func(any) (any, error)
			pump = func(res any) (any, error) {
				if done, _ := jsvalue.Get(res, "done"); done == true {
					return nil, nil
				}
				chunk, _ := jsvalue.Get(res, "value")
				got = append(got, chunk.(*jsvalue.Uint8Array).Bytes()...)
				return reader.Read().Then(pump, nil), nil
			}
			return reader.Read().Then(pump, nil), nil
		}, nil)
	})
	require.Nil(t, reason)
	assert.Equal(t, payload, string(got))
}

func TestClient_Abort(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)
	client := NewClient()

	ctrl := NewAbortController()
	aborted := 0
	ctrl.Signal().SetHandler("abort", jsvalue.NewFunc("onabort", func(context.Context, any, []any) (any, error) {
		aborted++
		return jsvalue.Undefined{}, nil
	}))

	_, reason := settle(t, func(loop *eventloop.Loop) *promise.Promise {
		p := client.Fetch(context.Background(), loop, srv.URL, jsvalue.ObjectOf("signal", ctrl.Signal()))
		loop.Post(func() { _ = ctrl.Abort(context.Background(), nil) })
		return p
	})
	require.NotNil(t, reason)
	assert.Equal(t, jsvalue.AbortError, reason.(*jsvalue.Error).Name)
	assert.Equal(t, 1, aborted)

	_, reason = settle(t, func(loop *eventloop.Loop) *promise.Promise {
		return client.Fetch(context.Background(), loop, srv.URL, jsvalue.ObjectOf("signal", ctrl.Signal()))
	})
	assert.Equal(t, jsvalue.AbortError, reason.(*jsvalue.Error).Name, "already aborted signals reject immediately")
}

func TestClient_FileAndErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "game.json"), []byte(`{"ok":true}`), 0o644))
	client := NewClient(WithFileRoot(dir))

	text, reason := settle(t, func(loop *eventloop.Loop) *promise.Promise {
		return client.Fetch(context.Background(), loop, "file:///game.json", nil).Then(func(v any) (any, error) {
			resp := v.(*Response)
			ct, _ := resp.Headers.Get("content-type")
			assert.Equal(t, "application/json", ct)
			return resp.Text(), nil
		}, nil)
	})
	require.Nil(t, reason)
	assert.Equal(t, `{"ok":true}`, text)

	_, reason = settle(t, func(loop *eventloop.Loop) *promise.Promise {
		return client.Fetch(context.Background(), loop, "file:///missing.bin", nil)
	})
	assert.Equal(t, "TypeError", reason.(*jsvalue.Error).Name)

	_, reason = settle(t, func(loop *eventloop.Loop) *promise.Promise {
		return client.Fetch(context.Background(), loop, "relative/without/base", nil)
	})
	assert.Equal(t, "TypeError", reason.(*jsvalue.Error).Name)
}
