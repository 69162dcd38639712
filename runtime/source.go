package runtime

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/errors"
	"github.com/wippyai/wbg-runtime/wat"
)

// WasmContentType is the media type a server should send guest modules with.
const WasmContentType = "application/wasm"

// WAT is module source in WebAssembly text format. Load and Compile accept
// it directly; files ending in .wat are compiled the same way.
type WAT string

// Load compiles input and checks that every import resolves. input is one
// of []byte, WAT, a file path or http(s)/file URL string, *url.URL,
// io.Reader, *http.Response or an already compiled *Module.
func (r *Runtime) Load(ctx context.Context, input any) (*Module, error) {
	mod, err := r.Compile(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := mod.Check(); err != nil {
		_ = mod.Close(ctx)
		return nil, err
	}
	return mod, nil
}

// Compile compiles input without checking imports.
func (r *Runtime) Compile(ctx context.Context, input any) (*Module, error) {
	if m, ok := input.(*Module); ok {
		return m, nil
	}
	name, wasm, err := r.read(ctx, input)
	if err != nil {
		return nil, err
	}
	return r.compile(ctx, name, wasm)
}

func (r *Runtime) read(ctx context.Context, input any) (string, []byte, error) {
	switch v := input.(type) {
	case []byte:
		return "module", v, nil
	case WAT:
		wasm, err := compileWAT(string(v))
		return "module", wasm, err
	case string:
		if u, err := url.Parse(v); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
			return r.readURL(ctx, u)
		}
		return readFile(v)
	case *url.URL:
		return r.readURL(ctx, v)
	case *http.Response:
		return r.readResponse(v)
	case io.Reader:
		wasm, err := io.ReadAll(v)
		if err != nil {
			return "", nil, errors.Load("read module", err)
		}
		return "module", wasm, nil
	case nil:
		return "", nil, errors.InvalidInput(errors.PhaseLoad, "no module input")
	}
	return "", nil, errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf("unsupported module input %T", input))
}

func readFile(path string) (string, []byte, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return "", nil, errors.Load("read "+path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".wat") {
		wasm, err = compileWAT(string(wasm))
	}
	return moduleName(path), wasm, err
}

func compileWAT(src string) ([]byte, error) {
	wasm, err := wat.Compile(src)
	if err != nil {
		return nil, errors.ParseFailed("WAT", err)
	}
	return wasm, nil
}

func (r *Runtime) readURL(ctx context.Context, u *url.URL) (string, []byte, error) {
	switch u.Scheme {
	case "file":
		return readFile(u.Path)
	case "http", "https":
	default:
		return "", nil, errors.InvalidInput(errors.PhaseLoad, "unsupported URL scheme "+u.Scheme)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", nil, errors.Load("request "+u.String(), err)
	}
	client := r.cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", nil, errors.Load("fetch "+u.String(), err)
	}
	return r.readResponse(resp)
}

// readResponse reads a module body. A successful response with the wrong
// Content-Type is compiled anyway after a warning.
func (r *Runtime) readResponse(resp *http.Response) (string, []byte, error) {
	defer resp.Body.Close()

	where := "response"
	if resp.Request != nil && resp.Request.URL != nil {
		where = resp.Request.URL.String()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Path(where).
			Detail("HTTP status %d", resp.StatusCode).
			Build()
	}
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt != WasmContentType {
		r.log.Warn("module is not served as "+WasmContentType+"; compiling the full body",
			zap.String("url", where),
			zap.String("content_type", resp.Header.Get("Content-Type")))
	}
	wasm, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, errors.Load("read "+where, err)
	}
	return moduleName(where), wasm, nil
}

func moduleName(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
