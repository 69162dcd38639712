package fetch

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Blob is immutable binary data with a MIME type.
type Blob struct {
	Type string
	data []byte
}

// NewBlob concatenates parts (strings, byte views, buffers or blobs). opts
// may carry a type.
func NewBlob(parts, opts any) (*Blob, error) {
	b := &Blob{}
	if arr, ok := parts.(*jsvalue.Array); ok {
		for _, p := range arr.Elems {
			chunk, err := partBytes(p)
			if err != nil {
				return nil, err
			}
			b.data = append(b.data, chunk...)
		}
	} else if !jsvalue.IsNullish(parts) {
		return nil, jsvalue.NewTypeError("Failed to construct 'Blob': The provided value cannot be converted to a sequence.")
	}
	if t, ok := jsvalue.GetString(opts, "type"); ok {
		b.Type = strings.ToLower(t)
	}
	return b, nil
}

func partBytes(p any) ([]byte, error) {
	switch v := p.(type) {
	case string:
		return []byte(v), nil
	case *jsvalue.Uint8Array:
		return append([]byte(nil), v.Bytes()...), nil
	case *jsvalue.ArrayBuffer:
		return append([]byte(nil), v.Data...), nil
	case *Blob:
		return v.data, nil
	}
	return []byte(jsvalue.ToString(p)), nil
}

// Size returns the byte length.
func (b *Blob) Size() int { return len(b.data) }

// Bytes returns the contents. Callers must not modify them.
func (b *Blob) Bytes() []byte { return b.data }

// ClassName implements jsvalue.ClassNamer.
func (b *Blob) ClassName() string { return "Blob" }

// GetProperty implements jsvalue.PropertyGetter.
func (b *Blob) GetProperty(name string) (any, bool) {
	switch name {
	case "size":
		return float64(len(b.data)), true
	case "type":
		return b.Type, true
	}
	return nil, false
}

type formEntry struct {
	name     string
	value    string
	blob     *Blob
	filename string
}

// FormData is a list of named string or file entries.
type FormData struct {
	entries []formEntry
}

// NewFormData creates an empty form.
func NewFormData() *FormData { return &FormData{} }

// Append adds a string entry, or a file entry when value is a Blob.
// filename defaults to "blob" for files.
func (f *FormData) Append(name string, value any, filename string) {
	if b, ok := value.(*Blob); ok {
		if filename == "" {
			filename = "blob"
		}
		f.entries = append(f.entries, formEntry{name: name, blob: b, filename: filename})
		return
	}
	f.entries = append(f.entries, formEntry{name: name, value: jsvalue.ToString(value)})
}

// Get returns the first string value for name.
func (f *FormData) Get(name string) (string, bool) {
	for _, e := range f.entries {
		if e.name == name && e.blob == nil {
			return e.value, true
		}
	}
	return "", false
}

// Encode writes the form as multipart/form-data and returns the content
// type with its boundary.
func (f *FormData) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, e := range f.entries {
		if e.blob == nil {
			if err := w.WriteField(e.name, e.value); err != nil {
				return nil, "", err
			}
			continue
		}
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="`+escapeQuotes(e.name)+`"; filename="`+escapeQuotes(e.filename)+`"`)
		ct := e.blob.Type
		if ct == "" {
			ct = "application/octet-stream"
		}
		hdr.Set("Content-Type", ct)
		part, err := w.CreatePart(hdr)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(e.blob.data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }

// ClassName implements jsvalue.ClassNamer.
func (f *FormData) ClassName() string { return "FormData" }

// GetProperty implements jsvalue.PropertyGetter.
func (f *FormData) GetProperty(name string) (any, bool) {
	switch name {
	case "append":
		return jsvalue.NewFunc("append", func(_ context.Context, _ any, args []any) (any, error) {
			var name, filename string
			var value any = jsvalue.Undefined{}
			if len(args) > 0 {
				name = jsvalue.ToString(args[0])
			}
			if len(args) > 1 {
				value = args[1]
			}
			if len(args) > 2 {
				filename = jsvalue.ToString(args[2])
			}
			f.Append(name, value, filename)
			return jsvalue.Undefined{}, nil
		}), true
	case "get":
		return jsvalue.NewFunc("get", func(_ context.Context, _ any, args []any) (any, error) {
			if len(args) > 0 {
				if v, ok := f.Get(jsvalue.ToString(args[0])); ok {
					return v, nil
				}
			}
			return jsvalue.Null{}, nil
		}), true
	}
	return nil, false
}

// extractBody converts a BodyInit value into bytes and a default content
// type.
func extractBody(v any) ([]byte, string, error) {
	switch b := v.(type) {
	case nil, jsvalue.Undefined, jsvalue.Null:
		return nil, "", nil
	case string:
		return []byte(b), "text/plain;charset=UTF-8", nil
	case *jsvalue.Uint8Array:
		return append([]byte(nil), b.Bytes()...), "", nil
	case *jsvalue.ArrayBuffer:
		return append([]byte(nil), b.Data...), "", nil
	case *Blob:
		return b.data, b.Type, nil
	case *FormData:
		return b.Encode()
	}
	return []byte(jsvalue.ToString(v)), "text/plain;charset=UTF-8", nil
}
