package dom

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/jsvalue"
)

// ContextFactory creates a rendering context for a canvas. attrs is the
// second getContext argument.
type ContextFactory func(c *Canvas, attrs any) (any, error)

// Canvas is an HTMLCanvasElement. The drawing buffer size defaults to
// 300x150.
type Canvas struct {
	Element
	Width  uint32
	Height uint32

	ctxKind string
	ctx     any
}

// GetContext returns the context of the given kind, creating it on first
// use. It returns nil for unknown kinds and when the canvas already has a
// context of another kind.
func (c *Canvas) GetContext(kind string, attrs any) (any, error) {
	if c.ctx != nil {
		if kind == c.ctxKind {
			return c.ctx, nil
		}
		return nil, nil
	}
	if c.doc == nil {
		return nil, nil
	}
	factory := c.doc.contexts[kind]
	if factory == nil {
		return nil, nil
	}
	ctx, err := factory(c, attrs)
	if err != nil || ctx == nil {
		return nil, err
	}
	c.ctx, c.ctxKind = ctx, kind
	return ctx, nil
}

// ClassName implements jsvalue.ClassNamer.
func (c *Canvas) ClassName() string { return "HTMLCanvasElement" }

// InstanceOf implements jsvalue.Instancer.
func (c *Canvas) InstanceOf(class string) bool {
	return class == "HTMLCanvasElement" || c.Element.InstanceOf(class)
}

// GetProperty implements jsvalue.PropertyGetter.
func (c *Canvas) GetProperty(name string) (any, bool) {
	switch name {
	case "width":
		return float64(c.Width), true
	case "height":
		return float64(c.Height), true
	case "getContext":
		return jsvalue.NewFunc("getContext", func(_ context.Context, _ any, args []any) (any, error) {
			ctx, err := c.GetContext(jsvalue.ToString(argAt(args, 0)), argAt(args, 1))
			if err != nil {
				return nil, err
			}
			if ctx == nil {
				return jsvalue.Null{}, nil
			}
			return ctx, nil
		}), true
	}
	return c.Element.GetProperty(name)
}

// SetProperty implements jsvalue.PropertySetter.
func (c *Canvas) SetProperty(name string, v any) error {
	switch name {
	case "width", "height":
		n, err := jsvalue.ToNumber(v)
		if err != nil {
			return err
		}
		if n < 0 {
			n = 0
		}
		if name == "width" {
			c.Width = uint32(n)
		} else {
			c.Height = uint32(n)
		}
		return nil
	}
	return c.Element.SetProperty(name, v)
}

// Image is an HTMLImageElement. Setting Src loads the resource through the
// document's Loader and fires load or error. Pixels are kept encoded; only
// the natural size is decoded.
type Image struct {
	Element
	Src           string
	NaturalWidth  int
	NaturalHeight int
	Data          []byte
	complete      bool
}

// SetSrc starts loading src.
func (img *Image) SetSrc(src string) {
	img.Src = src
	img.complete = false
	doc := img.doc
	if doc == nil || doc.loop == nil {
		return
	}
	release := doc.loop.Hold()
	go func() {
		defer release()
		var data []byte
		var err error
		if doc.Loader == nil {
			err = jsvalue.NewError(jsvalue.NotSupportedError, "no resource loader")
		} else {
			data, err = doc.Loader(context.Background(), src)
		}
		var cfg image.Config
		if err == nil {
			cfg, _, err = image.DecodeConfig(bytes.NewReader(data))
		}
		doc.loop.Post(func() {
			if img.Src != src {
				return
			}
			img.complete = true
			typ := "load"
			if err != nil {
				typ = "error"
				doc.log.Debug("image load failed", zap.String("src", src), zap.Error(err))
			} else {
				img.Data = data
				img.NaturalWidth, img.NaturalHeight = cfg.Width, cfg.Height
			}
			if _, derr := img.Dispatch(context.Background(), img, NewEvent(typ)); derr != nil {
				doc.log.Warn("image event handler failed", zap.String("type", typ), zap.Error(derr))
			}
		})
	}()
}

// Complete reports whether loading finished.
func (img *Image) Complete() bool { return img.complete }

// ClassName implements jsvalue.ClassNamer.
func (img *Image) ClassName() string { return "HTMLImageElement" }

// InstanceOf implements jsvalue.Instancer.
func (img *Image) InstanceOf(class string) bool {
	return class == "HTMLImageElement" || img.Element.InstanceOf(class)
}

// GetProperty implements jsvalue.PropertyGetter.
func (img *Image) GetProperty(name string) (any, bool) {
	switch name {
	case "src":
		return img.Src, true
	case "complete":
		return img.complete, true
	case "width", "naturalWidth":
		return float64(img.NaturalWidth), true
	case "height", "naturalHeight":
		return float64(img.NaturalHeight), true
	}
	return img.Element.GetProperty(name)
}

// SetProperty implements jsvalue.PropertySetter.
func (img *Image) SetProperty(name string, v any) error {
	if name == "src" {
		img.SetSrc(jsvalue.ToString(v))
		return nil
	}
	return img.Element.SetProperty(name, v)
}
