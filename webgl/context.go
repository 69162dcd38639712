package webgl

import (
	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/eventloop"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Attributes are the WebGLContextAttributes passed to getContext.
type Attributes struct {
	Alpha                 bool
	Depth                 bool
	Stencil               bool
	Antialias             bool
	PremultipliedAlpha    bool
	PreserveDrawingBuffer bool
}

// DefaultAttributes returns the attributes of getContext("webgl") without a
// dictionary.
func DefaultAttributes() Attributes {
	return Attributes{Alpha: true, Depth: true, Antialias: true, PremultipliedAlpha: true}
}

// AttributesFrom reads a WebGLContextAttributes dictionary.
func AttributesFrom(v any) Attributes {
	a := DefaultAttributes()
	if jsvalue.IsNullish(v) {
		return a
	}
	flag := func(name string, def bool) bool {
		x, err := jsvalue.Get(v, name)
		if err != nil || jsvalue.IsNullish(x) {
			return def
		}
		return jsvalue.Truthy(x)
	}
	a.Alpha = flag("alpha", a.Alpha)
	a.Depth = flag("depth", a.Depth)
	a.Stencil = flag("stencil", a.Stencil)
	a.Antialias = flag("antialias", a.Antialias)
	a.PremultipliedAlpha = flag("premultipliedAlpha", a.PremultipliedAlpha)
	a.PreserveDrawingBuffer = flag("preserveDrawingBuffer", a.PreserveDrawingBuffer)
	return a
}

type stencilFace struct {
	fn, ref, mask     int32
	fail, zfail, pass uint32
	writeMask         uint32
}

type state struct {
	caps          map[uint32]bool
	clearColor    [4]float32
	clearDepth    float32
	clearStencil  int32
	colorMask     [4]bool
	depthMask     bool
	depthFunc     uint32
	cullFace      uint32
	blendEq       [2]uint32
	blendFunc     [4]uint32
	stencil       [2]stencilFace
	viewport      [4]int32
	lineWidth     float32
	activeTexture uint32
	unpack        map[uint32]int32
}

func defaultState(w, h int32) state {
	face := stencilFace{fn: ALWAYS, mask: -1, fail: KEEP, zfail: KEEP, pass: KEEP, writeMask: 0xFFFFFFFF}
	return state{
		caps:       map[uint32]bool{DITHER: true},
		colorMask:  [4]bool{true, true, true, true},
		clearDepth: 1,
		depthMask:  true,
		depthFunc:  LESS,
		cullFace:   BACK,
		blendEq:    [2]uint32{FUNC_ADD, FUNC_ADD},
		blendFunc:  [4]uint32{ONE, ZERO, ONE, ZERO},
		stencil:    [2]stencilFace{face, face},
		viewport:   [4]int32{0, 0, w, h},
		lineWidth:  1,
		unpack: map[uint32]int32{
			UNPACK_ALIGNMENT:                   4,
			PACK_ALIGNMENT:                     4,
			UNPACK_FLIP_Y_WEBGL:                0,
			UNPACK_PREMULTIPLY_ALPHA_WEBGL:     0,
			UNPACK_COLORSPACE_CONVERSION_WEBGL: BROWSER_DEFAULT_WEBGL,
		},
	}
}

type vertexAttrib struct {
	enabled    bool
	buffer     *Buffer
	size       int32
	typ        uint32
	normalized bool
	stride     int32
	offset     int64
	divisor    uint32
}

// Context is a WebGLRenderingContext.
type Context struct {
	Canvas     *dom.Canvas
	Attributes Attributes

	loop   *eventloop.Loop
	log    *zap.Logger
	nextID uint32
	errors []uint32

	st           state
	arrayBuffer  *Buffer
	elementBuf   *Buffer
	framebuffer  *Framebuffer
	renderbuffer *Renderbuffer
	textures     [MaxTextureUnits]struct{ tex2D, cube *Texture }
	program      *Program
	attribs      [MaxVertexAttribs]vertexAttrib
	angle        *ANGLEInstancedArrays

	stats Stats
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the context logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Context) { c.log = log }
}

// NewContext creates a context drawing to canvas. loop drives frame
// accounting and may be nil.
func NewContext(canvas *dom.Canvas, loop *eventloop.Loop, attrs Attributes, opts ...Option) *Context {
	var w, h int32 = 300, 150
	if canvas != nil {
		w, h = int32(canvas.Width), int32(canvas.Height)
	}
	c := &Context{Canvas: canvas, Attributes: attrs, loop: loop, st: defaultState(w, h)}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = Logger()
	}
	return c
}

// Factory returns a dom.ContextFactory producing WebGL contexts, for
// Document.RegisterContext("webgl", ...).
func Factory(loop *eventloop.Loop, opts ...Option) dom.ContextFactory {
	return func(canvas *dom.Canvas, attrs any) (any, error) {
		return NewContext(canvas, loop, AttributesFrom(attrs), opts...), nil
	}
}

// setError records code unless it is already pending.
func (c *Context) setError(code uint32, fn, msg string) {
	c.log.Debug("webgl error", zap.String("func", fn), zap.Uint32("code", code), zap.String("msg", msg))
	for _, e := range c.errors {
		if e == code {
			return
		}
	}
	c.errors = append(c.errors, code)
}

// GetError returns and clears the oldest pending error.
func (c *Context) GetError() uint32 {
	if len(c.errors) == 0 {
		return NO_ERROR
	}
	e := c.errors[0]
	c.errors = c.errors[1:]
	return e
}

// DrawingBufferSize returns the canvas size.
func (c *Context) DrawingBufferSize() (int, int) {
	if c.Canvas == nil {
		return 300, 150
	}
	return int(c.Canvas.Width), int(c.Canvas.Height)
}

func (c *Context) newObject() object {
	c.nextID++
	return object{ctx: c, id: c.nextID}
}

// valid reports whether o may be used by fn. A nil object is valid when
// nullOK is set.
func valid[P interface {
	*T
	glObject
}, T any](c *Context, fn string, o P, nullOK bool) bool {
	if o == nil {
		if !nullOK {
			c.setError(INVALID_VALUE, fn, "null object")
		}
		return nullOK
	}
	b := o.base()
	if b.ctx != c {
		c.setError(INVALID_OPERATION, fn, "object does not belong to this context")
		return false
	}
	if b.deleted {
		c.setError(INVALID_OPERATION, fn, "object deleted")
		return false
	}
	return true
}

var capabilities = map[uint32]bool{
	BLEND: true, CULL_FACE: true, DEPTH_TEST: true, DITHER: true, POLYGON_OFFSET_FILL: true,
	SAMPLE_ALPHA_TO_COVERAGE: true, SAMPLE_COVERAGE: true, SCISSOR_TEST: true, STENCIL_TEST: true,
}

// Enable turns a capability on.
func (c *Context) Enable(capability uint32) { c.setCap("enable", capability, true) }

// Disable turns a capability off.
func (c *Context) Disable(capability uint32) { c.setCap("disable", capability, false) }

// IsEnabled reports a capability.
func (c *Context) IsEnabled(capability uint32) bool {
	if !capabilities[capability] {
		c.setError(INVALID_ENUM, "isEnabled", "bad capability")
		return false
	}
	return c.st.caps[capability]
}

func (c *Context) setCap(fn string, capability uint32, on bool) {
	if !capabilities[capability] {
		c.setError(INVALID_ENUM, fn, "bad capability")
		return
	}
	c.st.caps[capability] = on
}

// ClearColor sets the color clear value.
func (c *Context) ClearColor(r, g, b, a float32) {
	c.st.clearColor = [4]float32{clamp01(r), clamp01(g), clamp01(b), clamp01(a)}
}

// ClearDepth sets the depth clear value.
func (c *Context) ClearDepth(d float32) { c.st.clearDepth = clamp01(d) }

// ClearStencil sets the stencil clear value.
func (c *Context) ClearStencil(s int32) { c.st.clearStencil = s }

func clamp01(f float32) float32 { return min(max(f, 0), 1) }

// Clear validates mask against the bound framebuffer and counts the call.
func (c *Context) Clear(mask uint32) {
	if mask&^(COLOR_BUFFER_BIT|DEPTH_BUFFER_BIT|STENCIL_BUFFER_BIT) != 0 {
		c.setError(INVALID_VALUE, "clear", "bad mask")
		return
	}
	if c.CheckFramebufferStatus(FRAMEBUFFER) != FRAMEBUFFER_COMPLETE {
		c.setError(INVALID_FRAMEBUFFER_OPERATION, "clear", "framebuffer incomplete")
		return
	}
	c.frame().Clears++
}

// ColorMask sets which channels are written.
func (c *Context) ColorMask(r, g, b, a bool) { c.st.colorMask = [4]bool{r, g, b, a} }

// DepthMask enables depth writes.
func (c *Context) DepthMask(on bool) { c.st.depthMask = on }

func validCompare(f uint32) bool { return f >= NEVER && f <= ALWAYS }

// DepthFunc sets the depth comparison.
func (c *Context) DepthFunc(f uint32) {
	if !validCompare(f) {
		c.setError(INVALID_ENUM, "depthFunc", "bad func")
		return
	}
	c.st.depthFunc = f
}

// CullFace selects culled faces.
func (c *Context) CullFace(mode uint32) {
	if mode != FRONT && mode != BACK && mode != FRONT_AND_BACK {
		c.setError(INVALID_ENUM, "cullFace", "bad mode")
		return
	}
	c.st.cullFace = mode
}

func validBlendEquation(m uint32) bool {
	return m == FUNC_ADD || m == FUNC_SUBTRACT || m == FUNC_REVERSE_SUBTRACT
}

// BlendEquationSeparate sets the RGB and alpha blend equations.
func (c *Context) BlendEquationSeparate(rgb, alpha uint32) {
	if !validBlendEquation(rgb) || !validBlendEquation(alpha) {
		c.setError(INVALID_ENUM, "blendEquationSeparate", "bad mode")
		return
	}
	c.st.blendEq = [2]uint32{rgb, alpha}
}

func validBlendFactor(f uint32) bool {
	switch f {
	case ZERO, ONE, SRC_COLOR, ONE_MINUS_SRC_COLOR, SRC_ALPHA, ONE_MINUS_SRC_ALPHA,
		DST_ALPHA, ONE_MINUS_DST_ALPHA, DST_COLOR, ONE_MINUS_DST_COLOR, SRC_ALPHA_SATURATE,
		CONSTANT_COLOR, ONE_MINUS_CONSTANT_COLOR, CONSTANT_ALPHA, ONE_MINUS_CONSTANT_ALPHA:
		return true
	}
	return false
}

func constantColor(f uint32) bool { return f == CONSTANT_COLOR || f == ONE_MINUS_CONSTANT_COLOR }

func constantAlpha(f uint32) bool { return f == CONSTANT_ALPHA || f == ONE_MINUS_CONSTANT_ALPHA }

// BlendFuncSeparate sets the blend factors. WebGL forbids mixing constant
// color and constant alpha factors.
func (c *Context) BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha uint32) {
	for _, f := range []uint32{srcRGB, dstRGB, srcAlpha, dstAlpha} {
		if !validBlendFactor(f) {
			c.setError(INVALID_ENUM, "blendFuncSeparate", "bad factor")
			return
		}
	}
	if dstRGB == SRC_ALPHA_SATURATE || dstAlpha == SRC_ALPHA_SATURATE {
		c.setError(INVALID_ENUM, "blendFuncSeparate", "SRC_ALPHA_SATURATE as destination")
		return
	}
	if constantColor(srcRGB) && constantAlpha(dstRGB) || constantAlpha(srcRGB) && constantColor(dstRGB) {
		c.setError(INVALID_OPERATION, "blendFuncSeparate", "constant color and constant alpha together")
		return
	}
	c.st.blendFunc = [4]uint32{srcRGB, dstRGB, srcAlpha, dstAlpha}
}

func faces(face uint32) []int {
	switch face {
	case FRONT:
		return []int{0}
	case BACK:
		return []int{1}
	case FRONT_AND_BACK:
		return []int{0, 1}
	}
	return nil
}

// StencilFuncSeparate sets the stencil test for face.
func (c *Context) StencilFuncSeparate(face, fn uint32, ref int32, mask uint32) {
	fs := faces(face)
	if fs == nil || !validCompare(fn) {
		c.setError(INVALID_ENUM, "stencilFuncSeparate", "bad face or func")
		return
	}
	for _, i := range fs {
		c.st.stencil[i].fn, c.st.stencil[i].ref, c.st.stencil[i].mask = int32(fn), ref, int32(mask)
	}
}

func validStencilOp(op uint32) bool {
	switch op {
	case ZERO, KEEP, REPLACE, INCR, DECR, INVERT, INCR_WRAP, DECR_WRAP:
		return true
	}
	return false
}

// StencilOpSeparate sets the stencil actions for face.
func (c *Context) StencilOpSeparate(face, fail, zfail, zpass uint32) {
	fs := faces(face)
	if fs == nil || !validStencilOp(fail) || !validStencilOp(zfail) || !validStencilOp(zpass) {
		c.setError(INVALID_ENUM, "stencilOpSeparate", "bad face or op")
		return
	}
	for _, i := range fs {
		c.st.stencil[i].fail, c.st.stencil[i].zfail, c.st.stencil[i].pass = fail, zfail, zpass
	}
}

// Viewport sets the viewport.
func (c *Context) Viewport(x, y, w, h int32) {
	if w < 0 || h < 0 {
		c.setError(INVALID_VALUE, "viewport", "negative size")
		return
	}
	c.st.viewport = [4]int32{x, y, min(w, MaxViewportDimension), min(h, MaxViewportDimension)}
}

// LineWidth sets the line width.
func (c *Context) LineWidth(w float32) {
	if w <= 0 || w != w {
		c.setError(INVALID_VALUE, "lineWidth", "width must be positive")
		return
	}
	c.st.lineWidth = w
}

// PixelStorei sets an unpack parameter.
func (c *Context) PixelStorei(pname uint32, v int32) {
	switch pname {
	case UNPACK_ALIGNMENT, PACK_ALIGNMENT:
		if v != 1 && v != 2 && v != 4 && v != 8 {
			c.setError(INVALID_VALUE, "pixelStorei", "bad alignment")
			return
		}
	case UNPACK_FLIP_Y_WEBGL, UNPACK_PREMULTIPLY_ALPHA_WEBGL:
		if v != 0 {
			v = 1
		}
	case UNPACK_COLORSPACE_CONVERSION_WEBGL:
		if v != BROWSER_DEFAULT_WEBGL && v != 0 {
			c.setError(INVALID_VALUE, "pixelStorei", "bad colorspace conversion")
			return
		}
	default:
		c.setError(INVALID_ENUM, "pixelStorei", "bad pname")
		return
	}
	c.st.unpack[pname] = v
}

// GetParameter returns pipeline state as a JS value. Unknown names set
// INVALID_ENUM and return null.
func (c *Context) GetParameter(pname uint32) any {
	i32 := func(vs ...int32) *jsvalue.Int32Array {
		a := jsvalue.NewInt32Array(len(vs))
		for i, v := range vs {
			a.SetAt(i, v)
		}
		return a
	}
	obj := func(o glObject, isNil bool) any {
		if isNil {
			return jsvalue.Null{}
		}
		return o
	}
	st := &c.st
	switch pname {
	case VENDOR:
		return "wbg-runtime"
	case RENDERER:
		return "wbg-runtime headless"
	case VERSION:
		return "WebGL 1.0"
	case SHADING_LANGUAGE_VERSION:
		return "WebGL GLSL ES 1.0"
	case MAX_TEXTURE_SIZE, MAX_CUBE_MAP_TEXTURE_SIZE:
		return float64(MaxTextureSize)
	case MAX_RENDERBUFFER_SIZE:
		return float64(MaxRenderbufferSize)
	case MAX_VERTEX_ATTRIBS:
		return float64(MaxVertexAttribs)
	case MAX_TEXTURE_IMAGE_UNITS:
		return float64(MaxTextureUnits)
	case MAX_COMBINED_TEXTURE_IMAGE_UNITS:
		return float64(MaxCombinedTextures)
	case MAX_VERTEX_TEXTURE_IMAGE_UNITS:
		return float64(MaxVertexTextures)
	case MAX_VERTEX_UNIFORM_VECTORS:
		return float64(MaxVertexUniforms)
	case MAX_FRAGMENT_UNIFORM_VECTORS:
		return float64(MaxFragmentUniforms)
	case MAX_VARYING_VECTORS:
		return float64(MaxVaryingVectors)
	case SUBPIXEL_BITS:
		return float64(4)
	case MAX_VIEWPORT_DIMS:
		return i32(MaxViewportDimension, MaxViewportDimension)
	case VIEWPORT:
		return i32(st.viewport[:]...)
	case ALIASED_LINE_WIDTH_RANGE, ALIASED_POINT_SIZE_RANGE:
		return jsvalue.Float32ArrayOf([]float32{1, 1})
	case COLOR_CLEAR_VALUE:
		return jsvalue.Float32ArrayOf(st.clearColor[:])
	case DEPTH_CLEAR_VALUE:
		return float64(st.clearDepth)
	case STENCIL_CLEAR_VALUE:
		return float64(st.clearStencil)
	case COLOR_WRITEMASK:
		return jsvalue.NewArray(st.colorMask[0], st.colorMask[1], st.colorMask[2], st.colorMask[3])
	case DEPTH_WRITEMASK:
		return st.depthMask
	case DEPTH_FUNC:
		return float64(st.depthFunc)
	case DEPTH_RANGE:
		return jsvalue.Float32ArrayOf([]float32{0, 1})
	case CULL_FACE_MODE:
		return float64(st.cullFace)
	case LINE_WIDTH:
		return float64(st.lineWidth)
	case BLEND_EQUATION_RGB:
		return float64(st.blendEq[0])
	case BLEND_EQUATION_ALPHA:
		return float64(st.blendEq[1])
	case BLEND_SRC_RGB:
		return float64(st.blendFunc[0])
	case BLEND_DST_RGB:
		return float64(st.blendFunc[1])
	case BLEND_SRC_ALPHA:
		return float64(st.blendFunc[2])
	case BLEND_DST_ALPHA:
		return float64(st.blendFunc[3])
	case STENCIL_FUNC:
		return float64(st.stencil[0].fn)
	case STENCIL_REF:
		return float64(st.stencil[0].ref)
	case STENCIL_VALUE_MASK:
		return float64(uint32(st.stencil[0].mask))
	case STENCIL_FAIL:
		return float64(st.stencil[0].fail)
	case STENCIL_PASS_DEPTH_FAIL:
		return float64(st.stencil[0].zfail)
	case STENCIL_PASS_DEPTH_PASS:
		return float64(st.stencil[0].pass)
	case STENCIL_BACK_FUNC:
		return float64(st.stencil[1].fn)
	case STENCIL_BACK_REF:
		return float64(st.stencil[1].ref)
	case STENCIL_BACK_VALUE_MASK:
		return float64(uint32(st.stencil[1].mask))
	case STENCIL_BACK_FAIL:
		return float64(st.stencil[1].fail)
	case STENCIL_BACK_PASS_DEPTH_FAIL:
		return float64(st.stencil[1].zfail)
	case STENCIL_BACK_PASS_DEPTH_PASS:
		return float64(st.stencil[1].pass)
	case STENCIL_WRITEMASK:
		return float64(st.stencil[0].writeMask)
	case ACTIVE_TEXTURE:
		return float64(TEXTURE0 + st.activeTexture)
	case UNPACK_ALIGNMENT, PACK_ALIGNMENT, UNPACK_COLORSPACE_CONVERSION_WEBGL:
		return float64(st.unpack[pname])
	case UNPACK_FLIP_Y_WEBGL, UNPACK_PREMULTIPLY_ALPHA_WEBGL:
		return st.unpack[pname] != 0
	case CURRENT_PROGRAM:
		return obj(c.program, c.program == nil)
	case ARRAY_BUFFER_BINDING:
		return obj(c.arrayBuffer, c.arrayBuffer == nil)
	case ELEMENT_ARRAY_BUFFER_BINDING:
		return obj(c.elementBuf, c.elementBuf == nil)
	case FRAMEBUFFER_BINDING:
		return obj(c.framebuffer, c.framebuffer == nil)
	case RENDERBUFFER_BINDING:
		return obj(c.renderbuffer, c.renderbuffer == nil)
	case TEXTURE_BINDING_2D:
		t := c.textures[st.activeTexture].tex2D
		return obj(t, t == nil)
	case TEXTURE_BINDING_CUBE_MAP:
		t := c.textures[st.activeTexture].cube
		return obj(t, t == nil)
	}
	if capabilities[pname] {
		return st.caps[pname]
	}
	c.setError(INVALID_ENUM, "getParameter", "bad pname")
	return jsvalue.Null{}
}

// ClassName implements jsvalue.ClassNamer.
func (c *Context) ClassName() string { return "WebGLRenderingContext" }

// GetProperty implements jsvalue.PropertyGetter.
func (c *Context) GetProperty(name string) (any, bool) {
	switch name {
	case "canvas":
		if c.Canvas == nil {
			return jsvalue.Null{}, true
		}
		return c.Canvas, true
	case "drawingBufferWidth":
		w, _ := c.DrawingBufferSize()
		return float64(w), true
	case "drawingBufferHeight":
		_, h := c.DrawingBufferSize()
		return float64(h), true
	}
	return nil, false
}
