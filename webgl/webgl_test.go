package webgl

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/eventloop"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

const vertexSrc = `
attribute vec3 a_pos;
attribute vec2 a_uv;
attribute vec4 a_offset; // per instance
uniform mat4 u_mvp;
varying vec2 v_uv;

void main() {
	v_uv = a_uv;
	gl_Position = u_mvp * vec4(a_pos + a_offset.xyz, 1.0);
}
`

const fragmentSrc = `
precision mediump float;
/* texture and two tints */
uniform sampler2D u_tex;
uniform vec4 u_tint[2];
uniform bool u_flag;
varying vec2 v_uv;

void main(void)
{
	gl_FragColor = texture2D(u_tex, v_uv) * u_tint[0] * u_tint[1];
}
`

func newContext(t *testing.T) *Context {
	t.Helper()
	return NewContext(&dom.Canvas{Width: 640, Height: 480}, nil, DefaultAttributes())
}

func compile(t *testing.T, c *Context, typ uint32, src string) *Shader {
	t.Helper()
	s := c.CreateShader(typ)
	require.NotNil(t, s)
	c.ShaderSource(s, src)
	c.CompileShader(s)
	return s
}

func linkedProgram(t *testing.T, c *Context) *Program {
	t.Helper()
	p := c.CreateProgram()
	c.AttachShader(p, compile(t, c, VERTEX_SHADER, vertexSrc))
	c.AttachShader(p, compile(t, c, FRAGMENT_SHADER, fragmentSrc))
	c.BindAttribLocation(p, 3, "a_uv")
	c.LinkProgram(p)
	require.True(t, p.Linked(), p.InfoLog())
	require.Equal(t, uint32(NO_ERROR), c.GetError())
	return p
}

func floats(vs ...float32) []byte {
	out := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

func TestErrorQueue(t *testing.T) {
	c := newContext(t)
	assert.Equal(t, uint32(NO_ERROR), c.GetError())

	c.Enable(0x1234)
	c.Enable(0x1234)
	c.LineWidth(-1)
	assert.Equal(t, uint32(INVALID_ENUM), c.GetError(), "duplicates collapse")
	assert.Equal(t, uint32(INVALID_VALUE), c.GetError())
	assert.Equal(t, uint32(NO_ERROR), c.GetError())
}

func TestObjectLifecycle(t *testing.T) {
	c := newContext(t)
	other := newContext(t)

	b := c.CreateBuffer()
	c.BindBuffer(ARRAY_BUFFER, b)
	assert.Same(t, b, c.GetParameter(ARRAY_BUFFER_BINDING))
	c.BindBuffer(ELEMENT_ARRAY_BUFFER, b)
	assert.Equal(t, uint32(INVALID_OPERATION), c.GetError(), "target is fixed at first bind")

	c.DeleteBuffer(b)
	assert.True(t, b.Deleted())
	assert.Equal(t, jsvalue.Null{}, c.GetParameter(ARRAY_BUFFER_BINDING))
	c.BindBuffer(ARRAY_BUFFER, b)
	assert.Equal(t, uint32(INVALID_OPERATION), c.GetError())
	c.DeleteBuffer(b)
	assert.Equal(t, uint32(NO_ERROR), c.GetError(), "second delete is silent")

	foreign := other.CreateTexture()
	c.BindTexture(TEXTURE_2D, foreign)
	assert.Equal(t, uint32(INVALID_OPERATION), c.GetError())

	c.ShaderSource(nil, "")
	assert.Equal(t, uint32(INVALID_VALUE), c.GetError())

	assert.NotEqual(t, c.CreateBuffer().ID(), c.CreateTexture().ID())
}

func TestBufferData(t *testing.T) {
	c := newContext(t)
	c.BufferData(ARRAY_BUFFER, []byte{1}, STATIC_DRAW)
	assert.Equal(t, uint32(INVALID_OPERATION), c.GetError(), "nothing bound")

	b := c.CreateBuffer()
	c.BindBuffer(ARRAY_BUFFER, b)
	c.BufferDataSize(ARRAY_BUFFER, 8, DYNAMIC_DRAW)
	c.BufferSubData(ARRAY_BUFFER, 4, []byte{1, 2, 3, 4})
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 2, 3, 4}, b.Data())
	c.BufferSubData(ARRAY_BUFFER, 6, []byte{1, 2, 3})
	assert.Equal(t, uint32(INVALID_VALUE), c.GetError())
	c.BufferData(ARRAY_BUFFER, nil, 0x1)
	assert.Equal(t, uint32(INVALID_ENUM), c.GetError())
}

func TestShaderCompile(t *testing.T) {
	c := newContext(t)

	tests := []struct {
		name string
		typ  uint32
		src  string
		log  string
	}{
		{"no main", VERTEX_SHADER, "attribute vec4 p;", "'main' : function not defined"},
		{"no float precision", FRAGMENT_SHADER, "uniform vec4 c;\nvoid main() {}", "ERROR: 0:1: '' : No precision specified for (float)"},
		{"attribute in fragment", FRAGMENT_SHADER, "precision highp float;\n\nattribute vec4 p;\nvoid main() {}", "ERROR: 0:3: 'attribute' : supported in vertex shaders only"},
		{"int attribute", VERTEX_SHADER, "attribute int i;\nvoid main() {}", "cannot be bool or int"},
		{"unbalanced", VERTEX_SHADER, "void main() {", "unexpected end of file"},
		{"version", VERTEX_SHADER, "#version 300 es\nvoid main() {}", "version number not supported"},
		{"reserved name", VERTEX_SHADER, "uniform float gl_x;\nvoid main() {}", "'gl_x' : syntax error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := compile(t, c, tt.typ, tt.src)
			assert.Equal(t, false, c.GetShaderParameter(s, COMPILE_STATUS))
			assert.Contains(t, c.GetShaderInfoLog(s), tt.log)
		})
	}

	s := compile(t, c, VERTEX_SHADER, vertexSrc)
	assert.Equal(t, true, c.GetShaderParameter(s, COMPILE_STATUS))
	assert.Equal(t, float64(VERTEX_SHADER), c.GetShaderParameter(s, SHADER_TYPE))
	assert.Empty(t, c.GetShaderInfoLog(s))

	assert.Nil(t, c.CreateShader(0x1))
	assert.Equal(t, uint32(INVALID_ENUM), c.GetError())
}

func TestLinkProgram(t *testing.T) {
	c := newContext(t)
	p := linkedProgram(t, c)

	assert.Equal(t, float64(3), c.GetProgramParameter(p, ACTIVE_ATTRIBUTES))
	assert.Equal(t, float64(4), c.GetProgramParameter(p, ACTIVE_UNIFORMS))
	assert.Equal(t, float64(2), c.GetProgramParameter(p, ATTACHED_SHADERS))

	assert.Equal(t, int32(0), c.GetAttribLocation(p, "a_pos"))
	assert.Equal(t, int32(3), c.GetAttribLocation(p, "a_uv"))
	assert.Equal(t, int32(1), c.GetAttribLocation(p, "a_offset"))
	assert.Equal(t, int32(-1), c.GetAttribLocation(p, "missing"))

	info := c.GetActiveUniform(p, 2)
	require.NotNil(t, info)
	assert.Equal(t, ActiveInfo{Name: "u_tint[0]", Type: FLOAT_VEC4, Size: 2}, *info)
	assert.Nil(t, c.GetActiveAttrib(p, 9))
	assert.Equal(t, uint32(INVALID_VALUE), c.GetError())

	assert.NotNil(t, c.GetUniformLocation(p, "u_tint"))
	assert.NotNil(t, c.GetUniformLocation(p, "u_tint[1]"))
	assert.Nil(t, c.GetUniformLocation(p, "u_tint[2]"))
	assert.Nil(t, c.GetUniformLocation(p, "nope"))
}

func TestLinkFailures(t *testing.T) {
	c := newContext(t)

	p := c.CreateProgram()
	c.AttachShader(p, compile(t, c, VERTEX_SHADER, vertexSrc))
	c.LinkProgram(p)
	assert.Equal(t, false, c.GetProgramParameter(p, LINK_STATUS))
	assert.NotEmpty(t, c.GetProgramInfoLog(p))

	c.AttachShader(p, compile(t, c, VERTEX_SHADER, vertexSrc))
	assert.Equal(t, uint32(INVALID_OPERATION), c.GetError(), "one shader per type")

	c.AttachShader(p, compile(t, c, FRAGMENT_SHADER, "precision mediump float;\nvarying vec3 v_uv;\nvoid main() {}"))
	c.LinkProgram(p)
	assert.False(t, p.Linked())
	assert.Contains(t, p.InfoLog(), "v_uv")

	c.UseProgram(p)
	assert.Equal(t, uint32(INVALID_OPERATION), c.GetError())
}

func TestUniforms(t *testing.T) {
	c := newContext(t)
	p := linkedProgram(t, c)
	tint := c.GetUniformLocation(p, "u_tint")
	tex := c.GetUniformLocation(p, "u_tex")
	mvp := c.GetUniformLocation(p, "u_mvp")
	flag := c.GetUniformLocation(p, "u_flag")

	c.Uniform4f(tint, 1, 2, 3, 4)
	assert.Equal(t, uint32(INVALID_OPERATION), c.GetError(), "no program in use")

	c.UseProgram(p)
	c.UniformFloat(tint, 4, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	require.Equal(t, uint32(NO_ERROR), c.GetError())
	second := c.GetUniform(p, c.GetUniformLocation(p, "u_tint[1]")).(*jsvalue.Float32Array)
	assert.Equal(t, []float32{5, 6, 7, 8}, second.Values())

	c.Uniform1f(tex, 1)
	assert.Equal(t, uint32(INVALID_OPERATION), c.GetError(), "samplers take ints")
	c.Uniform1i(tex, 40)
	assert.Equal(t, uint32(INVALID_VALUE), c.GetError())
	c.Uniform1i(tex, 2)
	assert.Equal(t, float64(2), c.GetUniform(p, tex))

	c.UniformFloat(tint, 4, []float32{1, 2, 3})
	assert.Equal(t, uint32(INVALID_VALUE), c.GetError())

	c.UniformMatrix(mvp, 4, true, make([]float32, 16))
	assert.Equal(t, uint32(INVALID_VALUE), c.GetError())
	c.UniformMatrix(mvp, 3, false, make([]float32, 9))
	assert.Equal(t, uint32(INVALID_OPERATION), c.GetError())
	c.UniformMatrix(mvp, 4, false, make([]float32, 16))
	assert.Equal(t, uint32(NO_ERROR), c.GetError())

	c.Uniform1f(flag, 0.5)
	assert.Equal(t, true, c.GetUniform(p, flag))

	c.Uniform4f(nil, 1, 2, 3, 4)
	assert.Equal(t, uint32(NO_ERROR), c.GetError(), "null location is ignored")

	c.LinkProgram(p)
	c.Uniform4f(tint, 1, 2, 3, 4)
	assert.Equal(t, uint32(INVALID_OPERATION), c.GetError(), "relink invalidates locations")
}

func TestState(t *testing.T) {
	c := newContext(t)

	assert.Equal(t, false, c.GetParameter(BLEND))
	c.Enable(BLEND)
	assert.True(t, c.IsEnabled(BLEND))

	c.ClearColor(2, 0.5, -1, 1)
	assert.Equal(t, []float32{1, 0.5, 0, 1}, c.GetParameter(COLOR_CLEAR_VALUE).(*jsvalue.Float32Array).Values())

	c.BlendFuncSeparate(CONSTANT_COLOR, CONSTANT_ALPHA, ONE, ZERO)
	assert.Equal(t, uint32(INVALID_OPERATION), c.GetError())
	c.BlendFuncSeparate(SRC_ALPHA, ONE_MINUS_SRC_ALPHA, ONE, ZERO)
	assert.Equal(t, float64(SRC_ALPHA), c.GetParameter(BLEND_SRC_RGB))

	c.StencilFuncSeparate(BACK, EQUAL, 3, 0xFF)
	assert.Equal(t, float64(ALWAYS), c.GetParameter(STENCIL_FUNC))
	assert.Equal(t, float64(EQUAL), c.GetParameter(STENCIL_BACK_FUNC))
	assert.Equal(t, float64(3), c.GetParameter(STENCIL_BACK_REF))

	vp := c.GetParameter(VIEWPORT).(*jsvalue.Int32Array)
	assert.Equal(t, int32(640), vp.At(2))
	c.Viewport(1, 2, 3, 4)
	vp = c.GetParameter(VIEWPORT).(*jsvalue.Int32Array)
	assert.Equal(t, []int32{1, 2, 3, 4}, []int32{vp.At(0), vp.At(1), vp.At(2), vp.At(3)})

	c.PixelStorei(UNPACK_ALIGNMENT, 3)
	assert.Equal(t, uint32(INVALID_VALUE), c.GetError())
	c.PixelStorei(UNPACK_FLIP_Y_WEBGL, 7)
	assert.Equal(t, true, c.GetParameter(UNPACK_FLIP_Y_WEBGL))

	assert.Equal(t, "WebGL 1.0", c.GetParameter(VERSION))
	assert.Equal(t, jsvalue.Null{}, c.GetParameter(0xDEAD))
	assert.Equal(t, uint32(INVALID_ENUM), c.GetError())
}

func TestTextures(t *testing.T) {
	c := newContext(t)
	tex := c.CreateTexture()
	c.ActiveTexture(TEXTURE0 + 2)
	c.BindTexture(TEXTURE_2D, tex)
	assert.Same(t, tex, c.GetParameter(TEXTURE_BINDING_2D))

	c.TexImage2D(TEXTURE_2D, 0, RGB, 3, 2, 0, RGB, UNSIGNED_BYTE, make([]byte, 18))
	assert.Equal(t, uint32(INVALID_OPERATION), c.GetError(), "rows are padded to 4 bytes")
	c.PixelStorei(UNPACK_ALIGNMENT, 1)
	c.TexImage2D(TEXTURE_2D, 0, RGB, 3, 2, 0, RGB, UNSIGNED_BYTE, make([]byte, 18))
	require.Equal(t, uint32(NO_ERROR), c.GetError())
	w, h := tex.Size(TEXTURE_2D)
	assert.Equal(t, [2]int{3, 2}, [2]int{w, h})

	c.GenerateMipmap(TEXTURE_2D)
	assert.Equal(t, uint32(INVALID_OPERATION), c.GetError(), "not power of two")

	c.TexImage2D(TEXTURE_2D, 0, RGBA, 4, 4, 0, RGBA, UNSIGNED_BYTE, nil)
	c.GenerateMipmap(TEXTURE_2D)
	assert.Equal(t, uint32(NO_ERROR), c.GetError())
	c.TexSubImage2D(TEXTURE_2D, 2, 0, 0, 1, 1, RGBA, UNSIGNED_BYTE, make([]byte, 4))
	assert.Equal(t, uint32(NO_ERROR), c.GetError(), "mip level 2 is 1x1")
	c.TexSubImage2D(TEXTURE_2D, 0, 2, 2, 4, 4, RGBA, UNSIGNED_BYTE, make([]byte, 64))
	assert.Equal(t, uint32(INVALID_VALUE), c.GetError())

	c.TexParameteri(TEXTURE_2D, TEXTURE_WRAP_S, CLAMP_TO_EDGE)
	assert.Equal(t, int32(CLAMP_TO_EDGE), tex.Param(TEXTURE_WRAP_S))
	c.TexParameteri(TEXTURE_2D, TEXTURE_WRAP_S, LINEAR)
	assert.Equal(t, uint32(INVALID_ENUM), c.GetError())

	cube := c.CreateTexture()
	c.BindTexture(TEXTURE_CUBE_MAP, cube)
	c.TexImage2D(TEXTURE_CUBE_MAP_POSITIVE_X, 0, RGBA, 4, 2, 0, RGBA, UNSIGNED_BYTE, nil)
	assert.Equal(t, uint32(INVALID_VALUE), c.GetError(), "cube faces are square")
	c.BindTexture(TEXTURE_2D, cube)
	assert.Equal(t, uint32(INVALID_OPERATION), c.GetError())

	err := c.TexImage2DSource(TEXTURE_2D, 0, RGBA, RGBA, UNSIGNED_BYTE, "not an image")
	assert.Error(t, err)
	require.NoError(t, c.TexImage2DSource(TEXTURE_2D, 0, RGBA, RGBA, UNSIGNED_BYTE, &dom.Canvas{Width: 8, Height: 8}))
	w, _ = tex.Size(TEXTURE_2D)
	assert.Equal(t, 8, w)
}

func TestFramebufferStatus(t *testing.T) {
	c := newContext(t)
	assert.Equal(t, uint32(FRAMEBUFFER_COMPLETE), c.CheckFramebufferStatus(FRAMEBUFFER))

	fb := c.CreateFramebuffer()
	c.BindFramebuffer(FRAMEBUFFER, fb)
	assert.Equal(t, uint32(FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT), c.CheckFramebufferStatus(FRAMEBUFFER))
	c.Clear(COLOR_BUFFER_BIT)
	assert.Equal(t, uint32(INVALID_FRAMEBUFFER_OPERATION), c.GetError())

	tex := c.CreateTexture()
	c.BindTexture(TEXTURE_2D, tex)
	c.TexImage2D(TEXTURE_2D, 0, RGBA, 64, 64, 0, RGBA, UNSIGNED_BYTE, nil)
	c.FramebufferTexture2D(FRAMEBUFFER, COLOR_ATTACHMENT0, TEXTURE_2D, tex, 0)
	assert.Equal(t, uint32(FRAMEBUFFER_COMPLETE), c.CheckFramebufferStatus(FRAMEBUFFER))

	rb := c.CreateRenderbuffer()
	c.BindRenderbuffer(RENDERBUFFER, rb)
	c.RenderbufferStorage(RENDERBUFFER, DEPTH_COMPONENT16, 32, 32)
	c.FramebufferRenderbuffer(FRAMEBUFFER, DEPTH_ATTACHMENT, RENDERBUFFER, rb)
	assert.Equal(t, uint32(FRAMEBUFFER_INCOMPLETE_DIMENSIONS), c.CheckFramebufferStatus(FRAMEBUFFER))
	c.RenderbufferStorage(RENDERBUFFER, DEPTH_COMPONENT16, 64, 64)
	assert.Equal(t, uint32(FRAMEBUFFER_COMPLETE), c.CheckFramebufferStatus(FRAMEBUFFER))

	c.FramebufferRenderbuffer(FRAMEBUFFER, COLOR_ATTACHMENT0, RENDERBUFFER, rb)
	assert.Equal(t, uint32(FRAMEBUFFER_INCOMPLETE_ATTACHMENT), c.CheckFramebufferStatus(FRAMEBUFFER))

	c.DeleteFramebuffer(fb)
	assert.Equal(t, jsvalue.Null{}, c.GetParameter(FRAMEBUFFER_BINDING))
	c.FramebufferTexture2D(FRAMEBUFFER, COLOR_ATTACHMENT0, TEXTURE_2D, tex, 0)
	assert.Equal(t, uint32(INVALID_OPERATION), c.GetError(), "default framebuffer has no attachments")
}

// setupDraw binds a three-vertex position buffer to a_pos and a
// two-instance offset buffer to a_offset.
func setupDraw(t *testing.T, c *Context) *ANGLEInstancedArrays {
	t.Helper()
	p := linkedProgram(t, c)
	c.UseProgram(p)

	pos := c.CreateBuffer()
	c.BindBuffer(ARRAY_BUFFER, pos)
	c.BufferData(ARRAY_BUFFER, floats(0, 0, 0, 1, 0, 0, 0, 1, 0), STATIC_DRAW)
	c.EnableVertexAttribArray(0)
	c.VertexAttribPointer(0, 3, FLOAT, false, 12, 0)

	offsets := c.CreateBuffer()
	c.BindBuffer(ARRAY_BUFFER, offsets)
	c.BufferData(ARRAY_BUFFER, floats(0, 0, 0, 0, 1, 1, 1, 0), STATIC_DRAW)
	c.EnableVertexAttribArray(1)
	c.VertexAttribPointer(1, 4, FLOAT, false, 0, 0)

	ext, ok := c.GetExtension("ANGLE_instanced_arrays").(*ANGLEInstancedArrays)
	require.True(t, ok)
	ext.VertexAttribDivisorANGLE(1, 1)
	require.Equal(t, uint32(NO_ERROR), c.GetError())
	return ext
}

func TestDrawValidation(t *testing.T) {
	c := newContext(t)
	c.DrawArrays(TRIANGLES, 0, 3)
	assert.Equal(t, uint32(INVALID_OPERATION), c.GetError(), "no program")

	ext := setupDraw(t, c)
	c.DrawArrays(TRIANGLES, 0, 3)
	assert.Equal(t, uint32(NO_ERROR), c.GetError())
	c.DrawArrays(TRIANGLES, 1, 3)
	assert.Equal(t, uint32(INVALID_OPERATION), c.GetError(), "reads a fourth vertex")
	c.DrawArrays(0x99, 0, 3)
	assert.Equal(t, uint32(INVALID_ENUM), c.GetError())

	ext.DrawArraysInstancedANGLE(TRIANGLES, 0, 3, 2)
	assert.Equal(t, uint32(NO_ERROR), c.GetError())
	ext.DrawArraysInstancedANGLE(TRIANGLES, 0, 3, 3)
	assert.Equal(t, uint32(INVALID_OPERATION), c.GetError(), "third instance has no offset")

	idx := c.CreateBuffer()
	c.BindBuffer(ELEMENT_ARRAY_BUFFER, idx)
	c.BufferData(ELEMENT_ARRAY_BUFFER, []byte{0, 0, 1, 0, 2, 0, 5, 0}, STATIC_DRAW)
	c.DrawElements(TRIANGLES, 3, UNSIGNED_SHORT, 0)
	assert.Equal(t, uint32(NO_ERROR), c.GetError())
	c.DrawElements(TRIANGLES, 3, UNSIGNED_SHORT, 2)
	assert.Equal(t, uint32(INVALID_OPERATION), c.GetError(), "index 5 is out of range")
	c.DrawElements(TRIANGLES, 3, UNSIGNED_SHORT, 1)
	assert.Equal(t, uint32(INVALID_OPERATION), c.GetError(), "misaligned offset")

	st := c.Stats()
	assert.Equal(t, 3, st.Current.DrawCalls)
	assert.Equal(t, int64(3+6+3), st.Current.Vertices)
	assert.Equal(t, int64(3), st.DrawCalls)

	ext.VertexAttribDivisorANGLE(0, 1)
	ext.DrawArraysInstancedANGLE(TRIANGLES, 0, 1, 2)
	assert.Equal(t, uint32(INVALID_OPERATION), c.GetError(), "needs one attribute without divisor")
}

func TestFrameStats(t *testing.T) {
	loop := eventloop.New(eventloop.WithFrameRate(0))
	c := NewContext(nil, loop, DefaultAttributes())
	setupDraw(t, c)

	loop.RequestAnimationFrame(func(float64) {
		c.DrawArrays(TRIANGLES, 0, 3)
		c.DrawArrays(TRIANGLES, 0, 3)
		c.Clear(COLOR_BUFFER_BIT)
		loop.RequestAnimationFrame(func(float64) {
			c.DrawArrays(POINTS, 0, 1)
		})
	})
	require.NoError(t, loop.Run(context.Background()))

	st := c.Stats()
	assert.Equal(t, uint64(2), st.Current.Frame)
	assert.Equal(t, 1, st.Current.DrawCalls)
	assert.Equal(t, uint64(1), st.Last.Frame)
	assert.Equal(t, 2, st.Last.DrawCalls)
	assert.Equal(t, 1, st.Last.Clears)
	assert.Equal(t, int64(3), st.DrawCalls)
}

func TestCanvasFactory(t *testing.T) {
	loop := eventloop.New()
	doc := dom.NewDocument(loop, nil)
	doc.RegisterContext("webgl", Factory(loop))

	n, err := doc.CreateElement("canvas")
	require.NoError(t, err)
	canvas := n.(*dom.Canvas)

	v, err := canvas.GetContext("webgl", jsvalue.ObjectOf("antialias", false, "stencil", true))
	require.NoError(t, err)
	c, ok := v.(*Context)
	require.True(t, ok)
	assert.False(t, c.Attributes.Antialias)
	assert.True(t, c.Attributes.Stencil)
	assert.True(t, c.Attributes.Alpha)
	assert.Same(t, canvas, c.Canvas)

	again, _ := canvas.GetContext("webgl", nil)
	assert.Same(t, c, again)

	w, err := jsvalue.Get(c, "drawingBufferWidth")
	require.NoError(t, err)
	assert.Equal(t, float64(300), w)
	assert.True(t, jsvalue.InstanceOf(c, "WebGLRenderingContext"))
}
