package bindings

import (
	"context"

	"github.com/wippyai/wbg-runtime/webgl"
)

// WebGL serves WebGLRenderingContext and ANGLE_instanced_arrays against
// the headless context.
var WebGL = Group{Name: "webgl", Define: defineWebGL}

// glThunk adapts a call on the receiving context.
func glThunk(fn func(gl *webgl.Context, a Args) (any, error)) Thunk {
	return func(_ context.Context, _ *Env, args Args) (any, error) {
		gl, err := As[*webgl.Context](args.Val(0), "WebGLRenderingContext")
		if err != nil {
			return nil, err
		}
		return fn(gl, args)
	}
}

// glVoid is glThunk for calls without a result or object arguments.
func glVoid(fn func(gl *webgl.Context, a Args)) Thunk {
	return glThunk(func(gl *webgl.Context, a Args) (any, error) {
		fn(gl, a)
		return nil, nil
	})
}

func defineWebGL(c *Catalog) {
	defineGLState(c)
	defineGLObjects(c)
	defineGLPrograms(c)
	defineGLTextures(c)
	defineGLDraw(c)
}

func defineGLState(c *Catalog) {
	c.Func("__wbg_enable", Sig(Void, Ref, U32), glVoid(func(gl *webgl.Context, a Args) { gl.Enable(a.U32(1)) }))
	c.Func("__wbg_disable", Sig(Void, Ref, U32), glVoid(func(gl *webgl.Context, a Args) { gl.Disable(a.U32(1)) }))
	c.Func("__wbg_isEnabled", Sig(RetBool, Ref, U32), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		return gl.IsEnabled(a.U32(1)), nil
	}))
	c.Func("__wbg_clearColor", Sig(Void, Ref, F32, F32, F32, F32), glVoid(func(gl *webgl.Context, a Args) {
		gl.ClearColor(a.F32(1), a.F32(2), a.F32(3), a.F32(4))
	}))
	c.Func("__wbg_clearDepth", Sig(Void, Ref, F32), glVoid(func(gl *webgl.Context, a Args) { gl.ClearDepth(a.F32(1)) }))
	c.Func("__wbg_clearStencil", Sig(Void, Ref, I32), glVoid(func(gl *webgl.Context, a Args) { gl.ClearStencil(a.I32(1)) }))
	c.Func("__wbg_clear", Sig(Void, Ref, U32), glVoid(func(gl *webgl.Context, a Args) { gl.Clear(a.U32(1)) }))
	c.Func("__wbg_colorMask", Sig(Void, Ref, Bool, Bool, Bool, Bool), glVoid(func(gl *webgl.Context, a Args) {
		gl.ColorMask(a.Bool(1), a.Bool(2), a.Bool(3), a.Bool(4))
	}))
	c.Func("__wbg_depthMask", Sig(Void, Ref, Bool), glVoid(func(gl *webgl.Context, a Args) { gl.DepthMask(a.Bool(1)) }))
	c.Func("__wbg_depthFunc", Sig(Void, Ref, U32), glVoid(func(gl *webgl.Context, a Args) { gl.DepthFunc(a.U32(1)) }))
	c.Func("__wbg_cullFace", Sig(Void, Ref, U32), glVoid(func(gl *webgl.Context, a Args) { gl.CullFace(a.U32(1)) }))
	c.Func("__wbg_blendEquationSeparate", Sig(Void, Ref, U32, U32), glVoid(func(gl *webgl.Context, a Args) {
		gl.BlendEquationSeparate(a.U32(1), a.U32(2))
	}))
	c.Func("__wbg_blendEquation", Sig(Void, Ref, U32), glVoid(func(gl *webgl.Context, a Args) {
		gl.BlendEquationSeparate(a.U32(1), a.U32(1))
	}))
	c.Func("__wbg_blendFuncSeparate", Sig(Void, Ref, U32, U32, U32, U32), glVoid(func(gl *webgl.Context, a Args) {
		gl.BlendFuncSeparate(a.U32(1), a.U32(2), a.U32(3), a.U32(4))
	}))
	c.Func("__wbg_blendFunc", Sig(Void, Ref, U32, U32), glVoid(func(gl *webgl.Context, a Args) {
		gl.BlendFuncSeparate(a.U32(1), a.U32(2), a.U32(1), a.U32(2))
	}))
	c.Func("__wbg_stencilFuncSeparate", Sig(Void, Ref, U32, U32, I32, U32), glVoid(func(gl *webgl.Context, a Args) {
		gl.StencilFuncSeparate(a.U32(1), a.U32(2), a.I32(3), a.U32(4))
	}))
	c.Func("__wbg_stencilOpSeparate", Sig(Void, Ref, U32, U32, U32, U32), glVoid(func(gl *webgl.Context, a Args) {
		gl.StencilOpSeparate(a.U32(1), a.U32(2), a.U32(3), a.U32(4))
	}))
	c.Func("__wbg_viewport", Sig(Void, Ref, I32, I32, I32, I32), glVoid(func(gl *webgl.Context, a Args) {
		gl.Viewport(a.I32(1), a.I32(2), a.I32(3), a.I32(4))
	}))
	c.Func("__wbg_lineWidth", Sig(Void, Ref, F32), glVoid(func(gl *webgl.Context, a Args) { gl.LineWidth(a.F32(1)) }))
	c.Func("__wbg_pixelStorei", Sig(Void, Ref, U32, I32), glVoid(func(gl *webgl.Context, a Args) {
		gl.PixelStorei(a.U32(1), a.I32(2))
	}))
	c.Func("__wbg_getError", Sig(RetU32, Ref), glThunk(func(gl *webgl.Context, _ Args) (any, error) {
		return float64(gl.GetError()), nil
	}))
	c.Catch("__wbg_getParameter", Sig(Handle, Ref, U32), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		return gl.GetParameter(a.U32(1)), nil
	}))
	c.Catch("__wbg_getExtension", Sig(OptHandle, Ref, Str), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		return gl.GetExtension(a.Str(1)), nil
	}))
	c.Func("__wbg_getSupportedExtensions", Sig(Handle, Ref), glThunk(func(gl *webgl.Context, _ Args) (any, error) {
		return stringArray(gl.GetSupportedExtensions()), nil
	}))
}

func defineGLObjects(c *Catalog) {
	c.Func("__wbg_createBuffer", Sig(OptHandle, Ref), glThunk(func(gl *webgl.Context, _ Args) (any, error) {
		return orNull(gl.CreateBuffer()), nil
	}))
	c.Func("__wbg_deleteBuffer", Sig(Void, Ref, Ref), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		b, err := Opt[*webgl.Buffer](a.Val(1), "WebGLBuffer")
		if err == nil {
			gl.DeleteBuffer(b)
		}
		return nil, err
	}))
	c.Func("__wbg_bindBuffer", Sig(Void, Ref, U32, Ref), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		b, err := Opt[*webgl.Buffer](a.Val(2), "WebGLBuffer")
		if err == nil {
			gl.BindBuffer(a.U32(1), b)
		}
		return nil, err
	}))
	c.Func("__wbg_bufferData", Sig(Void, Ref, U32, Bytes, U32), glVoid(func(gl *webgl.Context, a Args) {
		gl.BufferData(a.U32(1), a.Bytes(2), a.U32(3))
	}))
	c.Func("__wbg_bufferData", Sig(Void, Ref, U32, I32, U32), glVoid(func(gl *webgl.Context, a Args) {
		gl.BufferDataSize(a.U32(1), int64(a.I32(2)), a.U32(3))
	}))
	c.Func("__wbg_bufferSubData", Sig(Void, Ref, U32, I32, Bytes), glVoid(func(gl *webgl.Context, a Args) {
		gl.BufferSubData(a.U32(1), int64(a.I32(2)), a.Bytes(3))
	}))

	c.Func("__wbg_createFramebuffer", Sig(OptHandle, Ref), glThunk(func(gl *webgl.Context, _ Args) (any, error) {
		return orNull(gl.CreateFramebuffer()), nil
	}))
	c.Func("__wbg_deleteFramebuffer", Sig(Void, Ref, Ref), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		f, err := Opt[*webgl.Framebuffer](a.Val(1), "WebGLFramebuffer")
		if err == nil {
			gl.DeleteFramebuffer(f)
		}
		return nil, err
	}))
	c.Func("__wbg_bindFramebuffer", Sig(Void, Ref, U32, Ref), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		f, err := Opt[*webgl.Framebuffer](a.Val(2), "WebGLFramebuffer")
		if err == nil {
			gl.BindFramebuffer(a.U32(1), f)
		}
		return nil, err
	}))
	c.Func("__wbg_framebufferTexture2D", Sig(Void, Ref, U32, U32, U32, Ref, I32), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		t, err := Opt[*webgl.Texture](a.Val(4), "WebGLTexture")
		if err == nil {
			gl.FramebufferTexture2D(a.U32(1), a.U32(2), a.U32(3), t, a.I32(5))
		}
		return nil, err
	}))
	c.Func("__wbg_framebufferRenderbuffer", Sig(Void, Ref, U32, U32, U32, Ref), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		r, err := Opt[*webgl.Renderbuffer](a.Val(4), "WebGLRenderbuffer")
		if err == nil {
			gl.FramebufferRenderbuffer(a.U32(1), a.U32(2), a.U32(3), r)
		}
		return nil, err
	}))
	c.Func("__wbg_checkFramebufferStatus", Sig(RetU32, Ref, U32), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		return float64(gl.CheckFramebufferStatus(a.U32(1))), nil
	}))

	c.Func("__wbg_createRenderbuffer", Sig(OptHandle, Ref), glThunk(func(gl *webgl.Context, _ Args) (any, error) {
		return orNull(gl.CreateRenderbuffer()), nil
	}))
	c.Func("__wbg_deleteRenderbuffer", Sig(Void, Ref, Ref), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		r, err := Opt[*webgl.Renderbuffer](a.Val(1), "WebGLRenderbuffer")
		if err == nil {
			gl.DeleteRenderbuffer(r)
		}
		return nil, err
	}))
	c.Func("__wbg_bindRenderbuffer", Sig(Void, Ref, U32, Ref), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		r, err := Opt[*webgl.Renderbuffer](a.Val(2), "WebGLRenderbuffer")
		if err == nil {
			gl.BindRenderbuffer(a.U32(1), r)
		}
		return nil, err
	}))
	c.Func("__wbg_renderbufferStorage", Sig(Void, Ref, U32, U32, I32, I32), glVoid(func(gl *webgl.Context, a Args) {
		gl.RenderbufferStorage(a.U32(1), a.U32(2), a.I32(3), a.I32(4))
	}))
}

// glProgram decodes the program argument at i.
func glProgram(a Args, i int) (*webgl.Program, error) {
	return Opt[*webgl.Program](a.Val(i), "WebGLProgram")
}

func glShader(a Args, i int) (*webgl.Shader, error) {
	return Opt[*webgl.Shader](a.Val(i), "WebGLShader")
}

func glLocation(a Args, i int) (*webgl.UniformLocation, error) {
	return Opt[*webgl.UniformLocation](a.Val(i), "WebGLUniformLocation")
}

func defineGLPrograms(c *Catalog) {
	c.Func("__wbg_createShader", Sig(OptHandle, Ref, U32), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		return orNull(gl.CreateShader(a.U32(1))), nil
	}))
	c.Func("__wbg_shaderSource", Sig(Void, Ref, Ref, Str), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		s, err := glShader(a, 1)
		if err == nil {
			gl.ShaderSource(s, a.Str(2))
		}
		return nil, err
	}))
	c.Func("__wbg_compileShader", Sig(Void, Ref, Ref), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		s, err := glShader(a, 1)
		if err == nil {
			gl.CompileShader(s)
		}
		return nil, err
	}))
	c.Func("__wbg_deleteShader", Sig(Void, Ref, Ref), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		s, err := glShader(a, 1)
		if err == nil {
			gl.DeleteShader(s)
		}
		return nil, err
	}))
	c.Func("__wbg_getShaderParameter", Sig(Handle, Ref, Ref, U32), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		s, err := glShader(a, 1)
		if err != nil {
			return nil, err
		}
		return gl.GetShaderParameter(s, a.U32(2)), nil
	}))
	c.Func("__wbg_getShaderInfoLog", Sig(RetOptStr, Ref, Ref), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		s, err := glShader(a, 1)
		if err != nil {
			return nil, err
		}
		return gl.GetShaderInfoLog(s), nil
	}))

	c.Func("__wbg_createProgram", Sig(OptHandle, Ref), glThunk(func(gl *webgl.Context, _ Args) (any, error) {
		return orNull(gl.CreateProgram()), nil
	}))
	c.Func("__wbg_attachShader", Sig(Void, Ref, Ref, Ref), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		p, s, err := programShader(a)
		if err == nil {
			gl.AttachShader(p, s)
		}
		return nil, err
	}))
	c.Func("__wbg_detachShader", Sig(Void, Ref, Ref, Ref), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		p, s, err := programShader(a)
		if err == nil {
			gl.DetachShader(p, s)
		}
		return nil, err
	}))
	c.Func("__wbg_bindAttribLocation", Sig(Void, Ref, Ref, U32, Str), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		p, err := glProgram(a, 1)
		if err == nil {
			gl.BindAttribLocation(p, a.U32(2), a.Str(3))
		}
		return nil, err
	}))
	programCall := func(name string, fn func(gl *webgl.Context, p *webgl.Program)) {
		c.Func(name, Sig(Void, Ref, Ref), glThunk(func(gl *webgl.Context, a Args) (any, error) {
			p, err := glProgram(a, 1)
			if err == nil {
				fn(gl, p)
			}
			return nil, err
		}))
	}
	programCall("__wbg_linkProgram", (*webgl.Context).LinkProgram)
	programCall("__wbg_validateProgram", (*webgl.Context).ValidateProgram)
	programCall("__wbg_useProgram", (*webgl.Context).UseProgram)
	programCall("__wbg_deleteProgram", (*webgl.Context).DeleteProgram)

	c.Func("__wbg_getProgramParameter", Sig(Handle, Ref, Ref, U32), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		p, err := glProgram(a, 1)
		if err != nil {
			return nil, err
		}
		return gl.GetProgramParameter(p, a.U32(2)), nil
	}))
	c.Func("__wbg_getProgramInfoLog", Sig(RetOptStr, Ref, Ref), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		p, err := glProgram(a, 1)
		if err != nil {
			return nil, err
		}
		return gl.GetProgramInfoLog(p), nil
	}))
	c.Func("__wbg_getAttribLocation", Sig(RetI32, Ref, Ref, Str), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		p, err := glProgram(a, 1)
		if err != nil {
			return nil, err
		}
		return float64(gl.GetAttribLocation(p, a.Str(2))), nil
	}))
	c.Func("__wbg_getUniformLocation", Sig(OptHandle, Ref, Ref, Str), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		p, err := glProgram(a, 1)
		if err != nil {
			return nil, err
		}
		return orNull(gl.GetUniformLocation(p, a.Str(2))), nil
	}))
	c.Func("__wbg_getActiveAttrib", Sig(OptHandle, Ref, Ref, U32), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		p, err := glProgram(a, 1)
		if err != nil {
			return nil, err
		}
		return orNull(gl.GetActiveAttrib(p, a.U32(2))), nil
	}))
	c.Func("__wbg_getActiveUniform", Sig(OptHandle, Ref, Ref, U32), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		p, err := glProgram(a, 1)
		if err != nil {
			return nil, err
		}
		return orNull(gl.GetActiveUniform(p, a.U32(2))), nil
	}))
	c.Func("__wbg_getUniform", Sig(Handle, Ref, Ref, Ref), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		p, err := glProgram(a, 1)
		if err != nil {
			return nil, err
		}
		loc, err := glLocation(a, 2)
		if err != nil {
			return nil, err
		}
		return gl.GetUniform(p, loc), nil
	}))
	c.getter("__wbg_name", "name", RetStr, false)
	c.numeric("__wbg_size", "size")

	uniformF := func(name string, n int) {
		params := []Param{Ref, Ref}
		for i := 0; i < n; i++ {
			params = append(params, F32)
		}
		c.Func(name, Sig(Void, params...), glThunk(func(gl *webgl.Context, a Args) (any, error) {
			loc, err := glLocation(a, 1)
			if err != nil {
				return nil, err
			}
			v := make([]float32, n)
			for i := range v {
				v[i] = a.F32(2 + i)
			}
			gl.UniformFloat(loc, n, v)
			return nil, nil
		}))
		c.Func(name[:len(name)-1]+"fv", Sig(Void, Ref, Ref, F32s), glThunk(func(gl *webgl.Context, a Args) (any, error) {
			loc, err := glLocation(a, 1)
			if err == nil {
				gl.UniformFloat(loc, n, a.F32s(2))
			}
			return nil, err
		}))
	}
	uniformI := func(name string, n int) {
		params := []Param{Ref, Ref}
		for i := 0; i < n; i++ {
			params = append(params, I32)
		}
		c.Func(name, Sig(Void, params...), glThunk(func(gl *webgl.Context, a Args) (any, error) {
			loc, err := glLocation(a, 1)
			if err != nil {
				return nil, err
			}
			v := make([]int32, n)
			for i := range v {
				v[i] = a.I32(2 + i)
			}
			gl.UniformInt(loc, n, v)
			return nil, nil
		}))
		c.Func(name[:len(name)-1]+"iv", Sig(Void, Ref, Ref, I32s), glThunk(func(gl *webgl.Context, a Args) (any, error) {
			loc, err := glLocation(a, 1)
			if err == nil {
				gl.UniformInt(loc, n, a.I32s(2))
			}
			return nil, err
		}))
	}
	for n, suffix := range []string{"1", "2", "3", "4"} {
		uniformF("__wbg_uniform"+suffix+"f", n+1)
		uniformI("__wbg_uniform"+suffix+"i", n+1)
	}
	for _, dim := range []int{2, 3, 4} {
		dim := dim
		name := "__wbg_uniformMatrix" + string(rune('0'+dim)) + "fv"
		c.Func(name, Sig(Void, Ref, Ref, Bool, F32s), glThunk(func(gl *webgl.Context, a Args) (any, error) {
			loc, err := glLocation(a, 1)
			if err == nil {
				gl.UniformMatrix(loc, dim, a.Bool(2), a.F32s(3))
			}
			return nil, err
		}))
	}
}

func programShader(a Args) (*webgl.Program, *webgl.Shader, error) {
	p, err := glProgram(a, 1)
	if err != nil {
		return nil, nil, err
	}
	s, err := glShader(a, 2)
	return p, s, err
}

func defineGLTextures(c *Catalog) {
	c.Func("__wbg_createTexture", Sig(OptHandle, Ref), glThunk(func(gl *webgl.Context, _ Args) (any, error) {
		return orNull(gl.CreateTexture()), nil
	}))
	c.Func("__wbg_deleteTexture", Sig(Void, Ref, Ref), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		t, err := Opt[*webgl.Texture](a.Val(1), "WebGLTexture")
		if err == nil {
			gl.DeleteTexture(t)
		}
		return nil, err
	}))
	c.Func("__wbg_bindTexture", Sig(Void, Ref, U32, Ref), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		t, err := Opt[*webgl.Texture](a.Val(2), "WebGLTexture")
		if err == nil {
			gl.BindTexture(a.U32(1), t)
		}
		return nil, err
	}))
	c.Func("__wbg_activeTexture", Sig(Void, Ref, U32), glVoid(func(gl *webgl.Context, a Args) { gl.ActiveTexture(a.U32(1)) }))
	c.Func("__wbg_texParameteri", Sig(Void, Ref, U32, U32, I32), glVoid(func(gl *webgl.Context, a Args) {
		gl.TexParameteri(a.U32(1), a.U32(2), a.I32(3))
	}))
	c.Catch("__wbg_texImage2D", Sig(Void, Ref, U32, I32, I32, I32, I32, I32, U32, U32, OptBytes), glVoid(func(gl *webgl.Context, a Args) {
		gl.TexImage2D(a.U32(1), a.I32(2), uint32(a.I32(3)), a.I32(4), a.I32(5), a.I32(6), a.U32(7), a.U32(8), a.Bytes(9))
	}))
	c.Catch("__wbg_texImage2D", Sig(Void, Ref, U32, I32, I32, U32, U32, Ref), glThunk(func(gl *webgl.Context, a Args) (any, error) {
		return nil, gl.TexImage2DSource(a.U32(1), a.I32(2), uint32(a.I32(3)), a.U32(4), a.U32(5), a.Val(6))
	}))
	c.Catch("__wbg_texSubImage2D", Sig(Void, Ref, U32, I32, I32, I32, I32, I32, U32, U32, OptBytes), glVoid(func(gl *webgl.Context, a Args) {
		gl.TexSubImage2D(a.U32(1), a.I32(2), a.I32(3), a.I32(4), a.I32(5), a.I32(6), a.U32(7), a.U32(8), a.Bytes(9))
	}))
	c.Func("__wbg_copyTexSubImage2D", Sig(Void, Ref, U32, I32, I32, I32, I32, I32, I32, I32), glVoid(func(gl *webgl.Context, a Args) {
		gl.CopyTexSubImage2D(a.U32(1), a.I32(2), a.I32(3), a.I32(4), a.I32(5), a.I32(6), a.I32(7), a.I32(8))
	}))
	c.Func("__wbg_generateMipmap", Sig(Void, Ref, U32), glVoid(func(gl *webgl.Context, a Args) { gl.GenerateMipmap(a.U32(1)) }))
}

func defineGLDraw(c *Catalog) {
	c.Func("__wbg_enableVertexAttribArray", Sig(Void, Ref, U32), glVoid(func(gl *webgl.Context, a Args) {
		gl.EnableVertexAttribArray(a.U32(1))
	}))
	c.Func("__wbg_disableVertexAttribArray", Sig(Void, Ref, U32), glVoid(func(gl *webgl.Context, a Args) {
		gl.DisableVertexAttribArray(a.U32(1))
	}))
	c.Func("__wbg_vertexAttribPointer", Sig(Void, Ref, U32, I32, U32, Bool, I32, I32), glVoid(func(gl *webgl.Context, a Args) {
		gl.VertexAttribPointer(a.U32(1), a.I32(2), a.U32(3), a.Bool(4), a.I32(5), int64(a.I32(6)))
	}))
	c.Func("__wbg_drawArrays", Sig(Void, Ref, U32, I32, I32), glVoid(func(gl *webgl.Context, a Args) {
		gl.DrawArrays(a.U32(1), a.I32(2), a.I32(3))
	}))
	c.Func("__wbg_drawElements", Sig(Void, Ref, U32, I32, U32, I32), glVoid(func(gl *webgl.Context, a Args) {
		gl.DrawElements(a.U32(1), a.I32(2), a.U32(3), int64(a.I32(4)))
	}))

	angle := func(fn func(ext *webgl.ANGLEInstancedArrays, a Args)) Thunk {
		return func(_ context.Context, _ *Env, args Args) (any, error) {
			ext, err := As[*webgl.ANGLEInstancedArrays](args.Val(0), "ANGLEInstancedArrays")
			if err != nil {
				return nil, err
			}
			fn(ext, args)
			return nil, nil
		}
	}
	c.Func("__wbg_vertexAttribDivisorANGLE", Sig(Void, Ref, U32, U32), angle(func(ext *webgl.ANGLEInstancedArrays, a Args) {
		ext.VertexAttribDivisorANGLE(a.U32(1), a.U32(2))
	}))
	c.Func("__wbg_drawArraysInstancedANGLE", Sig(Void, Ref, U32, I32, I32, I32), angle(func(ext *webgl.ANGLEInstancedArrays, a Args) {
		ext.DrawArraysInstancedANGLE(a.U32(1), a.I32(2), a.I32(3), a.I32(4))
	}))
	c.Func("__wbg_drawElementsInstancedANGLE", Sig(Void, Ref, U32, I32, U32, I32, I32), angle(func(ext *webgl.ANGLEInstancedArrays, a Args) {
		ext.DrawElementsInstancedANGLE(a.U32(1), a.I32(2), a.U32(3), int64(a.I32(4)), a.I32(5))
	}))
}
