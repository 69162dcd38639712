package webgl

// object is the common part of every WebGL object.
type object struct {
	ctx     *Context
	id      uint32
	deleted bool
}

func (o *object) base() *object { return o }

// ID returns the object name. Names are unique per context.
func (o *object) ID() uint32 { return o.id }

// Deleted reports whether the object was deleted.
func (o *object) Deleted() bool { return o.deleted }

type glObject interface {
	base() *object
}

// Buffer is a WebGLBuffer.
type Buffer struct {
	object
	target uint32
	usage  uint32
	data   []byte
}

// Size returns the store size in bytes.
func (b *Buffer) Size() int { return len(b.data) }

// Data returns the buffer store.
func (b *Buffer) Data() []byte { return b.data }

// ClassName implements jsvalue.ClassNamer.
func (b *Buffer) ClassName() string { return "WebGLBuffer" }

type level struct {
	width, height int
	format, typ   uint32
	defined       bool
}

// Texture is a WebGLTexture.
type Texture struct {
	object
	target uint32
	levels map[uint64]level
	params map[uint32]int32
}

func levelKey(face uint32, lvl int32) uint64 { return uint64(face)<<32 | uint64(uint32(lvl)) }

// Size returns the dimensions of level 0 of the 2D image, or of the given
// cube face.
func (t *Texture) Size(face uint32) (int, int) {
	l := t.levels[levelKey(face, 0)]
	return l.width, l.height
}

// Param returns a texture parameter.
func (t *Texture) Param(pname uint32) int32 { return t.params[pname] }

// ClassName implements jsvalue.ClassNamer.
func (t *Texture) ClassName() string { return "WebGLTexture" }

// Renderbuffer is a WebGLRenderbuffer.
type Renderbuffer struct {
	object
	bound  bool
	format uint32
	width  int
	height int
}

// ClassName implements jsvalue.ClassNamer.
func (r *Renderbuffer) ClassName() string { return "WebGLRenderbuffer" }

type attachment struct {
	tex    *Texture
	face   uint32
	level  int32
	rb     *Renderbuffer
	target uint32
}

func (a attachment) size() (int, int) {
	if a.rb != nil {
		return a.rb.width, a.rb.height
	}
	l := a.tex.levels[levelKey(a.face, a.level)]
	return l.width, l.height
}

// Framebuffer is a WebGLFramebuffer.
type Framebuffer struct {
	object
	bound       bool
	attachments map[uint32]attachment
}

// ClassName implements jsvalue.ClassNamer.
func (f *Framebuffer) ClassName() string { return "WebGLFramebuffer" }

// Shader is a WebGLShader.
type Shader struct {
	object
	typ      uint32
	source   string
	compiled bool
	infoLog  string
	decls    *declarations
	attached int
}

// Type returns VERTEX_SHADER or FRAGMENT_SHADER.
func (s *Shader) Type() uint32 { return s.typ }

// Compiled reports the last compile status.
func (s *Shader) Compiled() bool { return s.compiled }

// ClassName implements jsvalue.ClassNamer.
func (s *Shader) ClassName() string { return "WebGLShader" }

// Program is a WebGLProgram.
type Program struct {
	object
	vertex   *Shader
	fragment *Shader
	linked   bool
	linkGen  int
	infoLog  string
	attribs  []ActiveInfo
	uniforms []ActiveInfo
	// attribute locations assigned at link
	attribLoc map[string]int
	bindings  map[string]int
	// one entry per uniform array element
	slots  []uniformSlot
	values map[int][]float64
	inUse  bool
}

// Linked reports the last link status.
func (p *Program) Linked() bool { return p.linked }

// InfoLog returns the last link log.
func (p *Program) InfoLog() string { return p.infoLog }

// ClassName implements jsvalue.ClassNamer.
func (p *Program) ClassName() string { return "WebGLProgram" }

type uniformSlot struct {
	name  string
	typ   uint32
	index int
}

// UniformLocation is a WebGLUniformLocation. It is valid only for the link
// of the program that produced it.
type UniformLocation struct {
	program *Program
	linkGen int
	slot    int
}

// ClassName implements jsvalue.ClassNamer.
func (l *UniformLocation) ClassName() string { return "WebGLUniformLocation" }

// ActiveInfo is a WebGLActiveInfo.
type ActiveInfo struct {
	Name string
	Type uint32
	Size int
}

// ClassName implements jsvalue.ClassNamer.
func (a *ActiveInfo) ClassName() string { return "WebGLActiveInfo" }

// GetProperty implements jsvalue.PropertyGetter.
func (a *ActiveInfo) GetProperty(name string) (any, bool) {
	switch name {
	case "name":
		return a.Name, true
	case "type":
		return float64(a.Type), true
	case "size":
		return float64(a.Size), true
	}
	return nil, false
}
