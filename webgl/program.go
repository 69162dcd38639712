package webgl

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/jsvalue"
)

// CreateShader creates a shader of the given type, or nil with
// INVALID_ENUM.
func (c *Context) CreateShader(typ uint32) *Shader {
	if typ != VERTEX_SHADER && typ != FRAGMENT_SHADER {
		c.setError(INVALID_ENUM, "createShader", "bad shader type")
		return nil
	}
	return &Shader{object: c.newObject(), typ: typ}
}

// ShaderSource replaces the shader source.
func (c *Context) ShaderSource(s *Shader, src string) {
	if !valid(c, "shaderSource", s, false) {
		return
	}
	s.source = src
}

// GetShaderSource returns the shader source.
func (c *Context) GetShaderSource(s *Shader) string {
	if !valid(c, "getShaderSource", s, false) {
		return ""
	}
	return s.source
}

// CompileShader checks the source and records its global declarations.
func (c *Context) CompileShader(s *Shader) {
	if !valid(c, "compileShader", s, false) {
		return
	}
	decls, err := parseShader(s.source, s.typ)
	if err != nil {
		s.compiled, s.decls, s.infoLog = false, nil, err.Error()+"\n"
		c.log.Debug("shader compile failed", zap.Uint32("shader", s.id), zap.String("log", s.infoLog))
		return
	}
	s.compiled, s.decls, s.infoLog = true, decls, ""
}

// GetShaderParameter returns SHADER_TYPE, DELETE_STATUS or COMPILE_STATUS.
func (c *Context) GetShaderParameter(s *Shader, pname uint32) any {
	if !valid(c, "getShaderParameter", s, false) {
		return jsvalue.Null{}
	}
	switch pname {
	case SHADER_TYPE:
		return float64(s.typ)
	case DELETE_STATUS:
		return s.deleted
	case COMPILE_STATUS:
		return s.compiled
	}
	c.setError(INVALID_ENUM, "getShaderParameter", "bad pname")
	return jsvalue.Null{}
}

// GetShaderInfoLog returns the last compile log.
func (c *Context) GetShaderInfoLog(s *Shader) string {
	if !valid(c, "getShaderInfoLog", s, false) {
		return ""
	}
	return s.infoLog
}

// DeleteShader deletes s. Programs it is attached to keep their link.
func (c *Context) DeleteShader(s *Shader) {
	if s == nil || s.deleted || !valid(c, "deleteShader", s, false) {
		return
	}
	s.deleted = true
}

// CreateProgram creates a program.
func (c *Context) CreateProgram() *Program {
	return &Program{object: c.newObject(), bindings: make(map[string]int)}
}

// AttachShader attaches s. Each program holds one shader per type.
func (c *Context) AttachShader(p *Program, s *Shader) {
	if !valid(c, "attachShader", p, false) || !valid(c, "attachShader", s, false) {
		return
	}
	slot := &p.vertex
	if s.typ == FRAGMENT_SHADER {
		slot = &p.fragment
	}
	if *slot != nil {
		c.setError(INVALID_OPERATION, "attachShader", "shader of this type already attached")
		return
	}
	*slot = s
	s.attached++
}

// DetachShader detaches s.
func (c *Context) DetachShader(p *Program, s *Shader) {
	if !valid(c, "detachShader", p, false) || !valid(c, "detachShader", s, false) {
		return
	}
	switch s {
	case p.vertex:
		p.vertex = nil
	case p.fragment:
		p.fragment = nil
	default:
		c.setError(INVALID_OPERATION, "detachShader", "shader not attached")
		return
	}
	s.attached--
}

// BindAttribLocation requests a location for an attribute at the next link.
func (c *Context) BindAttribLocation(p *Program, index uint32, name string) {
	if !valid(c, "bindAttribLocation", p, false) {
		return
	}
	if index >= MaxVertexAttribs {
		c.setError(INVALID_VALUE, "bindAttribLocation", "index out of range")
		return
	}
	if strings.HasPrefix(name, "gl_") || strings.HasPrefix(name, "webgl_") {
		c.setError(INVALID_OPERATION, "bindAttribLocation", "reserved name")
		return
	}
	p.bindings[name] = int(index)
}

// attribSlots is the number of locations an attribute type occupies.
func attribSlots(typ uint32) int {
	switch typ {
	case FLOAT_MAT2:
		return 2
	case FLOAT_MAT3:
		return 3
	case FLOAT_MAT4:
		return 4
	}
	return 1
}

// LinkProgram matches the attached shaders and assigns attribute
// locations and uniform slots. Failure leaves the program unlinked with an
// info log; uniform locations from earlier links become stale either way.
func (c *Context) LinkProgram(p *Program) {
	if !valid(c, "linkProgram", p, false) {
		return
	}
	p.linkGen++
	p.linked = false
	p.attribs, p.uniforms, p.slots, p.attribLoc, p.values = nil, nil, nil, nil, nil
	if err := c.link(p); err != nil {
		p.infoLog = err.Error()
		c.log.Debug("program link failed", zap.Uint32("program", p.id), zap.String("log", p.infoLog))
		return
	}
	p.linked = true
	p.infoLog = ""
}

func (c *Context) link(p *Program) error {
	vs, fs := p.vertex, p.fragment
	if vs == nil || fs == nil || !vs.compiled || !fs.compiled {
		return fmt.Errorf("missing or uncompiled shaders")
	}
	vary := make(map[string]variable, len(vs.decls.varyings))
	for _, v := range vs.decls.varyings {
		vary[v.name] = v
	}
	vectors := 0
	for _, v := range fs.decls.varyings {
		o, ok := vary[v.name]
		if !ok || o.typ != v.typ || o.size != v.size {
			return fmt.Errorf("varying %q is not declared in the vertex shader with a matching type", v.name)
		}
		vectors += (components(v.typ) + 3) / 4 * v.size
	}
	if vectors > MaxVaryingVectors {
		return fmt.Errorf("too many varyings")
	}

	uniforms := append([]variable(nil), vs.decls.uniforms...)
	seen := make(map[string]variable, len(uniforms))
	for _, u := range uniforms {
		seen[u.name] = u
	}
	for _, u := range fs.decls.uniforms {
		if o, ok := seen[u.name]; ok {
			if o.typ != u.typ || o.size != u.size {
				return fmt.Errorf("uniform %q differs between shaders", u.name)
			}
			continue
		}
		seen[u.name] = u
		uniforms = append(uniforms, u)
	}

	used := make([]bool, MaxVertexAttribs)
	loc := make(map[string]int, len(vs.decls.attributes))
	claim := func(name string, at, n int) error {
		if at+n > MaxVertexAttribs {
			return fmt.Errorf("too many vertex attributes")
		}
		for i := at; i < at+n; i++ {
			if used[i] {
				return fmt.Errorf("attribute %q overlaps location %d", name, i)
			}
			used[i] = true
		}
		loc[name] = at
		return nil
	}
	for _, a := range vs.decls.attributes {
		if at, ok := p.bindings[a.name]; ok {
			if err := claim(a.name, at, attribSlots(a.typ)*a.size); err != nil {
				return err
			}
		}
	}
	for _, a := range vs.decls.attributes {
		if _, ok := loc[a.name]; ok {
			continue
		}
		n := attribSlots(a.typ) * a.size
		at := 0
		for at+n <= MaxVertexAttribs && !free(used[at:at+n]) {
			at++
		}
		if err := claim(a.name, at, n); err != nil {
			return err
		}
	}

	p.attribLoc = loc
	for _, a := range vs.decls.attributes {
		p.attribs = append(p.attribs, ActiveInfo{Name: a.name, Type: a.typ, Size: a.size})
	}
	p.values = make(map[int][]float64)
	for _, u := range uniforms {
		name := u.name
		if u.size > 1 {
			name += "[0]"
		}
		p.uniforms = append(p.uniforms, ActiveInfo{Name: name, Type: u.typ, Size: u.size})
		for i := range u.size {
			p.values[len(p.slots)] = make([]float64, components(u.typ))
			p.slots = append(p.slots, uniformSlot{name: u.name, typ: u.typ, index: i})
		}
	}
	return nil
}

func free(s []bool) bool {
	for _, b := range s {
		if b {
			return false
		}
	}
	return true
}

// GetProgramParameter returns a program query.
func (c *Context) GetProgramParameter(p *Program, pname uint32) any {
	if !valid(c, "getProgramParameter", p, false) {
		return jsvalue.Null{}
	}
	switch pname {
	case DELETE_STATUS:
		return p.deleted
	case LINK_STATUS, VALIDATE_STATUS:
		return p.linked
	case ATTACHED_SHADERS:
		n := 0
		if p.vertex != nil {
			n++
		}
		if p.fragment != nil {
			n++
		}
		return float64(n)
	case ACTIVE_ATTRIBUTES:
		return float64(len(p.attribs))
	case ACTIVE_UNIFORMS:
		return float64(len(p.uniforms))
	}
	c.setError(INVALID_ENUM, "getProgramParameter", "bad pname")
	return jsvalue.Null{}
}

// GetProgramInfoLog returns the last link log.
func (c *Context) GetProgramInfoLog(p *Program) string {
	if !valid(c, "getProgramInfoLog", p, false) {
		return ""
	}
	return p.infoLog
}

// ValidateProgram is a no-op; VALIDATE_STATUS mirrors LINK_STATUS.
func (c *Context) ValidateProgram(p *Program) {
	valid(c, "validateProgram", p, false)
}

// UseProgram installs p, or nothing for nil.
func (c *Context) UseProgram(p *Program) {
	if !valid(c, "useProgram", p, true) {
		return
	}
	if p != nil && !p.linked {
		c.setError(INVALID_OPERATION, "useProgram", "program not linked")
		return
	}
	if c.program != nil {
		c.program.inUse = false
	}
	c.program = p
	if p != nil {
		p.inUse = true
	}
}

// DeleteProgram deletes p. A program in use stays installed until replaced.
func (c *Context) DeleteProgram(p *Program) {
	if p == nil || p.deleted || !valid(c, "deleteProgram", p, false) {
		return
	}
	p.deleted = true
	for _, s := range []*Shader{p.vertex, p.fragment} {
		if s != nil {
			s.attached--
		}
	}
}

// GetAttribLocation returns the location assigned at link, or -1.
func (c *Context) GetAttribLocation(p *Program, name string) int32 {
	if !valid(c, "getAttribLocation", p, false) {
		return -1
	}
	if !p.linked {
		c.setError(INVALID_OPERATION, "getAttribLocation", "program not linked")
		return -1
	}
	if l, ok := p.attribLoc[name]; ok {
		return int32(l)
	}
	return -1
}

// GetUniformLocation resolves "u", "u[0]" or "u[i]" to a location, or nil.
func (c *Context) GetUniformLocation(p *Program, name string) *UniformLocation {
	if !valid(c, "getUniformLocation", p, false) {
		return nil
	}
	if !p.linked {
		c.setError(INVALID_OPERATION, "getUniformLocation", "program not linked")
		return nil
	}
	base, index := name, 0
	if i := strings.IndexByte(name, '['); i > 0 && strings.HasSuffix(name, "]") {
		n, err := strconv.Atoi(name[i+1 : len(name)-1])
		if err != nil || n < 0 {
			return nil
		}
		base, index = name[:i], n
	}
	for i, s := range p.slots {
		if s.name == base && s.index == index {
			return &UniformLocation{program: p, linkGen: p.linkGen, slot: i}
		}
	}
	return nil
}

// GetActiveAttrib describes the attribute at index.
func (c *Context) GetActiveAttrib(p *Program, index uint32) *ActiveInfo {
	if !valid(c, "getActiveAttrib", p, false) {
		return nil
	}
	if int(index) >= len(p.attribs) {
		c.setError(INVALID_VALUE, "getActiveAttrib", "index out of range")
		return nil
	}
	info := p.attribs[index]
	return &info
}

// GetActiveUniform describes the uniform at index.
func (c *Context) GetActiveUniform(p *Program, index uint32) *ActiveInfo {
	if !valid(c, "getActiveUniform", p, false) {
		return nil
	}
	if int(index) >= len(p.uniforms) {
		c.setError(INVALID_VALUE, "getActiveUniform", "index out of range")
		return nil
	}
	info := p.uniforms[index]
	return &info
}

type uniformKind int

const (
	kindFloat uniformKind = iota
	kindInt
	kindMatrix
)

// accepts reports whether a setter of kind and width may write a uniform
// of type typ. Bool uniforms take either float or int setters.
func accepts(typ uint32, kind uniformKind, width int) bool {
	if components(typ) != width {
		return false
	}
	switch typ {
	case FLOAT_MAT2, FLOAT_MAT3, FLOAT_MAT4:
		return kind == kindMatrix
	}
	if kind == kindMatrix {
		return false
	}
	if isBoolType(typ) {
		return true
	}
	if kind == kindFloat {
		return isFloatType(typ)
	}
	return isIntType(typ)
}

// uniform writes values starting at loc. Extra array elements past the end
// of the uniform array are ignored.
func (c *Context) uniform(fn string, loc *UniformLocation, kind uniformKind, width int, values []float64) {
	if loc == nil {
		return
	}
	p := c.program
	if p == nil {
		c.setError(INVALID_OPERATION, fn, "no program in use")
		return
	}
	if loc.program != p || loc.linkGen != p.linkGen {
		c.setError(INVALID_OPERATION, fn, "location is not from the current program")
		return
	}
	slot := p.slots[loc.slot]
	if !accepts(slot.typ, kind, width) {
		c.setError(INVALID_OPERATION, fn, "type mismatch")
		return
	}
	if len(values) == 0 || len(values)%width != 0 {
		c.setError(INVALID_VALUE, fn, "bad value count")
		return
	}
	if isSampler(slot.typ) {
		for _, v := range values {
			if v < 0 || v >= MaxCombinedTextures {
				c.setError(INVALID_VALUE, fn, "sampler unit out of range")
				return
			}
		}
	}
	if limit := (arrayLen(p, loc.slot) - slot.index) * width; len(values) > limit {
		values = values[:limit]
	}
	for i := 0; i*width < len(values); i++ {
		dst := p.values[loc.slot+i]
		for j := range dst {
			v := values[i*width+j]
			if isBoolType(slot.typ) && v != 0 {
				v = 1
			}
			dst[j] = v
		}
	}
}

// arrayLen is the element count of the uniform array owning slot.
func arrayLen(p *Program, slot int) int {
	s := p.slots[slot]
	start := slot - s.index
	n := 0
	for i := start; i < len(p.slots) && p.slots[i].name == s.name; i++ {
		n++
	}
	return n
}

func f64s(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func i64s(v []int32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// UniformFloat implements uniform{width}f and uniform{width}fv.
func (c *Context) UniformFloat(loc *UniformLocation, width int, v []float32) {
	c.uniform(fmt.Sprintf("uniform%df", width), loc, kindFloat, width, f64s(v))
}

// UniformInt implements uniform{width}i and uniform{width}iv.
func (c *Context) UniformInt(loc *UniformLocation, width int, v []int32) {
	c.uniform(fmt.Sprintf("uniform%di", width), loc, kindInt, width, i64s(v))
}

// UniformMatrix implements uniformMatrix{dim}fv. WebGL 1 rejects
// transpose.
func (c *Context) UniformMatrix(loc *UniformLocation, dim int, transpose bool, v []float32) {
	fn := fmt.Sprintf("uniformMatrix%dfv", dim)
	if transpose {
		c.setError(INVALID_VALUE, fn, "transpose must be false")
		return
	}
	c.uniform(fn, loc, kindMatrix, dim*dim, f64s(v))
}

// Scalar and vector uniform setters.

func (c *Context) Uniform1f(loc *UniformLocation, x float32) { c.UniformFloat(loc, 1, []float32{x}) }
func (c *Context) Uniform2f(loc *UniformLocation, x, y float32) {
	c.UniformFloat(loc, 2, []float32{x, y})
}
func (c *Context) Uniform3f(loc *UniformLocation, x, y, z float32) {
	c.UniformFloat(loc, 3, []float32{x, y, z})
}
func (c *Context) Uniform4f(loc *UniformLocation, x, y, z, w float32) {
	c.UniformFloat(loc, 4, []float32{x, y, z, w})
}
func (c *Context) Uniform1i(loc *UniformLocation, x int32) { c.UniformInt(loc, 1, []int32{x}) }
func (c *Context) Uniform2i(loc *UniformLocation, x, y int32) {
	c.UniformInt(loc, 2, []int32{x, y})
}
func (c *Context) Uniform3i(loc *UniformLocation, x, y, z int32) {
	c.UniformInt(loc, 3, []int32{x, y, z})
}
func (c *Context) Uniform4i(loc *UniformLocation, x, y, z, w int32) {
	c.UniformInt(loc, 4, []int32{x, y, z, w})
}

// GetUniform returns the current value of the uniform at loc in p.
func (c *Context) GetUniform(p *Program, loc *UniformLocation) any {
	if !valid(c, "getUniform", p, false) || loc == nil {
		return jsvalue.Null{}
	}
	if !p.linked || loc.program != p || loc.linkGen != p.linkGen {
		c.setError(INVALID_OPERATION, "getUniform", "location is not from this program")
		return jsvalue.Null{}
	}
	typ := p.slots[loc.slot].typ
	v := p.values[loc.slot]
	switch {
	case typ == BOOL:
		return v[0] != 0
	case isBoolType(typ):
		out := jsvalue.NewArray()
		for _, x := range v {
			out.Push(x != 0)
		}
		return out
	case len(v) == 1:
		return v[0]
	case isFloatType(typ):
		f := make([]float32, len(v))
		for i, x := range v {
			f[i] = float32(x)
		}
		return jsvalue.Float32ArrayOf(f)
	}
	out := jsvalue.NewInt32Array(len(v))
	for i, x := range v {
		out.SetAt(i, int32(x))
	}
	return out
}
