package webgl

import (
	"encoding/binary"

	"github.com/wippyai/wbg-runtime/jsvalue"
)

// FrameStats counts work submitted during one animation frame.
type FrameStats struct {
	Frame     uint64
	DrawCalls int
	Clears    int
	Vertices  int64
	Instances int64
}

// Stats are the draw counters of a context.
type Stats struct {
	// Current is the frame in progress, Last the one before it.
	Current FrameStats
	Last    FrameStats

	DrawCalls      int64
	BufferBytes    int64
	TextureUploads int
}

// frame returns the counters of the current loop frame, rolling over when
// the loop advanced.
func (c *Context) frame() *FrameStats {
	var n uint64
	if c.loop != nil {
		n = c.loop.Frames()
	}
	if n != c.stats.Current.Frame {
		c.stats.Last = c.stats.Current
		c.stats.Current = FrameStats{Frame: n}
	}
	return &c.stats.Current
}

// Stats returns the draw counters.
func (c *Context) Stats() Stats {
	c.frame()
	return c.stats
}

func typeSize(typ uint32) int64 {
	switch typ {
	case BYTE, UNSIGNED_BYTE:
		return 1
	case SHORT, UNSIGNED_SHORT:
		return 2
	case FLOAT:
		return 4
	}
	return 0
}

func (c *Context) attribIndex(fn string, index uint32) *vertexAttrib {
	if index >= MaxVertexAttribs {
		c.setError(INVALID_VALUE, fn, "index out of range")
		return nil
	}
	return &c.attribs[index]
}

// EnableVertexAttribArray enables an attribute array.
func (c *Context) EnableVertexAttribArray(index uint32) {
	if a := c.attribIndex("enableVertexAttribArray", index); a != nil {
		a.enabled = true
	}
}

// DisableVertexAttribArray disables an attribute array.
func (c *Context) DisableVertexAttribArray(index uint32) {
	if a := c.attribIndex("disableVertexAttribArray", index); a != nil {
		a.enabled = false
	}
}

// VertexAttribPointer points an attribute at the bound ARRAY_BUFFER.
func (c *Context) VertexAttribPointer(index uint32, size int32, typ uint32, normalized bool, stride int32, offset int64) {
	const fn = "vertexAttribPointer"
	a := c.attribIndex(fn, index)
	if a == nil {
		return
	}
	if size < 1 || size > 4 || stride < 0 || stride > 255 || offset < 0 {
		c.setError(INVALID_VALUE, fn, "bad size, stride or offset")
		return
	}
	ts := typeSize(typ)
	if ts == 0 {
		c.setError(INVALID_ENUM, fn, "bad type")
		return
	}
	if offset%ts != 0 || int64(stride)%ts != 0 {
		c.setError(INVALID_OPERATION, fn, "offset or stride not a multiple of the type size")
		return
	}
	if c.arrayBuffer == nil && offset != 0 {
		c.setError(INVALID_OPERATION, fn, "no ARRAY_BUFFER bound")
		return
	}
	a.buffer, a.size, a.typ, a.normalized, a.stride, a.offset = c.arrayBuffer, size, typ, normalized, stride, offset
}

// GetVertexAttrib returns attribute array state.
func (c *Context) GetVertexAttrib(index uint32, pname uint32) any {
	a := c.attribIndex("getVertexAttrib", index)
	if a == nil {
		return jsvalue.Null{}
	}
	switch pname {
	case VERTEX_ATTRIB_ARRAY_ENABLED:
		return a.enabled
	case VERTEX_ATTRIB_ARRAY_SIZE:
		if a.typ == 0 {
			return float64(4)
		}
		return float64(a.size)
	case VERTEX_ATTRIB_ARRAY_STRIDE:
		return float64(a.stride)
	case VERTEX_ATTRIB_ARRAY_TYPE:
		if a.typ == 0 {
			return float64(FLOAT)
		}
		return float64(a.typ)
	case VERTEX_ATTRIB_ARRAY_NORMALIZED:
		return a.normalized
	case VERTEX_ATTRIB_ARRAY_BUFFER_BINDING:
		if a.buffer == nil {
			return jsvalue.Null{}
		}
		return a.buffer
	case VERTEX_ATTRIB_ARRAY_DIVISOR_ANGLE:
		if c.angle != nil {
			return float64(a.divisor)
		}
	}
	c.setError(INVALID_ENUM, "getVertexAttrib", "bad pname")
	return jsvalue.Null{}
}

func validMode(mode uint32) bool { return mode <= TRIANGLE_FAN }

// drawable checks the state shared by every draw call.
func (c *Context) drawable(fn string, mode uint32) bool {
	if !validMode(mode) {
		c.setError(INVALID_ENUM, fn, "bad mode")
		return false
	}
	if c.program == nil || !c.program.linked {
		c.setError(INVALID_OPERATION, fn, "no valid program in use")
		return false
	}
	if c.CheckFramebufferStatus(FRAMEBUFFER) != FRAMEBUFFER_COMPLETE {
		c.setError(INVALID_FRAMEBUFFER_OPERATION, fn, "framebuffer incomplete")
		return false
	}
	return true
}

// checkAttribs verifies every enabled array holds vertices elements, or
// enough elements for instances under its divisor.
func (c *Context) checkAttribs(fn string, vertices, instances int64, instanced bool) bool {
	hasZeroDivisor := false
	for i := range c.attribs {
		a := &c.attribs[i]
		if !a.enabled {
			continue
		}
		if a.buffer == nil || a.buffer.deleted {
			c.setError(INVALID_OPERATION, fn, "enabled attribute has no buffer")
			return false
		}
		n := vertices
		if a.divisor != 0 {
			n = (instances + int64(a.divisor) - 1) / int64(a.divisor)
		} else {
			hasZeroDivisor = true
		}
		if n == 0 {
			continue
		}
		elem := int64(a.size) * typeSize(a.typ)
		stride := int64(a.stride)
		if stride == 0 {
			stride = elem
		}
		if a.offset+(n-1)*stride+elem > int64(len(a.buffer.data)) {
			c.setError(INVALID_OPERATION, fn, "attribute reads past the end of its buffer")
			return false
		}
	}
	if instanced && !hasZeroDivisor {
		c.setError(INVALID_OPERATION, fn, "at least one enabled attribute needs divisor 0")
		return false
	}
	return true
}

func (c *Context) count(vertices, instances int64) {
	f := c.frame()
	f.DrawCalls++
	f.Vertices += vertices * instances
	f.Instances += instances
	c.stats.DrawCalls++
}

func (c *Context) drawArrays(fn string, mode uint32, first, count, instances int32, instanced bool) {
	if !c.drawable(fn, mode) {
		return
	}
	if first < 0 || count < 0 || instances < 0 {
		c.setError(INVALID_VALUE, fn, "negative first, count or primcount")
		return
	}
	if count == 0 || instances == 0 {
		return
	}
	if !c.checkAttribs(fn, int64(first)+int64(count), int64(instances), instanced) {
		return
	}
	c.count(int64(count), int64(instances))
}

// DrawArrays validates and counts a non-indexed draw.
func (c *Context) DrawArrays(mode uint32, first, count int32) {
	c.drawArrays("drawArrays", mode, first, count, 1, false)
}

func (c *Context) drawElements(fn string, mode uint32, count int32, typ uint32, offset int64, instances int32, instanced bool) {
	if !c.drawable(fn, mode) {
		return
	}
	if count < 0 || offset < 0 || instances < 0 {
		c.setError(INVALID_VALUE, fn, "negative count, offset or primcount")
		return
	}
	if typ != UNSIGNED_BYTE && typ != UNSIGNED_SHORT {
		c.setError(INVALID_ENUM, fn, "bad index type")
		return
	}
	ts := typeSize(typ)
	if offset%ts != 0 {
		c.setError(INVALID_OPERATION, fn, "offset not a multiple of the index size")
		return
	}
	eb := c.elementBuf
	if eb == nil {
		c.setError(INVALID_OPERATION, fn, "no ELEMENT_ARRAY_BUFFER bound")
		return
	}
	end := offset + int64(count)*ts
	if end > int64(len(eb.data)) {
		c.setError(INVALID_OPERATION, fn, "indices past the end of the buffer")
		return
	}
	if count == 0 || instances == 0 {
		return
	}
	var maxIndex int64
	for p := offset; p < end; p += ts {
		var idx int64
		if ts == 1 {
			idx = int64(eb.data[p])
		} else {
			idx = int64(binary.LittleEndian.Uint16(eb.data[p:]))
		}
		maxIndex = max(maxIndex, idx)
	}
	if !c.checkAttribs(fn, maxIndex+1, int64(instances), instanced) {
		return
	}
	c.count(int64(count), int64(instances))
}

// DrawElements validates and counts an indexed draw. Every index is
// checked against the enabled attribute buffers.
func (c *Context) DrawElements(mode uint32, count int32, typ uint32, offset int64) {
	c.drawElements("drawElements", mode, count, typ, offset, 1, false)
}

// GetSupportedExtensions lists the extensions GetExtension can return.
func (c *Context) GetSupportedExtensions() []string {
	return []string{"ANGLE_instanced_arrays"}
}

// GetExtension returns the named extension object, or nil.
func (c *Context) GetExtension(name string) any {
	switch name {
	case "ANGLE_instanced_arrays":
		if c.angle == nil {
			c.angle = &ANGLEInstancedArrays{ctx: c}
		}
		return c.angle
	}
	return nil
}

// ANGLEInstancedArrays is the ANGLE_instanced_arrays extension object.
type ANGLEInstancedArrays struct {
	ctx *Context
}

// ClassName implements jsvalue.ClassNamer.
func (a *ANGLEInstancedArrays) ClassName() string { return "ANGLEInstancedArrays" }

// VertexAttribDivisorANGLE sets the instance divisor of an attribute.
func (a *ANGLEInstancedArrays) VertexAttribDivisorANGLE(index, divisor uint32) {
	if v := a.ctx.attribIndex("vertexAttribDivisorANGLE", index); v != nil {
		v.divisor = divisor
	}
}

// DrawArraysInstancedANGLE validates and counts an instanced draw.
func (a *ANGLEInstancedArrays) DrawArraysInstancedANGLE(mode uint32, first, count, primcount int32) {
	a.ctx.drawArrays("drawArraysInstancedANGLE", mode, first, count, primcount, true)
}

// DrawElementsInstancedANGLE validates and counts an indexed instanced
// draw.
func (a *ANGLEInstancedArrays) DrawElementsInstancedANGLE(mode uint32, count int32, typ uint32, offset int64, primcount int32) {
	a.ctx.drawElements("drawElementsInstancedANGLE", mode, count, typ, offset, primcount, true)
}

// GetProperty implements jsvalue.PropertyGetter.
func (a *ANGLEInstancedArrays) GetProperty(name string) (any, bool) {
	if name == "VERTEX_ATTRIB_ARRAY_DIVISOR_ANGLE" {
		return float64(VERTEX_ATTRIB_ARRAY_DIVISOR_ANGLE), true
	}
	return nil, false
}
