package webgl

import (
	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// CreateBuffer creates a buffer.
func (c *Context) CreateBuffer() *Buffer {
	return &Buffer{object: c.newObject()}
}

// DeleteBuffer deletes b and unbinds it.
func (c *Context) DeleteBuffer(b *Buffer) {
	if b == nil || b.deleted || !valid(c, "deleteBuffer", b, false) {
		return
	}
	b.deleted = true
	if c.arrayBuffer == b {
		c.arrayBuffer = nil
	}
	if c.elementBuf == b {
		c.elementBuf = nil
	}
}

// BindBuffer binds b to target. A buffer keeps the first target it was
// bound to.
func (c *Context) BindBuffer(target uint32, b *Buffer) {
	if target != ARRAY_BUFFER && target != ELEMENT_ARRAY_BUFFER {
		c.setError(INVALID_ENUM, "bindBuffer", "bad target")
		return
	}
	if !valid(c, "bindBuffer", b, true) {
		return
	}
	if b != nil {
		if b.target != 0 && b.target != target {
			c.setError(INVALID_OPERATION, "bindBuffer", "buffer bound to another target")
			return
		}
		b.target = target
	}
	if target == ARRAY_BUFFER {
		c.arrayBuffer = b
	} else {
		c.elementBuf = b
	}
}

func (c *Context) boundBuffer(fn string, target uint32) *Buffer {
	var b *Buffer
	switch target {
	case ARRAY_BUFFER:
		b = c.arrayBuffer
	case ELEMENT_ARRAY_BUFFER:
		b = c.elementBuf
	default:
		c.setError(INVALID_ENUM, fn, "bad target")
		return nil
	}
	if b == nil {
		c.setError(INVALID_OPERATION, fn, "no buffer bound")
	}
	return b
}

func validUsage(u uint32) bool { return u == STREAM_DRAW || u == STATIC_DRAW || u == DYNAMIC_DRAW }

// BufferData replaces the store of the buffer bound to target with a copy
// of data.
func (c *Context) BufferData(target uint32, data []byte, usage uint32) {
	if !validUsage(usage) {
		c.setError(INVALID_ENUM, "bufferData", "bad usage")
		return
	}
	b := c.boundBuffer("bufferData", target)
	if b == nil {
		return
	}
	b.data = append([]byte(nil), data...)
	b.usage = usage
	c.stats.BufferBytes += int64(len(data))
}

// BufferDataSize allocates a zeroed store of size bytes.
func (c *Context) BufferDataSize(target uint32, size int64, usage uint32) {
	if size < 0 {
		c.setError(INVALID_VALUE, "bufferData", "negative size")
		return
	}
	if !validUsage(usage) {
		c.setError(INVALID_ENUM, "bufferData", "bad usage")
		return
	}
	b := c.boundBuffer("bufferData", target)
	if b == nil {
		return
	}
	b.data = make([]byte, size)
	b.usage = usage
}

// BufferSubData writes data at offset into the bound buffer.
func (c *Context) BufferSubData(target uint32, offset int64, data []byte) {
	if offset < 0 {
		c.setError(INVALID_VALUE, "bufferSubData", "negative offset")
		return
	}
	b := c.boundBuffer("bufferSubData", target)
	if b == nil {
		return
	}
	if offset+int64(len(data)) > int64(len(b.data)) {
		c.setError(INVALID_VALUE, "bufferSubData", "data exceeds buffer size")
		return
	}
	copy(b.data[offset:], data)
	c.stats.BufferBytes += int64(len(data))
}

// CreateTexture creates a texture.
func (c *Context) CreateTexture() *Texture {
	return &Texture{
		object: c.newObject(),
		levels: make(map[uint64]level),
		params: map[uint32]int32{
			TEXTURE_MIN_FILTER: NEAREST_MIPMAP_LINEAR,
			TEXTURE_MAG_FILTER: LINEAR,
			TEXTURE_WRAP_S:     REPEAT,
			TEXTURE_WRAP_T:     REPEAT,
		},
	}
}

// DeleteTexture deletes t, unbinding it from every unit and detaching it
// from the bound framebuffer.
func (c *Context) DeleteTexture(t *Texture) {
	if t == nil || t.deleted || !valid(c, "deleteTexture", t, false) {
		return
	}
	t.deleted = true
	for i := range c.textures {
		if c.textures[i].tex2D == t {
			c.textures[i].tex2D = nil
		}
		if c.textures[i].cube == t {
			c.textures[i].cube = nil
		}
	}
	if fb := c.framebuffer; fb != nil {
		for k, a := range fb.attachments {
			if a.tex == t {
				delete(fb.attachments, k)
			}
		}
	}
}

// ActiveTexture selects the texture unit for binds.
func (c *Context) ActiveTexture(unit uint32) {
	if unit < TEXTURE0 || unit >= TEXTURE0+MaxTextureUnits {
		c.setError(INVALID_ENUM, "activeTexture", "bad unit")
		return
	}
	c.st.activeTexture = unit - TEXTURE0
}

// BindTexture binds t to target on the active unit.
func (c *Context) BindTexture(target uint32, t *Texture) {
	if target != TEXTURE_2D && target != TEXTURE_CUBE_MAP {
		c.setError(INVALID_ENUM, "bindTexture", "bad target")
		return
	}
	if !valid(c, "bindTexture", t, true) {
		return
	}
	if t != nil {
		if t.target != 0 && t.target != target {
			c.setError(INVALID_OPERATION, "bindTexture", "texture bound to another target")
			return
		}
		t.target = target
	}
	unit := &c.textures[c.st.activeTexture]
	if target == TEXTURE_2D {
		unit.tex2D = t
	} else {
		unit.cube = t
	}
}

// boundTexture resolves a texture or texture image target to the bound
// texture and the image face.
func (c *Context) boundTexture(fn string, target uint32, image bool) (*Texture, uint32) {
	unit := c.textures[c.st.activeTexture]
	var t *Texture
	switch {
	case target == TEXTURE_2D:
		t = unit.tex2D
	case target == TEXTURE_CUBE_MAP && !image:
		t = unit.cube
	case image && target >= TEXTURE_CUBE_MAP_POSITIVE_X && target <= TEXTURE_CUBE_MAP_NEGATIVE_Z:
		t = unit.cube
	default:
		c.setError(INVALID_ENUM, fn, "bad target")
		return nil, 0
	}
	if t == nil {
		c.setError(INVALID_OPERATION, fn, "no texture bound")
	}
	return t, target
}

// TexParameteri sets a texture parameter.
func (c *Context) TexParameteri(target, pname uint32, param int32) {
	t, _ := c.boundTexture("texParameteri", target, false)
	if t == nil {
		return
	}
	ok := false
	switch pname {
	case TEXTURE_MAG_FILTER:
		ok = param == NEAREST || param == LINEAR
	case TEXTURE_MIN_FILTER:
		ok = param == NEAREST || param == LINEAR || param >= NEAREST_MIPMAP_NEAREST && param <= LINEAR_MIPMAP_LINEAR
	case TEXTURE_WRAP_S, TEXTURE_WRAP_T:
		ok = param == REPEAT || param == CLAMP_TO_EDGE || param == MIRRORED_REPEAT
	}
	if !ok {
		c.setError(INVALID_ENUM, "texParameteri", "bad parameter")
		return
	}
	t.params[pname] = param
}

func bytesPerPixel(format, typ uint32) (int, bool) {
	switch typ {
	case UNSIGNED_BYTE:
		switch format {
		case ALPHA, LUMINANCE:
			return 1, true
		case LUMINANCE_ALPHA:
			return 2, true
		case RGB:
			return 3, true
		case RGBA:
			return 4, true
		}
	case UNSIGNED_SHORT_5_6_5:
		return 2, format == RGB
	case UNSIGNED_SHORT_4_4_4_4, UNSIGNED_SHORT_5_5_5_1:
		return 2, format == RGBA
	}
	return 0, false
}

func validFormat(f uint32) bool {
	switch f {
	case ALPHA, LUMINANCE, LUMINANCE_ALPHA, RGB, RGBA:
		return true
	}
	return false
}

// imageSize is the unpacked byte size of a w x h image.
func (c *Context) imageSize(w, h, bpp int) int {
	if w == 0 || h == 0 {
		return 0
	}
	align := int(c.st.unpack[UNPACK_ALIGNMENT])
	row := w * bpp
	stride := (row + align - 1) / align * align
	return (h-1)*stride + row
}

func (c *Context) checkLevel(fn string, target uint32, lvl, w, h int32) bool {
	if lvl < 0 || w < 0 || h < 0 || lvl > 31 {
		c.setError(INVALID_VALUE, fn, "negative level or size")
		return false
	}
	if w > MaxTextureSize>>lvl || h > MaxTextureSize>>lvl {
		c.setError(INVALID_VALUE, fn, "size exceeds MAX_TEXTURE_SIZE")
		return false
	}
	if target != TEXTURE_2D && w != h {
		c.setError(INVALID_VALUE, fn, "cube faces must be square")
		return false
	}
	return true
}

// TexImage2D defines a texture image from client memory. pixels may be nil,
// leaving the image uninitialized.
func (c *Context) TexImage2D(target uint32, lvl int32, internalFormat uint32, w, h, border int32, format, typ uint32, pixels []byte) {
	const fn = "texImage2D"
	t, face := c.boundTexture(fn, target, true)
	if t == nil {
		return
	}
	if !validFormat(format) || !validFormat(internalFormat) {
		c.setError(INVALID_ENUM, fn, "bad format")
		return
	}
	bpp, ok := bytesPerPixel(format, typ)
	if !ok {
		c.setError(INVALID_ENUM, fn, "bad type")
		return
	}
	if border != 0 {
		c.setError(INVALID_VALUE, fn, "border must be 0")
		return
	}
	if internalFormat != format {
		c.setError(INVALID_OPERATION, fn, "internalformat does not match format")
		return
	}
	if !c.checkLevel(fn, target, lvl, w, h) {
		return
	}
	if pixels != nil && len(pixels) < c.imageSize(int(w), int(h), bpp) {
		c.setError(INVALID_OPERATION, fn, "pixel data too small")
		return
	}
	t.levels[levelKey(face, lvl)] = level{width: int(w), height: int(h), format: format, typ: typ, defined: true}
	c.stats.TextureUploads++
}

// TexImage2DSource defines a texture image from an image or canvas
// element. Other sources are a TypeError.
func (c *Context) TexImage2DSource(target uint32, lvl int32, internalFormat, format, typ uint32, source any) error {
	var w, h int32
	switch s := source.(type) {
	case *dom.Image:
		w, h = int32(s.NaturalWidth), int32(s.NaturalHeight)
	case *dom.Canvas:
		w, h = int32(s.Width), int32(s.Height)
	default:
		return jsvalue.NewTypeError("Failed to execute 'texImage2D' on 'WebGLRenderingContext': Overload resolution failed.")
	}
	c.TexImage2D(target, lvl, internalFormat, w, h, 0, format, typ, nil)
	return nil
}

// TexSubImage2D updates a region of a defined texture image.
func (c *Context) TexSubImage2D(target uint32, lvl, x, y, w, h int32, format, typ uint32, pixels []byte) {
	const fn = "texSubImage2D"
	t, face := c.boundTexture(fn, target, true)
	if t == nil {
		return
	}
	bpp, ok := bytesPerPixel(format, typ)
	if !ok || !validFormat(format) {
		c.setError(INVALID_ENUM, fn, "bad format or type")
		return
	}
	l, defined := t.levels[levelKey(face, lvl)]
	if !defined {
		c.setError(INVALID_OPERATION, fn, "level not defined")
		return
	}
	if x < 0 || y < 0 || w < 0 || h < 0 || int(x+w) > l.width || int(y+h) > l.height {
		c.setError(INVALID_VALUE, fn, "region outside the image")
		return
	}
	if format != l.format || typ != l.typ {
		c.setError(INVALID_OPERATION, fn, "format or type mismatch")
		return
	}
	if len(pixels) < c.imageSize(int(w), int(h), bpp) {
		c.setError(INVALID_OPERATION, fn, "pixel data too small")
		return
	}
	c.stats.TextureUploads++
}

// CopyTexSubImage2D copies from the bound framebuffer into a texture
// region.
func (c *Context) CopyTexSubImage2D(target uint32, lvl, xoff, yoff, x, y, w, h int32) {
	const fn = "copyTexSubImage2D"
	t, face := c.boundTexture(fn, target, true)
	if t == nil {
		return
	}
	l, defined := t.levels[levelKey(face, lvl)]
	if !defined {
		c.setError(INVALID_OPERATION, fn, "level not defined")
		return
	}
	if xoff < 0 || yoff < 0 || w < 0 || h < 0 || int(xoff+w) > l.width || int(yoff+h) > l.height {
		c.setError(INVALID_VALUE, fn, "region outside the image")
		return
	}
	if c.CheckFramebufferStatus(FRAMEBUFFER) != FRAMEBUFFER_COMPLETE {
		c.setError(INVALID_FRAMEBUFFER_OPERATION, fn, "framebuffer incomplete")
	}
}

func powerOfTwo(n int) bool { return n > 0 && n&(n-1) == 0 }

// GenerateMipmap defines every mip level from level 0. WebGL 1 requires
// power-of-two dimensions.
func (c *Context) GenerateMipmap(target uint32) {
	const fn = "generateMipmap"
	t, _ := c.boundTexture(fn, target, false)
	if t == nil {
		return
	}
	images := []uint32{TEXTURE_2D}
	if target == TEXTURE_CUBE_MAP {
		images = images[:0]
		for f := uint32(TEXTURE_CUBE_MAP_POSITIVE_X); f <= TEXTURE_CUBE_MAP_NEGATIVE_Z; f++ {
			images = append(images, f)
		}
	}
	for _, f := range images {
		base, ok := t.levels[levelKey(f, 0)]
		if !ok || !powerOfTwo(base.width) || !powerOfTwo(base.height) {
			c.setError(INVALID_OPERATION, fn, "level 0 undefined or not power of two")
			return
		}
	}
	for _, f := range images {
		base := t.levels[levelKey(f, 0)]
		w, h := base.width, base.height
		for lvl := int32(1); w > 1 || h > 1; lvl++ {
			w, h = max(w/2, 1), max(h/2, 1)
			t.levels[levelKey(f, lvl)] = level{width: w, height: h, format: base.format, typ: base.typ, defined: true}
		}
	}
}

// CreateFramebuffer creates a framebuffer.
func (c *Context) CreateFramebuffer() *Framebuffer {
	return &Framebuffer{object: c.newObject(), attachments: make(map[uint32]attachment)}
}

// DeleteFramebuffer deletes f, reverting to the default framebuffer if f
// was bound.
func (c *Context) DeleteFramebuffer(f *Framebuffer) {
	if f == nil || f.deleted || !valid(c, "deleteFramebuffer", f, false) {
		return
	}
	f.deleted = true
	if c.framebuffer == f {
		c.framebuffer = nil
	}
}

// BindFramebuffer binds f, or the default framebuffer for nil.
func (c *Context) BindFramebuffer(target uint32, f *Framebuffer) {
	if target != FRAMEBUFFER {
		c.setError(INVALID_ENUM, "bindFramebuffer", "bad target")
		return
	}
	if !valid(c, "bindFramebuffer", f, true) {
		return
	}
	if f != nil {
		f.bound = true
	}
	c.framebuffer = f
}

func validAttachment(a uint32) bool {
	return a == COLOR_ATTACHMENT0 || a == DEPTH_ATTACHMENT || a == STENCIL_ATTACHMENT || a == DEPTH_STENCIL_ATTACHMENT
}

func (c *Context) attachTarget(fn string, target, att uint32) *Framebuffer {
	if target != FRAMEBUFFER || !validAttachment(att) {
		c.setError(INVALID_ENUM, fn, "bad target or attachment")
		return nil
	}
	if c.framebuffer == nil {
		c.setError(INVALID_OPERATION, fn, "default framebuffer bound")
		return nil
	}
	return c.framebuffer
}

// FramebufferTexture2D attaches a texture image, or detaches for nil.
func (c *Context) FramebufferTexture2D(target, att, texTarget uint32, t *Texture, lvl int32) {
	const fn = "framebufferTexture2D"
	fb := c.attachTarget(fn, target, att)
	if fb == nil || !valid(c, fn, t, true) {
		return
	}
	if t == nil {
		delete(fb.attachments, att)
		return
	}
	if texTarget != TEXTURE_2D && (texTarget < TEXTURE_CUBE_MAP_POSITIVE_X || texTarget > TEXTURE_CUBE_MAP_NEGATIVE_Z) {
		c.setError(INVALID_ENUM, fn, "bad texture target")
		return
	}
	if lvl != 0 {
		c.setError(INVALID_VALUE, fn, "level must be 0")
		return
	}
	fb.attachments[att] = attachment{tex: t, face: texTarget, level: lvl, target: texTarget}
}

// CreateRenderbuffer creates a renderbuffer.
func (c *Context) CreateRenderbuffer() *Renderbuffer {
	return &Renderbuffer{object: c.newObject()}
}

// DeleteRenderbuffer deletes r, unbinding and detaching it.
func (c *Context) DeleteRenderbuffer(r *Renderbuffer) {
	if r == nil || r.deleted || !valid(c, "deleteRenderbuffer", r, false) {
		return
	}
	r.deleted = true
	if c.renderbuffer == r {
		c.renderbuffer = nil
	}
	if fb := c.framebuffer; fb != nil {
		for k, a := range fb.attachments {
			if a.rb == r {
				delete(fb.attachments, k)
			}
		}
	}
}

// BindRenderbuffer binds r.
func (c *Context) BindRenderbuffer(target uint32, r *Renderbuffer) {
	if target != RENDERBUFFER {
		c.setError(INVALID_ENUM, "bindRenderbuffer", "bad target")
		return
	}
	if !valid(c, "bindRenderbuffer", r, true) {
		return
	}
	if r != nil {
		r.bound = true
	}
	c.renderbuffer = r
}

// RenderbufferStorage allocates the bound renderbuffer.
func (c *Context) RenderbufferStorage(target, format uint32, w, h int32) {
	const fn = "renderbufferStorage"
	if target != RENDERBUFFER {
		c.setError(INVALID_ENUM, fn, "bad target")
		return
	}
	switch format {
	case RGBA4, RGB5_A1, RGB565, DEPTH_COMPONENT16, STENCIL_INDEX8, DEPTH_STENCIL:
	default:
		c.setError(INVALID_ENUM, fn, "bad internalformat")
		return
	}
	if w < 0 || h < 0 || w > MaxRenderbufferSize || h > MaxRenderbufferSize {
		c.setError(INVALID_VALUE, fn, "bad size")
		return
	}
	if c.renderbuffer == nil {
		c.setError(INVALID_OPERATION, fn, "no renderbuffer bound")
		return
	}
	c.renderbuffer.format, c.renderbuffer.width, c.renderbuffer.height = format, int(w), int(h)
}

// FramebufferRenderbuffer attaches a renderbuffer, or detaches for nil.
func (c *Context) FramebufferRenderbuffer(target, att, rbTarget uint32, r *Renderbuffer) {
	const fn = "framebufferRenderbuffer"
	fb := c.attachTarget(fn, target, att)
	if fb == nil || !valid(c, fn, r, true) {
		return
	}
	if rbTarget != RENDERBUFFER {
		c.setError(INVALID_ENUM, fn, "bad renderbuffer target")
		return
	}
	if r == nil {
		delete(fb.attachments, att)
		return
	}
	fb.attachments[att] = attachment{rb: r, target: rbTarget}
}

// CheckFramebufferStatus reports completeness of the bound framebuffer.
// The default framebuffer is always complete.
func (c *Context) CheckFramebufferStatus(target uint32) uint32 {
	if target != FRAMEBUFFER {
		c.setError(INVALID_ENUM, "checkFramebufferStatus", "bad target")
		return 0
	}
	fb := c.framebuffer
	if fb == nil {
		return FRAMEBUFFER_COMPLETE
	}
	if len(fb.attachments) == 0 {
		return FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT
	}
	w, h := -1, -1
	for att, a := range fb.attachments {
		aw, ah := a.size()
		if aw == 0 || ah == 0 || !attachmentFormatOK(att, a) {
			return FRAMEBUFFER_INCOMPLETE_ATTACHMENT
		}
		if w >= 0 && (aw != w || ah != h) {
			return FRAMEBUFFER_INCOMPLETE_DIMENSIONS
		}
		w, h = aw, ah
	}
	_, depth := fb.attachments[DEPTH_ATTACHMENT]
	_, stencil := fb.attachments[STENCIL_ATTACHMENT]
	_, both := fb.attachments[DEPTH_STENCIL_ATTACHMENT]
	if both && (depth || stencil) || depth && stencil {
		return FRAMEBUFFER_UNSUPPORTED
	}
	return FRAMEBUFFER_COMPLETE
}

func attachmentFormatOK(att uint32, a attachment) bool {
	if a.tex != nil {
		l := a.tex.levels[levelKey(a.face, a.level)]
		return att == COLOR_ATTACHMENT0 && (l.format == RGBA || l.format == RGB)
	}
	switch att {
	case COLOR_ATTACHMENT0:
		return a.rb.format == RGBA4 || a.rb.format == RGB5_A1 || a.rb.format == RGB565
	case DEPTH_ATTACHMENT:
		return a.rb.format == DEPTH_COMPONENT16
	case STENCIL_ATTACHMENT:
		return a.rb.format == STENCIL_INDEX8
	case DEPTH_STENCIL_ATTACHMENT:
		return a.rb.format == DEPTH_STENCIL
	}
	return false
}
