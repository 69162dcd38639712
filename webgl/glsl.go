package webgl

import (
	"fmt"
	"strconv"
	"strings"
)

var glslTypes = map[string]uint32{
	"float":       FLOAT,
	"vec2":        FLOAT_VEC2,
	"vec3":        FLOAT_VEC3,
	"vec4":        FLOAT_VEC4,
	"int":         INT,
	"ivec2":       INT_VEC2,
	"ivec3":       INT_VEC3,
	"ivec4":       INT_VEC4,
	"bool":        BOOL,
	"bvec2":       BOOL_VEC2,
	"bvec3":       BOOL_VEC3,
	"bvec4":       BOOL_VEC4,
	"mat2":        FLOAT_MAT2,
	"mat3":        FLOAT_MAT3,
	"mat4":        FLOAT_MAT4,
	"sampler2D":   SAMPLER_2D,
	"samplerCube": SAMPLER_CUBE,
}

// components returns the scalar count of a GLSL type.
func components(typ uint32) int {
	switch typ {
	case FLOAT_VEC2, INT_VEC2, BOOL_VEC2:
		return 2
	case FLOAT_VEC3, INT_VEC3, BOOL_VEC3:
		return 3
	case FLOAT_VEC4, INT_VEC4, BOOL_VEC4, FLOAT_MAT2:
		return 4
	case FLOAT_MAT3:
		return 9
	case FLOAT_MAT4:
		return 16
	}
	return 1
}

func isFloatType(typ uint32) bool {
	switch typ {
	case FLOAT, FLOAT_VEC2, FLOAT_VEC3, FLOAT_VEC4, FLOAT_MAT2, FLOAT_MAT3, FLOAT_MAT4:
		return true
	}
	return false
}

func isIntType(typ uint32) bool {
	switch typ {
	case INT, INT_VEC2, INT_VEC3, INT_VEC4, SAMPLER_2D, SAMPLER_CUBE:
		return true
	}
	return false
}

func isBoolType(typ uint32) bool {
	switch typ {
	case BOOL, BOOL_VEC2, BOOL_VEC3, BOOL_VEC4:
		return true
	}
	return false
}

func isSampler(typ uint32) bool { return typ == SAMPLER_2D || typ == SAMPLER_CUBE }

type variable struct {
	name      string
	typ       uint32
	size      int
	precision string
}

type declarations struct {
	hasMain    bool
	attributes []variable
	uniforms   []variable
	varyings   []variable
}

type compileError struct {
	line int
	msg  string
}

func (e *compileError) Error() string {
	return fmt.Sprintf("ERROR: 0:%d: %s", e.line, e.msg)
}

// stripComments removes comments, keeping newlines so line numbers hold.
func stripComments(src string) string {
	var b strings.Builder
	for i := 0; i < len(src); i++ {
		switch {
		case strings.HasPrefix(src[i:], "//"):
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) {
				b.WriteByte('\n')
			}
		case strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			body := src[i:]
			if end >= 0 {
				body = src[i : i+2+end+2]
			}
			b.WriteString(strings.Repeat("\n", strings.Count(body, "\n")))
			i += len(body) - 1
		default:
			b.WriteByte(src[i])
		}
	}
	return b.String()
}

type statement struct {
	text string
	line int
}

// parseShader extracts the global declarations of a GLSL ES 1.00 shader.
func parseShader(src string, typ uint32) (*declarations, error) {
	src = stripComments(src)
	var stmts []statement
	var cur strings.Builder
	curLine, line, depth, parens := 1, 1, 0, 0
	d := &declarations{}
	floatPrecision := typ == VERTEX_SHADER

	for _, raw := range strings.SplitAfter(src, "\n") {
		if t := strings.TrimSpace(raw); strings.HasPrefix(t, "#") {
			if err := directive(t, line); err != nil {
				return nil, err
			}
			line++
			continue
		}
		for _, r := range raw {
			switch r {
			case '\n':
				line++
			case '(':
				parens++
			case ')':
				parens--
				if parens < 0 {
					return nil, &compileError{line, "'' : syntax error"}
				}
			case '{':
				if depth == 0 {
					header := strings.Join(strings.Fields(cur.String()), "")
					if header == "voidmain()" || header == "voidmain(void)" {
						d.hasMain = true
					}
					cur.Reset()
				}
				depth++
				continue
			case '}':
				depth--
				if depth < 0 {
					return nil, &compileError{line, "'}' : syntax error"}
				}
				continue
			case ';':
				if depth == 0 {
					stmts = append(stmts, statement{cur.String(), curLine})
					cur.Reset()
					continue
				}
			}
			if depth == 0 {
				if strings.TrimSpace(cur.String()) == "" {
					curLine = line
				}
				cur.WriteRune(r)
			}
		}
	}
	if depth != 0 || parens != 0 {
		return nil, &compileError{line, "'' : unexpected end of file"}
	}
	if !d.hasMain {
		return nil, &compileError{0, "'main' : function not defined"}
	}

	for _, st := range stmts {
		fields := strings.Fields(strings.NewReplacer(",", " , ", "[", " [ ", "]", " ] ").Replace(st.text))
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "precision" {
			if len(fields) == 3 && fields[2] == "float" {
				floatPrecision = true
			}
			continue
		}
		if fields[0] == "invariant" {
			fields = fields[1:]
		}
		if len(fields) < 3 {
			continue
		}
		qualifier := fields[0]
		if qualifier != "attribute" && qualifier != "uniform" && qualifier != "varying" {
			continue
		}
		fields = fields[1:]
		precision := ""
		if fields[0] == "lowp" || fields[0] == "mediump" || fields[0] == "highp" {
			precision, fields = fields[0], fields[1:]
		}
		vt, ok := glslTypes[fields[0]]
		if !ok || len(fields) < 2 {
			continue
		}
		if qualifier == "attribute" {
			if typ != VERTEX_SHADER {
				return nil, &compileError{st.line, "'attribute' : supported in vertex shaders only"}
			}
			if !isFloatType(vt) {
				return nil, &compileError{st.line, "'attribute' : cannot be bool or int"}
			}
		}
		if isFloatType(vt) && precision == "" && !floatPrecision {
			return nil, &compileError{st.line, "'' : No precision specified for (float)"}
		}
		vars, err := declarators(fields[1:], vt, precision, st.line)
		if err != nil {
			return nil, err
		}
		switch qualifier {
		case "attribute":
			d.attributes = append(d.attributes, vars...)
		case "uniform":
			d.uniforms = append(d.uniforms, vars...)
		case "varying":
			d.varyings = append(d.varyings, vars...)
		}
	}
	return d, nil
}

func directive(line string, n int) error {
	f := strings.Fields(strings.TrimPrefix(line, "#"))
	if len(f) >= 2 && f[0] == "version" && f[1] != "100" {
		return &compileError{n, "'" + f[1] + "' : version number not supported"}
	}
	return nil
}

// declarators parses "a , b [ 4 ] , c".
func declarators(fields []string, typ uint32, precision string, line int) ([]variable, error) {
	var out []variable
	for i := 0; i < len(fields); {
		name := fields[i]
		if !validIdent(name) {
			return nil, &compileError{line, "'" + name + "' : syntax error"}
		}
		v := variable{name: name, typ: typ, size: 1, precision: precision}
		i++
		if i+2 < len(fields) && fields[i] == "[" {
			n, err := strconv.Atoi(fields[i+1])
			if err != nil || n <= 0 || fields[i+2] != "]" {
				return nil, &compileError{line, "'" + name + "' : array size must be a positive integer"}
			}
			v.size = n
			i += 3
		}
		out = append(out, v)
		if i < len(fields) {
			if fields[i] != "," {
				return nil, &compileError{line, "'" + fields[i] + "' : syntax error"}
			}
			i++
		}
	}
	return out, nil
}

func validIdent(s string) bool {
	if s == "" || strings.HasPrefix(s, "gl_") {
		return false
	}
	for i, r := range s {
		if r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}
