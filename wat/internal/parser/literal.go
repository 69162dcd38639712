package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wippyai/wbg-runtime/wat/internal/token"
)

func (p *Parser) number() (*token.Token, string, error) {
	t, err := p.expect(token.Number)
	if err != nil {
		return nil, "", err
	}
	return t, strings.ReplaceAll(t.Value, "_", ""), nil
}

func (p *Parser) u32() (uint32, error) {
	t, s, err := p.number()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, p.errorf(t, "invalid u32 %s", t.Value)
	}
	return uint32(v), nil
}

// i32 accepts signed values and unsigned ones up to 2^32-1, which wrap.
func (p *Parser) i32() (int32, error) {
	t, s, err := p.number()
	if err != nil {
		return 0, err
	}
	if v, err := strconv.ParseInt(s, 0, 32); err == nil {
		return int32(v), nil
	}
	if v, err := strconv.ParseUint(strings.TrimPrefix(s, "+"), 0, 32); err == nil {
		return int32(uint32(v)), nil
	}
	return 0, p.errorf(t, "invalid i32 %s", t.Value)
}

func (p *Parser) i64() (int64, error) {
	t, s, err := p.number()
	if err != nil {
		return 0, err
	}
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return v, nil
	}
	if v, err := strconv.ParseUint(strings.TrimPrefix(s, "+"), 0, 64); err == nil {
		return int64(v), nil
	}
	return 0, p.errorf(t, "invalid i64 %s", t.Value)
}

func (p *Parser) float(bits int) (float64, error) {
	t, s, err := p.number()
	if err != nil {
		return 0, err
	}
	neg := strings.HasPrefix(s, "-")
	body := strings.TrimLeft(s, "+-")
	var v float64
	switch {
	case body == "inf":
		v = math.Inf(1)
	case body == "nan" || strings.HasPrefix(body, "nan:"):
		v = math.NaN()
	default:
		if strings.HasPrefix(body, "0x") && !strings.ContainsAny(body, "pP") {
			body += "p0"
		}
		v, err = strconv.ParseFloat(body, bits)
		if err != nil {
			return 0, p.errorf(t, "invalid f%d %s", bits, t.Value)
		}
	}
	if neg {
		v = math.Copysign(v, -1)
	}
	return v, nil
}

// text decodes a string token's escapes.
func (p *Parser) text() ([]byte, error) {
	t, err := p.expect(token.String)
	if err != nil {
		return nil, err
	}
	b, err := unescape(t.Value)
	if err != nil {
		return nil, p.errorf(t, "%v", err)
	}
	return b, nil
}

func (p *Parser) name() (string, error) {
	b, err := p.text()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("name %q is not valid UTF-8", b)
	}
	return string(b), nil
}

func unescape(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			out = append(out, s[i])
			continue
		}
		i++
		if i >= len(s) {
			return nil, fmt.Errorf("dangling escape")
		}
		switch c := s[i]; c {
		case 't':
			out = append(out, '\t')
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case '"', '\'', '\\':
			out = append(out, c)
		case 'u':
			end := strings.IndexByte(s[i:], '}')
			if i+1 >= len(s) || s[i+1] != '{' || end < 0 {
				return nil, fmt.Errorf("malformed unicode escape")
			}
			cp, err := strconv.ParseUint(strings.ReplaceAll(s[i+2:i+end], "_", ""), 16, 32)
			if err != nil || cp > utf8.MaxRune || (cp >= 0xD800 && cp < 0xE000) {
				return nil, fmt.Errorf("invalid code point %s", s[i+2:i+end])
			}
			out = utf8.AppendRune(out, rune(cp))
			i += end
		default:
			if i+1 >= len(s) {
				return nil, fmt.Errorf("short hex escape")
			}
			v, err := strconv.ParseUint(s[i:i+2], 16, 8)
			if err != nil {
				return nil, fmt.Errorf("unknown escape \\%s", s[i:i+2])
			}
			out = append(out, byte(v))
			i++
		}
	}
	return out, nil
}
