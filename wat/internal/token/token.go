// Package token splits WebAssembly text into s-expression tokens.
package token

import (
	"fmt"
	"strings"
)

// Type is the lexical class of a token.
type Type int

const (
	LParen Type = iota
	RParen
	Keyword // instruction names, field keywords, offset=/align=
	Ident   // $name
	String  // raw text between quotes, escapes untouched
	Number
)

func (t Type) String() string {
	switch t {
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case Keyword:
		return "keyword"
	case Ident:
		return "identifier"
	case String:
		return "string"
	case Number:
		return "number"
	}
	return "unknown"
}

// Token is one lexeme with the line it started on.
type Token struct {
	Value string
	Type  Type
	Line  int
}

func (t Token) String() string {
	return fmt.Sprintf("line %d: %s %q", t.Line, t.Type, t.Value)
}

// Tokenize scans src. Comments are dropped; unterminated strings and block
// comments are errors.
func Tokenize(src string) ([]Token, error) {
	var (
		toks []Token
		line = 1
	)
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == ';' && i+1 < len(src) && src[i+1] == ';':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '(' && i+1 < len(src) && src[i+1] == ';':
			start := line
			depth := 0
			for ; i < len(src); i++ {
				switch {
				case strings.HasPrefix(src[i:], "(;"):
					depth++
					i++
				case strings.HasPrefix(src[i:], ";)"):
					depth--
					i++
				case src[i] == '\n':
					line++
				}
				if depth == 0 {
					i++
					break
				}
			}
			if depth != 0 {
				return nil, fmt.Errorf("line %d: unterminated block comment", start)
			}
		case c == '(':
			toks = append(toks, Token{"(", LParen, line})
			i++
		case c == ')':
			toks = append(toks, Token{")", RParen, line})
			i++
		case c == '"':
			j := i + 1
			for j < len(src) && src[j] != '"' {
				if src[j] == '\\' {
					j++
				}
				if j < len(src) && src[j] == '\n' {
					return nil, fmt.Errorf("line %d: newline in string", line)
				}
				j++
			}
			if j >= len(src) {
				return nil, fmt.Errorf("line %d: unterminated string", line)
			}
			toks = append(toks, Token{src[i+1 : j], String, line})
			i = j + 1
		default:
			j := i
			for j < len(src) && !isDelim(src[j]) {
				j++
			}
			if j == i {
				return nil, fmt.Errorf("line %d: unexpected %q", line, c)
			}
			word := src[i:j]
			toks = append(toks, Token{word, classify(word), line})
			i = j
		}
	}
	return toks, nil
}

func isDelim(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '(', ')', '"', ';':
		return true
	}
	return false
}

func classify(word string) Type {
	if word[0] == '$' {
		return Ident
	}
	body := strings.TrimLeft(word, "+-")
	if body != "" && body[0] >= '0' && body[0] <= '9' {
		return Number
	}
	switch body {
	case "inf", "nan":
		return Number
	}
	if strings.HasPrefix(body, "nan:") {
		return Number
	}
	return Keyword
}
