package token

import (
	"testing"
)

func TestTokenize(t *testing.T) {
	toks, err := Tokenize(`(module $m ;; line comment
  (; block (; nested ;) ;)
  (func (export "a\"b") (i32.const -0x10) (f64.const -inf) (i32.load offset=8)))`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}

	want := []struct {
		value string
		typ   Type
		line  int
	}{
		{"(", LParen, 1}, {"module", Keyword, 1}, {"$m", Ident, 1},
		{"(", LParen, 3}, {"func", Keyword, 3},
		{"(", LParen, 3}, {"export", Keyword, 3}, {`a\"b`, String, 3}, {")", RParen, 3},
		{"(", LParen, 3}, {"i32.const", Keyword, 3}, {"-0x10", Number, 3}, {")", RParen, 3},
		{"(", LParen, 3}, {"f64.const", Keyword, 3}, {"-inf", Number, 3}, {")", RParen, 3},
		{"(", LParen, 3}, {"i32.load", Keyword, 3}, {"offset=8", Keyword, 3}, {")", RParen, 3},
		{")", RParen, 3}, {")", RParen, 3},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Value != w.value || toks[i].Type != w.typ || toks[i].Line != w.line {
			t.Errorf("token %d = %v, want %q %s line %d", i, toks[i], w.value, w.typ, w.line)
		}
	}
}

func TestTokenizeErrors(t *testing.T) {
	for _, src := range []string{
		`(module "open`,
		`(module (; never closed`,
		"(data \"a\nb\")",
		`(module ; )`,
	} {
		if _, err := Tokenize(src); err == nil {
			t.Errorf("Tokenize(%q) succeeded", src)
		}
	}
}
