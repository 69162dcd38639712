package wat

import (
	"github.com/wippyai/wbg-runtime/wat/internal/encoder"
	"github.com/wippyai/wbg-runtime/wat/internal/parser"
	"github.com/wippyai/wbg-runtime/wat/internal/token"
)

func Compile(source string) ([]byte, error) {
	tokens, err := token.Tokenize(source)
	if err != nil {
		return nil, err
	}
	p := parser.New(tokens)
	mod, err := p.Parse()
	if err != nil {
		return nil, err
	}
	return encoder.Encode(mod), nil
}
