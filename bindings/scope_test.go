package bindings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/eventloop"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

func TestScope_DelegatesToWindow(t *testing.T) {
	loop := eventloop.New()
	env := &Env{Window: dom.NewWindow(loop), Loop: loop}
	g := env.global()

	self, err := jsvalue.Get(g, "self")
	require.NoError(t, err)
	assert.Same(t, g, self)

	doc, err := jsvalue.Get(g, "document")
	require.NoError(t, err)
	assert.Same(t, env.Window.Document, doc)

	idb, err := jsvalue.Get(g, "indexedDB")
	require.NoError(t, err)
	assert.Equal(t, jsvalue.Undefined{}, idb)

	assert.True(t, jsvalue.InstanceOf(g, "Window"))
}

func TestScope_ExplicitGlobal(t *testing.T) {
	obj := jsvalue.NewObject()
	env := &Env{Global: obj}
	assert.Same(t, obj, env.global())
}
