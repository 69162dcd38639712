package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/bindings"
	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/runtime"
	"github.com/wippyai/wbg-runtime/wat"
)

const guestWAT = `(module
	(import "` + bindings.Namespace + `" "__wbindgen_object_drop_ref" (func (param i32)))
	(import "` + bindings.Namespace + `" "__wbg_unknown_feedface00" (func))
	(memory (export "memory") 1)
	(func (export "add") (param i32 i32) (result i32)
		(i32.add (local.get 0) (local.get 1))))`

func guest(t *testing.T) []byte {
	t.Helper()
	bin, err := wat.Compile(guestWAT)
	require.NoError(t, err)
	return bin
}

func TestConvertArg(t *testing.T) {
	tests := []struct {
		in   string
		typ  wit.Type
		want any
	}{
		{"hello", wit.String{}, "hello"},
		{"42", wit.U32{}, uint32(42)},
		{"-7", wit.S32{}, int32(-7)},
		{"0x10", wit.U8{}, uint32(16)},
		{"9000000000", wit.S64{}, int64(9000000000)},
		{"1.5", wit.F64{}, 1.5},
		{"true", wit.Bool{}, true},
		{"é", wit.Char{}, uint32('é')},
	}
	for _, tt := range tests {
		got, err := convertArg(tt.in, tt.typ)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := convertArg("ab", wit.Char{})
	assert.Error(t, err)
	_, err = convertArg("x", wit.U32{})
	assert.Error(t, err)
}

func TestEncodeDecodeValue(t *testing.T) {
	v, err := encodeValue("-1", api.ValueTypeI32)
	require.NoError(t, err)
	assert.Equal(t, "-1", decodeValue(v, api.ValueTypeI32))

	v, err = encodeValue("4294967295", api.ValueTypeI32)
	require.NoError(t, err)
	assert.Equal(t, "-1", decodeValue(v, api.ValueTypeI32))

	_, err = encodeValue("4294967296", api.ValueTypeI32)
	assert.Error(t, err)

	v, err = encodeValue("0.25", api.ValueTypeF64)
	require.NoError(t, err)
	assert.Equal(t, "0.25", decodeValue(v, api.ValueTypeF64))

	_, err = encodeValue("1", api.ValueTypeExternref)
	assert.Error(t, err)
}

func TestPrintModule(t *testing.T) {
	ctx := context.Background()
	rt, err := runtime.New(ctx, nil)
	require.NoError(t, err)
	defer rt.Close(ctx)

	mod, err := rt.Compile(ctx, guest(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	printModule(&buf, mod, false)
	out := buf.String()
	assert.Contains(t, out, "add(i32, i32) -> i32")
	assert.Contains(t, out, "wbg imports: 1 resolved")
	assert.Contains(t, out, "intrinsics")
	assert.Contains(t, out, "__wbg_unknown_feedface00")
}

func TestConfigCommand(t *testing.T) {
	t.Setenv("WBG_WINDOW_HREF", "https://example.test/game/")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"config"})
	defer rootCmd.SetArgs(nil)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	assert.Contains(t, buf.String(), "https://example.test/game/")
	assert.Contains(t, buf.String(), "sample_rate: 44100")
}

func TestLocalPath(t *testing.T) {
	p, err := localPath("file:///tmp/game.wasm")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/game.wasm", p)

	_, err = localPath("https://cdn.example/game.wasm")
	assert.Error(t, err)

	assert.Equal(t, "game", moduleBase("/srv/game.wasm"))
	assert.Equal(t, "game", moduleBase("https://cdn.example/game.wasm?v=3"))
}

func TestWatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.wasm")
	require.NoError(t, os.WriteFile(path, guest(t), 0o644))

	changed, stop, err := watchFile(path, zap.NewNop())
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.txt"), []byte("x"), 0o644))
	select {
	case <-changed:
		t.Fatal("unrelated file triggered a reload")
	case <-time.After(2 * debouncePeriod):
	}

	require.NoError(t, os.WriteFile(path, guest(t), 0o644))
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change signalled")
	}
}

func TestInspector_Update(t *testing.T) {
	m := newInspector("game.wasm", "session-1")
	assert.Contains(t, m.View(), "Loading module")

	_, cmd := m.Update(overlayMsg(dom.Overlay{Title: "Loading assets", Error: "shader failed"}))
	assert.Nil(t, cmd)
	view := m.View()
	assert.Contains(t, view, "shader failed")
	assert.Contains(t, view, "session-1")

	// Keys without an instance are dropped.
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	assert.Nil(t, cmd)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	m.Update(errMsg{assertErr("boom")})
	assert.True(t, strings.Contains(m.View(), "Error: boom"))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
