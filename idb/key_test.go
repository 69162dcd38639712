package idb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wbg-runtime/jsvalue"
)

func posInf() float64 { return math.Inf(1) }

func TestCompareKeys_TypeOrder(t *testing.T) {
	ordered := []any{
		math.Inf(-1), -10.0, -0.5, 0.0, 1.0, 1.5, 1e300, math.Inf(1),
		"", "\x00", "a", "a\x00", "ab", "b",
		jsvalue.Uint8ArrayOf(nil), jsvalue.Uint8ArrayOf([]byte{0}), jsvalue.Uint8ArrayOf([]byte{1}),
		jsvalue.NewArray(), jsvalue.NewArray(0.0), jsvalue.NewArray(0.0, "x"), jsvalue.NewArray("a"),
	}
	for i := 0; i+1 < len(ordered); i++ {
		c, err := CompareKeys(ordered[i], ordered[i+1])
		require.NoError(t, err)
		assert.Equal(t, -1, c, "%s < %s", jsvalue.DebugString(ordered[i]), jsvalue.DebugString(ordered[i+1]))
	}

	c, err := CompareKeys(math.Copysign(0, -1), 0.0)
	require.NoError(t, err)
	assert.Zero(t, c, "-0 equals 0")
}

func TestEncodeKey_Invalid(t *testing.T) {
	for _, k := range []any{math.NaN(), true, jsvalue.Null{}, jsvalue.Undefined{}, jsvalue.NewObject(), jsvalue.NewArray(math.NaN())} {
		_, err := EncodeKey(k)
		require.Error(t, err, jsvalue.DebugString(k))
		assert.Equal(t, jsvalue.DataError, err.(*jsvalue.Error).Name)
	}
}

func TestDecodeKey_RoundTrip(t *testing.T) {
	keys := []any{-3.25, "héllo\x00\x01", jsvalue.NewArray(1.0, jsvalue.NewArray("x"))}
	for _, k := range keys {
		enc, err := EncodeKey(k)
		require.NoError(t, err)
		got, err := DecodeKey(enc)
		require.NoError(t, err)
		c, err := CompareKeys(k, got)
		require.NoError(t, err)
		assert.Zero(t, c, jsvalue.DebugString(k))
	}
}

func TestCompareKeys_UTF16Order(t *testing.T) {
	// U+1F600 is the surrogate pair D83D DE00, below U+FF61 in code units
	c, err := CompareKeys("\U0001F600", "\uFF61")
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = CompareKeys("\uFF61", "\U0001F600")
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	for _, k := range []string{"\U0001F600", "\uFF61x", "a\U0001F600\x00"} {
		enc, err := EncodeKey(k)
		require.NoError(t, err)
		got, err := DecodeKey(enc)
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
}

func TestKeyRange(t *testing.T) {
	r, err := NewKeyRange(1.0, 5.0, true, false)
	require.NoError(t, err)
	for k, want := range map[float64]bool{0: false, 1: false, 3: true, 5: true, 6: false} {
		got, err := r.Includes(k)
		require.NoError(t, err)
		assert.Equal(t, want, got, "%v", k)
	}

	_, err = NewKeyRange(5.0, 1.0, false, false)
	assert.Error(t, err)
	_, err = NewKeyRange(1.0, 1.0, true, false)
	assert.Error(t, err)

	only, err := Only("a")
	require.NoError(t, err)
	in, _ := only.Includes("a")
	out, _ := only.Includes("b")
	assert.True(t, in)
	assert.False(t, out)
}

func TestKeyPath(t *testing.T) {
	v := jsvalue.ObjectOf("a", jsvalue.ObjectOf("b", 7.0), "s", "str")

	kp, err := ParseKeyPath("a.b")
	require.NoError(t, err)
	got, ok := kp.Extract(v)
	require.True(t, ok)
	assert.Equal(t, 7.0, got)

	kp, err = ParseKeyPath(jsvalue.NewArray("s", "a.b"))
	require.NoError(t, err)
	got, ok = kp.Extract(v)
	require.True(t, ok)
	assert.Equal(t, []any{"str", 7.0}, got.(*jsvalue.Array).Elems)

	kp, _ = ParseKeyPath("s.length")
	got, ok = kp.Extract(v)
	require.True(t, ok)
	assert.Equal(t, 3.0, got)

	kp, _ = ParseKeyPath("missing.x")
	_, ok = kp.Extract(v)
	assert.False(t, ok)

	for _, bad := range []any{"a..b", ".a", jsvalue.NewArray(), 5.0} {
		_, err := ParseKeyPath(bad)
		assert.Error(t, err, jsvalue.DebugString(bad))
	}

	kp, _ = ParseKeyPath("x.y")
	target := jsvalue.NewObject()
	require.NoError(t, kp.inject(target, 3.0))
	got, ok = kp.Extract(target)
	require.True(t, ok)
	assert.Equal(t, 3.0, got)
}
