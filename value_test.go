package phpserial

import (
	"github.com/stretchr/testify/require"
	"testing"
)

func TestKind(t *testing.T) {
	require.Equal(t, Bool(true).Kind(), KindBool)
	require.Equal(t, Str("").Kind(), KindStr)
	require.Equal(t, Int(0).Kind(), KindInt)
	require.Equal(t, Null{}.Kind(), KindNull)
	require.Equal(t, NewArray().Kind(), KindArray)

	require.Equal(t, KindArray.String(), "array")
	require.Equal(t, Kind(42).String(), "Kind(42)")
}

func TestKeyAccessors(t *testing.T) {
	intKey := IntKey(-3)
	require.Equal(t, intKey.Kind(), KeyInt)
	require.Equal(t, intKey.String(), "-3")
	require.Equal(t, intKey.Value(), Int(-3))

	i, ok := intKey.Int()
	require.True(t, ok)
	require.Equal(t, i, int64(-3))

	_, ok = intKey.Str()
	require.False(t, ok)

	strKey := StrKey("name")
	require.Equal(t, strKey.Kind(), KeyStr)
	require.Equal(t, strKey.String(), "name")
	require.Equal(t, strKey.Value(), Str("name"))

	// usable as go map key, int and string keys never collide
	seen := map[Key]int{IntKey(1): 1, StrKey("1"): 2}
	require.Len(t, seen, 2)
	require.Equal(t, seen[IntKey(1)], 1)
}

func TestEqual(t *testing.T) {
	require.True(t, Equal(Int(1), Int(1)))
	require.False(t, Equal(Int(1), Str("1")))
	require.False(t, Equal(Bool(true), Bool(false)))
	require.True(t, Equal(Null{}, Null{}))
	require.True(t, Equal(nil, nil))
	require.False(t, Equal(NewArray(), Null{}))
	require.True(t, Equal(arrayOf(pair{IntKey(0), Str("a")}), arrayOf(pair{IntKey(0), Str("a")})))
}
