package phpserial

import (
	"github.com/stretchr/testify/require"
	"testing"
)

func TestNative(t *testing.T) {
	value, err := ParseAll([]byte(`a:3:{s:4:"name";s:5:"Alice";s:4:"tags";a:2:{i:0;b:1;i:1;i:-2;}i:9;N;}`))
	require.NoError(t, err)

	require.Equal(t, Native(value), map[string]any{
		"name": "Alice",
		"tags": []any{true, int64(-2)},
		"9":    nil,
	})

	require.Nil(t, Native(Null{}))
	require.Nil(t, Native(nil))
	require.Equal(t, Native(NewArray()), []any{})
}

func TestNativeKeyCollision(t *testing.T) {
	value, err := ParseAll([]byte(`a:2:{i:1;s:1:"a";s:1:"1";s:1:"b";}`))
	require.NoError(t, err)

	// the later entry wins
	require.Equal(t, Native(value), map[string]any{"1": "b"})
}
