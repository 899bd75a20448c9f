package phpserial

import (
	"fmt"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"strconv"
	"strings"
	"testing"
)

type pair struct {
	Key   Key
	Value Value
}

func arrayOf(pairs ...pair) *Array {
	arr := NewArray()
	for _, p := range pairs {
		arr.Set(p.Key, p.Value)
	}

	return arr
}

func stateOf(in string) (*parseState, []byte) {
	return &parseState{Parser: NewParser(), size: len(in)}, []byte(in)
}

func TestBoolean(t *testing.T) {
	st, in := stateOf("b:1;")
	value, rest, err := st.boolean(in)
	require.NoError(t, err)
	require.Equal(t, value, true)
	require.Empty(t, rest)

	st, in = stateOf("b:0;")
	value, rest, err = st.boolean(in)
	require.NoError(t, err)
	require.Equal(t, value, false)
	require.Empty(t, rest)

	st, in = stateOf("b:2;")
	_, _, err = st.boolean(in)
	require.ErrorIs(t, err, ErrTagMismatch)

	st, in = stateOf("b:1")
	_, _, err = st.boolean(in)
	require.ErrorIs(t, err, ErrTruncated)

	st, in = stateOf("b:1:")
	_, _, err = st.boolean(in)
	require.ErrorIs(t, err, ErrDelimiter)
}

func TestFieldLen(t *testing.T) {
	st, in := stateOf("a:12:{")
	length, rest, err := st.fieldLen(in, "a:")
	require.NoError(t, err)
	require.Equal(t, length, uint32(12))
	require.Equal(t, string(rest), "{")

	// leading zeros are accepted
	st, in = stateOf("s:007:")
	length, _, err = st.fieldLen(in, "s:")
	require.NoError(t, err)
	require.Equal(t, length, uint32(7))

	st, in = stateOf("s:3:")
	_, _, err = st.fieldLen(in, "a:")
	require.ErrorIs(t, err, ErrTagMismatch)

	st, in = stateOf("s::")
	_, _, err = st.fieldLen(in, "s:")
	require.ErrorIs(t, err, ErrLength)

	st, in = stateOf("s:3\"")
	_, _, err = st.fieldLen(in, "s:")
	require.ErrorIs(t, err, ErrLength)

	st, in = stateOf("s:4294967296:")
	_, _, err = st.fieldLen(in, "s:")
	require.ErrorIs(t, err, ErrNumber)
	require.ErrorIs(t, err, strconv.ErrRange)
}

func TestString(t *testing.T) {
	st, in := stateOf(`s:6:"string";`)
	value, rest, err := st.str(in)
	require.NoError(t, err)
	require.Equal(t, value, "string")
	require.Empty(t, rest)

	// the length counts bytes, not characters
	st, in = stateOf(`s:10:"āžčģā";`)
	value, rest, err = st.str(in)
	require.NoError(t, err)
	require.Equal(t, value, "āžčģā")
	require.Empty(t, rest)

	st, in = stateOf(`s:0:"";`)
	value, _, err = st.str(in)
	require.NoError(t, err)
	require.Equal(t, value, "")

	// payload may contain the delimiters
	st, in = stateOf(`s:4:"a";b";`)
	value, _, err = st.str(in)
	require.NoError(t, err)
	require.Equal(t, value, `a";b`)

	// payload must be valid utf-8
	st, in = stateOf("s:2:\"\xff\xfe\";")
	_, rest, err = st.str(in)
	require.ErrorIs(t, err, ErrEncoding)
	require.Equal(t, rest, in)
}

func TestStringEncoding(t *testing.T) {
	input := []byte("a:1:{i:0;s:2:\"\xff\xfe\";}")

	_, err := ParseAll(input)
	require.ErrorIs(t, err, ErrEncoding)

	// offset points at the first payload byte
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	require.Equal(t, syntaxErr.Offset, 14)

	// invalid utf-8 as array key
	_, err = ParseAll([]byte("a:1:{s:1:\"\x80\";N;}"))
	require.ErrorIs(t, err, ErrEncoding)

	parser := NewParser().WithMaxDepth(3).AllowBinaryStrings()
	require.Equal(t, parser.MaxDepth(), 3)

	value, err := parser.ParseAll(input)
	require.NoError(t, err)
	require.True(t, Equal(value, arrayOf(pair{IntKey(0), Str("\xff\xfe")})))

	// the default parser is not affected
	_, err = ParseAll(input)
	require.ErrorIs(t, err, ErrEncoding)
}

func TestStringLengthMismatch(t *testing.T) {
	st, in := stateOf(`s:5:"āžčģā";`)
	_, _, err := st.str(in)
	require.ErrorIs(t, err, ErrDelimiter)

	st, in = stateOf(`s:12:"āžčģā";`)
	_, _, err = st.str(in)
	require.ErrorIs(t, err, ErrTruncated)

	st, in = stateOf(`s:20:"short";`)
	_, _, err = st.str(in)
	require.ErrorIs(t, err, ErrTruncated)

	st, in = stateOf(`s:5:short";`)
	_, _, err = st.str(in)
	require.ErrorIs(t, err, ErrDelimiter)

	st, in = stateOf(`s:5:"short"`)
	_, _, err = st.str(in)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestInteger(t *testing.T) {
	for input, expected := range map[string]int64{
		"i:1;":                    1,
		"i:12;":                   12,
		"i:0;":                    0,
		"i:-1;":                   -1,
		"i:9223372036854775807;":  9223372036854775807,
		"i:-9223372036854775808;": -9223372036854775808,
	} {
		st, in := stateOf(input)
		value, rest, err := st.integer(in)
		require.NoError(t, err, input)
		require.Equal(t, value, expected)
		require.Empty(t, rest)
	}

	st, in := stateOf("i:9223372036854775808;")
	_, _, err := st.integer(in)
	require.ErrorIs(t, err, ErrNumber)
	require.ErrorIs(t, err, strconv.ErrRange)

	st, in = stateOf("i:;")
	_, _, err = st.integer(in)
	require.ErrorIs(t, err, ErrNumber)

	st, in = stateOf("i:1")
	_, _, err = st.integer(in)
	require.ErrorIs(t, err, ErrTruncated)

	st, in = stateOf("i:1.5;")
	_, _, err = st.integer(in)
	require.ErrorIs(t, err, ErrDelimiter)
}

func TestIntegerUnsignedOnly(t *testing.T) {
	parser := NewParser().UnsignedOnly()

	value, _, err := parser.Parse([]byte("i:12;"))
	require.NoError(t, err)
	require.Equal(t, value, Int(12))

	_, _, err = parser.Parse([]byte("i:-1;"))
	require.ErrorIs(t, err, ErrNumber)
}

func TestNull(t *testing.T) {
	st, in := stateOf("N;")
	rest, err := st.null(in)
	require.NoError(t, err)
	require.Empty(t, rest)

	st, in = stateOf("N:")
	_, err = st.null(in)
	require.ErrorIs(t, err, ErrTagMismatch)
}

func TestKey(t *testing.T) {
	st, in := stateOf(`s:6:"string";`)
	key, rest, err := st.key(in)
	require.NoError(t, err)
	require.Equal(t, key, StrKey("string"))
	require.Empty(t, rest)

	st, in = stateOf("i:1;")
	key, rest, err = st.key(in)
	require.NoError(t, err)
	require.Equal(t, key, IntKey(1))
	require.Empty(t, rest)

	for _, input := range []string{"b:1;", "N;", "a:0:{}"} {
		st, in = stateOf(input)
		_, _, err = st.key(in)
		require.ErrorIs(t, err, ErrKeyType, input)
	}

	st, in = stateOf("x:1;")
	_, _, err = st.key(in)
	require.ErrorIs(t, err, ErrTagMismatch)
}

func TestKeyVal(t *testing.T) {
	st, in := stateOf("i:1;i:1;")
	key, value, rest, err := st.keyval(in, 0)
	require.NoError(t, err)
	require.Equal(t, key, IntKey(1))
	require.Equal(t, value, Int(1))
	require.Empty(t, rest)

	st, in = stateOf("i:1;")
	_, _, _, err = st.keyval(in, 0)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestArray(t *testing.T) {
	st, in := stateOf("a:2:{i:0;N;i:1;N;}")
	arr, rest, err := st.array(in, 0)
	require.NoError(t, err)
	require.Empty(t, rest)

	require.Equal(t, arr.Keys(), []Key{IntKey(0), IntKey(1)})
	require.Equal(t, arr.Values(), []Value{Null{}, Null{}})
	require.True(t, arr.IsList())

	st, in = stateOf("a:0:{}")
	arr, _, err = st.array(in, 0)
	require.NoError(t, err)
	require.Equal(t, arr.Len(), 0)
}

func TestArrayKeepsEncodedOrder(t *testing.T) {
	value, err := ParseAll([]byte(`a:3:{s:1:"z";i:1;i:5;i:2;s:1:"a";i:3;}`))
	require.NoError(t, err)

	arr := value.(*Array)
	require.Equal(t, arr.Keys(), []Key{StrKey("z"), IntKey(5), StrKey("a")})
	require.Equal(t, arr.Values(), []Value{Int(1), Int(2), Int(3)})
	require.False(t, arr.IsList())
}

func TestArrayDuplicateKey(t *testing.T) {
	value, err := ParseAll([]byte(`a:3:{i:0;s:1:"a";i:1;s:1:"b";i:0;s:1:"c";}`))
	require.NoError(t, err)

	arr := value.(*Array)
	require.Equal(t, arr.Keys(), []Key{IntKey(0), IntKey(1)})
	require.Equal(t, arr.Values(), []Value{Str("c"), Str("b")})
}

func TestArrayCountMismatch(t *testing.T) {
	_, _, err := Parse([]byte("a:3:{i:0;N;i:1;N;}"))
	require.ErrorIs(t, err, ErrTruncated)

	_, _, err = Parse([]byte("a:1:{i:0;N;i:1;N;}"))
	require.ErrorIs(t, err, ErrDelimiter)

	_, _, err = Parse([]byte("a:2:{i:0;N;"))
	require.ErrorIs(t, err, ErrTruncated)
}

func TestArrayMalformed(t *testing.T) {
	for input, expected := range map[string]error{
		"a:1:i:0;N;}":           ErrDelimiter,
		"a:1:{i:0;N;":           ErrTruncated,
		"a:x:{}":                ErrLength,
		"a:1{i:0;N;}":           ErrLength,
		"a:1:{b:1;N;}":          ErrKeyType,
		"a:1:{i:0;x;}":          ErrTagMismatch,
		"a:1:{i:0;a:1:{}}":      ErrTruncated,
		"a:99999999999:{}":      ErrNumber,
		"a:1:{i:0;s:1:\"ab\";}": ErrDelimiter,
	} {
		_, _, err := Parse([]byte(input))
		require.ErrorIs(t, err, expected, input)
	}
}

func TestValue(t *testing.T) {
	for input, expected := range map[string]Value{
		"b:0;":          Bool(false),
		`s:6:"string";`: Str("string"),
		"i:1;":          Int(1),
		"N;":            Null{},
	} {
		value, rest, err := Parse([]byte(input))
		require.NoError(t, err)
		require.Equal(t, value, expected)
		require.Empty(t, rest)
	}
}

func TestValueNested(t *testing.T) {
	mostInner := arrayOf(pair{IntKey(0), Int(1)})
	inner := arrayOf(pair{IntKey(0), mostInner})
	outer := arrayOf(pair{IntKey(0), inner})

	value, rest, err := Parse([]byte("a:1:{i:0;a:1:{i:0;a:1:{i:0;i:1;}}}"))
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Empty(t, cmp.Diff(Value(outer), value))
}

func TestValueUnknownTag(t *testing.T) {
	for _, input := range []string{"x", "d:1.5;", `O:8:"stdClass":0:{}`, "B:1;", " b:1;", "N"} {
		_, _, err := Parse([]byte(input))
		require.ErrorIs(t, err, ErrTagMismatch, input)
	}

	_, _, err := Parse(nil)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestParseRemainder(t *testing.T) {
	value, rest, err := Parse([]byte("i:1;i:2;"))
	require.NoError(t, err)
	require.Equal(t, value, Int(1))
	require.Equal(t, string(rest), "i:2;")

	_, err = ParseAll([]byte("i:1;i:2;"))
	require.ErrorIs(t, err, ErrTrailingData)

	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	require.Equal(t, syntaxErr.Offset, 4)
}

func TestSyntaxErrorOffset(t *testing.T) {
	_, _, err := Parse([]byte("a:1:{i:0;x}"))

	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	require.Equal(t, syntaxErr.Offset, 9)
	require.ErrorIs(t, err, ErrTagMismatch)
	require.Contains(t, err.Error(), "offset 9")
}

func nested(depth int) []byte {
	return []byte(strings.Repeat("a:1:{i:0;", depth) + "N;" + strings.Repeat("}", depth))
}

func TestMaxDepth(t *testing.T) {
	parser := NewParser().WithMaxDepth(2)

	_, err := parser.ParseAll(nested(2))
	require.NoError(t, err)

	_, err = parser.ParseAll(nested(3))
	require.ErrorIs(t, err, ErrTooDeep)

	_, err = ParseAll(nested(DefaultMaxDepth + 1))
	require.ErrorIs(t, err, ErrTooDeep)

	_, err = NewParser().WithMaxDepth(0).ParseAll(nested(DefaultMaxDepth + 1))
	require.NoError(t, err)
}

func TestParseIsDeterministic(t *testing.T) {
	input := []byte(`a:3:{s:4:"name";s:5:"Alice";s:4:"tags";a:2:{i:0;s:1:"a";i:1;s:1:"b";}s:6:"active";b:1;}`)

	first, err := ParseAll(input)
	require.NoError(t, err)

	var group errgroup.Group
	for idx := range 16 {
		group.Go(func() error {
			value, err := ParseAll(input)
			if err != nil {
				return err
			}

			if !Equal(first, value) {
				return fmt.Errorf("parse %d differs", idx)
			}

			return nil
		})
	}

	require.NoError(t, group.Wait())
}
