package phpserial

import (
	"fmt"
	"strconv"
)

// Kind identifies the variant of a Value.
type Kind uint8

const (
	KindBool Kind = iota + 1
	KindStr
	KindInt
	KindNull
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindStr:
		return "string"
	case KindInt:
		return "int"
	case KindNull:
		return "null"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is a node of a decoded tree. The set of implementations is closed:
// Bool, Str, Int, Null and *Array. Consumers are expected to type switch over them.
type Value interface {
	Kind() Kind

	isValue()
}

// Bool is a decoded `b:` value.
type Bool bool

// Str is a decoded `s:` value. It holds valid utf-8 unless the parser was
// configured with AllowBinaryStrings.
type Str string

// Int is a decoded `i:` value.
type Int int64

// Null is the decoded `N;` marker.
type Null struct{}

func (Bool) Kind() Kind { return KindBool }
func (Str) Kind() Kind { return KindStr }
func (Int) Kind() Kind { return KindInt }
func (Null) Kind() Kind { return KindNull }
func (*Array) Kind() Kind { return KindArray }

func (Bool) isValue() {}
func (Str) isValue() {}
func (Int) isValue() {}
func (Null) isValue() {}
func (*Array) isValue() {}

var (
	_ Value = Bool(false)
	_ Value = Str("")
	_ Value = Int(0)
	_ Value = Null{}
	_ Value = (*Array)(nil)
)

// Equal reports whether a and b are structurally equal. Arrays are compared
// entry by entry, including their order.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Bool, Str, Int, Null:
		return a == b

	case *Array:
		b, ok := b.(*Array)
		return ok && a.Equal(b)

	case nil:
		return b == nil

	default:
		return false
	}
}

// KeyKind identifies the variant of a Key.
type KeyKind uint8

const (
	KeyInt KeyKind = iota
	KeyStr
)

// Key is an array key, either an integer or a string. Keys are comparable and
// can be used as go map keys.
type Key struct {
	kind KeyKind
	i    int64
	s    string
}

// IntKey returns an integer key.
func IntKey(i int64) Key {
	return Key{kind: KeyInt, i: i}
}

// StrKey returns a string key.
func StrKey(s string) Key {
	return Key{kind: KeyStr, s: s}
}

func (k Key) Kind() KeyKind {
	return k.kind
}

// Int returns the integer payload. ok is false for string keys.
func (k Key) Int() (i int64, ok bool) {
	return k.i, k.kind == KeyInt
}

// Str returns the string payload. ok is false for integer keys.
func (k Key) Str() (s string, ok bool) {
	return k.s, k.kind == KeyStr
}

// String formats the key the way php prints array keys: integers in decimal,
// strings as is.
func (k Key) String() string {
	if k.kind == KeyInt {
		return strconv.FormatInt(k.i, 10)
	}

	return k.s
}

// Value converts the key into the value it was decoded from.
func (k Key) Value() Value {
	if k.kind == KeyInt {
		return Int(k.i)
	}

	return Str(k.s)
}
