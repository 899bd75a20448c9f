// Package phpserial decodes data written by php's serialize function.
//
// [Parse] turns a byte buffer into a tree of [Value] nodes: [Bool], [Str], [Int],
// [Null] and [*Array]. Arrays keep their entries in the order they were
// encoded, keys are either integers or strings (see [Key]).
//
//	value, rest, err := phpserial.Parse([]byte(`a:2:{i:0;s:3:"foo";s:3:"bar";b:1;}`))
//
// The grammar understood by the parser:
//
//	value    := bool | string | int | null | array
//	bool     := "b:" ("0"|"1") ";"
//	string   := "s:" digits ":" "\"" <n bytes> "\";"
//	int      := "i:" ["-"] digits ";"
//	null     := "N;"
//	array    := "a:" digits ":" "{" <n key-value pairs> "}"
//	key      := string | int
//
// Floats, objects and references are not supported.
//
// [Unmarshal] goes one step further and stores the parsed tree in go values
// (structs, maps, slices, strings, ...) similar to [encoding/json.Unmarshal]. Struct
// fields are matched against string keys using the `php` struct tag.
package phpserial
