package phpserial

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// DefaultMaxDepth is the array nesting limit of parsers created by NewParser.
const DefaultMaxDepth = 512

// Parse parses a single value from the start of buf using the default parser.
// It returns the value and the bytes following it.
func Parse(buf []byte) (Value, []byte, error) {
	return defaultParser.Parse(buf)
}

// ParseAll parses buf using the default parser and requires that buf holds
// exactly one value.
func ParseAll(buf []byte) (Value, error) {
	return defaultParser.ParseAll(buf)
}

// The default Parser instance.
var defaultParser = NewParser()

// Parser holds the parse configuration. A Parser is never modified after
// construction and can be shared between goroutines.
type Parser struct {
	// maximum number of nested arrays, zero or less means unlimited
	maxDepth int

	// reject a sign in front of integer digits
	unsignedOnly bool

	// accept string payloads that are not valid utf-8
	allowBinary bool
}

func NewParser() *Parser {
	return &Parser{maxDepth: DefaultMaxDepth}
}

// WithMaxDepth returns a Parser that fails with ErrTooDeep once arrays are
// nested more than maxDepth levels. A value of zero or less disables the limit.
func (p *Parser) WithMaxDepth(maxDepth int) *Parser {
	if p.maxDepth == maxDepth {
		return p
	}

	copied := *p
	copied.maxDepth = maxDepth
	return &copied
}

// UnsignedOnly returns a Parser that only accepts integers without a sign,
// e.g. `i:-1;` fails to parse.
func (p *Parser) UnsignedOnly() *Parser {
	if p.unsignedOnly {
		return p
	}

	copied := *p
	copied.unsignedOnly = true
	return &copied
}

// AllowBinaryStrings returns a Parser that keeps string payloads as raw bytes
// instead of failing with ErrEncoding on invalid utf-8.
func (p *Parser) AllowBinaryStrings() *Parser {
	if p.allowBinary {
		return p
	}

	copied := *p
	copied.allowBinary = true
	return &copied
}

// MaxDepth returns the configured nesting limit.
func (p *Parser) MaxDepth() int {
	return p.maxDepth
}

// Parse parses a single value from the start of buf. It returns the value and
// the bytes following it. On failure the error is a *SyntaxError.
func (p *Parser) Parse(buf []byte) (Value, []byte, error) {
	st := &parseState{Parser: p, size: len(buf)}
	return st.value(buf, 0)
}

// ParseAll is like Parse but fails with ErrTrailingData if anything follows
// the value.
func (p *Parser) ParseAll(buf []byte) (Value, error) {
	value, rest, err := p.Parse(buf)
	if err != nil {
		return nil, err
	}

	if len(rest) > 0 {
		return nil, &SyntaxError{
			Offset: len(buf) - len(rest),
			Err:    ErrTrailingData,
			Msg:    fmt.Sprintf("%d bytes after value", len(rest)),
		}
	}

	return value, nil
}

// parseState carries what a single call to Parse needs to report errors.
// Every rule takes the remaining input and returns what it did not consume.
type parseState struct {
	*Parser

	// length of the buffer passed to Parse, used to derive error offsets
	size int
}

type alternative[T any] struct {
	tag   string
	parse func(st *parseState, in []byte, depth int) (T, []byte, error)
}

// tried in order, the first alternative whose tag matches owns the input.
// Assigned in init as array parsing refers back to this table.
var valueAlternatives []alternative[Value]

func init() {
	valueAlternatives = []alternative[Value]{
		{"b:", func(st *parseState, in []byte, _ int) (Value, []byte, error) {
			b, rest, err := st.boolean(in)
			return Bool(b), rest, err
		}},
		{"s:", func(st *parseState, in []byte, _ int) (Value, []byte, error) {
			s, rest, err := st.str(in)
			return Str(s), rest, err
		}},
		{"i:", func(st *parseState, in []byte, _ int) (Value, []byte, error) {
			i, rest, err := st.integer(in)
			return Int(i), rest, err
		}},
		{"N;", func(st *parseState, in []byte, _ int) (Value, []byte, error) {
			rest, err := st.null(in)
			return Null{}, rest, err
		}},
		{"a:", func(st *parseState, in []byte, depth int) (Value, []byte, error) {
			arr, rest, err := st.array(in, depth)
			return arr, rest, err
		}},
	}
}

var keyAlternatives = []alternative[Key]{
	{"s:", func(st *parseState, in []byte, _ int) (Key, []byte, error) {
		s, rest, err := st.str(in)
		return StrKey(s), rest, err
	}},
	{"i:", func(st *parseState, in []byte, _ int) (Key, []byte, error) {
		i, rest, err := st.integer(in)
		return IntKey(i), rest, err
	}},
}

func (st *parseState) errorf(at []byte, err error, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Offset: st.size - len(at),
		Err:    err,
		Msg:    fmt.Sprintf(format, args...),
	}
}

// wrap turns a numeric conversion failure into a *SyntaxError at the given position.
func (st *parseState) wrap(at []byte, err error) *SyntaxError {
	return &SyntaxError{Offset: st.size - len(at), Err: err}
}

// expect consumes the literal lit.
func (st *parseState) expect(in []byte, lit string) ([]byte, error) {
	if rest, ok := bytes.CutPrefix(in, []byte(lit)); ok {
		return rest, nil
	}

	if len(in) < len(lit) && bytes.HasPrefix([]byte(lit), in) {
		return in, st.errorf(in, ErrTruncated, "expected %q", lit)
	}

	return in, st.errorf(in, ErrDelimiter, "expected %q, got %q", lit, excerpt(in, len(lit)))
}

// fieldLen reads `prefix digits ":"` and returns the decoded digits.
func (st *parseState) fieldLen(in []byte, prefix string) (uint32, []byte, error) {
	rest, ok := bytes.CutPrefix(in, []byte(prefix))
	if !ok {
		return 0, in, st.errorf(in, ErrTagMismatch, "expected %q", prefix)
	}

	n := digitRun(rest)
	if n == 0 {
		return 0, in, st.errorf(rest, ErrLength, "expected digits after %q", prefix)
	}

	length, err := parseLength(rest[:n])
	if err != nil {
		return 0, in, st.wrap(rest, err)
	}

	rest, ok = bytes.CutPrefix(rest[n:], []byte(":"))
	if !ok {
		return 0, in, st.errorf(rest, ErrLength, "expected ':' after length %d", length)
	}

	return length, rest, nil
}

func (st *parseState) boolean(in []byte) (bool, []byte, error) {
	rest, ok := bytes.CutPrefix(in, []byte("b:"))
	if !ok {
		return false, in, st.errorf(in, ErrTagMismatch, "expected %q", "b:")
	}

	if len(rest) == 0 {
		return false, in, st.errorf(rest, ErrTruncated, "expected bool payload")
	}

	var value bool
	switch rest[0] {
	case '0':
		value = false
	case '1':
		value = true
	default:
		return false, in, st.errorf(rest, ErrTagMismatch, "invalid bool payload %q", rest[0])
	}

	rest, err := st.expect(rest[1:], ";")
	if err != nil {
		return false, in, err
	}

	return value, rest, nil
}

func (st *parseState) str(in []byte) (string, []byte, error) {
	length, rest, err := st.fieldLen(in, "s:")
	if err != nil {
		return "", in, err
	}

	rest, err = st.expect(rest, `"`)
	if err != nil {
		return "", in, err
	}

	if uint64(len(rest)) < uint64(length) {
		return "", in, st.errorf(rest, ErrTruncated, "declared %d bytes, %d available", length, len(rest))
	}

	start, payload := rest, rest[:length]

	rest, err = st.expect(rest[length:], `";`)
	if err != nil {
		return "", in, err
	}

	if !st.allowBinary && !utf8.Valid(payload) {
		return "", in, st.errorf(start, ErrEncoding, "string of %d bytes is not valid utf-8", length)
	}

	return string(payload), rest, nil
}

func (st *parseState) integer(in []byte) (int64, []byte, error) {
	rest, ok := bytes.CutPrefix(in, []byte("i:"))
	if !ok {
		return 0, in, st.errorf(in, ErrTagMismatch, "expected %q", "i:")
	}

	var sign int
	if !st.unsignedOnly && len(rest) > 0 && rest[0] == '-' {
		sign = 1
	}

	n := digitRun(rest[sign:])
	if n == 0 {
		return 0, in, st.errorf(rest, ErrNumber, "expected digits, got %q", excerpt(rest, 1))
	}

	value, err := parseInteger(rest[:sign+n])
	if err != nil {
		return 0, in, st.wrap(rest, err)
	}

	rest, err = st.expect(rest[sign+n:], ";")
	if err != nil {
		return 0, in, err
	}

	return value, rest, nil
}

func (st *parseState) null(in []byte) ([]byte, error) {
	rest, ok := bytes.CutPrefix(in, []byte("N;"))
	if !ok {
		return in, st.errorf(in, ErrTagMismatch, "expected %q", "N;")
	}

	return rest, nil
}

func (st *parseState) key(in []byte) (Key, []byte, error) {
	for _, alt := range keyAlternatives {
		if bytes.HasPrefix(in, []byte(alt.tag)) {
			return alt.parse(st, in, 0)
		}
	}

	for _, alt := range valueAlternatives {
		if bytes.HasPrefix(in, []byte(alt.tag)) {
			return Key{}, in, st.errorf(in, ErrKeyType, "%q value can not be used as array key", alt.tag)
		}
	}

	return Key{}, in, st.unmatched(in, "string or int key")
}

func (st *parseState) keyval(in []byte, depth int) (Key, Value, []byte, error) {
	key, rest, err := st.key(in)
	if err != nil {
		return Key{}, nil, in, err
	}

	value, rest, err := st.value(rest, depth)
	if err != nil {
		return Key{}, nil, in, err
	}

	return key, value, rest, nil
}

func (st *parseState) array(in []byte, depth int) (*Array, []byte, error) {
	if st.maxDepth > 0 && depth >= st.maxDepth {
		return nil, in, st.errorf(in, ErrTooDeep, "more than %d nested arrays", st.maxDepth)
	}

	count, rest, err := st.fieldLen(in, "a:")
	if err != nil {
		return nil, in, err
	}

	rest, err = st.expect(rest, "{")
	if err != nil {
		return nil, in, err
	}

	// no capacity hint, count is untrusted input
	arr := NewArray()

	for idx := uint32(0); idx < count; idx++ {
		if bytes.HasPrefix(rest, []byte("}")) {
			return nil, in, st.errorf(rest, ErrTruncated, "declared %d pairs, found %d", count, idx)
		}

		var key Key
		var value Value

		key, value, rest, err = st.keyval(rest, depth+1)
		if err != nil {
			return nil, in, err
		}

		arr.Set(key, value)
	}

	rest, err = st.expect(rest, "}")
	if err != nil {
		return nil, in, err
	}

	return arr, rest, nil
}

func (st *parseState) value(in []byte, depth int) (Value, []byte, error) {
	for _, alt := range valueAlternatives {
		if bytes.HasPrefix(in, []byte(alt.tag)) {
			value, rest, err := alt.parse(st, in, depth)
			if err != nil {
				return nil, in, err
			}

			return value, rest, nil
		}
	}

	return nil, in, st.unmatched(in, "value")
}

func (st *parseState) unmatched(in []byte, what string) *SyntaxError {
	if len(in) == 0 {
		return st.errorf(in, ErrTruncated, "expected %s, got end of input", what)
	}

	return st.errorf(in, ErrTagMismatch, "expected %s, got %q", what, excerpt(in, 2))
}

// excerpt returns at most n leading bytes of buf for error messages.
func excerpt(buf []byte, n int) []byte {
	return buf[:min(n, len(buf))]
}
