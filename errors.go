package phpserial

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrTagMismatch indicates the input does not start with the expected tag.
	ErrTagMismatch = errors.New("tag mismatch")

	// ErrLength indicates a malformed length field: missing digits or a missing colon.
	ErrLength = errors.New("malformed length")

	// ErrTruncated indicates the input ended before the declared payload did.
	ErrTruncated = errors.New("truncated input")

	// ErrDelimiter indicates a missing quote, brace or semicolon.
	ErrDelimiter = errors.New("malformed delimiter")

	// ErrEncoding indicates a string payload that is not valid utf-8.
	ErrEncoding = errors.New("invalid encoding")

	// ErrKeyType indicates an array key that is neither a string nor an integer.
	ErrKeyType = errors.New("invalid key type")

	// ErrNumber indicates a digit run that could not be converted. The
	// strconv error is wrapped as well.
	ErrNumber = errors.New("invalid number")

	// ErrTooDeep indicates arrays nested deeper than the parser allows.
	ErrTooDeep = errors.New("nested too deeply")

	// ErrTrailingData indicates bytes left over after a complete value.
	ErrTrailingData = errors.New("trailing data")
)

var (
	// ErrInvalidType indicates a value that can not be stored in the target type.
	ErrInvalidType = errors.New("invalid type")

	// ErrNoValue indicates a missing struct field when values are required.
	ErrNoValue = errors.New("no value")

	// ErrKeyCollision indicates an integer and a string key that render to the
	// same json object key.
	ErrKeyCollision = errors.New("key collision")
)

// SyntaxError describes where and why parsing failed.
type SyntaxError struct {
	// Offset is the byte offset into the parsed buffer.
	Offset int

	// Err is one of the Err* sentinels of this package.
	Err error

	Msg string
}

func (e *SyntaxError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("phpserial: %s at offset %d", e.Err, e.Offset)
	}

	return fmt.Sprintf("phpserial: %s at offset %d: %s", e.Err, e.Offset, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

type NotSupportedError struct {
	Type reflect.Type
}

func (n NotSupportedError) Error() string {
	return fmt.Sprintf("type %q is not supported", n.Type)
}
