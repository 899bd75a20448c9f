package phpserial

import (
	"errors"
	"fmt"
	"strconv"
)

// parseLength decodes the digit run of a length field.
func parseLength(digits []byte) (uint32, error) {
	value, err := strconv.ParseUint(string(digits), 10, 32)
	return handleNumberErr(digits, uint32(value), err)
}

// parseInteger decodes the payload of an `i:` value, optionally signed.
func parseInteger(digits []byte) (int64, error) {
	value, err := strconv.ParseInt(string(digits), 10, 64)
	return handleNumberErr(digits, value, err)
}

func handleNumberErr[T any](input []byte, value T, err error) (T, error) {
	var zeroValue T

	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return zeroValue, fmt.Errorf("%w %q: %w", ErrNumber, input, numErr.Err)
	}

	if err != nil {
		return zeroValue, err
	}

	return value, nil
}

// digitRun returns the length of the leading run of ascii digits in buf.
func digitRun(buf []byte) int {
	for idx, ch := range buf {
		if ch < '0' || ch > '9' {
			return idx
		}
	}

	return len(buf)
}
