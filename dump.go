package phpserial

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes value to w in the format of php's var_dump.
func Dump(w io.Writer, value Value) error {
	d := dumper{w: w}
	d.value(value, 0)
	return d.err
}

// dumper remembers the first write error and skips all writes after it.
type dumper struct {
	w   io.Writer
	err error
}

func (d *dumper) printf(depth int, format string, args ...any) {
	if d.err != nil {
		return
	}

	_, d.err = fmt.Fprintf(d.w, strings.Repeat("  ", depth)+format+"\n", args...)
}

func (d *dumper) value(value Value, depth int) {
	switch value := value.(type) {
	case Bool:
		d.printf(depth, "bool(%t)", bool(value))

	case Str:
		d.printf(depth, "string(%d) \"%s\"", len(value), string(value))

	case Int:
		d.printf(depth, "int(%d)", int64(value))

	case *Array:
		d.printf(depth, "array(%d) {", value.Len())

		for key, element := range value.All() {
			if _, ok := key.Int(); ok {
				d.printf(depth+1, "[%s]=>", key)
			} else {
				d.printf(depth+1, "[\"%s\"]=>", key)
			}

			d.value(element, depth+1)
		}

		d.printf(depth, "}")

	default:
		d.printf(depth, "NULL")
	}
}
