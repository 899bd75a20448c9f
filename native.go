package phpserial

// Native converts a value into plain go values: bool, string, int64 and nil
// for the scalars, []any for list arrays and map[string]any for all other
// arrays. Converting an array into a map loses the order of its entries.
// IntKey(n) and the StrKey of the same decimal text share one map key, the
// entry that comes later in the array wins.
func Native(value Value) any {
	switch value := value.(type) {
	case Bool:
		return bool(value)

	case Str:
		return string(value)

	case Int:
		return int64(value)

	case *Array:
		if value.IsList() {
			list := make([]any, 0, value.Len())
			for _, element := range value.All() {
				list = append(list, Native(element))
			}

			return list
		}

		m := make(map[string]any, value.Len())
		for key, element := range value.All() {
			m[key.String()] = Native(element)
		}

		return m

	default:
		// Null and nil
		return nil
	}
}
