package phpserial

import (
	"reflect"
	"slices"
	"strings"
)

// field is a struct field that receives the array entry with the string key Name.
type field struct {
	Name  string
	Type  reflect.Type
	Index []int
}

// candidate is a field competing for a key with other fields of the same name
// found at different embedding depths.
type candidate struct {
	Explicit bool
	Field    field
}

// fieldsToSerialize lists the fields of the struct type ty that are filled from
// array entries. Embedded structs are flattened following the rules of
// encoding/json: the shallowest field wins, on a tie a tagged field wins,
// otherwise the key is ignored.
func fieldsToSerialize(ty reflect.Type, structTag string) []field {
	if ty.Kind() != reflect.Struct {
		panic("not a struct")
	}

	type queued struct {
		Type        reflect.Type
		ParentIndex []int
	}

	// walk the type breadth first, so candidates are sorted by depth
	queue := []queued{{Type: ty}}

	candidates := map[string][]candidate{}

	var order []string

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		for idx := range item.Type.NumField() {
			fi := item.Type.Field(idx)
			if !fi.IsExported() {
				continue
			}

			name, explicit := keyOf(fi, structTag)
			if name == "" {
				continue
			}

			// copy the parent index, siblings must not share a backing array
			parent := item.ParentIndex
			index := append(parent[:len(parent):len(parent)], fi.Index...)

			if fi.Anonymous && !explicit {
				// only embedded structs are flattened, embedded pointers are ignored
				if fi.Type.Kind() == reflect.Struct {
					queue = append(queue, queued{fi.Type, index})
				}

				continue
			}

			if _, seen := candidates[name]; !seen {
				order = append(order, name)
			}

			candidates[name] = append(candidates[name], candidate{
				Explicit: explicit,
				Field:    field{Name: name, Index: index, Type: fi.Type},
			})
		}
	}

	var fields []field

	for _, name := range order {
		if fi, ok := dominantField(candidates[name]); ok {
			fields = append(fields, fi)
		}
	}

	return fields
}

// dominantField picks the field that receives a key. ok is false if the
// candidates are ambiguous.
func dominantField(candidates []candidate) (field, bool) {
	// INVARIANT: candidates are not empty and sorted by depth
	depth := func(c candidate) int { return len(c.Field.Index) }
	if len(candidates) == 0 || !slices.IsSortedFunc(candidates, func(a, b candidate) int { return depth(a) - depth(b) }) {
		panic("candidates must be non empty and sorted")
	}

	// only the shallowest candidates are visible
	visible := candidates[:1]
	for len(visible) < len(candidates) && depth(candidates[len(visible)]) == depth(candidates[0]) {
		visible = candidates[:len(visible)+1]
	}

	if len(visible) == 1 {
		return visible[0].Field, true
	}

	var explicit []candidate
	for _, c := range visible {
		if c.Explicit {
			explicit = append(explicit, c)
		}
	}

	if len(explicit) == 1 {
		return explicit[0].Field, true
	}

	return field{}, false
}

// keyOf returns the array key of a struct field. An empty name means the field is skipped.
func keyOf(fi reflect.StructField, structTag string) (name string, explicit bool) {
	tag := fi.Tag.Get(structTag)

	switch {
	case tag == "":
		return fi.Name, false

	case tag == "-":
		return "", true
	}

	name, _, _ = strings.Cut(tag, ",")
	if name == "" {
		// options only, e.g. `php:",omitempty"`
		return fi.Name, false
	}

	return name, true
}
