package phpserial

import (
	"github.com/emirpasic/gods/v2/maps/linkedhashmap"
	"iter"
)

// Array is an insertion ordered map from Key to Value. Iteration yields the
// entries in the order they were first inserted. Setting an existing key
// replaces its value but keeps its original position, which is what php does
// for duplicate keys.
//
// The zero value is an empty array ready to use.
type Array struct {
	entries *linkedhashmap.Map[Key, Value]
}

// NewArray returns an empty array.
func NewArray() *Array {
	return &Array{entries: linkedhashmap.New[Key, Value]()}
}

func (a *Array) init() {
	if a.entries == nil {
		a.entries = linkedhashmap.New[Key, Value]()
	}
}

// Set inserts or replaces the value at key.
func (a *Array) Set(key Key, value Value) {
	a.init()
	a.entries.Put(key, value)
}

// Get returns the value stored at key.
func (a *Array) Get(key Key) (Value, bool) {
	if a == nil || a.entries == nil {
		return nil, false
	}

	return a.entries.Get(key)
}

// Len returns the number of entries.
func (a *Array) Len() int {
	if a == nil || a.entries == nil {
		return 0
	}

	return a.entries.Size()
}

// Keys returns the keys in insertion order.
func (a *Array) Keys() []Key {
	if a == nil || a.entries == nil {
		return nil
	}

	return a.entries.Keys()
}

// Values returns the values in insertion order.
func (a *Array) Values() []Value {
	if a == nil || a.entries == nil {
		return nil
	}

	return a.entries.Values()
}

// All iterates over the entries in insertion order.
func (a *Array) All() iter.Seq2[Key, Value] {
	return func(yield func(Key, Value) bool) {
		if a == nil || a.entries == nil {
			return
		}

		it := a.entries.Iterator()
		for it.Next() {
			if !yield(it.Key(), it.Value()) {
				return
			}
		}
	}
}

// IsList reports whether the keys are exactly 0, 1, ..., Len()-1 in that order,
// which is how php encodes a plain list. An empty array is a list.
func (a *Array) IsList() bool {
	var expected int64
	for key := range a.All() {
		if idx, ok := key.Int(); !ok || idx != expected {
			return false
		}

		expected++
	}

	return true
}

// Equal reports whether both arrays hold equal entries in the same order.
func (a *Array) Equal(b *Array) bool {
	if a.Len() != b.Len() {
		return false
	}

	next, stop := iter.Pull2(b.All())
	defer stop()

	for key, value := range a.All() {
		otherKey, otherValue, ok := next()
		if !ok || key != otherKey || !Equal(value, otherValue) {
			return false
		}
	}

	return true
}
