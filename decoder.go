package phpserial

import (
	"encoding"
	"fmt"
	"golang.org/x/exp/constraints"
	"iter"
	"math"
	"reflect"
	"strconv"
	"sync"
)

// Unmarshal parses data and stores the result in the value pointed to by target.
func Unmarshal(data []byte, target any) error {
	return dec.Unmarshal(data, target)
}

// UnmarshalValue stores an already parsed value in the value pointed to by target.
func UnmarshalValue(value Value, target any) error {
	return dec.UnmarshalValue(value, target)
}

func UnmarshalNew[T any](data []byte) (T, error) {
	return UnmarshalNewWith[T](&dec, data)
}

func UnmarshalNewWith[T any](dec *Decoder, data []byte) (T, error) {
	var target T
	err := dec.Unmarshal(data, &target)
	return target, err
}

// A setter sets the reflect.Value to the given Value
type setter func(Value, reflect.Value) error

// A set of types that are currently in construction
type typeSet map[reflect.Type]struct{}

var (
	tyTextUnmarshaler = reflect.TypeFor[encoding.TextUnmarshaler]()
	tyValue           = reflect.TypeFor[Value]()
	tyAny             = reflect.TypeFor[any]()
)

// The default Decoder instance.
var dec Decoder

// Decoder can be used to customize unmarshalling. A Decoder is safe for concurrent use.
type Decoder struct {
	// the struct tag that is used
	structTag string

	// Cache for setters, indexed by reflect.Type
	setterCache sync.Map

	// Require values for fields. Set to true to fail with ErrNoValue
	// if a key is missing in the source array
	requireValues bool

	// parser used by Unmarshal, nil means the default parser
	parser *Parser
}

func NewDecoder() *Decoder {
	return &Decoder{
		structTag: "php",
	}
}

func (d *Decoder) WithTag(structTag string) *Decoder {
	if d.structTag == structTag {
		return d
	}

	return &Decoder{
		structTag:     structTag,
		requireValues: d.requireValues,
		parser:        d.parser,
	}
}

func (d *Decoder) RequireValues() *Decoder {
	if d.requireValues {
		return d
	}

	return &Decoder{
		structTag:     d.structTag,
		requireValues: true,
		parser:        d.parser,
	}
}

// WithParser returns a Decoder that parses its input using p.
func (d *Decoder) WithParser(p *Parser) *Decoder {
	return &Decoder{
		structTag:     d.structTag,
		requireValues: d.requireValues,
		parser:        p,
	}
}

func (d *Decoder) Unmarshal(data []byte, target any) error {
	parser := d.parser
	if parser == nil {
		parser = defaultParser
	}

	value, err := parser.ParseAll(data)
	if err != nil {
		return err
	}

	return d.UnmarshalValue(value, target)
}

func (d *Decoder) UnmarshalValue(value Value, target any) error {
	targetValue := reflect.ValueOf(target)
	if targetValue.Kind() != reflect.Pointer || targetValue.IsNil() {
		return fmt.Errorf("target must be a non nil pointer, got %T", target)
	}

	targetValue = targetValue.Elem()

	if value == nil {
		value = Null{}
	}

	// build the setter for the targets type
	setter, err := d.setterOf(typeSet{}, targetValue.Type())
	if err != nil {
		return err
	}

	return setter(value, targetValue)
}

func (d *Decoder) setterOf(inConstruction typeSet, ty reflect.Type) (setter, error) {
	if cached, ok := d.setterCache.Load(ty); ok {
		return cached.(setter), nil
	}

	if _, ok := inConstruction[ty]; ok {
		// detected a cycle. return a setter that does a cache lookup when executed.
		// we assume that the actual setter will be in the cache once this setter is executed.
		lazySetter := func(value Value, target reflect.Value) error {
			cached, _ := d.setterCache.Load(ty)
			return cached.(setter)(value, target)
		}

		return lazySetter, nil
	}

	inConstruction[ty] = struct{}{}

	setter, err := d.makeSetterOf(inConstruction, ty)
	if err != nil {
		return nil, err
	}

	if ty != tyValue {
		setter = skipNull(setter)
	}

	d.setterCache.Store(ty, setter)

	return setter, nil
}

// skipNull leaves the target untouched when the source is Null.
func skipNull(set setter) setter {
	return func(value Value, target reflect.Value) error {
		if _, ok := value.(Null); ok {
			return nil
		}

		return set(value, target)
	}
}

func (d *Decoder) makeSetterOf(inConstruction typeSet, ty reflect.Type) (setter, error) {
	switch ty {
	case tyValue:
		return setValue, nil
	case tyAny:
		return setAny, nil
	}

	if reflect.PointerTo(ty).Implements(tyTextUnmarshaler) {
		return setTextUnmarshaler, nil
	}

	switch ty.Kind() {
	case reflect.Bool:
		return setBool, nil

	case reflect.Int:
		return makeSetInt(reflect.Value.SetInt, int64(math.MinInt), int64(math.MaxInt)), nil

	case reflect.Int8:
		return makeSetInt(reflect.Value.SetInt, int64(math.MinInt8), int64(math.MaxInt8)), nil

	case reflect.Int16:
		return makeSetInt(reflect.Value.SetInt, int64(math.MinInt16), int64(math.MaxInt16)), nil

	case reflect.Int32:
		return makeSetInt(reflect.Value.SetInt, int64(math.MinInt32), int64(math.MaxInt32)), nil

	case reflect.Int64:
		return makeSetInt(reflect.Value.SetInt, int64(math.MinInt64), int64(math.MaxInt64)), nil

	case reflect.Uint:
		return makeSetInt(reflect.Value.SetUint, uint64(0), uint64(math.MaxUint)), nil

	case reflect.Uint8:
		return makeSetInt(reflect.Value.SetUint, uint64(0), uint64(math.MaxUint8)), nil

	case reflect.Uint16:
		return makeSetInt(reflect.Value.SetUint, uint64(0), uint64(math.MaxUint16)), nil

	case reflect.Uint32:
		return makeSetInt(reflect.Value.SetUint, uint64(0), uint64(math.MaxUint32)), nil

	case reflect.Uint64:
		return makeSetInt(reflect.Value.SetUint, uint64(0), uint64(math.MaxUint64)), nil

	case reflect.Float32, reflect.Float64:
		return setFloat, nil

	case reflect.String:
		return setString, nil

	case reflect.Pointer:
		return d.makeSetPointer(inConstruction, ty)

	case reflect.Struct:
		return d.makeSetStruct(inConstruction, ty)

	case reflect.Slice:
		return d.makeSetSlice(inConstruction, ty)

	case reflect.Array:
		return d.makeSetArray(inConstruction, ty)

	case reflect.Map:
		return d.makeSetMap(inConstruction, ty)

	default:
		return nil, NotSupportedError{Type: ty}
	}
}

func (d *Decoder) makeSetStruct(inConstruction typeSet, ty reflect.Type) (setter, error) {
	var setters []setter

	structTag := d.structTag
	if structTag == "" {
		structTag = "php"
	}

	fields := fieldsToSerialize(ty, structTag)

	for _, field := range fields {
		de, err := d.setterOf(inConstruction, field.Type)
		if err != nil {
			return nil, fmt.Errorf("setter for field %q: %w", field.Name, err)
		}

		setters = append(setters, de)
	}

	setter := func(value Value, target reflect.Value) error {
		arr, ok := value.(*Array)
		if !ok {
			return fmt.Errorf("decode %s into %q: %w", value.Kind(), target.Type(), ErrInvalidType)
		}

		for idx, field := range fields {
			fieldValue, ok := arr.Get(StrKey(field.Name))
			if !ok {
				if d.requireValues {
					return fmt.Errorf("field %q: %w", field.Name, ErrNoValue)
				}

				// It is okay to not get a value at all,
				// in that case we just skip the field
				continue
			}

			fieldTarget := target.FieldByIndex(field.Index)
			if err := setters[idx](fieldValue, fieldTarget); err != nil {
				return fmt.Errorf("set field %q on %q: %w", field.Name, target.Type(), err)
			}
		}

		return nil
	}

	return setter, nil
}

func (d *Decoder) makeSetMap(inConstruction typeSet, ty reflect.Type) (setter, error) {
	keySetter, err := makeSetKey(ty.Key())
	if err != nil {
		return nil, fmt.Errorf("setter for key type %q: %w", ty, err)
	}

	valueSetter, err := d.setterOf(inConstruction, ty.Elem())
	if err != nil {
		return nil, fmt.Errorf("setter for value type %q: %w", ty, err)
	}

	keyType := ty.Key()
	valueType := ty.Elem()

	setter := func(value Value, target reflect.Value) error {
		arr, ok := value.(*Array)
		if !ok {
			return fmt.Errorf("decode %s into %q: %w", value.Kind(), ty, ErrInvalidType)
		}

		mapTarget := reflect.MakeMapWithSize(ty, arr.Len())

		for key, elementValue := range arr.All() {
			keyTarget := reflect.New(keyType).Elem()
			if err := keySetter(key, keyTarget); err != nil {
				return fmt.Errorf("set key %q: %w", key, err)
			}

			valueTarget := reflect.New(valueType).Elem()
			if err := valueSetter(elementValue, valueTarget); err != nil {
				return fmt.Errorf("set value of key %q: %w", key, err)
			}

			mapTarget.SetMapIndex(keyTarget, valueTarget)
		}

		target.Set(mapTarget)

		return nil
	}

	return setter, nil
}

// makeSetKey returns a function converting an array key into a map key of type ty.
// Int keys are formatted for string maps, decimal string keys are parsed for int maps.
func makeSetKey(ty reflect.Type) (func(Key, reflect.Value) error, error) {
	switch ty.Kind() {
	case reflect.String:
		return func(key Key, target reflect.Value) error {
			target.SetString(key.String())
			return nil
		}, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(key Key, target reflect.Value) error {
			intValue, err := keyInt(key)
			if err != nil {
				return err
			}

			if target.OverflowInt(intValue) {
				return fmt.Errorf("invalid %s key %d: %w", target.Type(), intValue, strconv.ErrRange)
			}

			target.SetInt(intValue)
			return nil
		}, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(key Key, target reflect.Value) error {
			intValue, err := keyInt(key)
			if err != nil {
				return err
			}

			if intValue < 0 || target.OverflowUint(uint64(intValue)) {
				return fmt.Errorf("invalid %s key %d: %w", target.Type(), intValue, strconv.ErrRange)
			}

			target.SetUint(uint64(intValue))
			return nil
		}, nil

	default:
		return nil, NotSupportedError{Type: ty}
	}
}

func keyInt(key Key) (int64, error) {
	if intValue, ok := key.Int(); ok {
		return intValue, nil
	}

	intValue, err := strconv.ParseInt(key.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("key %q is not an integer: %w", key, ErrInvalidType)
	}

	return intValue, nil
}

func (d *Decoder) makeSetSlice(inConstruction typeSet, ty reflect.Type) (setter, error) {
	elementSetter, err := d.setterOf(inConstruction, ty.Elem())
	if err != nil {
		return nil, fmt.Errorf("setter for element type %q: %w", ty, err)
	}

	setter := func(value Value, target reflect.Value) error {
		arr, ok := value.(*Array)
		if !ok {
			return fmt.Errorf("decode %s into %q: %w", value.Kind(), ty, ErrInvalidType)
		}

		sliceTarget := reflect.MakeSlice(ty, arr.Len(), arr.Len())

		var idx int
		for _, elementValue := range arr.All() {
			if err := elementSetter(elementValue, sliceTarget.Index(idx)); err != nil {
				return fmt.Errorf("set element idx=%d: %w", idx, err)
			}

			idx++
		}

		target.Set(sliceTarget)

		return nil
	}

	return setter, nil
}

func (d *Decoder) makeSetArray(inConstruction typeSet, ty reflect.Type) (setter, error) {
	elementSetter, err := d.setterOf(inConstruction, ty.Elem())
	if err != nil {
		return nil, fmt.Errorf("setter for element type %q: %w", ty, err)
	}

	// number of elements in the array
	elementCount := ty.Len()

	setter := func(value Value, target reflect.Value) error {
		arr, ok := value.(*Array)
		if !ok {
			return fmt.Errorf("decode %s into %q: %w", value.Kind(), ty, ErrInvalidType)
		}

		next, stop := iter.Pull2(arr.All())
		defer stop()

		for idx := 0; idx < elementCount; idx++ {
			_, elementValue, ok := next()
			if !ok {
				break
			}

			if err := elementSetter(elementValue, target.Index(idx)); err != nil {
				return fmt.Errorf("set element idx=%d: %w", idx, err)
			}
		}

		return nil
	}

	return setter, nil
}

func (d *Decoder) makeSetPointer(inConstruction typeSet, ty reflect.Type) (setter, error) {
	pointeeType := ty.Elem()

	pointeeSetter, err := d.setterOf(inConstruction, pointeeType)
	if err != nil {
		return nil, err
	}

	setter := func(value Value, target reflect.Value) error {
		// newValue is now a pointer to an instance of the pointeeType
		newValue := reflect.New(pointeeType)
		if err := pointeeSetter(value, newValue.Elem()); err != nil {
			return err
		}

		// set pointer to the new value
		target.Set(newValue)

		return nil
	}

	return setter, nil
}

func setValue(value Value, target reflect.Value) error {
	target.Set(reflect.ValueOf(&value).Elem())
	return nil
}

func setAny(value Value, target reflect.Value) error {
	native := Native(value)
	if native == nil {
		return nil
	}

	target.Set(reflect.ValueOf(native))
	return nil
}

func setBool(value Value, target reflect.Value) error {
	boolValue, ok := value.(Bool)
	if !ok {
		return fmt.Errorf("get bool value from %s: %w", value.Kind(), ErrInvalidType)
	}

	target.SetBool(bool(boolValue))
	return nil
}

func makeSetInt[V constraints.Signed | constraints.Unsigned](
	set func(reflect.Value, V),
	minValue, maxValue V,
) setter {
	return func(value Value, target reflect.Value) error {
		intValue, ok := value.(Int)
		if !ok {
			return fmt.Errorf("get int value from %s: %w", value.Kind(), ErrInvalidType)
		}

		// a negative value can not be compared against an unsigned range after conversion
		if intValue < 0 && minValue == 0 {
			return fmt.Errorf("invalid %s value %d: %w", target.Type(), intValue, strconv.ErrRange)
		}

		if intValue < 0 && V(intValue) < minValue || intValue >= 0 && V(intValue) > maxValue {
			return fmt.Errorf("invalid %s value %d: %w", target.Type(), intValue, strconv.ErrRange)
		}

		set(target, V(intValue))
		return nil
	}
}

func setFloat(value Value, target reflect.Value) error {
	intValue, ok := value.(Int)
	if !ok {
		return fmt.Errorf("get float value from %s: %w", value.Kind(), ErrInvalidType)
	}

	target.SetFloat(float64(intValue))
	return nil
}

func setString(value Value, target reflect.Value) error {
	stringValue, ok := value.(Str)
	if !ok {
		return fmt.Errorf("get string value from %s: %w", value.Kind(), ErrInvalidType)
	}

	target.SetString(string(stringValue))

	return nil
}

func setTextUnmarshaler(value Value, target reflect.Value) error {
	text, ok := value.(Str)
	if !ok {
		return fmt.Errorf("get string value from %s: %w", value.Kind(), ErrInvalidType)
	}

	m := target.Addr().Interface().(encoding.TextUnmarshaler)
	return m.UnmarshalText([]byte(text))
}
