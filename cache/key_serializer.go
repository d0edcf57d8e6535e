package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// defaultKeySerializer renders every argument into a readable, deterministic
// segment. Values implementing fmt.Stringer are rendered with String(), so
// types with unexported state (sort criteria) still produce distinct keys.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey returns method followed by one segment per argument.
func (s *defaultKeySerializer) SerializeKey(method string, args ...any) string {
	if len(args) == 0 {
		return method
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, method)
	for _, arg := range args {
		parts = append(parts, s.serializeValue(arg))
	}
	return strings.Join(parts, KeySeparator)
}

func (s *defaultKeySerializer) serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return "nil"
		}
		if str, ok := v.(fmt.Stringer); ok {
			return str.String()
		}
		return s.serializeValue(rv.Elem().Interface())
	case reflect.Func:
		return fmt.Sprintf("func:%p", v)
	case reflect.Chan:
		return fmt.Sprintf("chan:%p", v)
	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return s.serializeSequence("slice", rv)
	case reflect.Array:
		return s.serializeSequence("array", rv)
	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return s.serializeMap(rv)
	}

	if str, ok := v.(fmt.Stringer); ok {
		return str.String()
	}

	switch rv.Kind() {
	case reflect.Struct:
		return s.serializeStruct(rv)
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String:
		return fmt.Sprintf("%v", v)
	default:
		return s.jsonFallback(v)
	}
}

func (s *defaultKeySerializer) serializeSequence(kind string, rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = s.serializeValue(rv.Index(i).Interface())
	}
	return kind + "[" + strconv.Itoa(len(parts)) + "]:{" + strings.Join(parts, ",") + "}"
}

// serializeMap sorts entries by their rendered key.
func (s *defaultKeySerializer) serializeMap(rv reflect.Value) string {
	pairs := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, s.serializeValue(iter.Key().Interface())+"="+s.serializeValue(iter.Value().Interface()))
	}
	sort.Strings(pairs)
	return "map[" + strconv.Itoa(len(pairs)) + "]:{" + strings.Join(pairs, ",") + "}"
}

// serializeStruct renders exported fields only. Embedded structs without
// exported fields, such as bun.BaseModel, render as empty.
func (s *defaultKeySerializer) serializeStruct(rv reflect.Value) string {
	rt := rv.Type()
	parts := make([]string, 0, rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		parts = append(parts, field.Name+":"+s.serializeValue(rv.Field(i).Interface()))
	}
	return "struct:{" + strings.Join(parts, ",") + "}"
}

func (s *defaultKeySerializer) jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "fallback:" + reflect.TypeOf(v).String()
	}
	return "json:" + string(data)
}

// hashedKeySerializer keeps the method segment readable and replaces the
// argument segments with their xxhash digest, bounding key length.
type hashedKeySerializer struct {
	inner KeySerializer
}

// NewHashedKeySerializer wraps inner, usually the default serializer, so that
// keys become "method::<16 hex digits>". Prefix invalidation by method name
// keeps working.
func NewHashedKeySerializer(inner KeySerializer) KeySerializer {
	if inner == nil {
		inner = NewDefaultKeySerializer()
	}
	return &hashedKeySerializer{inner: inner}
}

func (s *hashedKeySerializer) SerializeKey(method string, args ...any) string {
	if len(args) == 0 {
		return method
	}
	full := s.inner.SerializeKey(method, args...)
	return method + KeySeparator + fmt.Sprintf("%016x", xxhash.Sum64String(full))
}
