package dispatch

import (
	"fmt"
	"reflect"
)

// CleanForSerialization recursively strips anything non-JSON-serializable
// from v before it is handed to encoding/json, porting host.py's
// _clean_for_serialization. The dispatch engine runs every handler result
// through it, typed SDK structs included.
//
// Primitives pass through. Pointers and interfaces are followed (nil
// becomes nil). Slices, arrays, and maps recurse element by element.
// Structs become a map[string]interface{} of their exported fields, keyed
// by Go field name; json struct tags (names, omitempty, "-") are not
// consulted, so encoding/json never sees the struct itself. Func, channel
// and unsafe-pointer values are dropped from struct fields and map
// entries, and become nil as slice elements or as the top-level value.
// Any other value is returned unchanged.
func CleanForSerialization(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	return cleanValue(reflect.ValueOf(v))
}

func cleanValue(rv reflect.Value) interface{} {
	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return nil
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return cleanValue(rv.Elem())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		out := make([]interface{}, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, cleanValue(rv.Index(i)))
		}
		return out
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		out := make(map[string]interface{}, rv.Len())
		for _, key := range rv.MapKeys() {
			elemVal := rv.MapIndex(key)
			if elemVal.Kind() == reflect.Func || elemVal.Kind() == reflect.Chan {
				continue
			}
			out[keyToString(key)] = cleanValue(elemVal)
		}
		return out
	case reflect.Struct:
		out := make(map[string]interface{}, rv.NumField())
		t := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			fv := rv.Field(i)
			if fv.Kind() == reflect.Func || fv.Kind() == reflect.Chan {
				continue
			}
			out[field.Name] = cleanValue(fv)
		}
		return out
	default:
		if !rv.IsValid() {
			return nil
		}
		return rv.Interface()
	}
}

func keyToString(rv reflect.Value) string {
	if rv.Kind() == reflect.String {
		return rv.String()
	}
	return fmt.Sprintf("%v", rv.Interface())
}
