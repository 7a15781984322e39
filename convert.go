/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beans

import (
	"fmt"
	"github.com/pkg/errors"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	durationClass   = reflect.TypeOf(time.Millisecond)
	timeClass       = reflect.TypeOf(time.Time{})
	osFileModeClass = reflect.TypeOf(os.FileMode(0777))
	fsFileModeClass = reflect.TypeOf(fs.FileMode(0777))
)

/**
Converts the value to the property type.

Assignable values pass as is, strings go through the editor found for the type and path
and fall back to the text conversion, lists and maps convert element-wise.
*/
func convertValue(path string, value interface{}, typ reflect.Type, editors *EditorRegistry) (interface{}, error) {

	if value == nil {
		return nil, nil
	}

	if text, ok := value.(string); ok {
		if newEditor, ok := editors.Find(typ, path); ok {
			editor := newEditor()
			if err := editor.SetAsText(text); err != nil {
				return nil, &PropertyAccessError{Path: path, Type: typ, Value: value, Reason: "editor failed", Err: err}
			}
			return fitValue(path, editor.Value(), typ)
		}
		if typ.Kind() == reflect.String || typ.Kind() == reflect.Interface && reflect.TypeOf(text).Implements(typ) {
			return fitValue(path, text, typ)
		}
		v, err := convertText(text, typ, "")
		if err != nil {
			return nil, &PropertyAccessError{Path: path, Type: typ, Value: value, Reason: "type mismatch", Err: err}
		}
		return v.Interface(), nil
	}

	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(typ) {
		return value, nil
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if typ.Kind() == reflect.Slice {
			slice := reflect.MakeSlice(typ, 0, v.Len())
			for i := 0; i < v.Len(); i++ {
				el, err := convertValue(fmt.Sprintf("%s[%d]", path, i), v.Index(i).Interface(), typ.Elem(), editors)
				if err != nil {
					return nil, err
				}
				slice = reflect.Append(slice, valueOrZero(el, typ.Elem()))
			}
			return slice.Interface(), nil
		}
		if typ.Kind() == reflect.Array {
			if v.Len() != typ.Len() {
				return nil, &PropertyAccessError{Path: path, Type: typ, Value: value, Reason: fmt.Sprintf("expected %d elements, but was %d", typ.Len(), v.Len())}
			}
			array := reflect.New(typ).Elem()
			for i := 0; i < v.Len(); i++ {
				el, err := convertValue(fmt.Sprintf("%s[%d]", path, i), v.Index(i).Interface(), typ.Elem(), editors)
				if err != nil {
					return nil, err
				}
				array.Index(i).Set(valueOrZero(el, typ.Elem()))
			}
			return array.Interface(), nil
		}

	case reflect.Map:
		if typ.Kind() == reflect.Map && typ.Key().Kind() == reflect.String && v.Type().Key().Kind() == reflect.String {
			m := reflect.MakeMapWithSize(typ, v.Len())
			iter := v.MapRange()
			for iter.Next() {
				key := iter.Key().String()
				el, err := convertValue(fmt.Sprintf("%s[%s]", path, key), iter.Value().Interface(), typ.Elem(), editors)
				if err != nil {
					return nil, err
				}
				m.SetMapIndex(reflect.ValueOf(key).Convert(typ.Key()), valueOrZero(el, typ.Elem()))
			}
			return m.Interface(), nil
		}

	default:
		if isNumber(v.Type()) && isNumber(typ) {
			return v.Convert(typ).Interface(), nil
		}
	}

	return nil, &PropertyAccessError{Path: path, Type: typ, Value: value, Reason: fmt.Sprintf("type mismatch, can not convert '%v'", v.Type())}
}

func fitValue(path string, value interface{}, typ reflect.Type) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(typ) {
		return value, nil
	}
	if v.Type().ConvertibleTo(typ) && v.Kind() == typ.Kind() {
		return v.Convert(typ).Interface(), nil
	}
	return nil, &PropertyAccessError{Path: path, Type: typ, Value: value, Reason: fmt.Sprintf("editor produced '%v'", v.Type())}
}

func valueOrZero(value interface{}, typ reflect.Type) reflect.Value {
	if value == nil {
		return reflect.Zero(typ)
	}
	return reflect.ValueOf(value)
}

func convertText(s string, t reflect.Type, layout string) (val reflect.Value, err error) {
	var v interface{}

	switch {

	case isArray(t):
		parts := trimSplit(s, ",")
		slice := reflect.MakeSlice(reflect.SliceOf(t.Elem()), 0, len(parts))
		for _, s := range parts {
			val, err := convertText(s, t.Elem(), layout)
			if err != nil {
				return slice, err
			}
			slice = reflect.Append(slice, val)
		}
		if t.Kind() == reflect.Array {
			if slice.Len() != t.Len() {
				return reflect.Zero(t), errors.Errorf("expected %d elements, but was %d", t.Len(), slice.Len())
			}
			array := reflect.New(t).Elem()
			reflect.Copy(array, slice)
			return array, nil
		}
		return slice.Convert(t), nil

	case isDuration(t):
		v, err = time.ParseDuration(s)

	case isTime(t):
		if layout == "" {
			layout = time.RFC3339
		}
		v, err = time.Parse(layout, s)

	case isFileMode(t):
		v, err = parseFileMode(s), nil

	case isBool(t):
		v, err = parseBool(s)

	case isString(t):
		v, err = s, nil

	case isFloat(t):
		v, err = strconv.ParseFloat(s, t.Bits())

	case isInt(t):
		v, err = strconv.ParseInt(s, 10, t.Bits())

	case isUint(t):
		v, err = strconv.ParseUint(s, 10, t.Bits())

	default:
		return reflect.Zero(t), errors.Errorf("unsupported type %s", t)
	}

	if err != nil {
		return reflect.Zero(t), err
	}

	return reflect.ValueOf(v).Convert(t), nil
}

func isBool(t reflect.Type) bool {
	return t.Kind() == reflect.Bool
}

func isString(t reflect.Type) bool {
	return t.Kind() == reflect.String
}

func isFloat(t reflect.Type) bool {
	return t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64
}

func isInt(t reflect.Type) bool {
	return t.Kind() == reflect.Int || t.Kind() == reflect.Int8 || t.Kind() == reflect.Int16 || t.Kind() == reflect.Int32 || t.Kind() == reflect.Int64
}

func isUint(t reflect.Type) bool {
	return t.Kind() == reflect.Uint || t.Kind() == reflect.Uint8 || t.Kind() == reflect.Uint16 || t.Kind() == reflect.Uint32 || t.Kind() == reflect.Uint64
}

func isNumber(t reflect.Type) bool {
	return isInt(t) || isUint(t) || isFloat(t)
}

func isDuration(t reflect.Type) bool {
	return t == durationClass
}

func isTime(t reflect.Type) bool {
	return t == timeClass
}

func isFileMode(t reflect.Type) bool {
	return t == osFileModeClass || t == fsFileModeClass
}

func isArray(t reflect.Type) bool {
	return t.Kind() == reflect.Array || t.Kind() == reflect.Slice
}

func trimSplit(s string, sep string) []string {
	var a []string
	for _, v := range strings.Split(s, sep) {
		if v = strings.TrimSpace(v); v != "" {
			a = append(a, v)
		}
	}
	return a
}

func parseBool(str string) (bool, error) {
	switch str {
	case "1", "t", "T", "true", "TRUE", "True", "on", "ON", "On", "yes", "YES", "Yes":
		return true, nil
	case "0", "f", "F", "false", "FALSE", "False", "off", "OFF", "Off", "no", "NO", "No":
		return false, nil
	}
	return false, errors.Errorf("invalid syntax '%s'", str)
}

/**
Parses only os.Unix file mode with 0777 mask
*/
func parseFileMode(s string) os.FileMode {

	var m uint32

	const rwx = "rwxrwxrwx"
	off := len(s) - len(rwx)
	if off < 0 {
		buf := []byte("---------")
		copy(buf[-off:], s)
		s = string(buf)
	} else {
		s = s[off:]
	}

	for i, c := range rwx {
		if byte(c) == s[i] {
			m |= 1 << uint(9-1-i)
		}
	}

	return os.FileMode(m)
}
