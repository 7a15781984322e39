/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beans

import (
	"fmt"
	"reflect"
	"strings"
)

/**
Reference marker, the value is resolved by the bean name in the owning factory
*/
type Ref struct {
	Name string
}

func (t Ref) String() string {
	return fmt.Sprintf("<ref %s>", t.Name)
}

/**
Immutable association of the property name (or nested path) with the value.

Value could be a literal string, an already typed object, Ref, []interface{} or map[string]interface{}.
*/
type PropertyValue struct {
	Name  string
	Value interface{}
}

func (t PropertyValue) String() string {
	return fmt.Sprintf("%s=%v", t.Name, t.Value)
}

/**
Ordered immutable collection of property values.

The last value wins for the duplicate name, but keeps the position of the first occurrence.
Zero value is an empty collection.
*/
type PropertyValues struct {
	list []PropertyValue
}

func NewPropertyValues(values ...PropertyValue) PropertyValues {
	var t PropertyValues
	for _, pv := range values {
		t.list = put(t.list, pv)
	}
	return t
}

/**
Returns new collection with added or replaced value
*/
func (t PropertyValues) With(name string, value interface{}) PropertyValues {
	list := make([]PropertyValue, len(t.list), len(t.list)+1)
	copy(list, t.list)
	return PropertyValues{list: put(list, PropertyValue{Name: name, Value: value})}
}

func put(list []PropertyValue, pv PropertyValue) []PropertyValue {
	for i, el := range list {
		if el.Name == pv.Name {
			list[i] = pv
			return list
		}
	}
	return append(list, pv)
}

func (t PropertyValues) Len() int {
	return len(t.list)
}

func (t PropertyValues) Get(name string) (PropertyValue, bool) {
	for _, pv := range t.list {
		if pv.Name == name {
			return pv, true
		}
	}
	return PropertyValue{}, false
}

func (t PropertyValues) Contains(name string) bool {
	_, ok := t.Get(name)
	return ok
}

/**
Returns copy of values
*/
func (t PropertyValues) Values() []PropertyValue {
	list := make([]PropertyValue, len(t.list))
	copy(list, t.list)
	return list
}

func (t PropertyValues) Names() []string {
	names := make([]string, len(t.list))
	for i, pv := range t.list {
		names[i] = pv.Name
	}
	return names
}

/**
Returns values that are absent in the old collection or have different value
*/
func (t PropertyValues) ChangesSince(old PropertyValues) PropertyValues {
	var changes PropertyValues
	for _, pv := range t.list {
		prev, ok := old.Get(pv.Name)
		if !ok || !reflect.DeepEqual(prev.Value, pv.Value) {
			changes.list = append(changes.list, pv)
		}
	}
	return changes
}

func (t PropertyValues) String() string {
	var out strings.Builder
	out.WriteString("PropertyValues[")
	for i, pv := range t.list {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(pv.String())
	}
	out.WriteByte(']')
	return out.String()
}
