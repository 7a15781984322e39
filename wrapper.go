/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beans

import (
	"fmt"
	"github.com/pkg/errors"
	"reflect"
	"strings"
)

/**
Access to properties of the object by name or nested path 'a.b.c' through the class property table.

Intermediate objects are read by getters, the last segment is written by the setter
after conversion of the value to the property type.
*/
type BeanWrapper struct {
	obj     interface{}
	class   *Class
	classes *ClassRegistry
	editors *EditorRegistry
}

/**
Wraps the object, nil registries are replaced by default ones
*/
func NewBeanWrapper(obj interface{}, classes *ClassRegistry, editors *EditorRegistry) (*BeanWrapper, error) {
	if obj == nil {
		return nil, errors.New("null object can not be wrapped")
	}
	if classes == nil {
		classes = NewClassRegistry()
	}
	if editors == nil {
		editors = NewEditorRegistry(classes)
	}
	class, err := classes.ClassFor(reflect.TypeOf(obj))
	if err != nil {
		return nil, err
	}
	return newBeanWrapper(obj, class, classes, editors), nil
}

func newBeanWrapper(obj interface{}, class *Class, classes *ClassRegistry, editors *EditorRegistry) *BeanWrapper {
	return &BeanWrapper{
		obj:     obj,
		class:   class,
		classes: classes,
		editors: editors,
	}
}

func (t *BeanWrapper) Object() interface{} {
	return t.obj
}

func (t *BeanWrapper) Class() *Class {
	return t.class
}

func (t *BeanWrapper) SetPropertyValue(path string, value interface{}) error {
	owner, class, p, err := t.resolve(path)
	if err != nil {
		return err
	}
	if p.Set == nil {
		return &PropertyAccessError{Path: path, Type: p.Type, Value: value, Reason: "property is not writable"}
	}
	v, err := convertValue(path, value, p.Type, t.editors)
	if err != nil {
		return err
	}
	if err := invokeSetter(p, owner, v); err != nil {
		return &PropertyAccessError{Path: path, Type: p.Type, Value: value, Reason: fmt.Sprintf("setter of class '%s' failed", class.Name()), Err: err}
	}
	return nil
}

/**
Applies values in order, stops on the first error
*/
func (t *BeanWrapper) SetPropertyValues(values PropertyValues) error {
	for _, pv := range values.list {
		if err := t.SetPropertyValue(pv.Name, pv.Value); err != nil {
			return err
		}
	}
	return nil
}

func (t *BeanWrapper) PropertyValue(path string) (interface{}, error) {
	owner, _, p, err := t.resolve(path)
	if err != nil {
		return nil, err
	}
	if p.Get == nil {
		return nil, &PropertyAccessError{Path: path, Type: p.Type, Reason: "property is not readable"}
	}
	v, err := invokeGetter(p, owner)
	if err != nil {
		return nil, &PropertyAccessError{Path: path, Type: p.Type, Reason: "getter failed", Err: err}
	}
	return v, nil
}

func (t *BeanWrapper) PropertyType(path string) (reflect.Type, error) {
	_, _, p, err := t.resolve(path)
	if err != nil {
		return nil, err
	}
	return p.Type, nil
}

func (t *BeanWrapper) IsReadable(path string) bool {
	_, _, p, err := t.resolve(path)
	return err == nil && p.Get != nil
}

func (t *BeanWrapper) IsWritable(path string) bool {
	_, _, p, err := t.resolve(path)
	return err == nil && p.Set != nil
}

/**
Navigates to the owner of the last path segment
*/
func (t *BeanWrapper) resolve(path string) (interface{}, *Class, *Property, error) {
	if path == "" {
		return nil, nil, nil, &PropertyAccessError{Path: path, Reason: "empty property path"}
	}
	segments := strings.Split(path, ".")
	owner, class := t.obj, t.class
	for i, name := range segments {
		p, ok := class.Property(name)
		if !ok {
			return nil, nil, nil, &PropertyAccessError{Path: path, Reason: fmt.Sprintf("no such property '%s' in class '%s'", name, class.Name())}
		}
		if i == len(segments)-1 {
			return owner, class, p, nil
		}
		if p.Get == nil {
			return nil, nil, nil, &PropertyAccessError{Path: path, Type: p.Type, Reason: fmt.Sprintf("intermediate property '%s' is not readable", name)}
		}
		next, err := invokeGetter(p, owner)
		if err != nil {
			return nil, nil, nil, &PropertyAccessError{Path: path, Type: p.Type, Reason: fmt.Sprintf("getter of '%s' failed", name), Err: err}
		}
		if isNil(next) {
			return nil, nil, nil, &PropertyAccessError{Path: path, Type: p.Type, Reason: fmt.Sprintf("intermediate property '%s' is null", strings.Join(segments[:i+1], "."))}
		}
		nextClass, err := t.classes.ClassFor(reflect.TypeOf(next))
		if err != nil {
			return nil, nil, nil, &PropertyAccessError{Path: path, Type: p.Type, Reason: fmt.Sprintf("intermediate property '%s' is not navigable", name), Err: err}
		}
		owner, class = next, nextClass
	}
	return nil, nil, nil, &PropertyAccessError{Path: path, Reason: "unreachable"}
}

func invokeGetter(p *Property, owner interface{}) (v interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("recovered with error %v", r)
		}
	}()
	return p.Get(owner)
}

func invokeSetter(p *Property, owner interface{}, value interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("recovered with error %v", r)
		}
	}()
	return p.Set(owner, value)
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func (t *BeanWrapper) String() string {
	return fmt.Sprintf("BeanWrapper [class=%s]", t.class.Name())
}
