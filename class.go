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
	"sync"
	"unicode"
)

var (
	ClassClass = reflect.TypeOf((*Class)(nil))
	errorClass = reflect.TypeOf((*error)(nil)).Elem()
)

/**
Accessor of the single property. Get or Set could be nil for write-only or read-only properties.
*/
type Property struct {
	Name string
	Type reflect.Type
	Get  func(obj interface{}) (interface{}, error)
	Set  func(obj interface{}, value interface{}) error
}

/**
Class describes how to create instances of one type and exposes the table of its properties.
The table is built once, injection goes through the closures only.
*/
type Class struct {
	name       string
	classPtr   reflect.Type
	ctor       func() (interface{}, error)
	properties map[string]*Property
	order      []string
}

/**
Creates class with explicit constructor and empty property table
*/
func NewClass(name string, classPtr reflect.Type, ctor func() (interface{}, error)) *Class {
	return &Class{
		name:       name,
		classPtr:   classPtr,
		ctor:       ctor,
		properties: make(map[string]*Property),
	}
}

/**
Adds or replaces property accessor
*/
func (t *Class) AddProperty(p *Property) *Class {
	if _, ok := t.properties[p.Name]; !ok {
		t.order = append(t.order, p.Name)
	}
	t.properties[p.Name] = p
	return t
}

func (t *Class) Name() string {
	return t.name
}

func (t *Class) Type() reflect.Type {
	return t.classPtr
}

func (t *Class) Property(name string) (*Property, bool) {
	p, ok := t.properties[name]
	return p, ok
}

/**
Properties in the order of declaration
*/
func (t *Class) Properties() []*Property {
	list := make([]*Property, 0, len(t.order))
	for _, name := range t.order {
		list = append(list, t.properties[name])
	}
	return list
}

/**
Creates new instance by calling the constructor
*/
func (t *Class) New() (obj interface{}, err error) {

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("constructor of class '%s' recovered with error %v", t.name, r)
		}
	}()

	if t.ctor == nil {
		return nil, errors.Errorf("class '%s' has no accessible constructor", t.name)
	}
	obj, err = t.ctor()
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.Errorf("constructor of class '%s' returned nil", t.name)
	}
	return obj, nil
}

func (t *Class) String() string {
	return fmt.Sprintf("Class [name=%s, type=%v, properties=%d]", t.name, t.classPtr, len(t.order))
}

/**
Investigate pointer to the structure by using reflection and build the class with default constructor.

Exported fields are properties named by java-bean convention ('Age' -> 'age', 'URL' -> 'URL'),
tag `property:"name"` renames the field and `property:"-"` skips it.
Methods SetXxx(v) with the pair Xxx() or GetXxx() take precedence over fields with the same name.
*/
func ClassOf(prototype interface{}) (*Class, error) {
	if prototype == nil {
		return nil, errors.New("null prototype is not allowed")
	}
	return investigate(reflect.TypeOf(prototype))
}

func MustClassOf(prototype interface{}) *Class {
	c, err := ClassOf(prototype)
	if err != nil {
		panic(err)
	}
	return c
}

func investigate(classPtr reflect.Type) (*Class, error) {

	if classPtr.Kind() != reflect.Ptr || classPtr.Elem().Kind() != reflect.Struct {
		return nil, errors.Errorf("class could be a pointer to struct, but was '%v'", classPtr)
	}

	class := classPtr.Elem()
	t := NewClass(class.String(), classPtr, func() (interface{}, error) {
		return reflect.New(class).Interface(), nil
	})

	for j := 0; j < class.NumField(); j++ {
		field := class.Field(j)
		if field.Anonymous || field.PkgPath != "" {
			continue
		}
		name := decapitalize(field.Name)
		if tag, ok := field.Tag.Lookup("property"); ok {
			tag = strings.TrimSpace(tag)
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		t.AddProperty(fieldProperty(name, j, field.Type))
	}

	for j := 0; j < classPtr.NumMethod(); j++ {
		m := classPtr.Method(j)
		if !strings.HasPrefix(m.Name, "Set") || len(m.Name) == 3 {
			continue
		}
		if m.Type.NumIn() != 2 || m.Type.NumOut() > 1 {
			continue
		}
		if m.Type.NumOut() == 1 && m.Type.Out(0) != errorClass {
			continue
		}
		base := m.Name[3:]
		p := methodProperty(decapitalize(base), m.Index, m.Type.In(1))
		if getter, ok := findGetter(classPtr, base, p.Type); ok {
			index := getter.Index
			p.Get = func(obj interface{}) (interface{}, error) {
				out := reflect.ValueOf(obj).Method(index).Call(nil)
				return out[0].Interface(), nil
			}
		}
		t.AddProperty(p)
	}

	return t, nil
}

func findGetter(classPtr reflect.Type, base string, typ reflect.Type) (reflect.Method, bool) {
	for _, name := range []string{base, "Get" + base} {
		if m, ok := classPtr.MethodByName(name); ok {
			if m.Type.NumIn() == 1 && m.Type.NumOut() == 1 && m.Type.Out(0) == typ {
				return m, true
			}
		}
	}
	return reflect.Method{}, false
}

func fieldProperty(name string, fieldNum int, fieldType reflect.Type) *Property {
	return &Property{
		Name: name,
		Type: fieldType,
		Get: func(obj interface{}) (interface{}, error) {
			return reflect.ValueOf(obj).Elem().Field(fieldNum).Interface(), nil
		},
		Set: func(obj interface{}, value interface{}) error {
			field := reflect.ValueOf(obj).Elem().Field(fieldNum)
			v, err := assignable(value, fieldType)
			if err != nil {
				return err
			}
			field.Set(v)
			return nil
		},
	}
}

func methodProperty(name string, methodNum int, argType reflect.Type) *Property {
	return &Property{
		Name: name,
		Type: argType,
		Set: func(obj interface{}, value interface{}) error {
			v, err := assignable(value, argType)
			if err != nil {
				return err
			}
			out := reflect.ValueOf(obj).Method(methodNum).Call([]reflect.Value{v})
			if len(out) == 1 && !out[0].IsNil() {
				return out[0].Interface().(error)
			}
			return nil
		},
	}
}

func assignable(value interface{}, typ reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(typ), nil
	}
	v := reflect.ValueOf(value)
	if !v.Type().AssignableTo(typ) {
		return v, errors.Errorf("value of type '%v' is not assignable to '%v'", v.Type(), typ)
	}
	return v, nil
}

func decapitalize(name string) string {
	runes := []rune(name)
	if len(runes) == 0 {
		return name
	}
	if len(runes) > 1 && unicode.IsUpper(runes[0]) && unicode.IsUpper(runes[1]) {
		return name
	}
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

/**
Holds classes and interfaces known by name, and caches investigated classes by type.
*/
type ClassRegistry struct {
	sync.RWMutex
	byName     map[string]*Class
	byType     map[reflect.Type]*Class
	interfaces map[string]reflect.Type
}

func NewClassRegistry() *ClassRegistry {
	return &ClassRegistry{
		byName:     make(map[string]*Class),
		byType:     make(map[reflect.Type]*Class),
		interfaces: make(map[string]reflect.Type),
	}
}

func (t *ClassRegistry) Register(classes ...*Class) {
	t.Lock()
	defer t.Unlock()
	for _, c := range classes {
		t.byName[c.name] = c
		t.byType[c.classPtr] = c
	}
}

/**
Investigates prototypes and registers their classes
*/
func (t *ClassRegistry) RegisterPrototypes(prototypes ...interface{}) error {
	for _, prototype := range prototypes {
		c, err := ClassOf(prototype)
		if err != nil {
			return err
		}
		t.Register(c)
	}
	return nil
}

func (t *ClassRegistry) RegisterInterface(name string, ifaceType reflect.Type) error {
	if ifaceType.Kind() != reflect.Interface {
		return errors.Errorf("type '%v' registered as '%s' is not an interface", ifaceType, name)
	}
	t.Lock()
	defer t.Unlock()
	t.interfaces[name] = ifaceType
	return nil
}

/**
Finds registered class by name, the leading '*' is ignored
*/
func (t *ClassRegistry) Class(name string) (*Class, bool) {
	t.RLock()
	defer t.RUnlock()
	c, ok := t.byName[strings.TrimPrefix(name, "*")]
	return c, ok
}

func (t *ClassRegistry) Interface(name string) (reflect.Type, bool) {
	t.RLock()
	defer t.RUnlock()
	iface, ok := t.interfaces[name]
	return iface, ok
}

/**
Finds type of the registered class or interface by name
*/
func (t *ClassRegistry) Type(name string) (reflect.Type, bool) {
	if c, ok := t.Class(name); ok {
		return c.classPtr, true
	}
	return t.Interface(name)
}

/**
Returns class for the type, investigates and caches it on first request.
*/
func (t *ClassRegistry) ClassFor(classPtr reflect.Type) (*Class, error) {
	t.RLock()
	c, ok := t.byType[classPtr]
	t.RUnlock()
	if ok {
		return c, nil
	}
	c, err := investigate(classPtr)
	if err != nil {
		return nil, err
	}
	t.Lock()
	defer t.Unlock()
	if prev, ok := t.byType[classPtr]; ok {
		return prev, nil
	}
	t.byType[classPtr] = c
	return c, nil
}

func (t *ClassRegistry) String() string {
	t.RLock()
	defer t.RUnlock()
	return fmt.Sprintf("ClassRegistry [classes=%d, types=%d, interfaces=%d]", len(t.byName), len(t.byType), len(t.interfaces))
}
