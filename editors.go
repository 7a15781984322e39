/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beans

import (
	"fmt"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"reflect"
	"strings"
	"sync"
)

var (
	TypeClass        = reflect.TypeOf((*reflect.Type)(nil)).Elem()
	LocaleClass      = reflect.TypeOf(language.Tag{})
	PropertiesClass  = reflect.TypeOf((*Properties)(nil))
	StringSliceClass = reflect.TypeOf([]string(nil))
)

/**
Converts the text configuration value in to the typed object
*/
type PropertyEditor interface {

	/**
	Parses the text and keeps the result as the value
	*/
	SetAsText(text string) error

	/**
	Returns parsed value
	*/
	Value() interface{}

	/**
	Renders the value back to text
	*/
	AsText() string
}

/**
Editors are stateful, registry holds constructors and creates a fresh editor on each conversion
*/
type EditorFactory func() PropertyEditor

type editorKey struct {
	typ  reflect.Type
	path string
}

type EditorRegistry struct {
	sync.RWMutex
	byType map[reflect.Type]EditorFactory
	byPath map[editorKey]EditorFactory
}

/**
Creates registry with built-in editors for *Class, reflect.Type, language.Tag, *Properties and []string
*/
func NewEditorRegistry(classes *ClassRegistry) *EditorRegistry {
	t := &EditorRegistry{
		byType: make(map[reflect.Type]EditorFactory),
		byPath: make(map[editorKey]EditorFactory),
	}
	t.Register(ClassClass, func() PropertyEditor {
		return &ClassEditor{Classes: classes}
	})
	t.Register(TypeClass, func() PropertyEditor {
		return &TypeEditor{Classes: classes}
	})
	t.Register(LocaleClass, func() PropertyEditor {
		return &LocaleEditor{}
	})
	t.Register(PropertiesClass, func() PropertyEditor {
		return &PropertiesEditor{}
	})
	t.Register(StringSliceClass, func() PropertyEditor {
		return &StringSliceEditor{Separator: ","}
	})
	return t
}

/**
Default editor for the type
*/
func (t *EditorRegistry) Register(typ reflect.Type, editor EditorFactory) {
	t.Lock()
	defer t.Unlock()
	t.byType[typ] = editor
}

/**
Editor for one property path, takes precedence over the editor for the type
*/
func (t *EditorRegistry) RegisterForPath(typ reflect.Type, path string, editor EditorFactory) {
	t.Lock()
	defer t.Unlock()
	t.byPath[editorKey{typ: typ, path: path}] = editor
}

func (t *EditorRegistry) Find(typ reflect.Type, path string) (EditorFactory, bool) {
	if t == nil {
		return nil, false
	}
	t.RLock()
	defer t.RUnlock()
	if path != "" {
		if editor, ok := t.byPath[editorKey{typ: typ, path: path}]; ok {
			return editor, true
		}
	}
	editor, ok := t.byType[typ]
	return editor, ok
}

func (t *EditorRegistry) String() string {
	t.RLock()
	defer t.RUnlock()
	return fmt.Sprintf("EditorRegistry [types=%d, paths=%d]", len(t.byType), len(t.byPath))
}

/**
Class name to *Class
*/
type ClassEditor struct {
	Classes *ClassRegistry
	value   *Class
}

func (t *ClassEditor) SetAsText(text string) error {
	name := strings.TrimSpace(text)
	if name == "" {
		t.value = nil
		return nil
	}
	if t.Classes == nil {
		return errors.Errorf("class registry is not defined to resolve '%s'", name)
	}
	c, ok := t.Classes.Class(name)
	if !ok {
		return errors.Errorf("class '%s' is not found", name)
	}
	t.value = c
	return nil
}

func (t *ClassEditor) Value() interface{} {
	if t.value == nil {
		return nil
	}
	return t.value
}

func (t *ClassEditor) AsText() string {
	if t.value == nil {
		return ""
	}
	return t.value.Name()
}

/**
Class or interface name to reflect.Type
*/
type TypeEditor struct {
	Classes *ClassRegistry
	name    string
	value   reflect.Type
}

func (t *TypeEditor) SetAsText(text string) error {
	name := strings.TrimSpace(text)
	if name == "" {
		t.name, t.value = "", nil
		return nil
	}
	if t.Classes == nil {
		return errors.Errorf("class registry is not defined to resolve '%s'", name)
	}
	typ, ok := t.Classes.Type(name)
	if !ok {
		return errors.Errorf("type '%s' is not found", name)
	}
	t.name, t.value = name, typ
	return nil
}

func (t *TypeEditor) Value() interface{} {
	if t.value == nil {
		return nil
	}
	return t.value
}

func (t *TypeEditor) AsText() string {
	return t.name
}

/**
Locale in the form 'en_CA' to language.Tag
*/
type LocaleEditor struct {
	value language.Tag
}

func (t *LocaleEditor) SetAsText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		t.value = language.Und
		return nil
	}
	tag, err := language.Parse(strings.ReplaceAll(text, "_", "-"))
	if err != nil {
		return errors.Wrapf(err, "invalid locale '%s'", text)
	}
	t.value = tag
	return nil
}

func (t *LocaleEditor) Value() interface{} {
	return t.value
}

func (t *LocaleEditor) AsText() string {
	if t.value == language.Und {
		return ""
	}
	return strings.ReplaceAll(t.value.String(), "-", "_")
}

/**
Properties text to ordered *Properties
*/
type PropertiesEditor struct {
	value *Properties
}

func (t *PropertiesEditor) SetAsText(text string) error {
	p := NewProperties()
	if err := p.Parse(text); err != nil {
		return err
	}
	t.value = p
	return nil
}

func (t *PropertiesEditor) Value() interface{} {
	return t.value
}

func (t *PropertiesEditor) AsText() string {
	if t.value == nil {
		return ""
	}
	return t.value.Dump()
}

/**
Separated text to []string
*/
type StringSliceEditor struct {
	Separator string
	value     []string
}

func (t *StringSliceEditor) SetAsText(text string) error {
	sep := t.Separator
	if sep == "" {
		sep = ","
	}
	t.value = trimSplit(text, sep)
	return nil
}

func (t *StringSliceEditor) Value() interface{} {
	return t.value
}

func (t *StringSliceEditor) AsText() string {
	sep := t.Separator
	if sep == "" {
		sep = ","
	}
	return strings.Join(t.value, sep)
}
