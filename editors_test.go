/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beans_test

import (
	"github.com/codeallergy/beans"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"reflect"
	"testing"
)

func TestLocaleEditor(t *testing.T) {

	editor := &beans.LocaleEditor{}
	require.NoError(t, editor.SetAsText("en_CA"))
	require.Equal(t, language.MustParse("en-CA"), editor.Value())
	require.Equal(t, "en_CA", editor.AsText())

	require.NoError(t, editor.SetAsText(""))
	require.Equal(t, language.Und, editor.Value())
	require.Equal(t, "", editor.AsText())

	require.Error(t, editor.SetAsText("not a locale at all"))
}

func TestClassEditor(t *testing.T) {

	classes := beans.NewClassRegistry()
	classes.Register(personClass)
	require.NoError(t, classes.RegisterInterface("greeter", greeterClass))

	editor := &beans.ClassEditor{Classes: classes}
	require.NoError(t, editor.SetAsText("beans_test.person"))
	require.True(t, editor.Value() == personClass)
	require.Equal(t, "beans_test.person", editor.AsText())

	require.NoError(t, editor.SetAsText("*beans_test.person"))
	require.True(t, editor.Value() == personClass)

	require.Error(t, editor.SetAsText("beans_test.unknown"))

	typeEditor := &beans.TypeEditor{Classes: classes}
	require.NoError(t, typeEditor.SetAsText("greeter"))
	require.Equal(t, greeterClass, typeEditor.Value())
	require.NoError(t, typeEditor.SetAsText("beans_test.person"))
	require.Equal(t, reflect.TypeOf(&person{}), typeEditor.Value())
}

func TestPropertiesEditor(t *testing.T) {

	editor := &beans.PropertiesEditor{}

	require.NoError(t, editor.SetAsText("foo=bar\nme=mi"))
	p := editor.Value().(*beans.Properties)
	require.Equal(t, 2, p.Len())
	require.Equal(t, "bar", p.GetString("foo", ""))
	require.Equal(t, "mi", p.GetString("me", ""))

	require.NoError(t, editor.SetAsText("#ignored\nfoo=bar"))
	p = editor.Value().(*beans.Properties)
	require.Equal(t, 1, p.Len())
	require.Equal(t, []string{"foo"}, p.Keys())

	require.NoError(t, editor.SetAsText("x=y=z"))
	p = editor.Value().(*beans.Properties)
	require.Equal(t, "y=z", p.GetString("x", ""))

	require.NoError(t, editor.SetAsText("   leading=space\n\t! bang comment\nkey : value"))
	p = editor.Value().(*beans.Properties)
	require.Equal(t, []string{"leading", "key"}, p.Keys())
	require.Equal(t, "space", p.GetString("leading", ""))
	require.Equal(t, "value", p.GetString("key", ""))
}

type localized struct {
	Locale   language.Tag
	Settings *beans.Properties
	Kind     *beans.Class
	Names    []string
}

func TestBuiltInEditorsInFactory(t *testing.T) {

	classes := beans.NewClassRegistry()
	classes.Register(personClass)

	f := beans.New(beans.WithClasses(classes))
	defer f.Close()

	require.NoError(t, f.RegisterDefinition("localized", beans.NewDefinition(beans.MustClassOf(&localized{}),
		beans.PropertyValue{Name: "locale", Value: "fr_CA"},
		beans.PropertyValue{Name: "settings", Value: "a=1\nb=2"},
		beans.PropertyValue{Name: "kind", Value: "beans_test.person"},
		beans.PropertyValue{Name: "names", Value: "x,y , z"},
	)))

	obj, err := f.GetBean("localized")
	require.NoError(t, err)
	l := obj.(*localized)

	require.Equal(t, language.MustParse("fr-CA"), l.Locale)
	require.Equal(t, []string{"a", "b"}, l.Settings.Keys())
	require.True(t, l.Kind == personClass)
	require.Equal(t, []string{"x", "y", "z"}, l.Names)
}

func TestEditorRegistry(t *testing.T) {

	editors := beans.NewEditorRegistry(beans.NewClassRegistry())

	_, ok := editors.Find(beans.LocaleClass, "")
	require.True(t, ok)

	_, ok = editors.Find(reflect.TypeOf(0), "age")
	require.False(t, ok)

	editors.RegisterForPath(reflect.TypeOf(0), "age", func() beans.PropertyEditor {
		return &upperEditor{}
	})
	_, ok = editors.Find(reflect.TypeOf(0), "age")
	require.True(t, ok)
	_, ok = editors.Find(reflect.TypeOf(0), "size")
	require.False(t, ok)

	var none *beans.EditorRegistry
	_, ok = none.Find(beans.LocaleClass, "")
	require.False(t, ok)
}
