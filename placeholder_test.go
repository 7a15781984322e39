/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beans_test

import (
	"github.com/codeallergy/beans"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"testing"
)

func newConfigurer(t *testing.T) *beans.PlaceholderConfigurer {

	p := beans.NewProperties()
	require.NoError(t, p.Parse("user.name=Alice\nuser.age=33\ngreeting=Hello ${user.name}\nloop.a=${loop.b}\nloop.b=${loop.a}\nwho=user"))

	v := viper.New()
	v.Set("user.name", "Overridden")
	v.Set("db.url", "db://viper")

	return beans.NewPlaceholderConfigurer(beans.NewViperResolver(v, 10), p)
}

func TestResolve(t *testing.T) {

	c := newConfigurer(t)

	text, err := c.Resolve("${user.name} is ${user.age}")
	require.NoError(t, err)
	require.Equal(t, "Alice is 33", text)

	text, err = c.Resolve("${greeting}!")
	require.NoError(t, err)
	require.Equal(t, "Hello Alice!", text)

	text, err = c.Resolve("${db.url}")
	require.NoError(t, err)
	require.Equal(t, "db://viper", text)

	text, err = c.Resolve("${missing:fallback}")
	require.NoError(t, err)
	require.Equal(t, "fallback", text)

	text, err = c.Resolve("${${who}.name}")
	require.NoError(t, err)
	require.Equal(t, "Alice", text)

	text, err = c.Resolve("no placeholders ${ here")
	require.NoError(t, err)
	require.Equal(t, "no placeholders ${ here", text)

	_, err = c.Resolve("${missing}")
	require.Error(t, err)

	_, err = c.Resolve("${loop.a}")
	require.Error(t, err)
	require.Contains(t, err.Error(), "circular placeholder")

	c.IgnoreUnresolvable = true
	text, err = c.Resolve("${missing} and ${user.name}")
	require.NoError(t, err)
	require.Equal(t, "${missing} and Alice", text)
}

func TestEnvironmentResolver(t *testing.T) {

	t.Setenv("BEANS_DB_URL", "db://env")

	c := beans.NewPlaceholderConfigurer(beans.NewEnvironmentResolver("beans", 0))

	text, err := c.Resolve("${db.url}")
	require.NoError(t, err)
	require.Equal(t, "db://env", text)

	_, ok := c.GetProperty("db.password")
	require.False(t, ok)
}

func TestPostProcess(t *testing.T) {

	f := newFactory()
	defer f.Close()

	require.NoError(t, f.RegisterDefinition("partner", beans.NewDefinition(personClass,
		beans.PropertyValue{Name: "name", Value: "Partner"},
	)))
	require.NoError(t, f.RegisterDefinition("alice", beans.NewDefinition(personClass,
		beans.PropertyValue{Name: "name", Value: "${user.name}"},
		beans.PropertyValue{Name: "age", Value: "${user.age}"},
		beans.PropertyValue{Name: "tags", Value: []interface{}{"${user.name}", "static"}},
		beans.PropertyValue{Name: "spouse", Value: beans.Ref{Name: "${spouse:partner}"}},
	)))

	before, ok := f.Definition("partner")
	require.True(t, ok)

	require.NoError(t, newConfigurer(t).PostProcess(f))

	after, ok := f.Definition("partner")
	require.True(t, ok)
	require.True(t, before == after)

	obj, err := f.GetBean("alice")
	require.NoError(t, err)
	alice := obj.(*person)

	require.Equal(t, "Alice", alice.Name)
	require.Equal(t, 33, alice.Age)
	require.Equal(t, []string{"Alice", "static"}, alice.Tags)
	require.Equal(t, "Partner", alice.Spouse.Name)

	require.NoError(t, f.RegisterDefinition("broken", beans.NewDefinition(personClass,
		beans.PropertyValue{Name: "name", Value: "${unknown.key}"},
	)))
	require.Error(t, newConfigurer(t).PostProcess(f))
}
