/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beans_test

import (
	"bytes"
	"github.com/codeallergy/beans"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"strings"
	"testing"
	"time"
)

var propertiesFile = `
# comment
! also comment
example.str = str\
    ing\n
example.int = 123
example.bool = true
example.float = 1.23
example.duration = 300ms
example.unicode = \u0041BC
example.filemode = -rwxrwxr-x
`

var propertiesFileYAML = `
example:
  str: "string\n"
  int: 123
  bool: true
  float: 1.23
  duration: 300ms
  unicode: ABC
  filemode: -rwxrwxr-x
`

const expectedPropertiesNum = 7

func TestPropertiesParse(t *testing.T) {

	p := beans.NewProperties()
	require.NoError(t, p.Parse(propertiesFile))
	require.Equal(t, expectedPropertiesNum, p.Len())

	require.Equal(t, "string\n", p.GetString("example.str", ""))
	require.Equal(t, 123, p.GetInt("example.int", 0))
	require.True(t, p.GetBool("example.bool", false))
	require.Equal(t, 300*time.Millisecond, p.GetDuration("example.duration", 0))
	require.Equal(t, "ABC", p.GetString("example.unicode", ""))
	require.Equal(t, "def", p.GetString("example.none", "def"))
	require.Equal(t, 5, p.GetInt("example.str", 5))

	require.Equal(t, []string{"comment", "also comment"}, p.GetComments("example.str"))

	require.Equal(t, []string{
		"example.str",
		"example.int",
		"example.bool",
		"example.float",
		"example.duration",
		"example.unicode",
		"example.filemode",
	}, p.Keys())
}

func TestPropertiesDump(t *testing.T) {

	p := beans.NewProperties()
	require.NoError(t, p.Parse(propertiesFile))

	var buf bytes.Buffer
	_, err := p.Save(&buf)
	require.NoError(t, err)

	dump := buf.String()
	require.True(t, strings.HasPrefix(dump, "# comment\n# also comment\nexample.str = string\\n\n"))

	q := beans.NewProperties()
	require.NoError(t, q.Load(&buf))
	require.Equal(t, p.Map(), q.Map())
	require.Equal(t, p.Keys(), q.Keys())
}

func TestPropertiesLoadMap(t *testing.T) {

	var m map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(propertiesFileYAML), &m))

	p := beans.NewProperties()
	p.LoadMap(m)
	require.Equal(t, expectedPropertiesNum, p.Len())

	q := beans.NewProperties()
	require.NoError(t, q.Parse(propertiesFile))

	require.Equal(t, q.Map(), p.Map())
}

func TestPropertiesUpdate(t *testing.T) {

	p := beans.NewProperties()
	p.Set("b", "1")
	p.Set("a", "2")
	p.Set("b", "3")

	require.Equal(t, []string{"b", "a"}, p.Keys())
	require.Equal(t, "3", p.GetString("b", ""))

	require.True(t, p.Remove("b"))
	require.False(t, p.Remove("b"))
	require.False(t, p.Contains("b"))
	require.Equal(t, []string{"a"}, p.Keys())

	value, ok := p.GetProperty("a")
	require.True(t, ok)
	require.Equal(t, "2", value)

	require.Equal(t, beans.DefaultPropertiesPriority, p.Priority())
	p.SetPriority(5)
	require.Equal(t, 5, p.Priority())
}

func TestPropertiesParseError(t *testing.T) {

	p := beans.NewProperties()
	require.Error(t, p.Parse("key = \\u00zz"))
	require.Error(t, p.Parse("key = value\\"))
}
