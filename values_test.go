/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beans_test

import (
	"github.com/codeallergy/beans"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestPropertyValues(t *testing.T) {

	pvs := beans.NewPropertyValues(
		beans.PropertyValue{Name: "name", Value: "Alice"},
		beans.PropertyValue{Name: "age", Value: "30"},
		beans.PropertyValue{Name: "name", Value: "Alicia"},
	)

	require.Equal(t, 2, pvs.Len())
	require.Equal(t, []string{"name", "age"}, pvs.Names())

	pv, ok := pvs.Get("name")
	require.True(t, ok)
	require.Equal(t, "Alicia", pv.Value)

	require.True(t, pvs.Contains("age"))
	require.False(t, pvs.Contains("spouse"))

	more := pvs.With("spouse", beans.Ref{Name: "bob"})
	require.Equal(t, 3, more.Len())
	require.Equal(t, 2, pvs.Len())

	var empty beans.PropertyValues
	require.Equal(t, 0, empty.Len())
	_, ok = empty.Get("name")
	require.False(t, ok)
}

func TestChangesSince(t *testing.T) {

	old := beans.NewPropertyValues(
		beans.PropertyValue{Name: "name", Value: "Alice"},
		beans.PropertyValue{Name: "age", Value: "30"},
		beans.PropertyValue{Name: "tags", Value: []interface{}{"a", "b"}},
	)

	current := old.
		With("age", "31").
		With("spouse", beans.Ref{Name: "bob"}).
		With("tags", []interface{}{"a", "b"})

	changes := current.ChangesSince(old)
	require.Equal(t, []string{"age", "spouse"}, changes.Names())

	require.Equal(t, 0, old.ChangesSince(old).Len())
	require.Equal(t, 3, old.ChangesSince(beans.PropertyValues{}).Len())
}
