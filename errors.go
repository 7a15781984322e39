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
Returned for beans requested after the factory was closed
*/
var ErrFactoryClosed = errors.New("bean factory is closed")

/**
Name is absent in the whole visible hierarchy of factories
*/
type NoSuchDefinitionError struct {
	Name string
}

func (e *NoSuchDefinitionError) Error() string {
	return fmt.Sprintf("no bean named '%s' is defined", e.Name)
}

/**
Instantiation, population or initialization of the bean failed
*/
type BeanCreationError struct {
	Name string
	Err  error
}

func (e *BeanCreationError) Error() string {
	return fmt.Sprintf("error creating bean '%s', %v", e.Name, e.Err)
}

func (e *BeanCreationError) Unwrap() error {
	return e.Err
}

// compatible with github.com/pkg/errors.Cause
func (e *BeanCreationError) Cause() error {
	return e.Err
}

/**
Property path is invalid or the value could not be converted to the property type
*/
type PropertyAccessError struct {
	Path   string
	Type   reflect.Type
	Value  interface{}
	Reason string
	Err    error
}

func (e *PropertyAccessError) Error() string {
	var out strings.Builder
	out.WriteString(fmt.Sprintf("property '%s'", e.Path))
	if e.Type != nil {
		out.WriteString(fmt.Sprintf(" of type '%v'", e.Type))
	}
	out.WriteString(": ")
	out.WriteString(e.Reason)
	if e.Err != nil {
		out.WriteString(", ")
		out.WriteString(e.Err.Error())
	}
	return out.String()
}

func (e *PropertyAccessError) Unwrap() error {
	return e.Err
}

func (e *PropertyAccessError) Cause() error {
	return e.Err
}

/**
Bean was requested again while it was under construction and it is not safe to hand out the half-built instance
*/
type CircularReferenceError struct {
	Name  string
	Chain []string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("detected cycle dependency on bean '%s': %s", e.Name, strings.Join(e.Chain, "->"))
}

/**
Bean exists, but it is not assignable to the required type
*/
type BeanNotOfRequiredTypeError struct {
	Name     string
	Required reflect.Type
	Actual   reflect.Type
}

func (e *BeanNotOfRequiredTypeError) Error() string {
	return fmt.Sprintf("bean '%s' must be of type '%v', but was '%v'", e.Name, e.Required, e.Actual)
}
