/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package aop

import (
	"fmt"
	"reflect"
)

var MethodInterceptorClass = reflect.TypeOf((*MethodInterceptor)(nil)).Elem()

/**
Cross-cutting behavior around the proxied call.

Interceptor calls inv.Proceed() to continue the chain, or returns its own result to short-circuit it.
Errors returned by Proceed() could be translated, but should not be swallowed silently.
*/
type MethodInterceptor interface {
	Invoke(inv *Invocation) ([]interface{}, error)
}

/**
Adapter for ordinary functions
*/
type InterceptorFunc func(inv *Invocation) ([]interface{}, error)

func (f InterceptorFunc) Invoke(inv *Invocation) ([]interface{}, error) {
	return f(inv)
}

/**
Method exposed by the proxy, resolved once when the proxy is built
*/
type Method struct {

	/**
	Name of the method
	*/
	Name string

	/**
	Interface that declares the method
	*/
	Interface reflect.Type

	/**
	Signature without receiver
	*/
	Type reflect.Type

	/**
	Method of the target
	*/
	fn reflect.Value

	/**
	Last result is an error and lifted in to the error return
	*/
	returnsError bool
}

func (t *Method) String() string {
	return fmt.Sprintf("%s.%s", t.Interface.Name(), t.Name)
}

/**
One call travelling through the interceptor chain
*/
type Invocation struct {
	method *Method
	args   []interface{}
	target interface{}
	chain  []MethodInterceptor
	index  int
}

func (t *Invocation) Method() *Method {
	return t.method
}

func (t *Invocation) Arguments() []interface{} {
	return t.args
}

/**
Replaces arguments passed to the rest of the chain
*/
func (t *Invocation) SetArguments(args ...interface{}) {
	t.args = args
}

func (t *Invocation) Target() interface{} {
	return t.target
}

/**
Invokes the next interceptor or the target method at the end of the chain.
Could be called more than once, every call runs the rest of the chain again.
*/
func (t *Invocation) Proceed() ([]interface{}, error) {
	if t.index >= len(t.chain) {
		return t.method.call(t.args)
	}
	next := &Invocation{
		method: t.method,
		args:   t.args,
		target: t.target,
		chain:  t.chain,
		index:  t.index + 1,
	}
	return t.chain[t.index].Invoke(next)
}

func (t *Invocation) String() string {
	return fmt.Sprintf("Invocation [method=%s, args=%d, position=%d/%d]", t.method, len(t.args), t.index, len(t.chain))
}
