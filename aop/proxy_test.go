/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package aop_test

import (
	"github.com/codeallergy/beans/aop"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"reflect"
	"strings"
	"testing"
)

type calculator interface {
	Add(a, b int) int
	Div(a, b int) (int, error)
}

type printer interface {
	Print(format string, args ...interface{}) string
	Reset()
}

var (
	calculatorClass = reflect.TypeOf((*calculator)(nil)).Elem()
	printerClass    = reflect.TypeOf((*printer)(nil)).Elem()
)

type calculatorImpl struct {
	trace *[]string
}

func (t *calculatorImpl) Add(a, b int) int {
	if t.trace != nil {
		*t.trace = append(*t.trace, "M")
	}
	return a + b
}

func (t *calculatorImpl) Div(a, b int) (int, error) {
	if b == 0 {
		return 0, errors.New("division by zero")
	}
	return a / b, nil
}

func (t *calculatorImpl) Print(format string, args ...interface{}) string {
	return strings.TrimSpace(strings.Repeat(format+" ", len(args)))
}

func (t *calculatorImpl) Reset() {
	panic("reset is not supported")
}

func tracing(name string, trace *[]string) aop.MethodInterceptor {
	return aop.InterceptorFunc(func(inv *aop.Invocation) ([]interface{}, error) {
		*trace = append(*trace, name+"-pre")
		res, err := inv.Proceed()
		*trace = append(*trace, name+"-post")
		return res, err
	})
}

func TestInterceptorOrder(t *testing.T) {

	var trace []string
	pf := aop.NewProxyFactory(&calculatorImpl{trace: &trace}, calculatorClass)
	pf.AddInterceptor(tracing("T", &trace))
	require.NoError(t, pf.AddInterceptorAt(0, tracing("L", &trace)))
	require.Error(t, pf.AddInterceptorAt(5, tracing("X", &trace)))

	proxy, err := pf.Proxy()
	require.NoError(t, err)

	sum, err := proxy.Call("Add", 2, 3)
	require.NoError(t, err)
	require.Equal(t, 5, sum)

	require.Equal(t, []string{"L-pre", "T-pre", "M", "T-post", "L-post"}, trace)
}

func TestShortCircuit(t *testing.T) {

	var trace []string
	pf := aop.NewProxyFactory(&calculatorImpl{trace: &trace}, calculatorClass)
	pf.AddInterceptor(tracing("L", &trace))
	pf.AddInterceptor(aop.InterceptorFunc(func(inv *aop.Invocation) ([]interface{}, error) {
		trace = append(trace, "T-throw")
		return nil, errors.New("denied")
	}))

	proxy, err := pf.Proxy()
	require.NoError(t, err)

	_, err = proxy.Invoke("Add", 1, 1)
	require.Error(t, err)
	require.Equal(t, "denied", err.Error())

	require.Equal(t, []string{"L-pre", "T-throw", "L-post"}, trace)
}

func TestProxyImmutable(t *testing.T) {

	var trace []string
	pf := aop.NewProxyFactory(&calculatorImpl{trace: &trace}, calculatorClass)
	pf.AddInterceptor(tracing("A", &trace))

	proxy, err := pf.Proxy()
	require.NoError(t, err)

	pf.AddInterceptor(tracing("B", &trace))
	pf.AddInterface(printerClass)

	_, err = proxy.Call("Add", 1, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"A-pre", "M", "A-post"}, trace)

	require.False(t, proxy.Implements(printerClass))
	_, err = proxy.Invoke("Print", "x")
	require.Error(t, err)

	require.Equal(t, 2, len(pf.Interceptors()))
}

func TestTargetErrors(t *testing.T) {

	pf := aop.NewProxyFactory(&calculatorImpl{}, calculatorClass, printerClass)
	proxy, err := pf.Proxy()
	require.NoError(t, err)

	require.Equal(t, []string{"Add", "Div", "Print", "Reset"}, proxy.Methods())
	require.True(t, proxy.Implements(calculatorClass))
	require.True(t, proxy.Implements(printerClass))

	out, err := proxy.Invoke("Div", 9, 3)
	require.NoError(t, err)
	require.Equal(t, []interface{}{3}, out)

	_, err = proxy.Invoke("Div", 1, 0)
	require.Error(t, err)
	require.Equal(t, "division by zero", err.Error())

	_, err = proxy.Invoke("Reset")
	require.Error(t, err)
	require.Contains(t, err.Error(), "reset is not supported")

	s, err := proxy.Call("Print", "a", 1, 2)
	require.NoError(t, err)
	require.Equal(t, "a a", s)

	out, err = proxy.Invoke("Reset", nil)
	require.Error(t, err)
	require.Nil(t, out)

	_, err = proxy.Invoke("Add", "1", 2)
	require.Error(t, err)

	_, err = proxy.Invoke("Add", 1)
	require.Error(t, err)

	_, err = proxy.Invoke("Mul", 1, 2)
	require.Error(t, err)

	m, ok := proxy.Method("Div")
	require.True(t, ok)
	require.Equal(t, "calculator.Div", m.String())
	require.Equal(t, calculatorClass, m.Interface)
}

type notCalculator struct {
}

func TestProxyValidation(t *testing.T) {

	_, err := aop.NewProxyFactory(nil, calculatorClass).Proxy()
	require.Error(t, err)

	_, err = aop.NewProxyFactory(&calculatorImpl{}).Proxy()
	require.Error(t, err)

	_, err = aop.NewProxyFactory(&calculatorImpl{}, reflect.TypeOf(0)).Proxy()
	require.Error(t, err)

	_, err = aop.NewProxyFactory(&notCalculator{}, calculatorClass).Proxy()
	require.Error(t, err)
}

func TestArgumentsRewrite(t *testing.T) {

	pf := aop.NewProxyFactory(&calculatorImpl{}, calculatorClass)
	pf.AddInterceptor(aop.InterceptorFunc(func(inv *aop.Invocation) ([]interface{}, error) {
		args := inv.Arguments()
		inv.SetArguments(args[0].(int)*10, args[1])
		return inv.Proceed()
	}))

	proxy, err := pf.Proxy()
	require.NoError(t, err)

	sum, err := proxy.Call("Add", 1, 2)
	require.NoError(t, err)
	require.Equal(t, 12, sum)
}
