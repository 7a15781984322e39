/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package aop_test

import (
	"github.com/codeallergy/beans/aop"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func newCalculatorProxy(t *testing.T, interceptors ...aop.MethodInterceptor) *aop.Proxy {
	pf := aop.NewProxyFactory(&calculatorImpl{}, calculatorClass)
	for _, i := range interceptors {
		pf.AddInterceptor(i)
	}
	proxy, err := pf.Proxy()
	require.NoError(t, err)
	return proxy
}

func TestBeforeAndAfterReturning(t *testing.T) {

	var observed []interface{}
	proxy := newCalculatorProxy(t,
		aop.Before(func(inv *aop.Invocation) error {
			if inv.Arguments()[0].(int) < 0 {
				return errors.New("negative argument")
			}
			return nil
		}),
		aop.AfterReturning(func(inv *aop.Invocation, results []interface{}) {
			observed = append(observed, results...)
		}),
	)

	_, err := proxy.Call("Add", -1, 1)
	require.Error(t, err)
	require.Empty(t, observed)

	_, err = proxy.Call("Div", 1, 0)
	require.Error(t, err)
	require.Empty(t, observed)

	_, err = proxy.Call("Add", 1, 1)
	require.NoError(t, err)
	require.Equal(t, []interface{}{2}, observed)
}

func TestLoggingInterceptor(t *testing.T) {

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	proxy := newCalculatorProxy(t, aop.NewLoggingInterceptor(logger))

	_, err := proxy.Call("Add", 1, 2)
	require.NoError(t, err)

	entries := hook.AllEntries()
	require.Equal(t, 2, len(entries))
	require.Equal(t, "invoke", entries[0].Message)
	require.Equal(t, "calculator.Add", entries[0].Data["method"])
	require.Equal(t, 2, entries[0].Data["args"])
	require.Equal(t, "method returned", entries[1].Message)
	require.Contains(t, entries[1].Data, "elapsed")

	hook.Reset()

	_, err = proxy.Call("Div", 1, 0)
	require.Error(t, err)

	last := hook.LastEntry()
	require.NotNil(t, last)
	require.Equal(t, logrus.WarnLevel, last.Level)
	require.Equal(t, "method failed", last.Message)
	require.Equal(t, err, last.Data[logrus.ErrorKey])
}

func TestMetricsInterceptor(t *testing.T) {

	metrics := aop.NewMetricsInterceptor("")
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(metrics))

	proxy := newCalculatorProxy(t, metrics)

	for i := 0; i < 3; i++ {
		_, err := proxy.Call("Add", i, i)
		require.NoError(t, err)
	}
	_, err := proxy.Call("Div", 1, 0)
	require.Error(t, err)

	expected := `
# HELP beans_proxy_invocations_total Number of proxied method invocations.
# TYPE beans_proxy_invocations_total counter
beans_proxy_invocations_total{method="calculator.Add",outcome="ok"} 3
beans_proxy_invocations_total{method="calculator.Div",outcome="error"} 1
`
	require.NoError(t, testutil.CollectAndCompare(metrics, strings.NewReader(expected), "beans_proxy_invocations_total"))
	require.Equal(t, 2, testutil.CollectAndCount(metrics, "beans_proxy_invocation_duration_seconds"))
}

type timeoutError struct {
}

func (timeoutError) Error() string {
	return "i/o timeout"
}

func TestRemoteAccessInterceptor(t *testing.T) {

	remote := &aop.RemoteAccessInterceptor{
		Service: "calc-service",
		Translate: func(err error) bool {
			return !strings.Contains(err.Error(), "division")
		},
	}

	failing := aop.InterceptorFunc(func(inv *aop.Invocation) ([]interface{}, error) {
		if inv.Method().Name == "Add" {
			return nil, timeoutError{}
		}
		return inv.Proceed()
	})

	proxy := newCalculatorProxy(t, remote, failing)

	_, err := proxy.Call("Add", 1, 2)
	require.Error(t, err)

	var remoteErr *aop.RemoteAccessError
	require.True(t, errors.As(err, &remoteErr))
	require.Equal(t, "calc-service", remoteErr.Service)
	require.Equal(t, "calculator.Add", remoteErr.Method)

	var cause timeoutError
	require.True(t, errors.As(err, &cause))
	require.Equal(t, timeoutError{}, errors.Cause(err))

	_, err = proxy.Call("Div", 1, 0)
	require.Error(t, err)
	require.False(t, errors.As(err, &remoteErr))

	out, err := proxy.Call("Div", 4, 2)
	require.NoError(t, err)
	require.Equal(t, 2, out)
}

func TestRemoteAccessNotWrappedTwice(t *testing.T) {

	inner := &aop.RemoteAccessInterceptor{Service: "inner"}
	outer := &aop.RemoteAccessInterceptor{Service: "outer"}

	proxy := newCalculatorProxy(t, outer, inner)

	_, err := proxy.Call("Div", 1, 0)

	var remoteErr *aop.RemoteAccessError
	require.True(t, errors.As(err, &remoteErr))
	require.Equal(t, "inner", remoteErr.Service)
	require.Equal(t, "division by zero", remoteErr.Err.Error())
}
