/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package aop

import (
	"fmt"
	"github.com/pkg/errors"
	"reflect"
	"sort"
)

var (
	ProxyClass = reflect.TypeOf((*Proxy)(nil))
	errorClass = reflect.TypeOf((*error)(nil)).Elem()
)

/**
Collects target, interfaces and interceptors, and builds the immutable proxy.
*/
type ProxyFactory struct {
	target       interface{}
	interfaces   []reflect.Type
	interceptors []MethodInterceptor
}

func NewProxyFactory(target interface{}, interfaces ...reflect.Type) *ProxyFactory {
	return &ProxyFactory{
		target:     target,
		interfaces: interfaces,
	}
}

func (t *ProxyFactory) AddInterface(ifaceType reflect.Type) {
	t.interfaces = append(t.interfaces, ifaceType)
}

/**
Appends interceptor to the end of the chain
*/
func (t *ProxyFactory) AddInterceptor(interceptor MethodInterceptor) {
	t.interceptors = append(t.interceptors, interceptor)
}

/**
Inserts interceptor at the position, 0 is the first one to run
*/
func (t *ProxyFactory) AddInterceptorAt(index int, interceptor MethodInterceptor) error {
	if index < 0 || index > len(t.interceptors) {
		return errors.Errorf("interceptor index %d is out of range [0, %d]", index, len(t.interceptors))
	}
	t.interceptors = append(t.interceptors, nil)
	copy(t.interceptors[index+1:], t.interceptors[index:])
	t.interceptors[index] = interceptor
	return nil
}

func (t *ProxyFactory) Interceptors() []MethodInterceptor {
	list := make([]MethodInterceptor, len(t.interceptors))
	copy(list, t.interceptors)
	return list
}

/**
Builds proxy with the method set of all interfaces. Target must implement every interface.
Later changes of the factory do not affect proxies already returned.
*/
func (t *ProxyFactory) Proxy() (*Proxy, error) {

	if t.target == nil {
		return nil, errors.New("proxy target is not defined")
	}
	if len(t.interfaces) == 0 {
		return nil, errors.Errorf("proxy of '%v' has no interfaces", reflect.TypeOf(t.target))
	}

	targetValue := reflect.ValueOf(t.target)
	targetType := targetValue.Type()

	methods := make(map[string]*Method)
	var names []string
	for _, iface := range t.interfaces {
		if iface == nil || iface.Kind() != reflect.Interface {
			return nil, errors.Errorf("proxy type '%v' is not an interface", iface)
		}
		if !targetType.Implements(iface) {
			return nil, errors.Errorf("target '%v' does not implement '%v'", targetType, iface)
		}
		for j := 0; j < iface.NumMethod(); j++ {
			m := iface.Method(j)
			if prev, ok := methods[m.Name]; ok {
				if prev.Type != m.Type {
					return nil, errors.Errorf("method '%s' has different signatures in '%v' and '%v'", m.Name, prev.Interface, iface)
				}
				continue
			}
			fn := targetValue.MethodByName(m.Name)
			if !fn.IsValid() {
				return nil, errors.Errorf("method '%s' is not found in '%v'", m.Name, targetType)
			}
			n := m.Type.NumOut()
			methods[m.Name] = &Method{
				Name:         m.Name,
				Interface:    iface,
				Type:         m.Type,
				fn:           fn,
				returnsError: n > 0 && m.Type.Out(n-1) == errorClass,
			}
			names = append(names, m.Name)
		}
	}
	sort.Strings(names)

	interfaces := make([]reflect.Type, len(t.interfaces))
	copy(interfaces, t.interfaces)

	return &Proxy{
		target:     t.target,
		interfaces: interfaces,
		methods:    methods,
		names:      names,
		chain:      t.Interceptors(),
	}, nil
}

/**
Stand-in for the target that runs every call through the interceptor chain.
Exposes only methods of the interfaces given on construction.
*/
type Proxy struct {
	target     interface{}
	interfaces []reflect.Type
	methods    map[string]*Method
	names      []string
	chain      []MethodInterceptor
}

/**
Invokes method by name, returns results of the method without the trailing error, that goes to the error.
*/
func (t *Proxy) Invoke(method string, args ...interface{}) ([]interface{}, error) {
	m, ok := t.methods[method]
	if !ok {
		return nil, errors.Errorf("method '%s' is not exposed by proxy of '%v'", method, reflect.TypeOf(t.target))
	}
	inv := &Invocation{
		method: m,
		args:   args,
		target: t.target,
		chain:  t.chain,
	}
	return inv.Proceed()
}

/**
Invokes method and returns the first result if exist
*/
func (t *Proxy) Call(method string, args ...interface{}) (interface{}, error) {
	out, err := t.Invoke(method, args...)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (t *Proxy) Method(name string) (*Method, bool) {
	m, ok := t.methods[name]
	return m, ok
}

/**
Sorted names of exposed methods
*/
func (t *Proxy) Methods() []string {
	list := make([]string, len(t.names))
	copy(list, t.names)
	return list
}

func (t *Proxy) Implements(ifaceType reflect.Type) bool {
	for _, iface := range t.interfaces {
		if iface == ifaceType {
			return true
		}
	}
	return false
}

func (t *Proxy) Interfaces() []reflect.Type {
	list := make([]reflect.Type, len(t.interfaces))
	copy(list, t.interfaces)
	return list
}

func (t *Proxy) Target() interface{} {
	return t.target
}

func (t *Proxy) String() string {
	return fmt.Sprintf("Proxy [target=%v, methods=%d, interceptors=%d]", reflect.TypeOf(t.target), len(t.names), len(t.chain))
}

/**
Calls the target method, the end of every chain
*/
func (t *Method) call(args []interface{}) (results []interface{}, err error) {

	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = errors.Errorf("method '%s' recovered with error %v", t, r)
		}
	}()

	in, err := t.arguments(args)
	if err != nil {
		return nil, err
	}

	out := t.fn.Call(in)
	if t.returnsError {
		last := out[len(out)-1]
		out = out[:len(out)-1]
		if !last.IsNil() {
			err = last.Interface().(error)
		}
	}

	results = make([]interface{}, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, err
}

func (t *Method) arguments(args []interface{}) ([]reflect.Value, error) {
	numIn := t.Type.NumIn()
	variadic := t.Type.IsVariadic()
	if variadic {
		if len(args) < numIn-1 {
			return nil, errors.Errorf("method '%s' expects at least %d arguments, but was %d", t, numIn-1, len(args))
		}
	} else if len(args) != numIn {
		return nil, errors.Errorf("method '%s' expects %d arguments, but was %d", t, numIn, len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var argType reflect.Type
		if variadic && i >= numIn-1 {
			argType = t.Type.In(numIn - 1).Elem()
		} else {
			argType = t.Type.In(i)
		}
		if arg == nil {
			in[i] = reflect.Zero(argType)
			continue
		}
		v := reflect.ValueOf(arg)
		if !v.Type().AssignableTo(argType) {
			return nil, errors.Errorf("argument %d of method '%s' must be '%v', but was '%v'", i, t, argType, v.Type())
		}
		in[i] = v
	}
	return in, nil
}
