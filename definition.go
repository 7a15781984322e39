/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beans

import (
	"fmt"
	"github.com/pkg/errors"
	"reflect"
)

/**
Describes how to build one named object
*/
type BeanDefinition struct {

	/**
	Class of the bean, the constructor and the property table
	*/
	Class *Class

	/**
	Values applied to the new instance in order
	*/
	Properties PropertyValues

	/**
	One shared instance per factory if true, new instance on every request otherwise
	*/
	Singleton bool

	/**
	Singleton is not created by PreInstantiateSingletons
	*/
	Lazy bool

	/**
	Beans that must be created before this one
	*/
	DependsOn []string

	/**
	Wraps the instance in the interceptor pipeline if not nil
	*/
	Proxy *ProxyDefinition
}

type ProxyDefinition struct {

	/**
	Interfaces that define the method set of the proxy
	*/
	Interfaces []reflect.Type

	/**
	Names of beans implementing aop.MethodInterceptor, in invocation order
	*/
	Interceptors []string
}

/**
Singleton definition
*/
func NewDefinition(class *Class, values ...PropertyValue) *BeanDefinition {
	return &BeanDefinition{
		Class:      class,
		Properties: NewPropertyValues(values...),
		Singleton:  true,
	}
}

/**
Non-singleton definition, new instance on every request
*/
func NewPrototype(class *Class, values ...PropertyValue) *BeanDefinition {
	return &BeanDefinition{
		Class:      class,
		Properties: NewPropertyValues(values...),
	}
}

func (t *BeanDefinition) Validate() error {
	if t.Class == nil {
		return errors.New("bean class is not defined")
	}
	if t.Class.Type() == nil {
		return errors.Errorf("class '%s' has no type", t.Class.Name())
	}
	if t.Proxy != nil {
		if len(t.Proxy.Interfaces) == 0 {
			return errors.Errorf("proxy of class '%s' has no interfaces", t.Class.Name())
		}
		for _, iface := range t.Proxy.Interfaces {
			if iface == nil || iface.Kind() != reflect.Interface {
				return errors.Errorf("proxy of class '%s' declares '%v' that is not an interface", t.Class.Name(), iface)
			}
		}
	}
	return nil
}

/**
Returns copy of the definition with other property values
*/
func (t *BeanDefinition) WithProperties(values PropertyValues) *BeanDefinition {
	c := *t
	c.Properties = values
	return &c
}

func (t *BeanDefinition) isFactoryBean() bool {
	return t.Class != nil && t.Class.Type() != nil && t.Class.Type().Implements(FactoryBeanClass)
}

func (t *BeanDefinition) String() string {
	scope := "prototype"
	if t.Singleton {
		scope = "singleton"
	}
	name := "<nil>"
	if t.Class != nil {
		name = t.Class.Name()
	}
	return fmt.Sprintf("BeanDefinition [class=%s, scope=%s, lazy=%v, properties=%d, proxy=%v]", name, scope, t.Lazy, t.Properties.Len(), t.Proxy != nil)
}
