/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beans

import (
	"fmt"
	"github.com/codeallergy/beans/aop"
	"github.com/pkg/errors"
	"log"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
)

type factory struct {

	/**
	Parent factory if exist, used only for delegation
	*/
	parent *factory

	/**
	Verbose logs if not nil
	*/
	verbose *log.Logger

	classes *ClassRegistry
	editors *EditorRegistry

	/**
	Definitions and singletons owned by this factory
	*/
	registry registry

	/**
	Singletons and products in creation, shared with parent and children
	*/
	flights *flights

	/**
	Guarantees that factory would be closed once
	*/
	closeOnce sync.Once
}

/**
Creates root factory
*/
func New(options ...Option) Factory {
	return newFactory(nil, options)
}

func (t *factory) Extend(options ...Option) Factory {
	return newFactory(t, options)
}

func newFactory(parent *factory, options []Option) *factory {
	t := &factory{
		parent:   parent,
		registry: newRegistry(),
	}
	for _, opt := range options {
		opt(t)
	}
	if t.classes == nil {
		if parent != nil {
			t.classes = parent.classes
		} else {
			t.classes = NewClassRegistry()
		}
	}
	if t.editors == nil {
		if parent != nil && parent.classes == t.classes {
			t.editors = parent.editors
		} else {
			t.editors = NewEditorRegistry(t.classes)
		}
	}
	if parent != nil {
		if t.verbose == nil {
			t.verbose = parent.verbose
		}
		t.flights = parent.flights
	} else {
		t.flights = newFlights()
	}
	return t
}

func (t *factory) Parent() (Factory, bool) {
	if t.parent != nil {
		return t.parent, true
	} else {
		return nil, false
	}
}

func (t *factory) RegisterDefinition(name string, def *BeanDefinition) error {
	if name == "" || strings.HasPrefix(name, FactoryBeanPrefix) {
		return errors.Errorf("invalid bean name '%s'", name)
	}
	if def == nil {
		return errors.Errorf("null definition of bean '%s'", name)
	}
	if err := def.Validate(); err != nil {
		return errors.Wrapf(err, "invalid definition of bean '%s'", name)
	}
	if t.verbose != nil {
		if t.registry.count() > 0 && t.ContainsDefinition(name) {
			t.verbose.Printf("Redefine Bean '%s' %v\n", name, def)
		} else {
			t.verbose.Printf("Define Bean '%s' %v\n", name, def)
		}
	}
	t.registry.register(name, def)
	return nil
}

func (t *factory) RegisterAlias(name, alias string) error {
	if name == "" || alias == "" {
		return errors.Errorf("empty alias '%s' or name '%s'", alias, name)
	}
	if name == alias {
		return nil
	}
	if t.verbose != nil {
		t.verbose.Printf("Alias '%s' for Bean '%s'\n", alias, name)
	}
	return t.registry.registerAlias(name, alias)
}

func (t *factory) Definition(name string) (*BeanDefinition, bool) {
	return t.registry.definition(t.registry.canonicalName(name))
}

func (t *factory) ContainsDefinition(name string) bool {
	_, ok := t.Definition(name)
	return ok
}

func (t *factory) DefinitionNames() []string {
	return t.registry.definitionNames()
}

func (t *factory) CountDefinitions() int {
	return t.registry.count()
}

func (t *factory) CountDefinitionsIncludingAncestors() int {
	seen := make(map[string]bool)
	for f := t; f != nil; f = f.parent {
		for _, name := range f.registry.definitionNames() {
			seen[name] = true
		}
	}
	return len(seen)
}

func (t *factory) Aliases(name string) []string {
	return t.registry.aliasesOf(t.registry.canonicalName(name))
}

func (t *factory) State(name string) BeanState {
	return t.registry.state(t.registry.canonicalName(name))
}

func (t *factory) GetBean(name string) (interface{}, error) {
	return t.getBean(name, &chain{})
}

func (t *factory) GetBeanOf(name string, requiredType reflect.Type) (interface{}, error) {
	return t.getBeanOf(name, requiredType, &chain{})
}

func (t *factory) getBeanOf(name string, requiredType reflect.Type, c *chain) (interface{}, error) {
	obj, err := t.getBean(name, c)
	if err != nil {
		return nil, err
	}
	if requiredType != nil && !reflect.TypeOf(obj).AssignableTo(requiredType) {
		return nil, &BeanNotOfRequiredTypeError{Name: name, Required: requiredType, Actual: reflect.TypeOf(obj)}
	}
	return obj, nil
}

func (t *factory) ContainsBean(name string) bool {
	beanName := t.registry.canonicalName(strings.TrimPrefix(name, FactoryBeanPrefix))
	if _, ok := t.registry.definition(beanName); ok {
		return true
	}
	if _, ok := t.registry.singleton(beanName); ok {
		return true
	}
	if t.parent != nil {
		return t.parent.ContainsBean(beanName)
	}
	return false
}

func (t *factory) IsSingleton(name string) (bool, error) {
	return t.isSingleton(name, &chain{})
}

func (t *factory) isSingleton(name string, c *chain) (bool, error) {
	deref := strings.HasPrefix(name, FactoryBeanPrefix)
	beanName := t.registry.canonicalName(strings.TrimPrefix(name, FactoryBeanPrefix))
	def, ok := t.registry.definition(beanName)
	if !ok {
		if t.parent != nil {
			return t.parent.isSingleton(derefName(beanName, deref), c)
		}
		return false, &NoSuchDefinitionError{Name: name}
	}
	if !def.Singleton || deref || !def.isFactoryBean() || def.Proxy != nil {
		return def.Singleton, nil
	}
	obj, err := t.getBean(FactoryBeanPrefix+beanName, c)
	if err != nil {
		return false, err
	}
	return obj.(FactoryBean).Singleton(), nil
}

/**
Resolution of the name in the call chain
*/
func (t *factory) getBean(name string, c *chain) (interface{}, error) {

	deref := strings.HasPrefix(name, FactoryBeanPrefix)
	beanName := t.registry.canonicalName(strings.TrimPrefix(name, FactoryBeanPrefix))

	if obj, ok := t.registry.singleton(beanName); ok {
		return t.objectForInstance(beanName, obj, deref, true, c)
	}

	def, ok := t.registry.definition(beanName)
	if !ok {
		if t.parent != nil {
			return t.parent.getBean(derefName(beanName, deref), c)
		}
		return nil, &NoSuchDefinitionError{Name: name}
	}

	obj, err := t.createBean(beanName, def, c)
	if err != nil {
		return nil, err
	}
	return t.objectForInstance(beanName, obj, deref, def.Singleton, c)
}

func derefName(name string, deref bool) string {
	if deref {
		return FactoryBeanPrefix + name
	}
	return name
}

func (t *factory) createBean(name string, def *BeanDefinition, c *chain) (interface{}, error) {

	if i := c.find(t, name); i >= 0 {
		e := c.stack[i]
		if e.obj != nil && c.singletonsFrom(i) {
			if t.verbose != nil {
				t.verbose.Printf("%sEarly reference to Bean '%s' under construction\n", indent(len(c.stack)), name)
			}
			return e.obj, nil
		}
		return nil, &CircularReferenceError{Name: name, Chain: append(c.namesFrom(i), name)}
	}

	if t.registry.isClosed() {
		return nil, &BeanCreationError{Name: name, Err: ErrFactoryClosed}
	}

	e := &entry{factory: t, name: name, singleton: def.Singleton}
	if !def.Singleton {
		return t.construct(def, e, c)
	}

	key := flightKey{factory: t, name: name}
	fl, obj, err := t.flights.acquire(key, c, e)
	if fl == nil {
		return obj, err
	}

	// created by another chain before this one took the flight
	if obj, ok := t.registry.singleton(name); ok {
		t.flights.finish(key, fl, obj, nil)
		return obj, nil
	}

	obj, err = t.construct(def, e, c)
	t.flights.finish(key, fl, obj, err)
	return obj, err
}

func (t *factory) construct(def *BeanDefinition, e *entry, c *chain) (obj interface{}, err error) {

	name := e.name
	c.push(e)
	prevState := t.registry.state(name)
	t.registry.setState(name, BeanUnderConstruction)

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("construct bean '%s' with class '%s' recovered with error %v", name, def.Class.Name(), r)
		}
		c.pop()
		if err != nil {
			t.registry.setState(name, prevState)
			if t.verbose != nil {
				t.verbose.Printf("%sFailed Bean '%s', %v\n", indent(len(c.stack)), name, err)
			}
			err = &BeanCreationError{Name: name, Err: err}
			obj = nil
		}
	}()

	if t.verbose != nil {
		t.verbose.Printf("%sCreate Bean '%s' with class '%s', singleton=%v, properties=%d, proxy=%v\n", indent(len(c.stack)-1), name, def.Class.Name(), def.Singleton, def.Properties.Len(), def.Proxy != nil)
	}

	for _, dep := range def.DependsOn {
		if _, err := t.getBean(dep, c); err != nil {
			return nil, errors.Wrapf(err, "depends on bean '%s'", dep)
		}
	}

	raw, err := def.Class.New()
	if err != nil {
		return nil, err
	}
	e.obj = raw

	if err := t.populate(def, raw, c); err != nil {
		return nil, err
	}

	if aware, ok := raw.(BeanNameAware); ok {
		aware.SetBeanName(name)
	}
	if aware, ok := raw.(BeanFactoryAware); ok {
		handle := &awareFactory{factory: t}
		handle.active.Store(c)
		defer handle.active.Store(nil)
		if err := aware.SetBeanFactory(handle); err != nil {
			return nil, errors.Wrap(err, "set bean factory")
		}
	}
	if initializer, ok := raw.(InitializingBean); ok {
		if t.verbose != nil {
			t.verbose.Printf("%sPostConstruct Bean '%s'\n", indent(len(c.stack)-1), name)
		}
		if err := initializer.PostConstruct(); err != nil {
			return nil, errors.Wrap(err, "post construct failed")
		}
	}

	obj = raw
	if def.Proxy != nil {
		proxy, err := t.createProxy(def, raw, c)
		if err != nil {
			return nil, err
		}
		obj = proxy
	}

	if def.Singleton {
		dis, _ := raw.(DisposableBean)
		if !t.registry.addSingleton(name, obj, dis) {
			if dis != nil {
				if err := t.destroyBean(disposable{name: name, bean: dis}); err != nil {
					return nil, errors.Wrap(err, "factory closed during creation")
				}
			}
			return nil, ErrFactoryClosed
		}
	} else {
		t.registry.setState(name, BeanTransient)
	}
	return obj, nil
}

/**
Applies property values through the wrapper, references are resolved in this factory
*/
func (t *factory) populate(def *BeanDefinition, obj interface{}, c *chain) error {
	if def.Properties.Len() == 0 {
		return nil
	}
	wrapper := newBeanWrapper(obj, def.Class, t.classes, t.editors)
	for _, pv := range def.Properties.list {
		if t.verbose != nil {
			t.verbose.Printf("%sProperty '%s' = %v\n", indent(len(c.stack)), pv.Name, pv.Value)
		}
		value, err := t.resolveValue(pv.Value, c)
		if err != nil {
			return errors.Wrapf(err, "resolve property '%s'", pv.Name)
		}
		if err := wrapper.SetPropertyValue(pv.Name, value); err != nil {
			return err
		}
	}
	return nil
}

func (t *factory) resolveValue(value interface{}, c *chain) (interface{}, error) {
	switch v := value.(type) {
	case Ref:
		return t.getBean(v.Name, c)
	case *Ref:
		return t.getBean(v.Name, c)
	case []interface{}:
		list := make([]interface{}, len(v))
		for i, el := range v {
			r, err := t.resolveValue(el, c)
			if err != nil {
				return nil, err
			}
			list[i] = r
		}
		return list, nil
	case map[string]interface{}:
		m := make(map[string]interface{}, len(v))
		for k, el := range v {
			r, err := t.resolveValue(el, c)
			if err != nil {
				return nil, err
			}
			m[k] = r
		}
		return m, nil
	default:
		return value, nil
	}
}

func (t *factory) createProxy(def *BeanDefinition, target interface{}, c *chain) (*aop.Proxy, error) {
	pf := aop.NewProxyFactory(target, def.Proxy.Interfaces...)
	for _, interceptorName := range def.Proxy.Interceptors {
		bean, err := t.getBean(interceptorName, c)
		if err != nil {
			return nil, errors.Wrapf(err, "interceptor '%s'", interceptorName)
		}
		interceptor, ok := bean.(aop.MethodInterceptor)
		if !ok {
			return nil, &BeanNotOfRequiredTypeError{Name: interceptorName, Required: aop.MethodInterceptorClass, Actual: reflect.TypeOf(bean)}
		}
		pf.AddInterceptor(interceptor)
	}
	return pf.Proxy()
}

/**
Dereferences FactoryBean unless the name has prefix '&'
*/
func (t *factory) objectForInstance(name string, obj interface{}, deref bool, cached bool, c *chain) (interface{}, error) {
	fb, isFactory := obj.(FactoryBean)
	if deref {
		if !isFactory {
			return nil, &BeanNotOfRequiredTypeError{Name: FactoryBeanPrefix + name, Required: FactoryBeanClass, Actual: reflect.TypeOf(obj)}
		}
		return obj, nil
	}
	if !isFactory {
		return obj, nil
	}
	if !cached || !fb.Singleton() {
		return t.produce(name, fb)
	}
	if product, ok := t.registry.product(name); ok {
		return product, nil
	}

	key := flightKey{factory: t, name: name, product: true}
	fl, product, err := t.flights.acquire(key, c, nil)
	if fl == nil {
		return product, err
	}
	if product, ok := t.registry.product(name); ok {
		t.flights.finish(key, fl, product, nil)
		return product, nil
	}

	product, err = t.produce(name, fb)
	if err == nil {
		t.registry.addProduct(name, product)
	}
	t.flights.finish(key, fl, product, err)
	return product, err
}

func (t *factory) produce(name string, fb FactoryBean) (obj interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &BeanCreationError{Name: name, Err: errors.Errorf("factory bean recovered with error %v", r)}
		}
	}()
	if t.verbose != nil {
		t.verbose.Printf("FactoryBean '%s' produce %v\n", name, fb.ObjectType())
	}
	obj, err = fb.Object()
	if err != nil {
		return nil, &BeanCreationError{Name: name, Err: errors.Wrapf(err, "factory bean failed to create '%v'", fb.ObjectType())}
	}
	if obj == nil {
		return nil, &BeanCreationError{Name: name, Err: errors.Errorf("factory bean returned null for '%v'", fb.ObjectType())}
	}
	return obj, nil
}

/**
Type of the object returned by GetBean without creating it when possible
*/
func (t *factory) beanType(name string, def *BeanDefinition, c *chain) (reflect.Type, bool) {
	if def.Proxy != nil {
		return aop.ProxyClass, true
	}
	if def.isFactoryBean() {
		if !def.Singleton {
			return nil, false
		}
		obj, err := t.getBean(FactoryBeanPrefix+name, c)
		if err != nil {
			return nil, false
		}
		fb, ok := obj.(FactoryBean)
		if !ok || fb.ObjectType() == nil {
			return nil, false
		}
		return fb.ObjectType(), true
	}
	return def.Class.Type(), true
}

func (t *factory) matches(name string, def *BeanDefinition, typ reflect.Type, c *chain) bool {
	actual, ok := t.beanType(name, def, c)
	if !ok {
		return false
	}
	return actual == typ || actual.AssignableTo(typ)
}

func (t *factory) BeanNamesOfType(typ reflect.Type) []string {
	return t.beanNamesOfType(typ, &chain{})
}

func (t *factory) beanNamesOfType(typ reflect.Type, c *chain) []string {
	var names []string
	for _, name := range t.registry.definitionNames() {
		if def, ok := t.registry.definition(name); ok && t.matches(name, def, typ, c) {
			names = append(names, name)
		}
	}
	return names
}

func (t *factory) BeanNamesOfTypeIncludingAncestors(typ reflect.Type) []string {
	return t.beanNamesOfTypeIncludingAncestors(typ, &chain{})
}

func (t *factory) beanNamesOfTypeIncludingAncestors(typ reflect.Type, c *chain) []string {
	seen := make(map[string]bool)
	var names []string
	for f := t; f != nil; f = f.parent {
		for _, name := range f.registry.definitionNames() {
			if seen[name] {
				continue
			}
			// descendant definition masks the ancestor one regardless of type
			seen[name] = true
			if def, ok := f.registry.definition(name); ok && f.matches(name, def, typ, c) {
				names = append(names, name)
			}
		}
	}
	return names
}

func (t *factory) BeansOfType(typ reflect.Type) (map[string]interface{}, error) {
	c := &chain{}
	return t.beansOf(t.beanNamesOfType(typ, c), c)
}

func (t *factory) BeansOfTypeIncludingAncestors(typ reflect.Type) (map[string]interface{}, error) {
	c := &chain{}
	return t.beansOf(t.beanNamesOfTypeIncludingAncestors(typ, c), c)
}

func (t *factory) beansOf(names []string, c *chain) (map[string]interface{}, error) {
	m := make(map[string]interface{}, len(names))
	for _, name := range names {
		obj, err := t.getBean(name, c)
		if err != nil {
			return nil, err
		}
		m[name] = obj
	}
	return m, nil
}

func (t *factory) PreInstantiateSingletons() error {
	for _, name := range t.registry.definitionNames() {
		def, ok := t.registry.definition(name)
		if !ok || !def.Singleton || def.Lazy {
			continue
		}
		if def.isFactoryBean() {
			name = FactoryBeanPrefix + name
		}
		if _, err := t.GetBean(name); err != nil {
			return err
		}
	}
	return nil
}

// destroy in reverse creation order
func (t *factory) Close() (err error) {

	var listErr []error
	t.closeOnce.Do(func() {
		list := t.registry.clearSingletons()
		for j := len(list) - 1; j >= 0; j-- {
			if err := t.destroyBean(list[j]); err != nil {
				listErr = append(listErr, err)
			}
		}
	})

	return multipleErr(listErr)
}

func (t *factory) destroyBean(d disposable) (err error) {

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("destroy bean '%s' recovered with error: %v", d.name, r)
		}
	}()

	if t.verbose != nil {
		t.verbose.Printf("Destroy Bean '%s'\n", d.name)
	}
	if e := d.bean.Destroy(); e != nil {
		return errors.Wrapf(e, "destroy bean '%s'", d.name)
	}
	return nil
}

/**
Factory given to BeanFactoryAware beans. Until the bean is created, lookups continue
the call chain that creates it, so callbacks see beans under construction the same way
as property references do.
*/
type awareFactory struct {
	*factory
	active atomic.Pointer[chain]
}

func (t *awareFactory) current() *chain {
	if c := t.active.Load(); c != nil {
		return c
	}
	return &chain{}
}

func (t *awareFactory) GetBean(name string) (interface{}, error) {
	return t.getBean(name, t.current())
}

func (t *awareFactory) GetBeanOf(name string, requiredType reflect.Type) (interface{}, error) {
	return t.getBeanOf(name, requiredType, t.current())
}

func (t *awareFactory) IsSingleton(name string) (bool, error) {
	return t.isSingleton(name, t.current())
}

func (t *awareFactory) BeanNamesOfType(typ reflect.Type) []string {
	return t.beanNamesOfType(typ, t.current())
}

func (t *awareFactory) BeanNamesOfTypeIncludingAncestors(typ reflect.Type) []string {
	return t.beanNamesOfTypeIncludingAncestors(typ, t.current())
}

func (t *awareFactory) BeansOfType(typ reflect.Type) (map[string]interface{}, error) {
	c := t.current()
	return t.beansOf(t.beanNamesOfType(typ, c), c)
}

func (t *awareFactory) BeansOfTypeIncludingAncestors(typ reflect.Type) (map[string]interface{}, error) {
	c := t.current()
	return t.beansOf(t.beanNamesOfTypeIncludingAncestors(typ, c), c)
}

func multipleErr(err []error) error {
	switch len(err) {
	case 0:
		return nil
	case 1:
		return err[0]
	default:
		return errors.Errorf("multiple errors, %v", err)
	}
}

func indent(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("  ", n)
}

func (t *factory) String() string {
	t.registry.RLock()
	defer t.registry.RUnlock()
	return fmt.Sprintf("Factory [hasParent=%v, definitions=%d, singletons=%d, disposables=%d]", t.parent != nil, len(t.registry.names), len(t.registry.singletons), len(t.registry.disposables))
}
