/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beans

import (
	"github.com/pkg/errors"
	"sort"
	"sync"
)

/**
	Holds definitions, aliases and cached singletons owned by one factory.
 */

type registry struct {
	sync.RWMutex

	/**
	Definition names in registration order
	*/
	names []string

	definitions map[string]*BeanDefinition

	/**
	Alias to the canonical name
	*/
	aliases map[string]string

	/**
	Fully-wired singletons
	*/
	singletons map[string]interface{}

	/**
	Singleton objects produced by factory beans
	*/
	products map[string]interface{}

	states map[string]BeanState

	/**
	Singletons in creation order that should be destroyed on close
	*/
	disposables []disposable

	/**
	Set by Close, no singleton is cached afterwards
	*/
	closed bool
}

type disposable struct {
	name string
	bean DisposableBean
}

func newRegistry() registry {
	return registry{
		definitions: make(map[string]*BeanDefinition),
		aliases:     make(map[string]string),
		singletons:  make(map[string]interface{}),
		products:    make(map[string]interface{}),
		states:      make(map[string]BeanState),
	}
}

func (t *registry) register(name string, def *BeanDefinition) {
	t.Lock()
	defer t.Unlock()
	if _, ok := t.definitions[name]; !ok {
		t.names = append(t.names, name)
	}
	t.definitions[name] = def
	// the name is not an alias anymore
	delete(t.aliases, name)
	// re-definition drops the instance built from the previous one
	if _, ok := t.singletons[name]; ok {
		delete(t.singletons, name)
		delete(t.products, name)
		t.states[name] = BeanUnrequested
	}
}

func (t *registry) registerAlias(name, alias string) error {
	t.Lock()
	defer t.Unlock()
	if _, ok := t.definitions[alias]; ok {
		return errors.Errorf("alias '%s' for bean '%s' clashes with the bean definition", alias, name)
	}
	if prev, ok := t.aliases[alias]; ok && prev != name {
		return errors.Errorf("alias '%s' is already registered for bean '%s'", alias, prev)
	}
	t.aliases[alias] = name
	return nil
}

func (t *registry) canonicalName(name string) string {
	t.RLock()
	defer t.RUnlock()
	if canonical, ok := t.aliases[name]; ok {
		return canonical
	}
	return name
}

func (t *registry) aliasesOf(name string) []string {
	t.RLock()
	defer t.RUnlock()
	var list []string
	for alias, canonical := range t.aliases {
		if canonical == name {
			list = append(list, alias)
		}
	}
	sort.Strings(list)
	return list
}

func (t *registry) definition(name string) (*BeanDefinition, bool) {
	t.RLock()
	defer t.RUnlock()
	def, ok := t.definitions[name]
	return def, ok
}

func (t *registry) definitionNames() []string {
	t.RLock()
	defer t.RUnlock()
	list := make([]string, len(t.names))
	copy(list, t.names)
	return list
}

func (t *registry) count() int {
	t.RLock()
	defer t.RUnlock()
	return len(t.names)
}

func (t *registry) singleton(name string) (interface{}, bool) {
	t.RLock()
	defer t.RUnlock()
	obj, ok := t.singletons[name]
	return obj, ok
}

func (t *registry) isClosed() bool {
	t.RLock()
	defer t.RUnlock()
	return t.closed
}

/**
Returns false if the registry was closed and the singleton is not cached
*/
func (t *registry) addSingleton(name string, obj interface{}, dis DisposableBean) bool {
	t.Lock()
	defer t.Unlock()
	if t.closed {
		return false
	}
	t.singletons[name] = obj
	t.states[name] = BeanCached
	if dis != nil {
		t.disposables = append(t.disposables, disposable{name: name, bean: dis})
	}
	return true
}

func (t *registry) product(name string) (interface{}, bool) {
	t.RLock()
	defer t.RUnlock()
	obj, ok := t.products[name]
	return obj, ok
}

func (t *registry) addProduct(name string, obj interface{}) {
	t.Lock()
	defer t.Unlock()
	t.products[name] = obj
}

func (t *registry) state(name string) BeanState {
	t.RLock()
	defer t.RUnlock()
	return t.states[name]
}

func (t *registry) setState(name string, state BeanState) {
	t.Lock()
	defer t.Unlock()
	t.states[name] = state
}

/**
Removes all singletons and returns disposables in creation order
*/
func (t *registry) clearSingletons() []disposable {
	t.Lock()
	defer t.Unlock()
	t.closed = true
	list := t.disposables
	for name := range t.singletons {
		t.states[name] = BeanDestroyed
	}
	t.singletons = make(map[string]interface{})
	t.products = make(map[string]interface{})
	t.disposables = nil
	return list
}
