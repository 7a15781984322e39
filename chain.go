/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beans

import "sync"

/**
Bean under construction in the current call chain
*/
type entry struct {
	factory   *factory
	name      string
	singleton bool

	/**
	Raw instance, set right after instantiation and before population
	*/
	obj interface{}
}

/**
State of one GetBean call, passed through every nested resolution.
Holds beans under construction by this call.
*/
type chain struct {
	stack []*entry

	/**
	Creation of another chain this one waits for, guarded by flights
	*/
	waiting *flight
}

func (t *chain) push(e *entry) {
	t.stack = append(t.stack, e)
}

func (t *chain) pop() {
	if n := len(t.stack); n > 0 {
		t.stack[n-1] = nil
		t.stack = t.stack[:n-1]
	}
}

func (t *chain) find(f *factory, name string) int {
	for i, e := range t.stack {
		if e.factory == f && e.name == name {
			return i
		}
	}
	return -1
}

func (t *chain) index(e *entry) int {
	for i, el := range t.stack {
		if el == e {
			return i
		}
	}
	return -1
}

/**
Early reference is safe only if every bean from the position to the top of the stack is a singleton
*/
func (t *chain) singletonsFrom(i int) bool {
	for _, e := range t.stack[i:] {
		if !e.singleton {
			return false
		}
	}
	return true
}

func (t *chain) namesFrom(i int) []string {
	names := make([]string, 0, len(t.stack)-i+1)
	for _, e := range t.stack[i:] {
		names = append(names, e.name)
	}
	return names
}

/**
Creation of one singleton or one factory bean product
*/
type flight struct {
	owner *chain

	/**
	Entry of the owner stack, nil for products
	*/
	entry *entry

	done     chan struct{}
	finished bool
	obj      interface{}
	err      error
}

type flightKey struct {
	factory *factory
	name    string
	product bool
}

/**
Creations in progress, shared by all factories of one hierarchy.
Other chains wait only for the name they need.
*/
type flights struct {
	sync.Mutex
	m map[flightKey]*flight
}

func newFlights() *flights {
	return &flights{m: make(map[flightKey]*flight)}
}

/**
Returns the new flight owned by the chain, the caller must finish it.
Otherwise returns the result of the creation made by another chain, or
the early instance if waiting for it would close a cycle of singletons.
*/
func (t *flights) acquire(key flightKey, c *chain, e *entry) (*flight, interface{}, error) {

	t.Lock()
	fl, ok := t.m[key]
	if !ok {
		fl = &flight{owner: c, entry: e, done: make(chan struct{})}
		t.m[key] = fl
		t.Unlock()
		return fl, nil, nil
	}

	if path := t.waitCycle(fl, c); path != nil {
		obj, err := earlyReference(key.name, path)
		t.Unlock()
		return nil, obj, err
	}

	c.waiting = fl
	t.Unlock()

	<-fl.done

	t.Lock()
	c.waiting = nil
	t.Unlock()

	return nil, fl.obj, fl.err
}

func (t *flights) finish(key flightKey, fl *flight, obj interface{}, err error) {
	t.Lock()
	fl.obj, fl.err, fl.finished = obj, err, true
	delete(t.m, key)
	t.Unlock()
	close(fl.done)
}

/**
Flights from the requested one through the waiting owners back to the chain,
nil if the chain would not wait for itself
*/
func (t *flights) waitCycle(fl *flight, c *chain) []*flight {
	var path []*flight
	for x := fl; x != nil && !x.finished && len(path) <= len(t.m); x = x.owner.waiting {
		path = append(path, x)
		if x.owner == c {
			return path
		}
	}
	return nil
}

/**
Every owner in the path except the last one is blocked, so their stacks are stable
*/
func earlyReference(name string, path []*flight) (interface{}, error) {
	var names []string
	early := path[0].entry != nil && path[0].entry.obj != nil
	for _, x := range path {
		i := -1
		if x.entry != nil {
			i = x.owner.index(x.entry)
		}
		if i < 0 {
			early = false
			continue
		}
		if !x.owner.singletonsFrom(i) {
			early = false
		}
		names = append(names, x.owner.namesFrom(i)...)
	}
	if early {
		return path[0].entry.obj, nil
	}
	return nil, &CircularReferenceError{Name: name, Chain: append(names, name)}
}
