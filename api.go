/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beans

import (
	"log"
	"reflect"
)

/**
Prefix of the bean name that returns the FactoryBean itself instead of the object it produces.
*/
const FactoryBeanPrefix = "&"

type BeanState int32

const (
	BeanUnrequested BeanState = iota
	BeanUnderConstruction
	BeanCached
	BeanTransient
	BeanDestroyed
)

func (t BeanState) String() string {
	switch t {
	case BeanUnrequested:
		return "BeanUnrequested"
	case BeanUnderConstruction:
		return "BeanUnderConstruction"
	case BeanCached:
		return "BeanCached"
	case BeanTransient:
		return "BeanTransient"
	case BeanDestroyed:
		return "BeanDestroyed"
	default:
		return "BeanUnknown"
	}
}

var FactoryClass = reflect.TypeOf((*Factory)(nil)).Elem()

type Factory interface {

	/**
	Gets parent factory if exist
	*/
	Parent() (Factory, bool)

	/**
	Creates child factory that delegates to the current one for names it does not define.
	Child inherits class registry, editors and verbose logger unless options override them.
	*/
	Extend(options ...Option) Factory

	/**
	Stores the definition in the local registry. Existing definition with the same name is replaced.
	*/
	RegisterDefinition(name string, def *BeanDefinition) error

	/**
	Registers additional name for the local bean.
	*/
	RegisterAlias(name, alias string) error

	/**
	Returns local definition by name or alias
	*/
	Definition(name string) (*BeanDefinition, bool)

	/**
	Returns true if definition exist in the local registry
	*/
	ContainsDefinition(name string) bool

	/**
	Returns names of local definitions in registration order
	*/
	DefinitionNames() []string

	/**
	Number of local definitions
	*/
	CountDefinitions() int

	/**
	Number of definitions visible from this factory, a name defined in several levels counts once.
	*/
	CountDefinitionsIncludingAncestors() int

	/**
	Returns fully-wired instance of the bean.

	Lookup tries the local singleton cache, then the local registry, then the parent factory.
	Name with prefix '&' returns FactoryBean itself instead of the produced object.
	*/
	GetBean(name string) (interface{}, error)

	/**
	Same as GetBean, but verifies that the instance is assignable to the required type.
	*/
	GetBeanOf(name string, requiredType reflect.Type) (interface{}, error)

	/**
	Returns true if the name is resolvable in this factory or ancestors
	*/
	ContainsBean(name string) bool

	/**
	Returns true if GetBean always returns the same instance for the name
	*/
	IsSingleton(name string) (bool, error)

	/**
	Returns aliases of the local bean
	*/
	Aliases(name string) []string

	/**
	Returns state of the local bean
	*/
	State(name string) BeanState

	/**
	Names of local beans which instances are assignable to the type
	*/
	BeanNamesOfType(typ reflect.Type) []string

	/**
	Names of beans assignable to the type in this factory and ancestors.
	A name defined in the descendant masks the ancestor's definition even if the types differ.
	*/
	BeanNamesOfTypeIncludingAncestors(typ reflect.Type) []string

	/**
	Instances of local beans assignable to the type
	*/
	BeansOfType(typ reflect.Type) (map[string]interface{}, error)

	/**
	Instances of beans assignable to the type in this factory and ancestors
	*/
	BeansOfTypeIncludingAncestors(typ reflect.Type) (map[string]interface{}, error)

	/**
	Creates all non-lazy singletons of the local registry
	*/
	PreInstantiateSingletons() error

	/**
	Destroy all cached singletons that implement interface DisposableBean in reverse creation order.
	*/
	Close() error

	/**
	Returns information about factory
	*/
	String() string
}

/**
The object that exposes another object, GetBean returns the result of Object() call.

ObjectType can be pointer to structure or interface.
*/

var FactoryBeanClass = reflect.TypeOf((*FactoryBean)(nil)).Elem()

type FactoryBean interface {

	/**
	returns an object produced by the factory
	*/
	Object() (interface{}, error)

	/**
	returns the type of object that this FactoryBean produces
	*/
	ObjectType() reflect.Type

	/**
	denotes if the object produced by this FactoryBean is a singleton
	*/
	Singleton() bool
}

var InitializingBeanClass = reflect.TypeOf((*InitializingBean)(nil)).Elem()

type InitializingBean interface {

	/**
	Runs this method automatically after all properties are set
	*/
	PostConstruct() error
}

var DisposableBeanClass = reflect.TypeOf((*DisposableBean)(nil)).Elem()

type DisposableBean interface {

	/**
	During close of the factory would be called for each cached singleton.
	*/
	Destroy() error
}

var BeanNameAwareClass = reflect.TypeOf((*BeanNameAware)(nil)).Elem()

type BeanNameAware interface {

	/**
	Receives the name of the bean in the owning factory
	*/
	SetBeanName(name string)
}

var BeanFactoryAwareClass = reflect.TypeOf((*BeanFactoryAware)(nil)).Elem()

type BeanFactoryAware interface {

	/**
	Receives the owning factory after properties are set
	*/
	SetBeanFactory(factory Factory) error
}

/**
Property Resolver used to supply values for placeholders.
*/

var PropertyResolverClass = reflect.TypeOf((*PropertyResolver)(nil)).Elem()

type PropertyResolver interface {

	/**
	Priority in property resolving, the higher priority look first.
	*/
	Priority() int

	/**
	Resolves the property
	*/
	GetProperty(key string) (value string, ok bool)
}

/**
Factory configuration
*/

type Option func(*factory)

/**
Use this logger to trace bean creation
*/
func WithVerbose(log *log.Logger) Option {
	return func(t *factory) {
		t.verbose = log
	}
}

/**
Class registry used to resolve class names and to investigate nested properties
*/
func WithClasses(classes *ClassRegistry) Option {
	return func(t *factory) {
		t.classes = classes
	}
}

/**
Editor registry used to convert literal property values
*/
func WithEditors(editors *EditorRegistry) Option {
	return func(t *factory) {
		t.editors = editors
	}
}
