/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beans

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"io"
	"os"
	"reflect"
)

const RefTag = "!ref"

type yamlDocument struct {
	Beans []yamlBean `yaml:"beans"`

	/**
	Alias to the bean name
	*/
	Aliases map[string]string `yaml:"aliases"`
}

type yamlBean struct {
	Name       string     `yaml:"name"`
	Class      string     `yaml:"class"`
	Singleton  *bool      `yaml:"singleton"`
	Lazy       bool       `yaml:"lazy"`
	DependsOn  []string   `yaml:"depends-on"`
	Aliases    []string   `yaml:"aliases"`
	Properties yaml.Node  `yaml:"properties"`
	Proxy      *yamlProxy `yaml:"proxy"`
}

type yamlProxy struct {
	Interfaces   []string `yaml:"interfaces"`
	Interceptors []string `yaml:"interceptors"`
}

/**
Reads YAML definitions and registers them in the factory.
Class and interface names are resolved by the class registry.

	beans:
	  - name: dao
	    class: app.Dao
	    properties:
	      url: ${db.url}
	  - name: service
	    class: app.ServiceImpl
	    singleton: false
	    depends-on: [dao]
	    properties:
	      dao: !ref dao
	    proxy:
	      interfaces: [app.Service]
	      interceptors: [logging]
	aliases:
	  repository: dao

Returns number of registered definitions.
*/
func LoadDefinitions(f Factory, classes *ClassRegistry, r io.Reader) (int, error) {

	var doc yamlDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, errors.Wrap(err, "decode yaml definitions")
	}

	for i, b := range doc.Beans {
		if b.Name == "" {
			return i, errors.Errorf("bean #%d has no name", i)
		}
		def, err := b.definition(classes)
		if err != nil {
			return i, errors.Wrapf(err, "bean '%s'", b.Name)
		}
		if err := f.RegisterDefinition(b.Name, def); err != nil {
			return i, err
		}
		for _, alias := range b.Aliases {
			if err := f.RegisterAlias(b.Name, alias); err != nil {
				return i, err
			}
		}
	}

	for alias, name := range doc.Aliases {
		if err := f.RegisterAlias(name, alias); err != nil {
			return len(doc.Beans), err
		}
	}

	return len(doc.Beans), nil
}

func LoadDefinitionsFile(f Factory, classes *ClassRegistry, filePath string) (int, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, errors.Wrapf(err, "open file '%s'", filePath)
	}
	defer file.Close()
	n, err := LoadDefinitions(f, classes, file)
	if err != nil {
		return n, errors.Wrapf(err, "load file '%s'", filePath)
	}
	return n, nil
}

func (t *yamlBean) definition(classes *ClassRegistry) (*BeanDefinition, error) {

	class, ok := classes.Class(t.Class)
	if !ok {
		return nil, errors.Errorf("class '%s' is not registered", t.Class)
	}

	def := NewDefinition(class)
	if t.Singleton != nil {
		def.Singleton = *t.Singleton
	}
	def.Lazy = t.Lazy
	def.DependsOn = t.DependsOn

	values, err := propertyValues(&t.Properties)
	if err != nil {
		return nil, err
	}
	def.Properties = values

	if t.Proxy != nil {
		var interfaces []reflect.Type
		for _, name := range t.Proxy.Interfaces {
			iface, ok := classes.Interface(name)
			if !ok {
				return nil, errors.Errorf("interface '%s' is not registered", name)
			}
			interfaces = append(interfaces, iface)
		}
		def.Proxy = &ProxyDefinition{
			Interfaces:   interfaces,
			Interceptors: t.Proxy.Interceptors,
		}
	}

	return def, nil
}

/**
Keeps the order of properties as written
*/
func propertyValues(node *yaml.Node) (PropertyValues, error) {
	var list []PropertyValue
	switch node.Kind {
	case 0:
		return PropertyValues{}, nil
	case yaml.MappingNode:
	default:
		return PropertyValues{}, errors.Errorf("properties at line %d must be a mapping", node.Line)
	}
	for j := 0; j+1 < len(node.Content); j += 2 {
		value, err := nodeValue(node.Content[j+1])
		if err != nil {
			return PropertyValues{}, errors.Wrapf(err, "property '%s'", node.Content[j].Value)
		}
		list = append(list, PropertyValue{Name: node.Content[j].Value, Value: value})
	}
	return NewPropertyValues(list...), nil
}

/**
Scalars stay text to be converted by editors, references become Ref
*/
func nodeValue(node *yaml.Node) (interface{}, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return nodeValue(node.Alias)
	case yaml.ScalarNode:
		switch node.Tag {
		case RefTag:
			return Ref{Name: node.Value}, nil
		case "!!null":
			return nil, nil
		default:
			return node.Value, nil
		}
	case yaml.SequenceNode:
		list := make([]interface{}, len(node.Content))
		for i, el := range node.Content {
			v, err := nodeValue(el)
			if err != nil {
				return nil, err
			}
			list[i] = v
		}
		return list, nil
	case yaml.MappingNode:
		if len(node.Content) == 2 && node.Content[0].Value == "ref" && node.Content[1].Kind == yaml.ScalarNode {
			return Ref{Name: node.Content[1].Value}, nil
		}
		m := make(map[string]interface{}, len(node.Content)/2)
		for j := 0; j+1 < len(node.Content); j += 2 {
			v, err := nodeValue(node.Content[j+1])
			if err != nil {
				return nil, err
			}
			m[node.Content[j].Value] = v
		}
		return m, nil
	default:
		return nil, errors.Errorf("unsupported yaml node at line %d", node.Line)
	}
}
