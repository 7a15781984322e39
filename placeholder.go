/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beans

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"sort"
	"strings"
)

const (
	PlaceholderPrefix    = "${"
	PlaceholderSuffix    = "}"
	PlaceholderSeparator = ":"
)

/**
Replaces placeholders '${key}' and '${key:default}' in literal property values of registered definitions.

Resolvers are asked in order of priority, the higher priority first.
*/
type PlaceholderConfigurer struct {
	resolvers []PropertyResolver

	/**
	Keeps unresolvable placeholders as is instead of the error
	*/
	IgnoreUnresolvable bool
}

func NewPlaceholderConfigurer(resolvers ...PropertyResolver) *PlaceholderConfigurer {
	t := &PlaceholderConfigurer{}
	t.AddResolver(resolvers...)
	return t
}

func (t *PlaceholderConfigurer) AddResolver(resolvers ...PropertyResolver) {
	t.resolvers = append(t.resolvers, resolvers...)
	sort.SliceStable(t.resolvers, func(i, j int) bool {
		return t.resolvers[i].Priority() > t.resolvers[j].Priority()
	})
}

func (t *PlaceholderConfigurer) Resolvers() []PropertyResolver {
	list := make([]PropertyResolver, len(t.resolvers))
	copy(list, t.resolvers)
	return list
}

func (t *PlaceholderConfigurer) GetProperty(key string) (string, bool) {
	for _, r := range t.resolvers {
		if value, ok := r.GetProperty(key); ok {
			return value, true
		}
	}
	return "", false
}

/**
Replaces all placeholders in the text, values of properties are resolved recursively
*/
func (t *PlaceholderConfigurer) Resolve(text string) (string, error) {
	return t.resolve(text, nil)
}

func (t *PlaceholderConfigurer) resolve(text string, visiting []string) (string, error) {

	var out strings.Builder
	for {
		start := strings.Index(text, PlaceholderPrefix)
		if start < 0 {
			break
		}
		end := placeholderEnd(text, start+len(PlaceholderPrefix))
		if end < 0 {
			break
		}
		out.WriteString(text[:start])

		key, err := t.resolve(text[start+len(PlaceholderPrefix):end], visiting)
		if err != nil {
			return "", err
		}
		defaultValue, hasDefault := "", false
		if i := strings.Index(key, PlaceholderSeparator); i >= 0 {
			key, defaultValue, hasDefault = key[:i], key[i+len(PlaceholderSeparator):], true
		}

		for _, v := range visiting {
			if v == key {
				return "", errors.Errorf("circular placeholder reference '%s' in '%s'", key, strings.Join(append(visiting, key), "->"))
			}
		}

		value, ok := t.GetProperty(key)
		switch {
		case ok:
		case hasDefault:
			value = defaultValue
		case t.IgnoreUnresolvable:
			out.WriteString(text[start : end+len(PlaceholderSuffix)])
			text = text[end+len(PlaceholderSuffix):]
			continue
		default:
			return "", errors.Errorf("could not resolve placeholder '%s'", key)
		}

		value, err = t.resolve(value, append(visiting, key))
		if err != nil {
			return "", err
		}
		out.WriteString(value)
		text = text[end+len(PlaceholderSuffix):]
	}
	out.WriteString(text)
	return out.String(), nil
}

/**
Position of the suffix that closes the placeholder, nested placeholders are skipped
*/
func placeholderEnd(text string, from int) int {
	depth := 0
	for i := from; i < len(text); {
		switch {
		case strings.HasPrefix(text[i:], PlaceholderPrefix):
			depth++
			i += len(PlaceholderPrefix)
		case strings.HasPrefix(text[i:], PlaceholderSuffix):
			if depth == 0 {
				return i
			}
			depth--
			i += len(PlaceholderSuffix)
		default:
			i++
		}
	}
	return -1
}

/**
Resolves placeholders in all local definitions of the factory and registers changed definitions again.
Bean references could use placeholders as well.
*/
func (t *PlaceholderConfigurer) PostProcess(f Factory) error {
	for _, name := range f.DefinitionNames() {
		def, ok := f.Definition(name)
		if !ok {
			continue
		}
		var list []PropertyValue
		for _, pv := range def.Properties.Values() {
			value, err := t.resolveValue(pv.Value)
			if err != nil {
				return errors.Wrapf(err, "bean '%s' property '%s'", name, pv.Name)
			}
			list = append(list, PropertyValue{Name: pv.Name, Value: value})
		}
		values := NewPropertyValues(list...)
		if values.ChangesSince(def.Properties).Len() == 0 {
			continue
		}
		if err := f.RegisterDefinition(name, def.WithProperties(values)); err != nil {
			return err
		}
	}
	return nil
}

func (t *PlaceholderConfigurer) resolveValue(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return t.Resolve(v)
	case Ref:
		name, err := t.Resolve(v.Name)
		return Ref{Name: name}, err
	case *Ref:
		name, err := t.Resolve(v.Name)
		return &Ref{Name: name}, err
	case []interface{}:
		list := make([]interface{}, len(v))
		for i, el := range v {
			r, err := t.resolveValue(el)
			if err != nil {
				return nil, err
			}
			list[i] = r
		}
		return list, nil
	case map[string]interface{}:
		m := make(map[string]interface{}, len(v))
		for k, el := range v {
			r, err := t.resolveValue(el)
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

/**
Property resolver backed by viper configuration
*/
type ViperResolver struct {
	v        *viper.Viper
	priority int
}

func NewViperResolver(v *viper.Viper, priority int) *ViperResolver {
	return &ViperResolver{v: v, priority: priority}
}

func (t *ViperResolver) Priority() int {
	return t.priority
}

func (t *ViperResolver) GetProperty(key string) (string, bool) {
	if !t.v.IsSet(key) {
		return "", false
	}
	return t.v.GetString(key), true
}

/**
Resolves 'a.b' from environment variable 'PREFIX_A_B'
*/
func NewEnvironmentResolver(prefix string, priority int) *ViperResolver {
	v := viper.New()
	if prefix != "" {
		v.SetEnvPrefix(prefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return NewViperResolver(v, priority)
}
