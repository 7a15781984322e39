/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beans

import (
	"fmt"
	"github.com/pkg/errors"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const DefaultPropertiesPriority = 100

/**
Ordered key/value pairs parsed from the properties text.

Keys keep the order of the first appearance, the last value wins.
Properties is also a PropertyResolver for placeholders.
*/
type Properties struct {
	sync.RWMutex

	priority int

	keys     []string
	store    map[string]string
	comments map[string][]string
}

func NewProperties() *Properties {
	return &Properties{
		priority: DefaultPropertiesPriority,
		store:    make(map[string]string),
		comments: make(map[string][]string),
	}
}

func (t *Properties) String() string {
	t.RLock()
	defer t.RUnlock()
	return fmt.Sprintf("Properties{priority=%d,store=%d,comments=%d}", t.priority, len(t.store), len(t.comments))
}

func (t *Properties) Priority() int {
	t.RLock()
	defer t.RUnlock()
	return t.priority
}

func (t *Properties) SetPriority(priority int) {
	t.Lock()
	defer t.Unlock()
	t.priority = priority
}

/**
Loads nested map, keys of the nested maps are joined by dot. Keys of one level load in sorted order.
*/
func (t *Properties) LoadMap(source map[string]interface{}) {
	t.Lock()
	defer t.Unlock()
	t.loadMapRec(make([]byte, 0, 100), source)
}

func (t *Properties) loadMapRec(stack []byte, m map[string]interface{}) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := m[k]
		n := len(stack)
		if n > 0 {
			stack = append(stack, '.')
		}
		stack = append(stack, []byte(k)...)
		if next, ok := v.(map[string]interface{}); ok {
			t.loadMapRec(stack, next)
		} else {
			t.put(string(stack), fmt.Sprint(v))
		}
		stack = stack[:n]
	}
}

func (t *Properties) Load(reader io.Reader) error {
	content, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	return t.Parse(string(content))
}

func (t *Properties) Save(writer io.Writer) (n int, err error) {
	return writer.Write([]byte(t.Dump()))
}

/**
Parses properties text. Lines starting with '#' or '!' are comments, leading whitespace is ignored,
the key ends on the first ' ', ':' or '=' and the rest of the line is the value.
*/
func (t *Properties) Parse(content string) error {
	var key string
	comments := make([]string, 0, 5)
	var inside bool

	t.Lock()
	defer t.Unlock()

	for _, item := range lex(content) {
		switch item.typ {
		case itemEOF:
			if inside {
				t.put(key, "")
				t.comments[key] = comments
			}
		case itemComment:
			if inside {
				return errors.Errorf("comment is not expected inside the property on key '%s'", key)
			}
			comments = append(comments, item.val)
		case itemKey:
			if inside {
				return errors.Errorf("key is not expected inside the property on key '%s'", key)
			}
			key = item.val
			inside = true
		case itemValue:
			if !inside {
				return errors.Errorf("value is not expected outside of the property after key '%s'", key)
			}
			t.put(key, item.val)
			if len(comments) > 0 {
				t.comments[key] = comments
				comments = make([]string, 0, 5)
			}
			inside = false
		case itemError:
			if inside {
				return errors.Errorf("property parsing error on key '%s', %s", key, item.val)
			} else {
				return errors.Errorf("property parsing error after key '%s', %s", key, item.val)
			}
		}
	}
	return nil
}

func (t *Properties) put(key, value string) {
	if _, ok := t.store[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.store[key] = value
}

/**
Dumps properties in the order of keys
*/
func (t *Properties) Dump() string {
	var output strings.Builder

	t.RLock()
	defer t.RUnlock()

	for _, key := range t.keys {
		for _, comment := range t.comments[key] {
			if len(comment) > 0 {
				output.WriteString("# ")
				output.WriteString(comment)
				output.WriteByte('\n')
			}
		}
		output.WriteString(fmt.Sprintf("%s = %s\n", encodeUtf8(key, " :="), encodeUtf8(t.store[key], "")))
	}

	return output.String()
}

func (t *Properties) Len() int {
	t.RLock()
	defer t.RUnlock()
	return len(t.keys)
}

func (t *Properties) Keys() []string {
	t.RLock()
	defer t.RUnlock()
	keys := make([]string, len(t.keys))
	copy(keys, t.keys)
	return keys
}

func (t *Properties) Map() map[string]string {
	t.RLock()
	defer t.RUnlock()
	m := make(map[string]string, len(t.store))
	for k, v := range t.store {
		m[k] = v
	}
	return m
}

func (t *Properties) Contains(key string) bool {
	t.RLock()
	defer t.RUnlock()
	_, ok := t.store[key]
	return ok
}

func (t *Properties) GetProperty(key string) (value string, ok bool) {
	return t.Get(key)
}

func (t *Properties) Get(key string) (value string, ok bool) {
	t.RLock()
	defer t.RUnlock()
	value, ok = t.store[key]
	return
}

func (t *Properties) GetString(key, def string) string {
	if value, ok := t.Get(key); ok {
		return value
	}
	return def
}

func (t *Properties) GetBool(key string, def bool) bool {
	if value, ok := t.Get(key); ok {
		if v, err := parseBool(value); err == nil {
			return v
		}
	}
	return def
}

func (t *Properties) GetInt(key string, def int) int {
	if value, ok := t.Get(key); ok {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return def
}

func (t *Properties) GetDuration(key string, def time.Duration) time.Duration {
	if value, ok := t.Get(key); ok {
		if v, err := time.ParseDuration(value); err == nil {
			return v
		}
	}
	return def
}

func (t *Properties) Set(key string, value string) {
	t.Lock()
	defer t.Unlock()
	t.put(key, value)
}

func (t *Properties) Remove(key string) bool {
	t.Lock()
	defer t.Unlock()
	if _, ok := t.store[key]; !ok {
		return false
	}
	delete(t.store, key)
	delete(t.comments, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
	return true
}

func (t *Properties) GetComments(key string) []string {
	t.RLock()
	defer t.RUnlock()
	return t.comments[key]
}

func (t *Properties) SetComments(key string, comments []string) {
	t.Lock()
	defer t.Unlock()
	t.comments[key] = comments
}

func encodeUtf8(s string, special string) string {
	var out strings.Builder
	for pos := 0; pos < len(s); {
		r, w := utf8.DecodeRuneInString(s[pos:])
		pos += w
		out.WriteString(escape(r, special))
	}
	return out.String()
}

func escape(r rune, special string) string {
	switch r {
	case '\f':
		return "\\f"
	case '\n':
		return "\\n"
	case '\r':
		return "\\r"
	case '\t':
		return "\\t"
	case '\\':
		return "\\\\"
	default:
		if strings.ContainsRune(special, r) {
			return "\\" + string(r)
		}
		return string(r)
	}
}
