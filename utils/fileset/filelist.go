// Package fileset implements FileList, an immutable, possibly-named,
// possibly-nested container of file paths with flat iteration.
//
// Semantics are ported from original_source/src/dentist/workflow/engine/container.py:
// a FileList holds a positional prefix and a named suffix; iterating it
// flattens one level of nesting into individual paths.
package fileset

import (
	"fmt"
	"path/filepath"
	"strings"
)

// entry is either a path (string) or a nested *FileList.
type entry struct {
	path   string
	nested *FileList
}

func (e entry) isNested() bool { return e.nested != nil }

func (e entry) leafCount() int {
	if e.isNested() {
		return e.nested.Len()
	}
	return 1
}

func (e entry) String() string {
	if e.isNested() {
		return e.nested.String()
	}
	return fmt.Sprintf("%q", e.path)
}

// FileList is an immutable value: once constructed it is never mutated.
type FileList struct {
	items         []entry
	names         map[string]int // name -> index into items
	namesOrdered  []string       // preserves insertion order for String()
	numPositional int
	length        int
}

// New builds a FileList from positional items followed by named items.
// Each item is either a string path, a []string/[]any (nested list), or an
// already-built *FileList (kept as-is, not re-wrapped).
func New(positional []any, named map[string]any) (*FileList, error) {
	fl := &FileList{
		names: make(map[string]int),
	}
	fl.numPositional = len(positional)

	for _, raw := range positional {
		e, err := toEntry(raw)
		if err != nil {
			return nil, err
		}
		fl.items = append(fl.items, e)
		fl.length += e.leafCount()
	}

	// deterministic order isn't guaranteed by map iteration, so callers that
	// care about named order should use NewOrdered.
	for name, raw := range named {
		e, err := toEntry(raw)
		if err != nil {
			return nil, err
		}
		fl.names[name] = len(fl.items)
		fl.namesOrdered = append(fl.namesOrdered, name)
		fl.items = append(fl.items, e)
		fl.length += e.leafCount()
	}

	return fl, nil
}

// NamedItem is a named entry passed to NewOrdered, preserving call-site
// ordering (Go maps don't).
type NamedItem struct {
	Name  string
	Value any
}

// NewOrdered is like New but accepts named items as an ordered slice
// instead of a map, so String() output and iteration order are
// deterministic.
func NewOrdered(positional []any, named []NamedItem) (*FileList, error) {
	fl := &FileList{names: make(map[string]int)}
	fl.numPositional = len(positional)

	for _, raw := range positional {
		e, err := toEntry(raw)
		if err != nil {
			return nil, err
		}
		fl.items = append(fl.items, e)
		fl.length += e.leafCount()
	}

	for _, ni := range named {
		e, err := toEntry(ni.Value)
		if err != nil {
			return nil, err
		}
		fl.names[ni.Name] = len(fl.items)
		fl.namesOrdered = append(fl.namesOrdered, ni.Name)
		fl.items = append(fl.items, e)
		fl.length += e.leafCount()
	}

	return fl, nil
}

// Of builds a positional-only FileList, a convenience for the common case.
func Of(items ...any) (*FileList, error) {
	return New(items, nil)
}

func toEntry(raw any) (entry, error) {
	switch v := raw.(type) {
	case *FileList:
		return entry{nested: v}, nil
	case string:
		return entry{path: filepath.Clean(v)}, nil
	case []string:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		nested, err := Of(items...)
		if err != nil {
			return entry{}, err
		}
		return entry{nested: nested}, nil
	case []any:
		nested, err := Of(v...)
		if err != nil {
			return entry{}, err
		}
		return entry{nested: nested}, nil
	default:
		return entry{}, fmt.Errorf("fileset: cannot convert %T to a path or nested FileList", raw)
	}
}

// FromAny attempts, in order: pass-through (already a *FileList), single
// path wrap, mapping to named items, iterable to positional items.
func FromAny(v any) (*FileList, error) {
	switch val := v.(type) {
	case *FileList:
		return val, nil
	case string:
		return Of(val)
	case map[string]any:
		return New(nil, val)
	case map[string]string:
		named := make(map[string]any, len(val))
		for k, s := range val {
			named[k] = s
		}
		return New(nil, named)
	case []string:
		items := make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
		return Of(items...)
	case []any:
		return Of(val...)
	case nil:
		return Of()
	default:
		return nil, fmt.Errorf("fileset: cannot convert %T to a FileList", v)
	}
}

// Len returns the count of leaf paths (flattening one level of nesting).
func (fl *FileList) Len() int {
	if fl == nil {
		return 0
	}
	return fl.length
}

// Flatten returns every leaf path, in order, positional items first.
func (fl *FileList) Flatten() []string {
	if fl == nil {
		return nil
	}
	out := make([]string, 0, fl.length)
	for _, e := range fl.items {
		if e.isNested() {
			out = append(out, e.nested.Flatten()...)
		} else {
			out = append(out, e.path)
		}
	}
	return out
}

// Contains reports whether path appears among the flattened leaf paths.
func (fl *FileList) Contains(path string) bool {
	path = filepath.Clean(path)
	for _, p := range fl.Flatten() {
		if p == path {
			return true
		}
	}
	return false
}

// Get returns the i-th positional item (0..PositionalCount()-1): either a
// leaf path (string) or a nested *FileList.
func (fl *FileList) Get(i int) (any, error) {
	if i < 0 || i >= fl.numPositional {
		return nil, fmt.Errorf("fileset: positional index %d out of range (have %d)", i, fl.numPositional)
	}
	return fl.itemValue(fl.items[i]), nil
}

// GetNamed returns the named item.
func (fl *FileList) GetNamed(name string) (any, error) {
	idx, ok := fl.names[name]
	if !ok {
		return nil, fmt.Errorf("fileset: no such named item %q", name)
	}
	return fl.itemValue(fl.items[idx]), nil
}

func (fl *FileList) itemValue(e entry) any {
	if e.isNested() {
		return e.nested
	}
	return e.path
}

// PositionalCount returns the number of positional (non-named) items.
func (fl *FileList) PositionalCount() int {
	return fl.numPositional
}

// Equal reports structural equality over the flattened+named form.
func (fl *FileList) Equal(other *FileList) bool {
	if fl == nil || other == nil {
		return fl == other
	}
	if fl.numPositional != other.numPositional || len(fl.items) != len(other.items) {
		return false
	}
	for i, e := range fl.items {
		oe := other.items[i]
		if e.isNested() != oe.isNested() {
			return false
		}
		if e.isNested() {
			if !e.nested.Equal(oe.nested) {
				return false
			}
		} else if e.path != oe.path {
			return false
		}
	}
	for name, idx := range fl.names {
		oidx, ok := other.names[name]
		if !ok || oidx != idx {
			return false
		}
	}
	return len(fl.names) == len(other.names)
}

// EqualAny compares against anything FromAny-convertible.
func (fl *FileList) EqualAny(v any) (bool, error) {
	other, err := FromAny(v)
	if err != nil {
		return false, fmt.Errorf("fileset: cannot compare: %w", err)
	}
	return fl.Equal(other), nil
}

func (fl *FileList) String() string {
	var parts []string
	for i := 0; i < fl.numPositional; i++ {
		parts = append(parts, fl.items[i].String())
	}
	for _, name := range fl.namesOrdered {
		parts = append(parts, fmt.Sprintf("%s=%s", name, fl.items[fl.names[name]].String()))
	}
	return "FileList(" + strings.Join(parts, ", ") + ")"
}
