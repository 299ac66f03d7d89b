package baggage

import (
	"fmt"
	"reflect"
	"strings"
)

// AccessFilter selects which entries a bulk enumeration may surface.
type AccessFilter int

const (
	// AccessDefault admits Public and PublicExceptLogging entries.
	AccessDefault AccessFilter = iota
	// AccessLogging admits Public entries only.
	AccessLogging
)

func (f AccessFilter) admits(p AccessPolicy) bool {
	switch f {
	case AccessLogging:
		return p == Public
	default:
		return p != Private
	}
}

type entry struct {
	key   ErasedKey
	value any
}

// Baggage is a typed heterogeneous map meant to be carried along a call chain.
// It behaves as a value: copies are independent, and mutating one never
// affects another. A published map is never written to; every mutation swaps
// in a fresh clone.
//
// Access policies only gate ForEach and ForEachAccess. Get and Set never look
// at them, so any code holding a key type can read and write its entry. A
// policy is a hint to generic consumers such as loggers and exporters about
// what they may surface, not a security boundary.
type Baggage struct {
	entries map[reflect.Type]entry
}

func TopLevel() Baggage {
	return Baggage{}
}

// Get returns the value stored under K, if any.
func Get[K Key[V], V any](b Baggage) (V, bool) {
	var zero V

	k := KeyOf[K, V]()
	e, ok := b.entries[k.id]
	if !ok {
		return zero, false
	}

	v, ok := e.value.(V)
	if !ok {
		panic(fmt.Sprintf("baggage: entry %q holds %T, key declares %s", k.name, e.value, reflect.TypeFor[V]()))
	}
	return v, true
}

// Set stores v under K, replacing any previous value.
func Set[K Key[V], V any](b *Baggage, v V) {
	k := KeyOf[K, V]()

	next := b.clone(1)
	next[k.id] = entry{key: k, value: v}
	b.entries = next
}

// Delete removes K. Removing an absent key leaves b untouched.
func Delete[K Key[V], V any](b *Baggage) {
	k := KeyOf[K, V]()
	if _, ok := b.entries[k.id]; !ok {
		return
	}

	next := b.clone(0)
	delete(next, k.id)
	b.entries = next
}

// Update stores *v under K, or removes K when v is nil.
func Update[K Key[V], V any](b *Baggage, v *V) {
	if v == nil {
		Delete[K, V](b)
		return
	}
	Set[K](b, *v)
}

func (b *Baggage) clone(extra int) map[reflect.Type]entry {
	next := make(map[reflect.Type]entry, len(b.entries)+extra)
	for id, e := range b.entries {
		next[id] = e
	}
	return next
}

func (b Baggage) Count() int {
	return len(b.entries)
}

func (b Baggage) IsEmpty() bool {
	return len(b.entries) == 0
}

// ForEach calls fn for every entry whose policy is not Private.
// The visiting order is unspecified and changes between calls.
func (b Baggage) ForEach(fn func(key ErasedKey, value any)) {
	b.ForEachAccess(AccessDefault, fn)
}

// ForEachAccess calls fn for every entry admitted by filter.
// The visiting order is unspecified and changes between calls.
func (b Baggage) ForEachAccess(filter AccessFilter, fn func(key ErasedKey, value any)) {
	for _, e := range b.entries {
		if !filter.admits(e.key.policy) {
			continue
		}
		fn(e.key, e.value)
	}
}

// String lists the names of all keys, whatever their policy. Values are never
// rendered.
func (b Baggage) String() string {
	names := make([]string, 0, len(b.entries))
	for _, e := range b.entries {
		names = append(names, e.key.name)
	}
	return "Baggage(keys: [" + strings.Join(names, ", ") + "])"
}

// GoString keeps %#v from dumping values through the reflection printer.
func (b Baggage) GoString() string {
	return b.String()
}
