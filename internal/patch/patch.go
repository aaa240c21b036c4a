// Package patch applies named, reversible patches to a behaviour table.
//
// A behaviour table is a struct of funcs. A patch receives the table as it
// stands (the "super" implementation) and returns a table in which some funcs
// wrap their previous definition. Patches form an ordered middleware chain:
// registration order is chain order, and removing a patch rebuilds the chain
// from the original table without it, so patches can be removed in any order.
//
// Class holds the shared, class-level chain. Instances created from a class
// layer their own chain on top of whatever the class resolves to at call
// time, without affecting the class or other instances.
package patch

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/cpanel/internal/core/domain"
)

// Func wraps the previous behaviour table and returns the patched one.
type Func[H any] func(next H) H

type entry[H any] struct {
	name string
	fn   Func[H]
}

// chain is an ordered list of named patches.
type chain[H any] []entry[H]

func (c chain[H]) has(name string) bool {
	for _, e := range c {
		if e.name == name {
			return true
		}
	}
	return false
}

func (c chain[H]) without(name string) chain[H] {
	out := make(chain[H], 0, len(c))
	for _, e := range c {
		if e.name != name {
			out = append(out, e)
		}
	}
	return out
}

func (c chain[H]) apply(base H) H {
	h := base
	for _, e := range c {
		h = e.fn(h)
	}
	return h
}

func (c chain[H]) names() []string {
	out := make([]string, len(c))
	for i, e := range c {
		out[i] = e.name
	}
	return out
}

// Class is the class-level patch registry of a behaviour table.
type Class[H any] struct {
	mu       sync.RWMutex
	original H
	patches  chain[H]
	current  H
	version  uint64
}

// NewClass records original as the unpatched behaviour.
func NewClass[H any](original H) *Class[H] {
	return &Class[H]{
		original: original,
		current:  original,
	}
}

// Patch applies fn under name on top of the current chain.
// Returns domain.ErrDuplicatePatch if name is already applied.
func (c *Class[H]) Patch(name string, fn Func[H]) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.patches.has(name) {
		return fmt.Errorf("class patch %q: %w", name, domain.ErrDuplicatePatch)
	}
	c.patches = append(c.patches, entry[H]{name: name, fn: fn})
	c.current = fn(c.current)
	c.version++
	return nil
}

// MustPatch is like Patch but panics on a duplicate name.
func (c *Class[H]) MustPatch(name string, fn Func[H]) {
	if err := c.Patch(name, fn); err != nil {
		panic(err)
	}
}

// Unpatch removes the named patch and re-applies the remaining ones, in
// their original order, to the original behaviour. Unknown names are ignored.
func (c *Class[H]) Unpatch(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.patches.has(name) {
		return
	}
	c.patches = c.patches.without(name)
	c.current = c.patches.apply(c.original)
	c.version++
}

// Current returns the behaviour with every class patch applied.
func (c *Class[H]) Current() H {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Original returns the unpatched behaviour.
func (c *Class[H]) Original() H {
	return c.original
}

// Names returns the applied patch names in application order.
func (c *Class[H]) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.patches.names()
}

// Has reports whether name is applied.
func (c *Class[H]) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.patches.has(name)
}

func (c *Class[H]) snapshot() (H, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.version
}

// NewInstance returns an instance-level registry layered over c.
func (c *Class[H]) NewInstance() *Instance[H] {
	return &Instance[H]{class: c}
}

// Instance is an instance-level patch registry. Its patches apply on top of
// the class behaviour and are invisible to the class and to other instances.
type Instance[H any] struct {
	class *Class[H]

	mu           sync.Mutex
	patches      chain[H]
	resolved     H
	classVersion uint64
	cached       bool
	dirty        bool
}

// Patch applies fn under name to this instance only.
func (i *Instance[H]) Patch(name string, fn Func[H]) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.patches.has(name) {
		return fmt.Errorf("instance patch %q: %w", name, domain.ErrDuplicatePatch)
	}
	i.patches = append(i.patches, entry[H]{name: name, fn: fn})
	i.dirty = true
	return nil
}

// Unpatch removes an instance patch. Unknown names are ignored.
func (i *Instance[H]) Unpatch(name string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.patches.has(name) {
		return
	}
	i.patches = i.patches.without(name)
	i.dirty = true
}

// Names returns the instance patch names in application order.
func (i *Instance[H]) Names() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.patches.names()
}

// Current resolves the class behaviour, then the instance patches.
// The result is cached until either chain changes.
func (i *Instance[H]) Current() H {
	base, version := i.class.snapshot()

	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.cached || i.dirty || version != i.classVersion {
		i.resolved = i.patches.apply(base)
		i.classVersion = version
		i.cached = true
		i.dirty = false
	}
	return i.resolved
}
