// Package extensions holds named behaviour patches that can be switched on
// from configuration. Each extension builds a patch over
// controlpanel.Behavior; enabled extensions are applied as class patches so
// every model picks them up.
package extensions

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/cpanel/internal/core/controlpanel"
	"github.com/custodia-labs/cpanel/internal/core/domain"
	"github.com/custodia-labs/cpanel/internal/logger"
	"github.com/custodia-labs/cpanel/internal/patch"
)

// PatchPrefix prefixes the patch name of an applied extension.
const PatchPrefix = "ext:"

// BuilderFunc creates a behaviour patch from generic config.
// Config is a map of extension-specific settings parsed from user config.
type BuilderFunc func(cfg map[string]any) (patch.Func[controlpanel.Behavior], error)

// Registry maps extension ids to their builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new extension registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds an extension builder to the registry.
func (r *Registry) Register(id string, builder BuilderFunc) {
	r.builders[id] = builder
}

// Build creates the patch of an extension with the given config.
func (r *Registry) Build(id string, cfg map[string]any) (patch.Func[controlpanel.Behavior], error) {
	builder, ok := r.builders[id]
	if !ok {
		return nil, fmt.Errorf("extension %q: %w", id, domain.ErrUnsupportedType)
	}
	return builder(cfg)
}

// Has returns true if an extension with the given id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.builders[id]
	return ok
}

// Names returns all registered extension ids, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply builds the given extensions and patches them onto class. cfg holds
// per-extension settings keyed by id. On error nothing stays applied. The
// returned function removes the patches again.
func (r *Registry) Apply(class *patch.Class[controlpanel.Behavior], ids []string, cfg map[string]map[string]any) (func(), error) {
	applied := make([]string, 0, len(ids))
	undo := func() {
		for i := len(applied) - 1; i >= 0; i-- {
			class.Unpatch(applied[i])
		}
	}

	for _, id := range ids {
		fn, err := r.Build(id, cfg[id])
		if err != nil {
			undo()
			return nil, err
		}
		name := PatchPrefix + id
		if err := class.Patch(name, fn); err != nil {
			undo()
			return nil, err
		}
		applied = append(applied, name)
		logger.Debug("extensions: applied %s", id)
	}
	return undo, nil
}
