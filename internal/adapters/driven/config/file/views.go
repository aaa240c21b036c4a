package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/cpanel/internal/core/domain"
	"github.com/custodia-labs/cpanel/internal/core/ports/driven"
	"github.com/custodia-labs/cpanel/internal/logger"
)

// Ensure ViewLoader implements the interfaces.
var (
	_ driven.ViewLoader         = (*ViewLoader)(nil)
	_ driven.AutocompleteSource = (*ViewLoader)(nil)
)

// ViewExt is the extension of search view files.
const ViewExt = ".toml"

// ViewLoader reads search views from TOML files, one view per file named
// after the view:
//
//	model = "project.task"
//	action_domain = '[["active", "=", true]]'
//
//	[action_context]
//	search_default_my_tasks = 1
//
//	[fields.stage]
//	type = "selection"
//	string = "Stage"
//	selection = [{value = "draft", label = "Draft"}]
//
//	[fields.user_id]
//	type = "many2one"
//	values = ["Alice", "Bob"]
//
//	[[arch]]
//	kind = "filter"
//	name = "my_tasks"
//	string = "My Tasks"
//	domain = '[["user_id", "=", 1]]'
//
// The values lists of fields also answer autocomplete requests.
type ViewLoader struct {
	dir string

	mu     sync.RWMutex
	values map[string]map[string][]string // model -> field -> values
}

// NewViewLoader creates a loader for the views in dir.
func NewViewLoader(dir string) *ViewLoader {
	return &ViewLoader{
		dir:    dir,
		values: make(map[string]map[string][]string),
	}
}

// Dir returns the views directory.
func (l *ViewLoader) Dir() string {
	return l.dir
}

type viewFile struct {
	Model          string               `toml:"model"`
	ActionDomain   any                  `toml:"action_domain"`
	ActionContext  map[string]any       `toml:"action_context"`
	Fields         map[string]fieldFile `toml:"fields"`
	Arch           []map[string]any     `toml:"arch"`
	DynamicFilters []dynamicFilterFile  `toml:"dynamic_filters"`
}

type fieldFile struct {
	Type       string                  `toml:"type"`
	String     string                  `toml:"string"`
	Sortable   *bool                   `toml:"sortable"`
	Searchable *bool                   `toml:"searchable"`
	Relation   string                  `toml:"relation"`
	Selection  []domain.SelectionValue `toml:"selection"`
	Values     []string                `toml:"values"`
}

type dynamicFilterFile struct {
	Description string         `toml:"description"`
	Domain      any            `toml:"domain"`
	Context     map[string]any `toml:"context"`
}

// Load reads and parses the named view.
func (l *ViewLoader) Load(ctx context.Context, name string) (*domain.SearchView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: view name %q", domain.ErrInvalidInput, name)
	}

	path := filepath.Join(l.dir, name+ViewExt)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("view %s: %w", name, domain.ErrNotFound)
		}
		return nil, err
	}

	view, values, err := ParseView(name, data)
	if err != nil {
		return nil, fmt.Errorf("view %s: %w", name, err)
	}

	l.mu.Lock()
	l.values[view.Model] = values
	l.mu.Unlock()

	logger.Debug("views: loaded %s (%d fields, %d arch nodes)", path, len(view.Fields), len(view.Arch))
	return view, nil
}

// List returns the names of the view files in the directory.
func (l *ViewLoader) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if name, ok := viewName(e.Name()); ok && !e.IsDir() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Watch calls onChange with the name of every view file that is written,
// created, removed or renamed, until ctx is cancelled.
func (l *ViewLoader) Watch(ctx context.Context, onChange func(name string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(l.dir); err != nil {
		return fmt.Errorf("watch %s: %w", l.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if name, changed := l.handleFsEvent(event); changed {
				logger.Debug("views: %s changed (%s)", name, event.Op)
				onChange(name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("views: watcher error: %v", err)
		}
	}
}

// handleFsEvent maps a filesystem event to the view it affects.
func (l *ViewLoader) handleFsEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return "", false
	}
	return viewName(filepath.Base(event.Name))
}

func viewName(file string) (string, bool) {
	if strings.HasPrefix(file, ".") || filepath.Ext(file) != ViewExt {
		return "", false
	}
	return strings.TrimSuffix(file, ViewExt), true
}

// Autocomplete answers from the values lists of the views loaded so far.
// Matching is a case-insensitive substring test.
func (l *ViewLoader) Autocomplete(ctx context.Context, model, field, term string, limit int) ([]domain.AutocompleteValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	values := l.values[model][field]
	l.mu.RUnlock()

	needle := strings.ToLower(term)
	out := []domain.AutocompleteValue{}
	for _, v := range values {
		if limit > 0 && len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(v), needle) {
			out = append(out, domain.AutocompleteValue{Value: v, Label: v})
		}
	}
	return out, nil
}

// ParseView decodes a view file. It returns the view and the autocomplete
// values declared on its fields.
func ParseView(name string, data []byte) (*domain.SearchView, map[string][]string, error) {
	var vf viewFile
	if err := toml.Unmarshal(data, &vf); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if vf.Model == "" {
		return nil, nil, fmt.Errorf("%w: model is required", domain.ErrInvalidInput)
	}

	view := &domain.SearchView{
		Name:          name,
		Model:         vf.Model,
		Fields:        make(map[string]domain.FieldMeta, len(vf.Fields)),
		ActionContext: vf.ActionContext,
	}
	values := make(map[string][]string)

	for fname, f := range vf.Fields {
		if f.Type == "" {
			return nil, nil, fmt.Errorf("%w: field %s has no type", domain.ErrInvalidInput, fname)
		}
		view.Fields[fname] = domain.FieldMeta{
			Name:       fname,
			Type:       f.Type,
			String:     f.String,
			Sortable:   boolOr(f.Sortable, true),
			Searchable: boolOr(f.Searchable, true),
			Relation:   f.Relation,
			Selection:  f.Selection,
		}
		if len(f.Values) > 0 {
			values[fname] = f.Values
		}
	}

	d, err := decodeDomain(vf.ActionDomain)
	if err != nil {
		return nil, nil, fmt.Errorf("action_domain: %w", err)
	}
	view.ActionDomain = d

	for i, raw := range vf.Arch {
		node, err := archNode(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("arch[%d]: %w", i, err)
		}
		view.Arch = append(view.Arch, node)
	}

	for i, df := range vf.DynamicFilters {
		d, err := decodeDomain(df.Domain)
		if err != nil {
			return nil, nil, fmt.Errorf("dynamic_filters[%d]: %w", i, err)
		}
		view.DynamicFilters = append(view.DynamicFilters, domain.DynamicFilter{
			Description: df.Description,
			Domain:      d,
			Context:     df.Context,
		})
	}

	return view, values, nil
}

// archNode converts a TOML table into an arch node. Attribute values that
// are not strings (inline context tables, domain arrays) are stored as JSON.
func archNode(raw map[string]any) (domain.ArchNode, error) {
	kind, _ := raw["kind"].(string)
	node := domain.ArchNode{Kind: domain.ArchNodeKind(kind), Attrs: map[string]string{}}
	if !node.Kind.IsValid() {
		return node, fmt.Errorf("%w: kind %q", domain.ErrUnsupportedType, kind)
	}
	for k, v := range raw {
		if k == "kind" {
			continue
		}
		switch val := v.(type) {
		case string:
			node.Attrs[k] = val
		case bool:
			if val {
				node.Attrs[k] = "1"
			}
		default:
			b, err := domain.EncodeJSON(val, "")
			if err != nil {
				return node, fmt.Errorf("%w: attribute %s: %v", domain.ErrInvalidInput, k, err)
			}
			node.Attrs[k] = string(b)
		}
	}
	return node, nil
}

// decodeDomain accepts a domain written as a JSON string or as a TOML array.
func decodeDomain(v any) (domain.Domain, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return domain.ParseDomain(val)
	case []any:
		b, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		return domain.ParseDomain(string(b))
	default:
		return nil, errors.Join(domain.ErrInvalidInput, fmt.Errorf("domain of type %T", v))
	}
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
