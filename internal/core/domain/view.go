package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldMeta describes one field of the searched model.
type FieldMeta struct {
	Name       string           `json:"name"`
	Type       string           `json:"type"`
	String     string           `json:"string"`
	Sortable   bool             `json:"sortable"`
	Searchable bool             `json:"searchable"`
	Relation   string           `json:"relation,omitempty"`
	Selection  []SelectionValue `json:"selection,omitempty"`
}

// SelectionValue is one allowed value of a selection field.
type SelectionValue struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ArchNodeKind is the tag of a search arch element.
type ArchNodeKind string

// Arch element kinds.
const (
	ArchField     ArchNodeKind = "field"
	ArchFilter    ArchNodeKind = "filter"
	ArchGroupBy   ArchNodeKind = "groupby"
	ArchSeparator ArchNodeKind = "separator"
)

// IsValid returns true if the kind is recognised.
func (k ArchNodeKind) IsValid() bool {
	switch k {
	case ArchField, ArchFilter, ArchGroupBy, ArchSeparator:
		return true
	default:
		return false
	}
}

// ArchNode is one element of a parsed search arch.
// Attrs holds the element attributes (name, string, domain, context,
// date, default_period, filter_domain, operator, invisible).
type ArchNode struct {
	Kind  ArchNodeKind      `json:"kind" toml:"kind"`
	Attrs map[string]string `json:"attrs" toml:"attrs"`
}

// Attr returns an attribute or the empty string.
func (n ArchNode) Attr(name string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

// DynamicFilter is a filter handed in by the host at construction, such as
// a quick-search term.
type DynamicFilter struct {
	Description string         `json:"description"`
	Domain      Domain         `json:"domain"`
	Context     map[string]any `json:"context,omitempty"`
}

// SearchView is the declarative search description supplied by the host.
type SearchView struct {
	Name           string
	Model          string
	Fields         map[string]FieldMeta
	Arch           []ArchNode
	ActionContext  map[string]any
	ActionDomain   Domain
	DynamicFilters []DynamicFilter
}

// Field returns the metadata of a field.
func (v *SearchView) Field(name string) (FieldMeta, bool) {
	f, ok := v.Fields[name]
	return f, ok
}

// StoredFavorite is a saved query persisted by the host.
type StoredFavorite struct {
	ID        int            `json:"id"`
	Name      string         `json:"name"`
	Model     string         `json:"model"`
	Domain    Domain         `json:"domain"`
	Context   map[string]any `json:"context,omitempty"`
	GroupBys  []string       `json:"groupBys,omitempty"`
	OrderedBy []OrderBy      `json:"orderedBy,omitempty"`
	UserID    int            `json:"userId,omitempty"`
	IsDefault bool           `json:"isDefault,omitempty"`
}

// IsShared reports whether the favorite is visible to every user.
func (f StoredFavorite) IsShared() bool {
	return f.UserID == 0
}

// ParseSort converts sort strings ("name", "-date", "date desc") to OrderBy.
func ParseSort(specs []string) []OrderBy {
	var out []OrderBy
	for _, s := range specs {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if strings.HasPrefix(s, "-") {
			out = append(out, OrderBy{Name: strings.TrimPrefix(s, "-"), Asc: false})
			continue
		}
		parts := strings.Fields(s)
		ob := OrderBy{Name: parts[0], Asc: true}
		if len(parts) > 1 && strings.EqualFold(parts[1], "desc") {
			ob.Asc = false
		}
		out = append(out, ob)
	}
	return out
}

// FormatSort is the inverse of ParseSort.
func FormatSort(orderedBy []OrderBy) []string {
	out := make([]string, 0, len(orderedBy))
	for _, ob := range orderedBy {
		if ob.Asc {
			out = append(out, ob.Name)
		} else {
			out = append(out, ob.Name+" desc")
		}
	}
	return out
}

// ParseContext reads a JSON object such as `{"group_by": "stage"}`.
// The empty string is the empty context.
func ParseContext(s string) (map[string]any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ctx map[string]any
	if err := json.Unmarshal([]byte(s), &ctx); err != nil {
		return nil, fmt.Errorf("%w: parse context: %v", ErrInvalidInput, err)
	}
	return ctx, nil
}

// ContextGroupBys extracts group_by from a context, which may hold a single
// field or a list of fields.
func ContextGroupBys(ctx map[string]any) []string {
	switch v := ctx["group_by"].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
