package extensions

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/cpanel/internal/core/controlpanel"
	"github.com/custodia-labs/cpanel/internal/core/domain"
	"github.com/custodia-labs/cpanel/internal/patch"
)

// Built-in extension ids.
const (
	ActiveOnly   = "active_only"
	FacetCounts  = "facet_counts"
	DefaultOrder = "default_order"
)

// RegisterDefaults registers all built-in extensions with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(ActiveOnly, buildActiveOnly)
	r.Register(FacetCounts, buildFacetCounts)
	r.Register(DefaultOrder, buildDefaultOrder)
}

// buildActiveOnly hides archived records: it ANDs [field, "=", true] into
// the query domain of models that have the field, unless the query context
// sets active_test to false.
// Supported config keys:
//   - field (string): the boolean field to test (default: "active")
func buildActiveOnly(cfg map[string]any) (patch.Func[controlpanel.Behavior], error) {
	field := "active"
	if f, ok := cfg["field"].(string); ok && f != "" {
		field = f
	}

	return func(next controlpanel.Behavior) controlpanel.Behavior {
		query := next.Query
		next.Query = func(ev *controlpanel.Evaluation) (domain.Query, error) {
			q, err := query(ev)
			if err != nil {
				return q, err
			}
			if _, ok := ev.Field(field); !ok {
				return q, nil
			}
			if v, set := q.Context["active_test"]; set && v == false {
				return q, nil
			}
			q.Domain = domain.And(q.Domain, domain.Leaf(field, "=", true))
			return q, nil
		}
		return next
	}, nil
}

// buildFacetCounts appends the number of selected values to the title of
// field facets holding more than one value: "Stage (2)".
func buildFacetCounts(_ map[string]any) (patch.Func[controlpanel.Behavior], error) {
	return func(next controlpanel.Behavior) controlpanel.Behavior {
		facets := next.Facets
		next.Facets = func(ev *controlpanel.Evaluation) []domain.Facet {
			out := facets(ev)
			for i, f := range out {
				if f.Type == domain.FilterTypeField && len(f.Values) > 1 {
					out[i].Title = fmt.Sprintf("%s (%d)", f.Title, len(f.Values))
				}
			}
			return out
		}
		return next
	}, nil
}

// buildDefaultOrder sorts queries that carry no order of their own.
// Supported config keys:
//   - order (string): comma separated sort specs, e.g. "priority desc, name"
//     (required)
func buildDefaultOrder(cfg map[string]any) (patch.Func[controlpanel.Behavior], error) {
	raw, _ := cfg["order"].(string)
	orderedBy := domain.ParseSort(strings.Split(raw, ","))
	if len(orderedBy) == 0 {
		return nil, fmt.Errorf("%w: default_order needs an order", domain.ErrInvalidInput)
	}

	return func(next controlpanel.Behavior) controlpanel.Behavior {
		query := next.Query
		next.Query = func(ev *controlpanel.Evaluation) (domain.Query, error) {
			q, err := query(ev)
			if err != nil || len(q.OrderedBy) > 0 {
				return q, err
			}
			q.OrderedBy = append([]domain.OrderBy(nil), orderedBy...)
			return q, nil
		}
		return next
	}, nil
}
