// Package domain defines the core entities of the control panel.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Filter: A normalized unit of search state (field, filter, groupBy, favorite, timeRange)
//   - Domain: A prefix-notation boolean expression over record fields
//   - Query: The derived domain, context, grouping and ordering of a panel
//   - SearchView: The declarative search description supplied by the host
//   - StoredFavorite: A saved query persisted by the host
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
