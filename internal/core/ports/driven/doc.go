// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ViewLoader: Loads and watches search view definitions
//   - FavoriteStore: Favorite persistence, scoped by model and user
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - AutocompleteSource: Field value suggestions. Without it, only
//     selection fields are completed.
//   - StateStore: Panel state persistence. Without it, every Open starts
//     from the view defaults.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
