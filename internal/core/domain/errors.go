package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown filter, field or extension type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Store Errors.

	// ErrUnknownMutation indicates a dispatch of a name that was never registered.
	// Nothing is mutated when this is returned.
	ErrUnknownMutation = errors.New("unknown mutation")

	// ErrUnknownGetter indicates a read through a getter that was never registered.
	ErrUnknownGetter = errors.New("unknown getter")

	// ErrInvalidArgument indicates a dispatch argument of the wrong type or arity.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicatePatch indicates a patch name was applied twice to the same target.
	ErrDuplicatePatch = errors.New("patch already applied")

	// Control Panel Errors.

	// ErrFilterNotFound indicates a filter id that does not exist in the model.
	ErrFilterNotFound = errors.New("filter not found")

	// ErrOptionNotFound indicates an option id that the filter does not offer.
	ErrOptionNotFound = errors.New("option not found")

	// ErrNotGroupable indicates a group-by on a field whose type cannot be grouped.
	ErrNotGroupable = errors.New("field is not groupable")

	// ErrHostRejected indicates the host refused a round trip (favorite
	// deletion or creation, autocomplete). Local state is left unchanged.
	ErrHostRejected = errors.New("host rejected request")

	// ErrViewNotLoaded indicates an operation on the control panel before a view was opened.
	ErrViewNotLoaded = errors.New("no search view loaded")
)
