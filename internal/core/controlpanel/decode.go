package controlpanel

import (
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/cpanel/internal/core/domain"
)

type argDecoder func(raw json.RawMessage) (any, error)

func decodeAs[T any](raw json.RawMessage) (any, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeRaw(raw json.RawMessage) (any, error) {
	return []byte(raw), nil
}

// mutationArgs lists, per mutation, the decoders of its JSON arguments in
// order. Output arguments cannot be passed as JSON and are left out.
var mutationArgs = map[string][]argDecoder{
	MutationToggleFilter:            {decodeAs[int]},
	MutationToggleFilterWithOptions: {decodeAs[int], decodeAs[string]},
	MutationCreateNewFilters:        {decodeAs[[]domain.PreFilter]},
	MutationCreateNewGroupBy:        {decodeAs[string]},
	MutationCreateNewFavorite:       {decodeAs[FavoriteDraft]},
	MutationActivateTimeRange:       {decodeAs[string], decodeAs[string], decodeAs[string]},
	MutationDeleteFavorite:          {decodeAs[int]},
	MutationClearQuery:              nil,
	MutationDeactivateGroup:         {decodeAs[int]},
	MutationAddAutoCompletionValues: {decodeAs[AutocompleteSelection]},
	MutationFetchAutocomplete:       {decodeAs[int], decodeAs[string]},
	MutationUpdateFilters:           {decodeAs[[]domain.PreFilter], decodeAs[[]int]},
	MutationImportState:             {decodeRaw},
	MutationSearch:                  nil,
}

// DecodeArgs converts JSON encoded arguments of a mutation into the values
// Dispatch expects. The state of importState is passed as a JSON object.
func DecodeArgs(mutation string, raw []json.RawMessage) ([]any, error) {
	decoders, ok := mutationArgs[mutation]
	if !ok {
		return nil, fmt.Errorf("%q: %w", mutation, domain.ErrUnknownMutation)
	}
	if len(raw) > len(decoders) {
		return nil, fmt.Errorf("%w: %s takes at most %d arguments, got %d",
			domain.ErrInvalidArgument, mutation, len(decoders), len(raw))
	}
	args := make([]any, 0, len(raw))
	for i, r := range raw {
		if string(r) == "null" {
			args = append(args, nil)
			continue
		}
		v, err := decoders[i](r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s argument %d: %v", domain.ErrInvalidArgument, mutation, i, err)
		}
		args = append(args, v)
	}
	return args, nil
}

// Mutations returns the names of the mutations accepted by DecodeArgs.
func Mutations() []string {
	return []string{
		MutationToggleFilter,
		MutationToggleFilterWithOptions,
		MutationCreateNewFilters,
		MutationCreateNewGroupBy,
		MutationCreateNewFavorite,
		MutationActivateTimeRange,
		MutationDeleteFavorite,
		MutationClearQuery,
		MutationDeactivateGroup,
		MutationAddAutoCompletionValues,
		MutationFetchAutocomplete,
		MutationUpdateFilters,
		MutationImportState,
		MutationSearch,
	}
}
