package controlpanel

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cpanel/internal/core/domain"
)

func rawArgs(args ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(args))
	for i, a := range args {
		out[i] = json.RawMessage(a)
	}
	return out
}

func TestDecodeArgs(t *testing.T) {
	tests := []struct {
		name     string
		mutation string
		raw      []json.RawMessage
		want     []any
	}{
		{"toggle", MutationToggleFilter, rawArgs(`3`), []any{3}},
		{"toggle with option", MutationToggleFilterWithOptions, rawArgs(`4`, `"this_month"`), []any{4, "this_month"}},
		{"optional option omitted", MutationToggleFilterWithOptions, rawArgs(`4`), []any{4}},
		{"time range", MutationActivateTimeRange, rawArgs(`"deadline"`, `"last_7_days"`, `null`), []any{"deadline", "last_7_days", nil}},
		{"favorite", MutationCreateNewFavorite, rawArgs(`{"description":"Late","isShared":true}`),
			[]any{FavoriteDraft{Description: "Late", IsShared: true}}},
		{"autocomplete value", MutationAddAutoCompletionValues, rawArgs(`{"filterId":1,"label":"Draft","value":"draft"}`),
			[]any{AutocompleteSelection{FilterID: 1, Label: "Draft", Value: "draft"}}},
		{"new filters", MutationCreateNewFilters, rawArgs(`[{"description":"Mine","field":"user_id","operator":"=","value":1}]`),
			[]any{[]domain.PreFilter{{Description: "Mine", Field: "user_id", Operator: "=", Value: float64(1)}}}},
		{"update filters", MutationUpdateFilters, rawArgs(`null`, `[1,2]`), []any{nil, []int{1, 2}}},
		{"import state", MutationImportState, rawArgs(`{"filters":[]}`), []any{[]byte(`{"filters":[]}`)}},
		{"no args", MutationClearQuery, nil, []any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeArgs(tt.mutation, tt.raw)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeArgs_Errors(t *testing.T) {
	_, err := DecodeArgs("explode", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownMutation)

	_, err = DecodeArgs(MutationToggleFilter, rawArgs(`"three"`))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = DecodeArgs(MutationClearQuery, rawArgs(`1`))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestDecodeArgs_CoversRegisteredMutations(t *testing.T) {
	m := newTestModel(t, Config{})

	for _, name := range Mutations() {
		_, ok := mutationArgs[name]
		assert.True(t, ok, name)
	}
	assert.Len(t, mutationArgs, len(Mutations()))

	urgent := idOf(t, m, domain.FilterTypeFilter, "Urgent")
	dispatch(t, m, MutationToggleFilter, mustDecode(t, MutationToggleFilter, strconv.Itoa(urgent))...)
	assert.Equal(t, `[["priority",">",2]]`, query(t, m).Domain.String())
}

func mustDecode(t *testing.T, mutation string, raw ...string) []any {
	t.Helper()
	args, err := DecodeArgs(mutation, rawArgs(raw...))
	require.NoError(t, err)
	return args
}
