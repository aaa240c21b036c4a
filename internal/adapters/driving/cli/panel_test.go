package cli

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cpanel/internal/core/domain"
)

func TestToggleCmd(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "toggle", "2")

	require.NoError(t, err)
	assert.Contains(t, out, `Domain:   [["priority",">",2]]`)
}

func TestToggleCmd_StatePersists(t *testing.T) {
	env := setupCLI(t)

	_, err := execute(t, "toggle", "2")
	require.NoError(t, err)
	_, err = env.states.LoadState(t.Context(), "tasks")
	require.NoError(t, err, "state saved after the mutation")

	out, err := execute(t, "query")
	require.NoError(t, err)
	assert.Contains(t, out, `Domain:   [["priority",">",2]]`)

	out, err = execute(t, "toggle", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Domain:   []")
}

func TestToggleCmd_Errors(t *testing.T) {
	setupCLI(t)

	_, err := execute(t, "toggle", "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = execute(t, "toggle", "99")
	assert.ErrorIs(t, err, domain.ErrFilterNotFound)

	_, err = execute(t, "toggle")
	assert.Error(t, err)
}

func TestQueryCmd_Reset(t *testing.T) {
	setupCLI(t)
	_, err := execute(t, "toggle", "2")
	require.NoError(t, err)

	out, err := execute(t, "query", "--reset")

	require.NoError(t, err)
	assert.Contains(t, out, "Domain:   []")
}

func TestQueryCmd_JSON(t *testing.T) {
	setupCLI(t)
	_, err := execute(t, "toggle", "2")
	require.NoError(t, err)

	out, err := execute(t, "query", "-o", "json")

	require.NoError(t, err)
	assert.Contains(t, out, `"domain"`)
	assert.Contains(t, out, `"priority"`)
	assert.Contains(t, out, `">"`)
	assert.NotContains(t, out, `\u003e`)
}

func TestQueryCmd_ViewFlag(t *testing.T) {
	setupCLI(t)

	_, err := execute(t, "query", "--view", "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddCmd(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "add", "1", "report")

	require.NoError(t, err)
	assert.Contains(t, out, `Domain:   [["name","ilike","report"]]`)
}

func TestAddCmd_Operator(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "add", "1", "report", "--operator", "=")

	require.NoError(t, err)
	assert.Contains(t, out, `Domain:   [["name","=","report"]]`)
}

func TestAddCmd_NotAField(t *testing.T) {
	setupCLI(t)

	_, err := execute(t, "add", "2", "report")

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestGroupByCmd(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "groupby", "deadline")

	require.NoError(t, err)
	assert.Contains(t, out, "Group by: deadline:month")

	_, err = execute(t, "groupby", "nope")
	assert.Error(t, err)
}

func TestToggleCmd_GroupByOption(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "toggle", "3")

	require.NoError(t, err)
	assert.Contains(t, out, "Group by: stage")
}

func TestTimeRangeCmd(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "timerange", "deadline", "last_7_days", "previous_period")

	require.NoError(t, err)
	assert.Contains(t, out, "Range:    deadline")
	assert.Contains(t, out, "Compare:")

	_, err = execute(t, "timerange", "deadline", "next_century")
	assert.Error(t, err)
}

func TestDeactivateAndClearCmds(t *testing.T) {
	env := setupCLI(t)
	_, err := execute(t, "toggle", "2")
	require.NoError(t, err)
	_, err = execute(t, "toggle", "3")
	require.NoError(t, err)

	facets, err := env.panel.Facets()
	require.NoError(t, err)
	require.Len(t, facets, 2)

	out, err := execute(t, "deactivate", strconv.Itoa(facets[0].GroupID))
	require.NoError(t, err)
	assert.Contains(t, out, "Domain:   []")
	assert.Contains(t, out, "Group by: stage")

	out, err = execute(t, "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Domain:   []")
	assert.NotContains(t, out, "Group by:")

	_, err = execute(t, "deactivate", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFacetsCmd(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "facets")
	require.NoError(t, err)
	assert.Contains(t, out, "No active filters.")

	_, err = execute(t, "toggle", "2")
	require.NoError(t, err)
	out, err = execute(t, "facets")
	require.NoError(t, err)
	assert.Contains(t, out, "filter: Urgent")
}

func TestAutocompleteCmd_NoSource(t *testing.T) {
	setupCLI(t)

	_, err := execute(t, "autocomplete", "1", "rep")

	assert.ErrorIs(t, err, domain.ErrHostRejected)
}

func TestDispatchCmd(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "dispatch", "toggleFilter", "2")
	require.NoError(t, err)
	assert.Contains(t, out, `[["priority",">",2]]`)

	out, err = execute(t, "dispatch", "addAutoCompletionValues", `{"filterId":1,"label":"report","value":"report"}`)
	require.NoError(t, err)
	assert.Contains(t, out, `["name","ilike","report"]`)
}

func TestDispatchCmd_Errors(t *testing.T) {
	setupCLI(t)

	_, err := execute(t, "dispatch", "toggleFilter", "{not json")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = execute(t, "dispatch", "explode")
	assert.ErrorIs(t, err, domain.ErrUnknownMutation)
}
