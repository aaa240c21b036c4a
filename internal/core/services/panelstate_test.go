package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateFingerprint(t *testing.T) {
	digest, err := viewDigest(tasksView())
	require.NoError(t, err)
	again, err := viewDigest(tasksView())
	require.NoError(t, err)
	assert.Equal(t, digest, again)

	changed := tasksView()
	changed.Arch[1].Attrs["string"] = "Overdue"
	other, err := viewDigest(changed)
	require.NoError(t, err)
	assert.NotEqual(t, digest, other)

	assert.Equal(t, stateFingerprint(digest, []int{3, 1}), stateFingerprint(digest, []int{1, 3, 3}))
	assert.NotEqual(t, stateFingerprint(digest, []int{1}), stateFingerprint(digest, []int{1, 3}))
	assert.NotEqual(t, stateFingerprint(digest, nil), stateFingerprint(other, nil))
}

func TestSavedState_RoundTrip(t *testing.T) {
	data, err := encodeSavedState("sha256:ab", []byte(`{"filters":[]}`))
	require.NoError(t, err)

	state, err := decodeSavedState(data, "sha256:ab")
	require.NoError(t, err)
	assert.JSONEq(t, `{"filters":[]}`, string(state))

	_, err = decodeSavedState(data, "sha256:cd")
	assert.ErrorIs(t, err, errStaleState)
	_, err = decodeSavedState([]byte("not json"), "sha256:ab")
	assert.ErrorIs(t, err, errStaleState)
	_, err = decodeSavedState([]byte(`{"filters":[]}`), "")
	assert.ErrorIs(t, err, errStaleState)
}
