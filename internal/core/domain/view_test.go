package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSort(t *testing.T) {
	got := ParseSort([]string{"foo", "-bar", "baz desc", "qux ASC", " "})

	assert.Equal(t, []OrderBy{
		{Name: "foo", Asc: true},
		{Name: "bar", Asc: false},
		{Name: "baz", Asc: false},
		{Name: "qux", Asc: true},
	}, got)
}

func TestFormatSort(t *testing.T) {
	got := FormatSort([]OrderBy{{Name: "foo", Asc: true}, {Name: "bar"}})
	assert.Equal(t, []string{"foo", "bar desc"}, got)
	assert.Equal(t, []OrderBy{{Name: "foo", Asc: true}, {Name: "bar"}}, ParseSort(got))
}

func TestParseContext(t *testing.T) {
	ctx, err := ParseContext(`{"group_by": ["stage", "user"], "active_test": false}`)
	require.NoError(t, err)
	assert.Equal(t, false, ctx["active_test"])
	assert.Equal(t, []string{"stage", "user"}, ContextGroupBys(ctx))

	ctx, err = ParseContext("")
	require.NoError(t, err)
	assert.Nil(t, ctx)

	_, err = ParseContext("{")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestContextGroupBys(t *testing.T) {
	assert.Equal(t, []string{"stage"}, ContextGroupBys(map[string]any{"group_by": "stage"}))
	assert.Equal(t, []string{"a", "b"}, ContextGroupBys(map[string]any{"group_by": []string{"a", "b"}}))
	assert.Nil(t, ContextGroupBys(map[string]any{"group_by": ""}))
	assert.Nil(t, ContextGroupBys(nil))
}

func TestArchNode_Attr(t *testing.T) {
	n := ArchNode{Kind: ArchFilter, Attrs: map[string]string{"name": "draft"}}
	assert.Equal(t, "draft", n.Attr("name"))
	assert.Equal(t, "", n.Attr("domain"))
	assert.Equal(t, "", ArchNode{}.Attr("name"))
	assert.True(t, ArchSeparator.IsValid())
	assert.False(t, ArchNodeKind("button").IsValid())
}

func TestStoredFavorite_IsShared(t *testing.T) {
	assert.True(t, StoredFavorite{}.IsShared())
	assert.False(t, StoredFavorite{UserID: 2}.IsShared())
}
