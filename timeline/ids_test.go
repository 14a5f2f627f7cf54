package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/chronicle/errors"
)

func TestNewIDsDuplicate(t *testing.T) {
	_, err := NewIDs([]*Item{{ID: "X"}, {ID: "Y"}, {ID: "X"}, {ID: "X"}})
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
	assert.Equal(t, `item id "X" appears multiple times`, err.Error())
}

func TestAssign(t *testing.T) {
	items := []*Item{
		{Entity: "Q1"},
		{ID: "Q1-1"},
		{Entity: "Q1"},
		{},
		{},
	}
	ids, err := NewIDs(items)
	require.NoError(t, err)
	ids.Assign(items)

	got := make([]string, len(items))
	for i, it := range items {
		got[i] = it.ID
	}
	assert.Equal(t, []string{"Q1-2", "Q1-1", "Q1-3", "anonymous-1", "anonymous-2"}, got)
}

func TestClaim(t *testing.T) {
	ids, err := NewIDs([]*Item{{ID: "rulers-Q1"}})
	require.NoError(t, err)

	assert.Equal(t, "rulers-Q2", ids.Claim("rulers-Q2"))
	assert.Equal(t, "rulers-Q1-2", ids.Claim("rulers-Q1"))
	assert.Equal(t, "rulers-Q1-3", ids.Claim("rulers-Q1"))
	assert.True(t, ids.Taken("rulers-Q2"))
}
