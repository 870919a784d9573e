package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceID_RoundTrip(t *testing.T) {
	t.Parallel()

	id := NewResourceID()
	parsed, err := ParseResourceID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestResourceID_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[ResourceID]struct{})
	for range 1000 {
		id := NewResourceID()
		_, dup := seen[id]
		assert.False(t, dup, "duplicate resource id %s", id)
		seen[id] = struct{}{}
	}
}

func TestParseResourceID_RejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := ParseResourceID("not-a-resource-id")
	assert.Error(t, err)
}
