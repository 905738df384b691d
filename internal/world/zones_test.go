package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZoneContainsInclusiveBounds(t *testing.T) {
	z := Zone{MapID: 1, X1: 2, Y1: 3, X2: 5, Y2: 6}

	assert.True(t, z.Contains(2, 3))
	assert.True(t, z.Contains(5, 6))
	assert.True(t, z.Contains(4, 4))
	assert.False(t, z.Contains(1, 3))
	assert.False(t, z.Contains(6, 6))
	assert.False(t, z.Contains(2, 7))
}

func TestZoneIndexLookup(t *testing.T) {
	idx := NewZoneIndex([]Zone{
		{ID: 2, MapID: 1, X1: 0, Y1: 0, X2: 1, Y2: 1},
		{ID: 1, MapID: 2, X1: 5, Y1: 5, X2: 8, Y2: 8},
	})

	assert.True(t, idx.Contains(1, 0, 1))
	assert.False(t, idx.Contains(1, 5, 5), "zones are per map")
	assert.True(t, idx.Contains(2, 6, 7))
	assert.False(t, idx.Contains(3, 0, 0))

	all := idx.All()
	assert.Len(t, all, 2)
	assert.Equal(t, int32(1), all[0].ID, "All is sorted by id")
}

func TestZoneIndexNormalizesCorners(t *testing.T) {
	idx := NewZoneIndex([]Zone{{ID: 1, MapID: 1, X1: 5, Y1: 9, X2: 2, Y2: 3}})
	assert.True(t, idx.Contains(1, 3, 4))
}

func TestZoneIndexReplace(t *testing.T) {
	idx := NewZoneIndex(nil)
	assert.False(t, idx.Contains(1, 0, 0))
	assert.Empty(t, idx.All())

	idx.Replace([]Zone{{ID: 1, MapID: 1, X2: 2, Y2: 2}})
	assert.True(t, idx.Contains(1, 1, 1))

	idx.Replace(nil)
	assert.False(t, idx.Contains(1, 1, 1))
}
