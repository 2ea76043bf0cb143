package versioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conceptmap/domain/core/aggregates"
	"conceptmap/domain/core/entities"
	"conceptmap/domain/core/valueobjects"
	"conceptmap/domain/services/linking"
)

func buildMap(t *testing.T) *aggregates.ConceptMap {
	t.Helper()
	m := aggregates.NewConceptMap(valueobjects.MapID("m"), nil)
	for _, tc := range []struct {
		id   string
		x, y float64
	}{{"1", 0, 0}, {"2", 100, 0}, {"3", 400, 0}} {
		n, err := entities.NewNode(valueobjects.MustNodeID(tc.id), entities.ContentPayload{Title: tc.id}, valueobjects.MustPosition(tc.x, tc.y))
		require.NoError(t, err)
		require.NoError(t, m.LoadNode(n))
	}
	return m
}

func TestChecksum(t *testing.T) {
	t.Run("is stable for equal content", func(t *testing.T) {
		a, err := Checksum(buildMap(t).Snapshot())
		require.NoError(t, err)
		b, err := Checksum(buildMap(t).Snapshot())
		require.NoError(t, err)

		assert.Equal(t, a, b)
		assert.Len(t, a, 64)
	})

	t.Run("ignores the pending edge", func(t *testing.T) {
		m := buildMap(t)
		before, err := Checksum(m.Snapshot())
		require.NoError(t, err)

		one, two := valueobjects.MustNodeID("1"), valueobjects.MustNodeID("2")
		require.NoError(t, m.ReplacePendingEdge(&linking.Candidate{ID: valueobjects.PairEdgeID(one, two), Source: one, Target: two}))
		after, err := Checksum(m.Snapshot())
		require.NoError(t, err)

		assert.Equal(t, before, after)
	})

	t.Run("changes when a node moves", func(t *testing.T) {
		m := buildMap(t)
		before, err := Checksum(m.Snapshot())
		require.NoError(t, err)

		require.NoError(t, m.UpdateNodePosition(valueobjects.MustNodeID("3"), valueobjects.MustPosition(401, 0)))
		after, err := Checksum(m.Snapshot())
		require.NoError(t, err)

		assert.NotEqual(t, before, after)
	})
}

func TestCompare(t *testing.T) {
	// Arrange
	from := buildMap(t)
	to := buildMap(t)
	one, two := valueobjects.MustNodeID("1"), valueobjects.MustNodeID("2")

	edgeID, err := to.AddEdge(one, two, "", nil)
	require.NoError(t, err)
	require.NoError(t, to.UpdateNodePayload(two, entities.ContentPayload{Title: "renamed"}))
	require.NoError(t, to.RemoveNode(valueobjects.MustNodeID("3")))

	// Act
	d := Compare(from.Snapshot(), to.Snapshot())

	// Assert
	assert.False(t, d.IsEmpty())
	assert.Empty(t, d.NodesAdded)
	assert.Equal(t, []string{"3"}, d.NodesRemoved)
	assert.Equal(t, []string{"2"}, d.NodesUpdated)
	assert.Equal(t, []string{edgeID.String()}, d.EdgesAdded)
	assert.Empty(t, d.EdgesRemoved)
}

func TestCompare_Identical(t *testing.T) {
	assert.True(t, Compare(buildMap(t).Snapshot(), buildMap(t).Snapshot()).IsEmpty())
}
