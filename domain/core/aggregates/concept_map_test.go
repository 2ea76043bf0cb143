package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conceptmap/domain/config"
	"conceptmap/domain/core/entities"
	"conceptmap/domain/core/valueobjects"
	"conceptmap/domain/events"
	"conceptmap/domain/services/linking"
	pkgerrors "conceptmap/pkg/errors"
)

func newTestMap(t *testing.T, cfg *config.DomainConfig) *ConceptMap {
	t.Helper()
	return NewConceptMap(valueobjects.MapID("map-1"), cfg)
}

func addContent(t *testing.T, m *ConceptMap, x, y float64) valueobjects.NodeID {
	t.Helper()
	id, err := m.AddNode(entities.ContentPayload{Title: "n"}, valueobjects.MustPosition(x, y))
	require.NoError(t, err)
	return id
}

func loadNode(t *testing.T, m *ConceptMap, id string, x, y float64) valueobjects.NodeID {
	t.Helper()
	n, err := entities.NewNode(valueobjects.MustNodeID(id), entities.ContentPayload{Title: id}, valueobjects.MustPosition(x, y))
	require.NoError(t, err)
	require.NoError(t, m.LoadNode(n))
	return n.ID()
}

func TestConceptMap_AddNode(t *testing.T) {
	// Arrange
	m := newTestMap(t, nil)

	// Act
	id := addContent(t, m, 10, 20)

	// Assert
	node, ok := m.Node(id)
	require.True(t, ok)
	assert.Equal(t, entities.VariantContent, node.Variant())
	assert.Equal(t, 1, m.NodeCount())

	evts := m.GetUncommittedEvents()
	require.Len(t, evts, 1)
	assert.Equal(t, events.TypeNodeAdded, evts[0].GetEventType())
}

func TestConceptMap_AddNode_Limit(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxNodesPerMap = 1
	m := newTestMap(t, cfg)
	addContent(t, m, 0, 0)

	_, err := m.AddNode(entities.ContentPayload{}, valueobjects.MustPosition(1, 1))

	require.Error(t, err)
	assert.Equal(t, "NODE_LIMIT", pkgerrors.GetAppError(err).Code)
	assert.Equal(t, 1, m.NodeCount())
}

func TestConceptMap_AddEdge(t *testing.T) {
	tests := []struct {
		name      string
		cfg       func() *config.DomainConfig
		setup     func(t *testing.T, m *ConceptMap) (valueobjects.NodeID, valueobjects.NodeID)
		checkErr  func(error) bool
		wantCode  string
		wantEdges int
	}{
		{
			name: "connects two nodes",
			cfg:  config.DefaultDomainConfig,
			setup: func(t *testing.T, m *ConceptMap) (valueobjects.NodeID, valueobjects.NodeID) {
				return loadNode(t, m, "a", 0, 0), loadNode(t, m, "b", 10, 0)
			},
			wantEdges: 1,
		},
		{
			name: "missing target",
			cfg:  config.DefaultDomainConfig,
			setup: func(t *testing.T, m *ConceptMap) (valueobjects.NodeID, valueobjects.NodeID) {
				return loadNode(t, m, "a", 0, 0), valueobjects.MustNodeID("ghost")
			},
			checkErr: pkgerrors.IsInvalidReference,
		},
		{
			name: "self connection",
			cfg:  config.DefaultDomainConfig,
			setup: func(t *testing.T, m *ConceptMap) (valueobjects.NodeID, valueobjects.NodeID) {
				a := loadNode(t, m, "a", 0, 0)
				return a, a
			},
			checkErr: pkgerrors.IsValidation,
			wantCode: "SELF_CONNECTION",
		},
		{
			name: "duplicate in reverse direction",
			cfg:  config.DefaultDomainConfig,
			setup: func(t *testing.T, m *ConceptMap) (valueobjects.NodeID, valueobjects.NodeID) {
				a, b := loadNode(t, m, "a", 0, 0), loadNode(t, m, "b", 10, 0)
				_, err := m.AddEdge(a, b, "", nil)
				require.NoError(t, err)
				return b, a
			},
			checkErr:  pkgerrors.IsConflict,
			wantEdges: 1,
		},
		{
			name: "duplicates allowed by config",
			cfg:  config.DevelopmentDomainConfig,
			setup: func(t *testing.T, m *ConceptMap) (valueobjects.NodeID, valueobjects.NodeID) {
				a, b := loadNode(t, m, "a", 0, 0), loadNode(t, m, "b", 10, 0)
				_, err := m.AddEdge(a, b, "", nil)
				require.NoError(t, err)
				return a, b
			},
			wantEdges: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMap(t, tt.cfg())
			source, target := tt.setup(t, m)

			_, err := m.AddEdge(source, target, "label", nil)

			if tt.checkErr != nil {
				require.Error(t, err)
				assert.True(t, tt.checkErr(err))
				if tt.wantCode != "" {
					assert.Equal(t, tt.wantCode, pkgerrors.GetAppError(err).Code)
				}
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantEdges, m.EdgeCount())
		})
	}
}

func TestConceptMap_RemoveNodeCascades(t *testing.T) {
	// Arrange
	m := newTestMap(t, nil)
	a := loadNode(t, m, "a", 0, 0)
	b := loadNode(t, m, "b", 100, 0)
	c := loadNode(t, m, "c", 200, 0)
	ab, err := m.AddEdge(a, b, "", nil)
	require.NoError(t, err)
	bc, err := m.AddEdge(b, c, "", nil)
	require.NoError(t, err)
	_, err = m.AddEdge(a, c, "", nil)
	require.NoError(t, err)
	require.NoError(t, m.ReplacePendingEdge(&linking.Candidate{ID: valueobjects.PairEdgeID(b, c), Source: b, Target: c}))
	m.MarkEventsAsCommitted()

	// Act
	require.NoError(t, m.RemoveNode(b))

	// Assert
	assert.Equal(t, 2, m.NodeCount())
	assert.Equal(t, 1, m.EdgeCount())
	assert.Nil(t, m.PendingEdge())
	require.NoError(t, m.Validate())

	evts := m.GetUncommittedEvents()
	require.Len(t, evts, 1)
	removed, ok := evts[0].(events.NodeRemoved)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{ab.String(), bc.String()}, removed.RemovedEdges)
}

func TestConceptMap_RemoveMissing(t *testing.T) {
	m := newTestMap(t, nil)

	assert.True(t, pkgerrors.IsNotFound(m.RemoveNode(valueobjects.MustNodeID("x"))))
	assert.True(t, pkgerrors.IsNotFound(m.RemoveEdge(mustEdgeID(t, "x"))))
	assert.True(t, pkgerrors.IsNotFound(m.UpdateEdgeLabel(mustEdgeID(t, "x"), "l")))
}

func TestConceptMap_UpdateNodePosition_CoalescesMoves(t *testing.T) {
	m := newTestMap(t, nil)
	a := loadNode(t, m, "a", 0, 0)
	b := loadNode(t, m, "b", 500, 0)

	require.NoError(t, m.UpdateNodePosition(a, valueobjects.MustPosition(10, 0)))
	require.NoError(t, m.UpdateNodePosition(a, valueobjects.MustPosition(20, 0)))
	require.NoError(t, m.UpdateNodePosition(a, valueobjects.MustPosition(30, 0)))
	require.NoError(t, m.UpdateNodePosition(b, valueobjects.MustPosition(400, 0)))
	require.NoError(t, m.UpdateNodePosition(b, valueobjects.MustPosition(400, 0)))

	evts := m.GetUncommittedEvents()
	require.Len(t, evts, 2)

	moved := evts[0].(events.NodeMoved)
	assert.Equal(t, "a", moved.NodeID)
	assert.Equal(t, events.Point{X: 0, Y: 0}, moved.OldPosition)
	assert.Equal(t, events.Point{X: 30, Y: 0}, moved.NewPosition)
	assert.Equal(t, "b", evts[1].(events.NodeMoved).NodeID)
}

func TestConceptMap_PendingEdge(t *testing.T) {
	t.Run("promote moves the pending edge into the confirmed set", func(t *testing.T) {
		m := newTestMap(t, nil)
		a := loadNode(t, m, "1", 0, 0)
		b := loadNode(t, m, "2", 100, 0)

		require.NoError(t, m.ReplacePendingEdge(&linking.Candidate{ID: valueobjects.PairEdgeID(a, b), Source: a, Target: b}))
		assert.Equal(t, 0, m.EdgeCount())

		id, ok := m.PromotePendingEdge()

		require.True(t, ok)
		assert.Equal(t, "1-2", id.String())
		assert.Nil(t, m.PendingEdge())
		assert.Equal(t, 1, m.EdgeCount())

		evts := m.GetUncommittedEvents()
		require.Len(t, evts, 1)
		assert.True(t, evts[0].(events.EdgeAdded).AutoLinked)
	})

	t.Run("promote with an empty slot", func(t *testing.T) {
		m := newTestMap(t, nil)

		_, ok := m.PromotePendingEdge()

		assert.False(t, ok)
		assert.Empty(t, m.GetUncommittedEvents())
	})

	t.Run("replacing clears the previous candidate", func(t *testing.T) {
		m := newTestMap(t, nil)
		a := loadNode(t, m, "1", 0, 0)
		b := loadNode(t, m, "2", 100, 0)
		c := loadNode(t, m, "3", 200, 0)

		require.NoError(t, m.ReplacePendingEdge(&linking.Candidate{ID: valueobjects.PairEdgeID(a, b), Source: a, Target: b}))
		require.NoError(t, m.ReplacePendingEdge(&linking.Candidate{ID: valueobjects.PairEdgeID(b, c), Source: b, Target: c}))

		assert.Equal(t, "2-3", m.PendingEdge().ID().String())

		require.NoError(t, m.ReplacePendingEdge(nil))
		assert.Nil(t, m.PendingEdge())
	})

	t.Run("dangling candidate is rejected and the slot stays empty", func(t *testing.T) {
		m := newTestMap(t, nil)
		a := loadNode(t, m, "1", 0, 0)
		ghost := valueobjects.MustNodeID("9")

		err := m.ReplacePendingEdge(&linking.Candidate{ID: valueobjects.PairEdgeID(a, ghost), Source: a, Target: ghost})

		assert.True(t, pkgerrors.IsInvalidReference(err))
		assert.Nil(t, m.PendingEdge())
	})

	t.Run("promoting onto a taken id picks a fresh one", func(t *testing.T) {
		m := newTestMap(t, config.DevelopmentDomainConfig())
		a := loadNode(t, m, "1", 0, 0)
		b := loadNode(t, m, "2", 100, 0)
		edge, err := entities.NewEdge(valueobjects.PairEdgeID(a, b), a, b, "", nil)
		require.NoError(t, err)
		require.NoError(t, m.LoadEdge(edge))

		require.NoError(t, m.ReplacePendingEdge(&linking.Candidate{ID: valueobjects.PairEdgeID(a, b), Source: a, Target: b}))
		id, ok := m.PromotePendingEdge()

		require.True(t, ok)
		assert.NotEqual(t, "1-2", id.String())
		assert.Equal(t, 2, m.EdgeCount())
	})

	t.Run("edge limit blocks promotion", func(t *testing.T) {
		cfg := config.DefaultDomainConfig()
		cfg.MaxEdgesPerMap = 1
		m := newTestMap(t, cfg)
		a := loadNode(t, m, "1", 0, 0)
		b := loadNode(t, m, "2", 100, 0)
		c := loadNode(t, m, "3", 200, 0)
		_, err := m.AddEdge(a, b, "", nil)
		require.NoError(t, err)

		require.NoError(t, m.ReplacePendingEdge(&linking.Candidate{ID: valueobjects.PairEdgeID(b, c), Source: b, Target: c}))
		_, ok := m.PromotePendingEdge()

		assert.False(t, ok)
		assert.Nil(t, m.PendingEdge())
		assert.Equal(t, 1, m.EdgeCount())
	})
}

func TestConceptMap_LoadEdgeRequiresEndpoints(t *testing.T) {
	m := newTestMap(t, nil)
	a := loadNode(t, m, "a", 0, 0)
	edge, err := entities.NewEdge(mustEdgeID(t, "e1"), a, valueobjects.MustNodeID("b"), "", nil)
	require.NoError(t, err)

	err = m.LoadEdge(edge)

	assert.True(t, pkgerrors.IsInvalidReference(err))
	assert.Empty(t, m.GetUncommittedEvents())
}

func TestConceptMap_UpdateNodePayload(t *testing.T) {
	m := newTestMap(t, nil)
	a := loadNode(t, m, "a", 0, 0)

	require.NoError(t, m.UpdateNodePayload(a, entities.ContentPayload{Title: "renamed"}))
	err := m.UpdateNodePayload(a, entities.AnnotationPayload{Label: "x"})

	assert.True(t, pkgerrors.IsValidation(err))
	node, _ := m.Node(a)
	assert.Equal(t, entities.ContentPayload{Title: "renamed"}, node.Payload())
	assert.Len(t, m.GetUncommittedEvents(), 1)
}

func TestConceptMap_SnapshotIsOrdered(t *testing.T) {
	m := newTestMap(t, nil)
	loadNode(t, m, "c", 0, 0)
	loadNode(t, m, "a", 0, 0)
	loadNode(t, m, "b", 0, 0)

	snap := m.Snapshot()

	require.Len(t, snap.Nodes, 3)
	assert.Equal(t, "a", snap.Nodes[0].ID().String())
	assert.Equal(t, "b", snap.Nodes[1].ID().String())
	assert.Equal(t, "c", snap.Nodes[2].ID().String())
	assert.Equal(t, valueobjects.MapID("map-1"), snap.MapID)
}

func mustEdgeID(t *testing.T, s string) valueobjects.EdgeID {
	t.Helper()
	id, err := valueobjects.NewEdgeIDFromString(s)
	require.NoError(t, err)
	return id
}
