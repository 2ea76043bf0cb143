package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"conceptmap/application/editor"
	"conceptmap/application/ports"
	"conceptmap/domain/config"
	"conceptmap/domain/events"
	"conceptmap/infrastructure/persistence/memory"
	pkgerrors "conceptmap/pkg/errors"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Register(ctx context.Context, mapID, connectionID string) error {
	args := m.Called(ctx, mapID, connectionID)
	return args.Error(0)
}

func (m *mockNotifier) Unregister(ctx context.Context, connectionID string) error {
	args := m.Called(ctx, connectionID)
	return args.Error(0)
}

func (m *mockNotifier) Notify(ctx context.Context, mapID string, payload []byte) error {
	args := m.Called(ctx, mapID, payload)
	return args.Error(0)
}

func batchOf(n int) interface{} {
	return mock.MatchedBy(func(batch []events.DomainEvent) bool { return len(batch) == n })
}

func twoNodeDocument() *ports.MapDocument {
	return &ports.MapDocument{
		Title: "Biology",
		Nodes: []ports.NodeRecord{
			{ID: "1", Type: "customNode", Data: ports.NodeData{Title: "Cell"}, Position: ports.PositionRecord{X: 0, Y: 0}},
			{ID: "2", Type: "customNode", Data: ports.NodeData{Title: "Nucleus"}, Position: ports.PositionRecord{X: 500, Y: 0}},
		},
	}
}

func newService(repo ports.MapRepository, publisher ports.EventPublisher, notifier ports.SnapshotNotifier) *EditorService {
	return NewEditorService(repo, publisher, notifier, config.DefaultDomainConfig(), nil, nil, zap.NewNop())
}

func TestEditorService_GetMap_StartsEmpty(t *testing.T) {
	svc := newService(memory.NewMapRepository(), nil, nil)

	view, err := svc.GetMap(context.Background(), "user-1", "map-1")

	require.NoError(t, err)
	assert.Equal(t, "map-1", view.ID)
	assert.Equal(t, 0, view.Version)
	assert.Empty(t, view.Nodes)
	assert.NotEmpty(t, view.Checksum)
	assert.Equal(t, "idle", view.Drag.State)
	assert.Equal(t, config.DefaultLinkThreshold, view.Drag.Threshold)
}

func TestEditorService_SaveMap_PublishesAfterStore(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := memory.NewMapRepository()
	publisher := new(mockPublisher)
	publisher.On("PublishBatch", mock.Anything, batchOf(1)).Return(nil).Once()
	svc := newService(repo, publisher, nil)

	view, nodeID, err := svc.AddNode(ctx, "user-1", "map-1", AddNodeInput{
		Type: "customNode",
		Data: ports.NodeData{Title: "Energy"},
		X:    10, Y: 20,
	})
	require.NoError(t, err)
	assert.True(t, view.Dirty)

	// Act
	saved, err := svc.SaveMap(ctx, "user-1", "map-1", SaveInput{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Version)
	assert.False(t, saved.Dirty)

	doc, err := repo.FetchMap(ctx, "map-1")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, "user-1", doc.OwnerID)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, nodeID, doc.Nodes[0].ID)

	// A second save with nothing new stores a new version and publishes nothing
	title := "Renamed"
	saved, err = svc.SaveMap(ctx, "user-1", "map-1", SaveInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Version)
	assert.Equal(t, "Renamed", saved.Title)

	publisher.AssertExpectations(t)
}

func TestEditorService_SaveMap_ConflictKeepsEvents(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := memory.NewMapRepository()
	publisher := new(mockPublisher)
	svc := newService(repo, publisher, nil)

	_, err := svc.GetMap(ctx, "user-1", "map-1")
	require.NoError(t, err)
	require.NoError(t, repo.SaveMap(ctx, &ports.MapDocument{ID: "map-1", OwnerID: "user-1", Version: 1}))

	_, _, err = svc.AddNode(ctx, "user-1", "map-1", AddNodeInput{Type: "content", X: 1, Y: 1})
	require.NoError(t, err)

	// Act
	_, err = svc.SaveMap(ctx, "user-1", "map-1", SaveInput{})

	// Assert
	assert.True(t, pkgerrors.IsConflict(err))
	view, err := svc.GetMap(ctx, "user-1", "map-1")
	require.NoError(t, err)
	assert.True(t, view.Dirty)
	assert.Equal(t, 0, view.Version)
	publisher.AssertNotCalled(t, "PublishBatch", mock.Anything, mock.Anything)
}

func TestEditorService_OwnershipIsHidden(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewMapRepository()
	svc := newService(repo, nil, nil)

	_, err := svc.ReplaceMap(ctx, "owner", "map-1", twoNodeDocument())
	require.NoError(t, err)

	_, err = svc.GetMap(ctx, "intruder", "map-1")
	assert.True(t, pkgerrors.IsNotFound(err))

	// A fresh process loads the owner from the stored document
	_, err = newService(repo, nil, nil).GetMap(ctx, "intruder", "map-1")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestEditorService_DragLinksAndPublishes(t *testing.T) {
	// Arrange
	ctx := context.Background()
	publisher := new(mockPublisher)
	publisher.On("PublishBatch", mock.Anything, batchOf(1)).Return(nil).Once()
	publisher.On("PublishBatch", mock.Anything, batchOf(2)).Return(nil).Once()
	notifier := new(mockNotifier)
	notifier.On("Notify", mock.Anything, "map-1", mock.Anything).Return(nil)
	svc := newService(memory.NewMapRepository(), publisher, notifier)

	_, err := svc.ReplaceMap(ctx, "user-1", "map-1", twoNodeDocument())
	require.NoError(t, err)

	// Act
	started, err := svc.StartDrag(ctx, "user-1", "map-1", "2")
	require.NoError(t, err)
	moved, err := svc.MoveDrag(ctx, "user-1", "map-1", 100, 0)
	require.NoError(t, err)
	stopped, err := svc.StopDrag(ctx, "user-1", "map-1", 100, 0)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, "dragging", started.Map.Drag.State)
	assert.Equal(t, "2", started.Map.Drag.NodeID)

	require.NotNil(t, moved.Candidate)
	assert.Equal(t, "1-2", moved.Candidate.ID)
	require.NotNil(t, moved.Map.PendingEdge)
	assert.True(t, moved.Map.PendingEdge.Temporary)
	assert.Empty(t, moved.Map.Edges)

	assert.True(t, stopped.Linked)
	assert.Equal(t, "1-2", stopped.EdgeID)
	assert.Nil(t, stopped.Map.PendingEdge)
	require.Len(t, stopped.Map.Edges, 1)
	assert.Equal(t, "1", stopped.Map.Edges[0].Source)
	assert.Equal(t, "2", stopped.Map.Edges[0].Target)

	_, err = svc.SaveMap(ctx, "user-1", "map-1", SaveInput{})
	require.NoError(t, err)

	publisher.AssertExpectations(t)
	notifier.AssertNumberOfCalls(t, "Notify", 5)
}

func TestEditorService_ReplaceMap_RejectsDanglingEdges(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.NewMapRepository(), nil, nil)
	_, err := svc.ReplaceMap(ctx, "user-1", "map-1", twoNodeDocument())
	require.NoError(t, err)

	bad := twoNodeDocument()
	bad.Edges = []ports.EdgeRecord{{ID: "e1", Source: "1", Target: "9"}}
	_, err = svc.ReplaceMap(ctx, "user-1", "map-1", bad)

	assert.True(t, pkgerrors.IsInvalidReference(err))
	view, err := svc.GetMap(ctx, "user-1", "map-1")
	require.NoError(t, err)
	assert.Len(t, view.Nodes, 2)
	assert.Empty(t, view.Edges)
	assert.Equal(t, 1, view.Version)
}

func TestEditorService_ReplaceMap_SkipsTemporaryEdges(t *testing.T) {
	tests := []struct {
		name string
		edge ports.EdgeRecord
	}{
		{name: "temporary flag", edge: ports.EdgeRecord{ID: "1-2", Source: "1", Target: "2", Temporary: true}},
		{name: "temp class", edge: ports.EdgeRecord{ID: "1-2", Source: "1", Target: "2", ClassName: "temp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			ctx := context.Background()
			repo := memory.NewMapRepository()
			svc := newService(repo, nil, nil)
			doc := twoNodeDocument()
			doc.Edges = []ports.EdgeRecord{tt.edge}

			// Act
			view, err := svc.ReplaceMap(ctx, "user-1", "map-1", doc)

			// Assert
			require.NoError(t, err)
			assert.Empty(t, view.Edges)
			assert.Nil(t, view.PendingEdge)
			stored, err := repo.FetchMap(ctx, "map-1")
			require.NoError(t, err)
			assert.Empty(t, stored.Edges)
		})
	}
}

func TestEditorService_ReplaceMap_PublishesCarriedEvents(t *testing.T) {
	// Arrange
	ctx := context.Background()
	var published []events.DomainEvent
	publisher := new(mockPublisher)
	publisher.On("PublishBatch", mock.Anything, batchOf(2)).
		Run(func(args mock.Arguments) { published = args.Get(1).([]events.DomainEvent) }).
		Return(nil).Once()
	svc := newService(memory.NewMapRepository(), publisher, nil)

	_, _, err := svc.AddNode(ctx, "user-1", "map-1", AddNodeInput{Type: "customNode", Data: ports.NodeData{Title: "draft"}})
	require.NoError(t, err)

	// Act
	view, err := svc.ReplaceMap(ctx, "user-1", "map-1", twoNodeDocument())

	// Assert
	require.NoError(t, err)
	assert.False(t, view.Dirty)
	publisher.AssertExpectations(t)
	require.Len(t, published, 2)
	assert.Equal(t, events.TypeNodeAdded, published[0].GetEventType())
	assert.Equal(t, events.TypeMapReplaced, published[1].GetEventType())
}

func TestEditorService_ReplaceMap_FailedSaveKeepsSessions(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := memory.NewMapRepository()
	svc := newService(repo, nil, nil)
	_, err := svc.ReplaceMap(ctx, "user-1", "map-1", twoNodeDocument())
	require.NoError(t, err)

	_, err = svc.StartDrag(ctx, "user-1", "map-1", "2")
	require.NoError(t, err)
	_, err = svc.OpenEdit(ctx, "user-1", "map-1", editor.EntityNode, "1")
	require.NoError(t, err)

	// Someone else stores version 2 first
	require.NoError(t, repo.SaveMap(ctx, &ports.MapDocument{ID: "map-1", OwnerID: "user-1", Version: 2}))
	replacement := twoNodeDocument()
	replacement.Nodes = replacement.Nodes[:1]

	// Act
	_, err = svc.ReplaceMap(ctx, "user-1", "map-1", replacement)

	// Assert
	assert.True(t, pkgerrors.IsConflict(err))
	view, err := svc.GetMap(ctx, "user-1", "map-1")
	require.NoError(t, err)
	assert.Len(t, view.Nodes, 2)
	assert.Equal(t, "dragging", view.Drag.State)
	assert.Equal(t, "2", view.Drag.NodeID)
	assert.True(t, view.Edit.Open)
	assert.Equal(t, "1", view.Edit.ID)
}

func TestEditorService_ReplaceMap_ValidatesPayloads(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewMapRepository()
	svc := newService(repo, nil, nil)
	doc := twoNodeDocument()
	doc.Nodes[1].Data.Text = "<script>alert(1)</script>"

	_, err := svc.ReplaceMap(ctx, "user-1", "map-1", doc)

	assert.True(t, pkgerrors.IsValidation(err))
	_, err = repo.FetchMap(ctx, "map-1")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestEditorService_ReloadMap_DropsUnsavedChanges(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.NewMapRepository(), nil, nil)
	_, err := svc.ReplaceMap(ctx, "user-1", "map-1", twoNodeDocument())
	require.NoError(t, err)

	_, err = svc.RemoveNode(ctx, "user-1", "map-1", "1")
	require.NoError(t, err)

	view, err := svc.ReloadMap(ctx, "user-1", "map-1")

	require.NoError(t, err)
	assert.Len(t, view.Nodes, 2)
	assert.False(t, view.Dirty)
}

func TestEditorService_EditFlow(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.NewMapRepository(), nil, nil)
	_, err := svc.ReplaceMap(ctx, "user-1", "map-1", twoNodeDocument())
	require.NoError(t, err)

	view, err := svc.OpenEdit(ctx, "user-1", "map-1", editor.EntityNode, "1")
	require.NoError(t, err)
	assert.True(t, view.Edit.Open)
	assert.Equal(t, "Cell", view.Edit.Fields["title"])

	_, err = svc.SetEditField(ctx, "user-1", "map-1", "title", "Cell membrane")
	require.NoError(t, err)

	view, err = svc.SaveEdit(ctx, "user-1", "map-1")
	require.NoError(t, err)
	assert.False(t, view.Edit.Open)
	assert.Equal(t, "Cell membrane", view.Nodes[0].Data.Title)

	_, err = svc.OpenEdit(ctx, "user-1", "map-1", editor.EntityKind("group"), "1")
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestEditorService_AddEdgeValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.NewMapRepository(), nil, nil)
	_, err := svc.ReplaceMap(ctx, "user-1", "map-1", twoNodeDocument())
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   AddEdgeInput
		check   func(error) bool
		wantErr bool
	}{
		{name: "valid", input: AddEdgeInput{Source: "1", Target: "2", Label: "contains"}},
		{name: "blank source", input: AddEdgeInput{Source: " ", Target: "2"}, check: pkgerrors.IsValidation, wantErr: true},
		{name: "unknown target", input: AddEdgeInput{Source: "1", Target: "7"}, check: pkgerrors.IsInvalidReference, wantErr: true},
		{name: "script label", input: AddEdgeInput{Source: "2", Target: "1", Label: "<script>"}, check: pkgerrors.IsValidation, wantErr: true},
		{
			name:    "negative stroke width",
			input:   AddEdgeInput{Source: "2", Target: "1", Style: &ports.StyleRecord{StrokeWidth: -1}},
			check:   pkgerrors.IsValidation,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, id, err := svc.AddEdge(ctx, "user-1", "map-1", tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, tt.check(err))
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, id)
		})
	}
}

func TestEditorService_UpdateConfig(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.NewMapRepository(), nil, nil)
	_, err := svc.GetMap(ctx, "user-1", "map-1")
	require.NoError(t, err)

	cfg := config.DefaultDomainConfig()
	cfg.LinkThreshold = 50
	svc.UpdateConfig(cfg)

	view, err := svc.GetMap(ctx, "user-1", "map-1")
	require.NoError(t, err)
	assert.Equal(t, 50.0, view.Drag.Threshold)
	assert.Same(t, cfg, svc.Config())
}

func TestEditorService_Connections(t *testing.T) {
	ctx := context.Background()

	t.Run("registers with the notifier", func(t *testing.T) {
		notifier := new(mockNotifier)
		notifier.On("Register", mock.Anything, "map-1", "conn-1").Return(nil).Once()
		notifier.On("Unregister", mock.Anything, "conn-1").Return(nil).Once()
		svc := newService(memory.NewMapRepository(), nil, notifier)

		require.NoError(t, svc.RegisterConnection(ctx, "user-1", "map-1", "conn-1"))
		require.NoError(t, svc.UnregisterConnection(ctx, "conn-1"))

		notifier.AssertExpectations(t)
	})

	t.Run("without a notifier", func(t *testing.T) {
		svc := newService(memory.NewMapRepository(), nil, nil)

		err := svc.RegisterConnection(ctx, "user-1", "map-1", "conn-1")

		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
		assert.NoError(t, svc.UnregisterConnection(ctx, "conn-1"))
	})

	t.Run("empty connection id", func(t *testing.T) {
		svc := newService(memory.NewMapRepository(), nil, nil)
		assert.True(t, pkgerrors.IsValidation(svc.RegisterConnection(ctx, "user-1", "map-1", "")))
	})
}
