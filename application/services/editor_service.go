package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"conceptmap/application/editor"
	"conceptmap/application/ports"
	"conceptmap/domain/config"
	"conceptmap/domain/core/aggregates"
	"conceptmap/domain/core/validators"
	"conceptmap/domain/core/valueobjects"
	"conceptmap/pkg/observability"
	pkgerrors "conceptmap/pkg/errors"
)

// Workspace is one map held in memory together with its drag and edit
// state. All access goes through the workspace mutex.
type Workspace struct {
	mu    sync.Mutex
	meta  MapMeta
	graph *aggregates.ConceptMap
	drag  *editor.DragController
	edit  *editor.EditSession
}

func newWorkspace(graph *aggregates.ConceptMap, meta MapMeta, validator editor.FieldValidator) *Workspace {
	return &Workspace{
		meta:  meta,
		graph: graph,
		drag:  editor.NewDragController(graph, graph.Config().LinkThreshold),
		edit:  editor.NewEditSession(graph, validator),
	}
}

// replaceGraph swaps in new content and resets drag and edit state
func (ws *Workspace) replaceGraph(graph *aggregates.ConceptMap, validator editor.FieldValidator) {
	ws.graph = graph
	ws.drag = editor.NewDragController(graph, graph.Config().LinkThreshold)
	ws.edit = editor.NewEditSession(graph, validator)
}

// EditorService serializes browser events per map and keeps the maps in
// memory between requests
type EditorService struct {
	repo      ports.MapRepository
	publisher ports.EventPublisher
	notifier  ports.SnapshotNotifier
	validator *validators.PayloadValidator
	metrics   *observability.Collector
	tracer    *observability.Tracer
	logger    *zap.Logger

	mu         sync.Mutex
	cfg        *config.DomainConfig
	workspaces map[valueobjects.MapID]*Workspace
}

// NewEditorService creates a new editor service. publisher and notifier may be nil.
func NewEditorService(
	repo ports.MapRepository,
	publisher ports.EventPublisher,
	notifier ports.SnapshotNotifier,
	cfg *config.DomainConfig,
	metrics *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *EditorService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditorService{
		repo:       repo,
		publisher:  publisher,
		notifier:   notifier,
		validator:  validators.NewPayloadValidator(),
		metrics:    metrics,
		tracer:     tracer,
		logger:     logger,
		cfg:        cfg,
		workspaces: make(map[valueobjects.MapID]*Workspace),
	}
}

// UpdateConfig applies new domain rules to every open map
func (s *EditorService) UpdateConfig(cfg *config.DomainConfig) {
	if cfg == nil {
		return
	}

	s.mu.Lock()
	s.cfg = cfg
	open := make([]*Workspace, 0, len(s.workspaces))
	for _, ws := range s.workspaces {
		open = append(open, ws)
	}
	s.mu.Unlock()

	for _, ws := range open {
		ws.mu.Lock()
		ws.graph.SetConfig(cfg)
		ws.drag.SetThreshold(cfg.LinkThreshold)
		ws.mu.Unlock()
	}

	s.logger.Info("Domain configuration updated",
		zap.Float64("link_threshold", cfg.LinkThreshold),
		zap.Int("open_maps", len(open)),
	)
}

// Config returns the rules currently applied to new maps
func (s *EditorService) Config() *config.DomainConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Queries

// GetMap returns the current state of a map, loading it on first access
func (s *EditorService) GetMap(ctx context.Context, userID, mapID string) (*MapView, error) {
	ws, err := s.workspace(ctx, userID, mapID)
	if err != nil {
		return nil, err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	return buildCheckedView(ws)
}

// ListMaps returns the stored maps of a user
func (s *EditorService) ListMaps(ctx context.Context, userID string) ([]ports.MapSummary, error) {
	var summaries []ports.MapSummary
	err := s.trace(ctx, "repository.ListMaps", func(ctx context.Context) error {
		var err error
		summaries, err = s.repo.ListMaps(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// Graph edits

// AddNodeInput describes a node placed from the toolbar
type AddNodeInput struct {
	Type string
	Data ports.NodeData
	X, Y float64
}

// AddNode places a new node on the canvas
func (s *EditorService) AddNode(ctx context.Context, userID, mapID string, in AddNodeInput) (*MapView, string, error) {
	payload, err := PayloadFromRecord(in.Type, in.Data)
	if err != nil {
		return nil, "", err
	}
	if err := s.validator.ValidatePayload(payload); err != nil {
		return nil, "", err
	}
	position, err := valueobjects.NewPosition(in.X, in.Y)
	if err != nil {
		return nil, "", err
	}

	var nodeID valueobjects.NodeID
	view, err := s.mutate(ctx, userID, mapID, "add_node", func(ws *Workspace) error {
		var err error
		nodeID, err = ws.graph.AddNode(payload, position)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return view, nodeID.String(), nil
}

// RemoveNode deletes a node and its edges
func (s *EditorService) RemoveNode(ctx context.Context, userID, mapID, nodeID string) (*MapView, error) {
	id, err := parseNodeID(nodeID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, mapID, "remove_node", func(ws *Workspace) error {
		if active, dragging := ws.drag.ActiveNode(); dragging && active.Equals(id) {
			ws.drag.Abort()
		}
		if target, ok := ws.edit.Target(); ok && target.Kind == editor.EntityNode && target.NodeID.Equals(id) {
			ws.edit.Cancel()
		}
		return ws.graph.RemoveNode(id)
	})
}

// AddEdgeInput describes an explicitly drawn edge
type AddEdgeInput struct {
	Source string
	Target string
	Label  string
	Style  *ports.StyleRecord
}

// AddEdge connects two nodes
func (s *EditorService) AddEdge(ctx context.Context, userID, mapID string, in AddEdgeInput) (*MapView, string, error) {
	source, err := parseNodeID(in.Source)
	if err != nil {
		return nil, "", err
	}
	target, err := parseNodeID(in.Target)
	if err != nil {
		return nil, "", err
	}
	if err := s.validator.ValidateEdgeLabel(in.Label); err != nil {
		return nil, "", err
	}
	style, err := StyleFromRecord(in.Style)
	if err != nil {
		return nil, "", err
	}

	var edgeID valueobjects.EdgeID
	view, err := s.mutate(ctx, userID, mapID, "add_edge", func(ws *Workspace) error {
		var err error
		edgeID, err = ws.graph.AddEdge(source, target, in.Label, style)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return view, edgeID.String(), nil
}

// RemoveEdge deletes a confirmed edge
func (s *EditorService) RemoveEdge(ctx context.Context, userID, mapID, edgeID string) (*MapView, error) {
	id, err := valueobjects.NewEdgeIDFromString(edgeID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	return s.mutate(ctx, userID, mapID, "remove_edge", func(ws *Workspace) error {
		if target, ok := ws.edit.Target(); ok && target.Kind == editor.EntityEdge && target.EdgeID.Equals(id) {
			ws.edit.Cancel()
		}
		return ws.graph.RemoveEdge(id)
	})
}

// Drag

// StartDrag begins dragging a node
func (s *EditorService) StartDrag(ctx context.Context, userID, mapID, nodeID string) (*DragOutcome, error) {
	id, err := parseNodeID(nodeID)
	if err != nil {
		return nil, err
	}
	return s.drag(ctx, userID, mapID, "drag_start", func(ws *Workspace) (editor.DragResult, error) {
		return editor.DragResult{State: editor.DragDragging}, ws.drag.Start(id)
	})
}

// MoveDrag applies an intermediate drag position
func (s *EditorService) MoveDrag(ctx context.Context, userID, mapID string, x, y float64) (*DragOutcome, error) {
	position, err := valueobjects.NewPosition(x, y)
	if err != nil {
		return nil, err
	}
	return s.drag(ctx, userID, mapID, "drag_move", func(ws *Workspace) (editor.DragResult, error) {
		return ws.drag.Move(position)
	})
}

// StopDrag applies the final position and links the node if a neighbour
// is close enough
func (s *EditorService) StopDrag(ctx context.Context, userID, mapID string, x, y float64) (*DragOutcome, error) {
	position, err := valueobjects.NewPosition(x, y)
	if err != nil {
		return nil, err
	}
	outcome, err := s.drag(ctx, userID, mapID, "drag_stop", func(ws *Workspace) (editor.DragResult, error) {
		return ws.drag.Stop(position)
	})
	if err == nil && outcome.Linked && s.metrics != nil {
		s.metrics.AutoLinks.Inc()
	}
	return outcome, err
}

// AbortDrag cancels a drag without linking
func (s *EditorService) AbortDrag(ctx context.Context, userID, mapID string) (*DragOutcome, error) {
	return s.drag(ctx, userID, mapID, "drag_abort", func(ws *Workspace) (editor.DragResult, error) {
		return ws.drag.Abort(), nil
	})
}

func (s *EditorService) drag(ctx context.Context, userID, mapID, op string, fn func(ws *Workspace) (editor.DragResult, error)) (*DragOutcome, error) {
	var result editor.DragResult
	started := time.Now()

	view, err := s.mutate(ctx, userID, mapID, op, func(ws *Workspace) error {
		var err error
		result, err = fn(ws)
		return err
	})
	if s.metrics != nil {
		s.metrics.LinkScanDuration.Observe(time.Since(started).Seconds())
	}
	if err != nil {
		return nil, err
	}

	outcome := &DragOutcome{
		Map:       view,
		Candidate: candidateView(result.Candidate),
		Linked:    result.Linked,
	}
	if result.Linked {
		outcome.EdgeID = result.EdgeID.String()
	}
	return outcome, nil
}

// Edit

// OpenEdit starts editing a node or an edge
func (s *EditorService) OpenEdit(ctx context.Context, userID, mapID string, kind editor.EntityKind, id string) (*MapView, error) {
	switch kind {
	case editor.EntityNode:
		nodeID, err := parseNodeID(id)
		if err != nil {
			return nil, err
		}
		return s.mutate(ctx, userID, mapID, "edit_open", func(ws *Workspace) error {
			_, err := ws.edit.OpenNode(nodeID)
			return err
		})
	case editor.EntityEdge:
		edgeID, err := valueobjects.NewEdgeIDFromString(id)
		if err != nil {
			return nil, pkgerrors.NewValidationError(err.Error())
		}
		return s.mutate(ctx, userID, mapID, "edit_open", func(ws *Workspace) error {
			_, err := ws.edit.OpenEdge(edgeID)
			return err
		})
	default:
		return nil, pkgerrors.NewValidationError("kind must be node or edge")
	}
}

// SetEditField changes a draft value
func (s *EditorService) SetEditField(ctx context.Context, userID, mapID, field, value string) (*MapView, error) {
	return s.mutate(ctx, userID, mapID, "edit_field", func(ws *Workspace) error {
		return ws.edit.SetField(field, value)
	})
}

// SaveEdit writes the draft to the map
func (s *EditorService) SaveEdit(ctx context.Context, userID, mapID string) (*MapView, error) {
	return s.mutate(ctx, userID, mapID, "edit_save", func(ws *Workspace) error {
		return ws.edit.Save()
	})
}

// CancelEdit discards the draft
func (s *EditorService) CancelEdit(ctx context.Context, userID, mapID string) (*MapView, error) {
	return s.mutate(ctx, userID, mapID, "edit_cancel", func(ws *Workspace) error {
		ws.edit.Cancel()
		return nil
	})
}

// Persistence

// SaveInput carries optional metadata changes made on save
type SaveInput struct {
	Title    *string
	LessonID *string
}

// SaveMap persists the current state of a map and publishes the events
// recorded since the last save
func (s *EditorService) SaveMap(ctx context.Context, userID, mapID string, in SaveInput) (*MapView, error) {
	ws, err := s.workspace(ctx, userID, mapID)
	if err != nil {
		return nil, err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	meta := ws.meta
	if in.Title != nil {
		meta.Title = *in.Title
	}
	if in.LessonID != nil {
		meta.LessonID = *in.LessonID
	}

	if err := s.persist(ctx, ws, meta); err != nil {
		s.observe("save", err)
		return nil, err
	}
	s.observe("save", nil)

	view, err := buildCheckedView(ws)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, view)
	return view, nil
}

// ReplaceMap overwrites a map with a full document, as the browser editor
// does when it saves, and persists it
func (s *EditorService) ReplaceMap(ctx context.Context, userID, mapID string, doc *ports.MapDocument) (*MapView, error) {
	if doc == nil {
		return nil, pkgerrors.NewValidationError("map document is required")
	}

	ws, err := s.workspace(ctx, userID, mapID)
	if err != nil {
		return nil, err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	incoming := *doc
	incoming.ID = mapID
	graph, err := BuildConceptMap(&incoming, ws.graph.Config())
	if err != nil {
		s.observe("replace", err)
		return nil, err
	}
	if graph.NodeCount() > graph.Config().MaxNodesPerMap || graph.EdgeCount() > graph.Config().MaxEdgesPerMap {
		err := pkgerrors.NewValidationError("map exceeds the configured size limits").WithCode("MAP_TOO_LARGE")
		s.observe("replace", err)
		return nil, err
	}
	for _, node := range graph.Nodes() {
		if err := s.validator.ValidatePayload(node.Payload()); err != nil {
			err = pkgerrors.Wrapf(err, "node %s", node.ID().String())
			s.observe("replace", err)
			return nil, err
		}
	}
	graph.MarkReplaced(ws.graph.GetUncommittedEvents())

	meta := ws.meta
	meta.Title = doc.Title
	meta.LessonID = doc.LessonID

	prevGraph, prevDrag, prevEdit := ws.graph, ws.drag, ws.edit
	ws.replaceGraph(graph, s.validator)
	if err := s.persist(ctx, ws, meta); err != nil {
		ws.graph, ws.drag, ws.edit = prevGraph, prevDrag, prevEdit
		s.observe("replace", err)
		return nil, err
	}
	s.observe("replace", nil)

	view, err := buildCheckedView(ws)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, view)
	return view, nil
}

// ReloadMap drops the in-memory copy, including unsaved changes, and loads
// the stored map again
func (s *EditorService) ReloadMap(ctx context.Context, userID, mapID string) (*MapView, error) {
	if _, err := s.workspace(ctx, userID, mapID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.workspaces, valueobjects.MapID(mapID))
	s.updateWorkspaceGauge()
	s.mu.Unlock()

	return s.GetMap(ctx, userID, mapID)
}

// persist writes the workspace with meta and, on success, commits meta and
// publishes pending events. Caller holds ws.mu.
func (s *EditorService) persist(ctx context.Context, ws *Workspace, meta MapMeta) error {
	meta.Version = ws.meta.Version + 1
	doc := DocumentOf(ws.graph, meta)

	err := s.trace(ctx, "repository.SaveMap", func(ctx context.Context) error {
		return s.repo.SaveMap(ctx, doc)
	})
	if err != nil {
		s.logger.Warn("Failed to save map",
			zap.String("map_id", doc.ID),
			zap.Int("version", doc.Version),
			zap.Error(err),
		)
		return err
	}

	ws.meta = meta
	s.publish(ctx, ws.graph)

	s.logger.Info("Map saved",
		zap.String("map_id", doc.ID),
		zap.Int("version", doc.Version),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("edges", len(doc.Edges)),
	)
	return nil
}

// Connections

// RegisterConnection subscribes a websocket connection to snapshots of a map
func (s *EditorService) RegisterConnection(ctx context.Context, userID, mapID, connectionID string) error {
	if connectionID == "" {
		return pkgerrors.NewValidationError("connection id is required")
	}
	if _, err := s.workspace(ctx, userID, mapID); err != nil {
		return err
	}
	if s.notifier == nil {
		return pkgerrors.NewUnavailableError("snapshot notifications")
	}
	return s.notifier.Register(ctx, mapID, connectionID)
}

// UnregisterConnection removes a websocket connection
func (s *EditorService) UnregisterConnection(ctx context.Context, connectionID string) error {
	if s.notifier == nil {
		return nil
	}
	return s.notifier.Unregister(ctx, connectionID)
}

// internals

// mutate runs fn against a map under its lock, then pushes the new state
func (s *EditorService) mutate(ctx context.Context, userID, mapID, op string, fn func(ws *Workspace) error) (*MapView, error) {
	ws, err := s.workspace(ctx, userID, mapID)
	if err != nil {
		return nil, err
	}

	s.tracer.AddAnnotation(ctx, "operation", op)
	s.tracer.AddAnnotation(ctx, "map_id", mapID)

	ws.mu.Lock()
	err = fn(ws)
	var view *MapView
	if err == nil {
		view = buildView(ws)
	}
	ws.mu.Unlock()

	s.observe(op, err)
	if err != nil {
		s.logger.Debug("Editor operation rejected",
			zap.String("operation", op),
			zap.String("map_id", mapID),
			zap.Error(err),
		)
		return nil, err
	}

	s.notify(ctx, view)
	return view, nil
}

// workspace returns the open map, loading it if necessary. A missing map
// starts empty; so does one that fails to load, after logging the failure.
func (s *EditorService) workspace(ctx context.Context, userID, mapID string) (*Workspace, error) {
	if mapID == "" {
		return nil, pkgerrors.NewValidationError("map id is required")
	}
	id := valueobjects.MapID(mapID)

	s.mu.Lock()
	ws, ok := s.workspaces[id]
	cfg := s.cfg
	s.mu.Unlock()
	if ok {
		return s.authorize(ws, userID, mapID)
	}

	loaded := s.load(ctx, userID, mapID, cfg)

	s.mu.Lock()
	if existing, ok := s.workspaces[id]; ok {
		loaded = existing
	} else {
		s.workspaces[id] = loaded
		s.updateWorkspaceGauge()
	}
	s.mu.Unlock()

	return s.authorize(loaded, userID, mapID)
}

func (s *EditorService) load(ctx context.Context, userID, mapID string, cfg *config.DomainConfig) *Workspace {
	empty := func() *Workspace {
		return newWorkspace(aggregates.NewConceptMap(valueobjects.MapID(mapID), cfg), MapMeta{OwnerID: userID}, s.validator)
	}

	var doc *ports.MapDocument
	err := s.trace(ctx, "repository.FetchMap", func(ctx context.Context) error {
		var err error
		doc, err = s.repo.FetchMap(ctx, mapID)
		return err
	})
	switch {
	case pkgerrors.IsNotFound(err):
		s.logger.Debug("Starting new map", zap.String("map_id", mapID))
		return empty()
	case err != nil:
		s.logger.Error("Failed to load map, starting empty",
			zap.String("map_id", mapID),
			zap.Error(err),
		)
		return empty()
	}

	graph, err := BuildConceptMap(doc, cfg)
	if err != nil {
		s.logger.Error("Stored map is invalid, starting empty",
			zap.String("map_id", mapID),
			zap.Error(err),
		)
		ws := empty()
		ws.meta = MapMeta{OwnerID: doc.OwnerID, LessonID: doc.LessonID, Title: doc.Title, Version: doc.Version}
		return ws
	}

	return newWorkspace(graph, MapMeta{
		OwnerID:  doc.OwnerID,
		LessonID: doc.LessonID,
		Title:    doc.Title,
		Version:  doc.Version,
	}, s.validator)
}

// authorize hides maps owned by someone else
func (s *EditorService) authorize(ws *Workspace, userID, mapID string) (*Workspace, error) {
	ws.mu.Lock()
	owner := ws.meta.OwnerID
	ws.mu.Unlock()

	if owner != "" && owner != userID {
		return nil, pkgerrors.NewNotFoundError("map " + mapID)
	}
	return ws, nil
}

func (s *EditorService) publish(ctx context.Context, graph *aggregates.ConceptMap) {
	pending := graph.GetUncommittedEvents()
	if len(pending) == 0 {
		return
	}
	defer graph.MarkEventsAsCommitted()

	if s.publisher == nil {
		return
	}

	err := s.trace(ctx, "events.PublishBatch", func(ctx context.Context) error {
		return s.publisher.PublishBatch(ctx, pending)
	})
	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.EventsPublished.WithLabelValues(status).Add(float64(len(pending)))
	}
	if err != nil {
		// The map is already stored; events are best effort
		s.logger.Error("Failed to publish map events",
			zap.String("map_id", graph.ID().String()),
			zap.Int("count", len(pending)),
			zap.Error(err),
		)
	}
}

func (s *EditorService) notify(ctx context.Context, view *MapView) {
	if s.notifier == nil || view == nil {
		return
	}

	payload, err := json.Marshal(struct {
		Type string   `json:"type"`
		Map  *MapView `json:"map"`
	}{Type: "snapshot", Map: view})
	if err != nil {
		s.logger.Error("Failed to encode snapshot", zap.Error(err))
		return
	}

	err = s.notifier.Notify(ctx, view.ID, payload)
	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.Notifications.WithLabelValues(status).Inc()
	}
	if err != nil {
		s.logger.Warn("Failed to push snapshot",
			zap.String("map_id", view.ID),
			zap.Error(err),
		)
	}
}

func (s *EditorService) trace(ctx context.Context, name string, fn func(context.Context) error) error {
	if s.tracer == nil {
		return fn(ctx)
	}
	return s.tracer.TraceFunction(ctx, name, fn)
}

func (s *EditorService) observe(op string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, err)
	}
}

// updateWorkspaceGauge must be called with s.mu held
func (s *EditorService) updateWorkspaceGauge() {
	if s.metrics != nil {
		s.metrics.OpenWorkspaces.Set(float64(len(s.workspaces)))
	}
}

func parseNodeID(id string) (valueobjects.NodeID, error) {
	nodeID, err := valueobjects.NewNodeIDFromString(id)
	if err != nil {
		return valueobjects.NodeID{}, pkgerrors.NewValidationError(err.Error())
	}
	return nodeID, nil
}
