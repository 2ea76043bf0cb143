package aggregates

import (
	"fmt"
	"sort"
	"time"

	"conceptmap/domain/config"
	"conceptmap/domain/core/entities"
	"conceptmap/domain/core/valueobjects"
	"conceptmap/domain/events"
	"conceptmap/domain/services/linking"
	pkgerrors "conceptmap/pkg/errors"
)

// ConceptMap is the aggregate root for one editable map.
// It owns the nodes, the confirmed edges and the single pending auto-link
// edge, and keeps every edge pointing at existing nodes.
//
// A ConceptMap is not safe for concurrent use.
type ConceptMap struct {
	id        valueobjects.MapID
	nodes     map[valueobjects.NodeID]*entities.Node
	edges     map[valueobjects.EdgeID]*entities.Edge
	pending   *entities.Edge
	cfg       *config.DomainConfig
	updatedAt time.Time
	events    []events.DomainEvent
}

// Snapshot is a point-in-time copy of a map's collections, ordered by id
type Snapshot struct {
	MapID       valueobjects.MapID
	Nodes       []*entities.Node
	Edges       []*entities.Edge
	PendingEdge *entities.Edge
}

// NewConceptMap creates an empty map. A nil config selects the defaults.
func NewConceptMap(id valueobjects.MapID, cfg *config.DomainConfig) *ConceptMap {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &ConceptMap{
		id:        id,
		nodes:     make(map[valueobjects.NodeID]*entities.Node),
		edges:     make(map[valueobjects.EdgeID]*entities.Edge),
		cfg:       cfg,
		updatedAt: time.Now(),
		events:    []events.DomainEvent{},
	}
}

// ID returns the map's identifier
func (m *ConceptMap) ID() valueobjects.MapID {
	return m.id
}

// Config returns the rules the map enforces
func (m *ConceptMap) Config() *config.DomainConfig {
	return m.cfg
}

// SetConfig swaps the rules, e.g. after a configuration reload
func (m *ConceptMap) SetConfig(cfg *config.DomainConfig) {
	if cfg != nil {
		m.cfg = cfg
	}
}

// UpdatedAt returns when the map last changed
func (m *ConceptMap) UpdatedAt() time.Time {
	return m.updatedAt
}

// NodeCount returns the number of nodes
func (m *ConceptMap) NodeCount() int { return len(m.nodes) }

// EdgeCount returns the number of confirmed edges
func (m *ConceptMap) EdgeCount() int { return len(m.edges) }

// Loading

// LoadNode inserts a stored node without recording an event
func (m *ConceptMap) LoadNode(node *entities.Node) error {
	if node == nil {
		return pkgerrors.NewValidationError("node cannot be nil")
	}
	if _, exists := m.nodes[node.ID()]; exists {
		return pkgerrors.NewConflictError(fmt.Sprintf("duplicate node id %q", node.ID()))
	}
	m.nodes[node.ID()] = node.Clone()
	return nil
}

// LoadEdge inserts a stored edge without recording an event. Both
// endpoints must already be loaded.
func (m *ConceptMap) LoadEdge(edge *entities.Edge) error {
	if edge == nil {
		return pkgerrors.NewValidationError("edge cannot be nil")
	}
	if err := m.checkEndpoints(edge.SourceID(), edge.TargetID()); err != nil {
		return err
	}
	if _, exists := m.edges[edge.ID()]; exists {
		return pkgerrors.NewConflictError(fmt.Sprintf("duplicate edge id %q", edge.ID()))
	}
	m.edges[edge.ID()] = edge.Clone()
	return nil
}

// Nodes

// AddNode places a new node with a fresh id
func (m *ConceptMap) AddNode(payload entities.NodePayload, position valueobjects.Position) (valueobjects.NodeID, error) {
	if len(m.nodes) >= m.cfg.MaxNodesPerMap {
		return valueobjects.NodeID{}, pkgerrors.NewValidationError(
			fmt.Sprintf("maximum nodes per map reached (%d)", m.cfg.MaxNodesPerMap)).WithCode("NODE_LIMIT")
	}

	id := valueobjects.NewNodeID()
	for m.nodes[id] != nil {
		id = valueobjects.NewNodeID()
	}

	node, err := entities.NewNode(id, payload, position)
	if err != nil {
		return valueobjects.NodeID{}, err
	}

	m.nodes[id] = node
	m.touch()
	m.addEvent(events.NewNodeAdded(m.id.String(), id.String(), string(node.Variant()), toPoint(position), m.updatedAt))

	return id, nil
}

// UpdateNodePosition moves a node. Last write wins.
func (m *ConceptMap) UpdateNodePosition(id valueobjects.NodeID, position valueobjects.Position) error {
	node, ok := m.nodes[id]
	if !ok {
		return nodeNotFound(id)
	}

	old := node.Position()
	if !node.MoveTo(position) {
		return nil
	}
	m.touch()

	// Coalesce a run of moves of the same node into one event
	if n := len(m.events); n > 0 {
		if last, ok := m.events[n-1].(events.NodeMoved); ok && last.NodeID == id.String() {
			last.NewPosition = toPoint(position)
			last.Timestamp = m.updatedAt
			m.events[n-1] = last
			return nil
		}
	}
	m.addEvent(events.NewNodeMoved(m.id.String(), id.String(), toPoint(old), toPoint(position), m.updatedAt))
	return nil
}

// UpdateNodePayload replaces a node's payload. The variant must match.
func (m *ConceptMap) UpdateNodePayload(id valueobjects.NodeID, payload entities.NodePayload) error {
	node, ok := m.nodes[id]
	if !ok {
		return nodeNotFound(id)
	}
	if err := node.UpdatePayload(payload); err != nil {
		return err
	}

	m.touch()
	m.addEvent(events.NewNodePayloadUpdated(
		m.id.String(), id.String(), string(node.Variant()), entities.PayloadFields(payload), m.updatedAt))
	return nil
}

// RemoveNode deletes a node together with every confirmed edge touching it.
// A pending edge touching it is discarded as well.
func (m *ConceptMap) RemoveNode(id valueobjects.NodeID) error {
	if _, ok := m.nodes[id]; !ok {
		return nodeNotFound(id)
	}

	var removed []string
	for edgeID, edge := range m.edges {
		if edge.Touches(id) {
			delete(m.edges, edgeID)
			removed = append(removed, edgeID.String())
		}
	}
	sort.Strings(removed)

	if m.pending != nil && m.pending.Touches(id) {
		m.pending = nil
	}
	delete(m.nodes, id)

	m.touch()
	m.addEvent(events.NewNodeRemoved(m.id.String(), id.String(), removed, m.updatedAt))
	return nil
}

// Node returns a copy of the node with the given id
func (m *ConceptMap) Node(id valueobjects.NodeID) (*entities.Node, bool) {
	node, ok := m.nodes[id]
	if !ok {
		return nil, false
	}
	return node.Clone(), true
}

// Nodes returns copies of all nodes ordered by id
func (m *ConceptMap) Nodes() []*entities.Node {
	nodes := make([]*entities.Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		nodes = append(nodes, n.Clone())
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID().Less(nodes[j].ID()) })
	return nodes
}

// Edges

// AddEdge creates a confirmed edge between two existing nodes
func (m *ConceptMap) AddEdge(source, target valueobjects.NodeID, label string, style *valueobjects.EdgeStyle) (valueobjects.EdgeID, error) {
	if err := m.checkEndpoints(source, target); err != nil {
		return valueobjects.EdgeID{}, err
	}
	if source.Equals(target) && !m.cfg.AllowSelfConnections {
		return valueobjects.EdgeID{}, pkgerrors.NewValidationError("cannot connect a node to itself").WithCode("SELF_CONNECTION")
	}
	if !m.cfg.AllowDuplicateEdges && m.HasConfirmedEdgeBetween(source, target) {
		return valueobjects.EdgeID{}, pkgerrors.NewConflictError(
			fmt.Sprintf("nodes %q and %q are already connected", source, target))
	}
	if len(m.edges) >= m.cfg.MaxEdgesPerMap {
		return valueobjects.EdgeID{}, pkgerrors.NewValidationError(
			fmt.Sprintf("maximum edges per map reached (%d)", m.cfg.MaxEdgesPerMap)).WithCode("EDGE_LIMIT")
	}

	id := valueobjects.NewEdgeID()
	for m.edges[id] != nil {
		id = valueobjects.NewEdgeID()
	}

	edge, err := entities.NewEdge(id, source, target, label, style)
	if err != nil {
		return valueobjects.EdgeID{}, err
	}

	m.edges[id] = edge
	m.touch()
	m.addEvent(events.NewEdgeAdded(m.id.String(), id.String(), source.String(), target.String(), label, false, m.updatedAt))

	return id, nil
}

// UpdateEdgeLabel changes the label of a confirmed edge
func (m *ConceptMap) UpdateEdgeLabel(id valueobjects.EdgeID, label string) error {
	edge, ok := m.edges[id]
	if !ok {
		return edgeNotFound(id)
	}

	old := edge.Relabel(label)
	m.touch()
	m.addEvent(events.NewEdgeRelabeled(m.id.String(), id.String(), old, label, m.updatedAt))
	return nil
}

// RemoveEdge deletes a confirmed edge
func (m *ConceptMap) RemoveEdge(id valueobjects.EdgeID) error {
	edge, ok := m.edges[id]
	if !ok {
		return edgeNotFound(id)
	}

	delete(m.edges, id)
	m.touch()
	m.addEvent(events.NewEdgeRemoved(
		m.id.String(), id.String(), edge.SourceID().String(), edge.TargetID().String(), m.updatedAt))
	return nil
}

// Edge returns a copy of the confirmed edge with the given id
func (m *ConceptMap) Edge(id valueobjects.EdgeID) (*entities.Edge, bool) {
	edge, ok := m.edges[id]
	if !ok {
		return nil, false
	}
	return edge.Clone(), true
}

// Edges returns copies of all confirmed edges ordered by id
func (m *ConceptMap) Edges() []*entities.Edge {
	edges := make([]*entities.Edge, 0, len(m.edges))
	for _, e := range m.edges {
		edges = append(edges, e.Clone())
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID().String() < edges[j].ID().String() })
	return edges
}

// HasConfirmedEdgeBetween reports whether a confirmed edge joins a and b in
// either direction
func (m *ConceptMap) HasConfirmedEdgeBetween(a, b valueobjects.NodeID) bool {
	for _, e := range m.edges {
		if e.Connects(a, b) {
			return true
		}
	}
	return false
}

// Pending edge

// ReplacePendingEdge clears the pending slot and stores candidate in it.
// A nil candidate just clears the slot.
func (m *ConceptMap) ReplacePendingEdge(candidate *linking.Candidate) error {
	m.pending = nil
	if candidate == nil {
		return nil
	}

	if err := m.checkEndpoints(candidate.Source, candidate.Target); err != nil {
		return err
	}

	edge, err := entities.NewEdge(candidate.ID, candidate.Source, candidate.Target, "", nil)
	if err != nil {
		return err
	}
	m.pending = edge
	return nil
}

// PromotePendingEdge moves the pending edge into the confirmed set and
// returns its id. It returns false when there is nothing to promote or the
// edge limit has been reached; the slot is empty afterwards in every case.
// An id already used by a confirmed edge is replaced by a fresh one.
func (m *ConceptMap) PromotePendingEdge() (valueobjects.EdgeID, bool) {
	edge := m.pending
	m.pending = nil
	if edge == nil || len(m.edges) >= m.cfg.MaxEdgesPerMap {
		return valueobjects.EdgeID{}, false
	}

	if _, taken := m.edges[edge.ID()]; taken {
		id := valueobjects.NewEdgeID()
		for m.edges[id] != nil {
			id = valueobjects.NewEdgeID()
		}
		edge = edge.WithID(id)
	}

	m.edges[edge.ID()] = edge
	m.touch()
	m.addEvent(events.NewEdgeAdded(
		m.id.String(), edge.ID().String(), edge.SourceID().String(), edge.TargetID().String(), edge.Label(), true, m.updatedAt))

	return edge.ID(), true
}

// PendingEdge returns a copy of the pending edge, or nil
func (m *ConceptMap) PendingEdge() *entities.Edge {
	if m.pending == nil {
		return nil
	}
	return m.pending.Clone()
}

// Queries

// Snapshot copies the current state
func (m *ConceptMap) Snapshot() Snapshot {
	return Snapshot{
		MapID:       m.id,
		Nodes:       m.Nodes(),
		Edges:       m.Edges(),
		PendingEdge: m.PendingEdge(),
	}
}

// Validate checks that every edge, pending included, references existing
// nodes. It returns the first violation found, in id order.
func (m *ConceptMap) Validate() error {
	for _, e := range m.Edges() {
		if err := m.checkEndpoints(e.SourceID(), e.TargetID()); err != nil {
			return pkgerrors.Wrapf(err, "edge %s", e.ID())
		}
	}
	if m.pending != nil {
		if err := m.checkEndpoints(m.pending.SourceID(), m.pending.TargetID()); err != nil {
			return pkgerrors.Wrapf(err, "pending edge %s", m.pending.ID())
		}
	}
	return nil
}

// Events

// GetUncommittedEvents returns events recorded since the last commit
func (m *ConceptMap) GetUncommittedEvents() []events.DomainEvent {
	return m.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (m *ConceptMap) MarkEventsAsCommitted() {
	m.events = []events.DomainEvent{}
}

// MarkReplaced records that the map's content came from a full document.
// carried are the uncommitted events of the content it replaced; they are
// kept ahead of the replacement so they are still published.
func (m *ConceptMap) MarkReplaced(carried []events.DomainEvent) {
	merged := make([]events.DomainEvent, 0, len(carried)+len(m.events)+1)
	merged = append(merged, carried...)
	m.events = append(merged, m.events...)
	m.touch()
	m.addEvent(events.NewMapReplaced(m.id.String(), len(m.nodes), len(m.edges), m.updatedAt))
}

func (m *ConceptMap) addEvent(event events.DomainEvent) {
	m.events = append(m.events, event)
}

func (m *ConceptMap) touch() {
	m.updatedAt = time.Now()
}

func (m *ConceptMap) checkEndpoints(source, target valueobjects.NodeID) error {
	if _, ok := m.nodes[source]; !ok {
		return pkgerrors.NewInvalidReferenceError("source", source.String())
	}
	if _, ok := m.nodes[target]; !ok {
		return pkgerrors.NewInvalidReferenceError("target", target.String())
	}
	return nil
}

func nodeNotFound(id valueobjects.NodeID) error {
	return pkgerrors.NewNotFoundError(fmt.Sprintf("node %q", id))
}

func edgeNotFound(id valueobjects.EdgeID) error {
	return pkgerrors.NewNotFoundError(fmt.Sprintf("edge %q", id))
}

func toPoint(p valueobjects.Position) events.Point {
	return events.Point{X: p.X(), Y: p.Y()}
}
