package editor

import (
	"maps"

	"conceptmap/domain/core/aggregates"
	"conceptmap/domain/core/entities"
	"conceptmap/domain/core/valueobjects"
	pkgerrors "conceptmap/pkg/errors"
)

// EntityKind says what an edit session is editing
type EntityKind string

const (
	EntityNode EntityKind = "node"
	EntityEdge EntityKind = "edge"
)

// EditTarget identifies the entity under edit
type EditTarget struct {
	Kind   EntityKind
	NodeID valueobjects.NodeID
	EdgeID valueobjects.EdgeID
}

func (t EditTarget) String() string {
	if t.Kind == EntityEdge {
		return "edge " + t.EdgeID.String()
	}
	return "node " + t.NodeID.String()
}

// FieldValidator checks draft values as they are typed
type FieldValidator interface {
	ValidateField(field, value string) error
}

// EditSession is the in-place editor for a single node or edge. Only one
// entity is under edit at a time; opening another replaces the draft.
type EditSession struct {
	graph     *aggregates.ConceptMap
	validator FieldValidator
	open      bool
	target    EditTarget
	draft     map[string]string
}

// NewEditSession creates a closed session bound to graph. validator may be nil.
func NewEditSession(graph *aggregates.ConceptMap, validator FieldValidator) *EditSession {
	return &EditSession{
		graph:     graph,
		validator: validator,
	}
}

// IsOpen reports whether an entity is under edit
func (s *EditSession) IsOpen() bool {
	return s.open
}

// Target returns the entity under edit
func (s *EditSession) Target() (EditTarget, bool) {
	return s.target, s.open
}

// Draft returns a copy of the current draft values
func (s *EditSession) Draft() map[string]string {
	return maps.Clone(s.draft)
}

// OpenNode starts editing a node. The draft is seeded from its payload.
func (s *EditSession) OpenNode(id valueobjects.NodeID) (map[string]string, error) {
	node, ok := s.graph.Node(id)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("node " + id.String())
	}

	s.begin(EditTarget{Kind: EntityNode, NodeID: id}, entities.PayloadFields(node.Payload()))
	return s.Draft(), nil
}

// OpenEdge starts editing the label of a confirmed edge
func (s *EditSession) OpenEdge(id valueobjects.EdgeID) (map[string]string, error) {
	edge, ok := s.graph.Edge(id)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("edge " + id.String())
	}

	s.begin(EditTarget{Kind: EntityEdge, EdgeID: id}, map[string]string{entities.FieldLabel: edge.Label()})
	return s.Draft(), nil
}

// SetField changes one draft value. Empty strings are allowed.
func (s *EditSession) SetField(field, value string) error {
	if !s.open {
		return pkgerrors.NewConflictError("no edit session is open")
	}
	if _, ok := s.draft[field]; !ok {
		return pkgerrors.NewValidationError("field " + field + " cannot be edited on " + string(s.target.Kind) + "s").
			WithCode("UNKNOWN_FIELD")
	}
	if s.validator != nil {
		if err := s.validator.ValidateField(field, value); err != nil {
			return err
		}
	}

	s.draft[field] = value
	return nil
}

// Save writes the draft to the map and closes the session. If the entity
// no longer exists the session is closed and a NotFound error returned.
func (s *EditSession) Save() error {
	if !s.open {
		return pkgerrors.NewConflictError("no edit session is open")
	}

	var err error
	switch s.target.Kind {
	case EntityNode:
		err = s.saveNode()
	case EntityEdge:
		err = s.graph.UpdateEdgeLabel(s.target.EdgeID, s.draft[entities.FieldLabel])
	}

	if err != nil && !pkgerrors.IsNotFound(err) {
		return err
	}
	s.Cancel()
	return err
}

// Cancel discards the draft without touching the map
func (s *EditSession) Cancel() {
	s.open = false
	s.target = EditTarget{}
	s.draft = nil
}

func (s *EditSession) saveNode() error {
	node, ok := s.graph.Node(s.target.NodeID)
	if !ok {
		return pkgerrors.NewNotFoundError("node " + s.target.NodeID.String())
	}

	payload, err := entities.WithFields(node.Payload(), s.draft)
	if err != nil {
		return err
	}
	return s.graph.UpdateNodePayload(s.target.NodeID, payload)
}

func (s *EditSession) begin(target EditTarget, draft map[string]string) {
	s.open = true
	s.target = target
	s.draft = draft
}
