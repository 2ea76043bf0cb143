package entities

import (
	"conceptmap/domain/core/valueobjects"
	pkgerrors "conceptmap/pkg/errors"
)

// Edge is a directed connection between two nodes
type Edge struct {
	id     valueobjects.EdgeID
	source valueobjects.NodeID
	target valueobjects.NodeID
	label  string
	style  *valueobjects.EdgeStyle
}

// NewEdge creates an edge. Whether the endpoints exist is checked by the map.
func NewEdge(id valueobjects.EdgeID, source, target valueobjects.NodeID, label string, style *valueobjects.EdgeStyle) (*Edge, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("edge id cannot be empty")
	}
	if source.IsZero() || target.IsZero() {
		return nil, pkgerrors.NewValidationError("edge endpoints cannot be empty")
	}

	var s *valueobjects.EdgeStyle
	if style != nil {
		copied := *style
		s = &copied
	}

	return &Edge{
		id:     id,
		source: source,
		target: target,
		label:  label,
		style:  s,
	}, nil
}

func (e *Edge) ID() valueobjects.EdgeID       { return e.id }
func (e *Edge) SourceID() valueobjects.NodeID { return e.source }
func (e *Edge) TargetID() valueobjects.NodeID { return e.target }
func (e *Edge) Label() string                 { return e.label }

// Style returns the edge style if one is set
func (e *Edge) Style() (valueobjects.EdgeStyle, bool) {
	if e.style == nil {
		return valueobjects.EdgeStyle{}, false
	}
	return *e.style, true
}

// Connects reports whether the edge joins a and b in either direction
func (e *Edge) Connects(a, b valueobjects.NodeID) bool {
	return (e.source.Equals(a) && e.target.Equals(b)) ||
		(e.source.Equals(b) && e.target.Equals(a))
}

// Touches reports whether id is one of the edge's endpoints
func (e *Edge) Touches(id valueobjects.NodeID) bool {
	return e.source.Equals(id) || e.target.Equals(id)
}

// Relabel sets the edge label and reports the previous one
func (e *Edge) Relabel(label string) string {
	old := e.label
	e.label = label
	return old
}

// WithID returns a copy of the edge carrying a different id
func (e *Edge) WithID(id valueobjects.EdgeID) *Edge {
	c := e.Clone()
	c.id = id
	return c
}

// Clone returns an independent copy of the edge
func (e *Edge) Clone() *Edge {
	c := *e
	if e.style != nil {
		s := *e.style
		c.style = &s
	}
	return &c
}
