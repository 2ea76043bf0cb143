package entities

import (
	"fmt"
	"time"

	"conceptmap/domain/core/valueobjects"
	pkgerrors "conceptmap/pkg/errors"
)

// Node is a single element on the concept-map canvas.
// Its variant is fixed at creation; only the payload fields and the
// position change afterwards.
type Node struct {
	id        valueobjects.NodeID
	payload   NodePayload
	position  valueobjects.Position
	updatedAt time.Time
}

// NewNode creates a node with validation
func NewNode(id valueobjects.NodeID, payload NodePayload, position valueobjects.Position) (*Node, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("node id cannot be empty")
	}
	if payload == nil {
		return nil, pkgerrors.NewValidationError("node payload is required")
	}

	return &Node{
		id:        id,
		payload:   clonePayload(payload),
		position:  position,
		updatedAt: time.Now(),
	}, nil
}

// ID returns the node's unique identifier
func (n *Node) ID() valueobjects.NodeID {
	return n.id
}

// Payload returns a copy of the node's payload
func (n *Node) Payload() NodePayload {
	return clonePayload(n.payload)
}

// Variant returns the node's kind
func (n *Node) Variant() Variant {
	return n.payload.Variant()
}

// Position returns the node's position
func (n *Node) Position() valueobjects.Position {
	return n.position
}

// UpdatedAt returns the time of the last change
func (n *Node) UpdatedAt() time.Time {
	return n.updatedAt
}

// MoveTo moves the node to a new position. It reports whether the
// position actually changed.
func (n *Node) MoveTo(position valueobjects.Position) bool {
	if position.Equals(n.position) {
		return false
	}

	n.position = position
	n.updatedAt = time.Now()
	return true
}

// UpdatePayload replaces the payload. The new payload must be of the same
// variant as the current one.
func (n *Node) UpdatePayload(payload NodePayload) error {
	if payload == nil {
		return pkgerrors.NewValidationError("node payload is required")
	}

	if payload.Variant() != n.payload.Variant() {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("variant mismatch: node %s is %s, got %s", n.id, n.payload.Variant(), payload.Variant()),
		).WithCode("VARIANT_MISMATCH")
	}

	n.payload = clonePayload(payload)
	n.updatedAt = time.Now()
	return nil
}

// Clone returns an independent copy of the node
func (n *Node) Clone() *Node {
	return &Node{
		id:        n.id,
		payload:   clonePayload(n.payload),
		position:  n.position,
		updatedAt: n.updatedAt,
	}
}
