package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(mapID, eventType string, timestamp time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: mapID,
		EventType:   eventType,
		Timestamp:   timestamp,
		Version:     1,
	}
}

// Event types
const (
	TypeNodeAdded          = "node.added"
	TypeNodeMoved          = "node.moved"
	TypeNodePayloadUpdated = "node.payload_updated"
	TypeNodeRemoved        = "node.removed"
	TypeEdgeAdded          = "edge.added"
	TypeEdgeRelabeled      = "edge.relabeled"
	TypeEdgeRemoved        = "edge.removed"
	TypeMapReplaced        = "map.replaced"
)

// Point is the wire form of a canvas position
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node Events

// NodeAdded is raised when a node is placed on the canvas
type NodeAdded struct {
	BaseEvent
	NodeID   string `json:"node_id"`
	Variant  string `json:"variant"`
	Position Point  `json:"position"`
}

// NewNodeAdded creates a NodeAdded event
func NewNodeAdded(mapID, nodeID, variant string, position Point, timestamp time.Time) NodeAdded {
	return NodeAdded{
		BaseEvent: newBase(mapID, TypeNodeAdded, timestamp),
		NodeID:    nodeID,
		Variant:   variant,
		Position:  position,
	}
}

// NodeMoved is raised when a node is moved to a new position.
// Consecutive moves of the same node are coalesced into one event.
type NodeMoved struct {
	BaseEvent
	NodeID      string `json:"node_id"`
	OldPosition Point  `json:"old_position"`
	NewPosition Point  `json:"new_position"`
}

// NewNodeMoved creates a NodeMoved event
func NewNodeMoved(mapID, nodeID string, oldPos, newPos Point, timestamp time.Time) NodeMoved {
	return NodeMoved{
		BaseEvent:   newBase(mapID, TypeNodeMoved, timestamp),
		NodeID:      nodeID,
		OldPosition: oldPos,
		NewPosition: newPos,
	}
}

// NodePayloadUpdated is raised when the content of a node is saved
type NodePayloadUpdated struct {
	BaseEvent
	NodeID  string            `json:"node_id"`
	Variant string            `json:"variant"`
	Fields  map[string]string `json:"fields"`
}

// NewNodePayloadUpdated creates a NodePayloadUpdated event
func NewNodePayloadUpdated(mapID, nodeID, variant string, fields map[string]string, timestamp time.Time) NodePayloadUpdated {
	return NodePayloadUpdated{
		BaseEvent: newBase(mapID, TypeNodePayloadUpdated, timestamp),
		NodeID:    nodeID,
		Variant:   variant,
		Fields:    fields,
	}
}

// NodeRemoved is raised when a node and its incident edges are deleted
type NodeRemoved struct {
	BaseEvent
	NodeID       string   `json:"node_id"`
	RemovedEdges []string `json:"removed_edges,omitempty"`
}

// NewNodeRemoved creates a NodeRemoved event
func NewNodeRemoved(mapID, nodeID string, removedEdges []string, timestamp time.Time) NodeRemoved {
	return NodeRemoved{
		BaseEvent:    newBase(mapID, TypeNodeRemoved, timestamp),
		NodeID:       nodeID,
		RemovedEdges: removedEdges,
	}
}

// Edge Events

// EdgeAdded is raised when an edge enters the confirmed set, either
// explicitly or by promoting the pending auto-link.
type EdgeAdded struct {
	BaseEvent
	EdgeID     string `json:"edge_id"`
	SourceID   string `json:"source_id"`
	TargetID   string `json:"target_id"`
	Label      string `json:"label,omitempty"`
	AutoLinked bool   `json:"auto_linked"`
}

// NewEdgeAdded creates an EdgeAdded event
func NewEdgeAdded(mapID, edgeID, sourceID, targetID, label string, autoLinked bool, timestamp time.Time) EdgeAdded {
	return EdgeAdded{
		BaseEvent:  newBase(mapID, TypeEdgeAdded, timestamp),
		EdgeID:     edgeID,
		SourceID:   sourceID,
		TargetID:   targetID,
		Label:      label,
		AutoLinked: autoLinked,
	}
}

// EdgeRelabeled is raised when an edge label is saved
type EdgeRelabeled struct {
	BaseEvent
	EdgeID   string `json:"edge_id"`
	OldLabel string `json:"old_label"`
	NewLabel string `json:"new_label"`
}

// NewEdgeRelabeled creates an EdgeRelabeled event
func NewEdgeRelabeled(mapID, edgeID, oldLabel, newLabel string, timestamp time.Time) EdgeRelabeled {
	return EdgeRelabeled{
		BaseEvent: newBase(mapID, TypeEdgeRelabeled, timestamp),
		EdgeID:    edgeID,
		OldLabel:  oldLabel,
		NewLabel:  newLabel,
	}
}

// EdgeRemoved is raised when a confirmed edge is deleted
type EdgeRemoved struct {
	BaseEvent
	EdgeID   string `json:"edge_id"`
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// NewEdgeRemoved creates an EdgeRemoved event
func NewEdgeRemoved(mapID, edgeID, sourceID, targetID string, timestamp time.Time) EdgeRemoved {
	return EdgeRemoved{
		BaseEvent: newBase(mapID, TypeEdgeRemoved, timestamp),
		EdgeID:    edgeID,
		SourceID:  sourceID,
		TargetID:  targetID,
	}
}

// Map Events

// MapReplaced is raised when the whole map is overwritten by a document
type MapReplaced struct {
	BaseEvent
	NodeCount int `json:"node_count"`
	EdgeCount int `json:"edge_count"`
}

// NewMapReplaced creates a MapReplaced event
func NewMapReplaced(mapID string, nodeCount, edgeCount int, timestamp time.Time) MapReplaced {
	return MapReplaced{
		BaseEvent: newBase(mapID, TypeMapReplaced, timestamp),
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
	}
}
