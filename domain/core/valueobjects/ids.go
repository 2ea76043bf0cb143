package valueobjects

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// NodeID is a value object representing a node identifier.
// Generated ids are UUIDs; ids loaded from stored maps may be any non-empty
// string (the browser editor uses "1", "2", ...).
type NodeID struct {
	value string
}

// NewNodeID creates a new random NodeID
func NewNodeID() NodeID {
	return NodeID{value: uuid.New().String()}
}

// NewNodeIDFromString creates a NodeID from an existing string
func NewNodeIDFromString(id string) (NodeID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return NodeID{}, errors.New("node ID cannot be empty")
	}
	return NodeID{value: id}, nil
}

// MustNodeID is NewNodeIDFromString for literals known to be valid
func MustNodeID(id string) NodeID {
	nodeID, err := NewNodeIDFromString(id)
	if err != nil {
		panic(err)
	}
	return nodeID
}

// String returns the string representation of the NodeID
func (id NodeID) String() string {
	return id.value
}

// Equals checks if two NodeIDs are equal
func (id NodeID) Equals(other NodeID) bool {
	return id.value == other.value
}

// Less orders ids lexically; used for deterministic tie-breaks
func (id NodeID) Less(other NodeID) bool {
	return id.value < other.value
}

// IsZero checks if the NodeID is the zero value
func (id NodeID) IsZero() bool {
	return id.value == ""
}

// MarshalText implements encoding.TextMarshaler
func (id NodeID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *NodeID) UnmarshalText(data []byte) error {
	parsed, err := NewNodeIDFromString(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// EdgeID identifies an edge within a map
type EdgeID struct {
	value string
}

// NewEdgeID creates a new random EdgeID
func NewEdgeID() EdgeID {
	return EdgeID{value: uuid.New().String()}
}

// NewEdgeIDFromString creates an EdgeID from an existing string
func NewEdgeIDFromString(id string) (EdgeID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return EdgeID{}, errors.New("edge ID cannot be empty")
	}
	return EdgeID{value: id}, nil
}

// PairEdgeID builds the "<source>-<target>" id used for auto-linked edges
func PairEdgeID(source, target NodeID) EdgeID {
	return EdgeID{value: source.value + "-" + target.value}
}

// String returns the string representation of the EdgeID
func (id EdgeID) String() string {
	return id.value
}

// Equals checks if two EdgeIDs are equal
func (id EdgeID) Equals(other EdgeID) bool {
	return id.value == other.value
}

// IsZero checks if the EdgeID is the zero value
func (id EdgeID) IsZero() bool {
	return id.value == ""
}

// MarshalText implements encoding.TextMarshaler
func (id EdgeID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *EdgeID) UnmarshalText(data []byte) error {
	parsed, err := NewEdgeIDFromString(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MapID identifies a stored concept map
type MapID string

// NewMapID creates a new random MapID
func NewMapID() MapID {
	return MapID(uuid.New().String())
}

// String returns the string representation
func (id MapID) String() string {
	return string(id)
}
