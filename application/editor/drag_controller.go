// Package editor holds the pointer-drag and in-place edit state machines
// that sit between the browser canvas and a ConceptMap.
package editor

import (
	"conceptmap/domain/core/aggregates"
	"conceptmap/domain/core/valueobjects"
	"conceptmap/domain/services/linking"
	pkgerrors "conceptmap/pkg/errors"
)

// DragState is the state of a DragController
type DragState int

const (
	DragIdle DragState = iota
	DragDragging
)

func (s DragState) String() string {
	switch s {
	case DragIdle:
		return "idle"
	case DragDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// DragResult reports what a drag step did to the map
type DragResult struct {
	State DragState
	// Candidate is the auto-link proposal currently held in the pending slot
	Candidate *linking.Candidate
	// Linked is set when Stop promoted the proposal to a confirmed edge
	Linked bool
	EdgeID valueobjects.EdgeID
}

// DragController turns a drag gesture on one node into position updates and
// at most one auto-link edge
type DragController struct {
	graph     *aggregates.ConceptMap
	threshold float64
	state     DragState
	nodeID    valueobjects.NodeID
}

// NewDragController creates an idle controller bound to graph
func NewDragController(graph *aggregates.ConceptMap, threshold float64) *DragController {
	return &DragController{
		graph:     graph,
		threshold: threshold,
		state:     DragIdle,
	}
}

// SetThreshold changes the linking distance for subsequent moves
func (c *DragController) SetThreshold(threshold float64) {
	c.threshold = threshold
}

// Threshold returns the linking distance in use
func (c *DragController) Threshold() float64 {
	return c.threshold
}

// State returns the current state
func (c *DragController) State() DragState {
	return c.state
}

// ActiveNode returns the node being dragged
func (c *DragController) ActiveNode() (valueobjects.NodeID, bool) {
	return c.nodeID, c.state == DragDragging
}

// Start begins dragging nodeID
func (c *DragController) Start(nodeID valueobjects.NodeID) error {
	if c.state == DragDragging {
		return pkgerrors.NewConflictError("a drag is already in progress for node " + c.nodeID.String())
	}
	if _, ok := c.graph.Node(nodeID); !ok {
		return pkgerrors.NewNotFoundError("node " + nodeID.String())
	}

	c.state = DragDragging
	c.nodeID = nodeID
	return nil
}

// Move applies an intermediate position and refreshes the pending edge
func (c *DragController) Move(position valueobjects.Position) (DragResult, error) {
	if c.state != DragDragging {
		return DragResult{State: c.state}, pkgerrors.NewConflictError("no drag in progress")
	}

	candidate, err := c.apply(position)
	if err != nil {
		return DragResult{State: c.state}, err
	}

	if err := c.graph.ReplacePendingEdge(candidate); err != nil {
		return DragResult{State: c.state}, err
	}

	return DragResult{State: c.state, Candidate: candidate}, nil
}

// Stop applies the final position and promotes the proposal, if any, to a
// confirmed edge. The controller is idle afterwards.
func (c *DragController) Stop(position valueobjects.Position) (DragResult, error) {
	if c.state != DragDragging {
		return DragResult{State: c.state}, pkgerrors.NewConflictError("no drag in progress")
	}

	candidate, err := c.apply(position)
	if err != nil {
		return DragResult{State: c.state}, err
	}
	c.reset()

	if err := c.graph.ReplacePendingEdge(candidate); err != nil {
		return DragResult{State: c.state}, err
	}
	if candidate == nil {
		return DragResult{State: c.state}, nil
	}

	edgeID, linked := c.graph.PromotePendingEdge()
	return DragResult{
		State:     c.state,
		Candidate: candidate,
		Linked:    linked,
		EdgeID:    edgeID,
	}, nil
}

// Abort ends the drag without linking. The node keeps the last position
// that was applied.
func (c *DragController) Abort() DragResult {
	if c.state == DragDragging {
		// Clearing the slot cannot fail
		_ = c.graph.ReplacePendingEdge(nil)
	}
	c.reset()
	return DragResult{State: c.state}
}

// apply moves the dragged node and returns the current link proposal.
// A proposal for a pair that is already connected is dropped.
func (c *DragController) apply(position valueobjects.Position) (*linking.Candidate, error) {
	if err := c.graph.UpdateNodePosition(c.nodeID, position); err != nil {
		// The node was removed while being dragged
		if pkgerrors.IsNotFound(err) {
			c.Abort()
		}
		return nil, err
	}

	moving, _ := c.graph.Node(c.nodeID)
	candidate := linking.FindLinkCandidate(moving, c.graph.Nodes(), c.threshold)
	if candidate != nil && c.graph.HasConfirmedEdgeBetween(candidate.Source, candidate.Target) {
		return nil, nil
	}
	return candidate, nil
}

func (c *DragController) reset() {
	c.state = DragIdle
	c.nodeID = valueobjects.NodeID{}
}
