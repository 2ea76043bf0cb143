// Package linking proposes auto-link edges for a node being dragged.
package linking

import (
	"conceptmap/domain/core/entities"
	"conceptmap/domain/core/valueobjects"
)

// Candidate is a proposed edge between the dragged node and its nearest
// neighbour. The node further left is the source.
type Candidate struct {
	ID       valueobjects.EdgeID
	Source   valueobjects.NodeID
	Target   valueobjects.NodeID
	Distance float64
}

// Connects reports whether the candidate joins a and b in either direction
func (c *Candidate) Connects(a, b valueobjects.NodeID) bool {
	return (c.Source.Equals(a) && c.Target.Equals(b)) ||
		(c.Source.Equals(b) && c.Target.Equals(a))
}

// FindLinkCandidate returns the closest node to moving that lies strictly
// within threshold, or nil. Equal distances resolve to the lowest node id.
// Neither argument is modified.
func FindLinkCandidate(moving *entities.Node, nodes []*entities.Node, threshold float64) *Candidate {
	if moving == nil {
		return nil
	}

	var closest *entities.Node
	minDistance := threshold

	for _, n := range nodes {
		if n == nil || n.ID().Equals(moving.ID()) {
			continue
		}

		d := moving.Position().DistanceTo(n.Position())
		switch {
		case d < minDistance:
			closest, minDistance = n, d
		case d == minDistance && closest != nil && n.ID().Less(closest.ID()):
			closest = n
		}
	}

	if closest == nil {
		return nil
	}

	source, target := moving.ID(), closest.ID()
	if closest.Position().X() < moving.Position().X() {
		source, target = closest.ID(), moving.ID()
	}

	return &Candidate{
		ID:       valueobjects.PairEdgeID(source, target),
		Source:   source,
		Target:   target,
		Distance: minDistance,
	}
}
