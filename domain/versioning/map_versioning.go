// Package versioning fingerprints and compares concept-map states.
package versioning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"conceptmap/domain/core/aggregates"
	"conceptmap/domain/core/entities"
)

type canonicalNode struct {
	ID      string            `json:"id"`
	Variant string            `json:"variant"`
	Fields  map[string]string `json:"fields"`
	Arrow   map[string]string `json:"arrow,omitempty"`
	X       float64           `json:"x"`
	Y       float64           `json:"y"`
}

type canonicalEdge struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Target string  `json:"target"`
	Label  string  `json:"label"`
	Stroke string  `json:"stroke,omitempty"`
	Width  float64 `json:"width,omitempty"`
}

// Checksum returns a stable SHA-256 over the confirmed content of a
// snapshot. The pending edge does not contribute.
func Checksum(s aggregates.Snapshot) (string, error) {
	data := struct {
		ID    string          `json:"id"`
		Nodes []canonicalNode `json:"nodes"`
		Edges []canonicalEdge `json:"edges"`
	}{
		ID:    s.MapID.String(),
		Nodes: make([]canonicalNode, 0, len(s.Nodes)),
		Edges: make([]canonicalEdge, 0, len(s.Edges)),
	}

	for _, n := range s.Nodes {
		data.Nodes = append(data.Nodes, canonicalizeNode(n))
	}
	for _, e := range s.Edges {
		data.Edges = append(data.Edges, canonicalizeEdge(e))
	}

	// encoding/json sorts map keys, so the encoding is deterministic
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode map for checksum: %w", err)
	}

	hash := sha256.Sum256(jsonData)
	return hex.EncodeToString(hash[:]), nil
}

// Diff lists the ids that differ between two states of a map
type Diff struct {
	NodesAdded   []string `json:"nodes_added"`
	NodesRemoved []string `json:"nodes_removed"`
	NodesUpdated []string `json:"nodes_updated"`
	EdgesAdded   []string `json:"edges_added"`
	EdgesRemoved []string `json:"edges_removed"`
	EdgesUpdated []string `json:"edges_updated"`
}

// IsEmpty reports whether the two states were identical
func (d Diff) IsEmpty() bool {
	return len(d.NodesAdded)+len(d.NodesRemoved)+len(d.NodesUpdated)+
		len(d.EdgesAdded)+len(d.EdgesRemoved)+len(d.EdgesUpdated) == 0
}

// Compare computes the difference from one snapshot to another
func Compare(from, to aggregates.Snapshot) Diff {
	var d Diff

	fromNodes := make(map[string]canonicalNode, len(from.Nodes))
	for _, n := range from.Nodes {
		fromNodes[n.ID().String()] = canonicalizeNode(n)
	}
	toNodes := make(map[string]canonicalNode, len(to.Nodes))
	for _, n := range to.Nodes {
		toNodes[n.ID().String()] = canonicalizeNode(n)
	}
	d.NodesAdded, d.NodesRemoved, d.NodesUpdated = diffKeys(fromNodes, toNodes, func(a, b canonicalNode) bool {
		ja, _ := json.Marshal(a)
		jb, _ := json.Marshal(b)
		return string(ja) == string(jb)
	})

	fromEdges := make(map[string]canonicalEdge, len(from.Edges))
	for _, e := range from.Edges {
		fromEdges[e.ID().String()] = canonicalizeEdge(e)
	}
	toEdges := make(map[string]canonicalEdge, len(to.Edges))
	for _, e := range to.Edges {
		toEdges[e.ID().String()] = canonicalizeEdge(e)
	}
	d.EdgesAdded, d.EdgesRemoved, d.EdgesUpdated = diffKeys(fromEdges, toEdges, func(a, b canonicalEdge) bool {
		return a == b
	})

	return d
}

func diffKeys[T any](from, to map[string]T, equal func(a, b T) bool) (added, removed, updated []string) {
	for id, b := range to {
		a, ok := from[id]
		switch {
		case !ok:
			added = append(added, id)
		case !equal(a, b):
			updated = append(updated, id)
		}
	}
	for id := range from {
		if _, ok := to[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(updated)
	return added, removed, updated
}

func canonicalizeNode(n *entities.Node) canonicalNode {
	payload := n.Payload()
	arrow := entities.Match(payload,
		func(entities.ContentPayload) map[string]string { return nil },
		func(a entities.AnnotationPayload) map[string]string { return a.ArrowStyle },
	)
	return canonicalNode{
		ID:      n.ID().String(),
		Variant: string(n.Variant()),
		Fields:  entities.PayloadFields(payload),
		Arrow:   arrow,
		X:       n.Position().X(),
		Y:       n.Position().Y(),
	}
}

func canonicalizeEdge(e *entities.Edge) canonicalEdge {
	c := canonicalEdge{
		ID:     e.ID().String(),
		Source: e.SourceID().String(),
		Target: e.TargetID().String(),
		Label:  e.Label(),
	}
	if style, ok := e.Style(); ok {
		c.Stroke = style.StrokeColor
		c.Width = style.StrokeWidth
	}
	return c
}
