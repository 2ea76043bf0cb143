package services

import (
	"fmt"

	"conceptmap/application/ports"
	"conceptmap/domain/config"
	"conceptmap/domain/core/aggregates"
	"conceptmap/domain/core/entities"
	"conceptmap/domain/core/valueobjects"
	pkgerrors "conceptmap/pkg/errors"
)

// MapMeta is the descriptive part of a stored map
type MapMeta struct {
	OwnerID  string
	LessonID string
	Title    string
	Version  int
}

// BuildConceptMap rebuilds a ConceptMap from a stored document. Nodes are
// loaded before edges, so edges pointing at unknown nodes are reported as
// invalid references. Temporary edges are skipped; a drag proposal never
// becomes part of the stored map.
func BuildConceptMap(doc *ports.MapDocument, cfg *config.DomainConfig) (*aggregates.ConceptMap, error) {
	if doc == nil {
		return nil, pkgerrors.NewValidationError("map document is required")
	}

	m := aggregates.NewConceptMap(valueobjects.MapID(doc.ID), cfg)

	for i, rec := range doc.Nodes {
		node, err := NodeFromRecord(rec)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "nodes[%d]", i)
		}
		if err := m.LoadNode(node); err != nil {
			return nil, pkgerrors.Wrapf(err, "nodes[%d]", i)
		}
	}

	for i, rec := range doc.Edges {
		if rec.IsTemporary() {
			continue
		}
		edge, err := EdgeFromRecord(rec)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "edges[%d]", i)
		}
		if err := m.LoadEdge(edge); err != nil {
			return nil, pkgerrors.Wrapf(err, "edges[%d]", i)
		}
	}

	return m, nil
}

// DocumentOf converts a map into its stored form. The pending edge is
// never part of a document.
func DocumentOf(m *aggregates.ConceptMap, meta MapMeta) *ports.MapDocument {
	nodes := m.Nodes()
	edges := m.Edges()

	doc := &ports.MapDocument{
		ID:        m.ID().String(),
		OwnerID:   meta.OwnerID,
		LessonID:  meta.LessonID,
		Title:     meta.Title,
		Nodes:     make([]ports.NodeRecord, 0, len(nodes)),
		Edges:     make([]ports.EdgeRecord, 0, len(edges)),
		Version:   meta.Version,
		UpdatedAt: m.UpdatedAt().UTC(),
	}
	for _, n := range nodes {
		doc.Nodes = append(doc.Nodes, NodeRecordOf(n))
	}
	for _, e := range edges {
		doc.Edges = append(doc.Edges, EdgeRecordOf(e))
	}
	return doc
}

// PayloadFromRecord builds the payload for a node type name
func PayloadFromRecord(nodeType string, data ports.NodeData) (entities.NodePayload, error) {
	variant, err := ParseNodeType(nodeType)
	if err != nil {
		return nil, err
	}

	switch variant {
	case entities.VariantAnnotation:
		return entities.AnnotationPayload{
			Level:      data.Level,
			Label:      data.Label,
			ArrowStyle: arrowStyleFromRecord(data.ArrowStyle),
		}, nil
	default:
		return entities.ContentPayload{Title: data.Title, Text: data.Text}, nil
	}
}

// ParseNodeType maps a stored type name to a variant. Documents written by
// the browser editor may omit the type of content nodes.
func ParseNodeType(nodeType string) (entities.Variant, error) {
	if nodeType == "" {
		return entities.VariantContent, nil
	}
	return entities.ParseVariant(nodeType)
}

// NodeFromRecord converts a stored node
func NodeFromRecord(rec ports.NodeRecord) (*entities.Node, error) {
	id, err := valueobjects.NewNodeIDFromString(rec.ID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	position, err := valueobjects.NewPosition(rec.Position.X, rec.Position.Y)
	if err != nil {
		return nil, err
	}
	payload, err := PayloadFromRecord(rec.Type, rec.Data)
	if err != nil {
		return nil, err
	}
	return entities.NewNode(id, payload, position)
}

// EdgeFromRecord converts a stored edge
func EdgeFromRecord(rec ports.EdgeRecord) (*entities.Edge, error) {
	id, err := valueobjects.NewEdgeIDFromString(rec.ID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	source, err := valueobjects.NewNodeIDFromString(rec.Source)
	if err != nil {
		return nil, pkgerrors.NewValidationError("edge source: " + err.Error())
	}
	target, err := valueobjects.NewNodeIDFromString(rec.Target)
	if err != nil {
		return nil, pkgerrors.NewValidationError("edge target: " + err.Error())
	}
	style, err := StyleFromRecord(rec.Style)
	if err != nil {
		return nil, err
	}
	return entities.NewEdge(id, source, target, rec.Label, style)
}

// StyleFromRecord converts an optional stroke style
func StyleFromRecord(rec *ports.StyleRecord) (*valueobjects.EdgeStyle, error) {
	if rec == nil {
		return nil, nil
	}
	style, err := valueobjects.NewEdgeStyle(rec.Stroke, rec.StrokeWidth)
	if err != nil {
		return nil, err
	}
	return &style, nil
}

// NodeRecordOf converts a node into its stored form
func NodeRecordOf(n *entities.Node) ports.NodeRecord {
	return ports.NodeRecord{
		ID:   n.ID().String(),
		Type: string(n.Variant()),
		Data: entities.Match(n.Payload(),
			func(c entities.ContentPayload) ports.NodeData {
				return ports.NodeData{Title: c.Title, Text: c.Text}
			},
			func(a entities.AnnotationPayload) ports.NodeData {
				return ports.NodeData{Level: a.Level, Label: a.Label, ArrowStyle: arrowStyleToRecord(a.ArrowStyle)}
			},
		),
		Position: ports.PositionRecord{X: n.Position().X(), Y: n.Position().Y()},
	}
}

// EdgeRecordOf converts an edge into its stored form
func EdgeRecordOf(e *entities.Edge) ports.EdgeRecord {
	rec := ports.EdgeRecord{
		ID:     e.ID().String(),
		Source: e.SourceID().String(),
		Target: e.TargetID().String(),
		Label:  e.Label(),
	}
	if style, ok := e.Style(); ok {
		rec.Style = &ports.StyleRecord{Stroke: style.StrokeColor, StrokeWidth: style.StrokeWidth}
	}
	return rec
}

// arrowStyle values are CSS properties; numbers are kept in their
// printed form
func arrowStyleFromRecord(raw map[string]interface{}) valueobjects.ArrowStyle {
	if raw == nil {
		return nil
	}
	style := make(valueobjects.ArrowStyle, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			style[k] = s
			continue
		}
		style[k] = fmt.Sprint(v)
	}
	return style
}

func arrowStyleToRecord(style valueobjects.ArrowStyle) map[string]interface{} {
	if style == nil {
		return nil
	}
	raw := make(map[string]interface{}, len(style))
	for k, v := range style {
		raw[k] = v
	}
	return raw
}
