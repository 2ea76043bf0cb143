package ports

import (
	"context"
	"time"
)

// MapRepository defines the interface for concept-map persistence.
// A map is stored and loaded as one document.
type MapRepository interface {
	// FetchMap retrieves a stored map. A missing map is a NotFound error.
	FetchMap(ctx context.Context, mapID string) (*MapDocument, error)

	// SaveMap stores doc. doc.Version is the version being written; the
	// store must hold version doc.Version-1 (or nothing when doc.Version is
	// 1), otherwise a Conflict error is returned.
	SaveMap(ctx context.Context, doc *MapDocument) error

	// ListMaps returns summaries of the maps owned by ownerID
	ListMaps(ctx context.Context, ownerID string) ([]MapSummary, error)
}

// MapDocument is the stored form of a concept map
type MapDocument struct {
	ID        string       `json:"id" dynamodbav:"MapID"`
	OwnerID   string       `json:"ownerId,omitempty" dynamodbav:"OwnerID"`
	LessonID  string       `json:"lessonId,omitempty" dynamodbav:"LessonID,omitempty"`
	Title     string       `json:"title,omitempty" dynamodbav:"Title,omitempty"`
	Nodes     []NodeRecord `json:"nodes" dynamodbav:"Nodes"`
	Edges     []EdgeRecord `json:"edges" dynamodbav:"Edges"`
	Version   int          `json:"version" dynamodbav:"Version"`
	UpdatedAt time.Time    `json:"updatedAt" dynamodbav:"UpdatedAt"`
}

// NodeRecord is a node as the browser editor exchanges it
type NodeRecord struct {
	ID       string         `json:"id" dynamodbav:"id"`
	Type     string         `json:"type" dynamodbav:"type"`
	Data     NodeData       `json:"data" dynamodbav:"data"`
	Position PositionRecord `json:"position" dynamodbav:"position"`
}

// NodeData holds the fields of either node variant
type NodeData struct {
	Title      string                 `json:"title,omitempty" dynamodbav:"title,omitempty"`
	Text       string                 `json:"text,omitempty" dynamodbav:"text,omitempty"`
	Level      string                 `json:"level,omitempty" dynamodbav:"level,omitempty"`
	Label      string                 `json:"label,omitempty" dynamodbav:"label,omitempty"`
	ArrowStyle map[string]interface{} `json:"arrowStyle,omitempty" dynamodbav:"arrowStyle,omitempty"`
}

// PositionRecord is a canvas coordinate pair
type PositionRecord struct {
	X float64 `json:"x" dynamodbav:"x"`
	Y float64 `json:"y" dynamodbav:"y"`
}

// EdgeRecord is an edge as the browser editor exchanges it
type EdgeRecord struct {
	ID        string       `json:"id" dynamodbav:"id"`
	Source    string       `json:"source" dynamodbav:"source"`
	Target    string       `json:"target" dynamodbav:"target"`
	Label     string       `json:"label,omitempty" dynamodbav:"label,omitempty"`
	Style     *StyleRecord `json:"style,omitempty" dynamodbav:"style,omitempty"`
	Temporary bool         `json:"temporary,omitempty" dynamodbav:"-"`
	ClassName string       `json:"className,omitempty" dynamodbav:"-"`
}

// IsTemporary reports whether the record is a drag proposal rather than a
// confirmed edge. The browser editor marks those with the "temp" class.
func (r EdgeRecord) IsTemporary() bool {
	return r.Temporary || r.ClassName == "temp"
}

// StyleRecord is the stroke styling of an edge
type StyleRecord struct {
	Stroke      string  `json:"stroke,omitempty" dynamodbav:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty" dynamodbav:"strokeWidth,omitempty"`
}

// MapSummary is a listing entry
type MapSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	LessonID  string    `json:"lessonId,omitempty"`
	NodeCount int       `json:"nodeCount"`
	EdgeCount int       `json:"edgeCount"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary builds the listing entry for a document
func (d *MapDocument) Summary() MapSummary {
	return MapSummary{
		ID:        d.ID,
		Title:     d.Title,
		LessonID:  d.LessonID,
		NodeCount: len(d.Nodes),
		EdgeCount: len(d.Edges),
		Version:   d.Version,
		UpdatedAt: d.UpdatedAt,
	}
}
