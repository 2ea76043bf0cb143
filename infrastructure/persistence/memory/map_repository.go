// Package memory keeps concept maps in process memory. It backs local
// development and tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"conceptmap/application/ports"
	pkgerrors "conceptmap/pkg/errors"
)

// MapRepository is a goroutine-safe in-memory ports.MapRepository
type MapRepository struct {
	mu   sync.RWMutex
	docs map[string]*ports.MapDocument
}

// NewMapRepository creates an empty repository
func NewMapRepository() *MapRepository {
	return &MapRepository{docs: make(map[string]*ports.MapDocument)}
}

// FetchMap returns a copy of the stored document
func (r *MapRepository) FetchMap(ctx context.Context, mapID string) (*ports.MapDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[mapID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("map %q", mapID))
	}
	return cloneDocument(doc), nil
}

// SaveMap stores a copy of doc if the stored version is doc.Version-1
func (r *MapRepository) SaveMap(ctx context.Context, doc *ports.MapDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc == nil || doc.ID == "" {
		return pkgerrors.NewValidationError("map document with an id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := 0
	if existing, ok := r.docs[doc.ID]; ok {
		stored = existing.Version
	}
	if stored != doc.Version-1 {
		return pkgerrors.NewConflictError(
			fmt.Sprintf("map %q was changed by someone else (stored version %d, writing %d)", doc.ID, stored, doc.Version))
	}

	r.docs[doc.ID] = cloneDocument(doc)
	return nil
}

// ListMaps returns the maps of ownerID, most recently updated first
func (r *MapRepository) ListMaps(ctx context.Context, ownerID string) ([]ports.MapSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]ports.MapSummary, 0)
	for _, doc := range r.docs {
		if doc.OwnerID == ownerID {
			summaries = append(summaries, doc.Summary())
		}
	}
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].UpdatedAt.Equal(summaries[j].UpdatedAt) {
			return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
		}
		return summaries[i].ID < summaries[j].ID
	})
	return summaries, nil
}

func cloneDocument(doc *ports.MapDocument) *ports.MapDocument {
	c := *doc
	c.Nodes = make([]ports.NodeRecord, len(doc.Nodes))
	for i, n := range doc.Nodes {
		n.Data.ArrowStyle = maps.Clone(n.Data.ArrowStyle)
		c.Nodes[i] = n
	}
	c.Edges = make([]ports.EdgeRecord, len(doc.Edges))
	for i, e := range doc.Edges {
		if e.Style != nil {
			s := *e.Style
			e.Style = &s
		}
		c.Edges[i] = e
	}
	return &c
}
