package entities

import (
	"fmt"

	"conceptmap/domain/core/valueobjects"
	pkgerrors "conceptmap/pkg/errors"
)

// Variant names the kind of a node. The string values are the node type
// names stored in map documents.
type Variant string

const (
	VariantContent    Variant = "customNode"
	VariantAnnotation Variant = "annotationNode"
)

// ParseVariant accepts the stored type names and their short aliases
func ParseVariant(s string) (Variant, error) {
	switch s {
	case string(VariantContent), "content":
		return VariantContent, nil
	case string(VariantAnnotation), "annotation":
		return VariantAnnotation, nil
	default:
		return "", pkgerrors.NewValidationError(fmt.Sprintf("unknown node type %q", s))
	}
}

// Field names used by drafts and documents
const (
	FieldTitle = "title"
	FieldText  = "text"
	FieldLevel = "level"
	FieldLabel = "label"
)

// NodePayload is the closed set of things a node can hold.
// Only types in this package can implement it.
type NodePayload interface {
	Variant() Variant
	Accept(v PayloadVisitor)
	sealed()
}

// PayloadVisitor dispatches over every payload variant. A new variant adds a
// method here, so every visitor has to handle it before the tree compiles.
type PayloadVisitor interface {
	VisitContent(p ContentPayload)
	VisitAnnotation(p AnnotationPayload)
}

// ContentPayload is the body of a regular concept node
type ContentPayload struct {
	Title string
	Text  string
}

func (ContentPayload) Variant() Variant          { return VariantContent }
func (p ContentPayload) Accept(v PayloadVisitor) { v.VisitContent(p) }
func (ContentPayload) sealed()                   {}

// AnnotationPayload is a free-floating label with an optional arrow
type AnnotationPayload struct {
	Level      string
	Label      string
	ArrowStyle valueobjects.ArrowStyle
}

func (AnnotationPayload) Variant() Variant          { return VariantAnnotation }
func (p AnnotationPayload) Accept(v PayloadVisitor) { v.VisitAnnotation(p) }
func (AnnotationPayload) sealed()                   {}

type matcher[T any] struct {
	onContent    func(ContentPayload) T
	onAnnotation func(AnnotationPayload) T
	result       T
}

func (m *matcher[T]) VisitContent(p ContentPayload)       { m.result = m.onContent(p) }
func (m *matcher[T]) VisitAnnotation(p AnnotationPayload) { m.result = m.onAnnotation(p) }

// Match folds a payload into a value, one function per variant
func Match[T any](p NodePayload, onContent func(ContentPayload) T, onAnnotation func(AnnotationPayload) T) T {
	m := &matcher[T]{onContent: onContent, onAnnotation: onAnnotation}
	p.Accept(m)
	return m.result
}

// PayloadFields returns the editable text fields of a payload
func PayloadFields(p NodePayload) map[string]string {
	return Match(p,
		func(c ContentPayload) map[string]string {
			return map[string]string{FieldTitle: c.Title, FieldText: c.Text}
		},
		func(a AnnotationPayload) map[string]string {
			return map[string]string{FieldLevel: a.Level, FieldLabel: a.Label}
		},
	)
}

// WithFields returns a copy of p with the given editable fields replaced.
// Unknown field names are rejected.
func WithFields(p NodePayload, fields map[string]string) (NodePayload, error) {
	allowed := PayloadFields(p)
	for name := range fields {
		if _, ok := allowed[name]; !ok {
			return nil, pkgerrors.NewValidationError(
				fmt.Sprintf("field %q is not editable on %s nodes", name, p.Variant()))
		}
	}

	pick := func(name, current string) string {
		if v, ok := fields[name]; ok {
			return v
		}
		return current
	}

	return Match(p,
		func(c ContentPayload) NodePayload {
			return ContentPayload{Title: pick(FieldTitle, c.Title), Text: pick(FieldText, c.Text)}
		},
		func(a AnnotationPayload) NodePayload {
			return AnnotationPayload{
				Level:      pick(FieldLevel, a.Level),
				Label:      pick(FieldLabel, a.Label),
				ArrowStyle: a.ArrowStyle.Clone(),
			}
		},
	), nil
}

func clonePayload(p NodePayload) NodePayload {
	return Match(p,
		func(c ContentPayload) NodePayload { return c },
		func(a AnnotationPayload) NodePayload {
			a.ArrowStyle = a.ArrowStyle.Clone()
			return a
		},
	)
}
