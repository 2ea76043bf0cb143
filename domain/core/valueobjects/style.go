package valueobjects

import (
	"maps"

	pkgerrors "conceptmap/pkg/errors"
)

// EdgeStyle is the optional stroke styling of an edge
type EdgeStyle struct {
	StrokeColor string
	StrokeWidth float64
}

// NewEdgeStyle validates the stroke width
func NewEdgeStyle(color string, width float64) (EdgeStyle, error) {
	if !isValidCoordinate(width) || width < 0 {
		return EdgeStyle{}, pkgerrors.NewValidationError("stroke width must be a non-negative finite number")
	}
	return EdgeStyle{StrokeColor: color, StrokeWidth: width}, nil
}

// ArrowStyle is an opaque set of presentation properties for the arrow
// marker of an annotation node. The editor stores it but never interprets it.
type ArrowStyle map[string]string

// Clone returns an independent copy; nil stays nil
func (s ArrowStyle) Clone() ArrowStyle {
	if s == nil {
		return nil
	}
	return maps.Clone(s)
}

// Equals compares two styles key by key
func (s ArrowStyle) Equals(other ArrowStyle) bool {
	return maps.Equal(s, other)
}
