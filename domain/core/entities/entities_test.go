package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conceptmap/domain/core/valueobjects"
	pkgerrors "conceptmap/pkg/errors"
)

func TestParseVariant(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Variant
		wantErr bool
	}{
		{name: "stored content name", input: "customNode", want: VariantContent},
		{name: "content alias", input: "content", want: VariantContent},
		{name: "stored annotation name", input: "annotationNode", want: VariantAnnotation},
		{name: "annotation alias", input: "annotation", want: VariantAnnotation},
		{name: "unknown", input: "group", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVariant(tt.input)
			if tt.wantErr {
				assert.True(t, pkgerrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatch(t *testing.T) {
	describe := func(p NodePayload) string {
		return Match(p,
			func(c ContentPayload) string { return "content:" + c.Title },
			func(a AnnotationPayload) string { return "annotation:" + a.Label },
		)
	}

	assert.Equal(t, "content:Cells", describe(ContentPayload{Title: "Cells"}))
	assert.Equal(t, "annotation:note", describe(AnnotationPayload{Label: "note"}))
}

func TestWithFields(t *testing.T) {
	t.Run("replaces only the given fields", func(t *testing.T) {
		// Arrange
		p := ContentPayload{Title: "Old", Text: "body"}

		// Act
		updated, err := WithFields(p, map[string]string{FieldTitle: "New"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, ContentPayload{Title: "New", Text: "body"}, updated)
		assert.Equal(t, "Old", p.Title)
	})

	t.Run("rejects fields of another variant", func(t *testing.T) {
		_, err := WithFields(ContentPayload{}, map[string]string{FieldLevel: "2"})
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("keeps an independent arrow style", func(t *testing.T) {
		p := AnnotationPayload{Level: "1", Label: "a", ArrowStyle: valueobjects.ArrowStyle{"stroke": "red"}}

		updated, err := WithFields(p, map[string]string{FieldLabel: "b"})
		require.NoError(t, err)

		a := updated.(AnnotationPayload)
		a.ArrowStyle["stroke"] = "blue"
		assert.Equal(t, "b", a.Label)
		assert.Equal(t, "red", p.ArrowStyle["stroke"])
	})
}

func TestPayloadFields(t *testing.T) {
	assert.Equal(t,
		map[string]string{FieldTitle: "t", FieldText: "x"},
		PayloadFields(ContentPayload{Title: "t", Text: "x"}))
	assert.Equal(t,
		map[string]string{FieldLevel: "2", FieldLabel: "l"},
		PayloadFields(AnnotationPayload{Level: "2", Label: "l"}))
}

func TestNewNode(t *testing.T) {
	pos := valueobjects.MustPosition(1, 2)

	tests := []struct {
		name    string
		id      valueobjects.NodeID
		payload NodePayload
		wantErr bool
	}{
		{name: "valid content node", id: valueobjects.MustNodeID("1"), payload: ContentPayload{Title: "A"}},
		{name: "valid annotation node", id: valueobjects.MustNodeID("2"), payload: AnnotationPayload{Label: "B"}},
		{name: "zero id", id: valueobjects.NodeID{}, payload: ContentPayload{}, wantErr: true},
		{name: "nil payload", id: valueobjects.MustNodeID("3"), payload: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := NewNode(tt.id, tt.payload, pos)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, node)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, node.ID())
			assert.Equal(t, tt.payload.Variant(), node.Variant())
			assert.True(t, node.Position().Equals(pos))
		})
	}
}

func TestNode_MoveTo(t *testing.T) {
	node, err := NewNode(valueobjects.MustNodeID("1"), ContentPayload{}, valueobjects.MustPosition(0, 0))
	require.NoError(t, err)

	assert.False(t, node.MoveTo(valueobjects.MustPosition(0, 0)))
	assert.True(t, node.MoveTo(valueobjects.MustPosition(10, 0)))
	assert.Equal(t, 10.0, node.Position().X())
}

func TestNode_UpdatePayload(t *testing.T) {
	node, err := NewNode(valueobjects.MustNodeID("1"), ContentPayload{Title: "A"}, valueobjects.MustPosition(0, 0))
	require.NoError(t, err)

	t.Run("same variant", func(t *testing.T) {
		require.NoError(t, node.UpdatePayload(ContentPayload{Title: "B"}))
		assert.Equal(t, ContentPayload{Title: "B"}, node.Payload())
	})

	t.Run("variant mismatch", func(t *testing.T) {
		err := node.UpdatePayload(AnnotationPayload{Label: "x"})

		require.Error(t, err)
		appErr := pkgerrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, "VARIANT_MISMATCH", appErr.Code)
		assert.Equal(t, VariantContent, node.Variant())
	})

	t.Run("nil payload", func(t *testing.T) {
		assert.Error(t, node.UpdatePayload(nil))
	})
}

func TestNode_CloneIsIndependent(t *testing.T) {
	node, err := NewNode(valueobjects.MustNodeID("1"),
		AnnotationPayload{ArrowStyle: valueobjects.ArrowStyle{"stroke": "red"}},
		valueobjects.MustPosition(0, 0))
	require.NoError(t, err)

	clone := node.Clone()
	clone.MoveTo(valueobjects.MustPosition(5, 5))
	clone.Payload().(AnnotationPayload).ArrowStyle["stroke"] = "blue"

	assert.Equal(t, 0.0, node.Position().X())
	assert.Equal(t, "red", node.Payload().(AnnotationPayload).ArrowStyle["stroke"])
}

func TestNewEdge(t *testing.T) {
	a, b := valueobjects.MustNodeID("a"), valueobjects.MustNodeID("b")
	style := valueobjects.EdgeStyle{StrokeColor: "#000", StrokeWidth: 2}

	edge, err := NewEdge(valueobjects.PairEdgeID(a, b), a, b, "causes", &style)
	require.NoError(t, err)

	style.StrokeWidth = 9
	got, ok := edge.Style()
	assert.True(t, ok)
	assert.Equal(t, 2.0, got.StrokeWidth)

	assert.True(t, edge.Connects(b, a))
	assert.True(t, edge.Touches(a))
	assert.False(t, edge.Touches(valueobjects.MustNodeID("c")))

	_, err = NewEdge(valueobjects.EdgeID{}, a, b, "", nil)
	assert.Error(t, err)

	_, err = NewEdge(valueobjects.PairEdgeID(a, b), a, valueobjects.NodeID{}, "", nil)
	assert.Error(t, err)
}

func TestEdge_RelabelAndWithID(t *testing.T) {
	a, b := valueobjects.MustNodeID("a"), valueobjects.MustNodeID("b")
	edge, err := NewEdge(valueobjects.PairEdgeID(a, b), a, b, "old", nil)
	require.NoError(t, err)

	assert.Equal(t, "old", edge.Relabel("new"))
	assert.Equal(t, "new", edge.Label())

	_, hasStyle := edge.Style()
	assert.False(t, hasStyle)

	other := edge.WithID(valueobjects.PairEdgeID(b, a))
	assert.Equal(t, "b-a", other.ID().String())
	assert.Equal(t, "a-b", edge.ID().String())
	assert.Equal(t, edge.SourceID(), other.SourceID())
}
