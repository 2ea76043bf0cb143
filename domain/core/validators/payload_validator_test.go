package validators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conceptmap/domain/core/entities"
	"conceptmap/pkg/errors"
)

func TestPayloadValidator_ValidatePayload(t *testing.T) {
	v := NewPayloadValidator()

	tests := []struct {
		name      string
		payload   entities.NodePayload
		wantErr   bool
		badFields []string
	}{
		{name: "valid content", payload: entities.ContentPayload{Title: "Photosynthesis", Text: "light to sugar"}},
		{name: "valid annotation", payload: entities.AnnotationPayload{Level: "1", Label: "note"}},
		{name: "nil payload", payload: nil, wantErr: true},
		{
			name:      "title too long",
			payload:   entities.ContentPayload{Title: strings.Repeat("a", 256)},
			wantErr:   true,
			badFields: []string{entities.FieldTitle},
		},
		{
			name:      "script in text and label too long",
			payload:   entities.AnnotationPayload{Level: "<SCRIPT>x", Label: strings.Repeat("b", 300)},
			wantErr:   true,
			badFields: []string{entities.FieldLevel, entities.FieldLabel},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidatePayload(tt.payload)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
			if len(tt.badFields) > 0 {
				appErr := errors.GetAppError(err)
				assert.Equal(t, "INVALID_PAYLOAD", appErr.Code)
				assert.Len(t, appErr.Details, len(tt.badFields))
				for _, f := range tt.badFields {
					assert.Contains(t, appErr.Details, f)
				}
			}
		})
	}
}

func TestPayloadValidator_ValidateField(t *testing.T) {
	v := NewPayloadValidator()

	assert.NoError(t, v.ValidateField(entities.FieldText, strings.Repeat("x", 50000)))
	assert.Error(t, v.ValidateField(entities.FieldText, strings.Repeat("x", 50001)))
	assert.Error(t, v.ValidateField("colour", "red"))
	assert.Error(t, v.ValidateEdgeLabel("javascript:alert(1)"))
	assert.NoError(t, v.ValidateEdgeLabel("leads to"))
}
