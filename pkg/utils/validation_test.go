package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "conceptmap/pkg/errors"
)

type sample struct {
	Name  string `validate:"required,max=5"`
	Kind  string `validate:"omitempty,oneof=node edge"`
	Count int    `validate:"gte=0"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name     string
		input    sample
		wantErr  bool
		wantText string
	}{
		{name: "valid", input: sample{Name: "a", Kind: "node"}},
		{name: "missing name", input: sample{}, wantErr: true, wantText: "name is required"},
		{name: "name too long", input: sample{Name: "toolong"}, wantErr: true, wantText: "name must be at most 5"},
		{name: "bad kind", input: sample{Name: "a", Kind: "group"}, wantErr: true, wantText: "kind must be one of: node edge"},
		{name: "negative count", input: sample{Name: "a", Count: -1}, wantErr: true, wantText: "count must be greater than or equal to 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantText)
		})
	}
}

func TestNowRFC3339(t *testing.T) {
	parsed, err := time.Parse(time.RFC3339, NowRFC3339())

	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), parsed, 2*time.Second)
}
