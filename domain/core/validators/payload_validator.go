package validators

import (
	"fmt"
	"strings"

	"conceptmap/domain/core/entities"
	"conceptmap/pkg/errors"
)

// PayloadValidator enforces size and content rules on the text a user can
// type into nodes and edge labels
type PayloadValidator struct {
	titleMaxLength int
	textMaxLength  int
	labelMaxLength int
	levelMaxLength int
}

// NewPayloadValidator creates a validator with default limits
func NewPayloadValidator() *PayloadValidator {
	return &PayloadValidator{
		titleMaxLength: 255,
		textMaxLength:  50000,
		labelMaxLength: 255,
		levelMaxLength: 64,
	}
}

// ValidatePayload checks every field of a node payload
func (v *PayloadValidator) ValidatePayload(p entities.NodePayload) error {
	if p == nil {
		return errors.NewValidationError("node payload is required")
	}

	limits := entities.Match(p,
		func(entities.ContentPayload) map[string]int {
			return map[string]int{entities.FieldTitle: v.titleMaxLength, entities.FieldText: v.textMaxLength}
		},
		func(entities.AnnotationPayload) map[string]int {
			return map[string]int{entities.FieldLevel: v.levelMaxLength, entities.FieldLabel: v.labelMaxLength}
		},
	)

	problems := make(map[string]interface{})
	for field, value := range entities.PayloadFields(p) {
		if err := checkText(value, limits[field]); err != "" {
			problems[field] = err
		}
	}

	if len(problems) > 0 {
		return errors.NewValidationError("invalid node payload").
			WithCode("INVALID_PAYLOAD").
			WithDetails(problems)
	}
	return nil
}

// ValidateField checks a single draft value against the limit for its field
func (v *PayloadValidator) ValidateField(field, value string) error {
	var limit int
	switch field {
	case entities.FieldTitle:
		limit = v.titleMaxLength
	case entities.FieldText:
		limit = v.textMaxLength
	case entities.FieldLabel:
		limit = v.labelMaxLength
	case entities.FieldLevel:
		limit = v.levelMaxLength
	default:
		return errors.NewValidationError(fmt.Sprintf("unknown field %q", field))
	}

	if msg := checkText(value, limit); msg != "" {
		return errors.NewValidationError(msg).
			WithCode("INVALID_FIELD").
			WithDetails(map[string]interface{}{"field": field})
	}
	return nil
}

// ValidateEdgeLabel checks an edge label
func (v *PayloadValidator) ValidateEdgeLabel(label string) error {
	return v.ValidateField(entities.FieldLabel, label)
}

func checkText(value string, maxLength int) string {
	if len(value) > maxLength {
		return fmt.Sprintf("exceeds maximum length of %d", maxLength)
	}

	lower := strings.ToLower(value)
	if strings.Contains(lower, "<script") || strings.Contains(lower, "javascript:") {
		return "contains potentially malicious code"
	}
	return ""
}
