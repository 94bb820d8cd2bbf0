package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name       string
		err        error
		validation bool
		inference  bool
		parse      bool
		status     int
	}{
		{
			name:       "validation",
			err:        Validation("CSV must have a '%s' column.", "text"),
			validation: true,
			status:     http.StatusBadRequest,
		},
		{
			name:      "inference wrapped twice",
			err:       fmt.Errorf("analyze: %w", Inference("emotion", cause)),
			inference: true,
			status:    http.StatusBadGateway,
		},
		{
			name:   "parse",
			err:    Parse("Could not process date column", cause),
			parse:  true,
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "plain",
			err:    cause,
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.validation, IsValidation(tt.err))
			assert.Equal(t, tt.inference, IsInference(tt.err))
			assert.Equal(t, tt.parse, IsParse(tt.err))
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestMessages(t *testing.T) {
	cause := errors.New("timeout")

	assert.Equal(t, "CSV must have a 'text' column.", Validation("CSV must have a 'text' column.").Error())
	assert.Equal(t, "sentiment inference failed: timeout", Inference("sentiment", cause).Error())
	assert.Equal(t, "emotion inference failed on row 4: timeout",
		(&InferenceError{Stage: "emotion", Row: 4, Err: cause}).Error())
	assert.Equal(t, "Could not process date column: timeout", Parse("Could not process date column", cause).Error())
	assert.ErrorIs(t, Inference("emotion", cause), cause)
	assert.Equal(t, http.StatusOK, HTTPStatus(nil))
}
