package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestElementRecord_FieldDistinguishesAbsentFromNull(t *testing.T) {
	element := ElementRecord{
		ID:   "g-1",
		Name: "Reduce churn",
		Fields: map[string]any{
			"description": "retain existing customers",
			"owner":       nil,
		},
	}

	value, ok := element.Field("description")
	assert.True(t, ok)
	assert.Equal(t, "retain existing customers", value)

	value, ok = element.Field("owner")
	assert.True(t, ok)
	assert.Nil(t, value)

	value, ok = element.Field("priority")
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestElementRecord_FieldNilMap(t *testing.T) {
	element := ElementRecord{ID: "g-1"}

	value, ok := element.Field("description")
	assert.False(t, ok)
	assert.Nil(t, value)
}
