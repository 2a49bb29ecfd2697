package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayerOfElementType(t *testing.T) {
	assert.Equal(t, LayerMotivation, LayerOfElementType("goal"))
	assert.Equal(t, LayerBusiness, LayerOfElementType("capability"))
	assert.Equal(t, LayerApplication, LayerOfElementType("application_component"))
	assert.Equal(t, LayerTechnology, LayerOfElementType("node"))
	assert.Equal(t, LayerImplementation, LayerOfElementType("work_package"))

	// Unknown types still score, under the business layer.
	assert.Equal(t, LayerBusiness, LayerOfElementType("mystery_widget"))
}

func TestElementTypesForLayer(t *testing.T) {
	assert.Contains(t, ElementTypesForLayer(LayerMotivation), "goal")
	assert.Empty(t, ElementTypesForLayer(Layer("unknown")))
}

func TestIsValidLayer(t *testing.T) {
	for _, layer := range Layers {
		assert.True(t, IsValidLayer(layer))
	}

	assert.False(t, IsValidLayer(Layer("physical")))
}
