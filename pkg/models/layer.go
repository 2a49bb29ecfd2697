// Package models defines the core domain models for architecture validation.
package models

// Layer is an ArchiMate layer grouping element types.
type Layer string

const (
	LayerMotivation     Layer = "motivation"
	LayerBusiness       Layer = "business"
	LayerApplication    Layer = "application"
	LayerTechnology     Layer = "technology"
	LayerImplementation Layer = "implementation"
)

// Layers lists all known layers in reporting order.
var Layers = []Layer{
	LayerMotivation,
	LayerBusiness,
	LayerApplication,
	LayerTechnology,
	LayerImplementation,
}

// elementTypesByLayer maps each layer to the element types owned by the
// sibling microservices of that layer.
var elementTypesByLayer = map[Layer][]string{
	LayerMotivation: {
		"goal", "driver", "stakeholder", "requirement", "constraint", "assessment",
	},
	LayerBusiness: {
		"capability", "business_process", "business_function", "business_role", "business_service",
	},
	LayerApplication: {
		"application_component", "application_function", "application_service", "data_object",
	},
	LayerTechnology: {
		"node", "device", "system_software", "technology_service", "artifact",
	},
	LayerImplementation: {
		"work_package", "deliverable", "plateau", "gap",
	},
}

var layerByElementType = func() map[string]Layer {
	index := make(map[string]Layer)

	for layer, types := range elementTypesByLayer {
		for _, elementType := range types {
			index[elementType] = layer
		}
	}

	return index
}()

// ElementTypesForLayer returns the element types belonging to a layer.
func ElementTypesForLayer(layer Layer) []string {
	return elementTypesByLayer[layer]
}

// LayerOfElementType resolves the layer owning an element type. Unknown types
// resolve to the business layer so they still participate in scoring.
func LayerOfElementType(elementType string) Layer {
	if layer, ok := layerByElementType[elementType]; ok {
		return layer
	}

	return LayerBusiness
}

// IsValidLayer reports whether the given name is a known layer.
func IsValidLayer(layer Layer) bool {
	_, ok := elementTypesByLayer[layer]

	return ok
}
