package models

import "time"

// ElementRecord is the normalized shape of an element fetched from a sibling
// element-provider service. Type-specific fields are kept opaque in Fields.
type ElementRecord struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	TenantID  string         `json:"tenant_id"`
	Type      string         `json:"type"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Field returns a type-specific field value. The second return reports
// whether the field is present, so callers can tell an absent field apart
// from one explicitly set to null.
func (e *ElementRecord) Field(name string) (any, bool) {
	if e.Fields == nil {
		return nil, false
	}

	value, ok := e.Fields[name]

	return value, ok
}

// ElementLink is one relationship record from an element's links sub-resource.
type ElementLink struct {
	LinkedElementID   string `json:"linked_element_id"`
	LinkedElementType string `json:"linked_element_type"`
	LinkType          string `json:"link_type"`
}
