package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// RuleType selects which evaluator a rule is dispatched to.
type RuleType string

const (
	RuleTypeTraceability RuleType = "traceability"
	RuleTypeCompleteness RuleType = "completeness"
	RuleTypeAlignment    RuleType = "alignment"
)

// Severity classifies how much a detected issue hurts a score.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Weight returns the scoring weight of a severity. Unknown severities count
// as low rather than being dropped from the score.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

// ValidationRule is a named, typed, configurable check. Rules are never hard
// deleted; toggling IsActive preserves the reproducibility of past cycles.
type ValidationRule struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenant_id"`
	Name        string          `json:"name"        validate:"required,min=3"`
	Description string          `json:"description"`
	RuleType    RuleType        `json:"rule_type"   validate:"required,oneof=traceability completeness alignment"`
	Scope       Layer           `json:"scope"`
	RuleLogic   json.RawMessage `json:"rule_logic"  validate:"required"`
	Severity    Severity        `json:"severity"    validate:"required,oneof=low medium high critical"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TraceabilityLogic configures a traceability rule: every source element must
// hold at least MinConnections links of RelationshipType to target elements.
type TraceabilityLogic struct {
	SourceType       string `json:"source_type"`
	TargetType       string `json:"target_type"`
	RelationshipType string `json:"relationship_type"`
	MinConnections   int    `json:"min_connections"`
}

// CompletenessLogic configures a completeness rule: the element collection
// must reach MinCount and every element must carry the required fields.
type CompletenessLogic struct {
	ElementType    string   `json:"element_type"`
	RequiredFields []string `json:"required_fields"`
	MinCount       int      `json:"min_count"`
}

// AlignmentCriteria tunes how source and target elements are matched.
type AlignmentCriteria struct {
	NameSimilarity   float64 `json:"name_similarity"`
	SemanticMatching bool    `json:"semantic_matching"`
}

// AlignmentLogic configures an alignment rule: every source-layer element
// should have at least one sufficiently similar target-layer counterpart.
type AlignmentLogic struct {
	SourceLayer Layer             `json:"source_layer"`
	TargetLayer Layer             `json:"target_layer"`
	Criteria    AlignmentCriteria `json:"alignment_criteria"`
}

// RuleLogic is the decoded tagged union of the per-type configurations.
// Exactly one branch is non-nil after a successful decode.
type RuleLogic struct {
	Traceability *TraceabilityLogic
	Completeness *CompletenessLogic
	Alignment    *AlignmentLogic
}

var ruleLogicSchemas = map[RuleType]map[string]any{
	RuleTypeTraceability: {
		"type": "object",
		"properties": map[string]any{
			"source_type":       map[string]any{"type": "string", "minLength": 1},
			"target_type":       map[string]any{"type": "string", "minLength": 1},
			"relationship_type": map[string]any{"type": "string", "minLength": 1},
			"min_connections":   map[string]any{"type": "integer", "minimum": 1},
		},
		"required":             []string{"source_type", "target_type", "relationship_type", "min_connections"},
		"additionalProperties": false,
	},
	RuleTypeCompleteness: {
		"type": "object",
		"properties": map[string]any{
			"element_type": map[string]any{"type": "string", "minLength": 1},
			"required_fields": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "minLength": 1},
			},
			"min_count": map[string]any{"type": "integer", "minimum": 0},
		},
		"required":             []string{"element_type"},
		"additionalProperties": false,
	},
	RuleTypeAlignment: {
		"type": "object",
		"properties": map[string]any{
			"source_layer": map[string]any{"type": "string", "minLength": 1},
			"target_layer": map[string]any{"type": "string", "minLength": 1},
			"alignment_criteria": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name_similarity":   map[string]any{"type": "number", "minimum": 0, "maximum": 1},
					"semantic_matching": map[string]any{"type": "boolean"},
				},
				"required":             []string{"name_similarity"},
				"additionalProperties": false,
			},
		},
		"required":             []string{"source_layer", "target_layer", "alignment_criteria"},
		"additionalProperties": false,
	},
}

// ValidateRuleLogic checks a raw rule_logic document against the JSON schema
// of its rule type without decoding it.
func ValidateRuleLogic(ruleType RuleType, raw json.RawMessage) error {
	schema, ok := ruleLogicSchemas[ruleType]
	if !ok {
		return fmt.Errorf("%w: unknown rule type %q", ErrMalformedRule, ruleType)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRule, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, schemaErr := range result.Errors() {
			details = append(details, schemaErr.String())
		}

		return fmt.Errorf("%w: %s", ErrMalformedRule, strings.Join(details, "; "))
	}

	return nil
}

// DecodeLogic validates the rule's logic against its type's schema and
// decodes it into the matching branch of the tagged union.
func (r *ValidationRule) DecodeLogic() (RuleLogic, error) {
	var logic RuleLogic

	if err := ValidateRuleLogic(r.RuleType, r.RuleLogic); err != nil {
		return logic, err
	}

	switch r.RuleType {
	case RuleTypeTraceability:
		cfg := &TraceabilityLogic{}
		if err := json.Unmarshal(r.RuleLogic, cfg); err != nil {
			return logic, fmt.Errorf("%w: %v", ErrMalformedRule, err)
		}

		logic.Traceability = cfg
	case RuleTypeCompleteness:
		cfg := &CompletenessLogic{}
		if err := json.Unmarshal(r.RuleLogic, cfg); err != nil {
			return logic, fmt.Errorf("%w: %v", ErrMalformedRule, err)
		}

		logic.Completeness = cfg
	case RuleTypeAlignment:
		cfg := &AlignmentLogic{}
		if err := json.Unmarshal(r.RuleLogic, cfg); err != nil {
			return logic, fmt.Errorf("%w: %v", ErrMalformedRule, err)
		}

		if !IsValidLayer(cfg.SourceLayer) || !IsValidLayer(cfg.TargetLayer) {
			return logic, fmt.Errorf("%w: unknown layer in alignment logic", ErrMalformedRule)
		}

		logic.Alignment = cfg
	}

	return logic, nil
}
