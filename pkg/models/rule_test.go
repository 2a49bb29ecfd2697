package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRuleLogic(t *testing.T) {
	tests := []struct {
		name     string
		ruleType RuleType
		logic    string
		wantErr  bool
	}{
		{
			name:     "valid traceability",
			ruleType: RuleTypeTraceability,
			logic:    `{"source_type":"goal","target_type":"capability","relationship_type":"supports","min_connections":1}`,
		},
		{
			name:     "traceability missing relationship type",
			ruleType: RuleTypeTraceability,
			logic:    `{"source_type":"goal","target_type":"capability","min_connections":1}`,
			wantErr:  true,
		},
		{
			name:     "traceability zero min connections",
			ruleType: RuleTypeTraceability,
			logic:    `{"source_type":"goal","target_type":"capability","relationship_type":"supports","min_connections":0}`,
			wantErr:  true,
		},
		{
			name:     "valid completeness",
			ruleType: RuleTypeCompleteness,
			logic:    `{"element_type":"capability","required_fields":["name"],"min_count":1}`,
		},
		{
			name:     "completeness without optional fields",
			ruleType: RuleTypeCompleteness,
			logic:    `{"element_type":"capability"}`,
		},
		{
			name:     "valid alignment",
			ruleType: RuleTypeAlignment,
			logic:    `{"source_layer":"motivation","target_layer":"business","alignment_criteria":{"name_similarity":0.5,"semantic_matching":true}}`,
		},
		{
			name:     "alignment threshold out of range",
			ruleType: RuleTypeAlignment,
			logic:    `{"source_layer":"motivation","target_layer":"business","alignment_criteria":{"name_similarity":1.5}}`,
			wantErr:  true,
		},
		{
			name:     "unknown rule type",
			ruleType: RuleType("structural"),
			logic:    `{}`,
			wantErr:  true,
		},
		{
			name:     "invalid json",
			ruleType: RuleTypeTraceability,
			logic:    `{"source_type":`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRuleLogic(tt.ruleType, json.RawMessage(tt.logic))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedRule)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDecodeLogic_TaggedUnion(t *testing.T) {
	rule := &ValidationRule{
		RuleType:  RuleTypeTraceability,
		RuleLogic: json.RawMessage(`{"source_type":"goal","target_type":"capability","relationship_type":"supports","min_connections":2}`),
	}

	logic, err := rule.DecodeLogic()
	require.NoError(t, err)
	require.NotNil(t, logic.Traceability)
	assert.Nil(t, logic.Completeness)
	assert.Nil(t, logic.Alignment)
	assert.Equal(t, "goal", logic.Traceability.SourceType)
	assert.Equal(t, 2, logic.Traceability.MinConnections)
}

func TestDecodeLogic_RejectsMismatchedShape(t *testing.T) {
	rule := &ValidationRule{
		RuleType:  RuleTypeCompleteness,
		RuleLogic: json.RawMessage(`{"source_type":"goal"}`),
	}

	_, err := rule.DecodeLogic()
	require.ErrorIs(t, err, ErrMalformedRule)
}

func TestSeverityWeight(t *testing.T) {
	assert.Equal(t, 4, SeverityCritical.Weight())
	assert.Equal(t, 3, SeverityHigh.Weight())
	assert.Equal(t, 2, SeverityMedium.Weight())
	assert.Equal(t, 1, SeverityLow.Weight())
	assert.Equal(t, 1, Severity("unknown").Weight())
}
