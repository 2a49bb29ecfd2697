package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExceptionSuppresses(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name      string
		exception ValidationException
		ruleID    string
		want      bool
	}{
		{
			name:      "entity match, all rules",
			exception: ValidationException{EntityType: "goal", EntityID: "g1"},
			ruleID:    "r1",
			want:      true,
		},
		{
			name:      "entity match, matching rule",
			exception: ValidationException{EntityType: "goal", EntityID: "g1", RuleID: "r1"},
			ruleID:    "r1",
			want:      true,
		},
		{
			name:      "entity match, different rule",
			exception: ValidationException{EntityType: "goal", EntityID: "g1", RuleID: "r2"},
			ruleID:    "r1",
			want:      false,
		},
		{
			name:      "future expiry still suppresses",
			exception: ValidationException{EntityType: "goal", EntityID: "g1", ExpiresAt: &future},
			ruleID:    "r1",
			want:      true,
		},
		{
			name:      "past expiry never suppresses",
			exception: ValidationException{EntityType: "goal", EntityID: "g1", ExpiresAt: &past},
			ruleID:    "r1",
			want:      false,
		},
		{
			name:      "different entity",
			exception: ValidationException{EntityType: "goal", EntityID: "g2"},
			ruleID:    "r1",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.exception.Suppresses(tt.ruleID, "goal", "g1", now))
		})
	}
}

func TestExceptionExpiredAt(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)

	assert.False(t, (&ValidationException{}).ExpiredAt(now))
	assert.True(t, (&ValidationException{ExpiresAt: &past}).ExpiredAt(now))
}
