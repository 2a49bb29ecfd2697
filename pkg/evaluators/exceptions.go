package evaluators

import (
	"time"

	"github.com/reqarchitect/validation/pkg/models"
)

// ExceptionIndex answers suppression checks against the exception snapshot
// taken at cycle start. The evaluation instant is fixed so an exception
// expiring mid-cycle behaves consistently across rules.
type ExceptionIndex struct {
	exceptions []*models.ValidationException
	now        time.Time
}

// NewExceptionIndex builds an index over the given exceptions, evaluated at
// the given instant.
func NewExceptionIndex(exceptions []*models.ValidationException, now time.Time) *ExceptionIndex {
	return &ExceptionIndex{exceptions: exceptions, now: now}
}

// Suppressed reports whether an active, non-expired exception whitelists the
// (rule, entity) pair.
func (idx *ExceptionIndex) Suppressed(ruleID, entityType, entityID string) bool {
	for _, exception := range idx.exceptions {
		if exception.Suppresses(ruleID, entityType, entityID, idx.now) {
			return true
		}
	}

	return false
}

// Len returns the number of indexed exceptions, expired ones included.
func (idx *ExceptionIndex) Len() int {
	return len(idx.exceptions)
}
