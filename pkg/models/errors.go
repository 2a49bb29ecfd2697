package models

import "errors"

// ErrMalformedRule marks a rule whose rule_logic does not satisfy the schema
// of its rule type. Malformed rules are skipped during a cycle, never fatal.
var ErrMalformedRule = errors.New("malformed rule logic")
