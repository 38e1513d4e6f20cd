package domain

import "errors"

// ErrUnknownGroup is returned when the sequence references a label that has no items and was never declared.
var ErrUnknownGroup = errors.New("unknown group")

// ErrOrphanedGroup is returned when items belong to a group the sequence never references.
var ErrOrphanedGroup = errors.New("orphaned group")

// ErrDuplicateReference is returned when the sequence references the same group more than once.
var ErrDuplicateReference = errors.New("group referenced more than once")

// ErrPlanNotFound is returned when a plan ID cannot be found in the store.
var ErrPlanNotFound = errors.New("plan not found")

// ErrFieldNotFound is returned when a form field has no validator in the requested group.
var ErrFieldNotFound = errors.New("field not found")

// ErrPlanMismatch is returned when replaying a stored plan does not reproduce the same order.
var ErrPlanMismatch = errors.New("replayed plan does not match stored plan")
