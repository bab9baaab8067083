package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors surfaced to services for constraint-driven outcomes.
var (
	// ErrCodeConsumed reports that the attendee code's availability
	// compare-and-set matched no row: someone else already consumed it.
	ErrCodeConsumed = errors.New("attendee code already consumed")

	// ErrDuplicateReview reports the (evaluator, submission) unique
	// constraint rejecting a second review.
	ErrDuplicateReview = errors.New("review already exists for evaluator and submission")

	// ErrDuplicateAssignment reports the (event, evaluator) unique
	// constraint rejecting a second invitation.
	ErrDuplicateAssignment = errors.New("evaluator already invited to event")
)

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
