package models

import "time"

// Review is one evaluator's decision on one submission. At most one review
// exists per (evaluator, submission); the unique constraint is the arbiter.
type Review struct {
	ID            string    `db:"id" json:"id"`
	SubmissionID  string    `db:"submission_id" json:"submission_id"`
	EvaluatorID   string    `db:"evaluator_id" json:"evaluator_id"`
	Approved      bool      `db:"approved" json:"approved"`
	Justification string    `db:"justification" json:"justification"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// ReviewRow joins evaluator identity onto a review for detail views.
type ReviewRow struct {
	Review
	EvaluatorName string `db:"evaluator_name" json:"evaluator_name"`
}

// ReviewRequest records an evaluator's decision on a submission.
type ReviewRequest struct {
	Approved      *bool  `json:"approved" validate:"required"`
	Justification string `json:"justification" validate:"required"`
}

// ResultRequest records the organizer's final decision on a submission.
type ResultRequest struct {
	Approved      *bool  `json:"approved" validate:"required"`
	Justification string `json:"justification"`
}

// Result is the organizer-level final decision on a submission, independent
// of individual reviews. One per submission.
type Result struct {
	ID            string    `db:"id" json:"id"`
	SubmissionID  string    `db:"submission_id" json:"submission_id"`
	Approved      bool      `db:"approved" json:"approved"`
	Justification string    `db:"justification" json:"justification"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
