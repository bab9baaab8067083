package models

import "time"

// Event is an externally-listed event registered for document collection.
// Metadata (name, venue, dates) lives with the provider; only the windows
// and the owning organizer are stored locally.
type Event struct {
	ID              string     `db:"id" json:"id"`
	EBEventID       string     `db:"eb_event_id" json:"eb_event_id"`
	OrganizerID     string     `db:"organizer_id" json:"organizer_id"`
	InitSubmission  time.Time  `db:"init_submission" json:"init_submission"`
	EndSubmission   time.Time  `db:"end_submission" json:"end_submission"`
	StartEvaluation *time.Time `db:"start_evaluation" json:"start_evaluation,omitempty"`
	EndEvaluation   *time.Time `db:"end_evaluation" json:"end_evaluation,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// EventMetadata mirrors the fields consumed from the event-listing provider.
type EventMetadata struct {
	ExternalID  string    `json:"external_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	LogoURL     string    `json:"logo_url"`
	Venue       string    `json:"venue"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// EventView is an Event decorated with provider metadata for responses.
type EventView struct {
	Event
	Metadata *EventMetadata `json:"metadata,omitempty"`
}

// RegisterEventRequest registers an external event for document collection.
type RegisterEventRequest struct {
	EBEventID      string    `json:"eb_event_id" validate:"required"`
	InitSubmission time.Time `json:"init_submission" validate:"required"`
	EndSubmission  time.Time `json:"end_submission" validate:"required"`
}

// SubmissionWindowRequest updates the submission date range.
type SubmissionWindowRequest struct {
	InitSubmission time.Time `json:"init_submission" validate:"required"`
	EndSubmission  time.Time `json:"end_submission" validate:"required"`
}

// EvaluationWindowRequest updates the evaluation date range.
type EvaluationWindowRequest struct {
	StartEvaluation time.Time `json:"start_evaluation" validate:"required"`
	EndEvaluation   time.Time `json:"end_evaluation" validate:"required"`
}
