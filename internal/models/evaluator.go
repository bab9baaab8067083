package models

import "time"

// InvitationStatus is the assignment state of an evaluator for an event.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

// Evaluator is shared across events; assignments link it to events.
type Evaluator struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// EvaluatorEvent is the invitation/assignment record linking an evaluator to
// an event. The invitation code is globally unique; emailed accept/decline
// links resolve the row by code alone.
type EvaluatorEvent struct {
	ID             string           `db:"id" json:"id"`
	EventID        string           `db:"event_id" json:"event_id"`
	EvaluatorID    string           `db:"evaluator_id" json:"evaluator_id"`
	Status         InvitationStatus `db:"status" json:"status"`
	InvitationCode string           `db:"invitation_code" json:"-"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// InviteEvaluatorRequest invites a person to evaluate an event's submissions.
type InviteEvaluatorRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// EvaluatorAssignment joins evaluator identity onto an assignment for listing.
type EvaluatorAssignment struct {
	EvaluatorEvent
	EvaluatorName  string `db:"evaluator_name" json:"evaluator_name"`
	EvaluatorEmail string `db:"evaluator_email" json:"evaluator_email"`
}
