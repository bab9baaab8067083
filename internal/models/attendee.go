package models

import "time"

// Attendee is an external identity captured when the provider reports an
// order or the landing flow resolves a code holder.
type Attendee struct {
	ID             string    `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	Name           string    `db:"name" json:"name"`
	ExternalUserID string    `db:"external_user_id" json:"external_user_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// AttendeeCode is a single-use token gating the public submission form for
// one (attendee, event) pair. Available flips to false exactly once, with a
// compare-and-set, when a complete submission batch succeeds.
type AttendeeCode struct {
	ID         string    `db:"id" json:"id"`
	Code       string    `db:"code" json:"code"`
	AttendeeID string    `db:"attendee_id" json:"attendee_id"`
	EventID    string    `db:"event_id" json:"event_id"`
	Available  bool      `db:"available" json:"available"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
