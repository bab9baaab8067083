package models

import "time"

// SubmissionKind tags the payload variant of a submission row.
type SubmissionKind string

const (
	SubmissionFile SubmissionKind = "FILE"
	SubmissionText SubmissionKind = "TEXT"
)

// SubmissionState is the stored lifecycle state of a submission.
type SubmissionState string

const (
	SubmissionPending   SubmissionState = "pending"
	SubmissionAccepted  SubmissionState = "accepted"
	SubmissionRejected  SubmissionState = "rejected"
	SubmissionEvaluated SubmissionState = "evaluated"
)

// Submission is one attendee-provided artifact satisfying one requirement.
// File and text variants share a row; Kind selects which payload columns
// and which requirement reference are populated.
type Submission struct {
	ID         string          `db:"id" json:"id"`
	EventID    string          `db:"event_id" json:"event_id"`
	AttendeeID string          `db:"attendee_id" json:"attendee_id"`
	Kind       SubmissionKind  `db:"kind" json:"kind"`
	FileDocID  *string         `db:"file_doc_id" json:"file_doc_id,omitempty"`
	TextDocID  *string         `db:"text_doc_id" json:"text_doc_id,omitempty"`
	FileName   *string         `db:"file_name" json:"file_name,omitempty"`
	FileHandle *string         `db:"file_handle" json:"-"`
	Content    *string         `db:"content" json:"content,omitempty"`
	State      SubmissionState `db:"state" json:"state"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// SubmissionRow joins list-view fields onto a submission.
type SubmissionRow struct {
	Submission
	AttendeeEmail string  `db:"attendee_email" json:"attendee_email"`
	AttendeeName  string  `db:"attendee_name" json:"attendee_name"`
	DocName       string  `db:"doc_name" json:"doc_name"`
	ReviewCount   int     `db:"review_count" json:"review_count"`
	MyVerdict     *bool   `db:"my_verdict" json:"-"`
	DisplayState  string  `db:"-" json:"display_state,omitempty"`
	ResultID      *string `db:"result_id" json:"result_id,omitempty"`
}

// SubmissionFilter captures list filters for submissions of an event.
type SubmissionFilter struct {
	Kind          SubmissionKind
	State         SubmissionState
	AttendeeEmail string
	Page          int
	PageSize      int
}

// FileUpload is one uploaded file as parsed from the multipart form.
type FileUpload struct {
	Name string
	Data []byte
}

// SubmissionInput is a full batch as posted by a code holder. Keys are
// requirement ids; the whole batch commits or nothing does.
type SubmissionInput struct {
	Code  string
	Files map[string][]FileUpload
	Texts map[string]string
}

// LandingPage is what the public code-gated page renders.
type LandingPage struct {
	Event            EventView `json:"event"`
	Attendee         Attendee  `json:"attendee"`
	Docs             EventDocs `json:"docs"`
	AlreadySubmitted bool      `json:"already_submitted"`
}
