package models

import "time"

// TextMeasure selects how text submission length is counted.
type TextMeasure string

const (
	MeasureWords      TextMeasure = "Words"
	MeasureCharacters TextMeasure = "Characters"
)

// FileType is a named allowed-extension tag (e.g. "PDF").
type FileType struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
}

// FileDoc is an organizer-defined file requirement for an event.
type FileDoc struct {
	ID         string     `db:"id" json:"id"`
	EventID    string     `db:"event_id" json:"event_id"`
	Name       string     `db:"name" json:"name"`
	Quantity   int        `db:"quantity" json:"quantity"`
	IsOptional bool       `db:"is_optional" json:"is_optional"`
	FileTypes  []FileType `json:"file_types,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// TextDoc is an organizer-defined text requirement for an event.
// Bounds are inclusive on both ends when matching submissions.
type TextDoc struct {
	ID          string      `db:"id" json:"id"`
	EventID     string      `db:"event_id" json:"event_id"`
	Name        string      `db:"name" json:"name"`
	Description string      `db:"description" json:"description"`
	IsOptional  bool        `db:"is_optional" json:"is_optional"`
	Measure     TextMeasure `db:"measure" json:"measure"`
	Min         int         `db:"min" json:"min"`
	Max         int         `db:"max" json:"max"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// EventDocs groups both requirement kinds for listing.
type EventDocs struct {
	FileDocs []FileDoc `json:"file_docs"`
	TextDocs []TextDoc `json:"text_docs"`
}

// FileTypeRequest adds an entry to the allowed-extension catalog.
type FileTypeRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// FileDocRequest creates or updates a file requirement.
type FileDocRequest struct {
	Name        string   `json:"name" validate:"required"`
	Quantity    int      `json:"quantity" validate:"required,min=1,max=99"`
	IsOptional  bool     `json:"is_optional"`
	FileTypeIDs []string `json:"file_type_ids" validate:"required,min=1"`
}

// TextDocRequest creates or updates a text requirement.
type TextDocRequest struct {
	Name        string      `json:"name" validate:"required"`
	Description string      `json:"description"`
	IsOptional  bool        `json:"is_optional"`
	Measure     TextMeasure `json:"measure" validate:"required,oneof=Words Characters"`
	Min         int         `json:"min" validate:"min=0"`
	Max         int         `json:"max" validate:"min=1"`
}
