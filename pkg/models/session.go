package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle status of a build session.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionReset  SessionStatus = "reset"
)

// SessionSummary is the best-effort record kept for session listing.
// Persistence across process restarts is not guaranteed.
type SessionSummary struct {
	ID          uuid.UUID     `json:"id"`
	ProjectName string        `json:"project_name"`
	CreatedAt   time.Time     `json:"created_at"`
	Status      SessionStatus `json:"status"`
}

// BuildConfig holds the per-session script-generation parameters.
// Values start from server defaults and can be merged per session via
// update_model_config; unrecognized option keys are ignored.
type BuildConfig struct {
	// DestinationPath is the data connection path used in generated
	// LOAD FROM and STORE INTO statements.
	DestinationPath string `json:"destination_path"`

	// CalendarLanguage selects month/day labels for the master
	// calendar (en, de, fr, es, sv).
	CalendarLanguage string `json:"calendar_language"`

	// DateFormat is the script-level DateFormat declaration.
	DateFormat string `json:"date_format"`
}
