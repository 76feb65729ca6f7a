package feed

import (
	"time"

	"lyricast/internal/preflight"
	"lyricast/internal/telemetry"
)

// Kind classifies an event.
type Kind string

const (
	KindProgress   Kind = "progress"
	KindStatus     Kind = "status"
	KindValidation Kind = "validation"
	KindError      Kind = "error"
)

// Event is one entry in the progress feed.
type Event struct {
	Sequence   uint64                       `json:"seq"`
	Time       time.Time                    `json:"ts"`
	RunID      string                       `json:"run_id,omitempty"`
	Kind       Kind                         `json:"kind"`
	Status     telemetry.Status             `json:"status"`
	Progress   telemetry.ProgressInfo       `json:"progress"`
	Validation []preflight.ValidationResult `json:"validation,omitempty"`
}

// Terminal reports whether the event carries a terminal status.
func (e Event) Terminal() bool {
	return e.Kind == KindStatus && e.Status.IsTerminal()
}
