package telemetry

// Status is the export state machine's current state.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusValidating Status = "validating"
	StatusPreparing  Status = "preparing"
	StatusRendering  Status = "rendering"
	StatusEncoding   Status = "encoding"
	StatusFinalizing Status = "finalizing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether the status ends a run.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsActive reports whether a run in this status is still in flight.
func (s Status) IsActive() bool {
	switch s {
	case StatusValidating, StatusPreparing, StatusRendering, StatusEncoding, StatusFinalizing:
		return true
	default:
		return false
	}
}

func (s Status) String() string { return string(s) }

// Valid reports whether s names a known state.
func (s Status) Valid() bool {
	return s == StatusIdle || s.IsActive() || s.IsTerminal()
}
