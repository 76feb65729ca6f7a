package telemetry

import "time"

// EncoderMetrics are the figures the external encoder reports about itself on
// its status stream. They are independent of the frame-count progress.
type EncoderMetrics struct {
	Frame   int     `json:"frame,omitempty"`
	FPS     float64 `json:"fps,omitempty"`
	Bitrate string  `json:"bitrate,omitempty"`
	Speed   string  `json:"speed,omitempty"`
}

// ProgressInfo is a point-in-time view of an export run.
type ProgressInfo struct {
	Status         Status         `json:"status"`
	CurrentFrame   int            `json:"current_frame"`
	TotalFrames    int            `json:"total_frames"`
	DroppedFrames  int            `json:"dropped_frames"`
	Percent        float64        `json:"percent"`
	Elapsed        time.Duration  `json:"elapsed"`
	Remaining      time.Duration  `json:"remaining"`
	EstimatedTotal time.Duration  `json:"estimated_total"`
	FPS            float64        `json:"fps"`
	Operation      string         `json:"operation,omitempty"`
	Detail         string         `json:"detail,omitempty"`
	LastError      string         `json:"last_error,omitempty"`
	Suggestions    []string       `json:"suggestions,omitempty"`
	Encoder        EncoderMetrics `json:"encoder"`
}

// Clone returns a deep copy safe to hand to observers.
func (p ProgressInfo) Clone() ProgressInfo {
	if p.Suggestions != nil {
		p.Suggestions = append([]string(nil), p.Suggestions...)
	}
	return p
}
