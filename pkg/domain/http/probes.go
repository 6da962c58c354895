package http

import "context"

// ProbeResponse is the JSON body of a probe. Passing probes carry Status
// and optionally Database; failing ones carry Detail and Reason and are
// served with 503.
type ProbeResponse struct {
	Status   string `json:"status,omitempty"`
	Database string `json:"database,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Reason   string `json:"reason,omitempty"`

	// OK selects the HTTP status: 200 when true, 503 otherwise.
	OK bool `json:"-"`
}

// ProbeCheck performs a health check. It must respect ctx cancellation.
type ProbeCheck func(ctx context.Context) ProbeResponse

// ProbeHandlers back /health, /ready and /startup.
type ProbeHandlers struct {
	// LivenessCheck must not touch the database: a failure restarts the
	// container.
	LivenessCheck  ProbeCheck
	ReadinessCheck ProbeCheck
	StartupCheck   ProbeCheck
}

// DefaultProbeHandlers returns handlers that always succeed.
func DefaultProbeHandlers() *ProbeHandlers {
	return &ProbeHandlers{
		LivenessCheck:  func(context.Context) ProbeResponse { return Passing("healthy") },
		ReadinessCheck: func(context.Context) ProbeResponse { return Passing("ready") },
		StartupCheck:   func(context.Context) ProbeResponse { return Passing("ok") },
	}
}

// Passing returns a successful probe response with the given status.
func Passing(status string) ProbeResponse {
	return ProbeResponse{Status: status, OK: true}
}

// Failing returns a failed probe response. reason may be empty.
func Failing(detail, reason string) ProbeResponse {
	return ProbeResponse{Detail: detail, Reason: reason}
}
