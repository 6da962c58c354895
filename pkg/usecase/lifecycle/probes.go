package lifecycle

import (
	"context"

	"github.com/damianoneill/user-service/pkg/domain/database"
	"github.com/damianoneill/user-service/pkg/domain/health"
	domainhttp "github.com/damianoneill/user-service/pkg/domain/http"
	"github.com/damianoneill/user-service/pkg/domain/logging"
)

// ProbeHandlers returns the probe checks backed by m.
func (m *Manager) ProbeHandlers() *domainhttp.ProbeHandlers {
	return &domainhttp.ProbeHandlers{
		LivenessCheck:  m.Liveness,
		ReadinessCheck: m.Readiness,
		StartupCheck:   m.Startup,
	}
}

// Startup passes once Init has finished, whatever its outcome.
func (m *Manager) Startup(context.Context) domainhttp.ProbeResponse {
	if !m.State().Initialized() {
		return domainhttp.Failing("Service starting up", "")
	}
	return domainhttp.Passing("ok")
}

// Liveness always passes. It never touches the pool.
func (m *Manager) Liveness(context.Context) domainhttp.ProbeResponse {
	return domainhttp.Passing("healthy")
}

// Readiness runs a round trip against the store. Failure moves READY to
// DEGRADED and success moves DEGRADED back to READY; neither leaves
// STARTING.
func (m *Manager) Readiness(ctx context.Context) domainhttp.ProbeResponse {
	pool := m.current()
	if pool == nil {
		m.transition(health.Ready, health.Degraded)
		return domainhttp.Failing("Service not ready", ReasonDatabaseUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, m.opts.ReadinessTimeout)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		errorType := database.ErrorType(err)
		m.recorder.DBError(errorType)
		m.logger.WithContext(ctx).WarnWith("Readiness check failed", logging.Fields{
			"error":      err.Error(),
			"error_type": errorType,
		})
		m.transition(health.Ready, health.Degraded)
		return domainhttp.Failing("Service not ready", ReasonDatabaseUnreachable)
	}

	m.transition(health.Degraded, health.Ready)
	return domainhttp.ProbeResponse{Status: "ready", Database: "connected", OK: true}
}
