package bootstrap

import (
	"context"

	domainconfig "github.com/damianoneill/user-service/pkg/domain/config"
	"github.com/damianoneill/user-service/pkg/domain/database"
	domainhttp "github.com/damianoneill/user-service/pkg/domain/http"
	domainlog "github.com/damianoneill/user-service/pkg/domain/logging"
	domainmetrics "github.com/damianoneill/user-service/pkg/domain/metrics"
	domaintracing "github.com/damianoneill/user-service/pkg/domain/tracing"
	"github.com/damianoneill/user-service/pkg/domain/users"
)

// ConfigFileEnv names the environment variable holding the optional YAML
// config file path.
const ConfigFileEnv = "USER_SERVICE_CONFIG"

// Dependencies contains all external dependencies required by the service.
type Dependencies struct {
	ConfigFactory   domainconfig.Factory
	LoggerFactory   domainlog.Factory
	RouterFactory   domainhttp.Factory
	TracerFactory   domaintracing.Factory
	MetricsFactory  domainmetrics.Factory
	DatabaseFactory database.Factory

	// NewUserRepository binds the user store to the managed pool.
	NewUserRepository func(db database.Runner) users.Repository

	// NewUserCache is optional. It is not called when caching is disabled.
	NewUserCache func(maxCost int64) (users.Cache, error)
}

// ServerHooks replaces the server's blocking calls, for tests.
type ServerHooks struct {
	ListenAndServe func() error
	Shutdown       func(context.Context) error
}

// Options configures the bootstrap service.
type Options struct {
	ServiceName string

	// ConfigFile is a YAML file layered over the defaults. Empty means the
	// value of USER_SERVICE_CONFIG, if any.
	ConfigFile string

	// ConfigDefaults override entries of DefaultSettings.
	ConfigDefaults map[string]interface{}

	// EnableConfigViewer mounts the masked config at /internal/config.
	EnableConfigViewer bool

	// EnableLogConfig mounts the runtime level endpoint at /internal/logging.
	EnableLogConfig bool

	// Schema statements run once on the new pool.
	Schema []string

	ExcludeFromLogging []string
	ExcludeFromTracing []string
}
