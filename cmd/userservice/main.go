// Command userservice serves the user API with probes, metrics and tracing.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/damianoneill/user-service/pkg/adapter/cache"
	"github.com/damianoneill/user-service/pkg/adapter/config"
	"github.com/damianoneill/user-service/pkg/adapter/database"
	httpadapter "github.com/damianoneill/user-service/pkg/adapter/http"
	"github.com/damianoneill/user-service/pkg/adapter/logging"
	"github.com/damianoneill/user-service/pkg/adapter/metrics"
	"github.com/damianoneill/user-service/pkg/adapter/tracing"
	domaindb "github.com/damianoneill/user-service/pkg/domain/database"
	"github.com/damianoneill/user-service/pkg/domain/users"
	"github.com/damianoneill/user-service/pkg/usecase/bootstrap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "user-service: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	deps := bootstrap.Dependencies{
		ConfigFactory:   config.NewFactory(),
		LoggerFactory:   logging.NewFactory(),
		RouterFactory:   httpadapter.NewFactory(),
		TracerFactory:   tracing.NewFactory(),
		MetricsFactory:  metrics.NewMetricsFactory(),
		DatabaseFactory: database.NewFactory(),
		NewUserRepository: func(db domaindb.Runner) users.Repository {
			return database.NewUserRepository(db)
		},
		NewUserCache: func(maxCost int64) (users.Cache, error) {
			return cache.New(maxCost)
		},
	}

	svc, err := bootstrap.NewService(bootstrap.Options{
		ServiceName:        "user-service",
		EnableLogConfig:    true,
		EnableConfigViewer: true,
		Schema:             []string{database.UsersSchema},
	}, deps, nil)
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}

	httpadapter.NewUserHandler(svc.Users(), svc.Logger()).Register(svc.Router())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- svc.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			_ = svc.Shutdown(context.Background())
			return err
		}
	case <-ctx.Done():
		svc.Logger().Info("Received shutdown signal")
	}

	return svc.Shutdown(context.Background())
}
