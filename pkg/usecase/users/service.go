// Package users implements the user listing, creation and lookup use cases
// with read-through caching and business metrics.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/damianoneill/user-service/pkg/domain/database"
	"github.com/damianoneill/user-service/pkg/domain/logging"
	"github.com/damianoneill/user-service/pkg/domain/metrics"
	"github.com/damianoneill/user-service/pkg/domain/users"
)

// Service implements users.Service over a repository.
type Service struct {
	repo     users.Repository
	cache    users.Cache
	recorder metrics.Recorder
	logger   logging.Logger
}

var _ users.Service = (*Service)(nil)

// NewService returns a Service. cache and recorder may be nil.
func NewService(repo users.Repository, cache users.Cache, recorder metrics.Recorder, logger logging.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return &Service{repo: repo, cache: cache, recorder: recorder, logger: logger}, nil
}

// List returns every user and records the count as the active user gauge.
func (s *Service) List(ctx context.Context) ([]users.User, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		s.dbFailure(ctx, "Failed to fetch users", err)
		return nil, err
	}

	s.recorder.SetActiveUsers(len(all))
	s.recorder.UserRead()
	return all, nil
}

// Create inserts a user. The new row is cached.
func (s *Service) Create(ctx context.Context, u users.NewUser) (users.User, error) {
	created, err := s.repo.Create(ctx, u)
	if err != nil {
		s.dbFailure(ctx, "Failed to create user", err)
		return users.User{}, err
	}

	if s.cache != nil {
		s.cache.Set(created)
	}
	s.recorder.UserCreated()
	s.recorder.IncActiveUsers()

	s.logger.WithContext(ctx).InfoWith("User created", logging.Fields{
		"user_id":  created.ID,
		"username": created.Username,
	})
	return created, nil
}

// Get returns one user, from the cache when possible.
func (s *Service) Get(ctx context.Context, id int64) (users.User, error) {
	if s.cache != nil {
		if u, ok := s.cache.Get(id); ok {
			s.recorder.UserRead()
			return u, nil
		}
	}

	u, err := s.repo.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			s.dbFailure(ctx, "Failed to fetch user", err)
		}
		return users.User{}, err
	}

	if s.cache != nil {
		s.cache.Set(u)
	}
	s.recorder.UserRead()
	return u, nil
}

// dbFailure counts err by type and logs it. Duplicate keys are client
// errors and logged as warnings.
func (s *Service) dbFailure(ctx context.Context, msg string, err error) {
	errorType := database.ErrorType(err)
	s.recorder.DBError(errorType)

	fields := logging.Fields{
		"error":      err.Error(),
		"error_type": errorType,
	}
	logger := s.logger.WithContext(ctx)
	if errors.Is(err, database.ErrConstraintViolation) {
		logger.WarnWith(msg, fields)
		return
	}
	logger.ErrorWith(msg, fields)
}
