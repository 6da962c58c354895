package users_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/damianoneill/user-service/pkg/domain/database"
	"github.com/damianoneill/user-service/pkg/domain/logging"
	logmocks "github.com/damianoneill/user-service/pkg/domain/logging/mocks"
	metricsmocks "github.com/damianoneill/user-service/pkg/domain/metrics/mocks"
	"github.com/damianoneill/user-service/pkg/domain/users"
	usermocks "github.com/damianoneill/user-service/pkg/domain/users/mocks"
	usecase "github.com/damianoneill/user-service/pkg/usecase/users"
)

type deps struct {
	repo     *usermocks.MockRepository
	cache    *usermocks.MockCache
	recorder *metricsmocks.MockRecorder
	logger   *logmocks.MockLogger
	svc      *usecase.Service
}

func newDeps(t *testing.T) *deps {
	t.Helper()
	ctrl := gomock.NewController(t)

	d := &deps{
		repo:     usermocks.NewMockRepository(ctrl),
		cache:    usermocks.NewMockCache(ctrl),
		recorder: metricsmocks.NewMockRecorder(ctrl),
		logger:   logmocks.NewMockLogger(ctrl),
	}
	d.logger.EXPECT().WithContext(gomock.Any()).Return(d.logger).AnyTimes()

	svc, err := usecase.NewService(d.repo, d.cache, d.recorder, d.logger)
	require.NoError(t, err)
	d.svc = svc
	return d
}

var alice = users.User{ID: 1, Username: "alice", Email: "a@x.com", CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}

func TestNewService(t *testing.T) {
	ctrl := gomock.NewController(t)

	_, err := usecase.NewService(nil, nil, nil, logmocks.NewMockLogger(ctrl))
	assert.Error(t, err)

	_, err = usecase.NewService(usermocks.NewMockRepository(ctrl), nil, nil, nil)
	assert.Error(t, err)

	svc, err := usecase.NewService(usermocks.NewMockRepository(ctrl), nil, nil, logmocks.NewMockLogger(ctrl))
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestService_List(t *testing.T) {
	t.Run("records active users", func(t *testing.T) {
		d := newDeps(t)
		d.repo.EXPECT().List(gomock.Any()).Return([]users.User{alice, {ID: 2}}, nil)
		d.recorder.EXPECT().SetActiveUsers(2)
		d.recorder.EXPECT().UserRead()

		got, err := d.svc.List(context.Background())
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("counts database errors", func(t *testing.T) {
		d := newDeps(t)
		cause := fmt.Errorf("listing users: %w", database.ErrUnavailable)
		d.repo.EXPECT().List(gomock.Any()).Return(nil, cause)
		d.recorder.EXPECT().DBError("unavailable")
		d.logger.EXPECT().ErrorWith("Failed to fetch users", gomock.Any()).Do(func(_ string, f logging.Fields) {
			assert.Equal(t, "unavailable", f["error_type"])
		})

		_, err := d.svc.List(context.Background())
		assert.ErrorIs(t, err, database.ErrUnavailable)
	})
}

func TestService_Create(t *testing.T) {
	t.Run("caches and counts", func(t *testing.T) {
		d := newDeps(t)
		d.repo.EXPECT().Create(gomock.Any(), users.NewUser{Username: "alice", Email: "a@x.com"}).Return(alice, nil)
		d.cache.EXPECT().Set(alice)
		d.recorder.EXPECT().UserCreated()
		d.recorder.EXPECT().IncActiveUsers()
		d.logger.EXPECT().InfoWith("User created", gomock.Any())

		got, err := d.svc.Create(context.Background(), users.NewUser{Username: "alice", Email: "a@x.com"})
		require.NoError(t, err)
		assert.Equal(t, alice, got)
	})

	t.Run("duplicate is a warning", func(t *testing.T) {
		d := newDeps(t)
		dup := fmt.Errorf("creating user: %w", database.ErrConstraintViolation)
		d.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(users.User{}, dup)
		d.recorder.EXPECT().DBError("constraint_violation")
		d.logger.EXPECT().WarnWith("Failed to create user", gomock.Any())

		_, err := d.svc.Create(context.Background(), users.NewUser{Username: "alice", Email: "a@x.com"})
		assert.ErrorIs(t, err, database.ErrConstraintViolation)
	})
}

func TestService_Get(t *testing.T) {
	t.Run("cache hit skips the repository", func(t *testing.T) {
		d := newDeps(t)
		d.cache.EXPECT().Get(int64(1)).Return(alice, true)
		d.recorder.EXPECT().UserRead()

		got, err := d.svc.Get(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, alice, got)
	})

	t.Run("cache miss reads through", func(t *testing.T) {
		d := newDeps(t)
		gomock.InOrder(
			d.cache.EXPECT().Get(int64(1)).Return(users.User{}, false),
			d.repo.EXPECT().Get(gomock.Any(), int64(1)).Return(alice, nil),
			d.cache.EXPECT().Set(alice),
		)
		d.recorder.EXPECT().UserRead()

		got, err := d.svc.Get(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, alice, got)
	})

	t.Run("not found is not a database error", func(t *testing.T) {
		d := newDeps(t)
		d.cache.EXPECT().Get(int64(999)).Return(users.User{}, false)
		d.repo.EXPECT().Get(gomock.Any(), int64(999)).Return(users.User{}, fmt.Errorf("getting user: %w", database.ErrNotFound))

		_, err := d.svc.Get(context.Background(), 999)
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	t.Run("internal error", func(t *testing.T) {
		d := newDeps(t)
		d.cache.EXPECT().Get(int64(3)).Return(users.User{}, false)
		d.repo.EXPECT().Get(gomock.Any(), int64(3)).Return(users.User{}, errors.New("boom"))
		d.recorder.EXPECT().DBError("internal")
		d.logger.EXPECT().ErrorWith("Failed to fetch user", gomock.Any())

		_, err := d.svc.Get(context.Background(), 3)
		assert.EqualError(t, err, "boom")
	})
}
