// Package users defines the user record and the ports used to store, cache
// and serve it.
package users

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mocks/mock_users.go -package=mocks github.com/damianoneill/user-service/pkg/domain/users Repository,Cache,Service

// User is a stored user. Users are never updated after creation.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUser is the input for creating a user.
type NewUser struct {
	Username string
	Email    string
}

// Repository persists users. Errors are translated to the database package
// sentinels: ErrUnavailable, ErrConstraintViolation and ErrNotFound.
type Repository interface {
	// List returns every user ordered by id.
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, u NewUser) (User, error)
	Get(ctx context.Context, id int64) (User, error)
}

// Cache holds users by id.
type Cache interface {
	Get(id int64) (User, bool)
	Set(u User)
	Close()
}

// Service is the application API behind the /users routes.
type Service interface {
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, u NewUser) (User, error)
	Get(ctx context.Context, id int64) (User, error)
}
