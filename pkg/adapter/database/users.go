package database

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"

	"github.com/damianoneill/user-service/pkg/domain/database"
	"github.com/damianoneill/user-service/pkg/domain/users"
)

// UsersSchema creates the users table. It is safe to run on every start.
const UsersSchema = `CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    username VARCHAR(50) UNIQUE NOT NULL,
    email VARCHAR(100) UNIQUE NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

const (
	listUsersSQL  = `SELECT id, username, email, created_at FROM users ORDER BY id`
	getUserSQL    = `SELECT id, username, email, created_at FROM users WHERE id = $1`
	createUserSQL = `INSERT INTO users (username, email) VALUES ($1, $2) RETURNING id, username, email, created_at`
)

// UserRepository stores users in PostgreSQL. Each call holds one pooled
// connection for the duration of a single statement.
type UserRepository struct {
	db database.Runner
}

var _ users.Repository = (*UserRepository)(nil)

func NewUserRepository(db database.Runner) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context) ([]users.User, error) {
	var out []users.User
	err := r.db.WithConn(ctx, func(ctx context.Context, conn database.Conn) error {
		rows, err := conn.Query(ctx, listUsersSQL)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, scanUser)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", translate(err))
	}
	if out == nil {
		out = []users.User{}
	}
	return out, nil
}

func (r *UserRepository) Create(ctx context.Context, u users.NewUser) (users.User, error) {
	var created users.User
	err := r.db.WithConn(ctx, func(ctx context.Context, conn database.Conn) error {
		return scanInto(conn.QueryRow(ctx, createUserSQL, u.Username, u.Email), &created)
	})
	if err != nil {
		return users.User{}, fmt.Errorf("creating user: %w", translate(err))
	}
	return created, nil
}

// Get returns ErrNotFound without a round trip for ids outside the SERIAL
// (int4) range, which pgx would refuse to encode.
func (r *UserRepository) Get(ctx context.Context, id int64) (users.User, error) {
	if id < math.MinInt32 || id > math.MaxInt32 {
		return users.User{}, fmt.Errorf("getting user %d: %w", id, database.ErrNotFound)
	}

	var u users.User
	err := r.db.WithConn(ctx, func(ctx context.Context, conn database.Conn) error {
		return scanInto(conn.QueryRow(ctx, getUserSQL, id), &u)
	})
	if err != nil {
		return users.User{}, fmt.Errorf("getting user %d: %w", id, translate(err))
	}
	return u, nil
}

func scanUser(row pgx.CollectableRow) (users.User, error) {
	var u users.User
	err := scanInto(row, &u)
	return u, err
}

func scanInto(row pgx.Row, u *users.User) error {
	return row.Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
}
