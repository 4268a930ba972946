// Package repo contains all database access for the venue till. Each store
// has an interface and a Postgres implementation; no business logic lives
// here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("repo: not found")
	// ErrDuplicate is returned on a unique constraint violation.
	ErrDuplicate = errors.New("repo: duplicate key")
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and
// pgx.Tx, so tests can pass a transaction for per-test isolation.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// User is a staff account. Accounts are created by an admin and never updated
// or deleted by this service.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// UserRepo defines the persistence operations for staff accounts.
type UserRepo interface {
	// Create inserts a new user. Returns ErrDuplicate when the username is taken.
	Create(ctx context.Context, username, passwordHash string, isAdmin bool) (User, error)

	// GetByUsername retrieves a user by unique username.
	// Returns ErrNotFound when no such user exists.
	GetByUsername(ctx context.Context, username string) (User, error)
}

type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

func (r *pgUserRepo) Create(ctx context.Context, username, passwordHash string, isAdmin bool) (User, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, is_admin)
		VALUES ($1, $2, $3)
		RETURNING id, username, password_hash, is_admin, created_at`,
		strings.TrimSpace(username), passwordHash, isAdmin,
	)
	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrDuplicate
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *pgUserRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, username, password_hash, is_admin, created_at
		FROM users
		WHERE username = $1`,
		strings.TrimSpace(username),
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user by username: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id        pgtype.UUID
		user      User
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &user.Username, &user.PasswordHash, &user.IsAdmin, &createdAt); err != nil {
		return User{}, err
	}
	user.ID = uuidString(id)
	user.CreatedAt = timeFromPG(createdAt)
	return user, nil
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	u, err := uuid.FromBytes(id.Bytes[:])
	if err != nil {
		return ""
	}
	return u.String()
}

func timeFromPG(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time
}
