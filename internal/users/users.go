// Package users is the user directory: registration, login and the display
// identities (name, avatar) joined into chat and item responses. Passwords
// are stored as provided; hardening authentication is out of scope here.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"
)

var (
	// ErrEmailTaken is returned when registering with an existing email.
	ErrEmailTaken = errors.New("user already exists")
	// ErrInvalidCredentials is returned for a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when a user id resolves to nothing.
	ErrUserNotFound = errors.New("user not found")
)

// User is a stored account. Password never serializes.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Password  string    `json:"-" db:"password"`
	Avatar    string    `json:"avatar" db:"avatar"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// UserRepo handles database operations for users
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// FindByEmail returns the user with the given email, or nil.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	user := &User{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password, avatar, created_at
		FROM users WHERE email = $1
	`, email).Scan(&user.ID, &user.Email, &user.Name, &user.Password, &user.Avatar, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// GetByID returns the user with the given id, or nil.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	user := &User{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password, avatar, created_at
		FROM users WHERE id = $1
	`, id).Scan(&user.ID, &user.Email, &user.Name, &user.Password, &user.Avatar, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Insert stores a new user and returns it with the assigned id.
func (r *UserRepo) Insert(ctx context.Context, email, name, password, avatar string) (*User, error) {
	user := &User{Email: email, Name: name, Password: password, Avatar: avatar}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (email, name, password, avatar)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, email, name, password, avatar).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return user, nil
}

// UserService implements registration and login
type UserService struct {
	repo *UserRepo
}

// NewUserService creates a new user service
func NewUserService(db *sql.DB) *UserService {
	return &UserService{repo: NewUserRepo(db)}
}

// Register creates an account. The avatar defaults to a generated
// ui-avatars.com URL keyed on the display name.
func (s *UserService) Register(ctx context.Context, email, name, password string) (*User, error) {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	avatar := fmt.Sprintf("https://ui-avatars.com/api/?name=%s&background=random", url.QueryEscape(name))
	return s.repo.Insert(ctx, email, name, password, avatar)
}

// Login checks credentials and returns the account's public profile.
func (s *UserService) Login(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Password != password {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
