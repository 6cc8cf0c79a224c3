package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"massiliafm/model"
)

// ErrDuplicateUser is returned when a user with the same email already
// exists.
var ErrDuplicateUser = errors.New("user already exists")

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(user *model.User) (int64, error)
	GetByID(id int64) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
}

// mysqlUserRepository implements UserRepository for MySQL.
type mysqlUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new mysqlUserRepository.
func NewMySQLUserRepository(db *sql.DB) UserRepository {
	return &mysqlUserRepository{db: db}
}

// Create adds a new user to the database. Emails are stored lowercased
// so lookups stay case-insensitive.
func (r *mysqlUserRepository) Create(user *model.User) (int64, error) {
	query := "INSERT INTO users (email, name, password_hash, role, is_active) VALUES (?, ?, ?, ?, ?)"
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare create user statement: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(strings.ToLower(user.Email), user.Name, user.PasswordHash, user.Role, user.IsActive)
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return 0, ErrDuplicateUser
		}
		return 0, fmt.Errorf("failed to execute create user statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}
	return id, nil
}

// GetByID retrieves a user by their ID. Returns nil when not found.
func (r *mysqlUserRepository) GetByID(id int64) (*model.User, error) {
	query := "SELECT id, email, name, password_hash, role, is_active, created_at, updated_at FROM users WHERE id = ?"
	row := r.db.QueryRow(query, id)
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan user row for ID %d: %w", id, err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email, matched case-insensitively.
// Returns nil when not found.
func (r *mysqlUserRepository) GetByEmail(email string) (*model.User, error) {
	query := "SELECT id, email, name, password_hash, role, is_active, created_at, updated_at FROM users WHERE LOWER(email) = LOWER(?)"
	row := r.db.QueryRow(query, strings.TrimSpace(email))
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan user row for email %s: %w", email, err)
	}
	return user, nil
}
