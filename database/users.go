// Cat-Corner/database/users.go
package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meeshellyo/Cat-Corner/models"
	"github.com/meeshellyo/Cat-Corner/utils"
	"golang.org/x/crypto/bcrypt"
)

// CreateUser registers a new account with a bcrypt-hashed password.
func (ds *DatabaseService) CreateUser(username, email, password string) (int64, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hashing password: %w", err)
	}

	res, err := ds.DB.Exec(
		"INSERT INTO users (username, email, hashed_pass, role, created_at) VALUES (?, ?, ?, ?, ?)",
		username, strings.ToLower(email), string(hashed), models.RoleRegistered, utils.GetSQLTime())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrDuplicateUser
		}
		return 0, fmt.Errorf("inserting user: %w", err)
	}
	return res.LastInsertId()
}

// Authenticate verifies credentials and returns the user. Suspended
// accounts fail authentication.
func (ds *DatabaseService) Authenticate(username, password string) (*models.User, error) {
	var u models.User
	var hashed string
	err := ds.DB.QueryRow(
		"SELECT id, username, email, hashed_pass, display_name, avatar, role, suspended, created_at FROM users WHERE username = ?",
		username).Scan(&u.ID, &u.Username, &u.Email, &hashed, &u.DisplayName, &u.Avatar, &u.Role, &u.Suspended, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error fetching user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)); err != nil {
		return nil, ErrNotFound
	}
	if u.Suspended {
		return nil, fmt.Errorf("account suspended")
	}
	return &u, nil
}

// GetUserByID fetches a single account.
func (ds *DatabaseService) GetUserByID(id int64) (*models.User, error) {
	var u models.User
	err := ds.DB.QueryRow(
		"SELECT id, username, email, display_name, avatar, role, suspended, created_at FROM users WHERE id = ?",
		id).Scan(&u.ID, &u.Username, &u.Email, &u.DisplayName, &u.Avatar, &u.Role, &u.Suspended, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error fetching user %d: %w", id, err)
	}
	return &u, nil
}

// UpdateProfile sets the display name and avatar for a user.
func (ds *DatabaseService) UpdateProfile(userID int64, displayName, avatar string) error {
	_, err := ds.DB.Exec("UPDATE users SET display_name = ?, avatar = ? WHERE id = ?", displayName, avatar, userID)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return nil
}

// SetUserRole changes a user's role by username. Only registered and
// moderator are assignable through this path; admin accounts are
// provisioned out of band.
func (ds *DatabaseService) SetUserRole(adminID int64, username string, role models.Role) error {
	if role != models.RoleRegistered && role != models.RoleModerator {
		return fmt.Errorf("role %q is not assignable", role)
	}
	res, err := ds.DB.Exec("UPDATE users SET role = ? WHERE username = ? AND role != ?",
		role, username, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("updating role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	ds.logger.Info("User role changed", "admin_id", adminID, "username", username, "role", role)
	return nil
}

// --- Sessions ---

// CreateSession issues an opaque session token for a user.
func (ds *DatabaseService) CreateSession(userID int64, ttl time.Duration) (string, error) {
	token := uuid.New().String()
	now := utils.GetSQLTime()
	_, err := ds.DB.Exec("INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)",
		token, userID, now, now.Add(ttl))
	if err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return token, nil
}

// GetSessionUser resolves a session token to its user. Expired sessions
// and suspended accounts resolve to nothing.
func (ds *DatabaseService) GetSessionUser(token string) (*models.User, error) {
	var u models.User
	err := ds.DB.QueryRow(`
		SELECT u.id, u.username, u.email, u.display_name, u.avatar, u.role, u.suspended, u.created_at
		FROM sessions s JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > ? AND u.suspended = 0`,
		token, utils.GetSQLTime()).Scan(&u.ID, &u.Username, &u.Email, &u.DisplayName, &u.Avatar, &u.Role, &u.Suspended, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error resolving session: %w", err)
	}
	return &u, nil
}

// DeleteSession removes a session token (logout).
func (ds *DatabaseService) DeleteSession(token string) error {
	_, err := ds.DB.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// PruneSessions removes expired sessions. Called periodically from main.
func (ds *DatabaseService) PruneSessions() (int64, error) {
	res, err := ds.DB.Exec("DELETE FROM sessions WHERE expires_at <= ?", utils.GetSQLTime())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
