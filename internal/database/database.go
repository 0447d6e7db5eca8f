package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"acadgateway/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL UNIQUE,
	hashed_password TEXT NOT NULL,
	full_name TEXT NOT NULL DEFAULT '',
	phone_number TEXT NOT NULL DEFAULT '',
	is_active INTEGER NOT NULL DEFAULT 1,
	is_verified INTEGER NOT NULL DEFAULT 0,
	is_admin INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	last_login TIMESTAMP,
	whatsapp_phone TEXT NOT NULL DEFAULT '',
	whatsapp_account_id TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

CREATE TABLE IF NOT EXISTS system_settings (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	signup_enabled INTEGER NOT NULL DEFAULT 1,
	signup_requires_approval INTEGER NOT NULL DEFAULT 0,
	require_email_verification INTEGER NOT NULL DEFAULT 1,
	max_whatsapp_accounts_per_user INTEGER NOT NULL DEFAULT 1,
	email_notifications_enabled INTEGER NOT NULL DEFAULT 1,
	default_ai_provider TEXT NOT NULL DEFAULT 'OpenAI',
	ai_enabled INTEGER NOT NULL DEFAULT 1
);
`

// ErrUserNotFound is returned when a lookup matches no user.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken is returned when registering an email that already exists.
var ErrEmailTaken = errors.New("email already registered")

type Database struct {
	db *sql.DB
}

func New(dbPath string) (*Database, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("invalid database path")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// CreateUser inserts a new user and fills in its generated ID and
// timestamps.
func (d *Database) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (
			email, hashed_password, full_name, phone_number,
			is_active, is_verified, is_admin, created_at, updated_at,
			whatsapp_phone, whatsapp_account_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := d.db.ExecContext(ctx, query,
		user.Email,
		user.HashedPassword,
		user.FullName,
		user.PhoneNumber,
		user.IsActive,
		user.IsVerified,
		user.IsAdmin,
		user.CreatedAt,
		user.UpdatedAt,
		user.WhatsAppPhone,
		user.WhatsAppAccountID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	user.ID = int(id)
	return nil
}

// GetUserByEmail returns the user with the given email.
func (d *Database) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, hashed_password, full_name, phone_number,
			is_active, is_verified, is_admin, created_at, updated_at,
			last_login, whatsapp_phone, whatsapp_account_id
		FROM users WHERE email = ?
	`

	var user models.User
	var lastLogin sql.NullTime
	err := d.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.HashedPassword,
		&user.FullName,
		&user.PhoneNumber,
		&user.IsActive,
		&user.IsVerified,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
		&lastLogin,
		&user.WhatsAppPhone,
		&user.WhatsAppAccountID,
	)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return &user, nil
}

// UpdateLastLogin records a successful login timestamp for the user.
func (d *Database) UpdateLastLogin(ctx context.Context, userID int) error {
	now := time.Now().UTC()
	_, err := d.db.ExecContext(ctx,
		`UPDATE users SET last_login = ?, updated_at = ? WHERE id = ?`,
		now, now, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// GetSystemSettings returns the stored settings row, seeding the
// defaults on first access.
func (d *Database) GetSystemSettings(ctx context.Context) (*models.SystemSettings, error) {
	query := `
		SELECT id, signup_enabled, signup_requires_approval,
			require_email_verification, max_whatsapp_accounts_per_user,
			email_notifications_enabled, default_ai_provider, ai_enabled
		FROM system_settings WHERE id = 1
	`

	var s models.SystemSettings
	err := d.db.QueryRowContext(ctx, query).Scan(
		&s.ID,
		&s.SignupEnabled,
		&s.SignupRequiresApproval,
		&s.RequireEmailVerification,
		&s.MaxWhatsAppAccountsPerUser,
		&s.EmailNotificationsEnabled,
		&s.DefaultAIProvider,
		&s.AIEnabled,
	)
	if err == sql.ErrNoRows {
		defaults := models.DefaultSystemSettings()
		if err := d.saveSystemSettings(ctx, &defaults); err != nil {
			return nil, err
		}
		return &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get system settings: %w", err)
	}
	return &s, nil
}

func (d *Database) saveSystemSettings(ctx context.Context, s *models.SystemSettings) error {
	query := `
		INSERT INTO system_settings (
			id, signup_enabled, signup_requires_approval,
			require_email_verification, max_whatsapp_accounts_per_user,
			email_notifications_enabled, default_ai_provider, ai_enabled
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			signup_enabled = excluded.signup_enabled,
			signup_requires_approval = excluded.signup_requires_approval,
			require_email_verification = excluded.require_email_verification,
			max_whatsapp_accounts_per_user = excluded.max_whatsapp_accounts_per_user,
			email_notifications_enabled = excluded.email_notifications_enabled,
			default_ai_provider = excluded.default_ai_provider,
			ai_enabled = excluded.ai_enabled
	`

	_, err := d.db.ExecContext(ctx, query,
		s.SignupEnabled,
		s.SignupRequiresApproval,
		s.RequireEmailVerification,
		s.MaxWhatsAppAccountsPerUser,
		s.EmailNotificationsEnabled,
		s.DefaultAIProvider,
		s.AIEnabled,
	)
	if err != nil {
		return fmt.Errorf("failed to save system settings: %w", err)
	}
	return nil
}

// UpdateSystemSettings replaces the stored settings row.
func (d *Database) UpdateSystemSettings(ctx context.Context, s *models.SystemSettings) error {
	s.ID = 1
	return d.saveSystemSettings(ctx, s)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
