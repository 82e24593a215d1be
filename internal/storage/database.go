package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"    // Also registers the postgres driver
	_ "modernc.org/sqlite" // Registers the sqlite driver

	"github.com/conorfennell/wordquiz/internal/domain"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrDuplicate is returned when a unique key is already taken.
var ErrDuplicate = errors.New("duplicate key")

// DB wraps the SQL connection holding users and per-language documents.
type DB struct {
	conn *sqlx.DB
	now  func() time.Time
}

// Open connects with the given driver and ensures the schema is up to date.
func Open(driver, dsn string) (*DB, error) {
	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// A single connection keeps :memory: databases shared and avoids SQLITE_BUSY.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, stmt := range schema {
		if _, err := conn.Exec(stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return &DB{conn: conn, now: time.Now}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// User is a registered account.
type User struct {
	UID          string    `db:"uid"`
	Email        string    `db:"email"`
	DisplayName  string    `db:"display_name"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// InsertUser stores a new user. It returns ErrDuplicate when the uid or email is taken.
func (db *DB) InsertUser(ctx context.Context, u User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = db.now().UTC()
	}
	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO users (uid, email, display_name, password_hash, created_at)
		VALUES (:uid, :email, :display_name, :password_hash, :created_at)
	`, u)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", u.Email, ErrDuplicate)
		}
		return fmt.Errorf("failed to insert user %s: %w", u.Email, err)
	}
	return nil
}

// FindUserByEmail returns the user registered with email, or nil when there is none.
func (db *DB) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := db.conn.GetContext(ctx, &u, db.conn.Rebind(`
		SELECT uid, email, display_name, password_hash, created_at
		FROM users WHERE email = ?
	`), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to find user by email %s: %w", email, err)
	}
	return &u, nil
}

// FindUserByID returns the user with uid, or nil when there is none.
func (db *DB) FindUserByID(ctx context.Context, uid string) (*User, error) {
	var u User
	err := db.conn.GetContext(ctx, &u, db.conn.Rebind(`
		SELECT uid, email, display_name, password_hash, created_at
		FROM users WHERE uid = ?
	`), uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user %s: %w", uid, err)
	}
	return &u, nil
}

// GetDocument fetches the whole document of (userID, language). A pair that
// was never written yields the default document.
func (db *DB) GetDocument(ctx context.Context, userID, language string) (*domain.Document, error) {
	var body string
	err := db.conn.GetContext(ctx, &body, db.conn.Rebind(`
		SELECT body FROM documents WHERE user_id = ? AND language = ?
	`), userID, language)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewDocument(), nil
		}
		return nil, fmt.Errorf("failed to get document %s/%s: %w", userID, language, err)
	}

	var doc domain.Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s/%s: %w", userID, language, err)
	}
	return &doc, nil
}

// PutDocument replaces the whole document of (userID, language).
func (db *DB) PutDocument(ctx context.Context, userID, language string, doc *domain.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", userID, language, err)
	}
	_, err = db.conn.ExecContext(ctx, db.conn.Rebind(`
		INSERT INTO documents (user_id, language, body, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, language) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`), userID, language, string(body), db.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to put document %s/%s: %w", userID, language, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
