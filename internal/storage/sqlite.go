// Package storage keeps accounts in a local SQLite file.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bomber/internal/account"
	"github.com/jason-s-yu/bomber/internal/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// AccountStore is an account.Store backed by SQLite.
type AccountStore struct {
	db *sql.DB
}

// Open creates or opens the database at dbPath, creating parent
// directories and running migrations.
func Open(dbPath string) (*AccountStore, error) {
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	s := &AccountStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}
	return s, nil
}

func (s *AccountStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password TEXT NOT NULL,
			games_played INTEGER NOT NULL DEFAULT 0,
			games_won INTEGER NOT NULL DEFAULT 0,
			total_score INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_users_total_score ON users(total_score DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *AccountStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *AccountStore) Create(ctx context.Context, user models.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password, games_played, games_won, total_score)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID.String(), user.Username, user.PasswordHash,
		user.Stats.GamesPlayed, user.Stats.GamesWon, user.Stats.TotalScore,
	)
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return account.ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("storage: cannot insert user: %w", err)
	}
	return nil
}

const selectUser = `SELECT id, username, password, games_played, games_won, total_score FROM users `

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (models.User, error) {
	var (
		u  models.User
		id string
	)
	err := row.Scan(&id, &u.Username, &u.PasswordHash,
		&u.Stats.GamesPlayed, &u.Stats.GamesWon, &u.Stats.TotalScore)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, account.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("storage: cannot scan user: %w", err)
	}
	u.ID, err = uuid.Parse(id)
	if err != nil {
		return models.User{}, fmt.Errorf("storage: bad user id %q: %w", id, err)
	}
	return u, nil
}

func (s *AccountStore) GetByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, selectUser+"WHERE id = ?", id.String()))
}

func (s *AccountStore) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, selectUser+"WHERE username = ?", username))
}

func (s *AccountStore) AddStats(ctx context.Context, id uuid.UUID, played, won, score int) (models.Stats, error) {
	var st models.Stats
	err := s.db.QueryRowContext(ctx, `
		UPDATE users
		SET games_played = games_played + ?,
		    games_won = games_won + ?,
		    total_score = total_score + ?
		WHERE id = ?
		RETURNING games_played, games_won, total_score`,
		played, won, score, id.String(),
	).Scan(&st.GamesPlayed, &st.GamesWon, &st.TotalScore)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Stats{}, account.ErrUserNotFound
	}
	if err != nil {
		return models.Stats{}, fmt.Errorf("storage: cannot update stats: %w", err)
	}
	return st, nil
}

func (s *AccountStore) TopByScore(ctx context.Context, offset, limit int) ([]models.User, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("storage: cannot count users: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		selectUser+"ORDER BY total_score DESC, username ASC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("storage: cannot query leaderboard: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u.Public())
	}
	return users, total, rows.Err()
}
