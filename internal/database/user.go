package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/bomber/internal/account"
	"github.com/jason-s-yu/bomber/internal/models"
)

const uniqueViolation = "23505"

// AccountStore keeps accounts in Postgres.
type AccountStore struct {
	db *pgxpool.Pool
}

func NewAccountStore(db *pgxpool.Pool) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Create(ctx context.Context, user models.User) error {
	q := `INSERT INTO users (id, username, password, games_played, games_won, total_score)
	      VALUES ($1, $2, $3, $4, $5, $6)`

	err := pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q,
			user.ID, user.Username, user.PasswordHash,
			user.Stats.GamesPlayed, user.Stats.GamesWon, user.Stats.TotalScore,
		)
		return execErr
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return account.ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

const selectUser = `
	SELECT id, username, password, games_played, games_won, total_score
	FROM users
`

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash,
		&u.Stats.GamesPlayed, &u.Stats.GamesWon, &u.Stats.TotalScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, account.ErrUserNotFound
	}
	return u, err
}

func (s *AccountStore) GetByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return scanUser(s.db.QueryRow(ctx, selectUser+`WHERE id=$1`, id))
}

func (s *AccountStore) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return scanUser(s.db.QueryRow(ctx, selectUser+`WHERE lower(username)=lower($1)`, username))
}

func (s *AccountStore) AddStats(ctx context.Context, id uuid.UUID, played, won, score int) (models.Stats, error) {
	q := `
	UPDATE users
	SET games_played = games_played + $1,
	    games_won    = games_won + $2,
	    total_score  = total_score + $3
	WHERE id=$4
	RETURNING games_played, games_won, total_score
	`
	var st models.Stats
	err := pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q, played, won, score, id).Scan(&st.GamesPlayed, &st.GamesWon, &st.TotalScore)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Stats{}, account.ErrUserNotFound
	}
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to update stats: %w", err)
	}
	return st, nil
}

func (s *AccountStore) TopByScore(ctx context.Context, offset, limit int) ([]models.User, int, error) {
	var total int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	rows, err := s.db.Query(ctx, selectUser+`ORDER BY total_score DESC, username LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query leaderboard: %w", err)
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
