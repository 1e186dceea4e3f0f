// internal/account/service.go
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bomber/internal/auth"
	"github.com/jason-s-yu/bomber/internal/game"
	"github.com/jason-s-yu/bomber/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	MaxUsernameLength = 32
	MaxPageSize       = 50
)

// Ranking is an external score index used to order the leaderboard. When it
// is absent the store orders users itself.
type Ranking interface {
	AddScore(ctx context.Context, userID uuid.UUID, delta int) error
	Page(ctx context.Context, offset, limit int) ([]uuid.UUID, int, error)
}

// LeaderboardPage is one page of users ordered by total score.
type LeaderboardPage struct {
	Users      []models.User `json:"users"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
}

// Service owns accounts, login and match statistics.
type Service struct {
	store   Store
	tokens  *auth.Tokens
	ranking Ranking
	logger  logrus.FieldLogger

	// HashParams are used for new passwords.
	HashParams *auth.HashParams
}

// NewService wires the account service. ranking may be nil.
func NewService(store Store, tokens *auth.Tokens, ranking Ranking, logger logrus.FieldLogger) *Service {
	return &Service{
		store:      store,
		tokens:     tokens,
		ranking:    ranking,
		logger:     logger,
		HashParams: auth.DefaultHashParams,
	}
}

// Login signs username in, creating the account on first use. An existing
// account must present the matching password.
func (s *Service) Login(ctx context.Context, username, password string) (string, models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", models.User{}, game.InvalidInput("username is required")
	}
	if len(username) > MaxUsernameLength {
		return "", models.User{}, game.InvalidInput("username must be at most %d characters", MaxUsernameLength)
	}
	if password == "" {
		return "", models.User{}, game.InvalidInput("password is required")
	}

	user, err := s.store.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, ErrUserNotFound):
		user, err = s.register(ctx, username, password)
		if err != nil {
			return "", models.User{}, err
		}
	case err != nil:
		return "", models.User{}, fmt.Errorf("failed to look up user: %w", err)
	default:
		ok, err := auth.ComparePasswordAndHash(password, user.PasswordHash)
		if err != nil {
			return "", models.User{}, fmt.Errorf("failed to verify password: %w", err)
		}
		if !ok {
			return "", models.User{}, game.Unauthorized("Invalid username or password.")
		}
	}

	token, err := s.tokens.CreateJWT(user.ID)
	if err != nil {
		return "", models.User{}, fmt.Errorf("failed to issue token: %w", err)
	}
	return token, user.Public(), nil
}

func (s *Service) register(ctx context.Context, username, password string) (models.User, error) {
	hash, err := auth.CreateHash(password, s.HashParams)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}
	id, _ := uuid.NewRandom()
	user := models.User{ID: id, Username: username, PasswordHash: hash}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return models.User{}, game.InvalidInput("username %q is taken", username)
		}
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"player_id": id, "username": username}).Info("Registered new user")
	if s.ranking != nil {
		if err := s.ranking.AddScore(ctx, id, 0); err != nil {
			s.logger.WithField("player_id", id).Warnf("Failed to add user to ranking: %v", err)
		}
	}
	return user, nil
}

// User returns the public view of an account.
func (s *Service) User(ctx context.Context, id uuid.UUID) (models.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return models.User{}, game.NotFound("user %s not found", id)
	}
	if err != nil {
		return models.User{}, err
	}
	return u.Public(), nil
}

// Validate checks a token issued by Login.
func (s *Service) Validate(token string) (bool, uuid.UUID) {
	return s.tokens.Validate(token)
}

// Authenticate resolves a token to its account.
func (s *Service) Authenticate(ctx context.Context, token string) (models.User, error) {
	ok, id := s.tokens.Validate(token)
	if !ok {
		return models.User{}, game.Unauthorized("Invalid token.")
	}
	u, err := s.store.GetByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return models.User{}, game.Unauthorized("User not found for token.")
	}
	if err != nil {
		return models.User{}, err
	}
	return u.Public(), nil
}

// RecordResult adds one game's deltas to a player's stats and mirrors the
// score into the ranking. A ranking failure is logged and not returned; the
// store is the source of truth.
func (s *Service) RecordResult(ctx context.Context, playerID uuid.UUID, played, won, scoreDelta int) error {
	stats, err := s.store.AddStats(ctx, playerID, played, won, scoreDelta)
	if err != nil {
		return fmt.Errorf("failed to add stats for %s: %w", playerID, err)
	}
	s.logger.WithFields(logrus.Fields{
		"player_id":   playerID,
		"gamesPlayed": stats.GamesPlayed,
		"gamesWon":    stats.GamesWon,
		"totalScore":  stats.TotalScore,
	}).Debug("Recorded game result")

	if s.ranking != nil {
		if err := s.ranking.AddScore(ctx, playerID, scoreDelta); err != nil {
			s.logger.WithField("player_id", playerID).Warnf("Failed to update ranking: %v", err)
		}
	}
	return nil
}

// Leaderboard returns a page of users by total score. page is clamped to
// the last page.
func (s *Service) Leaderboard(ctx context.Context, page, pageSize int) (LeaderboardPage, error) {
	if page < 1 {
		return LeaderboardPage{}, game.InvalidInput("page must be positive")
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return LeaderboardPage{}, game.InvalidInput("pageSize must be between 1 and %d", MaxPageSize)
	}

	total, err := s.count(ctx)
	if err != nil {
		return LeaderboardPage{}, err
	}
	totalPages := max(1, (total+pageSize-1)/pageSize)
	page = min(page, totalPages)
	offset := (page - 1) * pageSize

	users, err := s.page(ctx, offset, pageSize)
	if err != nil {
		return LeaderboardPage{}, err
	}
	return LeaderboardPage{Users: users, Page: page, TotalPages: totalPages}, nil
}

func (s *Service) count(ctx context.Context) (int, error) {
	if s.ranking != nil {
		_, n, err := s.ranking.Page(ctx, 0, 0)
		if err == nil {
			return n, nil
		}
		s.logger.Warnf("Ranking unavailable, using store: %v", err)
	}
	_, n, err := s.store.TopByScore(ctx, 0, 0)
	return n, err
}

func (s *Service) page(ctx context.Context, offset, limit int) ([]models.User, error) {
	if s.ranking != nil {
		ids, _, err := s.ranking.Page(ctx, offset, limit)
		if err == nil {
			users := make([]models.User, 0, len(ids))
			for _, id := range ids {
				u, err := s.store.GetByID(ctx, id)
				if err != nil {
					continue
				}
				users = append(users, u.Public())
			}
			return users, nil
		}
		s.logger.Warnf("Ranking unavailable, using store: %v", err)
	}
	users, _, err := s.store.TopByScore(ctx, offset, limit)
	return users, err
}
