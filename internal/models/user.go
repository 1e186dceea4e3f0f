package models

import "github.com/google/uuid"

// Stats holds the aggregate results owned by the account store.
type Stats struct {
	GamesPlayed int `json:"gamesPlayed"`
	GamesWon    int `json:"gamesWon"`
	TotalScore  int `json:"totalScore"`
}

// User is an account as seen by lobbies and games. Sessions keep a copy taken
// at start, so Stats inside a running game are not live.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Stats    Stats     `json:"stats"`

	// PasswordHash is the encoded argon2id hash; never serialized.
	PasswordHash string `json:"-"`
}

// Public returns a copy without credentials.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}
