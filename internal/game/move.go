// internal/game/move.go
package game

import "strings"

// Move is a player intent.
type Move string

const (
	MoveUp    Move = "up"
	MoveDown  Move = "down"
	MoveLeft  Move = "left"
	MoveRight Move = "right"
	MoveBomb  Move = "bomb"
	MoveStay  Move = "stay"
	MoveNoop  Move = "noop"
)

// ParseMove matches s case-insensitively against the known moves.
func ParseMove(s string) (Move, error) {
	m := Move(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case MoveUp, MoveDown, MoveLeft, MoveRight, MoveBomb, MoveStay, MoveNoop:
		return m, nil
	}
	return "", InvalidInput("invalid move %q", s)
}

// delta returns the step for a directional move, zero otherwise.
func (m Move) delta() (dx, dy int) {
	switch m {
	case MoveUp:
		return 0, -1
	case MoveDown:
		return 0, 1
	case MoveLeft:
		return -1, 0
	case MoveRight:
		return 1, 0
	}
	return 0, 0
}
