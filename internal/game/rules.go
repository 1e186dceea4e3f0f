// internal/game/rules.go
package game

import "fmt"

// Ranges accepted for lobby settings.
const (
	MinRoundsToWin = 1
	MaxRoundsToWin = 20
	MinBombLimit   = 1
	MaxBombLimit   = 10
)

// Settings are the per-lobby match options. A game copies them at start.
type Settings struct {
	RoundsToWin int `json:"roundsToWin"` // round wins needed to take the match
	BombLimit   int `json:"bombLimit"`   // live bombs a player may own at once
}

// DefaultSettings returns the settings a new lobby starts with.
func DefaultSettings() Settings {
	return Settings{RoundsToWin: 5, BombLimit: 3}
}

// Validate checks both values against their ranges.
func (s Settings) Validate() error {
	if s.RoundsToWin < MinRoundsToWin || s.RoundsToWin > MaxRoundsToWin {
		return InvalidInput("roundsToWin must be between %d and %d", MinRoundsToWin, MaxRoundsToWin)
	}
	if s.BombLimit < MinBombLimit || s.BombLimit > MaxBombLimit {
		return InvalidInput("bombLimit must be between %d and %d", MinBombLimit, MaxBombLimit)
	}
	return nil
}

// ParseSettings applies a partial update to current. Keys that are absent keep
// their old value. The result is validated as a whole, so current is returned
// untouched alongside any error.
func ParseSettings(update map[string]interface{}, current Settings) (Settings, error) {
	next := current

	assignInt := func(field *int, key string) error {
		val, exists := update[key]
		if !exists || val == nil {
			return nil
		}
		// JSON numbers decode as float64
		switch v := val.(type) {
		case float64:
			if v != float64(int(v)) {
				return InvalidInput("%s must be an integer", key)
			}
			*field = int(v)
		case int:
			*field = v
		default:
			return InvalidInput("invalid type for %s", key)
		}
		return nil
	}

	if err := assignInt(&next.RoundsToWin, "roundsToWin"); err != nil {
		return current, err
	}
	if err := assignInt(&next.BombLimit, "bombLimit"); err != nil {
		return current, err
	}
	if err := next.Validate(); err != nil {
		return current, err
	}
	return next, nil
}

// Rules are the server-wide simulation constants.
type Rules struct {
	Width       int `yaml:"width"`
	Height      int `yaml:"height"`
	FuseTicks   int `yaml:"fuseTicks"`   // ticks from placement to explosion
	FireTicks   int `yaml:"fireTicks"`   // ticks a fire cell stays lethal
	BlastRadius int `yaml:"blastRadius"` // cells reached in each cardinal direction

	// SharedBombRelease makes every explosion free one bomb slot for every
	// player instead of only the owner.
	SharedBombRelease bool `yaml:"sharedBombRelease"`
}

// DefaultRules returns the standard 25x25 ruleset.
func DefaultRules() Rules {
	return Rules{
		Width:       25,
		Height:      25,
		FuseTicks:   20,
		FireTicks:   5,
		BlastRadius: 3,
	}
}

// Validate checks the rules can produce a playable board.
func (r Rules) Validate() error {
	if err := validateBoardSize(r.Width, r.Height); err != nil {
		return err
	}
	if r.FuseTicks < 1 || r.FireTicks < 1 {
		return fmt.Errorf("fuseTicks and fireTicks must be positive")
	}
	if r.BlastRadius < 1 {
		return fmt.Errorf("blastRadius must be positive")
	}
	return nil
}
