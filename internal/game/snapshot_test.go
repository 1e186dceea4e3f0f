package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMove(t *testing.T) {
	for _, s := range []string{"up", "down", "left", "right", "bomb", "stay", "noop", "UP", " Bomb "} {
		_, err := ParseMove(s)
		assert.NoError(t, err, s)
	}
	for _, s := range []string{"", "jump", "upp"} {
		_, err := ParseMove(s)
		require.Error(t, err, s)
		assert.Equal(t, CodeInvalidInput, CodeOf(err))
	}
}

func TestTileCodes(t *testing.T) {
	cases := map[int]Tile{
		0:  {Kind: TileEmpty},
		1:  {Kind: TileSolid},
		2:  {Kind: TileCrate},
		11: {Kind: TilePlayer, Seat: 0},
		14: {Kind: TilePlayer, Seat: 3},
		20: {Kind: TileBomb},
		30: {Kind: TileFire},
	}
	for code, tile := range cases {
		assert.Equal(t, code, tile.Code())
		back, err := tileFromCode(code)
		require.NoError(t, err)
		assert.Equal(t, tile, back)
	}
	_, err := tileFromCode(15)
	assert.Error(t, err)
}

func TestEnvelopeWireFormat(t *testing.T) {
	a, players := newTestArena(t, 2, DefaultSettings(), DefaultRules())
	data, err := json.Marshal(Envelope{GameState: a.snapshot()})
	require.NoError(t, err)

	var raw map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	state := raw["gameState"]
	require.NotNil(t, state)

	for _, key := range []string{"gameId", "lobbyId", "players", "board", "active", "scores", "roundsToWin", "winnerId"} {
		assert.Contains(t, state, key)
	}
	assert.Nil(t, state["winnerId"])
	assert.Equal(t, true, state["active"])

	board := state["board"].([]interface{})
	require.Len(t, board, 25)
	row1 := board[1].([]interface{})
	assert.Equal(t, float64(CodeSolid), row1[0])
	assert.Equal(t, float64(CodePlayerBase), row1[1])

	ps := state["players"].([]interface{})
	first := ps[0].(map[string]interface{})
	assert.Equal(t, players[0].ID.String(), first["id"])
	assert.NotContains(t, first, "passwordHash")

	var back Envelope
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, a.snapshot().Board, back.GameState.Board)
}

func TestParseSettings(t *testing.T) {
	cur := DefaultSettings()

	next, err := ParseSettings(map[string]interface{}{"bombLimit": float64(7)}, cur)
	require.NoError(t, err)
	assert.Equal(t, Settings{RoundsToWin: 5, BombLimit: 7}, next)

	for _, bad := range []map[string]interface{}{
		{"roundsToWin": float64(0)},
		{"roundsToWin": float64(21)},
		{"bombLimit": float64(11)},
		{"bombLimit": 2.5},
		{"bombLimit": "3"},
		{"roundsToWin": float64(3), "bombLimit": float64(0)},
	} {
		got, err := ParseSettings(bad, cur)
		require.Error(t, err, "%v", bad)
		assert.Equal(t, CodeInvalidInput, CodeOf(err))
		assert.Equal(t, cur, got)
	}
}
