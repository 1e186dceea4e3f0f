package main

import (
	"fmt"
	"strings"

	"github.com/jason-s-yu/bomber/internal/game"
	"github.com/spf13/cobra"
)

var (
	flagBoardWidth   int
	flagBoardHeight  int
	flagBoardPlayers int
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Print a generated board",
	Long: `Print the board a match would start on. '#' is a solid wall, '+' a
crate, '.' open floor and digits mark the player spawns.

Examples:
  bomber board
  bomber board --players 2
  bomber board --width 15 --height 13`,
	Args: cobra.NoArgs,
	RunE: runBoard,
}

func init() {
	d := game.DefaultRules()
	boardCmd.Flags().IntVar(&flagBoardWidth, "width", d.Width, "Board width")
	boardCmd.Flags().IntVar(&flagBoardHeight, "height", d.Height, "Board height")
	boardCmd.Flags().IntVar(&flagBoardPlayers, "players", game.MaxPlayers, "Number of players (1-4)")
}

func runBoard(cmd *cobra.Command, _ []string) error {
	rules := game.DefaultRules()
	rules.Width, rules.Height = flagBoardWidth, flagBoardHeight
	if err := rules.Validate(); err != nil {
		return err
	}
	if flagBoardPlayers < 1 || flagBoardPlayers > game.MaxPlayers {
		return fmt.Errorf("--players must be between 1 and %d", game.MaxPlayers)
	}

	walls, _, spawns := game.Generate(rules.Width, rules.Height, flagBoardPlayers)
	rows := strings.Split(strings.TrimSuffix(walls.String(), "\n"), "\n")
	for i, p := range spawns {
		row := []byte(rows[p.Y])
		row[p.X] = byte('1' + i)
		rows[p.Y] = string(row)
	}
	for _, row := range rows {
		fmt.Fprintln(cmd.OutOrStdout(), row)
	}
	return nil
}
