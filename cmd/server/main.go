// bomber is the authoritative game server for the grid bomb arena.
//
// Usage:
//
//	bomber serve [--addr :8080] [--rules rules.yaml]   - Run the HTTP and WebSocket server
//	bomber board [--width 25 --height 25 --players 4]  - Print a generated board
//
// Configuration is read from the environment (and a .env file, if present):
// PORT, LOG_LEVEL, BOMBER_ENV, ACCOUNTS_BACKEND, DATABASE_URL, SQLITE_PATH,
// REDIS_ADDR, REDIS_DB, TOKEN_EXPIRE_TIME, JWT_PRIVATE_KEY_PATH, JWT_PUBLIC_KEY_PATH.
package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bomber",
	Short: "Real-time grid bomb arena server",
	Long: `bomber runs lobbies and tick-driven bomb arena matches.

Players sign in over HTTP, gather in a lobby by id or five-character code,
and once the leader starts the match they send moves over a WebSocket and
receive a board snapshot every tick.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(boardCmd)
}
