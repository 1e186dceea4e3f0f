package database

import (
	"context"
	"os"
	"testing"

	"github.com/jason-s-yu/bomber/internal/account"
	"github.com/jason-s-yu/bomber/internal/account/accounttest"
	"github.com/stretchr/testify/require"
)

// Runs against DATABASE_URL; every subtest starts from an empty users table.
func TestAccountStore(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	accounttest.RunStoreTests(t, func(t *testing.T) account.Store {
		_, err := pool.Exec(ctx, `TRUNCATE users`)
		require.NoError(t, err)
		return NewAccountStore(pool)
	})
}
