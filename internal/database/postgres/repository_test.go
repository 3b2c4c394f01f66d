package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/database/postgres"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/database/storetest"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// openRepository connects to TEST_DATABASE_URL and empties every table
func openRepository(t *testing.T) *postgres.Repository {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	repo, err := postgres.Open(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(repo.Close)

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	defer pool.Close()
	_, err = pool.Exec(ctx, `TRUNCATE tickets, orders, flight_crews, flights, crews, airplanes, routes, airports CASCADE`)
	require.NoError(t, err)
	return repo
}

func TestRepository(t *testing.T) {
	storetest.Run(t, func(t *testing.T) database.Store {
		return openRepository(t)
	})
}
