//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"coursegate/pkg/testutil/containers"
)

func TestOpenPingsDatabase(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	db, err := Open(context.Background(), pg.DSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var one int
	require.NoError(t, db.QueryRowContext(context.Background(), "SELECT 1").Scan(&one))
	require.Equal(t, 1, one)
}
