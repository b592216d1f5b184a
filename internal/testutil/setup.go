package testutil

import (
	"io"
	"log/slog"
	"testing"

	"fbmp/internal/telemetry"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

// NewMockDB creates a pgxmock pool and closes it via t.Cleanup
func NewMockDB(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)

	t.Cleanup(func() {
		mockPool.Close()
	})

	return mockPool
}

// NewTestLogger returns the production logger shape writing nowhere.
func NewTestLogger() *slog.Logger {
	return telemetry.NewLogger("test", io.Discard)
}
