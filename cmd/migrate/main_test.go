package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	got, err := migrateURL("postgres://fbmp@db:5432/fbmp?sslmode=disable", "secret")
	require.NoError(t, err)
	assert.Equal(t, "pgx5://fbmp:secret@db:5432/fbmp?sslmode=disable", got)

	got, err = migrateURL("postgresql://fbmp:pw@db/fbmp", "ignored")
	require.NoError(t, err)
	assert.Equal(t, "pgx5://fbmp:pw@db/fbmp", got)
}

func TestMigrateURL_RejectsHTTPStore(t *testing.T) {
	_, err := migrateURL("https://anon@abc.supabase.co", "key")

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "key")
}

func TestRun_RejectsBadDirection(t *testing.T) {
	assert.Equal(t, exitFailure, run(nil))
	assert.Equal(t, exitFailure, run([]string{"sideways"}))
}
