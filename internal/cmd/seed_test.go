package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhv-platform/bhv-go/internal/conf"
	"github.com/bhv-platform/bhv-go/internal/datastore"
	"github.com/bhv-platform/bhv-go/internal/datastore/entities"
	"github.com/bhv-platform/bhv-go/internal/errors"
)

const seedYAML = `
users:
  - id: u1
    name: Anna de Vries
    email: anna@example.nl
    phone: "+31600000001"
    role: bhv_member
    customerId: c1
    location: Utrecht
  - id: u2
    name: Bram
    role: Employee
    active: false
`

func TestParseSeedUsers(t *testing.T) {
	users, err := parseSeedUsers([]byte(seedYAML))
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, "+31600000001", users[0].Phone)
	assert.True(t, users[0].Active, "active defaults to true")
	assert.Equal(t, "employee", users[1].Role, "role is normalized")
	assert.False(t, users[1].Active)
}

func TestParseSeedUsers_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed yaml", "users: [\n"},
		{"missing name", "users:\n  - id: u1\n    role: employee\n"},
		{"unknown role", "users:\n  - id: u1\n    name: A\n    role: janitor\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSeedUsers([]byte(tt.doc))
			require.Error(t, err)
			assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))
		})
	}
}

func TestSeedUsersCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "bhv.db")
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("main:\n  loglevel: error\ndatabase:\n  driver: sqlite\n  sqlite:\n    path: "+dbPath+"\n"), 0o600))
	seedFile := filepath.Join(dir, "users.yaml")
	require.NoError(t, os.WriteFile(seedFile, []byte(seedYAML), 0o600))

	out, err := runRoot(t, "--config", configFile, "seed", "users", seedFile)
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 2 users")

	// Seeding again replaces rather than duplicates.
	_, err = runRoot(t, "--config", configFile, "seed", "users", seedFile)
	require.NoError(t, err)

	var settings conf.DatabaseSettings
	settings.Driver = conf.DriverSQLite
	settings.SQLite.Path = dbPath
	store, err := datastore.NewManager(settings, nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	var users []entities.User
	require.NoError(t, store.DB().Order("id").Find(&users).Error)
	require.Len(t, users, 2)
	assert.Equal(t, "Anna de Vries", users[0].Name)
	assert.False(t, users[1].Active)
}
