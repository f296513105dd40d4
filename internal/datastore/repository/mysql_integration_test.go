//go:build integration

package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhv-platform/bhv-go/internal/datastore/entities"
	"github.com/bhv-platform/bhv-go/internal/datastore/repository"
	"github.com/bhv-platform/bhv-go/internal/testutil/containers"
)

// MySQL test container shared across all tests in this package
var mysqlContainer *containers.MySQLContainer

func TestMain(m *testing.M) {
	var err error
	mysqlContainer, err = containers.NewMySQLContainer(context.Background(), nil)
	if err != nil {
		panic("failed to create MySQL container: " + err.Error())
	}

	code := m.Run()

	if err := mysqlContainer.Terminate(context.Background()); err != nil {
		panic("failed to terminate MySQL container: " + err.Error())
	}
	os.Exit(code)
}

// resetDatabase truncates all tables to ensure test isolation
func resetDatabase(t *testing.T) {
	t.Helper()
	err := mysqlContainer.Reset(t.Context(), "alerts", "alert_responses", "activity_logs", "users")
	require.NoError(t, err, "failed to reset database")
}

func TestMySQL_AlertLifecycle(t *testing.T) {
	resetDatabase(t)
	ctx := t.Context()
	repo := repository.NewAlertRepository(mysqlContainer.DB())

	alert := &entities.Alert{
		ID:             uuid.NewString(),
		Type:           "evacuation",
		Severity:       "fatal",
		Title:          "Ontruiming",
		Message:        "Verlaat het pand",
		TargetAudience: entities.TargetAudience{All: true},
		Status:         "active",
	}
	require.NoError(t, repo.CreateAlert(ctx, alert))

	sentAt := time.Now().UTC().Truncate(time.Second)
	results := entities.DeliveryResults{SMS: entities.ChannelTally{Sent: 4, Failed: 1}}
	require.NoError(t, repo.SaveDeliveryResults(ctx, alert.ID, results, sentAt))

	resolver := "u-1"
	now := time.Now().UTC()
	require.NoError(t, repo.UpdateStatus(ctx, alert.ID, repository.StatusUpdate{
		Status: "resolved", ResolvedAt: &now, ResolvedBy: &resolver,
	}))

	got, err := repo.GetAlert(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, "resolved", got.Status)
	require.NotNil(t, got.DeliveryResults)
	assert.Equal(t, results, *got.DeliveryResults)
	require.NotNil(t, got.ResolvedBy)
	assert.Equal(t, resolver, *got.ResolvedBy)

	listed, err := repo.ListAlerts(ctx, repository.AlertFilter{Status: "resolved", Type: "evacuation", Severity: "fatal"})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, alert.ID, listed[0].ID)
}

func TestMySQL_FindRecipients(t *testing.T) {
	resetDatabase(t)
	ctx := t.Context()
	users := repository.NewUserRepository(mysqlContainer.DB())

	for _, u := range []entities.User{
		{ID: "u1", Name: "Anna", Role: "bhv_member", Location: "Utrecht", Active: true},
		{ID: "u2", Name: "Bram", Role: "employee", CustomerID: "c1", Active: true},
		{ID: "u3", Name: "Cor", Role: "visitor", Active: false},
	} {
		require.NoError(t, users.CreateUser(ctx, &u))
	}

	found, err := users.FindRecipients(ctx, repository.RecipientQuery{
		Roles:       []string{"bhv_member"},
		CustomerIDs: []string{"c1"},
	})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "u1", found[0].ID)
	assert.Equal(t, "u2", found[1].ID)

	count, err := users.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
