//go:build integration

package notification_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhv-platform/bhv-go/internal/conf"
	"github.com/bhv-platform/bhv-go/internal/datastore/entities"
	"github.com/bhv-platform/bhv-go/internal/notification"
	"github.com/bhv-platform/bhv-go/internal/testutil/containers"
)

// uniqueTopic returns a short unique topic name for test isolation.
func uniqueTopic(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString()[:8])
}

func TestAuthorityNotifier_DeliversToNtfy(t *testing.T) {
	ctx := context.Background()
	container, err := containers.NewNtfyContainer(ctx, nil)
	require.NoError(t, err, "failed to start ntfy container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	topic := uniqueTopic("authorities")
	url := fmt.Sprintf("ntfy://%s/%s?scheme=http", container.GetHost(ctx), topic)

	notifier, err := notification.NewAuthorityNotifier([]string{url})
	require.NoError(t, err)

	err = notifier.Execute(ctx, notification.ActionRequest{
		Action:   notification.ActionNotifyAuthorities,
		AlertID:  "it-1",
		Type:     "fire",
		Severity: "critical",
		Title:    "Brand magazijn",
		Location: &entities.AlertLocation{Building: "Magazijn"},
	})
	require.NoError(t, err)

	messages, err := container.PollMessages(ctx, topic)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0].Message, "Brand magazijn")
	assert.Equal(t, "[CRITICAL] Brand magazijn", messages[0].Title)
}

func TestMQTTActionExecutor_PublishesToBroker(t *testing.T) {
	broker, err := containers.NewMosquittoContainer(context.Background(), nil)
	require.NoError(t, err, "failed to start mosquitto container")
	t.Cleanup(func() { _ = broker.Terminate(context.Background()) })

	subscriber, err := broker.CreateClient("bhv-test-subscriber")
	require.NoError(t, err)
	t.Cleanup(func() { subscriber.Disconnect(250) })

	received := make(chan []byte, 1)
	token := subscriber.Subscribe("bhv/automation/#", 1, func(_ mqtt.Client, msg mqtt.Message) {
		received <- msg.Payload()
	})
	require.True(t, token.WaitTimeout(5*time.Second))
	require.NoError(t, token.Error())

	var settings conf.AutomationSettings
	settings.Timeout = conf.Duration(5 * time.Second)
	settings.MQTT.Broker = broker.BrokerURL()
	settings.MQTT.ClientID = "bhv-test-publisher"
	settings.MQTT.TopicPrefix = "bhv/automation"
	settings.MQTT.QoS = 1

	exec, err := notification.ConnectMQTT(&settings, nil)
	require.NoError(t, err)
	t.Cleanup(exec.Close)

	require.NoError(t, exec.Execute(t.Context(), notification.ActionRequest{
		Action: notification.ActionLockDoors, AlertID: "it-2",
	}))

	select {
	case payload := <-received:
		var req notification.ActionRequest
		require.NoError(t, json.Unmarshal(payload, &req))
		assert.Equal(t, "it-2", req.AlertID)
		assert.Equal(t, notification.ActionLockDoors, req.Action)
	case <-time.After(5 * time.Second):
		t.Fatal("no message received on automation topic")
	}
}
