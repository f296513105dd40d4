package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jarcoal/httpmock"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhv-platform/bhv-go/internal/datastore/entities"
	"github.com/bhv-platform/bhv-go/internal/errors"
)

func TestHTTPActionExecutor(t *testing.T) {
	t.Parallel()

	poster, transport := newMockPoster(t, "")
	var got ActionRequest
	transport.RegisterResponder(http.MethodPost, "https://doors.example/lock",
		func(req *http.Request) (*http.Response, error) {
			_ = json.NewDecoder(req.Body).Decode(&got)
			return httpmock.NewStringResponse(http.StatusOK, ""), nil
		})

	exec := NewHTTPActionExecutor(poster, map[string]string{ActionLockDoors: "https://doors.example/lock"})

	require.NoError(t, exec.Execute(t.Context(), ActionRequest{Action: ActionLockDoors, AlertID: "a1"}))
	assert.Equal(t, "a1", got.AlertID)

	err := exec.Execute(t.Context(), ActionRequest{Action: ActionStartEvacuation})
	require.Error(t, err)
	assert.Equal(t, errors.CategoryConfiguration, errors.CategoryOf(err))
}

// fakeToken is a completed mqtt.Token.
type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	done := make(chan struct{})
	close(done)
	return &fakeToken{err: err, done: done}
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

// fakeMQTTClient records publishes. Only the methods the executor uses are implemented.
type fakeMQTTClient struct {
	mqtt.Client

	mu        sync.Mutex
	connected bool
	publishes []fakePublish
	err       error
}

type fakePublish struct {
	topic   string
	qos     byte
	payload []byte
}

func (c *fakeMQTTClient) IsConnected() bool { return c.connected }

func (c *fakeMQTTClient) Publish(topic string, qos byte, _ bool, payload any) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, _ := payload.([]byte)
	c.publishes = append(c.publishes, fakePublish{topic: topic, qos: qos, payload: data})
	return newFakeToken(c.err)
}

func TestMQTTActionExecutor_PublishesToActionTopic(t *testing.T) {
	t.Parallel()

	client := &fakeMQTTClient{connected: true}
	exec := NewMQTTActionExecutor(client, "bhv/automation/", 1, time.Second, nil)

	err := exec.Execute(t.Context(), ActionRequest{Action: ActionActivateAlarms, AlertID: "a1", Severity: "critical"})
	require.NoError(t, err)

	require.Len(t, client.publishes, 1)
	assert.Equal(t, "bhv/automation/activate_alarms", client.publishes[0].topic)
	assert.Equal(t, byte(1), client.publishes[0].qos)

	var payload ActionRequest
	require.NoError(t, json.Unmarshal(client.publishes[0].payload, &payload))
	assert.Equal(t, "a1", payload.AlertID)
}

func TestMQTTActionExecutor_Errors(t *testing.T) {
	t.Parallel()

	disconnected := NewMQTTActionExecutor(&fakeMQTTClient{}, "bhv", 0, time.Second, nil)
	err := disconnected.Execute(t.Context(), ActionRequest{Action: ActionLockDoors})
	require.Error(t, err)
	assert.Equal(t, errors.CategoryNetwork, errors.CategoryOf(err))

	failing := NewMQTTActionExecutor(&fakeMQTTClient{connected: true, err: errors.NewStd("not authorized")}, "bhv", 0, time.Second, nil)
	err = failing.Execute(t.Context(), ActionRequest{Action: ActionLockDoors})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not authorized")
}

// fakeShoutrrr captures messages sent through the router.
type fakeShoutrrr struct {
	messages []string
	params   []types.Params
	errs     []error
}

func (f *fakeShoutrrr) Send(message string, params *types.Params) []error {
	f.messages = append(f.messages, message)
	if params != nil {
		f.params = append(f.params, *params)
	}
	return f.errs
}

func TestAuthorityNotifier_FormatsMessage(t *testing.T) {
	t.Parallel()

	sender := &fakeShoutrrr{errs: []error{nil}}
	notifier := newAuthorityNotifier(sender)

	err := notifier.Execute(t.Context(), ActionRequest{
		Action:   ActionNotifyAuthorities,
		AlertID:  "a1",
		Type:     "fire",
		Severity: "fatal",
		Title:    "Brand hal 3",
		Message:  "Rookontwikkeling",
		Location: &entities.AlertLocation{Building: "Hal 3", Floor: "0"},
	})
	require.NoError(t, err)

	require.Len(t, sender.messages, 1)
	msg := sender.messages[0]
	assert.Contains(t, msg, "Fire alarm (fatal): Brand hal 3")
	assert.Contains(t, msg, "Rookontwikkeling")
	assert.Contains(t, msg, "Locatie: Hal 3, 0")
	assert.Contains(t, msg, "Alert ID: a1")
	assert.Equal(t, "[FATAL] Brand hal 3", sender.params[0]["title"])
}

func TestAuthorityNotifier_SendErrors(t *testing.T) {
	t.Parallel()

	sender := &fakeShoutrrr{errs: []error{nil, errors.NewStd("smtp: rejected")}}
	err := newAuthorityNotifier(sender).Execute(t.Context(), ActionRequest{AlertID: "a1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp: rejected")
	assert.Equal(t, errors.CategoryDelivery, errors.CategoryOf(err))
}

// blockingShoutrrr never answers until released.
type blockingShoutrrr struct {
	release chan struct{}
}

func (b *blockingShoutrrr) Send(string, *types.Params) []error {
	<-b.release
	return nil
}

func TestAuthorityNotifier_HonoursDeadline(t *testing.T) {
	t.Parallel()

	sender := &blockingShoutrrr{release: make(chan struct{})}
	t.Cleanup(func() { close(sender.release) })

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := newAuthorityNotifier(sender).Execute(ctx, ActionRequest{AlertID: "a1"})
	elapsed := time.Since(start)

	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, errors.CategoryDelivery, errors.CategoryOf(err))
	assert.Less(t, elapsed, time.Second, "Execute must return at the deadline")
}

func TestNewAuthorityNotifier_RequiresURLs(t *testing.T) {
	t.Parallel()

	_, err := NewAuthorityNotifier(nil)
	require.Error(t, err)
	assert.Equal(t, errors.CategoryConfiguration, errors.CategoryOf(err))
}

// recordingExecutor records the actions it receives.
type recordingExecutor struct {
	mu      sync.Mutex
	actions []string
	err     error
}

func (r *recordingExecutor) Execute(_ context.Context, req ActionRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, req.Action)
	return r.err
}

func TestActionRouter(t *testing.T) {
	t.Parallel()

	fallback := &recordingExecutor{}
	authorities := &recordingExecutor{}
	router := NewActionRouter(fallback).Route(ActionNotifyAuthorities, authorities)

	ctx := t.Context()
	require.NoError(t, router.Execute(ctx, ActionRequest{Action: ActionLockDoors}))
	require.NoError(t, router.Execute(ctx, ActionRequest{Action: ActionNotifyAuthorities}))

	assert.Equal(t, []string{ActionLockDoors}, fallback.actions)
	assert.Equal(t, []string{ActionNotifyAuthorities}, authorities.actions)

	err := NewActionRouter(nil).Execute(ctx, ActionRequest{Action: ActionLockDoors})
	require.Error(t, err)
}
