package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bhv-platform/bhv-go/internal/conf"
	"github.com/bhv-platform/bhv-go/internal/errors"
	"github.com/bhv-platform/bhv-go/internal/logger"
)

// Facility action names.
const (
	ActionLockDoors         = "lock_doors"
	ActionActivateAlarms    = "activate_alarms"
	ActionNotifyAuthorities = "notify_authorities"
	ActionStartEvacuation   = "start_evacuation"
)

// ActionExecutor performs one facility action.
type ActionExecutor interface {
	Execute(ctx context.Context, req ActionRequest) error
}

// HTTPActionExecutor posts each action to its configured endpoint.
type HTTPActionExecutor struct {
	poster    *Poster
	endpoints map[string]string
}

// NewHTTPActionExecutor creates an executor for the given action endpoints.
func NewHTTPActionExecutor(poster *Poster, endpoints map[string]string) *HTTPActionExecutor {
	return &HTTPActionExecutor{poster: poster, endpoints: endpoints}
}

func (e *HTTPActionExecutor) Execute(ctx context.Context, req ActionRequest) error {
	url, ok := e.endpoints[req.Action]
	if !ok || url == "" {
		return errors.Newf("no endpoint configured for action %s", req.Action).
			Component("automation").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return e.poster.Post(ctx, url, req)
}

// MQTTActionExecutor publishes actions to <prefix>/<action>.
type MQTTActionExecutor struct {
	client      mqtt.Client
	topicPrefix string
	qos         byte
	timeout     time.Duration
	log         logger.Logger
}

// NewMQTTActionExecutor wraps an already configured client.
func NewMQTTActionExecutor(client mqtt.Client, topicPrefix string, qos byte, timeout time.Duration, log logger.Logger) *MQTTActionExecutor {
	if log == nil {
		log = logger.NewNop()
	}
	return &MQTTActionExecutor{
		client:      client,
		topicPrefix: strings.TrimSuffix(topicPrefix, "/"),
		qos:         qos,
		timeout:     timeout,
		log:         log.Module("automation.mqtt"),
	}
}

// ConnectMQTT dials the broker from settings and returns a ready executor.
func ConnectMQTT(settings *conf.AutomationSettings, log logger.Logger) (*MQTTActionExecutor, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(settings.MQTT.Broker)
	opts.SetClientID(settings.MQTT.ClientID)
	if settings.MQTT.Username != "" {
		opts.SetUsername(settings.MQTT.Username)
		opts.SetPassword(settings.MQTT.Password)
	}
	opts.SetConnectTimeout(settings.Timeout.Std())
	opts.SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(settings.Timeout.Std()) {
		return nil, errors.Newf("mqtt connect to %s timed out", settings.MQTT.Broker).
			Component("automation").
			Category(errors.CategoryNetwork).
			Build()
	}
	if err := token.Error(); err != nil {
		return nil, errors.New(fmt.Errorf("mqtt connect to %s: %w", settings.MQTT.Broker, err)).
			Component("automation").
			Category(errors.CategoryNetwork).
			Build()
	}

	return NewMQTTActionExecutor(client, settings.MQTT.TopicPrefix, byte(settings.MQTT.QoS), settings.Timeout.Std(), log), nil //nolint:gosec // qos validated to 0..2
}

// Topic returns the topic an action is published on.
func (e *MQTTActionExecutor) Topic(action string) string {
	return e.topicPrefix + "/" + action
}

func (e *MQTTActionExecutor) Execute(ctx context.Context, req ActionRequest) error {
	if !e.client.IsConnected() {
		return errors.Newf("mqtt client not connected").
			Component("automation").
			Category(errors.CategoryNetwork).
			Build()
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode action: %w", err)
	}

	token := e.client.Publish(e.Topic(req.Action), e.qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(e.timeout):
		return errors.Newf("mqtt publish %s timed out after %s", e.Topic(req.Action), e.timeout).
			Component("automation").
			Category(errors.CategoryNetwork).
			Build()
	}
	if err := token.Error(); err != nil {
		return errors.New(fmt.Errorf("mqtt publish %s: %w", e.Topic(req.Action), err)).
			Component("automation").
			Category(errors.CategoryDelivery).
			Build()
	}

	e.log.Debug("published facility action",
		logger.String("topic", e.Topic(req.Action)),
		logger.String("alert_id", req.AlertID))
	return nil
}

// Close disconnects from the broker.
func (e *MQTTActionExecutor) Close() {
	e.client.Disconnect(250)
}

// shoutrrrSender is the subset of the shoutrrr router used here.
type shoutrrrSender interface {
	Send(message string, params *types.Params) []error
}

// AuthorityNotifier relays notify_authorities through shoutrrr service URLs.
type AuthorityNotifier struct {
	sender shoutrrrSender
}

// NewAuthorityNotifier validates urls and builds the shoutrrr router.
func NewAuthorityNotifier(urls []string) (*AuthorityNotifier, error) {
	if len(urls) == 0 {
		return nil, errors.Newf("no authority urls configured").
			Component("automation").
			Category(errors.CategoryConfiguration).
			Build()
	}
	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, errors.New(fmt.Errorf("invalid authority url: %w", err)).
			Component("automation").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return newAuthorityNotifier(sender), nil
}

func newAuthorityNotifier(sender shoutrrrSender) *AuthorityNotifier {
	return &AuthorityNotifier{sender: sender}
}

// Execute sends the message and returns when ctx is done even if a service
// has not answered. The send itself keeps running until shoutrrr gives up.
func (n *AuthorityNotifier) Execute(ctx context.Context, req ActionRequest) error {
	params := types.Params{"title": fmt.Sprintf("[%s] %s", strings.ToUpper(req.Severity), req.Title)}
	message := FormatAuthorityMessage(req)

	done := make(chan []error, 1)
	go func() {
		done <- n.sender.Send(message, &params)
	}()

	var errs []error
	select {
	case errs = <-done:
	case <-ctx.Done():
		return errors.New(fmt.Errorf("authority notification: %w", ctx.Err())).
			Component("automation").
			Category(errors.CategoryDelivery).
			Context("alert_id", req.AlertID).
			Build()
	}

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return errors.New(errors.Join(failed...)).
			Component("automation").
			Category(errors.CategoryDelivery).
			Context("alert_id", req.AlertID).
			Build()
	}
	return nil
}

// FormatAuthorityMessage renders the plain-text body sent to authorities.
func FormatAuthorityMessage(req ActionRequest) string {
	title := cases.Title(language.Dutch)
	var b strings.Builder
	fmt.Fprintf(&b, "%s alarm (%s): %s\n", title.String(req.Type), req.Severity, req.Title)
	if req.Message != "" {
		b.WriteString(req.Message)
		b.WriteString("\n")
	}
	if loc := req.Location; loc != nil {
		var parts []string
		for _, p := range []string{loc.Building, loc.Floor, loc.Room} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) > 0 {
			fmt.Fprintf(&b, "Locatie: %s\n", strings.Join(parts, ", "))
		}
		if loc.Coordinates != nil {
			fmt.Fprintf(&b, "Coördinaten: %.6f, %.6f\n", loc.Coordinates.Lat, loc.Coordinates.Lng)
		}
	}
	fmt.Fprintf(&b, "Alert ID: %s", req.AlertID)
	return b.String()
}

// ActionRouter picks an executor per action, falling back to a default.
type ActionRouter struct {
	routes   map[string]ActionExecutor
	fallback ActionExecutor
}

// NewActionRouter creates a router. fallback may be nil.
func NewActionRouter(fallback ActionExecutor) *ActionRouter {
	return &ActionRouter{routes: make(map[string]ActionExecutor), fallback: fallback}
}

// Route sends action to executor.
func (r *ActionRouter) Route(action string, executor ActionExecutor) *ActionRouter {
	r.routes[action] = executor
	return r
}

func (r *ActionRouter) Execute(ctx context.Context, req ActionRequest) error {
	if executor, ok := r.routes[req.Action]; ok {
		return executor.Execute(ctx, req)
	}
	if r.fallback != nil {
		return r.fallback.Execute(ctx, req)
	}
	return errors.Newf("no executor for action %s", req.Action).
		Component("automation").
		Category(errors.CategoryConfiguration).
		Build()
}
