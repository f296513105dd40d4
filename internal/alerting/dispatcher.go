package alerting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bhv-platform/bhv-go/internal/conf"
	"github.com/bhv-platform/bhv-go/internal/datastore/entities"
	"github.com/bhv-platform/bhv-go/internal/datastore/repository"
	"github.com/bhv-platform/bhv-go/internal/errors"
	"github.com/bhv-platform/bhv-go/internal/logger"
	"github.com/bhv-platform/bhv-go/internal/notification"
	"github.com/bhv-platform/bhv-go/internal/observability/metrics"
	"github.com/bhv-platform/bhv-go/internal/rbac"
)

const (
	defaultDeliveryConcurrency = 8
	defaultDeliveryTimeout     = 10 * time.Second
	defaultActionTimeout       = 10 * time.Second
)

// RealtimeBroadcaster delivers one message to every connected recipient.
type RealtimeBroadcaster interface {
	Broadcast(ctx context.Context, msg notification.BroadcastMessage) error
}

// PushSender delivers one web-push notification.
type PushSender interface {
	SendPush(ctx context.Context, msg notification.PushMessage) error
}

// EmailSender delivers one email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg notification.EmailMessage) error
}

// SMSSender delivers one text message.
type SMSSender interface {
	SendSMS(ctx context.Context, msg notification.SMSMessage) error
}

// Channels holds the delivery clients. A nil channel is skipped and its
// tally stays at zero.
type Channels struct {
	Realtime RealtimeBroadcaster
	Push     PushSender
	Email    EmailSender
	SMS      SMSSender
}

// Dependencies are the collaborators of a Dispatcher.
type Dependencies struct {
	Alerts   repository.AlertRepository
	Users    repository.UserRepository
	Activity repository.ActivityRepository
	Channels Channels
	Actions  notification.ActionExecutor
	Metrics  *metrics.AlertingMetrics
}

// Options tune dispatch behavior.
type Options struct {
	EmptyAudiencePolicy string
	DeliveryConcurrency int
	DeliveryTimeout     time.Duration
	ActionTimeout       time.Duration
	ListMaxLimit        int
}

// OptionsFromSettings maps service settings onto dispatcher options.
func OptionsFromSettings(settings *conf.Settings) Options {
	return Options{
		EmptyAudiencePolicy: settings.Alerting.EmptyAudiencePolicy,
		DeliveryConcurrency: settings.Alerting.DeliveryConcurrency,
		DeliveryTimeout:     settings.Delivery.Timeout.Std(),
		ActionTimeout:       settings.Automation.Timeout.Std(),
		ListMaxLimit:        settings.Alerting.ListMaxLimit,
	}
}

func (o Options) withDefaults() Options {
	if o.EmptyAudiencePolicy == "" {
		o.EmptyAudiencePolicy = conf.AudiencePolicyFailOpen
	}
	if o.DeliveryConcurrency <= 0 {
		o.DeliveryConcurrency = defaultDeliveryConcurrency
	}
	if o.DeliveryTimeout <= 0 {
		o.DeliveryTimeout = defaultDeliveryTimeout
	}
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = defaultActionTimeout
	}
	if o.ListMaxLimit <= 0 {
		o.ListMaxLimit = defaultListMaxLimit
	}
	return o
}

// ActionResult is the outcome of one facility auto-action.
type ActionResult struct {
	Action  string `json:"action"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// DispatchResult is returned by a successful Dispatch.
type DispatchResult struct {
	AlertID             string                   `json:"alertId"`
	TargetUserCount     int                      `json:"targetUserCount"`
	DeliveryResults     entities.DeliveryResults `json:"deliveryResults"`
	AutoActionsExecuted bool                     `json:"autoActionsExecuted"`
	AutoActionResults   []ActionResult           `json:"autoActionResults,omitempty"`
}

// Dispatcher creates alerts and fans them out to recipients.
type Dispatcher struct {
	deps Dependencies
	opts Options
	log  logger.Logger

	now   func() time.Time
	newID func() string
}

// NewDispatcher creates a Dispatcher. Repositories are required; channels,
// actions and metrics are optional.
func NewDispatcher(deps Dependencies, opts Options, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Dispatcher{
		deps:  deps,
		opts:  opts.withDefaults(),
		log:   log.Module("alerting"),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Dispatch validates the request, resolves its audience, persists the alert
// and delivers it. Only validation and the initial insert can fail the call;
// delivery and auto-action failures end up in the result.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) (*DispatchResult, error) {
	start := d.now()

	if err := req.Validate(); err != nil {
		d.deps.Metrics.RecordRejected(RejectValidation)
		return nil, err
	}

	recipients, err := d.resolveRecipients(ctx, *req.TargetAudience)
	if err != nil {
		return nil, err
	}

	alert := &entities.Alert{
		ID:              d.newID(),
		Type:            req.Type,
		Severity:        req.Severity,
		Title:           req.Title,
		Message:         req.Message,
		Location:        req.Location,
		TargetAudience:  *req.TargetAudience,
		AutoActions:     req.AutoActions,
		ExpiresAt:       req.ExpiresAt,
		Metadata:        req.Metadata,
		Status:          StatusActive,
		TargetUserCount: len(recipients),
		CreatedBy:       req.CreatedBy,
	}
	if err := d.deps.Alerts.CreateAlert(ctx, alert); err != nil {
		return nil, errors.New(err).
			Component("alerting").
			Category(errors.CategoryDatabase).
			Context("alert_id", alert.ID).
			Build()
	}

	log := d.log.With(logger.String("alert_id", alert.ID))
	log.Info("alert created",
		logger.String("type", alert.Type),
		logger.String("severity", alert.Severity),
		logger.Int("recipients", len(recipients)))

	// The alert exists now; finish the fan-out even if the caller goes away.
	work := context.WithoutCancel(ctx)

	actions := req.requestedActions()
	actionsDone := make(chan []ActionResult, 1)
	go func() {
		actionsDone <- d.runAutoActions(work, alert, actions)
	}()

	sentAt := d.now()
	results := d.deliver(work, alert, recipients, sentAt)
	actionResults := <-actionsDone

	if len(actions) > 0 {
		d.logActivity(work, &entities.ActivityLog{
			AlertID: alert.ID,
			Action:  ActivityAutoActionsExecuted,
			ActorID: req.CreatedBy,
			Details: map[string]any{"results": actionResults},
		})
	}

	// A failed finalization write leaves the alert without its tally but
	// does not fail the dispatch.
	if err := d.deps.Alerts.SaveDeliveryResults(work, alert.ID, results, sentAt); err != nil {
		log.Error("failed to save delivery results", logger.Error(err))
	}

	d.logActivity(work, &entities.ActivityLog{
		AlertID: alert.ID,
		Action:  ActivityAlertSent,
		ActorID: req.CreatedBy,
		Details: map[string]any{
			"recipientCount":  len(recipients),
			"deliveryResults": results,
			"autoActions":     actions,
		},
	})

	d.deps.Metrics.RecordDispatch(alert.Type, alert.Severity, len(recipients), d.now().Sub(start))
	log.Info("alert dispatched", logger.Any("delivery_results", results))

	return &DispatchResult{
		AlertID:             alert.ID,
		TargetUserCount:     len(recipients),
		DeliveryResults:     results,
		AutoActionsExecuted: len(actions) > 0,
		AutoActionResults:   actionResults,
	}, nil
}

// resolveRecipients turns an audience descriptor into active users.
func (d *Dispatcher) resolveRecipients(ctx context.Context, audience entities.TargetAudience) ([]entities.User, error) {
	query, ok := audienceQuery(audience)
	if !ok {
		if d.opts.EmptyAudiencePolicy == conf.AudiencePolicyFailClosed {
			d.deps.Metrics.RecordRejected(RejectEmptyAudience)
			return nil, validationError("targetAudience must select at least one of all, bhvOnly, customerIds, roles or locations")
		}
		d.log.Warn("target audience has no selectors, sending to all active users",
			logger.String("policy", d.opts.EmptyAudiencePolicy))
	}

	users, err := d.deps.Users.FindRecipients(ctx, query)
	if err != nil {
		return nil, errors.New(err).
			Component("alerting").
			Category(errors.CategoryDatabase).
			Build()
	}
	if len(users) == 0 {
		d.deps.Metrics.RecordRejected(RejectNoRecipients)
		return nil, validationError("No recipients found for target audience")
	}
	return users, nil
}

// audienceQuery maps an audience to a recipient query. ok is false when the
// audience selects nothing; the query then matches every active user.
func audienceQuery(audience entities.TargetAudience) (query repository.RecipientQuery, ok bool) {
	switch {
	case audience.All:
		query.All = true
	case audience.BHVOnly:
		query.Roles = rbac.BHVRoleNames()
	case audience.HasSelectors():
		query.Roles = audience.Roles
		query.CustomerIDs = audience.CustomerIDs
		query.Locations = audience.Locations
	default:
		return repository.RecipientQuery{All: true}, false
	}
	return query, true
}

// runAutoActions executes every requested action concurrently. One failure
// never prevents the others.
func (d *Dispatcher) runAutoActions(ctx context.Context, alert *entities.Alert, actions []string) []ActionResult {
	if len(actions) == 0 {
		return nil
	}

	results := make([]ActionResult, len(actions))
	var g errgroup.Group
	for i, action := range actions {
		g.Go(func() error {
			results[i] = d.runAutoAction(ctx, alert, action)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (d *Dispatcher) runAutoAction(ctx context.Context, alert *entities.Alert, action string) ActionResult {
	result := ActionResult{Action: action}
	if d.deps.Actions == nil {
		result.Error = "no action executor configured"
		d.deps.Metrics.RecordAutoAction(action, false)
		return result
	}

	actx, cancel := context.WithTimeout(ctx, d.opts.ActionTimeout)
	defer cancel()

	err := d.deps.Actions.Execute(actx, notification.ActionRequest{
		Action:   action,
		AlertID:  alert.ID,
		Type:     alert.Type,
		Severity: alert.Severity,
		Title:    alert.Title,
		Message:  alert.Message,
		Location: alert.Location,
	})
	if err != nil {
		d.log.Warn("auto-action failed",
			logger.String("alert_id", alert.ID),
			logger.String("action", action),
			logger.Error(err))
		result.Error = err.Error()
	} else {
		result.Success = true
	}
	d.deps.Metrics.RecordAutoAction(action, result.Success)
	return result
}

// deliveryJob is one per-recipient send.
type deliveryJob struct {
	channel string
	userID  string
	send    func(ctx context.Context) error
}

// deliver runs every channel and returns the tally. Per-recipient sends run
// concurrently; each writes only its own slot and the slots are reduced
// after the group finishes.
func (d *Dispatcher) deliver(ctx context.Context, alert *entities.Alert, recipients []entities.User, sentAt time.Time) entities.DeliveryResults {
	var results entities.DeliveryResults
	results.Realtime = d.deliverRealtime(ctx, alert, recipients, sentAt)

	jobs := d.deliveryJobs(alert, recipients, sentAt)
	ok := make([]bool, len(jobs))

	var g errgroup.Group
	g.SetLimit(d.opts.DeliveryConcurrency)
	for i := range jobs {
		g.Go(func() error {
			ok[i] = d.attempt(ctx, alert.ID, &jobs[i])
			return nil
		})
	}
	_ = g.Wait()

	for i := range jobs {
		var tally *entities.ChannelTally
		switch jobs[i].channel {
		case ChannelPush:
			tally = &results.Push
		case ChannelEmail:
			tally = &results.Email
		case ChannelSMS:
			tally = &results.SMS
		default:
			continue
		}
		if ok[i] {
			tally.Sent++
		} else {
			tally.Failed++
		}
	}

	d.deps.Metrics.RecordDelivery(ChannelRealtime, results.Realtime.Sent, results.Realtime.Failed)
	d.deps.Metrics.RecordDelivery(ChannelPush, results.Push.Sent, results.Push.Failed)
	d.deps.Metrics.RecordDelivery(ChannelEmail, results.Email.Sent, results.Email.Failed)
	d.deps.Metrics.RecordDelivery(ChannelSMS, results.SMS.Sent, results.SMS.Failed)
	return results
}

// deliverRealtime makes a single broadcast call; its outcome counts for
// every recipient.
func (d *Dispatcher) deliverRealtime(ctx context.Context, alert *entities.Alert, recipients []entities.User, sentAt time.Time) entities.ChannelTally {
	if d.deps.Channels.Realtime == nil {
		return entities.ChannelTally{}
	}

	rctx, cancel := context.WithTimeout(ctx, d.opts.DeliveryTimeout)
	defer cancel()

	if err := d.deps.Channels.Realtime.Broadcast(rctx, buildBroadcast(alert, recipients, sentAt)); err != nil {
		d.log.Warn("realtime broadcast failed",
			logger.String("alert_id", alert.ID),
			logger.Error(err))
		return entities.ChannelTally{Failed: len(recipients)}
	}
	return entities.ChannelTally{Sent: len(recipients)}
}

// deliveryJobs lists the per-recipient sends. Recipients without the contact
// field of a channel get no job on it; SMS is limited to critical and fatal.
func (d *Dispatcher) deliveryJobs(alert *entities.Alert, recipients []entities.User, sentAt time.Time) []deliveryJob {
	ch := d.deps.Channels
	sms := ch.SMS != nil && SMSEligible(alert.Severity)

	var jobs []deliveryJob
	for i := range recipients {
		user := &recipients[i]

		if ch.Push != nil && user.PushSubscription != "" {
			msg := buildPush(alert, user)
			jobs = append(jobs, deliveryJob{
				channel: ChannelPush,
				userID:  user.ID,
				send:    func(ctx context.Context) error { return ch.Push.SendPush(ctx, msg) },
			})
		}

		if ch.Email != nil && user.Email != "" {
			to := user.Email
			jobs = append(jobs, deliveryJob{
				channel: ChannelEmail,
				userID:  user.ID,
				send: func(ctx context.Context) error {
					msg, err := renderEmail(alert, to, sentAt)
					if err != nil {
						return err
					}
					return ch.Email.SendEmail(ctx, msg)
				},
			})
		}

		if sms && user.Phone != "" {
			msg := buildSMS(alert, user.Phone)
			jobs = append(jobs, deliveryJob{
				channel: ChannelSMS,
				userID:  user.ID,
				send:    func(ctx context.Context) error { return ch.SMS.SendSMS(ctx, msg) },
			})
		}
	}
	return jobs
}

func (d *Dispatcher) attempt(ctx context.Context, alertID string, job *deliveryJob) bool {
	jctx, cancel := context.WithTimeout(ctx, d.opts.DeliveryTimeout)
	defer cancel()

	if err := job.send(jctx); err != nil {
		d.log.Warn("delivery failed",
			logger.String("alert_id", alertID),
			logger.String("channel", job.channel),
			logger.String("user_id", job.userID),
			logger.Error(err))
		return false
	}
	return true
}

// logActivity writes an activity entry. Failures are logged and dropped.
func (d *Dispatcher) logActivity(ctx context.Context, entry *entities.ActivityLog) {
	if d.deps.Activity == nil {
		return
	}
	if err := d.deps.Activity.Log(ctx, entry); err != nil {
		d.log.Debug("failed to write activity log",
			logger.String("alert_id", entry.AlertID),
			logger.String("action", entry.Action),
			logger.Error(err))
	}
}
