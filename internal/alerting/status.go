package alerting

import (
	"context"
	"strings"

	"github.com/bhv-platform/bhv-go/internal/datastore/entities"
	"github.com/bhv-platform/bhv-go/internal/datastore/repository"
	"github.com/bhv-platform/bhv-go/internal/errors"
	"github.com/bhv-platform/bhv-go/internal/logger"
	"github.com/bhv-platform/bhv-go/internal/notification"
)

const (
	DefaultListLimit    = 50
	defaultListMaxLimit = 200
)

// ListFilter selects alerts. An empty Status means active; StatusAll lists
// every status.
type ListFilter struct {
	Status   string
	Type     string
	Severity string
	Limit    int
	Offset   int
}

// Pagination describes a returned page.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// ListResult is one page of alerts.
type ListResult struct {
	Alerts     []entities.Alert `json:"alerts"`
	Pagination Pagination       `json:"pagination"`
}

// List returns one page of alerts, newest first. HasMore is set when the
// page is full.
func (d *Dispatcher) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	status := filter.Status
	switch {
	case status == "":
		status = StatusActive
	case status == StatusAll:
		status = ""
	case !IsValidStatus(status):
		return nil, validationError("Invalid status %q", filter.Status)
	}
	if filter.Type != "" && !IsValidType(filter.Type) {
		return nil, validationError("Invalid alert type %q", filter.Type)
	}
	if filter.Severity != "" && !IsValidSeverity(filter.Severity) {
		return nil, validationError("Invalid severity %q", filter.Severity)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, d.opts.ListMaxLimit)
	offset := max(filter.Offset, 0)

	alerts, err := d.deps.Alerts.ListAlerts(ctx, repository.AlertFilter{
		Status:   status,
		Type:     filter.Type,
		Severity: filter.Severity,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, errors.New(err).
			Component("alerting").
			Category(errors.CategoryDatabase).
			Build()
	}
	if alerts == nil {
		alerts = []entities.Alert{}
	}

	return &ListResult{
		Alerts: alerts,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: len(alerts) == limit,
		},
	}, nil
}

// StatusRequest changes an alert's status and optionally records a response.
type StatusRequest struct {
	AlertID  string `json:"alertId"`
	Status   string `json:"status"`
	Response string `json:"response,omitempty"`
	UserID   string `json:"userId,omitempty"`
}

// UpdateStatus sets the status of an alert. Resolving stamps the resolution
// time and resolver; any other status clears both. The write is a blind
// update by ID and is not ordered against a running dispatch.
func (d *Dispatcher) UpdateStatus(ctx context.Context, req StatusRequest) error {
	var missing []string
	if strings.TrimSpace(req.AlertID) == "" {
		missing = append(missing, "alertId")
	}
	if strings.TrimSpace(req.Status) == "" {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		return validationError("Missing required fields: %s", strings.Join(missing, ", "))
	}
	if !IsValidStatus(req.Status) {
		return validationError("Invalid status %q, expected one of: %s", req.Status, strings.Join(statuses, ", "))
	}

	update := repository.StatusUpdate{Status: req.Status}
	if req.Status == StatusResolved {
		now := d.now()
		resolver := req.UserID
		if resolver == "" {
			resolver = DefaultResolver
		}
		update.ResolvedAt = &now
		update.ResolvedBy = &resolver
	}

	if err := d.deps.Alerts.UpdateStatus(ctx, req.AlertID, update); err != nil {
		return notFoundOrDatabase(err, req.AlertID)
	}

	log := d.log.With(logger.String("alert_id", req.AlertID))
	log.Info("alert status updated",
		logger.String("status", req.Status),
		logger.String("user_id", req.UserID))
	d.deps.Metrics.RecordStatusUpdate(req.Status)

	details := map[string]any{"status": req.Status}
	if update.ResolvedBy != nil {
		details["resolvedBy"] = *update.ResolvedBy
	}
	d.logActivity(ctx, &entities.ActivityLog{
		AlertID: req.AlertID,
		Action:  ActivityStatusUpdated,
		ActorID: req.UserID,
		Details: details,
	})

	if req.Response != "" && req.UserID != "" {
		response := &entities.AlertResponse{
			AlertID:  req.AlertID,
			UserID:   req.UserID,
			Response: req.Response,
			Status:   req.Status,
		}
		if err := d.deps.Alerts.AddResponse(ctx, response); err != nil {
			log.Warn("failed to record alert response", logger.Error(err))
		} else {
			d.logActivity(ctx, &entities.ActivityLog{
				AlertID: req.AlertID,
				Action:  ActivityResponseAdded,
				ActorID: req.UserID,
				Details: map[string]any{"response": req.Response},
			})
		}
	}

	d.broadcastStatus(ctx, req)
	return nil
}

// broadcastStatus tells the alert's audience about the change. Failures are
// logged only. When the audience cannot be resolved the message goes out
// unaddressed, which only dashboards receive.
func (d *Dispatcher) broadcastStatus(ctx context.Context, req StatusRequest) {
	if d.deps.Channels.Realtime == nil {
		return
	}
	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.DeliveryTimeout)
	defer cancel()

	recipients, err := d.statusRecipients(bctx, req.AlertID)
	if err != nil {
		d.log.Debug("could not resolve status broadcast audience",
			logger.String("alert_id", req.AlertID),
			logger.Error(err))
	}

	msg := notification.BroadcastMessage{
		Event:        EventAlertUpdated,
		AlertID:      req.AlertID,
		Status:       req.Status,
		RecipientIDs: recipients,
		SentAt:       d.now(),
	}
	if err := d.deps.Channels.Realtime.Broadcast(bctx, msg); err != nil {
		d.log.Debug("status broadcast failed",
			logger.String("alert_id", req.AlertID),
			logger.Error(err))
	}
}

// statusRecipients re-resolves the stored audience of an alert. Users added
// or deactivated since the dispatch are reflected.
func (d *Dispatcher) statusRecipients(ctx context.Context, alertID string) ([]string, error) {
	alert, err := d.deps.Alerts.GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}
	query, _ := audienceQuery(alert.TargetAudience)
	users, err := d.deps.Users.FindRecipients(ctx, query)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(users))
	for i := range users {
		ids = append(ids, users[i].ID)
	}
	return ids, nil
}

// AlertDetail is an alert together with its responses.
type AlertDetail struct {
	Alert     *entities.Alert          `json:"alert"`
	Responses []entities.AlertResponse `json:"responses"`
}

// Get returns one alert and its responses.
func (d *Dispatcher) Get(ctx context.Context, id string) (*AlertDetail, error) {
	alert, err := d.deps.Alerts.GetAlert(ctx, id)
	if err != nil {
		return nil, notFoundOrDatabase(err, id)
	}
	responses, err := d.deps.Alerts.ListResponses(ctx, id)
	if err != nil {
		return nil, errors.New(err).
			Component("alerting").
			Category(errors.CategoryDatabase).
			Context("alert_id", id).
			Build()
	}
	if responses == nil {
		responses = []entities.AlertResponse{}
	}
	return &AlertDetail{Alert: alert, Responses: responses}, nil
}

func notFoundOrDatabase(err error, alertID string) error {
	category := errors.CategoryDatabase
	if errors.Is(err, repository.ErrAlertNotFound) {
		category = errors.CategoryNotFound
	}
	return errors.New(err).
		Component("alerting").
		Category(category).
		Context("alert_id", alertID).
		Build()
}
