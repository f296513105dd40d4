package conf

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/bhv-platform/bhv-go/internal/errors"
)

// envPrefix scopes environment overrides, e.g. BHV_WEBSERVER_PORT.
const envPrefix = "BHV"

// envOnlyKeys have no default, so viper only sees them from the environment
// when they are bound explicitly. Most of them are endpoints and secrets.
var envOnlyKeys = []string{
	"database.mysql.host",
	"database.mysql.username",
	"database.mysql.password",
	"database.mysql.database",
	"delivery.realtime.url",
	"delivery.realtime.token",
	"delivery.push.url",
	"delivery.push.token",
	"delivery.email.url",
	"delivery.email.token",
	"delivery.email.from",
	"delivery.sms.url",
	"delivery.sms.token",
	"automation.token",
	"automation.authorityurls",
	"automation.mqtt.broker",
	"automation.mqtt.username",
	"automation.mqtt.password",
	"sentry.dsn",
}

// ActionNames lists the auto-action keys accepted under automation.endpoints.
var ActionNames = []string{"lock_doors", "activate_alarms", "notify_authorities", "start_evacuation"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("main.name", "bhv")
	v.SetDefault("main.loglevel", "info")
	v.SetDefault("main.timezone", "")

	v.SetDefault("webserver.port", "8080")
	v.SetDefault("webserver.readtimeout", "15s")
	v.SetDefault("webserver.writetimeout", "30s")
	v.SetDefault("webserver.shutdowntimeout", "10s")

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.sqlite.path", "bhv.db")
	v.SetDefault("database.mysql.port", 3306)

	v.SetDefault("alerting.emptyaudiencepolicy", AudiencePolicyFailOpen)
	v.SetDefault("alerting.deliveryconcurrency", 16)
	v.SetDefault("alerting.idempotencyttl", "10m")
	v.SetDefault("alerting.listmaxlimit", 200)

	v.SetDefault("delivery.timeout", "10s")
	v.SetDefault("delivery.realtime.mode", RealtimeModeHub)
	v.SetDefault("delivery.sms.ratepersecond", 10.0)

	v.SetDefault("automation.transport", AutomationTransportHTTP)
	v.SetDefault("automation.timeout", "5s")
	v.SetDefault("automation.mqtt.clientid", "bhv-alerting")
	v.SetDefault("automation.mqtt.topicprefix", "bhv/automation")
	v.SetDefault("automation.mqtt.qos", 1)

	v.SetDefault("security.enabled", false)
	v.SetDefault("security.roleheader", "X-BHV-Role")

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.environment", "production")
}

// Load reads settings from configFile (optional), the environment and defaults.
func Load(configFile string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envOnlyKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.New(fmt.Errorf("bind env for %s: %w", key, err)).
				Component("conf").
				Category(errors.CategoryConfiguration).
				Build()
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.New(fmt.Errorf("read config %s: %w", configFile, err)).
				Component("conf").
				Category(errors.CategoryConfiguration).
				Build()
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings, viper.DecodeHook(DurationDecodeHook())); err != nil {
		return nil, errors.New(fmt.Errorf("decode config: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate checks enum values and numeric ranges.
func (s *Settings) Validate() error {
	var problems []error

	if !slices.Contains([]string{DriverSQLite, DriverMySQL}, s.Database.Driver) {
		problems = append(problems, fmt.Errorf("database.driver %q must be %s or %s", s.Database.Driver, DriverSQLite, DriverMySQL))
	}
	if s.Database.Driver == DriverMySQL && (s.Database.MySQL.Host == "" || s.Database.MySQL.Database == "") {
		problems = append(problems, fmt.Errorf("database.mysql.host and database.mysql.database are required for mysql"))
	}
	if !slices.Contains([]string{AudiencePolicyFailOpen, AudiencePolicyFailClosed}, s.Alerting.EmptyAudiencePolicy) {
		problems = append(problems, fmt.Errorf("alerting.emptyaudiencepolicy %q must be %s or %s",
			s.Alerting.EmptyAudiencePolicy, AudiencePolicyFailOpen, AudiencePolicyFailClosed))
	}
	if s.Alerting.DeliveryConcurrency < 1 {
		problems = append(problems, fmt.Errorf("alerting.deliveryconcurrency must be at least 1"))
	}
	if s.Alerting.ListMaxLimit < 1 {
		problems = append(problems, fmt.Errorf("alerting.listmaxlimit must be at least 1"))
	}
	if s.Delivery.Timeout <= 0 {
		problems = append(problems, fmt.Errorf("delivery.timeout must be positive"))
	}
	switch s.Delivery.Realtime.Mode {
	case RealtimeModeHub:
	case RealtimeModeHTTP:
		if s.Delivery.Realtime.URL == "" {
			problems = append(problems, fmt.Errorf("delivery.realtime.url is required in http mode"))
		}
	default:
		problems = append(problems, fmt.Errorf("delivery.realtime.mode %q must be %s or %s",
			s.Delivery.Realtime.Mode, RealtimeModeHub, RealtimeModeHTTP))
	}
	if s.Delivery.SMS.RatePerSecond < 0 {
		problems = append(problems, fmt.Errorf("delivery.sms.ratepersecond must not be negative"))
	}
	switch s.Automation.Transport {
	case AutomationTransportHTTP:
	case AutomationTransportMQTT:
		if s.Automation.MQTT.Broker == "" {
			problems = append(problems, fmt.Errorf("automation.mqtt.broker is required for mqtt transport"))
		}
		if s.Automation.MQTT.QoS < 0 || s.Automation.MQTT.QoS > 2 {
			problems = append(problems, fmt.Errorf("automation.mqtt.qos must be 0, 1 or 2"))
		}
	default:
		problems = append(problems, fmt.Errorf("automation.transport %q must be %s or %s",
			s.Automation.Transport, AutomationTransportHTTP, AutomationTransportMQTT))
	}
	for name := range s.Automation.Endpoints {
		if !slices.Contains(ActionNames, name) {
			problems = append(problems, fmt.Errorf("automation.endpoints has unknown action %q", name))
		}
	}
	if s.Automation.Timeout <= 0 {
		problems = append(problems, fmt.Errorf("automation.timeout must be positive"))
	}
	if s.Sentry.Enabled && s.Sentry.DSN == "" {
		problems = append(problems, fmt.Errorf("sentry.dsn is required when sentry is enabled"))
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New(errors.Join(problems...)).
		Component("conf").
		Category(errors.CategoryConfiguration).
		Build()
}
