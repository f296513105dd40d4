// Package conf loads and validates service settings.
package conf

import "time"

// Empty-audience policies.
const (
	AudiencePolicyFailOpen   = "fail_open"
	AudiencePolicyFailClosed = "fail_closed"
)

// Realtime delivery modes.
const (
	RealtimeModeHub  = "hub"
	RealtimeModeHTTP = "http"
)

// Automation transports.
const (
	AutomationTransportHTTP = "http"
	AutomationTransportMQTT = "mqtt"
)

// Database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Settings is the root configuration, passed explicitly to every constructor.
type Settings struct {
	Main struct {
		Name     string `mapstructure:"name" yaml:"name"`
		LogLevel string `mapstructure:"loglevel" yaml:"loglevel"`
		Timezone string `mapstructure:"timezone" yaml:"timezone"`
	} `mapstructure:"main" yaml:"main"`

	WebServer struct {
		Port            string   `mapstructure:"port" yaml:"port"`
		ReadTimeout     Duration `mapstructure:"readtimeout" yaml:"readtimeout"`
		WriteTimeout    Duration `mapstructure:"writetimeout" yaml:"writetimeout"`
		ShutdownTimeout Duration `mapstructure:"shutdowntimeout" yaml:"shutdowntimeout"`
	} `mapstructure:"webserver" yaml:"webserver"`

	Database DatabaseSettings `mapstructure:"database" yaml:"database"`

	Alerting AlertingSettings `mapstructure:"alerting" yaml:"alerting"`

	Delivery DeliverySettings `mapstructure:"delivery" yaml:"delivery"`

	Automation AutomationSettings `mapstructure:"automation" yaml:"automation"`

	Security struct {
		Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
		RoleHeader string `mapstructure:"roleheader" yaml:"roleheader"`
	} `mapstructure:"security" yaml:"security"`

	Sentry struct {
		Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
		DSN         string `mapstructure:"dsn" yaml:"dsn"`
		Environment string `mapstructure:"environment" yaml:"environment"`
	} `mapstructure:"sentry" yaml:"sentry"`
}

// DatabaseSettings selects and configures the alert store.
type DatabaseSettings struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	SQLite struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"sqlite" yaml:"sqlite"`
	MySQL struct {
		Host     string `mapstructure:"host" yaml:"host"`
		Port     int    `mapstructure:"port" yaml:"port"`
		Username string `mapstructure:"username" yaml:"username"`
		Password string `mapstructure:"password" yaml:"password"`
		Database string `mapstructure:"database" yaml:"database"`
	} `mapstructure:"mysql" yaml:"mysql"`
}

// AlertingSettings tunes the dispatcher.
type AlertingSettings struct {
	// EmptyAudiencePolicy decides what an audience with no selectors resolves to.
	EmptyAudiencePolicy string   `mapstructure:"emptyaudiencepolicy" yaml:"emptyaudiencepolicy"`
	DeliveryConcurrency int      `mapstructure:"deliveryconcurrency" yaml:"deliveryconcurrency"`
	IdempotencyTTL      Duration `mapstructure:"idempotencyttl" yaml:"idempotencyttl"`
	ListMaxLimit        int      `mapstructure:"listmaxlimit" yaml:"listmaxlimit"`
}

// EndpointSettings is an outbound HTTP JSON endpoint.
type EndpointSettings struct {
	URL   string `mapstructure:"url" yaml:"url"`
	Token string `mapstructure:"token" yaml:"token"`
}

// DeliverySettings configures the four delivery channels.
type DeliverySettings struct {
	Timeout  Duration `mapstructure:"timeout" yaml:"timeout"`
	Realtime struct {
		Mode             string `mapstructure:"mode" yaml:"mode"`
		EndpointSettings `mapstructure:",squash" yaml:",inline"`
	} `mapstructure:"realtime" yaml:"realtime"`
	Push  EndpointSettings `mapstructure:"push" yaml:"push"`
	Email struct {
		From             string `mapstructure:"from" yaml:"from"`
		EndpointSettings `mapstructure:",squash" yaml:",inline"`
	} `mapstructure:"email" yaml:"email"`
	SMS struct {
		RatePerSecond    float64 `mapstructure:"ratepersecond" yaml:"ratepersecond"`
		EndpointSettings `mapstructure:",squash" yaml:",inline"`
	} `mapstructure:"sms" yaml:"sms"`
}

// AutomationSettings configures facility auto-actions.
type AutomationSettings struct {
	Transport string   `mapstructure:"transport" yaml:"transport"`
	Timeout   Duration `mapstructure:"timeout" yaml:"timeout"`
	Token     string   `mapstructure:"token" yaml:"token"`
	// Endpoints maps an action name (lock_doors, ...) to its HTTP endpoint.
	Endpoints map[string]string `mapstructure:"endpoints" yaml:"endpoints"`
	MQTT      struct {
		Broker      string `mapstructure:"broker" yaml:"broker"`
		ClientID    string `mapstructure:"clientid" yaml:"clientid"`
		Username    string `mapstructure:"username" yaml:"username"`
		Password    string `mapstructure:"password" yaml:"password"`
		TopicPrefix string `mapstructure:"topicprefix" yaml:"topicprefix"`
		QoS         int    `mapstructure:"qos" yaml:"qos"`
	} `mapstructure:"mqtt" yaml:"mqtt"`
	// AuthorityURLs are shoutrrr service URLs used for notify_authorities.
	AuthorityURLs []string `mapstructure:"authorityurls" yaml:"authorityurls"`
}

// Location resolves the configured timezone, falling back to local time.
func (s *Settings) Location() *time.Location {
	if s.Main.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.Main.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
