//go:build integration

//nolint:misspell // Mosquitto is the official Eclipse project name
package containers

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// mosquittoNoAuthConfig lets any client connect on 1883.
const mosquittoNoAuthConfig = `listener 1883
allow_anonymous true
`

// MosquittoContainer wraps an Eclipse Mosquitto broker.
type MosquittoContainer struct {
	container testcontainers.Container
	brokerURL string
}

// MosquittoConfig holds configuration for Mosquitto container creation.
type MosquittoConfig struct {
	ImageTag string
}

// DefaultMosquittoConfig returns the configuration used when nil is passed.
func DefaultMosquittoConfig() MosquittoConfig {
	return MosquittoConfig{ImageTag: "2.0"}
}

// NewMosquittoContainer starts an anonymous-access broker and waits until a
// client can connect.
func NewMosquittoContainer(ctx context.Context, config *MosquittoConfig) (*MosquittoContainer, error) {
	if config == nil {
		defaultCfg := DefaultMosquittoConfig()
		config = &defaultCfg
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "eclipse-mosquitto:" + config.ImageTag,
			ExposedPorts: []string{"1883/tcp"},
			Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
			Files: []testcontainers.ContainerFile{{
				Reader:            strings.NewReader(mosquittoNoAuthConfig),
				ContainerFilePath: "/mosquitto-no-auth.conf",
				FileMode:          0o644,
			}},
			WaitingFor: wait.ForListeningPort("1883/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Mosquitto container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "1883/tcp")
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	mc := &MosquittoContainer{
		container: container,
		brokerURL: "tcp://" + net.JoinHostPort(host, port.Port()),
	}

	client, err := mc.CreateClient("healthcheck")
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	client.Disconnect(250)

	return mc, nil
}

// BrokerURL returns the broker address, e.g. "tcp://localhost:32771".
func (c *MosquittoContainer) BrokerURL() string {
	return c.brokerURL
}

// CreateClient connects a new client. The caller disconnects it.
func (c *MosquittoContainer) CreateClient(clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.brokerURL)
	opts.SetClientID(clientID)
	opts.SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connect timeout for client %s", clientID)
	}
	if token.Error() != nil {
		return nil, fmt.Errorf("failed to connect client: %w", token.Error())
	}
	return client, nil
}

// Terminate stops and removes the broker.
func (c *MosquittoContainer) Terminate(ctx context.Context) error {
	if c.container != nil {
		if err := c.container.Terminate(ctx); err != nil {
			return fmt.Errorf("failed to terminate container: %w", err)
		}
	}
	return nil
}
