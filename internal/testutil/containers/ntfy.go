//go:build integration

package containers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// NtfyContainer is an ntfy server used as a shoutrrr target for authority
// notifications.
type NtfyContainer struct {
	container testcontainers.Container
	hostPort  string
}

// NtfyConfig holds configuration for ntfy container creation.
type NtfyConfig struct {
	ImageTag string
}

// NtfyMessage is one message read back from a topic.
type NtfyMessage struct {
	ID      string `json:"id"`
	Event   string `json:"event"`
	Topic   string `json:"topic"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// NewNtfyContainer starts an anonymous ntfy server with a message cache so
// published messages can be polled afterwards.
func NewNtfyContainer(ctx context.Context, config *NtfyConfig) (*NtfyContainer, error) {
	tag := "latest"
	if config != nil && config.ImageTag != "" {
		tag = config.ImageTag
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "binwiederhier/ntfy:" + tag,
			ExposedPorts: []string{"80/tcp"},
			Cmd:          []string{"serve", "--cache-file=/tmp/ntfy/cache.db"},
			Tmpfs:        map[string]string{"/tmp/ntfy": "rw"},
			WaitingFor:   wait.ForHTTP("/v1/health").WithPort("80/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start ntfy container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "80/tcp")
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	return &NtfyContainer{container: container, hostPort: net.JoinHostPort(host, port.Port())}, nil
}

// GetHost returns host:port of the server, as used in ntfy:// service URLs.
func (c *NtfyContainer) GetHost(_ context.Context) string {
	return c.hostPort
}

// PollMessages returns the cached messages of topic.
func (c *NtfyContainer) PollMessages(ctx context.Context, topic string) ([]NtfyMessage, error) {
	url := fmt.Sprintf("http://%s/%s/json?poll=1", c.hostPort, topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := (&http.Client{Timeout: 10 * time.Second}).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to poll messages: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll request failed with status %d", resp.StatusCode)
	}

	// One JSON object per line.
	var messages []NtfyMessage
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var msg NtfyMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			return nil, fmt.Errorf("failed to parse message JSON: %w", err)
		}
		if msg.Event != "" && msg.Event != "message" {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, scanner.Err()
}

// Terminate stops and removes the ntfy container.
func (c *NtfyContainer) Terminate(ctx context.Context) error {
	if c.container == nil {
		return nil
	}
	if err := c.container.Terminate(ctx); err != nil {
		return fmt.Errorf("failed to terminate container: %w", err)
	}
	return nil
}
