package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bhv-platform/bhv-go/internal/errors"
)

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 512

// Poster sends JSON payloads to downstream services. Any 2xx status is success.
type Poster struct {
	client *http.Client
	token  string
}

// NewPoster creates a Poster. A nil client uses http.DefaultClient.
func NewPoster(client *http.Client, token string) *Poster {
	if client == nil {
		client = http.DefaultClient
	}
	return &Poster{client: client, token: token}
}

// Post marshals payload and POSTs it to url.
func (p *Poster) Post(ctx context.Context, url string, payload any) error {
	if url == "" {
		return errors.Newf("no endpoint configured").
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.New(fmt.Errorf("request to %s failed: %w", url, err)).
			Component("notification").
			Category(errors.CategoryNetwork).
			Context("url", url).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.Newf("%s returned status %d: %s", url, resp.StatusCode, bytes.TrimSpace(snippet)).
			Component("notification").
			Category(errors.CategoryDelivery).
			Context("url", url).
			Context("status", resp.StatusCode).
			Build()
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
