package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/coursework-service/internal/models"
)

// SandboxClient sends code and tests to the remote grading machine.
type SandboxClient interface {
	Compile(ctx context.Context, req *models.SandboxRequest) (*models.SandboxResponse, error)
}

type sandboxClient struct {
	baseURL         string
	compileEndpoint string
	client          *http.Client
	logger          zerolog.Logger
}

// NewSandboxClient creates a client whose every call is bounded by timeout.
// Failed calls are not retried; the student resubmits instead.
func NewSandboxClient(baseURL, compileEndpoint string, timeout time.Duration, logger zerolog.Logger) SandboxClient {
	return &sandboxClient{
		baseURL:         baseURL,
		compileEndpoint: compileEndpoint,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *sandboxClient) Compile(ctx context.Context, sreq *models.SandboxRequest) (*models.SandboxResponse, error) {
	body, err := json.Marshal(sreq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sandbox request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.compileEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("Sandbox request failed")
		return nil, models.Unavailablef("The grading machine is unavailable. Please try again later.")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("body", string(respBody)).
			Msg("Sandbox returned unexpected status")
		return nil, models.Unavailablef("The grading machine returned an error. Please try again later.")
	}

	var sresp models.SandboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&sresp); err != nil {
		c.logger.Error().Err(err).Msg("Failed to decode sandbox response")
		return nil, models.Unavailablef("The grading machine returned an unreadable response.")
	}

	c.logger.Debug().
		Int("language", sreq.Language).
		Int("errors", len(sresp.Errors)).
		Dur("elapsed", time.Since(start)).
		Msg("Sandbox run finished")

	return &sresp, nil
}
