package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/avast/retry-go/v4"

	"github.com/amrlabs/amrd/config"
	"github.com/amrlabs/amrd/pkg/models"
)

const clientTimeout = 60 * time.Second

var _ models.ActionDecoder = &Client{}
var _ models.GraphReconstructor = &Client{}

// Client talks to the transition-based model server. One client implements
// both decoding collaborators, since the same server hosts both endpoints.
type Client struct {
	serverURL  string
	checkpoint string
	beamSize   int
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		serverURL:  cfg.Model.ServerURL,
		checkpoint: cfg.Model.Checkpoint,
		beamSize:   cfg.Model.BeamSize,
		httpClient: &http.Client{Timeout: clientTimeout},
	}
}

type actionsRequest struct {
	Tokens     []string `json:"tokens"`
	Checkpoint string   `json:"checkpoint,omitempty"`
	BeamSize   int      `json:"beam_size,omitempty"`
}

type actionsResponse struct {
	Actions []string `json:"actions"`
}

type graphRequest struct {
	Tokens  []string `json:"tokens"`
	Actions []string `json:"actions"`
}

type graphResponse struct {
	Graph string `json:"graph"`
}

type versionResponse struct {
	Version string `json:"version"`
}

// DecodeActions asks the model server for the transition-action sequence of
// one tokenized sentence.
func (c *Client) DecodeActions(ctx context.Context, tokens []string) ([]string, error) {
	request := actionsRequest{
		Tokens:     tokens,
		Checkpoint: c.checkpoint,
		BeamSize:   c.beamSize,
	}
	var response actionsResponse
	if err := c.post(ctx, "/v1/actions", request, &response); err != nil {
		return nil, fmt.Errorf("decoding actions: %w", err)
	}
	return response.Actions, nil
}

// BuildGraph asks the model server to replay an action sequence into a
// serialized graph.
func (c *Client) BuildGraph(ctx context.Context, tokens []string, actions []string) (string, error) {
	request := graphRequest{Tokens: tokens, Actions: actions}
	var response graphResponse
	if err := c.post(ctx, "/v1/graph", request, &response); err != nil {
		return "", fmt.Errorf("building graph: %w", err)
	}
	if response.Graph == "" {
		return "", fmt.Errorf("model server returned an empty graph")
	}
	return response.Graph, nil
}

// ServerVersion fetches the model server's reported version string.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/v1/version", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model server version check returned status %d", resp.StatusCode)
	}
	var response versionResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", err
	}
	return response.Version, nil
}

// CheckVersion fails with a ConfigurationError when the model server is
// older than minVersion. An empty minVersion disables the gate.
func (c *Client) CheckVersion(ctx context.Context, minVersion string) error {
	if minVersion == "" {
		return nil
	}
	required, err := semver.NewVersion(minVersion)
	if err != nil {
		return models.NewConfigurationError(
			fmt.Sprintf("invalid minimum model server version %q: %v", minVersion, err),
		)
	}

	reported, err := c.ServerVersion(ctx)
	if err != nil {
		return fmt.Errorf("fetching model server version: %w", err)
	}
	current, err := semver.NewVersion(reported)
	if err != nil {
		return models.NewConfigurationError(
			fmt.Sprintf("model server reported unparsable version %q: %v", reported, err),
		)
	}

	if current.LessThan(required) {
		return models.NewConfigurationError(
			fmt.Sprintf("model server version %s is older than required %s", current, required),
		)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, request any, response any) error {
	jsonBody, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}

	url := c.serverURL + path

	// Retry transient model server failures 3 times with a 1 second delay.
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				log.Error("Error making POST request:", err)
				return err
			}
			defer resp.Body.Close()

			bodyBytes, err := io.ReadAll(resp.Body)
			if err != nil {
				log.Error("Error reading response body:", err)
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("model server returned status %d: %s", resp.StatusCode, bodyBytes)
			}
			return json.Unmarshal(bodyBytes, response)
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.Context(ctx),
	)
}
