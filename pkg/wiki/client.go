package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/amrlabs/amrd/config"
	"github.com/amrlabs/amrd/internal"
	"github.com/amrlabs/amrd/pkg/models"
)

const (
	clientTimeout  = 30 * time.Second
	clientRetryMax = 3
)

var log = internal.GetLogger()

var _ models.WikiResolver = &Client{}

// Client resolves entity surface forms against the link-resolution server.
// A 404 from the server is a miss, not an error.
type Client struct {
	serverURL     string
	knowledgeBase string
	httpClient    *retryablehttp.Client
}

func NewClient(cfg *config.Config) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = clientRetryMax
	httpClient.HTTPClient.Timeout = clientTimeout
	httpClient.Logger = &internal.LeveledLogrus{Logger: log}
	httpClient.Backoff = retryablehttp.DefaultBackoff
	httpClient.CheckRetry = retryPolicy

	return &Client{
		serverURL:     cfg.Wiki.ServerURL,
		knowledgeBase: cfg.Wiki.KnowledgeBase,
		httpClient:    httpClient,
	}
}

// retryPolicy is a retryablehttp.CheckRetry function. A 404 means the
// surface has no entry and must not be retried.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	shouldRetry, _ := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	return shouldRetry, nil
}

type linkResponse struct {
	ID string `json:"id"`
}

// Resolve looks up the knowledge-base identifier for a surface form. It
// returns the empty string on a miss.
func (c *Client) Resolve(ctx context.Context, surface string) (string, error) {
	query := url.Values{}
	query.Set("kb", c.knowledgeBase)
	query.Set("surface", surface)

	req, err := retryablehttp.NewRequestWithContext(
		ctx,
		http.MethodGet,
		fmt.Sprintf("%s/v1/link?%s", c.serverURL, query.Encode()),
		nil,
	)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", surface, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return "", nil
	case http.StatusOK:
	default:
		return "", fmt.Errorf("link server returned status %d for %q", resp.StatusCode, surface)
	}

	var response linkResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decoding link response for %q: %w", surface, err)
	}
	return response.ID, nil
}
