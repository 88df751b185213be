package services

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// PexelsClient finds a photo for a task title using the Pexels search API.
type PexelsClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewPexelsClient returns a client for baseURL (normally
// https://api.pexels.com).
func NewPexelsClient(apiKey, baseURL string, timeout time.Duration) *PexelsClient {
	return &PexelsClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// FindImage returns the medium-size URL of the first search hit, or "" when
// there is none.
func (c *PexelsClient) FindImage(ctx context.Context, query string) (string, error) {
	u := c.baseURL + "/v1/search?" + url.Values{"query": {query}, "per_page": {"1"}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", errors.Wrap(err, "build pexels request")
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "pexels search")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, "read pexels response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("pexels search: %s", resp.Status)
	}
	return gjson.GetBytes(body, "photos.0.src.medium").String(), nil
}
