package jenkins

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const buildTree = "builds[number,result,timestamp,url,actions[causes[_class,shortDescription],parameters[name,value]]]"

// Client fetches build history from a Jenkins server.
type Client interface {
	JobBuilds(ctx context.Context, job string) ([]Build, error)
}

// HTTPClient implements Client against the Jenkins JSON API.
type HTTPClient struct {
	BaseURL string
	User    string
	// Token is a Jenkins API token, sent via basic auth.
	Token string

	httpClient *http.Client
}

// NewHTTPClient returns a client for the Jenkins instance at baseURL.
func NewHTTPClient(baseURL, user, token string) *HTTPClient {
	return &HTTPClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		User:       user,
		Token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// JobBuilds returns the build history of a job, newest first, with causes
// already adapted to the tagged form.
func (c *HTTPClient) JobBuilds(ctx context.Context, job string) ([]Build, error) {
	if job == "" {
		return nil, fmt.Errorf("job name is blank")
	}

	u := fmt.Sprintf("%s/job/%s/api/json?tree=%s",
		c.BaseURL, url.PathEscape(job), url.QueryEscape(buildTree))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.User != "" {
		req.SetBasicAuth(c.User, c.Token)
	}

	log.Debug().Str("job", job).Str("url", c.BaseURL).Msg("fetch jenkins builds")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch builds for %s: %w", job, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("job %s not found", job)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch builds for %s: %s: %s", job, resp.Status, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Builds []rawBuild `json:"builds"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("parse builds for %s: %w", job, err)
	}

	builds := make([]Build, 0, len(payload.Builds))
	for _, raw := range payload.Builds {
		builds = append(builds, adaptBuild(raw))
	}
	return builds, nil
}
