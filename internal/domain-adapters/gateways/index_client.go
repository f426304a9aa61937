package gateways

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"

	"github.com/ochairo/apigather/internal/domain/entities"
)

const (
	// Max retries for transient errors
	maxRetries = 3
	// Initial backoff duration
	initialBackoff = 1 * time.Second
	// Max backoff duration
	maxBackoff = 32 * time.Second
)

// IndexClient discovers the versions a package index knows for a library
type IndexClient struct {
	httpClient *http.Client
}

// NewIndexClient creates a new index client
func NewIndexClient() *IndexClient {
	return &IndexClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second, // Reasonable timeout for version checks
		},
	}
}

// AvailableVersions returns the versions available for a target, newest
// first, with excluded patterns filtered out. The version.source field
// selects where versions come from:
//   - "" or "index": the package index's version list endpoint
//   - "github-tag:owner/repo": tags of a GitHub repository
func (c *IndexClient) AvailableVersions(ctx context.Context, def *entities.Target) ([]string, error) {
	source := def.Version.Source

	var versions []string
	var err error

	switch {
	case source == "" || source == "index":
		versions, err = c.fetchIndexList(ctx, def.IndexURL, def.Library)
	case strings.HasPrefix(source, "github-tag:"):
		repo := strings.TrimPrefix(source, "github-tag:")
		versions, err = c.fetchGitHubTags(ctx, repo)
	default:
		return nil, fmt.Errorf("unsupported version.source format: %s", source)
	}
	if err != nil {
		return nil, err
	}

	versions, err = filterVersions(versions, def.Version.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("no versions found for %s", def.Library)
	}

	sortVersions(versions)
	return versions, nil
}

// LatestVersion returns the newest available version for a target
func (c *IndexClient) LatestVersion(ctx context.Context, def *entities.Target) (string, error) {
	versions, err := c.AvailableVersions(ctx, def)
	if err != nil {
		return "", err
	}
	return versions[0], nil
}

// fetchIndexList fetches the newline-separated version list from the index
func (c *IndexClient) fetchIndexList(ctx context.Context, indexURL, library string) ([]string, error) {
	escaped, err := module.EscapePath(library)
	if err != nil {
		return nil, fmt.Errorf("invalid library path %s: %w", library, err)
	}

	url := fmt.Sprintf("%s/%s/@v/list", strings.TrimSuffix(indexURL, "/"), escaped)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "apigather/1.0")

	resp, err := c.doWithRetry(req)
	if err != nil {
		return nil, fmt.Errorf("index request failed: %w", err)
	}
	//nolint:errcheck // Defer close
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("index returned HTTP %d for %s", resp.StatusCode, library)
	}

	var versions []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			versions = append(versions, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read version list: %w", err)
	}

	return versions, nil
}

// gitHubTag represents a GitHub tag
type gitHubTag struct {
	Name string `json:"name"`
}

// fetchGitHubTags fetches tags from GitHub for targets not served by an index
func (c *IndexClient) fetchGitHubTags(ctx context.Context, repo string) ([]string, error) {
	url := fmt.Sprintf("https://api.github.com/repos/%s/tags", repo)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")

	// Add GitHub token if available (required for higher rate limits)
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		token = os.Getenv("GH_TOKEN")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.doWithRetry(req)
	if err != nil {
		return nil, fmt.Errorf("GitHub API request failed: %w", err)
	}
	//nolint:errcheck // Defer close
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("GitHub API error %d (failed to read response)", resp.StatusCode)
		}
		return nil, fmt.Errorf("GitHub API error %d: %s", resp.StatusCode, string(body))
	}

	var tags []gitHubTag
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to parse GitHub response: %w", err)
	}

	if len(tags) == 0 {
		return nil, fmt.Errorf("no tags found")
	}

	versions := make([]string, 0, len(tags))
	for _, tag := range tags {
		versions = append(versions, tag.Name)
	}
	return versions, nil
}

// doWithRetry executes an HTTP request with exponential backoff retry
func (c *IndexClient) doWithRetry(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(calculateBackoff(attempt - 1))
		}

		resp, err = c.httpClient.Do(req)
		if err != nil {
			// Network errors are retryable
			if attempt < maxRetries {
				continue
			}
			return nil, err
		}

		if !isRetryableError(resp.StatusCode) {
			return resp, nil
		}

		// Retryable error - close body and retry
		//nolint:errcheck,gosec // G104: Best effort close before retry
		resp.Body.Close()

		if attempt < maxRetries {
			continue
		}
	}

	return resp, err
}

// isRetryableError reports whether a status code is worth retrying
func isRetryableError(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	default:
		return false
	}
}

// calculateBackoff returns the backoff duration for a retry attempt
func calculateBackoff(attempt int) time.Duration {
	backoff := float64(initialBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}
	return time.Duration(backoff)
}

// filterVersions drops versions matching the exclude pattern
func filterVersions(versions []string, excludePatterns string) ([]string, error) {
	if excludePatterns == "" {
		return versions, nil
	}

	re, err := regexp.Compile(excludePatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude pattern: %w", err)
	}

	kept := make([]string, 0, len(versions))
	for _, v := range versions {
		if !re.MatchString(v) {
			kept = append(kept, v)
		}
	}
	return kept, nil
}

// sortVersions orders versions newest first, semantically when possible
func sortVersions(versions []string) {
	sort.Slice(versions, func(a, b int) bool {
		va, vb := CanonicalVersion(versions[a]), CanonicalVersion(versions[b])
		if semver.IsValid(va) && semver.IsValid(vb) {
			return semver.Compare(va, vb) > 0
		}
		return versions[a] > versions[b]
	})
}
