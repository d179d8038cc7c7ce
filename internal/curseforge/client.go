package curseforge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasttemplate"
)

const (
	// DefaultGameID is the CurseForge game identifier for Minecraft.
	DefaultGameID = 432
	// DefaultFingerprintPath is the matching endpoint; {game_id} is substituted.
	DefaultFingerprintPath = "/v1/fingerprints/{game_id}"

	defaultTimeout   = 30 * time.Second
	maxErrorBodySize = 512
)

// Match is an exact fingerprint hit.
type Match struct {
	Fingerprint uint32
	ProjectID   int64
	FileID      int64
	FileName    string
	DisplayName string
	DownloadURL string
}

// MatchResult groups the outcome of one matching request.
type MatchResult struct {
	Exact     map[uint32]Match
	Unmatched []uint32
}

// Matcher resolves fingerprints to files.
type Matcher interface {
	MatchFingerprints(ctx context.Context, fingerprints []uint32) (*MatchResult, error)
}

// Config describes how to reach the service.
type Config struct {
	APIKey          string
	BaseURL         string
	FingerprintPath string
	GameID          int
	UserAgent       string
	Timeout         time.Duration
}

// Client talks to the CurseForge API.
type Client struct {
	apiKey     string
	endpoint   string
	userAgent  string
	httpClient *http.Client
}

var _ Matcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a CurseForge client.
func New(cfg Config, opts ...Option) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("curseforge api key required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("curseforge base url required")
	}
	gameID := cfg.GameID
	if gameID == 0 {
		gameID = DefaultGameID
	}
	if gameID < 0 {
		return nil, fmt.Errorf("curseforge game id must be positive (got %d)", gameID)
	}
	path := strings.TrimSpace(cfg.FingerprintPath)
	if path == "" {
		path = DefaultFingerprintPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		apiKey:     apiKey,
		endpoint:   baseURL + renderPath(path, gameID),
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func renderPath(path string, gameID int) string {
	return fasttemplate.ExecuteStringStd(path, "{", "}", map[string]any{
		"game_id": strconv.Itoa(gameID),
	})
}

// Endpoint returns the fully rendered matching URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type matchRequest struct {
	Fingerprints []uint32 `json:"fingerprints"`
}

type matchResponse struct {
	Data struct {
		ExactMatches []struct {
			ID   int64 `json:"id"`
			File struct {
				ID              int64  `json:"id"`
				ModID           int64  `json:"modId"`
				DisplayName     string `json:"displayName"`
				FileName        string `json:"fileName"`
				DownloadURL     string `json:"downloadUrl"`
				FileFingerprint uint32 `json:"fileFingerprint"`
			} `json:"file"`
		} `json:"exactMatches"`
		UnmatchedFingerprints []uint32 `json:"unmatchedFingerprints"`
	} `json:"data"`
}

// MatchFingerprints submits fingerprints in a single request and returns the
// exact matches keyed by fingerprint. The first match reported for a
// fingerprint wins. Fingerprints with no exact match are listed in Unmatched
// in request order.
func (c *Client) MatchFingerprints(ctx context.Context, fingerprints []uint32) (*MatchResult, error) {
	if len(fingerprints) == 0 {
		return &MatchResult{Exact: map[uint32]Match{}}, nil
	}
	body, err := json.Marshal(matchRequest{Fingerprints: fingerprints})
	if err != nil {
		return nil, fmt.Errorf("encode fingerprint request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
			Latency:    latency,
		}
	}

	var payload matchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode curseforge response: %w", err)
	}

	result := &MatchResult{Exact: make(map[uint32]Match, len(payload.Data.ExactMatches))}
	for _, m := range payload.Data.ExactMatches {
		fp := m.File.FileFingerprint
		if _, seen := result.Exact[fp]; seen {
			continue
		}
		projectID := m.File.ModID
		if projectID == 0 {
			projectID = m.ID
		}
		result.Exact[fp] = Match{
			Fingerprint: fp,
			ProjectID:   projectID,
			FileID:      m.File.ID,
			FileName:    m.File.FileName,
			DisplayName: m.File.DisplayName,
			DownloadURL: m.File.DownloadURL,
		}
	}
	for _, fp := range fingerprints {
		if _, ok := result.Exact[fp]; !ok {
			result.Unmatched = append(result.Unmatched, fp)
		}
	}
	return result, nil
}

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
	Latency    time.Duration
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("curseforge returned %d (latency=%v)", e.StatusCode, e.Latency)
	}
	return fmt.Sprintf("curseforge returned %d (latency=%v): %s", e.StatusCode, e.Latency, e.Body)
}

// Temporary reports whether retrying later could succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
