package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sadopc/trackview/internal/logger"
	"github.com/sadopc/trackview/internal/timeline"
)

const (
	sessionTimelinePath  = "/api/tracking/sessions/%s/timeline/"
	blockExplanationPath = "/api/tracking/time-blocks/%d/explanation/"

	maxErrorBody = 64 << 10
)

var ErrEmptyExplanation = errors.New("explanation must not be empty")

// Client talks to the tracking backend.
type Client struct {
	base       string
	token      string
	httpClient *http.Client
	log        zerolog.Logger
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTimeout bounds each request. Zero means no client-side timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

func New(base string, opts ...Option) *Client {
	c := &Client{
		base:       strings.TrimRight(base, "/"),
		httpClient: http.DefaultClient,
		log:        logger.With("component", "api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Base() string { return c.base }

// ImageURL resolves a screenshot image path against the API base.
func (c *Client) ImageURL(path string) string {
	return timeline.ResolveImageURL(c.base, path)
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	if c.token != "" && strings.HasPrefix(target, c.base) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, reqID, nil
}

// FetchSession loads and validates one session timeline.
func (c *Client) FetchSession(ctx context.Context, sessionID string) (*timeline.Session, error) {
	target := c.base + fmt.Sprintf(sessionTimelinePath, url.PathEscape(sessionID))
	req, reqID, err := c.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	log := c.log.With().Str("session_id", sessionID).Str("request_id", reqID).Logger()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("fetch session failed")
		return nil, fmt.Errorf("fetch session %s: %w", sessionID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		apiErr := readError(resp, reqID)
		log.Error().Int("status", resp.StatusCode).Str("detail", apiErr.Message).Msg("fetch session rejected")
		return nil, apiErr
	}

	var s timeline.Session
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		log.Error().Err(err).Msg("decode session")
		return nil, fmt.Errorf("%w: %v", timeline.ErrMalformedSession, err)
	}
	if err := s.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid session payload")
		return nil, err
	}
	log.Debug().Dur("elapsed", time.Since(start)).Int("blocks", len(s.TimeBlocks)).Msg("session fetched")
	return &s, nil
}

type explanationRequest struct {
	Explanation string `json:"explanation"`
}

// SubmitExplanation posts a dispute explanation for a time block. Only
// success or failure is consumed from the response.
func (c *Client) SubmitExplanation(ctx context.Context, blockID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyExplanation
	}
	body, err := json.Marshal(explanationRequest{Explanation: text})
	if err != nil {
		return fmt.Errorf("encode explanation: %w", err)
	}
	target := c.base + fmt.Sprintf(blockExplanationPath, blockID)
	req, reqID, err := c.newRequest(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	log := c.log.With().Int64("block_id", blockID).Str("request_id", reqID).Logger()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("submit explanation failed")
		return fmt.Errorf("submit explanation for block %d: %w", blockID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		apiErr := readError(resp, reqID)
		log.Error().Int("status", resp.StatusCode).Str("detail", apiErr.Message).Msg("explanation rejected")
		return apiErr
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	log.Info().Msg("explanation submitted")
	return nil
}

// Download describes a screenshot saved to disk.
type Download struct {
	Path string
	Size int64
}

// DownloadScreenshot saves the image at imageURL into dir/name.
func (c *Client) DownloadScreenshot(ctx context.Context, imageURL, dir, name string) (Download, error) {
	req, reqID, err := c.newRequest(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return Download{}, err
	}
	req.Header.Set("Accept", "image/*")
	log := c.log.With().Str("url", imageURL).Str("request_id", reqID).Logger()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("download screenshot failed")
		return Download{}, fmt.Errorf("download screenshot: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		apiErr := readError(resp, reqID)
		log.Warn().Int("status", resp.StatusCode).Msg("download screenshot rejected")
		return Download{}, apiErr
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Download{}, fmt.Errorf("create download directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return Download{}, fmt.Errorf("create temp file: %w", err)
	}
	n, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tmp.Name())
		return Download{}, fmt.Errorf("write screenshot: %w", errors.Join(copyErr, closeErr))
	}
	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return Download{}, fmt.Errorf("save screenshot: %w", err)
	}
	log.Info().Str("path", path).Int64("bytes", n).Msg("screenshot downloaded")
	return Download{Path: path, Size: n}, nil
}

// Error is a non-2xx backend response.
type Error struct {
	Status    int
	Message   string
	RequestID string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return "api error " + strconv.Itoa(e.Status)
}

func readError(resp *http.Response, reqID string) *Error {
	e := &Error{Status: resp.StatusCode, RequestID: reqID}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return e
	}
	var body map[string]interface{}
	if json.Unmarshal(data, &body) != nil {
		return e
	}
	for _, k := range []string{"detail", "error", "message"} {
		if v, ok := body[k].(string); ok && v != "" {
			e.Message = v
			break
		}
	}
	return e
}

// UserMessage picks the server-provided message if there is one, else fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrEmptyExplanation) {
		return ErrEmptyExplanation.Error()
	}
	return fallback
}
