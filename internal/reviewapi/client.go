// Package reviewapi fetches homework review statuses from the review API.
package reviewapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"homeworkbot/internal/homework"
	logx "homeworkbot/pkg/logx"
)

const (
	DefaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	defaultTimeout  = 10 * time.Second

	// maxBodyBytes caps how much of a response we read.
	maxBodyBytes = 4 << 20
)

type Config struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
}

// StatusError carries a non-200 HTTP response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected http status %d", e.Code)
	}
	return fmt.Sprintf("unexpected http status %d: %s", e.Code, e.Body)
}

type Client struct {
	cfg  Config
	log  logx.Logger
	http *http.Client
	now  func() time.Time
}

func New(cfg Config, log logx.Logger) *Client {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		cfg:  cfg,
		log:  log,
		http: &http.Client{Timeout: cfg.Timeout},
		now:  time.Now,
	}
}

// Fetch requests status changes since fromDate (unix seconds).
// fromDate <= 0 means "now".
func (c *Client) Fetch(ctx context.Context, fromDate int64) (homework.Payload, error) {
	if fromDate <= 0 {
		fromDate = c.now().Unix()
	}
	log := c.log.With(logx.Int64("from_date", fromDate))

	u, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: bad endpoint: %v", homework.ErrAPIUnavailable, err)
	}
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(fromDate, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", homework.ErrAPIUnavailable, err)
	}
	req.Header.Set("Authorization", "OAuth "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			log.Debug("endpoint request cancelled", logx.Err(cerr))
			return nil, fmt.Errorf("%w: %w", homework.ErrAPIUnavailable, cerr)
		}
		log.Error("endpoint request failed", logx.Err(err))
		return nil, fmt.Errorf("%w: request failed: %v", homework.ErrAPIUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			log.Debug("endpoint read cancelled", logx.Err(cerr))
			return nil, fmt.Errorf("%w: %w", homework.ErrAPIUnavailable, cerr)
		}
		log.Error("reading endpoint response failed", logx.Err(err))
		return nil, fmt.Errorf("%w: read body: %v", homework.ErrAPIUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		se := &StatusError{Code: resp.StatusCode, Body: truncate(strings.TrimSpace(string(body)), 200)}
		log.Error("endpoint returned non-200", logx.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: %w", homework.ErrAPIUnavailable, se)
	}

	p, err := homework.DecodePayload(body)
	if err != nil {
		log.Error("endpoint response is not json", logx.Err(err))
		return nil, err
	}
	log.Debug("endpoint response received", logx.Duration("took", time.Since(start)), logx.Int("bytes", len(body)))
	return p, nil
}

// StatusCode extracts the HTTP status from a Fetch error, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// truncate cuts s to at most maxN runes.
func truncate(s string, maxN int) string {
	if maxN <= 3 || utf8.RuneCountInString(s) <= maxN {
		return s
	}
	rs := []rune(s)
	return string(rs[:maxN-3]) + "..."
}
