// Package contentapi fetches property content documents from the upstream
// content API.
package contentapi

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"pension_site/internal/adapters/observability"
	"pension_site/internal/domain"
)

const maxAttempts = 4

var (
	ErrNotFound     = fmt.Errorf("contentapi: %w", domain.ErrNotFound)
	ErrUnauthorized = fmt.Errorf("contentapi: unauthorized: %w", domain.ErrAccessDenied)
	ErrForbidden    = fmt.Errorf("contentapi: forbidden: %w", domain.ErrAccessDenied)
)

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// GetContent returns the raw content document of one property. The content
// endpoint is tried first, then the bare property endpoint older deployments
// expose.
func (c *Client) GetContent(ctx context.Context, id int64) (map[string]any, error) {
	candidates := []endpoint{
		{name: "content", url: fmt.Sprintf("%s/properties/%d/content", c.base, id)},
		{name: "property", url: fmt.Sprintf("%s/property/%d", c.base, id)},
	}
	var out map[string]any
	if err := c.getFirst(ctx, candidates, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("content %d: empty document", id)
	}
	return out, nil
}

type endpoint struct{ name, url string }

func (c *Client) getFirst(ctx context.Context, eps []endpoint, out any) error {
	var last error
	for _, ep := range eps {
		err := c.get(ctx, ep, out)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		last = err
	}
	if last != nil {
		return last
	}
	return errors.New("contentapi: no endpoint succeeded")
}

// get performs one rate-limited GET, retrying 429 and transient 5xx with
// Retry-After or jittered exponential backoff, and decodes the body into out.
func (c *Client) get(ctx context.Context, ep endpoint, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("X-API-Key", c.key)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "pension-site/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("contentapi", ep.name, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if c.retry(ctx, i, backoff(i)) {
				continue
			}
			return c.giveUp(ctx, lastErr)
		}
		observability.ObserveExternal("contentapi", ep.name, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("decode %s: %w", ep.name, err)
			}
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("contentapi: remote %d", resp.StatusCode)
			if c.retry(ctx, i, wait) {
				continue
			}
			return c.giveUp(ctx, lastErr)

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("contentapi: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return lastErr
}

// retry sleeps before another attempt; false when attempts are spent or ctx ended.
func (c *Client) retry(ctx context.Context, attempt int, wait time.Duration) bool {
	return attempt < maxAttempts-1 && sleepCtx(ctx, wait)
}

func (c *Client) giveUp(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter reads Retry-After in seconds or HTTP-date form; 0 when unusable.
func retryAfter(resp *http.Response) time.Duration {
	h := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	return base + time.Duration(0.5*float64(b[0])/255.0*float64(base))
}
