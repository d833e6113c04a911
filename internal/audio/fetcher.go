// Package audio downloads voicemail recordings from the telephony
// platform's media URLs.
package audio

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/voicetriage/voicetriage/pkg/logger"
)

// Fetcher downloads recording audio over HTTP, optionally authenticating
// with the telephony platform's credentials.
type Fetcher struct {
	httpClient *http.Client
	username   string
	password   string
	maxRetries int
	logger     *logger.Logger
}

// NewFetcher creates a new audio fetcher. username/password may be empty,
// in which case downloads are attempted unauthenticated.
func NewFetcher(timeout time.Duration, username, password string, maxRetries int, logger *logger.Logger) *Fetcher {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	if maxRetries < 1 {
		maxRetries = 1
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		username:   username,
		password:   password,
		maxRetries: maxRetries,
		logger:     logger.Named("audio-fetcher"),
	}
}

// Fetch downloads the audio at url and returns its bytes. Transient
// failures are retried with a doubling backoff up to the configured limit.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	retryDelay := 1 * time.Second

	var lastErr error
	for attempt := 0; attempt < f.maxRetries; attempt++ {
		if attempt > 0 {
			f.logger.Warn("Retrying audio download",
				logger.String("url", url),
				logger.Int("attempt", attempt+1),
				logger.Int("max_attempts", f.maxRetries),
				logger.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
				retryDelay *= 2
			}
		}

		data, err := f.fetchOnce(ctx, url)
		if err == nil {
			f.logger.Debug("Downloaded recording",
				logger.String("url", url),
				logger.Int("bytes", len(data)),
			)
			return data, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("failed to download audio after %d attempts: %w", f.maxRetries, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", "VoiceTriage/1.0")
	if f.username != "" {
		req.SetBasicAuth(f.username, f.password)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio body: %w", err)
	}

	return data, nil
}
