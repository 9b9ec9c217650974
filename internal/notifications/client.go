package notifications

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"ap_business_tools/internal/metrics"
	"ap_business_tools/internal/retry"

	"github.com/rs/zerolog/log"
)

const (
	circuitThreshold = 5
	circuitCooldown  = 30 * time.Second
	sendTimeout      = 30 * time.Second
)

// Config for the ntfy push client. Disabled clients accept calls and do nothing.
type Config struct {
	Enabled  bool
	BaseURL  string
	Topic    string
	Priority string
	Retry    retry.Config
}

type Client struct {
	httpClient *http.Client
	cfg        Config

	mutex       sync.Mutex
	failures    int
	lastFailure time.Time
	circuitOpen bool
	totalSent   int64
	totalFailed int64
	wg          sync.WaitGroup
}

// Inquiry is what a new-lead notification says about the customer.
type Inquiry struct {
	CustomerName string
	Phone        string
	Address      string
	JobTypes     []string
	Timeline     string
}

type NotificationError struct {
	Type       string
	StatusCode int
	Underlying error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification failed [%s]: %v", e.Type, e.Underlying)
}

func (e *NotificationError) Unwrap() error { return e.Underlying }

func (e *NotificationError) IsRetryable() bool {
	switch e.Type {
	case "network", "server", "rate_limit":
		return true
	default:
		return false
	}
}

var errCircuitOpen = errors.New("circuit breaker is open")

func NewClient(cfg Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cfg:        cfg,
	}
}

// NotifyNewInquiry pushes a new-lead message in the background. The request
// that recorded the inquiry does not wait for it.
func (c *Client) NotifyNewInquiry(ctx context.Context, in Inquiry) {
	if c == nil || !c.cfg.Enabled {
		return
	}

	message := formatInquiry(in)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
		defer cancel()
		if err := c.Send(sendCtx, "New painting inquiry", message); err != nil {
			log.Warn().Err(err).Str("customer", in.CustomerName).Msg("New inquiry notification failed")
		}
	}()
}

// Wait blocks until background notifications have finished.
func (c *Client) Wait() {
	if c != nil {
		c.wg.Wait()
	}
}

// Send posts one message, retrying transient failures per the retry config.
func (c *Client) Send(ctx context.Context, title, message string) error {
	if !c.cfg.Enabled {
		log.Debug().Msg("Notifications disabled, skipping")
		return nil
	}
	if c.isCircuitOpen() {
		metrics.NotificationsSent.WithLabelValues("skipped").Inc()
		return &NotificationError{Type: "circuit_open", Underlying: errCircuitOpen}
	}

	err := retry.Do(ctx, c.cfg.Retry, func(ctx context.Context) error {
		err := c.post(ctx, title, message)
		var notifErr *NotificationError
		if errors.As(err, &notifErr) && !notifErr.IsRetryable() {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		c.recordFailure()
		metrics.NotificationsSent.WithLabelValues("failed").Inc()
		return err
	}
	c.recordSuccess()
	metrics.NotificationsSent.WithLabelValues("sent").Inc()
	return nil
}

func (c *Client) post(ctx context.Context, title, message string) error {
	url := fmt.Sprintf("%s/%s", strings.TrimSuffix(c.cfg.BaseURL, "/"), c.cfg.Topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(message))
	if err != nil {
		return &NotificationError{Type: "client", Underlying: err}
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Title", title)
	req.Header.Set("Tags", "house")
	if c.cfg.Priority != "" {
		req.Header.Set("Priority", c.cfg.Priority)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NotificationError{Type: "network", Underlying: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &NotificationError{
			Type:       categorizeHTTPError(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Underlying: fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status),
		}
	}

	log.Debug().
		Int("status_code", resp.StatusCode).
		Str("topic", c.cfg.Topic).
		Msg("Notification sent")
	return nil
}

func formatInquiry(in Inquiry) string {
	var sb strings.Builder
	name := in.CustomerName
	if name == "" {
		name = "Unknown customer"
	}
	sb.WriteString(name)
	if len(in.JobTypes) > 0 {
		sb.WriteString(" (" + strings.Join(in.JobTypes, ", ") + ")")
	}
	sb.WriteString("\n")
	if in.Address != "" {
		sb.WriteString("Address: " + in.Address + "\n")
	}
	if in.Phone != "" {
		sb.WriteString("Phone: " + in.Phone + "\n")
	}
	if in.Timeline != "" {
		sb.WriteString("Timeline: " + in.Timeline + "\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func (c *Client) isCircuitOpen() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.circuitOpen && time.Since(c.lastFailure) > circuitCooldown {
		c.circuitOpen = false
		c.failures = 0
		log.Info().Msg("Circuit breaker moving to half-open state")
	}
	return c.circuitOpen
}

func (c *Client) recordSuccess() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.totalSent++
	c.failures = 0
	if c.circuitOpen {
		c.circuitOpen = false
		log.Info().Msg("Circuit breaker closed after successful notification")
	}
}

func (c *Client) recordFailure() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.totalFailed++
	c.failures++
	c.lastFailure = time.Now()
	if c.failures >= circuitThreshold && !c.circuitOpen {
		c.circuitOpen = true
		log.Warn().
			Int("failures", c.failures).
			Msg("Circuit breaker opened due to consecutive failures")
	}
}

func categorizeHTTPError(statusCode int) string {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return "auth"
	case statusCode == http.StatusTooManyRequests:
		return "rate_limit"
	case statusCode >= 400 && statusCode < 500:
		return "client"
	default:
		return "server"
	}
}

// GetMetrics returns counts of sent and failed notifications.
func (c *Client) GetMetrics() (sent, failed int64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.totalSent, c.totalFailed
}
