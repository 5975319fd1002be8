package bookingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"healthtick/backend/internal/domain"
	"healthtick/backend/internal/observability/metrics"
	"healthtick/backend/internal/store"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseBody = 4 << 20

	pathGetUsers      = "/api/getUsers"
	pathGetBookings   = "/api/getBookings"
	pathAddBooking    = "/api/addBooking"
	pathDeleteBooking = "/api/deleteBookings/"
)

// StatusError is returned when the booking API answers with a non-2xx status.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bookingapi: %s: unexpected status code: %d", e.Operation, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return store.ErrNotFound
	}
	return nil
}

// Client talks to the remote booking API that owns clients and bookings.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
	metrics    *metrics.SchedulerMetrics
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithMetrics(m *metrics.SchedulerMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func New(baseURL string, timeout time.Duration, log *slog.Logger, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With(slog.String("component", "store.bookingapi")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListClients(ctx context.Context) ([]domain.Client, error) {
	payload, err := c.do(ctx, "get_users", http.MethodGet, pathGetUsers, nil)
	if err != nil {
		return nil, err
	}
	var out []domain.Client
	if err := decode(payload, &out); err != nil {
		return nil, fmt.Errorf("bookingapi: get_users: decode response: %w", err)
	}
	return out, nil
}

func (c *Client) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	payload, err := c.do(ctx, "get_bookings", http.MethodGet, pathGetBookings, nil)
	if err != nil {
		return nil, err
	}
	var out []domain.Booking
	if err := decode(payload, &out); err != nil {
		return nil, fmt.Errorf("bookingapi: get_bookings: decode response: %w", err)
	}
	return out, nil
}

// AddBooking submits b without an id. The server's echo of the stored booking
// is used when it carries an id; otherwise b is returned as sent.
func (c *Client) AddBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	b.ID = ""
	payload, err := c.do(ctx, "add_booking", http.MethodPost, pathAddBooking, b)
	if err != nil {
		return domain.Booking{}, err
	}

	var created domain.Booking
	if err := json.Unmarshal(payload, &created); err == nil && created.ID != "" {
		return created, nil
	}
	return b, nil
}

func (c *Client) DeleteBooking(ctx context.Context, id string) error {
	_, err := c.do(ctx, "delete_booking", http.MethodDelete, pathDeleteBooking+url.PathEscape(id), nil)
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, body any) ([]byte, error) {
	start := time.Now()
	status := "error"
	defer func() {
		c.metrics.ObserveStoreCall(op, status, time.Since(start).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("bookingapi: %s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("bookingapi: %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("booking api request failed", slog.String("op", op), slog.Any("err", err))
		return nil, fmt.Errorf("bookingapi: %s: %w", op, err)
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("bookingapi: %s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn(
			"booking api returned error status",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode),
		)
		return nil, &StatusError{Operation: op, StatusCode: resp.StatusCode, Body: string(payload)}
	}

	c.log.Debug("booking api request done", slog.String("op", op), slog.Duration("latency", time.Since(start)))
	return payload, nil
}

func decode(payload []byte, out any) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	return json.Unmarshal(payload, out)
}
