package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ms-events-web/internal/logger"
	"ms-events-web/internal/models"
	"ms-events-web/internal/utils"
)

const (
	DefaultSubscriptionLimit = 1000

	maxResponseBytes = 4 << 20
)

// Client talks to the events backend.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *logger.Logger
}

func NewClient(baseURL string, client *http.Client, log *logger.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		logger:  log,
	}
}

// BaseURL returns the backend origin requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// envelope is the response wrapper every backend endpoint uses.
type envelope[T any] struct {
	Success    bool   `json:"success"`
	Data       T      `json:"data"`
	Error      string `json:"error,omitempty"`
	Total      *int   `json:"total,omitempty"`
	TotalPages *int   `json:"totalPages,omitempty"`
	Page       *int   `json:"page,omitempty"`
	Limit      *int   `json:"limit,omitempty"`
}

func envelopeFailure(op, msg, fallback string) error {
	if msg == "" {
		msg = fallback
	}
	return &EnvelopeError{Op: op, Message: msg}
}

// GetEvents fetches one page of the event listing.
func (c *Client) GetEvents(ctx context.Context, params models.FetchParams) (*models.EventPage, error) {
	if err := Validate(params); err != nil {
		return nil, err
	}

	var env envelope[[]models.Event]
	if err := c.do(ctx, "list events", http.MethodGet, "/api/events", params.Query(), nil, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, envelopeFailure("list events", env.Error, "Failed to load events")
	}

	page := &models.EventPage{
		Data:       c.checkEvents(env.Data),
		Total:      env.Total,
		TotalPages: env.TotalPages,
		Page:       env.Page,
		Limit:      env.Limit,
	}
	c.logger.Debug("BACKEND", fmt.Sprintf("Fetched %d events (page=%d, limit=%d)", len(page.Data), params.Page, params.Limit))
	return page, nil
}

// GetEvent fetches a single event by id.
func (c *Client) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &ValidationError{Field: "ID", Message: "Event id is required"}
	}

	var env envelope[*models.Event]
	if err := c.do(ctx, "get event", http.MethodGet, "/api/events/"+url.PathEscape(id), nil, nil, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, envelopeFailure("get event", env.Error, "Event not found")
	}
	if env.Data == nil {
		return nil, &EnvelopeError{Op: "get event", Message: "Event not found"}
	}
	if env.Data.ID == "" {
		env.Data.ID = id
	}
	if err := c.checkEvent(env.Data); err != nil {
		c.logger.Warn("BACKEND", fmt.Sprintf("Rejected event %s: %v", id, err))
		return nil, &EnvelopeError{Op: "get event", Message: "Event details are incomplete"}
	}
	return env.Data, nil
}

// checkEvents drops listed events that break the event invariants.
func (c *Client) checkEvents(events []models.Event) []models.Event {
	valid := make([]models.Event, 0, len(events))
	for i := range events {
		if err := c.checkEvent(&events[i]); err != nil {
			c.logger.Warn("BACKEND", fmt.Sprintf("Skipping listed event %q: %v", events[i].ID, err))
			continue
		}
		valid = append(valid, events[i])
	}
	return valid
}

// checkEvent validates e. A ticket URL that is not absolute is cleared
// rather than rejecting the whole event.
func (c *Client) checkEvent(e *models.Event) error {
	err := e.Validate()
	if errors.Is(err, models.ErrInvalidTicketURL) {
		c.logger.Warn("BACKEND", fmt.Sprintf("Cleared ticket url: %v", err))
		e.TicketURL = ""
		return nil
	}
	return err
}

// CreateSubscription records the visitor's email against an event and returns
// the ticket URL the backend wants them sent to, if any.
func (c *Client) CreateSubscription(ctx context.Context, intent models.SubscriptionIntent) (*models.SubscriptionResult, error) {
	intent.Email = strings.TrimSpace(intent.Email)
	if err := Validate(intent); err != nil {
		return nil, err
	}

	var env envelope[*models.SubscriptionResult]
	if err := c.do(ctx, "create subscription", http.MethodPost, "/api/subscriptions", nil, intent, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, envelopeFailure("create subscription", env.Error, "Failed to create subscription")
	}
	if env.Data == nil {
		return &models.SubscriptionResult{}, nil
	}
	return env.Data, nil
}

// ListSubscriptions returns up to limit subscriptions; limit <= 0 uses DefaultSubscriptionLimit.
func (c *Client) ListSubscriptions(ctx context.Context, limit int) ([]models.Subscription, error) {
	if limit <= 0 {
		limit = DefaultSubscriptionLimit
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	var env envelope[[]models.Subscription]
	if err := c.do(ctx, "list subscriptions", http.MethodGet, "/api/subscriptions", q, nil, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, envelopeFailure("list subscriptions", env.Error, "Failed to load subscriptions")
	}
	if env.Data == nil {
		return []models.Subscription{}, nil
	}
	return env.Data, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if requestID := utils.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set(utils.RequestIDHeader, requestID)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("BACKEND", fmt.Sprintf("%s %s failed: %v", method, path, err))
		return &TransportError{Op: op, Err: err}
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Warn("BACKEND", fmt.Sprintf("Failed to close response body: %v", err))
		}
	}(resp.Body)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	c.logger.LogBackend(method, path, fmt.Sprintf("%d (%s)", resp.StatusCode, time.Since(start).Round(time.Millisecond)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &errBody)
		msg := strings.TrimSpace(errBody.Error)
		if msg == "" {
			msg = httpStatusMessage(resp.StatusCode)
		}
		c.logger.Warn("BACKEND", fmt.Sprintf("%s %s returned %d: %s", method, path, resp.StatusCode, msg))
		return &StatusError{Op: op, Code: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Error("BACKEND", fmt.Sprintf("Failed to decode %s response: %v", op, err))
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
