package subscription

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"ms-events-web/internal/backend"
	"ms-events-web/internal/logger"
	"ms-events-web/internal/models"
	"ms-events-web/internal/utils"
)

// ErrNoTicketURL means neither the backend nor the event offered a usable ticket link.
var ErrNoTicketURL = errors.New("no ticket link is available for this event")

// Store is the subscription endpoint of the backend.
type Store interface {
	CreateSubscription(ctx context.Context, intent models.SubscriptionIntent) (*models.SubscriptionResult, error)
}

// ClickthroughPublisher records ticket hand-offs. Optional.
type ClickthroughPublisher interface {
	PublishClickthrough(ctx context.Context, click models.Clickthrough) error
}

type Service struct {
	store     Store
	publisher ClickthroughPublisher
	logger    *logger.Logger
	now       func() time.Time
}

func NewService(store Store, publisher ClickthroughPublisher, log *logger.Logger) *Service {
	return &Service{store: store, publisher: publisher, logger: log, now: time.Now}
}

// Subscribe stores the intent and returns the URL the visitor should be sent to.
// fallbackTicketURL is the event's own ticket link, used when the backend does
// not return one.
func (s *Service) Subscribe(ctx context.Context, intent models.SubscriptionIntent, fallbackTicketURL string) (string, error) {
	intent.Email = strings.TrimSpace(intent.Email)
	if err := backend.Validate(intent); err != nil {
		return "", err
	}

	res, err := s.store.CreateSubscription(ctx, intent)
	if err != nil {
		s.logger.Warn("SUBSCRIBE", fmt.Sprintf("Subscription for event %s failed: %v", intent.EventID, err))
		return "", err
	}

	target := ""
	if res != nil {
		target = strings.TrimSpace(res.TicketURL)
	}
	if target == "" {
		target = strings.TrimSpace(fallbackTicketURL)
	}
	if !models.IsAbsoluteHTTPURL(target) {
		s.logger.Warn("SUBSCRIBE", fmt.Sprintf("Event %s has no usable ticket URL (%q)", intent.EventID, target))
		return "", ErrNoTicketURL
	}

	s.logger.Info("SUBSCRIBE", fmt.Sprintf("Subscribed to event %s (optIn=%t)", intent.EventID, intent.OptIn))
	s.publish(ctx, intent, target)
	return target, nil
}

func (s *Service) publish(ctx context.Context, intent models.SubscriptionIntent, target string) {
	if s.publisher == nil {
		return
	}
	host := ""
	if u, err := url.Parse(target); err == nil {
		host = u.Host
	}
	click := models.Clickthrough{
		EventID:    intent.EventID,
		OptIn:      intent.OptIn,
		TicketHost: host,
		RequestID:  utils.RequestIDFromContext(ctx),
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.PublishClickthrough(ctx, click); err != nil {
		s.logger.Warn("SUBSCRIBE", fmt.Sprintf("Failed to publish clickthrough for event %s: %v", intent.EventID, err))
	}
}
