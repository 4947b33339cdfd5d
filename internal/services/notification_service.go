package services

import (
	"errors"
	"fmt"
	neturl "net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/containrrr/shoutrrr"

	"github.com/Wikid82/chimera/backend/internal/logger"
	"github.com/Wikid82/chimera/backend/internal/util"
)

var (
	ErrInvalidNotifyURL = errors.New("invalid notification url")
)

// SendFunc delivers one message to one shoutrrr URL.
type SendFunc func(url, message string) error

// NotificationService pushes blocked-source alerts to external channels.
type NotificationService struct {
	urls []string
	send SendFunc
	wg   sync.WaitGroup
}

// NewNotificationService validates the configured URLs. With no URLs the
// service is a no-op.
func NewNotificationService(urls []string) (*NotificationService, error) {
	out := make([]string, 0, len(urls))
	for _, raw := range urls {
		u, err := validateNotifyURL(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return &NotificationService{urls: out, send: shoutrrrSend}, nil
}

// WithSender swaps the delivery function. Used by tests.
func (s *NotificationService) WithSender(fn SendFunc) *NotificationService {
	s.send = fn
	return s
}

// Enabled reports whether any destination is configured.
func (s *NotificationService) Enabled() bool {
	return s != nil && len(s.urls) > 0
}

// NotifyBlocked fans out an alert for a freshly blocked source. Sends happen in
// the background; failures are logged.
func (s *NotificationService) NotifyBlocked(source, decisionID, category, reason string) {
	if !s.Enabled() {
		return
	}
	title := fmt.Sprintf("Chimera blocked %s", util.SanitizeForLog(source))
	msg := fmt.Sprintf("%s\n\n%s %s: %s", title, decisionID, category, reason)

	for _, u := range s.urls {
		s.wg.Add(1)
		go func(dest string) {
			defer s.wg.Done()
			if err := s.send(dest, msg); err != nil {
				logger.Log().WithError(err).WithField("service", serviceName(dest)).Warn("Failed to send notification")
			}
		}(u)
	}
}

// Wait blocks until in-flight sends complete.
func (s *NotificationService) Wait() {
	if s == nil {
		return
	}
	s.wg.Wait()
}

func shoutrrrSend(url, message string) error {
	return shoutrrr.Send(url, message)
}

var discordWebhookRegex = regexp.MustCompile(`^https://discord(?:app)?\.com/api/webhooks/(\d+)/([a-zA-Z0-9_-]+)`)

// validateNotifyURL accepts shoutrrr service URLs and plain Discord webhook
// links, which are rewritten to the discord:// form.
func validateNotifyURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if m := discordWebhookRegex.FindStringSubmatch(raw); len(m) == 3 {
		return fmt.Sprintf("discord://%s@%s", m[2], m[1]), nil
	}
	u, err := neturl.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidNotifyURL, err)
	}
	if u.Scheme == "" {
		return "", fmt.Errorf("%w: missing scheme", ErrInvalidNotifyURL)
	}
	if (u.Scheme == "http" || u.Scheme == "https") && u.Hostname() == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidNotifyURL)
	}
	return raw, nil
}

// serviceName returns the URL scheme so logs never carry tokens.
func serviceName(url string) string {
	if i := strings.Index(url, "://"); i > 0 {
		return url[:i]
	}
	return "unknown"
}
