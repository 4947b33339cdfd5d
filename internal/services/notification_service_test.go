package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotificationService_ValidatesURLs(t *testing.T) {
	svc, err := NewNotificationService(nil)
	require.NoError(t, err)
	assert.False(t, svc.Enabled())

	svc, err = NewNotificationService([]string{"gotify://gotify.example.com/token", "https://hooks.example.com/x"})
	require.NoError(t, err)
	assert.True(t, svc.Enabled())

	_, err = NewNotificationService([]string{"no-scheme"})
	assert.ErrorIs(t, err, ErrInvalidNotifyURL)

	_, err = NewNotificationService([]string{"https:///path-only"})
	assert.ErrorIs(t, err, ErrInvalidNotifyURL)
}

func TestValidateNotifyURL_Discord(t *testing.T) {
	got, err := validateNotifyURL("https://discord.com/api/webhooks/123456/abc_DEF-1")
	require.NoError(t, err)
	assert.Equal(t, "discord://abc_DEF-1@123456", got)
}

func TestNotificationService_NotifyBlocked(t *testing.T) {
	var (
		mu   sync.Mutex
		sent = map[string]string{}
	)
	svc, err := NewNotificationService([]string{"generic://a.example.com", "generic://b.example.com"})
	require.NoError(t, err)
	svc.WithSender(func(url, message string) error {
		mu.Lock()
		defer mu.Unlock()
		sent[url] = message
		if url == "generic://b.example.com" {
			return errors.New("unreachable")
		}
		return nil
	})

	svc.NotifyBlocked("10.0.0.1", "MUT-0001", "SQL_INJECTION", "SQL injection attempt detected")
	svc.Wait()

	assert.Len(t, sent, 2)
	assert.Contains(t, sent["generic://a.example.com"], "10.0.0.1")
	assert.Contains(t, sent["generic://a.example.com"], "MUT-0001")
}

func TestNotificationService_DisabledIsNoop(t *testing.T) {
	called := false
	svc, err := NewNotificationService(nil)
	require.NoError(t, err)
	svc.WithSender(func(string, string) error { called = true; return nil })
	svc.NotifyBlocked("x", "MUT-0001", "DDOS_ATTEMPT", "r")
	svc.Wait()
	assert.False(t, called)

	var nilSvc *NotificationService
	nilSvc.NotifyBlocked("x", "y", "z", "w")
	nilSvc.Wait()
}

func TestServiceName(t *testing.T) {
	assert.Equal(t, "discord", serviceName("discord://token@id"))
	assert.Equal(t, "unknown", serviceName("nothing"))
}
