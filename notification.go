package vtcore

// NotificationPayload carries a desktop notification request (OSC 9/99).
// Fields follow the Kitty/iTerm2 desktop notification escape sequence:
// a notification is assembled across possibly several OSC 99 writes
// identified by ID, and Done marks the final chunk.
type NotificationPayload struct {
	ID          string
	Done        bool
	PayloadType string // "title", "body", "close", "?" (capability query), ...
	Encoding    string
	Actions     []string
	TrackClose  bool
	Timeout     int
	AppName     string
	Type        string
	IconName    string
	IconCacheID string
	Sound       string
	Urgency     int
	Occasion    string
	Data        []byte
}

// NotificationProvider delivers desktop notifications to the host environment.
// Notify may return a query-response string (e.g. for PayloadType == "?"),
// which the caller writes back to the PTY verbatim; an empty string means
// no response is expected.
type NotificationProvider interface {
	Notify(payload *NotificationPayload) string
}

// NoopNotification discards all notifications and never replies to queries.
type NoopNotification struct{}

func (NoopNotification) Notify(payload *NotificationPayload) string { return "" }

var _ NotificationProvider = NoopNotification{}

// SetNotificationProvider replaces the desktop notification handler.
func (t *Terminal) SetNotificationProvider(p NotificationProvider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notificationProvider = p
}

// NotificationProvider returns the current desktop notification handler.
func (t *Terminal) NotificationProvider() NotificationProvider {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.notificationProvider
}

// DesktopNotification handles OSC 9/99 desktop notification requests.
func (t *Terminal) DesktopNotification(payload *NotificationPayload) {
	if t.middleware != nil && t.middleware.DesktopNotification != nil {
		t.middleware.DesktopNotification(payload, t.desktopNotificationInternal)
		return
	}
	t.desktopNotificationInternal(payload)
}

func (t *Terminal) desktopNotificationInternal(payload *NotificationPayload) {
	t.mu.RLock()
	provider := t.notificationProvider
	t.mu.RUnlock()

	if provider == nil {
		return
	}

	response := provider.Notify(payload)
	if response != "" {
		t.writeResponseString(response)
	}
}
