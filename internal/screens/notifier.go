package screens

import "sync"

// Alert titles.
const (
	AlertError   = "Error"
	AlertSuccess = "Success"
)

// Notifier shows a blocking notification with a title and a message.
type Notifier interface {
	Alert(title, message string)
}

// Confirmer asks a yes/no question.
type Confirmer interface {
	Confirm(title, message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(title, message string) bool

func (f ConfirmFunc) Confirm(title, message string) bool { return f(title, message) }

// Alert is one notification.
type Alert struct {
	Title   string
	Message string
}

// AlertLog records alerts so a host can render them after the fact.
type AlertLog struct {
	mu     sync.Mutex
	alerts []Alert
}

func (l *AlertLog) Alert(title, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.alerts = append(l.alerts, Alert{Title: title, Message: message})
}

// Alerts returns the recorded alerts in order.
func (l *AlertLog) Alerts() []Alert {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Alert(nil), l.alerts...)
}

// Last returns the most recent alert.
func (l *AlertLog) Last() (Alert, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.alerts) == 0 {
		return Alert{}, false
	}
	return l.alerts[len(l.alerts)-1], true
}
