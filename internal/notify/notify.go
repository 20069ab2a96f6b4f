package notify

import (
	"storefront-client/internal/util"

	"go.uber.org/zap"
)

// RouteLogin is where unauthenticated users are sent for protected actions.
const RouteLogin = "/login"

// Notifier surfaces user-facing notifications. In the browser client this
// was a toast; here the consumer decides how to render them.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Warning(msg string)
}

// Navigator receives navigation requests, e.g. the redirect to the login
// route when a protected action runs without a session.
type Navigator interface {
	Navigate(route string)
}

// Log is a Notifier that writes notifications to the structured log.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a log-backed notifier.
func NewLog() *Log {
	return &Log{logger: util.GetLogger()}
}

func (l *Log) Success(msg string) {
	l.logger.Info("Notification", zap.String("level", "success"), zap.String("message", msg))
}

func (l *Log) Error(msg string) {
	l.logger.Warn("Notification", zap.String("level", "error"), zap.String("message", msg))
}

func (l *Log) Warning(msg string) {
	l.logger.Warn("Notification", zap.String("level", "warning"), zap.String("message", msg))
}

// NopNavigator ignores navigation requests. Used when no UI is attached.
type NopNavigator struct{}

func (NopNavigator) Navigate(route string) {}

// Recorder captures notifications and navigations for assertions in tests.
type Recorder struct {
	Successes []string
	Errors    []string
	Warnings  []string
	Routes    []string
}

func (r *Recorder) Success(msg string) { r.Successes = append(r.Successes, msg) }
func (r *Recorder) Error(msg string)   { r.Errors = append(r.Errors, msg) }
func (r *Recorder) Warning(msg string) { r.Warnings = append(r.Warnings, msg) }

func (r *Recorder) Navigate(route string) { r.Routes = append(r.Routes, route) }
