// Package logging configures logrus and forwards errors to Sentry when enabled.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

var sentryEnabled bool

// Setup configures the global logrus logger.
func Setup(level, format string) {
	log.SetOutput(os.Stdout)
	if strings.EqualFold(format, "json") {
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// InitSentry enables error capture. An empty DSN leaves Sentry off.
func InitSentry(dsn, environment string) error {
	if dsn == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{Dsn: dsn, Environment: environment}); err != nil {
		return err
	}
	sentryEnabled = true
	return nil
}

// Flush waits for buffered Sentry events.
func Flush() {
	if sentryEnabled {
		sentry.Flush(2 * time.Second)
	}
}

// LogError logs err with structured context and captures it in Sentry.
func LogError(errorType string, err error, fields log.Fields) {
	entry := log.WithFields(fields).WithFields(log.Fields{
		"error_type": errorType,
		"error":      err.Error(),
	})
	entry.Error("error occurred")

	if !sentryEnabled {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("error_type", errorType)
		for k, v := range fields {
			scope.SetExtra(k, v)
		}
		sentry.CaptureException(err)
	})
}

// LogEvent logs a domain event and records it as a Sentry breadcrumb.
func LogEvent(eventType string, fields log.Fields) {
	log.WithFields(fields).WithField("event_type", eventType).Info(eventType)

	if sentryEnabled {
		sentry.AddBreadcrumb(&sentry.Breadcrumb{
			Type:      "info",
			Category:  eventType,
			Data:      fields,
			Timestamp: time.Now(),
		})
	}
}
