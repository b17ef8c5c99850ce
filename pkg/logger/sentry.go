package logger

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var zapToSentryLevel = map[zapcore.Level]sentry.Level{
	zapcore.DebugLevel:  sentry.LevelDebug,
	zapcore.InfoLevel:   sentry.LevelInfo,
	zapcore.WarnLevel:   sentry.LevelWarning,
	zapcore.ErrorLevel:  sentry.LevelError,
	zapcore.DPanicLevel: sentry.LevelFatal,
	zapcore.PanicLevel:  sentry.LevelFatal,
	zapcore.FatalLevel:  sentry.LevelFatal,
}

var sentryEnabled bool

// SentryOption initializes the Sentry client and returns a zap option that
// forwards error entries to it. Without a DSN it returns a no-op option.
func SentryOption(dsn, env, release string) (zap.Option, error) {
	if dsn == "" {
		return zap.Hooks(), nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env,
		Release:          release,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry.Init: %w", err)
	}
	sentryEnabled = true
	return zap.Hooks(captureEntry), nil
}

func captureEntry(entry zapcore.Entry) error {
	if entry.Level < zapcore.ErrorLevel {
		return nil
	}
	event := sentry.NewEvent()
	event.Level = zapToSentryLevel[entry.Level]
	event.Message = entry.Message
	event.Logger = entry.LoggerName
	event.Timestamp = entry.Time
	if entry.Caller.Defined {
		event.Extra["caller"] = entry.Caller.TrimmedPath()
	}
	sentry.CaptureEvent(event)
	return nil
}

// FlushSentry waits for buffered events to be delivered.
func FlushSentry() {
	if sentryEnabled {
		sentry.Flush(2 * time.Second)
	}
}
