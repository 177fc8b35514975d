package security

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventType represents the type of security event
type EventType string

const (
	EventSignInFailed    EventType = "sign_in_failed"
	EventSignInBlocked   EventType = "sign_in_blocked"
	EventSignInSucceeded EventType = "sign_in_succeeded"
	EventBlockCreated    EventType = "block_created"
)

// AuditEvent is a security-relevant event. Subjects are masked before logging.
type AuditEvent struct {
	Timestamp time.Time
	Event     EventType
	Email     string
	Details   map[string]interface{}
}

// AuditLogger writes security events as structured zap entries, separate from
// the application log so they can be shipped and retained on their own.
type AuditLogger struct {
	zapLogger   *zap.Logger
	serviceName string
	environment string
}

// NewAuditLogger wraps an existing zap logger.
func NewAuditLogger(z *zap.Logger, serviceName, environment string) *AuditLogger {
	if z == nil {
		z = zap.NewNop()
	}
	return &AuditLogger{
		zapLogger:   z,
		serviceName: serviceName,
		environment: environment,
	}
}

// NewProductionAuditLogger builds a JSON zap logger on stdout.
func NewProductionAuditLogger(serviceName string) *AuditLogger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.MessageKey = "message"
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build(zap.AddCaller())
	if err != nil {
		logger, _ = zap.NewProduction()
	}

	return NewAuditLogger(logger, serviceName, getEnvironment())
}

func (al *AuditLogger) Log(event AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	level := zapcore.WarnLevel
	switch event.Event {
	case EventSignInSucceeded:
		level = zapcore.InfoLevel
	case EventSignInBlocked, EventBlockCreated:
		level = zapcore.ErrorLevel
	}

	fields := []zap.Field{
		zap.String("service", al.serviceName),
		zap.String("env", al.environment),
		zap.String("event", string(event.Event)),
		zap.Time("at", event.Timestamp),
	}
	if event.Email != "" {
		fields = append(fields, zap.String("subject", MaskEmail(event.Email)))
	}
	if len(event.Details) > 0 {
		fields = append(fields, zap.Any("details", event.Details))
	}

	al.zapLogger.Log(level, string(event.Event), fields...)
}

func (al *AuditLogger) LogSignInFailed(email string, attempts int) {
	al.Log(AuditEvent{
		Event:   EventSignInFailed,
		Email:   email,
		Details: map[string]interface{}{"attempts": attempts},
	})
}

func (al *AuditLogger) LogSignInBlocked(email string, remaining time.Duration) {
	al.Log(AuditEvent{
		Event:   EventSignInBlocked,
		Email:   email,
		Details: map[string]interface{}{"remaining_seconds": int(remaining.Seconds())},
	})
}

func (al *AuditLogger) LogSignInSucceeded(email string) {
	al.Log(AuditEvent{Event: EventSignInSucceeded, Email: email})
}

func (al *AuditLogger) LogBlockCreated(email string, duration time.Duration) {
	al.Log(AuditEvent{
		Event:   EventBlockCreated,
		Email:   email,
		Details: map[string]interface{}{"duration_minutes": int(duration.Minutes())},
	})
}

// Sync flushes any buffered log entries
func (al *AuditLogger) Sync() error {
	return al.zapLogger.Sync()
}

// MaskEmail masks an email for logging (e.g., "j***@example.com")
func MaskEmail(email string) string {
	if len(email) < 3 {
		return "***"
	}
	atIndex := strings.IndexByte(email, '@')
	if atIndex <= 1 {
		return "***" + email[1:]
	}
	return string(email[0]) + "***" + email[atIndex:]
}

// HashValue creates a short SHA256 digest for keys that must not carry PII.
func HashValue(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:8])
}

func getEnvironment() string {
	if os.Getenv("GIN_MODE") == "release" {
		return "production"
	}
	return "development"
}
