// Package logging builds zap loggers and keeps secrets and large payloads
// out of log lines.
package logging

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Truncation limits used when logging payloads.
const (
	DefaultTruncate = 500
	RequestTruncate = 4000

	truncatedSuffix = "...[TRUNCATED]"
)

// New creates a JSON logger writing to stderr at the given level
// (debug, info, warn, error). An empty level means info.
func New(level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if strings.TrimSpace(level) != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// MaskKey renders a credential as its last four characters.
func MaskKey(key string) string {
	if len(key) <= 4 {
		return "..." + strings.Repeat("*", len(key))
	}
	return "..." + key[len(key)-4:]
}

// Key is a zap field carrying a masked credential.
func Key(key string) zap.Field {
	return zap.String("key", MaskKey(key))
}

// Truncate returns v as generic JSON with every string longer than limit
// runes cut and suffixed. Values that cannot be encoded are replaced by a
// short error object.
func Truncate(v any, limit int) any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]string{"error": "Failed to sanitize for logging"}
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return map[string]string{"error": "Failed to sanitize for logging"}
	}
	return truncateValue(generic, limit)
}

func truncateValue(v any, limit int) any {
	switch val := v.(type) {
	case string:
		r := []rune(val)
		if len(r) > limit {
			return string(r[:limit]) + truncatedSuffix
		}
		return val
	case []any:
		for i := range val {
			val[i] = truncateValue(val[i], limit)
		}
		return val
	case map[string]any:
		for k := range val {
			val[k] = truncateValue(val[k], limit)
		}
		return val
	default:
		return val
	}
}

// Payload is a zap field holding a truncated copy of v.
func Payload(name string, v any, limit int) zap.Field {
	return zap.Any(name, Truncate(v, limit))
}

// DebugPayload logs msg at debug level with a truncated copy of v. The
// payload is only encoded when debug logging is enabled.
func DebugPayload(log *zap.Logger, msg, name string, v any, limit int, fields ...zap.Field) {
	if ce := log.Check(zap.DebugLevel, msg); ce != nil {
		ce.Write(append(fields, Payload(name, v, limit))...)
	}
}
