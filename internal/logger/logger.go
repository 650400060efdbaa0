// Package logger wraps a zap sugared logger with key/value redaction.
package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a structured logger. The zero value is not usable; use New or Nop.
type Logger struct {
	sugar  *zap.SugaredLogger
	redact bool
	salt   string
}

// Options tune how New builds the logger.
type Options struct {
	// Mode is "dev" (console encoder) or "prod" (JSON encoder).
	Mode string
	// Level is one of debug, info, warn, error. Default: info.
	Level string
	// DisableRedaction turns off secret masking and id hashing.
	DisableRedaction bool
	// HashSalt is mixed into hashed identifiers.
	HashSalt string
}

// New builds a logger that writes to stderr.
func New(opts Options) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(opts.Mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &Logger{
		sugar:  z.Sugar(),
		redact: !opts.DisableRedaction,
		salt:   opts.HashSalt,
	}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar(), redact: true}
}

func parseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}

func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}

func (l *Logger) Debug(msg string, kv ...any) { l.sugar.Debugw(msg, l.sanitize(kv)...) }
func (l *Logger) Info(msg string, kv ...any)  { l.sugar.Infow(msg, l.sanitize(kv)...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.sugar.Warnw(msg, l.sanitize(kv)...) }
func (l *Logger) Error(msg string, kv ...any) { l.sugar.Errorw(msg, l.sanitize(kv)...) }

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{sugar: l.sugar.With(l.sanitize(kv)...), redact: l.redact, salt: l.salt}
}

func (l *Logger) sanitize(kv []any) []any {
	if !l.redact || len(kv) == 0 {
		return kv
	}
	out := make([]any, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		name := fmt.Sprint(kv[i])
		out = append(out, name, l.sanitizeValue(strings.ToLower(strings.TrimSpace(name)), kv[i+1]))
	}
	return out
}

func (l *Logger) sanitizeValue(key string, val any) any {
	switch {
	case isSecretKey(key):
		return "[REDACTED]"
	case isHashedKey(key):
		return l.hash(val)
	}
	return val
}

func isSecretKey(key string) bool {
	for _, s := range []string{"token", "authorization", "password", "secret", "api_key", "apikey", "cookie"} {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

func isHashedKey(key string) bool {
	return strings.Contains(key, "session_id") || strings.Contains(key, "user_id")
}

func (l *Logger) hash(val any) string {
	raw := strings.TrimSpace(fmt.Sprint(val))
	if raw == "" || val == nil {
		return ""
	}
	h := sha256.New()
	h.Write([]byte(l.salt))
	h.Write([]byte(raw))
	return "hash:" + hex.EncodeToString(h.Sum(nil))[:12]
}
