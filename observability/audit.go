package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/victoralfred/gowritter/safepath"
)

// AuditLogger records launch attempts. A launch that succeeds replaces the
// process image, so its record is necessarily written before the exec.
// "Attempted" is the strongest statement an in-process audit trail can
// make about a successful launch.
type AuditLogger interface {
	// Log logs an audit event.
	Log(ctx context.Context, event *LaunchEvent) error

	// Close closes the audit logger.
	Close() error
}

// LaunchEventType classifies audit entries.
type LaunchEventType string

const (
	// EventLaunch records a launch about to replace the process image.
	EventLaunch LaunchEventType = "launch"

	// EventLaunchFailed records a launch whose exec returned.
	EventLaunchFailed LaunchEventType = "launch_failed"
)

// LaunchEvent is one audit record.
type LaunchEvent struct {
	Timestamp  time.Time       `json:"timestamp"`
	ID         string          `json:"id"`
	Type       LaunchEventType `json:"type"`
	Profile    string          `json:"profile"`
	Target     string          `json:"target"`
	Args       []string        `json:"args"`
	Preload    []string        `json:"preload,omitempty"`
	RuleString string          `json:"rule_string,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// AuditLogLevel determines what events are written.
type AuditLogLevel string

const (
	// AuditLogAll logs all events.
	AuditLogAll AuditLogLevel = "all"

	// AuditLogFailures logs only failed launches.
	AuditLogFailures AuditLogLevel = "failures"
)

// AuditConfig configures the audit logger.
type AuditConfig struct {
	LogLevel AuditLogLevel
	BasePath string
	FilePath string
	Enabled  bool
}

// DefaultAuditConfig returns default audit configuration.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:  true,
		LogLevel: AuditLogAll,
		BasePath: "/var/log",
		FilePath: "childenv/audit.log",
	}
}

// fileAuditLogger implements AuditLogger using gowritter.
type fileAuditLogger struct {
	safePath *safepath.SafePath
	config   AuditConfig
	mu       sync.Mutex
}

// NewFileAuditLogger creates a file-based audit logger.
func NewFileAuditLogger(config AuditConfig) (AuditLogger, error) {
	sp, err := safepath.New(config.BasePath)
	if err != nil {
		return nil, fmt.Errorf("creating safe path: %w", err)
	}

	return &fileAuditLogger{
		config:   config,
		safePath: sp,
	}, nil
}

// Log implements AuditLogger.Log.
func (l *fileAuditLogger) Log(ctx context.Context, event *LaunchEvent) error {
	if !l.config.Enabled {
		return nil
	}
	if l.config.LogLevel == AuditLogFailures && event.Type != EventLaunchFailed {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling audit event: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.safePath.AppendFile(l.config.FilePath, data, 0o644); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	return nil
}

// Close implements AuditLogger.Close.
func (l *fileAuditLogger) Close() error {
	return nil
}
