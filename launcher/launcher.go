//go:build unix

package launcher

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/victoralfred/childenv/internal/liveenv"
	"github.com/victoralfred/childenv/internal/pathsearch"
	"github.com/victoralfred/childenv/observability"
)

// ExecFunc replaces the process image. On success it never returns.
type ExecFunc func(path string, argv, envp []string) error

// Launcher composes target environments from profiles and replaces the
// process image with the target.
type Launcher struct {
	config    *Config
	telemetry observability.Telemetry
	audit     observability.AuditLogger
	execFn    ExecFunc
}

// LauncherOption configures a Launcher.
type LauncherOption func(*Launcher)

// WithTelemetry attaches a telemetry provider.
func WithTelemetry(t observability.Telemetry) LauncherOption {
	return func(l *Launcher) {
		l.telemetry = t
	}
}

// WithAudit attaches an audit logger.
func WithAudit(a observability.AuditLogger) LauncherOption {
	return func(l *Launcher) {
		l.audit = a
	}
}

// WithExecFunc substitutes the image-replacing call. Test seam.
func WithExecFunc(fn ExecFunc) LauncherOption {
	return func(l *Launcher) {
		l.execFn = fn
	}
}

// New creates a Launcher over a validated profile configuration.
func New(config *Config, opts ...LauncherOption) (*Launcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	l := &Launcher{
		config: config,
		execFn: func(path string, argv, envp []string) error {
			return pathsearch.Exec(path, argv, envp, unix.Exec)
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Launch replaces the current process image with target, configured per
// the named profile. On success it never returns. The composed environment
// carries the profile's preload list and variables plus a CHILD_ENV_RULES
// string that scrubs everything the profile introduced from the target's
// own children.
func (l *Launcher) Launch(ctx context.Context, profileName, target string, args []string) error {
	if l.telemetry != nil {
		var end func()
		ctx, end = l.telemetry.StartSpan(ctx, "launcher.Launch",
			observability.WithAttribute("profile", profileName),
			observability.WithAttribute("target", target),
		)
		defer end()
	}

	profile, ok := l.config.Profile(profileName)
	if !ok {
		return &LaunchError{Op: "launch", Profile: profileName, Target: target, Err: ErrUnknownProfile}
	}

	env, ruleString := ComposeEnvironment(liveenv.Snapshot(), profile)

	launchID := uuid.New().String()
	event := &observability.LaunchEvent{
		Timestamp:  time.Now(),
		ID:         launchID,
		Type:       observability.EventLaunch,
		Profile:    profileName,
		Target:     target,
		Args:       args,
		Preload:    profile.Preload,
		RuleString: ruleString,
	}

	if l.telemetry != nil {
		labels := map[string]string{"profile": profileName}
		l.telemetry.RecordCounter(observability.MetricLaunches, labels)
		l.telemetry.RecordHistogram(observability.MetricEnvEntries, float64(len(env)), labels)
	}
	if l.audit != nil {
		// Written before the exec; there is no after on success.
		if err := l.audit.Log(ctx, event); err != nil {
			return &LaunchError{Op: "audit", Profile: profileName, Target: target, Err: err}
		}
	}

	argv := make([]string, 0, len(args)+1)
	argv = append(argv, target)
	argv = append(argv, args...)

	err := l.execFn(target, argv, env)

	// Reached only when the exec failed.
	if l.telemetry != nil {
		l.telemetry.RecordCounter(observability.MetricLaunchFailures, map[string]string{"profile": profileName})
	}
	if l.audit != nil {
		event.Type = observability.EventLaunchFailed
		event.Error = err.Error()
		_ = l.audit.Log(ctx, event)
	}
	return &LaunchError{Op: "exec", Profile: profileName, Target: target, Err: err}
}

