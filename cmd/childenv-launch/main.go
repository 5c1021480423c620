//go:build unix

// childenv-launch replaces itself with a target command configured per a
// launch profile: preload libraries, profile variables, and a
// CHILD_ENV_RULES string that keeps all of it out of the target's own
// children.
package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/victoralfred/childenv/config"
	"github.com/victoralfred/childenv/launcher"
	"github.com/victoralfred/childenv/observability"
)

func main() {
	defaults := config.DefaultConfig()

	profileDir := flag.StringP("profile-dir", "d", defaults.ProfileBasePath, "directory containing the profile file")
	profileFile := flag.StringP("profile-file", "f", defaults.ProfilePath, "profile file name, relative to --profile-dir")
	profileName := flag.StringP("profile", "p", defaults.Launcher.DefaultProfile, "profile to launch with")
	noAudit := flag.Bool("no-audit", false, "disable the launch audit trail")
	auditDir := flag.String("audit-dir", defaults.Audit.BasePath, "base directory for the audit log")
	auditFile := flag.String("audit-file", defaults.Audit.FilePath, "audit log path, relative to --audit-dir")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: childenv-launch [flags] -- TARGET [ARGS...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	err := run(*profileDir, *profileFile, *profileName, *noAudit, *auditDir, *auditFile, args[0], args[1:])
	// run returns only on failure; a successful launch replaces this
	// process image.
	fmt.Fprintf(os.Stderr, "childenv-launch: %v\n", err)
	os.Exit(1)
}

func run(profileDir, profileFile, profileName string, noAudit bool, auditDir, auditFile, target string, args []string) error {
	ctx := context.Background()

	loader, err := launcher.NewLoader(profileDir, profileFile)
	if err != nil {
		return err
	}
	profiles, err := loader.Load(ctx)
	if err != nil {
		return err
	}

	opts := []launcher.LauncherOption{}

	telemetry, err := observability.NewTelemetry(observability.DefaultTelemetryConfig())
	if err != nil {
		return err
	}
	opts = append(opts, launcher.WithTelemetry(telemetry))

	if !noAudit {
		audit, err := observability.NewFileAuditLogger(observability.AuditConfig{
			Enabled:  true,
			LogLevel: observability.AuditLogAll,
			BasePath: auditDir,
			FilePath: auditFile,
		})
		if err != nil {
			return err
		}
		defer audit.Close()
		opts = append(opts, launcher.WithAudit(audit))
	}

	l, err := launcher.New(profiles, opts...)
	if err != nil {
		return err
	}
	return l.Launch(ctx, profileName, target, args)
}
