//go:build linux

// childenv-verify inspects a running process to check that preloading and
// environment filtering took effect: which shared objects the dynamic
// linker mapped into it, and whether scrubbed variables really are absent
// from its initial environment.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/victoralfred/childenv/procscan"
)

func main() {
	pid := flag.IntP("pid", "P", 0, "process to inspect")
	libs := flag.StringSliceP("lib", "l", nil, "libraries expected to be mapped (path, base name, or base-name prefix)")
	scrubbed := flag.StringSliceP("scrubbed", "s", nil, "variable names expected absent from the process environment")
	wait := flag.DurationP("wait", "w", 0, "poll for this long before failing expectations")
	interval := flag.DurationP("interval", "i", 100*time.Millisecond, "polling interval")
	flag.Parse()

	if *pid <= 0 {
		fmt.Fprintln(os.Stderr, "usage: childenv-verify --pid PID [--lib NAME]... [--scrubbed NAME]...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(*pid, *libs, *scrubbed, *wait, *interval); err != nil {
		fmt.Fprintf(os.Stderr, "childenv-verify: %v\n", err)
		os.Exit(1)
	}
}

func run(pid int, libs, scrubbed []string, wait, interval time.Duration) error {
	// With no expectations, report what is mapped and exit.
	if len(libs) == 0 && len(scrubbed) == 0 {
		mapped, err := procscan.Libraries(pid)
		if err != nil {
			return err
		}
		for _, lib := range mapped {
			fmt.Println(lib)
		}
		return nil
	}

	ctx := context.Background()
	if wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	poller := procscan.NewPoller(interval)

	for _, lib := range libs {
		if wait > 0 {
			if err := poller.WaitLibrary(ctx, pid, lib); err != nil {
				return fmt.Errorf("library %q not mapped into pid %d: %w", lib, pid, err)
			}
		} else {
			ok, err := procscan.HasLibrary(pid, lib)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("library %q not mapped into pid %d", lib, pid)
			}
		}
		fmt.Printf("ok: %s mapped\n", lib)
	}

	if len(scrubbed) > 0 {
		if wait > 0 {
			if err := poller.WaitScrubbed(ctx, pid, scrubbed); err != nil {
				return fmt.Errorf("scrub check for pid %d: %w", pid, err)
			}
		} else {
			leaked, err := procscan.Leaked(pid, scrubbed)
			if err != nil {
				return err
			}
			if len(leaked) > 0 {
				return fmt.Errorf("variables leaked into pid %d: %v", pid, leaked)
			}
		}
		fmt.Printf("ok: %d variable(s) scrubbed\n", len(scrubbed))
	}

	return nil
}
