//go:build linux

package procscan

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Poller repeatedly inspects a process until an expectation holds,
// pacing the scans so a slow-starting target is not hammered.
type Poller struct {
	limiter *rate.Limiter
}

// NewPoller creates a poller scanning at most once per interval.
func NewPoller(interval time.Duration) *Poller {
	return &Poller{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// WaitLibrary blocks until library (per HasLibrary matching) is mapped
// into pid, the process disappears, or the context is done.
func (p *Poller) WaitLibrary(ctx context.Context, pid int, library string) error {
	for {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
		ok, err := HasLibrary(pid, library)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
}

// WaitScrubbed blocks until none of names appear in pid's initial
// environment, the process disappears, or the context is done.
//
// Note the initial environment is fixed at exec time, so this settles on
// the first successful read; the wait exists for targets still being
// spawned.
func (p *Poller) WaitScrubbed(ctx context.Context, pid int, names []string) error {
	for {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
		leaked, err := Leaked(pid, names)
		if err != nil {
			return err
		}
		if len(leaked) == 0 {
			return nil
		}
	}
}
