package launcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/victoralfred/gowritter/safepath"
	"gopkg.in/yaml.v3"
)

// Loader loads and caches profile configurations from YAML files.
type Loader struct {
	path      string
	safePath  *safepath.SafePath
	config    *Config
	mu        sync.RWMutex
	lastHash  []byte
	lastLoad  time.Time
	onChange  []func(*Config)
	watchStop chan struct{}
}

// LoaderOption configures the loader.
type LoaderOption func(*Loader)

// WithOnChange adds a callback for profile changes.
func WithOnChange(fn func(*Config)) LoaderOption {
	return func(l *Loader) {
		l.onChange = append(l.onChange, fn)
	}
}

// NewLoader creates a profile loader rooted at basePath.
func NewLoader(basePath, profileFile string, opts ...LoaderOption) (*Loader, error) {
	sp, err := safepath.New(basePath)
	if err != nil {
		return nil, fmt.Errorf("creating safe path: %w", err)
	}

	l := &Loader{
		path:     profileFile,
		safePath: sp,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load reads, parses, and validates the profile file. An unchanged file
// (by content hash) returns the cached configuration.
func (l *Loader) Load(ctx context.Context) (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := l.safePath.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading profile file: %w", err)
	}

	hash := sha256.Sum256(data)
	if l.config != nil && string(hash[:]) == string(l.lastHash) {
		return l.config, nil
	}

	config, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("parsing profile YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating profiles: %w", err)
	}

	l.config = config
	l.lastHash = hash[:]
	l.lastLoad = time.Now()

	for _, fn := range l.onChange {
		fn(config)
	}

	return config, nil
}

// Get returns the current configuration without reloading.
func (l *Loader) Get() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config
}

// Watch reloads the profile file periodically until the context is done or
// StopWatch is called.
func (l *Loader) Watch(ctx context.Context, interval time.Duration) {
	stop := make(chan struct{})
	l.watchStop = stop

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				// A broken edit must not clobber the last good
				// configuration; keep watching.
				_, _ = l.Load(ctx)
			}
		}
	}()
}

// StopWatch stops a running Watch. Calling it again, or without a prior
// Watch, is a no-op.
func (l *Loader) StopWatch() {
	if l.watchStop != nil {
		close(l.watchStop)
		l.watchStop = nil
	}
}

// ParseYAML parses a YAML profile configuration.
func ParseYAML(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	return &config, nil
}
