// Package launcher sets up a target process so that its configuration
// does not leak to the target's own children.
//
// A launch profile names the libraries to preload, the variables to set,
// and the variables to scrub from grandchildren. Launching composes the
// target environment (preload list, profile variables, and a
// CHILD_ENV_RULES rule string covering everything the profile introduced)
// and then replaces the process image with the target. The launch itself
// is deliberately unfiltered: the target must receive the configuration;
// filtering applies when the target launches its children.
package launcher

import (
	"fmt"
	"path/filepath"

	"github.com/victoralfred/childenv/rules"
)

// Assignment is one variable a profile sets in the target environment.
type Assignment struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// Profile describes one launch configuration.
type Profile struct {
	// Description is free-form documentation.
	Description string `yaml:"description"`

	// Preload lists library paths prepended to the target's preload
	// list (LD_PRELOAD).
	Preload []string `yaml:"preload"`

	// Set lists variables installed into the target environment, in
	// order.
	Set []Assignment `yaml:"set"`

	// Scrub lists additional variable names removed from the target's
	// children. Everything the profile itself introduces is scrubbed
	// automatically.
	Scrub []string `yaml:"scrub"`

	// PropagateRules keeps the rule variable itself visible to the
	// target's children instead of scrubbing it.
	PropagateRules bool `yaml:"propagate_rules"`
}

// Metadata documents a profile file.
type Metadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Updated     string `yaml:"updated"`
}

// Config is the YAML profile file structure.
type Config struct {
	Version  string             `yaml:"version"`
	Metadata Metadata           `yaml:"metadata"`
	Profiles map[string]Profile `yaml:"profiles"`
}

// Profile returns the named profile.
func (c *Config) Profile(name string) (Profile, bool) {
	p, ok := c.Profiles[name]
	return p, ok
}

// Validate checks the configuration for problems a launch would only hit
// at exec time: invalid rule names, relative preload paths, an empty
// profile table.
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("profile config: missing version")
	}
	if len(c.Profiles) == 0 {
		return fmt.Errorf("profile config: %w", ErrNoProfiles)
	}
	for name, p := range c.Profiles {
		if err := p.validate(); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
	}
	return nil
}

func (p Profile) validate() error {
	for _, lib := range p.Preload {
		if !filepath.IsAbs(lib) {
			return fmt.Errorf("preload library %q is not an absolute path", lib)
		}
	}
	for _, a := range p.Set {
		if err := rules.CheckName(a.Name); err != nil {
			return fmt.Errorf("set entry: %w", err)
		}
	}
	for _, name := range p.Scrub {
		if err := rules.CheckName(name); err != nil {
			return fmt.Errorf("scrub entry: %w", err)
		}
	}
	return nil
}

// ExampleConfig returns a starting-point profile configuration.
func ExampleConfig() *Config {
	return &Config{
		Version: "1.0",
		Metadata: Metadata{
			Name:        "example",
			Description: "alternate allocator for the target only",
		},
		Profiles: map[string]Profile{
			"jemalloc": {
				Description: "run the target under jemalloc",
				Preload:     []string{"/usr/lib/libjemalloc.so.2"},
				Set: []Assignment{
					{Name: "MALLOC_CONF", Value: "background_thread:true"},
				},
			},
		},
	}
}
