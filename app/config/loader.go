package config

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader reads the optional feed seed file. Feeds listed there are
// registered in the database at startup, the same way feeds submitted
// through the API are.
type Loader struct {
	path string
}

// NewLoader creates a new seed file loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load parses the seed file and returns the declared feeds. A missing
// or unconfigured file is not an error; the service just starts empty.
func (l *Loader) Load() ([]FeedSeed, error) {
	if l.path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", l.path, err)
	}

	for i, seed := range file.Feeds {
		if err := l.validate(seed); err != nil {
			return nil, fmt.Errorf("invalid seed entry %d in %s: %w", i+1, l.path, err)
		}
	}

	return file.Feeds, nil
}

func (l *Loader) validate(seed FeedSeed) error {
	if seed.URL == "" {
		return fmt.Errorf("missing url")
	}

	parsed, err := url.Parse(seed.URL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return fmt.Errorf("url %q is not a valid absolute URL", seed.URL)
	}

	return nil
}
