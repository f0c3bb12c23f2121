package collector

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source is a configured RSS feed. Order in the sources file is significant:
// earlier sources win deduplication ties and their items lead the digest.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads the RSS source list from a YAML file, preserving order.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	for i, source := range file.Sources {
		if source.URL == "" {
			return nil, fmt.Errorf("source %d is missing a url", i)
		}
		if source.Name == "" {
			return nil, fmt.Errorf("source %d is missing a name", i)
		}
	}

	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("sources file contains no sources")
	}

	return file.Sources, nil
}
