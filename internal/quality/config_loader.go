package quality

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SuiteConfigs is the YAML document shape for rule overrides.
type SuiteConfigs struct {
	Suites map[string]Suite `yaml:"suites"`
}

// LoadSuites parses YAML rule suites and merges them over DefaultSuites.
// A suite named in the document replaces the built-in suite of that name.
func LoadSuites(data []byte) (map[string]Suite, error) {
	var cfgs SuiteConfigs
	if err := yaml.Unmarshal(data, &cfgs); err != nil {
		return nil, fmt.Errorf("parse quality rules: %w", err)
	}

	suites := DefaultSuites()
	for name, s := range cfgs.Suites {
		if s.Name == "" {
			s.Name = name
		}
		for i, r := range s.Rules {
			if err := r.Validate(); err != nil {
				return nil, fmt.Errorf("suite %s rule %d: %w", name, i, err)
			}
		}
		suites[name] = s
	}
	return suites, nil
}

// LoadSuitesFile reads rules from path; an empty path yields the defaults.
func LoadSuitesFile(path string) (map[string]Suite, error) {
	if path == "" {
		return DefaultSuites(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quality rules %s: %w", path, err)
	}
	return LoadSuites(data)
}
