package policies

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"parlay-ev-bot/internal/analysis"
	"parlay-ev-bot/internal/correlation"
)

// File is the YAML policy file.
//
//	policies:
//	  - bookmaker: onyx
//	    sport: baseball_mlb
//	    boost_percent: 100
//	    min_legs: 3
//	correlation_profiles:
//	  strict:
//	    - markets: [moneyline, total]
//	      factor: 0.9
type File struct {
	Policies            []analysis.BoostPolicy        `yaml:"policies"`
	CorrelationProfiles map[string][]correlation.Rule `yaml:"correlation_profiles"`
}

// LoadFile reads and validates a policy file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("policy file %s: %w", path, err)
	}
	return &f, nil
}

// Validate checks every policy and profile, and that policies only name
// known profiles.
func (f *File) Validate() error {
	profiles := f.Profiles()
	for name := range f.CorrelationProfiles {
		if err := profiles[name].Validate(); err != nil {
			return err
		}
	}
	for _, p := range f.Policies {
		if err := p.Validate(); err != nil {
			return err
		}
		if p.CorrelationProfile != "" {
			if _, ok := profiles[p.CorrelationProfile]; !ok {
				return fmt.Errorf("policy %s/%s: unknown correlation profile %q", p.Bookmaker, p.Sport, p.CorrelationProfile)
			}
		}
	}
	return nil
}

// Profiles returns the built-in tables overlaid with the file's tables.
func (f *File) Profiles() correlation.Profiles {
	profiles := correlation.DefaultProfiles()
	for name, rules := range f.CorrelationProfiles {
		profiles[name] = correlation.Table{Name: name, Rules: rules}
	}
	return profiles
}
