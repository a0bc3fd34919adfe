package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/learnify/learnify-hub/internal/domain/tier"
)

// tierFile is the YAML layout of a tier ladder:
//
//	tiers:
//	  - name: Novice
//	    threshold: 0
//	  - name: Apprentice
//	    threshold: 20
type tierFile struct {
	Tiers []tier.Tier `yaml:"tiers"`
}

// LoadTierLadder reads a tier ladder from a YAML file.
// An empty path returns the default ladder.
func LoadTierLadder(path string) (*tier.Ladder, error) {
	if path == "" {
		return tier.DefaultLadder(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tiers file: %w", err)
	}
	return ParseTierLadder(data)
}

// ParseTierLadder parses YAML tier ladder data.
func ParseTierLadder(data []byte) (*tier.Ladder, error) {
	var f tierFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse tiers: %w", err)
	}
	return tier.NewLadder(f.Tiers)
}

// MarshalTierLadder renders a ladder in the layout LoadTierLadder reads.
func MarshalTierLadder(l *tier.Ladder) ([]byte, error) {
	return yaml.Marshal(tierFile{Tiers: l.Tiers()})
}
