package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PoolDocument is the YAML shape of a pool file or an uploaded pool.
type PoolDocument struct {
	Players []Candidate `yaml:"players" json:"players"`
}

// LoadPool reads a candidate pool from a YAML file.
func LoadPool(path string) (Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pool file: %w", err)
	}
	return ParsePool(data)
}

// ParsePool decodes a YAML pool document.
func ParsePool(data []byte) (Pool, error) {
	var doc PoolDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse pool: %w", err)
	}
	if len(doc.Players) == 0 {
		return nil, fmt.Errorf("pool contains no players")
	}
	return Pool(doc.Players), nil
}
