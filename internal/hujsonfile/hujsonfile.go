// Package hujsonfile reads JSON files that may contain comments and trailing
// commas (HuJSON), the format users hand-edit group and registry files in.
package hujsonfile

import (
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// Standardize converts HuJSON to standard JSON.
func Standardize(data []byte) ([]byte, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parsing hujson: %w", err)
	}
	return std, nil
}

// Read reads path and returns its contents as standard JSON.
func Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	std, err := Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return std, nil
}
