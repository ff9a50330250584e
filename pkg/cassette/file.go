package cassette

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Common errors for cassette loading/saving.
var (
	ErrCassetteNotFound = errors.New("cassette file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidJSON      = errors.New("invalid JSON syntax")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyCassette    = errors.New("cassette file is empty")
)

// ReadFile reads an ordered transaction sequence from a JSON or YAML
// cassette file. The format is auto-detected based on file extension
// (.yaml, .yml for YAML, otherwise JSON).
// Returns wrapped errors for common failure cases.
func ReadFile(path string) ([]*Transaction, error) {
	// Check if file exists
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCassetteNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	// Check if it's a regular file
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	// Open and read file
	file, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCassette, path)
	}

	// Detect format based on file extension
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		return ParseYAML(data)
	}

	// Default to JSON
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w in file: %s", ErrInvalidJSON, path)
	}

	return ParseJSON(data)
}

// WriteFile writes an ordered transaction sequence to a cassette file
// using atomic rename. The format is determined by file extension
// (.yaml, .yml for YAML, otherwise JSON).
// Creates parent directories if they don't exist.
func WriteFile(path string, txns []*Transaction) error {
	// Determine format based on extension
	ext := strings.ToLower(filepath.Ext(path))
	var data []byte
	var err error

	if ext == ".yaml" || ext == ".yml" {
		data, err = ToYAML(txns)
	} else {
		data, err = ToJSON(txns)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal cassette: %w", err)
	}

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// Write to temporary file first (atomic write pattern)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		// Clean up temp file on failure
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// ParseJSON parses JSON bytes into an ordered transaction sequence with
// validation. The cassette format is a top-level array.
func ParseJSON(data []byte) ([]*Transaction, error) {
	var txns []*Transaction

	if err := json.Unmarshal(data, &txns); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if err := validateAll(txns); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return txns, nil
}

// ParseYAML parses YAML bytes into an ordered transaction sequence with
// validation.
func ParseYAML(data []byte) ([]*Transaction, error) {
	var txns []*Transaction

	if err := yaml.Unmarshal(data, &txns); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	if err := validateAll(txns); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return txns, nil
}

// ToJSON marshals a transaction sequence to formatted JSON bytes.
func ToJSON(txns []*Transaction) ([]byte, error) {
	if txns == nil {
		txns = []*Transaction{}
	}

	data, err := json.MarshalIndent(txns, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal to JSON: %w", err)
	}

	// Add trailing newline for better file formatting
	data = append(data, '\n')

	return data, nil
}

// ToYAML marshals a transaction sequence to YAML bytes.
func ToYAML(txns []*Transaction) ([]byte, error) {
	if txns == nil {
		txns = []*Transaction{}
	}

	data, err := yaml.Marshal(txns)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal to YAML: %w", err)
	}

	return data, nil
}

// validateAll validates every transaction in order, reporting the index
// of the first invalid element.
func validateAll(txns []*Transaction) error {
	for i, t := range txns {
		if t == nil {
			return fmt.Errorf("transaction %d: null element", i)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
	}
	return nil
}
