package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/replayd/pkg/cassette"
)

// Issue describes a single cassette validation problem.
type Issue struct {
	// Index is the zero-based transaction index, or -1 when the problem
	// is not tied to a single element.
	Index int `json:"index"`

	// Pointer is the JSON pointer to the offending value.
	Pointer string `json:"pointer,omitempty"`

	// Message is a human-readable description.
	Message string `json:"message"`
}

// Error implements the error interface.
func (i *Issue) Error() string {
	switch {
	case i.Index >= 0 && i.Pointer != "":
		return fmt.Sprintf("transaction %d (%s): %s", i.Index, i.Pointer, i.Message)
	case i.Index >= 0:
		return fmt.Sprintf("transaction %d: %s", i.Index, i.Message)
	default:
		return i.Message
	}
}

// Result contains the outcome of cassette validation.
type Result struct {
	// Valid is true if validation passed.
	Valid bool `json:"valid"`

	// Transactions is the number of elements in the cassette.
	Transactions int `json:"transactions"`

	// Issues lists all violations (when Valid is false).
	Issues []*Issue `json:"issues,omitempty"`
}

// AddIssue records a violation and marks the result invalid.
func (r *Result) AddIssue(issue *Issue) {
	r.Valid = false
	r.Issues = append(r.Issues, issue)
}

// ValidateFile validates a cassette file against the cassette schema.
// The format is auto-detected from the file extension (.yaml, .yml for
// YAML, otherwise JSON). An error means the file could not be read or
// decoded at all; violations in a decodable file come back in Result.
func ValidateFile(path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", cassette.ErrCassetteNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", cassette.ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", cassette.ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", cassette.ErrEmptyCassette, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		return ValidateYAML(data)
	}
	return ValidateJSON(data)
}

// ValidateJSON validates JSON cassette bytes against the schema.
func ValidateJSON(data []byte) (*Result, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", cassette.ErrInvalidJSON, err)
	}

	result := validateDocument(doc)
	if result.Valid {
		semanticPass(result, func(v interface{}) error { return json.Unmarshal(data, v) })
	}
	return result, nil
}

// ValidateYAML validates YAML cassette bytes against the schema.
func ValidateYAML(data []byte) (*Result, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", cassette.ErrInvalidYAML, err)
	}

	// Round-trip through JSON so the schema validator sees the types it
	// expects (string keys, float64 numbers).
	normalized, err := normalize(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize document: %w", err)
	}

	result := validateDocument(normalized)
	if result.Valid {
		semanticPass(result, func(v interface{}) error { return yaml.Unmarshal(data, v) })
	}
	return result, nil
}

func normalize(doc interface{}) (interface{}, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// validateDocument runs the compiled schema over a decoded document.
func validateDocument(doc interface{}) *Result {
	result := &Result{Valid: true}
	if arr, ok := doc.([]interface{}); ok {
		result.Transactions = len(arr)
	}

	sch, err := compiledSchema()
	if err != nil {
		result.AddIssue(&Issue{Index: -1, Message: fmt.Sprintf("schema compilation error: %v", err)})
		return result
	}

	if err := sch.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			collectIssues(verr, result)
		} else {
			result.AddIssue(&Issue{Index: -1, Message: err.Error()})
		}
	}
	return result
}

// semanticPass decodes the cassette into typed transactions and applies
// the checks the schema cannot express. Runs only after the schema
// passed, so typed decoding is expected to succeed.
func semanticPass(result *Result, decode func(interface{}) error) {
	var txns []*cassette.Transaction
	if err := decode(&txns); err != nil {
		result.AddIssue(&Issue{Index: -1, Message: fmt.Sprintf("decode: %v", err)})
		return
	}
	for i, t := range txns {
		if t == nil {
			continue
		}
		if err := t.Validate(); err != nil {
			result.AddIssue(&Issue{Index: i, Pointer: "/" + strconv.Itoa(i), Message: err.Error()})
		}
	}
}

// collectIssues extracts leaf violations from a schema validation
// error tree.
func collectIssues(err *jsonschema.ValidationError, result *Result) {
	if len(err.Causes) == 0 {
		result.AddIssue(&Issue{
			Index:   indexFromPointer(err.InstanceLocation),
			Pointer: err.InstanceLocation,
			Message: err.Message,
		})
		return
	}
	for _, cause := range err.Causes {
		collectIssues(cause, result)
	}
}

// indexFromPointer extracts the transaction index from a JSON pointer
// like /2/response/statusCode. Returns -1 for root-level pointers.
func indexFromPointer(pointer string) int {
	trimmed := strings.TrimPrefix(pointer, "/")
	seg, _, _ := strings.Cut(trimmed, "/")
	n, err := strconv.Atoi(seg)
	if err != nil {
		return -1
	}
	return n
}
