package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorruptRecord is returned when a persisted change or release artifact
// cannot be decoded into valid records.
var ErrCorruptRecord = errors.New("corrupt record")

// EncodeChange serializes a change as a single JSON object.
func EncodeChange(c Change) ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding change: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeChange parses a pending record. Data that is not a JSON object, or an
// object missing any of the four fields, yields ErrCorruptRecord.
func DecodeChange(data []byte) (Change, error) {
	var c Change
	if err := json.Unmarshal(data, &c); err != nil {
		return Change{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if !Validate(c) {
		return Change{}, fmt.Errorf("%w: missing required fields", ErrCorruptRecord)
	}
	return c, nil
}

// EncodeArtifact serializes the body of a release artifact: a bare JSON array
// of changes. The version lives only in the artifact filename. A nil slice is
// written as an empty array.
func EncodeArtifact(changes []Change) ([]byte, error) {
	if changes == nil {
		changes = []Change{}
	}
	data, err := json.MarshalIndent(changes, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding release artifact: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeArtifact parses a release artifact body.
func DecodeArtifact(data []byte) ([]Change, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty artifact", ErrCorruptRecord)
	}
	var changes []Change
	if err := json.Unmarshal(data, &changes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if changes == nil {
		changes = []Change{}
	}
	return changes, nil
}
