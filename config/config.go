// Package config validates the parameters the CTF filesystem source and
// sink accept (spec.md §6), following the teacher framework's pattern of an
// explicit Config struct with struct tags and a Validate method rather than
// ad hoc map[string]any inspection at each call site.
package config

import (
	"encoding/json"

	"github.com/c360/ctffs/errors"
)

// SourceParams are the ctf.fs source's init parameters.
type SourceParams struct {
	// Path is the trace root to recursively search for CTF traces. Required.
	Path string `json:"path" yaml:"path"`
	// OffsetS shifts every clock reading by this many seconds. Optional.
	OffsetS int64 `json:"offset-s" yaml:"offset-s"`
	// OffsetNS shifts every clock reading by this many nanoseconds. Optional.
	OffsetNS int64 `json:"offset-ns" yaml:"offset-ns"`
}

// Validate checks SourceParams per spec.md §6: path is required; offsets
// are optional and need no range validation (they are signed deltas).
func (p SourceParams) Validate() error {
	if p.Path == "" {
		return errors.WrapInvalid(errors.ErrMissingPath, "SourceParams", "Validate", "path is required")
	}
	return nil
}

// ParseSourceParams decodes raw JSON parameters into SourceParams and
// validates them, giving init() a single call that implements spec.md §6's
// "wrong type ⇒ init fails."
func ParseSourceParams(raw json.RawMessage) (SourceParams, error) {
	var p SourceParams
	if len(raw) == 0 {
		return p, errors.WrapInvalid(errors.ErrMissingPath, "SourceParams", "Parse", "empty parameter map")
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, errors.WrapInvalid(err, "SourceParams", "Parse", "decoding parameter map")
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// SinkParams are the ctf.fs-sink's init parameters.
type SinkParams struct {
	// BasePath is the output directory under which ctf/fswriter creates one
	// directory per input trace, named after the trace; no "_<NNN>" counter
	// suffix is appended.
	BasePath string `json:"path" yaml:"path"`
}

// Validate checks SinkParams.
func (p SinkParams) Validate() error {
	if p.BasePath == "" {
		return errors.WrapInvalid(errors.ErrMissingPath, "SinkParams", "Validate", "path is required")
	}
	return nil
}

// ParseSinkParams decodes and validates SinkParams.
func ParseSinkParams(raw json.RawMessage) (SinkParams, error) {
	var p SinkParams
	if len(raw) == 0 {
		return p, errors.WrapInvalid(errors.ErrMissingPath, "SinkParams", "Parse", "empty parameter map")
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, errors.WrapInvalid(err, "SinkParams", "Parse", "decoding parameter map")
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}
