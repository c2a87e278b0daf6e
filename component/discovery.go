// Package component defines the small, in-process component runtime that
// the ctffs source and sink plugins register against: a Discoverable /
// LifecycleComponent contract, ports, and a Factory-based Registry. It is a
// deliberately narrow subset of a full flow-graph runtime — enough to run
// the two CTF plugins as components without inventing a general-purpose
// pipeline engine, which is explicitly out of scope for this repository.
package component

import "time"

// Discoverable is implemented by anything the runtime can register, wire,
// and introspect: the CTF filesystem source and sink both satisfy it.
type Discoverable interface {
	// Meta returns basic component information.
	Meta() Metadata

	// InputPorts returns the ports this component accepts data on.
	InputPorts() []Port

	// OutputPorts returns the ports this component produces data on.
	OutputPorts() []Port

	// ConfigSchema returns the configuration schema for this component.
	ConfigSchema() ConfigSchema

	// Health returns the current health status.
	Health() HealthStatus
}

// Metadata describes what a component is.
type Metadata struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "source" or "sink"
	Description string `json:"description"`
	Version     string `json:"version"`
}

// ConfigSchema describes the configuration parameters a component accepts.
type ConfigSchema struct {
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required"`
}

// PropertySchema describes a single configuration property.
type PropertySchema struct {
	Type        string `json:"type"` // "string", "int64", "bool"
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
}

// HealthStatus describes the current health state of a component.
type HealthStatus struct {
	Healthy    bool          `json:"healthy"`
	LastCheck  time.Time     `json:"last_check"`
	ErrorCount int           `json:"error_count"`
	LastError  string        `json:"last_error,omitempty"`
	Uptime     time.Duration `json:"uptime"`
}
