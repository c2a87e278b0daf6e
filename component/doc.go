// Package component is the minimal component runtime ctffs's source and
// sink plugins register against.
//
// It deliberately does not attempt to be a general flow-graph engine: there
// is no dynamic port wiring, no JSON-schema-driven configuration UI, no
// message bus between components. Those belong to the containing
// graph/pipeline runtime, which spec.md explicitly treats as an external
// collaborator. What's here is the smallest contract that lets a component
// describe itself (Discoverable), go through an explicit lifecycle
// (LifecycleComponent), expose named ports, and be constructed by name from
// a Registry.
package component
