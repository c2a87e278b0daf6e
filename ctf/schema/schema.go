// Package schema is the in-memory trace/stream model shared by the CTF
// filesystem source and sink: Trace ⊃ StreamClass ⊃ EventClass, Trace ⊃
// ClockClass, StreamClass ⊃ Stream (spec.md §3).
//
// All owning relationships are exclusive downward; back-references (e.g.
// EventClass.StreamClass) are plain pointers resolvable through the owning
// trace. Schema objects are read-only after a trace is marked static and may
// be shared freely across goroutines (spec.md §5).
package schema

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/c360/ctffs/errors"
)

// FieldKind names the handful of primitive field kinds the rest of this
// repository needs to reason about. The full CTF type-expression grammar is
// an external collaborator (the metadata parser); this is deliberately just
// enough to let the sink deep-copy layouts and the inspector read named
// header/context fields.
type FieldKind string

// FieldKind values.
const (
	FieldKindUnsignedInt FieldKind = "uint"
	FieldKindSignedInt   FieldKind = "int"
	FieldKindString      FieldKind = "string"
	FieldKindFloat       FieldKind = "float"
)

// FieldType describes one named field of a header/context/payload layout.
// ClockClass is non-nil only for unsigned integer fields mapped to a clock,
// such as a packet context's timestamp_begin.
type FieldType struct {
	Kind       FieldKind
	ClockClass *ClockClass
}

// FieldLayout is a map of field name to FieldType, standing in for a decoded
// CTF structure type. Field order is not kept.
type FieldLayout map[string]FieldType

// Clone returns a field-by-field copy of the layout, reusing ClockClass
// pointers (clock classes are copied by the sink separately, keyed by
// identity — see sink.Mirror).
func (l FieldLayout) Clone() FieldLayout {
	if l == nil {
		return nil
	}
	out := make(FieldLayout, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// FieldValues is a decoded instance of a FieldLayout: concrete values for a
// specific packet header, packet context, event header, or event payload.
type FieldValues map[string]any

// Clone returns a shallow copy of the values, sufficient for the sink's
// "deep-copy the packet context into the output stream" step since values
// here are plain Go scalars (spec.md's binary field codec is out of scope).
func (v FieldValues) Clone() FieldValues {
	if v == nil {
		return nil
	}
	out := make(FieldValues, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Uint64 returns the named field as a uint64 and whether it was present.
func (v FieldValues) Uint64(name string) (uint64, bool) {
	raw, ok := v[name]
	if !ok {
		return 0, false
	}
	u, ok := raw.(uint64)
	return u, ok
}

// ClockClass identifies a clock across one trace. Two clock classes are the
// same clock iff they are the same *ClockClass value (spec.md §3: "identified
// by identity, not value, across one trace"); UUID is carried because the
// reference CTF metadata format identifies clocks by UUID across traces. The
// sink copies UUID into its output clock classes but decides whether a clock
// class was already copied by *ClockClass pointer identity, not by UUID.
type ClockClass struct {
	Name      string
	UUID      uuid.UUID
	Frequency uint64 // ticks per second
	Offset    int64  // offset from epoch, in the clock's own ticks
}

// NsFromEpoch converts a raw clock tick value into nanoseconds since the
// Unix epoch, per spec.md §4.2: "ns = clock.ns_from_epoch(raw)". A zero or
// absent frequency cannot be converted.
func (c *ClockClass) NsFromEpoch(raw uint64) (int64, error) {
	if c == nil || c.Frequency == 0 {
		return 0, errors.WrapInvalid(errors.ErrMissingField, "ClockClass", "NsFromEpoch", "clock class or frequency missing")
	}
	ticks := int64(raw) + c.Offset
	return ticks * 1_000_000_000 / int64(c.Frequency), nil
}

// ClockClassPriorityMap assigns every clock class of a trace a priority,
// used by a (currently unimplemented — see DESIGN.md Open Questions) future
// cross-stream ordering policy. spec.md §4.4 mandates priority 0 for every
// clock class at construction time.
type ClockClassPriorityMap struct {
	priorities map[*ClockClass]uint64
}

// NewClockClassPriorityMap builds a map covering every clock class of trace
// exactly once, each at priority 0.
func NewClockClassPriorityMap(trace *Trace) *ClockClassPriorityMap {
	m := &ClockClassPriorityMap{priorities: make(map[*ClockClass]uint64, len(trace.ClockClasses))}
	for _, cc := range trace.ClockClasses {
		m.priorities[cc] = 0
	}
	return m
}

// Priority returns the priority assigned to cc, and whether cc is covered.
func (m *ClockClassPriorityMap) Priority(cc *ClockClass) (uint64, bool) {
	p, ok := m.priorities[cc]
	return p, ok
}

// Set overrides the priority of cc. Exposed so a future ordering policy
// (spec.md §9 Open Questions) has somewhere to plug in without changing the
// map's shape.
func (m *ClockClassPriorityMap) Set(cc *ClockClass, priority uint64) {
	m.priorities[cc] = priority
}

// EventClass describes one kind of event within a StreamClass.
// (StreamClass, EventClass.ID) is globally unique within a trace (spec.md §3).
type EventClass struct {
	ID            uint64
	Name          string
	PayloadLayout FieldLayout
	StreamClass   *StreamClass // back-reference, resolvable while the owning trace lives
}

// StreamClass describes the layout shared by every Stream it owns.
type StreamClass struct {
	ID    uint64
	HasID bool // false only when the trace has exactly one StreamClass (spec.md §3)

	EventHeaderLayout   FieldLayout
	EventContextLayout  FieldLayout
	PacketContextLayout FieldLayout

	Clock *ClockClass
	Trace *Trace // back-reference

	mu          sync.Mutex
	eventClasses []*EventClass
	byEventID    map[uint64]*EventClass
}

// EventClasses returns the event classes belonging to this stream class, in
// the order they were added.
func (sc *StreamClass) EventClasses() []*EventClass {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	out := make([]*EventClass, len(sc.eventClasses))
	copy(out, sc.eventClasses)
	return out
}

// EventClassByID looks up an EventClass by id.
func (sc *StreamClass) EventClassByID(id uint64) (*EventClass, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	ec, ok := sc.byEventID[id]
	return ec, ok
}

// AddEventClass appends ec, enforcing the (StreamClass.ID, EventClass.ID)
// uniqueness invariant of spec.md §3. Used both by metadata parsing (all
// event classes known up front) and by the sink's lazy "announce a new
// event class on first occurrence" path (spec.md §4.6 step on_event/3).
func (sc *StreamClass) AddEventClass(ec *EventClass) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.byEventID == nil {
		sc.byEventID = make(map[uint64]*EventClass)
	}
	if _, exists := sc.byEventID[ec.ID]; exists {
		return errors.WrapInvalid(errors.ErrDuplicateEvent, "StreamClass", "AddEventClass",
			fmt.Sprintf("event class id %d already present in stream class %d", ec.ID, sc.ID))
	}
	ec.StreamClass = sc
	sc.byEventID[ec.ID] = ec
	sc.eventClasses = append(sc.eventClasses, ec)
	return nil
}

// Stream is a logical sequence of packets sharing a StreamClass; it may be
// backed by several files on the source side (grouped by group.BuildGroups)
// or created lazily on the sink side on first packet-begin.
type Stream struct {
	InstanceID   *uint64 // nil means absent
	Class        *StreamClass
}

// Trace is the root of the schema tree: StreamClasses, ClockClasses, and
// (once built) a ClockClassPriorityMap.
type Trace struct {
	Name string

	mu           sync.Mutex
	streamClasses []*StreamClass
	byStreamID    map[uint64]*StreamClass
	static        bool

	ClockClasses []*ClockClass
	PriorityMap  *ClockClassPriorityMap

	// Env carries the metadata's free-form environment key/values (trace
	// name, hostname, domain, ...), copied verbatim by the sink.
	Env map[string]string
}

// NewTrace creates an empty, non-static Trace.
func NewTrace(name string) *Trace {
	return &Trace{
		Name:       name,
		byStreamID: make(map[uint64]*StreamClass),
		Env:        make(map[string]string),
	}
}

// AddClockClass appends a clock class to the trace. Metadata parsing calls
// this before the trace is marked static; the sink calls it again (see
// sink.Mirror) on a fresh *output* trace, where static-ness is irrelevant
// because the output trace is never marked static.
func (t *Trace) AddClockClass(cc *ClockClass) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ClockClasses = append(t.ClockClasses, cc)
}

// AddStreamClass adds sc to the trace. Adding a stream class after the trace
// has been marked static is a programming error (spec.md §3): every
// StreamClass must be known before the trace is finalized for iteration.
func (t *Trace) AddStreamClass(sc *StreamClass) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.static {
		return errors.WrapFatal(
			fmt.Errorf("trace %q is static: cannot add stream class %d", t.Name, sc.ID),
			"Trace", "AddStreamClass", "static trace invariant")
	}

	sc.Trace = t
	t.streamClasses = append(t.streamClasses, sc)
	if sc.HasID {
		t.byStreamID[sc.ID] = sc
	}
	return nil
}

// MarkStatic marks the trace static: after this call, AddStreamClass fails.
// Idempotent, matching spec.md §3 ("set static exactly once").
func (t *Trace) MarkStatic() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.static = true
}

// IsStatic reports whether the trace has been marked static.
func (t *Trace) IsStatic() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.static
}

// StreamClasses returns the trace's stream classes in addition order.
func (t *Trace) StreamClasses() []*StreamClass {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*StreamClass, len(t.streamClasses))
	copy(out, t.streamClasses)
	return out
}

// StreamClassByID resolves a stream class by its declared id.
func (t *Trace) StreamClassByID(id uint64) (*StreamClass, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sc, ok := t.byStreamID[id]
	return sc, ok
}

// SingleStreamClass returns the trace's sole stream class, used when a
// packet header omits stream_id (spec.md §4.2 and reference
// stream_class_from_packet_header's "single_stream_class" fallback).
func (t *Trace) SingleStreamClass() (*StreamClass, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.streamClasses) != 1 {
		return nil, false
	}
	return t.streamClasses[0], true
}
