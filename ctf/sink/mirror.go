// Package sink implements SinkMirror (spec.md §4.6): lazily and idempotently
// mirroring an input trace's schema (clock classes, stream classes, event
// classes, streams) into an output trace as notifications arrive, and
// driving each output stream through a Uninit → PacketOpen ↔ PacketClosed
// state machine as packet-begin/event/packet-end notifications are handled.
// Grounded on the reference fs-sink's write.c: ctf_fs_sink_output_write /
// try_translate_stream_class / try_translate_stream / handle_packet_*.
package sink

import (
	"context"
	"fmt"
	"sync"

	"github.com/c360/ctffs/component"
	"github.com/c360/ctffs/ctf/ctfio"
	"github.com/c360/ctffs/ctf/notif"
	"github.com/c360/ctffs/ctf/schema"
	"github.com/c360/ctffs/errors"
)

// WriterFactory produces a fresh Writer for an input trace the first time
// the mirror sees it, per spec.md §4.6's "Writer resolution: create fresh
// Writer backed by new output directory".
type WriterFactory interface {
	NewWriter(inputTrace *schema.Trace) (ctfio.Writer, error)
}

// StreamState is one output stream's position in the packet lifecycle
// (spec.md §9).
type StreamState int

// StreamState values.
const (
	StateUninit StreamState = iota
	StatePacketOpen
	StatePacketClosed
	StateFinal
)

// String renders a StreamState for logs and test failures.
func (s StreamState) String() string {
	switch s {
	case StateUninit:
		return "uninit"
	case StatePacketOpen:
		return "packet-open"
	case StatePacketClosed:
		return "packet-closed"
	case StateFinal:
		return "final"
	default:
		return "unknown"
	}
}

type streamEntry struct {
	output         *schema.Stream
	state          StreamState
	pendingContext schema.FieldValues
	pendingEvents  []*notif.Event
}

// Mirror is the sink's schema-mirroring and packet-buffering engine. It is
// safe for concurrent use by multiple goroutines feeding it notifications
// from different input streams.
type Mirror struct {
	factory WriterFactory
	logger  *component.Logger
	metrics component.MetricsRegistrar

	mu            sync.Mutex
	writers       map[*schema.Trace]ctfio.Writer
	streamClasses map[*schema.StreamClass]*schema.StreamClass
	clockClasses  map[*schema.ClockClass]*schema.ClockClass
	streams       map[*schema.Stream]*streamEntry
}

// NewMirror constructs an empty Mirror backed by factory.
func NewMirror(factory WriterFactory, deps component.Dependencies) *Mirror {
	return &Mirror{
		factory:       factory,
		logger:        deps.Logger,
		metrics:       deps.Metrics,
		writers:       make(map[*schema.Trace]ctfio.Writer),
		streamClasses: make(map[*schema.StreamClass]*schema.StreamClass),
		clockClasses:  make(map[*schema.ClockClass]*schema.ClockClass),
		streams:       make(map[*schema.Stream]*streamEntry),
	}
}

// Handle applies one notification to the mirror, per spec.md §4.6's
// on_packet_begin / on_event / on_packet_end.
func (m *Mirror) Handle(ctx context.Context, n notif.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch n.Kind {
	case notif.KindPacketBegin:
		return m.onPacketBegin(n.Packet)
	case notif.KindEvent:
		return m.onEvent(n.Event)
	case notif.KindPacketEnd:
		return m.onPacketEnd(n.Packet)
	default:
		return errors.WrapFatal(fmt.Errorf("unknown notification kind %v", n.Kind), "sink", "Handle", "")
	}
}

// Close flushes and closes every writer the mirror has opened, per spec.md
// §5's "sink component owns closing every writer it opened at shutdown".
func (m *Mirror) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var joined error
	for _, w := range m.writers {
		if err := w.Close(); err != nil {
			joined = errors.Join(joined, err)
		}
	}
	return joined
}

func (m *Mirror) onPacketBegin(p *notif.Packet) error {
	entry, err := m.streamEntryFor(p.Stream)
	if err != nil {
		return err
	}
	if entry.state == StatePacketOpen {
		return errors.WrapFatal(fmt.Errorf("packet-begin while a packet is already open"), "sink", "onPacketBegin", "")
	}
	if entry.state == StateFinal {
		return errors.WrapFatal(fmt.Errorf("packet-begin on a finalized stream"), "sink", "onPacketBegin", "")
	}
	entry.pendingContext = p.Context.Clone()
	entry.pendingEvents = nil
	entry.state = StatePacketOpen
	return nil
}

func (m *Mirror) onEvent(e *notif.Event) error {
	entry, ok := m.streams[e.Packet.Stream]
	if !ok || entry.state != StatePacketOpen {
		return errors.WrapFatal(errors.ErrEventBeforeBegin, "sink", "onEvent", "")
	}

	outSC, ok := m.streamClasses[e.Class.StreamClass]
	if !ok {
		return errors.WrapFatal(errors.ErrUnknownStreamClass, "sink", "onEvent", "")
	}
	outEC, err := m.mirrorEventClass(outSC, e.Class)
	if err != nil {
		return err
	}

	entry.pendingEvents = append(entry.pendingEvents, &notif.Event{
		Class:         outEC,
		Packet:        &notif.Packet{Stream: entry.output},
		Header:        e.Header.Clone(),
		StreamContext: e.StreamContext.Clone(),
		Context:       e.Context.Clone(),
		Payload:       e.Payload.Clone(),
	})
	return nil
}

func (m *Mirror) onPacketEnd(p *notif.Packet) error {
	entry, ok := m.streams[p.Stream]
	if !ok || entry.state != StatePacketOpen {
		return errors.WrapFatal(errors.ErrPacketEndWithoutBegin, "sink", "onPacketEnd", "")
	}

	writer, ok := m.writers[p.Stream.Class.Trace]
	if !ok {
		return errors.WrapFatal(errors.ErrUnknownStream, "sink", "onPacketEnd", "")
	}

	if err := writer.FlushPacket(entry.output, entry.pendingContext, entry.pendingEvents); err != nil {
		return errors.WrapTransient(err, "sink", "onPacketEnd", "flush packet")
	}
	entry.pendingContext = nil
	entry.pendingEvents = nil
	entry.state = StatePacketClosed

	if m.metrics != nil {
		streamLabel := "stream"
		if p.Stream.Class != nil {
			streamLabel = fmt.Sprintf("sc-%d", p.Stream.Class.ID)
		}
		m.metrics.IncCounter("ctffs_packets_flushed_total", map[string]string{"stream": streamLabel})
	}
	return nil
}

// streamEntryFor returns the mirror's bookkeeping entry for input,
// mirroring the trace, stream class, clock class, and stream into the
// output side the first time it is seen. Idempotent (spec.md §4.6:
// "mirroring must be idempotent: revisiting an already-copied element is a
// no-op").
func (m *Mirror) streamEntryFor(input *schema.Stream) (*streamEntry, error) {
	if entry, ok := m.streams[input]; ok {
		return entry, nil
	}

	outSC, err := m.mirrorStreamClass(input.Class)
	if err != nil {
		return nil, err
	}
	writer, ok := m.writers[input.Class.Trace]
	if !ok {
		return nil, errors.WrapFatal(errors.ErrUnknownStream, "sink", "streamEntryFor", "")
	}

	outStream, err := writer.NewStream(outSC, input.InstanceID)
	if err != nil {
		return nil, errors.WrapTransient(err, "sink", "streamEntryFor", "allocate output stream")
	}

	entry := &streamEntry{output: outStream, state: StateUninit}
	m.streams[input] = entry
	if m.metrics != nil {
		m.metrics.IncCounter("ctffs_schema_copies_total", map[string]string{"kind": "stream"})
	}
	return entry, nil
}

func (m *Mirror) mirrorStreamClass(sc *schema.StreamClass) (*schema.StreamClass, error) {
	if out, ok := m.streamClasses[sc]; ok {
		return out, nil
	}

	writer, err := m.writerForTrace(sc.Trace)
	if err != nil {
		return nil, err
	}

	outSC := &schema.StreamClass{
		ID:                  sc.ID,
		HasID:               sc.HasID,
		EventHeaderLayout:   sc.EventHeaderLayout.Clone(),
		EventContextLayout:  sc.EventContextLayout.Clone(),
		PacketContextLayout: sc.PacketContextLayout.Clone(),
		Clock:               m.mirrorClockClass(sc.Clock),
	}
	if err := writer.OutputTrace().AddStreamClass(outSC); err != nil {
		return nil, errors.WrapFatal(err, "sink", "mirrorStreamClass", "")
	}

	m.streamClasses[sc] = outSC
	if m.metrics != nil {
		m.metrics.IncCounter("ctffs_schema_copies_total", map[string]string{"kind": "stream_class"})
	}
	return outSC, nil
}

func (m *Mirror) mirrorClockClass(cc *schema.ClockClass) *schema.ClockClass {
	if cc == nil {
		return nil
	}
	if out, ok := m.clockClasses[cc]; ok {
		return out
	}
	out := &schema.ClockClass{Name: cc.Name, UUID: cc.UUID, Frequency: cc.Frequency, Offset: cc.Offset}
	m.clockClasses[cc] = out
	if m.metrics != nil {
		m.metrics.IncCounter("ctffs_schema_copies_total", map[string]string{"kind": "clock_class"})
	}
	return out
}

func (m *Mirror) mirrorEventClass(outSC *schema.StreamClass, ec *schema.EventClass) (*schema.EventClass, error) {
	if existing, ok := outSC.EventClassByID(ec.ID); ok {
		return existing, nil
	}
	outEC := &schema.EventClass{ID: ec.ID, Name: ec.Name, PayloadLayout: ec.PayloadLayout.Clone()}
	if err := outSC.AddEventClass(outEC); err != nil {
		return nil, errors.WrapFatal(err, "sink", "mirrorEventClass", "")
	}
	if m.metrics != nil {
		m.metrics.IncCounter("ctffs_schema_copies_total", map[string]string{"kind": "event_class"})
	}
	return outEC, nil
}

func (m *Mirror) writerForTrace(trace *schema.Trace) (ctfio.Writer, error) {
	if w, ok := m.writers[trace]; ok {
		return w, nil
	}

	w, err := m.factory.NewWriter(trace)
	if err != nil {
		return nil, errors.WrapTransient(err, "sink", "writerForTrace", "create writer")
	}
	m.writers[trace] = w

	for _, cc := range trace.ClockClasses {
		w.OutputTrace().AddClockClass(m.mirrorClockClass(cc))
	}
	env := make(map[string]string, len(trace.Env))
	for k, v := range trace.Env {
		env[k] = v
	}
	w.OutputTrace().Env = env

	if m.metrics != nil {
		m.metrics.IncCounter("ctffs_schema_copies_total", map[string]string{"kind": "trace"})
	}
	return w, nil
}
