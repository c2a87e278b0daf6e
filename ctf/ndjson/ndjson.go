// Package ndjson is a concrete, JSON-based implementation of the ctfio
// external collaborators (MetadataParser, StreamFileReaderFactory), used by
// the cmd/ binaries to run the full
// discover→group→iterate→mirror→write pipeline without a genuine CTF
// binary codec, which spec.md §1 keeps out of scope. It is not the CTF wire
// format: it is a self-describing textual stand-in good enough to prove the
// rest of this repository end to end.
package ndjson

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/c360/ctffs/ctf/ctfio"
	"github.com/c360/ctffs/ctf/notif"
	"github.com/c360/ctffs/ctf/schema"
	"github.com/c360/ctffs/errors"
)

// MetadataDoc is the JSON document this package's MetadataParser expects as
// a trace's "metadata" file content.
type MetadataDoc struct {
	Name          string          `json:"name"`
	Env           map[string]string `json:"env,omitempty"`
	ClockClasses  []ClockClassDoc  `json:"clock_classes,omitempty"`
	StreamClasses []StreamClassDoc `json:"stream_classes"`
}

// ClockClassDoc describes one clock class.
type ClockClassDoc struct {
	Name      string `json:"name"`
	Frequency uint64 `json:"frequency"`
	Offset    int64  `json:"offset,omitempty"`
}

// StreamClassDoc describes one stream class.
type StreamClassDoc struct {
	ID         uint64          `json:"id"`
	HasID      bool            `json:"has_id"`
	ClockIndex *int            `json:"clock_index,omitempty"`
	Events     []EventClassDoc `json:"events"`
}

// EventClassDoc describes one event class.
type EventClassDoc struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// MetadataParser implements ctfio.MetadataParser by decoding MetadataDoc.
type MetadataParser struct{}

// Parse implements ctfio.MetadataParser.
func (MetadataParser) Parse(text string) (*schema.Trace, error) {
	var doc MetadataDoc
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, errors.WrapInvalid(err, "ndjson", "Parse", "decode metadata document")
	}

	trace := schema.NewTrace(doc.Name)
	trace.Env = doc.Env

	clocks := make([]*schema.ClockClass, len(doc.ClockClasses))
	for i, cc := range doc.ClockClasses {
		clock := &schema.ClockClass{Name: cc.Name, Frequency: cc.Frequency, Offset: cc.Offset}
		clocks[i] = clock
		trace.AddClockClass(clock)
	}

	for _, scDoc := range doc.StreamClasses {
		sc := &schema.StreamClass{ID: scDoc.ID, HasID: scDoc.HasID}
		if scDoc.ClockIndex != nil {
			idx := *scDoc.ClockIndex
			if idx < 0 || idx >= len(clocks) {
				return nil, errors.WrapInvalid(errors.ErrMetadataParse, "ndjson", "Parse", "clock_index out of range")
			}
			sc.Clock = clocks[idx]
		}
		for _, ecDoc := range scDoc.Events {
			if err := sc.AddEventClass(&schema.EventClass{ID: ecDoc.ID, Name: ecDoc.Name}); err != nil {
				return nil, err
			}
		}
		if err := trace.AddStreamClass(sc); err != nil {
			return nil, err
		}
	}

	return trace, nil
}

// WireNotification is one line of a stream file: a packet-begin,
// packet-end, or event, addressed to a stream by (stream_class_id,
// instance_id) rather than by pointer, since JSON has no pointer identity.
type WireNotification struct {
	Kind        string              `json:"kind"` // "packet-begin", "event", "packet-end"
	StreamClassID uint64            `json:"stream_class_id"`
	InstanceID  *uint64             `json:"instance_id,omitempty"`
	Header      schema.FieldValues  `json:"header,omitempty"`
	Context     schema.FieldValues  `json:"context,omitempty"`
	EventID     uint64              `json:"event_id,omitempty"`
	Payload     schema.FieldValues  `json:"payload,omitempty"`
}

// Factory implements ctfio.StreamFileReaderFactory by opening a plain file
// of newline-delimited WireNotification JSON.
type Factory struct{}

// Open implements ctfio.StreamFileReaderFactory.
func (Factory) Open(trace *schema.Trace, path string) (ctfio.StreamFileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapTransient(err, "ndjson", "Open", path)
	}
	return &Reader{trace: trace, file: f, scanner: bufio.NewScanner(f)}, nil
}

// Reader implements ctfio.StreamFileReader over a WireNotification NDJSON
// file. The reader mints a new *schema.Stream at every packet-begin, so two
// packets of the same file do not share a Stream pointer; the caller
// (ctf/source.Iterator) is responsible for canonicalizing stream identity
// across packets and files in the same group.
type Reader struct {
	trace   *schema.Trace
	file    *os.File
	scanner *bufio.Scanner

	packet *notif.Packet
}

// Next implements ctfio.StreamFileReader.
func (r *Reader) Next(ctx context.Context) (notif.Notification, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return notif.Notification{}, errors.WrapTransient(err, "ndjson", "Next", "")
		}
		return notif.Notification{}, io.EOF
	}

	var wire WireNotification
	if err := json.Unmarshal(r.scanner.Bytes(), &wire); err != nil {
		return notif.Notification{}, errors.WrapInvalid(err, "ndjson", "Next", "decode notification")
	}

	sc, ok := r.trace.StreamClassByID(wire.StreamClassID)
	if !ok {
		single, ok := r.trace.SingleStreamClass()
		if !ok {
			return notif.Notification{}, errors.WrapInvalid(errors.ErrUnresolvedSC, "ndjson", "Next", "")
		}
		sc = single
	}

	switch wire.Kind {
	case "packet-begin":
		stream := &schema.Stream{Class: sc, InstanceID: wire.InstanceID}
		r.packet = &notif.Packet{Stream: stream, Header: wire.Header, Context: wire.Context}
		return notif.PacketBegin(r.packet), nil

	case "event":
		if r.packet == nil {
			return notif.Notification{}, errors.WrapFatal(errors.ErrEventBeforeBegin, "ndjson", "Next", "")
		}
		ec, ok := sc.EventClassByID(wire.EventID)
		if !ok {
			return notif.Notification{}, errors.WrapInvalid(errors.ErrMissingField, "ndjson", "Next", "unknown event_id")
		}
		return notif.EventNotif(&notif.Event{Class: ec, Packet: r.packet, Payload: wire.Payload}), nil

	case "packet-end":
		if r.packet == nil {
			return notif.Notification{}, errors.WrapFatal(errors.ErrPacketEndWithoutBegin, "ndjson", "Next", "")
		}
		p := r.packet
		r.packet = nil
		return notif.PacketEnd(p), nil

	default:
		return notif.Notification{}, errors.WrapInvalid(errors.ErrMetadataParse, "ndjson", "Next", "unknown notification kind "+wire.Kind)
	}
}

// Close implements ctfio.StreamFileReader.
func (r *Reader) Close() error {
	return r.file.Close()
}
