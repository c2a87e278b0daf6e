// Package ctfio declares the external collaborators spec.md §1 calls out of
// scope: the metadata grammar parser, the per-file binary stream decoder,
// and the CTF writer codec. This repository implements the trace/stream
// model and the grouping/iteration/mirroring engines against these
// interfaces; concrete implementations (a real CTF metadata parser, a real
// binary packet decoder, a real packet-byte writer) are someone else's
// plugin to supply, or — for tests — the small in-memory fakes in
// ctf/ctftest.
package ctfio

import (
	"context"

	"github.com/c360/ctffs/ctf/notif"
	"github.com/c360/ctffs/ctf/schema"
)

// MetadataParser parses a trace's textual CTF metadata into a schema.Trace.
// This is spec.md §1's "parse_metadata(text) → TraceSchema".
type MetadataParser interface {
	Parse(text string) (*schema.Trace, error)
}

// StreamFileReader decodes one stream file's binary packets into
// Notifications, one at a time. This is spec.md §1's
// "StreamFileReader.next() → Notification | End": End is reported as
// (zero Notification, io.EOF).
type StreamFileReader interface {
	Next(ctx context.Context) (notif.Notification, error)
	Close() error
}

// StreamFileReaderFactory opens a StreamFileReader for a path, decoding
// against trace's schema.
type StreamFileReaderFactory interface {
	Open(trace *schema.Trace, path string) (StreamFileReader, error)
}

// Writer is spec.md §1's "Writer.flush_packet(stream) → emits bytes for a
// packet", extended with the minimal bookkeeping operations the sink needs
// to stand up an output trace: allocating concrete output streams and
// finalizing the writer. The writer owns the on-disk byte format; the sink
// owns when to call it.
type Writer interface {
	// OutputTrace is the writer's in-memory output schema tree, into which
	// the sink deep-copies clock classes, stream classes, and event classes.
	OutputTrace() *schema.Trace

	// NewStream allocates a concrete backing stream of class sc with the
	// given instance id (nil if absent), ready to receive packets.
	NewStream(sc *schema.StreamClass, instanceID *uint64) (*schema.Stream, error)

	// FlushPacket writes one packet — context plus the events accumulated
	// since the stream's previous flush — for stream to disk.
	FlushPacket(stream *schema.Stream, context schema.FieldValues, events []*notif.Event) error

	// Close finalizes the writer (writes the metadata file, closes any open
	// file handles). Idempotent.
	Close() error
}
