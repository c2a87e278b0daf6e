// Package inspect implements DataStreamInspector (spec.md §4.2): opening a
// single stream file far enough to read its first packet's header and
// context, used by group.BuildGroups to bucket files by stream identity
// and order them by start time. Grounded on the reference fs.c's
// ctf_fs_ds_file_create / fs_ds_file_get_packet_header_context_fields /
// create_ds_index_entry.
package inspect

import (
	"context"
	"io"

	"github.com/c360/ctffs/ctf/ctfio"
	"github.com/c360/ctffs/ctf/notif"
	"github.com/c360/ctffs/ctf/schema"
	"github.com/c360/ctffs/errors"
)

// Info is everything StreamGrouper needs about one stream file, read from
// its first packet only.
type Info struct {
	StreamClass *schema.StreamClass
	InstanceID  *uint64 // nil if the packet header has no stream_instance_id
	HasBeginNs  bool
	BeginNs     int64
}

// Inspect opens path through factory and reads its first packet's header
// and context, per spec.md §4.2:
//   - the StreamClass is the one the reader attached to the packet's stream
//     (resolved from stream_id), falling back to the trace's sole stream
//     class when the reader attached none (schema.Trace.SingleStreamClass).
//   - stream_instance_id, if present, identifies which logical stream this
//     file belongs to.
//   - timestamp_begin, if the packet context carries one and the stream
//     class has a clock, is converted to nanoseconds since epoch.
//
// An empty file (no packets at all) is not an error here: HasBeginNs is
// simply false and InstanceID nil, letting the grouper fall back to
// filename-order placement (spec.md §4.2 "No packets: treat as a singleton
// group ordered by filename").
func Inspect(ctx context.Context, trace *schema.Trace, path string, factory ctfio.StreamFileReaderFactory) (Info, error) {
	reader, err := factory.Open(trace, path)
	if err != nil {
		return Info{}, errors.WrapInvalid(err, "inspect", "Inspect", path)
	}
	defer reader.Close()

	n, err := reader.Next(ctx)
	if err == io.EOF {
		return Info{}, nil
	}
	if err != nil {
		return Info{}, errors.WrapInvalid(err, "inspect", "Inspect", path)
	}
	if n.Kind != notif.KindPacketBegin || n.Packet == nil {
		return Info{}, errors.WrapInvalid(errors.ErrMetadataParse, "inspect", "Inspect",
			path+": first notification was not a packet-begin")
	}

	info := Info{StreamClass: n.Packet.Stream.Class}
	if info.StreamClass == nil {
		if single, ok := trace.SingleStreamClass(); ok {
			info.StreamClass = single
		}
	}

	if raw, ok := n.Packet.Header.Uint64("stream_instance_id"); ok {
		id := raw
		info.InstanceID = &id
	}

	if raw, ok := n.Packet.Context.Uint64("timestamp_begin"); ok && info.StreamClass != nil && info.StreamClass.Clock != nil {
		ns, err := info.StreamClass.Clock.NsFromEpoch(raw)
		if err != nil {
			return Info{}, errors.WrapInvalid(err, "inspect", "Inspect", path)
		}
		info.BeginNs = ns
		info.HasBeginNs = true
	}

	return info, nil
}
