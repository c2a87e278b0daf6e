package group_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ctffs/ctf/ctftest"
	"github.com/c360/ctffs/ctf/group"
	"github.com/c360/ctffs/ctf/notif"
	"github.com/c360/ctffs/ctf/schema"
)

func packetBeginAt(stream *schema.Stream, instanceID *uint64, beginNs uint64) notif.Notification {
	header := schema.FieldValues{}
	if instanceID != nil {
		header["stream_instance_id"] = *instanceID
	}
	return notif.PacketBegin(&notif.Packet{
		Stream:  stream,
		Header:  header,
		Context: schema.FieldValues{"timestamp_begin": beginNs},
	})
}

func TestGroupOrdersByBeginNsAscending(t *testing.T) {
	trace := schema.NewTrace("t")
	clock := &schema.ClockClass{Name: "monotonic", Frequency: 1_000_000_000}
	sc := &schema.StreamClass{ID: 0, HasID: true, Clock: clock}
	require.NoError(t, trace.AddStreamClass(sc))

	instanceID := uint64(1)
	stream := &schema.Stream{Class: sc, InstanceID: &instanceID}

	factory := ctftest.NewFakeReaderFactory()
	factory.Add("/t/stream_1", packetBeginAt(stream, &instanceID, 3_000_000_000))
	factory.Add("/t/stream_0", packetBeginAt(stream, &instanceID, 1_000_000_000))
	factory.Add("/t/stream_2", packetBeginAt(stream, &instanceID, 2_000_000_000))

	groups, err := group.BuildGroups(context.Background(), trace, []string{
		"/t/stream_1", "/t/stream_0", "/t/stream_2",
	}, factory)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	g := groups[0]
	require.Len(t, g.Files, 3)
	assert.Equal(t, "/t/stream_0", g.Files[0].Path)
	assert.Equal(t, "/t/stream_2", g.Files[1].Path)
	assert.Equal(t, "/t/stream_1", g.Files[2].Path)
}

func TestGroupSeparatesByInstanceID(t *testing.T) {
	trace := schema.NewTrace("t")
	clock := &schema.ClockClass{Name: "monotonic", Frequency: 1_000_000_000}
	sc := &schema.StreamClass{ID: 0, HasID: true, Clock: clock}
	require.NoError(t, trace.AddStreamClass(sc))

	id1, id2 := uint64(1), uint64(2)
	stream1 := &schema.Stream{Class: sc, InstanceID: &id1}
	stream2 := &schema.Stream{Class: sc, InstanceID: &id2}

	factory := ctftest.NewFakeReaderFactory()
	factory.Add("/t/a", packetBeginAt(stream1, &id1, 0))
	factory.Add("/t/b", packetBeginAt(stream2, &id2, 0))

	groups, err := group.BuildGroups(context.Background(), trace, []string{"/t/a", "/t/b"}, factory)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func TestGroupFallsBackToSingleStreamClassWhenStreamIDAbsent(t *testing.T) {
	trace := schema.NewTrace("t")
	sc := &schema.StreamClass{ID: 0, HasID: false}
	require.NoError(t, trace.AddStreamClass(sc))

	stream := &schema.Stream{Class: nil}
	factory := ctftest.NewFakeReaderFactory()
	factory.Add("/t/only", notif.PacketBegin(&notif.Packet{
		Stream:  stream,
		Header:  schema.FieldValues{},
		Context: schema.FieldValues{},
	}))

	groups, err := group.BuildGroups(context.Background(), trace, []string{"/t/only"}, factory)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Same(t, sc, groups[0].StreamClass)
}

func TestGroupTimestampLessFilesOrderedByFilename(t *testing.T) {
	trace := schema.NewTrace("t")
	sc := &schema.StreamClass{ID: 0, HasID: true}
	require.NoError(t, trace.AddStreamClass(sc))
	stream := &schema.Stream{Class: sc}

	factory := ctftest.NewFakeReaderFactory()
	factory.Add("/t/b", notif.PacketBegin(&notif.Packet{Stream: stream, Header: schema.FieldValues{}, Context: schema.FieldValues{}}))
	factory.Add("/t/a", notif.PacketBegin(&notif.Packet{Stream: stream, Header: schema.FieldValues{}, Context: schema.FieldValues{}}))

	groups, err := group.BuildGroups(context.Background(), trace, []string{"/t/b", "/t/a"}, factory)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Len(t, groups[0].Files, 1)
	require.Len(t, groups[1].Files, 1)
	assert.Equal(t, "/t/a", groups[0].Files[0].Path)
	assert.Equal(t, "/t/b", groups[1].Files[0].Path)
}
