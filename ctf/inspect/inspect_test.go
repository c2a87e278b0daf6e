package inspect_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ctffs/ctf/ctftest"
	"github.com/c360/ctffs/ctf/inspect"
	"github.com/c360/ctffs/ctf/notif"
	"github.com/c360/ctffs/ctf/schema"
)

func TestInspectReadsHeaderAndContext(t *testing.T) {
	trace := schema.NewTrace("t")
	clock := &schema.ClockClass{Name: "monotonic", Frequency: 1_000_000_000}
	sc := &schema.StreamClass{ID: 0, HasID: true, Clock: clock}
	require.NoError(t, trace.AddStreamClass(sc))

	instanceID := uint64(7)
	stream := &schema.Stream{Class: sc, InstanceID: &instanceID}
	packet := &notif.Packet{
		Stream:  stream,
		Header:  schema.FieldValues{"stream_instance_id": uint64(7)},
		Context: schema.FieldValues{"timestamp_begin": uint64(2_000_000_000)},
	}

	factory := ctftest.NewFakeReaderFactory()
	factory.Add("/trace/stream-0", notif.PacketBegin(packet))

	info, err := inspect.Inspect(context.Background(), trace, "/trace/stream-0", factory)
	require.NoError(t, err)
	require.NotNil(t, info.InstanceID)
	assert.EqualValues(t, 7, *info.InstanceID)
	assert.True(t, info.HasBeginNs)
	assert.EqualValues(t, 2_000_000_000, info.BeginNs)
	assert.Same(t, sc, info.StreamClass)
}

func TestInspectEmptyFileIsNotAnError(t *testing.T) {
	trace := schema.NewTrace("t")
	factory := ctftest.NewFakeReaderFactory()
	factory.Add("/trace/empty")

	info, err := inspect.Inspect(context.Background(), trace, "/trace/empty", factory)
	require.NoError(t, err)
	assert.False(t, info.HasBeginNs)
	assert.Nil(t, info.InstanceID)
}
