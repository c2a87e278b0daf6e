package source_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ctffs/ctf/ctftest"
	grouppkg "github.com/c360/ctffs/ctf/group"
	"github.com/c360/ctffs/ctf/notif"
	"github.com/c360/ctffs/ctf/schema"
	"github.com/c360/ctffs/ctf/source"
)

func TestIteratorCrossesFileBoundaries(t *testing.T) {
	trace := schema.NewTrace("t")
	sc := &schema.StreamClass{ID: 0, HasID: true}
	require.NoError(t, trace.AddStreamClass(sc))
	stream := &schema.Stream{Class: sc}
	ec := &schema.EventClass{ID: 1, Name: "ev"}
	require.NoError(t, sc.AddEventClass(ec))

	packet1 := &notif.Packet{Stream: stream}
	packet2 := &notif.Packet{Stream: stream}

	factory := ctftest.NewFakeReaderFactory()
	factory.Add("/t/a",
		notif.PacketBegin(packet1),
		notif.EventNotif(&notif.Event{Class: ec, Packet: packet1}),
		notif.PacketEnd(packet1),
	)
	factory.Add("/t/b",
		notif.PacketBegin(packet2),
		notif.EventNotif(&notif.Event{Class: ec, Packet: packet2}),
		notif.PacketEnd(packet2),
	)

	g := &grouppkg.Group{
		StreamClass: sc,
		Files: []grouppkg.FileInfo{
			{Path: "/t/a"},
			{Path: "/t/b"},
		},
	}

	it := source.NewIterator(trace, g, factory, nil)
	var kinds []notif.Kind
	for {
		n, err := it.Next(context.Background())
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		kinds = append(kinds, n.Kind)
	}

	assert.Equal(t, []notif.Kind{
		notif.KindPacketBegin, notif.KindEvent, notif.KindPacketEnd,
		notif.KindPacketBegin, notif.KindEvent, notif.KindPacketEnd,
	}, kinds)
	require.NoError(t, it.Finalize())
}

func TestIteratorEmptyGroupIsImmediateEOF(t *testing.T) {
	trace := schema.NewTrace("t")
	g := &grouppkg.Group{}
	factory := ctftest.NewFakeReaderFactory()

	it := source.NewIterator(trace, g, factory, nil)
	_, err := it.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}
