package ndjson_test

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ctffs/ctf/ndjson"
	"github.com/c360/ctffs/ctf/notif"
)

func TestMetadataParserBuildsTraceSchema(t *testing.T) {
	doc := ndjson.MetadataDoc{
		Name: "demo",
		ClockClasses: []ndjson.ClockClassDoc{{Name: "monotonic", Frequency: 1_000_000_000}},
		StreamClasses: []ndjson.StreamClassDoc{
			{ID: 0, HasID: true, ClockIndex: intPtr(0), Events: []ndjson.EventClassDoc{{ID: 1, Name: "tick"}}},
		},
	}
	text, err := json.Marshal(doc)
	require.NoError(t, err)

	trace, err := ndjson.MetadataParser{}.Parse(string(text))
	require.NoError(t, err)
	assert.Equal(t, "demo", trace.Name)

	scs := trace.StreamClasses()
	require.Len(t, scs, 1)
	require.NotNil(t, scs[0].Clock)
	assert.EqualValues(t, 1_000_000_000, scs[0].Clock.Frequency)

	ec, ok := scs[0].EventClassByID(1)
	require.True(t, ok)
	assert.Equal(t, "tick", ec.Name)
}

func intPtr(i int) *int { return &i }

func writeLine(t *testing.T, f *os.File, w ndjson.WireNotification) {
	t.Helper()
	data, err := json.Marshal(w)
	require.NoError(t, err)
	_, err = f.Write(append(data, '\n'))
	require.NoError(t, err)
}

func TestReaderDecodesPacketEventPacket(t *testing.T) {
	doc := ndjson.MetadataDoc{
		Name:          "demo",
		StreamClasses: []ndjson.StreamClassDoc{{ID: 0, HasID: true, Events: []ndjson.EventClassDoc{{ID: 1, Name: "tick"}}}},
	}
	text, err := json.Marshal(doc)
	require.NoError(t, err)
	trace, err := ndjson.MetadataParser{}.Parse(string(text))
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "stream_0")
	f, err := os.Create(path)
	require.NoError(t, err)
	writeLine(t, f, ndjson.WireNotification{Kind: "packet-begin", StreamClassID: 0, Context: map[string]any{"timestamp_begin": uint64(1)}})
	writeLine(t, f, ndjson.WireNotification{Kind: "event", StreamClassID: 0, EventID: 1, Payload: map[string]any{"x": uint64(9)}})
	writeLine(t, f, ndjson.WireNotification{Kind: "packet-end", StreamClassID: 0})
	require.NoError(t, f.Close())

	factory := ndjson.Factory{}
	reader, err := factory.Open(trace, path)
	require.NoError(t, err)
	defer reader.Close()

	var kinds []notif.Kind
	for {
		n, err := reader.Next(context.Background())
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []notif.Kind{notif.KindPacketBegin, notif.KindEvent, notif.KindPacketEnd}, kinds)
}
