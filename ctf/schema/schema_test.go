package schema_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ctffs/ctf/schema"
)

func TestClockClassNsFromEpoch(t *testing.T) {
	cc := &schema.ClockClass{Name: "monotonic", UUID: uuid.New(), Frequency: 1_000_000_000, Offset: 0}
	ns, err := cc.NsFromEpoch(1_500_000_000)
	require.NoError(t, err)
	assert.EqualValues(t, 1_500_000_000, ns)
}

func TestClockClassNsFromEpochMissingFrequency(t *testing.T) {
	cc := &schema.ClockClass{Name: "broken"}
	_, err := cc.NsFromEpoch(1)
	assert.Error(t, err)
}

func TestTraceStaticRejectsNewStreamClass(t *testing.T) {
	trace := schema.NewTrace("my-trace")
	sc1 := &schema.StreamClass{ID: 0, HasID: true}
	require.NoError(t, trace.AddStreamClass(sc1))

	trace.MarkStatic()
	assert.True(t, trace.IsStatic())

	sc2 := &schema.StreamClass{ID: 1, HasID: true}
	err := trace.AddStreamClass(sc2)
	assert.Error(t, err)
}

func TestTraceSingleStreamClassFallback(t *testing.T) {
	trace := schema.NewTrace("t")
	sc := &schema.StreamClass{ID: 0, HasID: false}
	require.NoError(t, trace.AddStreamClass(sc))

	got, ok := trace.SingleStreamClass()
	require.True(t, ok)
	assert.Same(t, sc, got)

	sc2 := &schema.StreamClass{ID: 1, HasID: true}
	require.NoError(t, trace.AddStreamClass(sc2))
	_, ok = trace.SingleStreamClass()
	assert.False(t, ok)
}

func TestStreamClassAddEventClassRejectsDuplicateID(t *testing.T) {
	sc := &schema.StreamClass{ID: 0, HasID: true}
	ec1 := &schema.EventClass{ID: 5, Name: "a"}
	require.NoError(t, sc.AddEventClass(ec1))

	ec2 := &schema.EventClass{ID: 5, Name: "b"}
	err := sc.AddEventClass(ec2)
	assert.Error(t, err)

	got, ok := sc.EventClassByID(5)
	require.True(t, ok)
	assert.Equal(t, "a", got.Name)
}

func TestClockClassPriorityMapCoversEveryClass(t *testing.T) {
	trace := schema.NewTrace("t")
	cc1 := &schema.ClockClass{Name: "a"}
	cc2 := &schema.ClockClass{Name: "b"}
	trace.AddClockClass(cc1)
	trace.AddClockClass(cc2)

	m := schema.NewClockClassPriorityMap(trace)
	for _, cc := range []*schema.ClockClass{cc1, cc2} {
		p, ok := m.Priority(cc)
		require.True(t, ok)
		assert.EqualValues(t, 0, p)
	}
}

func TestFieldValuesClone(t *testing.T) {
	v := schema.FieldValues{"a": uint64(1)}
	clone := v.Clone()
	clone["a"] = uint64(2)
	got, _ := v.Uint64("a")
	assert.EqualValues(t, 1, got)
}
