// Package ctftest provides small in-memory fakes for the external
// collaborators declared in ctf/ctfio, so the rest of this repository is
// testable without a real CTF metadata parser or binary packet codec.
package ctftest

import (
	"context"
	"io"
	"sort"

	"github.com/c360/ctffs/ctf/ctfio"
	"github.com/c360/ctffs/ctf/notif"
	"github.com/c360/ctffs/ctf/schema"
)

// FakeStreamFile is one scripted stream file's worth of notifications, keyed
// by path in a FakeReaderFactory.
type FakeStreamFile struct {
	Notifications []notif.Notification
}

// FakeReaderFactory implements ctfio.StreamFileReaderFactory by replaying
// pre-scripted notification sequences registered under a path.
type FakeReaderFactory struct {
	files map[string]*FakeStreamFile
}

// NewFakeReaderFactory returns an empty factory.
func NewFakeReaderFactory() *FakeReaderFactory {
	return &FakeReaderFactory{files: make(map[string]*FakeStreamFile)}
}

// Add registers the notification sequence a call to Open(_, path) should
// replay.
func (f *FakeReaderFactory) Add(path string, notifications ...notif.Notification) {
	f.files[path] = &FakeStreamFile{Notifications: notifications}
}

// Open implements ctfio.StreamFileReaderFactory.
func (f *FakeReaderFactory) Open(trace *schema.Trace, path string) (ctfio.StreamFileReader, error) {
	file, ok := f.files[path]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return &fakeReader{notifications: file.Notifications}, nil
}

type fakeReader struct {
	notifications []notif.Notification
	pos           int
	closed        bool
}

func (r *fakeReader) Next(ctx context.Context) (notif.Notification, error) {
	if r.pos >= len(r.notifications) {
		return notif.Notification{}, io.EOF
	}
	n := r.notifications[r.pos]
	r.pos++
	return n, nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

// FakeWriter implements ctfio.Writer by accumulating flushed packets in
// memory, for sink tests to assert against.
type FakeWriter struct {
	output   *schema.Trace
	streams  []*schema.Stream
	Flushes  []FlushedPacket
	closed   bool
}

// FlushedPacket records one call to FlushPacket.
type FlushedPacket struct {
	Stream  *schema.Stream
	Context schema.FieldValues
	Events  []*notif.Event
}

// NewFakeWriter returns a writer backed by a fresh, empty output trace.
func NewFakeWriter(name string) *FakeWriter {
	return &FakeWriter{output: schema.NewTrace(name)}
}

func (w *FakeWriter) OutputTrace() *schema.Trace { return w.output }

func (w *FakeWriter) NewStream(sc *schema.StreamClass, instanceID *uint64) (*schema.Stream, error) {
	s := &schema.Stream{Class: sc, InstanceID: instanceID}
	w.streams = append(w.streams, s)
	return s, nil
}

func (w *FakeWriter) FlushPacket(stream *schema.Stream, context schema.FieldValues, events []*notif.Event) error {
	w.Flushes = append(w.Flushes, FlushedPacket{Stream: stream, Context: context, Events: events})
	return nil
}

func (w *FakeWriter) Close() error {
	w.closed = true
	return nil
}

// Closed reports whether Close was called.
func (w *FakeWriter) Closed() bool { return w.closed }

// SortFlushesByStream is a test convenience for asserting output order when
// multiple streams interleave.
func SortFlushesByStream(flushes []FlushedPacket, order func(a, b *schema.Stream) bool) {
	sort.SliceStable(flushes, func(i, j int) bool { return order(flushes[i].Stream, flushes[j].Stream) })
}

// FakeMetadataParser implements ctfio.MetadataParser by returning a
// pre-built trace regardless of input text.
type FakeMetadataParser struct {
	Trace *schema.Trace
	Err   error
}

func (p *FakeMetadataParser) Parse(text string) (*schema.Trace, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Trace, nil
}
