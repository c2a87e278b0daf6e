// Package fswriter is a concrete, filesystem-backed implementation of
// ctfio.Writer, giving the sink somewhere real to write without requiring a
// genuine CTF binary packet codec (which remains an external collaborator —
// see ctf/ctfio). It writes one newline-delimited JSON file per output
// stream plus a metadata.json describing the output trace's schema. This is
// not the format ctf/ndjson reads (one record per packet rather than one per
// notification, and metadata.json rather than metadata), so its output
// cannot be read back through ctf/source.
package fswriter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/c360/ctffs/ctf/ctfio"
	"github.com/c360/ctffs/ctf/notif"
	"github.com/c360/ctffs/ctf/schema"
	"github.com/c360/ctffs/errors"
)

// Factory creates one Writer per input trace, rooted at basePath/<trace name>.
type Factory struct {
	basePath string
}

// NewFactory returns a Factory writing new output traces under basePath.
func NewFactory(basePath string) *Factory {
	return &Factory{basePath: basePath}
}

// NewWriter implements sink.WriterFactory.
func (f *Factory) NewWriter(inputTrace *schema.Trace) (ctfio.Writer, error) {
	dir := filepath.Join(f.basePath, inputTrace.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WrapTransient(err, "fswriter", "NewWriter", dir)
	}
	return &Writer{
		dir:         dir,
		output:      schema.NewTrace(inputTrace.Name),
		streamFiles: make(map[*schema.Stream]*os.File),
	}, nil
}

// Writer is a filesystem-backed ctfio.Writer.
type Writer struct {
	mu           sync.Mutex
	dir          string
	output       *schema.Trace
	nextStreamID int
	streamFiles  map[*schema.Stream]*os.File
	closed       bool
}

// OutputTrace implements ctfio.Writer.
func (w *Writer) OutputTrace() *schema.Trace { return w.output }

// NewStream implements ctfio.Writer: it creates the stream's backing file
// immediately, named by allocation order.
func (w *Writer) NewStream(sc *schema.StreamClass, instanceID *uint64) (*schema.Stream, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextStreamID++
	name := fmt.Sprintf("stream_%d", w.nextStreamID)
	file, err := os.Create(filepath.Join(w.dir, name))
	if err != nil {
		return nil, errors.WrapTransient(err, "fswriter", "NewStream", name)
	}

	s := &schema.Stream{Class: sc, InstanceID: instanceID}
	w.streamFiles[s] = file
	return s, nil
}

type packetRecord struct {
	Context schema.FieldValues `json:"context"`
	Events  []eventRecord      `json:"events"`
}

type eventRecord struct {
	EventID uint64              `json:"event_id"`
	Name    string              `json:"name"`
	Header  schema.FieldValues  `json:"header,omitempty"`
	Context schema.FieldValues  `json:"context,omitempty"`
	Payload schema.FieldValues  `json:"payload,omitempty"`
}

// FlushPacket implements ctfio.Writer: one JSON object per line.
func (w *Writer) FlushPacket(stream *schema.Stream, context schema.FieldValues, events []*notif.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	file, ok := w.streamFiles[stream]
	if !ok {
		return errors.WrapFatal(errors.ErrUnknownStream, "fswriter", "FlushPacket", "")
	}

	record := packetRecord{Context: context, Events: make([]eventRecord, len(events))}
	for i, e := range events {
		rec := eventRecord{Header: e.Header, Context: e.Context, Payload: e.Payload}
		if e.Class != nil {
			rec.EventID = e.Class.ID
			rec.Name = e.Class.Name
		}
		record.Events[i] = rec
	}

	data, err := json.Marshal(record)
	if err != nil {
		return errors.WrapFatal(err, "fswriter", "FlushPacket", "marshal packet")
	}
	data = append(data, '\n')
	if _, err := file.Write(data); err != nil {
		return errors.WrapTransient(err, "fswriter", "FlushPacket", "write packet")
	}
	return nil
}

type metadataDoc struct {
	Name          string              `json:"name"`
	ClockClasses  []clockClassDoc     `json:"clock_classes"`
	StreamClasses []streamClassDoc    `json:"stream_classes"`
	Env           map[string]string   `json:"env,omitempty"`
}

type clockClassDoc struct {
	Name      string `json:"name"`
	Frequency uint64 `json:"frequency"`
}

type streamClassDoc struct {
	ID     uint64         `json:"id"`
	Events []eventClassDoc `json:"events"`
}

type eventClassDoc struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Close implements ctfio.Writer: writes metadata.json describing the
// output trace's schema and closes every stream file. Idempotent.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	doc := metadataDoc{Name: w.output.Name, Env: w.output.Env}
	for _, cc := range w.output.ClockClasses {
		doc.ClockClasses = append(doc.ClockClasses, clockClassDoc{Name: cc.Name, Frequency: cc.Frequency})
	}
	for _, sc := range w.output.StreamClasses() {
		scDoc := streamClassDoc{ID: sc.ID}
		for _, ec := range sc.EventClasses() {
			scDoc.Events = append(scDoc.Events, eventClassDoc{ID: ec.ID, Name: ec.Name})
		}
		doc.StreamClasses = append(doc.StreamClasses, scDoc)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.WrapFatal(err, "fswriter", "Close", "marshal metadata")
	}
	if err := os.WriteFile(filepath.Join(w.dir, "metadata.json"), data, 0o644); err != nil {
		return errors.WrapTransient(err, "fswriter", "Close", "write metadata")
	}

	var joined error
	for _, f := range w.streamFiles {
		if err := f.Close(); err != nil {
			joined = errors.Join(joined, err)
		}
	}
	return joined
}
