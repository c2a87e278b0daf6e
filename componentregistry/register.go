// Package componentregistry wires the CTF filesystem source and sink
// factories into a component.Registry, following the teacher framework's
// per-component Register(registry) convention.
package componentregistry

import (
	"encoding/json"

	"github.com/c360/ctffs/component"
	"github.com/c360/ctffs/config"
	"github.com/c360/ctffs/ctf/ctfio"
	"github.com/c360/ctffs/ctf/sink"
	"github.com/c360/ctffs/ctf/source"
	"github.com/c360/ctffs/errors"
)

// RegisterSource registers the "ctf-fs-src" factory. parser and
// readerFactory are the out-of-scope metadata/packet codecs every Source
// instance this factory creates will share.
func RegisterSource(registry *component.Registry, parser ctfio.MetadataParser, readerFactory ctfio.StreamFileReaderFactory) error {
	if registry == nil {
		return errors.WrapFatal(errors.ErrInvalidParam, "componentregistry", "RegisterSource", "registry is nil")
	}
	return registry.RegisterFactory(&component.Registration{
		Name:        "ctf-fs-src",
		Type:        "source",
		Description: "discovers CTF traces under a filesystem root and streams their notifications",
		Version:     "1.0.0",
		Factory: func(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
			params, err := config.ParseSourceParams(rawConfig)
			if err != nil {
				return nil, err
			}
			return source.NewSource(params, parser, readerFactory, deps), nil
		},
	})
}

// RegisterSink registers the "ctf-fs-sink" factory. newWriterFactory builds
// a fresh sink.WriterFactory rooted at a sink instance's configured output
// path; ctf/fswriter.NewFactory is the concrete implementation this
// repository ships.
func RegisterSink(registry *component.Registry, newWriterFactory func(basePath string) sink.WriterFactory) error {
	if registry == nil {
		return errors.WrapFatal(errors.ErrInvalidParam, "componentregistry", "RegisterSink", "registry is nil")
	}
	return registry.RegisterFactory(&component.Registration{
		Name:        "ctf-fs-sink",
		Type:        "sink",
		Description: "mirrors CTF notifications from one or more sources onto a filesystem output trace",
		Version:     "1.0.0",
		Factory: func(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
			params, err := config.ParseSinkParams(rawConfig)
			if err != nil {
				return nil, err
			}
			return sink.NewSink(newWriterFactory(params.BasePath), deps), nil
		},
	})
}

// Register registers both the source and sink factories against registry.
func Register(registry *component.Registry, parser ctfio.MetadataParser, readerFactory ctfio.StreamFileReaderFactory, newWriterFactory func(basePath string) sink.WriterFactory) error {
	if err := RegisterSource(registry, parser, readerFactory); err != nil {
		return err
	}
	return RegisterSink(registry, newWriterFactory)
}
