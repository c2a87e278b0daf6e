// Command ctf-fs-sink mirrors a stream of notifications onto a filesystem
// output trace. Input is the ndjson wire format (ctf/ndjson): a metadata
// document describing the trace schema, and a file of newline-delimited
// WireNotification records. The real CTF binary codec remains an
// out-of-scope external collaborator (see ctf/ctfio); this binary exercises
// the sink end to end against the JSON stand-in this repository ships.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/c360/ctffs/component"
	"github.com/c360/ctffs/ctf/fswriter"
	"github.com/c360/ctffs/ctf/ndjson"
	"github.com/c360/ctffs/ctf/sink"
)

func main() {
	metadataPath := flag.String("metadata", "", "path to an ndjson metadata document")
	in := flag.String("in", "-", "path to an ndjson notification file, or - for stdin")
	out := flag.String("out", "", "output directory to write the mirrored trace under")
	flag.Parse()

	if *metadataPath == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "usage: ctf-fs-sink -metadata <file> -out <dir> [-in <file>|-]")
		os.Exit(2)
	}

	if err := run(*metadataPath, *in, *out); err != nil {
		slog.Error("ctf-fs-sink failed", "error", err)
		os.Exit(1)
	}
}

func run(metadataPath, in, out string) error {
	metadataText, err := os.ReadFile(metadataPath)
	if err != nil {
		return err
	}
	trace, err := ndjson.MetadataParser{}.Parse(string(metadataText))
	if err != nil {
		return err
	}
	trace.MarkStatic()

	inPath := in
	if inPath == "-" {
		tmp, err := copyStdinToTempFile()
		if err != nil {
			return err
		}
		defer os.Remove(tmp)
		inPath = tmp
	}

	reader, err := (ndjson.Factory{}).Open(trace, inPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	logger := component.NewLogger("ctf-fs-sink", nil, nil)
	s := sink.NewSink(fswriter.NewFactory(out), component.Dependencies{Logger: logger})
	if err := s.Initialize(); err != nil {
		return err
	}
	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		return err
	}

	for {
		n, err := reader.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := s.Handle(ctx, n); err != nil {
			return err
		}
	}

	return s.Stop(0)
}

func copyStdinToTempFile() (string, error) {
	f, err := os.CreateTemp("", "ctf-fs-sink-*.ndjson")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, os.Stdin); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
