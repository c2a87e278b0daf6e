// Command ctf-pipeline wires a ctf-fs-src component straight into a
// ctf-fs-sink component, draining every discovered stream group
// concurrently with golang.org/x/sync/errgroup and feeding each
// notification into the sink as it arrives. It runs against the ndjson
// wire format (ctf/ndjson) rather than genuine CTF binary trace files,
// since the real packet codec is an out-of-scope external collaborator
// (see ctf/ctfio).
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/c360/ctffs/component"
	"github.com/c360/ctffs/config"
	"github.com/c360/ctffs/ctf/fswriter"
	"github.com/c360/ctffs/ctf/ndjson"
	"github.com/c360/ctffs/ctf/sink"
	"github.com/c360/ctffs/ctf/source"
)

// PipelineConfig is the on-disk shape of -config: source and sink
// parameters for a single-source, single-sink pipeline.
type PipelineConfig struct {
	Source config.SourceParams `yaml:"source"`
	Sink   config.SinkParams   `yaml:"sink"`
}

func main() {
	configPath := flag.String("config", "", "path to a pipeline YAML config")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: ctf-pipeline -config <pipeline.yaml>")
		os.Exit(2)
	}

	if err := run(*configPath); err != nil {
		slog.Error("ctf-pipeline failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}
	var cfg PipelineConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return err
	}

	logger := component.NewLogger("ctf-pipeline", nil, nil)
	deps := component.Dependencies{Logger: logger}

	src := source.NewSource(cfg.Source, ndjson.MetadataParser{}, ndjson.Factory{}, deps)
	if err := src.Initialize(); err != nil {
		return err
	}

	snk := sink.NewSink(fswriter.NewFactory(cfg.Sink.BasePath), deps)
	if err := snk.Initialize(); err != nil {
		return err
	}

	ctx := context.Background()
	if err := src.Start(ctx); err != nil {
		return err
	}
	if err := snk.Start(ctx); err != nil {
		return err
	}

	ports := src.OutputPorts()
	logger.Info("draining stream groups", "count", len(ports))

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range ports {
		port := p
		g.Go(func() error {
			return drainPort(gctx, src, snk, port.Name, logger)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return snk.Stop(0)
}

func drainPort(ctx context.Context, src *source.Source, snk *sink.Sink, portName string, logger *component.Logger) error {
	it, err := src.OpenIterator(portName)
	if err != nil {
		return err
	}
	defer it.Finalize()

	for {
		n, err := it.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := snk.Handle(ctx, n); err != nil {
			logger.Error("handling notification", err, "port", portName)
			return err
		}
	}
}
