package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/c360/ctffs/component"
	"github.com/c360/ctffs/config"
	"github.com/c360/ctffs/ctf/ctfio"
	"github.com/c360/ctffs/ctf/discovery"
	"github.com/c360/ctffs/ctf/group"
	"github.com/c360/ctffs/ctf/schema"
	"github.com/c360/ctffs/errors"
)

// PortGroup binds an output port to the trace and stream group it reads
// from.
type PortGroup struct {
	Trace *schema.Trace
	Group *group.Group
}

// Source is the filesystem CTF source component: discovering traces under a
// configured root, parsing their metadata, grouping their stream files, and
// exposing one output port per stream group (spec.md §4.1–§4.4, §6).
type Source struct {
	params  config.SourceParams
	parser  ctfio.MetadataParser
	factory ctfio.StreamFileReaderFactory
	logger  *component.Logger
	metrics component.MetricsRegistrar

	mu         sync.Mutex
	state      component.State
	health     component.HealthStatus
	startedAt  time.Time
	ports      []component.Port
	portGroups map[string]*PortGroup
}

var (
	_ component.Discoverable       = (*Source)(nil)
	_ component.LifecycleComponent = (*Source)(nil)
)

// NewSource constructs a Source. parser and factory are the out-of-scope
// metadata/packet codecs (ctf/ctfio); deps carries the ambient logger and
// metrics registrar.
func NewSource(params config.SourceParams, parser ctfio.MetadataParser, factory ctfio.StreamFileReaderFactory, deps component.Dependencies) *Source {
	return &Source{
		params:     params,
		parser:     parser,
		factory:    factory,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		state:      component.StateCreated,
		portGroups: make(map[string]*PortGroup),
		health:     component.HealthStatus{Healthy: true},
	}
}

// Meta implements component.Discoverable.
func (s *Source) Meta() component.Metadata {
	return component.Metadata{
		Name:        "ctf-fs-src",
		Type:        "source",
		Description: "discovers CTF traces under a filesystem root and streams their notifications",
		Version:     "1.0.0",
	}
}

// InputPorts implements component.Discoverable: the filesystem source has
// none.
func (s *Source) InputPorts() []component.Port { return nil }

// OutputPorts implements component.Discoverable: one port per stream group,
// populated by Initialize.
func (s *Source) OutputPorts() []component.Port {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]component.Port, len(s.ports))
	copy(out, s.ports)
	return out
}

// ConfigSchema implements component.Discoverable.
func (s *Source) ConfigSchema() component.ConfigSchema {
	return component.ConfigSchema{
		Properties: map[string]component.PropertySchema{
			"path": {Type: "string", Description: "root directory to discover CTF traces under"},
		},
		Required: []string{"path"},
	}
}

// Health implements component.Discoverable.
func (s *Source) Health() component.HealthStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.health
	if s.state == component.StateStarted {
		h.Uptime = time.Since(s.startedAt)
	}
	return h
}

// Initialize discovers traces, parses their metadata, groups their stream
// files, and populates one output port per group (spec.md §4.1–§4.3).
func (s *Source) Initialize() error {
	traces, err := discovery.Discover(s.params.Path, s.logger)
	if err != nil {
		return err
	}

	for _, tr := range traces {
		if err := s.loadTrace(tr); err != nil {
			if !errors.IsInvalid(err) {
				return err
			}
			if s.logger != nil {
				s.logger.Warn("skipping trace", "trace", tr.Name, "error", err)
			}
		}
	}

	s.mu.Lock()
	s.state = component.StateInitialized
	s.mu.Unlock()
	return nil
}

func (s *Source) loadTrace(tr discovery.Trace) error {
	metadataPath := filepath.Join(tr.Path, "metadata")
	text, err := os.ReadFile(metadataPath)
	if err != nil {
		return errors.WrapInvalid(err, "Source", "loadTrace", metadataPath)
	}

	trace, err := s.parser.Parse(string(text))
	if err != nil {
		return errors.WrapInvalid(err, "Source", "loadTrace", metadataPath)
	}
	trace.Name = tr.Name
	applyClockOffset(trace, s.params)
	trace.MarkStatic()
	trace.PriorityMap = schema.NewClockClassPriorityMap(trace)

	entries, err := os.ReadDir(tr.Path)
	if err != nil {
		return errors.WrapTransient(err, "Source", "loadTrace", tr.Path)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == "metadata" || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return errors.WrapTransient(err, "Source", "loadTrace", filepath.Join(tr.Path, e.Name()))
		}
		if !info.Mode().IsRegular() || info.Size() == 0 {
			continue
		}
		paths = append(paths, filepath.Join(tr.Path, e.Name()))
	}
	if len(paths) == 0 {
		if s.logger != nil {
			s.logger.Debug("trace has no stream files", "trace", tr.Name)
		}
		return nil
	}

	groups, err := group.BuildGroups(context.Background(), trace, paths, s.factory)
	if err != nil {
		return errors.WrapInvalid(err, "Source", "loadTrace", tr.Path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range groups {
		name := portName(g)
		s.ports = append(s.ports, component.Port{
			Name:        name,
			Direction:   component.DirectionOutput,
			Required:    true,
			Description: "stream group " + name,
			UserData:    g,
		})
		s.portGroups[name] = &PortGroup{Trace: trace, Group: g}
	}
	if s.metrics != nil {
		s.metrics.IncCounter("ctffs_traces_discovered_total", map[string]string{"trace": tr.Name})
	}
	return nil
}

// Start implements component.LifecycleComponent. The filesystem source is
// pull-based: Start only makes OpenIterator callable, it starts no
// background goroutines of its own.
func (s *Source) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == component.StateStarted {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Source", "Start", "")
	}
	s.startedAt = time.Now()
	s.state = component.StateStarted
	return nil
}

// Stop implements component.LifecycleComponent.
func (s *Source) Stop(timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != component.StateStarted {
		return errors.WrapInvalid(errors.ErrNotStarted, "Source", "Stop", "")
	}
	s.state = component.StateStopped
	return nil
}

// OpenIterator returns a fresh Iterator over the named output port's stream
// group. Callers own the returned Iterator's lifetime and must Finalize it.
func (s *Source) OpenIterator(portName string) (*Iterator, error) {
	s.mu.Lock()
	pg, ok := s.portGroups[portName]
	s.mu.Unlock()
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrUnknownStream, "Source", "OpenIterator", portName)
	}
	return NewIterator(pg.Trace, pg.Group, s.factory, s.logger), nil
}

// applyClockOffset shifts every clock class of trace by params' configured
// offset, converting the configured seconds/nanoseconds into the clock's own
// tick unit, per spec.md §6 / the reference fs.c's clock_offset and
// clock_offset_ns handling.
func applyClockOffset(trace *schema.Trace, params config.SourceParams) {
	if params.OffsetS == 0 && params.OffsetNS == 0 {
		return
	}
	for _, cc := range trace.ClockClasses {
		ticks := params.OffsetS*int64(cc.Frequency) + params.OffsetNS*int64(cc.Frequency)/1_000_000_000
		cc.Offset += ticks
	}
}

// portName names a group's port after the path of its earliest file.
func portName(g *group.Group) string {
	return g.Files[0].Path
}
