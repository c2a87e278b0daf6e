package sink

import (
	"context"
	"time"

	"github.com/c360/ctffs/component"
	"github.com/c360/ctffs/ctf/notif"
	"github.com/c360/ctffs/errors"
)

// Sink is the filesystem CTF sink component: a single input port fed
// notifications from one or more upstream sources, mirrored onto disk via
// Mirror (spec.md §4.6, §6).
type Sink struct {
	mirror  *Mirror
	logger  *component.Logger
	state   component.State
	health  component.HealthStatus
	startedAt time.Time
}

var (
	_ component.Discoverable       = (*Sink)(nil)
	_ component.LifecycleComponent = (*Sink)(nil)
)

// NewSink constructs a Sink backed by factory.
func NewSink(factory WriterFactory, deps component.Dependencies) *Sink {
	return &Sink{
		mirror: NewMirror(factory, deps),
		logger: deps.Logger,
		state:  component.StateCreated,
		health: component.HealthStatus{Healthy: true},
	}
}

// Meta implements component.Discoverable.
func (s *Sink) Meta() component.Metadata {
	return component.Metadata{
		Name:        "ctf-fs-sink",
		Type:        "sink",
		Description: "mirrors CTF notifications from one or more sources onto a filesystem output trace",
		Version:     "1.0.0",
	}
}

// InputPorts implements component.Discoverable: a single fan-in port, since
// notifications are self-describing (each carries its own stream/trace
// back-references) and need no per-upstream routing.
func (s *Sink) InputPorts() []component.Port {
	return []component.Port{{Name: "in", Direction: component.DirectionInput, Required: true, Description: "notification stream to mirror"}}
}

// OutputPorts implements component.Discoverable: the filesystem sink has
// none.
func (s *Sink) OutputPorts() []component.Port { return nil }

// ConfigSchema implements component.Discoverable.
func (s *Sink) ConfigSchema() component.ConfigSchema {
	return component.ConfigSchema{
		Properties: map[string]component.PropertySchema{
			"path": {Type: "string", Description: "output directory new traces are written under"},
		},
		Required: []string{"path"},
	}
}

// Health implements component.Discoverable.
func (s *Sink) Health() component.HealthStatus {
	h := s.health
	if s.state == component.StateStarted {
		h.Uptime = time.Since(s.startedAt)
	}
	return h
}

// Initialize implements component.LifecycleComponent. The filesystem sink
// needs no up-front work: writers are created lazily, one per input trace,
// on first notification.
func (s *Sink) Initialize() error {
	s.state = component.StateInitialized
	return nil
}

// Start implements component.LifecycleComponent.
func (s *Sink) Start(ctx context.Context) error {
	if s.state == component.StateStarted {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Sink", "Start", "")
	}
	s.startedAt = time.Now()
	s.state = component.StateStarted
	return nil
}

// Stop implements component.LifecycleComponent: closes every writer the
// mirror opened, flushing metadata and releasing file handles.
func (s *Sink) Stop(timeout time.Duration) error {
	if s.state != component.StateStarted {
		return errors.WrapInvalid(errors.ErrNotStarted, "Sink", "Stop", "")
	}
	s.state = component.StateStopped
	return s.mirror.Close()
}

// Handle feeds one notification to the sink's mirror.
func (s *Sink) Handle(ctx context.Context, n notif.Notification) error {
	if err := s.mirror.Handle(ctx, n); err != nil {
		s.health.ErrorCount++
		s.health.LastError = errors.Summary(err)
		if errors.IsFatal(err) {
			s.health.Healthy = false
		}
		return err
	}
	return nil
}
