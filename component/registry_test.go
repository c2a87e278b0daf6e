package component_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ctffs/component"
)

type stubComponent struct{}

func (stubComponent) Meta() component.Metadata {
	return component.Metadata{Name: "stub", Type: "source"}
}
func (stubComponent) InputPorts() []component.Port       { return nil }
func (stubComponent) OutputPorts() []component.Port      { return nil }
func (stubComponent) ConfigSchema() component.ConfigSchema { return component.ConfigSchema{} }
func (stubComponent) Health() component.HealthStatus {
	return component.HealthStatus{Healthy: true, LastCheck: time.Now()}
}

func TestRegistryCreateRoundTrip(t *testing.T) {
	reg := component.NewRegistry()
	err := reg.RegisterFactory(&component.Registration{
		Name: "stub",
		Type: "source",
		Factory: func(raw json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
			return stubComponent{}, nil
		},
	})
	require.NoError(t, err)

	inst, err := reg.Create("stub", nil, component.Dependencies{})
	require.NoError(t, err)
	assert.Equal(t, "stub", inst.Meta().Name)

	_, err = reg.Create("missing", nil, component.Dependencies{})
	assert.Error(t, err)
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	reg := component.NewRegistry()
	factory := func(raw json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
		return stubComponent{}, nil
	}
	require.NoError(t, reg.RegisterFactory(&component.Registration{Name: "a", Type: "source", Factory: factory}))
	err := reg.RegisterFactory(&component.Registration{Name: "a", Type: "source", Factory: factory})
	assert.Error(t, err)
}
