package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ctffs/config"
)

func TestParseSourceParamsRequiresPath(t *testing.T) {
	_, err := config.ParseSourceParams([]byte(`{"offset-s": 1}`))
	assert.Error(t, err)
}

func TestParseSourceParamsOK(t *testing.T) {
	p, err := config.ParseSourceParams([]byte(`{"path": "/traces", "offset-s": 5, "offset-ns": 100}`))
	require.NoError(t, err)
	assert.Equal(t, "/traces", p.Path)
	assert.EqualValues(t, 5, p.OffsetS)
	assert.EqualValues(t, 100, p.OffsetNS)
}

func TestParseSourceParamsEmpty(t *testing.T) {
	_, err := config.ParseSourceParams(nil)
	assert.Error(t, err)
}

func TestParseSinkParamsRequiresPath(t *testing.T) {
	_, err := config.ParseSinkParams([]byte(`{}`))
	assert.Error(t, err)
}
