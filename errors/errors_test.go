package errors_test

import (
	"testing"

	stderrors "errors"

	"github.com/stretchr/testify/assert"

	"github.com/c360/ctffs/errors"
)

func TestWrapClassifies(t *testing.T) {
	base := stderrors.New("boom")

	transient := errors.WrapTransient(base, "Source", "Open", "reading first packet")
	assert.True(t, errors.IsTransient(transient))
	assert.False(t, errors.IsFatal(transient))
	assert.ErrorIs(t, transient, base)

	invalid := errors.WrapInvalid(base, "Discovery", "Discover", "root missing")
	assert.True(t, errors.IsInvalid(invalid))

	fatal := errors.WrapFatal(base, "Sink", "OnPacketEnd", "no matching packet-begin")
	assert.True(t, errors.IsFatal(fatal))
}

func TestWrapNilIsNil(t *testing.T) {
	assert.Nil(t, errors.WrapFatal(nil, "x", "y", "z"))
	assert.Nil(t, errors.WrapInvalid(nil, "x", "y", "z"))
	assert.Nil(t, errors.WrapTransient(nil, "x", "y", "z"))
}

func TestUnclassifiedErrorsAreFatal(t *testing.T) {
	assert.True(t, errors.IsFatal(stderrors.New("unclassified")))
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "transient", errors.Transient.String())
	assert.Equal(t, "invalid", errors.Invalid.String())
	assert.Equal(t, "fatal", errors.Fatal.String())
}
