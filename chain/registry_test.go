package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registrySpec(t *testing.T, name string) *Spec {
	t.Helper()
	spec, err := NewLinear(name, []StepSpec{{Name: "only", Template: "{{.input}}"}})
	require.NoError(t, err)
	return spec
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	spec := registrySpec(t, "alpha")

	require.NoError(t, reg.Register(spec))

	got, err := reg.Get("alpha")
	require.NoError(t, err)
	assert.Same(t, spec, got)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_DuplicateName(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(registrySpec(t, "alpha")))

	err := reg.Register(registrySpec(t, "alpha"))
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegistry_GetUnknown(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Get("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_NamesSorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"zulu", "alpha", "mike"} {
		require.NoError(t, reg.Register(registrySpec(t, name)))
	}
	assert.Equal(t, []string{"alpha", "mike", "zulu"}, reg.Names())
}

func TestRegistry_Unregister(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(registrySpec(t, "alpha")))

	reg.Unregister("alpha")
	_, err := reg.Get("alpha")
	assert.ErrorIs(t, err, ErrNotFound)

	reg.Unregister("alpha") // absent is a no-op
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_MustRegisterPanicsOnDuplicate(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(registrySpec(t, "alpha"))
	assert.Panics(t, func() {
		reg.MustRegister(registrySpec(t, "alpha"))
	})
}
