package tool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoImpl() Implementation {
	return ImplementationFunc(func(_ context.Context, args Arguments) (map[string]any, error) {
		return map[string]any{"echo": args.String("name")}, nil
	})
}

func echoDescriptor(name string) Descriptor {
	return Descriptor{
		Name:        name,
		Description: "Echo the name back",
		Params:      []Param{{Name: "name", Type: TypeString}},
		Returns:     []Field{{Name: "echo", Type: TypeString}},
	}
}

func TestToolRegistry_RegisterAndLookup(t *testing.T) {
	t.Parallel()

	r := NewToolRegistry()
	desc := echoDescriptor("echo")
	require.NoError(t, r.Register(desc, echoImpl()))

	for i := 0; i < 3; i++ {
		entry, err := r.Lookup("echo")
		require.NoError(t, err)
		assert.Equal(t, desc, entry.Descriptor)
		assert.NotNil(t, entry.Implementation)
	}
	assert.Equal(t, 1, r.Len())
}

func TestToolRegistry_Register_RejectsPaddedName(t *testing.T) {
	t.Parallel()

	r := NewToolRegistry()
	err := r.Register(echoDescriptor("  echo "), echoImpl())
	require.ErrorIs(t, err, ErrInvalidDescriptor)
	assert.Equal(t, 0, r.Len())

	_, err = r.Lookup("  echo ")
	assert.ErrorIs(t, err, ErrUnknownTool)
	_, err = r.Lookup("echo")
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestToolRegistry_Register_Duplicate(t *testing.T) {
	t.Parallel()

	r := NewToolRegistry()
	original := echoDescriptor("echo")
	require.NoError(t, r.Register(original, echoImpl()))

	other := echoDescriptor("echo")
	other.Description = "replacement"
	other.Params = nil
	err := r.Register(other, ImplementationFunc(func(context.Context, Arguments) (map[string]any, error) {
		return nil, errors.New("must not be called")
	}))

	require.ErrorIs(t, err, ErrDuplicateTool)
	assert.Equal(t, KindDuplicateTool, KindOf(err))

	entry, err := r.Lookup("echo")
	require.NoError(t, err)
	assert.Equal(t, original, entry.Descriptor)

	out, err := entry.Implementation.Invoke(context.Background(), Arguments{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"echo": "Ada"}, out)
}

func TestToolRegistry_Lookup_Unknown(t *testing.T) {
	t.Parallel()

	_, err := NewToolRegistry().Lookup("missing")
	require.ErrorIs(t, err, ErrUnknownTool)
	assert.Contains(t, err.Error(), "missing")
}

func TestToolRegistry_Lookup_ReturnsCopy(t *testing.T) {
	t.Parallel()

	r := NewToolRegistry()
	require.NoError(t, r.Register(echoDescriptor("echo"), echoImpl()))

	entry, err := r.Lookup("echo")
	require.NoError(t, err)
	entry.Descriptor.Params[0].Name = "mutated"

	again, err := r.Lookup("echo")
	require.NoError(t, err)
	assert.Equal(t, "name", again.Descriptor.Params[0].Name)
}

func TestToolRegistry_Register_CopiesDescriptor(t *testing.T) {
	t.Parallel()

	r := NewToolRegistry()
	desc := echoDescriptor("echo")
	require.NoError(t, r.Register(desc, echoImpl()))
	desc.Returns[0].Type = TypeInteger

	entry, err := r.Lookup("echo")
	require.NoError(t, err)
	assert.Equal(t, TypeString, entry.Descriptor.Returns[0].Type)
}

func TestToolRegistry_Register_InvalidDescriptor(t *testing.T) {
	t.Parallel()

	cases := map[string]Descriptor{
		"empty name":      {Name: " "},
		"padded name":     {Name: "echo\t"},
		"blank param":     {Name: "t", Params: []Param{{Name: "", Type: TypeString}}},
		"duplicate param": {Name: "t", Params: []Param{{Name: "a", Type: TypeString}, {Name: "a", Type: TypeInteger}}},
		"unknown type":    {Name: "t", Params: []Param{{Name: "a", Type: "date"}}},
		"duplicate field": {Name: "t", Returns: []Field{{Name: "x", Type: TypeString}, {Name: "x", Type: TypeString}}},
		"bad field type":  {Name: "t", Returns: []Field{{Name: "x", Type: "str"}}},
	}

	for name, desc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			err := NewToolRegistry().Register(desc, echoImpl())
			assert.ErrorIs(t, err, ErrInvalidDescriptor)
		})
	}
}

func TestToolRegistry_Register_NilImplementation(t *testing.T) {
	t.Parallel()

	err := NewToolRegistry().Register(echoDescriptor("echo"), nil)
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
}

func TestToolRegistry_Seal(t *testing.T) {
	t.Parallel()

	r := NewToolRegistry()
	require.NoError(t, r.Register(echoDescriptor("echo"), echoImpl()))
	r.Seal()
	assert.True(t, r.Sealed())

	err := r.Register(echoDescriptor("late"), echoImpl())
	require.ErrorIs(t, err, ErrRegistrySealed)

	_, err = r.Lookup("late")
	assert.ErrorIs(t, err, ErrUnknownTool)
	_, err = r.Lookup("echo")
	assert.NoError(t, err)
}

func TestToolRegistry_Descriptors_SortedByName(t *testing.T) {
	t.Parallel()

	r := NewToolRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, r.Register(echoDescriptor(name), echoImpl()))
	}

	var names []string
	for _, d := range r.Descriptors() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestToolRegistry_ConcurrentRegister_OneWinner(t *testing.T) {
	t.Parallel()

	r := NewToolRegistry()
	const workers = 16

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.Register(echoDescriptor("shared"), echoImpl())
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicateTool):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, dup)
}

func TestError_Format(t *testing.T) {
	t.Parallel()

	err := argumentError("get_info_about", "name", "missing required field %q", "name")
	assert.Equal(t, `tool arguments validation failed: get_info_about: missing required field "name"`, err.Error())
	assert.ErrorIs(t, err, ErrArgumentValidation)
	assert.NotErrorIs(t, err, ErrReturnShape)

	cause := fmt.Errorf("boom")
	impl := implementationError("x", cause)
	assert.ErrorIs(t, impl, cause)
	assert.ErrorIs(t, impl, ErrImplementation)
	assert.Equal(t, KindInternal, KindOf(cause))
}
