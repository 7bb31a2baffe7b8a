package host

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/wasm-marshal/domain/errors"
	"github.com/reglet-dev/wasm-marshal/internal/abi"
)

// memoryOnlyModule exports a single page of memory and nothing else.
var memoryOnlyModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x05, 0x03, 0x01, 0x00, 0x01,
	0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
}

func TestNewExecutor(t *testing.T) {
	ctx := context.Background()
	e, err := NewExecutor(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, e)
	if e != nil {
		err := e.Close(ctx)
		assert.NoError(t, err)
	}
}

func TestNewExecutor_Options(t *testing.T) {
	ctx := context.Background()
	e, err := NewExecutor(ctx,
		WithMemoryLimitPages(32),
		WithEnv(map[string]string{"LANG": "de_DE.UTF-8", "TZ": "UTC"}),
		WithGuestAllocationLimit(4096),
		WithGuestAllocationLimit(0),
	)
	require.NoError(t, err)
	defer e.Close(ctx)

	assert.Equal(t, uint32(32), e.memoryLimitPages)
	assert.Equal(t, "de_DE.UTF-8", e.env["LANG"])
	assert.Equal(t, "UTC", e.env["TZ"])
	assert.Equal(t, "4096", e.env[abi.EnvMaxTotalAllocations])
}

func TestNewExecutor_DefaultLocale(t *testing.T) {
	ctx := context.Background()
	e, err := NewExecutor(ctx)
	require.NoError(t, err)
	defer e.Close(ctx)

	assert.Equal(t, DefaultLocale, e.env["LANG"])
}

func TestLoadModule_InvalidBytes(t *testing.T) {
	ctx := context.Background()
	e, err := NewExecutor(ctx)
	require.NoError(t, err)
	defer e.Close(ctx)

	_, err = e.LoadModule(ctx, []byte("not wasm"))
	assert.ErrorContains(t, err, "failed to compile module")
}

func TestLoadModule_RequiresAllocator(t *testing.T) {
	ctx := context.Background()
	e, err := NewExecutor(ctx)
	require.NoError(t, err)
	defer e.Close(ctx)

	_, err = e.LoadModule(ctx, memoryOnlyModule)

	var exportErr *errors.ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, "malloc", exportErr.Export)
}

func TestLoadModuleFile_Missing(t *testing.T) {
	ctx := context.Background()
	e, err := NewExecutor(ctx)
	require.NoError(t, err)
	defer e.Close(ctx)

	_, err = e.LoadModuleFile(ctx, filepath.Join(t.TempDir(), "absent.wasm"))
	assert.ErrorContains(t, err, "failed to read module")
}
