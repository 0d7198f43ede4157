package diagnostics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreflight_MissingBinDirIsBlocking(t *testing.T) {
	res := Preflight(Params{BinDir: filepath.Join(t.TempDir(), "nope")})

	assert.False(t, res.OK())
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0], "bin dir")
}

func TestPreflight_MissingExecutableIsBlocking(t *testing.T) {
	bin := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bin, "present"), nil, 0o755))

	res := Preflight(Params{
		BinDir:              bin,
		RequiredExecutables: []string{"present", "absent"},
	})

	assert.False(t, res.OK())
	var failed []string
	for _, c := range res.Checks {
		if !c.OK {
			failed = append(failed, c.Name)
		}
	}
	assert.Contains(t, failed, "executable absent")
	assert.NotContains(t, failed, "executable present")
}

func TestPreflight_AllExecutablesPresent(t *testing.T) {
	bin := t.TempDir()
	for _, name := range []string{"crashy_program", "crashpad_handler"} {
		require.NoError(t, os.WriteFile(filepath.Join(bin, name), nil, 0o755))
	}

	res := Preflight(Params{
		BinDir:              bin,
		RequiredExecutables: []string{"crashy_program", "crashpad_handler"},
	})

	for _, c := range res.Checks {
		if c.Name == "bin dir" || c.Name == "executable crashy_program" {
			assert.True(t, c.OK, c.Name)
		}
	}
}

func TestPreflight_SymbolCacheProbesNearestAncestor(t *testing.T) {
	base := t.TempDir()
	cache := filepath.Join(base, "not", "yet", "created")

	res := Preflight(Params{BinDir: base, SymbolCacheDir: cache})

	var found *PreflightCheck
	for i := range res.Checks {
		if res.Checks[i].Name == "symbol cache" {
			found = &res.Checks[i]
		}
	}
	require.NotNil(t, found)
	// The probe lands on an existing ancestor, never errors on the
	// missing leaf.
	assert.NotContains(t, found.Detail, "no existing ancestor")
}

func TestPreflightResult_WarningsAreAdvisoryNotBlocking(t *testing.T) {
	res := &PreflightResult{}
	res.pass("bin dir", "/out")
	res.warn("symbol cache", "low space")

	assert.True(t, res.OK())
	assert.Len(t, res.Warnings, 1)
	assert.Empty(t, res.Errors)

	require.Len(t, res.Checks, 2)
	warned := res.Checks[1]
	assert.False(t, warned.OK)
	assert.True(t, warned.Warning)
	// Blocking failures stay distinguishable from warnings.
	res.fail("memory", "too low")
	assert.False(t, res.Checks[2].Warning)
	assert.False(t, res.OK())
}

func TestPreflight_EmptySymbolCacheDirSkipsProbe(t *testing.T) {
	res := Preflight(Params{BinDir: t.TempDir()})
	for _, c := range res.Checks {
		assert.NotEqual(t, "symbol cache", c.Name)
	}
}
