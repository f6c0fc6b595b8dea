package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "pnx", cfg.StdName)
	assert.Equal(t, BackendNASM, cfg.BackendName)
	assert.Equal(t, 8, cfg.WordSize)
	assert.Equal(t, 16, cfg.StackAlignment)

	for f := Feature(0); f < FeatCount; f++ {
		assert.True(t, cfg.IsFeatureEnabled(f), cfg.Features[f].Name)
	}
	for w := Warning(0); w < WarnCount; w++ {
		assert.True(t, cfg.IsWarningEnabled(w), cfg.Warnings[w].Name)
	}
}

func TestApplyStd(t *testing.T) {
	cfg := NewConfig()

	require.NoError(t, cfg.ApplyStd("pn"))
	assert.True(t, cfg.IsFeatureEnabled(FeatNewlineTerminated))
	assert.False(t, cfg.IsFeatureEnabled(FeatComments))
	assert.False(t, cfg.IsFeatureEnabled(FeatBlocks))

	require.NoError(t, cfg.ApplyStd("pnx"))
	assert.True(t, cfg.IsFeatureEnabled(FeatComments))
	assert.True(t, cfg.IsFeatureEnabled(FeatBlocks))

	assert.Error(t, cfg.ApplyStd("c99"))
	assert.Equal(t, "pnx", cfg.StdName)
}

func TestApplyLists(t *testing.T) {
	cfg := NewConfig()

	require.NoError(t, cfg.ApplyFeatures("no-comments, -Fno-blocks"))
	assert.False(t, cfg.IsFeatureEnabled(FeatComments))
	assert.False(t, cfg.IsFeatureEnabled(FeatBlocks))
	assert.True(t, cfg.IsFeatureEnabled(FeatNewlineTerminated))

	require.NoError(t, cfg.ApplyWarnings("no-all,shadow"))
	assert.True(t, cfg.IsWarningEnabled(WarnShadow))
	assert.False(t, cfg.IsWarningEnabled(WarnUnused))

	assert.EqualError(t, cfg.ApplyFeatures("loops"), "unknown feature 'loops'")
	assert.EqualError(t, cfg.ApplyWarnings("no-pedantic"), "unknown warning 'pedantic'")
}

func TestSetTarget(t *testing.T) {
	for _, tc := range []struct {
		sel     string
		backend string
		target  string
		err     bool
	}{
		{sel: "", backend: BackendNASM, target: "amd64"},
		{sel: "nasm", backend: BackendNASM, target: "amd64"},
		{sel: "nasm/arm64", err: true},
		{sel: "qbe/arm64", backend: BackendQBE, target: "arm64"},
		{sel: "qbe/amd64_sysv", backend: BackendQBE, target: "amd64_sysv"},
		{sel: "qbe/vax", err: true},
		{sel: "gcc", err: true},
	} {
		t.Run(tc.sel, func(t *testing.T) {
			cfg := NewConfig()
			err := cfg.SetTarget("linux", "amd64", tc.sel)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.backend, cfg.BackendName)
			assert.Equal(t, tc.target, cfg.BackendTarget)
		})
	}
}
