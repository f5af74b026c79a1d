package main

import (
	"testing"

	"github.com/cwbudde/algo-restore/dsp/core"
	"github.com/cwbudde/algo-restore/dsp/pipeline"
	"github.com/cwbudde/algo-restore/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOperations(t *testing.T) {
	ops, err := buildOperations(
		[]string{"volume-compression", "Noise Reduction"},
		[]string{"volume-compression.ratio=6", "volume_compression.knee-db=2.5"},
	)
	require.NoError(t, err)
	require.Len(t, ops, 2)

	comp, ok := ops[0].(pipeline.VolumeCompression)
	require.True(t, ok)
	assert.InDelta(t, 6.0, comp.Config.Ratio, 0)
	assert.InDelta(t, 2.5, comp.Config.KneeDB, 0)
	assert.Equal(t, pipeline.KindNoiseReduction, ops[1].Kind())
}

func TestBuildOperations_All(t *testing.T) {
	ops, err := buildOperations([]string{"all"}, []string{"reverb-reduction.taps=4"})
	require.NoError(t, err)
	require.Len(t, ops, len(pipeline.Kinds()))

	for i, k := range pipeline.Kinds() {
		assert.Equal(t, k, ops[i].Kind())
	}

	assert.Equal(t, 4, ops[2].(pipeline.ReverbReduction).Config.Taps)
}

func TestBuildOperations_Errors(t *testing.T) {
	tests := []struct {
		name  string
		ops   []string
		sets  []string
		match string
	}{
		{"none", nil, nil, "no operations"},
		{"unknown op", []string{"deverb"}, nil, "unknown operation"},
		{"duplicate", []string{"echo-reduction", "echo_reduction"}, nil, "more than once"},
		{"malformed set", []string{"echo-reduction"}, []string{"step-size=0.1"}, "op.key=value"},
		{"unselected target", []string{"echo-reduction"}, []string{"reverb-reduction.taps=4"}, "not selected"},
		{"unknown key", []string{"echo-reduction"}, []string{"echo-reduction.gain=2"}, "gain"},
		{"out of range", []string{"echo-reduction"}, []string{"echo-reduction.step-size=3"}, "step"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildOperations(tt.ops, tt.sets)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.match)
		})
	}
}

func TestBuildOperations_OutOfRangeIsInvalidParameter(t *testing.T) {
	_, err := buildOperations([]string{"volume-normalization"}, []string{"volume-normalization.target-lufs=5"})
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
}

func TestApplyOverrides(t *testing.T) {
	cfg := &config.Config{Workers: 4, LogFormat: "text", LogLevel: "info"}

	require.NoError(t, applyOverrides(cfg, "DEBUG", "json"))
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)

	assert.Error(t, applyOverrides(cfg, "", "xml"))
}
