package pipeline

import (
	"testing"

	"github.com/cwbudde/algo-restore/dsp/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindNames(t *testing.T) {
	want := []struct {
		display, slug string
	}{
		{"Noise Reduction", "noise-reduction"},
		{"Echo Reduction", "echo-reduction"},
		{"Reverb Reduction", "reverb-reduction"},
		{"Volume Normalization", "volume-normalization"},
		{"Volume Compression", "volume-compression"},
	}

	kinds := Kinds()
	require.Len(t, kinds, len(want))

	for i, k := range kinds {
		assert.Equal(t, want[i].display, k.String())
		assert.Equal(t, want[i].slug, k.Slug())
	}

	assert.Equal(t, "Kind(9)", Kind(9).String())
	assert.False(t, Kind(-1).Valid())
}

func TestParseKind(t *testing.T) {
	for _, in := range []string{"noise-reduction", "Noise Reduction", "NOISE_REDUCTION", " noise reduction "} {
		k, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, KindNoiseReduction, k)
	}

	_, err := ParseKind("declip")
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
}

func TestOrderSortsByKind(t *testing.T) {
	ops := []Operation{VolumeCompression{}, EchoReduction{}, NoiseReduction{}}

	ordered, err := Order(ops)
	require.NoError(t, err)

	got := make([]Kind, len(ordered))
	for i, op := range ordered {
		got[i] = op.Kind()
	}

	assert.Equal(t, []Kind{KindNoiseReduction, KindEchoReduction, KindVolumeCompression}, got)
	assert.Equal(t, KindVolumeCompression, ops[0].Kind(), "input slice must not be reordered")

	_, err = Order([]Operation{nil})
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
}
