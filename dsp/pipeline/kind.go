package pipeline

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-restore/dsp/core"
)

// Kind identifies an operation. The numeric order is the execution order.
type Kind int

const (
	KindNoiseReduction Kind = iota
	KindEchoReduction
	KindReverbReduction
	KindVolumeNormalization
	KindVolumeCompression

	numKinds
)

var kindNames = [numKinds]struct{ display, slug string }{
	KindNoiseReduction:      {"Noise Reduction", "noise-reduction"},
	KindEchoReduction:       {"Echo Reduction", "echo-reduction"},
	KindReverbReduction:     {"Reverb Reduction", "reverb-reduction"},
	KindVolumeNormalization: {"Volume Normalization", "volume-normalization"},
	KindVolumeCompression:   {"Volume Compression", "volume-compression"},
}

// Kinds returns every kind in execution order.
func Kinds() []Kind {
	out := make([]Kind, numKinds)
	for i := range out {
		out[i] = Kind(i)
	}

	return out
}

// Valid reports whether k names a known operation.
func (k Kind) Valid() bool { return k >= 0 && k < numKinds }

// String returns the display name, e.g. "Noise Reduction".
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}

	return kindNames[k].display
}

// Slug returns the command-line name, e.g. "noise-reduction".
func (k Kind) Slug() string {
	if !k.Valid() {
		return fmt.Sprintf("kind-%d", int(k))
	}

	return kindNames[k].slug
}

// ParseKind accepts a slug or display name, ignoring case and treating
// spaces, dashes and underscores alike.
func ParseKind(s string) (Kind, error) {
	key := normalizeName(s)

	for k, names := range kindNames {
		if key == normalizeName(names.slug) {
			return Kind(k), nil
		}
	}

	return 0, fmt.Errorf("unknown operation %q: %w", s, core.ErrInvalidParameter)
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	return strings.NewReplacer(" ", "-", "_", "-").Replace(s)
}
