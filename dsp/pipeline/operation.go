package pipeline

import (
	"fmt"

	"github.com/cwbudde/algo-restore/dsp/core"
	"github.com/cwbudde/algo-restore/dsp/effects/dynamics"
	"github.com/cwbudde/algo-restore/dsp/effects/restoration"
)

// Operation is one selectable stage. The set of implementations is closed:
// NoiseReduction, EchoReduction, ReverbReduction, VolumeNormalization and
// VolumeCompression.
type Operation interface {
	Kind() Kind
	validate() error
}

// NoiseReduction runs the pipeline's Denoiser, or a SpectralGate built from
// Gate when none was injected.
type NoiseReduction struct {
	Gate restoration.SpectralGateConfig
}

// EchoReduction runs an EchoCanceller.
type EchoReduction struct {
	Config restoration.EchoConfig
}

// ReverbReduction runs a WPE Dereverberator.
type ReverbReduction struct {
	Config restoration.WPEConfig
}

// VolumeNormalization scales to an integrated loudness target.
type VolumeNormalization struct {
	TargetLUFS float64
}

// VolumeCompression runs a soft-knee Compressor.
type VolumeCompression struct {
	Config dynamics.CompressorConfig
}

func (NoiseReduction) Kind() Kind { return KindNoiseReduction }
func (EchoReduction) Kind() Kind { return KindEchoReduction }
func (ReverbReduction) Kind() Kind { return KindReverbReduction }
func (VolumeNormalization) Kind() Kind { return KindVolumeNormalization }
func (VolumeCompression) Kind() Kind { return KindVolumeCompression }

func (o NoiseReduction) validate() error { return o.Gate.Validate() }
func (o EchoReduction) validate() error { return o.Config.Validate() }
func (o ReverbReduction) validate() error { return o.Config.Validate() }
func (o VolumeCompression) validate() error { return o.Config.Validate() }

func (o VolumeNormalization) validate() error {
	_, err := dynamics.NewNormalizer(o.TargetLUFS)
	return err
}

// Default returns the operation of kind k with default parameters.
func Default(k Kind) (Operation, error) {
	switch k {
	case KindNoiseReduction:
		return NoiseReduction{Gate: restoration.DefaultSpectralGateConfig()}, nil
	case KindEchoReduction:
		return EchoReduction{Config: restoration.DefaultEchoConfig()}, nil
	case KindReverbReduction:
		return ReverbReduction{Config: restoration.DefaultWPEConfig()}, nil
	case KindVolumeNormalization:
		return VolumeNormalization{TargetLUFS: dynamics.DefaultTargetLUFS()}, nil
	case KindVolumeCompression:
		return VolumeCompression{Config: dynamics.DefaultCompressorConfig()}, nil
	default:
		return nil, fmt.Errorf("unknown operation kind %d: %w", int(k), core.ErrInvalidParameter)
	}
}
