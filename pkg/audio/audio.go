// Package audio provides PCM decoding for the analysis pipeline.
//
// The pipeline operates on mono 16 kHz audio. Input arrives either as a
// WAV-like container (16-bit little-endian PCM) or as a raw PCM buffer
// without a header. Decoding produces a [SampleBuffer] of normalized
// float samples in [-1, 1] that downstream feature extraction treats as
// immutable.
package audio

import (
	"errors"
	"time"
)

// SampleRate is the fixed pipeline sample rate in Hz. Inputs are assumed
// to already be at this rate; there is no resampling stage.
const SampleRate = 16000

// Decode errors. All are recoverable — a failed decode aborts the current
// chunk only, never the session.
var (
	// ErrNoDataChunk means the container had no "data" sub-chunk tag.
	ErrNoDataChunk = errors.New("audio: no data chunk found in container")

	// ErrEmptyBuffer means decoding produced zero samples.
	ErrEmptyBuffer = errors.New("audio: empty sample buffer")
)

// SampleBuffer is an ordered sequence of normalized mono samples produced
// by one decode call. It is owned exclusively by that call and must not be
// mutated after creation.
type SampleBuffer struct {
	// Samples are normalized to [-1, 1].
	Samples []float64

	// Rate is the sample rate in Hz, fixed at [SampleRate].
	Rate int
}

// Duration returns the playback duration of the buffer.
func (b *SampleBuffer) Duration() time.Duration {
	if b.Rate <= 0 {
		return 0
	}
	return time.Duration(float64(len(b.Samples)) / float64(b.Rate) * float64(time.Second))
}

// Seconds returns the playback duration in seconds.
func (b *SampleBuffer) Seconds() float64 {
	if b.Rate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.Rate)
}
