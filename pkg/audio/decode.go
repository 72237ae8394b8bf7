package audio

import (
	"bytes"
	"encoding/binary"
)

// DecodeWAV extracts normalized mono samples from a WAV-like container of
// 16-bit little-endian PCM. The "data" sub-chunk is located by scanning for
// its 4-byte tag rather than walking the full RIFF chunk tree — malformed
// headers from browser recorders are common and a strict walk rejects them.
//
// Stereo containers (channel count 2 in the "fmt " chunk) are downmixed to
// mono by averaging L+R. Any other channel count is treated as mono.
//
// Returns [ErrNoDataChunk] if the tag is never found and [ErrEmptyBuffer]
// if the data chunk holds no complete samples.
func DecodeWAV(data []byte) (*SampleBuffer, error) {
	idx := bytes.Index(data, []byte("data"))
	if idx < 0 || idx+8 > len(data) {
		return nil, ErrNoDataChunk
	}

	// Chunk size follows the tag; clamp to what is actually present since
	// streamed containers often declare a size they never deliver.
	declared := int(binary.LittleEndian.Uint32(data[idx+4 : idx+8]))
	pcm := data[idx+8:]
	if declared > 0 && declared < len(pcm) {
		pcm = pcm[:declared]
	}

	if channelCount(data[:idx]) == 2 {
		return decodeStereo16(pcm)
	}
	return DecodeRaw(pcm)
}

// DecodeRaw converts a headerless buffer of 16-bit little-endian mono PCM
// to a normalized [SampleBuffer]. A trailing odd byte is ignored.
func DecodeRaw(pcm []byte) (*SampleBuffer, error) {
	n := len(pcm) / 2
	if n == 0 {
		return nil, ErrEmptyBuffer
	}
	samples := make([]float64, n)
	for i := range n {
		s := int16(pcm[i*2]) | int16(pcm[i*2+1])<<8
		samples[i] = float64(s) / 32768
	}
	return &SampleBuffer{Samples: samples, Rate: SampleRate}, nil
}

// decodeStereo16 downmixes interleaved 16-bit stereo PCM to normalized mono
// by averaging L+R per frame. int32 arithmetic avoids overflow on the sum.
func decodeStereo16(pcm []byte) (*SampleBuffer, error) {
	frames := len(pcm) / 4
	if frames == 0 {
		return nil, ErrEmptyBuffer
	}
	samples := make([]float64, frames)
	for i := range frames {
		l := int32(int16(pcm[i*4]) | int16(pcm[i*4+1])<<8)
		r := int32(int16(pcm[i*4+2]) | int16(pcm[i*4+3])<<8)
		samples[i] = float64((l+r)/2) / 32768
	}
	return &SampleBuffer{Samples: samples, Rate: SampleRate}, nil
}

// channelCount reads the channel count from the "fmt " sub-chunk in header,
// returning 0 when the chunk is absent or truncated.
func channelCount(header []byte) int {
	idx := bytes.Index(header, []byte("fmt "))
	if idx < 0 || idx+12 > len(header) {
		return 0
	}
	// fmt chunk layout: tag(4) size(4) audioFormat(2) numChannels(2) ...
	return int(binary.LittleEndian.Uint16(header[idx+10 : idx+12]))
}
