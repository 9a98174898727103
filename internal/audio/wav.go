// Package audio decodes media input into the mono float32 waveform the
// recognizer consumes.
package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var ErrInvalidWav = errors.New("invalid wav file")

// readChunkSamples is the granularity of incremental PCM reads.
const readChunkSamples = 60 * 16000

// DecodeWav reads a whole PCM16LE mono WAV file and returns its samples as
// float32 in [-1, 1] along with the file's sample rate.
func DecodeWav(r io.ReadSeeker) ([]float32, int, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, 0, err
	}

	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, ErrInvalidWav
	}
	dec.ReadInfo()

	if dec.WavAudioFormat != 1 {
		return nil, 0, fmt.Errorf("unsupported wav format: audioFormat=%d (need PCM=1)", dec.WavAudioFormat)
	}
	if dec.NumChans != 1 {
		return nil, 0, fmt.Errorf("unsupported channels: %d (need mono=1)", dec.NumChans)
	}
	if dec.BitDepth != 16 {
		return nil, 0, fmt.Errorf("unsupported bits per sample: %d (need 16)", dec.BitDepth)
	}

	intBuf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: int(dec.NumChans),
			SampleRate:  int(dec.SampleRate),
		},
		Data:           make([]int, readChunkSamples),
		SourceBitDepth: int(dec.BitDepth),
	}

	var samples []float32
	for {
		intBuf.Data = intBuf.Data[:cap(intBuf.Data)]
		n, err := dec.PCMBuffer(intBuf)
		if n > 0 {
			fb := intBuf.AsFloat32Buffer()
			samples = append(samples, fb.Data[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("decode wav pcm: %w", err)
		}
		// Some decoders return n == 0 with err == nil at exact EOF.
		if n == 0 {
			break
		}
	}

	return samples, int(dec.SampleRate), nil
}
