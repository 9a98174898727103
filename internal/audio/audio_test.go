package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestPCM16LEToFloat32(t *testing.T) {
	pcm := make([]byte, 8)
	binary.LittleEndian.PutUint16(pcm[0:], 0)
	binary.LittleEndian.PutUint16(pcm[2:], uint16(int16(16384)))
	negHalf := int16(-16384)
	negFull := int16(-32768)
	binary.LittleEndian.PutUint16(pcm[4:], uint16(negHalf))
	binary.LittleEndian.PutUint16(pcm[6:], uint16(negFull))

	got := PCM16LEToFloat32(pcm)
	want := []float32{0, 0.5, -0.5, -1}
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPCM16LEToFloat32OddTailIgnored(t *testing.T) {
	if got := PCM16LEToFloat32([]byte{0, 0, 0xff}); len(got) != 1 {
		t.Errorf("got %d samples from 3 bytes, want 1", len(got))
	}
}

func TestResampleMono(t *testing.T) {
	t.Run("same rate is identity", func(t *testing.T) {
		in := []float32{1, 2, 3}
		if got := ResampleMono(in, 16000, 16000); len(got) != 3 || got[1] != 2 {
			t.Errorf("got %v, want input unchanged", got)
		}
	})

	t.Run("downsample halves length", func(t *testing.T) {
		in := make([]float32, 32000)
		got := ResampleMono(in, 32000, 16000)
		if len(got) != 16000 {
			t.Errorf("len = %d, want 16000", len(got))
		}
	})

	t.Run("upsample doubles length", func(t *testing.T) {
		in := make([]float32, 8000)
		got := ResampleMono(in, 8000, 16000)
		if len(got) != 16000 {
			t.Errorf("len = %d, want 16000", len(got))
		}
	})

	t.Run("interpolates between neighbors", func(t *testing.T) {
		got := ResampleMono([]float32{0, 1}, 8000, 16000)
		if got[0] != 0 {
			t.Errorf("got[0] = %v, want 0", got[0])
		}
		if math.Abs(float64(got[1]-0.5)) > 1e-6 {
			t.Errorf("got[1] = %v, want 0.5", got[1])
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := ResampleMono(nil, 8000, 16000); len(got) != 0 {
			t.Errorf("got %v, want empty", got)
		}
	})
}

func writeTestWav(t *testing.T, sampleRate, numChans int, samples []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, numChans, 1)
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: numChans, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecodeWav(t *testing.T) {
	samples := make([]int, 1600)
	for i := range samples {
		samples[i] = int(10000 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}
	path := writeTestWav(t, 16000, 1, samples)

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	got, rate, err := DecodeWav(f)
	if err != nil {
		t.Fatalf("DecodeWav: %v", err)
	}
	if rate != 16000 {
		t.Errorf("rate = %d, want 16000", rate)
	}
	if len(got) != len(samples) {
		t.Errorf("decoded %d samples, want %d", len(got), len(samples))
	}
}

func TestDecodeWavRejectsStereo(t *testing.T) {
	path := writeTestWav(t, 16000, 2, make([]int, 3200))

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, _, err := DecodeWav(f); err == nil {
		t.Fatal("expected error for stereo input")
	}
}

func TestDecodeWavRejectsGarbage(t *testing.T) {
	r := bytes.NewReader([]byte("definitely not a wav file"))
	if _, _, err := DecodeWav(r); !errors.Is(err, ErrInvalidWav) {
		t.Errorf("err = %v, want ErrInvalidWav", err)
	}
}
